// Package model defines the core domain types shared across frvm.
//
// # Identity Types
//
//   - EntityID: stable video identifier derived from the storage path
//     ("<partition>/<filename>")
//   - Partition: orientation subfolder, indexed independently
//
// # Value Types
//
//   - State: tri-state category assignment (Unset, Yes, No)
package model
