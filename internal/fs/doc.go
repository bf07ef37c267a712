// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: an open file with read/write/sync capabilities
//   - [FileSystem]: filesystem operations (open, remove, rename, etc.)
//
// # Implementations
//
//   - [LocalFS]: production implementation using the standard os package
//   - [FaultyFS]: test utility for fault injection (simulated I/O errors)
//
// [WriteAtomic] implements the temp-file-plus-rename pattern the sidecar
// writer depends on: a crash mid-write leaves the previous file intact.
//
// Production code should use fs.Default (which is [LocalFS]):
//
//	data, err := fs.ReadFile(fs.Default, path)
//
// Tests can inject [FaultyFS] to simulate failures:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".txt.tmp", fs.Fault{FailOnSync: true})
package fs
