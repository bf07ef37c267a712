// Package testutil provides testing utilities for frvm.
//
// This package is intended for use in tests only. It builds throwaway
// library trees on disk: partition folders, placeholder video files and
// sidecar text files.
//
//	tree := testutil.NewTree(t)
//	a := tree.AddVideo(model.PartitionLandscape, "a.mp4", "+🥗-🍔")
//	lib, err := frvm.Open(tree.Root)
package testutil
