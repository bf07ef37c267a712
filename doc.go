// Package frvm provides an embedded tri-state video categorization engine.
//
// A library is a directory tree with one subfolder per partition (by
// default the orientations square, landscape and portrait) containing
// video files. Each video can be tagged against a configurable set of
// emoji-keyed categories, and each category carries one of three values:
// YES, NO or UNSET. Assignments live next to each video in a plain-text
// sidecar file and are queried in memory through a boolean expression
// engine backed by Roaring Bitmaps.
//
// Production-ready features include:
//
//   - Tri-state category model: YES / NO / UNSET per (video, category)
//   - Column-bitmap query engine with AND, OR, negation and UNSET tests
//   - Emoji expression language with longest-match tokenization
//   - Human-editable "+🥗-🍔" sidecar files, parsed leniently
//   - Debounced, coalescing, atomically-replacing sidecar writer
//   - Uniform random sampling of large result sets without materialization
//   - Binary state snapshots (zstd + CRC32C) for fast cold starts
//   - Structured logging (log/slog) and pluggable metrics collection
//
// # Quick Start
//
// Open a library and query it:
//
//	lib, err := frvm.Open("./videos")
//	if err != nil {
//	    panic(err)
//	}
//	defer lib.Close()
//
//	// Everything tagged 🥗 YES and 🍔 not-YES, in landscape.
//	res, err := lib.Evaluate(model.PartitionLandscape, "🥗.!🍔")
//	for _, id := range res.IDs {
//	    fmt.Println(id)
//	}
//
// Tag a video; the sidecar rewrite happens in the background:
//
//	prev, err := lib.SetCategory(id, "🥗", model.Yes)
//
// Sample instead of materializing a huge result:
//
//	res, err := lib.Evaluate(model.PartitionPortrait, "?🥗",
//	    frvm.WithLimit(50), frvm.WithSeed(42))
//
// # Expression Language
//
// An expression is built from registered emoji keys and five operators:
//
//	🥗      matches videos where 🥗 is YES
//	!🥗     matches videos where 🥗 is NO
//	?🥗     matches videos where 🥗 is UNSET
//	a.b     AND (also expressed by juxtaposition: "🥗🍔")
//	a+b     OR
//	( )     grouping; "." binds tighter than "+"
//
// The empty expression matches every video in the partition.
//
// # Durability
//
// Sidecar files are the source of truth. Writes are debounced per entity
// so bursts of edits collapse into one disk write, and each write replaces
// the sidecar atomically (temp file, fsync, rename). Use Flush to force
// pending writes out, e.g. before program exit; Close always drains.
package frvm
