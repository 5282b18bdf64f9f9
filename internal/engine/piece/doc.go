// Package piece provides a persistent, copy-on-write tree for storing and
// editing document text.
//
// The tree is a generalization of a classic piece table: instead of two flat
// arrays (original file, added text) indexed by a flat list of (offset,
// length) tuples, pieces are held at the leaves of an N-ary tree so that
// Insert, Delete, Split and Concat are all O(log n) and every intermediate
// version of the tree remains reachable and intact (older snapshots are
// simply older roots; nothing is ever mutated in place once published).
//
// Two kinds of leaves exist:
//
//   - Added pieces hold a slice of an in-memory, append-only arena. Because
//     the arena is never rewritten, many tree versions can safely hold
//     overlapping byte ranges into it without invalidation.
//   - Stored pieces reference a byte range of a backing file and load their
//     bytes lazily through an io.ReaderAt, caching the result once read.
//     This keeps opening a large file cheap: only the pieces a caller
//     actually reads pull bytes off disk.
//
// There is no manual reference counting anywhere in this package: a node
// reachable from a still-live tree root is kept alive by the Go garbage
// collector for exactly as long as something holds that root, which is the
// same lifetime guarantee the specification's persistent-tree description
// asks for in a non-garbage-collected language.
package piece
