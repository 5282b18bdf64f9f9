// Package buffer presents a piece.Tree as an editable document: byte/line
// counts, offset<->position conversion, range reads (pure and lazy-loading),
// modification tracking against the last-saved root, and a minimal diff
// against a prior root.
//
// Buffer does not synchronize its own access. Per the concurrency model, a
// single editor goroutine owns a Document (see internal/engine/document) and
// therefore every Buffer reachable from it; concurrent readers instead take
// a Snapshot, an immutable value safe to pass to other goroutines.
package buffer
