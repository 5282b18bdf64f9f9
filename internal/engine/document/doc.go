// Package document ties the piece tree, the cursor set, and the event
// log into one editable unit: a Document (the BufferState of spec.md
// §3). It owns the piece-tree root (through a *buffer.Buffer), the live
// cursor set, the modified-since-save flag, the last-saved root, a
// namespaced overlay store keyed by byte range, per-line margin
// annotations, and the history.History that is the document's only
// legal write path.
//
// Document implements history.Target, so every mutation — typed
// input, programmatic edits, cursor moves that carry a selection
// change, overlay updates — flows through Document.Apply and is
// undoable. Read-only cursor motion (a caret move with no selection
// change) bypasses history entirely: callers mutate Cursors() directly
// and never call Apply for it, matching spec.md §4.3's read-only-event
// rule.
//
// A Document is owned by exactly one editor goroutine, the same
// single-writer model buffer.Buffer and cursor.Set already assume; it
// does not synchronize its own access.
package document
