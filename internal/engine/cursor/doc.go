// Package cursor provides cursor and selection management for text editing.
//
// The cursor package handles:
//
//   - Selections with an anchor/head model via the Selection type
//   - Multi-cursor records ({ id, position, anchor?, preferred_column })
//     via the Cursor type
//   - An ordered, deduplicating, primary-tracking collection of cursors
//     via the Set type
//   - Cursor transformation through buffer edits
//
// Selection Model:
//
// Selections use an anchor/head model where:
//   - Anchor: The position where the selection started
//   - Head: The current cursor position (where typing would occur)
//
// When Anchor == Head, the selection represents just a cursor with no
// selected text. The selection can extend forward (head > anchor) or
// backward (head < anchor), preserving the user's selection direction.
//
// Cursor identity:
//
// A Cursor wraps a Selection with a stable ID and a PreferredColumn. IDs
// are assigned once, at creation, and are never reassigned by sorting,
// merging, or normalization: when two cursors merge because their
// selections now overlap, the surviving cursor keeps the lower ID, but
// its identity is never silently swapped for another cursor's.
//
// Multi-Cursor Support:
//
// Set manages multiple cursors that are:
//   - Kept sorted by position
//   - Automatically merged when overlapping (duplicates by equal
//     position and equal anchor collapse to one)
//   - Transformed together after edits
//   - Tracked with a single primary designation that follows the ID it
//     was assigned to, not a slice index
//
// Basic usage:
//
//	set := cursor.NewSet(cursor.NewCursorSelection(10))
//	id := set.AddCursor(cursor.NewCursorSelection(50)) // new cursor at offset 50, own ID
//
//	edit := buffer.Edit{Range: buffer.Range{Start: 0, End: 5}, NewText: "Hello"}
//	set.Transform(edit)
//
//	if c, ok := set.ByID(id); ok {
//		_ = c.Position() // still resolvable by ID after the transform/merge
//	}
//
// Thread Safety:
//
// Cursor and Selection types are immutable value types and safe for
// concurrent use. Set is not thread-safe and should be protected by
// external synchronization if accessed concurrently.
package cursor
