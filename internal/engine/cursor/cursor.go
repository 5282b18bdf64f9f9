package cursor

import (
	"fmt"

	"github.com/dshills/quill/internal/engine/buffer"
)

// ByteOffset is an alias for buffer.ByteOffset for convenience.
type ByteOffset = buffer.ByteOffset

// Point is an alias for buffer.Point for convenience.
type Point = buffer.Point

// ID identifies a cursor uniquely within a Set. IDs are assigned once, at
// creation, by a monotonic Set counter and are never reused or reassigned:
// a cursor keeps its ID across Transform, Normalize, and merges for as
// long as it exists.
type ID uint64

// Cursor is a { id, position, anchor?, preferred_column } record: a point
// caret when it has no selection, or the live endpoint of a selection
// running to Anchor otherwise. Cursor is an immutable value type; every
// mutating method returns a new Cursor carrying the same ID.
type Cursor struct {
	id              ID
	sel             Selection
	preferredColumn uint32
}

// newCursor builds a cursor from an id and selection.
func newCursor(id ID, sel Selection) Cursor {
	return Cursor{id: id, sel: sel}
}

// ID returns the cursor's stable identity.
func (c Cursor) ID() ID {
	return c.id
}

// Position returns the cursor's head: the point where typing occurs.
func (c Cursor) Position() ByteOffset {
	return c.sel.Head
}

// Anchor returns the selection's fixed endpoint and true if the cursor
// carries a selection. A point caret (no selection) reports ok=false.
func (c Cursor) Anchor() (offset ByteOffset, ok bool) {
	if c.sel.IsEmpty() {
		return 0, false
	}
	return c.sel.Anchor, true
}

// HasSelection reports whether the cursor has a non-empty anchor, i.e. is
// not a bare point caret.
func (c Cursor) HasSelection() bool {
	return !c.sel.IsEmpty()
}

// Selection returns the underlying anchor/head pair.
func (c Cursor) Selection() Selection {
	return c.sel
}

// Range returns [min(anchor,position), max(anchor,position)); for a point
// caret this is the empty range [position, position).
func (c Cursor) Range() Range {
	return c.sel.Range()
}

// PreferredColumn returns the visual column remembered for vertical
// motion (arrow-up/down), independent of the cursor's actual position on
// shorter intervening lines.
func (c Cursor) PreferredColumn() uint32 {
	return c.preferredColumn
}

// WithPreferredColumn returns a copy of c with its preferred column set.
// Horizontal motion should call this to refresh the remembered column;
// vertical motion should leave it untouched.
func (c Cursor) WithPreferredColumn(col uint32) Cursor {
	c.preferredColumn = col
	return c
}

// MoveTo returns a cursor collapsed to a point caret at offset, keeping
// the same ID and preferred column.
func (c Cursor) MoveTo(offset ByteOffset) Cursor {
	c.sel = NewCursorSelection(offset)
	return c
}

// MoveBy returns a cursor shifted by delta bytes (anchor and head both
// move, if there is a selection).
func (c Cursor) MoveBy(delta ByteOffset) Cursor {
	c.sel = c.sel.MoveBy(delta)
	if c.sel.Anchor < 0 {
		c.sel.Anchor = 0
	}
	if c.sel.Head < 0 {
		c.sel.Head = 0
	}
	return c
}

// ExtendTo returns a cursor with its anchor held fixed and its head moved
// to offset, turning a point caret into a selection or resizing one.
func (c Cursor) ExtendTo(offset ByteOffset) Cursor {
	c.sel = c.sel.Extend(offset)
	return c
}

// Collapse returns a cursor with no selection, positioned at the current
// head.
func (c Cursor) Collapse() Cursor {
	c.sel = c.sel.Collapse()
	return c
}

// Clamp returns a cursor whose position and anchor are both clamped to
// [0, maxOffset].
func (c Cursor) Clamp(maxOffset ByteOffset) Cursor {
	c.sel = c.sel.Clamp(maxOffset)
	return c
}

// String returns a string representation of the cursor, including its ID.
func (c Cursor) String() string {
	if !c.HasSelection() {
		return fmt.Sprintf("Cursor#%d(%d)", c.id, c.sel.Head)
	}
	return fmt.Sprintf("Cursor#%d(%s)", c.id, c.sel.String())
}

// SamePosition reports whether two cursors have equal position and equal
// anchor, the duplicate condition Set.Normalize merges on. It ignores ID
// and preferred column.
func (c Cursor) SamePosition(other Cursor) bool {
	return c.sel.Equals(other.sel)
}

// Before reports whether c sorts before other by range start, then by
// descending range end (wider ranges starting at the same point sort
// first, matching the teacher's CursorSet.normalize order).
func (c Cursor) Before(other Cursor) bool {
	cs, os := c.Range(), other.Range()
	if cs.Start != os.Start {
		return cs.Start < os.Start
	}
	return cs.End > os.End
}
