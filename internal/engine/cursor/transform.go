package cursor

import (
	"sort"

	"github.com/dshills/quill/internal/engine/buffer"
)

// Edit is an alias for buffer.Edit for convenience.
type Edit = buffer.Edit

// TransformOffset updates an offset after an edit.
// Returns the new offset position.
//
// Transformation rules (spec.md §4.3 step 4):
//   - an insert at or before the offset shifts it by +len(bytes)
//   - a delete entirely before the offset shifts it by -len(range)
//   - a delete that contains the offset collapses it to range.start
func TransformOffset(offset ByteOffset, edit Edit) ByteOffset {
	// Edit is entirely before offset: adjust by delta
	if edit.Range.End <= offset {
		oldLen := edit.Range.End - edit.Range.Start
		newLen := ByteOffset(len(edit.NewText))
		return offset - oldLen + newLen
	}

	// Edit starts at or after offset: no change needed
	if edit.Range.Start >= offset {
		return offset
	}

	// Edit spans offset: move to end of new text
	return edit.Range.Start + ByteOffset(len(edit.NewText))
}

// TransformOffsetSticky is like TransformOffset but with a "sticky" behavior
// that determines how the offset behaves when the edit starts exactly at the offset.
// If sticky is true, the offset "sticks" to its position (stays at start of insert).
// If sticky is false, the offset moves with insertions (moves to end of insert).
func TransformOffsetSticky(offset ByteOffset, edit Edit, sticky bool) ByteOffset {
	// For insertions at exactly the offset position. This must be checked
	// before the "entirely before" case below: a zero-width edit sitting
	// at offset also satisfies edit.Range.End <= offset, which would
	// otherwise always shift the offset regardless of sticky.
	if edit.Range.Start == offset && edit.Range.Start == edit.Range.End {
		if sticky {
			// Sticky: stay at current position
			return offset
		}
		// Non-sticky: move to end of insertion
		return offset + ByteOffset(len(edit.NewText))
	}

	// Edit is entirely before offset: adjust by delta
	if edit.Range.End <= offset {
		oldLen := edit.Range.End - edit.Range.Start
		newLen := ByteOffset(len(edit.NewText))
		return offset - oldLen + newLen
	}

	// Edit starts after offset: no change needed
	if edit.Range.Start >= offset {
		return offset
	}

	// Edit spans offset: move to end of new text
	return edit.Range.Start + ByteOffset(len(edit.NewText))
}

// TransformSelection updates a selection after an edit. The anchor is
// sticky (stays put on an insertion exactly at the anchor); the head is
// not (moves with an insertion exactly at the head), matching how typing
// at a cursor should extend rather than straddle the new text. A point
// caret (empty selection) transforms both endpoints identically instead,
// so an insertion exactly at the caret cannot split it into a spurious
// selection.
func TransformSelection(sel Selection, edit Edit) Selection {
	if sel.IsEmpty() {
		moved := TransformOffsetSticky(sel.Head, edit, false)
		return Selection{Anchor: moved, Head: moved}
	}
	return Selection{
		Anchor: TransformOffsetSticky(sel.Anchor, edit, true),
		Head:   TransformOffsetSticky(sel.Head, edit, false),
	}
}

// TransformSelectionWithBias transforms a selection with specified bias for anchor and head.
func TransformSelectionWithBias(sel Selection, edit Edit, anchorSticky, headSticky bool) Selection {
	return Selection{
		Anchor: TransformOffsetSticky(sel.Anchor, edit, anchorSticky),
		Head:   TransformOffsetSticky(sel.Head, edit, headSticky),
	}
}

// Transform returns c with its selection translated through edit, per
// spec.md §4.3 step 4. The ID and preferred column are preserved; the
// caller is responsible for refreshing PreferredColumn on horizontal
// motion separately.
func (c Cursor) Transform(edit Edit) Cursor {
	c.sel = TransformSelection(c.sel, edit)
	return c
}

// Transform translates every cursor in the set through edit (spec.md
// §4.3 step 4), then renormalizes (step 5): sorts by position and
// merges any cursors that landed on equal position/anchor or now
// overlap.
func (s *Set) Transform(edit Edit) {
	for i, c := range s.cursors {
		s.cursors[i] = c.Transform(edit)
	}
	s.normalize()
}

// TransformMulti translates every cursor through a batch of edits. Edits
// are given in ascending position order, each in the coordinates of the
// text before the batch; they are replayed last to first (descending
// position), so every edit is applied before any edit to its left has
// shifted the offsets it refers to (spec.md §4.3's "earlier-byte edits do
// not shift later-byte cursors mid-batch").
func (s *Set) TransformMulti(edits []Edit) {
	for i := len(edits) - 1; i >= 0; i-- {
		s.Transform(edits[i])
	}
}

// TransformRanges updates a slice of ranges after an edit.
// Useful for transforming multiple independent ranges (overlay spans).
// Ranges are normalized to ensure Start <= End after transformation.
func TransformRanges(ranges []Range, edit Edit) []Range {
	result := make([]Range, len(ranges))
	for i, r := range ranges {
		start := TransformOffset(r.Start, edit)
		end := TransformOffset(r.End, edit)
		// Normalize: ensure Start <= End
		if start > end {
			start, end = end, start
		}
		result[i] = Range{Start: start, End: end}
	}
	return result
}

// AdjustForDeletion handles the special case of transforming offsets
// when text is deleted. If the offset is within the deleted range,
// it moves to the start of the deletion.
func AdjustForDeletion(offset ByteOffset, deleteRange Range) ByteOffset {
	// Before deletion: unchanged
	if offset <= deleteRange.Start {
		return offset
	}

	// Within deletion: move to start
	if offset < deleteRange.End {
		return deleteRange.Start
	}

	// After deletion: shift left
	return offset - (deleteRange.End - deleteRange.Start)
}

// AdjustForInsertion handles the special case of transforming offsets
// when text is inserted. Offsets at the insertion point move to the end
// of the inserted text.
func AdjustForInsertion(offset ByteOffset, insertOffset ByteOffset, insertLen ByteOffset) ByteOffset {
	// Before insertion: unchanged
	if offset < insertOffset {
		return offset
	}

	// At or after insertion: shift right
	return offset + insertLen
}

// ComputeEditDelta returns the change in document length from an edit.
func ComputeEditDelta(edit Edit) ByteOffset {
	return ByteOffset(len(edit.NewText)) - (edit.Range.End - edit.Range.Start)
}

// EditsInReverseOrder returns true if edits are sorted by descending start position.
// This is the required order for applying multiple edits atomically.
func EditsInReverseOrder(edits []Edit) bool {
	for i := 1; i < len(edits); i++ {
		if edits[i].Range.Start >= edits[i-1].Range.Start {
			return false
		}
	}
	return true
}

// SortEditsReverse sorts edits in descending order by start position.
// This mutates the input slice.
func SortEditsReverse(edits []Edit) {
	sort.Slice(edits, func(i, j int) bool {
		return edits[i].Range.Start > edits[j].Range.Start
	})
}
