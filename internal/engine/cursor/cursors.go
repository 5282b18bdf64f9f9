package cursor

import "sort"

// Set manages an ordered, deduplicating collection of cursors keyed by
// ID, carrying a primary designation. Cursors are kept sorted by
// position; overlapping or position-and-anchor-duplicate cursors are
// merged on every mutation, per spec.md's cursor-set invariants. The
// surviving cursor of a merge is always the one with the lower ID, and
// if the primary cursor is merged away, the primary designation follows
// it onto the survivor, so a caller tracking "the primary cursor" by ID
// never loses it to a silent merge.
type Set struct {
	cursors []Cursor
	nextID  ID
	primary ID
}

// NewSet creates a set with a single cursor at the given selection.
func NewSet(initial Selection) *Set {
	s := &Set{}
	id := s.allocID()
	s.cursors = []Cursor{newCursor(id, initial)}
	s.primary = id
	return s
}

// NewSetAt creates a set with a single point caret at offset.
func NewSetAt(offset ByteOffset) *Set {
	return NewSet(NewCursorSelection(offset))
}

// NewSetFromSelections creates a set from a slice of selections, each
// getting its own ID, normalized (sorted and merged) on construction.
// The first selection, if it survives normalization, becomes primary.
func NewSetFromSelections(sels []Selection) *Set {
	if len(sels) == 0 {
		return NewSetAt(0)
	}
	s := &Set{cursors: make([]Cursor, len(sels))}
	for i, sel := range sels {
		s.cursors[i] = newCursor(s.allocID(), sel)
	}
	s.primary = s.cursors[0].id
	s.normalize()
	return s
}

func (s *Set) allocID() ID {
	s.nextID++
	return ID(s.nextID)
}

// Primary returns the primary cursor.
func (s *Set) Primary() Cursor {
	if c, ok := s.ByID(s.primary); ok {
		return c
	}
	if len(s.cursors) == 0 {
		return Cursor{}
	}
	return s.cursors[0]
}

// PrimaryID returns the ID of the primary cursor.
func (s *Set) PrimaryID() ID {
	return s.primary
}

// SetPrimary designates the cursor with the given ID as primary. Returns
// false if no cursor with that ID exists.
func (s *Set) SetPrimary(id ID) bool {
	if _, ok := s.ByID(id); !ok {
		return false
	}
	s.primary = id
	return true
}

// ByID returns the cursor with the given ID, if present.
func (s *Set) ByID(id ID) (Cursor, bool) {
	for _, c := range s.cursors {
		if c.id == id {
			return c, true
		}
	}
	return Cursor{}, false
}

// All returns a copy of all cursors, sorted by position.
func (s *Set) All() []Cursor {
	result := make([]Cursor, len(s.cursors))
	copy(result, s.cursors)
	return result
}

// Count returns the number of cursors.
func (s *Set) Count() int {
	return len(s.cursors)
}

// IsMulti reports whether there is more than one cursor.
func (s *Set) IsMulti() bool {
	return len(s.cursors) > 1
}

// AddCursor adds a new cursor at sel and returns its ID. If sel overlaps
// or duplicates an existing cursor, the new cursor merges into it
// immediately and the surviving (lower) ID is returned instead.
func (s *Set) AddCursor(sel Selection) ID {
	id := s.allocID()
	s.cursors = append(s.cursors, newCursor(id, sel))
	s.normalize()
	return s.survivorOf(id, sel)
}

// survivorOf finds the ID that now covers the cursor originally added as
// id/sel, after a merge may have folded it into another cursor.
func (s *Set) survivorOf(id ID, sel Selection) ID {
	if _, ok := s.ByID(id); ok {
		return id
	}
	r := sel.Range()
	for _, c := range s.cursors {
		cr := c.Range()
		if cr.Start <= r.End && r.Start <= cr.End {
			return c.id
		}
	}
	if len(s.cursors) > 0 {
		return s.cursors[0].id
	}
	return id
}

// RestoreCursor reinserts a cursor under a specific, previously-assigned
// ID rather than allocating a fresh one. Used by history's undo/redo to
// reverse a RemoveCursor event: the recreated cursor must resolve by the
// same ID that the original AddCursor event returned, or a caller (or a
// later event in the same batch) referencing that ID by a later
// MoveCursor/RemoveCursor would silently miss it. Bumps the internal ID
// counter if necessary so future AddCursor calls never collide with the
// restored ID.
func (s *Set) RestoreCursor(id ID, sel Selection) {
	if id > s.nextID {
		s.nextID = id
	}
	s.cursors = append(s.cursors, newCursor(id, sel))
	s.normalize()
}

// RemoveCursor removes the cursor with the given ID. If it is the last
// remaining cursor, it is replaced with a fresh point caret at offset 0
// (a Set is never empty) and that replacement becomes primary. Returns
// false if id was not present.
func (s *Set) RemoveCursor(id ID) bool {
	idx := -1
	for i, c := range s.cursors {
		if c.id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	s.cursors = append(s.cursors[:idx], s.cursors[idx+1:]...)
	if len(s.cursors) == 0 {
		newID := s.allocID()
		s.cursors = []Cursor{newCursor(newID, NewCursorSelection(0))}
		s.primary = newID
		return true
	}
	if s.primary == id {
		s.primary = s.cursors[0].id
	}
	return true
}

// MoveCursor collapses the cursor with the given ID to a point caret at
// newPos, then renormalizes. Returns false if id was not present.
func (s *Set) MoveCursor(id ID, newPos ByteOffset) bool {
	for i, c := range s.cursors {
		if c.id == id {
			s.cursors[i] = c.MoveTo(newPos)
			s.normalize()
			return true
		}
	}
	return false
}

// ExtendCursor moves the head of the cursor with the given ID to newPos,
// keeping its anchor fixed (turning a point caret into a selection, or
// resizing one), then renormalizes. Returns false if id was not present.
func (s *Set) ExtendCursor(id ID, newPos ByteOffset) bool {
	for i, c := range s.cursors {
		if c.id == id {
			s.cursors[i] = c.ExtendTo(newPos)
			s.normalize()
			return true
		}
	}
	return false
}

// SetPreferredColumn updates the remembered visual column for the cursor
// with the given ID. Returns false if id was not present.
func (s *Set) SetPreferredColumn(id ID, col uint32) bool {
	for i, c := range s.cursors {
		if c.id == id {
			s.cursors[i] = c.WithPreferredColumn(col)
			return true
		}
	}
	return false
}

// ResetTo replaces all cursors with a single new cursor at sel.
func (s *Set) ResetTo(sel Selection) {
	id := s.allocID()
	s.cursors = []Cursor{newCursor(id, sel)}
	s.primary = id
}

// ResetToAll replaces all cursors with fresh ones built from sels, each
// getting a new ID.
func (s *Set) ResetToAll(sels []Selection) {
	if len(sels) == 0 {
		s.ResetTo(NewCursorSelection(0))
		return
	}
	s.cursors = make([]Cursor, len(sels))
	for i, sel := range sels {
		s.cursors[i] = newCursor(s.allocID(), sel)
	}
	s.primary = s.cursors[0].id
	s.normalize()
}

// ForEach calls f for every cursor.
func (s *Set) ForEach(f func(c Cursor)) {
	for _, c := range s.cursors {
		f(c)
	}
}

// MapInPlace applies f to every cursor, keeping IDs, then renormalizes.
func (s *Set) MapInPlace(f func(c Cursor) Cursor) {
	for i, c := range s.cursors {
		s.cursors[i] = f(c)
	}
	s.normalize()
}

// HasSelection reports whether any cursor carries a non-empty selection.
func (s *Set) HasSelection() bool {
	for _, c := range s.cursors {
		if c.HasSelection() {
			return true
		}
	}
	return false
}

// CollapseAll collapses every cursor to a point caret at its head, then
// renormalizes (which merges any carets that landed on the same offset).
func (s *Set) CollapseAll() {
	for i, c := range s.cursors {
		s.cursors[i] = c.Collapse()
	}
	s.normalize()
}

// Clamp clamps every cursor's position and anchor to [0, maxOffset].
func (s *Set) Clamp(maxOffset ByteOffset) {
	for i, c := range s.cursors {
		s.cursors[i] = c.Clamp(maxOffset)
	}
	s.normalize()
}

// Clone returns a deep copy of the set, including the next-ID counter
// and primary designation.
func (s *Set) Clone() *Set {
	clone := &Set{
		cursors: make([]Cursor, len(s.cursors)),
		nextID:  s.nextID,
		primary: s.primary,
	}
	copy(clone.cursors, s.cursors)
	return clone
}

// Ranges returns every cursor's range (empty for point carets), in
// position order.
func (s *Set) Ranges() []Range {
	ranges := make([]Range, len(s.cursors))
	for i, c := range s.cursors {
		ranges[i] = c.Range()
	}
	return ranges
}

// SelectionRanges returns ranges only for cursors that carry a selection.
func (s *Set) SelectionRanges() []Range {
	var ranges []Range
	for _, c := range s.cursors {
		if c.HasSelection() {
			ranges = append(ranges, c.Range())
		}
	}
	return ranges
}

// Normalize sorts cursors by position and merges any whose position and
// anchor are now equal, or whose ranges now overlap, per spec.md's
// cursor-set invariants. It is idempotent: a second call leaves the set
// exactly as the first call left it.
func (s *Set) Normalize() {
	s.normalize()
}

func (s *Set) normalize() {
	if len(s.cursors) <= 1 {
		return
	}

	sort.Slice(s.cursors, func(i, j int) bool {
		return s.cursors[i].Before(s.cursors[j])
	})

	merged := s.cursors[:1]
	for _, c := range s.cursors[1:] {
		last := &merged[len(merged)-1]
		lastRange, cRange := last.Range(), c.Range()
		duplicate := last.SamePosition(c)
		if duplicate || cRange.Start <= lastRange.End {
			survivor := mergeCursors(*last, c)
			if s.primary == last.id || s.primary == c.id {
				s.primary = survivor.id
			}
			*last = survivor
		} else {
			merged = append(merged, c)
		}
	}
	s.cursors = merged
}

// mergeCursors folds two overlapping/duplicate cursors into one, keeping
// the lower ID and that cursor's preferred column, with a selection
// spanning the union of both ranges.
func mergeCursors(a, b Cursor) Cursor {
	survivor, loser := a, b
	if b.id < a.id {
		survivor, loser = b, a
	}
	survivor.sel = survivor.sel.Merge(loser.sel)
	return survivor
}

// Equals reports whether two sets have the same cursors in the same
// order, comparing by position/anchor only (not ID or preferred column).
func (s *Set) Equals(other *Set) bool {
	if other == nil {
		return false
	}
	if s.Count() != other.Count() {
		return false
	}
	for i, c := range s.cursors {
		if !c.SamePosition(other.cursors[i]) {
			return false
		}
	}
	return true
}
