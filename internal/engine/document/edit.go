package document

import (
	"github.com/dshills/quill/internal/engine/cursor"
	"github.com/dshills/quill/internal/engine/history"
)

// applyBatch wraps events in a single undo unit (or applies a lone
// event directly) and runs it, rejecting writes on a read-only
// document. A nil events slice is a no-op.
func (d *Document) applyBatch(description string, events ...history.Event) error {
	if d.readOnly {
		return ErrReadOnly
	}
	return d.hist.ApplyBatch(d, description, events...)
}

// TypeText inserts text at every cursor, replacing any selection it
// carries. Per spec.md §4.3, a multi-cursor write is one Batch so a
// single undo reverses every cursor's effect, and sub-events are built
// in descending position order: Set.All() returns cursors sorted
// ascending, so this walks it back to front, which keeps every
// recorded literal offset valid as earlier (rightward) edits are
// applied before any edit to their left can shift them.
func (d *Document) TypeText(text string) error {
	cursors := d.cursors.All()
	events := make([]history.Event, 0, len(cursors)*2)
	for i := len(cursors) - 1; i >= 0; i-- {
		c := cursors[i]
		pos := c.Position()
		if c.HasSelection() {
			r := c.Range()
			deleted, err := d.buf.GetTextRangeMut(r.Start, r.End)
			if err != nil {
				return err
			}
			events = append(events, history.NewDelete(r, deleted, c.ID()))
			pos = r.Start
		}
		events = append(events, history.NewInsert(pos, text, c.ID()))
	}
	return d.applyBatch("type", events...)
}

// DeleteSelection deletes every cursor's selection, one Batch for all
// of them. Point carets (no selection) are left untouched. A no-op
// (returns nil without touching history) if nothing is selected.
func (d *Document) DeleteSelection() error {
	cursors := d.cursors.All()
	var events []history.Event
	for i := len(cursors) - 1; i >= 0; i-- {
		c := cursors[i]
		if !c.HasSelection() {
			continue
		}
		r := c.Range()
		deleted, err := d.buf.GetTextRangeMut(r.Start, r.End)
		if err != nil {
			return err
		}
		events = append(events, history.NewDelete(r, deleted, c.ID()))
	}
	if len(events) == 0 {
		return nil
	}
	return d.applyBatch("delete selection", events...)
}

// Paste replaces each cursor's selection (if any) with text, inserting
// at every cursor otherwise, per spec.md §9's resolved Open Question:
// the full payload is delivered to every cursor, never split line by
// line across cursors.
func (d *Document) Paste(text string) error {
	cursors := d.cursors.All()
	events := make([]history.Event, 0, len(cursors)*2)
	for i := len(cursors) - 1; i >= 0; i-- {
		c := cursors[i]
		pos := c.Position()
		if c.HasSelection() {
			r := c.Range()
			deleted, err := d.buf.GetTextRangeMut(r.Start, r.End)
			if err != nil {
				return err
			}
			events = append(events, history.NewDelete(r, deleted, c.ID()))
			pos = r.Start
		}
		events = append(events, history.NewInsert(pos, text, c.ID()))
	}
	return d.applyBatch("paste", events...)
}

// AddCursorAt adds a new cursor at offset through the event log, so the
// addition itself is undoable. Returns the new cursor's ID. If offset
// would immediately merge into an existing cursor (equal position and
// anchor, per the cursor-set invariant), no event is recorded and the
// surviving cursor's ID is returned instead.
func (d *Document) AddCursorAt(offset cursor.ByteOffset) (cursor.ID, error) {
	probe := d.cursors.Clone()
	before := probe.Count()
	id := probe.AddCursor(cursor.NewCursorSelection(offset))
	if probe.Count() == before {
		return id, nil
	}
	if err := d.applyBatch("add cursor", history.NewAddCursor(id, offset)); err != nil {
		return 0, err
	}
	return id, nil
}

// RemoveCursorAt removes the cursor with id through the event log.
func (d *Document) RemoveCursorAt(id cursor.ID) error {
	c, ok := d.cursors.ByID(id)
	if !ok {
		return nil
	}
	return d.applyBatch("remove cursor", history.NewRemoveCursor(id, c.Position()))
}

// MoveCursor moves the cursor with id to newPos through the event log
// (undoable). For plain caret motion with no selection change, prefer
// mutating Cursors() directly instead: per spec.md §4.3, read-only
// cursor motion must NOT be pushed to the undo stack.
func (d *Document) MoveCursor(id cursor.ID, newPos cursor.ByteOffset) error {
	c, ok := d.cursors.ByID(id)
	if !ok {
		return nil
	}
	return d.applyBatch("move cursor", history.NewMoveCursor(id, c.Position(), newPos))
}
