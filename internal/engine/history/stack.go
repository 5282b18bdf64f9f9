package history

import (
	"errors"
	"time"

	"github.com/dshills/quill/internal/engine/buffer"
	"github.com/dshills/quill/internal/engine/cursor"
)

// Common errors for history operations.
var (
	ErrNothingToUndo  = errors.New("history: nothing to undo")
	ErrNothingToRedo  = errors.New("history: nothing to redo")
	ErrNestedBatch    = errors.New("history: batch must not nest")
	ErrGroupInFlight  = errors.New("history: group already open")
	ErrNoGroupOpen    = errors.New("history: no group open")
)

// Target is whatever Apply mutates: the buffer, the live cursor set, and
// the overlay maps. document.Document implements this.
type Target interface {
	Buffer() *buffer.Buffer
	Cursors() *cursor.Set
	SetCursors(set *cursor.Set)
	AddOverlay(namespace string, r buffer.Range, face string, priority int, msg string)
	RemoveOverlay(namespace string, r buffer.Range)

	// TransformOverlays translates every stored overlay's range through
	// edit, the same way cursors are translated in step 4 of the Apply
	// protocol, so an overlay stays aligned with the text it decorates
	// across an Insert or Delete.
	TransformOverlays(edit buffer.Edit)
}

// entry is one undo-stack slot: the event that was applied, and the
// cursor set exactly as it stood immediately before that event.
type entry struct {
	event         Event
	cursorsBefore *cursor.Set
	timestamp     time.Time
}

// History is the two-vector undo/redo stack described in spec.md §4.3.
// It is not safe for concurrent use; like Buffer and cursor.Set, it is
// owned by a single editor goroutine.
type History struct {
	past, future []*entry
	maxEntries   int
}

// NewHistory creates a history with the given undo-depth limit. A
// non-positive limit falls back to 1000.
func NewHistory(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &History{maxEntries: maxEntries}
}

// Apply runs event against t following spec.md §4.3's Apply protocol and
// pushes it to the undo stack, clearing future. A Batch is applied as a
// single undo unit: every sub-event mutates t, but only one entry is
// pushed, carrying the cursor snapshot from before the whole batch.
func (h *History) Apply(t Target, event Event) error {
	if event.Kind == KindBatch {
		for _, sub := range event.Events {
			if sub.Kind == KindBatch {
				return ErrNestedBatch
			}
		}
	}

	before := t.Cursors().Clone()
	if err := mutate(t, event); err != nil {
		return err
	}
	h.push(&entry{event: event, cursorsBefore: before, timestamp: now()})
	return nil
}

// mutate performs steps 3-5 of the Apply protocol for event (or, for a
// Batch, for each of its sub-events in order): mutate the buffer,
// cursor set, or overlays; translate every cursor through an Insert or
// Delete's edit; normalize.
func mutate(t Target, event Event) error {
	if event.Kind == KindBatch {
		for _, sub := range event.Events {
			if err := mutate(t, sub); err != nil {
				return err
			}
		}
		return nil
	}

	switch event.Kind {
	case KindInsert:
		if _, err := t.Buffer().Insert(event.Position, event.Bytes); err != nil {
			return err
		}
		t.Cursors().Transform(event.AsEdit())
		t.TransformOverlays(event.AsEdit())
	case KindDelete:
		if err := t.Buffer().Delete(event.Range.Start, event.Range.End); err != nil {
			return err
		}
		t.Cursors().Transform(event.AsEdit())
		t.TransformOverlays(event.AsEdit())
	case KindAddCursor:
		t.Cursors().RestoreCursor(event.CursorID, cursor.NewCursorSelection(event.NewPos))
	case KindRemoveCursor:
		t.Cursors().RemoveCursor(event.CursorID)
	case KindMoveCursor:
		t.Cursors().MoveCursor(event.CursorID, event.NewPos)
	case KindAddOverlay:
		t.AddOverlay(event.Namespace, event.Range, event.Face, event.Priority, event.Msg)
	case KindRemoveOverlay:
		t.RemoveOverlay(event.Namespace, event.Range)
	}
	return nil
}

func (h *History) push(e *entry) {
	h.past = append(h.past, e)
	h.future = nil
	if len(h.past) > h.maxEntries {
		excess := len(h.past) - h.maxEntries
		h.past = h.past[excess:]
	}
}

// Undo reverses the last applied event: it inverts the event, mutates t
// with the inverse, then restores the cursor set to exactly the
// snapshot recorded before the original event (not whatever the
// inverse's own cursor transform would produce), per spec.md §4.3.
func (h *History) Undo(t Target) error {
	if len(h.past) == 0 {
		return ErrNothingToUndo
	}
	e := h.past[len(h.past)-1]

	if err := mutate(t, Invert(e.event)); err != nil {
		return err
	}
	t.SetCursors(e.cursorsBefore.Clone())

	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, e)
	return nil
}

// Redo reapplies the last undone event: it restores the cursor set to
// the snapshot from before that event originally ran, then mutates t
// with the original (forward) event, which reproduces the original end
// cursor state deterministically.
func (h *History) Redo(t Target) error {
	if len(h.future) == 0 {
		return ErrNothingToRedo
	}
	e := h.future[len(h.future)-1]

	t.SetCursors(e.cursorsBefore.Clone())
	if err := mutate(t, e.event); err != nil {
		return err
	}

	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, e)
	return nil
}

// CanUndo reports whether Undo has an entry to apply.
func (h *History) CanUndo() bool { return len(h.past) > 0 }

// CanRedo reports whether Redo has an entry to apply.
func (h *History) CanRedo() bool { return len(h.future) > 0 }

// UndoCount returns the number of undoable entries.
func (h *History) UndoCount() int { return len(h.past) }

// RedoCount returns the number of redoable entries.
func (h *History) RedoCount() int { return len(h.future) }

// Clear discards all undo/redo history.
func (h *History) Clear() {
	h.past = nil
	h.future = nil
}

// PeekUndo returns the description of the next event Undo would reverse.
func (h *History) PeekUndo() (string, bool) {
	if len(h.past) == 0 {
		return "", false
	}
	return describe(h.past[len(h.past)-1].event), true
}

// PeekRedo returns the description of the next event Redo would replay.
func (h *History) PeekRedo() (string, bool) {
	if len(h.future) == 0 {
		return "", false
	}
	return describe(h.future[len(h.future)-1].event), true
}

func describe(e Event) string {
	if e.Kind == KindBatch && e.Description != "" {
		return e.Description
	}
	return e.Kind.String()
}

// now supplies the timestamp stored on each undo entry; nothing in this
// package reads that timestamp back.
func now() time.Time { return time.Now() }
