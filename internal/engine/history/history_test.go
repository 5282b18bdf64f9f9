package history

import (
	"errors"
	"testing"

	"github.com/dshills/quill/internal/engine/buffer"
	"github.com/dshills/quill/internal/engine/cursor"
)

// overlay mirrors document.Overlay just enough to exercise Apply/Invert
// without importing the document package (which itself depends on
// history, so it can't be imported here).
type overlay struct {
	namespace string
	r         buffer.Range
	face      string
	priority  int
	msg       string
}

type fakeTarget struct {
	buf      *buffer.Buffer
	cursors  *cursor.Set
	overlays []overlay
}

func newFakeTarget(t *testing.T, text string) *fakeTarget {
	t.Helper()
	b, err := buffer.NewBufferFromString(text)
	if err != nil {
		t.Fatalf("NewBufferFromString() error = %v", err)
	}
	return &fakeTarget{buf: b, cursors: cursor.NewSetAt(0)}
}

func (f *fakeTarget) Buffer() *buffer.Buffer    { return f.buf }
func (f *fakeTarget) Cursors() *cursor.Set      { return f.cursors }
func (f *fakeTarget) SetCursors(s *cursor.Set)  { f.cursors = s }

func (f *fakeTarget) AddOverlay(namespace string, r buffer.Range, face string, priority int, msg string) {
	f.overlays = append(f.overlays, overlay{namespace, r, face, priority, msg})
}

func (f *fakeTarget) RemoveOverlay(namespace string, r buffer.Range) {
	for i, o := range f.overlays {
		if o.namespace == namespace && o.r == r {
			f.overlays = append(f.overlays[:i], f.overlays[i+1:]...)
			return
		}
	}
}

// TransformOverlays is a no-op here: these tests exercise overlay
// add/remove round-tripping, not range translation under concurrent
// edits, which document_test.go covers instead.
func (f *fakeTarget) TransformOverlays(edit buffer.Edit) {}

func mustText(t *testing.T, b *buffer.Buffer) string {
	t.Helper()
	s, err := b.Text()
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	return s
}

func TestApplyInsert(t *testing.T) {
	target := newFakeTarget(t, "Hello World")
	h := NewHistory(100)

	if err := h.Apply(target, NewInsert(5, ",", 0)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := mustText(t, target.buf); got != "Hello, World" {
		t.Errorf("Text() = %q, want %q", got, "Hello, World")
	}
	if !h.CanUndo() {
		t.Error("expected CanUndo() = true after Apply")
	}
}

func TestUndoRedoInsert(t *testing.T) {
	target := newFakeTarget(t, "Hello World")
	h := NewHistory(100)

	if err := h.Apply(target, NewInsert(5, ",", 0)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if err := h.Undo(target); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if got := mustText(t, target.buf); got != "Hello World" {
		t.Errorf("after Undo, Text() = %q, want %q", got, "Hello World")
	}
	if err := h.Redo(target); err != nil {
		t.Fatalf("Redo() error = %v", err)
	}
	if got := mustText(t, target.buf); got != "Hello, World" {
		t.Errorf("after Redo, Text() = %q, want %q", got, "Hello, World")
	}
}

func TestUndoNothingToUndo(t *testing.T) {
	h := NewHistory(100)
	target := newFakeTarget(t, "x")
	if err := h.Undo(target); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("error = %v, want ErrNothingToUndo", err)
	}
}

func TestRedoNothingToRedo(t *testing.T) {
	h := NewHistory(100)
	target := newFakeTarget(t, "x")
	if err := h.Redo(target); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("error = %v, want ErrNothingToRedo", err)
	}
}

func TestApplyDeleteRestoresBytesOnUndo(t *testing.T) {
	target := newFakeTarget(t, "Hello, World")
	h := NewHistory(100)

	deleted := "Hello, "
	if err := h.Apply(target, NewDelete(buffer.Range{Start: 0, End: 7}, deleted, 0)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := mustText(t, target.buf); got != "World" {
		t.Errorf("Text() = %q, want %q", got, "World")
	}
	if err := h.Undo(target); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if got := mustText(t, target.buf); got != "Hello, World" {
		t.Errorf("after Undo, Text() = %q, want %q", got, "Hello, World")
	}
}

// TestMultiCursorBatchUndoAtomic is scenario A from spec.md §8: three
// cursors at the starts of "aaa\nbbb\nccc\nddd"'s four lines (but only
// three are placed here, matching the scenario) each get "X" typed in
// one batch; undo must restore both the text and all three cursors in
// one step.
func TestMultiCursorBatchUndoAtomic(t *testing.T) {
	target := newFakeTarget(t, "aaa\nbbb\nccc\nddd")
	target.cursors = cursor.NewSetFromSelections([]cursor.Selection{
		cursor.NewCursorSelection(0),
		cursor.NewCursorSelection(4),
		cursor.NewCursorSelection(8),
	})
	before := target.cursors.Clone()

	h := NewHistory(100)
	batch := NewBatch("type X at 3 cursors",
		NewInsert(8, "X", 0),
		NewInsert(4, "X", 0),
		NewInsert(0, "X", 0),
	)
	if err := h.Apply(target, batch); err != nil {
		t.Fatalf("Apply(batch) error = %v", err)
	}

	want := "Xaaa\nXbbb\nXccc\nddd"
	if got := mustText(t, target.buf); got != want {
		t.Fatalf("Text() = %q, want %q", got, want)
	}

	if err := h.Undo(target); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if got := mustText(t, target.buf); got != "aaa\nbbb\nccc\nddd" {
		t.Errorf("after Undo, Text() = %q, want original", got)
	}
	if !target.cursors.Equals(before) {
		t.Errorf("after Undo, cursors = %v, want restored to %v", target.cursors.All(), before.All())
	}
	if h.CanUndo() {
		t.Error("a single batch should undo in one step")
	}
}

func TestApplyRejectsNestedBatch(t *testing.T) {
	target := newFakeTarget(t, "x")
	h := NewHistory(100)

	inner := NewBatch("inner", NewInsert(0, "a", 0))
	// Force nesting past NewBatch's own flattening by constructing the
	// outer event by hand.
	outer := Event{Kind: KindBatch, Events: []Event{inner}}

	if err := h.Apply(target, outer); !errors.Is(err, ErrNestedBatch) {
		t.Errorf("error = %v, want ErrNestedBatch", err)
	}
}

func TestNewBatchFlattensNestedBatches(t *testing.T) {
	inner := NewBatch("inner", NewInsert(0, "a", 0))
	outer := NewBatch("outer", inner, NewInsert(1, "b", 0))

	if len(outer.Events) != 2 {
		t.Fatalf("len(outer.Events) = %d, want 2 (flattened)", len(outer.Events))
	}
	for _, e := range outer.Events {
		if e.Kind == KindBatch {
			t.Error("NewBatch should flatten nested batches")
		}
	}
}

func TestAddRemoveCursorEventsRoundTrip(t *testing.T) {
	target := newFakeTarget(t, "x")
	h := NewHistory(100)

	// Offset 1 is free: the fake target's only cursor (ID 1) sits at 0, and
	// a cursor added on top of it would merge into the lower ID.
	if err := h.Apply(target, NewAddCursor(2, 1)); err != nil {
		t.Fatalf("Apply(AddCursor) error = %v", err)
	}
	if _, ok := target.cursors.ByID(2); !ok {
		t.Fatal("expected cursor with ID 2 after AddCursor")
	}

	if err := h.Undo(target); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if _, ok := target.cursors.ByID(2); ok {
		t.Error("cursor 2 should be gone after undoing AddCursor")
	}

	if err := h.Redo(target); err != nil {
		t.Fatalf("Redo() error = %v", err)
	}
	if _, ok := target.cursors.ByID(2); !ok {
		t.Error("cursor 2 should be restored after redoing AddCursor")
	}
}

func TestOverlayEventsRoundTrip(t *testing.T) {
	target := newFakeTarget(t, "hello world")
	h := NewHistory(100)

	add := NewAddOverlay("diagnostics", buffer.Range{Start: 0, End: 5}, "error", 1, "undefined")
	if err := h.Apply(target, add); err != nil {
		t.Fatalf("Apply(AddOverlay) error = %v", err)
	}
	if len(target.overlays) != 1 {
		t.Fatalf("len(overlays) = %d, want 1", len(target.overlays))
	}

	if err := h.Undo(target); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if len(target.overlays) != 0 {
		t.Errorf("len(overlays) = %d, want 0 after undo", len(target.overlays))
	}

	if err := h.Redo(target); err != nil {
		t.Fatalf("Redo() error = %v", err)
	}
	if len(target.overlays) != 1 {
		t.Errorf("len(overlays) = %d, want 1 after redo", len(target.overlays))
	}
}

func TestPeekUndoRedoDescriptions(t *testing.T) {
	target := newFakeTarget(t, "x")
	h := NewHistory(100)

	if _, ok := h.PeekUndo(); ok {
		t.Error("PeekUndo() should report false on empty history")
	}

	_ = h.Apply(target, NewBatch("rename symbol", NewInsert(0, "y", 0)))
	desc, ok := h.PeekUndo()
	if !ok || desc != "rename symbol" {
		t.Errorf("PeekUndo() = (%q, %v), want (\"rename symbol\", true)", desc, ok)
	}

	_ = h.Undo(target)
	desc, ok = h.PeekRedo()
	if !ok || desc != "rename symbol" {
		t.Errorf("PeekRedo() = (%q, %v), want (\"rename symbol\", true)", desc, ok)
	}
}

func TestUndoMaxEntriesEviction(t *testing.T) {
	target := newFakeTarget(t, "")
	h := NewHistory(2)

	_ = h.Apply(target, NewInsert(0, "a", 0))
	_ = h.Apply(target, NewInsert(1, "b", 0))
	_ = h.Apply(target, NewInsert(2, "c", 0))

	if h.UndoCount() != 2 {
		t.Errorf("UndoCount() = %d, want 2 (oldest evicted)", h.UndoCount())
	}
}
