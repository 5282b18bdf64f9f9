package document

import (
	"errors"

	"github.com/dshills/quill/internal/engine/buffer"
	"github.com/dshills/quill/internal/engine/cursor"
	"github.com/dshills/quill/internal/engine/history"
)

// ErrReadOnly is returned by write operations on a read-only Document.
var ErrReadOnly = errors.New("document: buffer is read-only")

// Option configures a Document at construction.
type Option func(*Document)

// WithMaxUndoEntries bounds the undo stack's depth.
func WithMaxUndoEntries(n int) Option {
	return func(d *Document) { d.maxUndoEntries = n }
}

// WithBufferOptions forwards options to the underlying buffer.Buffer.
func WithBufferOptions(opts ...buffer.Option) Option {
	return func(d *Document) { d.bufOpts = append(d.bufOpts, opts...) }
}

// WithReadOnly marks the document read-only at construction.
func WithReadOnly(readOnly bool) Option {
	return func(d *Document) { d.readOnly = readOnly }
}

const defaultMaxUndoEntries = 1000

// Document is the spec's BufferState: one open document's entire
// engine-side state except rendering. It owns the piece tree (through
// a *buffer.Buffer), the live cursor set, namespaced overlays, per-line
// margins, and the event log that is its only legal write path.
type Document struct {
	buf      *buffer.Buffer
	cursors  *cursor.Set
	hist     *history.History
	overlays *overlayStore
	margins  *marginStore

	maxUndoEntries int
	bufOpts        []buffer.Option
	readOnly       bool
}

// New creates an empty Document.
func New(opts ...Option) (*Document, error) {
	return newDocument("", opts...)
}

// NewFromString creates a Document seeded with text.
func NewFromString(text string, opts ...Option) (*Document, error) {
	return newDocument(text, opts...)
}

// NewFromBuffer wraps an already-constructed buffer.Buffer in a
// Document, for callers (e.g. recovery.OpenTrackedFile) that need a
// say over how the buffer itself was loaded. The Document takes
// ownership of buf; callers must not mutate it through any other
// reference afterward.
func NewFromBuffer(buf *buffer.Buffer, opts ...Option) *Document {
	d := &Document{maxUndoEntries: defaultMaxUndoEntries, buf: buf}
	for _, opt := range opts {
		opt(d)
	}
	d.cursors = cursor.NewSetAt(0)
	d.hist = history.NewHistory(d.maxUndoEntries)
	d.overlays = newOverlayStore()
	d.margins = newMarginStore()
	return d
}

func newDocument(text string, opts ...Option) (*Document, error) {
	d := &Document{maxUndoEntries: defaultMaxUndoEntries}
	for _, opt := range opts {
		opt(d)
	}

	buf, err := buffer.NewBufferFromString(text, d.bufOpts...)
	if err != nil {
		return nil, err
	}
	d.buf = buf
	d.cursors = cursor.NewSetAt(0)
	d.hist = history.NewHistory(d.maxUndoEntries)
	d.overlays = newOverlayStore()
	d.margins = newMarginStore()
	return d, nil
}

// ---- history.Target ----

// Buffer returns the underlying buffer facade.
func (d *Document) Buffer() *buffer.Buffer { return d.buf }

// Cursors returns the live cursor set.
func (d *Document) Cursors() *cursor.Set { return d.cursors }

// SetCursors replaces the live cursor set wholesale. Used by history's
// Undo/Redo to restore an exact pre-event snapshot.
func (d *Document) SetCursors(set *cursor.Set) { d.cursors = set }

// AddOverlay stores a new overlay decoration.
func (d *Document) AddOverlay(namespace string, r buffer.Range, face string, priority int, msg string) {
	d.overlays.add(namespace, r, face, priority, msg)
}

// RemoveOverlay removes the overlay in namespace with an exactly
// matching range.
func (d *Document) RemoveOverlay(namespace string, r buffer.Range) {
	d.overlays.remove(namespace, r)
}

// TransformOverlays translates every overlay through edit. See
// overlay.go's transform for the collapse/clip policy.
func (d *Document) TransformOverlays(edit buffer.Edit) {
	d.overlays.transform(edit)
}

// ---- read accessors (spec.md §6) ----

// GetTextRangeMut returns text in [start, end), lazily loading any
// stored piece it touches.
func (d *Document) GetTextRangeMut(start, end buffer.ByteOffset) (string, error) {
	return d.buf.GetTextRangeMut(start, end)
}

// OffsetToPosition converts a byte offset to a line/column position.
func (d *Document) OffsetToPosition(offset buffer.ByteOffset) (buffer.Point, error) {
	return d.buf.OffsetToPosition(offset)
}

// PositionToOffset converts a line/column position to a byte offset.
func (d *Document) PositionToOffset(p buffer.Point) buffer.ByteOffset {
	return d.buf.PositionToOffset(p)
}

// OverlaysIn returns every overlay intersecting r, across all
// namespaces, ordered by ascending priority (lowest painted first).
func (d *Document) OverlaysIn(r buffer.Range) []Overlay {
	return d.overlays.in(r)
}

// MarginsAt returns the margin annotations on line, ordered by
// descending priority.
func (d *Document) MarginsAt(line uint32) []Margin {
	return d.margins.at(line)
}

// SetMargin adds a margin annotation to line. Margins are not part of
// the Event model (spec.md §3 lists no Margin event variant): they are
// set directly by whichever worker or command owns them, outside undo
// history.
func (d *Document) SetMargin(line uint32, text string, priority int) {
	d.margins.set(line, text, priority)
}

// ClearMargin removes every margin annotation on line.
func (d *Document) ClearMargin(line uint32) {
	d.margins.clear(line)
}

// IsModified reports whether the current root differs in content from
// the last-saved root.
func (d *Document) IsModified() bool { return d.buf.IsModified() }

// MarkSaved records the current root as the last-saved root.
func (d *Document) MarkSaved() { d.buf.MarkSaved() }

// IsReadOnly reports whether writes are rejected.
func (d *Document) IsReadOnly() bool { return d.readOnly }

// History exposes the undo/redo stack for callers that need
// CanUndo/CanRedo/PeekUndo/PeekRedo without routing through Document's
// own Undo/Redo wrappers.
func (d *Document) History() *history.History { return d.hist }

// Apply runs event against the document following spec.md §4.3's Apply
// protocol (history.History.Apply), rejecting any write on a read-only
// document. Pure cursor motion with no selection or buffer change
// should NOT be routed through Apply; mutate Cursors() directly for
// that instead, per the read-only-event rule.
func (d *Document) Apply(event history.Event) error {
	if d.readOnly {
		return ErrReadOnly
	}
	return d.hist.Apply(d, event)
}

// Undo reverses the last applied event.
func (d *Document) Undo() error { return d.hist.Undo(d) }

// Redo reapplies the last undone event.
func (d *Document) Redo() error { return d.hist.Redo(d) }
