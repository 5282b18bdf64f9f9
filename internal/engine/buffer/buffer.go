package buffer

import (
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dshills/quill/internal/engine/piece"
)

// Errors returned by buffer operations.
var (
	ErrRangeInvalid    = errors.New("buffer: invalid range")
	ErrInvalidTabWidth = errors.New("buffer: tab width must be positive")
)

// DefaultLargeFileThreshold is used when no WithLargeFileThreshold option is
// given to LoadFile.
const DefaultLargeFileThreshold = 64 * 1024 * 1024

// DefaultTabWidth is used when no WithTabWidth option is given.
const DefaultTabWidth = 4

// LineEnding specifies the line ending style a buffer normalizes to.
type LineEnding uint8

const (
	LineEndingLF   LineEnding = iota // Unix: \n
	LineEndingCRLF                   // Windows: \r\n
	LineEndingCR                     // Old Mac: \r
)

// Sequence returns the actual line ending characters.
func (le LineEnding) Sequence() string {
	switch le {
	case LineEndingLF:
		return "\n"
	case LineEndingCRLF:
		return "\r\n"
	case LineEndingCR:
		return "\r"
	default:
		return "\n"
	}
}

// Buffer is the editable facade over a piece.Tree: it tracks line endings,
// tab width, the tree as last saved (for IsModified/DiffAgainst), and
// whether it was opened as a large file. Buffer is not safe for concurrent
// use; see the package doc comment.
type Buffer struct {
	tree       piece.Tree
	lastSaved  piece.Tree
	revisionID RevisionID
	lineEnding LineEnding
	tabWidth   int

	largeThreshold int64
	isLarge        bool
	file           io.Closer
}

// NewBuffer creates a new empty buffer.
func NewBuffer(opts ...Option) (*Buffer, error) {
	b := &Buffer{
		tree:           piece.Empty(),
		revisionID:     NewRevisionID(),
		lineEnding:     LineEndingLF,
		tabWidth:       DefaultTabWidth,
		largeThreshold: DefaultLargeFileThreshold,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.tabWidth <= 0 {
		return nil, ErrInvalidTabWidth
	}
	b.lastSaved = b.tree
	return b, nil
}

// NewBufferFromString creates a buffer whose content lives entirely in the
// Added arena.
func NewBufferFromString(s string, opts ...Option) (*Buffer, error) {
	b, err := NewBuffer(opts...)
	if err != nil {
		return nil, err
	}
	s = b.normalizeLineEndings(s)
	b.tree = piece.FromBytes(piece.NewArena(), s)
	b.lastSaved = b.tree
	return b, nil
}

// NewBufferFromReader creates a buffer from an io.Reader, reading it fully
// before normalizing line endings (CRLF sequences may otherwise straddle a
// read boundary).
func NewBufferFromReader(r io.Reader, opts ...Option) (*Buffer, error) {
	b, err := NewBuffer(opts...)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := b.normalizeLineEndings(string(data))
	b.tree = piece.FromBytes(piece.NewArena(), text)
	b.lastSaved = b.tree
	return b, nil
}

func (b *Buffer) normalizeLineEndings(s string) string {
	switch b.lineEnding {
	case LineEndingCRLF:
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
		return strings.ReplaceAll(s, "\n", "\r\n")
	case LineEndingCR:
		s = strings.ReplaceAll(s, "\r\n", "\r")
		return strings.ReplaceAll(s, "\n", "\r")
	default:
		s = strings.ReplaceAll(s, "\r\n", "\n")
		return strings.ReplaceAll(s, "\r", "\n")
	}
}

// Close releases the backing file handle for a large-file buffer, if any.
func (b *Buffer) Close() error {
	if b.file != nil {
		return b.file.Close()
	}
	return nil
}

// Read operations.

// TotalBytes returns the total byte length of the buffer's content.
func (b *Buffer) TotalBytes() ByteOffset {
	return ByteOffset(b.tree.Len())
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() uint32 {
	return b.tree.LineCount()
}

// IsLargeFile reports whether this buffer was opened via LoadFile above its
// large-file threshold.
func (b *Buffer) IsLargeFile() bool {
	return b.isLarge
}

// OffsetToPosition converts a byte offset to a line/column position, lazily
// loading any stored piece it needs to count line feeds in.
func (b *Buffer) OffsetToPosition(offset ByteOffset) (Point, error) {
	p, err := b.tree.OffsetToPoint(piece.ByteOffset(offset))
	if err != nil {
		return Point{}, err
	}
	return Point{Line: p.Line, Column: p.Column}, nil
}

// PositionToOffset converts a line/column position to a byte offset.
func (b *Buffer) PositionToOffset(p Point) ByteOffset {
	return ByteOffset(b.tree.PointToOffset(piece.Point{Line: p.Line, Column: p.Column}))
}

// GetTextRange returns text in [start, end) without triggering any disk
// load: if the range touches an unloaded stored piece it returns
// piece.ErrLoadFailed instead of blocking on I/O.
func (b *Buffer) GetTextRange(start, end ByteOffset) (string, error) {
	if start < 0 || start > end || ByteOffset(b.tree.Len()) < end {
		return "", ErrRangeInvalid
	}
	return b.tree.ReadLoaded(piece.ByteOffset(start), piece.ByteOffset(end))
}

// GetTextRangeMut returns text in [start, end), lazily loading any stored
// piece it touches. This is the method every higher layer uses to serialize
// content (syntax highlighting, save-to-disk, LSP didChange payloads).
func (b *Buffer) GetTextRangeMut(start, end ByteOffset) (string, error) {
	if start < 0 || start > end || ByteOffset(b.tree.Len()) < end {
		return "", ErrRangeInvalid
	}
	return b.tree.Read(piece.ByteOffset(start), piece.ByteOffset(end))
}

// Text returns the full buffer content, loading stored pieces as needed.
// Prefer GetTextRangeMut for large buffers.
func (b *Buffer) Text() (string, error) {
	return b.tree.String()
}

// LineText returns the text of a line (without its newline).
func (b *Buffer) LineText(line uint32) (string, error) {
	return b.tree.LineText(line)
}

// LineLen returns the length of a line in bytes (without its newline).
func (b *Buffer) LineLen(line uint32) ByteOffset {
	start := b.tree.LineStartOffset(line)
	end := b.tree.LineEndOffset(line)
	return ByteOffset(end - start)
}

// LineStartOffset returns the byte offset of the start of a line.
func (b *Buffer) LineStartOffset(line uint32) ByteOffset {
	return ByteOffset(b.tree.LineStartOffset(line))
}

// LineEndOffset returns the byte offset of the end of a line, before its
// newline.
func (b *Buffer) LineEndOffset(line uint32) ByteOffset {
	return ByteOffset(b.tree.LineEndOffset(line))
}

// ByteAt returns the byte at offset.
func (b *Buffer) ByteAt(offset ByteOffset) (byte, error) {
	return b.tree.ByteAt(piece.ByteOffset(offset))
}

// RuneAt returns the rune starting at byte offset, lazily loading the pieces
// it spans. Returns utf8.RuneError, 0 if offset is out of range.
func (b *Buffer) RuneAt(offset ByteOffset) (rune, int, error) {
	total := ByteOffset(b.tree.Len())
	if offset < 0 || offset >= total {
		return utf8.RuneError, 0, nil
	}
	end := min(offset+4, total)
	s, err := b.tree.Read(piece.ByteOffset(offset), piece.ByteOffset(end))
	if err != nil {
		return utf8.RuneError, 0, err
	}
	r, size := utf8.DecodeRuneInString(s)
	return r, size, nil
}

// TabWidth returns the buffer's configured tab width (always positive).
func (b *Buffer) TabWidth() int {
	return b.tabWidth
}

// VisualColumn returns the rendered column of a byte offset within its line,
// expanding tabs to the buffer's tab width. Never divides by tabWidth
// without it having already been validated positive at construction.
func (b *Buffer) VisualColumn(offset ByteOffset) (int, error) {
	pos, err := b.OffsetToPosition(offset)
	if err != nil {
		return 0, err
	}
	lineStart := b.LineStartOffset(pos.Line)
	text, err := b.GetTextRangeMut(lineStart, offset)
	if err != nil {
		return 0, err
	}

	col := 0
	for _, r := range text {
		if r == '\t' {
			col += b.tabWidth - (col % b.tabWidth)
		} else {
			col++
		}
	}
	return col, nil
}

// LineEnding returns the buffer's line ending style.
func (b *Buffer) LineEnding() LineEnding {
	return b.lineEnding
}

// RevisionID returns the current revision ID.
func (b *Buffer) RevisionID() RevisionID {
	return b.revisionID
}

// IsEmpty reports whether the buffer holds no bytes.
func (b *Buffer) IsEmpty() bool {
	return b.tree.IsEmpty()
}

// Write operations.

// Insert inserts text at offset, producing a new root. Sets
// modified-since-save if the new root's content differs from the
// last-saved root.
func (b *Buffer) Insert(offset ByteOffset, text string) (ByteOffset, error) {
	if offset < 0 || offset > ByteOffset(b.tree.Len()) {
		return 0, piece.ErrOutOfBounds
	}
	text = b.normalizeLineEndings(text)
	newTree, err := b.tree.Insert(piece.ByteOffset(offset), text)
	if err != nil {
		return 0, err
	}
	b.tree = newTree
	b.revisionID = NewRevisionID()
	return offset + ByteOffset(len(text)), nil
}

// Delete removes text in [start, end), producing a new root.
func (b *Buffer) Delete(start, end ByteOffset) error {
	if start < 0 || start > end || end > ByteOffset(b.tree.Len()) {
		return ErrRangeInvalid
	}
	newTree, err := b.tree.Delete(piece.ByteOffset(start), piece.ByteOffset(end))
	if err != nil {
		return err
	}
	b.tree = newTree
	b.revisionID = NewRevisionID()
	return nil
}

// Replace replaces [start, end) with text, returning the end offset of the
// replacement.
func (b *Buffer) Replace(start, end ByteOffset, text string) (ByteOffset, error) {
	if start < 0 || start > end || end > ByteOffset(b.tree.Len()) {
		return 0, ErrRangeInvalid
	}
	text = b.normalizeLineEndings(text)
	newTree, err := b.tree.Replace(piece.ByteOffset(start), piece.ByteOffset(end), text)
	if err != nil {
		return 0, err
	}
	b.tree = newTree
	b.revisionID = NewRevisionID()
	return start + ByteOffset(len(text)), nil
}

// Tree returns the buffer's current root. Used by the document/history
// packages to snapshot and restore buffer state without copying bytes.
func (b *Buffer) Tree() piece.Tree {
	return b.tree
}

// SetTree replaces the buffer's current root directly, used by undo/redo to
// restore a previously-held root without re-running edits.
func (b *Buffer) SetTree(t piece.Tree) {
	b.tree = t
	b.revisionID = NewRevisionID()
}

// IsModified reports whether the current root differs in content from the
// last-saved root.
func (b *Buffer) IsModified() bool {
	return b.isModifiedAgainst(b.lastSaved)
}

func (b *Buffer) isModifiedAgainst(saved piece.Tree) bool {
	if b.tree.Len() != saved.Len() {
		return true
	}
	cur, err := b.tree.String()
	if err != nil {
		return true
	}
	prev, err := saved.String()
	if err != nil {
		return true
	}
	return cur != prev
}

// MarkSaved records the current root as the last-saved root, clearing
// IsModified.
func (b *Buffer) MarkSaved() {
	b.lastSaved = b.tree
}

// LastSavedTree returns the root as of the last MarkSaved call (or buffer
// creation, if never saved).
func (b *Buffer) LastSavedTree() piece.Tree {
	return b.lastSaved
}

// Snapshot returns a read-only view of the current buffer state. Because
// piece.Tree is itself persistent, this is a cheap value copy, safe to hand
// to another goroutine.
func (b *Buffer) Snapshot() Snapshot {
	return Snapshot{
		tree:       b.tree,
		revisionID: b.revisionID,
		lineEnding: b.lineEnding,
		tabWidth:   b.tabWidth,
	}
}
