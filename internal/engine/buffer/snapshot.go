package buffer

import (
	"unicode/utf8"

	"github.com/dshills/quill/internal/engine/piece"
)

// Snapshot is a read-only, point-in-time view of a buffer. Since piece.Tree
// is persistent, taking a Snapshot never copies text; it is safe to read
// from a goroutine other than the editor goroutine that owns the Buffer it
// came from, as long as that goroutine only reads.
type Snapshot struct {
	tree       piece.Tree
	revisionID RevisionID
	lineEnding LineEnding
	tabWidth   int
}

// Text returns the full snapshot content, loading stored pieces as needed.
func (s Snapshot) Text() (string, error) {
	return s.tree.String()
}

// TextRange returns text in [start, end), loading stored pieces as needed.
func (s Snapshot) TextRange(start, end ByteOffset) (string, error) {
	return s.tree.Read(piece.ByteOffset(start), piece.ByteOffset(end))
}

// Len returns the total byte length of the snapshot.
func (s Snapshot) Len() ByteOffset {
	return ByteOffset(s.tree.Len())
}

// LineCount returns the number of lines.
func (s Snapshot) LineCount() uint32 {
	return s.tree.LineCount()
}

// LineText returns the text of a line (without its newline).
func (s Snapshot) LineText(line uint32) (string, error) {
	return s.tree.LineText(line)
}

// ByteAt returns the byte at offset.
func (s Snapshot) ByteAt(offset ByteOffset) (byte, error) {
	return s.tree.ByteAt(piece.ByteOffset(offset))
}

// RuneAt returns the rune starting at byte offset.
func (s Snapshot) RuneAt(offset ByteOffset) (rune, int, error) {
	total := ByteOffset(s.tree.Len())
	if offset < 0 || offset >= total {
		return utf8.RuneError, 0, nil
	}
	end := min(offset+4, total)
	str, err := s.tree.Read(piece.ByteOffset(offset), piece.ByteOffset(end))
	if err != nil {
		return utf8.RuneError, 0, err
	}
	r, size := utf8.DecodeRuneInString(str)
	return r, size, nil
}

// OffsetToPosition converts a byte offset to a line/column position.
func (s Snapshot) OffsetToPosition(offset ByteOffset) (Point, error) {
	p, err := s.tree.OffsetToPoint(piece.ByteOffset(offset))
	if err != nil {
		return Point{}, err
	}
	return Point{Line: p.Line, Column: p.Column}, nil
}

// PositionToOffset converts a line/column position to a byte offset.
func (s Snapshot) PositionToOffset(p Point) ByteOffset {
	return ByteOffset(s.tree.PointToOffset(piece.Point{Line: p.Line, Column: p.Column}))
}

// LineStartOffset returns the byte offset of the start of a line.
func (s Snapshot) LineStartOffset(line uint32) ByteOffset {
	return ByteOffset(s.tree.LineStartOffset(line))
}

// LineEndOffset returns the byte offset of the end of a line, before its
// newline.
func (s Snapshot) LineEndOffset(line uint32) ByteOffset {
	return ByteOffset(s.tree.LineEndOffset(line))
}

// RevisionID returns the revision ID of this snapshot.
func (s Snapshot) RevisionID() RevisionID {
	return s.revisionID
}

// IsEmpty reports whether the snapshot is empty.
func (s Snapshot) IsEmpty() bool {
	return s.tree.IsEmpty()
}

// LineEnding returns the snapshot's line ending style.
func (s Snapshot) LineEnding() LineEnding {
	return s.lineEnding
}

// TabWidth returns the snapshot's tab width.
func (s Snapshot) TabWidth() int {
	return s.tabWidth
}
