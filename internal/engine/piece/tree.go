package piece

import "io"

// Tree is a persistent, copy-on-write tree of text pieces. The zero Tree is
// a valid empty tree. Every mutating method returns a new Tree; the receiver
// is left unchanged, which is what lets BufferState keep old roots around
// for undo, snapshots, and crash-recovery comparisons without copying bytes.
type Tree struct {
	root  *node
	arena *Arena
}

// Empty returns an empty tree backed by a fresh arena.
func Empty() Tree {
	return Tree{root: newLeaf(), arena: NewArena()}
}

// FromBytes builds a tree whose entire content lives in the Added arena.
// Used for new, unsaved buffers and for content assembled in memory (e.g.
// clipboard paste targets, test fixtures).
func FromBytes(arena *Arena, text string) Tree {
	if arena == nil {
		arena = NewArena()
	}
	if len(text) == 0 {
		return Tree{root: newLeaf(), arena: arena}
	}

	pieces := splitIntoAddedPieces(arena, text)
	return Tree{root: buildLeaves(pieces), arena: arena}
}

// FromFile builds a tree of Stored pieces lazily backed by reader, given the
// piece boundary offsets and per-piece summaries precomputed by the caller
// (summaries, not bytes, so building the tree reads nothing from reader).
// pieceSummaries[i] must describe the bytes at [offsets[i], offsets[i+1]).
func FromFile(reader ReaderAt, path string, offsets []int64, pieceSummaries []TextSummary) Tree {
	arena := NewArena()
	if len(offsets) < 2 {
		return Tree{root: newLeaf(), arena: arena}
	}

	file := NewFileRegion(path, reader)
	pieces := make([]Piece, 0, len(offsets)-1)
	for i := 0; i < len(offsets)-1; i++ {
		length := int(offsets[i+1] - offsets[i])
		pieces = append(pieces, NewStoredPiece(file, offsets[i], length, pieceSummaries[i]))
	}

	return Tree{root: buildLeaves(pieces), arena: arena}
}

func splitIntoAddedPieces(arena *Arena, text string) []Piece {
	start, _ := arena.Append(text)
	var pieces []Piece
	remaining := text
	offset := start

	for len(remaining) > 0 {
		size := TargetPieceSize
		if len(remaining) <= MaxPieceSize {
			pieces = append(pieces, NewAddedPiece(arena, offset, offset+len(remaining)))
			break
		}
		cut := findPieceBoundary(remaining, size)
		pieces = append(pieces, NewAddedPiece(arena, offset, offset+cut))
		remaining = remaining[cut:]
		offset += cut
	}

	return pieces
}

// findPieceBoundary finds a good split point near target, preferring a
// newline boundary and always respecting UTF-8 character boundaries.
func findPieceBoundary(s string, target int) int {
	if target >= len(s) {
		return len(s)
	}
	if target <= 0 {
		return 0
	}

	searchStart := max(target-MinPieceSize/4, 0)
	searchEnd := min(target+MinPieceSize/4, len(s))

	for i := target; i < searchEnd; i++ {
		if s[i] == '\n' {
			return i + 1
		}
	}
	for i := target - 1; i >= searchStart; i-- {
		if s[i] == '\n' {
			return i + 1
		}
	}

	pos := target
	for pos < len(s) && !isUTF8Start(s[pos]) {
		pos++
	}
	if pos > target+4 || pos >= len(s) {
		pos = target
		for pos > 0 && !isUTF8Start(s[pos]) {
			pos--
		}
	}
	return pos
}

func isUTF8Start(b byte) bool {
	return b&0xC0 != 0x80
}

func buildLeaves(pieces []Piece) *node {
	if len(pieces) == 0 {
		return newLeaf()
	}

	var leaves []*node
	for i := 0; i < len(pieces); i += MaxPiecesPerLeaf {
		end := min(i+MaxPiecesPerLeaf, len(pieces))
		leafPieces := make([]Piece, end-i)
		copy(leafPieces, pieces[i:end])
		leaves = append(leaves, newLeafWithPieces(leafPieces))
	}
	return buildFromChildren(leaves)
}

// Len returns the total byte length of the tree.
func (t Tree) Len() ByteOffset {
	if t.root == nil {
		return 0
	}
	return t.root.Len()
}

// LineCount returns the number of lines (newlines + 1).
func (t Tree) LineCount() uint32 {
	if t.root == nil {
		return 1
	}
	return t.root.lineCount()
}

// IsEmpty reports whether the tree holds no bytes.
func (t Tree) IsEmpty() bool {
	return t.Len() == 0
}

// Arena returns the tree's Added-region arena, so callers inserting text can
// append to the same arena their tree was built from.
func (t Tree) Arena() *Arena {
	return t.arena
}

// Read returns the text in [start, end), loading any unloaded stored pieces
// it touches.
func (t Tree) Read(start, end ByteOffset) (string, error) {
	if t.root == nil {
		return "", nil
	}
	return t.root.textInRange(start, end)
}

// ReadLoaded returns the text in [start, end) like Read, but never triggers a
// disk load: if any touched piece is not yet resident in memory, it returns
// ErrLoadFailed instead of reading through to the file. Callers that must
// not block on I/O use this; callers that are fine paying for a lazy load
// use Read.
func (t Tree) ReadLoaded(start, end ByteOffset) (string, error) {
	if t.root == nil {
		return "", nil
	}
	if !t.root.rangeLoaded(start, end) {
		return "", ErrLoadFailed
	}
	return t.root.textInRange(start, end)
}

// String returns the tree's full text. Use sparingly on large documents.
func (t Tree) String() (string, error) {
	return t.Read(0, t.Len())
}

// WriteTo writes the tree's full text to w, loading stored pieces as needed.
func (t Tree) WriteTo(w io.Writer) (int64, error) {
	s, err := t.String()
	if err != nil {
		return 0, err
	}
	n, err := io.WriteString(w, s)
	return int64(n), err
}

// ByteAt returns the byte at offset.
func (t Tree) ByteAt(offset ByteOffset) (byte, error) {
	if t.root == nil || offset >= t.Len() {
		return 0, ErrOutOfBounds
	}

	n := t.root
	for !n.isLeaf() {
		idx, childOffset := n.findChildByOffset(offset)
		n = n.children[idx]
		offset = childOffset
	}

	for i := range n.pieces {
		p := &n.pieces[i]
		pieceLen := ByteOffset(p.Len())
		if offset < pieceLen {
			return p.ByteAt(int(offset))
		}
		offset -= pieceLen
	}
	return 0, ErrOutOfBounds
}

// Insert returns a new tree with text inserted at offset. text is appended
// to the tree's arena.
func (t Tree) Insert(offset ByteOffset, text string) (Tree, error) {
	if len(text) == 0 {
		return t, nil
	}
	if offset > t.Len() {
		return Tree{}, ErrOutOfBounds
	}

	arena := t.arena
	if arena == nil {
		arena = NewArena()
	}
	inserted := FromBytes(arena, text)

	if t.Len() == 0 {
		return inserted, nil
	}
	if offset == 0 {
		return Tree{root: concatNodes(inserted.root, t.root), arena: arena}, nil
	}
	if offset == t.Len() {
		return Tree{root: concatNodes(t.root, inserted.root), arena: arena}, nil
	}

	left, right, err := t.root.split(offset)
	if err != nil {
		return Tree{}, err
	}
	merged := concatNodes(concatNodes(left, inserted.root), right)
	return Tree{root: merged, arena: arena}, nil
}

// Delete returns a new tree with [start, end) removed.
func (t Tree) Delete(start, end ByteOffset) (Tree, error) {
	if start >= end {
		return t, nil
	}
	if end > t.Len() {
		return Tree{}, ErrOutOfBounds
	}

	if start == 0 && end >= t.Len() {
		return Tree{root: newLeaf(), arena: t.arena}, nil
	}
	if start == 0 {
		_, right, err := t.root.split(end)
		if err != nil {
			return Tree{}, err
		}
		return Tree{root: right, arena: t.arena}, nil
	}
	if end >= t.Len() {
		left, _, err := t.root.split(start)
		if err != nil {
			return Tree{}, err
		}
		return Tree{root: left, arena: t.arena}, nil
	}

	left, temp, err := t.root.split(start)
	if err != nil {
		return Tree{}, err
	}
	_, right, err := temp.split(end - start)
	if err != nil {
		return Tree{}, err
	}
	return Tree{root: concatNodes(left, right), arena: t.arena}, nil
}

// Replace is Delete followed by Insert, exposed as a single operation since
// most edits in the editor are replacements of a (possibly empty) range.
func (t Tree) Replace(start, end ByteOffset, text string) (Tree, error) {
	if start >= end && len(text) == 0 {
		return t, nil
	}
	if start >= end {
		return t.Insert(start, text)
	}
	if len(text) == 0 {
		return t.Delete(start, end)
	}

	deleted, err := t.Delete(start, end)
	if err != nil {
		return Tree{}, err
	}
	return deleted.Insert(start, text)
}

// Split splits the tree at offset into two trees sharing the same arena.
func (t Tree) Split(offset ByteOffset) (Tree, Tree, error) {
	if t.root == nil || offset == 0 {
		return Tree{root: newLeaf(), arena: t.arena}, t, nil
	}
	if offset >= t.Len() {
		return t, Tree{root: newLeaf(), arena: t.arena}, nil
	}

	left, right, err := t.root.split(offset)
	if err != nil {
		return Tree{}, Tree{}, err
	}
	return Tree{root: left, arena: t.arena}, Tree{root: right, arena: t.arena}, nil
}

// Concat concatenates two trees. They must share an arena (the common case:
// both descend from the same document); if either is empty the other is
// returned unchanged.
func (t Tree) Concat(other Tree) Tree {
	if t.root == nil || t.Len() == 0 {
		return other
	}
	if other.root == nil || other.Len() == 0 {
		return t
	}
	return Tree{root: concatNodes(t.root, other.root), arena: t.arena}
}

// LineStartOffset returns the byte offset of the start of line.
func (t Tree) LineStartOffset(line uint32) ByteOffset {
	if t.root == nil || line == 0 {
		return 0
	}
	if line >= t.LineCount() {
		return t.Len()
	}

	n := t.root
	offset := ByteOffset(0)
	for !n.isLeaf() {
		idx, childLine := n.findChildByLine(line)
		for i := 0; i < idx; i++ {
			offset += n.childSummaries[i].Bytes
		}
		n = n.children[idx]
		line = childLine
	}

	current := uint32(0)
	byteOffset := ByteOffset(0)
	for i := range n.pieces {
		p := &n.pieces[i]
		pieceLines := p.Summary().Lines
		if current+pieceLines >= line && line > current {
			text, err := p.Bytes()
			if err == nil {
				nth := findNthNewline(text, line-current)
				if nth >= 0 {
					return offset + byteOffset + ByteOffset(nth) + 1
				}
			}
		}
		current += pieceLines
		byteOffset += ByteOffset(p.Len())
	}
	return offset + byteOffset
}

func findNthNewline(s string, n uint32) int {
	if n == 0 {
		return -1
	}
	var count uint32
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			count++
			if count == n {
				return i
			}
		}
	}
	return -1
}

// LineEndOffset returns the byte offset of the end of line, not including
// its terminating newline.
func (t Tree) LineEndOffset(line uint32) ByteOffset {
	lineCount := t.LineCount()
	if line >= lineCount || line == lineCount-1 {
		return t.Len()
	}
	next := t.LineStartOffset(line + 1)
	if next > 0 {
		return next - 1
	}
	return 0
}

// LineText returns the text of line, not including its newline.
func (t Tree) LineText(line uint32) (string, error) {
	return t.Read(t.LineStartOffset(line), t.LineEndOffset(line))
}

// OffsetToPoint converts a byte offset to a line/column position.
func (t Tree) OffsetToPoint(offset ByteOffset) (Point, error) {
	if t.root == nil || offset == 0 {
		return Point{}, nil
	}
	if offset >= t.Len() {
		lastLine := t.LineCount() - 1
		start := t.LineStartOffset(lastLine)
		return Point{Line: lastLine, Column: uint32(t.Len() - start)}, nil
	}

	lineStart, line, err := t.lineContaining(offset)
	if err != nil {
		return Point{}, err
	}
	return Point{Line: line, Column: uint32(offset - lineStart)}, nil
}

// lineContaining returns the line index containing offset and that line's
// start offset, via a binary search over line start offsets.
func (t Tree) lineContaining(offset ByteOffset) (ByteOffset, uint32, error) {
	lineCount := t.LineCount()
	lo, hi := uint32(0), lineCount-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if t.LineStartOffset(mid) <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return t.LineStartOffset(lo), lo, nil
}

// PointToOffset converts a line/column position to a byte offset, clamping
// the column to the line's length.
func (t Tree) PointToOffset(p Point) ByteOffset {
	if t.root == nil {
		return 0
	}
	lineStart := t.LineStartOffset(p.Line)
	lineEnd := t.LineEndOffset(p.Line)
	lineLen := lineEnd - lineStart
	if ByteOffset(p.Column) >= lineLen {
		return lineEnd
	}
	return lineStart + ByteOffset(p.Column)
}
