package piece

import (
	"fmt"
	"sync"
)

// Region size constants control the granularity of leaf storage, mirroring
// the chunk-size bounds a chunk-tree imposes on its Data/Gap leaves.
const (
	MinPieceSize    = 128
	MaxPieceSize    = 256
	TargetPieceSize = (MinPieceSize + MaxPieceSize) / 2
)

// Location tags where a piece's bytes live.
type Location uint8

const (
	// Added pieces reference the document's append-only arena.
	Added Location = iota
	// Stored pieces reference a byte range of the backing file and may not
	// have their bytes resident in memory yet.
	Stored
)

// Piece is a bounded, immutable span of document text held at a leaf.
// Pieces are never mutated after creation: editing a Piece produces new
// Piece values via Split/the arena, never changes to this one.
type Piece struct {
	loc     Location
	summary TextSummary

	// Added fields.
	arena      *Arena
	arenaStart int
	arenaEnd   int

	// Stored fields. bytes/once/err implement the lazy-materialize cache:
	// the first successful Read populates bytes and every later read of the
	// same Piece value returns the cached string for free.
	file       *FileRegion
	fileOffset int64
	length     int
	once       *sync.Once
	bytes      string
	loadErr    error
}

// NewAddedPiece creates a piece referencing [start, end) of arena. Summary is
// computed eagerly since Added text is always already resident in memory.
func NewAddedPiece(arena *Arena, start, end int) Piece {
	return Piece{
		loc:        Added,
		arena:      arena,
		arenaStart: start,
		arenaEnd:   end,
		summary:    ComputeSummary(arena.Slice(start, end)),
	}
}

// NewStoredPiece creates a piece referencing a lazily-loaded byte range of
// file. summary must be supplied by the caller (typically computed once at
// document-open time from a full or sampled pass over the file) since
// reading the whole file just to summarize it would defeat lazy loading.
func NewStoredPiece(file *FileRegion, fileOffset int64, length int, summary TextSummary) Piece {
	return Piece{
		loc:        Stored,
		file:       file,
		fileOffset: fileOffset,
		length:     length,
		summary:    summary,
		once:       &sync.Once{},
	}
}

// Len returns the byte length of the piece without requiring its bytes to be
// loaded.
func (p Piece) Len() int {
	return int(p.summary.Bytes)
}

// IsEmpty reports whether the piece spans zero bytes.
func (p Piece) IsEmpty() bool {
	return p.summary.Bytes == 0
}

// Summary returns the piece's precomputed metrics.
func (p Piece) Summary() TextSummary {
	return p.summary
}

// Loaded reports whether the piece's bytes are resident in memory. Added
// pieces are always loaded; Stored pieces are loaded after the first Bytes
// call succeeds.
func (p Piece) Loaded() bool {
	if p.loc == Added {
		return true
	}
	return p.once == nil || p.bytesLoadedLocked()
}

func (p Piece) bytesLoadedLocked() bool {
	return p.bytes != "" || p.summary.Bytes == 0
}

// Bytes returns the piece's text, loading it from the backing file on first
// access if necessary.
func (p *Piece) Bytes() (string, error) {
	switch p.loc {
	case Added:
		return p.arena.Slice(p.arenaStart, p.arenaEnd), nil
	default:
		p.once.Do(func() {
			s, err := p.file.read(p.fileOffset, p.length)
			if err != nil {
				p.loadErr = fmt.Errorf("%w: %s: %v", ErrLoadFailed, p.file.Path(), err)
				return
			}
			p.bytes = s
		})
		if p.loadErr != nil {
			return "", p.loadErr
		}
		return p.bytes, nil
	}
}

// Split splits the piece at byte offset, returning two pieces whose lengths
// sum to the original. For a Stored piece this splits the (offset, length)
// reference and, through splitSummary, reads the piece's bytes (once) to
// summarize the two halves; for an Added piece it narrows the arena range.
func (p Piece) Split(offset int) (Piece, Piece) {
	if offset <= 0 {
		return Piece{}, p
	}
	if offset >= p.Len() {
		return p, Piece{}
	}

	switch p.loc {
	case Added:
		left := NewAddedPiece(p.arena, p.arenaStart, p.arenaStart+offset)
		right := NewAddedPiece(p.arena, p.arenaStart+offset, p.arenaEnd)
		return left, right
	default:
		leftSummary, rightSummary := splitSummary(p, offset)
		left := NewStoredPiece(p.file, p.fileOffset, offset, leftSummary)
		right := NewStoredPiece(p.file, p.fileOffset+int64(offset), p.length-offset, rightSummary)
		return left, right
	}
}

// splitSummary derives summaries for the two halves of a stored piece split.
// Loading the piece is the only exact way to recompute summaries for an
// arbitrary split point, so a split on an already-loaded piece recomputes
// precisely; a split on a still-unloaded piece falls back to loading it once
// (a single extra read, bounded by the piece's own small size cap) rather
// than guessing at line counts.
func splitSummary(p Piece, offset int) (TextSummary, TextSummary) {
	text, err := p.Bytes()
	if err != nil {
		return ZeroSummary(), ZeroSummary()
	}
	return ComputeSummary(text[:offset]), ComputeSummary(text[offset:])
}

// ByteAt returns the byte at offset within the piece.
func (p *Piece) ByteAt(offset int) (byte, error) {
	text, err := p.Bytes()
	if err != nil {
		return 0, err
	}
	if offset < 0 || offset >= len(text) {
		return 0, ErrOutOfBounds
	}
	return text[offset], nil
}
