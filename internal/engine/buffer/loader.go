package buffer

import (
	"io"
	"os"

	"github.com/dshills/quill/internal/engine/piece"
)

// LoadFile opens path and builds a buffer from its contents. Files at or
// below the buffer's large-file threshold are read fully into the Added
// arena, exactly like NewBufferFromReader. Larger files are scanned once,
// streaming piece-sized windows through ComputeSummary so every piece's line
// count is known up front, but the bytes of each window are not kept: the
// resulting tree's Stored pieces reload their bytes from disk lazily on
// first access, keeping memory proportional to pieces touched, not file
// size.
func LoadFile(path string, opts ...Option) (*Buffer, error) {
	b, err := NewBuffer(opts...)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := info.Size()

	if size <= b.largeThreshold {
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		text := b.normalizeLineEndings(string(data))
		b.tree = piece.FromBytes(piece.NewArena(), text)
		b.lastSaved = b.tree
		return b, nil
	}

	offsets := []int64{0}
	var summaries []piece.TextSummary
	window := make([]byte, piece.TargetPieceSize)
	var offset int64

	for offset < size {
		n, rerr := f.ReadAt(window, offset)
		if rerr != nil && rerr != io.EOF {
			f.Close()
			return nil, rerr
		}
		if n == 0 {
			break
		}
		summaries = append(summaries, piece.ComputeSummary(string(window[:n])))
		offset += int64(n)
		offsets = append(offsets, offset)
	}

	b.tree = piece.FromFile(f, path, offsets, summaries)
	b.lastSaved = b.tree
	b.isLarge = true
	b.file = f
	return b, nil
}
