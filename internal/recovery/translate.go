package recovery

import "github.com/dshills/quill/internal/engine/piece"

// Chunk is a recovery chunk in the original file's coordinate space: in the
// saved-file byte range [OriginalOffset, OriginalOffset+OriginalLen), the
// bytes were replaced by NewBytes.
type Chunk struct {
	OriginalOffset int64
	OriginalLen    int64
	NewBytes       string
}

// chunksFromTree derives recovery chunks for tree in original-file
// coordinates, per §4.4 step 2. It walks piece.Tree.PieceLocations in tree
// order: a Stored piece's OriginalOffset is a direct pointer into the
// original file, so the span an Added run displaces is exactly the gap
// between the original offset the previous Stored piece's bytes end at and
// the original offset the next Stored piece's bytes begin at. A run of one
// or more consecutive Added pieces between two Stored pieces (or the start
// / end of the tree) collapses into a single chunk; the chunk's NewBytes is
// the concatenation of every Added piece in that run, since they all
// occupy a single contiguous replaced span in original coordinates even
// though piece.RecoveryChunks reports them as separate doc-offset entries.
func chunksFromTree(tree piece.Tree, originalFileSize int64) ([]Chunk, error) {
	locations := tree.PieceLocations()
	recovered, err := tree.RecoveryChunks(originalFileSize)
	if err != nil {
		return nil, err
	}
	bytesByDocOffset := make(map[piece.ByteOffset]string, len(recovered))
	for _, rc := range recovered {
		bytesByDocOffset[rc.DocOffset] = rc.Bytes
	}

	var chunks []Chunk
	var pendingBytes string
	havePending := false
	pendingOriginalStart := int64(0)
	prevStoredEnd := int64(0)

	// ensurePending opens a pending chunk at prevStoredEnd if one isn't
	// already open. A gap between two Stored pieces (or between the last
	// Stored piece and end of file) with no Added run to carry it is a
	// pure deletion: without this, such a gap never sets havePending and
	// flush silently drops it instead of emitting a chunk with empty
	// NewBytes.
	ensurePending := func() {
		if !havePending {
			havePending = true
			pendingOriginalStart = prevStoredEnd
		}
	}

	flush := func(originalEnd int64) {
		if !havePending {
			return
		}
		chunks = append(chunks, Chunk{
			OriginalOffset: pendingOriginalStart,
			OriginalLen:    originalEnd - pendingOriginalStart,
			NewBytes:       pendingBytes,
		})
		pendingBytes = ""
		havePending = false
	}

	for _, loc := range locations {
		switch loc.Loc {
		case piece.Stored:
			if loc.OriginalOffset > prevStoredEnd {
				ensurePending()
			}
			flush(loc.OriginalOffset)
			prevStoredEnd = loc.OriginalOffset + int64(loc.Len)
		case piece.Added:
			ensurePending()
			pendingBytes += bytesByDocOffset[loc.DocOffset]
		}
	}
	if originalFileSize > prevStoredEnd {
		ensurePending()
	}
	flush(originalFileSize)

	return chunks, nil
}
