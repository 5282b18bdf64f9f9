package piece

// RecoveryChunk pairs a span of text sourced from the Added region with its
// current logical byte offset in the tree. The recovery manager (outside
// this package) is responsible for translating DocOffset into the original
// file's coordinate space; this package only reports what it can answer
// without any notion of "original file" beyond the Stored/Added split
// already recorded on each piece.
type RecoveryChunk struct {
	DocOffset ByteOffset
	Bytes     string
}

// RecoveryChunks returns every piece sourced from the Added region together
// with its current doc offset, in ascending offset order, per §4.1's
// recovery_chunks contract. A tree identical to the file it was opened from
// holds only Stored pieces and returns an empty slice.
//
// originalFileSize is accepted for parity with the public contract but
// unused here: this layer reports the added region as it stands in the
// tree, the same regardless of what the backing file's size happens to be.
// The recovery manager is the layer that knows what to do with that size.
func (t Tree) RecoveryChunks(originalFileSize int64) ([]RecoveryChunk, error) {
	if t.root == nil {
		return nil, nil
	}
	var chunks []RecoveryChunk
	offset := ByteOffset(0)
	if err := t.root.collectRecoveryChunks(&offset, &chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

func (n *node) collectRecoveryChunks(offset *ByteOffset, out *[]RecoveryChunk) error {
	if n.isLeaf() {
		for i := range n.pieces {
			p := &n.pieces[i]
			pieceLen := ByteOffset(p.Len())
			if p.loc == Added && pieceLen > 0 {
				text, err := p.Bytes()
				if err != nil {
					return err
				}
				*out = append(*out, RecoveryChunk{DocOffset: *offset, Bytes: text})
			}
			*offset += pieceLen
		}
		return nil
	}
	for _, child := range n.children {
		if err := child.collectRecoveryChunks(offset, out); err != nil {
			return err
		}
	}
	return nil
}

// PieceInfo describes one piece in tree order: where it currently sits in
// the document (DocOffset) and, for a Stored piece, where its bytes sit in
// the original file (OriginalOffset). Added pieces carry no meaningful
// OriginalOffset since they were never backed by the file.
type PieceInfo struct {
	Loc            Location
	DocOffset      ByteOffset
	Len            int
	OriginalOffset int64
}

// PieceLocations walks the tree in order and reports every piece's
// placement, Stored and Added alike. This is the "re-reading that
// adjacency from the piece tree" §4.4 describes: a Stored piece's
// fileOffset is a direct pointer into the original file, so comparing
// consecutive Stored pieces' original offsets against the bytes an
// intervening Added piece displaced is enough to recover
// (original_offset, original_len_replaced) without tracking edit history.
func (t Tree) PieceLocations() []PieceInfo {
	if t.root == nil {
		return nil
	}
	var out []PieceInfo
	offset := ByteOffset(0)
	t.root.collectPieceLocations(&offset, &out)
	return out
}

func (n *node) collectPieceLocations(offset *ByteOffset, out *[]PieceInfo) {
	if n.isLeaf() {
		for i := range n.pieces {
			p := &n.pieces[i]
			info := PieceInfo{Loc: p.loc, DocOffset: *offset, Len: p.Len()}
			if p.loc == Stored {
				info.OriginalOffset = p.fileOffset
			}
			*out = append(*out, info)
			*offset += ByteOffset(p.Len())
		}
		return
	}
	for _, child := range n.children {
		child.collectPieceLocations(offset, out)
	}
}
