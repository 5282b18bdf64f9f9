package piece

import "strings"

// Tree shape constants.
const (
	MinChildren     = 4
	MaxChildren     = 8
	MaxPiecesPerLeaf = 4
)

// node is a node of the persistent tree. Leaves (height == 0) hold pieces;
// internal nodes hold children plus a cached per-child summary so that
// seeking by offset or line never has to descend into a child it can skip.
type node struct {
	height  uint8
	summary TextSummary

	children       []*node
	childSummaries []TextSummary

	pieces []Piece
}

func newLeaf() *node {
	return &node{pieces: make([]Piece, 0, MaxPiecesPerLeaf)}
}

func newLeafWithPieces(pieces []Piece) *node {
	n := &node{pieces: pieces}
	n.recomputeSummary()
	return n
}

func newInternal(children []*node) *node {
	if len(children) == 0 {
		return newLeaf()
	}

	height := children[0].height + 1
	summaries := make([]TextSummary, len(children))
	var total TextSummary
	for i, c := range children {
		summaries[i] = c.summary
		total = total.Add(c.summary)
	}

	return &node{height: height, summary: total, children: children, childSummaries: summaries}
}

func (n *node) isLeaf() bool { return n.height == 0 }

func (n *node) Len() ByteOffset { return n.summary.Bytes }

func (n *node) lineCount() uint32 { return n.summary.Lines + 1 }

func (n *node) recomputeSummary() {
	n.summary = ZeroSummary()
	if n.isLeaf() {
		for _, p := range n.pieces {
			n.summary = n.summary.Add(p.Summary())
		}
		return
	}
	n.childSummaries = make([]TextSummary, len(n.children))
	for i, c := range n.children {
		n.childSummaries[i] = c.summary
		n.summary = n.summary.Add(c.summary)
	}
}

func (n *node) clone() *node {
	if n.isLeaf() {
		pieces := make([]Piece, len(n.pieces))
		copy(pieces, n.pieces)
		return &node{summary: n.summary, pieces: pieces}
	}
	children := make([]*node, len(n.children))
	copy(children, n.children)
	summaries := make([]TextSummary, len(n.childSummaries))
	copy(summaries, n.childSummaries)
	return &node{height: n.height, summary: n.summary, children: children, childSummaries: summaries}
}

// appendRange writes the text in [start, end) of this subtree to sb.
func (n *node) appendRange(sb *strings.Builder, start, end ByteOffset) error {
	if start >= end {
		return nil
	}

	if n.isLeaf() {
		offset := ByteOffset(0)
		for i := range n.pieces {
			p := &n.pieces[i]
			pieceLen := ByteOffset(p.Len())
			pieceEnd := offset + pieceLen

			if pieceEnd <= start {
				offset = pieceEnd
				continue
			}
			if offset >= end {
				break
			}

			text, err := p.Bytes()
			if err != nil {
				return err
			}

			sliceStart := 0
			if start > offset {
				sliceStart = int(start - offset)
			}
			sliceEnd := p.Len()
			if end < pieceEnd {
				sliceEnd = int(end - offset)
			}

			sb.WriteString(text[sliceStart:sliceEnd])
			offset = pieceEnd
		}
		return nil
	}

	offset := ByteOffset(0)
	for i, child := range n.children {
		childLen := n.childSummaries[i].Bytes
		childEnd := offset + childLen

		if childEnd <= start {
			offset = childEnd
			continue
		}
		if offset >= end {
			break
		}

		childStart := ByteOffset(0)
		if start > offset {
			childStart = start - offset
		}
		childEndAdj := childLen
		if end < childEnd {
			childEndAdj = end - offset
		}

		if err := child.appendRange(sb, childStart, childEndAdj); err != nil {
			return err
		}
		offset = childEnd
	}
	return nil
}

// rangeLoaded reports whether every piece touching [start, end) already has
// its bytes resident, without triggering any load.
func (n *node) rangeLoaded(start, end ByteOffset) bool {
	if start >= end {
		return true
	}

	if n.isLeaf() {
		offset := ByteOffset(0)
		for i := range n.pieces {
			p := &n.pieces[i]
			pieceLen := ByteOffset(p.Len())
			pieceEnd := offset + pieceLen

			if pieceEnd <= start {
				offset = pieceEnd
				continue
			}
			if offset >= end {
				break
			}
			if !p.Loaded() {
				return false
			}
			offset = pieceEnd
		}
		return true
	}

	offset := ByteOffset(0)
	for i, child := range n.children {
		childLen := n.childSummaries[i].Bytes
		childEnd := offset + childLen

		if childEnd <= start {
			offset = childEnd
			continue
		}
		if offset >= end {
			break
		}

		childStart := ByteOffset(0)
		if start > offset {
			childStart = start - offset
		}
		childEndAdj := childLen
		if end < childEnd {
			childEndAdj = end - offset
		}

		if !child.rangeLoaded(childStart, childEndAdj) {
			return false
		}
		offset = childEnd
	}
	return true
}

func (n *node) textInRange(start, end ByteOffset) (string, error) {
	if start >= end || start >= n.Len() {
		return "", nil
	}
	if end > n.Len() {
		end = n.Len()
	}

	var sb strings.Builder
	sb.Grow(int(end - start))
	if err := n.appendRange(&sb, start, end); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (n *node) split(offset ByteOffset) (*node, *node, error) {
	if offset <= 0 {
		return newLeaf(), n.clone(), nil
	}
	if offset >= n.Len() {
		return n.clone(), newLeaf(), nil
	}
	if n.isLeaf() {
		return n.splitLeaf(offset)
	}
	return n.splitInternal(offset)
}

func (n *node) splitLeaf(offset ByteOffset) (*node, *node, error) {
	var left, right []Piece
	current := ByteOffset(0)

	for _, p := range n.pieces {
		pieceLen := ByteOffset(p.Len())

		switch {
		case current+pieceLen <= offset:
			left = append(left, p)
		case current >= offset:
			right = append(right, p)
		default:
			l, r := p.Split(int(offset - current))
			if !l.IsEmpty() {
				left = append(left, l)
			}
			if !r.IsEmpty() {
				right = append(right, r)
			}
		}
		current += pieceLen
	}

	return newLeafWithPieces(left), newLeafWithPieces(right), nil
}

func (n *node) splitInternal(offset ByteOffset) (*node, *node, error) {
	var left, right []*node
	current := ByteOffset(0)

	for i, child := range n.children {
		childLen := n.childSummaries[i].Bytes

		switch {
		case current+childLen <= offset:
			left = append(left, child)
		case current >= offset:
			right = append(right, child)
		default:
			l, r, err := child.split(offset - current)
			if err != nil {
				return nil, nil, err
			}
			if l.Len() > 0 {
				left = append(left, l)
			}
			if r.Len() > 0 {
				right = append(right, r)
			}
		}
		current += childLen
	}

	return buildFromChildren(left), buildFromChildren(right), nil
}

func buildFromChildren(children []*node) *node {
	if len(children) == 0 {
		return newLeaf()
	}
	if len(children) == 1 {
		return children[0]
	}
	if len(children) <= MaxChildren {
		return newInternal(children)
	}

	var parents []*node
	for i := 0; i < len(children); i += MaxChildren {
		end := min(i+MaxChildren, len(children))
		parents = append(parents, newInternal(children[i:end]))
	}
	return buildFromChildren(parents)
}

func concatNodes(left, right *node) *node {
	if left == nil || left.Len() == 0 {
		if right == nil {
			return newLeaf()
		}
		return right
	}
	if right == nil || right.Len() == 0 {
		return left
	}

	if left.isLeaf() && right.isLeaf() {
		return concatLeaves(left, right)
	}

	for left.height < right.height {
		left = newInternal([]*node{left})
	}
	for right.height < left.height {
		right = newInternal([]*node{right})
	}
	return mergeSameHeight(left, right)
}

func concatLeaves(left, right *node) *node {
	total := len(left.pieces) + len(right.pieces)
	if total <= MaxPiecesPerLeaf {
		pieces := make([]Piece, 0, total)
		pieces = append(pieces, left.pieces...)
		pieces = append(pieces, right.pieces...)
		return newLeafWithPieces(pieces)
	}
	return newInternal([]*node{left.clone(), right.clone()})
}

func mergeSameHeight(left, right *node) *node {
	if left.isLeaf() {
		return concatLeaves(left, right)
	}

	all := make([]*node, 0, len(left.children)+len(right.children))
	all = append(all, left.children...)
	all = append(all, right.children...)

	if len(all) <= MaxChildren {
		return newInternal(all)
	}
	return buildFromChildren(all)
}

// findChildByOffset returns the index of the child containing offset and the
// offset translated into that child's coordinate space.
func (n *node) findChildByOffset(offset ByteOffset) (int, ByteOffset) {
	current := ByteOffset(0)
	for i, s := range n.childSummaries {
		if current+s.Bytes > offset {
			return i, offset - current
		}
		current += s.Bytes
	}
	last := len(n.children) - 1
	return last, offset - (n.summary.Bytes - n.childSummaries[last].Bytes)
}

// findChildByLine returns the index of the child containing line and the
// line translated into that child's coordinate space.
func (n *node) findChildByLine(line uint32) (int, uint32) {
	current := uint32(0)
	for i, s := range n.childSummaries {
		if current+s.Lines >= line {
			return i, line - current
		}
		current += s.Lines
	}
	last := len(n.children) - 1
	start := n.summary.Lines - n.childSummaries[last].Lines
	return last, line - start
}
