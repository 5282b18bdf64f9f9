package buffer

// Diff is the result of DiffAgainst: the minimal byte range that changed
// between two tree snapshots, and LineRange, the line/column span of the
// old range as positions in the previous snapshot.
type Diff struct {
	OldRange  Range
	NewRange  Range
	OldText   string
	NewText   string
	LineRange PointRange
}

// DiffAgainst computes the minimal changed byte range between prev and the
// buffer's current content, via longest-common-prefix / longest-common-suffix
// on the two full texts. This is the byte-content equivalent of the
// piece-leaf-granularity comparison the chunked store's leaves would let a
// purely structural diff short-circuit on: working from materialized text
// keeps this method correct regardless of how either tree happens to be
// split into pieces, at the cost of an O(n) read of both sides.
func (b *Buffer) DiffAgainst(prev Snapshot) (Diff, error) {
	oldText, err := prev.Text()
	if err != nil {
		return Diff{}, err
	}
	newText, err := b.Text()
	if err != nil {
		return Diff{}, err
	}

	if oldText == newText {
		return Diff{}, nil
	}

	prefix := commonPrefixLen(oldText, newText)

	oldTail := oldText[prefix:]
	newTail := newText[prefix:]
	suffix := commonSuffixLen(oldTail, newTail)

	oldRange := Range{Start: ByteOffset(prefix), End: ByteOffset(len(oldText) - suffix)}
	newRange := Range{Start: ByteOffset(prefix), End: ByteOffset(len(newText) - suffix)}

	diff := Diff{
		OldRange: oldRange,
		NewRange: newRange,
		OldText:  oldText[oldRange.Start:oldRange.End],
		NewText:  newText[newRange.Start:newRange.End],
	}

	oldStart, err := prev.OffsetToPosition(oldRange.Start)
	if err != nil {
		return diff, err
	}
	oldEnd, err := prev.OffsetToPosition(oldRange.End)
	if err != nil {
		return diff, err
	}
	diff.LineRange = PointRange{Start: oldStart, End: oldEnd}

	return diff, nil
}

func commonPrefixLen(a, b string) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func commonSuffixLen(a, b string) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[len(a)-1-i] == b[len(b)-1-i] {
		i++
	}
	return i
}
