package piece

import "unicode/utf8"

// ByteOffset is an absolute byte position within a tree.
type ByteOffset uint64

// Point is a 0-indexed line/column position, columns counted in bytes.
type Point struct {
	Line   uint32
	Column uint32
}

// PointUTF16 is a 0-indexed line/column position, columns counted in UTF-16
// code units, for reporting positions to LSP-style consumers.
type PointUTF16 struct {
	Line   uint32
	Column uint32
}

// TextFlags record cheap-to-check properties of a span of text.
type TextFlags uint8

const (
	// FlagASCII is set when every byte in the span is ASCII.
	FlagASCII TextFlags = 1 << iota
	// FlagHasNewlines is set when the span contains at least one '\n'.
	FlagHasNewlines
	// FlagHasTabs is set when the span contains at least one '\t'.
	FlagHasTabs
)

// TextSummary is the monoid every piece and node caches so that byte counts,
// line counts, and UTF-16 lengths can be read in O(1) and combined in O(1)
// when concatenating subtrees.
type TextSummary struct {
	Bytes        ByteOffset
	UTF16Units   uint64
	Lines        uint32
	LongestLine  uint32
	FirstLineLen uint32
	LastLineLen  uint32
	Flags        TextFlags
}

// ZeroSummary is the identity element for Add.
func ZeroSummary() TextSummary {
	return TextSummary{Flags: FlagASCII}
}

// IsZero reports whether the summary describes an empty span.
func (s TextSummary) IsZero() bool {
	return s.Bytes == 0
}

// Add combines two adjacent summaries, left followed by right.
func (s TextSummary) Add(other TextSummary) TextSummary {
	if s.Bytes == 0 {
		return other
	}
	if other.Bytes == 0 {
		return s
	}

	result := TextSummary{
		Bytes:      s.Bytes + other.Bytes,
		UTF16Units: s.UTF16Units + other.UTF16Units,
		Lines:      s.Lines + other.Lines,
		Flags:      s.Flags & other.Flags,
	}

	if other.Lines > 0 {
		result.LongestLine = max(s.LongestLine, other.LongestLine)
		result.FirstLineLen = s.FirstLineLen
		result.LastLineLen = other.LastLineLen
	} else {
		combined := s.LastLineLen + other.LastLineLen
		result.LongestLine = max(s.LongestLine, combined)
		if s.Lines == 0 {
			result.FirstLineLen = combined
		} else {
			result.FirstLineLen = s.FirstLineLen
		}
		result.LastLineLen = combined
	}

	if s.Flags&FlagHasNewlines != 0 || other.Flags&FlagHasNewlines != 0 {
		result.Flags |= FlagHasNewlines
	}
	if s.Flags&FlagHasTabs != 0 || other.Flags&FlagHasTabs != 0 {
		result.Flags |= FlagHasTabs
	}

	return result
}

// ComputeSummary computes a TextSummary for a string in a single pass.
func ComputeSummary(s string) TextSummary {
	if len(s) == 0 {
		return ZeroSummary()
	}

	var sum TextSummary
	sum.Bytes = ByteOffset(len(s))
	sum.Flags = FlagASCII

	var lineLen uint32
	for _, r := range s {
		if r <= 0xFFFF {
			sum.UTF16Units++
		} else {
			sum.UTF16Units += 2
		}

		if r > 127 {
			sum.Flags &^= FlagASCII
		}

		if r == '\n' {
			sum.Lines++
			if lineLen > sum.LongestLine {
				sum.LongestLine = lineLen
			}
			if sum.Lines == 1 {
				sum.FirstLineLen = lineLen
			}
			lineLen = 0
			sum.Flags |= FlagHasNewlines
		} else {
			lineLen += uint32(utf8.RuneLen(r))
			if r == '\t' {
				sum.Flags |= FlagHasTabs
			}
		}
	}

	sum.LastLineLen = lineLen
	if sum.Lines == 0 {
		sum.FirstLineLen = lineLen
		sum.LongestLine = lineLen
	} else if lineLen > sum.LongestLine {
		sum.LongestLine = lineLen
	}

	return sum
}

// OffsetToPoint converts a byte offset within s to a line/column position.
func OffsetToPoint(s string, offset int) Point {
	if offset <= 0 {
		return Point{}
	}
	if offset >= len(s) {
		offset = len(s)
	}

	var line uint32
	lastNewline := -1
	for i, c := range s[:offset] {
		if c == '\n' {
			line++
			lastNewline = i
		}
	}

	return Point{Line: line, Column: uint32(offset - lastNewline - 1)}
}
