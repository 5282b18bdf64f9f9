package buffer

import (
	"errors"
	"testing"

	"github.com/dshills/quill/internal/engine/piece"
)

func mustBuffer(t *testing.T, s string, opts ...Option) *Buffer {
	t.Helper()
	b, err := NewBufferFromString(s, opts...)
	if err != nil {
		t.Fatalf("NewBufferFromString(%q) error = %v", s, err)
	}
	return b
}

func text(t *testing.T, b *Buffer) string {
	t.Helper()
	s, err := b.Text()
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	return s
}

func TestNewBuffer(t *testing.T) {
	b, err := NewBuffer()
	if err != nil {
		t.Fatalf("NewBuffer() error = %v", err)
	}
	if !b.IsEmpty() {
		t.Error("new buffer should be empty")
	}
	if b.TotalBytes() != 0 {
		t.Errorf("expected length 0, got %d", b.TotalBytes())
	}
	if b.LineCount() != 1 {
		t.Errorf("expected 1 line, got %d", b.LineCount())
	}
}

func TestNewBufferRejectsInvalidTabWidth(t *testing.T) {
	_, err := NewBuffer(WithTabWidth(0))
	if !errors.Is(err, ErrInvalidTabWidth) {
		t.Errorf("error = %v, want ErrInvalidTabWidth", err)
	}

	_, err = NewBuffer(WithTabWidth(-1))
	if !errors.Is(err, ErrInvalidTabWidth) {
		t.Errorf("error = %v, want ErrInvalidTabWidth", err)
	}
}

func TestNewBufferFromString(t *testing.T) {
	s := "Hello, World!"
	b := mustBuffer(t, s)

	if got := text(t, b); got != s {
		t.Errorf("Text() = %q, want %q", got, s)
	}
	if b.TotalBytes() != ByteOffset(len(s)) {
		t.Errorf("TotalBytes() = %d, want %d", b.TotalBytes(), len(s))
	}
}

func TestNewBufferFromStringMultiline(t *testing.T) {
	b := mustBuffer(t, "line1\nline2\nline3")

	if b.LineCount() != 3 {
		t.Errorf("LineCount() = %d, want 3", b.LineCount())
	}

	for i, want := range []string{"line1", "line2", "line3"} {
		got, err := b.LineText(uint32(i))
		if err != nil {
			t.Fatalf("LineText(%d) error = %v", i, err)
		}
		if got != want {
			t.Errorf("LineText(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestBufferInsert(t *testing.T) {
	b := mustBuffer(t, "Hello World")

	end, err := b.Insert(5, ",")
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if end != 6 {
		t.Errorf("end = %d, want 6", end)
	}
	if got := text(t, b); got != "Hello, World" {
		t.Errorf("Text() = %q, want %q", got, "Hello, World")
	}
}

func TestBufferInsertOutOfRange(t *testing.T) {
	b := mustBuffer(t, "Hello")

	if _, err := b.Insert(100, "X"); !errors.Is(err, piece.ErrOutOfBounds) {
		t.Errorf("error = %v, want ErrOutOfBounds", err)
	}
	if _, err := b.Insert(-1, "X"); !errors.Is(err, piece.ErrOutOfBounds) {
		t.Errorf("error = %v, want ErrOutOfBounds", err)
	}
}

func TestBufferDelete(t *testing.T) {
	b := mustBuffer(t, "Hello, World!")

	if err := b.Delete(5, 7); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got := text(t, b); got != "HelloWorld!" {
		t.Errorf("Text() = %q, want %q", got, "HelloWorld!")
	}
}

func TestBufferDeleteInvalidRange(t *testing.T) {
	b := mustBuffer(t, "Hello")

	if err := b.Delete(3, 2); !errors.Is(err, ErrRangeInvalid) {
		t.Errorf("error = %v, want ErrRangeInvalid", err)
	}
	if err := b.Delete(0, 100); !errors.Is(err, ErrRangeInvalid) {
		t.Errorf("error = %v, want ErrRangeInvalid", err)
	}
}

func TestBufferReplace(t *testing.T) {
	b := mustBuffer(t, "Hello World")

	end, err := b.Replace(6, 11, "Go")
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if end != 8 {
		t.Errorf("end = %d, want 8", end)
	}
	if got := text(t, b); got != "Hello Go" {
		t.Errorf("Text() = %q, want %q", got, "Hello Go")
	}
}

func TestBufferLineStartEnd(t *testing.T) {
	b := mustBuffer(t, "abc\ndefgh\nij")

	tests := []struct {
		line  uint32
		start ByteOffset
		end   ByteOffset
	}{
		{0, 0, 3},
		{1, 4, 9},
		{2, 10, 12},
	}

	for _, tt := range tests {
		if got := b.LineStartOffset(tt.line); got != tt.start {
			t.Errorf("LineStartOffset(%d) = %d, want %d", tt.line, got, tt.start)
		}
		if got := b.LineEndOffset(tt.line); got != tt.end {
			t.Errorf("LineEndOffset(%d) = %d, want %d", tt.line, got, tt.end)
		}
	}
}

func TestBufferOffsetToPosition(t *testing.T) {
	b := mustBuffer(t, "abc\ndefgh\nij")

	tests := []struct {
		offset ByteOffset
		want   Point
	}{
		{0, Point{Line: 0, Column: 0}},
		{3, Point{Line: 0, Column: 3}},
		{4, Point{Line: 1, Column: 0}},
		{7, Point{Line: 1, Column: 3}},
		{10, Point{Line: 2, Column: 0}},
	}

	for _, tt := range tests {
		got, err := b.OffsetToPosition(tt.offset)
		if err != nil {
			t.Fatalf("OffsetToPosition(%d) error = %v", tt.offset, err)
		}
		if got != tt.want {
			t.Errorf("OffsetToPosition(%d) = %+v, want %+v", tt.offset, got, tt.want)
		}
		if back := b.PositionToOffset(got); back != tt.offset {
			t.Errorf("PositionToOffset(%+v) = %d, want %d", got, back, tt.offset)
		}
	}
}

func TestBufferIsModified(t *testing.T) {
	b := mustBuffer(t, "hello")
	if b.IsModified() {
		t.Error("freshly created buffer should not be modified")
	}

	if _, err := b.Insert(5, " world"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if !b.IsModified() {
		t.Error("buffer should be modified after insert")
	}

	b.MarkSaved()
	if b.IsModified() {
		t.Error("buffer should not be modified right after MarkSaved")
	}
}

func TestBufferDiffAgainst(t *testing.T) {
	b := mustBuffer(t, "hello world")
	before := b.Snapshot()

	if _, err := b.Replace(6, 11, "there"); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	diff, err := b.DiffAgainst(before)
	if err != nil {
		t.Fatalf("DiffAgainst() error = %v", err)
	}
	if diff.OldText != "world" {
		t.Errorf("OldText = %q, want %q", diff.OldText, "world")
	}
	if diff.NewText != "there" {
		t.Errorf("NewText = %q, want %q", diff.NewText, "there")
	}
	if diff.OldRange.Start != 6 || diff.OldRange.End != 11 {
		t.Errorf("OldRange = %+v, want [6:11)", diff.OldRange)
	}
}

func TestBufferDiffAgainstNoChange(t *testing.T) {
	b := mustBuffer(t, "unchanged")
	before := b.Snapshot()

	diff, err := b.DiffAgainst(before)
	if err != nil {
		t.Fatalf("DiffAgainst() error = %v", err)
	}
	if diff != (Diff{}) {
		t.Errorf("expected zero Diff, got %+v", diff)
	}
}

func TestGetTextRangeVsMut(t *testing.T) {
	b := mustBuffer(t, "hello world")

	got, err := b.GetTextRange(0, 5)
	if err != nil {
		t.Fatalf("GetTextRange() error = %v", err)
	}
	if got != "hello" {
		t.Errorf("GetTextRange() = %q, want %q", got, "hello")
	}

	got, err = b.GetTextRangeMut(6, 11)
	if err != nil {
		t.Fatalf("GetTextRangeMut() error = %v", err)
	}
	if got != "world" {
		t.Errorf("GetTextRangeMut() = %q, want %q", got, "world")
	}
}
