package buffer

import "testing"

func TestDiffAgainstSameSnapshotIsEmpty(t *testing.T) {
	b, err := NewBufferFromString("hello world")
	if err != nil {
		t.Fatalf("NewBufferFromString() error = %v", err)
	}
	snap := b.Snapshot()

	diff, err := b.DiffAgainst(snap)
	if err != nil {
		t.Fatalf("DiffAgainst() error = %v", err)
	}
	if !diff.OldRange.IsEmpty() || !diff.NewRange.IsEmpty() {
		t.Errorf("DiffAgainst(same) = %+v, want empty ranges", diff)
	}
}

func TestDiffAgainstInsertIsolatesChangedRange(t *testing.T) {
	b, err := NewBufferFromString("hello world")
	if err != nil {
		t.Fatalf("NewBufferFromString() error = %v", err)
	}
	prev := b.Snapshot()

	if _, err := b.Insert(5, ", there"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	diff, err := b.DiffAgainst(prev)
	if err != nil {
		t.Fatalf("DiffAgainst() error = %v", err)
	}
	if diff.OldRange.Start != 5 || diff.OldRange.End != 5 {
		t.Errorf("OldRange = %v, want [5:5)", diff.OldRange)
	}
	if diff.NewRange.Start != 5 || diff.NewRange.End != 12 {
		t.Errorf("NewRange = %v, want [5:12)", diff.NewRange)
	}
	if diff.NewText != ", there" {
		t.Errorf("NewText = %q, want %q", diff.NewText, ", there")
	}
	if diff.OldText != "" {
		t.Errorf("OldText = %q, want empty", diff.OldText)
	}
}

func TestDiffAgainstReplaceMiddleTrimsCommonEnds(t *testing.T) {
	b, err := NewBufferFromString("aaaXXXbbb")
	if err != nil {
		t.Fatalf("NewBufferFromString() error = %v", err)
	}
	prev := b.Snapshot()

	if err := b.Delete(3, 6); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := b.Insert(3, "YY"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	diff, err := b.DiffAgainst(prev)
	if err != nil {
		t.Fatalf("DiffAgainst() error = %v", err)
	}
	if diff.OldText != "XXX" {
		t.Errorf("OldText = %q, want %q", diff.OldText, "XXX")
	}
	if diff.NewText != "YY" {
		t.Errorf("NewText = %q, want %q", diff.NewText, "YY")
	}
}
