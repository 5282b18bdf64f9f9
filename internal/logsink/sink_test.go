package logsink

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenAppendsToLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quill.log")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	s.Entry("test").Info("hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("log file is empty after logging an entry")
	}
}

func TestRingOnlyCapturesWarningsAndAbove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quill.log")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	s.Entry("test").Info("not a warning")
	s.Entry("test").Warn("careful")
	s.Entry("test").Error("broken")

	snap := s.Ring().Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Ring snapshot has %d entries, want 2 (warn + error only)", len(snap))
	}
	if snap[0].Message != "careful" || snap[1].Message != "broken" {
		t.Errorf("Ring snapshot = %+v, want [careful, broken]", snap)
	}
}

func TestRingEvictsOldestWhenFull(t *testing.T) {
	r := NewRing(2)
	r.Warn("one")
	r.Warn("two")
	r.Warn("three")

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot() len = %d, want 2", len(snap))
	}
	if snap[0].Message != "two" || snap[1].Message != "three" {
		t.Errorf("Snapshot() = %+v, want [two, three]", snap)
	}
}
