package recovery

import (
	"path/filepath"
	"testing"
	"time"
)

func TestReconstructAppliesChunksInOrder(t *testing.T) {
	content := "aaaaaaaaaa bbbbbbbbbb cccccccccc"
	path := writeTempFile(t, content)

	rec := Record{
		Metadata: Metadata{
			OriginalPath:     path,
			OriginalFileSize: int64(len(content)),
			FinalBufferSize:  int64(len("aaaaaaaaaa X cccccccccc")),
			Timestamp:        time.Now(),
		},
		Chunks: []Chunk{
			{OriginalOffset: 11, OriginalLen: 10, NewBytes: "X"},
		},
	}

	got, err := Reconstruct(rec)
	if err != nil {
		t.Fatalf("Reconstruct() error = %v", err)
	}
	want := "aaaaaaaaaa X cccccccccc"
	if got != want {
		t.Errorf("Reconstruct() = %q, want %q", got, want)
	}
}

func TestReconstructDetectsOriginalSizeMismatch(t *testing.T) {
	path := writeTempFile(t, "short")

	rec := Record{
		Metadata: Metadata{
			OriginalPath:     path,
			OriginalFileSize: 100000,
			FinalBufferSize:  5,
		},
	}

	_, err := Reconstruct(rec)
	var mismatch *RecoveryMismatch
	if err == nil {
		t.Fatal("Reconstruct() should fail on original size mismatch")
	}
	if !isRecoveryMismatch(err, &mismatch) {
		t.Fatalf("error = %v, want *RecoveryMismatch", err)
	}
	if !IsOriginalChanged(err) {
		t.Error("expected IsOriginalChanged(err) = true")
	}
}

func TestReconstructDetectsFinalSizeMismatch(t *testing.T) {
	content := "0123456789"
	path := writeTempFile(t, content)

	rec := Record{
		Metadata: Metadata{
			OriginalPath:     path,
			OriginalFileSize: int64(len(content)),
			FinalBufferSize:  999,
		},
	}

	_, err := Reconstruct(rec)
	if err == nil {
		t.Fatal("Reconstruct() should fail on final size mismatch")
	}
}

func TestReconstructOriginalMissing(t *testing.T) {
	rec := Record{
		Metadata: Metadata{
			OriginalPath:     filepath.Join(t.TempDir(), "gone.txt"),
			OriginalFileSize: 10,
			FinalBufferSize:  10,
		},
	}
	_, err := Reconstruct(rec)
	if err == nil {
		t.Fatal("Reconstruct() should fail when the original file is missing")
	}
}

func isRecoveryMismatch(err error, target **RecoveryMismatch) bool {
	m, ok := err.(*RecoveryMismatch)
	if !ok {
		return false
	}
	*target = m
	return true
}
