package recovery

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "original.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestChunksFromTreeEmptyWhenUnedited(t *testing.T) {
	content := "line one\nline two\nline three\n"
	path := writeTempFile(t, content)

	buf, size, err := OpenTrackedFile(path)
	if err != nil {
		t.Fatalf("OpenTrackedFile() error = %v", err)
	}

	chunks, err := chunksFromTree(buf.Tree(), size)
	if err != nil {
		t.Fatalf("chunksFromTree() error = %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("chunks = %v, want empty for an unedited buffer", chunks)
	}
}

func TestChunksFromTreeSingleInsertMidFile(t *testing.T) {
	content := "aaaaaaaaaa bbbbbbbbbb cccccccccc"
	path := writeTempFile(t, content)

	buf, size, err := OpenTrackedFile(path)
	if err != nil {
		t.Fatalf("OpenTrackedFile() error = %v", err)
	}
	if _, err := buf.Insert(11, "NEW "); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	chunks, err := chunksFromTree(buf.Tree(), size)
	if err != nil {
		t.Fatalf("chunksFromTree() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
	if chunks[0].OriginalOffset != 11 || chunks[0].OriginalLen != 0 || chunks[0].NewBytes != "NEW " {
		t.Errorf("chunk = %+v, want {11 0 \"NEW \"}", chunks[0])
	}
}

func TestChunksFromTreeReplaceRange(t *testing.T) {
	content := "aaaaaaaaaa bbbbbbbbbb cccccccccc"
	path := writeTempFile(t, content)

	buf, size, err := OpenTrackedFile(path)
	if err != nil {
		t.Fatalf("OpenTrackedFile() error = %v", err)
	}
	// Replace "bbbbbbbbbb" (offsets 11-21) with "X".
	if err := buf.Delete(11, 21); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := buf.Insert(11, "X"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	chunks, err := chunksFromTree(buf.Tree(), size)
	if err != nil {
		t.Fatalf("chunksFromTree() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1, got %+v", len(chunks), chunks)
	}
	if chunks[0].OriginalOffset != 11 || chunks[0].OriginalLen != 10 || chunks[0].NewBytes != "X" {
		t.Errorf("chunk = %+v, want {11 10 \"X\"}", chunks[0])
	}
}

func TestChunksFromTreeDeleteOnlyMidFile(t *testing.T) {
	content := "aaaaaaaaaa bbbbbbbbbb cccccccccc"
	path := writeTempFile(t, content)

	buf, size, err := OpenTrackedFile(path)
	if err != nil {
		t.Fatalf("OpenTrackedFile() error = %v", err)
	}
	// Delete "bbbbbbbbbb" (offsets 11-21) with no subsequent insert.
	if err := buf.Delete(11, 21); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	chunks, err := chunksFromTree(buf.Tree(), size)
	if err != nil {
		t.Fatalf("chunksFromTree() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1, got %+v", len(chunks), chunks)
	}
	if chunks[0].OriginalOffset != 11 || chunks[0].OriginalLen != 10 || chunks[0].NewBytes != "" {
		t.Errorf("chunk = %+v, want {11 10 \"\"}", chunks[0])
	}
}

func TestChunksFromTreeDeleteOnlyTrailing(t *testing.T) {
	content := "aaaaaaaaaa bbbbbbbbbb cccccccccc"
	path := writeTempFile(t, content)

	buf, size, err := OpenTrackedFile(path)
	if err != nil {
		t.Fatalf("OpenTrackedFile() error = %v", err)
	}
	// Delete the final 10 bytes with no subsequent insert.
	if err := buf.Delete(buf.TotalBytes()-10, buf.TotalBytes()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	chunks, err := chunksFromTree(buf.Tree(), size)
	if err != nil {
		t.Fatalf("chunksFromTree() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1, got %+v", len(chunks), chunks)
	}
	wantOffset := int64(len(content) - 10)
	if chunks[0].OriginalOffset != wantOffset || chunks[0].OriginalLen != 10 || chunks[0].NewBytes != "" {
		t.Errorf("chunk = %+v, want {%d 10 \"\"}", chunks[0], wantOffset)
	}
}

func TestChunksFromTreeTwoSeparateEdits(t *testing.T) {
	content := "aaaaaaaaaa bbbbbbbbbb cccccccccc"
	path := writeTempFile(t, content)

	buf, size, err := OpenTrackedFile(path)
	if err != nil {
		t.Fatalf("OpenTrackedFile() error = %v", err)
	}
	if _, err := buf.Insert(0, "HEAD-"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := buf.Insert(buf.TotalBytes(), "-TAIL"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	chunks, err := chunksFromTree(buf.Tree(), size)
	if err != nil {
		t.Fatalf("chunksFromTree() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2, got %+v", len(chunks), chunks)
	}
	if chunks[0].OriginalOffset != 0 || chunks[0].NewBytes != "HEAD-" {
		t.Errorf("chunks[0] = %+v, want offset 0 \"HEAD-\"", chunks[0])
	}
	if chunks[1].OriginalOffset != int64(len(content)) || chunks[1].NewBytes != "-TAIL" {
		t.Errorf("chunks[1] = %+v, want offset %d \"-TAIL\"", chunks[1], len(content))
	}
}
