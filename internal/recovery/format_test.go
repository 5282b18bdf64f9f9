package recovery

import (
	"testing"
	"time"
)

func TestEncodeDecodeRecordRoundTrips(t *testing.T) {
	rec := Record{
		Metadata: Metadata{
			OriginalPath:     "/tmp/doc.txt",
			OriginalFileSize: 1000,
			FinalBufferSize:  1005,
			Timestamp:        time.Unix(1700000000, 0),
		},
		Chunks: []Chunk{
			{OriginalOffset: 10, OriginalLen: 0, NewBytes: "hello"},
			{OriginalOffset: 500, OriginalLen: 5, NewBytes: ""},
		},
	}

	data := encodeRecord(rec)
	got, err := decodeRecord("buf-1", data)
	if err != nil {
		t.Fatalf("decodeRecord() error = %v", err)
	}

	if got.Metadata.ID != "buf-1" {
		t.Errorf("ID = %q, want %q", got.Metadata.ID, "buf-1")
	}
	if got.Metadata.OriginalPath != rec.Metadata.OriginalPath {
		t.Errorf("OriginalPath = %q, want %q", got.Metadata.OriginalPath, rec.Metadata.OriginalPath)
	}
	if got.Metadata.OriginalFileSize != rec.Metadata.OriginalFileSize {
		t.Errorf("OriginalFileSize = %d, want %d", got.Metadata.OriginalFileSize, rec.Metadata.OriginalFileSize)
	}
	if got.Metadata.FinalBufferSize != rec.Metadata.FinalBufferSize {
		t.Errorf("FinalBufferSize = %d, want %d", got.Metadata.FinalBufferSize, rec.Metadata.FinalBufferSize)
	}
	if got.Metadata.ChunkCount != len(rec.Chunks) {
		t.Errorf("ChunkCount = %d, want %d", got.Metadata.ChunkCount, len(rec.Chunks))
	}
	if !got.Metadata.Timestamp.Equal(rec.Metadata.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Metadata.Timestamp, rec.Metadata.Timestamp)
	}
	if len(got.Chunks) != len(rec.Chunks) {
		t.Fatalf("len(Chunks) = %d, want %d", len(got.Chunks), len(rec.Chunks))
	}
	for i, c := range rec.Chunks {
		if got.Chunks[i] != c {
			t.Errorf("Chunks[%d] = %+v, want %+v", i, got.Chunks[i], c)
		}
	}
}

func TestDecodeRecordRejectsTruncatedData(t *testing.T) {
	rec := Record{Metadata: Metadata{OriginalPath: "/x"}, Chunks: []Chunk{{OriginalOffset: 1, OriginalLen: 2, NewBytes: "abc"}}}
	data := encodeRecord(rec)

	if _, err := decodeRecord("id", data[:len(data)-2]); err == nil {
		t.Error("decodeRecord() on truncated data should error")
	}
}

func TestWriteReadRecordFileRoundTrips(t *testing.T) {
	dir := t.TempDir()
	rec := Record{
		Metadata: Metadata{
			OriginalPath:     "/tmp/f.txt",
			OriginalFileSize: 10,
			FinalBufferSize:  12,
			Timestamp:        time.Unix(1700000000, 0),
		},
		Chunks: []Chunk{{OriginalOffset: 3, OriginalLen: 1, NewBytes: "xyz"}},
	}

	if err := writeRecordFile(dir, "buf-42", rec); err != nil {
		t.Fatalf("writeRecordFile() error = %v", err)
	}

	got, err := readRecordFile(dir, "buf-42")
	if err != nil {
		t.Fatalf("readRecordFile() error = %v", err)
	}
	if got.Metadata.ID != "buf-42" || len(got.Chunks) != 1 || got.Chunks[0].NewBytes != "xyz" {
		t.Errorf("readRecordFile() = %+v, want round-tripped record", got)
	}
}
