package recovery

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// schemaVersion is bumped whenever the on-disk record layout changes.
const schemaVersion = 1

// Record layout (little-endian):
//
//	[1B]  schema version
//	[2B]  len(OriginalPath)  [NB] OriginalPath
//	[8B]  OriginalFileSize
//	[8B]  FinalBufferSize
//	[8B]  unix timestamp (seconds)
//	[4B]  chunk_count
//	chunk_count records, each:
//	  [8B] original_offset
//	  [8B] original_len
//	  [8B] new_len
//	  new_len bytes of new_bytes
const (
	versionSize   = 1
	pathLenSize   = 2
	fileSizeSize  = 8
	bufSizeSize   = 8
	timestampSize = 8
	countSize     = 4

	chunkHeaderSize = 8 + 8 + 8
)

// Metadata is the recovery record's header, per spec.md §4 "Recovery
// metadata".
type Metadata struct {
	ID               string
	OriginalPath     string
	OriginalFileSize int64
	FinalBufferSize  int64
	ChunkCount       int
	TotalChunkBytes  int64
	Timestamp        time.Time
}

// Record is a complete recovery record: metadata plus the chunks that
// reconstruct the buffer from OriginalPath.
type Record struct {
	Metadata Metadata
	Chunks   []Chunk
}

func encodeRecord(rec Record) []byte {
	pathBytes := []byte(rec.Metadata.OriginalPath)

	size := versionSize + pathLenSize + len(pathBytes) + fileSizeSize + bufSizeSize + timestampSize + countSize
	for _, c := range rec.Chunks {
		size += chunkHeaderSize + len(c.NewBytes)
	}

	buf := make([]byte, size)
	cursor := 0

	buf[cursor] = schemaVersion
	cursor += versionSize

	binary.LittleEndian.PutUint16(buf[cursor:], uint16(len(pathBytes)))
	cursor += pathLenSize
	cursor += copy(buf[cursor:], pathBytes)

	binary.LittleEndian.PutUint64(buf[cursor:], uint64(rec.Metadata.OriginalFileSize))
	cursor += fileSizeSize
	binary.LittleEndian.PutUint64(buf[cursor:], uint64(rec.Metadata.FinalBufferSize))
	cursor += bufSizeSize
	binary.LittleEndian.PutUint64(buf[cursor:], uint64(rec.Metadata.Timestamp.Unix()))
	cursor += timestampSize
	binary.LittleEndian.PutUint32(buf[cursor:], uint32(len(rec.Chunks)))
	cursor += countSize

	for _, c := range rec.Chunks {
		binary.LittleEndian.PutUint64(buf[cursor:], uint64(c.OriginalOffset))
		cursor += 8
		binary.LittleEndian.PutUint64(buf[cursor:], uint64(c.OriginalLen))
		cursor += 8
		binary.LittleEndian.PutUint64(buf[cursor:], uint64(len(c.NewBytes)))
		cursor += 8
		cursor += copy(buf[cursor:], c.NewBytes)
	}

	return buf
}

func decodeRecord(id string, data []byte) (Record, error) {
	if len(data) < versionSize+pathLenSize {
		return Record{}, ErrCorruptRecord
	}
	cursor := 0

	version := data[cursor]
	cursor += versionSize
	if version != schemaVersion {
		return Record{}, fmt.Errorf("%w: schema version %d", ErrCorruptRecord, version)
	}

	pathLen := int(binary.LittleEndian.Uint16(data[cursor:]))
	cursor += pathLenSize
	if len(data) < cursor+pathLen+fileSizeSize+bufSizeSize+timestampSize+countSize {
		return Record{}, ErrCorruptRecord
	}
	path := string(data[cursor : cursor+pathLen])
	cursor += pathLen

	originalSize := int64(binary.LittleEndian.Uint64(data[cursor:]))
	cursor += fileSizeSize
	finalSize := int64(binary.LittleEndian.Uint64(data[cursor:]))
	cursor += bufSizeSize
	ts := int64(binary.LittleEndian.Uint64(data[cursor:]))
	cursor += timestampSize
	count := int(binary.LittleEndian.Uint32(data[cursor:]))
	cursor += countSize

	chunks := make([]Chunk, 0, count)
	var totalBytes int64
	for i := 0; i < count; i++ {
		if len(data) < cursor+chunkHeaderSize {
			return Record{}, ErrCorruptRecord
		}
		originalOffset := int64(binary.LittleEndian.Uint64(data[cursor:]))
		cursor += 8
		originalLen := int64(binary.LittleEndian.Uint64(data[cursor:]))
		cursor += 8
		newLen := int64(binary.LittleEndian.Uint64(data[cursor:]))
		cursor += 8
		if len(data) < cursor+int(newLen) {
			return Record{}, ErrCorruptRecord
		}
		newBytes := string(data[cursor : cursor+int(newLen)])
		cursor += int(newLen)

		chunks = append(chunks, Chunk{OriginalOffset: originalOffset, OriginalLen: originalLen, NewBytes: newBytes})
		totalBytes += newLen
	}

	return Record{
		Metadata: Metadata{
			ID:               id,
			OriginalPath:     path,
			OriginalFileSize: originalSize,
			FinalBufferSize:  finalSize,
			ChunkCount:       count,
			TotalChunkBytes:  totalBytes,
			Timestamp:        time.Unix(ts, 0),
		},
		Chunks: chunks,
	}, nil
}

// writeRecordFile writes rec to dir/id atomically via write-temp-then-
// rename, grounded on the pack's indexer writeFile pattern.
func writeRecordFile(dir, id string, rec Record) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create recovery dir: %w", err)
	}
	target := filepath.Join(dir, id)
	data := encodeRecord(rec)

	tmpFile, err := os.CreateTemp(dir, id+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// readRecordFile reads and decodes the recovery record for id from dir.
func readRecordFile(dir, id string) (Record, error) {
	data, err := os.ReadFile(filepath.Join(dir, id))
	if err != nil {
		return Record{}, err
	}
	return decodeRecord(id, data)
}
