package recovery

import (
	"fmt"
	"os"
	"sort"
)

// Reconstruct rebuilds the last-auto-saved buffer content for rec by
// reading its original file and applying chunks in ascending
// OriginalOffset order, per §4.4's three-step reconstruction protocol.
// Offsets never shift mid-application since every chunk refers to the
// original file's coordinate space.
func Reconstruct(rec Record) (string, error) {
	info, err := os.Stat(rec.Metadata.OriginalPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrOriginalMissing, rec.Metadata.OriginalPath)
		}
		return "", err
	}
	if info.Size() != rec.Metadata.OriginalFileSize {
		return "", &RecoveryMismatch{
			Path:         rec.Metadata.OriginalPath,
			ExpectedSize: rec.Metadata.OriginalFileSize,
			ActualSize:   info.Size(),
			Err:          ErrOriginalChanged,
		}
	}

	original, err := os.ReadFile(rec.Metadata.OriginalPath)
	if err != nil {
		return "", err
	}

	chunks := make([]Chunk, len(rec.Chunks))
	copy(chunks, rec.Chunks)
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].OriginalOffset < chunks[j].OriginalOffset })

	var out []byte
	cursor := int64(0)
	for _, c := range chunks {
		if c.OriginalOffset < cursor || c.OriginalOffset > int64(len(original)) {
			return "", fmt.Errorf("%w: chunk offset %d out of order or out of range", ErrCorruptRecord, c.OriginalOffset)
		}
		out = append(out, original[cursor:c.OriginalOffset]...)
		out = append(out, c.NewBytes...)
		cursor = c.OriginalOffset + c.OriginalLen
		if cursor > int64(len(original)) {
			return "", fmt.Errorf("%w: chunk replaces past end of original file", ErrCorruptRecord)
		}
	}
	out = append(out, original[cursor:]...)

	if int64(len(out)) != rec.Metadata.FinalBufferSize {
		return "", &RecoveryMismatch{
			Path:         rec.Metadata.OriginalPath,
			ExpectedSize: rec.Metadata.FinalBufferSize,
			ActualSize:   int64(len(out)),
			Err:          ErrFinalSizeMismatch,
		}
	}

	return string(out), nil
}
