package recovery

import (
	"os"

	"github.com/dshills/quill/internal/engine/buffer"
)

// OpenTrackedFile opens path as a buffer suitable for recovery tracking and
// reports the file's on-disk size at open time (the OriginalFileSize to
// pass to Register).
//
// buffer.LoadFile's ordinary small-file path reads the whole file straight
// into the Added arena as a memory-loading optimization, which would make
// RecoveryChunks see the entire file as "added" content with nothing to
// restore from disk. Recovery needs the Stored/Added split to track edit
// provenance regardless of file size, so this forces the large-file (lazy
// Stored-piece) path via a zero threshold even for small files. The only
// externally visible side effect is that Buffer.IsLargeFile() reports true
// for every recovery-tracked buffer, not just ones above the configured
// threshold; nothing in this module reads that flag for a correctness
// decision.
func OpenTrackedFile(path string, opts ...buffer.Option) (*buffer.Buffer, int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, err
	}
	opts = append(opts, buffer.WithLargeFileThreshold(0))
	b, err := buffer.LoadFile(path, opts...)
	if err != nil {
		return nil, 0, err
	}
	return b, info.Size(), nil
}
