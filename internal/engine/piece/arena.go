package piece

import "sync"

// Arena is an append-only byte store shared by every version of a tree built
// from the same document. Pieces never reference a range that is later
// overwritten, so multiple tree snapshots can safely hold overlapping byte
// ranges into the same arena without copy-on-write for that side of the
// structure: the spec calls this out explicitly for the "Added" region, and
// it is why inserted text never needs to be copied into a fresh allocation
// per edit the way a stored region's materialized cache sometimes does.
type Arena struct {
	mu   sync.Mutex
	data []byte
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Append writes s to the end of the arena and returns the byte range it now
// occupies. The returned range is stable: later Appends never move or
// invalidate it.
func (a *Arena) Append(s string) (start, end int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	start = len(a.data)
	a.data = append(a.data, s...)
	end = len(a.data)
	return start, end
}

// Slice returns the bytes in [start, end) as a string. The arena only grows,
// so any range previously returned by Append remains valid to slice forever.
func (a *Arena) Slice(start, end int) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return string(a.data[start:end])
}

// FileRegion is a lazily-read, read-only view of a byte range of a file. Each
// stored piece references one; the bytes are pulled off disk at most once,
// cached in the Piece itself.
type FileRegion struct {
	reader ReaderAt
	path   string
}

// ReaderAt is the minimal interface a stored region needs from its backing
// file. *os.File satisfies it.
type ReaderAt interface {
	ReadAt(p []byte, off int64) (int, error)
}

// NewFileRegion wraps a reader for lazy, positional reads of path.
func NewFileRegion(path string, reader ReaderAt) *FileRegion {
	return &FileRegion{reader: reader, path: path}
}

// Path returns the backing file path, used when reporting ErrLoadFailed.
func (f *FileRegion) Path() string {
	return f.path
}

// read loads length bytes starting at fileOffset.
func (f *FileRegion) read(fileOffset int64, length int) (string, error) {
	if length == 0 {
		return "", nil
	}
	buf := make([]byte, length)
	n, err := f.reader.ReadAt(buf, fileOffset)
	if err != nil && n < length {
		return "", err
	}
	return string(buf), nil
}
