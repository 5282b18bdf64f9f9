package recovery

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dshills/quill/internal/engine/buffer"
)

// Target is the minimal surface a buffer owner exposes for recovery
// tracking. document.Document satisfies this directly.
type Target interface {
	Buffer() *buffer.Buffer
}

// Warner receives non-fatal recovery events (e.g. a conflicted record
// found at startup) that deserve a user-visible warning rather than a
// returned error. internal/logsink implements this against its ring
// buffer.
type Warner interface {
	Warn(msg string)
}

type trackedEntry struct {
	id               string
	originalPath     string
	originalFileSize int64
	target           Target
	lastSavedRev     buffer.RevisionID
}

// Manager auto-saves recovery chunks for every registered buffer on a
// ticker, grounded on the teacher's SyncManager (start/stop/monitorLoop
// over stop/done channels).
type Manager struct {
	mu       sync.Mutex
	dir      string
	interval time.Duration
	entries  map[string]*trackedEntry
	warner   Warner
	log      *logrus.Entry

	running bool
	stop    chan struct{}
	done    chan struct{}
}

// Option configures a Manager at construction.
type Option func(*Manager)

// WithWarner registers a Warner that receives conflicted-record reports.
func WithWarner(w Warner) Option {
	return func(m *Manager) { m.warner = w }
}

// WithLogger overrides the manager's logger.
func WithLogger(log *logrus.Entry) Option {
	return func(m *Manager) { m.log = log }
}

// NewManager creates a Manager that writes recovery records into dir on
// each tick of interval. interval <= 0 means "immediate": CheckNow is the
// only way records get written, and Start never launches a ticker.
func NewManager(dir string, interval time.Duration, opts ...Option) *Manager {
	m := &Manager{
		dir:      dir,
		interval: interval,
		entries:  make(map[string]*trackedEntry),
		log:      logrus.WithField("component", "recovery"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register starts tracking id for recovery. originalFileSize is the size
// of the on-disk file at open time (0 for a new, unsaved scratch buffer:
// the whole buffer is then "added" content). The buffer's revision at
// registration counts as saved, so no record is written until it changes.
func (m *Manager) Register(id, originalPath string, originalFileSize int64, target Target) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = &trackedEntry{
		id:               id,
		originalPath:     originalPath,
		originalFileSize: originalFileSize,
		target:           target,
		lastSavedRev:     target.Buffer().RevisionID(),
	}
}

// Unregister stops tracking id. Does not remove any on-disk record: a
// clean close already means there is nothing to recover.
func (m *Manager) Unregister(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
}

// Start begins the periodic auto-save ticker. A no-op if interval <= 0 or
// already running.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running || m.interval <= 0 {
		return
	}
	m.running = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.monitorLoop()
}

// Stop halts the ticker and waits for the monitor loop to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	m.mu.Unlock()

	<-m.done
}

func (m *Manager) monitorLoop() {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.CheckNow(context.Background())
		}
	}
}

// CheckNow flushes a recovery record for every dirty registered buffer
// immediately, without waiting for the next tick.
func (m *Manager) CheckNow(ctx context.Context) {
	m.mu.Lock()
	entries := make([]*trackedEntry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	for _, e := range entries {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := m.saveEntry(e); err != nil {
			m.log.WithField("id", e.id).WithError(err).Warn("recovery save failed")
		}
	}
}

func (m *Manager) saveEntry(e *trackedEntry) error {
	buf := e.target.Buffer()
	rev := buf.RevisionID()

	m.mu.Lock()
	dirty := rev != e.lastSavedRev
	m.mu.Unlock()
	if !dirty {
		return nil
	}

	tree := buf.Tree()
	chunks, err := chunksFromTree(tree, e.originalFileSize)
	if err != nil {
		return NewSaveError(e.id, err)
	}

	var total int64
	for _, c := range chunks {
		total += int64(len(c.NewBytes))
	}

	rec := Record{
		Metadata: Metadata{
			ID:               e.id,
			OriginalPath:     e.originalPath,
			OriginalFileSize: e.originalFileSize,
			FinalBufferSize:  int64(tree.Len()),
			ChunkCount:       len(chunks),
			TotalChunkBytes:  total,
			Timestamp:        recoveryNow(),
		},
		Chunks: chunks,
	}

	if err := writeRecordFile(m.dir, e.id, rec); err != nil {
		return NewSaveError(e.id, err)
	}

	m.mu.Lock()
	e.lastSavedRev = rev
	m.mu.Unlock()
	return nil
}

// recoveryNow is the one place this package calls time.Now, isolated so a
// future deterministic-clock need only replace this function.
func recoveryNow() time.Time { return time.Now() }

// ReconstructAll scans dir for recovery records and reconstructs each.
// Records whose original file is missing or size-mismatched are reported
// through the Warner as conflicted rather than aborting the scan; every
// other record's reconstructed content is returned keyed by id.
func (m *Manager) ReconstructAll() (map[string]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	results := make(map[string]string)
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		id := de.Name()
		rec, err := readRecordFile(m.dir, id)
		if err != nil {
			m.warnf("recovery record %s is unreadable: %v", id, err)
			continue
		}
		content, err := Reconstruct(rec)
		if err != nil {
			m.warnf("recovery record %s conflicted: %v", id, err)
			continue
		}
		results[id] = content
	}
	return results, nil
}

func (m *Manager) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	m.log.Warn(msg)
	if m.warner != nil {
		m.warner.Warn(msg)
	}
}
