// Package filewatcher wraps fsnotify as one of the async bridge's
// concrete workers, started eagerly at editor start per the spec's
// Lifecycles section and reporting external file changes as
// WorkerToEditor status/error messages rather than a bespoke channel.
package filewatcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/dshills/quill/internal/worker"
)

// Errors mirroring the teacher's watcher package (see
// internal/project/watcher/watcher.go), trimmed to what this worker
// still needs now that debounce and ignore-pattern matching live
// outside its scope.
var (
	ErrAlreadyWatching = errors.New("filewatcher: path is already being watched")
	ErrNotWatching     = errors.New("filewatcher: path is not being watched")
)

// Watcher bridges an fsnotify.Watcher onto a worker.Handle.
type Watcher struct {
	fsw    *fsnotify.Watcher
	handle *worker.Handle
	log    *logrus.Entry

	paths map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// Start creates a fresh fsnotify watcher and begins bridging its events
// onto a new worker.Handle, which it returns alongside the Watcher.
func Start(opts ...worker.Option) (*Watcher, *worker.Handle, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("filewatcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		fsw:    fsw,
		handle: worker.NewHandle("filewatcher", opts...),
		log:    logrus.WithField("worker", "filewatcher"),
		paths:  make(map[string]struct{}),
		ctx:    ctx,
		cancel: cancel,
	}

	go w.controlLoop()
	go w.eventLoop()

	return w, w.handle, nil
}

// Handle returns the worker.Handle the editor loop talks to.
func (w *Watcher) Handle() *worker.Handle { return w.handle }

// Watch starts watching path. Editor-side callers should route this
// through Handle.TrySend(Message{Kind: KindDidOpen, URI: path}) rather
// than calling Watch directly, to stay on the same async bridge every
// other worker uses; Watch itself is exported for tests and for direct
// callers that bypass the bridge.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, ok := w.paths[abs]; ok {
		return ErrAlreadyWatching
	}
	if err := w.fsw.Add(abs); err != nil {
		return err
	}
	w.paths[abs] = struct{}{}
	return nil
}

// Unwatch stops watching path.
func (w *Watcher) Unwatch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, ok := w.paths[abs]; !ok {
		return ErrNotWatching
	}
	if err := w.fsw.Remove(abs); err != nil {
		return err
	}
	delete(w.paths, abs)
	return nil
}

// controlLoop drains EditorToWorker messages: did-open carries a path to
// watch, shutdown tears the watcher down; every other kind, did-change
// included, is ignored.
func (w *Watcher) controlLoop() {
	for {
		msg, ok := w.handle.Outbound(w.ctx)
		if !ok {
			return
		}
		switch msg.Kind {
		case worker.KindDidOpen:
			if err := w.Watch(msg.URI); err != nil && !errors.Is(err, ErrAlreadyWatching) {
				w.handle.Deliver(w.ctx, worker.Message{Kind: worker.KindError, URI: msg.URI, Msg: err.Error()})
			}
		case worker.KindShutdown:
			w.stop()
			return
		case worker.KindCancel:
			// File watches have no in-flight request to cancel.
		}
	}
}

// eventLoop translates fsnotify events into WorkerToEditor messages.
func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle.Deliver(w.ctx, worker.Message{
				Kind: worker.KindStatus,
				URI:  ev.Name,
				Msg:  ev.Op.String(),
			})
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.handle.Deliver(w.ctx, worker.Message{Kind: worker.KindError, Msg: err.Error()})
		}
	}
}

func (w *Watcher) stop() {
	w.cancel()
	if err := w.fsw.Close(); err != nil {
		w.log.WithError(err).Warn("error closing fsnotify watcher")
	}
}
