// Package worker implements the async bridge between the single-threaded
// editor loop and background workers: language-server clients, the plugin
// host, and the file watcher.
package worker

import "encoding/json"

// Direction distinguishes the two message sums a bridge carries.
type Direction int

const (
	// DirEditorToWorker tags a message the editor loop sends a worker.
	DirEditorToWorker Direction = iota
	// DirWorkerToEditor tags a message a worker sends the editor loop.
	DirWorkerToEditor
)

// Kind enumerates the EditorToWorker/WorkerToEditor message taxonomy.
type Kind int

const (
	// EditorToWorker kinds.
	KindInitialize Kind = iota
	KindDidOpen
	KindDidChange
	KindShutdown
	KindCancel
	KindRequest

	// WorkerToEditor kinds.
	KindInitialized
	KindDiagnostics
	KindResponse
	KindStatus
	KindError
)

// Diagnostic is one item of a WorkerToEditor diagnostics message.
type Diagnostic struct {
	Severity string
	Message  string
	Line     uint32
	Column   uint32
}

// Message is the single envelope type that flows over a bridge's request
// and response channels in both directions. Only the fields relevant to
// Kind are populated; this mirrors the teacher's JSON-RPC Request/Response
// pair (see lspclient) generalized to cover non-RPC workers too.
type Message struct {
	Dir       Direction
	Kind      Kind
	RequestID string // set for Request/Cancel/Response; empty otherwise

	URI    string
	Method string
	Params any
	Result json.RawMessage
	Err    error

	Diagnostics []Diagnostic
	Text        string // DidOpen/DidChange payload
	Msg         string // Status/Error human text
}

// IsCritical reports whether the message must never be silently dropped
// under backpressure. Only hover-style best-effort requests are
// non-critical; everything else (opens, changes, shutdown, cancellation,
// and the worker's own outgoing messages) is preserved.
func (m Message) IsCritical() bool {
	if m.Dir == DirWorkerToEditor {
		return true
	}
	switch m.Kind {
	case KindDidOpen, KindDidChange, KindShutdown, KindCancel, KindInitialize:
		return true
	case KindRequest:
		return m.Method != "hover"
	default:
		return true
	}
}
