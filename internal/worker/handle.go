package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultChannelCapacity = 100

// DefaultRequestTimeout is used for any method with no per-type timeout
// registered via WithTimeout.
const DefaultRequestTimeout = 10 * time.Second

// Option configures a Handle at construction.
type Option func(*Handle)

// WithCapacity overrides the default bounded channel capacity (100, per
// spec.md §4.5) for both the outbound request queue and the inbound
// response channel.
func WithCapacity(n int) Option {
	return func(h *Handle) { h.capacity = n }
}

// WithTimeout registers a per-method request timeout, overriding
// DefaultRequestTimeout for that method only.
func WithTimeout(method string, d time.Duration) Option {
	return func(h *Handle) { h.timeouts[method] = d }
}

// WithLogger overrides the handle's logger.
func WithLogger(log *logrus.Entry) Option {
	return func(h *Handle) { h.log = log }
}

// Handle is one worker's side of the async bridge: a bounded request
// queue the editor feeds, a bounded response channel the editor drains
// every frame, and a correlation map from request-id to the one-shot
// slot a caller of SendRequest is waiting on. It implements the generic
// transport spec.md §4.5 describes; lspclient, filewatcher, and
// pluginhost each run their own goroutine pulling from Outbound and
// pushing into the response channel via Deliver.
type Handle struct {
	name     string
	capacity int
	timeouts map[string]time.Duration

	out *reqQueue
	in  chan Message

	mu      sync.Mutex
	pending map[string]chan Message

	died   atomic.Bool
	reason atomic.Value // string

	log *logrus.Entry
}

// NewHandle creates a Handle for a worker named name. name is used only
// for logging and DiedError; it need not be unique across handles unless
// the caller also uses a Registry.
func NewHandle(name string, opts ...Option) *Handle {
	h := &Handle{
		name:     name,
		capacity: defaultChannelCapacity,
		timeouts: make(map[string]time.Duration),
		pending:  make(map[string]chan Message),
		log:      logrus.WithField("worker", name),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.out = newReqQueue(h.capacity)
	h.in = make(chan Message, h.capacity)
	return h
}

// Name reports the worker's name.
func (h *Handle) Name() string { return h.name }

// TrySend enqueues an EditorToWorker message without blocking, per
// spec.md §4.5's backpressure policy: if the outbound queue is full the
// oldest non-critical entry (or, failing that, msg itself) is dropped
// and a warning is logged.
func (h *Handle) TrySend(msg Message) {
	if h.died.Load() {
		h.log.WithField("kind", msg.Kind).Warn("dropped message: worker is dead")
		return
	}
	msg.Dir = DirEditorToWorker
	if dropped := h.out.trySend(msg); dropped != nil {
		h.log.WithFields(logrus.Fields{
			"dropped_kind":   dropped.Kind,
			"dropped_method": dropped.Method,
		}).Warn("dropped request under backpressure")
	}
}

// Outbound blocks until an EditorToWorker message is available or ctx is
// done. The concrete worker implementation calls this in its own
// goroutine to pull work.
func (h *Handle) Outbound(ctx context.Context) (Message, bool) {
	return h.out.pop(ctx)
}

// Deliver pushes a WorkerToEditor message toward the editor. It blocks
// only as long as the response channel is full and the editor hasn't
// drained it yet; shutdown unblocks it immediately.
func (h *Handle) Deliver(ctx context.Context, msg Message) {
	msg.Dir = DirWorkerToEditor
	select {
	case h.in <- msg:
	case <-ctx.Done():
	}
}

// Responses exposes the inbound channel for the editor to range over
// once per frame before rendering.
func (h *Handle) Responses() <-chan Message { return h.in }

// SendRequest issues a request and blocks until a matching response
// arrives, ctx is cancelled, or the method's timeout elapses. It is the
// editor-side half of the correlation map: it registers a one-shot slot
// keyed by a fresh request-id before enqueueing the request, and the
// caller driving DrainResponses (or RouteResponse directly) is
// responsible for filling that slot when the matching response shows up.
func (h *Handle) SendRequest(ctx context.Context, method string, params any) (Message, error) {
	if h.died.Load() {
		reason, _ := h.reason.Load().(string)
		return Message{}, &DiedError{Name: h.name, Reason: reason}
	}

	id := uuid.NewString()
	slot := make(chan Message, 1)

	h.mu.Lock()
	h.pending[id] = slot
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.pending, id)
		h.mu.Unlock()
	}()

	h.TrySend(Message{Kind: KindRequest, RequestID: id, Method: method, Params: params})

	timeout := h.timeoutFor(method)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-slot:
		if resp.Err != nil {
			return resp, resp.Err
		}
		return resp, nil
	case <-ctx.Done():
		h.TrySend(Message{Kind: KindCancel, RequestID: id})
		return Message{}, ErrCancelled
	case <-timer.C:
		h.log.WithField("method", method).Warn("request timed out")
		return Message{}, ErrTimeout
	}
}

func (h *Handle) timeoutFor(method string) time.Duration {
	if d, ok := h.timeouts[method]; ok {
		return d
	}
	return DefaultRequestTimeout
}

// RouteResponse delivers msg (Kind == KindResponse) to its waiting
// SendRequest caller. Per spec.md §3's Async message invariant, a
// response whose request-id has no live slot is logged and discarded
// rather than treated as an error.
func (h *Handle) RouteResponse(msg Message) {
	h.mu.Lock()
	slot, ok := h.pending[msg.RequestID]
	if ok {
		delete(h.pending, msg.RequestID)
	}
	h.mu.Unlock()

	if !ok {
		h.log.WithField("request_id", msg.RequestID).Warn("discarded unmatched response")
		return
	}
	select {
	case slot <- msg:
	default:
	}
}

// DrainResponses removes every message currently queued in the response
// channel, routing Kind == KindResponse entries to their SendRequest
// caller and returning the rest (diagnostics, status, error,
// initialized) for the editor to handle. Call once per frame before
// rendering.
func (h *Handle) DrainResponses() []Message {
	var rest []Message
	for {
		select {
		case msg := <-h.in:
			if msg.Kind == KindResponse {
				h.RouteResponse(msg)
				continue
			}
			rest = append(rest, msg)
		default:
			return rest
		}
	}
}

// MarkDied records that the worker crashed. Every SendRequest issued
// afterward fails fast with a *DiedError until the handle is replaced by
// the supervising policy (outside this package's scope).
func (h *Handle) MarkDied(reason string) {
	h.reason.Store(reason)
	h.died.Store(true)
	h.log.WithField("reason", reason).Error("worker died")
}

// Died reports whether MarkDied has been called.
func (h *Handle) Died() bool { return h.died.Load() }

// Shutdown sends a KindShutdown message and waits up to deadline for the
// worker goroutine to acknowledge by closing ackCh. If the deadline
// elapses the worker is considered detached; the caller should not wait
// on it further.
func (h *Handle) Shutdown(deadline time.Duration, ackCh <-chan struct{}) error {
	h.TrySend(Message{Kind: KindShutdown})
	select {
	case <-ackCh:
		return nil
	case <-time.After(deadline):
		h.log.Warn("worker did not acknowledge shutdown within deadline; detaching")
		return ErrTimeout
	}
}
