package pluginhost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/quill/internal/worker"
)

// DefaultExecutionTimeout bounds a single dispatch into the plugin's Lua
// callback. gopher-lua can't be interrupted mid-instruction, so this is
// best-effort: it bounds how long the host *waits* for a call running on
// its own goroutine, not the Lua VM's actual execution.
const DefaultExecutionTimeout = 5 * time.Second

// ErrTimeout is returned by callOnEvent when a plugin callback doesn't
// return within the host's execution timeout.
var ErrTimeout = errors.New("pluginhost: execution timed out")

// Host runs one plugin's Lua VM, lazily started on first dispatched
// message, and bridges it onto a worker.Handle the same way lspclient
// and filewatcher do. Grounded on the teacher's internal/plugin/lua
// State: base/table/string/math libraries only, io/os/debug/package
// withheld so a plugin cannot reach outside its sandbox.
type Host struct {
	manifest *Manifest
	handle   *worker.Handle
	timeout  time.Duration

	state   *lua.LState
	started bool

	ctx    context.Context
	cancel context.CancelFunc
}

// Start creates a Host for the plugin described by manifest and begins
// bridging its messages onto a new worker.Handle, which it returns. The
// Lua VM itself is not created until the first EditorToWorker message
// arrives.
func Start(manifest *Manifest, opts ...worker.Option) (*Host, *worker.Handle, error) {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Host{
		manifest: manifest,
		handle:   worker.NewHandle(manifest.Name, opts...),
		timeout:  DefaultExecutionTimeout,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.controlLoop()
	return h, h.handle, nil
}

// Handle returns the worker.Handle the editor loop talks to.
func (h *Host) Handle() *worker.Handle { return h.handle }

func (h *Host) controlLoop() {
	for {
		msg, ok := h.handle.Outbound(h.ctx)
		if !ok {
			return
		}
		if msg.Kind == worker.KindShutdown {
			h.teardown()
			return
		}
		h.dispatch(msg)
	}
}

func (h *Host) dispatch(msg worker.Message) {
	if !h.started {
		if err := h.load(); err != nil {
			h.handle.MarkDied(err.Error())
			return
		}
	}

	result, callErr := h.callOnEvent(msg)
	if errors.Is(callErr, ErrTimeout) {
		// The abandoned goroutine is still touching the LState; treat the
		// plugin as unhealthy rather than risk a second concurrent call
		// into a VM gopher-lua never promised was goroutine-safe.
		h.handle.MarkDied(callErr.Error())
		return
	}

	switch msg.Kind {
	case worker.KindRequest:
		resp := worker.Message{Kind: worker.KindResponse, RequestID: msg.RequestID}
		if callErr != nil {
			resp.Err = callErr
		} else {
			resp.Result = result
		}
		h.handle.Deliver(h.ctx, resp)
	case worker.KindInitialize:
		if callErr != nil {
			h.handle.Deliver(h.ctx, worker.Message{Kind: worker.KindError, Msg: callErr.Error()})
			return
		}
		h.handle.Deliver(h.ctx, worker.Message{Kind: worker.KindInitialized})
	default:
		if callErr != nil {
			h.handle.Deliver(h.ctx, worker.Message{Kind: worker.KindError, Msg: callErr.Error()})
		}
	}
}

// load creates the sandboxed Lua state and runs the plugin's entry
// file, the way internal/plugin/lua.State.NewState opens only base,
// table, string, and math, leaving io/os/debug/package closed.
func (h *Host) load() error {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	if err := L.DoFile(h.manifest.EntryPath()); err != nil {
		L.Close()
		return fmt.Errorf("pluginhost: load %s: %w", h.manifest.Name, err)
	}

	h.state = L
	h.started = true
	return nil
}

// callOnEvent invokes the plugin's global on_event(method, params_json)
// function, passing the request/notification's method and JSON-encoded
// params and expecting a JSON-encodable return value (or nil).
func (h *Host) callOnEvent(msg worker.Message) (json.RawMessage, error) {
	fn := h.state.GetGlobal("on_event")
	if fn.Type() != lua.LTFunction {
		return nil, nil
	}

	paramsJSON := "null"
	if msg.Params != nil {
		if b, err := json.Marshal(msg.Params); err == nil {
			paramsJSON = string(b)
		}
	}

	done := make(chan error, 1)
	var retJSON string
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("pluginhost: plugin panicked: %v", r)
			}
		}()
		if err := h.state.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LString(msg.Method), lua.LString(paramsJSON)); err != nil {
			done <- err
			return
		}
		ret := h.state.Get(-1)
		h.state.Pop(1)
		if s, ok := ret.(lua.LString); ok {
			retJSON = string(s)
		}
		done <- nil
	}()

	select {
	case err := <-done:
		if err != nil {
			return nil, err
		}
		if retJSON == "" {
			return nil, nil
		}
		return json.RawMessage(retJSON), nil
	case <-time.After(h.timeout):
		// The Lua call above keeps running in its goroutine; gopher-lua
		// offers no interrupt, so a timeout here only abandons the wait,
		// it doesn't stop the VM. A plugin that times out once should be
		// treated as unhealthy by the caller (MarkDied) rather than
		// dispatched to again.
		return nil, fmt.Errorf("%w: %s handling %s", ErrTimeout, h.manifest.Name, msg.Method)
	}
}

func (h *Host) teardown() {
	h.cancel()
	if h.state != nil {
		h.state.Close()
	}
}
