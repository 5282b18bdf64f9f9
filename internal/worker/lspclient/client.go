package lspclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dshills/quill/internal/worker"
)

// Client runs one language server subprocess and bridges its JSON-RPC
// traffic onto a worker.Handle, following the teacher's
// internal/lsp/transport.go Call/pending-map shape but generalized to
// speak the bridge's EditorToWorker/WorkerToEditor message taxonomy
// instead of returning results directly to the caller.
type Client struct {
	name   string
	handle *worker.Handle
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	reader *wireReader
	log    *logrus.Entry

	nextID atomic.Int64

	mu      sync.Mutex
	wireIDs map[int64]string // JSON-RPC id -> worker.Message.RequestID

	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	exited   chan struct{}
	stopping atomic.Bool
}

// Start launches the language server named name via cmd (stdin/stdout
// must be pipes; Start configures them) and begins bridging its traffic
// to a fresh worker.Handle, which it returns.
func Start(name string, cmd *exec.Cmd, opts ...worker.Option) (*Client, *worker.Handle, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("lspclient: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("lspclient: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("lspclient: start %s: %w", name, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		name:    name,
		handle:  worker.NewHandle(name, opts...),
		cmd:     cmd,
		stdin:   stdin,
		reader:  newWireReader(stdout),
		log:     logrus.WithField("worker", name),
		wireIDs: make(map[int64]string),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
	}

	go c.dispatchLoop()
	go c.readLoop()
	go c.watchProcess()

	return c, c.handle, nil
}

// Handle returns the worker.Handle the editor loop talks to.
func (c *Client) Handle() *worker.Handle { return c.handle }

// dispatchLoop pulls EditorToWorker messages off the handle's outbound
// queue and turns each into a JSON-RPC request or notification over the
// subprocess's stdin. This is the "dedicated sender thread" spec.md
// §4.5 requires for blocking sends.
func (c *Client) dispatchLoop() {
	for {
		msg, ok := c.handle.Outbound(c.ctx)
		if !ok {
			return
		}
		if err := c.send(msg); err != nil {
			c.log.WithError(err).Warn("failed to send message to language server")
			c.die(err)
			return
		}
		if msg.Kind == worker.KindShutdown {
			return
		}
	}
}

func (c *Client) send(msg worker.Message) error {
	switch msg.Kind {
	case worker.KindInitialize:
		return writeMessage(c.stdin, rpcRequest{JSONRPC: "2.0", ID: c.nextWireID(msg.RequestID), Method: "initialize", Params: msg.Params})
	case worker.KindDidOpen:
		return writeMessage(c.stdin, rpcRequest{JSONRPC: "2.0", Method: "textDocument/didOpen", Params: msg.Params})
	case worker.KindDidChange:
		return writeMessage(c.stdin, rpcRequest{JSONRPC: "2.0", Method: "textDocument/didChange", Params: msg.Params})
	case worker.KindShutdown:
		return writeMessage(c.stdin, rpcRequest{JSONRPC: "2.0", ID: c.nextWireID(msg.RequestID), Method: "shutdown"})
	case worker.KindCancel:
		return writeMessage(c.stdin, rpcRequest{JSONRPC: "2.0", Method: "$/cancelRequest", Params: map[string]string{"id": msg.RequestID}})
	case worker.KindRequest:
		return writeMessage(c.stdin, rpcRequest{JSONRPC: "2.0", ID: c.nextWireID(msg.RequestID), Method: msg.Method, Params: msg.Params})
	default:
		return fmt.Errorf("lspclient: unhandled outbound kind %v", msg.Kind)
	}
}

func (c *Client) nextWireID(requestID string) int64 {
	id := c.nextID.Add(1)
	c.mu.Lock()
	c.wireIDs[id] = requestID
	c.mu.Unlock()
	return id
}

// readLoop reads JSON-RPC messages from the server and delivers them to
// the handle as WorkerToEditor messages.
func (c *Client) readLoop() {
	defer close(c.done)
	for {
		raw, err := c.reader.readMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
				return
			default:
			}
			if err == io.EOF {
				c.die(err)
				return
			}
			c.log.WithError(err).Warn("malformed message from language server")
			continue
		}
		c.route(raw)
	}
}

func (c *Client) route(raw json.RawMessage) {
	var probe struct {
		ID     *int64          `json:"id"`
		Method string          `json:"method"`
		Result json.RawMessage `json:"result"`
		Error  *RPCError       `json:"error"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		c.log.WithError(err).Warn("could not parse message from language server")
		return
	}

	if probe.ID != nil && (probe.Result != nil || probe.Error != nil) {
		c.mu.Lock()
		reqID, ok := c.wireIDs[*probe.ID]
		if ok {
			delete(c.wireIDs, *probe.ID)
		}
		c.mu.Unlock()
		if !ok {
			c.log.WithField("id", *probe.ID).Warn("discarded unmatched response")
			return
		}
		msg := worker.Message{Kind: worker.KindResponse, RequestID: reqID, Result: probe.Result}
		if probe.Error != nil {
			msg.Err = probe.Error
		}
		c.handle.Deliver(c.ctx, msg)
		return
	}

	if probe.Method == "textDocument/publishDiagnostics" {
		var params struct {
			URI         string `json:"uri"`
			Diagnostics []struct {
				Severity int    `json:"severity"`
				Message  string `json:"message"`
				Range    struct {
					Start struct {
						Line      uint32 `json:"line"`
						Character uint32 `json:"character"`
					} `json:"start"`
				} `json:"range"`
			} `json:"diagnostics"`
		}
		var notif rpcNotification
		if err := json.Unmarshal(raw, &notif); err == nil {
			_ = json.Unmarshal(notif.Params, &params)
		}
		diags := make([]worker.Diagnostic, 0, len(params.Diagnostics))
		for _, d := range params.Diagnostics {
			diags = append(diags, worker.Diagnostic{
				Severity: severityName(d.Severity),
				Message:  d.Message,
				Line:     d.Range.Start.Line,
				Column:   d.Range.Start.Character,
			})
		}
		c.handle.Deliver(c.ctx, worker.Message{Kind: worker.KindDiagnostics, URI: params.URI, Diagnostics: diags})
		return
	}

	if probe.Method != "" {
		c.handle.Deliver(c.ctx, worker.Message{Kind: worker.KindStatus, Msg: probe.Method})
	}
}

func severityName(n int) string {
	switch n {
	case 1:
		return "error"
	case 2:
		return "warning"
	case 3:
		return "information"
	case 4:
		return "hint"
	default:
		return "unknown"
	}
}

// watchProcess is the single owner of cmd.Wait (os/exec permits calling
// it exactly once). It waits for the subprocess to exit and, if that
// happens before a clean Stop, marks the handle died per spec.md §4.5's
// failure semantics.
func (c *Client) watchProcess() {
	err := c.cmd.Wait()
	close(c.exited)
	if c.stopping.Load() {
		return
	}
	reason := "exited"
	if err != nil {
		reason = err.Error()
	}
	c.die(fmt.Errorf("%s", reason))
}

func (c *Client) die(err error) {
	c.handle.MarkDied(err.Error())
	c.cancel()
}

// Stop sends shutdown, waits up to deadline for the subprocess to exit
// cleanly, and kills it otherwise.
func (c *Client) Stop(deadline time.Duration) error {
	c.stopping.Store(true)
	c.handle.TrySend(worker.Message{Kind: worker.KindShutdown})

	select {
	case <-c.exited:
		c.cancel()
		return nil
	case <-time.After(deadline):
		c.log.Warn("language server did not exit within deadline; killing")
		_ = c.cmd.Process.Kill()
		<-c.exited
		c.cancel()
		return worker.ErrTimeout
	}
}
