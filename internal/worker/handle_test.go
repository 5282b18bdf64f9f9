package worker

import (
	"context"
	"testing"
	"time"
)

func TestTrySendEvictsOldestNonCritical(t *testing.T) {
	h := NewHandle("test", WithCapacity(2))

	h.TrySend(Message{Kind: KindRequest, Method: "hover"})
	h.TrySend(Message{Kind: KindRequest, Method: "definition"})
	// Queue full; "hover" is non-critical and should be evicted to make
	// room for this one.
	h.TrySend(Message{Kind: KindDidChange})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var methods []string
	for i := 0; i < 2; i++ {
		msg, ok := h.Outbound(ctx)
		if !ok {
			t.Fatalf("Outbound() returned false on message %d", i)
		}
		methods = append(methods, msg.Method)
		if msg.Kind == KindDidChange {
			methods[len(methods)-1] = "didchange"
		}
	}

	for _, m := range methods {
		if m == "hover" {
			t.Errorf("hover request should have been evicted, got methods=%v", methods)
		}
	}
}

func TestSendRequestRoutesMatchingResponse(t *testing.T) {
	h := NewHandle("test")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan Message, 1)
	go func() {
		msg, _ := h.Outbound(ctx)
		h.RouteResponse(Message{Kind: KindResponse, RequestID: msg.RequestID, Result: []byte(`"ok"`)})
	}()

	resp, err := h.SendRequest(ctx, "definition", nil)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	done <- resp
	if string((<-done).Result) != `"ok"` {
		t.Errorf("Result = %s, want \"ok\"", resp.Result)
	}
}

func TestSendRequestTimesOut(t *testing.T) {
	h := NewHandle("test", WithTimeout("slow", 10*time.Millisecond))

	// Nobody ever calls Outbound/RouteResponse, so the request should
	// time out rather than hang.
	_, err := h.SendRequest(context.Background(), "slow", nil)
	if err != ErrTimeout {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestSendRequestCancelledByContext(t *testing.T) {
	h := NewHandle("test")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.SendRequest(ctx, "definition", nil)
	if err != ErrCancelled {
		t.Errorf("err = %v, want ErrCancelled", err)
	}

	// Both the original request and the follow-up cancel should have
	// been enqueued, in that order.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), time.Second)
	defer drainCancel()
	first, ok := h.Outbound(drainCtx)
	if !ok || first.Kind != KindRequest {
		t.Fatalf("first message = %+v ok=%v, want KindRequest", first, ok)
	}
	second, ok := h.Outbound(drainCtx)
	if !ok || second.Kind != KindCancel {
		t.Errorf("second message = %+v ok=%v, want KindCancel", second, ok)
	}
}

func TestSendRequestFailsFastAfterDied(t *testing.T) {
	h := NewHandle("test")
	h.MarkDied("process exited")

	_, err := h.SendRequest(context.Background(), "definition", nil)
	if !IsDied(err) {
		t.Errorf("err = %v, want a *DiedError", err)
	}
}

func TestDrainResponsesRoutesAndReturnsRest(t *testing.T) {
	h := NewHandle("test")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	slotReady := make(chan string, 1)
	go func() {
		msg, _ := h.Outbound(ctx)
		slotReady <- msg.RequestID
	}()

	resultCh := make(chan error, 1)
	go func() {
		_, err := h.SendRequest(ctx, "definition", nil)
		resultCh <- err
	}()

	id := <-slotReady
	h.Deliver(ctx, Message{Kind: KindResponse, RequestID: id})
	h.Deliver(ctx, Message{Kind: KindStatus, Msg: "indexing"})

	rest := h.DrainResponses()
	if len(rest) != 1 || rest[0].Kind != KindStatus {
		t.Errorf("DrainResponses() = %+v, want one KindStatus message", rest)
	}
	if err := <-resultCh; err != nil {
		t.Errorf("SendRequest() error = %v", err)
	}
}

func TestRegistryDrainAll(t *testing.T) {
	reg := NewRegistry()
	h1 := NewHandle("lsp-go")
	h2 := NewHandle("filewatcher")
	reg.Put("lsp-go", h1)
	reg.Put("filewatcher", h2)

	ctx := context.Background()
	h1.Deliver(ctx, Message{Kind: KindStatus, Msg: "ready"})

	out := reg.DrainAll()
	if len(out["lsp-go"]) != 1 {
		t.Errorf("DrainAll()[lsp-go] = %v, want 1 message", out["lsp-go"])
	}
	if _, ok := out["filewatcher"]; ok {
		t.Error("filewatcher had no messages and should be absent from DrainAll's result")
	}
}
