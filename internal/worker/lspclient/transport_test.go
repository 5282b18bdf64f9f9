package lspclient

import (
	"bytes"
	"testing"
)

func TestWriteMessageThenReadMessageRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := writeMessage(&buf, rpcRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"}); err != nil {
		t.Fatalf("writeMessage() error = %v", err)
	}

	wr := newWireReader(&buf)
	raw, err := wr.readMessage()
	if err != nil {
		t.Fatalf("readMessage() error = %v", err)
	}
	if !bytes.Contains(raw, []byte(`"method":"initialize"`)) {
		t.Errorf("raw = %s, want it to contain the method name", raw)
	}
}

func TestReadMessageRejectsMissingContentLength(t *testing.T) {
	wr := newWireReader(bytes.NewBufferString("\r\n{}"))
	if _, err := wr.readMessage(); err == nil {
		t.Error("readMessage() should fail without a Content-Length header")
	}
}

func TestRPCErrorFormatsMessage(t *testing.T) {
	err := &RPCError{Code: -32601, Message: "method not found"}
	if got := err.Error(); got == "" {
		t.Error("RPCError.Error() should not be empty")
	}
}
