package pluginhost

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/quill/internal/worker"
)

func writePlugin(t *testing.T, dir, luaBody string) string {
	t.Helper()
	manifestPath := filepath.Join(dir, "plugin.yaml")
	manifest := "name: greeter\nversion: \"1.0.0\"\nmain: init.lua\ncapabilities: [\"commands\"]\n"
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "init.lua"), []byte(luaBody), 0o644); err != nil {
		t.Fatalf("write init.lua: %v", err)
	}
	return manifestPath
}

func TestHostDispatchesRequestToOnEvent(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writePlugin(t, dir, `
function on_event(method, params_json)
  return '{"echo":"` + `ok` + `"}'
end
`)

	m, err := LoadManifest(manifestPath)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}

	h, handle, err := Start(m)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.teardown()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := handle.SendRequest(ctx, "doThing", nil)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	if string(resp.Result) != `{"echo":"ok"}` {
		t.Errorf("Result = %s, want {\"echo\":\"ok\"}", resp.Result)
	}
}

func TestHostSurfacesInitializeFailure(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writePlugin(t, dir, `this is not valid lua (`)

	m, err := LoadManifest(manifestPath)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}

	h, handle, err := Start(m)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.teardown()

	handle.TrySend(worker.Message{Kind: worker.KindInitialize})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			t.Fatal("timed out waiting for the plugin to report a load failure")
		default:
		}
		if handle.Died() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestManifestDefaultsMainEntry(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "plugin.yaml")
	if err := os.WriteFile(manifestPath, []byte("name: bare\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	m, err := LoadManifest(manifestPath)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if m.Main != "init.lua" {
		t.Errorf("Main = %q, want \"init.lua\"", m.Main)
	}
	if m.HasCapability("commands") {
		t.Error("bare manifest should declare no capabilities")
	}
}
