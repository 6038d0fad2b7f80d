package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/binkshq/binks/pkg/config"
)

type mockJSONRPCRequest struct {
	Method string `json:"method"`
	ID     any    `json:"id"`
}

func newMockCapabilityServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req mockJSONRPCRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		switch req.Method {
		case "initialize":
			json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": map[string]any{}})
		case "tools/list":
			json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": map[string]any{
				"tools": []any{
					map[string]any{"name": "echo", "description": "echoes input", "inputSchema": map[string]any{"type": "object"}},
				},
			}})
		case "tools/call":
			json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": map[string]any{
				"content": []any{map[string]any{"type": "text", "text": "echoed"}},
			}})
		default:
			t.Fatalf("unexpected method %q", req.Method)
		}
	}))
}

func startTestDaemon(t *testing.T, manifest *config.CapabilityManifest) (*Daemon, *Client, string) {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "mcps.sock")

	d := New(Options{Manifest: manifest, SocketPath: socketPath})
	if err := d.Listen(); err != nil {
		t.Fatalf("Listen() = %v", err)
	}
	go d.Serve(context.Background())

	client := NewClient(socketPath)
	deadline := time.Now().Add(2 * time.Second)
	for !client.Ping(context.Background()) {
		if time.Now().After(deadline) {
			t.Fatal("daemon never became reachable")
		}
		time.Sleep(10 * time.Millisecond)
	}

	return d, client, socketPath
}

func TestDaemonPingListCallStatus(t *testing.T) {
	mock := newMockCapabilityServer(t)
	defer mock.Close()

	manifest := &config.CapabilityManifest{MCPServers: map[string]config.CapabilityServerConfig{
		"echoer": {ServerURL: mock.URL},
	}}

	d, client, _ := startTestDaemon(t, manifest)
	defer d.Close()

	ctx := context.Background()

	tools, err := client.ListTools(ctx, "echoer")
	if err != nil {
		t.Fatalf("ListTools() = %v", err)
	}
	if len(tools) != 1 || tools[0].Name != "echo" {
		t.Fatalf("ListTools() = %+v", tools)
	}

	result, err := client.CallTool(ctx, "echoer", "echo", map[string]any{"x": 1})
	if err != nil {
		t.Fatalf("CallTool() = %v", err)
	}
	if result.Text() != "echoed" {
		t.Fatalf("CallTool() = %+v", result)
	}

	statuses, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status() = %v", err)
	}
	if len(statuses) != 1 || statuses[0].Name != "echoer" || statuses[0].State != StateRunning {
		t.Fatalf("Status() = %+v", statuses)
	}
}

func TestDaemonListAllToolsFanout(t *testing.T) {
	mockA := newMockCapabilityServer(t)
	defer mockA.Close()
	mockB := newMockCapabilityServer(t)
	defer mockB.Close()

	manifest := &config.CapabilityManifest{MCPServers: map[string]config.CapabilityServerConfig{
		"a": {ServerURL: mockA.URL},
		"b": {ServerURL: mockB.URL},
	}}

	d, client, _ := startTestDaemon(t, manifest)
	defer d.Close()

	tools, err := client.ListAllTools(context.Background())
	if err != nil {
		t.Fatalf("ListAllTools() = %v", err)
	}
	if len(tools) != 2 {
		t.Fatalf("ListAllTools() = %+v, want 2 tools across both servers", tools)
	}
}

func TestDaemonRefreshServerReturnsToIdle(t *testing.T) {
	mock := newMockCapabilityServer(t)
	defer mock.Close()

	manifest := &config.CapabilityManifest{MCPServers: map[string]config.CapabilityServerConfig{
		"echoer": {ServerURL: mock.URL},
	}}

	d, client, _ := startTestDaemon(t, manifest)
	defer d.Close()

	ctx := context.Background()
	if _, err := client.ListTools(ctx, "echoer"); err != nil {
		t.Fatalf("ListTools() = %v", err)
	}

	if err := client.RefreshServer(ctx, "echoer"); err != nil {
		t.Fatalf("RefreshServer() = %v", err)
	}

	statuses, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status() = %v", err)
	}
	if statuses[0].State != StateIdle {
		t.Fatalf("expected idle after refresh, got %v", statuses[0].State)
	}
}

func TestDaemonUnknownServerIsNotFoundError(t *testing.T) {
	manifest := &config.CapabilityManifest{MCPServers: map[string]config.CapabilityServerConfig{}}
	d, client, _ := startTestDaemon(t, manifest)
	defer d.Close()

	_, err := client.ListTools(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for unknown server")
	}
}

func TestDaemonShutdownRemovesSocketAndStopsServing(t *testing.T) {
	manifest := &config.CapabilityManifest{MCPServers: map[string]config.CapabilityServerConfig{}}
	d, client, socketPath := startTestDaemon(t, manifest)

	if err := client.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for IsRunning(socketPath, 100*time.Millisecond) {
		if time.Now().After(deadline) {
			t.Fatal("daemon still reachable after shutdown")
		}
		time.Sleep(10 * time.Millisecond)
	}
	_ = d
}
