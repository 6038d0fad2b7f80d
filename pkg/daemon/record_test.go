package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/binkshq/binks/pkg/config"
)

func TestRecordLifecycleTransitions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req mockJSONRPCRequest
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		switch req.Method {
		case "initialize":
			json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": map[string]any{}})
		case "tools/list":
			json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": map[string]any{"tools": []any{}}})
		}
	}))
	defer server.Close()

	rec := newRecord("x", config.CapabilityServerConfig{ServerURL: server.URL}, time.Second, time.Second)

	state, _, _, _ := rec.snapshot()
	if state != StateIdle {
		t.Fatalf("expected initial state idle, got %v", state)
	}

	if _, err := rec.ListTools(context.Background()); err != nil {
		t.Fatalf("ListTools() = %v", err)
	}
	state, startedAt, _, _ := rec.snapshot()
	if state != StateRunning {
		t.Fatalf("expected running after successful discovery, got %v", state)
	}
	if startedAt.IsZero() {
		t.Fatal("expected startedAt to be set")
	}

	if err := rec.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() = %v", err)
	}
	state, _, _, toolCount := rec.snapshot()
	if state != StateIdle {
		t.Fatalf("expected idle after refresh, got %v", state)
	}
	if toolCount != 0 {
		t.Fatalf("expected tool cache cleared after refresh, got %d", toolCount)
	}
}

func TestRecordFailedStartup(t *testing.T) {
	rec := newRecord("broken", config.CapabilityServerConfig{Command: "/nonexistent/binary/that/does/not/exist"}, 200*time.Millisecond, time.Second)

	_, err := rec.ListTools(context.Background())
	if err == nil {
		t.Fatal("expected an error spawning a nonexistent binary")
	}
	state, _, _, _ := rec.snapshot()
	if state != StateFailed {
		t.Fatalf("expected failed state, got %v", state)
	}
}

func TestRecordSerializesConcurrentCalls(t *testing.T) {
	var mu sync.Mutex
	var order []int
	callCount := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req mockJSONRPCRequest
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		switch req.Method {
		case "initialize":
			json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": map[string]any{}})
		case "tools/call":
			mu.Lock()
			callCount++
			n := callCount
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": map[string]any{
				"content": []any{map[string]any{"type": "text", "text": "ok"}},
			}})
		}
	}))
	defer server.Close()

	rec := newRecord("x", config.CapabilityServerConfig{ServerURL: server.URL}, time.Second, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := rec.CallTool(context.Background(), "noop", map[string]any{}); err != nil {
				t.Errorf("CallTool() = %v", err)
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 5 {
		t.Fatalf("expected 5 serialized calls to complete, got %d", len(order))
	}
}
