package pool

import (
	"context"
	"errors"
	"testing"

	"github.com/binkshq/binks/pkg/capability"
	"github.com/binkshq/binks/pkg/config"
	"github.com/binkshq/binks/pkg/cp"
)

type fakeEmbedded struct {
	name    string
	tools   []cp.ToolDescriptor
	results map[string]cp.ToolResult
	errs    map[string]error
	calls   int
}

func (f *fakeEmbedded) ServerName() string            { return f.name }
func (f *fakeEmbedded) ListTools() []cp.ToolDescriptor { f.calls++; return f.tools }
func (f *fakeEmbedded) Call(name string, args map[string]any) (cp.ToolResult, error) {
	if err, ok := f.errs[name]; ok {
		return cp.ToolResult{}, err
	}
	return f.results[name], nil
}

type fakeDaemon struct {
	up    bool
	tools []cp.ToolDescriptor
}

func (d *fakeDaemon) Ping(ctx context.Context) bool { return d.up }
func (d *fakeDaemon) ListTools(ctx context.Context, server string) ([]cp.ToolDescriptor, error) {
	return d.tools, nil
}
func (d *fakeDaemon) ListAllTools(ctx context.Context) ([]cp.ToolDescriptor, error) {
	return d.tools, nil
}
func (d *fakeDaemon) CallTool(ctx context.Context, server, tool string, args map[string]any) (cp.ToolResult, error) {
	return cp.ToolResult{Content: []cp.ContentPart{{Type: "text", Text: "daemon"}}}, nil
}

func TestPoolListToolsFromCachesAndSanitises(t *testing.T) {
	embedded := capability.NewRegistry()
	srv := &fakeEmbedded{
		name: "fs",
		tools: []cp.ToolDescriptor{
			{Name: "read", InputSchema: map[string]any{"$schema": "x", "type": "object"}},
		},
		results: map[string]cp.ToolResult{},
		errs:    map[string]error{},
	}
	embedded.Register(srv)

	p := New(Options{
		Manifest: &config.CapabilityManifest{MCPServers: map[string]config.CapabilityServerConfig{
			"fs": {Command: "unused"},
		}},
		Embedded: embedded,
	})

	if p.HasCachedTools("fs") {
		t.Fatal("expected no cached tools before first call")
	}

	tools, err := p.ListToolsFrom(context.Background(), "fs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tools) != 1 || tools[0].Name != "read" {
		t.Fatalf("unexpected tools: %+v", tools)
	}
	if _, denied := tools[0].InputSchema["$schema"]; denied {
		t.Fatal("expected $schema stripped by sanitisation")
	}
	if tools[0].ServerID != "fs" {
		t.Fatalf("expected ServerID stamped, got %q", tools[0].ServerID)
	}

	if !p.HasCachedTools("fs") {
		t.Fatal("expected tools cached after first call")
	}

	if _, err := p.ListToolsFrom(context.Background(), "fs"); err != nil {
		t.Fatalf("unexpected error on cached call: %v", err)
	}
	if srv.calls != 1 {
		t.Fatalf("expected discovery called once (memoised), got %d calls", srv.calls)
	}

	p.ClearCache()
	if p.HasCachedTools("fs") {
		t.Fatal("expected cache cleared")
	}
}

func TestPoolListAllToolsSkipsInternalAndPreservesOrder(t *testing.T) {
	embedded := capability.NewRegistry()
	embedded.Register(&fakeEmbedded{name: "alpha", tools: []cp.ToolDescriptor{{Name: "a1"}}})
	embedded.Register(&fakeEmbedded{name: "beta", tools: []cp.ToolDescriptor{{Name: "b1"}}})
	embedded.Register(&fakeEmbedded{name: "internal-only", tools: []cp.ToolDescriptor{{Name: "secret"}}})

	p := New(Options{
		Manifest: &config.CapabilityManifest{MCPServers: map[string]config.CapabilityServerConfig{
			"alpha":         {Command: "unused"},
			"beta":          {Command: "unused"},
			"internal-only": {Command: "unused", Internal: true},
		}},
		Embedded: embedded,
	})

	all, err := p.ListAllTools(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected internal server excluded, got %+v", all)
	}
	if all[0].ServerID != "alpha" || all[1].ServerID != "beta" {
		t.Fatalf("expected insertion (sorted) order alpha,beta, got %v, %v", all[0].ServerID, all[1].ServerID)
	}
}

func TestPoolCallToolNotFound(t *testing.T) {
	p := New(Options{Manifest: &config.CapabilityManifest{MCPServers: map[string]config.CapabilityServerConfig{}}})

	_, err := p.CallTool(context.Background(), "missing", "whatever", map[string]any{})
	var poolErr *Error
	if !errors.As(err, &poolErr) || poolErr.Kind != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPoolCallToolReportedError(t *testing.T) {
	embedded := capability.NewRegistry()
	embedded.Register(&fakeEmbedded{
		name: "fs",
		results: map[string]cp.ToolResult{
			"read": {IsError: true, Content: []cp.ContentPart{{Type: "text", Text: "boom"}}},
		},
		errs: map[string]error{},
	})

	p := New(Options{
		Manifest: &config.CapabilityManifest{MCPServers: map[string]config.CapabilityServerConfig{
			"fs": {Command: "unused"},
		}},
		Embedded: embedded,
	})

	_, err := p.CallTool(context.Background(), "fs", "read", map[string]any{})
	var poolErr *Error
	if !errors.As(err, &poolErr) || poolErr.Kind != ErrToolReportedError {
		t.Fatalf("expected ErrToolReportedError, got %v", err)
	}
}

func TestPoolCallToolRoutesThroughDaemonWhenReachable(t *testing.T) {
	daemon := &fakeDaemon{up: true}
	p := New(Options{
		Manifest: &config.CapabilityManifest{MCPServers: map[string]config.CapabilityServerConfig{
			"fs": {Command: "unused"},
		}},
		Daemon: daemon,
	})

	result, err := p.CallTool(context.Background(), "fs", "read", map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text() != "daemon" {
		t.Fatalf("expected call routed through daemon, got %q", result.Text())
	}
}

func TestPoolCallToolEmbeddedSuccess(t *testing.T) {
	embedded := capability.NewRegistry()
	embedded.Register(&fakeEmbedded{
		name: "fs",
		results: map[string]cp.ToolResult{
			"read": {Content: []cp.ContentPart{{Type: "text", Text: "ok"}}},
		},
		errs: map[string]error{},
	})

	p := New(Options{
		Manifest: &config.CapabilityManifest{MCPServers: map[string]config.CapabilityServerConfig{
			"fs": {Command: "unused"},
		}},
		Embedded: embedded,
	})

	result, err := p.CallTool(context.Background(), "fs", "read", map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text() != "ok" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestPoolServerOrderIsSorted(t *testing.T) {
	p := New(Options{
		Manifest: &config.CapabilityManifest{MCPServers: map[string]config.CapabilityServerConfig{
			"zeta":  {Command: "unused"},
			"alpha": {Command: "unused"},
			"mid":   {Command: "unused"},
		}},
	})

	order := p.ServerOrder()
	want := []string{"alpha", "mid", "zeta"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}
