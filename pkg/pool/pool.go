// Package pool implements the capability-client pool (C3): a uniform
// list/call surface over configured capability servers, regardless of
// whether calls are routed through the supervisor daemon, dispatched
// in-process to an embedded server, or spawned fresh per call.
package pool

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/binkshq/binks/pkg/capability"
	"github.com/binkshq/binks/pkg/config"
	"github.com/binkshq/binks/pkg/cp"
	"github.com/binkshq/binks/pkg/schema"
)

// Options configures a Pool.
type Options struct {
	Manifest       *config.CapabilityManifest
	Embedded       *capability.Registry
	Daemon         DaemonClient // nil disables daemon routing
	Metrics        *Metrics     // nil disables metrics
	StartupTimeout time.Duration
	CallTimeout    time.Duration
}

const (
	defaultStartupTimeout = 30 * time.Second
	defaultCallTimeout    = 60 * time.Second
)

// Pool is the capability-client pool. It lives for the process: one
// Pool is created at agent start and serves every tool dispatch.
type Pool struct {
	manifest *config.CapabilityManifest
	order    []string
	embedded *capability.Registry
	daemon   DaemonClient
	metrics  *Metrics

	startupTimeout time.Duration
	callTimeout    time.Duration

	mu    sync.Mutex
	cache map[string][]cp.ToolDescriptor

	validators   map[string]*schema.Validator
	validatorsMu sync.Mutex
}

// New builds a Pool over opts.Manifest's servers, sorted by name for
// deterministic insertion order (§4.3's "insertion order" requirement
// — the manifest format itself, decoded from YAML into a Go map,
// carries no order of its own).
func New(opts Options) *Pool {
	p := &Pool{
		manifest:       opts.Manifest,
		embedded:       opts.Embedded,
		daemon:         opts.Daemon,
		metrics:        opts.Metrics,
		startupTimeout: opts.StartupTimeout,
		callTimeout:    opts.CallTimeout,
		cache:          make(map[string][]cp.ToolDescriptor),
		validators:     make(map[string]*schema.Validator),
	}
	if p.startupTimeout == 0 {
		p.startupTimeout = defaultStartupTimeout
	}
	if p.callTimeout == 0 {
		p.callTimeout = defaultCallTimeout
	}
	if p.manifest != nil {
		for name := range p.manifest.MCPServers {
			p.order = append(p.order, name)
		}
		sort.Strings(p.order)
	}
	if p.embedded == nil {
		p.embedded = capability.NewRegistry()
	}
	return p
}

// ServerOrder returns the configured server names in the pool's fixed
// iteration order.
func (p *Pool) ServerOrder() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// HasCachedTools is an O(1) check of whether server's tool list is
// already cached.
func (p *Pool) HasCachedTools(server string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.cache[server]
	return ok
}

// ClearCache invalidates every cached discovery result.
func (p *Pool) ClearCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[string][]cp.ToolDescriptor)
}

// ListToolsFrom returns server's tools, memoising the discovery
// result. Schemas are sanitised (§4.3) before being returned.
func (p *Pool) ListToolsFrom(ctx context.Context, server string) ([]cp.ToolDescriptor, error) {
	p.mu.Lock()
	if cached, ok := p.cache[server]; ok {
		p.mu.Unlock()
		return cached, nil
	}
	p.mu.Unlock()

	tools, err := p.discover(ctx, server)
	if err != nil {
		return nil, err
	}

	sanitised := sanitiseDescriptors(server, tools)

	p.mu.Lock()
	p.cache[server] = sanitised
	p.mu.Unlock()

	return sanitised, nil
}

func sanitiseDescriptors(server string, tools []cp.ToolDescriptor) []cp.ToolDescriptor {
	out := make([]cp.ToolDescriptor, len(tools))
	for i, t := range tools {
		t.ServerID = server
		if t.InputSchema != nil {
			if sanitised, ok := schema.Sanitize(t.InputSchema).(map[string]any); ok {
				t.InputSchema = sanitised
			}
		}
		out[i] = t
	}
	return out
}

// ListAllTools aggregates tools from every configured, non-internal
// server in insertion order.
func (p *Pool) ListAllTools(ctx context.Context) ([]cp.ToolDescriptor, error) {
	var all []cp.ToolDescriptor
	for _, name := range p.order {
		if server, ok := p.manifest.MCPServers[name]; ok && server.Internal {
			continue
		}
		tools, err := p.ListToolsFrom(ctx, name)
		if err != nil {
			continue
		}
		all = append(all, tools...)
	}
	return all, nil
}

// dispatchMode is the chosen routing for one server, per §4.3's
// mode-selection order.
type dispatchMode int

const (
	modeDaemon dispatchMode = iota
	modeEmbedded
	modeSpawn
)

func (p *Pool) selectMode(ctx context.Context, server string) dispatchMode {
	if p.daemon != nil && p.daemon.Ping(ctx) {
		return modeDaemon
	}
	if _, ok := p.embedded.Lookup(server); ok {
		return modeEmbedded
	}
	return modeSpawn
}

func (p *Pool) discover(ctx context.Context, server string) ([]cp.ToolDescriptor, error) {
	switch p.selectMode(ctx, server) {
	case modeDaemon:
		tools, err := p.daemon.ListTools(ctx, server)
		if err != nil {
			return nil, newError(ErrTransport, server, "", err)
		}
		return tools, nil

	case modeEmbedded:
		s, _ := p.embedded.Lookup(server)
		return s.ListTools(), nil

	default:
		transport, err := p.spawnTransport(server)
		if err != nil {
			return nil, err
		}
		defer transport.Close()

		startCtx, cancel := context.WithTimeout(ctx, p.startupTimeout)
		defer cancel()
		if err := transport.Start(startCtx); err != nil {
			return nil, classifyTransportErr(server, "", err)
		}

		listCtx, cancel2 := context.WithTimeout(ctx, p.callTimeout)
		defer cancel2()
		tools, err := transport.ListTools(listCtx)
		if err != nil {
			return nil, classifyTransportErr(server, "", err)
		}
		return tools, nil
	}
}

// CallTool dispatches one tool call through the selected mode,
// classifying failures per §4.3's error policy and recording metrics.
func (p *Pool) CallTool(ctx context.Context, server, tool string, args map[string]any) (cp.ToolResult, error) {
	start := time.Now()
	result, err := p.callTool(ctx, server, tool, args)
	p.recordMetrics(server, tool, start, err)
	return result, err
}

func (p *Pool) callTool(ctx context.Context, server, toolName string, args map[string]any) (cp.ToolResult, error) {
	if p.manifest != nil {
		if _, ok := p.manifest.MCPServers[server]; !ok {
			if _, ok := p.embedded.Lookup(server); !ok {
				return cp.ToolResult{}, newError(ErrNotFound, server, toolName, nil)
			}
		}
	}

	if validator, err := p.validatorFor(ctx, server, toolName); err == nil && validator != nil {
		if err := validator.Validate(args); err != nil {
			return cp.ToolResult{}, newError(ErrProtocol, server, toolName, err)
		}
	}

	switch p.selectMode(ctx, server) {
	case modeDaemon:
		result, err := p.daemon.CallTool(ctx, server, toolName, args)
		if err != nil {
			return cp.ToolResult{}, newError(ErrTransport, server, toolName, err)
		}
		if result.IsError {
			return result, newError(ErrToolReportedError, server, toolName, nil)
		}
		return result, nil

	case modeEmbedded:
		s, _ := p.embedded.Lookup(server)
		result, err := s.Call(toolName, args)
		if err != nil {
			return cp.ToolResult{}, newError(ErrNotFound, server, toolName, err)
		}
		if result.IsError {
			return result, newError(ErrToolReportedError, server, toolName, nil)
		}
		return result, nil

	default:
		transport, err := p.spawnTransport(server)
		if err != nil {
			return cp.ToolResult{}, err
		}
		defer transport.Close()

		startCtx, cancel := context.WithTimeout(ctx, p.startupTimeout)
		defer cancel()
		if err := transport.Start(startCtx); err != nil {
			return cp.ToolResult{}, classifyTransportErr(server, toolName, err)
		}

		callCtx, cancel2 := context.WithTimeout(ctx, p.callTimeout)
		defer cancel2()
		result, err := transport.CallTool(callCtx, toolName, args)
		if err != nil {
			return cp.ToolResult{}, classifyTransportErr(server, toolName, err)
		}
		if result.IsError {
			return result, newError(ErrToolReportedError, server, toolName, nil)
		}
		return result, nil
	}
}

// validatorFor compiles (and caches) a Validator for server/tool's
// sanitised input schema. Argument validation (§3) runs after
// sanitisation and before dispatch; a tool whose schema can't be
// discovered validates permissively rather than blocking the call.
func (p *Pool) validatorFor(ctx context.Context, server, tool string) (*schema.Validator, error) {
	key := server + "/" + tool

	p.validatorsMu.Lock()
	if v, ok := p.validators[key]; ok {
		p.validatorsMu.Unlock()
		return v, nil
	}
	p.validatorsMu.Unlock()

	tools, err := p.ListToolsFrom(ctx, server)
	if err != nil {
		return nil, err
	}

	var rawSchema map[string]any
	for _, t := range tools {
		if t.Name == tool {
			rawSchema = t.InputSchema
			break
		}
	}

	v, err := schema.Compile(rawSchema)
	if err != nil {
		return nil, err
	}

	p.validatorsMu.Lock()
	p.validators[key] = v
	p.validatorsMu.Unlock()

	return v, nil
}

func (p *Pool) recordMetrics(server, tool string, start time.Time, err error) {
	if p.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.metrics.ToolCallsTotal.WithLabelValues(server, tool, outcome).Inc()
	p.metrics.ToolCallDuration.WithLabelValues(server, tool).Observe(time.Since(start).Seconds())
}

func (p *Pool) spawnTransport(server string) (cp.Transport, error) {
	cfg, ok := p.manifest.MCPServers[server]
	if !ok {
		return nil, newError(ErrNotFound, server, "", nil)
	}
	if cfg.ServerURL != "" {
		return cp.NewHTTPTransport(cp.HTTPConfig{URL: cfg.ServerURL}), nil
	}
	return cp.NewStdioTransport(cp.StdioConfig{Command: cfg.Command, Args: cfg.Args, Env: cfg.Env}), nil
}

func classifyTransportErr(server, tool string, err error) *Error {
	switch {
	case cp.IsKind(err, cp.ErrStartupTimeout), cp.IsKind(err, cp.ErrCallTimeout):
		return newError(ErrTimeout, server, tool, err)
	case cp.IsKind(err, cp.ErrTransportClosed):
		return newError(ErrTransport, server, tool, err)
	default:
		return newError(ErrProtocol, server, tool, err)
	}
}
