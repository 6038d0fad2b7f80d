package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/binkshq/binks/pkg/config"
	"github.com/binkshq/binks/pkg/cp"
)

type job struct {
	fn   func() (any, error)
	done chan jobResult
}

type jobResult struct {
	val any
	err error
}

// record owns one configured capability server's live transport and
// lifecycle state. All interaction with the transport happens on
// record's single worker goroutine, which drains jobs in submission
// order — the "internal FIFO queue" giving each server at most one
// in-flight request (§4.4's concurrency contract) while distinct
// servers proceed independently.
type record struct {
	name string
	cfg  config.CapabilityServerConfig

	startupTimeout time.Duration
	callTimeout    time.Duration

	jobs chan job

	mu         sync.Mutex
	state      State
	transport  cp.Transport
	toolCache  []cp.ToolDescriptor
	startedAt  time.Time
	lastUsedAt time.Time
}

func newRecord(name string, cfg config.CapabilityServerConfig, startupTimeout, callTimeout time.Duration) *record {
	r := &record{
		name:           name,
		cfg:            cfg,
		startupTimeout: startupTimeout,
		callTimeout:    callTimeout,
		jobs:           make(chan job, 32),
		state:          StateIdle,
	}
	go r.loop()
	return r
}

func (r *record) loop() {
	for j := range r.jobs {
		val, err := j.fn()
		j.done <- jobResult{val, err}
	}
}

func (r *record) submit(fn func() (any, error)) (any, error) {
	done := make(chan jobResult, 1)
	r.jobs <- job{fn: fn, done: done}
	res := <-done
	return res.val, res.err
}

func (r *record) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *record) snapshot() (State, time.Time, time.Time, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.startedAt, r.lastUsedAt, len(r.toolCache)
}

// ensureTransport spawns and initialises the server's transport if it
// isn't already running, transitioning idle→starting→{running,failed}.
func (r *record) ensureTransport(ctx context.Context) (cp.Transport, error) {
	r.mu.Lock()
	if r.state == StateRunning && r.transport != nil {
		t := r.transport
		r.mu.Unlock()
		return t, nil
	}
	r.mu.Unlock()

	r.setState(StateStarting)

	t, err := spawnTransport(r.cfg)
	if err != nil {
		r.setState(StateFailed)
		return nil, err
	}

	startCtx, cancel := context.WithTimeout(ctx, r.startupTimeout)
	defer cancel()
	if err := t.Start(startCtx); err != nil {
		r.setState(StateFailed)
		return nil, err
	}

	r.mu.Lock()
	r.transport = t
	r.startedAt = time.Now()
	r.mu.Unlock()
	r.setState(StateRunning)

	return t, nil
}

// ListTools discovers and caches the server's tools, spawning the
// transport first if necessary. Serialized through the server's FIFO.
func (r *record) ListTools(ctx context.Context) ([]cp.ToolDescriptor, error) {
	val, err := r.submit(func() (any, error) {
		t, err := r.ensureTransport(ctx)
		if err != nil {
			return nil, err
		}
		listCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
		defer cancel()
		tools, err := t.ListTools(listCtx)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.toolCache = tools
		r.lastUsedAt = time.Now()
		r.mu.Unlock()
		return tools, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]cp.ToolDescriptor), nil
}

// CallTool dispatches one tool call, serialized through the server's
// FIFO.
func (r *record) CallTool(ctx context.Context, tool string, args map[string]any) (cp.ToolResult, error) {
	val, err := r.submit(func() (any, error) {
		t, err := r.ensureTransport(ctx)
		if err != nil {
			return cp.ToolResult{}, err
		}
		callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
		defer cancel()
		result, err := t.CallTool(callCtx, tool, args)
		r.mu.Lock()
		r.lastUsedAt = time.Now()
		r.mu.Unlock()
		return result, err
	})
	if err != nil {
		return cp.ToolResult{}, err
	}
	return val.(cp.ToolResult), nil
}

// Refresh tears down the current child and returns the record to idle;
// the next use re-initialises it. It goes through the FIFO so it
// never races an in-flight call.
func (r *record) Refresh(ctx context.Context) error {
	_, err := r.submit(func() (any, error) {
		r.mu.Lock()
		t := r.transport
		r.transport = nil
		r.toolCache = nil
		r.mu.Unlock()
		if t != nil {
			_ = t.Close()
		}
		r.setState(StateIdle)
		return nil, nil
	})
	return err
}

// Shutdown gracefully closes a running child and marks the record
// stopped.
func (r *record) Shutdown(ctx context.Context) error {
	_, err := r.submit(func() (any, error) {
		r.mu.Lock()
		t := r.transport
		state := r.state
		r.transport = nil
		r.mu.Unlock()
		if t != nil && state == StateRunning {
			_ = t.Close()
		}
		r.setState(StateStopped)
		return nil, nil
	})
	return err
}

func spawnTransport(cfg config.CapabilityServerConfig) (cp.Transport, error) {
	if cfg.ServerURL != "" {
		return cp.NewHTTPTransport(cp.HTTPConfig{URL: cfg.ServerURL}), nil
	}
	if cfg.Command == "" {
		return nil, fmt.Errorf("capability server has neither command nor server_url")
	}
	return cp.NewStdioTransport(cp.StdioConfig{Command: cfg.Command, Args: cfg.Args, Env: cfg.Env}), nil
}
