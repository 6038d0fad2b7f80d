package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/binkshq/binks/pkg/config"
	"github.com/binkshq/binks/pkg/cp"
	"golang.org/x/sync/errgroup"
)

const (
	defaultStartupTimeout = 30 * time.Second
	defaultCallTimeout    = 60 * time.Second
	defaultFanout         = 8
)

// Options configures a Daemon.
type Options struct {
	Manifest       *config.CapabilityManifest
	SocketPath     string
	StartupTimeout time.Duration
	CallTimeout    time.Duration
	Fanout         int
	Metrics        *Metrics
	Logger         *slog.Logger
}

// Daemon is the supervisor process: it owns one record per configured
// capability server and serves Requests over a Unix domain socket.
type Daemon struct {
	socketPath string
	listener   net.Listener

	records map[string]*record
	order   []string

	fanout      int
	callTimeout time.Duration

	metrics *Metrics
	logger  *slog.Logger

	done         chan struct{}
	shutdownOnce sync.Once
}

// New builds a Daemon over opts.Manifest's servers without binding the
// socket yet; call Listen to bind.
func New(opts Options) *Daemon {
	startupTimeout := opts.StartupTimeout
	if startupTimeout == 0 {
		startupTimeout = defaultStartupTimeout
	}
	callTimeout := opts.CallTimeout
	if callTimeout == 0 {
		callTimeout = defaultCallTimeout
	}
	fanout := opts.Fanout
	if fanout == 0 {
		fanout = defaultFanout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	socketPath := opts.SocketPath
	if socketPath == "" {
		socketPath = DefaultSocketPath()
	}

	d := &Daemon{
		socketPath:  socketPath,
		records:     make(map[string]*record),
		fanout:      fanout,
		callTimeout: callTimeout,
		metrics:     opts.Metrics,
		logger:      logger,
		done:        make(chan struct{}),
	}

	if opts.Manifest != nil {
		for name, cfg := range opts.Manifest.MCPServers {
			d.records[name] = newRecord(name, cfg, startupTimeout, callTimeout)
			d.order = append(d.order, name)
		}
		sort.Strings(d.order)
	}

	return d
}

// Listen binds the Unix domain socket, removing a stale file first if
// present (a socket path with no listener, per §6's liveness rule).
func (d *Daemon) Listen() error {
	if err := os.MkdirAll(filepath.Dir(d.socketPath), 0o755); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}
	if err := removeStaleSocket(d.socketPath); err != nil {
		return err
	}
	listener, err := net.Listen("unix", d.socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", d.socketPath, err)
	}
	d.listener = listener
	return nil
}

func removeStaleSocket(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if IsRunning(path, time.Second) {
		return fmt.Errorf("daemon already running at %s", path)
	}
	return os.Remove(path)
}

// Serve accepts connections until Close is called, handling each on
// its own goroutine. It returns nil on a clean shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-d.done:
				return nil
			default:
				return err
			}
		}
		go d.handleConn(ctx, conn)
	}
}

func (d *Daemon) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			_ = enc.Encode(Response{Type: RespError, Message: fmt.Sprintf("invalid request: %v", err)})
			continue
		}

		resp, shutdown := d.dispatch(ctx, req)
		if err := enc.Encode(resp); err != nil {
			d.logger.Error("daemon: write response failed", "error", err)
			return
		}
		if shutdown {
			go d.Close()
			return
		}
	}
}

func (d *Daemon) dispatch(ctx context.Context, req Request) (Response, bool) {
	switch req.Type {
	case ReqPing:
		return Response{Type: RespPong}, false

	case ReqListTools:
		rec, ok := d.records[req.Server]
		if !ok {
			return errorResponse(fmt.Errorf("unknown server %q", req.Server)), false
		}
		tools, err := rec.ListTools(ctx)
		d.observe(req.Server)
		if err != nil {
			return errorResponse(err), false
		}
		return Response{Type: RespTools, Tools: tools}, false

	case ReqListAllTools:
		tools, err := d.listAllTools(ctx)
		if err != nil {
			return errorResponse(err), false
		}
		return Response{Type: RespTools, Tools: tools}, false

	case ReqCallTool:
		rec, ok := d.records[req.Server]
		if !ok {
			return errorResponse(fmt.Errorf("unknown server %q", req.Server)), false
		}
		args := req.Arguments
		if args == nil {
			args = map[string]any{}
		}
		result, err := rec.CallTool(ctx, req.Tool, args)
		d.observe(req.Server)
		if err != nil {
			return errorResponse(err), false
		}
		return Response{Type: RespResult, Result: &result}, false

	case ReqStatus:
		return Response{Type: RespStatus, Servers: d.status()}, false

	case ReqRefreshServer:
		rec, ok := d.records[req.Server]
		if !ok {
			return errorResponse(fmt.Errorf("unknown server %q", req.Server)), false
		}
		if err := rec.Refresh(ctx); err != nil {
			return errorResponse(err), false
		}
		d.observe(req.Server)
		return Response{Type: RespOk}, false

	case ReqRefreshAll:
		for name, rec := range d.records {
			_ = rec.Refresh(ctx)
			d.observe(name)
		}
		return Response{Type: RespOk}, false

	case ReqShutdown:
		return Response{Type: RespOk}, true

	default:
		return errorResponse(fmt.Errorf("unknown request type %q", req.Type)), false
	}
}

func errorResponse(err error) Response {
	return Response{Type: RespError, Message: err.Error()}
}

// listAllTools fans discovery out across every server bounded by
// d.fanout, returning the aggregate of every server that succeeded;
// failing servers are skipped rather than aborting the whole request
// (§4.4's partial-failure rule).
func (d *Daemon) listAllTools(ctx context.Context) ([]cp.ToolDescriptor, error) {
	results := make([][]cp.ToolDescriptor, len(d.order))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.fanout)

	for i, name := range d.order {
		i, name := i, name
		g.Go(func() error {
			rec := d.records[name]
			tools, err := rec.ListTools(gctx)
			d.observe(name)
			if err != nil {
				d.logger.Warn("daemon: server discovery failed", "server", name, "error", err)
				return nil
			}
			results[i] = tools
			return nil
		})
	}
	_ = g.Wait()

	var all []cp.ToolDescriptor
	for _, tools := range results {
		all = append(all, tools...)
	}
	return all, nil
}

func (d *Daemon) status() []ServerStatus {
	out := make([]ServerStatus, 0, len(d.order))
	for _, name := range d.order {
		rec := d.records[name]
		state, startedAt, lastUsedAt, toolCount := rec.snapshot()

		st := ServerStatus{Name: name, State: state, ToolCount: toolCount}
		if !lastUsedAt.IsZero() {
			secs := int64(time.Since(lastUsedAt).Seconds())
			st.LastUsedSecs = &secs
		}
		if !startedAt.IsZero() {
			secs := int64(time.Since(startedAt).Seconds())
			st.UptimeSecs = &secs
		}
		out = append(out, st)
	}
	return out
}

func (d *Daemon) observe(server string) {
	if d.metrics == nil {
		return
	}
	if rec, ok := d.records[server]; ok {
		state, _, _, _ := rec.snapshot()
		d.metrics.observe(server, state)
	}
}

// Close shuts every server down gracefully, closes the listener, and
// removes the socket file. Safe to call more than once.
func (d *Daemon) Close() error {
	d.shutdownOnce.Do(func() {
		close(d.done)
		for _, rec := range d.records {
			_ = rec.Shutdown(context.Background())
		}
		if d.listener != nil {
			_ = d.listener.Close()
		}
		_ = os.Remove(d.socketPath)
	})
	return nil
}
