package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/binkshq/binks/pkg/cp"
)

// Client talks to a running Daemon over its Unix domain socket. It
// satisfies pool.DaemonClient.
type Client struct {
	socketPath string
	dialTimeout time.Duration
}

// NewClient returns a Client for the daemon listening at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath, dialTimeout: 2 * time.Second}
}

func (c *Client) roundTrip(ctx context.Context, req Request) (Response, error) {
	var d net.Dialer
	dialCtx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()

	conn, err := d.DialContext(dialCtx, "unix", c.socketPath)
	if err != nil {
		return Response{}, fmt.Errorf("dial daemon socket: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	line, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}
	if _, err := conn.Write(append(line, '\n')); err != nil {
		return Response{}, fmt.Errorf("write request: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return Response{}, fmt.Errorf("read response: %w", err)
		}
		return Response{}, fmt.Errorf("daemon closed connection without a response")
	}

	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.Type == RespError {
		return resp, fmt.Errorf("daemon: %s", resp.Message)
	}
	return resp, nil
}

// Ping reports whether the daemon at socketPath is reachable and
// responding within a short timeout (§6's liveness definition).
func (c *Client) Ping(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()
	resp, err := c.roundTrip(pingCtx, Request{Type: ReqPing})
	return err == nil && resp.Type == RespPong
}

// ListTools requests server's tool list from the daemon.
func (c *Client) ListTools(ctx context.Context, server string) ([]cp.ToolDescriptor, error) {
	resp, err := c.roundTrip(ctx, Request{Type: ReqListTools, Server: server})
	if err != nil {
		return nil, err
	}
	return resp.Tools, nil
}

// ListAllTools requests the aggregate tool list across every managed
// server.
func (c *Client) ListAllTools(ctx context.Context) ([]cp.ToolDescriptor, error) {
	resp, err := c.roundTrip(ctx, Request{Type: ReqListAllTools})
	if err != nil {
		return nil, err
	}
	return resp.Tools, nil
}

// CallTool dispatches one tool call through the daemon.
func (c *Client) CallTool(ctx context.Context, server, tool string, args map[string]any) (cp.ToolResult, error) {
	resp, err := c.roundTrip(ctx, Request{Type: ReqCallTool, Server: server, Tool: tool, Arguments: args})
	if err != nil {
		return cp.ToolResult{}, err
	}
	if resp.Result == nil {
		return cp.ToolResult{}, fmt.Errorf("daemon: call_tool response missing result")
	}
	return *resp.Result, nil
}

// Status requests the lifecycle state of every managed server.
func (c *Client) Status(ctx context.Context) ([]ServerStatus, error) {
	resp, err := c.roundTrip(ctx, Request{Type: ReqStatus})
	if err != nil {
		return nil, err
	}
	return resp.Servers, nil
}

// RefreshServer tears down and reinitialises one managed server.
func (c *Client) RefreshServer(ctx context.Context, server string) error {
	_, err := c.roundTrip(ctx, Request{Type: ReqRefreshServer, Server: server})
	return err
}

// RefreshAll tears down and reinitialises every managed server.
func (c *Client) RefreshAll(ctx context.Context) error {
	_, err := c.roundTrip(ctx, Request{Type: ReqRefreshAll})
	return err
}

// Shutdown asks the daemon to stop every server and terminate.
func (c *Client) Shutdown(ctx context.Context) error {
	_, err := c.roundTrip(ctx, Request{Type: ReqShutdown})
	return err
}

// IsRunning reports whether a daemon is listening at socketPath: the
// socket file exists AND a ping completes within timeout (§6). A
// socket file with no live listener is "stale" and reports false.
func IsRunning(socketPath string, timeout time.Duration) bool {
	if _, err := os.Stat(socketPath); err != nil {
		return false
	}
	client := NewClient(socketPath)
	client.dialTimeout = timeout
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return client.Ping(ctx)
}
