package cp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// StdioConfig configures a subprocess-spawned CP transport.
type StdioConfig struct {
	Command string
	Args    []string
	Env     map[string]string
}

// StdioTransport speaks CP to a child process over stdio via
// mark3labs/mcp-go. It is not safe for concurrent CallTool use by
// design — the pool serializes access per server.
type StdioTransport struct {
	cfg StdioConfig

	mu     sync.Mutex
	client *client.Client
}

// NewStdioTransport returns a Transport that spawns cfg.Command on
// Start.
func NewStdioTransport(cfg StdioConfig) *StdioTransport {
	return &StdioTransport{cfg: cfg}
}

func (t *StdioTransport) envSlice() []string {
	if len(t.cfg.Env) == 0 {
		return nil
	}
	out := make([]string, 0, len(t.cfg.Env))
	for k, v := range t.cfg.Env {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	return out
}

// Start spawns the child and performs the initialize handshake. The
// caller's ctx deadline bounds the full sequence (startup_timeout).
func (t *StdioTransport) Start(ctx context.Context) error {
	mcpClient, err := client.NewStdioMCPClient(t.cfg.Command, t.envSlice(), t.cfg.Args...)
	if err != nil {
		return newError(ErrTransportClosed, "spawn capability server", err)
	}

	if err := mcpClient.Start(ctx); err != nil {
		if ctx.Err() != nil {
			return newError(ErrStartupTimeout, "start capability server", err)
		}
		return newError(ErrTransportClosed, "start capability server", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{Name: "binks", Version: "0.1.0"}
	initReq.Params.ProtocolVersion = "2024-11-05"

	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		mcpClient.Close()
		if ctx.Err() != nil {
			return newError(ErrStartupTimeout, "initialize capability server", err)
		}
		return newError(ErrProtocol, "initialize capability server", err)
	}

	t.mu.Lock()
	t.client = mcpClient
	t.mu.Unlock()
	return nil
}

func (t *StdioTransport) liveClient() (*client.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil, newError(ErrTransportClosed, "capability server not started", nil)
	}
	return t.client, nil
}

// ListTools issues tools/list.
func (t *StdioTransport) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	mcpClient, err := t.liveClient()
	if err != nil {
		return nil, err
	}

	resp, err := mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, classifyCallErr(ctx, "list tools", err)
	}

	descriptors := make([]ToolDescriptor, 0, len(resp.Tools))
	for _, mt := range resp.Tools {
		descriptors = append(descriptors, ToolDescriptor{
			Name:        mt.Name,
			Description: mt.Description,
			InputSchema: schemaToMap(mt.InputSchema),
		})
	}
	return descriptors, nil
}

// CallTool issues tools/call, bounded by ctx (tool_timeout).
func (t *StdioTransport) CallTool(ctx context.Context, name string, args map[string]any) (ToolResult, error) {
	mcpClient, err := t.liveClient()
	if err != nil {
		return ToolResult{}, err
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	resp, err := mcpClient.CallTool(ctx, req)
	if err != nil {
		return ToolResult{}, classifyCallErr(ctx, "call tool", err)
	}

	return toolResultFromMCP(resp), nil
}

// Close terminates the child and releases the client.
func (t *StdioTransport) Close() error {
	t.mu.Lock()
	mcpClient := t.client
	t.client = nil
	t.mu.Unlock()

	if mcpClient == nil {
		return nil
	}
	return mcpClient.Close()
}

func classifyCallErr(ctx context.Context, action string, err error) error {
	if ctx.Err() != nil {
		return newError(ErrCallTimeout, action, err)
	}
	return newError(ErrProtocol, action, err)
}

func toolResultFromMCP(resp *mcp.CallToolResult) ToolResult {
	result := ToolResult{IsError: resp.IsError}
	for _, content := range resp.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			result.Content = append(result.Content, ContentPart{Type: "text", Text: textContent.Text})
		}
	}
	return result
}

func schemaToMap(schema mcp.ToolInputSchema) map[string]any {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}
