package cp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/binkshq/binks/pkg/httpclient"
)

// DefaultSSEResponseTimeout bounds how long HTTPTransport waits for a
// complete event on an SSE response stream.
const DefaultSSEResponseTimeout = 5 * time.Minute

// HTTPConfig configures an SSE/streamable-HTTP CP transport.
type HTTPConfig struct {
	URL        string
	MaxRetries int
	SSETimeout time.Duration
}

// HTTPTransport speaks CP JSON-RPC over an already-listening
// SSE/streamable-HTTP endpoint instead of a spawned subprocess.
type HTTPTransport struct {
	cfg HTTPConfig

	client *httpclient.Client

	sessionMu sync.RWMutex
	sessionID string
}

// NewHTTPTransport returns a Transport that dials cfg.URL on Start.
func NewHTTPTransport(cfg HTTPConfig) *HTTPTransport {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.SSETimeout == 0 {
		cfg.SSETimeout = DefaultSSEResponseTimeout
	}
	return &HTTPTransport{cfg: cfg}
}

type jsonRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Result  any           `json:"result,omitempty"`
	Error   *jsonRPCError `json:"error,omitempty"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Start performs the initialize handshake, bounded by ctx
// (startup_timeout).
func (t *HTTPTransport) Start(ctx context.Context) error {
	t.client = httpclient.New(
		httpclient.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
		httpclient.WithMaxRetries(t.cfg.MaxRetries),
		httpclient.WithBaseDelay(2*time.Second),
	)

	resp, err := t.rpc(ctx, "initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"clientInfo":      map[string]any{"name": "binks", "version": "0.1.0"},
		"capabilities":    map[string]any{},
	})
	if err != nil {
		if ctx.Err() != nil {
			return newError(ErrStartupTimeout, "initialize capability server", err)
		}
		return newError(ErrTransportClosed, "initialize capability server", err)
	}
	if resp.Error != nil {
		return newError(ErrProtocol, "initialize capability server", fmt.Errorf("%s", resp.Error.Message))
	}
	return nil
}

// ListTools issues tools/list.
func (t *HTTPTransport) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	resp, err := t.rpc(ctx, "tools/list", nil)
	if err != nil {
		return nil, classifyCallErr(ctx, "list tools", err)
	}
	if resp.Error != nil {
		return nil, newError(ErrProtocol, "list tools", fmt.Errorf("%s", resp.Error.Message))
	}

	resultMap, ok := resp.Result.(map[string]any)
	if !ok {
		return nil, newError(ErrProtocol, "list tools", fmt.Errorf("unexpected result shape"))
	}
	toolsList, ok := resultMap["tools"].([]any)
	if !ok {
		return nil, newError(ErrProtocol, "list tools", fmt.Errorf("missing tools array"))
	}

	descriptors := make([]ToolDescriptor, 0, len(toolsList))
	for _, raw := range toolsList {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		desc, _ := m["description"].(string)
		var schema map[string]any
		if s, ok := m["inputSchema"].(map[string]any); ok {
			schema = s
		}
		descriptors = append(descriptors, ToolDescriptor{Name: name, Description: desc, InputSchema: schema})
	}
	return descriptors, nil
}

// CallTool issues tools/call, bounded by ctx (tool_timeout).
func (t *HTTPTransport) CallTool(ctx context.Context, name string, args map[string]any) (ToolResult, error) {
	resp, err := t.rpc(ctx, "tools/call", map[string]any{"name": name, "arguments": args})
	if err != nil {
		return ToolResult{}, classifyCallErr(ctx, "call tool", err)
	}
	if resp.Error != nil {
		return ToolResult{IsError: true, Content: []ContentPart{{Type: "text", Text: resp.Error.Message}}}, nil
	}

	resultMap, ok := resp.Result.(map[string]any)
	if !ok {
		return ToolResult{Content: []ContentPart{{Type: "text", Text: fmt.Sprintf("%v", resp.Result)}}}, nil
	}

	if isError, _ := resultMap["isError"].(bool); isError {
		return ToolResult{IsError: true, Content: extractTextParts(resultMap)}, nil
	}
	return ToolResult{Content: extractTextParts(resultMap)}, nil
}

func extractTextParts(resultMap map[string]any) []ContentPart {
	content, ok := resultMap["content"].([]any)
	if !ok {
		return nil
	}
	var parts []ContentPart
	for _, c := range content {
		cm, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if text, ok := cm["text"].(string); ok {
			parts = append(parts, ContentPart{Type: "text", Text: text})
		}
	}
	return parts
}

// Close releases the HTTP client. There is no persistent connection to
// tear down for the HTTP transport.
func (t *HTTPTransport) Close() error {
	t.client = nil
	return nil
}

func (t *HTTPTransport) rpc(ctx context.Context, method string, params any) (*jsonRPCResponse, error) {
	req := jsonRPCRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.URL, strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")

	t.sessionMu.RLock()
	sessionID := t.sessionID
	t.sessionMu.RUnlock()
	if sessionID != "" {
		httpReq.Header.Set("mcp-session-id", sessionID)
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if newSessionID := httpResp.Header.Get("mcp-session-id"); newSessionID != "" {
		t.sessionMu.Lock()
		t.sessionID = newSessionID
		t.sessionMu.Unlock()
	}

	if httpResp.StatusCode != http.StatusOK {
		responseBody, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("http error %d: %s", httpResp.StatusCode, string(responseBody))
	}

	if strings.Contains(httpResp.Header.Get("Content-Type"), "text/event-stream") {
		return t.readSSEResponse(httpResp)
	}

	responseBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var resp jsonRPCResponse
	if err := json.Unmarshal(responseBody, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &resp, nil
}

func (t *HTTPTransport) readSSEResponse(httpResp *http.Response) (*jsonRPCResponse, error) {
	type result struct {
		response *jsonRPCResponse
		err      error
	}
	resultChan := make(chan result, 1)

	go func() {
		defer httpResp.Body.Close()
		reader := bufio.NewReader(httpResp.Body)
		var data strings.Builder

		for {
			line, err := reader.ReadBytes('\n')
			if err != nil {
				break
			}
			lineStr := strings.TrimSpace(string(line))

			if lineStr == "" {
				if data.Len() > 0 {
					var resp jsonRPCResponse
					if err := json.Unmarshal([]byte(data.String()), &resp); err == nil {
						resultChan <- result{response: &resp}
						return
					}
					data.Reset()
				}
				continue
			}
			if strings.HasPrefix(lineStr, "data:") {
				data.WriteString(strings.TrimSpace(strings.TrimPrefix(lineStr, "data:")))
			}
		}

		if data.Len() > 0 {
			var resp jsonRPCResponse
			if err := json.Unmarshal([]byte(data.String()), &resp); err == nil {
				resultChan <- result{response: &resp}
				return
			}
		}
		resultChan <- result{err: fmt.Errorf("SSE stream ended without a complete message")}
	}()

	select {
	case res := <-resultChan:
		if res.err != nil {
			return nil, res.err
		}
		return res.response, nil
	case <-time.After(t.cfg.SSETimeout):
		return nil, fmt.Errorf("timeout reading SSE response after %v", t.cfg.SSETimeout)
	}
}
