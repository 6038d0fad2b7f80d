// Package llm implements the LLM client (C5): a thin adapter over a
// local Ollama-compatible HTTP chat endpoint, grounded on the
// teacher's pkg/llms.OllamaProvider wire shapes.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/binkshq/binks/pkg/httpclient"
)

// Config configures a Client.
type Config struct {
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client is a thin Ollama /api/chat adapter.
type Client struct {
	cfg        Config
	httpClient *httpclient.Client
}

// New returns a Client talking to cfg.BaseURL (default
// http://localhost:11434).
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Client{cfg: cfg, httpClient: httpclient.New()}
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
	Tools    []ollamaTool    `json:"tools,omitempty"`
	Think    any             `json:"think,omitempty"`
}

type ollamaMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	Thinking   string           `json:"thinking,omitempty"`
	ToolCalls  []ollamaToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	ToolName   string           `json:"tool_name,omitempty"`
}

type ollamaTool struct {
	Type     string             `json:"type"`
	Function ollamaToolFunction `json:"function"`
}

type ollamaToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type ollamaToolCall struct {
	Type     string                 `json:"type"`
	Function ollamaToolCallFunction `json:"function"`
}

type ollamaToolCallFunction struct {
	Index     int            `json:"index,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Message            ollamaMessage `json:"message"`
	Done               bool          `json:"done"`
	PromptEvalCount    int           `json:"prompt_eval_count"`
	EvalCount          int           `json:"eval_count"`
	Error              string        `json:"error,omitempty"`
}

type ollamaStreamChunk struct {
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
	Error           string        `json:"error,omitempty"`
}

// ModelInfo is one entry of list_models' result (§4.5).
type ModelInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

func (c *Client) buildRequest(messages []Message, stream bool, tools []ToolDefinition) ollamaRequest {
	out := make([]ollamaMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleTool {
			out = append(out, ollamaMessage{Role: "tool", Content: m.Content, ToolName: m.ToolCallID})
			continue
		}

		om := ollamaMessage{Role: string(m.Role), Content: m.Content}
		if len(m.ToolCalls) > 0 {
			om.ToolCalls = make([]ollamaToolCall, len(m.ToolCalls))
			for i, tc := range m.ToolCalls {
				args := tc.Arguments
				if args == nil {
					args = map[string]any{}
				}
				om.ToolCalls[i] = ollamaToolCall{
					Type:     "function",
					Function: ollamaToolCallFunction{Index: i, Name: tc.Name, Arguments: args},
				}
			}
		}
		out = append(out, om)
	}

	req := ollamaRequest{Model: c.cfg.Model, Messages: out, Stream: stream}

	if c.cfg.Temperature > 0 || c.cfg.MaxTokens > 0 {
		opts := &ollamaOptions{}
		if c.cfg.Temperature > 0 {
			opts.Temperature = c.cfg.Temperature
		}
		if c.cfg.MaxTokens > 0 {
			opts.NumPredict = c.cfg.MaxTokens
		}
		req.Options = opts
	}

	if ModelCapabilitiesFor(c.cfg.Model).SupportsThinking {
		req.Think = true
	}

	if len(tools) > 0 {
		req.Tools = toOllamaTools(tools)
	}

	return req
}

func toOllamaTools(tools []ToolDefinition) []ollamaTool {
	out := make([]ollamaTool, len(tools))
	for i, t := range tools {
		out[i] = ollamaTool{
			Type: "function",
			Function: ollamaToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return out
}

func (c *Client) doChat(ctx context.Context, req ollamaRequest) (*ollamaResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama chat request failed with status %d: %s", resp.StatusCode, string(data))
	}

	var out ollamaResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama: %s", out.Error)
	}
	return &out, nil
}

func (c *Client) doStream(ctx context.Context, req ollamaRequest, onChunk func(ollamaStreamChunk)) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama chat request failed with status %d: %s", resp.StatusCode, string(data))
	}

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read chat stream: %w", err)
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var chunk ollamaStreamChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		if chunk.Error != "" {
			return fmt.Errorf("ollama: %s", chunk.Error)
		}
		onChunk(chunk)
		if chunk.Done {
			return nil
		}
	}
}

type listModelsResponse struct {
	Models []struct {
		Name       string    `json:"name"`
		Size       int64     `json:"size"`
		ModifiedAt time.Time `json:"modified_at"`
	} `json:"models"`
}

// ListModels implements list_models (§4.5): GET /api/tags against
// baseURL, falling back to the client's own configured base URL when
// baseURL is empty.
func (c *Client) ListModels(ctx context.Context, baseURL string) ([]ModelInfo, error) {
	if baseURL == "" {
		baseURL = c.cfg.BaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("build list_models request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("list_models request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read list_models response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list_models failed with status %d: %s", resp.StatusCode, string(data))
	}

	var parsed listModelsResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode list_models response: %w", err)
	}

	out := make([]ModelInfo, len(parsed.Models))
	for i, m := range parsed.Models {
		out[i] = ModelInfo{Name: m.Name, Size: m.Size, ModifiedAt: m.ModifiedAt}
	}
	return out, nil
}
