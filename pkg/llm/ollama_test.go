package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/binkshq/binks/pkg/events"
)

func TestBuildRequestConvertsToolRoleMessages(t *testing.T) {
	c := New(Config{Model: "llama3.1"})
	h := NewHistory("")
	h.Append(Message{Role: RoleUser, Content: "hi"})
	h.Append(Message{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "1", Name: "search", Arguments: map[string]any{"q": "x"}}}})
	h.Append(Message{Role: RoleTool, Content: "result", ToolCallID: "search"})

	req := c.buildRequest(h.Messages(), false, nil)
	if len(req.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(req.Messages))
	}
	toolMsg := req.Messages[2]
	if toolMsg.Role != "tool" || toolMsg.ToolName != "search" || toolMsg.Content != "result" {
		t.Fatalf("unexpected tool message: %+v", toolMsg)
	}
	assistantMsg := req.Messages[1]
	if len(assistantMsg.ToolCalls) != 1 || assistantMsg.ToolCalls[0].Function.Name != "search" {
		t.Fatalf("unexpected assistant message: %+v", assistantMsg)
	}
}

func TestBuildRequestSetsThinkOnlyForCapableModels(t *testing.T) {
	c := New(Config{Model: "qwen3:8b"})
	req := c.buildRequest([]Message{{Role: RoleUser, Content: "hi"}}, false, nil)
	if req.Think != true {
		t.Fatalf("expected think=true for qwen3, got %v", req.Think)
	}

	c2 := New(Config{Model: "qwen3-coder:30b"})
	req2 := c2.buildRequest([]Message{{Role: RoleUser, Content: "hi"}}, false, nil)
	if req2.Think != nil {
		t.Fatalf("expected think unset for qwen3-coder, got %v", req2.Think)
	}
}

func TestBuildRequestSetsToolsOnlyWhenProvided(t *testing.T) {
	c := New(Config{Model: "llama3.1"})
	req := c.buildRequest([]Message{{Role: RoleUser, Content: "hi"}}, false, []ToolDefinition{{Name: "search"}})
	if len(req.Tools) != 1 || req.Tools[0].Function.Name != "search" {
		t.Fatalf("unexpected tools: %+v", req.Tools)
	}

	req2 := c.buildRequest([]Message{{Role: RoleUser, Content: "hi"}}, false, nil)
	if req2.Tools != nil {
		t.Fatalf("expected no tools, got %+v", req2.Tools)
	}
}

func TestDoChatAgainstMockServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"role": "assistant", "content": "hello there"},
			"done":    true,
		})
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Model: "llama3.1"})
	reply, err := c.Chat(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Chat() = %v", err)
	}
	if reply != "hello there" {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestDoChatSurfacesOllamaError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"error": "model not found"})
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Model: "llama3.1"})
	_, err := c.Chat(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestDoStreamAccumulatesTokensAndStopsAtDone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		flusher, _ := w.(http.Flusher)
		chunks := []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": "hel"}, "done": false},
			{"message": map[string]any{"role": "assistant", "content": "lo"}, "done": false},
			{"message": map[string]any{"role": "assistant", "content": ""}, "done": true},
		}
		for _, chunk := range chunks {
			data, _ := json.Marshal(chunk)
			w.Write(append(data, '\n'))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Model: "llama3.1"})
	h := NewHistory("")
	var tokens []string
	reply, err := c.StreamChat(context.Background(), h, "hi", func(ev events.Event) {
		if ev.Kind == events.KindToken {
			tokens = append(tokens, ev.Text)
		}
	})
	if err != nil {
		t.Fatalf("StreamChat() = %v", err)
	}
	if reply != "hello" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if len(tokens) != 2 || tokens[0] != "hel" || tokens[1] != "lo" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}

	msgs := h.Messages()
	if len(msgs) != 2 || msgs[1].Role != RoleAssistant || msgs[1].Content != "hello" {
		t.Fatalf("unexpected history after stream: %+v", msgs)
	}
}

func TestChatWithToolsNonStreamingReturnsNativeCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{
				"role": "assistant",
				"tool_calls": []map[string]any{
					{"function": map[string]any{"name": "search", "arguments": map[string]any{"q": "go"}}},
				},
			},
			"done": true,
		})
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Model: "llama3.1"})
	h := NewHistory("")
	h.Append(Message{Role: RoleUser, Content: "find go"})

	result, err := c.ChatWithTools(context.Background(), h, []ToolDefinition{{Name: "search"}}, nil)
	if err != nil {
		t.Fatalf("ChatWithTools() = %v", err)
	}
	if len(result.ToolCalls) != 1 || result.ToolCalls[0].Name != "search" {
		t.Fatalf("unexpected tool calls: %+v", result.ToolCalls)
	}
	if len(h.Messages()) != 1 {
		t.Fatal("ChatWithTools must not mutate history")
	}
}

func TestChatWithToolsStreamingCarriesToolCallsAtCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		flusher, _ := w.(http.Flusher)
		chunks := []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": "ok, "}, "done": false},
			{
				"message": map[string]any{
					"role": "assistant",
					"tool_calls": []map[string]any{
						{"function": map[string]any{"name": "search", "arguments": map[string]any{"q": "go"}}},
					},
				},
				"done": true,
			},
		}
		for _, chunk := range chunks {
			data, _ := json.Marshal(chunk)
			w.Write(append(data, '\n'))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Model: "llama3.1"})
	h := NewHistory("")

	var tokens []string
	result, err := c.ChatWithTools(context.Background(), h, []ToolDefinition{{Name: "search"}}, func(ev events.Event) {
		if ev.Kind == events.KindToken {
			tokens = append(tokens, ev.Text)
		}
	})
	if err != nil {
		t.Fatalf("ChatWithTools() = %v", err)
	}
	if len(tokens) != 1 || tokens[0] != "ok, " {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
	if len(result.ToolCalls) != 1 || result.ToolCalls[0].Name != "search" {
		t.Fatalf("unexpected tool calls: %+v", result.ToolCalls)
	}
}

func TestListModelsAgainstMockTags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]any{
				{"name": "llama3.1:8b", "size": 4000},
			},
		})
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL})
	models, err := c.ListModels(context.Background(), "")
	if err != nil {
		t.Fatalf("ListModels() = %v", err)
	}
	if len(models) != 1 || models[0].Name != "llama3.1:8b" {
		t.Fatalf("unexpected models: %+v", models)
	}
}
