package llm

import (
	"context"
	"strings"

	"github.com/binkshq/binks/pkg/events"
)

// Chat implements chat (§4.5): a single turn with no history kept
// across calls.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	req := c.buildRequest([]Message{{Role: RoleUser, Content: message}}, false, nil)
	resp, err := c.doChat(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

// ChatWithHistory implements chat_with_history (§4.5): appends the
// user message, sends the whole history, appends the assistant reply,
// and returns it.
func (c *Client) ChatWithHistory(ctx context.Context, h *History, message string) (string, error) {
	h.Append(Message{Role: RoleUser, Content: message})

	req := c.buildRequest(h.Messages(), false, nil)
	resp, err := c.doChat(ctx, req)
	if err != nil {
		return "", err
	}

	h.Append(Message{Role: RoleAssistant, Content: resp.Message.Content})
	return resp.Message.Content, nil
}

// StreamChat implements stream_chat (§4.5): streams tokens (and
// thinking, if the model supports it) to sink as they arrive, then
// appends the assembled assistant message to history.
func (c *Client) StreamChat(ctx context.Context, h *History, message string, sink func(events.Event)) (string, error) {
	h.Append(Message{Role: RoleUser, Content: message})

	req := c.buildRequest(h.Messages(), true, nil)

	var content strings.Builder
	err := c.doStream(ctx, req, func(chunk ollamaStreamChunk) {
		if chunk.Message.Thinking != "" {
			sink(events.Thinking(chunk.Message.Thinking))
		}
		if chunk.Message.Content != "" {
			content.WriteString(chunk.Message.Content)
			sink(events.Token(chunk.Message.Content))
		}
	})
	if err != nil {
		return "", err
	}

	reply := content.String()
	h.Append(Message{Role: RoleAssistant, Content: reply})
	return reply, nil
}

// ChatWithTools implements chat_with_tools (§4.5): sends history plus
// tool definitions for native tool-calling, without mutating history —
// the agent loop decides what (and whether) to append. When sink is
// non-nil the response is streamed, emitting Token/Thinking events as
// it arrives, so the agent loop's per-iteration algorithm can stream
// and detect native tool calls in the same round trip.
func (c *Client) ChatWithTools(ctx context.Context, h *History, tools []ToolDefinition, sink func(events.Event)) (ChatResult, error) {
	if sink == nil {
		req := c.buildRequest(h.Messages(), false, tools)
		resp, err := c.doChat(ctx, req)
		if err != nil {
			return ChatResult{}, err
		}
		return ChatResult{Content: resp.Message.Content, ToolCalls: toAgentToolCalls(resp.Message.ToolCalls)}, nil
	}

	req := c.buildRequest(h.Messages(), true, tools)
	var content strings.Builder
	var toolCalls []ollamaToolCall
	err := c.doStream(ctx, req, func(chunk ollamaStreamChunk) {
		if chunk.Message.Thinking != "" {
			sink(events.Thinking(chunk.Message.Thinking))
		}
		if chunk.Message.Content != "" {
			content.WriteString(chunk.Message.Content)
			sink(events.Token(chunk.Message.Content))
		}
		if len(chunk.Message.ToolCalls) > 0 {
			toolCalls = chunk.Message.ToolCalls
		}
	})
	if err != nil {
		return ChatResult{}, err
	}

	return ChatResult{Content: content.String(), ToolCalls: toAgentToolCalls(toolCalls)}, nil
}

func toAgentToolCalls(in []ollamaToolCall) []ToolCall {
	out := make([]ToolCall, len(in))
	for i, tc := range in {
		out[i] = ToolCall{Name: tc.Function.Name, Arguments: tc.Function.Arguments}
	}
	return out
}
