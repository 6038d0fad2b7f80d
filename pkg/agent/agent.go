// Package agent implements the agent loop (C6): a tool-calling chat
// loop bounded by a configurable iteration cap, grounded on spec.md
// §4.6's per-iteration algorithm. It is deliberately independent of
// any concrete LLM backend or capability pool concretion — Config
// wires in the collaborators it needs (§4.5's LLM client, §4.3's
// pool, §4.2's parser registry, §4.8's event sink).
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/binkshq/binks/pkg/cp"
	"github.com/binkshq/binks/pkg/events"
	"github.com/binkshq/binks/pkg/llm"
	"github.com/binkshq/binks/pkg/parser"
)

// LLMClient is the subset of pkg/llm.Client the loop depends on.
type LLMClient interface {
	ChatWithTools(ctx context.Context, h *llm.History, tools []llm.ToolDefinition, sink func(events.Event)) (llm.ChatResult, error)
}

// ToolPool is the subset of pkg/pool.Pool the loop depends on.
type ToolPool interface {
	ListAllTools(ctx context.Context) ([]cp.ToolDescriptor, error)
	CallTool(ctx context.Context, server, tool string, args map[string]any) (cp.ToolResult, error)
}

// Config configures an Agent.
type Config struct {
	LLM    LLMClient
	Pool   ToolPool
	Parser *parser.Registry

	SystemPrompt      string
	Model             string
	MaxToolIterations int
	CallTimeout       time.Duration

	// Sink receives every emitted event. May be nil.
	Sink func(events.Event)

	// Recorder is called after every history append. Defaults to a
	// no-op when nil.
	Recorder ConversationRecorder
}

// Agent runs the tool-calling chat loop against a fixed set of
// collaborators (§4.6). The zero value is not usable; construct with
// New.
type Agent struct {
	cfg      Config
	history  *llm.History
	recorder ConversationRecorder
}

// New constructs an Agent. Its History is seeded with cfg.SystemPrompt.
func New(cfg Config) *Agent {
	if cfg.MaxToolIterations <= 0 {
		cfg.MaxToolIterations = 10
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = NoopRecorder{}
	}
	return &Agent{
		cfg:      cfg,
		history:  llm.NewHistory(cfg.SystemPrompt),
		recorder: recorder,
	}
}

// History returns the agent's conversation history.
func (a *Agent) History() *llm.History { return a.history }

// Chat implements the chat(user_msg) contract (§4.6): it runs an
// arbitrary number of tool-call iterations, bounded by
// cfg.MaxToolIterations, and returns the final assistant string.
func (a *Agent) Chat(ctx context.Context, mode Mode, userMsg string) (string, error) {
	a.appendAndRecord(ctx, llm.Message{Role: llm.RoleUser, Content: userMsg})

	for iteration := 0; iteration < a.cfg.MaxToolIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("agent: cancelled before iteration %d: %w", iteration, err)
		}

		toolDefs, toolServer, err := a.toolDefinitions(ctx)
		if err != nil {
			return "", fmt.Errorf("agent: listing tools: %w", err)
		}

		result, err := a.cfg.LLM.ChatWithTools(ctx, a.withModeSuffix(mode), toolDefs, a.cfg.Sink)
		if err != nil {
			return "", fmt.Errorf("agent: model invocation: %w", err)
		}

		calls := a.determineToolCalls(result)
		if len(calls) == 0 {
			a.appendAndRecord(ctx, llm.Message{Role: llm.RoleAssistant, Content: result.Content})
			return result.Content, nil
		}

		assistantMsg := llm.Message{Role: llm.RoleAssistant, Content: result.Content, ToolCalls: calls}
		a.appendAndRecord(ctx, assistantMsg)

		for _, call := range calls {
			if err := ctx.Err(); err != nil {
				return "", fmt.Errorf("agent: cancelled between tool calls: %w", err)
			}
			a.runToolCall(ctx, toolServer, call)
		}
	}

	return "", fmt.Errorf("agent: max_tool_iterations (%d) reached without a final answer", a.cfg.MaxToolIterations)
}

// withModeSuffix temporarily layers mode's prompt suffix onto the
// system prompt for one call. Modes never persist into history beyond
// their own turn's system message, matching §4.8's "passive" contract.
func (a *Agent) withModeSuffix(mode Mode) *llm.History {
	suffix := mode.PromptSuffix()
	if suffix == "" {
		return a.history
	}
	msgs := a.history.Messages()
	if len(msgs) == 0 || msgs[0].Role != llm.RoleSystem {
		return a.history
	}
	augmented := llm.NewHistory(msgs[0].Content + "\n\n" + suffix)
	for _, m := range msgs[1:] {
		augmented.Append(m)
	}
	return augmented
}

func (a *Agent) determineToolCalls(result llm.ChatResult) []llm.ToolCall {
	if len(result.ToolCalls) > 0 {
		return result.ToolCalls
	}
	parsed, ok := a.cfg.Parser.Parse(result.Content)
	if !ok {
		return nil
	}
	return []llm.ToolCall{{Name: parsed.Name, Arguments: parsed.Arguments}}
}

func (a *Agent) runToolCall(ctx context.Context, toolServer map[string]string, call llm.ToolCall) {
	id := call.ID
	if id == "" {
		id = uuid.NewString()
	}
	server := toolServer[call.Name]

	a.emit(events.ToolStart(id, call.Name, call.Arguments))
	start := time.Now()

	callCtx := ctx
	var cancel context.CancelFunc
	if a.cfg.CallTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, a.cfg.CallTimeout)
		defer cancel()
	}

	result, err := a.cfg.Pool.CallTool(callCtx, server, call.Name, call.Arguments)
	duration := time.Since(start)

	var content string
	isError := err != nil || result.IsError
	if err != nil {
		content = fmt.Sprintf("error: %v", err)
	} else {
		content = stringifyResult(result)
	}

	a.emit(events.ToolComplete(id, call.Name, content, duration, isError))

	a.appendAndRecord(ctx, llm.Message{Role: llm.RoleTool, Content: content, ToolCallID: id})
}

func stringifyResult(result cp.ToolResult) string {
	out := ""
	for i, part := range result.Content {
		if i > 0 {
			out += "\n"
		}
		if part.Type == "text" || part.Type == "" {
			out += part.Text
		} else {
			out += fmt.Sprintf("<%s: %+v>", part.Type, part)
		}
	}
	return out
}

// toolDefinitions builds the sanitised tool list offered to the model
// (only when its capabilities support native tool calling, per §4.6
// step 1) and a name->server dispatch map.
func (a *Agent) toolDefinitions(ctx context.Context) ([]llm.ToolDefinition, map[string]string, error) {
	if !llm.ModelCapabilitiesFor(a.cfg.Model).SupportsToolCalling {
		return nil, nil, nil
	}

	descriptors, err := a.cfg.Pool.ListAllTools(ctx)
	if err != nil {
		return nil, nil, err
	}

	defs := make([]llm.ToolDefinition, len(descriptors))
	toolServer := make(map[string]string, len(descriptors))
	for i, d := range descriptors {
		defs[i] = llm.ToolDefinition{Name: d.Name, Description: d.Description, Parameters: d.InputSchema}
		toolServer[d.Name] = d.ServerID
	}
	return defs, toolServer, nil
}

func (a *Agent) appendAndRecord(ctx context.Context, m llm.Message) {
	a.history.Append(m)
	_ = a.recorder.RecordTurn(ctx, ConversationMessage{Message: m})
}

func (a *Agent) emit(ev events.Event) {
	if a.cfg.Sink != nil {
		a.cfg.Sink(ev)
	}
}
