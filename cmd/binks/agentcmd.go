package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/binkshq/binks/pkg/agent"
	"github.com/binkshq/binks/pkg/cp"
	"github.com/binkshq/binks/pkg/modelsize"
	"github.com/binkshq/binks/pkg/pool"
)

// AgentCmd implements `agent [MESSAGE] [--system] [--servers]` (§6):
// the tool-calling loop, single-shot when MESSAGE is given, an
// interactive REPL otherwise, grounded on
// original_source/agent/src/handlers/agent_handler.rs.
type AgentCmd struct {
	Message string `arg:"" optional:"" help:"Single message to send. Omit for an interactive session."`
	System  string `help:"Override the system prompt."`
	Servers string `help:"Comma-separated server names to restrict tools to. Overrides tier auto-filtering."`
}

func (c *AgentCmd) Run(cc *CommandContext) error {
	ctx := backgroundCtx()

	servers := resolveServerFilter(cc, c.Servers)
	var toolPool agent.ToolPool = cc.Pool
	if servers != nil {
		toolPool = &filteredPool{inner: toolPool, allowed: serverSet(servers)}
	}

	systemPrompt := c.System
	if systemPrompt == "" {
		systemPrompt = cc.AgentCfg.Defaults.SystemPrompt
	}

	ag := agent.New(agent.Config{
		LLM:               cc.LLM,
		Pool:              toolPool,
		Parser:            cc.Parser,
		SystemPrompt:      systemPrompt,
		Model:             cc.Model,
		MaxToolIterations: cc.AgentCfg.Defaults.MaxToolIterations,
		Sink:              streamSink(cc.Verbose),
	})

	if c.Message != "" {
		reply, err := ag.Chat(ctx, agent.Normal(), c.Message)
		if err != nil {
			return fmt.Errorf("agent: %w", err)
		}
		fmt.Println()
		fmt.Println(reply)
		return nil
	}

	return runREPL(ctx, ag)
}

// resolveServerFilter implements the CLI-override > tier-auto-filter >
// no-filter precedence of resolve_server_filter in agent_handler.rs.
func resolveServerFilter(cc *CommandContext, cliServers string) []string {
	if cliServers != "" {
		var out []string
		for _, s := range strings.Split(cliServers, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	autoFilter := true
	if cc.AgentCfg.Defaults.AutoFilterTier != nil {
		autoFilter = *cc.AgentCfg.Defaults.AutoFilterTier
	}
	if !autoFilter {
		return nil
	}

	thresholds := modelsize.Thresholds{
		Small:  cc.AgentCfg.Tiers.SmallMax,
		Medium: cc.AgentCfg.Tiers.MediumMax,
	}
	class := modelsize.Classify(cc.Model, thresholds)
	cap := class.DefaultTierCap()
	return pool.TierFilter(cc.Manifest.MCPServers, cap, nil)
}

func serverSet(names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}

// filteredPool restricts ListAllTools to an allowed set of server
// names while passing CallTool straight through.
type filteredPool struct {
	inner   agent.ToolPool
	allowed map[string]bool
}

func (f *filteredPool) ListAllTools(ctx context.Context) ([]cp.ToolDescriptor, error) {
	all, err := f.inner.ListAllTools(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, t := range all {
		if f.allowed[t.ServerID] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *filteredPool) CallTool(ctx context.Context, server, tool string, args map[string]any) (cp.ToolResult, error) {
	return f.inner.CallTool(ctx, server, tool, args)
}

// runREPL drives an interactive session over stdin/stdout, supporting
// /quit, /exit, and /clear as the only slash commands.
func runREPL(ctx context.Context, ag *agent.Agent) error {
	if !isTerminal(os.Stdin) {
		return fmt.Errorf("agent: no MESSAGE given and stdin is not a terminal; pass a message for non-interactive use")
	}

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Interactive agent session. Type /quit or /exit to leave, /clear to reset history.")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch line {
		case "/quit", "/exit":
			return nil
		case "/clear":
			ag.History().Clear()
			fmt.Println("history cleared.")
			continue
		}

		reply, err := ag.Chat(ctx, agent.Normal(), line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println()
		fmt.Println(reply)
	}
}
