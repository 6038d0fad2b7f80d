package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/binkshq/binks/pkg/cp"
)

// ToolsCmd implements `tools [--server NAME]` (§6): pool inspection.
type ToolsCmd struct {
	Server string `help:"Only list tools from this server."`
}

func (c *ToolsCmd) Run(cc *CommandContext) error {
	ctx := backgroundCtx()

	tools, err := cc.Pool.ListAllTools(ctx)
	if err != nil {
		return fmt.Errorf("listing tools: %w", err)
	}
	if c.Server != "" {
		filtered := tools[:0]
		for _, t := range tools {
			if t.ServerID == c.Server {
				filtered = append(filtered, t)
			}
		}
		tools = filtered
	}
	if len(tools) == 0 {
		fmt.Println("No tools found.")
		return nil
	}

	byServer := map[string][]cp.ToolDescriptor{}
	for _, t := range tools {
		byServer[t.ServerID] = append(byServer[t.ServerID], t)
	}
	servers := make([]string, 0, len(byServer))
	for s := range byServer {
		servers = append(servers, s)
	}
	sort.Strings(servers)

	for _, server := range servers {
		fmt.Printf("=== %s (%d tools) ===\n", server, len(byServer[server]))
		for _, t := range byServer[server] {
			desc := t.Description
			if desc == "" {
				desc = "(no description)"
			}
			fmt.Printf("  %s - %s\n", t.Name, desc)
		}
		fmt.Println()
	}
	return nil
}

// CallCmd implements `call TOOL [--args JSON]` (§6): direct invocation.
type CallCmd struct {
	Tool string `arg:"" help:"Tool name to call."`
	Args string `help:"JSON-encoded arguments object." default:"{}"`
}

func (c *CallCmd) Run(cc *CommandContext) error {
	ctx := backgroundCtx()

	var args map[string]any
	if err := json.Unmarshal([]byte(c.Args), &args); err != nil {
		return exitWith(2, fmt.Errorf("--args: invalid JSON: %w", err))
	}

	tools, err := cc.Pool.ListAllTools(ctx)
	if err != nil {
		return fmt.Errorf("listing tools: %w", err)
	}
	var server string
	for _, t := range tools {
		if t.Name == c.Tool {
			server = t.ServerID
			break
		}
	}
	if server == "" {
		return fmt.Errorf("tool %q not found", c.Tool)
	}

	result, err := cc.Pool.CallTool(ctx, server, c.Tool, args)
	if err != nil {
		return fmt.Errorf("calling %s: %w", c.Tool, err)
	}
	fmt.Println(result.Text())
	if result.IsError {
		return exitWith(1, fmt.Errorf("%s reported an error", c.Tool))
	}
	return nil
}
