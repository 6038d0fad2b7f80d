package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"golang.org/x/term"

	"github.com/binkshq/binks/pkg/agent"
	"github.com/binkshq/binks/pkg/llm"
	"github.com/binkshq/binks/pkg/workflow"
)

// WorkflowCmd implements the `workflow` family (§6), grounded on
// original_source/agent/src/handlers/workflow.rs. Unlike that source's
// stubbed-out `agents` handler, spec.md §6 requires it as a real,
// working command here.
type WorkflowCmd struct {
	List   WorkflowListCmd   `cmd:"" help:"List every registered workflow."`
	Show   WorkflowShowCmd   `cmd:"" help:"Show one workflow's steps."`
	Run    WorkflowRunCmd    `cmd:"" help:"Run a workflow against a task."`
	Agents WorkflowAgentsCmd `cmd:"" help:"List registered agent profiles."`
}

// agentProfile is the decoded shape of one entry under the agent
// config's opaque Profiles map — a named agent a workflow's agent
// steps can dispatch to.
type agentProfile struct {
	Model        string `mapstructure:"model"`
	SystemPrompt string `mapstructure:"system_prompt"`
}

func decodeProfiles(raw map[string]any) (map[string]agentProfile, error) {
	out := make(map[string]agentProfile, len(raw))
	for name, v := range raw {
		var p agentProfile
		if err := mapstructure.Decode(v, &p); err != nil {
			return nil, fmt.Errorf("decoding agent profile %q: %w", name, err)
		}
		out[name] = p
	}
	return out, nil
}

// WorkflowListCmd implements `workflow list`.
type WorkflowListCmd struct{}

func (c *WorkflowListCmd) Run(cc *CommandContext) error {
	reg, err := workflow.NewRegistry(cc.AgentCfg.Workflows)
	if err != nil {
		return err
	}
	names := reg.Names()
	if len(names) == 0 {
		fmt.Println("No workflows configured.")
		return nil
	}
	fmt.Println("Available workflows:")
	fmt.Println()
	for _, name := range names {
		wf, _ := reg.Get(name)
		fmt.Printf("  %s\n", name)
		fmt.Printf("    Steps: %d\n", len(wf.Steps))
	}
	return nil
}

// WorkflowShowCmd implements `workflow show NAME`.
type WorkflowShowCmd struct {
	Name string `arg:"" help:"Workflow name."`
}

func (c *WorkflowShowCmd) Run(cc *CommandContext) error {
	reg, err := workflow.NewRegistry(cc.AgentCfg.Workflows)
	if err != nil {
		return err
	}
	wf, ok := reg.Get(c.Name)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: workflow %q not found\n\n", c.Name)
		fmt.Fprintln(os.Stderr, "Available workflows:")
		for _, name := range reg.Names() {
			fmt.Fprintf(os.Stderr, "  %s\n", name)
		}
		return exitWith(1, fmt.Errorf("workflow %q not found", c.Name))
	}

	fmt.Printf("Workflow: %s\n\n", wf.Name)
	fmt.Printf("Total steps: %d\n\n", len(wf.Steps))
	for i, s := range wf.Steps {
		switch s.Kind {
		case workflow.StepAgent:
			fmt.Printf("  %d. agent %s: %s\n", i+1, s.AgentName, s.TaskTemplate)
		case workflow.StepCheckpoint:
			fmt.Printf("  %d. checkpoint: %s\n", i+1, s.Message)
		default:
			fmt.Printf("  %d. %v\n", i+1, s.Kind)
		}
	}
	fmt.Println()
	fmt.Printf("Run with: binks workflow run %s --task \"<your task description>\"\n", wf.Name)
	return nil
}

// WorkflowRunCmd implements `workflow run NAME --task T [--non-interactive]`.
type WorkflowRunCmd struct {
	Name           string `arg:"" help:"Workflow name."`
	Task           string `required:"" help:"Task description used as the task of every agent step that has no task template."`
	NonInteractive bool   `help:"Auto-approve every checkpoint instead of prompting."`
}

func (c *WorkflowRunCmd) Run(cc *CommandContext) error {
	ctx := backgroundCtx()

	reg, err := workflow.NewRegistry(cc.AgentCfg.Workflows)
	if err != nil {
		return err
	}
	wf, ok := reg.Get(c.Name)
	if !ok {
		return exitWith(1, fmt.Errorf("workflow %q not found", c.Name))
	}

	profiles, err := decodeProfiles(cc.AgentCfg.Profiles)
	if err != nil {
		return err
	}
	services := &cliAgentServices{cc: cc, profiles: profiles}

	var handler workflow.CheckpointHandler = &interactiveCheckpointHandler{}
	if c.NonInteractive {
		handler = workflow.AutoApprove{}
	}

	fmt.Printf("Running workflow %q with task: %s\n\n", c.Name, c.Task)

	eng := workflow.NewEngine()
	_, result, err := eng.Start(ctx, &workflow.Workflow{Name: wf.Name, Steps: withSeedTask(wf.Steps, c.Task)}, services, handler)
	if err != nil {
		return err
	}

	return reportWorkflowResult(result)
}

// withSeedTask sets the CLI's --task as the TaskTemplate of every agent
// step whose TaskTemplate is empty. Steps that already have a
// TaskTemplate are left unchanged, and the task is not added to the
// workflow context, so their placeholders cannot refer to it.
func withSeedTask(steps []workflow.Step, task string) []workflow.Step {
	out := make([]workflow.Step, len(steps))
	copy(out, steps)
	for i, s := range out {
		if s.Kind == workflow.StepAgent && s.TaskTemplate == "" {
			s.TaskTemplate = task
			out[i] = s
		}
	}
	return out
}

func reportWorkflowResult(result *workflow.WorkflowResult) error {
	switch result.Status {
	case workflow.StatusCompleted:
		fmt.Println("Workflow completed successfully!")
		if result.FinalOutput != "" {
			fmt.Println()
			fmt.Println("Final output:")
			fmt.Println(result.FinalOutput)
		}
		return nil
	case workflow.StatusFailed:
		return exitWith(1, fmt.Errorf("workflow failed: %s", result.Error))
	case workflow.StatusCancelled:
		return exitWith(1, fmt.Errorf("workflow cancelled at checkpoint"))
	default:
		return exitWith(1, fmt.Errorf("workflow ended in unexpected status %q", result.Status))
	}
}

// WorkflowAgentsCmd implements `workflow agents`: lists the agent
// profiles workflow steps may dispatch to.
type WorkflowAgentsCmd struct{}

func (c *WorkflowAgentsCmd) Run(cc *CommandContext) error {
	profiles, err := decodeProfiles(cc.AgentCfg.Profiles)
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Println("No agent profiles configured.")
		return nil
	}
	fmt.Println("Registered agent profiles:")
	fmt.Println()
	for _, name := range sortedKeys(profiles) {
		p := profiles[name]
		model := p.Model
		if model == "" {
			model = cc.Model
		}
		fmt.Printf("  %s (model: %s)\n", name, model)
	}
	return nil
}

func sortedKeys(m map[string]agentProfile) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// cliAgentServices implements workflow.AgentServices by building an
// ephemeral *agent.Agent per profile and running a single Chat call
// per dispatch (§4.7 EXPANSION: the opaque Profiles map is bridged to
// AgentServices only at this layer, kept out of pkg/workflow itself).
type cliAgentServices struct {
	cc       *CommandContext
	profiles map[string]agentProfile
}

func (s *cliAgentServices) IsAgentAvailable(agentName string) bool {
	_, ok := s.profiles[agentName]
	return ok
}

func (s *cliAgentServices) ExecuteAgent(ctx context.Context, agentName, task string) (*workflow.AgentResult, error) {
	profile, ok := s.profiles[agentName]
	if !ok {
		return nil, fmt.Errorf("workflow: agent profile %q not configured", agentName)
	}

	model := profile.Model
	if model == "" {
		model = s.cc.Model
	}
	systemPrompt := profile.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = s.cc.AgentCfg.Defaults.SystemPrompt
	}

	llmClient := s.cc.LLM
	if model != s.cc.Model {
		llmClient = llm.New(llmConfigFor(model, s.cc.OllamaURL, s.cc.AgentCfg))
	}

	ag := agent.New(agent.Config{
		LLM:               llmClient,
		Pool:              s.cc.Pool,
		Parser:            s.cc.Parser,
		SystemPrompt:      systemPrompt,
		Model:             model,
		MaxToolIterations: s.cc.AgentCfg.Defaults.MaxToolIterations,
		Sink:              streamSink(s.cc.Verbose),
	})

	start := time.Now()
	reply, err := ag.Chat(ctx, agent.Normal(), task)
	duration := time.Since(start)
	if err != nil {
		return &workflow.AgentResult{
			AgentName: agentName,
			Success:   false,
			Error:     err.Error(),
			Duration:  duration,
			Timestamp: start,
		}, err
	}
	return &workflow.AgentResult{
		AgentName: agentName,
		Result:    reply,
		Success:   true,
		Duration:  duration,
		Timestamp: start,
	}, nil
}

// interactiveCheckpointHandler prompts the operator on stdin/stdout
// for each checkpoint, matching the non-interactive mode's auto-approve
// counterpart.
type interactiveCheckpointHandler struct{}

func (h *interactiveCheckpointHandler) HandleCheckpoint(ctx context.Context, message string, shown any) (workflow.CheckpointDecision, error) {
	fmt.Println()
	fmt.Println("Workflow paused at checkpoint - approval needed")
	fmt.Printf("%s\n", message)
	if shown != nil {
		fmt.Printf("%v\n", shown)
	}
	if !isTerminal(os.Stdin) {
		return workflow.CheckpointDecision{}, fmt.Errorf("stdin is not a terminal; rerun with --non-interactive to auto-approve checkpoints")
	}
	fmt.Print("Approve? [y/N] ")

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return workflow.CheckpointDecision{Approved: false}, scanner.Err()
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return workflow.CheckpointDecision{Approved: answer == "y" || answer == "yes"}, nil
}

// isTerminal reports whether f is attached to an interactive terminal,
// grounded on the teacher's pkg/cli/approval.go isTerminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
