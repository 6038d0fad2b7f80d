package workflow

import "context"

// AgentServices is an external collaborator decoupling the engine
// from any concrete agent implementation (§4.7 EXPANSION, unchanged
// name and shape from the teacher's workflow.AgentServices).
type AgentServices interface {
	// ExecuteAgent runs agentName with task and returns its terminal
	// assistant text.
	ExecuteAgent(ctx context.Context, agentName, task string) (*AgentResult, error)

	// IsAgentAvailable reports whether agentName is known.
	IsAgentAvailable(agentName string) bool
}

// CheckpointDecision is a checkpoint handler's verdict.
type CheckpointDecision struct {
	Approved bool
	Note     string
}

// CheckpointHandler surfaces a Checkpoint step's (message, shown
// context value) to whatever mechanism decides approval — interactive,
// auto-approve, or reject (§4.7).
type CheckpointHandler interface {
	HandleCheckpoint(ctx context.Context, message string, shown any) (CheckpointDecision, error)
}

// AutoApprove always approves with no note. Useful for unattended runs
// and tests.
type AutoApprove struct{}

func (AutoApprove) HandleCheckpoint(context.Context, string, any) (CheckpointDecision, error) {
	return CheckpointDecision{Approved: true}, nil
}

// AutoReject always rejects. Useful for tests exercising the
// cancelled path.
type AutoReject struct{}

func (AutoReject) HandleCheckpoint(context.Context, string, any) (CheckpointDecision, error) {
	return CheckpointDecision{Approved: false}, nil
}
