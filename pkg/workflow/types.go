// Package workflow implements the workflow engine (C7): an ordered
// list of steps executed against an external AgentServices collaborator,
// producing a resumable, UUID-addressable execution (§4.7).
package workflow

import (
	"errors"
	"time"
)

// Status is a workflow execution's top-level state (§4.7's state
// machine).
type Status string

const (
	StatusNew                Status = "new"
	StatusRunning            Status = "running"
	StatusWaitingForApproval Status = "waiting_for_approval"
	StatusCompleted          Status = "completed"
	StatusFailed             Status = "failed"
	StatusCancelled          Status = "cancelled"
)

// StepKind discriminates a Step variant.
type StepKind string

const (
	StepAgent      StepKind = "agent"
	StepCheckpoint StepKind = "checkpoint"
	StepParallel   StepKind = "parallel"
	StepBranch     StepKind = "branch"
)

// Step is one entry of a Workflow's ordered step list (§4.7). Only
// Agent and Checkpoint are implemented by the core; Parallel and
// Branch are reserved — present in the data model, rejected by the
// engine with ErrUnsupportedStep.
type Step struct {
	Kind StepKind

	// StepAgent
	AgentName    string
	TaskTemplate string
	Model        string

	// StepCheckpoint
	Message string
	Show    string // context key surfaced alongside Message, optional
}

// Workflow is an ordered list of steps with a name.
type Workflow struct {
	Name  string
	Steps []Step
}

// ErrUnsupportedStep is returned by the engine when it encounters a
// reserved step kind (Parallel, Branch).
var ErrUnsupportedStep = errors.New("workflow: step kind not implemented by this engine")

// AgentResult is one agent step's outcome (§4.7's EXPANSION — duration
// and token-usage metadata carried even though token accounting itself
// is out of scope; unknown fields are populated with zero values
// rather than omitted).
type AgentResult struct {
	AgentName  string
	StepIndex  int
	Result     string
	Success    bool
	Error      string
	Duration   time.Duration
	TokensUsed int
	Timestamp  time.Time
}

// WorkflowResult is a completed (or failed/cancelled) execution's
// outcome.
type WorkflowResult struct {
	WorkflowName  string
	Status        Status
	FinalOutput   string
	Error         string
	StepIndex     int
	Results       []AgentResult
	Context       map[string]string
	ExecutionTime time.Duration
	TotalTokens   int
}
