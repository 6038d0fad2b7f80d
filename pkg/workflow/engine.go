package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var placeholderRe = regexp.MustCompile(`\{[A-Za-z0-9_]+\}`)

// substitute replaces {key} references in template with ctx[key],
// leaving unknown placeholders literal (§4.7's Agent step semantics).
func substitute(template string, ctx map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		if v, ok := ctx[key]; ok {
			return v
		}
		return match
	})
}

// outputKey derives the context key an agent step's result is written
// under, from the agent's name (§4.7: "a role-derived key, e.g. plan,
// changes, review, investigation").
func outputKey(agentName string) string {
	lower := strings.ToLower(agentName)
	switch {
	case strings.Contains(lower, "plan"):
		return "plan"
	case strings.Contains(lower, "review"):
		return "review"
	case strings.Contains(lower, "investigat"):
		return "investigation"
	case strings.Contains(lower, "implement"), strings.Contains(lower, "change"), strings.Contains(lower, "code"):
		return "changes"
	default:
		return lower
	}
}

// execution is one workflow's in-flight or terminal state, addressable
// by UUID.
type execution struct {
	mu      sync.Mutex
	id      string
	wf      *Workflow
	status  Status
	stepIdx int
	ctxVars map[string]string
	results []AgentResult
	errMsg  string
	start   time.Time
	elapsed time.Duration

	services AgentServices
	handler  CheckpointHandler
}

func (e *execution) snapshot() *WorkflowResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctxCopy := make(map[string]string, len(e.ctxVars))
	for k, v := range e.ctxVars {
		ctxCopy[k] = v
	}
	resultsCopy := make([]AgentResult, len(e.results))
	copy(resultsCopy, e.results)

	var finalOutput string
	if len(e.results) > 0 {
		finalOutput = e.results[len(e.results)-1].Result
	}

	elapsed := e.elapsed
	if e.status == StatusRunning {
		elapsed = time.Since(e.start)
	}

	return &WorkflowResult{
		WorkflowName:  e.wf.Name,
		Status:        e.status,
		FinalOutput:   finalOutput,
		Error:         e.errMsg,
		StepIndex:     e.stepIdx,
		Results:       resultsCopy,
		Context:       ctxCopy,
		ExecutionTime: elapsed,
	}
}

// Engine runs Workflow executions (§4.7).
type Engine struct {
	mu         sync.Mutex
	executions map[string]*execution
}

// NewEngine returns an empty Engine.
func NewEngine() *Engine {
	return &Engine{executions: make(map[string]*execution)}
}

// Start begins executing wf against services, running until it
// completes, fails, or reaches a checkpoint with no installed
// handler (in which case it pauses in waiting_for_approval and the
// caller must drive it onward with ResumeFromCheckpoint). The
// execution is addressable by its returned ID for its entire
// lifetime.
func (eng *Engine) Start(ctx context.Context, wf *Workflow, services AgentServices, handler CheckpointHandler) (string, *WorkflowResult, error) {
	if wf == nil {
		return "", nil, fmt.Errorf("workflow: wf must not be nil")
	}
	if services == nil {
		return "", nil, fmt.Errorf("workflow: services must not be nil")
	}

	ex := &execution{
		id:       uuid.NewString(),
		wf:       wf,
		status:   StatusRunning,
		ctxVars:  map[string]string{},
		start:    time.Now(),
		services: services,
		handler:  handler,
	}

	eng.mu.Lock()
	eng.executions[ex.id] = ex
	eng.mu.Unlock()

	eng.run(ctx, ex)
	return ex.id, ex.snapshot(), nil
}

// GetExecutionStatus returns the current state of a known execution.
func (eng *Engine) GetExecutionStatus(id string) (*WorkflowResult, error) {
	eng.mu.Lock()
	ex, ok := eng.executions[id]
	eng.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("workflow: unknown execution %q", id)
	}
	return ex.snapshot(), nil
}

// ResumeFromCheckpoint advances an execution sitting in
// waiting_for_approval. Calling it in any other status is an error
// (§4.7).
func (eng *Engine) ResumeFromCheckpoint(ctx context.Context, id string, approved bool, note string) (*WorkflowResult, error) {
	eng.mu.Lock()
	ex, ok := eng.executions[id]
	eng.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("workflow: unknown execution %q", id)
	}

	ex.mu.Lock()
	if ex.status != StatusWaitingForApproval {
		status := ex.status
		ex.mu.Unlock()
		return nil, fmt.Errorf("workflow: cannot resume execution %q in status %q", id, status)
	}
	if note != "" {
		ex.ctxVars[fmt.Sprintf("checkpoint_note_%d", ex.stepIdx)] = note
	}
	if !approved {
		ex.status = StatusCancelled
		ex.elapsed = time.Since(ex.start)
		ex.mu.Unlock()
		return ex.snapshot(), nil
	}
	ex.status = StatusRunning
	ex.stepIdx++
	ex.mu.Unlock()

	eng.run(ctx, ex)
	return ex.snapshot(), nil
}

// run drives ex forward from its current step until it completes,
// fails, or pauses at an unhandled checkpoint.
func (eng *Engine) run(ctx context.Context, ex *execution) {
	for {
		ex.mu.Lock()
		if ex.stepIdx >= len(ex.wf.Steps) {
			ex.status = StatusCompleted
			ex.elapsed = time.Since(ex.start)
			ex.mu.Unlock()
			return
		}
		step := ex.wf.Steps[ex.stepIdx]
		idx := ex.stepIdx
		ex.mu.Unlock()

		if err := ctx.Err(); err != nil {
			ex.mu.Lock()
			ex.status = StatusCancelled
			ex.errMsg = err.Error()
			ex.elapsed = time.Since(ex.start)
			ex.mu.Unlock()
			return
		}

		switch step.Kind {
		case StepAgent:
			if !eng.runAgentStep(ctx, ex, step, idx) {
				return
			}
		case StepCheckpoint:
			if !eng.runCheckpointStep(ctx, ex, step, idx) {
				return
			}
		default:
			ex.mu.Lock()
			ex.status = StatusFailed
			ex.errMsg = ErrUnsupportedStep.Error()
			ex.elapsed = time.Since(ex.start)
			ex.mu.Unlock()
			return
		}
	}
}

// runAgentStep executes one Agent step. Returns false if the run loop
// should stop (terminal status reached).
func (eng *Engine) runAgentStep(ctx context.Context, ex *execution, step Step, idx int) bool {
	ex.mu.Lock()
	ctxSnapshot := make(map[string]string, len(ex.ctxVars))
	for k, v := range ex.ctxVars {
		ctxSnapshot[k] = v
	}
	ex.mu.Unlock()

	task := substitute(step.TaskTemplate, ctxSnapshot)

	result, err := ex.services.ExecuteAgent(ctx, step.AgentName, task)

	ex.mu.Lock()
	defer ex.mu.Unlock()

	if err != nil || result == nil || !result.Success {
		ex.status = StatusFailed
		if err != nil {
			ex.errMsg = err.Error()
		} else if result != nil {
			ex.errMsg = result.Error
		} else {
			ex.errMsg = "agent step returned no result"
		}
		ex.elapsed = time.Since(ex.start)
		if result != nil {
			result.StepIndex = idx
			ex.results = append(ex.results, *result)
		}
		return false
	}

	result.StepIndex = idx
	ex.results = append(ex.results, *result)
	ex.ctxVars[outputKey(step.AgentName)] = result.Result
	ex.stepIdx = idx + 1
	return true
}

// runCheckpointStep executes one Checkpoint step. Returns false if the
// run loop should stop (paused for external resume, or cancelled).
func (eng *Engine) runCheckpointStep(ctx context.Context, ex *execution, step Step, idx int) bool {
	ex.mu.Lock()
	var shown any
	if step.Show != "" {
		shown = ex.ctxVars[step.Show]
	}
	handler := ex.handler
	ex.mu.Unlock()

	if handler == nil {
		ex.mu.Lock()
		ex.status = StatusWaitingForApproval
		ex.mu.Unlock()
		return false
	}

	decision, err := handler.HandleCheckpoint(ctx, step.Message, shown)

	ex.mu.Lock()
	defer ex.mu.Unlock()

	if err != nil {
		ex.status = StatusFailed
		ex.errMsg = err.Error()
		ex.elapsed = time.Since(ex.start)
		return false
	}
	if decision.Note != "" {
		ex.ctxVars[fmt.Sprintf("checkpoint_note_%d", idx)] = decision.Note
	}
	if !decision.Approved {
		ex.status = StatusCancelled
		ex.elapsed = time.Since(ex.start)
		return false
	}

	ex.stepIdx = idx + 1
	return true
}
