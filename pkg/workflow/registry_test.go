package workflow

import "testing"

func TestNewRegistryDecodesAgentAndCheckpointSteps(t *testing.T) {
	raw := map[string]any{
		"ship-feature": map[string]any{
			"steps": []any{
				map[string]any{"type": "agent", "agent": "planner", "task_template": "plan: {input}"},
				map[string]any{"type": "checkpoint", "message": "approve?", "show": "plan"},
				map[string]any{"type": "agent", "agent": "implementer", "task_template": "do: {plan}"},
			},
		},
	}

	r, err := NewRegistry(raw)
	if err != nil {
		t.Fatalf("NewRegistry() = %v", err)
	}

	wf, ok := r.Get("ship-feature")
	if !ok {
		t.Fatal("expected ship-feature to be registered")
	}
	if len(wf.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(wf.Steps))
	}
	if wf.Steps[0].Kind != StepAgent || wf.Steps[0].AgentName != "planner" {
		t.Fatalf("unexpected step 0: %+v", wf.Steps[0])
	}
	if wf.Steps[1].Kind != StepCheckpoint || wf.Steps[1].Show != "plan" {
		t.Fatalf("unexpected step 1: %+v", wf.Steps[1])
	}
}

func TestNewRegistryRejectsUnknownStepType(t *testing.T) {
	raw := map[string]any{
		"broken": map[string]any{
			"steps": []any{map[string]any{"type": "teleport"}},
		},
	}
	if _, err := NewRegistry(raw); err == nil {
		t.Fatal("expected an error for an unknown step type")
	}
}

func TestNewRegistryRejectsAgentStepMissingAgentName(t *testing.T) {
	raw := map[string]any{
		"broken": map[string]any{
			"steps": []any{map[string]any{"type": "agent", "task_template": "x"}},
		},
	}
	if _, err := NewRegistry(raw); err == nil {
		t.Fatal("expected an error for a missing agent name")
	}
}

func TestRegistryNamesAreSorted(t *testing.T) {
	raw := map[string]any{
		"zzz": map[string]any{"steps": []any{}},
		"aaa": map[string]any{"steps": []any{}},
	}
	r, err := NewRegistry(raw)
	if err != nil {
		t.Fatalf("NewRegistry() = %v", err)
	}
	names := r.Names()
	if len(names) != 2 || names[0] != "aaa" || names[1] != "zzz" {
		t.Fatalf("unexpected names: %+v", names)
	}
}
