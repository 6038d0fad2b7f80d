package workflow

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// rawWorkflow and rawStep mirror the on-disk shape of one entry under
// the agent config's `workflows` section (decoded from the opaque
// map[string]any the core config loader leaves untouched).
type rawWorkflow struct {
	Steps []rawStep `mapstructure:"steps"`
}

type rawStep struct {
	Type         string `mapstructure:"type"`
	Agent        string `mapstructure:"agent"`
	TaskTemplate string `mapstructure:"task_template"`
	Model        string `mapstructure:"model"`
	Message      string `mapstructure:"message"`
	Show         string `mapstructure:"show"`
}

// Registry loads named Workflows from the agent config's opaque
// `workflows` section (§4.7 EXPANSION).
type Registry struct {
	workflows map[string]*Workflow
}

// NewRegistry decodes raw (the agent config's Workflows map) into a
// Registry of typed Workflow definitions.
func NewRegistry(raw map[string]any) (*Registry, error) {
	r := &Registry{workflows: make(map[string]*Workflow, len(raw))}

	for name, v := range raw {
		var rw rawWorkflow
		if err := mapstructure.Decode(v, &rw); err != nil {
			return nil, fmt.Errorf("workflow: decoding %q: %w", name, err)
		}

		wf := &Workflow{Name: name}
		for i, rs := range rw.Steps {
			step, err := toStep(rs)
			if err != nil {
				return nil, fmt.Errorf("workflow: %q step %d: %w", name, i, err)
			}
			wf.Steps = append(wf.Steps, step)
		}
		r.workflows[name] = wf
	}

	return r, nil
}

func toStep(rs rawStep) (Step, error) {
	switch rs.Type {
	case "agent", "":
		if rs.Agent == "" {
			return Step{}, fmt.Errorf("agent step missing 'agent'")
		}
		return Step{Kind: StepAgent, AgentName: rs.Agent, TaskTemplate: rs.TaskTemplate, Model: rs.Model}, nil
	case "checkpoint":
		if rs.Message == "" {
			return Step{}, fmt.Errorf("checkpoint step missing 'message'")
		}
		return Step{Kind: StepCheckpoint, Message: rs.Message, Show: rs.Show}, nil
	case "parallel":
		return Step{Kind: StepParallel}, nil
	case "branch":
		return Step{Kind: StepBranch}, nil
	default:
		return Step{}, fmt.Errorf("unknown step type %q", rs.Type)
	}
}

// Get returns the named workflow, or false if it isn't defined.
func (r *Registry) Get(name string) (*Workflow, bool) {
	wf, ok := r.workflows[name]
	return wf, ok
}

// Names returns every defined workflow name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.workflows))
	for name := range r.workflows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
