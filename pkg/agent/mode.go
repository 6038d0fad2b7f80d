package agent

// Kind discriminates a Mode variant (§4.8). Modes are passive: they
// only contribute a system-prompt suffix and a label, never altering
// the loop's tool-call contract.
type Kind string

const (
	KindNormal     Kind = "normal"
	KindPlan       Kind = "plan"
	KindImplement  Kind = "implement"
)

// Mode augments the agent loop's system prompt with a disposition
// suffix (§4.8).
type Mode struct {
	Kind Kind

	// Plan
	Context string
	Steps   []string

	// Implement
	Plan           string
	FilesModified  []string
}

// Normal is the default, unmodified mode.
func Normal() Mode { return Mode{Kind: KindNormal} }

// Plan constructs a planning-disposition mode.
func Plan(context string, steps []string) Mode {
	return Mode{Kind: KindPlan, Context: context, Steps: steps}
}

// Implement constructs an implementation-disposition mode.
func Implement(plan string, filesModified []string) Mode {
	return Mode{Kind: KindImplement, Plan: plan, FilesModified: filesModified}
}

// Label returns the short string shown on the prompt line.
func (m Mode) Label() string {
	switch m.Kind {
	case KindPlan:
		return "plan"
	case KindImplement:
		return "implement"
	default:
		return "normal"
	}
}

// PromptSuffix returns the textual addition appended to the system
// prompt for this mode, or "" for Normal.
func (m Mode) PromptSuffix() string {
	switch m.Kind {
	case KindPlan:
		suffix := "You are in planning mode: describe an approach rather than making changes."
		if m.Context != "" {
			suffix += " Context: " + m.Context
		}
		if len(m.Steps) > 0 {
			suffix += " Known steps so far:"
			for _, s := range m.Steps {
				suffix += " " + s + ";"
			}
		}
		return suffix
	case KindImplement:
		suffix := "You are in implementation mode: carry out the plan using the available tools."
		if m.Plan != "" {
			suffix += " Plan: " + m.Plan
		}
		if len(m.FilesModified) > 0 {
			suffix += " Files already modified:"
			for _, f := range m.FilesModified {
				suffix += " " + f + ";"
			}
		}
		return suffix
	default:
		return ""
	}
}
