package config

import "fmt"

// ModelConfig configures one named Ollama-style model entry under the
// agent file config's models section.
type ModelConfig struct {
	BaseURL     string   `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Model       string   `yaml:"model,omitempty" json:"model,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTokens   int      `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
}

// SetDefaults fills in zero-valued fields with the package defaults.
func (m *ModelConfig) SetDefaults() {
	if m.BaseURL == "" {
		m.BaseURL = "http://localhost:11434"
	}
	if m.MaxTokens == 0 {
		m.MaxTokens = 4096
	}
}

// TierThresholds configures the model-size-class boundaries (§3).
type TierThresholds struct {
	SmallMax  int `yaml:"small_max,omitempty" json:"small_max,omitempty"`
	MediumMax int `yaml:"medium_max,omitempty" json:"medium_max,omitempty"`
}

// SetDefaults applies the spec default thresholds (8B, 32B).
func (t *TierThresholds) SetDefaults() {
	if t.SmallMax == 0 {
		t.SmallMax = 8
	}
	if t.MediumMax == 0 {
		t.MediumMax = 32
	}
}

// AgentDefaults holds agent-loop defaults consumed directly by the
// core (everything else in the agent file config is opaque).
type AgentDefaults struct {
	SystemPrompt      string `yaml:"system_prompt,omitempty" json:"system_prompt,omitempty"`
	MaxToolIterations int    `yaml:"max_tool_iterations,omitempty" json:"max_tool_iterations,omitempty"`
	Model             string `yaml:"model,omitempty" json:"model,omitempty"`
	AutoFilterTier    *bool  `yaml:"auto_filter_tier,omitempty" json:"auto_filter_tier,omitempty"`
}

// SetDefaults applies spec defaults (max_tool_iterations = 10).
func (d *AgentDefaults) SetDefaults() {
	if d.MaxToolIterations == 0 {
		d.MaxToolIterations = 10
	}
	if d.AutoFilterTier == nil {
		on := true
		d.AutoFilterTier = &on
	}
}

// AgentConfig is the agent file config: models, agent defaults, tier
// thresholds, and opaque sections (profiles, workflows, monitor) the
// core never interprets itself but makes available to collaborators
// (pkg/workflow reads Workflows to build its registry).
type AgentConfig struct {
	Models     map[string]ModelConfig `yaml:"models,omitempty" json:"models,omitempty"`
	Defaults   AgentDefaults          `yaml:"defaults,omitempty" json:"defaults,omitempty"`
	Tiers      TierThresholds         `yaml:"tiers,omitempty" json:"tiers,omitempty"`
	Profiles   map[string]any         `yaml:"profiles,omitempty" json:"profiles,omitempty"`
	Workflows  map[string]any         `yaml:"workflows,omitempty" json:"workflows,omitempty"`
	Monitor    map[string]any         `yaml:"monitor,omitempty" json:"monitor,omitempty"`
}

// SetDefaults recursively applies defaults to every nested section the
// core interprets directly.
func (c *AgentConfig) SetDefaults() {
	c.Defaults.SetDefaults()
	c.Tiers.SetDefaults()
	for name, m := range c.Models {
		m.SetDefaults()
		c.Models[name] = m
	}
}

// Validate checks referential integrity the core depends on (e.g. the
// default model, if named, must exist).
func (c *AgentConfig) Validate() error {
	if c.Defaults.Model != "" {
		if _, ok := c.Models[c.Defaults.Model]; !ok {
			return fmt.Errorf("default model %q is not defined under models", c.Defaults.Model)
		}
	}
	if c.Defaults.MaxToolIterations < 0 {
		return fmt.Errorf("max_tool_iterations must be >= 0")
	}
	return nil
}
