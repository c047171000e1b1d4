package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AgentsConfig holds agent behavior configuration: step timeouts, the
// keyword sets and threshold the heuristic classifiers score against, and
// role preambles. Keyword sets are configuration, not code - a persona file
// can replace any of them without a rebuild.
type AgentsConfig struct {
	// StepTimeout bounds one agent's Process call.
	StepTimeout string `json:"step_timeout" yaml:"step_timeout"`

	// ClassifyThreshold is the score above which a category is "needed".
	// Score = matched keywords / total keywords in the category.
	ClassifyThreshold float64 `json:"classify_threshold" yaml:"classify_threshold"`

	// Workflow classification indicator sets (orchestrator-level).
	CodeIndicators      []string `json:"code_indicators" yaml:"code_indicators"`
	ReasoningIndicators []string `json:"reasoning_indicators" yaml:"reasoning_indicators"`

	// Per-agent delegation keyword sets.
	Keywords KeywordSets `json:"keywords" yaml:"keywords"`

	// Preambles maps "<agent>" and "<agent>:<role>" to system preambles.
	Preambles map[string]string `json:"preambles" yaml:"preambles"`
}

// KeywordSets are the fixed per-category keyword sets the agent classifiers
// score against.
type KeywordSets struct {
	NeedsCode           []string `json:"needs_code" yaml:"needs_code"`
	NeedsReasoning      []string `json:"needs_reasoning" yaml:"needs_reasoning"`
	NeedsImplementation []string `json:"needs_implementation" yaml:"needs_implementation"`
	NeedsValidation     []string `json:"needs_validation" yaml:"needs_validation"`
}

// StepTimeoutDuration parses the step timeout, defaulting to 30s.
func (a AgentsConfig) StepTimeoutDuration() time.Duration {
	return parseDuration(a.StepTimeout, 30*time.Second)
}

// Preamble resolves the system preamble for an agent and optional role.
// Falls back to the agent default when the role key is absent.
func (a AgentsConfig) Preamble(agent, role string) string {
	if role != "" {
		if p, ok := a.Preambles[agent+":"+role]; ok {
			return p
		}
	}
	return a.Preambles[agent]
}

// DefaultAgentsConfig returns the compiled-in agent behavior.
func DefaultAgentsConfig() AgentsConfig {
	return AgentsConfig{
		StepTimeout:       "30s",
		ClassifyThreshold: 0.3,
		CodeIndicators: []string{
			"write", "code", "function", "implement", "program", "script",
			"debug", "fix", "refactor", "compile", "bug",
		},
		ReasoningIndicators: []string{
			"explain", "why", "how", "analyze", "compare", "reason",
			"understand", "evaluate", "pros and cons",
		},
		Keywords: KeywordSets{
			NeedsCode: []string{
				"write", "create", "implement", "build", "code",
			},
			NeedsReasoning: []string{
				"explain", "why", "analyze", "compare", "understand",
			},
			NeedsImplementation: []string{
				"implement", "build", "code", "prototype", "example",
			},
			NeedsValidation: []string{
				"verify", "validate", "check", "test", "review",
			},
		},
		Preambles: map[string]string{
			"chat": "You are a friendly coding assistant. Answer conversationally and " +
				"adapt depth to the user's expertise. Be concise.",
			"chat:interpreter": "You are interpreting a user's request for a team of " +
				"specialized assistants. Restate what the user wants in plain terms and " +
				"surface any ambiguity.",
			"code": "You are an expert software engineer. Produce working, idiomatic " +
				"code with minimal prose. Use fenced code blocks.",
			"code:implementer": "You are the implementer on a team of assistants. " +
				"Produce the code a user request calls for; assume another assistant " +
				"handles the explanation.",
			"reasoning": "You are an analytical assistant. Think step by step and lay " +
				"out your reasoning clearly before the conclusion.",
			"reasoning:analyzer": "You are the analyzer on a team of assistants. Break " +
				"the request into its essential considerations and trade-offs.",
			"reasoning:synthesizer": "You are the synthesizer. You receive an " +
				"interpretation, an implementation, and an analysis of the same request. " +
				"Combine them into one coherent answer without losing substance.",
		},
	}
}

// Validate fills zero values and rejects nonsense.
func (a *AgentsConfig) Validate() error {
	if a.ClassifyThreshold <= 0 || a.ClassifyThreshold >= 1 {
		if a.ClassifyThreshold != 0 {
			return fmt.Errorf("classify_threshold must be in (0,1), got %v", a.ClassifyThreshold)
		}
		a.ClassifyThreshold = 0.3
	}
	def := DefaultAgentsConfig()
	if len(a.CodeIndicators) == 0 {
		a.CodeIndicators = def.CodeIndicators
	}
	if len(a.ReasoningIndicators) == 0 {
		a.ReasoningIndicators = def.ReasoningIndicators
	}
	if len(a.Keywords.NeedsCode) == 0 {
		a.Keywords = def.Keywords
	}
	if len(a.Preambles) == 0 {
		a.Preambles = def.Preambles
	}
	return nil
}

// LoadPersonaFile overlays a YAML persona file onto the agent config.
// Only non-empty fields in the file replace existing values.
func (a *AgentsConfig) LoadPersonaFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read persona file %s: %w", path, err)
	}

	var overlay AgentsConfig
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse persona file %s: %w", path, err)
	}

	if overlay.StepTimeout != "" {
		a.StepTimeout = overlay.StepTimeout
	}
	if overlay.ClassifyThreshold > 0 {
		a.ClassifyThreshold = overlay.ClassifyThreshold
	}
	if len(overlay.CodeIndicators) > 0 {
		a.CodeIndicators = overlay.CodeIndicators
	}
	if len(overlay.ReasoningIndicators) > 0 {
		a.ReasoningIndicators = overlay.ReasoningIndicators
	}
	if len(overlay.Keywords.NeedsCode) > 0 {
		a.Keywords.NeedsCode = overlay.Keywords.NeedsCode
	}
	if len(overlay.Keywords.NeedsReasoning) > 0 {
		a.Keywords.NeedsReasoning = overlay.Keywords.NeedsReasoning
	}
	if len(overlay.Keywords.NeedsImplementation) > 0 {
		a.Keywords.NeedsImplementation = overlay.Keywords.NeedsImplementation
	}
	if len(overlay.Keywords.NeedsValidation) > 0 {
		a.Keywords.NeedsValidation = overlay.Keywords.NeedsValidation
	}
	for k, v := range overlay.Preambles {
		if a.Preambles == nil {
			a.Preambles = make(map[string]string)
		}
		a.Preambles[k] = v
	}
	return a.Validate()
}
