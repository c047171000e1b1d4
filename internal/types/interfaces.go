package types

import (
	"context"
)

// Agent is the single capability every specialized agent exposes.
// Implementations must update their own metrics exactly once per call,
// never mutate the turns they are given, and either return a complete
// AgentResult or a typed error.
type Agent interface {
	Type() AgentType
	Process(ctx context.Context, req AgentRequest, requestID string) (AgentResult, error)
	Metrics() MetricsSnapshot
}

// ModelClient is the uniform text-generation capability the model access
// layer provides. modelID may be empty; the layer then resolves a role-based
// default.
type ModelClient interface {
	Generate(ctx context.Context, modelID, prompt string, opts GenerateOptions) (Generation, error)
}

// GenerateOptions are pass-through generation knobs.
type GenerateOptions struct {
	Role        AgentType      // used for default-model resolution
	System      string         // system preamble, prepended by the provider adapter
	MaxTokens   int            // 0 means provider default
	Temperature float64        // <0 means provider default
	Extra       map[string]any // provider-specific, opaque
}

// WorkflowClassifier maps raw input text to a workflow kind.
// It is a policy point: implementations may be swapped without touching
// orchestration logic, as long as every input maps to exactly one kind.
type WorkflowClassifier interface {
	Classify(input string, ctx Context) Workflow
}

// FileStore is the project-root-confined file capability the transport layer
// proxies to. Paths are always relative to the project root.
type FileStore interface {
	Read(relativePath string) (string, error)
	Write(relativePath, content string) error
	List(relativePath string) ([]string, error)
}
