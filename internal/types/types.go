// Package types holds the shared data model for codedesk: conversations,
// context bags, agent requests/results, and the interfaces that break import
// cycles between the orchestrator, agents, and the model access layer.
package types

import (
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// AgentType identifies one of the three specialized agents.
type AgentType string

const (
	AgentChat      AgentType = "chat"
	AgentCode      AgentType = "code"
	AgentReasoning AgentType = "reasoning"
)

// Workflow names a strategy for sequencing agent calls.
type Workflow string

const (
	WorkflowAuto           Workflow = "auto"
	WorkflowChatFirst      Workflow = "chat-first"
	WorkflowCodeFirst      Workflow = "code-first"
	WorkflowReasoningFirst Workflow = "reasoning-first"
	WorkflowCollaborative  Workflow = "collaborative"
)

// KnownWorkflow reports whether w is a selectable workflow value
// ("auto" included).
func KnownWorkflow(w Workflow) bool {
	switch w {
	case WorkflowAuto, WorkflowChatFirst, WorkflowCodeFirst, WorkflowReasoningFirst, WorkflowCollaborative:
		return true
	default:
		return false
	}
}

// Context is the layered key-value bag carried through a workflow.
// Later layers may add or override keys; components forwarding a Context must
// treat unknown keys as opaque pass-through.
type Context map[string]any

// Clone returns a shallow copy. A nil Context clones to an empty one so
// callers can mutate the result without nil checks.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Merge overlays fragment onto a copy of c (later keys win) and returns the
// merged bag. Neither input is mutated.
func (c Context) Merge(fragment Context) Context {
	out := c.Clone()
	for k, v := range fragment {
		out[k] = v
	}
	return out
}

// GetString returns the string value for key, or "" when absent or not a
// string.
func (c Context) GetString(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

// Turn is one entry in a conversation's append-only history.
type Turn struct {
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Workflow  Workflow       `json:"workflow,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Conversation is the unit of chat continuity: an opaque id plus ordered
// turns. Turn order is append-only and reflects real processing order.
type Conversation struct {
	ID        string    `json:"id"`
	Turns     []Turn    `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecentTurns returns the last n turns without copying turn contents.
// The returned slice must be treated as read-only.
func (c *Conversation) RecentTurns(n int) []Turn {
	if n <= 0 || len(c.Turns) == 0 {
		return nil
	}
	if len(c.Turns) <= n {
		return c.Turns
	}
	return c.Turns[len(c.Turns)-n:]
}

// AgentRequest is the single input shape every agent accepts.
type AgentRequest struct {
	// Input is the user-visible request text. Required.
	Input string `json:"input"`

	// Conversation is a bounded read-only suffix of prior turns.
	Conversation []Turn `json:"conversation,omitempty"`

	// Context carries accumulated cross-call state.
	Context Context `json:"context,omitempty"`

	// Model optionally pins a registered model id; empty means the agent's
	// role default.
	Model string `json:"model,omitempty"`

	// Role specializes prompt assembly (e.g. "interpreter", "synthesizer").
	// Unrecognized values fall back to the agent's default preamble.
	Role string `json:"role,omitempty"`

	// Options are provider pass-through generation options.
	Options map[string]any `json:"options,omitempty"`
}

// AgentResult is the single output shape every agent produces.
// It is fully built before return; agents never hand back partial results.
type AgentResult struct {
	Response string         `json:"response"`
	Context  Context        `json:"context,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`

	// Delegation signals derived by the agent's classifier.
	NeedsCode           bool   `json:"needs_code,omitempty"`
	NeedsReasoning      bool   `json:"needs_reasoning,omitempty"`
	NeedsImplementation bool   `json:"needs_implementation,omitempty"`
	NeedsValidation     bool   `json:"needs_validation,omitempty"`
	FollowUpRequest     string `json:"follow_up_request,omitempty"`
}

// WorkflowResult is the orchestrator's response for one process call.
// Never mutated after return.
type WorkflowResult struct {
	Response       string       `json:"response"`
	Workflow       Workflow     `json:"workflow"`
	ConversationID string       `json:"conversation_id"`
	Metadata       WorkflowMeta `json:"metadata"`
	Timestamp      time.Time    `json:"timestamp"`
}

// WorkflowMeta records which agents ran and what each reported.
type WorkflowMeta struct {
	Workflow Workflow                  `json:"workflow"`
	Steps    []string                  `json:"steps"`
	Agents   map[string]map[string]any `json:"agents,omitempty"`
}

// MetricsSnapshot is a point-in-time copy of one agent's running counters.
type MetricsSnapshot struct {
	Agent             AgentType     `json:"agent"`
	TotalRequests     int64         `json:"total_requests"`
	SuccessRequests   int64         `json:"success_requests"`
	FailedRequests    int64         `json:"failed_requests"`
	TotalResponseTime time.Duration `json:"total_response_time"`
	AvgResponseTime   time.Duration `json:"avg_response_time"`
	Uptime            time.Duration `json:"uptime"`
}

// Usage captures token accounting from one generation.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Generation is the model access layer's uniform output. ModelID is the
// resolved concrete model, which may differ from the id the caller asked for.
type Generation struct {
	Text         string `json:"text"`
	ModelID      string `json:"model_id,omitempty"`
	Usage        Usage  `json:"usage"`
	FinishReason string `json:"finish_reason,omitempty"`
}
