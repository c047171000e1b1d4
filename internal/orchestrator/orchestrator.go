// Package orchestrator is the engine's top-level entry point: it classifies
// a request into a workflow, runs the chosen strategy across the chat, code,
// and reasoning agents, and records the exchange in the conversation store.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"codedesk/internal/config"
	"codedesk/internal/contextmgr"
	"codedesk/internal/conversation"
	"codedesk/internal/logging"
	"codedesk/internal/types"
)

// Orchestrator composes the agents, conversation store, and context manager.
// It is the only writer to the conversation store.
type Orchestrator struct {
	agents     map[types.AgentType]types.Agent
	store      *conversation.Store
	contexts   *contextmgr.Manager
	classifier types.WorkflowClassifier
	history    int
}

// Options configure construction beyond the required collaborators.
type Options struct {
	// Classifier replaces the default keyword heuristic.
	Classifier types.WorkflowClassifier

	// HistoryWindow caps how many trailing turns agents see. Defaults to the
	// conversation config default.
	HistoryWindow int
}

// New wires an orchestrator. All three agents must be present.
func New(agents []types.Agent, store *conversation.Store, contexts *contextmgr.Manager, agentCfg config.AgentsConfig, opts Options) (*Orchestrator, error) {
	byType := make(map[types.AgentType]types.Agent, len(agents))
	for _, a := range agents {
		byType[a.Type()] = a
	}
	for _, required := range []types.AgentType{types.AgentChat, types.AgentCode, types.AgentReasoning} {
		if _, ok := byType[required]; !ok {
			return nil, types.NewError(types.ErrCodeInternal, "", "missing %s agent", required)
		}
	}

	classifier := opts.Classifier
	if classifier == nil {
		classifier = NewHeuristicClassifier(agentCfg)
	}
	history := opts.HistoryWindow
	if history <= 0 {
		history = 10
	}

	return &Orchestrator{
		agents:     byType,
		store:      store,
		contexts:   contexts,
		classifier: classifier,
		history:    history,
	}, nil
}

// ProcessRequest is the single input shape for Process.
type ProcessRequest struct {
	Input          string            `json:"input"`
	ConversationID string            `json:"conversation_id,omitempty"`
	Context        types.Context     `json:"context,omitempty"`
	Workflow       types.Workflow    `json:"workflow,omitempty"`
	ModelOverrides map[string]string `json:"model_overrides,omitempty"`
}

// Process runs one request through workflow classification and execution.
// On success exactly two turns (user, assistant) are appended to the
// conversation; on failure none are.
func (o *Orchestrator) Process(ctx context.Context, req ProcessRequest) (types.WorkflowResult, error) {
	requestID := uuid.NewString()

	if strings.TrimSpace(req.Input) == "" {
		return types.WorkflowResult{}, types.NewError(types.ErrCodeInvalidRequest, requestID, "input must be non-empty")
	}

	selector := req.Workflow
	if selector == "" {
		selector = types.WorkflowAuto
	}
	if !types.KnownWorkflow(selector) {
		return types.WorkflowResult{}, types.NewError(types.ErrCodeUnknownWorkflow, requestID, "unknown workflow %q", req.Workflow)
	}

	timer := logging.StartTimer(logging.CategoryOrchestrator, "process "+requestID)
	defer timer.StopWithThreshold(10 * time.Second)

	var result types.WorkflowResult

	err := o.store.WithLock(req.ConversationID, func(conv *types.Conversation, appendTurns func(...types.Turn)) error {
		// Accumulated context first, the caller's fragment layered on top.
		bag := o.contexts.Update(conv.ID, req.Context)
		bag = bag.Merge(types.Context{"conversationId": conv.ID})

		workflow := selector
		if workflow == types.WorkflowAuto {
			workflow = o.classifier.Classify(req.Input, bag)
		}
		logging.Orchestrator("process req=%s conv=%s workflow=%s", requestID, conv.ID, workflow)

		turns := conv.RecentTurns(o.history)

		var trace *stepTrace
		var err error
		switch workflow {
		case types.WorkflowChatFirst:
			trace, err = o.runChatFirst(ctx, requestID, req.Input, turns, bag, req.ModelOverrides)
		case types.WorkflowCodeFirst:
			trace, err = o.runCodeFirst(ctx, requestID, req.Input, turns, bag, req.ModelOverrides)
		case types.WorkflowReasoningFirst:
			trace, err = o.runReasoningFirst(ctx, requestID, req.Input, turns, bag, req.ModelOverrides)
		case types.WorkflowCollaborative:
			trace, err = o.runCollaborative(ctx, requestID, req.Input, turns, bag, req.ModelOverrides)
		default:
			err = types.NewError(types.ErrCodeUnknownWorkflow, requestID, "unknown workflow %q", workflow)
		}
		if err != nil {
			return err
		}

		response := trace.combined()
		meta := types.WorkflowMeta{
			Workflow: workflow,
			Steps:    trace.steps,
			Agents:   trace.agents,
		}

		o.contexts.Update(conv.ID, trace.fragment)

		now := time.Now()
		appendTurns(
			types.Turn{Role: types.RoleUser, Content: req.Input, Timestamp: now},
			types.Turn{
				Role:      types.RoleAssistant,
				Content:   response,
				Timestamp: now,
				Workflow:  workflow,
				Metadata:  map[string]any{"steps": trace.steps, "request_id": requestID},
			},
		)

		result = types.WorkflowResult{
			Response:       response,
			Workflow:       workflow,
			ConversationID: conv.ID,
			Metadata:       meta,
			Timestamp:      now,
		}
		return nil
	})
	if err != nil {
		logging.Get(logging.CategoryOrchestrator).Error("process req=%s failed: %v", requestID, err)
		return types.WorkflowResult{}, err
	}
	return result, nil
}

// CreateConversation registers a conversation, seeding its context when an
// initial fragment is given.
func (o *Orchestrator) CreateConversation(initial types.Context) string {
	conv := o.store.Create("")
	if len(initial) > 0 {
		o.contexts.Update(conv.ID, initial)
	}
	return conv.ID
}

// GetConversation returns a copy of the conversation, or NotFound.
func (o *Orchestrator) GetConversation(id string) (*types.Conversation, error) {
	return o.store.Get(id)
}

// ListConversations returns known ids, most recently updated first.
func (o *Orchestrator) ListConversations() []string {
	return o.store.List()
}

// InvokeAgent runs one agent directly, bypassing workflow orchestration.
// The conversation store is not touched.
func (o *Orchestrator) InvokeAgent(ctx context.Context, agentType types.AgentType, req types.AgentRequest) (types.AgentResult, error) {
	requestID := uuid.NewString()
	ag, ok := o.agents[agentType]
	if !ok {
		return types.AgentResult{}, types.NewError(types.ErrCodeInvalidRequest, requestID, "unknown agent type %q", agentType)
	}
	return ag.Process(ctx, req, requestID)
}

// UpdateContext shallow-merges a fragment into the conversation's context.
func (o *Orchestrator) UpdateContext(conversationID string, fragment types.Context) types.Context {
	return o.contexts.Update(conversationID, fragment)
}

// GetContext returns a copy of the conversation's accumulated context.
func (o *Orchestrator) GetContext(conversationID string) types.Context {
	return o.contexts.Get(conversationID)
}

// Health is the aggregated engine snapshot.
type Health struct {
	Agents        []types.MetricsSnapshot `json:"agents"`
	Conversations int                     `json:"conversations"`
	Contexts      int                     `json:"contexts"`
}

// Snapshot gathers per-agent metrics and store counts.
func (o *Orchestrator) Snapshot() Health {
	h := Health{
		Conversations: o.store.Count(),
		Contexts:      o.contexts.Count(),
	}
	for _, t := range []types.AgentType{types.AgentChat, types.AgentCode, types.AgentReasoning} {
		if ag, ok := o.agents[t]; ok {
			h.Agents = append(h.Agents, ag.Metrics())
		}
	}
	return h
}
