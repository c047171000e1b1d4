package agent

import (
	"context"
	"strings"

	"codedesk/internal/config"
	"codedesk/internal/types"
)

// ReasoningAgent produces analysis. With Role "synthesizer" it instead
// combines the collaborative branch outputs carried in the context bag into
// one answer.
type ReasoningAgent struct {
	rt         *Runtime
	cfg        config.AgentsConfig
	classifier DelegationClassifier
}

// NewReasoningAgent wires a reasoning agent onto the shared model access layer.
func NewReasoningAgent(model types.ModelClient, cfg config.AgentsConfig) *ReasoningAgent {
	return &ReasoningAgent{
		rt:         NewRuntime(types.AgentReasoning, model, cfg.StepTimeoutDuration()),
		cfg:        cfg,
		classifier: NewKeywordClassifier(cfg),
	}
}

func (a *ReasoningAgent) Type() types.AgentType { return types.AgentReasoning }

func (a *ReasoningAgent) Metrics() types.MetricsSnapshot { return a.rt.Metrics() }

// Process analyzes one request.
func (a *ReasoningAgent) Process(ctx context.Context, req types.AgentRequest, requestID string) (types.AgentResult, error) {
	return a.rt.Do(ctx, requestID, func(ctx context.Context) (types.AgentResult, error) {
		if err := validateRequest(req, requestID); err != nil {
			return types.AgentResult{}, err
		}

		system := a.cfg.Preamble("reasoning", req.Role)
		prompt := a.buildPrompt(req)

		gen, err := a.rt.Generate(ctx, req.Model, system, prompt, req.Options)
		if err != nil {
			return types.AgentResult{}, err
		}

		response := normalizeResponse(gen.Text)
		sig := a.classifier.Classify(req.Input, response)

		out := types.Context{
			ctxKeyReasoningContext: summarize(response, 500),
		}

		return types.AgentResult{
			Response: response,
			Context:  out,
			Metadata: map[string]any{
				"model":         gen.ModelID,
				"finish_reason": gen.FinishReason,
				"tokens":        gen.Usage.TotalTokens,
				"role":          roleOrDefault(req.Role),
			},
			NeedsCode:           sig.NeedsCode,
			NeedsImplementation: sig.NeedsImplementation,
			FollowUpRequest:     sig.FollowUp,
		}, nil
	})
}

func (a *ReasoningAgent) buildPrompt(req types.AgentRequest) string {
	b := newPromptBuilder()
	if req.Role == "synthesizer" {
		// Branch outputs arrive through the context bag; the recap layers are
		// the material to synthesize, not background.
		b.addSection("Interpretation", req.Context.GetString(ctxKeyChatContext))
		b.addSection("Implementation", req.Context.GetString(ctxKeyCodeContext))
		b.addSection("Analysis", req.Context.GetString(ctxKeyReasoningContext))
		b.addInput(req.Input)
		return b.build()
	}
	b.addContext(req.Context)
	b.addConversation(req.Conversation)
	b.addInput(req.Input)
	return b.build()
}

func roleOrDefault(role string) string {
	role = strings.TrimSpace(role)
	if role == "" {
		return "default"
	}
	return role
}
