package agent

import (
	"context"
	"fmt"
	"strings"

	"codedesk/internal/config"
	"codedesk/internal/logging"
	"codedesk/internal/types"
)

// ChatAgent is the conversational entry point. Beyond answering, it owns the
// user profile and per-conversation context extraction, and emits delegation
// signals that the orchestrator acts on.
type ChatAgent struct {
	rt         *Runtime
	cfg        config.AgentsConfig
	classifier DelegationClassifier
	profiles   *profileStore
}

// NewChatAgent wires a chat agent onto the shared model access layer.
func NewChatAgent(model types.ModelClient, cfg config.AgentsConfig) *ChatAgent {
	return &ChatAgent{
		rt:         NewRuntime(types.AgentChat, model, cfg.StepTimeoutDuration()),
		cfg:        cfg,
		classifier: NewKeywordClassifier(cfg),
		profiles:   newProfileStore(),
	}
}

func (a *ChatAgent) Type() types.AgentType { return types.AgentChat }

func (a *ChatAgent) Metrics() types.MetricsSnapshot { return a.rt.Metrics() }

// Process answers one chat request. The profile update happens before the
// model call so the prompt already reflects this turn's signals.
func (a *ChatAgent) Process(ctx context.Context, req types.AgentRequest, requestID string) (types.AgentResult, error) {
	return a.rt.Do(ctx, requestID, func(ctx context.Context) (types.AgentResult, error) {
		if err := validateRequest(req, requestID); err != nil {
			return types.AgentResult{}, err
		}

		userID := req.Context.GetString(ctxKeyUserID)
		profile := a.profiles.observe(userID, req.Input)

		convID := req.Context.GetString(ctxKeyConversationID)
		convCtx := a.profiles.observeConversation(convID, req.Input)

		system := a.cfg.Preamble("chat", req.Role)
		prompt := a.buildPrompt(req, profile, convCtx)

		gen, err := a.rt.Generate(ctx, req.Model, system, prompt, req.Options)
		if err != nil {
			return types.AgentResult{}, err
		}

		response := normalizeResponse(gen.Text)
		if profile.Expertise == ExpertiseBeginner && req.Role == "" {
			response = appendBeginnerTip(response)
		}

		sig := a.classifier.Classify(req.Input, response)
		logging.AgentDebug("[chat] req=%s signals code=%v reasoning=%v impl=%v", requestID, sig.NeedsCode, sig.NeedsReasoning, sig.NeedsImplementation)

		out := types.Context{
			ctxKeyChatContext: summarize(response, 500),
		}
		if convCtx != nil && len(convCtx.Topics) > 0 {
			out[ctxKeySemantic] = strings.Join(convCtx.Topics, ", ")
		}
		if convCtx != nil && len(convCtx.Tasks) > 0 {
			out[ctxKeyOngoingTasks] = strings.Join(convCtx.Tasks, "; ")
		}
		out[ctxKeyProfile] = fmt.Sprintf("expertise=%s interests=%s", profile.Expertise, strings.Join(profile.Interests, ","))

		return types.AgentResult{
			Response: response,
			Context:  out,
			Metadata: map[string]any{
				"model":         gen.ModelID,
				"finish_reason": gen.FinishReason,
				"tokens":        gen.Usage.TotalTokens,
				"expertise":     string(profile.Expertise),
			},
			NeedsCode:           sig.NeedsCode,
			NeedsReasoning:      sig.NeedsReasoning,
			NeedsImplementation: sig.NeedsImplementation,
			NeedsValidation:     sig.NeedsValidation,
			FollowUpRequest:     sig.FollowUp,
		}, nil
	})
}

func (a *ChatAgent) buildPrompt(req types.AgentRequest, profile *UserProfile, convCtx *ConversationContext) string {
	b := newPromptBuilder()
	b.addSection("User profile", fmt.Sprintf("expertise: %s", profile.Expertise))
	if len(profile.Interests) > 0 {
		b.addSection("User interests", strings.Join(profile.Interests, ", "))
	}
	b.addContext(req.Context)
	if convCtx != nil && len(convCtx.Tasks) > 0 {
		b.addSection("Open tasks in this conversation", strings.Join(convCtx.Tasks, "; "))
	}
	b.addConversation(req.Conversation)
	b.addInput(req.Input)
	return b.build()
}

// Profile returns a copy of the stored profile for the user, or nil when the
// user has never been seen. Exposed for the conversation inspection surface.
func (a *ChatAgent) Profile(userID string) *UserProfile {
	p, _ := a.profiles.snapshot(userID, "")
	return p
}

// ConversationState returns a copy of the extracted per-conversation context.
func (a *ChatAgent) ConversationState(conversationID string) *ConversationContext {
	_, cc := a.profiles.snapshot("", conversationID)
	return cc
}

// summarize bounds a text fragment for context propagation.
func summarize(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
