package agent

import (
	"context"
	"regexp"
	"strings"

	"codedesk/internal/config"
	"codedesk/internal/types"
)

// CodeAgent produces code. It favors fenced blocks in its output and flags
// responses that look like they need a correctness review.
type CodeAgent struct {
	rt         *Runtime
	cfg        config.AgentsConfig
	classifier DelegationClassifier
}

// NewCodeAgent wires a code agent onto the shared model access layer.
func NewCodeAgent(model types.ModelClient, cfg config.AgentsConfig) *CodeAgent {
	return &CodeAgent{
		rt:         NewRuntime(types.AgentCode, model, cfg.StepTimeoutDuration()),
		cfg:        cfg,
		classifier: NewKeywordClassifier(cfg),
	}
}

func (a *CodeAgent) Type() types.AgentType { return types.AgentCode }

func (a *CodeAgent) Metrics() types.MetricsSnapshot { return a.rt.Metrics() }

var fencedBlock = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\n.*?```")

// Process generates code for one request.
func (a *CodeAgent) Process(ctx context.Context, req types.AgentRequest, requestID string) (types.AgentResult, error) {
	return a.rt.Do(ctx, requestID, func(ctx context.Context) (types.AgentResult, error) {
		if err := validateRequest(req, requestID); err != nil {
			return types.AgentResult{}, err
		}

		system := a.cfg.Preamble("code", req.Role)
		prompt := a.buildPrompt(req)

		gen, err := a.rt.Generate(ctx, req.Model, system, prompt, req.Options)
		if err != nil {
			return types.AgentResult{}, err
		}

		response := normalizeResponse(gen.Text)
		sig := a.classifier.Classify(req.Input, response)

		blocks := fencedBlock.FindAllString(response, -1)

		out := types.Context{
			ctxKeyCodeContext: summarize(response, 500),
		}

		return types.AgentResult{
			Response: response,
			Context:  out,
			Metadata: map[string]any{
				"model":         gen.ModelID,
				"finish_reason": gen.FinishReason,
				"tokens":        gen.Usage.TotalTokens,
				"code_blocks":   len(blocks),
			},
			NeedsReasoning:  sig.NeedsReasoning,
			NeedsValidation: sig.NeedsValidation || len(blocks) > 0,
		}, nil
	})
}

func (a *CodeAgent) buildPrompt(req types.AgentRequest) string {
	b := newPromptBuilder()
	b.addContext(req.Context)
	b.addConversation(req.Conversation)
	if lang := req.Context.GetString("language"); lang != "" {
		b.addSection("Target language", lang)
	}
	b.addInput(req.Input)
	return b.build()
}

// ExtractCode returns the fenced code blocks from a response, fences
// stripped. Used by the transport layer's agent inspection endpoint.
func ExtractCode(response string) []string {
	raw := fencedBlock.FindAllString(response, -1)
	out := make([]string, 0, len(raw))
	for _, block := range raw {
		block = strings.TrimPrefix(block, "```")
		if nl := strings.Index(block, "\n"); nl >= 0 {
			block = block[nl+1:]
		}
		block = strings.TrimSuffix(block, "```")
		out = append(out, strings.TrimRight(block, "\n"))
	}
	return out
}
