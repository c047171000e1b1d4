package model

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"codedesk/internal/config"
	"codedesk/internal/logging"
	"codedesk/internal/types"
)

// GeminiClient implements Provider on the official genai SDK.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiClient creates a new Gemini client. Returns a client even when the
// key is missing; Available() then reports false and the registry skips it.
func NewGeminiClient(cfg config.ProviderConfig) (*GeminiClient, error) {
	g := &GeminiClient{
		model:   cfg.Model,
		timeout: cfg.TimeoutDuration(),
	}
	if cfg.APIKey == "" {
		return g, nil
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	g.client = client
	return g, nil
}

func (c *GeminiClient) Tag() ProviderTag { return ProviderGemini }

func (c *GeminiClient) DefaultModel() string { return c.model }

func (c *GeminiClient) Available() bool { return c.client != nil }

// Complete sends one generateContent request.
func (c *GeminiClient) Complete(ctx context.Context, model, system, prompt string, opts types.GenerateOptions) (types.Generation, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	startTime := time.Now()
	if model == "" {
		model = c.model
	}
	logging.ModelDebug("[gemini] Complete: model=%s system_len=%d prompt_len=%d", model, len(system), len(prompt))

	if !c.Available() {
		return types.Generation{}, fmt.Errorf("gemini provider not configured")
	}

	genCfg := &genai.GenerateContentConfig{}
	if strings.TrimSpace(system) != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if opts.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.Temperature > 0 {
		genCfg.Temperature = genai.Ptr(float32(opts.Temperature))
	}

	result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), genCfg)
	if err != nil {
		return types.Generation{}, fmt.Errorf("generateContent failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return types.Generation{}, fmt.Errorf("no completion returned")
	}

	gen := types.Generation{Text: text}
	if result.UsageMetadata != nil {
		gen.Usage = types.Usage{
			PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(result.UsageMetadata.TotalTokenCount),
		}
	}
	if len(result.Candidates) > 0 {
		gen.FinishReason = string(result.Candidates[0].FinishReason)
	}

	logging.Model("[gemini] Complete: model=%s done in %v response_len=%d", model, time.Since(startTime), len(text))
	return gen, nil
}
