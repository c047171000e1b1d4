package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"codedesk/internal/config"
	"codedesk/internal/logging"
	"codedesk/internal/types"
)

// OpenAICompatClient implements Provider against any /chat/completions
// endpoint. It backs both the hosted OpenAI provider and the local
// inference server, which speak the same wire format.
type OpenAICompatClient struct {
	tag         ProviderTag
	apiKey      string
	baseURL     string
	model       string
	httpClient  *http.Client
	mu          sync.Mutex
	lastRequest time.Time
}

// NewOpenAICompatClient creates a client for an OpenAI-compatible endpoint.
// The local provider passes requireKey=false: llama-server ignores auth.
func NewOpenAICompatClient(tag ProviderTag, cfg config.ProviderConfig) *OpenAICompatClient {
	return &OpenAICompatClient{
		tag:     tag,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.TimeoutDuration(),
		},
	}
}

func (c *OpenAICompatClient) Tag() ProviderTag { return c.tag }

func (c *OpenAICompatClient) DefaultModel() string { return c.model }

// Available requires a base URL always, and a key only for hosted endpoints.
func (c *OpenAICompatClient) Available() bool {
	if c.baseURL == "" {
		return false
	}
	if c.tag == ProviderLocal {
		return true
	}
	return c.apiKey != ""
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends one chat completion request.
func (c *OpenAICompatClient) Complete(ctx context.Context, model, system, prompt string, opts types.GenerateOptions) (types.Generation, error) {
	// Auto-apply timeout if context has no deadline (centralized timeout handling)
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	if model == "" {
		model = c.model
	}
	logging.ModelDebug("[%s] Complete: model=%s system_len=%d prompt_len=%d", c.tag, model, len(system), len(prompt))

	if !c.Available() {
		return types.Generation{}, fmt.Errorf("%s provider not configured", c.tag)
	}

	// Rate limiting
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	messages := make([]openAIMessage, 0, 2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: system})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: prompt})

	temperature := 0.2
	if opts.Temperature >= 0 && opts.Temperature <= 2 && opts.Temperature != 0 {
		temperature = opts.Temperature
	}
	reqBody := openAIRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return types.Generation{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return types.Generation{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.Generation{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.Generation{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return types.Generation{}, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, truncateBody(body))
	}

	var parsed openAIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return types.Generation{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return types.Generation{}, fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return types.Generation{}, fmt.Errorf("no completion returned")
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	logging.Model("[%s] Complete: model=%s done in %v response_len=%d", c.tag, model, time.Since(startTime), len(text))

	return types.Generation{
		Text: text,
		Usage: types.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
		FinishReason: parsed.Choices[0].FinishReason,
	}, nil
}

func truncateBody(body []byte) string {
	const maxLen = 512
	s := string(body)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
