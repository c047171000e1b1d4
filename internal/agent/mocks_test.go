package agent

import (
	"context"
	"sync"

	"codedesk/internal/types"
)

// stubModel is a scripted types.ModelClient for agent tests.
type stubModel struct {
	mu    sync.Mutex
	calls []stubCall

	// respond overrides the canned response when set.
	respond func(modelID, prompt string, opts types.GenerateOptions) (types.Generation, error)

	text string
	err  error
}

type stubCall struct {
	modelID string
	prompt  string
	opts    types.GenerateOptions
}

func (s *stubModel) Generate(ctx context.Context, modelID, prompt string, opts types.GenerateOptions) (types.Generation, error) {
	if err := ctx.Err(); err != nil {
		return types.Generation{}, err
	}

	s.mu.Lock()
	s.calls = append(s.calls, stubCall{modelID: modelID, prompt: prompt, opts: opts})
	s.mu.Unlock()

	if s.respond != nil {
		return s.respond(modelID, prompt, opts)
	}
	if s.err != nil {
		return types.Generation{}, s.err
	}
	text := s.text
	if text == "" {
		text = "stub response"
	}
	return types.Generation{
		Text:         text,
		ModelID:      "stub/model",
		Usage:        types.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
		FinishReason: "stop",
	}, nil
}

func (s *stubModel) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubModel) lastCall() stubCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return stubCall{}
	}
	return s.calls[len(s.calls)-1]
}
