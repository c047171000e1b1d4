package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codedesk/internal/config"
	"codedesk/internal/types"
)

func TestReasoningAgentProcess(t *testing.T) {
	model := &stubModel{text: "Quicksort partitions around a pivot."}
	a := NewReasoningAgent(model, config.DefaultAgentsConfig())

	res, err := a.Process(context.Background(), types.AgentRequest{
		Input: "how does quicksort behave on sorted input?",
	}, "req-r1")
	require.NoError(t, err)

	assert.Contains(t, res.Response, "pivot")
	assert.NotEmpty(t, res.Context.GetString("reasoningContext"))
	assert.Equal(t, "default", res.Metadata["role"])
}

func TestReasoningAgentSynthesizerPrompt(t *testing.T) {
	cfg := config.DefaultAgentsConfig()
	model := &stubModel{text: "Combined answer."}
	a := NewReasoningAgent(model, cfg)

	_, err := a.Process(context.Background(), types.AgentRequest{
		Input: "build a cache",
		Role:  "synthesizer",
		Context: types.Context{
			"chatContext":      "the user wants an LRU cache",
			"codeContext":      "type Cache struct { ... }",
			"reasoningContext": "eviction policy matters most",
		},
	}, "req-r2")
	require.NoError(t, err)

	call := model.lastCall()
	assert.Equal(t, cfg.Preambles["reasoning:synthesizer"], call.opts.System)
	assert.Contains(t, call.prompt, "the user wants an LRU cache")
	assert.Contains(t, call.prompt, "type Cache struct { ... }")
	assert.Contains(t, call.prompt, "eviction policy matters most")
}

func TestReasoningAgentImplementationSignal(t *testing.T) {
	model := &stubModel{text: "You should implement a prototype, for example build the code in stages."}
	a := NewReasoningAgent(model, config.DefaultAgentsConfig())

	res, err := a.Process(context.Background(), types.AgentRequest{
		Input: "what's the best approach here?",
	}, "req-r3")
	require.NoError(t, err)
	assert.True(t, res.NeedsImplementation)
	assert.NotEmpty(t, res.FollowUpRequest)
}
