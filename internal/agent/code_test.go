package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codedesk/internal/config"
	"codedesk/internal/types"
)

const fencedSample = "Here you go:\n\n```go\nfunc Reverse(s string) string {\n\treturn s\n}\n```\n"

func TestCodeAgentFlagsValidationForCodeBlocks(t *testing.T) {
	model := &stubModel{text: fencedSample}
	a := NewCodeAgent(model, config.DefaultAgentsConfig())

	res, err := a.Process(context.Background(), types.AgentRequest{
		Input: "reverse a string",
	}, "req-c1")
	require.NoError(t, err)

	assert.True(t, res.NeedsValidation, "output with code blocks wants a review pass")
	assert.Equal(t, 1, res.Metadata["code_blocks"])
	assert.NotEmpty(t, res.Context.GetString("codeContext"))
}

func TestCodeAgentProseOnlyNeedsNoValidation(t *testing.T) {
	model := &stubModel{text: "Use the two-pointer approach."}
	a := NewCodeAgent(model, config.DefaultAgentsConfig())

	res, err := a.Process(context.Background(), types.AgentRequest{
		Input: "reverse a string",
	}, "req-c2")
	require.NoError(t, err)
	assert.False(t, res.NeedsValidation)
}

func TestCodeAgentClosesDanglingFence(t *testing.T) {
	model := &stubModel{text: "```go\nfunc f() {}"}
	a := NewCodeAgent(model, config.DefaultAgentsConfig())

	res, err := a.Process(context.Background(), types.AgentRequest{Input: "write f"}, "req-c3")
	require.NoError(t, err)
	assert.Equal(t, "```go\nfunc f() {}\n```", res.Response)
}

func TestExtractCode(t *testing.T) {
	blocks := ExtractCode(fencedSample)
	require.Len(t, blocks, 1)
	assert.Equal(t, "func Reverse(s string) string {\n\treturn s\n}", blocks[0])

	assert.Empty(t, ExtractCode("no fences here"))
}
