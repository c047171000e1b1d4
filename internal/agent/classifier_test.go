package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"codedesk/internal/config"
)

func TestKeywordClassifierScoring(t *testing.T) {
	k := NewKeywordClassifier(config.DefaultAgentsConfig())

	// Two of five code keywords is 0.4, above the 0.3 threshold.
	sig := k.Classify("write some code for me", "")
	assert.True(t, sig.NeedsCode)

	// One of five is 0.2, below threshold.
	sig = k.Classify("write me a poem", "")
	assert.False(t, sig.NeedsCode)

	// No keywords at all.
	sig = k.Classify("hello there", "how can I help?")
	assert.False(t, sig.NeedsCode)
	assert.False(t, sig.NeedsReasoning)
	assert.False(t, sig.NeedsImplementation)
	assert.False(t, sig.NeedsValidation)
}

func TestKeywordClassifierScoresResponseText(t *testing.T) {
	k := NewKeywordClassifier(config.DefaultAgentsConfig())

	// Keywords split across input and response still count together.
	sig := k.Classify("write this for me", "sure, here is the code")
	assert.True(t, sig.NeedsCode)
}

func TestKeywordClassifierFollowUpExtraction(t *testing.T) {
	k := NewKeywordClassifier(config.DefaultAgentsConfig())

	sig := k.Classify("please write code to reverse a string", "")
	if !sig.NeedsCode {
		t.Fatalf("expected NeedsCode for %q", "please write code to reverse a string")
	}
	assert.Equal(t, "Code request: code to reverse a string", sig.FollowUp)
}

func TestKeywordClassifierFollowUpFromResponse(t *testing.T) {
	k := NewKeywordClassifier(config.DefaultAgentsConfig())

	sig := k.Classify("I need working code", "You should implement a retry wrapper, then build around it")
	if sig.FollowUp == "" {
		t.Fatal("expected a follow-up extracted from the response")
	}
	assert.Contains(t, sig.FollowUp, "Code request: ")
}

func TestKeywordClassifierNoFollowUpWithoutCodeSignal(t *testing.T) {
	k := NewKeywordClassifier(config.DefaultAgentsConfig())

	// "create" alone matches the follow-up pattern but the category score
	// stays under threshold, so no follow-up is derived.
	sig := k.Classify("create a diagram", "")
	assert.False(t, sig.NeedsCode)
	assert.Empty(t, sig.FollowUp)
}

func TestKeywordClassifierCustomThreshold(t *testing.T) {
	cfg := config.DefaultAgentsConfig()
	cfg.ClassifyThreshold = 0.5
	k := NewKeywordClassifier(cfg)

	// 2/5 = 0.4 no longer fires at threshold 0.5.
	sig := k.Classify("write some code for me", "")
	assert.False(t, sig.NeedsCode)
}
