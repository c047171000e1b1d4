package agent

import (
	"regexp"
	"strings"

	"codedesk/internal/config"
)

// Signals is a delegation decision derived from one agent turn.
type Signals struct {
	NeedsCode           bool
	NeedsReasoning      bool
	NeedsImplementation bool
	NeedsValidation     bool

	// FollowUp is the derived request for the next agent, when one of the
	// code-producing categories fired.
	FollowUp string
}

// DelegationClassifier decides whether an agent's turn implies further
// delegation. It is a swappable strategy: the keyword scorer below is the
// reference behavior, but anything honoring this contract can replace it.
type DelegationClassifier interface {
	Classify(input, response string) Signals
}

// KeywordClassifier scores keyword overlap against fixed per-category sets.
// Score = matched-keyword-count / total-keyword-count-in-category; a category
// fires when its score exceeds the threshold.
type KeywordClassifier struct {
	sets      config.KeywordSets
	threshold float64
}

// NewKeywordClassifier builds the reference classifier from config.
func NewKeywordClassifier(cfg config.AgentsConfig) *KeywordClassifier {
	return &KeywordClassifier{
		sets:      cfg.Keywords,
		threshold: cfg.ClassifyThreshold,
	}
}

// followUpPattern captures the object of an imperative coding request.
var followUpPattern = regexp.MustCompile(`(?i)\b(?:write|create|implement|build)\s+(.{3,120})`)

// Classify scores the user input plus the agent's response against every
// category.
func (k *KeywordClassifier) Classify(input, response string) Signals {
	text := strings.ToLower(input + " " + response)

	sig := Signals{
		NeedsCode:           k.score(text, k.sets.NeedsCode) > k.threshold,
		NeedsReasoning:      k.score(text, k.sets.NeedsReasoning) > k.threshold,
		NeedsImplementation: k.score(text, k.sets.NeedsImplementation) > k.threshold,
		NeedsValidation:     k.score(text, k.sets.NeedsValidation) > k.threshold,
	}

	if sig.NeedsCode || sig.NeedsImplementation {
		if m := followUpPattern.FindStringSubmatch(input); m != nil {
			sig.FollowUp = "Code request: " + strings.TrimSpace(m[1])
		} else if m := followUpPattern.FindStringSubmatch(response); m != nil {
			sig.FollowUp = "Code request: " + strings.TrimSpace(m[1])
		}
	}

	return sig
}

// score returns matched/total for one keyword set.
func (k *KeywordClassifier) score(text string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}
