package orchestrator

import (
	"strings"

	"codedesk/internal/config"
	"codedesk/internal/logging"
	"codedesk/internal/types"
)

// HeuristicClassifier maps raw input to a workflow kind by keyword scan.
// Deliberately coarse and explainable. The code-indicator check runs before
// the reasoning-indicator check, so an input matching both resolves to
// code-first. Collaborative is never chosen here; it is reachable only
// through an explicit caller hint.
type HeuristicClassifier struct {
	codeIndicators      []string
	reasoningIndicators []string
}

// NewHeuristicClassifier builds the classifier from config.
func NewHeuristicClassifier(cfg config.AgentsConfig) *HeuristicClassifier {
	return &HeuristicClassifier{
		codeIndicators:      cfg.CodeIndicators,
		reasoningIndicators: cfg.ReasoningIndicators,
	}
}

// Classify implements types.WorkflowClassifier. Every input maps to exactly
// one kind.
func (h *HeuristicClassifier) Classify(input string, _ types.Context) types.Workflow {
	lower := strings.ToLower(input)

	for _, kw := range h.codeIndicators {
		if strings.Contains(lower, kw) {
			logging.OrchestratorDebug("classified code-first on indicator %q", kw)
			return types.WorkflowCodeFirst
		}
	}
	for _, kw := range h.reasoningIndicators {
		if strings.Contains(lower, kw) {
			logging.OrchestratorDebug("classified reasoning-first on indicator %q", kw)
			return types.WorkflowReasoningFirst
		}
	}
	return types.WorkflowChatFirst
}
