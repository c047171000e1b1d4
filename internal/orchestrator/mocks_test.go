package orchestrator

import (
	"context"
	"sync"

	"codedesk/internal/types"
)

// scriptedAgent is a hand-rolled types.Agent whose behavior each test
// controls through fn.
type scriptedAgent struct {
	agentType types.AgentType

	mu    sync.Mutex
	calls []types.AgentRequest

	fn func(req types.AgentRequest) (types.AgentResult, error)
}

func newScriptedAgent(t types.AgentType, fn func(req types.AgentRequest) (types.AgentResult, error)) *scriptedAgent {
	return &scriptedAgent{agentType: t, fn: fn}
}

// respond is the simplest script: a fixed response.
func respond(text string) func(req types.AgentRequest) (types.AgentResult, error) {
	return func(req types.AgentRequest) (types.AgentResult, error) {
		return types.AgentResult{Response: text}, nil
	}
}

func (a *scriptedAgent) Type() types.AgentType { return a.agentType }

func (a *scriptedAgent) Process(ctx context.Context, req types.AgentRequest, requestID string) (types.AgentResult, error) {
	a.mu.Lock()
	a.calls = append(a.calls, req)
	a.mu.Unlock()
	return a.fn(req)
}

func (a *scriptedAgent) Metrics() types.MetricsSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return types.MetricsSnapshot{Agent: a.agentType, TotalRequests: int64(len(a.calls))}
}

func (a *scriptedAgent) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

func (a *scriptedAgent) call(i int) types.AgentRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[i]
}
