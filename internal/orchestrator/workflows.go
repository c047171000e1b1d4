package orchestrator

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"codedesk/internal/logging"
	"codedesk/internal/types"
)

// stepTrace accumulates one workflow execution: which agents ran, in order,
// what each said, and the context fragments they produced for later steps.
type stepTrace struct {
	steps     []string
	responses []string
	agents    map[string]map[string]any
	fragment  types.Context
}

func newStepTrace() *stepTrace {
	return &stepTrace{
		agents:   make(map[string]map[string]any),
		fragment: types.Context{},
	}
}

func (t *stepTrace) record(step string, res types.AgentResult) {
	t.steps = append(t.steps, step)
	t.responses = append(t.responses, res.Response)
	t.agents[step] = res.Metadata
	t.fragment = t.fragment.Merge(res.Context)
}

// combined joins every executed agent's response with a blank line, in
// execution order. No model call merges anything and no output is dropped.
func (t *stepTrace) combined() string {
	parts := make([]string, 0, len(t.responses))
	for _, r := range t.responses {
		r = strings.TrimSpace(r)
		if r != "" {
			parts = append(parts, r)
		}
	}
	return strings.Join(parts, "\n\n")
}

// step runs one agent with the accumulated context layered under the bag.
func (o *Orchestrator) step(ctx context.Context, requestID string, agentType types.AgentType, input string, turns []types.Turn, bag types.Context, trace *stepTrace, role string, overrides map[string]string) (types.AgentResult, error) {
	ag, ok := o.agents[agentType]
	if !ok {
		return types.AgentResult{}, types.NewError(types.ErrCodeInternal, requestID, "no %s agent registered", agentType)
	}

	req := types.AgentRequest{
		Input:        input,
		Conversation: turns,
		Context:      bag.Merge(trace.fragment),
		Model:        overrides[string(agentType)],
		Role:         role,
	}

	res, err := ag.Process(ctx, req, requestID)
	if err != nil {
		return types.AgentResult{}, err
	}
	return res, nil
}

// runChatFirst: chat, then code when the chat turn calls for it, then a
// validating reasoning pass when the code output calls for that.
func (o *Orchestrator) runChatFirst(ctx context.Context, requestID, input string, turns []types.Turn, bag types.Context, overrides map[string]string) (*stepTrace, error) {
	trace := newStepTrace()

	chatRes, err := o.step(ctx, requestID, types.AgentChat, input, turns, bag, trace, "", overrides)
	if err != nil {
		return nil, err
	}
	trace.record("chat", chatRes)

	if !chatRes.NeedsCode {
		return trace, nil
	}

	codeInput := chatRes.FollowUpRequest
	if codeInput == "" {
		codeInput = input
	}
	codeRes, err := o.step(ctx, requestID, types.AgentCode, codeInput, turns, bag, trace, "", overrides)
	if err != nil {
		return nil, err
	}
	trace.record("code", codeRes)

	if !codeRes.NeedsValidation {
		return trace, nil
	}

	reasonRes, err := o.step(ctx, requestID, types.AgentReasoning, "Validate the code above for correctness and edge cases: "+input, turns, bag, trace, "", overrides)
	if err != nil {
		return nil, err
	}
	trace.record("reasoning", reasonRes)

	return trace, nil
}

// runCodeFirst: always code, then reasoning over the code, then chat for the
// user-facing explanation. Three steps, no conditional skipping.
func (o *Orchestrator) runCodeFirst(ctx context.Context, requestID, input string, turns []types.Turn, bag types.Context, overrides map[string]string) (*stepTrace, error) {
	trace := newStepTrace()

	codeRes, err := o.step(ctx, requestID, types.AgentCode, input, turns, bag, trace, "", overrides)
	if err != nil {
		return nil, err
	}
	trace.record("code", codeRes)

	reasonRes, err := o.step(ctx, requestID, types.AgentReasoning, "Validate and explain the code produced for: "+input, turns, bag, trace, "", overrides)
	if err != nil {
		return nil, err
	}
	trace.record("reasoning", reasonRes)

	chatRes, err := o.step(ctx, requestID, types.AgentChat, "Summarize the solution for the user: "+input, turns, bag, trace, "", overrides)
	if err != nil {
		return nil, err
	}
	trace.record("chat", chatRes)

	return trace, nil
}

// runReasoningFirst: reasoning, then code only when the analysis calls for an
// implementation, then chat to make it user-friendly.
func (o *Orchestrator) runReasoningFirst(ctx context.Context, requestID, input string, turns []types.Turn, bag types.Context, overrides map[string]string) (*stepTrace, error) {
	trace := newStepTrace()

	reasonRes, err := o.step(ctx, requestID, types.AgentReasoning, input, turns, bag, trace, "", overrides)
	if err != nil {
		return nil, err
	}
	trace.record("reasoning", reasonRes)

	if reasonRes.NeedsImplementation {
		codeInput := reasonRes.FollowUpRequest
		if codeInput == "" {
			codeInput = input
		}
		codeRes, err := o.step(ctx, requestID, types.AgentCode, codeInput, turns, bag, trace, "", overrides)
		if err != nil {
			return nil, err
		}
		trace.record("code", codeRes)
	}

	chatRes, err := o.step(ctx, requestID, types.AgentChat, "Present the analysis above for the user: "+input, turns, bag, trace, "", overrides)
	if err != nil {
		return nil, err
	}
	trace.record("chat", chatRes)

	return trace, nil
}

// collaborative branch roles, in the fixed agent order chat/code/reasoning.
var collaborativeRoles = map[types.AgentType]string{
	types.AgentChat:      "interpreter",
	types.AgentCode:      "implementer",
	types.AgentReasoning: "analyzer",
}

// runCollaborative fans the same input out to all three agents concurrently,
// waits for all of them, and synthesizes through a final reasoning call. Any
// branch failure fails the whole workflow; no partial synthesis.
func (o *Orchestrator) runCollaborative(ctx context.Context, requestID, input string, turns []types.Turn, bag types.Context, overrides map[string]string) (*stepTrace, error) {
	trace := newStepTrace()

	var mu sync.Mutex
	branchResults := make(map[types.AgentType]types.AgentResult, 3)

	g, gctx := errgroup.WithContext(ctx)
	for agentType, role := range collaborativeRoles {
		g.Go(func() error {
			res, err := o.step(gctx, requestID, agentType, input, turns, bag, newStepTrace(), role, overrides)
			if err != nil {
				return err
			}
			mu.Lock()
			branchResults[agentType] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logging.Orchestrator("collaborative fan-out failed req=%s: %v", requestID, err)
		return nil, err
	}

	parallelMeta := make(map[string]any, 3)
	for agentType, res := range branchResults {
		parallelMeta[string(agentType)] = res.Metadata
		trace.fragment = trace.fragment.Merge(res.Context)
	}
	trace.steps = append(trace.steps, "parallel-processing")
	trace.agents["parallel-processing"] = parallelMeta

	synthRes, err := o.step(ctx, requestID, types.AgentReasoning, input, turns, bag, trace, "synthesizer", overrides)
	if err != nil {
		return nil, err
	}
	trace.steps = append(trace.steps, "synthesis")
	trace.responses = append(trace.responses, synthRes.Response)
	trace.agents["synthesis"] = synthRes.Metadata
	trace.fragment = trace.fragment.Merge(synthRes.Context)

	return trace, nil
}
