// Package agent implements the three specialized agents (chat, code,
// reasoning) behind one Process capability. Shared plumbing - metrics,
// timing, timeouts, the opt-in retry helper - lives in Runtime and is
// injected into each agent by composition; agents hold no base-class state.
package agent

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"codedesk/internal/logging"
	"codedesk/internal/types"
)

// DefaultStepTimeout bounds one Process call when config doesn't override it.
const DefaultStepTimeout = 30 * time.Second

// Runtime carries the per-agent counters and call plumbing shared by all
// agent types. Counters are atomic; concurrent Process calls to the same
// agent instance never lose updates.
type Runtime struct {
	agentType types.AgentType
	model     types.ModelClient
	timeout   time.Duration
	startTime time.Time

	totalRequests   atomic.Int64
	successRequests atomic.Int64
	failedRequests  atomic.Int64
	totalRespNanos  atomic.Int64
}

// NewRuntime creates the shared runtime for one agent instance.
func NewRuntime(agentType types.AgentType, model types.ModelClient, timeout time.Duration) *Runtime {
	if timeout <= 0 {
		timeout = DefaultStepTimeout
	}
	return &Runtime{
		agentType: agentType,
		model:     model,
		timeout:   timeout,
		startTime: time.Now(),
	}
}

// Do runs one agent invocation: applies the step timeout, runs fn, records
// metrics exactly once, and maps deadline expiry to a Timeout error. fn must
// return either a complete result or an error, never both.
func (rt *Runtime) Do(ctx context.Context, requestID string, fn func(ctx context.Context) (types.AgentResult, error)) (types.AgentResult, error) {
	ctx, cancel := context.WithTimeout(ctx, rt.timeout)
	defer cancel()

	start := time.Now()
	result, err := fn(ctx)
	elapsed := time.Since(start)

	rt.totalRequests.Add(1)
	rt.totalRespNanos.Add(int64(elapsed))
	if err != nil {
		rt.failedRequests.Add(1)
		if errors.Is(err, context.DeadlineExceeded) {
			err = types.WrapError(types.ErrCodeTimeout, requestID, err, "agent step exceeded %v", rt.timeout).WithAgent(rt.agentType)
		} else {
			err = rt.tagError(err, requestID)
		}
		logging.Get(logging.CategoryAgent).Error("[%s] process failed req=%s after %v: %v", rt.agentType, requestID, elapsed, err)
		return types.AgentResult{}, err
	}
	rt.successRequests.Add(1)

	logging.AgentDebug("[%s] process ok req=%s in %v", rt.agentType, requestID, elapsed)
	return result, nil
}

// tagError stamps requestID and agent identity without losing an existing
// taxonomy code.
func (rt *Runtime) tagError(err error, requestID string) error {
	var ce *types.CodedError
	if errors.As(err, &ce) {
		if ce.RequestID == "" {
			ce.RequestID = requestID
		}
		if ce.Agent == "" {
			ce.Agent = rt.agentType
		}
		return ce
	}
	return types.WrapError(types.ErrCodeGenerationFailed, requestID, err, "agent processing failed").WithAgent(rt.agentType)
}

// Generate calls the model access layer with the agent's role attached.
func (rt *Runtime) Generate(ctx context.Context, modelID, system, prompt string, opts map[string]any) (types.Generation, error) {
	genOpts := types.GenerateOptions{
		Role:   rt.agentType,
		System: system,
		Extra:  opts,
	}
	return rt.model.Generate(ctx, modelID, prompt, genOpts)
}

// Metrics returns a point-in-time snapshot of the counters.
func (rt *Runtime) Metrics() types.MetricsSnapshot {
	total := rt.totalRequests.Load()
	snap := types.MetricsSnapshot{
		Agent:             rt.agentType,
		TotalRequests:     total,
		SuccessRequests:   rt.successRequests.Load(),
		FailedRequests:    rt.failedRequests.Load(),
		TotalResponseTime: time.Duration(rt.totalRespNanos.Load()),
		Uptime:            time.Since(rt.startTime),
	}
	if total > 0 {
		snap.AvgResponseTime = snap.TotalResponseTime / time.Duration(total)
	}
	return snap
}

// Retry is the opt-in bounded-exponential-backoff helper. No agent call path
// invokes it implicitly; callers that want retry wrap their call site.
func Retry(ctx context.Context, attempts int, base, max time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	backoff := base
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
			if max > 0 && backoff > max {
				backoff = max
			}
		}
		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

// validateRequest fails fast before any model call.
func validateRequest(req types.AgentRequest, requestID string) error {
	if strings.TrimSpace(req.Input) == "" {
		return types.NewError(types.ErrCodeInvalidRequest, requestID, "input must be non-empty")
	}
	return nil
}
