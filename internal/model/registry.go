package model

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"codedesk/internal/config"
	"codedesk/internal/logging"
	"codedesk/internal/types"
)

// registeredModel binds a public model id to a provider and concrete model.
type registeredModel struct {
	tag   ProviderTag
	model string
}

// Registry implements types.ModelClient over the closed provider set.
// Model ids resolve to a registered entry or, when absent/unavailable, to a
// role-based default chosen by a fixed provider preference order.
type Registry struct {
	mu        sync.RWMutex
	providers map[ProviderTag]Provider
	models    map[string]registeredModel
	roleOrder map[types.AgentType][]ProviderTag
}

// NewRegistry builds the registry from configuration. All four providers
// are constructed; the ones without credentials simply report unavailable.
func NewRegistry(cfg config.ModelsConfig) (*Registry, error) {
	gemini, err := NewGeminiClient(cfg.Gemini)
	if err != nil {
		return nil, fmt.Errorf("gemini provider: %w", err)
	}

	r := &Registry{
		providers: map[ProviderTag]Provider{
			ProviderOpenAI:    NewOpenAICompatClient(ProviderOpenAI, cfg.OpenAI),
			ProviderLocal:     NewOpenAICompatClient(ProviderLocal, cfg.Local),
			ProviderAnthropic: NewAnthropicClient(cfg.Anthropic),
			ProviderGemini:    gemini,
		},
		models:    make(map[string]registeredModel),
		roleOrder: make(map[types.AgentType][]ProviderTag),
	}

	for role, order := range cfg.RoleDefaults {
		tags := make([]ProviderTag, 0, len(order))
		for _, name := range order {
			tags = append(tags, ProviderTag(name))
		}
		r.roleOrder[types.AgentType(role)] = tags
	}

	// Each provider's configured model is addressable three ways: bare tag,
	// tag/model, and the bare model name.
	for tag, p := range r.providers {
		m := p.DefaultModel()
		if m == "" {
			continue
		}
		r.models[string(tag)] = registeredModel{tag: tag, model: m}
		r.models[string(tag)+"/"+m] = registeredModel{tag: tag, model: m}
		if _, taken := r.models[m]; !taken {
			r.models[m] = registeredModel{tag: tag, model: m}
		}
	}

	logging.Model("Registry initialized: %d providers, %d model ids", len(r.providers), len(r.models))
	return r, nil
}

// RegisterModel adds or replaces a public model id.
func (r *Registry) RegisterModel(id string, tag ProviderTag, model string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[tag]; !ok {
		return fmt.Errorf("unknown provider tag: %s", tag)
	}
	r.models[id] = registeredModel{tag: tag, model: model}
	return nil
}

// defaultRoleOrder is the compiled-in preference order when config names none.
var defaultRoleOrder = map[types.AgentType][]ProviderTag{
	types.AgentChat:      {ProviderLocal, ProviderOpenAI, ProviderGemini, ProviderAnthropic},
	types.AgentCode:      {ProviderOpenAI, ProviderAnthropic, ProviderLocal, ProviderGemini},
	types.AgentReasoning: {ProviderAnthropic, ProviderGemini, ProviderOpenAI, ProviderLocal},
}

// resolve maps (modelID, role) to a usable provider and model name.
func (r *Registry) resolve(modelID string, role types.AgentType) (Provider, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// 1. Registered id, provider available.
	if modelID != "" {
		if reg, ok := r.models[strings.TrimSpace(modelID)]; ok {
			if p := r.providers[reg.tag]; p != nil && p.Available() {
				return p, reg.model, nil
			}
			logging.ModelDebug("model id %s registered but provider %s unavailable, falling back", modelID, reg.tag)
		} else {
			logging.ModelDebug("model id %s not registered, falling back to role default", modelID)
		}
	}

	// 2. Role preference order.
	order, ok := r.roleOrder[role]
	if !ok || len(order) == 0 {
		order = defaultRoleOrder[role]
	}
	for _, tag := range order {
		if p := r.providers[tag]; p != nil && p.Available() {
			return p, p.DefaultModel(), nil
		}
	}

	// 3. Any active provider, in stable order.
	tags := make([]string, 0, len(r.providers))
	for tag := range r.providers {
		tags = append(tags, string(tag))
	}
	sort.Strings(tags)
	for _, tag := range tags {
		if p := r.providers[ProviderTag(tag)]; p.Available() {
			return p, p.DefaultModel(), nil
		}
	}

	return nil, "", types.NewError(types.ErrCodeModelNotAvailable, "", "no provider can satisfy model=%q role=%q", modelID, role)
}

// Generate implements types.ModelClient.
func (r *Registry) Generate(ctx context.Context, modelID, prompt string, opts types.GenerateOptions) (types.Generation, error) {
	provider, model, err := r.resolve(modelID, opts.Role)
	if err != nil {
		return types.Generation{}, err
	}

	gen, err := provider.Complete(ctx, model, opts.System, prompt, opts)
	if err != nil {
		return types.Generation{}, types.WrapError(types.ErrCodeGenerationFailed, "", err, "provider %s model %s", provider.Tag(), model)
	}
	if gen.ModelID == "" {
		gen.ModelID = string(provider.Tag()) + "/" + model
	}
	return gen, nil
}

// Status reports per-provider availability for the health snapshot.
func (r *Registry) Status() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]bool, len(r.providers))
	for tag, p := range r.providers {
		out[string(tag)] = p.Available()
	}
	return out
}
