// Package model implements the model access layer: a closed registry of
// providers behind one Generate capability. The rest of the system never
// sees provider-specific request or response shapes.
package model

import (
	"context"

	"codedesk/internal/types"
)

// ProviderTag identifies a supported provider. The set is closed; new
// providers are added here and registered in the registry, never looked up
// dynamically.
type ProviderTag string

const (
	ProviderOpenAI    ProviderTag = "openai"
	ProviderGemini    ProviderTag = "gemini"
	ProviderAnthropic ProviderTag = "anthropic"
	// ProviderLocal is an OpenAI-compatible local inference server
	// (llama-server and friends).
	ProviderLocal ProviderTag = "local"
)

// Provider is one backend's generation capability.
type Provider interface {
	Tag() ProviderTag

	// Complete runs one generation. system may be empty. The adapter owns
	// wire format; callers only see types.Generation.
	Complete(ctx context.Context, model, system, prompt string, opts types.GenerateOptions) (types.Generation, error)

	// Available reports whether the provider is configured well enough to
	// attempt a call (key present, URL set). It does not probe the network.
	Available() bool

	// DefaultModel is the model used when a registered id doesn't pin one.
	DefaultModel() string
}
