package llm

import (
	"context"
	"errors"
	"strings"
)

// Provider names a model vendor as it appears in a request's modelConfig.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
	ProviderCustom    Provider = "custom"
)

// ErrCustomProvider is returned for the custom provider, which has no client yet.
var ErrCustomProvider = errors.New("Custom API provider not yet implemented")

// ParseProvider normalizes a provider name. "gemini" is accepted for google
// and anything unrecognized falls back to openai.
func ParseProvider(name string) Provider {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "anthropic", "claude":
		return ProviderAnthropic
	case "google", "gemini":
		return ProviderGoogle
	case "custom":
		return ProviderCustom
	default:
		return ProviderOpenAI
	}
}

// Keys holds the server-side API key for each provider.
type Keys struct {
	OpenAI    string
	Anthropic string
	Google    string
}

// Registry builds a client per request from the configured keys. A key sent
// with the request takes precedence over the configured one.
type Registry struct {
	keys Keys
	opts map[Provider][]ClientOption
}

func NewRegistry(keys Keys) *Registry {
	return &Registry{keys: keys, opts: make(map[Provider][]ClientOption)}
}

// WithOptions sets the options passed to every HTTP client built for p.
func (r *Registry) WithOptions(p Provider, opts ...ClientOption) *Registry {
	r.opts[p] = opts
	return r
}

// Client returns a client for the named provider. Callers should close the
// client when it implements io.Closer.
func (r *Registry) Client(ctx context.Context, provider, apiKey string) (LLMClient, error) {
	p := ParseProvider(provider)
	switch p {
	case ProviderAnthropic:
		return NewAnthropicClient(pick(apiKey, r.keys.Anthropic), r.opts[p]...)
	case ProviderGoogle:
		return NewGeminiClient(ctx, pick(apiKey, r.keys.Google))
	case ProviderCustom:
		return nil, ErrCustomProvider
	default:
		return NewOpenAIClient(pick(apiKey, r.keys.OpenAI), r.opts[ProviderOpenAI]...)
	}
}

func pick(requestKey, configured string) string {
	if requestKey != "" {
		return requestKey
	}
	return configured
}
