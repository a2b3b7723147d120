// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ai provides a unified interface to the language model backends
// (OpenAI, Gemini, Claude, Mistral) that draft and refine slides. Each
// backend implements Provider, and the Registry resolves a model
// identifier of the form "provider" or "provider:model" to a backend.
package ai

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrUnknownProvider is returned when a model identifier names a provider
// that is not configured.
var ErrUnknownProvider = errors.New("ai: provider not available")

// Request is one completion call.
type Request struct {
	// System sets the model's behaviour; User carries the task and content.
	System string
	User   string

	// Model overrides the provider's default model when non-empty.
	Model string

	// JSON asks the backend to constrain output to a single JSON object,
	// where the backend supports it.
	JSON bool
}

// Provider defines the interface that all model backends implement.
// Each provider handles its own HTTP communication and response parsing.
type Provider interface {
	// Generate sends the request and returns the raw generated text.
	Generate(ctx context.Context, req Request) (string, error)

	// Name returns the provider identifier (e.g., "openai", "gemini").
	Name() string
}

// ProviderConfig holds the credentials and settings for a single provider.
type ProviderConfig struct {
	APIKey     string
	Model      string
	ModelImage string
	BaseURL    string
}

// ParseModelID splits a model identifier into provider and model. The model
// part is empty when the identifier names only a provider.
func ParseModelID(id string) (provider, model string) {
	provider, model, _ = strings.Cut(strings.TrimSpace(id), ":")
	return strings.ToLower(provider), model
}

// Registry manages available providers and the default one.
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	active    string
	moderator Moderator // nil when no moderation API is configured
}

// NewRegistry creates a registry and initialises providers for every config
// that has a non-empty API key. Providers without keys are skipped.
// OpenAI's moderation endpoint is preferred; Mistral's is the fallback.
func NewRegistry(active string, configs map[string]ProviderConfig) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
		active:    active,
	}

	for name, cfg := range configs {
		if cfg.APIKey == "" {
			continue
		}
		switch name {
		case "openai":
			r.providers[name] = newOpenAI(cfg)
		case "gemini":
			r.providers[name] = newGemini(cfg)
		case "claude":
			r.providers[name] = newClaude(cfg)
		case "mistral":
			r.providers[name] = newMistral(cfg)
		}
	}

	var mods []Moderator
	if cfg := configs["openai"]; cfg.APIKey != "" {
		mods = append(mods, newOpenAIModerator(cfg.APIKey, cfg.BaseURL))
	}
	if cfg := configs["mistral"]; cfg.APIKey != "" {
		mods = append(mods, newMistralModerator(cfg.APIKey, cfg.BaseURL))
	}
	switch len(mods) {
	case 0:
	case 1:
		r.moderator = mods[0]
	default:
		r.moderator = newFallbackModerator(mods[0], mods[1])
	}

	return r
}

// Resolve maps a model identifier to a provider and the model to request
// from it. An empty identifier selects the active provider with its
// default model.
func (r *Registry) Resolve(id string) (Provider, string, error) {
	name, model := ParseModelID(id)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.active
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, model, nil
}

// Generate resolves req.Model as a model identifier and forwards the request
// to the selected provider.
func (r *Registry) Generate(ctx context.Context, req Request) (string, error) {
	p, model, err := r.Resolve(req.Model)
	if err != nil {
		return "", err
	}
	req.Model = model
	return p.Generate(ctx, req)
}

// Active returns the default provider.
func (r *Registry) Active() (Provider, error) {
	p, _, err := r.Resolve("")
	return p, err
}

// SetActive switches the default provider at runtime.
func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("%w: %q (no API key?)", ErrUnknownProvider, name)
	}
	r.active = name
	return nil
}

// ActiveName returns the name of the default provider.
func (r *Registry) ActiveName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Available returns the sorted names of all configured providers.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Register adds or replaces a provider.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// HasProvider checks whether a named provider is configured.
func (r *Registry) HasProvider(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// SetModerator replaces the prompt moderator. A nil moderator disables
// moderation.
func (r *Registry) SetModerator(m Moderator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moderator = m
}

// CheckPrompt runs text through the moderation API. With no moderator
// configured every prompt is reported safe.
func (r *Registry) CheckPrompt(ctx context.Context, text string) (*ModerationResult, error) {
	r.mu.RLock()
	m := r.moderator
	r.mu.RUnlock()

	if m == nil {
		return &ModerationResult{Safe: true}, nil
	}
	return m.CheckSafety(ctx, text)
}
