package providers

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Entry binds a provider to its routing metadata. Priority orders the
// fallback chain (lower tries first); PrivacyApproved marks providers
// allowed to see privacy-sensitive requests.
type Entry struct {
	Provider        Provider
	Priority        int
	PrivacyApproved bool
}

// Registry holds the ordered provider list the router selects from.
// Providers are registered once at process start; reads are concurrent.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	byName  map[string]Entry
}

// NewRegistry creates an empty provider registry
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Entry),
	}
}

// Register adds a provider with its priority and privacy approval.
func (r *Registry) Register(provider Provider, priority int, privacyApproved bool) error {
	if err := provider.ValidateConfig(); err != nil {
		return fmt.Errorf("invalid provider config for %s: %w", provider.Name(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := provider.Name()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("provider already registered: %s", name)
	}

	entry := Entry{Provider: provider, Priority: priority, PrivacyApproved: privacyApproved}
	r.entries = append(r.entries, entry)
	r.byName[name] = entry

	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].Priority < r.entries[j].Priority
	})

	return nil
}

// Entries returns the provider list in priority order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Get returns a provider entry by name
func (r *Registry) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.byName[name]
	return entry, ok
}

// Names returns registered provider names in priority order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.Provider.Name())
	}
	return names
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Close closes all registered providers
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, entry := range r.entries {
		if err := entry.Provider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", entry.Provider.Name(), err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing providers: %v", errs)
	}
	return nil
}

// RegistryBuilder provides a fluent interface for building a registry
type RegistryBuilder struct {
	registry *Registry
	ctx      context.Context
	errors   []error
}

// NewRegistryBuilder creates a new builder
func NewRegistryBuilder(ctx context.Context) *RegistryBuilder {
	return &RegistryBuilder{
		registry: NewRegistry(),
		ctx:      ctx,
	}
}

// WithAnthropic adds an Anthropic provider
func (b *RegistryBuilder) WithAnthropic(config AnthropicConfig, priority int, privacyApproved bool) *RegistryBuilder {
	provider, err := NewAnthropicProvider(config)
	if err != nil {
		b.errors = append(b.errors, fmt.Errorf("anthropic: %w", err))
		return b
	}
	if err := b.registry.Register(provider, priority, privacyApproved); err != nil {
		b.errors = append(b.errors, fmt.Errorf("anthropic: %w", err))
	}
	return b
}

// WithOpenAI adds an OpenAI provider
func (b *RegistryBuilder) WithOpenAI(config OpenAIConfig, priority int, privacyApproved bool) *RegistryBuilder {
	provider, err := NewOpenAIProvider(config)
	if err != nil {
		b.errors = append(b.errors, fmt.Errorf("openai: %w", err))
		return b
	}
	if err := b.registry.Register(provider, priority, privacyApproved); err != nil {
		b.errors = append(b.errors, fmt.Errorf("openai: %w", err))
	}
	return b
}

// WithGoogle adds a Google provider
func (b *RegistryBuilder) WithGoogle(config GoogleConfig, priority int, privacyApproved bool) *RegistryBuilder {
	provider, err := NewGoogleProvider(b.ctx, config)
	if err != nil {
		b.errors = append(b.errors, fmt.Errorf("google: %w", err))
		return b
	}
	if err := b.registry.Register(provider, priority, privacyApproved); err != nil {
		b.errors = append(b.errors, fmt.Errorf("google: %w", err))
	}
	return b
}

// WithLocal adds the local template fallback provider. Always
// privacy-approved; nothing leaves the process.
func (b *RegistryBuilder) WithLocal(priority int) *RegistryBuilder {
	if err := b.registry.Register(NewLocalProvider(), priority, true); err != nil {
		b.errors = append(b.errors, fmt.Errorf("local: %w", err))
	}
	return b
}

// Build returns the configured registry
func (b *RegistryBuilder) Build() (*Registry, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("registry build errors: %v", b.errors)
	}
	return b.registry, nil
}
