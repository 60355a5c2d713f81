package llm

import (
	"sync"
	"time"

	"github.com/pulsehq/pulse/core/errors"
)

// ProviderHealth is the advisory availability record for one provider.
// Shared process-wide; last-writer-wins is acceptable because health state
// steers routing, it is not a correctness guarantee.
type ProviderHealth struct {
	Provider     string    `json:"provider"`
	Available    bool      `json:"available"`
	Failures     int       `json:"failures"`
	LastFailure  time.Time `json:"last_failure,omitempty"`
	BackoffUntil time.Time `json:"backoff_until,omitempty"`
}

// HealthTable tracks per-provider health across every in-flight router
// call. Reads happen before each attempt, writes after.
type HealthTable struct {
	mu     sync.RWMutex
	states map[string]*ProviderHealth
	policy *errors.RetryPolicy
	jitter float64
	now    func() time.Time
}

// NewHealthTable creates a table using the given backoff policy.
func NewHealthTable(policy *errors.RetryPolicy) *HealthTable {
	if policy == nil {
		policy = errors.DefaultRetryPolicy()
	}
	return &HealthTable{
		states: make(map[string]*ProviderHealth),
		policy: policy,
		jitter: 0.2,
		now:    time.Now,
	}
}

// InBackoff reports whether the provider is currently sidelined.
func (h *HealthTable) InBackoff(provider string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	state, ok := h.states[provider]
	if !ok {
		return false
	}
	return h.now().Before(state.BackoffUntil)
}

// MarkFailure records a failed call and extends the provider's backoff
// window exponentially with its consecutive failure count.
func (h *HealthTable) MarkFailure(provider string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.states[provider]
	if !ok {
		state = &ProviderHealth{Provider: provider}
		h.states[provider] = state
	}

	state.Failures++
	state.Available = false
	state.LastFailure = h.now()

	delay := errors.BackoffDelay(state.Failures-1, h.policy)
	state.BackoffUntil = h.now().Add(errors.AddJitter(delay, h.jitter))
}

// MarkSuccess clears any failure state for the provider.
func (h *HealthTable) MarkSuccess(provider string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.states[provider] = &ProviderHealth{
		Provider:  provider,
		Available: true,
	}
}

// Snapshot returns a copy of every provider's health record.
func (h *HealthTable) Snapshot() []ProviderHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]ProviderHealth, 0, len(h.states))
	for _, state := range h.states {
		out = append(out, *state)
	}
	return out
}
