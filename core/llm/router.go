// Package llm routes language-model calls across interchangeable provider
// backends with priority-ordered failover.
package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/pulsehq/pulse/core/errors"
	"github.com/pulsehq/pulse/core/providers"
)

const defaultAttemptTimeout = 20 * time.Second

// ErrProviderUnavailable is returned when every eligible provider has been
// exhausted. Callers must map this to a static user-facing message; the
// router never fabricates a result.
var ErrProviderUnavailable = errors.New(errors.KindProviderUnavailable, "all eligible providers exhausted")

// Router selects a provider for each call, bounded by a per-attempt
// timeout, and fails over down the priority list. A failure sidelines the
// provider for a backoff window via the shared health table.
type Router struct {
	registry       *providers.Registry
	health         *HealthTable
	attemptTimeout time.Duration
	logger         *slog.Logger
}

// Config holds Router construction options.
type Config struct {
	AttemptTimeout time.Duration
	RetryPolicy    *errors.RetryPolicy
	Logger         *slog.Logger // Optional, uses slog.Default() if nil
}

// NewRouter creates a Router over the given registry.
func NewRouter(registry *providers.Registry, cfg Config) *Router {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = defaultAttemptTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Router{
		registry:       registry,
		health:         NewHealthTable(cfg.RetryPolicy),
		attemptTimeout: cfg.AttemptTimeout,
		logger:         cfg.Logger,
	}
}

// Health exposes the shared health table, read by the health endpoint.
func (r *Router) Health() *HealthTable {
	return r.health
}

// GenerateText runs a prose-generation call through the fallback chain.
func (r *Router) GenerateText(ctx context.Context, task TaskContext, req *providers.TextRequest) (*providers.TextResult, error) {
	var result *providers.TextResult

	err := r.attempt(ctx, task, func(callCtx context.Context, p providers.Provider) error {
		res, err := p.GenerateText(callCtx, req)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GenerateJSON runs a structured-output call through the fallback chain.
func (r *Router) GenerateJSON(ctx context.Context, task TaskContext, req *providers.JSONRequest) (*providers.JSONResult, error) {
	var result *providers.JSONResult

	err := r.attempt(ctx, task, func(callCtx context.Context, p providers.Provider) error {
		res, err := p.GenerateJSON(callCtx, req)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// attempt walks the priority-ordered provider list, skipping entries
// filtered by privacy or backoff, until one call succeeds.
func (r *Router) attempt(ctx context.Context, task TaskContext, call func(context.Context, providers.Provider) error) error {
	attempted := 0

	for _, entry := range r.registry.Entries() {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := entry.Provider.Name()

		if task.RequiresPrivacy && !entry.PrivacyApproved {
			continue
		}
		if r.health.InBackoff(name) {
			continue
		}

		attempted++

		callCtx, cancel := context.WithTimeout(ctx, r.timeoutFor(task))
		err := call(callCtx, entry.Provider)
		cancel()

		if err != nil {
			r.health.MarkFailure(name)
			r.logger.Warn("provider call failed, failing over",
				"provider", name,
				"task", string(task.TaskType),
				"error", err)
			continue
		}

		r.health.MarkSuccess(name)
		return nil
	}

	r.logger.Error("no provider available",
		"task", string(task.TaskType),
		"attempted", attempted,
		"requires_privacy", task.RequiresPrivacy)
	return ErrProviderUnavailable
}

func (r *Router) timeoutFor(task TaskContext) time.Duration {
	if task.ExpectedResponseTime > 0 && task.ExpectedResponseTime < r.attemptTimeout {
		return task.ExpectedResponseTime
	}
	return r.attemptTimeout
}
