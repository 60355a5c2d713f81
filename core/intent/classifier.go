package intent

import (
	"context"
	"log/slog"
	"sort"

	"github.com/pulsehq/pulse/core/conversation"
	"github.com/pulsehq/pulse/core/llm"
)

// Classifier runs the stage chain: rules, model, heuristic. The first
// confident stage wins; a forced scope from the rules stage binds the
// final intent regardless of which stage produced it.
type Classifier struct {
	stages []Stage
	logger *slog.Logger
}

// Config holds classifier construction options.
type Config struct {
	Logger *slog.Logger // Optional, uses slog.Default() if nil
}

// NewClassifier creates the standard three-stage chain.
func NewClassifier(router *llm.Router, cfg Config) *Classifier {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := &Classifier{logger: cfg.Logger}
	c.AddStage(NewRulesStage())
	c.AddStage(NewModelStage(router))
	c.AddStage(NewHeuristicStage())
	return c
}

// NewClassifierWithStages builds a classifier from explicit stages.
func NewClassifierWithStages(logger *slog.Logger, stages ...Stage) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Classifier{logger: logger}
	for _, s := range stages {
		c.AddStage(s)
	}
	return c
}

// AddStage inserts a stage, keeping the chain ordered by priority.
func (c *Classifier) AddStage(stage Stage) {
	c.stages = append(c.stages, stage)
	sort.SliceStable(c.stages, func(i, j int) bool {
		return c.stages[i].Priority() < c.stages[j].Priority()
	})
}

// Classify runs the chain and returns the final intent. The heuristic
// terminal stage guarantees a result; Classify errors only on context
// cancellation.
func (c *Classifier) Classify(ctx context.Context, message string, conv *conversation.Context) (*Intent, error) {
	var forcedScope Scope
	var final *Intent

	for _, stage := range c.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := stage.Classify(ctx, message, conv)
		if err != nil {
			// Stage failures are recovered by the next stage, never
			// surfaced to the user.
			c.logger.Debug("classifier stage deferred",
				"stage", stage.Name(),
				"error", err)
			continue
		}
		if result == nil {
			continue
		}

		if result.ForcedScope != "" {
			forcedScope = result.ForcedScope
		}

		if result.Confident && result.Intent != nil {
			final = result.Intent
			break
		}
	}

	if final == nil {
		// Unreachable with the heuristic stage installed, but never return
		// nothing: synthesize the least-data intent.
		final = &Intent{
			Kind:       KindInformation,
			Scope:      ScopeCompany,
			Confidence: heuristicConfidence,
			Method:     heuristicMethodName,
		}
	}

	if forcedScope != "" {
		final.Scope = forcedScope
	}

	if final.Kind == KindAction {
		final.RequiresApproval = true
		if final.ActionType == "" {
			if action, sources, ok := detectAction(message); ok {
				final.ActionType = action
				if len(final.DataSources) == 0 {
					final.DataSources = sources
				}
			}
		}
	}

	return final, nil
}
