package intent

import (
	"context"

	"github.com/pulsehq/pulse/core/conversation"
)

// Stage is one step of the classification chain. A stage either returns a
// confident Intent or defers to the next stage; it may also return scope
// constraints that bind whichever later stage wins.
type Stage interface {
	Classify(ctx context.Context, message string, conv *conversation.Context) (*StageResult, error)
	Name() string
	Priority() int
}

// StageResult carries one stage's output.
type StageResult struct {
	// Intent is the stage's classification, nil if the stage has nothing.
	Intent *Intent

	// Confident means the chain stops here; later stages never run.
	Confident bool

	// ForcedScope, when set, overrides the scope of the final intent no
	// matter which stage produced it. Used for privacy-sensitive scope
	// decisions that a probabilistic classifier must never be the sole
	// gate for.
	ForcedScope Scope

	Method string
}
