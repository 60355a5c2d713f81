package intent

import (
	"context"

	"github.com/pulsehq/pulse/core/conversation"
)

const (
	heuristicPriority   = 30
	heuristicMethodName = "heuristic"

	// heuristicConfidence is deliberately fixed and low: this stage only
	// runs when the model stage failed.
	heuristicConfidence = 0.5
)

// HeuristicStage is the terminal fallback. It synthesizes a minimal intent
// from keyword matching and always fails toward the least-data response:
// scope is self only when self-referential language is present, otherwise
// company with no privileged data sources.
type HeuristicStage struct{}

// NewHeuristicStage creates the fallback classification stage.
func NewHeuristicStage() *HeuristicStage {
	return &HeuristicStage{}
}

func (s *HeuristicStage) Name() string  { return heuristicMethodName }
func (s *HeuristicStage) Priority() int { return heuristicPriority }

// Classify always produces an intent; it is the end of the chain.
func (s *HeuristicStage) Classify(ctx context.Context, message string, conv *conversation.Context) (*StageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Intent{
		Kind:       KindInformation,
		Confidence: heuristicConfidence,
		Method:     heuristicMethodName,
	}

	if action, sources, ok := detectAction(message); ok {
		result.Kind = KindAction
		result.ActionType = action
		result.RequiresApproval = true
		result.DataSources = sources
	} else if reportPattern.MatchString(message) {
		result.Kind = KindReport
	}

	if isSelfReferential(message) && !isOtherReferential(message) {
		result.Scope = ScopeSelf
		if result.Kind != KindAction {
			result.DataSources = detectSources(message)
		}
	} else {
		result.Scope = ScopeCompany
		if result.Kind != KindAction {
			// Never guess toward privileged data: only public categories
			// survive the fallback at non-self scope.
			for _, src := range detectSources(message) {
				if src == SourcePolicies || src == SourceHandbook || src == SourceStats {
					result.DataSources = append(result.DataSources, src)
				}
			}
		}
	}

	return &StageResult{Intent: result, Confident: true, Method: heuristicMethodName}, nil
}
