package intent

import (
	"context"

	"github.com/pulsehq/pulse/core/conversation"
)

const (
	rulesPriority   = 10
	rulesMethodName = "rules"

	// rulesConfidence applies when the deterministic stage resolves the
	// whole classification on its own.
	rulesConfidence = 0.95
)

// RulesStage is the deterministic first stage: regex and keyword detection
// of self/other reference, action verbs, and privacy-sensitive subjects.
type RulesStage struct{}

// NewRulesStage creates the deterministic classification stage.
func NewRulesStage() *RulesStage {
	return &RulesStage{}
}

func (s *RulesStage) Name() string  { return rulesMethodName }
func (s *RulesStage) Priority() int { return rulesPriority }

// Classify applies the deterministic rules. It is confident only when the
// signals are unambiguous; otherwise it defers, possibly carrying a forced
// scope for the privacy override.
func (s *RulesStage) Classify(ctx context.Context, message string, conv *conversation.Context) (*StageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &StageResult{Method: rulesMethodName}

	privacy := isPrivacySensitive(message)
	otherRef := isOtherReferential(message)

	// Privacy override: for the lowest-privilege tier, a privacy-sensitive
	// message about someone else's records is forced to a non-self scope
	// deterministically. Model output must never relax this.
	if conv != nil && conv.Role == conversation.RoleEmployee && privacy && otherRef {
		result.ForcedScope = ScopeCompany
	}

	if action, sources, ok := detectAction(message); ok {
		scope, scopeOK := detectScope(message)
		if !scopeOK {
			scope = ScopeSelf
		}
		result.Intent = &Intent{
			Kind:             KindAction,
			DataSources:      sources,
			Scope:            scope,
			Confidence:       rulesConfidence,
			RequiresApproval: true,
			ActionType:       action,
			Method:           rulesMethodName,
		}
		result.Confident = true
		return result, nil
	}

	// An unambiguous lookup: clear scope signal plus at least one
	// recognized data source.
	if lookupPattern.MatchString(message) {
		scope, scopeOK := detectScope(message)
		sources := detectSources(message)
		if scopeOK && len(sources) > 0 {
			kind := KindInformation
			if reportPattern.MatchString(message) {
				kind = KindReport
			}
			result.Intent = &Intent{
				Kind:        kind,
				DataSources: sources,
				Scope:       scope,
				Confidence:  rulesConfidence,
				Method:      rulesMethodName,
			}
			result.Confident = true
			return result, nil
		}
	}

	return result, nil
}
