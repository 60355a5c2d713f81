// Package intent turns a raw chat message into a typed Intent through a
// chain of classifier stages: deterministic rules, a model-backed stage,
// and a keyword heuristic fallback.
package intent

// Kind is the top-level intent category.
type Kind string

const (
	KindInformation Kind = "information"
	KindAction      Kind = "action"
	KindReport      Kind = "report"
)

// ParseKind maps a string onto a known kind.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindInformation, KindAction, KindReport:
		return Kind(s), true
	}
	return "", false
}

// Scope is the breadth of data an intent may touch.
type Scope string

const (
	ScopeSelf       Scope = "self"
	ScopeTeam       Scope = "team"
	ScopeDepartment Scope = "department"
	ScopeCompany    Scope = "company"
)

// ParseScope maps a string onto a known scope.
func ParseScope(s string) (Scope, bool) {
	switch Scope(s) {
	case ScopeSelf, ScopeTeam, ScopeDepartment, ScopeCompany:
		return Scope(s), true
	}
	return "", false
}

// Data source categories the aggregator and permission table understand.
const (
	SourcePTO        = "pto"
	SourceEmployees  = "employees"
	SourceCandidates = "candidates"
	SourceSalary     = "salary"
	SourcePolicies   = "policies"
	SourceHandbook   = "handbook"
	SourceDocuments  = "documents"
	SourceTools      = "tools"
	SourceContracts  = "contracts"
	SourceStats      = "stats"
)

// KnownSource reports whether the category is one the system understands.
func KnownSource(s string) bool {
	switch s {
	case SourcePTO, SourceEmployees, SourceCandidates, SourceSalary,
		SourcePolicies, SourceHandbook, SourceDocuments, SourceTools,
		SourceContracts, SourceStats:
		return true
	}
	return false
}

// Intent is the typed classification of one message. Produced fresh per
// message, never mutated afterwards.
type Intent struct {
	Kind             Kind     `json:"kind"`
	DataSources      []string `json:"data_sources"`
	Scope            Scope    `json:"scope"`
	Confidence       float64  `json:"confidence"`
	RequiresApproval bool     `json:"requires_approval"`

	// ActionType names the action handler an action-kind intent targets.
	ActionType string `json:"action_type,omitempty"`

	// Suggestions are optional follow-up prompts from the model stage.
	Suggestions []string `json:"suggestions,omitempty"`

	// Method records which stage produced the classification.
	Method string `json:"method,omitempty"`
}

// HasSource reports whether the intent touches the given category.
func (i *Intent) HasSource(source string) bool {
	for _, s := range i.DataSources {
		if s == source {
			return true
		}
	}
	return false
}

// PrivacySensitive reports whether the intent touches categories that must
// only be routed to privacy-approved providers.
func (i *Intent) PrivacySensitive() bool {
	return i.HasSource(SourcePTO) || i.HasSource(SourceSalary) || i.HasSource(SourceEmployees)
}
