// Package permissions maps (role, intent) to an allow/deny decision
// through one declarative grant table. Anything not explicitly granted is
// denied.
package permissions

import (
	"github.com/pulsehq/pulse/core/conversation"
	"github.com/pulsehq/pulse/core/intent"
)

// RefusalMessage is the fixed reply for denied requests. Deliberately
// generic: it must not confirm or deny whether any requested record
// exists.
const RefusalMessage = "I'm not able to help with that request. If you believe you should have access, please contact HR."

// GeneralCategory marks requests that touch no stored data at all (small
// talk, capability questions). Everyone may hold a conversation.
const GeneralCategory = "general"

// publicCategories are readable by any role at any scope.
var publicCategories = map[string]bool{
	intent.SourcePolicies: true,
	intent.SourceHandbook: true,
	intent.SourceStats:    true,
	GeneralCategory:       true,
}

// grant is one row of the permission table: a role may touch a category at
// the listed scopes. Empty scopes means every scope; excluded categories
// are carved out of a wildcard category grant.
type grant struct {
	category string // "*" for all categories
	exclude  map[string]bool
	scopes   map[intent.Scope]bool // nil for all scopes
}

func scopes(list ...intent.Scope) map[intent.Scope]bool {
	m := make(map[intent.Scope]bool, len(list))
	for _, s := range list {
		m[s] = true
	}
	return m
}

// table is the whole authorization matrix. Changing access is a data
// change here, not a control-flow change anywhere else.
var table = map[conversation.Role][]grant{
	conversation.RoleAdmin: {
		{category: "*"},
	},
	conversation.RoleManager: {
		// Own and team records, except salary is team-scope only.
		{category: "*", exclude: map[string]bool{intent.SourceSalary: true}, scopes: scopes(intent.ScopeSelf)},
		{category: "*", scopes: scopes(intent.ScopeTeam)},
		// Company-wide reads are limited to public categories.
		{category: intent.SourcePolicies},
		{category: intent.SourceHandbook},
		{category: intent.SourceStats},
		{category: GeneralCategory},
	},
	conversation.RoleEmployee: {
		// Own records only, and never salary even at self scope.
		{category: "*", exclude: map[string]bool{intent.SourceSalary: true}, scopes: scopes(intent.ScopeSelf)},
		// Public categories at any scope.
		{category: intent.SourcePolicies},
		{category: intent.SourceHandbook},
		{category: intent.SourceStats},
		{category: GeneralCategory},
	},
}

// Decision is the evaluator's verdict.
type Decision struct {
	Allowed bool
	// Reason is for logs only; user-facing denials always use
	// RefusalMessage.
	Reason string
}

// Evaluate is a pure function over the grant table. It must run before any
// data aggregation or proposal construction, and it denies by default.
func Evaluate(role conversation.Role, it *intent.Intent) Decision {
	if it == nil {
		return Decision{Allowed: false, Reason: "no intent"}
	}

	grants, ok := table[role]
	if !ok {
		return Decision{Allowed: false, Reason: "unknown role"}
	}

	categories := it.DataSources
	if len(categories) == 0 {
		categories = []string{GeneralCategory}
	}

	for _, category := range categories {
		if !allowed(grants, category, it.Scope) {
			return Decision{
				Allowed: false,
				Reason:  "no grant for category " + category + " at scope " + string(it.Scope),
			}
		}
	}

	return Decision{Allowed: true}
}

func allowed(grants []grant, category string, scope intent.Scope) bool {
	for _, g := range grants {
		if g.category != "*" && g.category != category {
			continue
		}
		if g.category == "*" && g.exclude[category] {
			continue
		}
		if g.scopes != nil && !g.scopes[scope] {
			continue
		}
		return true
	}
	return false
}

// PublicCategory reports whether a category is readable by everyone.
func PublicCategory(category string) bool {
	return publicCategories[category]
}

// actionTable lists which roles may trigger each mutating action. Admin is
// implicit: any known action is granted.
var actionTable = map[string][]conversation.Role{
	"approve_pto":          {conversation.RoleManager},
	"deny_pto":             {conversation.RoleManager},
	"schedule_interview":   {conversation.RoleManager},
	"move_candidate_stage": {conversation.RoleManager},
	"create_employee":      {},
	"assign_tool":          {conversation.RoleManager},
	"return_tool":          {conversation.RoleManager, conversation.RoleEmployee},
	"mark_document_viewed": {conversation.RoleManager, conversation.RoleEmployee},
}

// EvaluateAction decides whether a role may trigger an action type. Unknown
// actions are denied for everyone, including admins.
func EvaluateAction(role conversation.Role, actionType string) Decision {
	roles, known := actionTable[actionType]
	if !known {
		return Decision{Allowed: false, Reason: "unknown action " + actionType}
	}
	if role == conversation.RoleAdmin {
		return Decision{Allowed: true}
	}
	for _, r := range roles {
		if r == role {
			return Decision{Allowed: true}
		}
	}
	return Decision{Allowed: false, Reason: "role may not trigger " + actionType}
}
