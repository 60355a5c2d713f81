package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pulsehq/pulse/core/conversation"
	"github.com/pulsehq/pulse/core/intent"
)

func it(kind intent.Kind, scope intent.Scope, sources ...string) *intent.Intent {
	return &intent.Intent{Kind: kind, Scope: scope, DataSources: sources}
}

func TestEvaluateMatrix(t *testing.T) {
	tests := []struct {
		name  string
		role  conversation.Role
		in    *intent.Intent
		allow bool
	}{
		// Admin
		{"admin sees everything", conversation.RoleAdmin, it(intent.KindInformation, intent.ScopeCompany, intent.SourceSalary), true},
		{"admin company pto", conversation.RoleAdmin, it(intent.KindInformation, intent.ScopeCompany, intent.SourcePTO), true},

		// Manager
		{"manager self pto", conversation.RoleManager, it(intent.KindInformation, intent.ScopeSelf, intent.SourcePTO), true},
		{"manager team pto", conversation.RoleManager, it(intent.KindInformation, intent.ScopeTeam, intent.SourcePTO), true},
		{"manager team salary", conversation.RoleManager, it(intent.KindInformation, intent.ScopeTeam, intent.SourceSalary), true},
		{"manager self salary denied", conversation.RoleManager, it(intent.KindInformation, intent.ScopeSelf, intent.SourceSalary), false},
		{"manager company pto denied", conversation.RoleManager, it(intent.KindInformation, intent.ScopeCompany, intent.SourcePTO), false},
		{"manager department employees denied", conversation.RoleManager, it(intent.KindInformation, intent.ScopeDepartment, intent.SourceEmployees), false},
		{"manager company stats", conversation.RoleManager, it(intent.KindReport, intent.ScopeCompany, intent.SourceStats), true},
		{"manager company policies", conversation.RoleManager, it(intent.KindInformation, intent.ScopeCompany, intent.SourcePolicies), true},

		// Employee
		{"employee self pto", conversation.RoleEmployee, it(intent.KindInformation, intent.ScopeSelf, intent.SourcePTO), true},
		{"employee self salary denied", conversation.RoleEmployee, it(intent.KindInformation, intent.ScopeSelf, intent.SourceSalary), false},
		{"employee company pto denied", conversation.RoleEmployee, it(intent.KindInformation, intent.ScopeCompany, intent.SourcePTO), false},
		{"employee team pto denied", conversation.RoleEmployee, it(intent.KindInformation, intent.ScopeTeam, intent.SourcePTO), false},
		{"employee department denied", conversation.RoleEmployee, it(intent.KindInformation, intent.ScopeDepartment, intent.SourceEmployees), false},
		{"employee handbook any scope", conversation.RoleEmployee, it(intent.KindInformation, intent.ScopeCompany, intent.SourceHandbook), true},
		{"employee policies any scope", conversation.RoleEmployee, it(intent.KindInformation, intent.ScopeDepartment, intent.SourcePolicies), true},
		{"employee self documents", conversation.RoleEmployee, it(intent.KindInformation, intent.ScopeSelf, intent.SourceDocuments), true},

		// Mixed categories: one denied category denies the whole intent.
		{"employee self pto plus salary denied", conversation.RoleEmployee, it(intent.KindInformation, intent.ScopeSelf, intent.SourcePTO, intent.SourceSalary), false},

		// No data sources at all: general conversation is allowed.
		{"employee small talk", conversation.RoleEmployee, it(intent.KindInformation, intent.ScopeCompany), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Evaluate(tt.role, tt.in)
			assert.Equal(t, tt.allow, decision.Allowed, decision.Reason)
		})
	}
}

func TestEvaluateDeniesByDefault(t *testing.T) {
	// Unknown role and unknown category both fall through to deny.
	decision := Evaluate(conversation.Role("CONTRACTOR"), it(intent.KindInformation, intent.ScopeSelf, intent.SourcePTO))
	assert.False(t, decision.Allowed)

	decision = Evaluate(conversation.RoleEmployee, it(intent.KindInformation, intent.ScopeCompany, "payroll_exports"))
	assert.False(t, decision.Allowed)

	decision = Evaluate(conversation.RoleEmployee, nil)
	assert.False(t, decision.Allowed)
}

func TestEvaluateIsPure(t *testing.T) {
	in := it(intent.KindInformation, intent.ScopeSelf, intent.SourcePTO)

	first := Evaluate(conversation.RoleEmployee, in)
	second := Evaluate(conversation.RoleEmployee, in)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{intent.SourcePTO}, in.DataSources, "intent must not be mutated")
}

func TestEvaluateAction(t *testing.T) {
	tests := []struct {
		name   string
		role   conversation.Role
		action string
		allow  bool
	}{
		{"admin approves pto", conversation.RoleAdmin, "approve_pto", true},
		{"admin creates employees", conversation.RoleAdmin, "create_employee", true},
		{"manager approves pto", conversation.RoleManager, "approve_pto", true},
		{"manager cannot create employees", conversation.RoleManager, "create_employee", false},
		{"employee cannot approve pto", conversation.RoleEmployee, "approve_pto", false},
		{"employee acknowledges document", conversation.RoleEmployee, "mark_document_viewed", true},
		{"employee returns equipment", conversation.RoleEmployee, "return_tool", true},
		{"unknown action denied for admin", conversation.RoleAdmin, "launch_rockets", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allow, EvaluateAction(tt.role, tt.action).Allowed)
		})
	}
}

func TestRefusalMessageIsGeneric(t *testing.T) {
	assert.NotContains(t, RefusalMessage, "exist")
	assert.NotContains(t, RefusalMessage, "found")
}
