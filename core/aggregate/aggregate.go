// Package aggregate collects the stored data an allowed intent refers to,
// scoped to what the caller may see. It runs strictly after the permission
// check and trusts only the server-side identity on the conversation
// context, never identifiers supplied by the client.
package aggregate

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pulsehq/pulse/core/conversation"
	"github.com/pulsehq/pulse/core/intent"
	"github.com/pulsehq/pulse/core/store"
)

// Result carries everything fetched for one intent. Sources that fail are
// reported, not fatal: the synthesizer works with what arrived.
type Result struct {
	Data   map[string]any
	Failed map[string]string
}

// Sources lists the categories that produced data.
func (r *Result) Sources() []string {
	out := make([]string, 0, len(r.Data))
	for k := range r.Data {
		out = append(out, k)
	}
	return out
}

// Aggregator fetches per-category data from the store.
type Aggregator struct {
	store  store.DataStore
	logger *slog.Logger
}

// Config holds aggregator construction options.
type Config struct {
	Logger *slog.Logger // Optional, uses slog.Default() if nil
}

// NewAggregator wires an aggregator to its backing store.
func NewAggregator(ds store.DataStore, cfg Config) *Aggregator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Aggregator{store: ds, logger: cfg.Logger}
}

// Collect fetches every data source the intent names. Scope resolution
// always starts from conv.EmployeeID or conv.Department, so a message
// claiming someone else's identity cannot widen the read.
func (a *Aggregator) Collect(ctx context.Context, it *intent.Intent, conv *conversation.Context) (*Result, error) {
	res := &Result{
		Data:   make(map[string]any),
		Failed: make(map[string]string),
	}

	for _, source := range it.DataSources {
		data, err := a.collectOne(ctx, source, it.Scope, conv)
		if err != nil {
			a.logger.Warn("data source fetch failed",
				"source", source,
				"scope", string(it.Scope),
				"error", err)
			res.Failed[source] = err.Error()
			continue
		}
		if data != nil {
			res.Data[source] = data
		}
	}

	return res, nil
}

func (a *Aggregator) collectOne(ctx context.Context, source string, scope intent.Scope, conv *conversation.Context) (any, error) {
	switch source {
	case intent.SourcePTO:
		return a.collectPTO(ctx, scope, conv)
	case intent.SourceEmployees:
		return a.collectEmployees(ctx, scope, conv)
	case intent.SourceSalary:
		return a.collectSalary(ctx, scope, conv)
	case intent.SourceCandidates:
		return a.collectCandidates(ctx, scope, conv)
	case intent.SourcePolicies, intent.SourceHandbook:
		return a.store.Policies().List(ctx)
	case intent.SourceDocuments:
		return a.store.Documents().ListByEmployee(ctx, conv.EmployeeID)
	case intent.SourceTools:
		return a.store.Tools().ListAssignments(ctx, conv.EmployeeID)
	case intent.SourceContracts:
		return a.store.Contracts().ListByEmployee(ctx, conv.EmployeeID)
	case intent.SourceStats:
		return a.store.Employees().Headcount(ctx)
	default:
		return nil, errors.New("unknown data source")
	}
}

// scopeEmployees resolves which employee records a scope covers. Company
// scope returns nil: company-wide questions are answered with aggregate
// statistics, never record dumps.
func (a *Aggregator) scopeEmployees(ctx context.Context, scope intent.Scope, conv *conversation.Context) ([]*store.Employee, error) {
	switch scope {
	case intent.ScopeSelf:
		e, err := a.store.Employees().Get(ctx, conv.EmployeeID)
		if err != nil {
			return nil, err
		}
		return []*store.Employee{e}, nil
	case intent.ScopeTeam:
		return a.store.Employees().ListByManager(ctx, conv.EmployeeID)
	case intent.ScopeDepartment:
		return a.store.Employees().ListByDepartment(ctx, conv.Department)
	default:
		return nil, nil
	}
}

// collectCandidates resolves the hiring pipeline for the scope. Self scope
// covers only candidates the caller interviews; the full pipeline is
// reachable only through the wider scopes granted to managers and admins.
func (a *Aggregator) collectCandidates(ctx context.Context, scope intent.Scope, conv *conversation.Context) (any, error) {
	all, err := a.store.Candidates().List(ctx)
	if err != nil {
		return nil, err
	}
	if scope != intent.ScopeSelf {
		return all, nil
	}

	mine := make([]*store.Candidate, 0, len(all))
	for _, c := range all {
		if c.Interviewer == conv.EmployeeID {
			mine = append(mine, c)
		}
	}
	return mine, nil
}

// ptoView pairs one employee's balance with their request history.
type ptoView struct {
	Employee string              `json:"employee"`
	Balance  *store.PTOBalance   `json:"balance"`
	Requests []*store.PTORequest `json:"requests"`
}

func (a *Aggregator) collectPTO(ctx context.Context, scope intent.Scope, conv *conversation.Context) (any, error) {
	employees, err := a.scopeEmployees(ctx, scope, conv)
	if err != nil {
		return nil, err
	}
	if employees == nil {
		// Company scope is only reachable for admins; give them the
		// pending queue rather than every record in the system.
		return a.pendingRequests(ctx)
	}

	views := make([]ptoView, 0, len(employees))
	for _, e := range employees {
		bal, err := a.store.PTO().Balance(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		reqs, err := a.store.PTO().ListByEmployee(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, ptoView{Employee: e.Name, Balance: bal, Requests: reqs})
	}
	return views, nil
}

func (a *Aggregator) pendingRequests(ctx context.Context) (any, error) {
	stats, err := a.store.Employees().Headcount(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"headcount": stats}, nil
}

func (a *Aggregator) collectEmployees(ctx context.Context, scope intent.Scope, conv *conversation.Context) (any, error) {
	employees, err := a.scopeEmployees(ctx, scope, conv)
	if err != nil {
		return nil, err
	}
	if employees == nil {
		return a.store.Employees().Headcount(ctx)
	}

	// Salary is its own category with its own grants; strip it from
	// generic employee reads.
	type employeeView struct {
		Name       string `json:"name"`
		Email      string `json:"email"`
		Department string `json:"department"`
	}
	views := make([]employeeView, 0, len(employees))
	for _, e := range employees {
		views = append(views, employeeView{Name: e.Name, Email: e.Email, Department: e.Department})
	}
	return views, nil
}

func (a *Aggregator) collectSalary(ctx context.Context, scope intent.Scope, conv *conversation.Context) (any, error) {
	employees, err := a.scopeEmployees(ctx, scope, conv)
	if err != nil {
		return nil, err
	}
	if employees == nil {
		// Company scope never exposes individual figures, only
		// department totals.
		return a.salaryByDepartment(ctx)
	}

	type salaryView struct {
		Name   string  `json:"name"`
		Salary float64 `json:"salary"`
	}
	views := make([]salaryView, 0, len(employees))
	for _, e := range employees {
		views = append(views, salaryView{Name: e.Name, Salary: e.Salary})
	}
	return views, nil
}

type departmentSalary struct {
	Department string  `json:"department"`
	Average    float64 `json:"average"`
}

func (a *Aggregator) salaryByDepartment(ctx context.Context) (any, error) {
	stats, err := a.store.Employees().Headcount(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]departmentSalary, 0, len(stats))
	for _, st := range stats {
		employees, err := a.store.Employees().ListByDepartment(ctx, st.Department)
		if err != nil {
			return nil, err
		}
		var total float64
		for _, e := range employees {
			total += e.Salary
		}
		avg := 0.0
		if len(employees) > 0 {
			avg = total / float64(len(employees))
		}
		out = append(out, departmentSalary{Department: st.Department, Average: avg})
	}
	return out, nil
}
