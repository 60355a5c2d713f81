package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by every implementation.
var (
	ErrNotFound     = errors.New("record not found")
	ErrNoStock      = errors.New("no units available")
	ErrAlreadySet   = errors.New("record already in requested state")
	ErrStageUnknown = errors.New("unknown pipeline stage")
)

// EmployeeStore reads and writes employee records.
type EmployeeStore interface {
	Get(ctx context.Context, id string) (*Employee, error)
	GetByUserID(ctx context.Context, userID string) (*Employee, error)
	// FindByName resolves a case-insensitive full or partial name match.
	FindByName(ctx context.Context, name string) (*Employee, error)
	ListByManager(ctx context.Context, managerID string) ([]*Employee, error)
	ListByDepartment(ctx context.Context, department string) ([]*Employee, error)
	Create(ctx context.Context, e *Employee) error
	Headcount(ctx context.Context) ([]HeadcountStat, error)
}

// CandidateStore manages the hiring pipeline.
type CandidateStore interface {
	Get(ctx context.Context, id string) (*Candidate, error)
	List(ctx context.Context) ([]*Candidate, error)
	Create(ctx context.Context, c *Candidate) error
	SetStage(ctx context.Context, id, stage string) error
	ScheduleInterview(ctx context.Context, id string, at time.Time, interviewer string) error
}

// PTOStore manages time-off requests and balances.
type PTOStore interface {
	Get(ctx context.Context, id string) (*PTORequest, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]*PTORequest, error)
	Create(ctx context.Context, r *PTORequest) error
	SetStatus(ctx context.Context, id, status, decidedBy string) error
	Balance(ctx context.Context, employeeID string) (*PTOBalance, error)
}

// ToolStore manages equipment inventory and assignments.
type ToolStore interface {
	Get(ctx context.Context, id string) (*Tool, error)
	List(ctx context.Context) ([]*Tool, error)
	Create(ctx context.Context, t *Tool) error
	// AdjustAvailable changes stock by delta and fails with ErrNoStock if
	// the result would go negative.
	AdjustAvailable(ctx context.Context, id string, delta int) error
	CreateAssignment(ctx context.Context, a *ToolAssignment) error
	OpenAssignment(ctx context.Context, toolID, employeeID string) (*ToolAssignment, error)
	CloseAssignment(ctx context.Context, assignmentID string, returnedAt time.Time) error
	ListAssignments(ctx context.Context, employeeID string) ([]*ToolAssignment, error)
}

// ContractStore reads employment contracts.
type ContractStore interface {
	ListByEmployee(ctx context.Context, employeeID string) ([]*Contract, error)
	Create(ctx context.Context, c *Contract) error
}

// DocumentStore reads and acknowledges employee documents.
type DocumentStore interface {
	Get(ctx context.Context, id string) (*Document, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]*Document, error)
	Create(ctx context.Context, d *Document) error
	MarkViewed(ctx context.Context, id string, viewedAt time.Time) error
}

// PolicyStore reads published policies.
type PolicyStore interface {
	List(ctx context.Context) ([]*Policy, error)
	Create(ctx context.Context, p *Policy) error
}

// AuditStore appends and reads the executed-action trail.
type AuditStore interface {
	Append(ctx context.Context, r *AuditRecord) error
	Recent(ctx context.Context, limit int) ([]*AuditRecord, error)
}

// DataStore is the full persistence surface. WithinTx runs fn against a
// store view bound to a single transaction; if fn returns an error every
// write inside it is rolled back.
type DataStore interface {
	Employees() EmployeeStore
	Candidates() CandidateStore
	PTO() PTOStore
	Tools() ToolStore
	Contracts() ContractStore
	Documents() DocumentStore
	Policies() PolicyStore
	Audit() AuditStore

	WithinTx(ctx context.Context, fn func(DataStore) error) error
	Close() error
}
