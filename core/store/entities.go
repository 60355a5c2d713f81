// Package store is the data-store collaborator boundary: entity types, the
// CRUD interfaces the orchestrator core depends on, and the SQLite and
// in-memory implementations.
package store

import "time"

// PTO request lifecycle states.
const (
	PTOStatusPending  = "PENDING"
	PTOStatusApproved = "APPROVED"
	PTOStatusDenied   = "DENIED"
)

// Candidate pipeline stages, in order.
var CandidateStages = []string{"APPLIED", "SCREENING", "INTERVIEW", "OFFER", "HIRED", "REJECTED"}

// KnownStage reports whether stage is a valid pipeline stage.
func KnownStage(stage string) bool {
	for _, s := range CandidateStages {
		if s == stage {
			return true
		}
	}
	return false
}

// Employee is one person on the books.
type Employee struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Department  string    `json:"department"`
	TerritoryID string    `json:"territory_id,omitempty"`
	ManagerID   string    `json:"manager_id,omitempty"`
	Salary      float64   `json:"salary,omitempty"`
	StartDate   time.Time `json:"start_date"`
}

// Candidate is an applicant in the hiring pipeline.
type Candidate struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Stage       string     `json:"stage"`
	InterviewAt *time.Time `json:"interview_at,omitempty"`
	Interviewer string     `json:"interviewer,omitempty"`
}

// PTORequest is one time-off request.
type PTORequest struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employee_id"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    time.Time  `json:"end_date"`
	Days       float64    `json:"days"`
	Status     string     `json:"status"`
	Note       string     `json:"note,omitempty"`
	DecidedBy  string     `json:"decided_by,omitempty"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
}

// PTOBalance summarizes one employee's accrual position.
type PTOBalance struct {
	EmployeeID string  `json:"employee_id"`
	Accrued    float64 `json:"accrued"`
	Used       float64 `json:"used"`
	Remaining  float64 `json:"remaining"`
}

// Tool is a piece of assignable equipment.
type Tool struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Available int    `json:"available"`
}

// ToolAssignment records one tool handed to one employee.
type ToolAssignment struct {
	ID         string     `json:"id"`
	ToolID     string     `json:"tool_id"`
	EmployeeID string     `json:"employee_id"`
	AssignedAt time.Time  `json:"assigned_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

// Contract is an employment agreement on file.
type Contract struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employee_id"`
	Type       string     `json:"type"`
	SignedAt   time.Time  `json:"signed_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// Document is a form or file attached to an employee record.
type Document struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employee_id"`
	Title      string     `json:"title"`
	ViewedAt   *time.Time `json:"viewed_at,omitempty"`
}

// Policy is a published company policy, readable by everyone.
type Policy struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// HeadcountStat is an aggregate, non-identifying statistic.
type HeadcountStat struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

// AuditRecord is one executed-action entry in the audit trail.
type AuditRecord struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	ActorID    string    `json:"actor_id"`
	ActionType string    `json:"action_type"`
	Payload    string    `json:"payload"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}
