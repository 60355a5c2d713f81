package actions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pulsehq/pulse/core/conversation"
	"github.com/pulsehq/pulse/core/notify"
	"github.com/pulsehq/pulse/core/store"
)

// handlerSet carries the shared collaborators for the standard handlers.
type handlerSet struct {
	store    store.DataStore
	notifier notify.Notifier
	logger   *slog.Logger
}

func (h *handlerSet) all() []Handler {
	return []Handler{
		&ptoDecisionHandler{h, "approve_pto", store.PTOStatusApproved},
		&ptoDecisionHandler{h, "deny_pto", store.PTOStatusDenied},
		&scheduleInterviewHandler{h},
		&moveCandidateStageHandler{h},
		&createEmployeeHandler{h},
		&assignToolHandler{h},
		&returnToolHandler{h},
		&markDocumentViewedHandler{h},
	}
}

// notifyQuietly sends a side-channel message; delivery failures are logged
// and never fail the action.
func (h *handlerSet) notifyQuietly(ctx context.Context, e notify.Email) {
	if err := h.notifier.SendEmail(ctx, e); err != nil {
		h.logger.Warn("notification delivery failed",
			"to", e.To,
			"subject", e.Subject,
			"error", err)
	}
}

type ptoDecisionHandler struct {
	*handlerSet
	actionType string
	status     string
}

func (h *ptoDecisionHandler) Type() string { return h.actionType }

func (h *ptoDecisionHandler) Execute(ctx context.Context, p *Proposal, conv *conversation.Context) (*Result, error) {
	id := stringParam(p, "request_id")
	if id == "" {
		return nil, validation("The proposal is missing the request id.")
	}

	req, err := h.store.PTO().Get(ctx, id)
	if err != nil {
		return nil, validation(fmt.Sprintf("PTO request #%s no longer exists.", id))
	}
	// The request may have been decided between proposal and confirmation.
	if req.Status != store.PTOStatusPending {
		return nil, validation(fmt.Sprintf("PTO request #%s has already been decided (%s).", id, req.Status))
	}

	if err := h.store.PTO().SetStatus(ctx, id, h.status, conv.EmployeeID); err != nil {
		return nil, fmt.Errorf("failed to update request: %w", err)
	}

	employee, err := h.store.Employees().Get(ctx, req.EmployeeID)
	if err == nil {
		h.notifyQuietly(ctx, notify.Email{
			To:      employee.Email,
			Subject: fmt.Sprintf("Your PTO request was %s", lowered(h.status)),
			HTML:    fmt.Sprintf("Your time-off request #%s (%.1f days) was %s.", id, req.Days, lowered(h.status)),
		})
	}

	verb := "Approved"
	if h.status == store.PTOStatusDenied {
		verb = "Denied"
	}
	return &Result{
		Type:    h.actionType,
		Status:  StatusSuccess,
		Message: fmt.Sprintf("%s PTO request #%s.", verb, id),
		Details: map[string]any{"request_id": id, "status": h.status},
	}, nil
}

func lowered(status string) string {
	switch status {
	case store.PTOStatusApproved:
		return "approved"
	case store.PTOStatusDenied:
		return "denied"
	default:
		return status
	}
}

type scheduleInterviewHandler struct{ *handlerSet }

func (h *scheduleInterviewHandler) Type() string { return "schedule_interview" }

func (h *scheduleInterviewHandler) Execute(ctx context.Context, p *Proposal, conv *conversation.Context) (*Result, error) {
	candidateID := stringParam(p, "candidate_id")
	when, err := time.Parse(time.RFC3339, stringParam(p, "when"))
	if err != nil {
		return nil, validation("The proposed interview time is not usable anymore.")
	}

	var candidate *store.Candidate
	err = h.store.WithinTx(ctx, func(tx store.DataStore) error {
		candidate, err = tx.Candidates().Get(ctx, candidateID)
		if err != nil {
			return validation("That candidate is no longer in the pipeline.")
		}
		if err := tx.Candidates().ScheduleInterview(ctx, candidateID, when, stringParam(p, "interviewer")); err != nil {
			return fmt.Errorf("failed to schedule interview: %w", err)
		}
		// Scheduling pulls the candidate into the interview stage unless
		// they are already past it.
		if candidate.Stage == "APPLIED" || candidate.Stage == "SCREENING" {
			if err := tx.Candidates().SetStage(ctx, candidateID, "INTERVIEW"); err != nil {
				return fmt.Errorf("failed to update stage: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if candidate.Email != "" {
		h.notifyQuietly(ctx, notify.Email{
			To:      candidate.Email,
			Subject: "Interview invitation",
			HTML:    fmt.Sprintf("Hi %s, your interview is scheduled for %s.", candidate.Name, when.Format("Monday, Jan 2 at 15:04 MST")),
		})
	}

	return &Result{
		Type:    "schedule_interview",
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Interview with %s scheduled for %s.", candidate.Name, when.Format("Monday, Jan 2 at 15:04")),
		Details: map[string]any{"candidate_id": candidateID, "when": when.Format(time.RFC3339)},
	}, nil
}

type moveCandidateStageHandler struct{ *handlerSet }

func (h *moveCandidateStageHandler) Type() string { return "move_candidate_stage" }

func (h *moveCandidateStageHandler) Execute(ctx context.Context, p *Proposal, conv *conversation.Context) (*Result, error) {
	candidateID := stringParam(p, "candidate_id")
	stage := stringParam(p, "stage")

	candidate, err := h.store.Candidates().Get(ctx, candidateID)
	if err != nil {
		return nil, validation("That candidate is no longer in the pipeline.")
	}
	if err := h.store.Candidates().SetStage(ctx, candidateID, stage); err != nil {
		return nil, validation(fmt.Sprintf("Cannot move to stage %q.", stage))
	}

	return &Result{
		Type:    "move_candidate_stage",
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Moved %s to %s.", candidate.Name, stage),
		Details: map[string]any{"candidate_id": candidateID, "from": candidate.Stage, "to": stage},
	}, nil
}

type createEmployeeHandler struct{ *handlerSet }

func (h *createEmployeeHandler) Type() string { return "create_employee" }

func (h *createEmployeeHandler) Execute(ctx context.Context, p *Proposal, conv *conversation.Context) (*Result, error) {
	name := stringParam(p, "name")
	email := stringParam(p, "email")
	if name == "" || email == "" {
		return nil, validation("An employee record needs at least a name and an email.")
	}

	employee := &store.Employee{
		ID:         uuid.New().String(),
		UserID:     email,
		Name:       name,
		Email:      email,
		Department: stringParam(p, "department"),
		ManagerID:  conv.EmployeeID,
		StartDate:  time.Now().UTC(),
	}

	// The record, its onboarding paperwork, and the contract shell land
	// together or not at all.
	err := h.store.WithinTx(ctx, func(tx store.DataStore) error {
		if err := tx.Employees().Create(ctx, employee); err != nil {
			return fmt.Errorf("failed to create employee: %w", err)
		}
		if err := tx.Documents().Create(ctx, &store.Document{
			ID:         uuid.New().String(),
			EmployeeID: employee.ID,
			Title:      "Onboarding Checklist",
		}); err != nil {
			return fmt.Errorf("failed to create onboarding document: %w", err)
		}
		return tx.Contracts().Create(ctx, &store.Contract{
			ID:         uuid.New().String(),
			EmployeeID: employee.ID,
			Type:       "employment",
			SignedAt:   time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	h.notifyQuietly(ctx, notify.Email{
		To:      email,
		Subject: "Welcome aboard",
		HTML:    fmt.Sprintf("Hi %s, your employee record has been created. Your onboarding checklist is waiting for you.", name),
	})

	return &Result{
		Type:    "create_employee",
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Created employee record for %s.", name),
		Details: map[string]any{"employee_id": employee.ID},
	}, nil
}

type assignToolHandler struct{ *handlerSet }

func (h *assignToolHandler) Type() string { return "assign_tool" }

func (h *assignToolHandler) Execute(ctx context.Context, p *Proposal, conv *conversation.Context) (*Result, error) {
	toolID := stringParam(p, "tool_id")
	employeeID := stringParam(p, "employee_id")

	assignment := &store.ToolAssignment{
		ID:         uuid.New().String(),
		ToolID:     toolID,
		EmployeeID: employeeID,
		AssignedAt: time.Now().UTC(),
	}

	// Stock decrement and assignment insert are one transaction: a failure
	// in either must not strand inventory.
	err := h.store.WithinTx(ctx, func(tx store.DataStore) error {
		if err := tx.Tools().AdjustAvailable(ctx, toolID, -1); err != nil {
			if err == store.ErrNoStock {
				return validation("No units are available anymore.")
			}
			return fmt.Errorf("failed to reserve a unit: %w", err)
		}
		return tx.Tools().CreateAssignment(ctx, assignment)
	})
	if err != nil {
		return nil, err
	}

	tool, _ := h.store.Tools().Get(ctx, toolID)
	name := toolID
	if tool != nil {
		name = tool.Name
	}
	return &Result{
		Type:    "assign_tool",
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Assigned one %s.", name),
		Details: map[string]any{"assignment_id": assignment.ID, "tool_id": toolID, "employee_id": employeeID},
	}, nil
}

type returnToolHandler struct{ *handlerSet }

func (h *returnToolHandler) Type() string { return "return_tool" }

func (h *returnToolHandler) Execute(ctx context.Context, p *Proposal, conv *conversation.Context) (*Result, error) {
	assignmentID := stringParam(p, "assignment_id")
	toolID := stringParam(p, "tool_id")

	err := h.store.WithinTx(ctx, func(tx store.DataStore) error {
		if err := tx.Tools().CloseAssignment(ctx, assignmentID, time.Now().UTC()); err != nil {
			if err == store.ErrAlreadySet {
				return validation("That assignment was already closed.")
			}
			return fmt.Errorf("failed to close assignment: %w", err)
		}
		return tx.Tools().AdjustAvailable(ctx, toolID, 1)
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Type:    "return_tool",
		Status:  StatusSuccess,
		Message: "Marked the equipment as returned.",
		Details: map[string]any{"assignment_id": assignmentID, "tool_id": toolID},
	}, nil
}

type markDocumentViewedHandler struct{ *handlerSet }

func (h *markDocumentViewedHandler) Type() string { return "mark_document_viewed" }

func (h *markDocumentViewedHandler) Execute(ctx context.Context, p *Proposal, conv *conversation.Context) (*Result, error) {
	documentID := stringParam(p, "document_id")

	doc, err := h.store.Documents().Get(ctx, documentID)
	if err != nil {
		return nil, validation("That document no longer exists.")
	}
	// Only the document's owner, or an admin, may acknowledge it.
	if doc.EmployeeID != conv.EmployeeID && conv.Role != conversation.RoleAdmin {
		return nil, validation("That document is not in your records.")
	}
	if doc.ViewedAt != nil {
		return nil, validation(fmt.Sprintf("%q is already marked as viewed.", doc.Title))
	}

	if err := h.store.Documents().MarkViewed(ctx, documentID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to mark document: %w", err)
	}

	return &Result{
		Type:    "mark_document_viewed",
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Marked %q as viewed.", doc.Title),
		Details: map[string]any{"document_id": documentID},
	}, nil
}
