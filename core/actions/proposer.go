package actions

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pulsehq/pulse/core/conversation"
	"github.com/pulsehq/pulse/core/errors"
	"github.com/pulsehq/pulse/core/store"
)

var (
	requestIDPattern = regexp.MustCompile(`#([A-Za-z0-9-]+)|\brequest\s+#?([A-Za-z0-9-]+)`)
	emailPattern     = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	namedPattern     = regexp.MustCompile(`\b(?i:named|called|for|to)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`)
	deptPattern      = regexp.MustCompile(`(?i)\b(?:in|to the|to)\s+(engineering|sales|marketing|finance|support|operations|hr|design|legal)\b`)
)

// Proposer turns an action intent into a parameterized proposal. It
// resolves names against the store up front so the confirmation message
// shows the user exactly which record will change.
type Proposer struct {
	store store.DataStore
}

// NewProposer wires a proposer to its backing store.
func NewProposer(ds store.DataStore) *Proposer {
	return &Proposer{store: ds}
}

// Propose builds a proposal for the given action type. A validation error
// means the message did not carry enough to act on; its text is safe to
// show the user.
func (p *Proposer) Propose(ctx context.Context, sessionID, actionType, message string, conv *conversation.Context) (*Proposal, error) {
	switch actionType {
	case "approve_pto":
		return p.proposePTODecision(ctx, sessionID, actionType, message, "Approve")
	case "deny_pto":
		return p.proposePTODecision(ctx, sessionID, actionType, message, "Deny")
	case "schedule_interview":
		return p.proposeScheduleInterview(ctx, sessionID, message, conv)
	case "move_candidate_stage":
		return p.proposeMoveStage(ctx, sessionID, message)
	case "create_employee":
		return p.proposeCreateEmployee(ctx, sessionID, message)
	case "assign_tool":
		return p.proposeAssignTool(ctx, sessionID, message, conv)
	case "return_tool":
		return p.proposeReturnTool(ctx, sessionID, message, conv)
	case "mark_document_viewed":
		return p.proposeMarkViewed(ctx, sessionID, message, conv)
	default:
		return nil, errors.New(errors.KindUnknownAction,
			fmt.Sprintf("no handler for action %q", actionType))
	}
}

func validation(msg string) error {
	return errors.New(errors.KindActionValidation, msg)
}

func extractRequestID(message string) string {
	m := requestIDPattern.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

func (p *Proposer) proposePTODecision(ctx context.Context, sessionID, actionType, message, verb string) (*Proposal, error) {
	id := extractRequestID(message)
	if id == "" {
		return nil, validation("Please include the PTO request number, for example: " + strings.ToLower(verb) + " request #42.")
	}

	req, err := p.store.PTO().Get(ctx, id)
	if err != nil {
		return nil, validation(fmt.Sprintf("I couldn't find PTO request #%s.", id))
	}
	if req.Status != store.PTOStatusPending {
		return nil, validation(fmt.Sprintf("PTO request #%s has already been decided (%s).", id, req.Status))
	}

	employee, err := p.store.Employees().Get(ctx, req.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load requester: %w", err)
	}

	msg := fmt.Sprintf("%s PTO request #%s for %s (%.1f days, %s to %s)?",
		verb, id, employee.Name, req.Days,
		req.StartDate.Format("Jan 2"), req.EndDate.Format("Jan 2"))

	return NewProposal(sessionID, actionType, msg, map[string]any{
		"request_id": id,
	}), nil
}

// resolveCandidate matches a candidate whose name appears in the message.
func (p *Proposer) resolveCandidate(ctx context.Context, message string) (*store.Candidate, error) {
	candidates, err := p.store.Candidates().List(ctx)
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(message)
	for _, c := range candidates {
		for _, part := range strings.Fields(strings.ToLower(c.Name)) {
			if strings.Contains(lower, part) {
				return c, nil
			}
		}
	}
	return nil, validation("I couldn't tell which candidate you mean. Please include their name.")
}

func (p *Proposer) proposeScheduleInterview(ctx context.Context, sessionID, message string, conv *conversation.Context) (*Proposal, error) {
	candidate, err := p.resolveCandidate(ctx, message)
	if err != nil {
		return nil, err
	}

	when := parseWhen(message)
	msg := fmt.Sprintf("Schedule an interview with %s for %s?",
		candidate.Name, when.Format("Monday, Jan 2 at 15:04"))

	return NewProposal(sessionID, "schedule_interview", msg, map[string]any{
		"candidate_id": candidate.ID,
		"when":         when.Format(time.RFC3339),
		"interviewer":  conv.EmployeeID,
	}), nil
}

func (p *Proposer) proposeMoveStage(ctx context.Context, sessionID, message string) (*Proposal, error) {
	candidate, err := p.resolveCandidate(ctx, message)
	if err != nil {
		return nil, err
	}

	stage := detectStage(message)
	if stage == "" {
		return nil, validation("Which stage should they move to? Options: " + strings.Join(store.CandidateStages, ", ") + ".")
	}

	msg := fmt.Sprintf("Move %s from %s to %s?", candidate.Name, candidate.Stage, stage)
	return NewProposal(sessionID, "move_candidate_stage", msg, map[string]any{
		"candidate_id": candidate.ID,
		"stage":        stage,
	}), nil
}

func detectStage(message string) string {
	lower := strings.ToLower(message)
	for _, stage := range store.CandidateStages {
		if strings.Contains(lower, strings.ToLower(stage)) {
			return stage
		}
	}
	return ""
}

func (p *Proposer) proposeCreateEmployee(ctx context.Context, sessionID, message string) (*Proposal, error) {
	email := emailPattern.FindString(message)
	if email == "" {
		return nil, validation("I need an email address to create an employee record.")
	}

	name := ""
	if m := namedPattern.FindStringSubmatch(message); m != nil {
		name = m[1]
	}
	if name == "" {
		return nil, validation("I need the new employee's name, for example: create an employee named Jane Doe.")
	}

	department := ""
	if m := deptPattern.FindStringSubmatch(message); m != nil {
		department = capitalize(m[1])
	}

	msg := fmt.Sprintf("Create employee %s (%s)", name, email)
	if department != "" {
		msg += " in " + department
	}
	msg += "?"

	return NewProposal(sessionID, "create_employee", msg, map[string]any{
		"name":       name,
		"email":      email,
		"department": department,
	}), nil
}

// resolveTool matches a tool whose name appears in the message.
func (p *Proposer) resolveTool(ctx context.Context, message string) (*store.Tool, error) {
	tools, err := p.store.Tools().List(ctx)
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(message)
	for _, t := range tools {
		if strings.Contains(lower, strings.ToLower(t.Name)) {
			return t, nil
		}
	}
	return nil, validation("I couldn't tell which piece of equipment you mean.")
}

// resolveAssignee picks the named employee, falling back to the caller.
func (p *Proposer) resolveAssignee(ctx context.Context, message string, conv *conversation.Context) (*store.Employee, error) {
	if m := namedPattern.FindStringSubmatch(message); m != nil {
		if e, err := p.store.Employees().FindByName(ctx, m[1]); err == nil {
			return e, nil
		}
	}
	return p.store.Employees().Get(ctx, conv.EmployeeID)
}

func (p *Proposer) proposeAssignTool(ctx context.Context, sessionID, message string, conv *conversation.Context) (*Proposal, error) {
	tool, err := p.resolveTool(ctx, message)
	if err != nil {
		return nil, err
	}
	if tool.Available <= 0 {
		return nil, validation(fmt.Sprintf("There are no units of %s available right now.", tool.Name))
	}

	assignee, err := p.resolveAssignee(ctx, message, conv)
	if err != nil {
		return nil, validation("I couldn't tell who should receive it.")
	}

	msg := fmt.Sprintf("Assign one %s to %s? (%d available)", tool.Name, assignee.Name, tool.Available)
	return NewProposal(sessionID, "assign_tool", msg, map[string]any{
		"tool_id":     tool.ID,
		"employee_id": assignee.ID,
	}), nil
}

func (p *Proposer) proposeReturnTool(ctx context.Context, sessionID, message string, conv *conversation.Context) (*Proposal, error) {
	tool, err := p.resolveTool(ctx, message)
	if err != nil {
		return nil, err
	}

	assignee, err := p.resolveAssignee(ctx, message, conv)
	if err != nil {
		return nil, validation("I couldn't tell whose assignment to close.")
	}

	assignment, err := p.store.Tools().OpenAssignment(ctx, tool.ID, assignee.ID)
	if err != nil {
		return nil, validation(fmt.Sprintf("%s doesn't have a %s checked out.", assignee.Name, tool.Name))
	}

	msg := fmt.Sprintf("Mark the %s assigned to %s as returned?", tool.Name, assignee.Name)
	return NewProposal(sessionID, "return_tool", msg, map[string]any{
		"assignment_id": assignment.ID,
		"tool_id":       tool.ID,
	}), nil
}

func (p *Proposer) proposeMarkViewed(ctx context.Context, sessionID, message string, conv *conversation.Context) (*Proposal, error) {
	docs, err := p.store.Documents().ListByEmployee(ctx, conv.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	lower := strings.ToLower(message)
	for _, d := range docs {
		if strings.Contains(lower, strings.ToLower(d.Title)) {
			if d.ViewedAt != nil {
				return nil, validation(fmt.Sprintf("%q is already marked as viewed.", d.Title))
			}
			msg := fmt.Sprintf("Mark %q as viewed?", d.Title)
			return NewProposal(sessionID, "mark_document_viewed", msg, map[string]any{
				"document_id": d.ID,
			}), nil
		}
	}
	return nil, validation("I couldn't find that document in your records.")
}

func capitalize(s string) string {
	s = strings.ToLower(s)
	if s == "hr" {
		return "HR"
	}
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// parseWhen extracts a rough schedule from the message. It understands a
// handful of relative phrases; anything else lands on the next weekday at
// ten in the morning.
func parseWhen(message string) time.Time {
	now := time.Now().UTC()
	lower := strings.ToLower(message)

	base := nextWeekday(now)
	weekdays := map[string]time.Weekday{
		"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
		"thursday": time.Thursday, "friday": time.Friday,
	}
	for name, day := range weekdays {
		if strings.Contains(lower, name) {
			base = upcoming(now, day)
			break
		}
	}
	if strings.Contains(lower, "tomorrow") {
		base = now.AddDate(0, 0, 1)
	}

	return time.Date(base.Year(), base.Month(), base.Day(), 10, 0, 0, 0, time.UTC)
}

func nextWeekday(from time.Time) time.Time {
	t := from.AddDate(0, 0, 1)
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func upcoming(from time.Time, day time.Weekday) time.Time {
	t := from.AddDate(0, 0, 1)
	for t.Weekday() != day {
		t = t.AddDate(0, 0, 1)
	}
	return t
}
