package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type sqlEmployees struct{ q queryer }

const employeeCols = "id, user_id, name, email, department, territory_id, manager_id, salary, start_date"

func scanEmployee(row interface{ Scan(...any) error }) (*Employee, error) {
	var e Employee
	var start int64
	err := row.Scan(&e.ID, &e.UserID, &e.Name, &e.Email, &e.Department, &e.TerritoryID, &e.ManagerID, &e.Salary, &start)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e.StartDate = time.Unix(start, 0).UTC()
	return &e, nil
}

func (s *sqlEmployees) Get(ctx context.Context, id string) (*Employee, error) {
	return scanEmployee(s.q.QueryRowContext(ctx,
		"SELECT "+employeeCols+" FROM employees WHERE id = ?", id))
}

func (s *sqlEmployees) GetByUserID(ctx context.Context, userID string) (*Employee, error) {
	return scanEmployee(s.q.QueryRowContext(ctx,
		"SELECT "+employeeCols+" FROM employees WHERE user_id = ?", userID))
}

func (s *sqlEmployees) FindByName(ctx context.Context, name string) (*Employee, error) {
	return scanEmployee(s.q.QueryRowContext(ctx,
		"SELECT "+employeeCols+" FROM employees WHERE LOWER(name) LIKE '%' || LOWER(?) || '%' ORDER BY name LIMIT 1",
		name))
}

func (s *sqlEmployees) list(ctx context.Context, where string, arg any) ([]*Employee, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+employeeCols+" FROM employees WHERE "+where+" ORDER BY name", arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqlEmployees) ListByManager(ctx context.Context, managerID string) ([]*Employee, error) {
	return s.list(ctx, "manager_id = ?", managerID)
}

func (s *sqlEmployees) ListByDepartment(ctx context.Context, department string) ([]*Employee, error) {
	return s.list(ctx, "department = ?", department)
}

func (s *sqlEmployees) Create(ctx context.Context, e *Employee) error {
	_, err := s.q.ExecContext(ctx,
		"INSERT INTO employees ("+employeeCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.UserID, e.Name, e.Email, e.Department, e.TerritoryID, e.ManagerID, e.Salary, e.StartDate.Unix())
	return err
}

func (s *sqlEmployees) Headcount(ctx context.Context) ([]HeadcountStat, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT department, COUNT(*) FROM employees GROUP BY department ORDER BY department")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HeadcountStat
	for rows.Next() {
		var st HeadcountStat
		if err := rows.Scan(&st.Department, &st.Count); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

type sqlCandidates struct{ q queryer }

func scanCandidate(row interface{ Scan(...any) error }) (*Candidate, error) {
	var c Candidate
	var at sql.NullInt64
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Stage, &at, &c.Interviewer)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.InterviewAt = unixPtr(at)
	return &c, nil
}

func (s *sqlCandidates) Get(ctx context.Context, id string) (*Candidate, error) {
	return scanCandidate(s.q.QueryRowContext(ctx,
		"SELECT id, name, email, stage, interview_at, interviewer FROM candidates WHERE id = ?", id))
}

func (s *sqlCandidates) List(ctx context.Context) ([]*Candidate, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT id, name, email, stage, interview_at, interviewer FROM candidates ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *sqlCandidates) Create(ctx context.Context, c *Candidate) error {
	_, err := s.q.ExecContext(ctx,
		"INSERT INTO candidates (id, name, email, stage, interview_at, interviewer) VALUES (?, ?, ?, ?, ?, ?)",
		c.ID, c.Name, c.Email, c.Stage, ptrUnix(c.InterviewAt), c.Interviewer)
	return err
}

func (s *sqlCandidates) SetStage(ctx context.Context, id, stage string) error {
	if !KnownStage(stage) {
		return fmt.Errorf("%w: %s", ErrStageUnknown, stage)
	}
	res, err := s.q.ExecContext(ctx, "UPDATE candidates SET stage = ? WHERE id = ?", stage, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *sqlCandidates) ScheduleInterview(ctx context.Context, id string, at time.Time, interviewer string) error {
	res, err := s.q.ExecContext(ctx,
		"UPDATE candidates SET interview_at = ?, interviewer = ? WHERE id = ?",
		at.Unix(), interviewer, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type sqlPTO struct{ q queryer }

const ptoCols = "id, employee_id, start_date, end_date, days, status, note, decided_by, decided_at"

func scanPTO(row interface{ Scan(...any) error }) (*PTORequest, error) {
	var r PTORequest
	var start, end int64
	var decided sql.NullInt64
	err := row.Scan(&r.ID, &r.EmployeeID, &start, &end, &r.Days, &r.Status, &r.Note, &r.DecidedBy, &decided)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.StartDate = time.Unix(start, 0).UTC()
	r.EndDate = time.Unix(end, 0).UTC()
	r.DecidedAt = unixPtr(decided)
	return &r, nil
}

func (s *sqlPTO) Get(ctx context.Context, id string) (*PTORequest, error) {
	return scanPTO(s.q.QueryRowContext(ctx,
		"SELECT "+ptoCols+" FROM pto_requests WHERE id = ?", id))
}

func (s *sqlPTO) ListByEmployee(ctx context.Context, employeeID string) ([]*PTORequest, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+ptoCols+" FROM pto_requests WHERE employee_id = ? ORDER BY start_date DESC", employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*PTORequest
	for rows.Next() {
		r, err := scanPTO(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqlPTO) Create(ctx context.Context, r *PTORequest) error {
	if r.Status == "" {
		r.Status = PTOStatusPending
	}
	_, err := s.q.ExecContext(ctx,
		"INSERT INTO pto_requests ("+ptoCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		r.ID, r.EmployeeID, r.StartDate.Unix(), r.EndDate.Unix(), r.Days, r.Status, r.Note, r.DecidedBy, ptrUnix(r.DecidedAt))
	return err
}

func (s *sqlPTO) SetStatus(ctx context.Context, id, status, decidedBy string) error {
	res, err := s.q.ExecContext(ctx,
		"UPDATE pto_requests SET status = ?, decided_by = ?, decided_at = ? WHERE id = ?",
		status, decidedBy, time.Now().Unix(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *sqlPTO) Balance(ctx context.Context, employeeID string) (*PTOBalance, error) {
	var accrued float64
	err := s.q.QueryRowContext(ctx,
		"SELECT pto_accrued FROM employees WHERE id = ?", employeeID).Scan(&accrued)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var used float64
	err = s.q.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(days), 0) FROM pto_requests WHERE employee_id = ? AND status = ?",
		employeeID, PTOStatusApproved).Scan(&used)
	if err != nil {
		return nil, err
	}

	return &PTOBalance{
		EmployeeID: employeeID,
		Accrued:    accrued,
		Used:       used,
		Remaining:  accrued - used,
	}, nil
}

type sqlTools struct{ q queryer }

func (s *sqlTools) Get(ctx context.Context, id string) (*Tool, error) {
	var t Tool
	err := s.q.QueryRowContext(ctx,
		"SELECT id, name, available FROM tools WHERE id = ?", id).Scan(&t.ID, &t.Name, &t.Available)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *sqlTools) List(ctx context.Context) ([]*Tool, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT id, name, available FROM tools ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Tool
	for rows.Next() {
		var t Tool
		if err := rows.Scan(&t.ID, &t.Name, &t.Available); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (s *sqlTools) Create(ctx context.Context, t *Tool) error {
	_, err := s.q.ExecContext(ctx,
		"INSERT INTO tools (id, name, available) VALUES (?, ?, ?)", t.ID, t.Name, t.Available)
	return err
}

func (s *sqlTools) AdjustAvailable(ctx context.Context, id string, delta int) error {
	// The WHERE guard makes decrement-below-zero a no-op instead of a
	// negative row.
	res, err := s.q.ExecContext(ctx,
		"UPDATE tools SET available = available + ? WHERE id = ? AND available + ? >= 0",
		delta, id, delta)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return getErr
		}
		return ErrNoStock
	}
	return nil
}

func (s *sqlTools) CreateAssignment(ctx context.Context, a *ToolAssignment) error {
	_, err := s.q.ExecContext(ctx,
		"INSERT INTO tool_assignments (id, tool_id, employee_id, assigned_at, returned_at) VALUES (?, ?, ?, ?, ?)",
		a.ID, a.ToolID, a.EmployeeID, a.AssignedAt.Unix(), ptrUnix(a.ReturnedAt))
	return err
}

func scanAssignment(row interface{ Scan(...any) error }) (*ToolAssignment, error) {
	var a ToolAssignment
	var assigned int64
	var returned sql.NullInt64
	err := row.Scan(&a.ID, &a.ToolID, &a.EmployeeID, &assigned, &returned)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.AssignedAt = time.Unix(assigned, 0).UTC()
	a.ReturnedAt = unixPtr(returned)
	return &a, nil
}

func (s *sqlTools) OpenAssignment(ctx context.Context, toolID, employeeID string) (*ToolAssignment, error) {
	return scanAssignment(s.q.QueryRowContext(ctx,
		`SELECT id, tool_id, employee_id, assigned_at, returned_at FROM tool_assignments
		 WHERE tool_id = ? AND employee_id = ? AND returned_at IS NULL`, toolID, employeeID))
}

func (s *sqlTools) CloseAssignment(ctx context.Context, assignmentID string, returnedAt time.Time) error {
	res, err := s.q.ExecContext(ctx,
		"UPDATE tool_assignments SET returned_at = ? WHERE id = ? AND returned_at IS NULL",
		returnedAt.Unix(), assignmentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadySet
	}
	return nil
}

func (s *sqlTools) ListAssignments(ctx context.Context, employeeID string) ([]*ToolAssignment, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, tool_id, employee_id, assigned_at, returned_at FROM tool_assignments
		 WHERE employee_id = ? ORDER BY assigned_at DESC`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ToolAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type sqlContracts struct{ q queryer }

func (s *sqlContracts) ListByEmployee(ctx context.Context, employeeID string) ([]*Contract, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT id, employee_id, type, signed_at, expires_at FROM contracts WHERE employee_id = ? ORDER BY signed_at DESC",
		employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Contract
	for rows.Next() {
		var c Contract
		var signed int64
		var expires sql.NullInt64
		if err := rows.Scan(&c.ID, &c.EmployeeID, &c.Type, &signed, &expires); err != nil {
			return nil, err
		}
		c.SignedAt = time.Unix(signed, 0).UTC()
		c.ExpiresAt = unixPtr(expires)
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *sqlContracts) Create(ctx context.Context, c *Contract) error {
	_, err := s.q.ExecContext(ctx,
		"INSERT INTO contracts (id, employee_id, type, signed_at, expires_at) VALUES (?, ?, ?, ?, ?)",
		c.ID, c.EmployeeID, c.Type, c.SignedAt.Unix(), ptrUnix(c.ExpiresAt))
	return err
}

type sqlDocuments struct{ q queryer }

func scanDocument(row interface{ Scan(...any) error }) (*Document, error) {
	var d Document
	var viewed sql.NullInt64
	err := row.Scan(&d.ID, &d.EmployeeID, &d.Title, &viewed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d.ViewedAt = unixPtr(viewed)
	return &d, nil
}

func (s *sqlDocuments) Get(ctx context.Context, id string) (*Document, error) {
	return scanDocument(s.q.QueryRowContext(ctx,
		"SELECT id, employee_id, title, viewed_at FROM documents WHERE id = ?", id))
}

func (s *sqlDocuments) ListByEmployee(ctx context.Context, employeeID string) ([]*Document, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT id, employee_id, title, viewed_at FROM documents WHERE employee_id = ? ORDER BY title", employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *sqlDocuments) Create(ctx context.Context, d *Document) error {
	_, err := s.q.ExecContext(ctx,
		"INSERT INTO documents (id, employee_id, title, viewed_at) VALUES (?, ?, ?, ?)",
		d.ID, d.EmployeeID, d.Title, ptrUnix(d.ViewedAt))
	return err
}

func (s *sqlDocuments) MarkViewed(ctx context.Context, id string, viewedAt time.Time) error {
	res, err := s.q.ExecContext(ctx,
		"UPDATE documents SET viewed_at = ? WHERE id = ?", viewedAt.Unix(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type sqlPolicies struct{ q queryer }

func (s *sqlPolicies) List(ctx context.Context) ([]*Policy, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT id, title, summary FROM policies ORDER BY title")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Policy
	for rows.Next() {
		var p Policy
		if err := rows.Scan(&p.ID, &p.Title, &p.Summary); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *sqlPolicies) Create(ctx context.Context, p *Policy) error {
	_, err := s.q.ExecContext(ctx,
		"INSERT INTO policies (id, title, summary) VALUES (?, ?, ?)", p.ID, p.Title, p.Summary)
	return err
}

type sqlAudit struct{ q queryer }

func (s *sqlAudit) Append(ctx context.Context, r *AuditRecord) error {
	_, err := s.q.ExecContext(ctx,
		"INSERT INTO audit_log (id, session_id, actor_id, action_type, payload, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		r.ID, r.SessionID, r.ActorID, r.ActionType, r.Payload, r.Status, r.CreatedAt.Unix())
	return err
}

func (s *sqlAudit) Recent(ctx context.Context, limit int) ([]*AuditRecord, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT id, session_id, actor_id, action_type, payload, status, created_at FROM audit_log ORDER BY created_at DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*AuditRecord
	for rows.Next() {
		var r AuditRecord
		var created int64
		if err := rows.Scan(&r.ID, &r.SessionID, &r.ActorID, &r.ActionType, &r.Payload, &r.Status, &created); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, &r)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
