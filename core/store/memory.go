package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const defaultAccrual = 25

// MemoryStore is a map-backed DataStore. It backs tests and makes the demo
// server runnable without a database file.
type MemoryStore struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	employees   map[string]*Employee
	accrued     map[string]float64
	candidates  map[string]*Candidate
	pto         map[string]*PTORequest
	tools       map[string]*Tool
	assignments map[string]*ToolAssignment
	contracts   map[string]*Contract
	documents   map[string]*Document
	policies    map[string]*Policy
	audit       []*AuditRecord
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		employees:   make(map[string]*Employee),
		accrued:     make(map[string]float64),
		candidates:  make(map[string]*Candidate),
		pto:         make(map[string]*PTORequest),
		tools:       make(map[string]*Tool),
		assignments: make(map[string]*ToolAssignment),
		contracts:   make(map[string]*Contract),
		documents:   make(map[string]*Document),
		policies:    make(map[string]*Policy),
	}
}

func (m *MemoryStore) Employees() EmployeeStore   { return &memEmployees{m} }
func (m *MemoryStore) Candidates() CandidateStore { return &memCandidates{m} }
func (m *MemoryStore) PTO() PTOStore              { return &memPTO{m} }
func (m *MemoryStore) Tools() ToolStore           { return &memTools{m} }
func (m *MemoryStore) Contracts() ContractStore   { return &memContracts{m} }
func (m *MemoryStore) Documents() DocumentStore   { return &memDocuments{m} }
func (m *MemoryStore) Policies() PolicyStore      { return &memPolicies{m} }
func (m *MemoryStore) Audit() AuditStore          { return &memAudit{m} }

// WithinTx serializes transactions and restores a snapshot when fn fails,
// matching the rollback semantics of the SQL implementation.
func (m *MemoryStore) WithinTx(ctx context.Context, fn func(DataStore) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

type memSnapshot struct {
	employees   map[string]*Employee
	accrued     map[string]float64
	candidates  map[string]*Candidate
	pto         map[string]*PTORequest
	tools       map[string]*Tool
	assignments map[string]*ToolAssignment
	contracts   map[string]*Contract
	documents   map[string]*Document
	policies    map[string]*Policy
	audit       []*AuditRecord
}

func cloneMap[V any](src map[string]*V) map[string]*V {
	dst := make(map[string]*V, len(src))
	for k, v := range src {
		c := *v
		dst[k] = &c
	}
	return dst
}

func (m *MemoryStore) snapshot() *memSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	accrued := make(map[string]float64, len(m.accrued))
	for k, v := range m.accrued {
		accrued[k] = v
	}

	return &memSnapshot{
		employees:   cloneMap(m.employees),
		accrued:     accrued,
		candidates:  cloneMap(m.candidates),
		pto:         cloneMap(m.pto),
		tools:       cloneMap(m.tools),
		assignments: cloneMap(m.assignments),
		contracts:   cloneMap(m.contracts),
		documents:   cloneMap(m.documents),
		policies:    cloneMap(m.policies),
		audit:       append([]*AuditRecord(nil), m.audit...),
	}
}

func (m *MemoryStore) restore(s *memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.employees = s.employees
	m.accrued = s.accrued
	m.candidates = s.candidates
	m.pto = s.pto
	m.tools = s.tools
	m.assignments = s.assignments
	m.contracts = s.contracts
	m.documents = s.documents
	m.policies = s.policies
	m.audit = s.audit
}

type memEmployees struct{ m *MemoryStore }

func (s *memEmployees) Get(ctx context.Context, id string) (*Employee, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	e, ok := s.m.employees[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *e
	return &c, nil
}

func (s *memEmployees) GetByUserID(ctx context.Context, userID string) (*Employee, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, e := range s.m.employees {
		if e.UserID == userID {
			c := *e
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memEmployees) FindByName(ctx context.Context, name string) (*Employee, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	needle := strings.ToLower(name)
	for _, e := range s.m.employees {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			c := *e
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memEmployees) ListByManager(ctx context.Context, managerID string) ([]*Employee, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []*Employee
	for _, e := range s.m.employees {
		if e.ManagerID == managerID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *memEmployees) ListByDepartment(ctx context.Context, department string) ([]*Employee, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []*Employee
	for _, e := range s.m.employees {
		if e.Department == department {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *memEmployees) Create(ctx context.Context, e *Employee) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, exists := s.m.employees[e.ID]; exists {
		return fmt.Errorf("employee %s already exists", e.ID)
	}
	c := *e
	s.m.employees[e.ID] = &c
	s.m.accrued[e.ID] = defaultAccrual
	return nil
}

func (s *memEmployees) Headcount(ctx context.Context) ([]HeadcountStat, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	counts := make(map[string]int)
	for _, e := range s.m.employees {
		counts[e.Department]++
	}
	out := make([]HeadcountStat, 0, len(counts))
	for dept, n := range counts {
		out = append(out, HeadcountStat{Department: dept, Count: n})
	}
	return out, nil
}

type memCandidates struct{ m *MemoryStore }

func (s *memCandidates) Get(ctx context.Context, id string) (*Candidate, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	c, ok := s.m.candidates[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memCandidates) List(ctx context.Context) ([]*Candidate, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	out := make([]*Candidate, 0, len(s.m.candidates))
	for _, c := range s.m.candidates {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memCandidates) Create(ctx context.Context, c *Candidate) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	cp := *c
	s.m.candidates[c.ID] = &cp
	return nil
}

func (s *memCandidates) SetStage(ctx context.Context, id, stage string) error {
	if !KnownStage(stage) {
		return fmt.Errorf("%w: %s", ErrStageUnknown, stage)
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c, ok := s.m.candidates[id]
	if !ok {
		return ErrNotFound
	}
	c.Stage = stage
	return nil
}

func (s *memCandidates) ScheduleInterview(ctx context.Context, id string, at time.Time, interviewer string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c, ok := s.m.candidates[id]
	if !ok {
		return ErrNotFound
	}
	t := at
	c.InterviewAt = &t
	c.Interviewer = interviewer
	return nil
}

type memPTO struct{ m *MemoryStore }

func (s *memPTO) Get(ctx context.Context, id string) (*PTORequest, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	r, ok := s.m.pto[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *r
	return &c, nil
}

func (s *memPTO) ListByEmployee(ctx context.Context, employeeID string) ([]*PTORequest, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []*PTORequest
	for _, r := range s.m.pto {
		if r.EmployeeID == employeeID {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *memPTO) Create(ctx context.Context, r *PTORequest) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c := *r
	if c.Status == "" {
		c.Status = PTOStatusPending
	}
	s.m.pto[r.ID] = &c
	return nil
}

func (s *memPTO) SetStatus(ctx context.Context, id, status, decidedBy string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.pto[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	r.Status = status
	r.DecidedBy = decidedBy
	r.DecidedAt = &now
	return nil
}

func (s *memPTO) Balance(ctx context.Context, employeeID string) (*PTOBalance, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	accrued, ok := s.m.accrued[employeeID]
	if !ok {
		return nil, ErrNotFound
	}
	var used float64
	for _, r := range s.m.pto {
		if r.EmployeeID == employeeID && r.Status == PTOStatusApproved {
			used += r.Days
		}
	}
	return &PTOBalance{
		EmployeeID: employeeID,
		Accrued:    accrued,
		Used:       used,
		Remaining:  accrued - used,
	}, nil
}

type memTools struct{ m *MemoryStore }

func (s *memTools) Get(ctx context.Context, id string) (*Tool, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	t, ok := s.m.tools[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *t
	return &c, nil
}

func (s *memTools) List(ctx context.Context) ([]*Tool, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	out := make([]*Tool, 0, len(s.m.tools))
	for _, t := range s.m.tools {
		c := *t
		out = append(out, &c)
	}
	return out, nil
}

func (s *memTools) Create(ctx context.Context, t *Tool) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c := *t
	s.m.tools[t.ID] = &c
	return nil
}

func (s *memTools) AdjustAvailable(ctx context.Context, id string, delta int) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.tools[id]
	if !ok {
		return ErrNotFound
	}
	if t.Available+delta < 0 {
		return ErrNoStock
	}
	t.Available += delta
	return nil
}

func (s *memTools) CreateAssignment(ctx context.Context, a *ToolAssignment) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c := *a
	s.m.assignments[a.ID] = &c
	return nil
}

func (s *memTools) OpenAssignment(ctx context.Context, toolID, employeeID string) (*ToolAssignment, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, a := range s.m.assignments {
		if a.ToolID == toolID && a.EmployeeID == employeeID && a.ReturnedAt == nil {
			c := *a
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memTools) CloseAssignment(ctx context.Context, assignmentID string, returnedAt time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	a, ok := s.m.assignments[assignmentID]
	if !ok {
		return ErrNotFound
	}
	if a.ReturnedAt != nil {
		return ErrAlreadySet
	}
	t := returnedAt
	a.ReturnedAt = &t
	return nil
}

func (s *memTools) ListAssignments(ctx context.Context, employeeID string) ([]*ToolAssignment, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []*ToolAssignment
	for _, a := range s.m.assignments {
		if a.EmployeeID == employeeID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

type memContracts struct{ m *MemoryStore }

func (s *memContracts) ListByEmployee(ctx context.Context, employeeID string) ([]*Contract, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []*Contract
	for _, c := range s.m.contracts {
		if c.EmployeeID == employeeID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memContracts) Create(ctx context.Context, c *Contract) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	cp := *c
	s.m.contracts[c.ID] = &cp
	return nil
}

type memDocuments struct{ m *MemoryStore }

func (s *memDocuments) Get(ctx context.Context, id string) (*Document, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	d, ok := s.m.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *d
	return &c, nil
}

func (s *memDocuments) ListByEmployee(ctx context.Context, employeeID string) ([]*Document, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []*Document
	for _, d := range s.m.documents {
		if d.EmployeeID == employeeID {
			c := *d
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *memDocuments) Create(ctx context.Context, d *Document) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c := *d
	s.m.documents[d.ID] = &c
	return nil
}

func (s *memDocuments) MarkViewed(ctx context.Context, id string, viewedAt time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	d, ok := s.m.documents[id]
	if !ok {
		return ErrNotFound
	}
	t := viewedAt
	d.ViewedAt = &t
	return nil
}

type memPolicies struct{ m *MemoryStore }

func (s *memPolicies) List(ctx context.Context) ([]*Policy, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	out := make([]*Policy, 0, len(s.m.policies))
	for _, p := range s.m.policies {
		c := *p
		out = append(out, &c)
	}
	return out, nil
}

func (s *memPolicies) Create(ctx context.Context, p *Policy) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c := *p
	s.m.policies[p.ID] = &c
	return nil
}

type memAudit struct{ m *MemoryStore }

func (s *memAudit) Append(ctx context.Context, r *AuditRecord) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c := *r
	s.m.audit = append(s.m.audit, &c)
	return nil
}

func (s *memAudit) Recent(ctx context.Context, limit int) ([]*AuditRecord, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	n := len(s.m.audit)
	if limit > n {
		limit = n
	}
	out := make([]*AuditRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		c := *s.m.audit[i]
		out = append(out, &c)
	}
	return out, nil
}
