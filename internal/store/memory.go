package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/hr-assistant/internal/hr"
)

// Memory is an in-process Store used by tests and the "memory" driver.
type Memory struct {
	mu         sync.RWMutex
	candidates []hr.Candidate
	employees  map[string]hr.Employee
	users      map[string]hr.User
	now        func() time.Time
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		employees: make(map[string]hr.Employee),
		users:     make(map[string]hr.User),
		now:       time.Now,
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) ActiveCandidates(ctx context.Context) ([]hr.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]hr.Candidate, 0, len(m.candidates))
	for _, c := range m.candidates {
		if c.Active {
			out = append(out, cloneCandidate(c))
		}
	}
	return out, nil
}

func (m *Memory) UpsertCandidate(ctx context.Context, c hr.Candidate) (hr.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return hr.Candidate{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.UpdatedAt = now

	for i := range m.candidates {
		if m.candidates[i].ID == c.ID {
			c.CreatedAt = m.candidates[i].CreatedAt
			m.candidates[i] = cloneCandidate(c)
			return cloneCandidate(c), nil
		}
	}

	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	m.candidates = append(m.candidates, cloneCandidate(c))
	return cloneCandidate(c), nil
}

func (m *Memory) MarkCandidateInactive(ctx context.Context, id hr.CandidateIdentity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for i := range m.candidates {
		if m.candidates[i].Active && m.candidates[i].Identity == id {
			m.candidates[i].Active = false
			m.candidates[i].UpdatedAt = m.now()
			found = true
		}
	}
	if !found {
		return hr.NotFound("candidate", id.String())
	}
	return nil
}

func (m *Memory) CandidateByIdentity(ctx context.Context, id hr.CandidateIdentity) (hr.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return hr.Candidate{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.candidates {
		if c.Active && c.Identity == id {
			return cloneCandidate(c), nil
		}
	}
	return hr.Candidate{}, hr.NotFound("candidate", id.String())
}

func (m *Memory) EmployeeByID(ctx context.Context, employeeID string) (hr.Employee, error) {
	if err := ctx.Err(); err != nil {
		return hr.Employee{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.employees[employeeID]
	if !ok {
		return hr.Employee{}, hr.NotFound("employee", employeeID)
	}
	return cloneEmployee(e), nil
}

func (m *Memory) ActiveEmployees(ctx context.Context) ([]hr.Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]hr.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		if e.Active {
			out = append(out, cloneEmployee(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (m *Memory) UpdateEmployeeFields(ctx context.Context, employeeID string, update hr.CompensationUpdate) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.employees[employeeID]
	if !ok {
		return false, nil
	}
	update.Apply(&e)
	m.employees[employeeID] = e
	return true, nil
}

func (m *Memory) UpsertEmployee(ctx context.Context, e hr.Employee) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.employees[e.EmployeeID] = cloneEmployee(e)
	return nil
}

func (m *Memory) UserByUsername(ctx context.Context, username string) (hr.User, error) {
	if err := ctx.Err(); err != nil {
		return hr.User{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[username]
	if !ok {
		return hr.User{}, hr.NotFound("user", username)
	}
	return u, nil
}

func (m *Memory) UpsertUser(ctx context.Context, u hr.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.users[u.Username]; ok && u.ID == "" {
		u.ID = existing.ID
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Password = ""
	m.users[u.Username] = u
	return nil
}

func cloneCandidate(c hr.Candidate) hr.Candidate {
	c.Skills = append([]string(nil), c.Skills...)
	c.Education = append([]string(nil), c.Education...)
	return c
}

func cloneEmployee(e hr.Employee) hr.Employee {
	e.Salary = clonePtr(e.Salary)
	e.Bonus = clonePtr(e.Bonus)
	e.TaxRate = clonePtr(e.TaxRate)
	e.Deductions = clonePtr(e.Deductions)
	return e
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return hr.Float(*v)
}
