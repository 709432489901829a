// Package store defines the backing store of candidates, employees and user
// accounts. The store is the source of truth; the candidate vector index is
// derived from it.
package store

import (
	"context"

	"github.com/spigell/hr-assistant/internal/hr"
)

// CandidateStore persists resumes. Records are keyed by ID; several records
// may share an identity until duplicates are swept.
type CandidateStore interface {
	// ActiveCandidates returns active records, oldest first.
	ActiveCandidates(ctx context.Context) ([]hr.Candidate, error)
	// UpsertCandidate inserts c, or replaces the record with the same ID.
	// A missing ID is generated. The stored record is returned.
	UpsertCandidate(ctx context.Context, c hr.Candidate) (hr.Candidate, error)
	// MarkCandidateInactive deactivates every active record with the identity.
	// It returns *hr.NotFoundError when there is none.
	MarkCandidateInactive(ctx context.Context, id hr.CandidateIdentity) error
	// CandidateByIdentity returns the oldest active record with the identity.
	CandidateByIdentity(ctx context.Context, id hr.CandidateIdentity) (hr.Candidate, error)
}

type EmployeeStore interface {
	EmployeeByID(ctx context.Context, employeeID string) (hr.Employee, error)
	// ActiveEmployees returns active employees ordered by employee ID.
	ActiveEmployees(ctx context.Context) ([]hr.Employee, error)
	// UpdateEmployeeFields applies the compensation fields only. It reports
	// false when the employee does not exist.
	UpdateEmployeeFields(ctx context.Context, employeeID string, update hr.CompensationUpdate) (bool, error)
	UpsertEmployee(ctx context.Context, e hr.Employee) error
}

type UserStore interface {
	UserByUsername(ctx context.Context, username string) (hr.User, error)
	UpsertUser(ctx context.Context, u hr.User) error
}

type Store interface {
	CandidateStore
	EmployeeStore
	UserStore
	Close() error
}
