package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rpattn/staffing/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup matches no live record.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateIdentifier reports a unique violation on a business identifier column.
	ErrDuplicateIdentifier = errors.New("duplicate business identifier")
	// ErrDuplicateKey reports any other unique violation, e.g. a reused email.
	ErrDuplicateKey = errors.New("duplicate key")
)

// ClientRepository defines persistence operations for clients.
type ClientRepository interface {
	Create(ctx context.Context, client domain.Client) (domain.Client, error)
	Update(ctx context.Context, client domain.Client) (domain.Client, error)
	GetByEmail(ctx context.Context, email string) (domain.Client, error)
	ListByCompanyNames(ctx context.Context, names []string) ([]domain.Client, error)
	ListCompanyNames(ctx context.Context) ([]string, error)
	List(ctx context.Context) ([]domain.Client, error)
}

// EmployeeRepository defines persistence operations for employees.
type EmployeeRepository interface {
	Create(ctx context.Context, employee domain.Employee) (domain.Employee, error)
	Update(ctx context.Context, employee domain.Employee) (domain.Employee, error)
	GetByEmail(ctx context.Context, email string) (domain.Employee, error)
	ListByNames(ctx context.Context, names []string) ([]domain.Employee, error)
	ListNames(ctx context.Context) ([]string, error)
	List(ctx context.Context) ([]domain.Employee, error)
}

// ProjectRepository defines persistence operations for projects.
type ProjectRepository interface {
	Create(ctx context.Context, project domain.Project) (domain.Project, error)
	Update(ctx context.Context, project domain.Project) (domain.Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Project, error)
	GetByClientAndName(ctx context.Context, clientID uuid.UUID, name string) (domain.Project, error)
	// LatestCode returns the greatest project code starting with prefix, or "" when none exist.
	LatestCode(ctx context.Context, prefix string) (string, error)
	SetEmployeeCount(ctx context.Context, id uuid.UUID, count int) error
	List(ctx context.Context) ([]domain.Project, error)
}

// AssignmentRepository defines persistence operations for assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment domain.Assignment) (domain.Assignment, error)
	Update(ctx context.Context, assignment domain.Assignment) (domain.Assignment, error)
	GetByNaturalKey(ctx context.Context, projectID, employeeID uuid.UUID, startDate time.Time) (domain.Assignment, error)
	LatestCode(ctx context.Context, prefix string) (string, error)
	CountByProject(ctx context.Context, projectID uuid.UUID) (int, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Assignment, error)
}

// SeedFunc reports the highest sequence number already in use for a scope.
type SeedFunc func(ctx context.Context) (int, error)

// SequenceRepository hands out per-scope counters such as "PR24".
type SequenceRepository interface {
	// Next advances the counter of scope and returns the new value. A missing
	// counter is initialised from seed.
	Next(ctx context.Context, scope string, seed SeedFunc) (int, error)
}

// AuditRepository is the append-only activity log.
type AuditRepository interface {
	Append(ctx context.Context, entry domain.AuditEntry) error
}

// ImportRunRepository stores the history of import requests.
type ImportRunRepository interface {
	Record(ctx context.Context, run domain.ImportRun) error
	List(ctx context.Context, limit int, offset int) ([]domain.ImportRun, error)
}

// Repositories groups the record stores bound to one connection or transaction.
type Repositories struct {
	Clients     ClientRepository
	Employees   EmployeeRepository
	Projects    ProjectRepository
	Assignments AssignmentRepository
	Sequences   SequenceRepository
}

// Tx is an open unit of work.
type Tx interface {
	Repositories() Repositories
	// Savepoint runs fn in a nested scope; when fn fails only its own writes are undone.
	Savepoint(ctx context.Context, fn func(Tx) error) error
}

// Store is the persistence boundary used by the import pipeline.
type Store interface {
	// Repositories returns stores that run outside any transaction.
	Repositories() Repositories
	Audit() AuditRepository
	ImportRuns() ImportRunRepository
	// WithTx commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
