package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rpattn/staffing/internal/db"
)

const uniqueViolation = "23505"

// identifierConstraints are the unique constraints guarding generated business codes.
var identifierConstraints = map[string]bool{
	"projects_project_code_key":       true,
	"assignments_assignment_code_key": true,
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if identifierConstraints[pgErr.ConstraintName] {
			return fmt.Errorf("%w: %s", ErrDuplicateIdentifier, pgErr.Detail)
		}
		return fmt.Errorf("%w: %s", ErrDuplicateKey, pgErr.Detail)
	}
	return err
}

type postgresStore struct {
	conn *db.Connection
}

// NewPostgresStore wires a Store backed by the connection pool.
func NewPostgresStore(conn *db.Connection) Store {
	return &postgresStore{conn: conn}
}

func newRepositories(q db.DBTX) Repositories {
	return Repositories{
		Clients:     &clientRepository{db: q},
		Employees:   &employeeRepository{db: q},
		Projects:    &projectRepository{db: q},
		Assignments: &assignmentRepository{db: q},
		Sequences:   &sequenceRepository{db: q},
	}
}

func (s *postgresStore) Repositories() Repositories {
	return newRepositories(s.conn.Pool)
}

func (s *postgresStore) Audit() AuditRepository {
	return NewAuditRepository(s.conn.Pool)
}

func (s *postgresStore) ImportRuns() ImportRunRepository {
	return NewImportRunRepository(s.conn.Pool)
}

func (s *postgresStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.conn.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, &postgresTx{tx: tx})
	})
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) Repositories() Repositories {
	return newRepositories(t.tx)
}

func (t *postgresTx) Savepoint(ctx context.Context, fn func(Tx) error) error {
	return db.Savepoint(ctx, t.tx, func(sp pgx.Tx) error {
		return fn(&postgresTx{tx: sp})
	})
}
