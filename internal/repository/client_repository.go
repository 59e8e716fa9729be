package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpattn/staffing/internal/db"
	"github.com/rpattn/staffing/internal/domain"
)

const clientColumns = `id, name, email, company_name, metadata, is_active, created_at, updated_at`

type clientRepository struct {
	db db.DBTX
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (domain.Client, error) {
	var c domain.Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.CompanyName, &c.Metadata, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *clientRepository) Create(ctx context.Context, client domain.Client) (domain.Client, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO clients (id, name, email, company_name, metadata, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+clientColumns,
		client.ID, client.Name, client.Email, client.CompanyName, client.Metadata, client.IsActive,
	)
	created, err := scanClient(row)
	if err != nil {
		return domain.Client{}, fmt.Errorf("failed to create client: %w", translateError(err))
	}
	return created, nil
}

func (r *clientRepository) Update(ctx context.Context, client domain.Client) (domain.Client, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE clients
		 SET name = $2, email = $3, company_name = $4, metadata = $5, is_active = $6, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL
		 RETURNING `+clientColumns,
		client.ID, client.Name, client.Email, client.CompanyName, client.Metadata, client.IsActive,
	)
	updated, err := scanClient(row)
	if err != nil {
		return domain.Client{}, fmt.Errorf("failed to update client: %w", translateError(err))
	}
	return updated, nil
}

func (r *clientRepository) GetByEmail(ctx context.Context, email string) (domain.Client, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients
		 WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL`,
		strings.TrimSpace(email),
	)
	client, err := scanClient(row)
	if err != nil {
		return domain.Client{}, translateError(err)
	}
	return client, nil
}

func (r *clientRepository) ListByCompanyNames(ctx context.Context, names []string) ([]domain.Client, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+clientColumns+` FROM clients
		 WHERE company_name = ANY($1) AND deleted_at IS NULL
		 ORDER BY created_at`,
		names,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients by company: %w", err)
	}
	defer rows.Close()
	return collectClients(rows)
}

func (r *clientRepository) ListCompanyNames(ctx context.Context) ([]string, error) {
	return listStrings(ctx, r.db, `SELECT DISTINCT company_name FROM clients WHERE deleted_at IS NULL ORDER BY company_name`)
}

func (r *clientRepository) List(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE deleted_at IS NULL ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()
	return collectClients(rows)
}

type rowsIterator interface {
	rowScanner
	Next() bool
	Err() error
}

func collectClients(rows rowsIterator) ([]domain.Client, error) {
	clients := []domain.Client{}
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}
	return clients, nil
}

func listStrings(ctx context.Context, q db.DBTX, sql string, args ...any) ([]string, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list values: %w", err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate values: %w", err)
	}
	return values, nil
}
