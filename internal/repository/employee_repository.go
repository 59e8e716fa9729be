package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpattn/staffing/internal/db"
	"github.com/rpattn/staffing/internal/domain"
)

const employeeColumns = `id, name, email, phone, skillset, is_available, created_at, updated_at`

type employeeRepository struct {
	db db.DBTX
}

func scanEmployee(row rowScanner) (domain.Employee, error) {
	var e domain.Employee
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Phone, &e.Skillset, &e.IsAvailable, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func skillsetParam(skills []string) []string {
	if skills == nil {
		return []string{}
	}
	return skills
}

func (r *employeeRepository) Create(ctx context.Context, employee domain.Employee) (domain.Employee, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO employees (id, name, email, phone, skillset, is_available)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+employeeColumns,
		employee.ID, employee.Name, employee.Email, employee.Phone, skillsetParam(employee.Skillset), employee.IsAvailable,
	)
	created, err := scanEmployee(row)
	if err != nil {
		return domain.Employee{}, fmt.Errorf("failed to create employee: %w", translateError(err))
	}
	return created, nil
}

func (r *employeeRepository) Update(ctx context.Context, employee domain.Employee) (domain.Employee, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE employees
		 SET name = $2, email = $3, phone = $4, skillset = $5, is_available = $6, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL
		 RETURNING `+employeeColumns,
		employee.ID, employee.Name, employee.Email, employee.Phone, skillsetParam(employee.Skillset), employee.IsAvailable,
	)
	updated, err := scanEmployee(row)
	if err != nil {
		return domain.Employee{}, fmt.Errorf("failed to update employee: %w", translateError(err))
	}
	return updated, nil
}

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (domain.Employee, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees
		 WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL`,
		strings.TrimSpace(email),
	)
	employee, err := scanEmployee(row)
	if err != nil {
		return domain.Employee{}, translateError(err)
	}
	return employee, nil
}

func (r *employeeRepository) ListByNames(ctx context.Context, names []string) ([]domain.Employee, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+employeeColumns+` FROM employees
		 WHERE name = ANY($1) AND deleted_at IS NULL
		 ORDER BY created_at`,
		names,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees by name: %w", err)
	}
	defer rows.Close()
	return collectEmployees(rows)
}

func (r *employeeRepository) ListNames(ctx context.Context) ([]string, error) {
	return listStrings(ctx, r.db, `SELECT DISTINCT name FROM employees WHERE deleted_at IS NULL ORDER BY name`)
}

func (r *employeeRepository) List(ctx context.Context) ([]domain.Employee, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE deleted_at IS NULL ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()
	return collectEmployees(rows)
}

func collectEmployees(rows rowsIterator) ([]domain.Employee, error) {
	employees := []domain.Employee{}
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}
	return employees, nil
}
