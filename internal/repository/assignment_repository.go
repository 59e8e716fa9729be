package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rpattn/staffing/internal/db"
	"github.com/rpattn/staffing/internal/domain"
)

const assignmentColumns = `id, assignment_code, project_id, employee_id, start_date, end_date, notes, attachment, created_at, updated_at`

type assignmentRepository struct {
	db db.DBTX
}

func scanAssignment(row rowScanner) (domain.Assignment, error) {
	var (
		a       domain.Assignment
		endDate pgtype.Date
	)
	err := row.Scan(&a.ID, &a.AssignmentCode, &a.ProjectID, &a.EmployeeID, &a.StartDate, &endDate, &a.Notes, &a.Attachment, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.Assignment{}, err
	}
	if endDate.Valid {
		value := endDate.Time
		a.EndDate = &value
	}
	return a, nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment domain.Assignment) (domain.Assignment, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO assignments (id, assignment_code, project_id, employee_id, start_date, end_date, notes, attachment)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+assignmentColumns,
		assignment.ID, assignment.AssignmentCode, assignment.ProjectID, assignment.EmployeeID,
		assignment.StartDate, assignment.EndDate, assignment.Notes, assignment.Attachment,
	)
	created, err := scanAssignment(row)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("failed to create assignment: %w", translateError(err))
	}
	return created, nil
}

func (r *assignmentRepository) Update(ctx context.Context, assignment domain.Assignment) (domain.Assignment, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE assignments
		 SET employee_id = $2, start_date = $3, end_date = $4, notes = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+assignmentColumns,
		assignment.ID, assignment.EmployeeID, assignment.StartDate, assignment.EndDate, assignment.Notes,
	)
	updated, err := scanAssignment(row)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("failed to update assignment: %w", translateError(err))
	}
	return updated, nil
}

func (r *assignmentRepository) GetByNaturalKey(ctx context.Context, projectID, employeeID uuid.UUID, startDate time.Time) (domain.Assignment, error) {
	assignment, err := scanAssignment(r.db.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM assignments
		 WHERE project_id = $1 AND employee_id = $2 AND start_date = $3
		 ORDER BY created_at
		 LIMIT 1`,
		projectID, employeeID, startDate,
	))
	if err != nil {
		return domain.Assignment{}, translateError(err)
	}
	return assignment, nil
}

func (r *assignmentRepository) LatestCode(ctx context.Context, prefix string) (string, error) {
	var code string
	err := r.db.QueryRow(ctx,
		`SELECT assignment_code FROM assignments
		 WHERE assignment_code LIKE $1 || '%'
		 ORDER BY assignment_code DESC
		 LIMIT 1`,
		prefix,
	).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read latest assignment code: %w", err)
	}
	return code, nil
}

func (r *assignmentRepository) CountByProject(ctx context.Context, projectID uuid.UUID) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM assignments WHERE project_id = $1`, projectID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count assignments: %w", err)
	}
	return count, nil
}

func (r *assignmentRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Assignment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE project_id = $1 ORDER BY start_date, assignment_code`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	assignments := []domain.Assignment{}
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}
	return assignments, nil
}
