package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rpattn/staffing/internal/db"
	"github.com/rpattn/staffing/internal/domain"
)

const projectColumns = `id, project_code, client_id, project_name, start_date, is_approved, settings, created_at, updated_at`

type projectRepository struct {
	db db.DBTX
}

func scanProject(row rowScanner) (domain.Project, error) {
	var p domain.Project
	err := row.Scan(&p.ID, &p.ProjectCode, &p.ClientID, &p.ProjectName, &p.StartDate, &p.IsApproved, &p.Settings, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *projectRepository) Create(ctx context.Context, project domain.Project) (domain.Project, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO projects (id, project_code, client_id, project_name, start_date, is_approved, settings)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+projectColumns,
		project.ID, project.ProjectCode, project.ClientID, project.ProjectName, project.StartDate, project.IsApproved, project.Settings,
	)
	created, err := scanProject(row)
	if err != nil {
		return domain.Project{}, fmt.Errorf("failed to create project: %w", translateError(err))
	}
	return created, nil
}

func (r *projectRepository) Update(ctx context.Context, project domain.Project) (domain.Project, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE projects
		 SET client_id = $2, project_name = $3, start_date = $4, is_approved = $5, settings = $6, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+projectColumns,
		project.ID, project.ClientID, project.ProjectName, project.StartDate, project.IsApproved, project.Settings,
	)
	updated, err := scanProject(row)
	if err != nil {
		return domain.Project{}, fmt.Errorf("failed to update project: %w", translateError(err))
	}
	return updated, nil
}

func (r *projectRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Project, error) {
	project, err := scanProject(r.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		return domain.Project{}, translateError(err)
	}
	return project, nil
}

func (r *projectRepository) GetByClientAndName(ctx context.Context, clientID uuid.UUID, name string) (domain.Project, error) {
	project, err := scanProject(r.db.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects
		 WHERE client_id = $1 AND project_name = $2
		 ORDER BY created_at
		 LIMIT 1`,
		clientID, name,
	))
	if err != nil {
		return domain.Project{}, translateError(err)
	}
	return project, nil
}

func (r *projectRepository) LatestCode(ctx context.Context, prefix string) (string, error) {
	var code string
	err := r.db.QueryRow(ctx,
		`SELECT project_code FROM projects
		 WHERE project_code LIKE $1 || '%'
		 ORDER BY project_code DESC
		 LIMIT 1`,
		prefix,
	).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read latest project code: %w", err)
	}
	return code, nil
}

func (r *projectRepository) SetEmployeeCount(ctx context.Context, id uuid.UUID, count int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE projects
		 SET settings = jsonb_set(settings, '{employee_count}', to_jsonb($2::int), true), updated_at = NOW()
		 WHERE id = $1`,
		id, count,
	)
	if err != nil {
		return fmt.Errorf("failed to update employee count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *projectRepository) List(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.db.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY project_code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}
	return projects, nil
}
