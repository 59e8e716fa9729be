package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rpattn/staffing/internal/db"
	"github.com/rpattn/staffing/internal/domain"
)

type importRunRepository struct {
	db db.DBTX
}

// NewImportRunRepository wires the import history table.
func NewImportRunRepository(q db.DBTX) ImportRunRepository {
	return &importRunRepository{db: q}
}

func (r *importRunRepository) Record(ctx context.Context, run domain.ImportRun) error {
	if r.db == nil {
		return fmt.Errorf("import run repository not initialized")
	}

	_, err := r.db.Exec(
		ctx,
		`INSERT INTO import_runs (id, entity, file_name, user_id, status, total_rows, inserted, updated, skipped, error_message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.ID,
		string(run.Entity),
		run.FileName,
		run.UserID,
		string(run.Status),
		run.TotalRows,
		run.Inserted,
		run.Updated,
		run.Skipped,
		run.ErrorMessage,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record import run: %w", err)
	}

	return nil
}

func (r *importRunRepository) List(ctx context.Context, limit int, offset int) ([]domain.ImportRun, error) {
	if r.db == nil {
		return nil, fmt.Errorf("import run repository not initialized")
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT id, entity, file_name, user_id, status, total_rows, inserted, updated, skipped, error_message, created_at
		 FROM import_runs
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list import runs: %w", err)
	}
	defer rows.Close()

	runs := []domain.ImportRun{}
	for rows.Next() {
		var (
			run       domain.ImportRun
			entity    string
			status    string
			createdAt pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&run.ID,
			&entity,
			&run.FileName,
			&run.UserID,
			&status,
			&run.TotalRows,
			&run.Inserted,
			&run.Updated,
			&run.Skipped,
			&run.ErrorMessage,
			&createdAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan import run: %w", scanErr)
		}

		run.Entity = domain.EntityType(entity)
		run.Status = domain.ImportStatus(status)
		if createdAt.Valid {
			run.CreatedAt = createdAt.Time
		}

		runs = append(runs, run)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate import runs: %w", rowsErr)
	}

	return runs, nil
}
