package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rpattn/staffing/internal/db"
)

type sequenceRepository struct {
	db db.DBTX
}

// Next holds the counter row lock until the surrounding transaction ends, which
// serialises concurrent imports that draw from the same scope.
func (r *sequenceRepository) Next(ctx context.Context, scope string, seed SeedFunc) (int, error) {
	var value int
	err := r.db.QueryRow(ctx,
		`UPDATE identifier_sequences
		 SET last_value = last_value + 1, updated_at = NOW()
		 WHERE scope = $1
		 RETURNING last_value`,
		scope,
	).Scan(&value)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", scope, err)
	}

	last := 0
	if seed != nil {
		if last, err = seed(ctx); err != nil {
			return 0, fmt.Errorf("failed to seed sequence %s: %w", scope, err)
		}
	}

	err = r.db.QueryRow(ctx,
		`INSERT INTO identifier_sequences (scope, last_value)
		 VALUES ($1, $2)
		 ON CONFLICT (scope) DO UPDATE
		 SET last_value = identifier_sequences.last_value + 1, updated_at = NOW()
		 RETURNING last_value`,
		scope, last+1,
	).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("failed to initialise sequence %s: %w", scope, err)
	}
	return value, nil
}
