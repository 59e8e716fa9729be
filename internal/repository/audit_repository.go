package repository

import (
	"context"
	"fmt"

	"github.com/rpattn/staffing/internal/db"
	"github.com/rpattn/staffing/internal/domain"
)

type auditRepository struct {
	db db.DBTX
}

// NewAuditRepository wires an append-only activity log.
func NewAuditRepository(q db.DBTX) AuditRepository {
	return &auditRepository{db: q}
}

func (r *auditRepository) Append(ctx context.Context, entry domain.AuditEntry) error {
	if r.db == nil {
		return fmt.Errorf("audit repository not initialized")
	}

	payload := entry.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	_, err := r.db.Exec(
		ctx,
		`INSERT INTO activity_logs (id, type, action_type, user_id, log, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID,
		string(entry.EntityType),
		string(entry.Action),
		entry.UserID,
		payload,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append activity log: %w", err)
	}
	return nil
}
