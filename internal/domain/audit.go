package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActionType is the kind of change an audit entry records.
type ActionType string

const (
	ActionCreate ActionType = "Create"
	ActionUpdate ActionType = "Update"
	ActionDelete ActionType = "Delete"
	ActionImport ActionType = "Import"
)

// AuditEntry is an immutable activity log record.
type AuditEntry struct {
	ID         uuid.UUID      `json:"id"`
	EntityType EntityType     `json:"type"`
	Action     ActionType     `json:"actionType"`
	UserID     string         `json:"userId"`
	Payload    map[string]any `json:"log"`
	CreatedAt  time.Time      `json:"createdAt"`
}
