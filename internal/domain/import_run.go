package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImportStatus is the terminal state of an import request.
type ImportStatus string

const (
	ImportSucceeded ImportStatus = "succeeded"
	ImportRejected  ImportStatus = "rejected"
	ImportFailed    ImportStatus = "failed"
)

// ImportRun records the outcome of one uploaded file.
type ImportRun struct {
	ID           uuid.UUID    `json:"id"`
	Entity       EntityType   `json:"entity"`
	FileName     string       `json:"fileName"`
	UserID       string       `json:"userId"`
	Status       ImportStatus `json:"status"`
	TotalRows    int          `json:"totalRows"`
	Inserted     int          `json:"inserted"`
	Updated      int          `json:"updated"`
	Skipped      int          `json:"skipped"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}
