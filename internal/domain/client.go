package domain

import (
	"time"

	"github.com/google/uuid"
)

// ClientMetadata is stored as JSON alongside the client.
type ClientMetadata struct {
	NPWP     string `json:"npwp,omitempty"`
	Industri string `json:"industri,omitempty"`
}

// Client is a company contact that owns projects.
type Client struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	CompanyName string         `json:"companyName"`
	Metadata    ClientMetadata `json:"metadata"`
	IsActive    bool           `json:"isActive"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}
