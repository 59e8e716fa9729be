package domain

import (
	"time"

	"github.com/google/uuid"
)

// Employee is a contract worker who can be assigned to projects.
type Employee struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Skillset    []string  `json:"skillset"`
	IsAvailable bool      `json:"isAvailable"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
