package domain

import (
	"time"

	"github.com/google/uuid"
)

// Assignment places an employee on a project for a date range.
type Assignment struct {
	ID             uuid.UUID  `json:"id"`
	AssignmentCode string     `json:"assignmentCode"`
	ProjectID      uuid.UUID  `json:"projectId"`
	EmployeeID     uuid.UUID  `json:"employeeId"`
	StartDate      time.Time  `json:"startDate"`
	EndDate        *time.Time `json:"endDate,omitempty"`
	Notes          string     `json:"notes"`
	Attachment     string     `json:"attachment,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
