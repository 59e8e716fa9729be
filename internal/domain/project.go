package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProjectSettings is the JSON settings document of a project.
type ProjectSettings struct {
	Lokasi        string          `json:"lokasi"`
	Cost          decimal.Decimal `json:"cost"`
	EmployeeCount int             `json:"employee_count"`
}

// Project belongs to a client and carries a generated business code such as PR240007AC.
type Project struct {
	ID          uuid.UUID       `json:"id"`
	ProjectCode string          `json:"projectCode"`
	ClientID    uuid.UUID       `json:"clientId"`
	ProjectName string          `json:"projectName"`
	StartDate   time.Time       `json:"startDate"`
	IsApproved  bool            `json:"isApproved"`
	Settings    ProjectSettings `json:"settings"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
