package ingestion

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rpattn/staffing/internal/domain"
	"github.com/rpattn/staffing/internal/repository"
)

type employeeInput struct {
	Name  string `validate:"required,max=255" label:"Name"`
	Email string `validate:"required,email,max=255" label:"Email"`
	Phone string `validate:"max=50" label:"Phone"`
}

func (p *pipeline) employeeDefinition(ctx context.Context, req Request) (Definition[domain.Employee], error) {
	return Definition[domain.Employee]{
		Schema:    EmployeeSchema,
		KeyLabel:  "email",
		Normalize: p.normalizeEmployee,
		Key: func(e domain.Employee) string {
			return strings.ToLower(e.Email)
		},
		Match: func(ctx context.Context, repos repository.Repositories, e domain.Employee) (domain.Employee, bool, error) {
			return matched(repos.Employees.GetByEmail(ctx, e.Email))
		},
		Insert: func(ctx context.Context, tx repository.Tx, e domain.Employee) (domain.Employee, error) {
			e.ID = uuid.New()
			return tx.Repositories().Employees.Create(ctx, e)
		},
		Update: func(ctx context.Context, repos repository.Repositories, existing, incoming domain.Employee) (domain.Employee, error) {
			existing.Name = incoming.Name
			existing.Phone = incoming.Phone
			existing.Skillset = incoming.Skillset
			existing.IsAvailable = incoming.IsAvailable
			return repos.Employees.Update(ctx, existing)
		},
		Describe: describeEmployee,
	}, nil
}

// column 0 is a running number and is not stored
func (p *pipeline) normalizeEmployee(ctx context.Context, r *rowReader) domain.Employee {
	in := employeeInput{
		Name:  r.optional(1),
		Email: r.optional(2),
		Phone: r.optional(3),
	}
	r.check(p.validator, in)

	return domain.Employee{
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		Skillset:    r.list(4),
		IsAvailable: r.flag(5, "available"),
	}
}

func describeEmployee(e domain.Employee) description {
	return description{
		ID: e.ID,
		Payload: map[string]any{
			"id":           e.ID.String(),
			"name":         e.Name,
			"email":        e.Email,
			"phone":        e.Phone,
			"skillset":     strings.Join(e.Skillset, ", "),
			"is_available": e.IsAvailable,
		},
	}
}
