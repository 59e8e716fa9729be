package ingestion

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rpattn/staffing/internal/domain"
	"github.com/rpattn/staffing/internal/repository"
)

type clientInput struct {
	Name        string `validate:"required,max=255" label:"Name"`
	Email       string `validate:"required,email,max=255" label:"Email"`
	CompanyName string `validate:"required,max=255" label:"Company Name"`
}

func (p *pipeline) clientDefinition(ctx context.Context, req Request) (Definition[domain.Client], error) {
	return Definition[domain.Client]{
		Schema:    ClientSchema,
		KeyLabel:  "email",
		Normalize: p.normalizeClient,
		Key: func(c domain.Client) string {
			return strings.ToLower(c.Email)
		},
		Match: func(ctx context.Context, repos repository.Repositories, c domain.Client) (domain.Client, bool, error) {
			return matched(repos.Clients.GetByEmail(ctx, c.Email))
		},
		Insert: func(ctx context.Context, tx repository.Tx, c domain.Client) (domain.Client, error) {
			c.ID = uuid.New()
			return tx.Repositories().Clients.Create(ctx, c)
		},
		Update: func(ctx context.Context, repos repository.Repositories, existing, incoming domain.Client) (domain.Client, error) {
			existing.Name = incoming.Name
			existing.CompanyName = incoming.CompanyName
			existing.Metadata = incoming.Metadata
			existing.IsActive = incoming.IsActive
			return repos.Clients.Update(ctx, existing)
		},
		Describe: describeClient,
	}, nil
}

func (p *pipeline) normalizeClient(ctx context.Context, r *rowReader) domain.Client {
	in := clientInput{
		Name:        r.optional(0),
		Email:       r.optional(1),
		CompanyName: r.optional(2),
	}
	r.check(p.validator, in)

	return domain.Client{
		Name:        in.Name,
		Email:       in.Email,
		CompanyName: in.CompanyName,
		Metadata: domain.ClientMetadata{
			NPWP:     FormatNPWP(r.optional(3)),
			Industri: r.optional(4),
		},
		IsActive: r.flag(5, "active"),
	}
}

func describeClient(c domain.Client) description {
	return description{
		ID: c.ID,
		Payload: map[string]any{
			"id":           c.ID.String(),
			"name":         c.Name,
			"email":        c.Email,
			"company_name": c.CompanyName,
			"npwp":         c.Metadata.NPWP,
			"industri":     c.Metadata.Industri,
			"is_active":    c.IsActive,
		},
	}
}
