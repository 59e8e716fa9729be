package ingestion

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rpattn/staffing/internal/domain"
	"github.com/rpattn/staffing/internal/repository"
)

// projectRecord is a project together with the client it was resolved against.
type projectRecord struct {
	Project domain.Project
	Client  domain.Client
}

type projectInput struct {
	ProjectName   string `validate:"required,max=255" label:"Project Name"`
	ClientCompany string `validate:"required" label:"Client Company"`
}

func (p *pipeline) projectDefinition(ctx context.Context, req Request) (Definition[projectRecord], error) {
	clients := p.store.Repositories().Clients
	resolver := newReferenceResolver[domain.Client](
		"Client",
		clients.ListByCompanyNames,
		func(c domain.Client) string { return c.CompanyName },
		clients.ListCompanyNames,
	)

	return Definition[projectRecord]{
		Schema:   ProjectSchema,
		KeyLabel: "project for this client",
		Prepare: func(ctx context.Context, rows []Row) error {
			return resolver.prime(ctx, columnValues(rows, 1))
		},
		Normalize: func(ctx context.Context, r *rowReader) projectRecord {
			return p.normalizeProject(ctx, r, resolver)
		},
		Key: func(rec projectRecord) string {
			return rec.Client.ID.String() + "|" + rec.Project.ProjectName
		},
		Match: func(ctx context.Context, repos repository.Repositories, rec projectRecord) (projectRecord, bool, error) {
			existing, found, err := matched(repos.Projects.GetByClientAndName(ctx, rec.Client.ID, rec.Project.ProjectName))
			return projectRecord{Project: existing, Client: rec.Client}, found, err
		},
		Insert: func(ctx context.Context, tx repository.Tx, rec projectRecord) (projectRecord, error) {
			project := rec.Project
			project.ID = uuid.New()
			project.Settings.EmployeeCount = 0
			_, err := p.ids.Insert(ctx, tx, projectCodes, CompanyInitials(rec.Client.CompanyName), func(repos repository.Repositories, code string) error {
				project.ProjectCode = code
				created, err := repos.Projects.Create(ctx, project)
				if err != nil {
					return err
				}
				project = created
				return nil
			})
			return projectRecord{Project: project, Client: rec.Client}, err
		},
		Update: func(ctx context.Context, repos repository.Repositories, existing, incoming projectRecord) (projectRecord, error) {
			project := existing.Project
			project.StartDate = incoming.Project.StartDate
			project.IsApproved = incoming.Project.IsApproved
			project.Settings.Lokasi = incoming.Project.Settings.Lokasi
			project.Settings.Cost = incoming.Project.Settings.Cost
			updated, err := repos.Projects.Update(ctx, project)
			return projectRecord{Project: updated, Client: incoming.Client}, err
		},
		Describe: describeProject,
	}, nil
}

func (p *pipeline) normalizeProject(ctx context.Context, r *rowReader, clients *referenceResolver[domain.Client]) projectRecord {
	in := projectInput{
		ProjectName:   r.optional(0),
		ClientCompany: r.optional(1),
	}
	r.check(p.validator, in)

	var rec projectRecord
	if in.ClientCompany != "" {
		client, err := clients.resolve(ctx, in.ClientCompany)
		switch {
		case err == nil:
			rec.Client = client
		case isReferenceNotFound(err):
			r.fail(err)
		default:
			r.abort(err)
		}
	}

	start := r.date(2, true)
	rec.Project = domain.Project{
		ProjectName: in.ProjectName,
		ClientID:    rec.Client.ID,
		IsApproved:  r.flag(3, "approved"),
		Settings: domain.ProjectSettings{
			Lokasi: r.optional(4),
			Cost:   r.number(5),
		},
	}
	if start != nil {
		rec.Project.StartDate = *start
	}
	return rec
}

func describeProject(rec projectRecord) description {
	p := rec.Project
	return description{
		ID:         p.ID,
		Identifier: p.ProjectCode,
		Payload: map[string]any{
			"id":             p.ID.String(),
			"project_id":     p.ProjectCode,
			"project_name":   p.ProjectName,
			"client_company": rec.Client.CompanyName,
			"start_date":     domain.FormatDate(p.StartDate),
			"is_approved":    p.IsApproved,
			"lokasi":         p.Settings.Lokasi,
			"cost":           p.Settings.Cost.String(),
		},
	}
}

// columnValues returns the trimmed values of col across rows.
func columnValues(rows []Row, col int) []string {
	values := make([]string, 0, len(rows))
	for _, row := range rows {
		if col < len(row.Cells) {
			values = append(values, strings.TrimSpace(row.Cells[col]))
		}
	}
	return values
}
