package export

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpattn/staffing/internal/domain"
	"github.com/rpattn/staffing/internal/ingestion"
	"github.com/rpattn/staffing/internal/repository"
)

const blank = "-"

// ErrProjectNotFound is returned when exporting the assignments of a missing project.
var ErrProjectNotFound = errors.New("project not found")

// Service renders stored records in their import layout, so an export can be
// edited and uploaded again.
type Service struct {
	store repository.Store
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used in file names.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates an export service reading from store.
func NewService(store repository.Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Template returns an empty sheet with the import headers of entity.
func Template(entity domain.EntityType) (Sheet, error) {
	schema, err := schemaOf(entity)
	if err != nil {
		return Sheet{}, err
	}
	return Sheet{Title: titleOf(entity), Headers: schema.Headers, Rows: [][]string{}}, nil
}

// Export builds the sheet of entity. projectID selects the project of an assignment export.
func (s *Service) Export(ctx context.Context, entity domain.EntityType, projectID uuid.UUID) (Sheet, error) {
	switch entity {
	case domain.EntityClient:
		return s.Clients(ctx)
	case domain.EntityEmployee:
		return s.Employees(ctx)
	case domain.EntityProject:
		return s.Projects(ctx)
	case domain.EntityAssignment:
		return s.Assignments(ctx, projectID)
	default:
		return Sheet{}, fmt.Errorf("no export for %s", entity)
	}
}

// Clients exports every client.
func (s *Service) Clients(ctx context.Context) (Sheet, error) {
	clients, err := s.store.Repositories().Clients.List(ctx)
	if err != nil {
		return Sheet{}, fmt.Errorf("list clients: %w", err)
	}
	sheet := newSheet(domain.EntityClient, len(clients))
	for _, c := range clients {
		sheet.Rows = append(sheet.Rows, []string{
			c.Name,
			c.Email,
			c.CompanyName,
			orBlank(ingestion.FormatNPWP(c.Metadata.NPWP)),
			orBlank(c.Metadata.Industri),
			status(c.IsActive, "Active", "Non-Active"),
		})
	}
	return sheet, nil
}

// Employees exports every employee with a running number.
func (s *Service) Employees(ctx context.Context) (Sheet, error) {
	employees, err := s.store.Repositories().Employees.List(ctx)
	if err != nil {
		return Sheet{}, fmt.Errorf("list employees: %w", err)
	}
	sheet := newSheet(domain.EntityEmployee, len(employees))
	for i, e := range employees {
		sheet.Rows = append(sheet.Rows, []string{
			strconv.Itoa(i + 1),
			e.Name,
			e.Email,
			orBlank(e.Phone),
			orBlank(strings.Join(e.Skillset, ", ")),
			status(e.IsAvailable, "Available", "Not Available"),
		})
	}
	return sheet, nil
}

// Projects exports every project with its client company.
func (s *Service) Projects(ctx context.Context) (Sheet, error) {
	repos := s.store.Repositories()
	projects, err := repos.Projects.List(ctx)
	if err != nil {
		return Sheet{}, fmt.Errorf("list projects: %w", err)
	}
	clients, err := repos.Clients.List(ctx)
	if err != nil {
		return Sheet{}, fmt.Errorf("list clients: %w", err)
	}
	companies := make(map[uuid.UUID]string, len(clients))
	for _, c := range clients {
		companies[c.ID] = c.CompanyName
	}

	sheet := newSheet(domain.EntityProject, len(projects))
	for _, p := range projects {
		sheet.Rows = append(sheet.Rows, []string{
			p.ProjectName,
			companies[p.ClientID],
			domain.FormatDate(p.StartDate),
			status(p.IsApproved, "Approved", "Pending"),
			orBlank(p.Settings.Lokasi),
			p.Settings.Cost.String(),
		})
	}
	return sheet, nil
}

// Assignments exports the assignments of one project.
func (s *Service) Assignments(ctx context.Context, projectID uuid.UUID) (Sheet, error) {
	repos := s.store.Repositories()
	project, err := repos.Projects.GetByID(ctx, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		return Sheet{}, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}
	if err != nil {
		return Sheet{}, fmt.Errorf("load project: %w", err)
	}
	assignments, err := repos.Assignments.ListByProject(ctx, projectID)
	if err != nil {
		return Sheet{}, fmt.Errorf("list assignments: %w", err)
	}
	employees, err := repos.Employees.List(ctx)
	if err != nil {
		return Sheet{}, fmt.Errorf("list employees: %w", err)
	}
	names := make(map[uuid.UUID]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.Name
	}

	sheet := newSheet(domain.EntityAssignment, len(assignments))
	sheet.Title = truncateTitle(project.ProjectCode)
	for _, a := range assignments {
		sheet.Rows = append(sheet.Rows, []string{
			names[a.EmployeeID],
			domain.FormatDate(a.StartDate),
			orBlank(domain.FormatOptionalDate(a.EndDate)),
			orBlank(a.Notes),
		})
	}
	return sheet, nil
}

// FileName builds the download name, e.g. clients-20240721.xlsx.
func (s *Service) FileName(entity domain.EntityType, qualifier string, format Format) string {
	parts := []string{entity.Plural()}
	if q := sanitizeFileComponent(qualifier); q != "" {
		parts = append(parts, q)
	}
	parts = append(parts, s.now().Format("20060102"))
	return strings.Join(parts, "-") + "." + string(format)
}

func newSheet(entity domain.EntityType, capacity int) Sheet {
	schema, _ := schemaOf(entity)
	return Sheet{Title: titleOf(entity), Headers: schema.Headers, Rows: make([][]string, 0, capacity)}
}

func schemaOf(entity domain.EntityType) (ingestion.Schema, error) {
	switch entity {
	case domain.EntityClient:
		return ingestion.ClientSchema, nil
	case domain.EntityEmployee:
		return ingestion.EmployeeSchema, nil
	case domain.EntityProject:
		return ingestion.ProjectSchema, nil
	case domain.EntityAssignment:
		return ingestion.AssignmentSchema, nil
	default:
		return ingestion.Schema{}, fmt.Errorf("no import layout for %s", entity)
	}
}

func titleOf(entity domain.EntityType) string {
	return string(entity) + "s"
}

// sheet names are limited to 31 characters
func truncateTitle(title string) string {
	if len(title) > 31 {
		return title[:31]
	}
	if title == "" {
		return "Assignments"
	}
	return title
}

func status(on bool, yes, no string) string {
	if on {
		return yes
	}
	return no
}

func orBlank(value string) string {
	if strings.TrimSpace(value) == "" {
		return blank
	}
	return value
}

func sanitizeFileComponent(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	builder := strings.Builder{}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			builder.WriteRune(r)
		default:
			builder.WriteRune('-')
		}
	}
	return strings.Trim(builder.String(), "-")
}
