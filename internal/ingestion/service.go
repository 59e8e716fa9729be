package ingestion

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rpattn/staffing/internal/audit"
	"github.com/rpattn/staffing/internal/domain"
	"github.com/rpattn/staffing/internal/logging"
	"github.com/rpattn/staffing/internal/repository"
	"github.com/rpattn/staffing/pkg/validator"
)

const (
	// DefaultMaxUploadBytes caps uploads at 5MB.
	DefaultMaxUploadBytes int64 = 5 << 20
	// DefaultMaxIdentifierAttempts bounds retries after an identifier collision.
	DefaultMaxIdentifierAttempts = 5
)

// Action is what reconciliation did with a row.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
)

// Request describes one uploaded file.
type Request struct {
	FileName string
	Data     io.Reader
	// ProjectID is the parent of an assignment import and ignored otherwise.
	ProjectID uuid.UUID
	// DryRun validates and matches rows without writing anything.
	DryRun bool
}

// RowOutcome is the result for one applied data row.
type RowOutcome struct {
	Row        int       `json:"row"`
	Action     Action    `json:"action"`
	ID         uuid.UUID `json:"id,omitempty"`
	Identifier string    `json:"identifier,omitempty"`
}

// Summary reports the outcome of an import.
type Summary struct {
	Entity    domain.EntityType `json:"entity"`
	FileName  string            `json:"fileName"`
	DryRun    bool              `json:"dryRun"`
	TotalRows int               `json:"totalRows"`
	Inserted  int               `json:"inserted"`
	Updated   int               `json:"updated"`
	Skipped   int               `json:"skipped"`
	Rows      []RowOutcome      `json:"rows"`
	Warnings  []string          `json:"warnings,omitempty"`
}

func (s *Summary) add(row int, action Action, d description) {
	switch action {
	case ActionInsert:
		s.Inserted++
	case ActionUpdate:
		s.Updated++
	}
	s.Rows = append(s.Rows, RowOutcome{Row: row, Action: action, ID: d.ID, Identifier: d.Identifier})
}

// Importer imports files of one entity type.
type Importer interface {
	Entity() domain.EntityType
	Schema() Schema
	Import(ctx context.Context, req Request) (Summary, error)
}

// pipeline holds what every engine shares.
type pipeline struct {
	store     repository.Store
	audit     *audit.Recorder
	ids       *IdentifierGenerator
	validator *validator.RecordValidator
	now       func() time.Time
	maxBytes  int64
}

func (p *pipeline) recordRun(ctx context.Context, userID string, summary Summary, status domain.ImportStatus, cause error) {
	run := domain.ImportRun{
		ID:        uuid.New(),
		Entity:    summary.Entity,
		FileName:  summary.FileName,
		UserID:    userID,
		Status:    status,
		TotalRows: summary.TotalRows,
		Inserted:  summary.Inserted,
		Updated:   summary.Updated,
		Skipped:   summary.Skipped,
		CreatedAt: p.now().UTC(),
	}
	if cause != nil {
		run.ErrorMessage = cause.Error()
	}
	if err := p.store.ImportRuns().Record(ctx, run); err != nil {
		logging.FromContext(ctx).WithError(err).Error("failed to record import run")
	}
}

// Service dispatches uploads to the engine of their entity.
type Service struct {
	store     repository.Store
	importers map[domain.EntityType]Importer
}

type options struct {
	now         func() time.Time
	maxBytes    int64
	maxAttempts int
}

// Option configures a Service.
type Option func(*options)

// WithClock overrides the clock used for identifiers and timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithMaxUploadBytes overrides the upload size limit. Zero or less disables it.
func WithMaxUploadBytes(n int64) Option {
	return func(o *options) {
		o.maxBytes = n
	}
}

// WithMaxIdentifierAttempts overrides how many identifiers are tried per insert.
func WithMaxIdentifierAttempts(n int) Option {
	return func(o *options) {
		o.maxAttempts = n
	}
}

// NewService wires the four entity engines over store.
func NewService(store repository.Store, recorder *audit.Recorder, opts ...Option) *Service {
	o := options{
		now:         time.Now,
		maxBytes:    DefaultMaxUploadBytes,
		maxAttempts: DefaultMaxIdentifierAttempts,
	}
	for _, opt := range opts {
		opt(&o)
	}

	p := &pipeline{
		store:     store,
		audit:     recorder,
		ids:       NewIdentifierGenerator(o.now, o.maxAttempts),
		validator: validator.NewRecordValidator(),
		now:       o.now,
		maxBytes:  o.maxBytes,
	}

	importers := []Importer{
		newEngine(p, ClientSchema, p.clientDefinition),
		newEngine(p, EmployeeSchema, p.employeeDefinition),
		newEngine(p, ProjectSchema, p.projectDefinition),
		newEngine(p, AssignmentSchema, p.assignmentDefinition),
	}
	s := &Service{store: store, importers: map[domain.EntityType]Importer{}}
	for _, imp := range importers {
		s.importers[imp.Entity()] = imp
	}
	return s
}

// Importer returns the importer of entity.
func (s *Service) Importer(entity domain.EntityType) (Importer, bool) {
	imp, ok := s.importers[entity]
	return imp, ok
}

// Import runs the import of entity.
func (s *Service) Import(ctx context.Context, entity domain.EntityType, req Request) (Summary, error) {
	imp, ok := s.importers[entity]
	if !ok {
		return Summary{}, fmt.Errorf("no importer for %s", entity)
	}
	return imp.Import(ctx, req)
}

// RecentRuns lists the import history, newest first.
func (s *Service) RecentRuns(ctx context.Context, limit, offset int) ([]domain.ImportRun, error) {
	runs, err := s.store.ImportRuns().List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list import runs: %w", err)
	}
	return runs, nil
}

func readPayload(r io.Reader, limit int64) ([]byte, error) {
	if r == nil {
		return nil, ErrUnreadableFile
	}
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, ErrFileTooLarge
	}
	return data, nil
}
