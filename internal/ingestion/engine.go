package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rpattn/staffing/internal/auth"
	"github.com/rpattn/staffing/internal/domain"
	"github.com/rpattn/staffing/internal/logging"
	"github.com/rpattn/staffing/internal/metrics"
	"github.com/rpattn/staffing/internal/repository"
	"github.com/sirupsen/logrus"
)

// description is what a committed record contributes to the summary and the audit log.
type description struct {
	ID         uuid.UUID
	Identifier string
	Payload    map[string]any
}

// Definition binds one entity to the import pipeline.
type Definition[T any] struct {
	Schema Schema
	// KeyLabel names the natural key in duplicate row messages.
	KeyLabel string
	// Prepare runs once with every non-blank data row before normalisation.
	Prepare func(ctx context.Context, rows []Row) error
	// Normalize builds a candidate from a row, reporting problems on the reader.
	Normalize func(ctx context.Context, r *rowReader) T
	// Key is the natural key of a valid candidate.
	Key func(record T) string
	// Match finds the stored record with the candidate's natural key.
	Match  func(ctx context.Context, repos repository.Repositories, record T) (T, bool, error)
	Insert func(ctx context.Context, tx repository.Tx, record T) (T, error)
	// Update copies the non-key fields of incoming onto existing and saves it.
	Update   func(ctx context.Context, repos repository.Repositories, existing, incoming T) (T, error)
	Describe func(record T) description
	// AfterCommit runs once the batch is durable. Returned strings become summary warnings.
	AfterCommit func(ctx context.Context, changes []change[T]) []string
}

type candidate[T any] struct {
	row    int
	record T
}

// change is one applied candidate.
type change[T any] struct {
	row    int
	action Action
	before *T
	after  T
}

// Engine runs the import pipeline for one entity type.
type Engine[T any] struct {
	pipeline *pipeline
	schema   Schema
	define   func(ctx context.Context, req Request) (Definition[T], error)
}

func newEngine[T any](p *pipeline, schema Schema, define func(ctx context.Context, req Request) (Definition[T], error)) *Engine[T] {
	return &Engine[T]{pipeline: p, schema: schema, define: define}
}

// Entity reports the entity type this engine imports.
func (e *Engine[T]) Entity() domain.EntityType { return e.schema.Entity }

// Schema reports the expected header layout.
func (e *Engine[T]) Schema() Schema { return e.schema }

// Import parses, validates and reconciles one upload. Either every row is
// applied or none is.
func (e *Engine[T]) Import(ctx context.Context, req Request) (Summary, error) {
	userID, err := auth.RequireUser(ctx)
	if err != nil {
		return Summary{}, err
	}

	log := logging.FromContext(ctx).WithFields(logrus.Fields{
		"entity":  e.schema.Entity,
		"file":    req.FileName,
		"dry_run": req.DryRun,
	})
	ctx = logging.WithLogger(ctx, log)

	start := time.Now()
	summary, err := e.run(ctx, req, userID)
	status := classify(err)

	outcome := string(status)
	if req.DryRun && err == nil {
		outcome = "dry_run"
	}
	metrics.RecordImport(string(e.schema.Entity), outcome, time.Since(start))

	switch status {
	case domain.ImportSucceeded:
		log.WithFields(logrus.Fields{
			"inserted": summary.Inserted,
			"updated":  summary.Updated,
			"skipped":  summary.Skipped,
		}).Info("import finished")
	case domain.ImportRejected:
		log.WithError(err).Warn("import rejected")
	default:
		log.WithError(err).Error("import failed")
	}

	if !req.DryRun {
		e.pipeline.recordRun(ctx, userID, summary, status, err)
	}
	return summary, err
}

func (e *Engine[T]) run(ctx context.Context, req Request, userID string) (Summary, error) {
	summary := Summary{
		Entity:   e.schema.Entity,
		FileName: req.FileName,
		DryRun:   req.DryRun,
		Rows:     []RowOutcome{},
	}

	payload, err := readPayload(req.Data, e.pipeline.maxBytes)
	if err != nil {
		return summary, &FileFormatError{FileName: req.FileName, Err: err}
	}

	def, err := e.define(ctx, req)
	if err != nil {
		return summary, err
	}

	table, err := ParseTable(req.FileName, payload)
	if err != nil {
		return summary, err
	}
	if err := def.Schema.Check(table); err != nil {
		return summary, err
	}
	summary.TotalRows = len(table.Rows) - 1

	candidates, skipped, err := e.collect(ctx, def, table)
	summary.Skipped = skipped
	if err != nil {
		return summary, err
	}

	if req.DryRun {
		return e.preview(ctx, def, candidates, summary)
	}

	var changes []change[T]
	err = e.pipeline.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		changes = changes[:0]
		for _, c := range candidates {
			applied, err := e.apply(ctx, def, tx, c)
			if err != nil {
				return fmt.Errorf("row %d: %w", c.row, err)
			}
			changes = append(changes, applied)
		}
		return nil
	})
	if err != nil {
		return summary, &PersistenceError{Entity: e.schema.Entity, Err: err}
	}

	for _, applied := range changes {
		summary.add(applied.row, applied.action, def.Describe(applied.after))
	}
	metrics.RecordRows(string(e.schema.Entity), string(ActionInsert), summary.Inserted)
	metrics.RecordRows(string(e.schema.Entity), string(ActionUpdate), summary.Updated)
	metrics.RecordRows(string(e.schema.Entity), "skipped", summary.Skipped)

	if def.AfterCommit != nil {
		summary.Warnings = append(summary.Warnings, def.AfterCommit(ctx, changes)...)
	}
	e.audit(ctx, def, userID, changes)
	return summary, nil
}

// collect normalises and validates every data row. Any row problem rejects
// the whole batch with a RowValidationError.
func (e *Engine[T]) collect(ctx context.Context, def Definition[T], table Table) ([]candidate[T], int, error) {
	var rows []Row
	skipped := 0
	for _, row := range table.Rows[1:] {
		if def.Schema.IsBlank(row.Cells) {
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	if def.Prepare != nil {
		if err := def.Prepare(ctx, rows); err != nil {
			return nil, skipped, &PersistenceError{Entity: e.schema.Entity, Err: err}
		}
	}

	rowErrs := &RowValidationError{Entity: e.schema.Entity}
	seen := map[string]int{}
	candidates := make([]candidate[T], 0, len(rows))
	for _, row := range rows {
		if len(row.Cells) < len(def.Schema.Headers) {
			rowErrs.add(row.Number, &FieldError{Kind: ErrInsufficientColumns, Message: "Row doesn't have enough columns"})
			continue
		}

		reader := newRowReader(def.Schema, row, table.NativeDates)
		record := def.Normalize(ctx, reader)
		if reader.fatal != nil {
			return nil, skipped, &PersistenceError{Entity: e.schema.Entity, Err: reader.fatal}
		}
		if errs := reader.errors(); len(errs) > 0 {
			rowErrs.add(row.Number, errs...)
			continue
		}

		if def.Key != nil {
			key := def.Key(record)
			if first, dup := seen[key]; dup {
				rowErrs.add(row.Number, &FieldError{
					Kind:    ErrDuplicateRow,
					Message: fmt.Sprintf("Duplicate %s also on row %d", def.KeyLabel, first),
				})
				continue
			}
			seen[key] = row.Number
		}
		candidates = append(candidates, candidate[T]{row: row.Number, record: record})
	}

	if !rowErrs.empty() {
		return nil, skipped, rowErrs
	}
	return candidates, skipped, nil
}

func (e *Engine[T]) apply(ctx context.Context, def Definition[T], tx repository.Tx, c candidate[T]) (change[T], error) {
	existing, found, err := def.Match(ctx, tx.Repositories(), c.record)
	if err != nil {
		return change[T]{}, err
	}
	if found {
		updated, err := def.Update(ctx, tx.Repositories(), existing, c.record)
		if err != nil {
			return change[T]{}, err
		}
		return change[T]{row: c.row, action: ActionUpdate, before: &existing, after: updated}, nil
	}

	created, err := def.Insert(ctx, tx, c.record)
	if err != nil {
		return change[T]{}, err
	}
	return change[T]{row: c.row, action: ActionInsert, after: created}, nil
}

// preview reports what a real import would do without opening a transaction.
func (e *Engine[T]) preview(ctx context.Context, def Definition[T], candidates []candidate[T], summary Summary) (Summary, error) {
	repos := e.pipeline.store.Repositories()
	for _, c := range candidates {
		existing, found, err := def.Match(ctx, repos, c.record)
		if err != nil {
			return summary, &PersistenceError{Entity: e.schema.Entity, Err: fmt.Errorf("row %d: %w", c.row, err)}
		}
		if found {
			summary.add(c.row, ActionUpdate, def.Describe(existing))
		} else {
			summary.add(c.row, ActionInsert, description{})
		}
	}
	return summary, nil
}

func (e *Engine[T]) audit(ctx context.Context, def Definition[T], userID string, changes []change[T]) {
	for _, applied := range changes {
		var before map[string]any
		if applied.before != nil {
			before = def.Describe(*applied.before).Payload
		}
		after := def.Describe(applied.after).Payload
		// failures are logged and counted by the recorder
		_ = e.pipeline.audit.RecordChange(ctx, e.schema.Entity, domain.ActionImport, userID, before, after)
	}
}

// matched adapts a repository lookup to the Match contract.
func matched[T any](record T, err error) (T, bool, error) {
	if errors.Is(err, repository.ErrNotFound) {
		var zero T
		return zero, false, nil
	}
	if err != nil {
		return record, false, err
	}
	return record, true, nil
}

// classify maps an import error to the status stored in the run history.
func classify(err error) domain.ImportStatus {
	if err == nil {
		return domain.ImportSucceeded
	}
	var (
		persistence *PersistenceError
		format      *FileFormatError
		mismatch    *SchemaMismatchError
		rows        *RowValidationError
	)
	switch {
	case errors.As(err, &persistence):
		return domain.ImportFailed
	case errors.As(err, &format), errors.As(err, &mismatch), errors.As(err, &rows),
		errors.Is(err, ErrEmptyFile), errors.Is(err, ErrTargetNotFound):
		return domain.ImportRejected
	default:
		return domain.ImportFailed
	}
}
