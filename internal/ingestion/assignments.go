package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rpattn/staffing/internal/domain"
	"github.com/rpattn/staffing/internal/logging"
	"github.com/rpattn/staffing/internal/repository"
)

// assignmentRecord is an assignment with the employee and project it links.
type assignmentRecord struct {
	Assignment domain.Assignment
	Employee   domain.Employee
	Project    domain.Project
}

type assignmentInput struct {
	EmployeeName string `validate:"required" label:"Employee Name"`
}

func (p *pipeline) assignmentDefinition(ctx context.Context, req Request) (Definition[assignmentRecord], error) {
	project, err := p.store.Repositories().Projects.GetByID(ctx, req.ProjectID)
	if errors.Is(err, repository.ErrNotFound) {
		return Definition[assignmentRecord]{}, fmt.Errorf("%w: project %s", ErrTargetNotFound, req.ProjectID)
	}
	if err != nil {
		return Definition[assignmentRecord]{}, fmt.Errorf("failed to load project %s: %w", req.ProjectID, err)
	}

	employees := p.store.Repositories().Employees
	resolver := newReferenceResolver[domain.Employee](
		"Employee",
		employees.ListByNames,
		func(e domain.Employee) string { return e.Name },
		employees.ListNames,
	)

	return Definition[assignmentRecord]{
		Schema:   AssignmentSchema,
		KeyLabel: "employee and start date",
		Prepare: func(ctx context.Context, rows []Row) error {
			return resolver.prime(ctx, columnValues(rows, 0))
		},
		Normalize: func(ctx context.Context, r *rowReader) assignmentRecord {
			rec := p.normalizeAssignment(ctx, r, resolver)
			rec.Project = project
			rec.Assignment.ProjectID = project.ID
			return rec
		},
		Key: func(rec assignmentRecord) string {
			return rec.Employee.ID.String() + "|" + rec.Assignment.StartDate.Format(time.DateOnly)
		},
		Match: func(ctx context.Context, repos repository.Repositories, rec assignmentRecord) (assignmentRecord, bool, error) {
			existing, found, err := matched(repos.Assignments.GetByNaturalKey(ctx, project.ID, rec.Employee.ID, rec.Assignment.StartDate))
			return assignmentRecord{Assignment: existing, Employee: rec.Employee, Project: project}, found, err
		},
		Insert: func(ctx context.Context, tx repository.Tx, rec assignmentRecord) (assignmentRecord, error) {
			assignment := rec.Assignment
			assignment.ID = uuid.New()
			_, err := p.ids.Insert(ctx, tx, assignmentCodes, "", func(repos repository.Repositories, code string) error {
				assignment.AssignmentCode = code
				created, err := repos.Assignments.Create(ctx, assignment)
				if err != nil {
					return err
				}
				assignment = created
				return nil
			})
			rec.Assignment = assignment
			return rec, err
		},
		Update: func(ctx context.Context, repos repository.Repositories, existing, incoming assignmentRecord) (assignmentRecord, error) {
			assignment := existing.Assignment
			assignment.EndDate = incoming.Assignment.EndDate
			assignment.Notes = incoming.Assignment.Notes
			updated, err := repos.Assignments.Update(ctx, assignment)
			existing.Assignment = updated
			return existing, err
		},
		Describe: describeAssignment,
		AfterCommit: func(ctx context.Context, changes []change[assignmentRecord]) []string {
			if err := p.refreshEmployeeCount(ctx, project.ID); err != nil {
				logging.FromContext(ctx).WithError(err).WithField("project", project.ProjectCode).Error("failed to refresh employee count")
				return []string{fmt.Sprintf("employee count of project %s could not be updated: %v", project.ProjectCode, err)}
			}
			return nil
		},
	}, nil
}

func (p *pipeline) normalizeAssignment(ctx context.Context, r *rowReader, employees *referenceResolver[domain.Employee]) assignmentRecord {
	in := assignmentInput{EmployeeName: r.optional(0)}
	r.check(p.validator, in)

	var rec assignmentRecord
	if in.EmployeeName != "" {
		employee, err := employees.resolve(ctx, in.EmployeeName)
		switch {
		case err == nil:
			rec.Employee = employee
		case isReferenceNotFound(err):
			r.fail(err)
		default:
			r.abort(err)
		}
	}

	start := r.date(1, true)
	end := r.date(2, false)
	if start != nil && end != nil && end.Before(*start) {
		r.failField(2, ErrEndBeforeStart, "End date must be after start date")
	}

	rec.Assignment = domain.Assignment{
		EmployeeID: rec.Employee.ID,
		EndDate:    end,
		Notes:      r.optional(3),
	}
	if start != nil {
		rec.Assignment.StartDate = *start
	}
	return rec
}

func (p *pipeline) refreshEmployeeCount(ctx context.Context, projectID uuid.UUID) error {
	repos := p.store.Repositories()
	count, err := repos.Assignments.CountByProject(ctx, projectID)
	if err != nil {
		return err
	}
	return repos.Projects.SetEmployeeCount(ctx, projectID, count)
}

func describeAssignment(rec assignmentRecord) description {
	a := rec.Assignment
	return description{
		ID:         a.ID,
		Identifier: a.AssignmentCode,
		Payload: map[string]any{
			"id":             a.ID.String(),
			"assignments_id": a.AssignmentCode,
			"project_id":     rec.Project.ProjectCode,
			"project_name":   rec.Project.ProjectName,
			"employee_name":  rec.Employee.Name,
			"start_date":     domain.FormatDate(a.StartDate),
			"end_date":       domain.FormatOptionalDate(a.EndDate),
			"notes":          a.Notes,
		},
	}
}
