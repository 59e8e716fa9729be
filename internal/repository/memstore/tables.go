package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rpattn/staffing/internal/domain"
	"github.com/rpattn/staffing/internal/repository"
)

type clients struct{ v *view }

func (r clients) Create(ctx context.Context, client domain.Client) (domain.Client, error) {
	err := r.v.write("clients.create", func(st *state, now time.Time) error {
		for _, existing := range st.clients {
			if sameFold(existing.Email, client.Email) {
				return fmt.Errorf("%w: email %s", repository.ErrDuplicateKey, client.Email)
			}
		}
		client.CreatedAt, client.UpdatedAt = now, now
		st.clients[client.ID] = client
		st.order = append(st.order, client.ID)
		return nil
	})
	return client, err
}

func (r clients) Update(ctx context.Context, client domain.Client) (domain.Client, error) {
	err := r.v.write("clients.update", func(st *state, now time.Time) error {
		existing, ok := st.clients[client.ID]
		if !ok {
			return repository.ErrNotFound
		}
		for id, other := range st.clients {
			if id != client.ID && sameFold(other.Email, client.Email) {
				return fmt.Errorf("%w: email %s", repository.ErrDuplicateKey, client.Email)
			}
		}
		client.CreatedAt, client.UpdatedAt = existing.CreatedAt, now
		st.clients[client.ID] = client
		return nil
	})
	return client, err
}

func (r clients) GetByEmail(ctx context.Context, email string) (domain.Client, error) {
	var found domain.Client
	err := r.v.read("clients.get", func(st *state) error {
		for _, id := range orderedIDs(st, st.clients) {
			if sameFold(st.clients[id].Email, email) {
				found = st.clients[id]
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

func (r clients) ListByCompanyNames(ctx context.Context, names []string) ([]domain.Client, error) {
	out := []domain.Client{}
	err := r.v.read("clients.list", func(st *state) error {
		for _, id := range orderedIDs(st, st.clients) {
			if contains(names, st.clients[id].CompanyName) {
				out = append(out, st.clients[id])
			}
		}
		return nil
	})
	return out, err
}

func (r clients) ListCompanyNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.v.read("clients.list", func(st *state) error {
		for _, c := range st.clients {
			names = append(names, c.CompanyName)
		}
		return nil
	})
	return sortedUnique(names), err
}

func (r clients) List(ctx context.Context) ([]domain.Client, error) {
	out := []domain.Client{}
	err := r.v.read("clients.list", func(st *state) error {
		for _, id := range orderedIDs(st, st.clients) {
			out = append(out, st.clients[id])
		}
		return nil
	})
	return out, err
}

type employees struct{ v *view }

func (r employees) Create(ctx context.Context, employee domain.Employee) (domain.Employee, error) {
	err := r.v.write("employees.create", func(st *state, now time.Time) error {
		for _, existing := range st.employees {
			if sameFold(existing.Email, employee.Email) {
				return fmt.Errorf("%w: email %s", repository.ErrDuplicateKey, employee.Email)
			}
		}
		employee.CreatedAt, employee.UpdatedAt = now, now
		st.employees[employee.ID] = employee
		st.order = append(st.order, employee.ID)
		return nil
	})
	return employee, err
}

func (r employees) Update(ctx context.Context, employee domain.Employee) (domain.Employee, error) {
	err := r.v.write("employees.update", func(st *state, now time.Time) error {
		existing, ok := st.employees[employee.ID]
		if !ok {
			return repository.ErrNotFound
		}
		for id, other := range st.employees {
			if id != employee.ID && sameFold(other.Email, employee.Email) {
				return fmt.Errorf("%w: email %s", repository.ErrDuplicateKey, employee.Email)
			}
		}
		employee.CreatedAt, employee.UpdatedAt = existing.CreatedAt, now
		st.employees[employee.ID] = employee
		return nil
	})
	return employee, err
}

func (r employees) GetByEmail(ctx context.Context, email string) (domain.Employee, error) {
	var found domain.Employee
	err := r.v.read("employees.get", func(st *state) error {
		for _, id := range orderedIDs(st, st.employees) {
			if sameFold(st.employees[id].Email, email) {
				found = st.employees[id]
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

func (r employees) ListByNames(ctx context.Context, names []string) ([]domain.Employee, error) {
	out := []domain.Employee{}
	err := r.v.read("employees.list", func(st *state) error {
		for _, id := range orderedIDs(st, st.employees) {
			if contains(names, st.employees[id].Name) {
				out = append(out, st.employees[id])
			}
		}
		return nil
	})
	return out, err
}

func (r employees) ListNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.v.read("employees.list", func(st *state) error {
		for _, e := range st.employees {
			names = append(names, e.Name)
		}
		return nil
	})
	return sortedUnique(names), err
}

func (r employees) List(ctx context.Context) ([]domain.Employee, error) {
	out := []domain.Employee{}
	err := r.v.read("employees.list", func(st *state) error {
		for _, id := range orderedIDs(st, st.employees) {
			out = append(out, st.employees[id])
		}
		return nil
	})
	return out, err
}

type projects struct{ v *view }

func (r projects) Create(ctx context.Context, project domain.Project) (domain.Project, error) {
	err := r.v.write("projects.create", func(st *state, now time.Time) error {
		if _, ok := st.clients[project.ClientID]; !ok {
			return fmt.Errorf("client %s does not exist", project.ClientID)
		}
		for _, existing := range st.projects {
			if existing.ProjectCode == project.ProjectCode {
				return fmt.Errorf("%w: project_code %s", repository.ErrDuplicateIdentifier, project.ProjectCode)
			}
		}
		project.CreatedAt, project.UpdatedAt = now, now
		st.projects[project.ID] = project
		st.order = append(st.order, project.ID)
		return nil
	})
	return project, err
}

func (r projects) Update(ctx context.Context, project domain.Project) (domain.Project, error) {
	err := r.v.write("projects.update", func(st *state, now time.Time) error {
		existing, ok := st.projects[project.ID]
		if !ok {
			return repository.ErrNotFound
		}
		project.ProjectCode = existing.ProjectCode
		project.CreatedAt, project.UpdatedAt = existing.CreatedAt, now
		st.projects[project.ID] = project
		return nil
	})
	return project, err
}

func (r projects) GetByID(ctx context.Context, id uuid.UUID) (domain.Project, error) {
	var found domain.Project
	err := r.v.read("projects.get", func(st *state) error {
		p, ok := st.projects[id]
		if !ok {
			return repository.ErrNotFound
		}
		found = p
		return nil
	})
	return found, err
}

func (r projects) GetByClientAndName(ctx context.Context, clientID uuid.UUID, name string) (domain.Project, error) {
	var found domain.Project
	err := r.v.read("projects.get", func(st *state) error {
		for _, id := range orderedIDs(st, st.projects) {
			p := st.projects[id]
			if p.ClientID == clientID && p.ProjectName == name {
				found = p
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

func (r projects) LatestCode(ctx context.Context, prefix string) (string, error) {
	var codes []string
	err := r.v.read("projects.latest", func(st *state) error {
		for _, p := range st.projects {
			codes = append(codes, p.ProjectCode)
		}
		return nil
	})
	return latestWithPrefix(codes, prefix), err
}

func (r projects) SetEmployeeCount(ctx context.Context, id uuid.UUID, count int) error {
	return r.v.write("projects.count", func(st *state, now time.Time) error {
		p, ok := st.projects[id]
		if !ok {
			return repository.ErrNotFound
		}
		p.Settings.EmployeeCount = count
		p.UpdatedAt = now
		st.projects[id] = p
		return nil
	})
}

func (r projects) List(ctx context.Context) ([]domain.Project, error) {
	out := []domain.Project{}
	err := r.v.read("projects.list", func(st *state) error {
		for _, id := range orderedIDs(st, st.projects) {
			out = append(out, st.projects[id])
		}
		return nil
	})
	return out, err
}

type assignments struct{ v *view }

func (r assignments) Create(ctx context.Context, assignment domain.Assignment) (domain.Assignment, error) {
	err := r.v.write("assignments.create", func(st *state, now time.Time) error {
		if _, ok := st.projects[assignment.ProjectID]; !ok {
			return fmt.Errorf("project %s does not exist", assignment.ProjectID)
		}
		if _, ok := st.employees[assignment.EmployeeID]; !ok {
			return fmt.Errorf("employee %s does not exist", assignment.EmployeeID)
		}
		for _, existing := range st.assignments {
			if existing.AssignmentCode == assignment.AssignmentCode {
				return fmt.Errorf("%w: assignment_code %s", repository.ErrDuplicateIdentifier, assignment.AssignmentCode)
			}
		}
		assignment.CreatedAt, assignment.UpdatedAt = now, now
		st.assignments[assignment.ID] = assignment
		st.order = append(st.order, assignment.ID)
		return nil
	})
	return assignment, err
}

func (r assignments) Update(ctx context.Context, assignment domain.Assignment) (domain.Assignment, error) {
	err := r.v.write("assignments.update", func(st *state, now time.Time) error {
		existing, ok := st.assignments[assignment.ID]
		if !ok {
			return repository.ErrNotFound
		}
		assignment.AssignmentCode = existing.AssignmentCode
		assignment.ProjectID = existing.ProjectID
		assignment.Attachment = existing.Attachment
		assignment.CreatedAt, assignment.UpdatedAt = existing.CreatedAt, now
		st.assignments[assignment.ID] = assignment
		return nil
	})
	return assignment, err
}

func (r assignments) GetByNaturalKey(ctx context.Context, projectID, employeeID uuid.UUID, startDate time.Time) (domain.Assignment, error) {
	var found domain.Assignment
	err := r.v.read("assignments.get", func(st *state) error {
		for _, id := range orderedIDs(st, st.assignments) {
			a := st.assignments[id]
			if a.ProjectID == projectID && a.EmployeeID == employeeID && a.StartDate.Equal(startDate) {
				found = a
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

func (r assignments) LatestCode(ctx context.Context, prefix string) (string, error) {
	var codes []string
	err := r.v.read("assignments.latest", func(st *state) error {
		for _, a := range st.assignments {
			codes = append(codes, a.AssignmentCode)
		}
		return nil
	})
	return latestWithPrefix(codes, prefix), err
}

func (r assignments) CountByProject(ctx context.Context, projectID uuid.UUID) (int, error) {
	count := 0
	err := r.v.read("assignments.count", func(st *state) error {
		for _, a := range st.assignments {
			if a.ProjectID == projectID {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r assignments) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Assignment, error) {
	out := []domain.Assignment{}
	err := r.v.read("assignments.list", func(st *state) error {
		for _, id := range orderedIDs(st, st.assignments) {
			if st.assignments[id].ProjectID == projectID {
				out = append(out, st.assignments[id])
			}
		}
		return nil
	})
	return out, err
}

type sequences struct{ v *view }

func (r sequences) Next(ctx context.Context, scope string, seed repository.SeedFunc) (int, error) {
	if err := r.v.store.fault("sequences.next"); err != nil {
		return 0, err
	}
	st := r.v.state
	if st == nil {
		return 0, fmt.Errorf("sequence %s must be advanced inside a transaction", scope)
	}
	last, ok := st.sequences[scope]
	if !ok && seed != nil {
		seeded, err := seed(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to seed sequence %s: %w", scope, err)
		}
		last = seeded
	}
	st.sequences[scope] = last + 1
	return last + 1, nil
}

type auditLog struct{ store *Store }

func (a auditLog) Append(ctx context.Context, entry domain.AuditEntry) error {
	if err := a.store.fault("audit.append"); err != nil {
		return err
	}
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	a.store.audit = append(a.store.audit, entry)
	return nil
}

type runLog struct{ store *Store }

func (l runLog) Record(ctx context.Context, run domain.ImportRun) error {
	if err := l.store.fault("runs.record"); err != nil {
		return err
	}
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	l.store.runs = append(l.store.runs, run)
	return nil
}

func (l runLog) List(ctx context.Context, limit int, offset int) ([]domain.ImportRun, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	out := []domain.ImportRun{}
	for i := len(l.store.runs) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.store.runs[i])
	}
	return out, nil
}
