// Package memstore is a transactional in-memory implementation of
// repository.Store. Transactions work on a copy of the state that replaces the
// live state on commit, so a failed batch leaves no trace.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpattn/staffing/internal/domain"
	"github.com/rpattn/staffing/internal/repository"
)

type state struct {
	clients     map[uuid.UUID]domain.Client
	employees   map[uuid.UUID]domain.Employee
	projects    map[uuid.UUID]domain.Project
	assignments map[uuid.UUID]domain.Assignment
	sequences   map[string]int
	order       []uuid.UUID
}

func newState() *state {
	return &state{
		clients:     map[uuid.UUID]domain.Client{},
		employees:   map[uuid.UUID]domain.Employee{},
		projects:    map[uuid.UUID]domain.Project{},
		assignments: map[uuid.UUID]domain.Assignment{},
		sequences:   map[string]int{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.clients {
		c.clients[k] = v
	}
	for k, v := range s.employees {
		v.Skillset = append([]string(nil), v.Skillset...)
		c.employees[k] = v
	}
	for k, v := range s.projects {
		c.projects[k] = v
	}
	for k, v := range s.assignments {
		if v.EndDate != nil {
			end := *v.EndDate
			v.EndDate = &end
		}
		c.assignments[k] = v
	}
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	c.order = append([]uuid.UUID(nil), s.order...)
	return c
}

// Store keeps all records in memory.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	current *state
	audit   []domain.AuditEntry
	runs    []domain.ImportRun
	faults  map[string]error
	now     func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the timestamp source used for created/updated times.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		current: newState(),
		faults:  map[string]error{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ repository.Store = (*Store)(nil)

// FailOn makes every call to op return err until ClearFaults is called. Ops
// are named "<table>.<method>", e.g. "projects.create" or "audit.append".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

// ClearFaults removes all injected failures.
func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = map[string]error{}
}

func (s *Store) fault(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.faults[op]
}

// SetSequence forces the last value handed out for scope.
func (s *Store) SetSequence(scope string, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.sequences[scope] = value
}

// Sequence reports the last value handed out for scope.
func (s *Store) Sequence(scope string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.current.sequences[scope]
	return value, ok
}

// AuditEntries returns a copy of the appended audit log.
func (s *Store) AuditEntries() []domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEntry(nil), s.audit...)
}

// Runs returns a copy of the recorded import runs.
func (s *Store) Runs() []domain.ImportRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ImportRun(nil), s.runs...)
}

func (s *Store) Repositories() repository.Repositories {
	return (&view{store: s}).repositories()
}

func (s *Store) Audit() repository.AuditRepository {
	return auditLog{store: s}
}

func (s *Store) ImportRuns() repository.ImportRunRepository {
	return runLog{store: s}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	working := s.current.clone()
	s.mu.Unlock()

	if err := fn(ctx, &tx{view: &view{store: s, state: working}}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.mu.Lock()
	s.current = working
	s.mu.Unlock()
	return nil
}

type tx struct {
	view *view
}

func (t *tx) Repositories() repository.Repositories {
	return t.view.repositories()
}

func (t *tx) Savepoint(ctx context.Context, fn func(repository.Tx) error) error {
	nested := t.view.state.clone()
	if err := fn(&tx{view: &view{store: t.view.store, state: nested}}); err != nil {
		return err
	}
	*t.view.state = *nested
	return nil
}

// view binds repositories either to a transaction's private state or, when
// state is nil, to the live state under the store lock.
type view struct {
	store *Store
	state *state
}

func (v *view) repositories() repository.Repositories {
	return repository.Repositories{
		Clients:     clients{v},
		Employees:   employees{v},
		Projects:    projects{v},
		Assignments: assignments{v},
		Sequences:   sequences{v},
	}
}

func (v *view) read(op string, fn func(st *state) error) error {
	if err := v.store.fault(op); err != nil {
		return err
	}
	if v.state != nil {
		return fn(v.state)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.current)
}

// write is read plus a timestamp for the mutated record.
func (v *view) write(op string, fn func(st *state, now time.Time) error) error {
	now := v.store.now().UTC()
	return v.read(op, func(st *state) error { return fn(st, now) })
}

func sameFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func orderedIDs[T any](st *state, table map[uuid.UUID]T) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(table))
	for _, id := range st.order {
		if _, ok := table[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func sortedUnique(values []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func latestWithPrefix(codes []string, prefix string) string {
	latest := ""
	for _, code := range codes {
		if strings.HasPrefix(code, prefix) && code > latest {
			latest = code
		}
	}
	return latest
}
