package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpattn/staffing/internal/domain"
	"github.com/rpattn/staffing/internal/repository"
	"github.com/stretchr/testify/require"
	"github.com/wI2L/jsondiff"
)

type stubAuditRepo struct {
	entries []domain.AuditEntry
	err     error
}

var _ repository.AuditRepository = (*stubAuditRepo)(nil)

func (s *stubAuditRepo) Append(ctx context.Context, entry domain.AuditEntry) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func fixedClock() time.Time {
	return time.Date(2024, 7, 21, 9, 30, 0, 0, time.UTC)
}

func TestRecordStampsEntry(t *testing.T) {
	repo := &stubAuditRepo{}
	recorder := NewRecorder(repo, WithClock(fixedClock))

	err := recorder.Record(context.Background(), domain.EntityClient, domain.ActionImport, "user-1", map[string]any{"email": "jane@x.com"})
	require.NoError(t, err)
	require.Len(t, repo.entries, 1)

	entry := repo.entries[0]
	require.Equal(t, domain.EntityClient, entry.EntityType)
	require.Equal(t, domain.ActionImport, entry.Action)
	require.Equal(t, "user-1", entry.UserID)
	require.Equal(t, fixedClock(), entry.CreatedAt)
	require.Equal(t, "jane@x.com", entry.Payload["email"])
}

func TestRecordChangeAddsPatch(t *testing.T) {
	repo := &stubAuditRepo{}
	recorder := NewRecorder(repo, WithClock(fixedClock))

	before := map[string]any{"name": "Jane", "email": "jane@x.com"}
	after := map[string]any{"name": "Jane D.", "email": "jane@x.com"}
	require.NoError(t, recorder.RecordChange(context.Background(), domain.EntityClient, domain.ActionImport, "user-1", before, after))

	payload := repo.entries[0].Payload
	patch, ok := payload[ChangesKey].(jsondiff.Patch)
	require.True(t, ok, "expected a JSON patch in the payload, got %T", payload[ChangesKey])
	require.Len(t, patch, 1)
	require.Equal(t, "/name", patch[0].Path)
	require.Equal(t, "Jane D.", payload["name"])
	_, mutated := after[ChangesKey]
	require.False(t, mutated, "after must not be modified")
}

func TestRecordChangeWithoutBeforeHasNoPatch(t *testing.T) {
	repo := &stubAuditRepo{}
	recorder := NewRecorder(repo)

	require.NoError(t, recorder.RecordChange(context.Background(), domain.EntityEmployee, domain.ActionImport, "u", nil, map[string]any{"name": "Ana"}))
	_, ok := repo.entries[0].Payload[ChangesKey]
	require.False(t, ok)
}

func TestRecordReturnsRepositoryFailure(t *testing.T) {
	boom := errors.New("audit table locked")
	recorder := NewRecorder(&stubAuditRepo{err: boom})

	err := recorder.Record(context.Background(), domain.EntityProject, domain.ActionImport, "u", nil)
	require.ErrorIs(t, err, boom)
}
