// Package audit appends activity log entries.
package audit

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/rpattn/staffing/internal/domain"
	"github.com/rpattn/staffing/internal/logging"
	"github.com/rpattn/staffing/internal/metrics"
	"github.com/rpattn/staffing/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/wI2L/jsondiff"
)

// ChangesKey holds the JSON Patch from the previous to the new values of an update.
const ChangesKey = "changes"

// Recorder writes audit entries. Failures are logged and counted, the caller
// decides whether they matter.
type Recorder struct {
	repo repository.AuditRepository
	now  func() time.Time
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// NewRecorder creates a recorder over repo.
func NewRecorder(repo repository.AuditRepository, opts ...Option) *Recorder {
	r := &Recorder{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends one entry.
func (r *Recorder) Record(ctx context.Context, entity domain.EntityType, action domain.ActionType, userID string, payload map[string]any) error {
	entry := domain.AuditEntry{
		ID:         uuid.New(),
		EntityType: entity,
		Action:     action,
		UserID:     userID,
		Payload:    payload,
		CreatedAt:  r.now().UTC(),
	}
	if err := r.repo.Append(ctx, entry); err != nil {
		metrics.RecordAuditFailure(string(entity))
		logging.FromContext(ctx).WithFields(logrus.Fields{
			"entity": entity,
			"action": action,
			"user":   userID,
		}).WithError(err).Error("failed to append audit entry")
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// RecordChange appends an entry whose payload is after. When before is not
// nil the payload also carries the patch that turns before into after.
func (r *Recorder) RecordChange(ctx context.Context, entity domain.EntityType, action domain.ActionType, userID string, before, after map[string]any) error {
	payload := maps.Clone(after)
	if payload == nil {
		payload = map[string]any{}
	}
	if before != nil {
		patch, err := jsondiff.Compare(before, after)
		if err != nil {
			logging.FromContext(ctx).WithError(err).Warn("failed to diff audit payload")
		} else if len(patch) > 0 {
			payload[ChangesKey] = patch
		}
	}
	return r.Record(ctx, entity, action, userID, payload)
}
