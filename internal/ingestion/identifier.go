package ingestion

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rpattn/staffing/internal/logging"
	"github.com/rpattn/staffing/internal/metrics"
	"github.com/rpattn/staffing/internal/repository"
	"github.com/sirupsen/logrus"
)

// identifierScheme describes one family of business identifiers.
type identifierScheme struct {
	prefix string
	// latest returns the greatest code already issued under scope.
	latest func(ctx context.Context, repos repository.Repositories, scope string) (string, error)
}

var (
	projectCodes = identifierScheme{
		prefix: "PR",
		latest: func(ctx context.Context, repos repository.Repositories, scope string) (string, error) {
			return repos.Projects.LatestCode(ctx, scope)
		},
	}
	assignmentCodes = identifierScheme{
		prefix: "ASG",
		latest: func(ctx context.Context, repos repository.Repositories, scope string) (string, error) {
			return repos.Assignments.LatestCode(ctx, scope)
		},
	}
)

// FormatIdentifier renders prefix, two digit year, four digit sequence and
// optional initials, e.g. PR240007AC.
func FormatIdentifier(prefix string, year, seq int, initials string) string {
	return fmt.Sprintf("%s%02d%04d%s", prefix, year%100, seq, initials)
}

// SequenceOf extracts the sequence number of a code issued under prefix.
func SequenceOf(code, prefix string) (int, bool) {
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `\d{2}(\d{4,})`)
	match := pattern.FindStringSubmatch(code)
	if match == nil {
		return 0, false
	}
	seq, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return seq, true
}

// CompanyInitials takes the first letter of the first two words, uppercased.
func CompanyInitials(company string) string {
	var b strings.Builder
	for i, word := range strings.Fields(company) {
		if i == 2 {
			break
		}
		first := []rune(word)[0]
		b.WriteRune(unicode.ToUpper(first))
	}
	return b.String()
}

// IdentifierGenerator hands out business identifiers inside the batch
// transaction. Each attempt draws a fresh number from the scope counter and
// runs the insert in a savepoint, so a unique violation on the code only
// discards that attempt.
type IdentifierGenerator struct {
	now         func() time.Time
	maxAttempts int
}

// NewIdentifierGenerator creates a generator. maxAttempts below one is treated as one.
func NewIdentifierGenerator(now func() time.Time, maxAttempts int) *IdentifierGenerator {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &IdentifierGenerator{now: now, maxAttempts: maxAttempts}
}

// Scope is the counter key of scheme for the current year, e.g. PR24.
func (g *IdentifierGenerator) scope(scheme identifierScheme, year int) string {
	return fmt.Sprintf("%s%02d", scheme.prefix, year%100)
}

// Insert generates a code and calls insert with it until the insert succeeds,
// fails with something other than a duplicate identifier, or attempts run out.
func (g *IdentifierGenerator) Insert(
	ctx context.Context,
	tx repository.Tx,
	scheme identifierScheme,
	initials string,
	insert func(repos repository.Repositories, code string) error,
) (string, error) {
	year := g.now().Year()
	scope := g.scope(scheme, year)
	seed := func(ctx context.Context) (int, error) {
		latest, err := scheme.latest(ctx, tx.Repositories(), scope)
		if err != nil {
			return 0, err
		}
		seq, _ := SequenceOf(latest, scheme.prefix)
		return seq, nil
	}

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		seq, err := tx.Repositories().Sequences.Next(ctx, scope, seed)
		if err != nil {
			return "", fmt.Errorf("failed to advance %s sequence: %w", scope, err)
		}
		code := FormatIdentifier(scheme.prefix, year, seq, initials)

		err = tx.Savepoint(ctx, func(sp repository.Tx) error {
			return insert(sp.Repositories(), code)
		})
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, repository.ErrDuplicateIdentifier) {
			return "", err
		}

		metrics.RecordIdentifierCollision(scheme.prefix)
		logging.FromContext(ctx).WithFields(logrus.Fields{
			"code":    code,
			"attempt": attempt,
		}).Warn("generated identifier already taken, retrying")
	}
	return "", fmt.Errorf("%w: scope %s after %d attempts", ErrIdentifierCollision, scope, g.maxAttempts)
}
