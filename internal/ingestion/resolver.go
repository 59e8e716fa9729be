package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rpattn/staffing/internal/entityloader"
)

// referenceResolver turns a name typed in a spreadsheet cell into the record it
// refers to. Lookups are exact, batched and cached for the lifetime of one import.
type referenceResolver[T any] struct {
	field  string
	loader *entityloader.NameLoader[T]
	names  func(ctx context.Context) ([]string, error)

	known  []string
	loaded bool
}

func newReferenceResolver[T any](
	field string,
	list entityloader.ListByNames[T],
	nameOf func(T) string,
	names func(ctx context.Context) ([]string, error),
) *referenceResolver[T] {
	return &referenceResolver[T]{
		field:  field,
		loader: entityloader.NewNameLoader(list, nameOf),
		names:  names,
	}
}

// prime fetches every distinct name in one query.
func (r *referenceResolver[T]) prime(ctx context.Context, names []string) error {
	unique := make([]string, 0, len(names))
	seen := map[string]bool{}
	for _, name := range names {
		if name != "" && !seen[name] {
			seen[name] = true
			unique = append(unique, name)
		}
	}
	if err := r.loader.Prime(ctx, unique); err != nil {
		return fmt.Errorf("failed to look up %s: %w", strings.ToLower(r.field), err)
	}
	return nil
}

// resolve returns the record named name. A miss yields *ReferenceNotFoundError,
// any other error is a storage failure.
func (r *referenceResolver[T]) resolve(ctx context.Context, name string) (T, error) {
	record, found, err := r.loader.Load(ctx, name)
	if err != nil {
		return record, fmt.Errorf("failed to look up %s: %w", strings.ToLower(r.field), err)
	}
	if found {
		return record, nil
	}
	suggestion, err := r.suggest(ctx, name)
	if err != nil {
		return record, err
	}
	return record, &ReferenceNotFoundError{Field: r.field, Value: name, Suggestion: suggestion}
}

func (r *referenceResolver[T]) suggest(ctx context.Context, name string) (string, error) {
	if !r.loaded {
		known, err := r.names(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list %s names: %w", strings.ToLower(r.field), err)
		}
		r.known = known
		r.loaded = true
	}
	return closestName(name, r.known), nil
}

// closestName prefers a fuzzy subsequence match and otherwise the nearest name
// by edit distance, as long as the distance is small compared to the input.
func closestName(name string, known []string) string {
	if name == "" || len(known) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindNormalizedFold(name, known)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDistance := "", -1
	lowered := strings.ToLower(name)
	for _, candidate := range known {
		distance := fuzzy.LevenshteinDistance(lowered, strings.ToLower(candidate))
		if bestDistance < 0 || distance < bestDistance {
			best, bestDistance = candidate, distance
		}
	}
	if bestDistance > maxSuggestionDistance(len([]rune(name))) {
		return ""
	}
	return best
}

func maxSuggestionDistance(length int) int {
	if length/3 > 2 {
		return length / 3
	}
	return 2
}

func isReferenceNotFound(err error) bool {
	return errors.Is(err, ErrReferenceNotFound)
}
