package ingestion

import (
	"context"
	"errors"
	"testing"
)

func TestClosestName(t *testing.T) {
	known := []string{"Acme Corporation", "Beta Works", "Budi Santoso"}

	cases := map[string]string{
		"Acme":             "Acme Corporation",
		"acme corporatoin": "Acme Corporation",
		"Budi Santos":      "Budi Santoso",
		"Zeta Industries":  "",
		"":                 "",
	}
	for name, want := range cases {
		if got := closestName(name, known); got != want {
			t.Fatalf("closestName(%q) = %q, want %q", name, got, want)
		}
	}
	if got := closestName("Acme", nil); got != "" {
		t.Fatalf("expected no suggestion without candidates, got %q", got)
	}
}

type named struct{ Name string }

func TestReferenceResolverLoadsNamesOnlyOnMiss(t *testing.T) {
	listed := 0
	resolver := newReferenceResolver[named](
		"Employee",
		func(ctx context.Context, names []string) ([]named, error) {
			var out []named
			for _, n := range names {
				if n == "Ana" {
					out = append(out, named{Name: n})
				}
			}
			return out, nil
		},
		func(n named) string { return n.Name },
		func(ctx context.Context) ([]string, error) {
			listed++
			return []string{"Ana"}, nil
		},
	)
	ctx := context.Background()
	if err := resolver.prime(ctx, []string{"Ana", "Anna", "", "Ana"}); err != nil {
		t.Fatalf("prime: %v", err)
	}

	if _, err := resolver.resolve(ctx, "Ana"); err != nil {
		t.Fatalf("expected Ana to resolve, got %v", err)
	}
	if listed != 0 {
		t.Fatalf("names must not be listed for hits")
	}

	_, err := resolver.resolve(ctx, "Anna")
	var notFound *ReferenceNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ReferenceNotFoundError, got %v", err)
	}
	if notFound.Suggestion != "Ana" || notFound.Field != "Employee" {
		t.Fatalf("unexpected error %+v", notFound)
	}
	_, _ = resolver.resolve(ctx, "Anna")
	if listed != 1 {
		t.Fatalf("expected names to be listed once, got %d", listed)
	}
}
