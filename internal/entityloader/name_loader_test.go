package entityloader

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type person struct {
	ID   int
	Name string
}

type countingList struct {
	mu     sync.Mutex
	calls  int
	people []person
	err    error
}

func (c *countingList) list(ctx context.Context, names []string) ([]person, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	var out []person
	for _, p := range c.people {
		for _, n := range names {
			if p.Name == n {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func TestNameLoaderPrimeBatchesAndCaches(t *testing.T) {
	source := &countingList{people: []person{{1, "Ana"}, {2, "Budi"}, {3, "Ana"}}}
	loader := NewNameLoader[person](source.list, func(p person) string { return p.Name })
	ctx := context.Background()

	if err := loader.Prime(ctx, []string{"Ana", "Budi", "Citra"}); err != nil {
		t.Fatalf("prime failed: %v", err)
	}

	ana, found, err := loader.Load(ctx, "Ana")
	if err != nil || !found {
		t.Fatalf("expected Ana, got found=%v err=%v", found, err)
	}
	if ana.ID != 1 {
		t.Fatalf("expected the first Ana to win, got %+v", ana)
	}

	if _, found, err := loader.Load(ctx, "Citra"); err != nil || found {
		t.Fatalf("expected Citra to be missing, got found=%v err=%v", found, err)
	}

	if _, _, err := loader.Load(ctx, "Budi"); err != nil {
		t.Fatalf("load Budi: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected a single batched query, got %d", source.calls)
	}
}

func TestNameLoaderPropagatesListErrors(t *testing.T) {
	boom := errors.New("db down")
	source := &countingList{err: boom}
	loader := NewNameLoader[person](source.list, func(p person) string { return p.Name })

	if err := loader.Prime(context.Background(), []string{"Ana"}); !errors.Is(err, boom) {
		t.Fatalf("expected prime to surface list error, got %v", err)
	}
	if _, _, err := loader.Load(context.Background(), "Ana"); !errors.Is(err, boom) {
		t.Fatalf("expected load to surface list error, got %v", err)
	}
}
