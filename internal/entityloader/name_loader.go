package entityloader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/graph-gophers/dataloader"
)

// ListByNames fetches every record whose name is in names.
type ListByNames[T any] func(ctx context.Context, names []string) ([]T, error)

// NameLoader batches and caches lookups of records by exact name. When
// several records share a name the first one returned by the list function wins.
type NameLoader[T any] struct {
	Loader *dataloader.Loader
}

// NewNameLoader builds a loader over list. nameOf extracts the lookup key of a record.
func NewNameLoader[T any](list ListByNames[T], nameOf func(T) string) *NameLoader[T] {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}

		records, err := list(ctx, names)
		if err != nil {
			results := make([]*dataloader.Result, len(keys))
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		byName := make(map[string]T, len(records))
		for _, record := range records {
			name := nameOf(record)
			if _, seen := byName[name]; !seen {
				byName[name] = record
			}
		}

		results := make([]*dataloader.Result, len(keys))
		for i, name := range names {
			if record, ok := byName[name]; ok {
				results[i] = &dataloader.Result{Data: record}
			} else {
				results[i] = &dataloader.Result{Data: nil}
			}
		}
		return results
	}

	loader := dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(5*time.Millisecond))
	return &NameLoader[T]{Loader: loader}
}

// Prime loads all names in a single batch so later Load calls hit the cache.
func (l *NameLoader[T]) Prime(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	_, errs := l.Loader.LoadMany(ctx, dataloader.NewKeysFromStrings(names))()
	return errors.Join(errs...)
}

// Load returns the record named name. found is false when nothing matched.
func (l *NameLoader[T]) Load(ctx context.Context, name string) (record T, found bool, err error) {
	data, err := l.Loader.Load(ctx, dataloader.StringKey(name))()
	if err != nil {
		return record, false, err
	}
	if data == nil {
		return record, false, nil
	}
	typed, ok := data.(T)
	if !ok {
		return record, false, fmt.Errorf("unexpected %T in name loader", data)
	}
	return typed, true, nil
}
