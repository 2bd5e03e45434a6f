// Package memory pages over a slice held in memory.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"pagekit/tabling"
)

// ErrUnknownSort is returned when a sort field has no registered comparator.
var ErrUnknownSort = errors.New("unknown sort field")

// Source serves pages from a snapshot of items.
// It is safe for concurrent use; the items are copied on construction.
type Source[T any] struct {
	items []T
	sorts map[string]func(a, b T) int
}

// Option configures a Source.
type Option[T any] func(*Source[T])

// WithSortKey registers a comparator usable as sort field name.
func WithSortKey[T any](name string, cmp func(a, b T) int) Option[T] {
	return func(s *Source[T]) {
		s.sorts[name] = cmp
	}
}

// New returns a source over a copy of items, in their given order.
func New[T any](items []T, opts ...Option[T]) *Source[T] {

	s := &Source[T]{
		items: slices.Clone(items),
		sorts: make(map[string]func(a, b T) int),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s

}

// Count returns the number of items.
func (s *Source[T]) Count(ctx context.Context) (int, error) {

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	return len(s.items), nil

}

// Slice returns the window described by t.
// Sorting is stable, so equal elements keep their insertion order.
func (s *Source[T]) Slice(ctx context.Context, t *tabling.Tabling) ([]T, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := s.items

	if t.HasSorting() {
		cmp, ok := s.sorts[t.Sorting.Field]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSort, t.Sorting.Field)
		}

		items = slices.Clone(items)
		if t.Sorting.Descending {
			slices.SortStableFunc(items, func(a, b T) int { return cmp(b, a) })
		} else {
			slices.SortStableFunc(items, cmp)
		}
	}

	if t.Paging == nil {
		return slices.Clone(items), nil
	}

	start := max(t.Paging.Offset, 0)
	if start >= len(items) || t.Paging.Limit <= 0 {
		return []T{}, nil
	}

	end := min(start+t.Paging.Limit, len(items))

	return slices.Clone(items[start:end]), nil

}
