package pagekit

import (
	"context"

	"pagekit/tabling"
)

// Source is the countable, sliceable provider a page is built from.
//
//go:generate mockgen --source=source.go --destination=source_mock.go --package=pagekit
type Source[T any] interface {

	// Count returns the number of elements matching the source's own filter.
	Count(ctx context.Context) (int, error)

	// Slice returns up to t.Paging.Limit elements starting at t.Paging.Offset,
	// in a stable order, sorted by t.Sorting when it is set.
	Slice(ctx context.Context, t *tabling.Tabling) ([]T, error)
}
