package pagekit

import (
	"encoding/json"
	"iter"
	"math"

	"pagekit/result"
)

// Page is one materialized page of a larger result set.
// The items are owned by the page and only exposed read-only.
type Page[T any] struct {
	items []T
	meta  result.Metadata
}

// NewPage bundles items with the metadata derived from totalCount, pageNumber and pageSize.
// It rejects a non-positive page number or page size and a negative total count.
func NewPage[T any](items []T, totalCount, pageNumber, pageSize int) (*Page[T], error) {

	if err := checkWindow(pageNumber, pageSize); err != nil {
		return nil, err
	}

	if totalCount < 0 {
		return nil, invalidArgument("total_count", "must not be negative")
	}

	owned := make([]T, len(items))
	copy(owned, items)

	return &Page[T]{
		items: owned,
		meta:  result.NewMetadata(totalCount, pageNumber, pageSize),
	}, nil

}

// Items returns a copy of the page contents.
func (p *Page[T]) Items() []T {

	out := make([]T, len(p.items))
	copy(out, p.items)
	return out

}

// Len returns the number of items on this page.
func (p *Page[T]) Len() int { return len(p.items) }

// At returns the i-th item of the page.
func (p *Page[T]) At(i int) T { return p.items[i] }

// All iterates over the page items with their index.
func (p *Page[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, item := range p.items {
			if !yield(i, item) {
				return
			}
		}
	}
}

// CurrentPage returns the 1-based number of this page.
func (p *Page[T]) CurrentPage() int { return p.meta.CurrentPage }

func (p *Page[T]) PageSize() int { return p.meta.PageSize }

// TotalCount returns the number of elements in the whole source, not just this page.
func (p *Page[T]) TotalCount() int { return p.meta.TotalCount }

func (p *Page[T]) TotalPages() int { return p.meta.TotalPages }

func (p *Page[T]) HasNext() bool { return p.meta.HasNext() }

func (p *Page[T]) HasPrevious() bool { return p.meta.HasPrevious() }

// Metadata returns the paging numbers of this page.
func (p *Page[T]) Metadata() result.Metadata { return p.meta }

type pageJSON[T any] struct {
	Items []T `json:"items"`
	result.Metadata
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// MarshalJSON renders the items next to the paging numbers.
func (p *Page[T]) MarshalJSON() ([]byte, error) {

	items := p.items
	if items == nil {
		items = []T{}
	}

	return json.Marshal(pageJSON[T]{
		Items:       items,
		Metadata:    p.meta,
		HasNext:     p.meta.HasNext(),
		HasPrevious: p.meta.HasPrevious(),
	})

}

// checkWindow validates raw page arguments.
func checkWindow(pageNumber, pageSize int) error {

	if pageSize < 1 {
		return invalidArgument("page_size", "must be at least 1")
	}

	if pageNumber < 1 {
		return invalidArgument("page_number", "must be at least 1")
	}

	return checkOffset(pageNumber, pageSize)

}

// checkOffset rejects a page whose offset (pageNumber-1)*pageSize does not fit in an int.
// Both arguments must already be at least 1.
func checkOffset(pageNumber, pageSize int) error {

	if pageNumber-1 > math.MaxInt/pageSize {
		return invalidArgument("page_number", "is too large for the page size")
	}

	return nil

}
