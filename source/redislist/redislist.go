// Package redislist pages over a Redis list of JSON documents.
package redislist

import (
	"context"
	"encoding/json"
	"math"
	"slices"

	"pagekit/tabling"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ErrUnsupportedSort is returned when a page asks for a named sort field.
// A list only has its insertion order, readable forwards or backwards.
var ErrUnsupportedSort = errors.New("redis list can only be read in list order")

// Source reads pages from the list stored at key.
type Source[T any] struct {
	client redis.UniversalClient
	key    string
}

// New returns a source over the list stored at key.
func New[T any](client redis.UniversalClient, key string) *Source[T] {
	return &Source[T]{
		client: client,
		key:    key,
	}
}

// Key returns the list key.
func (s *Source[T]) Key() string { return s.key }

// Count returns the list length.
func (s *Source[T]) Count(ctx context.Context) (int, error) {

	n, err := s.client.LLen(ctx, s.key).Result()
	if err != nil {
		return 0, errors.Wrapf(err, "failed to get length of %s", s.key)
	}

	return int(n), nil

}

// Slice returns the elements inside the window of t.
// A descending page is read from the tail, so the last pushed element comes first.
func (s *Source[T]) Slice(ctx context.Context, t *tabling.Tabling) ([]T, error) {

	if t.HasSorting() {
		return nil, errors.Wrapf(ErrUnsupportedSort, "sort by %s", t.Sorting.Field)
	}

	descending := t != nil && t.Sorting != nil && t.Sorting.Descending

	start, stop, ok := listRange(t, descending)
	if !ok {
		return []T{}, nil
	}

	values, err := s.client.LRange(ctx, s.key, start, stop).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read range of %s", s.key)
	}

	items := make([]T, 0, len(values))
	for _, v := range values {
		var item T
		if err := json.Unmarshal([]byte(v), &item); err != nil {
			return nil, errors.Wrapf(err, "failed to decode element of %s", s.key)
		}
		items = append(items, item)
	}

	if descending {
		slices.Reverse(items)
	}

	return items, nil

}

// listRange converts the window of t into inclusive LRANGE indexes.
// A descending window is mirrored onto negative indexes, counted from the tail.
// It reports false when the window cannot hold any element.
func listRange(t *tabling.Tabling, descending bool) (start, stop int64, ok bool) {

	start, stop = 0, -1
	if t != nil && t.Paging != nil {
		if t.Paging.Limit <= 0 {
			return 0, 0, false
		}
		start = int64(max(t.Paging.Offset, 0))
		stop = math.MaxInt64
		if start <= math.MaxInt64-int64(t.Paging.Limit)+1 {
			stop = start + int64(t.Paging.Limit) - 1
		}
	}

	if descending {
		start, stop = -stop-1, -start-1
	}

	return start, stop, true

}

// Push appends items to the tail of the list.
func (s *Source[T]) Push(ctx context.Context, items ...T) error {

	if len(items) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(items))
	for _, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return errors.Wrap(err, "failed to encode element")
		}
		values = append(values, b)
	}

	if err := s.client.RPush(ctx, s.key, values...).Err(); err != nil {
		return errors.Wrapf(err, "failed to push to %s", s.key)
	}

	return nil

}
