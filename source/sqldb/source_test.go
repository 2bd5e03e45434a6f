package sqldb

import (
	"context"
	"fmt"
	"testing"

	"pagekit/tabling"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID    int    `db:"id"`
	Title string `db:"title"`
	Score int    `db:"score"`
}

// openTestDB returns an in-memory database with 25 items; item i has score i%5.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(DriverSQLite, ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(context.Background()) })

	_, err = db.Conn().Exec(`create table items (id integer primary key, title text not null, score integer not null)`)
	require.NoError(t, err)

	for i := 1; i <= 25; i++ {
		_, err = db.Conn().Exec(`insert into items (id, title, score) values (?, ?, ?)`, i, fmt.Sprintf("item-%02d", i), i%5)
		require.NoError(t, err)
	}

	return db
}

func ids(items []item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestSourceCount(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	t.Run("Whole table", func(t *testing.T) {
		src, err := NewSource[item](db, "select id, title, score from items order by id")
		require.NoError(t, err)

		count, err := src.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 25, count)
	})

	t.Run("Filtered with args", func(t *testing.T) {
		src, err := NewSource[item](db, "select id, title, score from items where score = ?", WithArgs(0))
		require.NoError(t, err)

		count, err := src.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, count)
	})
}

func TestSourceSlice(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	t.Run("Window over the query order", func(t *testing.T) {
		src, err := NewSource[item](db, "select id, title, score from items order by id")
		require.NoError(t, err)

		items, err := src.Slice(ctx, tabling.New(20, 10, nil))
		require.NoError(t, err)
		assert.Equal(t, []int{21, 22, 23, 24, 25}, ids(items))
		assert.Equal(t, "item-21", items[0].Title)
	})

	t.Run("Past the end", func(t *testing.T) {
		src, err := NewSource[item](db, "select id, title, score from items order by id")
		require.NoError(t, err)

		items, err := src.Slice(ctx, tabling.New(100, 10, nil))
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("Requested sort before the query order", func(t *testing.T) {
		src, err := NewSource[item](db, "select id, title, score from items order by id", WithSortable("score", "title"))
		require.NoError(t, err)

		items, err := src.Slice(ctx, tabling.New(0, 6, tabling.ParseSort("-score")))
		require.NoError(t, err)
		assert.Equal(t, []int{4, 9, 14, 19, 24, 3}, ids(items))
	})

	t.Run("Tie breaker keeps pages stable", func(t *testing.T) {
		src, err := NewSource[item](db, "select id, title, score from items", WithTieBreaker("id"))
		require.NoError(t, err)

		first, err := src.Slice(ctx, tabling.New(0, 3, tabling.ParseSort("score")))
		require.NoError(t, err)
		second, err := src.Slice(ctx, tabling.New(3, 3, tabling.ParseSort("score")))
		require.NoError(t, err)

		assert.Equal(t, []int{5, 10, 15}, ids(first))
		assert.Equal(t, []int{20, 25, 1}, ids(second))
	})

	t.Run("Sort outside the allow-list", func(t *testing.T) {
		src, err := NewSource[item](db, "select id, title, score from items", WithSortable("score"))
		require.NoError(t, err)

		_, err = src.Slice(ctx, tabling.New(0, 10, tabling.ParseSort("title")))
		assert.ErrorIs(t, err, ErrInvalidSort)
	})

	t.Run("Malformed sort", func(t *testing.T) {
		src, err := NewSource[item](db, "select id, title, score from items")
		require.NoError(t, err)

		_, err = src.Slice(ctx, tabling.New(0, 10, tabling.ParseSort("score; drop table items")))
		assert.ErrorIs(t, err, ErrInvalidSort)
	})
}

func TestNewSourceRejects(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)

	var testCases = []struct {
		name  string
		query string
		opts  []SourceOption
		want  error
	}{
		{name: "Update statement", query: "update items set score = 1", want: ErrUnsupportedQuery},
		{name: "Own limit", query: "select id from items limit 5", want: ErrUnsupportedQuery},
		{name: "Bad sortable column", query: "select id from items", opts: []SourceOption{WithSortable("id desc")}, want: ErrInvalidSort},
		{name: "Bad tie breaker", query: "select id from items", opts: []SourceOption{WithTieBreaker("1=1")}, want: ErrInvalidSort},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewSource[item](db, tc.query, tc.opts...)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := NewSource[item](nil, "select id from items")
	assert.Error(t, err)
}

func TestSourceInTransaction(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)

	ctx, err := db.Begin(context.Background())
	require.NoError(t, err)
	assert.True(t, InTransaction(ctx))

	_, err = db.Begin(ctx)
	assert.Error(t, err)

	src, err := NewSource[item](db, "select id, title, score from items order by id")
	require.NoError(t, err)

	count, err := src.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, count)

	require.NoError(t, db.Rollback(ctx))
	assert.Error(t, db.Commit(context.Background()))
}

func TestQueryRewrite(t *testing.T) {
	t.Parallel()

	count, err := countQuery("select id from items where score = ? order by id")
	require.NoError(t, err)
	assert.Contains(t, count, "select count(*) from (select id from items where score = ?")
	assert.NotContains(t, count, "order by")

	slice, err := sliceQuery("select id from items order by id", tabling.New(10, 5, tabling.ParseSort("-items.score")), nil, "")
	require.NoError(t, err)
	assert.Contains(t, slice, "order by items.score desc, id asc limit 10, 5")
}
