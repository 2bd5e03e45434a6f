package pagekit

import (
	"math"
	"testing"

	"pagekit/tabling"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	t.Parallel()

	r := NewRequest()
	assert.Equal(t, 1, r.PageNumber)
	assert.Equal(t, 10, r.PageSize())
	assert.Equal(t, 100, r.MaxPageSize())
	assert.Equal(t, "", r.SortBy)
	assert.False(t, r.SortDescending)
	assert.NoError(t, r.Validate())
}

func TestSetPageSize(t *testing.T) {
	t.Parallel()

	var testCases = []struct {
		name string
		max  int
		in   int
		want int
	}{
		{name: "Above the cap", max: 100, in: 500, want: 100},
		{name: "At the cap", max: 100, in: 100, want: 100},
		{name: "Below the cap", max: 100, in: 25, want: 25},
		{name: "Custom cap", max: 50, in: 75, want: 50},
		{name: "Zero kept", max: 100, in: 0, want: 0},
		{name: "Negative kept", max: 100, in: -3, want: -3},
		{name: "Non-positive cap falls back", max: 0, in: 500, want: 100},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := NewRequestWithMax(tc.max).SetPageSize(tc.in)
			assert.Equal(t, tc.want, r.PageSize())
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	var testCases = []struct {
		name  string
		setup func(r *Request)
		field string
	}{
		{name: "Zero page size", setup: func(r *Request) { r.SetPageSize(0) }, field: "page_size"},
		{name: "Negative page size", setup: func(r *Request) { r.SetPageSize(-1) }, field: "page_size"},
		{name: "Zero page number", setup: func(r *Request) { r.PageNumber = 0 }, field: "page_number"},
		{name: "Injected sort field", setup: func(r *Request) { r.SortBy = "id; DROP TABLE users" }, field: "sort_by"},
		{name: "Three part sort field", setup: func(r *Request) { r.SortBy = "a.b.c" }, field: "sort_by"},
		{name: "Offset overflows", setup: func(r *Request) { r.SetPageSize(4).PageNumber = math.MaxInt/4 + 2 }, field: "page_number"},
		{name: "Largest page number", setup: func(r *Request) { r.SetPageSize(1).PageNumber = math.MaxInt }, field: ""},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := NewRequest()
			tc.setup(r)

			err := r.Validate()
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidArgument)

			var iae *InvalidArgumentError
			require.ErrorAs(t, err, &iae)
			assert.Equal(t, tc.field, iae.Field)
		})
	}

	t.Run("Qualified sort field", func(t *testing.T) {
		t.Parallel()

		r := NewRequest()
		r.SortBy = "u.created_at"
		assert.NoError(t, r.Validate())
	})
}

func TestOffsetAndTabling(t *testing.T) {
	t.Parallel()

	r := NewRequest().SetPageSize(10)
	r.PageNumber = 3
	assert.Equal(t, 20, r.Offset())
	assert.Equal(t, tabling.New(20, 10, nil), r.Tabling())

	r.SetSort("-score")
	assert.Equal(t, "score", r.SortBy)
	assert.True(t, r.SortDescending)
	assert.Equal(t, "-score", r.Sort())
	assert.Equal(t, &tabling.Sorting{Field: "score", Descending: true}, r.Tabling().Sorting)

	r.SetSort("")
	assert.Equal(t, "", r.Sort())
	assert.Nil(t, r.Tabling().Sorting)

	r.SortDescending = true
	assert.Equal(t, "", r.Sort())
	assert.Equal(t, &tabling.Sorting{Descending: true}, r.Tabling().Sorting)
	assert.False(t, r.Tabling().HasSorting())
}

func TestRequestFromParams(t *testing.T) {
	t.Parallel()

	t.Run("From map with strings", func(t *testing.T) {
		t.Parallel()

		r, err := RequestFromParams(map[string]interface{}{
			"page_number":     "4",
			"page_size":       "500",
			"sort_by":         "name",
			"sort_descending": "1",
		})
		require.NoError(t, err)
		assert.Equal(t, 4, r.PageNumber)
		assert.Equal(t, 100, r.PageSize())
		assert.Equal(t, "-name", r.Sort())
	})

	t.Run("From struct keeps defaults", func(t *testing.T) {
		t.Parallel()

		type query struct {
			SortBy string `paging:"sort_by"`
		}

		r, err := RequestFromParams(&query{SortBy: "id"})
		require.NoError(t, err)
		assert.Equal(t, 1, r.PageNumber)
		assert.Equal(t, 10, r.PageSize())
		assert.Equal(t, "id", r.SortBy)
	})

	t.Run("Missing sort keys keep the current sort", func(t *testing.T) {
		t.Parallel()

		r, err := requestFromParams(map[string]interface{}{"page_number": 2}, NewRequest().SetSort("-id"))
		require.NoError(t, err)
		assert.Equal(t, 2, r.PageNumber)
		assert.Equal(t, "-id", r.Sort())

		r, err = requestFromParams(map[string]interface{}{"sort_descending": false}, r)
		require.NoError(t, err)
		assert.Equal(t, "id", r.Sort())
	})

	t.Run("Malformed number", func(t *testing.T) {
		t.Parallel()

		_, err := RequestFromParams(map[string]interface{}{"page_number": "two"})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("Unsupported params", func(t *testing.T) {
		t.Parallel()

		_, err := RequestFromParams("page=1")
		assert.Error(t, err)

		_, err = RequestFromParams(nil)
		assert.Error(t, err)
	})
}
