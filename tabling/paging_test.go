package tabling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSort(t *testing.T) {
	t.Parallel()

	var testCases = []struct {
		in   string
		want *Sorting
	}{
		{in: "", want: nil},
		{in: "-", want: nil},
		{in: "name", want: &Sorting{Field: "name"}},
		{in: "+name", want: &Sorting{Field: "name"}},
		{in: "-created_at", want: &Sorting{Field: "created_at", Descending: true}},
		{in: "-u.id", want: &Sorting{Field: "u.id", Descending: true}},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, ParseSort(tc.in), tc.in)
	}
}

func TestSortingString(t *testing.T) {
	t.Parallel()

	t.Run("Round trip", func(t *testing.T) {
		t.Parallel()

		for _, s := range []string{"name", "-created_at", "-u.id"} {
			assert.Equal(t, s, ParseSort(s).String())
		}
	})

	t.Run("Nil sorting", func(t *testing.T) {
		t.Parallel()

		var s *Sorting
		assert.Equal(t, "", s.String())
	})
}

func TestHasSorting(t *testing.T) {
	t.Parallel()

	assert.False(t, (*Tabling)(nil).HasSorting())
	assert.False(t, New(0, 10, nil).HasSorting())
	assert.False(t, New(0, 10, &Sorting{}).HasSorting())
	assert.True(t, New(0, 10, &Sorting{Field: "id"}).HasSorting())
}
