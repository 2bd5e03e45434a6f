package tabling

import "strings"

// Tabling describes the window of rows a source must return.
type Tabling struct {
	Paging  *Paging
	Sorting *Sorting
}

// Paging is a zero-based offset/limit window.
type Paging struct {
	Offset int
	Limit  int
}

// Sorting is a single sort column and its direction.
type Sorting struct {
	Field      string
	Descending bool
}

// New returns a tabling for the given window, sorting is optional.
func New(offset, limit int, sorting *Sorting) *Tabling {

	return &Tabling{
		Paging: &Paging{
			Offset: offset,
			Limit:  limit,
		},
		Sorting: sorting,
	}

}

// ParseSort parses the `-column` / `+column` / `column` convention.
// It returns nil for an empty string.
func ParseSort(sort string) *Sorting {

	sort = strings.TrimSpace(sort)
	if sort == "" || sort == "-" || sort == "+" {
		return nil
	}

	if strings.HasPrefix(sort, "-") {
		return &Sorting{Field: strings.TrimPrefix(sort, "-"), Descending: true}
	}

	return &Sorting{Field: strings.TrimPrefix(sort, "+")}

}

// String renders the sorting back to its `-column` form.
func (s *Sorting) String() string {

	if s == nil || s.Field == "" {
		return ""
	}

	if s.Descending {
		return "-" + s.Field
	}

	return s.Field

}

// HasSorting reports whether a sort field is set.
func (t *Tabling) HasSorting() bool {
	return t != nil && t.Sorting != nil && t.Sorting.Field != ""
}
