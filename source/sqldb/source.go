package sqldb

import (
	"context"

	"pagekit/log"
	"pagekit/tabling"
	"pagekit/vars"

	"github.com/georgysavva/scany/v2/dbscan"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Source pages the rows of a single SELECT statement.
// Rows are scanned into T by column name using the "db" struct tag; T may also be map[string]any.
type Source[T any] struct {
	db         *DB
	query      string
	args       []any
	sortable   map[string]bool
	tieBreaker string
}

// SourceOption configures a Source.
type SourceOption func(*sourceOptions)

type sourceOptions struct {
	args       []any
	sortable   []string
	tieBreaker string
}

// WithArgs binds positional arguments to the "?" placeholders of the query.
func WithArgs(args ...any) SourceOption {
	return func(o *sourceOptions) {
		o.args = append(o.args, args...)
	}
}

// WithSortable restricts the columns a request may sort by.
func WithSortable(columns ...string) SourceOption {
	return func(o *sourceOptions) {
		o.sortable = append(o.sortable, columns...)
	}
}

// WithTieBreaker appends an ascending ORDER BY on column after every other term,
// so rows with equal sort keys keep a stable order across pages.
func WithTieBreaker(column string) SourceOption {
	return func(o *sourceOptions) {
		o.tieBreaker = column
	}
}

// NewSource returns a source paging query. The query is parsed up front
// so a statement that cannot be paged fails here rather than on first use.
func NewSource[T any](db *DB, query string, opts ...SourceOption) (*Source[T], error) {

	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	o := &sourceOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if _, err := parseSelect(query); err != nil {
		return nil, err
	}

	var sortable map[string]bool
	if len(o.sortable) > 0 {
		sortable = make(map[string]bool, len(o.sortable))
		for _, column := range o.sortable {
			if err := checkColumn(column, nil); err != nil {
				return nil, err
			}
			sortable[column] = true
		}
	}

	if o.tieBreaker != "" {
		if err := checkColumn(o.tieBreaker, nil); err != nil {
			return nil, err
		}
	}

	return &Source[T]{
		db:         db,
		query:      query,
		args:       o.args,
		sortable:   sortable,
		tieBreaker: o.tieBreaker,
	}, nil

}

// Count returns the number of rows the query yields.
func (s *Source[T]) Count(ctx context.Context) (int, error) {

	query, err := countQuery(s.query)
	if err != nil {
		return 0, err
	}

	rows, err := s.queryx(ctx, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	api, err := newScanAPI()
	if err != nil {
		return 0, err
	}

	var count int
	if err := api.ScanOne(&count, rows); err != nil {
		return 0, errors.Wrap(err, "failed to scan count")
	}

	return count, nil

}

// Slice returns the rows inside the window of t, sorted as t asks.
func (s *Source[T]) Slice(ctx context.Context, t *tabling.Tabling) ([]T, error) {

	if t == nil {
		t = &tabling.Tabling{}
	}

	query, err := sliceQuery(s.query, t, s.sortable, s.tieBreaker)
	if err != nil {
		return nil, err
	}

	rows, err := s.queryx(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	api, err := newScanAPI()
	if err != nil {
		return nil, err
	}

	items := make([]T, 0)
	if err := api.ScanAll(&items, rows); err != nil {
		return nil, errors.Wrap(err, "failed to scan rows")
	}

	return items, nil

}

func (s *Source[T]) queryx(ctx context.Context, query string) (*sqlx.Rows, error) {

	s.db.log.With(ctx).WithParams(log.Params{
		"query": query,
		"args":  s.args,
		"tx":    InTransaction(ctx),
	}).Debug("executing query")

	rows, err := s.db.dbi(ctx).QueryxContext(ctx, query, s.args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}

	return rows, nil

}

// newScanAPI initializes the dbscan API with the standard struct tag key and column separator.
func newScanAPI() (*dbscan.API, error) {

	api, err := dbscan.NewAPI(
		dbscan.WithStructTagKey(vars.TagKey),
		dbscan.WithColumnSeparator("__"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create new API")
	}

	return api, nil

}
