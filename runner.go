package pagekit

import (
	"context"

	"pagekit/log"
	"pagekit/source/sqldb"
	"pagekit/trace"

	"github.com/pkg/errors"
)

// Runner is a struct that contains runner configs to be executed.
// It is built fluently and executed once with Execute.
type Runner struct {
	runnerCode    string
	client        *Client
	log           log.Logger
	inTransaction bool
	args          []any
	sortable      []string
	request       *Request
	err           error
}

type runnerParams struct {
	runnerCode    string
	client        *Client
	log           log.Logger
	inTransaction bool
}

// newRunner returns a new Runner asking for the first page with the client defaults.
func newRunner(runnerParams runnerParams) *Runner {

	return &Runner{
		runnerCode:    runnerParams.runnerCode,
		client:        runnerParams.client,
		log:           runnerParams.log,
		inTransaction: runnerParams.inTransaction,
		request:       runnerParams.client.NewRequest(),
	}

}

// WithArgs binds positional arguments to the "?" placeholders of the runner query.
func (r *Runner) WithArgs(args ...any) *Runner {

	r.args = append(r.args, args...)
	return r

}

// WithRequest replaces the page request of the runner.
func (r *Runner) WithRequest(req *Request) *Runner {

	if req == nil {
		r.err = invalidArgument("request", "must not be nil")
		return r
	}

	r.request = req
	return r

}

// WithPaging sets the 1-based page number and the page size.
// The page size is capped at the configured maximum.
func (r *Runner) WithPaging(pageNumber, pageSize int) *Runner {

	r.request.PageNumber = pageNumber
	r.request.SetPageSize(pageSize)
	return r

}

// WithSorting sets the sort column, "-column" sorts descending.
func (r *Runner) WithSorting(sort string) *Runner {

	r.request.SetSort(sort)
	return r

}

// WithParams reads page_number, page_size, sort_by and sort_descending from params.
// Params can be a map or a struct, doesn't matter if you pass its pointer or its value.
func (r *Runner) WithParams(params interface{}) *Runner {

	// check if params is a pointer to a map
	if p, ok := params.(*map[string]interface{}); ok && p != nil {
		params = *p
	}

	if _, err := requestFromParams(params, r.request); err != nil {
		r.err = errors.Wrap(err, "failed to decode params")
	}

	return r

}

// WithSortable restricts the columns the request may sort by.
func (r *Runner) WithSortable(columns ...string) *Runner {

	r.sortable = append(r.sortable, columns...)
	return r

}

// Execute runs the runner and returns the requested page scanned into T.
// Count and slice run concurrently when the configuration asks for it,
// except inside a transaction where they share one connection.
func Execute[T any](ctx context.Context, r *Runner) (*Page[T], error) {

	// check if there is an error
	if r.err != nil {
		return nil, r.err
	}

	// inject request id to context
	ctx = trace.EnsureRequestID(ctx)
	logger := r.log.With(ctx).WithParams(log.Params{"runner_code": r.runnerCode})

	page, err := execute[T](ctx, r, logger)
	if err != nil {
		logger.WithStack(err).WithParam("error", err.Error()).Debug("runner failed")
		return nil, err
	}

	return page, nil

}

func execute[T any](ctx context.Context, r *Runner, logger log.Logger) (*Page[T], error) {

	query, err := r.getRunner()
	if err != nil {
		return nil, err
	}

	if r.inTransaction && !sqldb.InTransaction(ctx) {
		return nil, errors.New("transaction not found in context")
	}

	// get db connection
	logger.Debug("getting connection")
	db := r.client.conn.getConnection()
	if db == nil {
		return nil, errors.New("data source is not initialized")
	}

	src, err := sqldb.NewSource[T](db, query,
		sqldb.WithArgs(r.args...),
		sqldb.WithSortable(r.sortable...),
	)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithLogger(logger)}
	if r.client.observer != nil {
		opts = append(opts, WithObserver(r.client.observer))
	}
	if r.client.paging.Concurrent && !sqldb.InTransaction(ctx) {
		opts = append(opts, WithConcurrentQueries())
	}

	logger.Debug("executing runner")
	return Paginate[T](ctx, src, r.request, opts...)

}

// getRunner gets the runner query by code.
func (r *Runner) getRunner() (string, error) {

	if q, ok := r.client.runners[r.runnerCode]; ok {
		return q, nil
	}

	return "", errors.Wrapf(ErrRunnerNotFound, "runner %s", r.runnerCode)

}
