package pagekit

import (
	"context"
	"time"

	"pagekit/log"
	"pagekit/tabling"

	"golang.org/x/sync/errgroup"
)

// Operation names reported to an Observer.
const (
	OpCount = "count"
	OpSlice = "slice"
)

// Observer receives the duration and outcome of every source call.
type Observer interface {
	ObserveQuery(op string, took time.Duration, err error)
}

// Option configures how a page is built.
type Option func(*options)

type options struct {
	log        log.Logger
	concurrent bool
	observer   Observer
}

// WithLogger logs every step of the page construction.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.log = logger
		}
	}
}

// WithConcurrentQueries issues the count and the slice at the same time and waits for both.
// Do not use it with a source bound to a single connection, such as a transaction.
func WithConcurrentQueries() Option {
	return func(o *options) {
		o.concurrent = true
	}
}

// WithObserver reports the duration and error of each source call.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

func newOptions(opts []Option) *options {

	o := &options{log: log.NewMock()}
	for _, opt := range opts {
		opt(o)
	}

	return o

}

// Create builds page pageNumber (1-based) of size pageSize from src.
// It blocks until both the count and the slice are done and cannot be canceled.
func Create[T any](src Source[T], pageNumber, pageSize int, opts ...Option) (*Page[T], error) {

	return CreateContext(context.Background(), src, pageNumber, pageSize, opts...)

}

// CreateContext builds page pageNumber (1-based) of size pageSize from src.
// When ctx is done before the page is complete it returns ErrCanceled and no page.
// Errors from src are returned unchanged.
func CreateContext[T any](ctx context.Context, src Source[T], pageNumber, pageSize int, opts ...Option) (*Page[T], error) {

	return build(ctx, src, pageNumber, tabling.New((pageNumber-1)*pageSize, pageSize, nil), newOptions(opts))

}

// Paginate validates req and builds the page it describes, sorted as requested.
func Paginate[T any](ctx context.Context, src Source[T], req *Request, opts ...Option) (*Page[T], error) {

	if req == nil {
		return nil, invalidArgument("request", "must not be nil")
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return build(ctx, src, req.PageNumber, req.Tabling(), newOptions(opts))

}

func build[T any](ctx context.Context, src Source[T], pageNumber int, t *tabling.Tabling, o *options) (*Page[T], error) {

	var (
		count int
		items []T
		err   error
		limit = t.Paging.Limit
	)

	if err := checkWindow(pageNumber, limit); err != nil {
		return nil, err
	}

	if src == nil {
		return nil, invalidArgument("source", "must not be nil")
	}

	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	logger := o.log.With(ctx).WithParams(log.Params{
		"page_number": pageNumber,
		"page_size":   limit,
		"offset":      t.Paging.Offset,
		"sort":        t.Sorting.String(),
	})

	if o.concurrent {
		count, items, err = fetchConcurrent(ctx, src, t, o, logger)
	} else {
		count, items, err = fetchSequential(ctx, src, t, o, logger)
	}
	if err != nil {
		err = mappingError(ctx, err)
		logger.WithParam("error", err.Error()).Debug("page construction failed")
		return nil, err
	}

	// the context may fire while the last call returns
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	if len(items) > limit {
		items = items[:limit]
	}

	logger.WithParams(log.Params{"total_count": count, "items": len(items)}).Debug("page built")

	return NewPage(items, count, pageNumber, limit)

}

// fetchSequential counts, then slices.
func fetchSequential[T any](ctx context.Context, src Source[T], t *tabling.Tabling, o *options, logger log.Logger) (int, []T, error) {

	count, err := runCount(ctx, src, o, logger)
	if err != nil {
		return 0, nil, err
	}

	if err := checkContext(ctx); err != nil {
		return 0, nil, err
	}

	items, err := runSlice(ctx, src, t, o, logger)
	if err != nil {
		return 0, nil, err
	}

	return count, items, nil

}

// fetchConcurrent counts and slices at the same time. The first failure cancels the other call.
func fetchConcurrent[T any](ctx context.Context, src Source[T], t *tabling.Tabling, o *options, logger log.Logger) (int, []T, error) {

	var (
		count int
		items []T
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		count, err = runCount(gctx, src, o, logger)
		return err
	})

	g.Go(func() (err error) {
		items, err = runSlice(gctx, src, t, o, logger)
		return err
	})

	if err := g.Wait(); err != nil {
		return 0, nil, err
	}

	return count, items, nil

}

func runCount[T any](ctx context.Context, src Source[T], o *options, logger log.Logger) (int, error) {

	logger.Debug("counting elements")

	start := time.Now()
	count, err := src.Count(ctx)
	o.observe(OpCount, start, err)

	return count, err

}

func runSlice[T any](ctx context.Context, src Source[T], t *tabling.Tabling, o *options, logger log.Logger) ([]T, error) {

	logger.Debug("slicing elements")

	start := time.Now()
	items, err := src.Slice(ctx, t)
	o.observe(OpSlice, start, err)

	return items, err

}

func (o *options) observe(op string, start time.Time, err error) {

	if o.observer != nil {
		o.observer.ObserveQuery(op, time.Since(start), err)
	}

}
