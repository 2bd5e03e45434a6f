package pagekit

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a page number, page size or sort field is rejected.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCanceled is returned when the context of a paging call is done before the page is complete.
	ErrCanceled = errors.New("paging canceled")

	// ErrRunnerNotFound is returned when a runner code has no SQL file.
	ErrRunnerNotFound = errors.New("runner not found")

	// ErrDataSourceNotFound is returned when the configuration has no datasource with the given name.
	ErrDataSourceNotFound = errors.New("data source not found")
)

// InvalidArgumentError names the rejected field. It unwraps to ErrInvalidArgument.
type InvalidArgumentError struct {
	Field   string
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidArgument, e.Field, e.Message)
}

func (e *InvalidArgumentError) Unwrap() error { return ErrInvalidArgument }

func invalidArgument(field, message string) error {
	return &InvalidArgumentError{Field: field, Message: message}
}

// canceledError matches both ErrCanceled and the context error that caused it.
type canceledError struct {
	cause error
}

func (e *canceledError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCanceled, e.cause)
}

func (e *canceledError) Is(target error) bool { return target == ErrCanceled }

func (e *canceledError) Unwrap() error { return e.cause }

// checkContext returns a cancellation error once ctx is done.
func checkContext(ctx context.Context) error {

	if err := ctx.Err(); err != nil {
		return &canceledError{cause: err}
	}

	return nil

}

// mappingError maps a source error to the cancellation error when ctx is done,
// otherwise it returns the source error unchanged.
func mappingError(ctx context.Context, err error) error {

	if cerr := checkContext(ctx); cerr != nil {
		return cerr
	}

	return err

}
