package log

import (
	"fmt"

	"github.com/pkg/errors"
)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// MarshalStack returns the innermost stack trace recorded by pkg/errors, one frame per entry.
// It returns nil when err carries no stack.
func MarshalStack(err error) []string {

	var (
		tracer stackTracer
		frames []string
	)

	for err != nil {
		if st, ok := err.(stackTracer); ok {
			tracer = st
		}
		err = errors.Unwrap(err)
	}

	if tracer == nil {
		return nil
	}

	for _, f := range tracer.StackTrace() {
		frames = append(frames, fmt.Sprintf("%+s:%d", f, f))
	}

	return frames

}
