package log

import "context"

// nopLogger discards everything. It backs NewMock and is the default logger of the paging helpers.
type nopLogger struct{}

// NewMock returns a logger that discards every entry.
func NewMock() Logger {
	return nopLogger{}
}

func (l nopLogger) With(context.Context) Logger { return l }
func (l nopLogger) WithStack(error) Logger { return l }
func (l nopLogger) WithParam(string, interface{}) Logger { return l }
func (l nopLogger) WithParams(Params) Logger { return l }
func (l nopLogger) Errorf(string, ...interface{}) {}
func (l nopLogger) Error(...interface{}) {}
func (l nopLogger) Fatalf(string, ...interface{}) {}
func (l nopLogger) Fatal(...interface{}) {}
func (l nopLogger) Infof(string, ...interface{}) {}
func (l nopLogger) Info(...interface{}) {}
func (l nopLogger) Warnf(string, ...interface{}) {}
func (l nopLogger) Warn(...interface{}) {}
func (l nopLogger) Debugf(string, ...interface{}) {}
func (l nopLogger) Debug(...interface{}) {}
