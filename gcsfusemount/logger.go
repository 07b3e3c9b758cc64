package gcsfusemount

import (
	"fmt"
	"io"
)

// Logger is the narrow logging surface the lifecycle manager and prober
// use to surface diagnostics. Two implementations are provided: a plain
// io.Writer-backed logger for the gcsfuse-mount-ctl CLI, and a callback-based
// logger the cgo plugin entrypoint can wire to the host scheduler's own
// info/error logging facilities.
type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// WriterLogger logs to an io.Writer, tagging every line with its level.
type WriterLogger struct {
	Output io.Writer
}

// NewWriterLogger returns a Logger that writes tagged lines to output. A
// nil output yields a Logger whose methods are no-ops, so callers don't
// need to special-case "no logger configured".
func NewWriterLogger(output io.Writer) *WriterLogger {
	return &WriterLogger{Output: output}
}

func (l *WriterLogger) Infof(format string, args ...any) {
	if l == nil || l.Output == nil {
		return
	}

	_, _ = fmt.Fprintf(l.Output, "gcsfuse-mount: "+format+"\n", args...)
}

func (l *WriterLogger) Errorf(format string, args ...any) {
	if l == nil || l.Output == nil {
		return
	}

	_, _ = fmt.Fprintf(l.Output, "gcsfuse-mount: error: "+format+"\n", args...)
}

// CallbackLogger adapts a pair of host-supplied callback functions (the
// cgo plugin's bridge to the scheduler's own logging facility) to the
// Logger interface.
type CallbackLogger struct {
	Info  func(string)
	Error func(string)
}

func (l *CallbackLogger) Infof(format string, args ...any) {
	if l == nil || l.Info == nil {
		return
	}

	l.Info(fmt.Sprintf(format, args...))
}

func (l *CallbackLogger) Errorf(format string, args ...any) {
	if l == nil || l.Error == nil {
		return
	}

	l.Error(fmt.Sprintf(format, args...))
}

// NopLogger discards everything. Used as the zero value when a caller
// does not care about diagnostics (e.g. pure unit tests of parsing logic).
var NopLogger Logger = (*WriterLogger)(nil)
