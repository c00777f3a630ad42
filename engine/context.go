package engine

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/engine/governor"
)

// Context carries the collaborators an Engine is constructed with. It
// replaces process-wide state: every engine gets its own logger, clock and
// sinks.
type Context struct {
	Logger      logrus.FieldLogger
	Clock       governor.Clock
	Diagnostics DiagnosticsSink
	Registry    ParamRegistry
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithLogger sets the logger used outside the audio path.
func WithLogger(l logrus.FieldLogger) ContextOption {
	return func(c *Context) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithClock sets the clock used by the governor.
func WithClock(clock governor.Clock) ContextOption {
	return func(c *Context) {
		if clock != nil {
			c.Clock = clock
		}
	}
}

// WithDiagnostics sets the sink that receives ExportDiagnostics reports.
func WithDiagnostics(sink DiagnosticsSink) ContextOption {
	return func(c *Context) { c.Diagnostics = sink }
}

// WithRegistry sets a parameter registry that Process reads once per block.
func WithRegistry(reg ParamRegistry) ContextOption {
	return func(c *Context) { c.Registry = reg }
}

// NewContext returns a context with a discarding logger and the system
// clock, modified by opts.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		Logger: discardLogger(),
		Clock:  governor.SystemClock{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}
