package log

import "context"

// Kv is a helper type for structured logging fields.
type Kv = map[string]any

// Logger is the interface the application uses to log.
type Logger interface {
	Infof(format string, args ...any)
	Warningf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
	WithValues(values Kv) Logger
	WithCtxValues(ctx context.Context) Logger
}

type contextKey string

const contextLogValuesKey = contextKey("internal-log-values")

// CtxWithValues returns a copy of parent with the log values added, these values
// will be used by loggers that are obtained with WithCtxValues.
func CtxWithValues(parent context.Context, kv Kv) context.Context {
	// Merge with the ones already present, new ones override.
	merged := Kv{}
	for k, v := range ValuesFromCtx(parent) {
		merged[k] = v
	}
	for k, v := range kv {
		merged[k] = v
	}

	return context.WithValue(parent, contextLogValuesKey, merged)
}

// ValuesFromCtx gets the log values from a context.
func ValuesFromCtx(ctx context.Context) Kv {
	v := ctx.Value(contextLogValuesKey)
	if v == nil {
		return Kv{}
	}

	values, ok := v.(Kv)
	if !ok {
		return Kv{}
	}

	return values
}

// Noop logger doesn't log anything.
const Noop = noop(0)

type noop int

func (n noop) Infof(format string, args ...any)       {}
func (n noop) Warningf(format string, args ...any)    {}
func (n noop) Errorf(format string, args ...any)      {}
func (n noop) Debugf(format string, args ...any)      {}
func (n noop) WithValues(_ Kv) Logger                 { return n }
func (n noop) WithCtxValues(_ context.Context) Logger { return n }
