package shopify

import (
	"context"
	"fmt"
)

// ProgressFunc receives human-readable progress lines.
type ProgressFunc func(msg string)

type progressKey struct{}

// WithProgress attaches fn to ctx so that client calls report retries and
// throttling through it.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	if fn == nil {
		return ctx
	}
	return context.WithValue(ctx, progressKey{}, fn)
}

func say(ctx context.Context, format string, args ...any) {
	if fn, ok := ctx.Value(progressKey{}).(ProgressFunc); ok {
		fn(fmt.Sprintf(format, args...))
	}
}
