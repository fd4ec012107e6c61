package app

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx carrying a. Commands run with such a
// context use a instead of opening their own store.
func NewContext(ctx context.Context, a *App) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// FromContext returns the App stored by NewContext, if any
func FromContext(ctx context.Context) (*App, bool) {
	if ctx == nil {
		return nil, false
	}
	a, ok := ctx.Value(contextKey{}).(*App)
	return a, ok && a != nil
}
