package tlrepo

import (
	"context"
	"errors"
)

// Local is a worker's private cache of repository handles, keyed by
// Descriptor. It holds at most one handle per descriptor.
//
// A Local is owned by a single goroutine and is not safe for concurrent
// use; that is what lets Get run without locks. Create one per worker and
// Close it when the worker exits.
type Local struct {
	repos  map[Descriptor]*Repository
	closed bool
}

// NewLocal returns an empty Local.
func NewLocal() *Local {
	return &Local{repos: make(map[Descriptor]*Repository)}
}

// Len returns the number of cached handles.
func (l *Local) Len() int {
	return len(l.repos)
}

// Close closes every cached handle and empties the cache. Later calls to
// Get with l return ErrLocalClosed. Close is idempotent.
func (l *Local) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true

	var errs []error
	for d, repo := range l.repos {
		if err := repo.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(l.repos, d)
	}
	return errors.Join(errs...)
}

type localKey struct{}

// WithLocal returns a copy of ctx carrying l, for use with GetContext.
func WithLocal(ctx context.Context, l *Local) context.Context {
	return context.WithValue(ctx, localKey{}, l)
}

// LocalFromContext returns the Local carried by ctx, if any.
func LocalFromContext(ctx context.Context) (*Local, bool) {
	l, ok := ctx.Value(localKey{}).(*Local)
	return l, ok && l != nil
}
