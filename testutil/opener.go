package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/jmgilman/go/tlrepo"
)

// ErrInjected is returned by a CountingOpener for each injected failure.
var ErrInjected = errors.New("injected open failure")

// CountingOpener is a tlrepo.Opener that records every Open call before
// delegating to another Opener. It is safe for concurrent use.
type CountingOpener struct {
	next  tlrepo.Opener
	calls atomic.Int64
	fail  atomic.Int64

	mu    sync.Mutex
	descs []tlrepo.Descriptor
}

// NewCountingOpener returns a CountingOpener delegating to next. A nil next
// delegates to tlrepo.DefaultOpener.
func NewCountingOpener(next tlrepo.Opener) *CountingOpener {
	if next == nil {
		next = tlrepo.DefaultOpener
	}
	return &CountingOpener{next: next}
}

// MemoryOpener returns an Opener that answers every descriptor with a fresh
// in-memory repository, for tests that count opens without touching disk.
func MemoryOpener() tlrepo.Opener {
	return tlrepo.OpenerFunc(func(tlrepo.Descriptor) (*tlrepo.Repository, error) {
		repo, _, err := NewMemoryRepo()
		return repo, err
	})
}

// Open implements tlrepo.Opener.
func (o *CountingOpener) Open(d tlrepo.Descriptor) (*tlrepo.Repository, error) {
	o.calls.Add(1)

	o.mu.Lock()
	o.descs = append(o.descs, d)
	o.mu.Unlock()

	for {
		n := o.fail.Load()
		if n <= 0 {
			break
		}
		if o.fail.CompareAndSwap(n, n-1) {
			return nil, ErrInjected
		}
	}

	//nolint:wrapcheck // Test utility - delegate errors are transparent
	return o.next.Open(d)
}

// FailNext makes the next n calls to Open fail with ErrInjected.
func (o *CountingOpener) FailNext(n int) {
	o.fail.Store(int64(n))
}

// Calls returns the number of Open calls so far.
func (o *CountingOpener) Calls() int {
	return int(o.calls.Load())
}

// Descriptors returns the descriptors passed to Open, in call order.
func (o *CountingOpener) Descriptors() []tlrepo.Descriptor {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]tlrepo.Descriptor(nil), o.descs...)
}
