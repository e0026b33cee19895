package tlrepo

import (
	"context"
	"errors"
)

// Opener opens a new handle for a Descriptor. Implementations must be safe
// for concurrent use, since every worker sharing a ThreadLocalRepo calls
// Open on its own cache miss.
type Opener interface {
	Open(d Descriptor) (*Repository, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(d Descriptor) (*Repository, error)

// Open calls f(d).
func (f OpenerFunc) Open(d Descriptor) (*Repository, error) {
	return f(d)
}

// DefaultOpener opens repositories with Descriptor.Open.
var DefaultOpener Opener = OpenerFunc(Descriptor.Open)

// Option configures a ThreadLocalRepo.
type Option func(*sharedRepo)

// WithOpener sets the Opener used on cache misses. Defaults to DefaultOpener.
//
// A Local caches handles by descriptor alone. ThreadLocalRepos with equal
// descriptors but different openers share one entry: whichever calls Get
// first on a Local opens the handle, and the others receive it without their
// Opener being called. Use distinct Locals when the openers must not mix.
func WithOpener(opener Opener) Option {
	return func(s *sharedRepo) {
		s.opener = opener
	}
}

// ThreadLocalRepo is a repository reference that can be shared freely
// between goroutines. Each worker calls Get with its own Local and receives
// a private handle, opened on the first call and reused afterwards.
//
// A ThreadLocalRepo and its clones point at the same immutable descriptor
// and opener.
type ThreadLocalRepo struct {
	shared *sharedRepo
}

// sharedRepo is never modified after New returns.
type sharedRepo struct {
	desc   Descriptor
	opener Opener
}

// New returns a ThreadLocalRepo for d. No repository is opened until the
// first call to Get.
//
// Example:
//
//	desc, err := tlrepo.NewDescriptor("/path/to/repo")
//	if err != nil {
//	    return err
//	}
//	repo := tlrepo.New(desc)
func New(d Descriptor, opts ...Option) *ThreadLocalRepo {
	shared := &sharedRepo{
		desc:   d,
		opener: DefaultOpener,
	}
	for _, opt := range opts {
		opt(shared)
	}
	if shared.opener == nil {
		shared.opener = DefaultOpener
	}

	return &ThreadLocalRepo{shared: shared}
}

// Clone returns a ThreadLocalRepo sharing t's descriptor and opener. Clones
// hit the same cache entries as t.
func (t *ThreadLocalRepo) Clone() *ThreadLocalRepo {
	return &ThreadLocalRepo{shared: t.shared}
}

// Descriptor returns the descriptor of the repository.
func (t *ThreadLocalRepo) Descriptor() Descriptor {
	return t.shared.desc
}

// Get returns the handle cached in l for this repository, opening and
// caching one if l has none.
//
// Open failures are returned as *OpenError and are not cached: the next Get
// on l opens again.
//
// Example:
//
//	local := tlrepo.NewLocal()
//	defer local.Close()
//
//	repo, err := shared.Get(local)
//	if err != nil {
//	    return err
//	}
func (t *ThreadLocalRepo) Get(l *Local) (*Repository, error) {
	if l == nil {
		return nil, ErrNoLocal
	}
	if l.closed {
		return nil, ErrLocalClosed
	}

	if repo, ok := l.repos[t.shared.desc]; ok {
		return repo, nil
	}

	repo, err := t.GetUncached()
	if err != nil {
		return nil, err
	}

	l.repos[t.shared.desc] = repo
	return repo, nil
}

// GetContext is Get with the Local attached to ctx by WithLocal. Returns
// ErrNoLocal if ctx carries no Local.
func (t *ThreadLocalRepo) GetContext(ctx context.Context) (*Repository, error) {
	l, ok := LocalFromContext(ctx)
	if !ok {
		return nil, ErrNoLocal
	}
	return t.Get(l)
}

// GetUncached opens a new handle that is not stored in any Local. The caller
// owns the handle and should Close it.
//
// Use it on short-lived goroutines where a Local would be discarded after a
// single use anyway.
func (t *ThreadLocalRepo) GetUncached() (*Repository, error) {
	repo, err := t.shared.opener.Open(t.shared.desc)
	if err != nil {
		return nil, newOpenError(t.shared.desc, err)
	}
	if repo == nil {
		return nil, newOpenError(t.shared.desc, errors.New("opener returned no repository"))
	}
	return repo, nil
}

// ThreadLocal returns a ThreadLocalRepo that reopens r's location in each
// worker. r itself is not cached and stays usable by the caller.
//
// Returns ErrDescriptorExtraction if r has no location on disk.
//
// Example:
//
//	repo, err := tlrepo.Open("/path/to/repo")
//	if err != nil {
//	    return err
//	}
//	shared, err := repo.ThreadLocal()
func (r *Repository) ThreadLocal(opts ...Option) (*ThreadLocalRepo, error) {
	d, err := DescriptorFromRepository(r)
	if err != nil {
		return nil, err
	}
	return New(d, opts...), nil
}
