// Package tlrepo shares a Git repository between goroutines by giving every
// worker its own lazily opened handle.
//
// A go-git repository handle is expensive to open and is not safe for
// concurrent use. Rather than guarding one handle with a lock, tlrepo hands
// out a ThreadLocalRepo: a cheap, immutable reference that any number of
// goroutines may hold. Each worker owns a Local cache and calls Get with it;
// the first call opens the repository, later calls return the same handle
// without I/O.
//
// # Usage
//
//	desc, err := tlrepo.NewDescriptor("/path/to/repo")
//	if err != nil {
//	    return err
//	}
//	shared := tlrepo.New(desc)
//
//	err = tlrepo.Run(ctx, runtime.NumCPU(), func(ctx context.Context, l *tlrepo.Local) error {
//	    repo, err := shared.Get(l)
//	    if err != nil {
//	        return err
//	    }
//	    // repo is private to this goroutine
//	    return walk(repo.Underlying())
//	})
//
// A repository that is already open can be converted directly:
//
//	repo, err := tlrepo.Open("/path/to/repo")
//	if err != nil {
//	    return err
//	}
//	shared, err := repo.ThreadLocal()
//
// # Descriptors
//
// A Descriptor names a repository by its normalized absolute path (symlinks
// resolved) and open mode. Descriptors are comparable values and key the
// Local cache, so two descriptors built from different spellings of the same
// location share cache entries.
//
// # Caching
//
// A Local holds at most one handle per descriptor. Failed opens are never
// cached: the error is returned and the next Get tries again. Handles stay
// cached until the Local is closed; there is no eviction and no limit on the
// number of Locals. Two workers may open the same repository at the same
// time, each getting its own handle.
//
// # Error Handling
//
// All errors carry platform error codes from github.com/jmgilman/go/errors:
//
//	if errors.Is(err, tlrepo.ErrInvalidPath) {
//	    // Path could not be normalized
//	}
//
//	var openErr *tlrepo.OpenError
//	if errors.As(err, &openErr) {
//	    code := platformerrors.GetCode(err) // e.g. NOT_FOUND
//	}
package tlrepo
