package tlrepo

import (
	"github.com/go-git/go-billy/v5"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
)

// Repository wraps a go-git repository together with the billy filesystem it
// was opened from and its path on that filesystem.
//
// A Repository is a handle: it is not safe for concurrent use. Share a
// ThreadLocalRepo between goroutines instead and let each worker obtain its
// own Repository through Get.
type Repository struct {
	path string
	repo *gogit.Repository
	fs   billy.Filesystem

	// discovered is set by Discover; reopening goes through Discover too.
	discovered bool
}

// CommitOptions configures commit creation.
type CommitOptions struct {
	Author     string
	Email      string
	Message    string
	AllowEmpty bool
}

// RepositoryOption configures repository creation operations (Init, Open).
type RepositoryOption func(*repositoryOptions)

// repositoryOptions holds the configuration for repository creation.
type repositoryOptions struct {
	fs              billy.Filesystem
	bare            bool
	objectCacheSize cache.FileSize
}

// WithFilesystem sets the billy filesystem to use for repository operations.
// If not provided, defaults to the local filesystem rooted at "/".
//
// Only repositories on the local OS filesystem (osfs, at any base directory)
// can be converted into a ThreadLocalRepo. Others, such as memfs, can be used
// normally but have nothing on disk to reopen.
//
// Example:
//
//	repo, err := tlrepo.Init("/path/to/repo", tlrepo.WithFilesystem(memfs.New()))
func WithFilesystem(fs billy.Filesystem) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.fs = fs
	}
}

// WithBare creates a bare repository (no working tree).
// Only applicable to Init operations.
//
// Example:
//
//	repo, err := tlrepo.Init("/path/to/repo.git", tlrepo.WithBare())
func WithBare() RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.bare = true
	}
}

// WithObjectCacheSize sets the size of the object LRU cache attached to the
// repository storage. Every opened handle carries its own cache, so this is
// a per-worker memory cost. Defaults to cache.DefaultMaxSize.
//
// Example:
//
//	repo, err := tlrepo.Open("/path/to/repo", tlrepo.WithObjectCacheSize(8*cache.MiByte))
func WithObjectCacheSize(size cache.FileSize) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.objectCacheSize = size
	}
}
