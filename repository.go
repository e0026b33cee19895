package tlrepo

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// Init creates a new Git repository at the specified path.
//
// By default, Init creates a standard (non-bare) repository on the local
// filesystem. This behavior can be customized using RepositoryOption
// functions.
//
// Returns the initialized Repository or an error if initialization fails.
// Common errors include ErrAlreadyExists if a repository already exists at
// the specified path, or filesystem errors if the path cannot be created.
//
// Examples:
//
//	// Create a standard repository
//	repo, err := tlrepo.Init("/path/to/repo")
//
//	// Create a bare repository
//	repo, err := tlrepo.Init("/path/to/repo.git", tlrepo.WithBare())
//
//	// Create repository with custom filesystem (for testing)
//	repo, err := tlrepo.Init("/path/to/repo", tlrepo.WithFilesystem(memfs.New()))
func Init(path string, opts ...RepositoryOption) (*Repository, error) {
	options, path, err := applyRepositoryOptions(path, opts)
	if err != nil {
		return nil, err
	}

	fs := options.fs
	if err := fs.MkdirAll(path, 0o755); err != nil {
		return nil, wrapError(err, "failed to create repository directory")
	}

	scopedFs, err := fs.Chroot(path)
	if err != nil {
		return nil, wrapError(err, "failed to scope filesystem to path")
	}

	// Bare repositories keep their storage in the root, standard ones in .git
	if options.bare {
		storage := filesystem.NewStorage(scopedFs, newObjectCache(options.objectCacheSize))
		repo, err := gogit.Init(storage, nil)
		if err != nil {
			return nil, wrapError(err, "failed to initialize bare repository")
		}
		return &Repository{path: path, repo: repo, fs: scopedFs}, nil
	}

	dotGitFs, err := scopedFs.Chroot(gogit.GitDirName)
	if err != nil {
		return nil, wrapError(err, "failed to create .git filesystem")
	}

	storage := filesystem.NewStorage(dotGitFs, newObjectCache(options.objectCacheSize))
	repo, err := gogit.Init(storage, scopedFs)
	if err != nil {
		return nil, wrapError(err, "failed to initialize repository")
	}

	return &Repository{path: path, repo: repo, fs: scopedFs}, nil
}

// Open opens an existing Git repository located exactly at path.
//
// Both standard repositories (with a .git directory) and bare repositories
// are supported. Open does not search parent directories; use Discover for
// that.
//
// Returns the opened Repository or an error if opening fails. Common errors
// include ErrNotFound if no repository exists at the path, or filesystem
// errors if the path cannot be accessed.
//
// Examples:
//
//	// Open a repository from the local filesystem
//	repo, err := tlrepo.Open("/path/to/repo")
//
//	// Open with custom filesystem (for testing)
//	repo, err := tlrepo.Open("/path/to/repo", tlrepo.WithFilesystem(memfs.New()))
func Open(path string, opts ...RepositoryOption) (*Repository, error) {
	options, path, err := applyRepositoryOptions(path, opts)
	if err != nil {
		return nil, err
	}

	scopedFs, err := options.fs.Chroot(path)
	if err != nil {
		return nil, wrapError(err, "failed to scope filesystem to path")
	}

	storageFs := scopedFs
	worktreeFs := scopedFs

	dotGitStat, dotGitErr := scopedFs.Stat(gogit.GitDirName)
	if dotGitErr == nil && dotGitStat.IsDir() {
		storageFs, err = scopedFs.Chroot(gogit.GitDirName)
		if err != nil {
			return nil, wrapError(err, "failed to scope filesystem to .git")
		}
	} else {
		worktreeFs = nil
	}

	storage := filesystem.NewStorage(storageFs, newObjectCache(options.objectCacheSize))

	var repo *gogit.Repository
	if worktreeFs != nil {
		repo, err = gogit.Open(storage, worktreeFs)
	} else {
		repo, err = gogit.Open(storage, nil)
	}
	if err != nil {
		return nil, wrapError(err, "failed to open repository")
	}

	return &Repository{path: path, repo: repo, fs: scopedFs}, nil
}

// Discover opens the repository containing path, searching parent
// directories until a repository is found. Linked worktrees are opened with
// their common directory so that shared refs and objects resolve.
//
// The returned Repository reports the repository root, not the path passed
// in, from Path.
//
// Example:
//
//	repo, err := tlrepo.Discover("/path/to/repo/some/subdir")
func Discover(path string) (*Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, wrapError(err, "failed to resolve path")
	}

	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, wrapError(err, "failed to discover repository")
	}

	root, err := repositoryRoot(repo)
	if err != nil {
		return nil, wrapError(err, "failed to determine repository root")
	}

	return &Repository{path: root, repo: repo, fs: osfs.New(root), discovered: true}, nil
}

// Path returns the location of the repository on the filesystem it was opened
// with. For repositories opened with the default local filesystem this is an
// absolute OS path; with a custom filesystem it is relative to that
// filesystem's root.
func (r *Repository) Path() string {
	return r.path
}

// Underlying returns the underlying go-git Repository for operations not
// covered by this wrapper.
func (r *Repository) Underlying() *gogit.Repository {
	return r.repo
}

// Filesystem returns the billy.Filesystem associated with this repository.
//
// For standard (non-bare) repositories, this returns a filesystem scoped to
// the working tree. For bare repositories, it returns a filesystem scoped to
// the repository directory itself.
func (r *Repository) Filesystem() billy.Filesystem {
	return r.fs
}

// Head returns the hash of the commit HEAD currently resolves to.
//
// Returns ErrNotFound if HEAD points to an unborn branch.
func (r *Repository) Head() (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", wrapError(err, "failed to resolve HEAD")
	}
	return ref.Hash().String(), nil
}

// Close releases the files held open by the repository storage, such as
// packfile descriptors. The Repository must not be used afterwards.
func (r *Repository) Close() error {
	if r == nil || r.repo == nil {
		return nil
	}
	if closer, ok := r.repo.Storer.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return wrapError(err, "failed to close repository storage")
		}
	}
	return nil
}

// applyRepositoryOptions applies opts over the defaults and returns the path
// to use with the resulting filesystem. Paths on the default local
// filesystem are made absolute.
func applyRepositoryOptions(path string, opts []RepositoryOption) (*repositoryOptions, string, error) {
	options := &repositoryOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.fs == nil {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, "", wrapError(err, "failed to resolve path")
		}
		options.fs = osfs.New("/")
		path = abs
	}

	return options, path, nil
}

func newObjectCache(size cache.FileSize) cache.Object {
	if size <= 0 {
		return cache.NewObjectLRUDefault()
	}
	return cache.NewObjectLRU(size)
}

// repositoryRoot returns the working tree root of repo, or the storage
// directory for bare repositories.
func repositoryRoot(repo *gogit.Repository) (string, error) {
	wt, err := repo.Worktree()
	if err == nil {
		return wt.Filesystem.Root(), nil
	}
	if !errors.Is(err, gogit.ErrIsBareRepository) {
		return "", err
	}

	storage, ok := repo.Storer.(*filesystem.Storage)
	if !ok {
		return "", fmt.Errorf("unsupported storage type %T", repo.Storer)
	}
	return storage.Filesystem().Root(), nil
}
