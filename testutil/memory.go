// Package testutil provides testing utilities for the tlrepo package.
// It includes helpers for creating in-memory and on-disk repositories and an
// Opener that counts and optionally fails open calls.
package testutil

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/jmgilman/go/tlrepo"
)

// NewMemoryRepo creates a new in-memory Git repository for testing.
// It uses billy's memory filesystem (memfs) to provide a fully functional
// repository without touching the actual filesystem.
//
// In-memory repositories cannot be converted into a ThreadLocalRepo, which
// makes them the fixture for descriptor extraction failures.
//
// Example:
//
//	repo, fs, err := testutil.NewMemoryRepo()
//	if err != nil {
//	    t.Fatal(err)
//	}
func NewMemoryRepo() (*tlrepo.Repository, billy.Filesystem, error) {
	fs := memfs.New()

	repo, err := tlrepo.Init("/", tlrepo.WithFilesystem(fs))
	if err != nil {
		//nolint:wrapcheck // Test utility - errors from tlrepo are already wrapped
		return nil, nil, err
	}

	return repo, fs, nil
}

// NewDiskRepo initializes a repository on the local filesystem at path and
// creates an initial empty commit so that HEAD resolves.
//
// Returns the repository and the hash of the initial commit.
//
// Example:
//
//	repo, head, err := testutil.NewDiskRepo(t.TempDir())
//	if err != nil {
//	    t.Fatal(err)
//	}
func NewDiskRepo(path string) (*tlrepo.Repository, string, error) {
	repo, err := tlrepo.Init(path)
	if err != nil {
		//nolint:wrapcheck // Test utility - errors from tlrepo are already wrapped
		return nil, "", err
	}

	hash, err := CreateTestCommit(repo, "Initial commit")
	if err != nil {
		return nil, "", err
	}

	return repo, hash, nil
}

// CreateTestCommit creates an empty commit in the given repository with
// standard test author information and the provided commit message.
//
// Example:
//
//	hash, err := testutil.CreateTestCommit(repo, "Initial commit")
func CreateTestCommit(repo *tlrepo.Repository, message string) (string, error) {
	//nolint:wrapcheck // Test utility - errors from tlrepo are already wrapped
	return repo.CreateCommit(tlrepo.CommitOptions{
		Author:     TestAuthor,
		Email:      TestEmail,
		Message:    message,
		AllowEmpty: true,
	})
}

// CreateTestFile creates a file with the specified content in the given
// filesystem. If the file already exists, it is truncated and overwritten.
func CreateTestFile(fs billy.Filesystem, path, content string) error {
	file, err := fs.Create(path)
	if err != nil {
		//nolint:wrapcheck // Test utility - simple file operation error
		return err
	}
	defer func() {
		_ = file.Close() // Ignore close error in test utility
	}()

	_, err = file.Write([]byte(content))
	//nolint:wrapcheck // Test utility - simple file operation error
	return err
}

// CreateTestCommitWithFile creates a commit that adds a file with content.
//
// Example:
//
//	hash, err := testutil.CreateTestCommitWithFile(
//	    repo, "README.md", "# Test", "Add README")
func CreateTestCommitWithFile(repo *tlrepo.Repository, path, content, message string) (string, error) {
	if err := CreateTestFile(repo.Filesystem(), path, content); err != nil {
		return "", err
	}

	wt, err := repo.Underlying().Worktree()
	if err != nil {
		//nolint:wrapcheck // Test utility - errors from go-git are transparent
		return "", err
	}

	if _, err := wt.Add(path); err != nil {
		//nolint:wrapcheck // Test utility - errors from go-git are transparent
		return "", err
	}

	//nolint:wrapcheck // Test utility - errors from tlrepo are already wrapped
	return repo.CreateCommit(tlrepo.CommitOptions{
		Author:  TestAuthor,
		Email:   TestEmail,
		Message: message,
	})
}
