package tlrepo

import (
	"errors"
	"fmt"
	"io/fs"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	platformerrors "github.com/jmgilman/go/errors"
)

var (
	// ErrInvalidPath is returned by NewDescriptor when a path cannot be
	// normalized into a stable location.
	ErrInvalidPath = platformerrors.New(platformerrors.CodeInvalidInput, "invalid repository path")

	// ErrDescriptorExtraction is returned when an open Repository has no
	// location on disk that could be reopened, e.g. an in-memory repository.
	ErrDescriptorExtraction = platformerrors.New(platformerrors.CodeInvalidInput,
		"repository has no reproducible location")

	// ErrNoLocal is returned by GetContext when the context carries no Local.
	ErrNoLocal = platformerrors.New(platformerrors.CodeInvalidInput, "no local repository cache in context")

	// ErrLocalClosed is returned by Get when the Local has been closed.
	ErrLocalClosed = platformerrors.New(platformerrors.CodeConflict, "local repository cache is closed")

	// ErrInvalidWorkers is returned by Run and ForEach for a worker count below one.
	ErrInvalidWorkers = platformerrors.New(platformerrors.CodeInvalidInput, "worker count must be at least 1")
)

// OpenError reports a failure to open the repository identified by
// Descriptor. Failed opens are never cached, so a later Get retries.
//
// Err holds the classified cause; platformerrors.GetCode reports its code.
type OpenError struct {
	Descriptor Descriptor
	Err        error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("failed to open repository %s: %v", e.Descriptor, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

func newOpenError(d Descriptor, err error) *OpenError {
	return &OpenError{Descriptor: d, Err: classifyError(err)}
}

// invalidPath wraps cause as an ErrInvalidPath for path.
func invalidPath(path string, cause error) error {
	return fmt.Errorf("%w %q: %w", ErrInvalidPath, path, cause)
}

// wrapError wraps an error with context, classifying it as a platform error type.
// It preserves the original error chain for errors.Is/errors.As compatibility.
// If err is nil, returns nil.
func wrapError(err error, context string) error {
	if err == nil {
		return nil
	}

	classified := classifyError(err)
	return fmt.Errorf("%s: %w", context, classified)
}

// classifyError maps go-git and filesystem errors to platform error types.
// Errors that already carry a platform code and unknown errors are passed
// through unchanged to preserve their original information.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var pe platformerrors.PlatformError
	if errors.As(err, &pe) {
		return err
	}

	switch {
	case errors.Is(err, gogit.ErrRepositoryNotExists):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "repository does not exist")
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "reference not found")
	case errors.Is(err, fs.ErrNotExist):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "path does not exist")
	case errors.Is(err, fs.ErrPermission):
		return platformerrors.Wrap(err, platformerrors.CodeForbidden, "permission denied")
	case errors.Is(err, gogit.ErrRepositoryAlreadyExists):
		return platformerrors.Wrap(err, platformerrors.CodeAlreadyExists, "repository already exists")
	case errors.Is(err, gogit.ErrIsBareRepository):
		return platformerrors.Wrap(err, platformerrors.CodeConflict, "repository is bare")
	case errors.Is(err, gogit.ErrWorktreeNotClean):
		return platformerrors.Wrap(err, platformerrors.CodeConflict, "worktree is not clean")
	case errors.Is(err, gogit.ErrEmptyCommit):
		return platformerrors.Wrap(err, platformerrors.CodeConflict, "cannot create empty commit: working tree is clean")
	case errors.Is(err, gogit.ErrMissingAuthor):
		return platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "author is required")
	}

	return err
}
