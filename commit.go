package tlrepo

import (
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CreateCommit creates a new commit on the current HEAD with the specified
// options.
//
// By default, CreateCommit will fail if there are no changes to commit (clean
// working tree). Use the AllowEmpty option to create commits without changes.
//
// Returns the commit hash as a string, or an error if the commit fails.
// Common errors include ErrConflict for a clean working tree without AllowEmpty,
// or ErrInvalidInput for missing author/email/message.
//
// Example:
//
//	hash, err := repo.CreateCommit(tlrepo.CommitOptions{
//	    Author:     "Bot",
//	    Email:      "bot@example.com",
//	    Message:    "Trigger rebuild",
//	    AllowEmpty: true,
//	})
func (r *Repository) CreateCommit(opts CommitOptions) (string, error) {
	if opts.Author == "" {
		return "", wrapError(gogit.ErrMissingAuthor, "failed to create commit")
	}
	if opts.Email == "" {
		return "", wrapError(fmt.Errorf("email is required"), "failed to create commit")
	}
	if opts.Message == "" {
		return "", wrapError(fmt.Errorf("message is required"), "failed to create commit")
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return "", wrapError(err, "failed to get worktree")
	}

	hash, err := wt.Commit(opts.Message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  opts.Author,
			Email: opts.Email,
		},
		AllowEmptyCommits: opts.AllowEmpty,
	})
	if err != nil {
		return "", wrapError(err, "failed to create commit")
	}

	return hash.String(), nil
}
