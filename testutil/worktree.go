package testutil

import (
	"os"
	"path/filepath"

	"github.com/jmgilman/go/tlrepo"
)

// AddLinkedWorktree lays out a linked worktree of repo at path, as
// `git worktree add --detach` would, with HEAD detached at head. The worktree
// has a .git file pointing into repo's .git/worktrees/<name> directory.
//
// repo must be a standard repository on the local filesystem.
//
// Example:
//
//	repo, head, err := testutil.NewDiskRepo(filepath.Join(dir, "main"))
//	err = testutil.AddLinkedWorktree(repo, filepath.Join(dir, "wt"), "wt", head)
func AddLinkedWorktree(repo *tlrepo.Repository, path, name, head string) error {
	gitDir := filepath.Join(repo.Path(), ".git", "worktrees", name)
	if err := os.MkdirAll(gitDir, 0o755); err != nil {
		//nolint:wrapcheck // Test utility - simple file operation error
		return err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		//nolint:wrapcheck // Test utility - simple file operation error
		return err
	}

	files := map[string]string{
		filepath.Join(gitDir, "HEAD"):      head + "\n",
		filepath.Join(gitDir, "commondir"): "../..\n",
		filepath.Join(gitDir, "gitdir"):    filepath.Join(path, ".git") + "\n",
		filepath.Join(path, ".git"):        "gitdir: " + gitDir + "\n",
	}
	for file, content := range files {
		if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
			//nolint:wrapcheck // Test utility - simple file operation error
			return err
		}
	}
	return nil
}
