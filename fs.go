package tlrepo

import (
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// underlyingFilesystem is implemented by billy wrappers such as the chroot
// helper returned from Chroot.
type underlyingFilesystem interface {
	Underlying() billy.Basic
}

// diskRoot returns the absolute OS path fs is rooted at. It reports false
// unless the filesystem that actually stores the data, found by looking
// through chroot wrappers, is the local OS filesystem. A repository anywhere
// else has no location that another worker could reopen.
func diskRoot(fs billy.Filesystem) (string, bool) {
	if fs == nil {
		return "", false
	}

	var base billy.Basic = fs
	for {
		wrapper, ok := base.(underlyingFilesystem)
		if !ok {
			break
		}
		base = wrapper.Underlying()
	}

	switch base.(type) {
	case *osfs.ChrootOS, *osfs.BoundOS:
	default:
		return "", false
	}

	root := fs.Root()
	if !filepath.IsAbs(root) {
		return "", false
	}
	return filepath.Clean(root), true
}
