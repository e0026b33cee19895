package tlrepo

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
)

// Descriptor identifies a repository on the local filesystem and how to open
// it. Descriptors are immutable values: two descriptors are equal (==) when
// they name the same normalized location with the same open mode, which makes
// them usable directly as map keys.
//
// The zero Descriptor identifies nothing; construct one with NewDescriptor
// or DescriptorFromRepository.
type Descriptor struct {
	path     string
	discover bool
}

// DescriptorOption configures NewDescriptor.
type DescriptorOption func(*Descriptor)

// WithDiscovery opens the repository containing the path instead of
// requiring the path to be the repository itself. Parent directories are
// searched as by Discover.
//
// A discovering descriptor is distinct from a plain one for the same path.
func WithDiscovery() DescriptorOption {
	return func(d *Descriptor) {
		d.discover = true
	}
}

// NewDescriptor returns a Descriptor for the repository at path.
//
// The path is normalized so that every spelling of the same location yields
// an equal Descriptor:
//
//  1. empty paths and paths containing NUL are rejected
//  2. the path is made absolute and cleaned
//  3. symlinks are resolved; when the path does not exist yet, its deepest
//     existing ancestor is resolved and the remaining elements are appended
//
// No case folding is performed, so on case-insensitive filesystems two
// spellings differing only in case produce different descriptors.
//
// NewDescriptor does not check that a repository exists at path. Returns
// ErrInvalidPath if the path cannot be normalized.
func NewDescriptor(path string, opts ...DescriptorOption) (Descriptor, error) {
	normalized, err := normalizePath(path)
	if err != nil {
		return Descriptor{}, err
	}

	d := Descriptor{path: normalized}
	for _, opt := range opts {
		opt(&d)
	}
	return d, nil
}

// DescriptorFromRepository returns the Descriptor that reopens r.
//
// The descriptor names the absolute OS location backing r's filesystem, so
// it is correct even when r was opened through a filesystem rooted somewhere
// other than "/". Repositories obtained from Discover keep their discovery
// mode, which lets linked worktrees with a .git file be reopened.
//
// Returns ErrDescriptorExtraction if r is nil or its filesystem is not the
// local OS filesystem. No repository I/O is performed.
func DescriptorFromRepository(r *Repository) (Descriptor, error) {
	if r == nil || r.repo == nil {
		return Descriptor{}, ErrDescriptorExtraction
	}

	root, ok := diskRoot(r.fs)
	if !ok {
		return Descriptor{}, ErrDescriptorExtraction
	}

	var opts []DescriptorOption
	if r.discovered {
		opts = append(opts, WithDiscovery())
	}

	d, err := NewDescriptor(root, opts...)
	if err != nil {
		return Descriptor{}, errors.Join(ErrDescriptorExtraction, err)
	}
	return d, nil
}

// Path returns the normalized absolute path of the repository.
func (d Descriptor) Path() string {
	return d.path
}

// Discover reports whether the repository is located by searching parent
// directories of Path.
func (d Descriptor) Discover() bool {
	return d.discover
}

// IsZero reports whether d is the zero Descriptor.
func (d Descriptor) IsZero() bool {
	return d == Descriptor{}
}

func (d Descriptor) String() string {
	if d.discover {
		return d.path + " (discover)"
	}
	return d.path
}

// Open opens a new handle to the repository d identifies. This is the
// operation DefaultOpener performs.
func (d Descriptor) Open() (*Repository, error) {
	if d.IsZero() {
		return nil, ErrInvalidPath
	}
	if d.discover {
		return Discover(d.path)
	}
	return Open(d.path)
}

func normalizePath(path string) (string, error) {
	if path == "" {
		return "", invalidPath(path, errors.New("path is empty"))
	}
	if strings.ContainsRune(path, 0) {
		return "", invalidPath(path, errors.New("path contains NUL byte"))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", invalidPath(path, err)
	}

	resolved, err := resolveSymlinks(abs)
	if err != nil {
		return "", invalidPath(path, err)
	}
	return resolved, nil
}

// resolveSymlinks evaluates the symlinks in an absolute, clean path. Missing
// trailing elements are kept as they are.
func resolveSymlinks(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	parent := filepath.Dir(path)
	if parent == path {
		return path, nil
	}

	resolvedParent, err := resolveSymlinks(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(path)), nil
}
