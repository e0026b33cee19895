package tlrepo

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDescriptor_Equality(t *testing.T) {
	dir := t.TempDir()

	first, err := NewDescriptor(dir)
	require.NoError(t, err)
	second, err := NewDescriptor(dir)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, first == second)

	// Equal descriptors must collide as map keys
	m := map[Descriptor]int{first: 1}
	m[second]++
	assert.Len(t, m, 1)
	assert.Equal(t, 2, m[first])
}

func TestNewDescriptor_Normalization(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	want, err := NewDescriptor(dir)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(want.Path()))

	tests := []struct {
		name string
		path string
	}{
		{name: "trailing separator", path: dir + string(filepath.Separator)},
		{name: "dot element", path: filepath.Join(dir, ".") + string(filepath.Separator) + "."},
		{name: "parent element", path: dir + string(filepath.Separator) + "sub" + string(filepath.Separator) + ".."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewDescriptor(tt.path)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestNewDescriptor_RelativePath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	want, err := NewDescriptor(dir)
	require.NoError(t, err)

	got, err := NewDescriptor(".")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNewDescriptor_Symlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}

	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Mkdir(target, 0o755))
	require.NoError(t, os.Symlink(target, link))

	t.Run("existing path", func(t *testing.T) {
		viaTarget, err := NewDescriptor(target)
		require.NoError(t, err)
		viaLink, err := NewDescriptor(link)
		require.NoError(t, err)

		assert.Equal(t, viaTarget, viaLink)
	})

	t.Run("missing path below symlink", func(t *testing.T) {
		viaTarget, err := NewDescriptor(filepath.Join(target, "missing", "repo"))
		require.NoError(t, err)
		viaLink, err := NewDescriptor(filepath.Join(link, "missing", "repo"))
		require.NoError(t, err)

		assert.Equal(t, viaTarget, viaLink)
		assert.Equal(t, "repo", filepath.Base(viaLink.Path()))
	})
}

func TestNewDescriptor_NoCaseFolding(t *testing.T) {
	dir := t.TempDir()

	lower, err := NewDescriptor(filepath.Join(dir, "missing-repo"))
	require.NoError(t, err)
	upper, err := NewDescriptor(filepath.Join(dir, "MISSING-REPO"))
	require.NoError(t, err)

	assert.NotEqual(t, lower, upper)
}

func TestNewDescriptor_InvalidPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("not a directory"), 0o644))

	tests := []struct {
		name string
		path string
	}{
		{name: "empty", path: ""},
		{name: "NUL byte", path: "/tmp/repo\x00evil"},
	}
	if runtime.GOOS != "windows" {
		tests = append(tests, struct {
			name string
			path string
		}{name: "file used as directory", path: filepath.Join(file, "repo")})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDescriptor(tt.path)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidPath)
			assert.Equal(t, platformerrors.CodeInvalidInput, platformerrors.GetCode(err))
			assert.True(t, d.IsZero())
		})
	}
}

func TestNewDescriptor_WithDiscovery(t *testing.T) {
	dir := t.TempDir()

	plain, err := NewDescriptor(dir)
	require.NoError(t, err)
	discovering, err := NewDescriptor(dir, WithDiscovery())
	require.NoError(t, err)

	assert.False(t, plain.Discover())
	assert.True(t, discovering.Discover())
	assert.Equal(t, plain.Path(), discovering.Path())
	assert.NotEqual(t, plain, discovering)
	assert.Contains(t, discovering.String(), "(discover)")
	assert.Equal(t, plain.Path(), plain.String())
}

func TestDescriptor_Zero(t *testing.T) {
	var d Descriptor
	assert.True(t, d.IsZero())

	_, err := d.Open()
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestDescriptorFromRepository(t *testing.T) {
	t.Run("on-disk repository", func(t *testing.T) {
		dir := t.TempDir()
		repo, err := Init(dir)
		require.NoError(t, err)

		got, err := DescriptorFromRepository(repo)
		require.NoError(t, err)

		want, err := NewDescriptor(dir)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.False(t, got.Discover())
	})

	t.Run("repository on a rooted os filesystem", func(t *testing.T) {
		base := t.TempDir()
		repo, err := Init("/myrepo", WithFilesystem(osfs.New(base)))
		require.NoError(t, err)

		got, err := DescriptorFromRepository(repo)
		require.NoError(t, err)

		want, err := NewDescriptor(filepath.Join(base, "myrepo"))
		require.NoError(t, err)
		assert.Equal(t, want, got)

		// The descriptor reopens the same repository, not /myrepo
		l := NewLocal()
		defer func() { _ = l.Close() }()
		reopened, err := New(got).Get(l)
		require.NoError(t, err)
		assert.Equal(t, want.Path(), reopened.Path())
	})

	t.Run("bare repository opened on a rooted os filesystem", func(t *testing.T) {
		base := t.TempDir()
		fs := osfs.New(base)
		_, err := Init("/bare.git", WithFilesystem(fs), WithBare())
		require.NoError(t, err)
		repo, err := Open("/bare.git", WithFilesystem(fs))
		require.NoError(t, err)

		got, err := DescriptorFromRepository(repo)
		require.NoError(t, err)

		want, err := NewDescriptor(filepath.Join(base, "bare.git"))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("discovered repository keeps discovery", func(t *testing.T) {
		dir := t.TempDir()
		_, err := Init(dir)
		require.NoError(t, err)
		sub := filepath.Join(dir, "sub")
		require.NoError(t, os.MkdirAll(sub, 0o755))

		repo, err := Discover(sub)
		require.NoError(t, err)

		got, err := DescriptorFromRepository(repo)
		require.NoError(t, err)

		want, err := NewDescriptor(dir, WithDiscovery())
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.True(t, got.Discover())
	})

	t.Run("in-memory repository", func(t *testing.T) {
		repo, err := Init("/repo", WithFilesystem(memfs.New()))
		require.NoError(t, err)

		d, err := DescriptorFromRepository(repo)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDescriptorExtraction)
		assert.True(t, d.IsZero())
	})

	t.Run("nil repository", func(t *testing.T) {
		_, err := DescriptorFromRepository(nil)
		assert.ErrorIs(t, err, ErrDescriptorExtraction)
	})

	t.Run("repository without path", func(t *testing.T) {
		_, err := DescriptorFromRepository(&Repository{})
		assert.ErrorIs(t, err, ErrDescriptorExtraction)
	})
}

func TestDescriptor_Open(t *testing.T) {
	dir := t.TempDir()
	_, err := Init(dir)
	require.NoError(t, err)

	t.Run("plain", func(t *testing.T) {
		d, err := NewDescriptor(dir)
		require.NoError(t, err)

		repo, err := d.Open()
		require.NoError(t, err)
		assert.Equal(t, d.Path(), repo.Path())
		require.NoError(t, repo.Close())
	})

	t.Run("discover from subdirectory", func(t *testing.T) {
		sub := filepath.Join(dir, "nested", "deeper")
		require.NoError(t, os.MkdirAll(sub, 0o755))

		d, err := NewDescriptor(sub, WithDiscovery())
		require.NoError(t, err)

		repo, err := d.Open()
		require.NoError(t, err)

		root, err := NewDescriptor(dir)
		require.NoError(t, err)
		found, err := NewDescriptor(repo.Path())
		require.NoError(t, err)
		assert.Equal(t, root, found)
	})

	t.Run("plain descriptor does not search parents", func(t *testing.T) {
		sub := filepath.Join(dir, "plain-sub")
		require.NoError(t, os.MkdirAll(sub, 0o755))

		d, err := NewDescriptor(sub)
		require.NoError(t, err)

		_, err = d.Open()
		require.Error(t, err)
		assert.Equal(t, platformerrors.CodeNotFound, platformerrors.GetCode(err))
	})
}
