package plugins

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemHost_EnumerateOrdersByName(t *testing.T) {
	host, root := newTestHost(t, false)

	writeDirPlugin(t, root, "zeta", &Metadata{Name: "alpha tools"})
	writeDirPlugin(t, root, "akismet", &Metadata{Name: "Akismet"})
	require.NoError(t, SaveMetadata(&Metadata{Name: "Hello Dolly"}, filepath.Join(root, "hello.yaml")))

	// Ignored: hidden entries, non-manifest files, dirs without manifest, invalid manifests
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("x"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0755))
	writeDirPlugin(t, root, "broken", &Metadata{})

	entries, err := host.Enumerate(context.Background())
	require.NoError(t, err)

	var files []string
	for _, e := range entries {
		files = append(files, e.File)
	}
	assert.Equal(t, []string{"akismet/plugin.yaml", "zeta/plugin.yaml", "hello.yaml"}, files)
}

func TestFilesystemHost_EnumerateMissingRoot(t *testing.T) {
	host, root := newTestHost(t, false)
	require.NoError(t, os.RemoveAll(root))

	entries, err := host.Enumerate(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, entries)

	listing, err := host.ListDirectory(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, listing)
}

func TestFilesystemHost_ListDirectory(t *testing.T) {
	host, root := newTestHost(t, false)
	writeDirPlugin(t, root, "b", &Metadata{Name: "B"})
	writeDirPlugin(t, root, "a", &Metadata{Name: "A"})

	listing, err := host.ListDirectory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{".", "..", "a", "b"}, listing)
}

func TestFilesystemHost_ReadMetadataRejectsTraversal(t *testing.T) {
	host, _ := newTestHost(t, false)
	ctx := context.Background()

	for _, file := range []string{"", "../etc/passwd", "/abs/plugin.yaml", "a/../../b.yaml", `a\b.yaml`} {
		_, err := host.ReadMetadata(ctx, file)
		assert.ErrorIs(t, err, ErrInvalidFile, file)
	}

	_, err := host.ReadMetadata(ctx, "missing/plugin.yaml")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFilesystemHost_PageOwner(t *testing.T) {
	host, root := newTestHost(t, false)
	file := writeDirPlugin(t, root, "seo", &Metadata{Name: "SEO", AdminPages: []string{"seo-settings"}})

	owner, ok, err := host.PageOwner(context.Background(), "seo-settings")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, file, owner)

	_, ok, err = host.PageOwner(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}
