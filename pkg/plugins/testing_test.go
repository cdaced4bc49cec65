package plugins

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/platinummonkey/pluginlinks/pkg/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// writeDirPlugin creates <root>/<dir>/plugin.yaml
func writeDirPlugin(t *testing.T, root, dir string, meta *Metadata) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0755))
	require.NoError(t, SaveMetadata(meta, filepath.Join(root, dir, ManifestFile)))
	return dir + "/" + ManifestFile
}

// newTestHost builds a host over a temp directory and memory store
func newTestHost(t *testing.T, multisite bool) (*FilesystemHost, string) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewMemoryStore(64)
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewFilesystemHost(root, store, multisite, log), root
}
