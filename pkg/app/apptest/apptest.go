// Package apptest builds throwaway applications over a temporary plugin
// directory and an in-memory store.
package apptest

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/pluginlinks/pkg/app"
	"github.com/platinummonkey/pluginlinks/pkg/config"
	"github.com/platinummonkey/pluginlinks/pkg/plugins"
	"github.com/platinummonkey/pluginlinks/pkg/storage"
)

// AdminURL is the admin base URL of test applications
const AdminURL = "http://example.com/wp-admin/"

// Config returns a resolved configuration rooted at pluginRoot
func Config(t testing.TB, pluginRoot string, variant config.Variant) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Type = "memory"
	cfg.Plugins.Root = pluginRoot
	cfg.Plugins.Variant = variant.Slug
	cfg.Admin.BaseURL = AdminURL
	cfg.Nonce.Secret = "test-secret"
	require.NoError(t, cfg.Resolve())
	return cfg
}

// New builds an App over an empty temporary plugin root. configure runs on
// the resolved configuration before the App is built.
func New(t testing.TB, variant config.Variant, configure ...func(*config.Config)) (*app.App, string) {
	t.Helper()
	root := t.TempDir()

	store, err := storage.NewMemoryStore(1024)
	require.NoError(t, err)

	cfg := Config(t, root, variant)
	for _, fn := range configure {
		fn(cfg)
	}

	a, err := app.New(context.Background(), cfg, DiscardLogger(), app.WithStore(store))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a, root
}

// WritePlugin creates <root>/<dir>/plugin.yaml and returns its identifier
func WritePlugin(t testing.TB, root, dir string, meta *plugins.Metadata) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0755))
	require.NoError(t, plugins.SaveMetadata(meta, filepath.Join(root, dir, plugins.ManifestFile)))
	return dir + "/" + plugins.ManifestFile
}

// DiscardLogger returns a logger that writes nowhere
func DiscardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
