package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/pluginlinks/pkg/app"
	"github.com/platinummonkey/pluginlinks/pkg/app/apptest"
	"github.com/platinummonkey/pluginlinks/pkg/config"
	"github.com/platinummonkey/pluginlinks/pkg/plugins"
	"github.com/platinummonkey/pluginlinks/pkg/storage"
	"github.com/platinummonkey/pluginlinks/pkg/toolbar"
)

type cliFixture struct {
	app        *app.App
	root       string
	configPath string
}

func newCLIFixture(t *testing.T, configure ...func(*config.Config)) *cliFixture {
	t.Helper()
	a, root := apptest.New(t, config.PluginLinks, configure...)
	return &cliFixture{app: a, root: root}
}

// run executes pluginctl against a copy of the fixture's application, so
// state survives across runs.
func (f *cliFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	load := func(ctx context.Context, configPath string) (*app.App, error) {
		f.configPath = configPath
		shared := *f.app
		shared.Store = nopCloser{f.app.Store}
		return &shared, nil
	}

	var out bytes.Buffer
	cmd := NewRootCommand(load)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand(DefaultLoader)
	assert.Equal(t, "pluginctl", cmd.Use)

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"list", "activate", "deactivate", "toolbar", "flush", "purge"}, names)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestListCommand(t *testing.T) {
	f := newCLIFixture(t)
	hello := apptest.WritePlugin(t, f.root, "hello", &plugins.Metadata{Name: "Hello Dolly"})
	apptest.WritePlugin(t, f.root, "akismet", &plugins.Metadata{Name: "Akismet"})
	require.NoError(t, f.app.Toggle(context.Background(), app.ActionActivate, hello))

	out, err := f.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello Dolly")
	assert.Contains(t, out, "akismet/plugin.yaml")
	assert.Contains(t, out, "2 plugins, 1 active")

	out, err = f.run(t, "list", "--status", "active", "--json", "--config", "/etc/pluginlinks.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/etc/pluginlinks.yaml", f.configPath)

	var list []plugins.Descriptor
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, hello, list[0].File)

	_, err = f.run(t, "list", "--status", "maybe")
	assert.Error(t, err)
}

func TestListCommandEmpty(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run(t, "list", "--refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "No plugins installed.")
}

func TestToggleCommands(t *testing.T) {
	f := newCLIFixture(t)
	hello := apptest.WritePlugin(t, f.root, "hello", &plugins.Metadata{Name: "Hello Dolly"})

	out, err := f.run(t, "activate", hello)
	require.NoError(t, err)
	assert.Contains(t, out, "Activated "+hello)

	active, err := f.app.Host.IsActive(context.Background(), hello)
	require.NoError(t, err)
	assert.True(t, active)

	out, err = f.run(t, "deactivate", hello)
	require.NoError(t, err)
	assert.Contains(t, out, "Deactivated "+hello)

	_, err = f.run(t, "activate", "missing/plugin.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, plugins.ErrNotFound)

	_, err = f.run(t, "activate")
	assert.Error(t, err)
}

func TestNetworkToggleCommands(t *testing.T) {
	f := newCLIFixture(t, func(cfg *config.Config) { cfg.Plugins.Multisite = true })
	hello := apptest.WritePlugin(t, f.root, "hello", &plugins.Metadata{Name: "Hello Dolly"})

	out, err := f.run(t, "activate", "--network", hello)
	require.NoError(t, err)
	assert.Contains(t, out, "Network activated "+hello)

	network, err := f.app.Host.IsActiveForNetwork(context.Background(), hello)
	require.NoError(t, err)
	assert.True(t, network)

	out, err = f.run(t, "deactivate", "--network", hello)
	require.NoError(t, err)
	assert.Contains(t, out, "Network deactivated "+hello)

	single := newCLIFixture(t)
	file := apptest.WritePlugin(t, single.root, "hello", &plugins.Metadata{Name: "Hello Dolly"})
	_, err = single.run(t, "activate", "--network", file)
	assert.ErrorIs(t, err, plugins.ErrNotMultisite)
}

func TestToolbarCommand(t *testing.T) {
	f := newCLIFixture(t)
	apptest.WritePlugin(t, f.root, "hello", &plugins.Metadata{Name: "Hello Dolly"})

	out, err := f.run(t, "toolbar", "--current", "/wp-admin/edit.php")
	require.NoError(t, err)

	var tree []toolbar.TreeNode
	require.NoError(t, json.Unmarshal([]byte(out), &tree))
	require.Len(t, tree, 1)
	assert.Equal(t, "plugin-links", tree[0].ID)

	out, err = f.run(t, "toolbar", "--html")
	require.NoError(t, err)
	assert.Contains(t, out, `id="wp-admin-bar-plugin-links_hello-dolly"`)
}

func TestFlushAndPurgeCommands(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run(t, "flush")
	require.NoError(t, err)
	assert.Contains(t, out, "Plugin snapshot flushed")

	out, err = f.run(t, "purge")
	require.NoError(t, err)
	assert.Contains(t, out, "Purged 0 expired transients")
}

func TestLoaderError(t *testing.T) {
	cmd := NewRootCommand(func(context.Context, string) (*app.App, error) {
		return nil, errors.New("no config")
	})
	cmd.SetArgs([]string{"flush"})
	cmd.SetOut(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no config")
}

func TestDefaultLoaderValidates(t *testing.T) {
	t.Setenv(config.EnvConfigFile, "")
	t.Setenv("PLUGINLINKS_NONCE_SECRET", "")

	_, err := DefaultLoader(context.Background(), "")
	assert.Error(t, err)
}

// nopCloser keeps the fixture's store open when a command closes its app
type nopCloser struct {
	storage.Store
}

func (nopCloser) Close() error { return nil }
