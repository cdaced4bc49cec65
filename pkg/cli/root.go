package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/pluginlinks/pkg/app"
	"github.com/platinummonkey/pluginlinks/pkg/config"
	"github.com/platinummonkey/pluginlinks/pkg/observability"
)

// Loader builds the application for a command. configPath is the value of
// the --config flag and may be empty.
type Loader func(ctx context.Context, configPath string) (*app.App, error)

// DefaultLoader loads configuration from the file and PLUGINLINKS_*
// environment and opens the configured store.
func DefaultLoader(ctx context.Context, configPath string) (*app.App, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath == "" {
		cfg, err = config.LoadConfig()
	} else {
		cfg, err = config.LoadConfigFrom(configPath)
	}
	if err != nil {
		return nil, err
	}
	log := observability.NewLogrus(cfg.Observability.LogLevel, nil)
	return app.New(ctx, cfg, log)
}

// NewRootCommand creates the pluginctl command tree
func NewRootCommand(load Loader) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "pluginctl",
		Short:         "Inspect and toggle plugins behind the pluginlinks toolbar",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "configuration file (.yaml, .yml or .toml)")

	// withApp loads the application for the duration of one command
	var withApp appRunner = func(run func(cmd *cobra.Command, args []string, a *app.App) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd.Context(), configPath)
			if err != nil {
				return fmt.Errorf("failed to load application: %w", err)
			}
			defer a.Close()
			return run(cmd, args, a)
		}
	}

	root.AddCommand(
		newListCommand(withApp),
		newToggleCommand(app.ActionActivate, withApp),
		newToggleCommand(app.ActionDeactivate, withApp),
		newToolbarCommand(withApp),
		newFlushCommand(withApp),
		newPurgeCommand(withApp),
	)
	return root
}

// appRunner adapts a command body that needs the application into a RunE
type appRunner func(run func(cmd *cobra.Command, args []string, a *app.App) error) func(*cobra.Command, []string) error
