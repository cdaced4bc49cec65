package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/pluginlinks/pkg/app"
	"github.com/platinummonkey/pluginlinks/pkg/plugins"
)

func newListCommand(withApp appRunner) *cobra.Command {
	var (
		status  string
		asJSON  bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed plugins",
		Example: `  # Every plugin
  pluginctl list

  # Only active plugins, as JSON
  pluginctl list --status active --json`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			switch plugins.Status(status) {
			case "", plugins.StatusActive, plugins.StatusInactive:
			default:
				return fmt.Errorf("invalid status %q: must be active or inactive", status)
			}

			if refresh {
				if err := a.Cache.Flush(cmd.Context()); err != nil {
					return err
				}
			}

			list, err := a.Plugins(cmd.Context(), plugins.Status(status))
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPluginTable(list))
			return nil
		}),
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (active or inactive)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "rebuild the plugin snapshot first")
	return cmd
}

func newToggleCommand(action string, withApp appRunner) *cobra.Command {
	var network bool

	cmd := &cobra.Command{
		Use:   action + " <file>",
		Short: fmt.Sprintf("%s a plugin on the current site", capitalize(action)),
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			file := args[0]
			toggle, verb := a.Toggle, capitalize(action)+"d"
			if network {
				toggle, verb = a.ToggleNetwork, "Network "+action+"d"
			}

			if err := toggle(cmd.Context(), action, file); err != nil {
				return fmt.Errorf("failed to %s %s: %w", action, file, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(verb+" "+file))
			return nil
		}),
	}

	cmd.Flags().BoolVar(&network, "network", false, fmt.Sprintf("%s for every site of a multisite network", action))
	return cmd
}

func newToolbarCommand(withApp appRunner) *cobra.Command {
	var (
		current string
		network bool
		asHTML  bool
	)

	cmd := &cobra.Command{
		Use:   "toolbar",
		Short: "Render the plugin toolbar menu",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			bar, err := a.RenderToolbar(cmd.Context(), a.Scope(network), current)
			if err != nil {
				return err
			}

			if asHTML {
				return bar.RenderHTML(cmd.OutOrStdout())
			}
			data, err := json.MarshalIndent(bar, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}),
	}

	cmd.Flags().StringVar(&current, "current", "/wp-admin/", "page the toggle links return to")
	cmd.Flags().BoolVar(&network, "network", false, "render for the network admin")
	cmd.Flags().BoolVar(&asHTML, "html", false, "print admin-bar HTML instead of JSON")
	return cmd
}

func newFlushCommand(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Drop the cached plugin snapshot",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			if err := a.Cache.Flush(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Plugin snapshot flushed"))
			return nil
		}),
	}
}

func newPurgeCommand(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove expired transients from the store",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			n, err := a.Purge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired transients\n", n)
			return nil
		}),
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
