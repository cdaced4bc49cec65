// Package adminmenu builds the Plugins entry of the admin menu.
package adminmenu

import (
	"github.com/platinummonkey/pluginlinks/pkg/config"
	"github.com/platinummonkey/pluginlinks/pkg/httputil"
)

// ActivePluginsPage is the link of the "Active Plugins" submenu
const ActivePluginsPage = "plugins.php?plugin_status=active"

// Item is one submenu entry
type Item struct {
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	URL        string `json:"url"`
	Capability string `json:"capability"`
}

// Menu is a top-level admin menu with its submenu
type Menu struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	URL     string `json:"url"`
	Submenu []Item `json:"submenu"`
}

// AddSubmenu inserts item at position, or appends when position is out of range
func (m *Menu) AddSubmenu(item Item, position int) {
	if position < 0 || position >= len(m.Submenu) {
		m.Submenu = append(m.Submenu, item)
		return
	}
	m.Submenu = append(m.Submenu, Item{})
	copy(m.Submenu[position+1:], m.Submenu[position:])
	m.Submenu[position] = item
}

// Build returns the Plugins menu for variant. Variants with the Active
// Plugins feature get that entry first, pointing at the filtered list.
func Build(variant config.Variant, adminURL string) Menu {
	url := func(page string) string { return httputil.AdminURL(adminURL, page) }

	m := Menu{
		Title: "Plugins",
		Slug:  "plugins.php",
		URL:   url("plugins.php"),
		Submenu: []Item{
			{Title: "Installed Plugins", Slug: "plugins.php", URL: url("plugins.php"), Capability: "activate_plugins"},
			{Title: "Add New Plugin", Slug: "plugin-install.php", URL: url("plugin-install.php"), Capability: "install_plugins"},
			{Title: "Plugin File Editor", Slug: "plugin-editor.php", URL: url("plugin-editor.php"), Capability: "edit_plugins"},
		},
	}

	if variant.ActivePluginsSubmenu {
		m.AddSubmenu(Item{
			Title:      "Active Plugins",
			Slug:       "active-plugins",
			Capability: "manage_options",
		}, 0)
		// the first entry always links to the active list
		m.Submenu[0].URL = url(ActivePluginsPage)
	}

	return m
}
