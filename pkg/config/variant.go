package config

import (
	"fmt"
	"sort"
)

// Variant carries the naming that distinguishes the two products built from
// this code base.
type Variant struct {
	// Slug is the toolbar node id and asset handle
	Slug string `yaml:"slug" toml:"slug"`
	// Prefix namespaces stored keys and request parameters
	Prefix string `yaml:"prefix" toml:"prefix"`
	// Label is the top-level toolbar title
	Label string `yaml:"label" toml:"label"`
	// TextDomain is the translation domain
	TextDomain string `yaml:"text_domain" toml:"text_domain"`
	// ActivePluginsSubmenu adds the "Active Plugins" admin submenu
	ActivePluginsSubmenu bool `yaml:"active_plugins_submenu" toml:"active_plugins_submenu"`
}

// Built-in variants
var (
	PluginLinks = Variant{
		Slug:       "plugin-links",
		Prefix:     "pluginlinks",
		Label:      "Plugins",
		TextDomain: "plugin-links",
	}

	SmartPluginActivate = Variant{
		Slug:                 "smart-plugin-activate",
		Prefix:               "smartpluginactivate",
		Label:                "Plugins",
		TextDomain:           "smart-plugin-activate",
		ActivePluginsSubmenu: true,
	}
)

var variants = map[string]Variant{
	PluginLinks.Slug:         PluginLinks,
	SmartPluginActivate.Slug: SmartPluginActivate,
}

// VariantByName looks up a built-in variant by slug
func VariantByName(name string) (Variant, error) {
	v, ok := variants[name]
	if !ok {
		return Variant{}, fmt.Errorf("unknown variant %q (must be one of %v)", name, VariantNames())
	}
	return v, nil
}

// VariantNames lists the built-in variant slugs
func VariantNames() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GroupID is the id of the group node holding plugin entries
func (v Variant) GroupID() string {
	return v.Slug + "-group"
}

// RedirectParam is the request parameter carrying the return target
func (v Variant) RedirectParam() string {
	return v.Prefix + "_redirect_to"
}

// ReviveParam is the request parameter carrying the revive token
func (v Variant) ReviveParam() string {
	return v.Prefix + "_revive"
}

// TransientKey is the store key of the plugin snapshot
func (v Variant) TransientKey() string {
	return v.Prefix + "_plugins"
}
