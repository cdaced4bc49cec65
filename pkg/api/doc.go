// Package api serves the admin endpoints the plugin toolbar talks to.
//
// Routes live under the path of the configured admin URL (by default
// /wp-admin/):
//
//	GET plugins.php                       list plugins, flushing the snapshot
//	GET plugins.php?action=..&plugin=..   toggle a plugin and redirect back
//	GET admin.php?page=<slug>             plugin-owned admin page
//	GET toolbar                           the toolbar menu (JSON or HTML)
//	GET menu                              the Plugins admin menu
//
// Health and metrics endpoints are served separately, see
// observability.RegisterHealthRoutes.
package api
