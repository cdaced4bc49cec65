package api

import (
	"net/http"
	"net/url"

	"github.com/platinummonkey/pluginlinks/pkg/app"
	"github.com/platinummonkey/pluginlinks/pkg/httputil"
	"github.com/platinummonkey/pluginlinks/pkg/observability"
	"github.com/platinummonkey/pluginlinks/pkg/plugins"
	"github.com/platinummonkey/pluginlinks/pkg/toolbar"
)

// PluginList is the plugins screen response
type PluginList struct {
	Plugins []plugins.Descriptor `json:"plugins"`
	Total   int                  `json:"total"`
}

// AdminPage is the response of a plugin-owned admin page
type AdminPage struct {
	Page   string `json:"page"`
	Plugin string `json:"plugin"`
}

// pluginsPage handles GET plugins.php: a toggle when an action is present,
// otherwise the plugin list.
func (s *Server) pluginsPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("action") != "" {
		s.togglePlugin(w, r)
		return
	}
	s.listPlugins(w, r)
}

func (s *Server) listPlugins(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := plugins.Status(httputil.QueryParam(r, "plugin_status", ""))
	switch status {
	case "", plugins.StatusActive, plugins.StatusInactive:
	default:
		httputil.WriteBadRequest(w, "plugin_status must be active or inactive")
		return
	}

	// Loading the plugins screen always rebuilds the snapshot
	if err := s.app.Cache.Flush(ctx); err != nil {
		observability.FromContext(ctx).WithError(err).Warn("Failed to flush plugin cache")
	}

	list, err := s.app.Plugins(ctx, status)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, PluginList{Plugins: list, Total: len(list)})
}

func (s *Server) togglePlugin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	action := q.Get("action")

	if action != app.ActionActivate && action != app.ActionDeactivate {
		httputil.WriteBadRequest(w, "unknown action")
		return
	}
	file, ok := httputil.RequireQuery(w, r, "plugin")
	if !ok {
		return
	}
	ctx = observability.WithPlugin(ctx, file)

	if err := s.app.Signer.Verify(q.Get(toolbar.NonceParam), toolbar.NonceAction(action, file)); err != nil {
		observability.FromContext(ctx).WithError(err).Warnf("Rejected %s", action)
		httputil.WriteForbidden(w, "The link you followed has expired.")
		return
	}

	page := "plugins.php?" + action + "=true"
	if err := s.app.Toggle(ctx, action, file); err != nil {
		observability.FromContext(ctx).WithError(err).Errorf("Failed to %s plugin", action)
		page = "plugins.php?error=true&plugin=" + url.QueryEscape(file)
	}

	location := httputil.AdminURL(s.app.Config.Admin.BaseURL, page)
	httputil.WriteRedirect(w, r, s.app.Interceptor.Filter(ctx, location, r))
}

// adminPage handles GET admin.php?page=<slug>. Pages of inactive or unknown
// plugins are access denied, which a revive token turns into a redirect to
// the plugins screen.
func (s *Server) adminPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug, ok := httputil.RequireQuery(w, r, "page")
	if !ok {
		return
	}

	owner, found, err := s.app.Host.PageOwner(ctx, slug)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	if found {
		active, err := s.app.Host.IsActive(ctx, owner)
		if err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
		if active {
			httputil.WriteSuccess(w, AdminPage{Page: slug, Plugin: owner})
			return
		}
	}

	if location, ok := s.app.Interceptor.HandleAccessDenied(ctx, r); ok {
		httputil.WriteRedirect(w, r, location)
		return
	}
	httputil.WriteForbidden(w, "Sorry, you are not allowed to access this page.")
}

// toolbar handles GET toolbar. Toggle links return to httputil.ReturnTarget.
func (s *Server) toolbar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	network, err := httputil.QueryFlag(r, "network")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	bar, err := s.app.RenderToolbar(ctx, s.app.Scope(network), httputil.ReturnTarget(r))
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	if httputil.WantsHTML(r) {
		httputil.WriteHTML(w, http.StatusOK, bar.RenderHTML)
		return
	}
	httputil.WriteSuccess(w, bar)
}

func (s *Server) menu(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, s.app.Menu)
}
