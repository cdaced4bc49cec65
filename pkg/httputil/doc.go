// Package httputil provides HTTP utilities shared by the admin handlers.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteHTML(w, http.StatusOK, bar.RenderHTML)
//	httputil.WriteForbidden(w, "The link you followed has expired.")
//	httputil.WriteRedirect(w, r, location)
//
// # Query Helpers
//
//	file, ok := httputil.RequireQuery(w, r, "plugin")
//	network, err := httputil.QueryFlag(r, "network")
//	current := httputil.ReturnTarget(r)
//
// # Admin URLs
//
// AdminURL joins the configured admin base with a page. StripQueryArgs and
// AddQueryArg edit a URL's query string without re-encoding the arguments they
// do not touch, which keeps a round-tripped redirect target byte-identical.
//
//	current := httputil.StripQueryArgs(r.URL.RequestURI(), "_wpnonce", "redirect_to")
//	next := httputil.AddQueryArg(target, "pluginlinks_revive", token)
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//	)
package httputil
