// Package redirect sends the admin back to the page a toggle link was
// clicked on, and rescues them from the access-denied screen of a plugin
// they just deactivated.
package redirect

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/pluginlinks/pkg/config"
	"github.com/platinummonkey/pluginlinks/pkg/httputil"
	"github.com/platinummonkey/pluginlinks/pkg/observability"
	"github.com/platinummonkey/pluginlinks/pkg/toolbar"
)

// ReviveAction is the token action of the revive argument
const ReviveAction = "revive"

// Tokens is the subset of nonce.Signer the interceptor needs
type Tokens interface {
	Create(action string) (string, error)
	Verify(token, action string) error
	Consume(ctx context.Context, token, action string) error
}

// Interceptor rewrites post-toggle redirects
type Interceptor struct {
	variant  config.Variant
	tokens   Tokens
	adminURL string
	allowed  map[string]bool
	log      *logrus.Logger
	metrics  *observability.Metrics
}

// Option configures an Interceptor
type Option func(*Interceptor)

// WithLogger sets the logger
func WithLogger(log *logrus.Logger) Option {
	return func(i *Interceptor) { i.log = log }
}

// WithMetrics records redirect outcomes
func WithMetrics(m *observability.Metrics) Option {
	return func(i *Interceptor) { i.metrics = m }
}

// New creates an Interceptor. The admin URL's host is always an allowed
// redirect host.
func New(variant config.Variant, tokens Tokens, adminURL string, allowedHosts []string, opts ...Option) (*Interceptor, error) {
	u, err := url.Parse(adminURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse admin URL: %w", err)
	}

	i := &Interceptor{
		variant:  variant,
		tokens:   tokens,
		adminURL: adminURL,
		allowed:  make(map[string]bool, len(allowedHosts)+1),
		log:      logrus.New(),
	}
	if host := u.Hostname(); host != "" {
		i.allowed[strings.ToLower(host)] = true
	}
	for _, h := range allowedHosts {
		i.allowed[strings.ToLower(h)] = true
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Filter is applied to the location the host is about to redirect to after a
// toggle. When the request carries a return target and a valid toggle token,
// the target replaces location; otherwise location is returned unchanged.
func (i *Interceptor) Filter(ctx context.Context, location string, r *http.Request) string {
	if !strings.Contains(location, "plugins.php") || strings.Contains(location, "error=true") {
		return location
	}

	q := r.URL.Query()
	encoded := q.Get(i.variant.RedirectParam())
	if encoded == "" {
		return location
	}

	action, plugin := q.Get("action"), q.Get("plugin")
	if err := i.tokens.Verify(q.Get(toolbar.NonceParam), toolbar.NonceAction(action, plugin)); err != nil {
		i.log.Debugf("not rewriting redirect for %s %s: %v", action, plugin, err)
		i.metrics.RecordRedirect(false)
		return location
	}

	target, err := toolbar.DecodeRedirect(encoded)
	if err != nil {
		i.log.Debugf("not rewriting redirect: undecodable target: %v", err)
		i.metrics.RecordRedirect(false)
		return location
	}

	target = Sanitize(target)
	if !i.Allowed(target) {
		i.log.Debugf("not rewriting redirect: target %q is not allowed", target)
		i.metrics.RecordRedirect(false)
		return location
	}

	if action == "deactivate" {
		token, err := i.tokens.Create(ReviveAction)
		if err != nil {
			i.log.Warnf("failed to create revive token: %v", err)
		} else {
			target = httputil.AddQueryArg(target, i.variant.ReviveParam(), token)
		}
	}

	i.metrics.RecordRedirect(true)
	return target
}

// HandleAccessDenied is called when the host is about to refuse a page. A
// valid, unused revive token in the request sends the admin to the plugins
// screen instead.
func (i *Interceptor) HandleAccessDenied(ctx context.Context, r *http.Request) (string, bool) {
	token := r.URL.Query().Get(i.variant.ReviveParam())
	if token == "" {
		return "", false
	}

	if err := i.tokens.Consume(ctx, token, ReviveAction); err != nil {
		i.log.Debugf("ignoring revive token: %v", err)
		i.metrics.RecordRevive(false)
		return "", false
	}

	i.metrics.RecordRevive(true)
	return httputil.AdminURL(i.adminURL, "plugins.php"), true
}

// Allowed reports whether target is a safe redirect: a relative path, or an
// absolute http(s) URL on an allowed host.
func (i *Interceptor) Allowed(target string) bool {
	// browsers treat backslashes like slashes in the authority position
	if target == "" || strings.HasPrefix(strings.ReplaceAll(target, `\`, "/"), "//") {
		return false
	}

	u, err := url.Parse(target)
	if err != nil {
		return false
	}

	if u.Scheme == "" && u.Host == "" {
		return !strings.HasPrefix(u.Path, "//")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return i.allowed[strings.ToLower(u.Hostname())]
}

// Sanitize strips control characters and surrounding whitespace from a
// redirect target.
func Sanitize(target string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, target))
}
