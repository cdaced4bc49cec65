package toolbar

import (
	"fmt"
	"net/url"

	"github.com/platinummonkey/pluginlinks/pkg/httputil"
	"github.com/platinummonkey/pluginlinks/pkg/plugins"
)

// NonceParam is the query argument carrying the toggle token
const NonceParam = "_wpnonce"

// TokenIssuer creates action-bound tokens
type TokenIssuer interface {
	Create(action string) (string, error)
}

// NonceAction is the token action guarding a toggle of file
func NonceAction(action, file string) string {
	return action + "-plugin_" + file
}

// EncodeRedirect encodes a return target for the redirect parameter.
// DecodeRedirect reverses it exactly.
func EncodeRedirect(target string) string {
	return url.PathEscape(target)
}

// DecodeRedirect reverses EncodeRedirect
func DecodeRedirect(encoded string) (string, error) {
	return url.PathUnescape(encoded)
}

// LinkBuilder produces toggle links for plugin entries
type LinkBuilder struct {
	adminURL      string
	redirectParam string
	tokens        TokenIssuer
}

// NewLinkBuilder creates a LinkBuilder. redirectParam is the variant's
// "<prefix>_redirect_to" argument.
func NewLinkBuilder(adminURL, redirectParam string, tokens TokenIssuer) *LinkBuilder {
	return &LinkBuilder{adminURL: adminURL, redirectParam: redirectParam, tokens: tokens}
}

// PluginsURL is the plugins screen in the admin area
func (b *LinkBuilder) PluginsURL() string {
	return httputil.AdminURL(b.adminURL, "plugins.php")
}

// ToggleURL returns the link that flips d's state and then returns to current
func (b *LinkBuilder) ToggleURL(d plugins.Descriptor, current string) (string, error) {
	action := d.ToggleAction()

	token, err := b.tokens.Create(NonceAction(action, d.File))
	if err != nil {
		return "", fmt.Errorf("failed to create toggle nonce for %s: %w", d.File, err)
	}

	q := url.Values{}
	q.Set("action", action)
	q.Set("plugin", d.File)
	q.Set(b.redirectParam, EncodeRedirect(current))
	q.Set(NonceParam, token)

	return b.PluginsURL() + "?" + q.Encode(), nil
}
