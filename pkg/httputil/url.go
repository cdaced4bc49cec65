package httputil

import (
	"net/url"
	"strings"
)

// AdminURL joins an admin base URL and a page such as "plugins.php?x=1"
func AdminURL(base, page string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(page, "/")
}

// StripQueryArgs removes the named query arguments from raw while leaving
// every other byte of the URL untouched, so ordering and encoding of the
// remaining arguments survive.
func StripQueryArgs(raw string, keys ...string) string {
	base, fragment, hasFragment := strings.Cut(raw, "#")
	path, query, hasQuery := strings.Cut(base, "?")
	if !hasQuery {
		return raw
	}

	kept := make([]string, 0, strings.Count(query, "&")+1)
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		name, _, _ := strings.Cut(pair, "=")
		if decoded, err := url.QueryUnescape(name); err == nil {
			name = decoded
		}
		if containsString(keys, name) {
			continue
		}
		kept = append(kept, pair)
	}

	out := path
	if len(kept) > 0 {
		out += "?" + strings.Join(kept, "&")
	}
	if hasFragment {
		out += "#" + fragment
	}
	return out
}

// AddQueryArg appends key=value to raw, before any fragment, replacing an
// existing argument of the same name.
func AddQueryArg(raw, key, value string) string {
	raw = StripQueryArgs(raw, key)
	base, fragment, hasFragment := strings.Cut(raw, "#")

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
		if strings.HasSuffix(base, "?") || strings.HasSuffix(base, "&") {
			sep = ""
		}
	}
	out := base + sep + url.QueryEscape(key) + "=" + url.QueryEscape(value)
	if hasFragment {
		out += "#" + fragment
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
