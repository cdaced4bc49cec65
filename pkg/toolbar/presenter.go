package toolbar

import (
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/pluginlinks/pkg/config"
	"github.com/platinummonkey/pluginlinks/pkg/httputil"
	"github.com/platinummonkey/pluginlinks/pkg/plugins"
)

// ManyPluginsThreshold is the count above which the top node is marked has-many
const ManyPluginsThreshold = 20

// Node classes
const (
	ClassHasMany  = "has-many"
	ClassIsActive = "is-active"
)

// Presenter writes the plugin menu into a toolbar
type Presenter struct {
	variant config.Variant
	links   *LinkBuilder
	log     *logrus.Logger
}

// NewPresenter creates a Presenter
func NewPresenter(variant config.Variant, links *LinkBuilder, log *logrus.Logger) *Presenter {
	if log == nil {
		log = logrus.New()
	}
	return &Presenter{variant: variant, links: links, log: log}
}

// Render adds the plugin menu for list to bar. Plugins that are network
// related in scope are skipped, and when nothing remains the top node is
// removed again. It returns the number of plugin entries added.
func (p *Presenter) Render(bar Toolbar, list []plugins.Descriptor, scope plugins.Scope, current string) (int, error) {
	if len(list) == 0 {
		return 0, nil
	}

	top := Node{
		ID:    p.variant.Slug,
		Title: p.variant.Label,
		Href:  p.links.PluginsURL(),
	}
	if len(list) > ManyPluginsThreshold {
		top.Meta.Class = ClassHasMany
	}
	bar.AddNode(top)
	bar.AddNode(Node{
		ID:     p.variant.GroupID(),
		Parent: p.variant.Slug,
		Group:  true,
	})

	visible := 0
	used := make(map[string]bool, len(list))
	for _, d := range list {
		if d.IsNetworkRelated(scope) {
			continue
		}

		href, err := p.links.ToggleURL(d, current)
		if err != nil {
			bar.RemoveNode(p.variant.Slug)
			return 0, err
		}

		node := Node{
			ID:     p.nodeID(d.Name, used),
			Title:  d.Name,
			Href:   href,
			Parent: p.variant.GroupID(),
		}
		if d.IsActive() {
			node.Meta.Class = ClassIsActive
		}
		bar.AddNode(node)
		visible++
	}

	if visible == 0 {
		p.log.Debugf("no site-level plugins to show, removing %s toolbar node", p.variant.Slug)
		bar.RemoveNode(p.variant.Slug)
	}

	return visible, nil
}

// nodeID derives a child id from name. Names that sanitise to an id already
// taken get a numeric suffix so every plugin keeps its own entry.
func (p *Presenter) nodeID(name string, used map[string]bool) string {
	base := p.variant.Slug + "_" + SanitizeTitle(name)
	id := base
	for n := 2; used[id]; n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	used[id] = true
	return id
}

// CurrentURL is the page a toggle should return to: the request URI minus
// the nonce and redirect arguments.
func (p *Presenter) CurrentURL(requestURI string) string {
	return httputil.StripQueryArgs(requestURI,
		NonceParam,
		"redirect_to",
		p.variant.RedirectParam(),
		p.variant.ReviveParam(),
	)
}
