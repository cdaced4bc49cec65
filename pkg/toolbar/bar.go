package toolbar

import (
	"encoding/json"
	"html/template"
	"io"
)

// Meta carries presentation hints for a node
type Meta struct {
	Class string `json:"class,omitempty"`
}

// Node is one toolbar menu entry
type Node struct {
	ID     string `json:"id"`
	Title  string `json:"title,omitempty"`
	Href   string `json:"href,omitempty"`
	Parent string `json:"parent,omitempty"`
	Group  bool   `json:"group,omitempty"`
	Meta   Meta   `json:"meta"`
}

// Toolbar is the host surface nodes are written into
type Toolbar interface {
	AddNode(n Node)
	RemoveNode(id string)
}

// Bar is an ordered in-memory Toolbar
type Bar struct {
	nodes []Node
}

// NewBar returns an empty toolbar
func NewBar() *Bar {
	return &Bar{}
}

// AddNode appends n, or replaces an existing node with the same id in place
func (b *Bar) AddNode(n Node) {
	for i := range b.nodes {
		if b.nodes[i].ID == n.ID {
			b.nodes[i] = n
			return
		}
	}
	b.nodes = append(b.nodes, n)
}

// RemoveNode removes id and everything beneath it
func (b *Bar) RemoveNode(id string) {
	doomed := map[string]bool{id: true}
	for changed := true; changed; {
		changed = false
		for _, n := range b.nodes {
			if !doomed[n.ID] && doomed[n.Parent] {
				doomed[n.ID] = true
				changed = true
			}
		}
	}

	kept := b.nodes[:0]
	for _, n := range b.nodes {
		if !doomed[n.ID] {
			kept = append(kept, n)
		}
	}
	b.nodes = kept
}

// Node looks up a node by id
func (b *Bar) Node(id string) (Node, bool) {
	for _, n := range b.nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Nodes returns all nodes in insertion order
func (b *Bar) Nodes() []Node {
	out := make([]Node, len(b.nodes))
	copy(out, b.nodes)
	return out
}

// Children returns the direct children of parent in insertion order
func (b *Bar) Children(parent string) []Node {
	var out []Node
	for _, n := range b.nodes {
		if n.Parent == parent {
			out = append(out, n)
		}
	}
	return out
}

// TreeNode is a node with its children resolved, used for rendering
type TreeNode struct {
	Node
	Children []TreeNode `json:"children,omitempty"`
}

// Tree returns the root nodes with their descendants attached
func (b *Bar) Tree() []TreeNode {
	return b.subtree("")
}

func (b *Bar) subtree(parent string) []TreeNode {
	var out []TreeNode
	for _, n := range b.Children(parent) {
		out = append(out, TreeNode{Node: n, Children: b.subtree(n.ID)})
	}
	return out
}

// MarshalJSON renders the bar as a tree
func (b *Bar) MarshalJSON() ([]byte, error) {
	tree := b.Tree()
	if tree == nil {
		tree = []TreeNode{}
	}
	return json.Marshal(tree)
}

var htmlTemplate = template.Must(template.New("toolbar").Parse(`
{{- define "node" -}}
{{- if .Group -}}
<ul id="wp-admin-bar-{{.ID}}" class="ab-submenu">{{range .Children}}{{template "node" .}}{{end}}</ul>
{{- else -}}
<li id="wp-admin-bar-{{.ID}}"{{if .Meta.Class}} class="{{.Meta.Class}}"{{end}}>
{{- if .Parent -}}
<a class="ab-item" href="{{.Href}}">{{.Title}}</a>
{{- else -}}
<a class="ab-item" href="{{.Href}}"><span class="ab-icon"></span> <span class="ab-label">{{.Title}}</span></a>
{{- end -}}
{{- if .Children}}<div class="ab-sub-wrapper"{{if not .Parent}} style="max-height: calc(100vh - 32px); overflow-y: auto"{{end}}>{{range .Children}}{{template "node" .}}{{end}}</div>{{end -}}
</li>
{{- end -}}
{{- end -}}
<ul id="wp-admin-bar-root-default" class="ab-top-menu">{{range .}}{{template "node" .}}{{end}}</ul>
`))

// RenderHTML writes the bar as admin-bar markup. Titles and links are escaped.
// Top level submenus are capped at the viewport height below the 32px bar and
// scroll when longer.
func (b *Bar) RenderHTML(w io.Writer) error {
	return htmlTemplate.Execute(w, b.Tree())
}
