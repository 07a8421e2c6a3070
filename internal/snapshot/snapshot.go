package snapshot

import (
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Node is one element of the captured DOM tree. The tree is read-only after
// capture: detectors walk it but never mutate it.
type Node struct {
	Tag      string            `json:"tag"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Text     string            `json:"text,omitempty"`
	Children []*Node           `json:"children,omitempty"`

	parent *Node
}

// Page is the immutable input every detector consumes: one page load frozen
// as a DOM tree, its normalized visible text, and captured screenshots.
type Page struct {
	URL            string
	Title          string
	DOM            *Node
	TextContent    string
	ScreenshotRefs map[string]string
	FetchedAt      time.Time
}

// skippedTags contribute no visible text and are excluded from the tree.
var skippedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"svg":      true,
}

// Parse builds a Page from raw HTML. The DOM tree starts at <body> when one
// exists, otherwise at the document root.
func Parse(r io.Reader, pageURL string) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	p := &Page{
		URL:            pageURL,
		ScreenshotRefs: map[string]string{},
		FetchedAt:      time.Now(),
	}

	body := findFirst(doc, "body")
	if body == nil {
		body = doc
	}
	p.DOM = convert(body, nil)
	p.Title = titleOf(doc)
	if p.DOM != nil {
		p.TextContent = NormalizeText(p.DOM.FullText())
	}
	return p, nil
}

// ParseString is Parse over an in-memory document.
func ParseString(src, pageURL string) (*Page, error) {
	return Parse(strings.NewReader(src), pageURL)
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func titleOf(doc *html.Node) string {
	t := findFirst(doc, "title")
	if t == nil {
		return ""
	}
	var sb strings.Builder
	for c := t.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(sb.String())
}

func convert(n *html.Node, parent *Node) *Node {
	if n.Type == html.ElementNode && skippedTags[n.Data] {
		return nil
	}

	node := &Node{Tag: strings.ToLower(n.Data), parent: parent}
	if n.Type != html.ElementNode {
		node.Tag = ""
	}
	if len(n.Attr) > 0 {
		node.Attrs = make(map[string]string, len(n.Attr))
		for _, a := range n.Attr {
			node.Attrs[strings.ToLower(a.Key)] = a.Val
		}
	}

	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			text.WriteString(c.Data)
		case html.ElementNode:
			if child := convert(c, node); child != nil {
				node.Children = append(node.Children, child)
			}
		}
	}
	node.Text = strings.TrimSpace(text.String())
	return node
}

// Attr returns the value of an attribute, or "" when absent.
func (n *Node) Attr(name string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs[strings.ToLower(name)]
}

// HasAttr reports whether the attribute is present at all, regardless of value.
func (n *Node) HasAttr(name string) bool {
	if n == nil || n.Attrs == nil {
		return false
	}
	_, ok := n.Attrs[strings.ToLower(name)]
	return ok
}

// Classes splits the class attribute into its individual names.
func (n *Node) Classes() []string {
	return strings.Fields(n.Attr("class"))
}

// HasClass reports whether the class attribute contains name (case-insensitive).
func (n *Node) HasClass(name string) bool {
	for _, c := range n.Classes() {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// Parent returns the enclosing element, nil at the root.
func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

// FullText concatenates the node's own text with all descendant text.
func (n *Node) FullText() string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	n.appendText(&sb)
	return strings.TrimSpace(sb.String())
}

func (n *Node) appendText(sb *strings.Builder) {
	if n.Text != "" {
		sb.WriteString(n.Text)
		sb.WriteString(" ")
	}
	for _, c := range n.Children {
		c.appendText(sb)
	}
}

// Match pairs a node with a human-readable path used as a detection location.
type Match struct {
	Node *Node
	Path string
}

// Find walks the tree depth-first and returns every node the predicate
// accepts, in document order.
func (p *Page) Find(pred func(*Node) bool) []Match {
	if p == nil || p.DOM == nil {
		return nil
	}
	var out []Match
	walk(p.DOM, "body", func(n *Node, path string) {
		if pred(n) {
			out = append(out, Match{Node: n, Path: path})
		}
	})
	return out
}

// Walk visits every node of the page depth-first with its path.
func (p *Page) Walk(visit func(n *Node, path string)) {
	if p == nil || p.DOM == nil {
		return
	}
	walk(p.DOM, "body", visit)
}

func walk(n *Node, path string, visit func(*Node, string)) {
	visit(n, path)
	for i, c := range n.Children {
		tag := c.Tag
		if tag == "" {
			tag = "node"
		}
		childPath := path + " > " + tag + "[" + strconv.Itoa(i) + "]"
		walk(c, childPath, visit)
	}
}

// LabelText resolves the text a user would read next to a form control:
// a <label for=id>, an enclosing <label>, or the nearest ancestor text.
func (p *Page) LabelText(n *Node) string {
	if n == nil {
		return ""
	}

	if id := n.Attr("id"); id != "" && p != nil {
		labels := p.Find(func(c *Node) bool {
			return c.Tag == "label" && c.Attr("for") == id
		})
		for _, l := range labels {
			if t := l.Node.FullText(); t != "" {
				return t
			}
		}
	}

	for anc := n.Parent(); anc != nil; anc = anc.Parent() {
		if anc.Tag == "label" {
			return anc.FullText()
		}
	}

	// Fall back to surrounding text: the closest ancestor that carries any.
	for anc := n.Parent(); anc != nil; anc = anc.Parent() {
		if t := anc.FullText(); t != "" {
			return t
		}
	}
	return ""
}

// NormalizeText lowercases and collapses whitespace for phrase matching.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
