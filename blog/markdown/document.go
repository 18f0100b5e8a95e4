package markdown

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is the HTML tree a rich-text surface produces and consumes. It is
// the in-memory form the codec encodes from and decodes into; only its
// Markdown serialization ever crosses the system boundary.
type Document struct {
	body *html.Node
}

// ParseDocument parses an HTML fragment into a Document. The underlying
// parser is error-tolerant, so arbitrary input yields a best-effort tree
// rather than a failure.
func ParseDocument(fragment string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil, err
	}
	body := findNode(root, atom.Body)
	if body == nil {
		// html.Parse always synthesizes html/head/body, but guard anyway.
		body = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	}
	return &Document{body: body}, nil
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{body: &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}}
}

// documentFromText wraps raw text in a single paragraph. Used as the
// degradation path when parsing fails outright.
func documentFromText(text string) *Document {
	doc := NewDocument()
	p := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
	p.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	doc.body.AppendChild(p)
	return doc
}

// HTML renders the document back to an HTML fragment (the body's children).
func (d *Document) HTML() string {
	var b strings.Builder
	for c := d.body.FirstChild; c != nil; c = c.NextSibling {
		// Render errors only surface from the writer, and strings.Builder
		// never fails.
		_ = html.Render(&b, c)
	}
	return b.String()
}

// Blocks returns the top-level block nodes of the document.
func (d *Document) Blocks() []*html.Node {
	var out []*html.Node
	for c := d.body.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// AppendBlock adds a block node at the end of the document.
func (d *Document) AppendBlock(n *html.Node) {
	d.body.AppendChild(n)
}

// ImageRef is an (src, alt) pair found in a document.
type ImageRef struct {
	Src string
	Alt string
}

// Images lists every image reference in document order.
func (d *Document) Images() []ImageRef {
	var refs []ImageRef
	walk(d.body, func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Img {
			refs = append(refs, ImageRef{Src: attr(n, "src"), Alt: attr(n, "alt")})
		}
	})
	return refs
}

// Text returns the concatenated text content of the document.
func (d *Document) Text() string {
	var b strings.Builder
	walk(d.body, func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
	})
	return b.String()
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findNode(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, a); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
