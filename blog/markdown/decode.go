package markdown

import (
	"bytes"
	stdhtml "html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// decoder converts the CommonMark/GFM subset the encoder can produce back to
// HTML for seeding an editable session. No link rewriting here; the editor
// works with destinations exactly as stored.
var decoder = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Strikethrough,
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
		html.WithXHTML(),
		html.WithUnsafe(),
	),
)

// Decode parses Markdown into a document usable to seed an editable session.
// Malformed or partial input never fails; anything the parser cannot place
// degrades to literal text nodes.
func Decode(markdown string) *Document {
	var buf bytes.Buffer
	if err := decoder.Convert([]byte(markdown), &buf); err != nil {
		return documentFromText(markdown)
	}
	doc, err := ParseDocument(buf.String())
	if err != nil {
		return documentFromText(markdown)
	}
	return doc
}

// assetLinkTransformer resolves relative image and link destinations against
// the API's asset base, so posts whose imageUrl is a bare path render from
// the right host.
type assetLinkTransformer struct {
	base string
}

func (t *assetLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.Link:
			if isRelativeRef(string(v.Destination)) {
				v.Destination = []byte(joinRef(t.base, string(v.Destination)))
			}
		case *ast.Image:
			if isRelativeRef(string(v.Destination)) {
				v.Destination = []byte(joinRef(t.base, string(v.Destination)))
			}
		}

		return ast.WalkContinue, nil
	})
}

func isRelativeRef(dest string) bool {
	if dest == "" {
		return false
	}
	if strings.HasPrefix(dest, "//") {
		return false
	}
	if strings.HasPrefix(dest, "/") ||
		strings.HasPrefix(dest, "./") ||
		strings.HasPrefix(dest, "../") {
		return true
	}
	// A scheme (http:, data:, mailto:) marks the reference absolute.
	return !strings.Contains(dest, ":")
}

func joinRef(base, dest string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimLeft(dest, "./")
}

// ResolveRef resolves a possibly-relative asset reference against base.
// Absolute references pass through untouched.
func ResolveRef(base, ref string) string {
	if base == "" || !isRelativeRef(ref) {
		return ref
	}
	return joinRef(base, ref)
}

// Renderer is the one-way Markdown interpreter used by the viewing surfaces
// (detail page, feed previews).
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a renderer whose relative image and link destinations
// resolve against assetBase.
func NewRenderer(assetBase string) *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Strikethrough,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&assetLinkTransformer{base: assetBase}, 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	return &Renderer{md: md}
}

// Render converts Markdown to display HTML. A conversion failure is never
// fatal; the content falls back to escaped plain text.
func (r *Renderer) Render(markdown string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "<p>" + stdhtml.EscapeString(markdown) + "</p>"
	}
	return buf.String()
}
