package markdown

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func mustParse(t *testing.T, fragment string) *Document {
	t.Helper()
	doc, err := ParseDocument(fragment)
	if err != nil {
		t.Fatalf("ParseDocument(%q) failed: %v", fragment, err)
	}
	return doc
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "Heading levels map one to one",
			html:     "<h1>Top</h1><h2>Second</h2><h3>Third</h3>",
			expected: "# Top\n\n## Second\n\n### Third",
		},
		{
			name:     "Paragraph with inline styling",
			html:     "<p>Some <strong>bold</strong> and <em>italic</em> text.</p>",
			expected: "Some **bold** and *italic* text.",
		},
		{
			name:     "Strikethrough",
			html:     "<p><del>gone</del></p>",
			expected: "~~gone~~",
		},
		{
			name:     "Inline code",
			html:     "<p>run <code>go vet</code> first</p>",
			expected: "run `go vet` first",
		},
		{
			name:     "Link",
			html:     `<p><a href="https://example.com/page">a page</a></p>`,
			expected: "[a page](https://example.com/page)",
		},
		{
			name:     "Image with alt text",
			html:     `<p><img src="photo.jpg" alt="A photo"/></p>`,
			expected: "![A photo](photo.jpg)",
		},
		{
			name:     "Image with empty alt keeps the reference",
			html:     `<p><img src="photo.jpg" alt=""/></p>`,
			expected: "![](photo.jpg)",
		},
		{
			name:     "Image without alt attribute keeps the reference",
			html:     `<p><img src="photo.jpg"/></p>`,
			expected: "![](photo.jpg)",
		},
		{
			name:     "Unordered list uses the fixed bullet marker",
			html:     "<ul><li>one</li><li>two</li><li>three</li></ul>",
			expected: "- one\n- two\n- three",
		},
		{
			name:     "Ordered list",
			html:     "<ol><li>first</li><li>second</li></ol>",
			expected: "1. first\n2. second",
		},
		{
			name:     "Nested list indents to the content column",
			html:     "<ul><li>outer<ul><li>inner</li></ul></li></ul>",
			expected: "- outer\n  - inner",
		},
		{
			name:     "Code block is fenced with language",
			html:     `<pre><code class="language-go">func main() {}</code></pre>`,
			expected: "```go\nfunc main() {}\n```",
		},
		{
			name:     "Code block without language",
			html:     "<pre><code>plain</code></pre>",
			expected: "```\nplain\n```",
		},
		{
			name:     "Blockquote",
			html:     "<blockquote><p>quoted words</p></blockquote>",
			expected: "> quoted words",
		},
		{
			name:     "Horizontal rule",
			html:     "<hr/>",
			expected: "---",
		},
		{
			name:     "Markdown syntax in text stays literal",
			html:     "<p>a*b and [brackets]</p>",
			expected: `a\*b and \[brackets\]`,
		},
		{
			name:     "Unknown inline styling degrades to plain text",
			html:     `<p><span style="color: red">colored</span> text</p>`,
			expected: "colored text",
		},
		{
			name:     "Container contributes its children",
			html:     "<div><p>first</p><p>second</p></div>",
			expected: "first\n\nsecond",
		},
		{
			name:     "Empty paragraph is dropped",
			html:     "<p></p><p>kept</p>",
			expected: "kept",
		},
		{
			name:     "Empty document",
			html:     "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(mustParse(t, tt.html))
			if got != tt.expected {
				t.Errorf("Encode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		contains []string
	}{
		{
			name:     "Heading",
			markdown: "## Hello",
			contains: []string{"<h2>Hello</h2>"},
		},
		{
			name:     "Emphasis",
			markdown: "Some **bold** text",
			contains: []string{"<strong>bold</strong>"},
		},
		{
			name:     "Image with empty alt",
			markdown: "![](img.png)",
			contains: []string{`src="img.png"`},
		},
		{
			name:     "Fenced code",
			markdown: "```go\nfunc main() {}\n```",
			contains: []string{`<code class="language-go">`},
		},
		{
			name:     "List",
			markdown: "- one\n- two",
			contains: []string{"<ul>", "<li>one</li>"},
		},
		{
			name:     "Blockquote",
			markdown: "> quoted",
			contains: []string{"<blockquote>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.markdown).HTML()
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Decode(%q).HTML() = %q, missing %q", tt.markdown, got, want)
				}
			}
		})
	}
}

func TestDecode_MalformedNeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"```unclosed fence\ncode without end",
		"[dangling link](",
		"![dangling image](  ",
		"> \n> \n#",
		strings.Repeat("*", 500),
		"| broken | table\n|---",
	}

	for _, in := range inputs {
		doc := Decode(in)
		if doc == nil {
			t.Errorf("Decode(%q) returned nil document", in)
		}
	}
}

// headingOutline lists (level, text) for every heading in document order.
func headingOutline(doc *Document) []string {
	var out []string
	walk(doc.body, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			out = append(out, n.Data+":"+strings.TrimSpace(textContent(n)))
		}
	})
	return out
}

func countElements(doc *Document, a atom.Atom) int {
	count := 0
	walk(doc.body, func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			count++
		}
	})
	return count
}

// strippedText removes all whitespace so trees that differ only in
// inter-block formatting compare equal.
func strippedText(doc *Document) string {
	return strings.Join(strings.Fields(doc.Text()), "")
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{
			name: "Headings and prose",
			html: "<h1>My Post</h1><p>An intro paragraph.</p><h2>Details</h2><p>More words here.</p>",
		},
		{
			name: "Inline styling",
			html: "<p>Mix of <strong>bold</strong>, <em>italic</em>, <del>struck</del> and <code>code</code>.</p>",
		},
		{
			name: "Lists",
			html: "<ul><li>alpha</li><li>beta<ul><li>nested gamma</li></ul></li></ul><ol><li>one</li><li>two</li></ol>",
		},
		{
			name: "Images keep src and alt",
			html: `<p>Before <img src="https://img/a.png" alt="diagram"/> after.</p><p><img src="inline.png" alt=""/></p>`,
		},
		{
			name: "Links",
			html: `<p>See <a href="https://example.com/docs">the docs</a> for more.</p>`,
		},
		{
			name: "Code block and quote",
			html: `<pre><code class="language-go">fmt.Println("hi")</code></pre><blockquote><p>wise words</p></blockquote>`,
		},
		{
			name: "Text containing markdown syntax",
			html: "<p>2 * 3 = 6 and [x] is done</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := mustParse(t, tt.html)
			decoded := Decode(Encode(original))

			origHeadings := headingOutline(original)
			gotHeadings := headingOutline(decoded)
			if strings.Join(origHeadings, "|") != strings.Join(gotHeadings, "|") {
				t.Errorf("headings changed: %v -> %v", origHeadings, gotHeadings)
			}

			for _, a := range []atom.Atom{atom.Ul, atom.Ol, atom.Li, atom.Blockquote} {
				if orig, got := countElements(original, a), countElements(decoded, a); orig != got {
					t.Errorf("%s count changed: %d -> %d", a, orig, got)
				}
			}

			origImgs := original.Images()
			gotImgs := decoded.Images()
			if len(origImgs) != len(gotImgs) {
				t.Fatalf("image count changed: %d -> %d", len(origImgs), len(gotImgs))
			}
			for i := range origImgs {
				if origImgs[i] != gotImgs[i] {
					t.Errorf("image %d changed: %+v -> %+v", i, origImgs[i], gotImgs[i])
				}
			}

			if orig, got := strippedText(original), strippedText(decoded); orig != got {
				t.Errorf("text content changed: %q -> %q", orig, got)
			}
		})
	}
}

func TestRoundTrip_CanonicalMarkdownIsStable(t *testing.T) {
	markdown := "# Title\n\nSome **bold** and *italic* text.\n\n- one\n- two\n\n```go\nfunc main() {}\n```"

	got := Encode(Decode(markdown))
	if got != markdown {
		t.Errorf("Encode(Decode(x)) = %q, want %q", got, markdown)
	}
}
