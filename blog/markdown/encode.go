package markdown

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// The bullet marker is fixed, chosen once and applied to every unordered
// list rather than inferred per-list.
const bulletMarker = "-"

// Encode serializes a document produced by a rich-text surface to Markdown.
// Headings map 1:1 by level, code blocks are fenced, and images always
// serialize as ![alt](src), alt included even when empty. Unrecognized
// markup degrades to its plain text content.
func Encode(doc *Document) string {
	return encodeBlocks(doc.Blocks())
}

func encodeBlocks(nodes []*html.Node) string {
	var blocks []string
	for _, n := range nodes {
		if s, ok := encodeBlock(n); ok {
			blocks = append(blocks, s)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func encodeBlock(n *html.Node) (string, bool) {
	switch n.Type {
	case html.TextNode:
		text := strings.TrimSpace(escapeText(n.Data))
		if text == "" {
			return "", false
		}
		return escapeBlockStart(text), true
	case html.ElementNode:
		// handled below
	default:
		return "", false
	}

	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level := int(n.Data[1] - '0')
		text := strings.TrimSpace(encodeInlineChildren(n))
		return strings.Repeat("#", level) + " " + text, true
	case atom.P:
		text := strings.TrimSpace(encodeInlineChildren(n))
		if text == "" {
			return "", false
		}
		return escapeBlockStart(text), true
	case atom.Ul:
		return encodeList(n, false), true
	case atom.Ol:
		return encodeList(n, true), true
	case atom.Pre:
		return encodeCodeBlock(n), true
	case atom.Blockquote:
		return encodeBlockquote(n), true
	case atom.Hr:
		return "---", true
	case atom.Div, atom.Section, atom.Article, atom.Main, atom.Figure:
		// Containers contribute their children as blocks.
		s := encodeBlocks(childNodes(n))
		return s, s != ""
	default:
		// Anything else degrades to a paragraph of its inline content.
		text := strings.TrimSpace(encodeInlineChildren(n))
		if text == "" {
			return "", false
		}
		return escapeBlockStart(text), true
	}
}

func encodeInlineChildren(n *html.Node) string {
	return encodeInlineNodes(childNodes(n))
}

func encodeInlineNodes(nodes []*html.Node) string {
	var b strings.Builder
	for _, c := range nodes {
		b.WriteString(encodeInline(c))
	}
	return b.String()
}

func encodeInline(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return escapeText(n.Data)
	case html.ElementNode:
		// handled below
	default:
		return ""
	}

	switch n.DataAtom {
	case atom.Strong, atom.B:
		return wrapEmphasis(encodeInlineChildren(n), "**")
	case atom.Em, atom.I:
		return wrapEmphasis(encodeInlineChildren(n), "*")
	case atom.Del, atom.S, atom.Strike:
		return wrapEmphasis(encodeInlineChildren(n), "~~")
	case atom.Code:
		return encodeInlineCode(textContent(n))
	case atom.A:
		text := encodeInlineChildren(n)
		return "[" + text + "](" + attr(n, "href") + ")"
	case atom.Img:
		// The alt field is emitted even when empty; the image reference is
		// never dropped.
		return "![" + escapeText(attr(n, "alt")) + "](" + attr(n, "src") + ")"
	case atom.Br:
		return "\n"
	default:
		// Unsupported inline styling degrades to plain text.
		return encodeInlineChildren(n)
	}
}

func wrapEmphasis(inner, marker string) string {
	trimmed := strings.TrimSpace(inner)
	if trimmed == "" {
		return inner
	}
	return marker + trimmed + marker
}

func encodeInlineCode(code string) string {
	if code == "" {
		return ""
	}
	fence := "`"
	for strings.Contains(code, fence) {
		fence += "`"
	}
	if strings.HasPrefix(code, "`") || strings.HasSuffix(code, "`") {
		return fence + " " + code + " " + fence
	}
	return fence + code + fence
}

func encodeList(n *html.Node, ordered bool) string {
	var items []string
	index := 0
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.DataAtom != atom.Li {
			continue
		}
		index++
		marker := bulletMarker + " "
		if ordered {
			marker = strconv.Itoa(index) + ". "
		}
		items = append(items, encodeListItem(li, marker))
	}
	return strings.Join(items, "\n")
}

// encodeListItem renders one <li>: its inline content becomes the item text,
// and nested lists continue on following lines indented to the content
// column so they parse back as children of this item.
func encodeListItem(li *html.Node, marker string) string {
	cont := strings.Repeat(" ", len(marker))

	var first string
	var rest []string
	push := func(s string) {
		if first == "" {
			first = s
		} else {
			rest = append(rest, s)
		}
	}

	var inlineRun []*html.Node
	flush := func() {
		if len(inlineRun) == 0 {
			return
		}
		text := strings.TrimSpace(encodeInlineNodes(inlineRun))
		inlineRun = nil
		if text != "" {
			push(text)
		}
	}

	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			switch c.DataAtom {
			case atom.Ul, atom.Ol:
				flush()
				push(encodeList(c, c.DataAtom == atom.Ol))
				continue
			case atom.P:
				flush()
				if text := strings.TrimSpace(encodeInlineChildren(c)); text != "" {
					push(text)
				}
				continue
			}
		}
		inlineRun = append(inlineRun, c)
	}
	flush()

	item := marker + first
	for _, block := range rest {
		for _, line := range strings.Split(block, "\n") {
			item += "\n" + cont + line
		}
	}
	return item
}

func encodeCodeBlock(pre *html.Node) string {
	code := pre
	if c := firstElement(pre, atom.Code); c != nil {
		code = c
	}

	lang := ""
	for _, class := range strings.Fields(attr(code, "class")) {
		if rest, ok := strings.CutPrefix(class, "language-"); ok {
			lang = rest
			break
		}
	}

	text := strings.TrimSuffix(textContent(code), "\n")
	fence := "```"
	for strings.Contains(text, fence) {
		fence += "`"
	}
	return fence + lang + "\n" + text + "\n" + fence
}

func encodeBlockquote(n *html.Node) string {
	inner := encodeBlocks(childNodes(n))
	lines := strings.Split(inner, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + line
		}
	}
	return strings.Join(lines, "\n")
}

// Characters that would be read back as Markdown syntax are backslash-escaped
// so round-tripped text stays literal. Newlines inside text nodes are
// insignificant whitespace in HTML and collapse to spaces.
var inlineEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	`<`, `\<`,
	`>`, `\>`,
	`~`, `\~`,
)

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return inlineEscaper.Replace(s)
}

var blockStartPattern = regexp.MustCompile(`^(#{1,6} |[-+] |\d+[.)] )`)

// escapeBlockStart keeps paragraph text that happens to start with heading or
// list syntax from being promoted to that construct on decode.
func escapeBlockStart(s string) string {
	loc := blockStartPattern.FindString(s)
	if loc == "" {
		return s
	}
	if s[0] >= '0' && s[0] <= '9' {
		// Escape the delimiter, not the number.
		i := strings.IndexAny(s, ".)")
		return s[:i] + `\` + s[i:]
	}
	return `\` + s
}

func childNodes(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func firstElement(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}
