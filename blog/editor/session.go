// Package editor mediates the lifecycle of one authoring session: the live
// rich-text document, the form fields around it, and serialization into the
// payload the gateway submits.
package editor

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/mauryajatin45/blogfront/blog/domain"
	"github.com/mauryajatin45/blogfront/blog/markdown"
)

const (
	placeholderContent = "Start writing your post..."
	defaultCategory    = "General"
)

// ErrEmptyTitle rejects a submission locally, before any network call.
var ErrEmptyTitle = errors.New("title must not be empty")

// Session holds the single live editable document. Starting a new session or
// loading another post replaces the document wholesale; there are no merge
// semantics.
type Session struct {
	doc    *markdown.Document
	cursor int // top-level block index; -1 means end of document

	postID       string
	title        string
	category     string
	imagePreview string
	featured     *domain.ImageFile
}

// NewSession returns a session holding a fresh placeholder document.
func NewSession() *Session {
	s := &Session{}
	s.StartNew()
	return s
}

// StartNew resets to an empty document with a placeholder content hint and
// clears the bound post identifier, title, category, image selection, and
// cursor.
func (s *Session) StartNew() {
	s.doc = markdown.Decode(placeholderContent)
	s.cursor = -1
	s.postID = ""
	s.title = ""
	s.category = defaultCategory
	s.imagePreview = ""
	s.featured = nil
}

// LoadForEdit seeds the session from an existing post. The post's Markdown
// content is decoded into the live document, and an existing featured image
// seeds the preview without selecting a local file, so a later submit without
// a new file keeps the image rather than removing it.
func (s *Session) LoadForEdit(post *domain.Post) {
	s.doc = markdown.Decode(post.Content)
	s.cursor = -1
	s.postID = post.ID
	s.title = post.Title
	s.category = post.Category
	if s.category == "" {
		s.category = defaultCategory
	}
	s.imagePreview = post.ImageURL
	s.featured = nil
}

// SetContentHTML replaces the live document with the rich-text surface's
// current HTML output.
func (s *Session) SetContentHTML(fragment string) {
	doc, err := markdown.ParseDocument(fragment)
	if err != nil {
		// The parser is error-tolerant; a hard failure still must not lose
		// the user's text.
		doc = markdown.Decode(fragment)
	}
	s.doc = doc
	s.cursor = -1
}

func (s *Session) SetTitle(title string)       { s.title = title }
func (s *Session) SetCategory(category string) { s.category = category }

// SetCursor positions the insertion point at the given top-level block.
// Out-of-range values clamp to the end of the document.
func (s *Session) SetCursor(block int) {
	if block < 0 || block >= len(s.doc.Blocks()) {
		s.cursor = -1
		return
	}
	s.cursor = block
}

// InsertImage embeds raw image bytes as a self-contained data URL and inserts
// the image at the current cursor position. The preview stays renderable
// offline; nothing is uploaded until submit.
func (s *Session) InsertImage(data []byte) error {
	if len(data) == 0 {
		return errors.New("empty image data")
	}

	src := dataURL(data)
	img := &html.Node{
		Type:     html.ElementNode,
		Data:     "img",
		DataAtom: atom.Img,
		Attr: []html.Attribute{
			{Key: "src", Val: src},
			{Key: "alt", Val: ""},
		},
	}
	p := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
	p.AppendChild(img)

	blocks := s.doc.Blocks()
	if s.cursor < 0 || s.cursor >= len(blocks) {
		s.doc.AppendBlock(p)
		return nil
	}
	at := blocks[s.cursor]
	at.Parent.InsertBefore(p, at.NextSibling)
	return nil
}

// SetFeaturedImage selects a new featured image file and refreshes the
// preview from its bytes.
func (s *Session) SetFeaturedImage(name string, data []byte) error {
	if len(data) == 0 {
		return errors.New("empty image data")
	}
	s.featured = &domain.ImageFile{Name: name, Data: data}
	s.imagePreview = dataURL(data)
	return nil
}

// SerializeForSubmit encodes the live document to Markdown and packages the
// authoring form fields. A nil draft Image means no new file was chosen; the
// API treats that as keep-existing, distinct from removal.
func (s *Session) SerializeForSubmit() (domain.PostDraft, error) {
	if strings.TrimSpace(s.title) == "" {
		return domain.PostDraft{}, ErrEmptyTitle
	}
	return domain.PostDraft{
		Title:    s.title,
		Content:  markdown.Encode(s.doc),
		Category: s.category,
		Image:    s.featured,
	}, nil
}

// Editing reports whether the session is bound to an existing post.
func (s *Session) Editing() bool { return s.postID != "" }

// PostID returns the bound post identifier, empty for a new post.
func (s *Session) PostID() string { return s.postID }

// Title returns the current title field.
func (s *Session) Title() string { return s.title }

// Category returns the current category field.
func (s *Session) Category() string { return s.category }

// ImagePreview returns the current preview source: a data URL for a freshly
// selected file, or the stored imageUrl when editing without reselecting.
func (s *Session) ImagePreview() string { return s.imagePreview }

// Document exposes the live document, primarily for rendering the surface.
func (s *Session) Document() *markdown.Document { return s.doc }

func dataURL(data []byte) string {
	mime := mimetype.Detect(data).String()
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
