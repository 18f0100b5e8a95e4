package web

import (
	"errors"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mauryajatin45/blogfront/blog/domain"
	"github.com/mauryajatin45/blogfront/blog/editor"
)

const maxUploadSize = 10 << 20

type editorView struct {
	Title         string
	Authenticated bool
	Mine          []domain.Post
	Editing       bool
	PostID        string
	FormTitle     string
	Category      string
	Categories    []string
	ImagePreview  string
	ContentHTML   template.HTML
	ContentRaw    string
	Error         string
}

// EditorForm opens an authoring session: blank for a new post, or seeded
// from an existing one when ?edit=<id> is present.
func (h *Handler) EditorForm(c *gin.Context) {
	sess := editor.NewSession()
	if id := c.Query("edit"); id != "" {
		post, err := h.api.GetPost(c.Request.Context(), id)
		if err != nil {
			h.renderNotFound(c)
			return
		}
		sess.LoadForEdit(post)
	}
	h.renderEditor(c, http.StatusOK, sess, "")
}

// SubmitPost replays the form into a session and submits it through the
// gateway, creating or updating depending on the bound post identifier.
func (h *Handler) SubmitPost(c *gin.Context) {
	ctx := c.Request.Context()

	sess := editor.NewSession()
	if id := c.PostForm("postId"); id != "" {
		post, err := h.api.GetPost(ctx, id)
		if err != nil {
			h.renderNotFound(c)
			return
		}
		sess.LoadForEdit(post)
	}

	sess.SetTitle(c.PostForm("title"))
	if category := c.PostForm("category"); category != "" {
		sess.SetCategory(category)
	}
	if content := c.PostForm("content"); content != "" {
		sess.SetContentHTML(content)
	}

	if file, err := c.FormFile("image"); err == nil {
		data, err := readUpload(file)
		if err != nil {
			h.renderEditor(c, http.StatusBadRequest, sess, "Could not read the selected image")
			return
		}
		if err := sess.SetFeaturedImage(file.Filename, data); err != nil {
			h.renderEditor(c, http.StatusBadRequest, sess, "Could not read the selected image")
			return
		}
	}

	draft, err := sess.SerializeForSubmit()
	if err != nil {
		msg := "Could not prepare the post"
		if errors.Is(err, editor.ErrEmptyTitle) {
			msg = "Title must not be empty"
		}
		h.renderEditor(c, http.StatusUnprocessableEntity, sess, msg)
		return
	}

	var post *domain.Post
	if sess.Editing() {
		post, err = h.api.UpdatePost(ctx, sess.PostID(), draft)
	} else {
		post, err = h.api.CreatePost(ctx, draft)
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Post submission failed")
		h.renderEditor(c, http.StatusBadGateway, sess, "Publishing failed, please try again")
		return
	}

	h.snapshot.Invalidate()
	c.Redirect(http.StatusSeeOther, "/posts/"+post.ID)
}

func (h *Handler) renderEditor(c *gin.Context, status int, sess *editor.Session, errMsg string) {
	mine, err := h.api.ListUserPosts(c.Request.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to list user posts")
	}

	title := "Create Post | " + siteName
	if sess.Editing() {
		title = "Edit Post | " + siteName
	}

	content := sess.Document().HTML()
	c.HTML(status, "editor.html", editorView{
		Title:         title,
		Authenticated: h.session.Authenticated(),
		Mine:          mine,
		Editing:       sess.Editing(),
		PostID:        sess.PostID(),
		FormTitle:     sess.Title(),
		Category:      sess.Category(),
		Categories:    domain.Categories,
		ImagePreview:  sess.ImagePreview(),
		ContentHTML:   template.HTML(content),
		ContentRaw:    content,
		Error:         errMsg,
	})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxUploadSize {
		return nil, errors.New("image too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxUploadSize))
}
