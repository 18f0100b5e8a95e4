// Package web is the server-rendered HTML surface: listing, post detail,
// authoring, login, and the sitemap.
package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mauryajatin45/blogfront/blog/domain"
	"github.com/mauryajatin45/blogfront/blog/feed"
	"github.com/mauryajatin45/blogfront/blog/markdown"
	"github.com/mauryajatin45/blogfront/internal/middleware"
	"github.com/mauryajatin45/blogfront/shared/auth"
)

const siteName = "Blog - Unleash Your Thoughts"

// API is the full remote surface the pages need: the post gateway plus the
// credential exchange.
type API interface {
	domain.Gateway
	Login(ctx context.Context, email, password string) (string, error)
}

// Handler serves all HTML routes.
type Handler struct {
	api       API
	session   *auth.Session
	renderer  *markdown.Renderer
	snapshot  *SnapshotCache
	assetBase string
	siteBase  string
	log       zerolog.Logger
}

// NewHandler wires the page handlers. assetBase resolves relative image
// references; siteBase is the public origin used in the sitemap.
func NewHandler(api API, session *auth.Session, snapshot *SnapshotCache, assetBase, siteBase string, log zerolog.Logger) *Handler {
	return &Handler{
		api:       api,
		session:   session,
		renderer:  markdown.NewRenderer(assetBase),
		snapshot:  snapshot,
		assetBase: assetBase,
		siteBase:  strings.TrimSuffix(siteBase, "/"),
		log:       log,
	}
}

// NewRouter builds the gin engine with middleware and all routes registered.
func NewRouter(h *Handler, log zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(log))
	router.Use(gin.CustomRecovery(middleware.HandlePanics(log)))
	router.Use(middleware.RateLimit(300, 30))
	router.SetHTMLTemplate(loadTemplates())

	router.GET("/", h.Index)
	router.GET("/posts/:postId", h.ShowPost)
	router.GET("/sitemap.xml", h.Sitemap)
	router.GET("/login", h.LoginForm)
	router.POST("/login", h.Login)
	router.GET("/logout", h.Logout)

	authed := router.Group("/", middleware.RequireAuth(h.session))
	{
		authed.GET("/create-post", h.EditorForm)
		authed.POST("/create-post", h.SubmitPost)
	}

	return router
}

type postCard struct {
	ID          string
	Title       string
	Snippet     string
	Category    string
	ImageURL    string
	Author      string
	CreatedAt   time.Time
	ReadingTime int
}

type indexView struct {
	Title         string
	Authenticated bool
	Cards         []postCard
	Page          int
	TotalPages    int
	Total         int
	SearchTerm    string
	SortKey       string
	PrevURL       string
	NextURL       string
}

// Index renders the listing page. A fresh controller is seeded from the
// revalidated snapshot, the query parameters replay the visitor's filters,
// and the handler waits for the resulting fetch before rendering.
func (h *Handler) Index(c *gin.Context) {
	ctx := c.Request.Context()

	ctrl := feed.New(h.api, h.snapshot.Get(ctx), feed.WithLogger(h.log))
	if term := c.Query("search"); strings.TrimSpace(term) != "" {
		ctrl.SetSearchTerm(term)
	}
	if raw := c.Query("sort"); raw != "" {
		ctrl.SetSortKey(domain.ParseSortKey(raw))
	}
	if raw := c.Query("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			ctrl.SetPage(n)
		}
	}
	if err := ctrl.Wait(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Listing fetch interrupted")
	}

	state := ctrl.State()
	cards := make([]postCard, 0, len(state.Items))
	for i := range state.Items {
		p := &state.Items[i]
		cards = append(cards, postCard{
			ID:          p.ID,
			Title:       p.Title,
			Snippet:     markdown.Snippet(p.Content),
			Category:    p.Category,
			ImageURL:    markdown.ResolveRef(h.assetBase, p.ImageURL),
			Author:      p.Author.Username,
			CreatedAt:   p.CreatedAt,
			ReadingTime: p.ReadingTime(),
		})
	}

	c.HTML(http.StatusOK, "index.html", indexView{
		Title:         "Home | " + siteName,
		Authenticated: h.session.Authenticated(),
		Cards:         cards,
		Page:          state.Page,
		TotalPages:    state.TotalPages,
		Total:         state.Total,
		SearchTerm:    state.SearchTerm,
		SortKey:       string(state.SortKey),
		PrevURL:       listURL(state.SearchTerm, state.SortKey, state.Page-1),
		NextURL:       listURL(state.SearchTerm, state.SortKey, state.Page+1),
	})
}

func listURL(search string, sort domain.SortKey, page int) string {
	params := url.Values{}
	if search != "" {
		params.Set("search", search)
	}
	if sort != domain.SortNewest {
		params.Set("sort", string(sort))
	}
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}
	if len(params) == 0 {
		return "/"
	}
	return "/?" + params.Encode()
}

type postView struct {
	Title         string
	Authenticated bool
	Post          *domain.Post
	Content       template.HTML
	ImageURL      string
	Edited        bool
	ReadingTime   int
}

// ShowPost renders a single post, or the not-found page when the gateway
// cannot produce it.
func (h *Handler) ShowPost(c *gin.Context) {
	post, err := h.api.GetPost(c.Request.Context(), c.Param("postId"))
	if err != nil {
		h.renderNotFound(c)
		return
	}

	c.HTML(http.StatusOK, "post.html", postView{
		Title:         post.Title + " | " + siteName,
		Authenticated: h.session.Authenticated(),
		Post:          post,
		Content:       template.HTML(h.renderer.Render(post.Content)),
		ImageURL:      markdown.ResolveRef(h.assetBase, post.ImageURL),
		Edited:        post.Edited(),
		ReadingTime:   post.ReadingTime(),
	})
}

type baseView struct {
	Title         string
	Authenticated bool
}

func (h *Handler) renderNotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "notfound.html", baseView{
		Title:         "Post Not Found | " + siteName,
		Authenticated: h.session.Authenticated(),
	})
}

type loginView struct {
	Title         string
	Authenticated bool
	Email         string
	Error         string
}

// LoginForm shows the login page; an already-authenticated visitor goes home.
func (h *Handler) LoginForm(c *gin.Context) {
	if h.session.Authenticated() {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.HTML(http.StatusOK, "login.html", loginView{Title: "Login | " + siteName})
}

// Login exchanges the submitted credentials for a token and opens the session.
func (h *Handler) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	token, err := h.api.Login(c.Request.Context(), email, password)
	if err != nil {
		msg := "Login failed, please try again"
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrUnauthorized) {
			msg = "Invalid email or password"
			status = http.StatusUnauthorized
		}
		c.HTML(status, "login.html", loginView{
			Title: "Login | " + siteName,
			Email: email,
			Error: msg,
		})
		return
	}

	if err := h.session.Login(token); err != nil {
		h.log.Error().Err(err).Msg("Failed to persist session")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// Logout closes the session and returns home.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.session.Logout(); err != nil {
		h.log.Error().Err(err).Msg("Failed to clear session")
	}
	c.Redirect(http.StatusSeeOther, "/")
}
