// Package gateway is the single point of contact with the remote posts API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mauryajatin45/blogfront/blog/domain"
	"github.com/mauryajatin45/blogfront/shared/auth"
)

const (
	defaultTimeout = 10 * time.Second
	userAgent      = "blogfront/1.0"
)

// Client implements domain.Gateway against the remote HTTP API.
type Client struct {
	http    *http.Client
	baseURL string
	session *auth.Session
	log     zerolog.Logger
}

var _ domain.Gateway = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every request the client issues.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger attaches a request logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient builds a gateway for the API rooted at baseURL (the `{API}`
// prefix, e.g. "https://blogbackend.example.com/api"). The session supplies
// the bearer credential for authenticated calls.
func NewClient(baseURL string, session *auth.Session, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		baseURL: baseURL,
		session: session,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// listEnvelope is the raw listing response. Posts is a pointer so a missing
// field is distinguishable from an empty list: absence means the envelope is
// malformed and the whole response is distrusted.
type listEnvelope struct {
	Posts *[]domain.Post `json:"posts"`
	Page  int            `json:"page"`
	Pages int            `json:"pages"`
	Total int            `json:"total"`
}

// ListPosts fetches one listing page. Failures of any kind (network, timeout,
// non-2xx, malformed envelope) return the canonical empty page alongside the
// error so callers always hold a well-formed result.
func (c *Client) ListPosts(ctx context.Context, q domain.ListQuery) (domain.PostPage, error) {
	op := fmt.Sprintf("listing posts page %d", q.Page)

	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Sort != "" {
		params.Set("sort", string(q.Sort))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/posts?"+params.Encode(), nil)
	if err != nil {
		return domain.EmptyPage(), fmt.Errorf("api: %s: %w", op, err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return domain.EmptyPage(), fmt.Errorf("api: %s failed: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return domain.EmptyPage(), fmt.Errorf("api: %s failed with status %d", op, res.StatusCode)
	}

	var envelope listEnvelope
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return domain.EmptyPage(), fmt.Errorf("api: %s returned malformed body: %w", op, err)
	}
	if envelope.Posts == nil {
		return domain.EmptyPage(), fmt.Errorf("api: %s returned envelope without posts", op)
	}

	page := domain.PostPage{
		Posts: *envelope.Posts,
		Page:  envelope.Page,
		Pages: envelope.Pages,
		Total: envelope.Total,
	}
	// Defaults fill in for missing pagination fields.
	if page.Page < 1 {
		page.Page = 1
	}
	if page.Pages < 1 {
		page.Pages = 1
	}
	if page.Total < 0 {
		page.Total = 0
	}
	return page, nil
}

// GetPost fetches a single post. Non-2xx statuses and structurally invalid
// bodies both resolve to ErrNotFound; nothing here surfaces as a thrown
// error to the UI.
func (c *Client) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	op := fmt.Sprintf("getting post %s", id)

	req, err := c.newRequest(ctx, http.MethodGet, "/posts/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("api: %s: %w", op, domain.ErrNotFound)
	}

	res, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("postID", id).Msg("Post fetch failed")
		return nil, fmt.Errorf("api: %s failed: %w", op, domain.ErrNotFound)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("api: %s failed with status %d: %w", op, res.StatusCode, domain.ErrNotFound)
	}

	var envelope struct {
		Post *domain.Post `json:"post"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil || envelope.Post == nil {
		return nil, fmt.Errorf("api: %s returned malformed body: %w", op, domain.ErrNotFound)
	}
	return envelope.Post, nil
}

// CreatePost submits a new post as multipart form data.
func (c *Client) CreatePost(ctx context.Context, draft domain.PostDraft) (*domain.Post, error) {
	return c.submitDraft(ctx, http.MethodPost, "/posts", draft)
}

// UpdatePost replaces an existing post's fields. A draft without an Image
// leaves the stored image untouched.
func (c *Client) UpdatePost(ctx context.Context, id string, draft domain.PostDraft) (*domain.Post, error) {
	return c.submitDraft(ctx, http.MethodPut, "/posts/"+url.PathEscape(id), draft)
}

func (c *Client) submitDraft(ctx context.Context, method, path string, draft domain.PostDraft) (*domain.Post, error) {
	op := fmt.Sprintf("submitting post via %s %s", method, path)

	token := c.session.Token()
	if token == "" {
		return nil, fmt.Errorf("api: %s: %w", op, domain.ErrUnauthorized)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("title", draft.Title); err != nil {
		return nil, fmt.Errorf("api: %s: %w", op, err)
	}
	if err := form.WriteField("content", draft.Content); err != nil {
		return nil, fmt.Errorf("api: %s: %w", op, err)
	}
	if err := form.WriteField("category", draft.Category); err != nil {
		return nil, fmt.Errorf("api: %s: %w", op, err)
	}
	if draft.Image != nil {
		part, err := form.CreateFormFile("image", draft.Image.Name)
		if err != nil {
			return nil, fmt.Errorf("api: %s: %w", op, err)
		}
		if _, err := part.Write(draft.Image.Data); err != nil {
			return nil, fmt.Errorf("api: %s: %w", op, err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("api: %s: %w", op, err)
	}

	req, err := c.newRequest(ctx, method, path, &body)
	if err != nil {
		return nil, fmt.Errorf("api: %s: %w", op, err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: %s failed: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("api: %s rejected with status %d: %w", op, res.StatusCode, domain.ErrUnauthorized)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("api: %s failed with status %d: %s", op, res.StatusCode, readErrorMessage(res.Body))
	}

	var post domain.Post
	if err := json.NewDecoder(res.Body).Decode(&post); err != nil {
		return nil, fmt.Errorf("api: %s returned malformed body: %w", op, err)
	}
	return &post, nil
}

// ListUserPosts fetches the caller's own posts. An absent or rejected
// credential yields an empty list, not an error; the sidebar simply shows
// nothing to edit.
func (c *Client) ListUserPosts(ctx context.Context) ([]domain.Post, error) {
	op := "listing user posts"

	token := c.session.Token()
	if token == "" {
		return []domain.Post{}, nil
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/posts/user", nil)
	if err != nil {
		return nil, fmt.Errorf("api: %s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: %s failed: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		return []domain.Post{}, nil
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("api: %s failed with status %d", op, res.StatusCode)
	}

	var envelope struct {
		Posts *[]domain.Post `json:"posts"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("api: %s returned malformed body: %w", op, err)
	}
	if envelope.Posts == nil {
		return []domain.Post{}, nil
	}
	return *envelope.Posts, nil
}

// Login exchanges credentials for a bearer token at the API's auth endpoint.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	op := "logging in"

	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", fmt.Errorf("api: %s: %w", op, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("api: %s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("api: %s failed: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("api: %s rejected: %w", op, domain.ErrUnauthorized)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("api: %s failed with status %d", op, res.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil || body.Token == "" {
		return "", fmt.Errorf("api: %s returned malformed body", op)
	}
	return body.Token, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	c.log.Debug().Str("method", method).Str("path", path).Str("requestID", requestID).Msg("API request")
	return req, nil
}

// readErrorMessage pulls the API's {"message": ...} out of an error body,
// falling back to a generic marker.
func readErrorMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&body); err != nil || body.Message == "" {
		return "request failed"
	}
	return body.Message
}
