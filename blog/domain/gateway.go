package domain

import (
	"context"
	"errors"
)

var (
	// ErrNotFound covers every way a single-post fetch can fail: non-2xx,
	// malformed body, network error, timeout. Callers render a not-found
	// page rather than an error.
	ErrNotFound = errors.New("post not found")

	// ErrUnauthorized marks a 401/403 from the API or a locally absent or
	// expired credential. Callers redirect to re-authentication.
	ErrUnauthorized = errors.New("unauthorized")
)

// PostDraft is the authoring payload for create and update. A nil Image means
// "no new file attached", which the API treats as keep-existing, not remove.
type PostDraft struct {
	Title    string
	Content  string // Markdown
	Category string
	Image    *ImageFile
}

// ImageFile is a selected image to upload alongside a draft.
type ImageFile struct {
	Name string
	Data []byte
}

// Gateway is the single point of contact with the remote posts API.
type Gateway interface {
	ListPosts(ctx context.Context, q ListQuery) (PostPage, error)
	GetPost(ctx context.Context, id string) (*Post, error)
	CreatePost(ctx context.Context, draft PostDraft) (*Post, error)
	UpdatePost(ctx context.Context, id string, draft PostDraft) (*Post, error)
	ListUserPosts(ctx context.Context) ([]Post, error)
}

// PostLister is the read-only subset the feed controller depends on.
type PostLister interface {
	ListPosts(ctx context.Context, q ListQuery) (PostPage, error)
}
