package domain

import (
	"strings"
	"time"
)

// Post represents a blog article as served by the remote posts API.
// Content is Markdown; that is the canonical storage form. ImageURL may be
// absolute or a path relative to the API's asset base.
type Post struct {
	ID        string     `json:"_id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Category  string     `json:"category"`
	ImageURL  string     `json:"imageUrl,omitempty"`
	Author    Author     `json:"author"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Author is the read-only reference to the account that owns a post.
type Author struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

// Categories the authoring form offers. The API tolerates free-form strings,
// so these are defaults rather than an enforced enum.
var Categories = []string{"General", "Technology", "Programming", "Design"}

// SortKey selects the listing order.
type SortKey string

const (
	SortNewest SortKey = "newest"
	SortOldest SortKey = "oldest"
	SortTitle  SortKey = "title"
)

// ParseSortKey maps a raw query value onto a known sort key, falling back to
// SortNewest. Unknown values never fail here; the server's behavior for them
// is undefined and we do not forward garbage.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortOldest:
		return SortOldest
	case SortTitle:
		return SortTitle
	default:
		return SortNewest
	}
}

// ListQuery is the parameter set for a listing request.
type ListQuery struct {
	Page   int
	Search string
	Sort   SortKey
	Limit  int // 0 means server default
}

// PostPage is the normalized listing envelope.
type PostPage struct {
	Posts []Post `json:"posts"`
	Page  int    `json:"page"`
	Pages int    `json:"pages"`
	Total int    `json:"total"`
}

// EmptyPage is the canonical empty result used when a listing request fails
// or returns a malformed envelope.
func EmptyPage() PostPage {
	return PostPage{Posts: []Post{}, Page: 1, Pages: 1, Total: 0}
}

// Edited reports whether the post has been updated since creation.
func (p *Post) Edited() bool {
	return p.UpdatedAt != nil && !p.UpdatedAt.Equal(p.CreatedAt)
}

// ReadingTime estimates minutes to read at 200 words per minute, rounding up.
func (p *Post) ReadingTime() int {
	words := len(strings.Fields(p.Content))
	if words == 0 {
		return 0
	}
	return (words + 199) / 200
}
