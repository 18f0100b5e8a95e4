package web

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mauryajatin45/blogfront/blog/domain"
)

// SnapshotCache holds the pristine first listing page used to seed feed
// controllers, revalidating it after a fixed interval instead of hitting the
// API on every render.
type SnapshotCache struct {
	mu     sync.Mutex
	lister domain.PostLister
	log    zerolog.Logger

	ttl   time.Duration
	limit int

	page      domain.PostPage
	fetchedAt time.Time
	seeded    bool
}

// NewSnapshotCache builds a cache revalidating after ttl. limit caps the page
// size requested from the API; 0 uses the server default.
func NewSnapshotCache(lister domain.PostLister, ttl time.Duration, limit int, log zerolog.Logger) *SnapshotCache {
	return &SnapshotCache{
		lister: lister,
		log:    log,
		ttl:    ttl,
		limit:  limit,
	}
}

// Get returns the cached snapshot, refetching when it has gone stale. A
// failed revalidation serves the previous snapshot; only a failed first fetch
// yields the canonical empty page.
func (s *SnapshotCache) Get(ctx context.Context) domain.PostPage {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seeded && time.Since(s.fetchedAt) < s.ttl {
		return s.page
	}

	page, err := s.lister.ListPosts(ctx, domain.ListQuery{
		Page:  1,
		Sort:  domain.SortNewest,
		Limit: s.limit,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("Snapshot revalidation failed")
		if s.seeded {
			return s.page
		}
		return domain.EmptyPage()
	}

	s.page = page
	s.fetchedAt = time.Now()
	s.seeded = true
	return s.page
}

// Invalidate drops the cached snapshot so the next render refetches, used
// after the user publishes or edits a post.
func (s *SnapshotCache) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeded = false
}
