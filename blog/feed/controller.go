// Package feed owns the paginated, searchable, sortable listing state and
// decides when a refetch is warranted versus reusing server-seeded data.
package feed

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mauryajatin45/blogfront/blog/domain"
)

const defaultFetchTimeout = 10 * time.Second

// State is the controller's published view of the feed.
type State struct {
	Items      []domain.Post
	Page       int
	TotalPages int
	Total      int
	SearchTerm string
	SortKey    domain.SortKey
	Loading    bool
}

// Controller drives the listing view. Every state change issues at most one
// fetch, tagged with a monotonically increasing sequence; a response whose
// sequence has been superseded is discarded, so only the freshest requested
// state ever commits. The in-flight request is cancelled when a newer state
// change arrives.
type Controller struct {
	mu     sync.Mutex
	lister domain.PostLister
	log    zerolog.Logger

	timeout  time.Duration
	state    State
	snapshot domain.PostPage

	seq    uint64
	cancel context.CancelFunc
	idleCh chan struct{} // closed while no fetch is in flight
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimeout bounds how long a single listing fetch may take. On expiry the
// fetch behaves exactly like a network failure.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithLogger attaches a logger for fetch failures.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// New seeds a controller from a server-rendered snapshot: page 1, default
// sort, no search. The pristine state renders the snapshot without issuing a
// redundant first fetch.
func New(lister domain.PostLister, snapshot domain.PostPage, opts ...Option) *Controller {
	if snapshot.Posts == nil {
		snapshot = domain.EmptyPage()
	}
	idle := make(chan struct{})
	close(idle)

	c := &Controller{
		lister:   lister,
		log:      zerolog.Nop(),
		timeout:  defaultFetchTimeout,
		snapshot: snapshot,
		idleCh:   idle,
		state: State{
			Items:      snapshot.Posts,
			Page:       1,
			TotalPages: maxInt(snapshot.Pages, 1),
			Total:      snapshot.Total,
			SearchTerm: "",
			SortKey:    domain.SortNewest,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current feed state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetSearchTerm resets to page 1 and refetches. An empty term clears
// filtering; combined with default sort that restores the pristine state and
// reuses the seeded snapshot.
func (c *Controller) SetSearchTerm(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SearchTerm = strings.TrimSpace(term)
	c.state.Page = 1
	c.applyLocked()
}

// SetSortKey switches the listing order, resetting to page 1. Setting the
// current key again is a no-op.
func (c *Controller) SetSortKey(key domain.SortKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if key == c.state.SortKey {
		return
	}
	c.state.SortKey = key
	c.state.Page = 1
	c.applyLocked()
}

// SetPage clamps n to [1, totalPages] and refetches unless n is already the
// loaded page.
func (c *Controller) SetPage(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 1 {
		n = 1
	}
	if c.state.TotalPages >= 1 && n > c.state.TotalPages {
		n = c.state.TotalPages
	}
	if n == c.state.Page {
		return
	}
	c.state.Page = n
	c.applyLocked()
}

// Refetch forces a fetch of the current state.
func (c *Controller) Refetch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refetchLocked()
}

// Wait blocks until no fetch is in flight or ctx expires.
func (c *Controller) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		if !c.state.Loading {
			c.mu.Unlock()
			return nil
		}
		idle := c.idleCh
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle:
		}
	}
}

func (c *Controller) pristineLocked() bool {
	return c.state.Page == 1 && c.state.SearchTerm == "" && c.state.SortKey == domain.SortNewest
}

func (c *Controller) applyLocked() {
	if !c.pristineLocked() {
		c.refetchLocked()
		return
	}

	// Pristine state: reuse the seeded snapshot and invalidate anything in
	// flight so a stale response cannot overwrite it.
	c.seq++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.state.Loading {
		c.state.Loading = false
		close(c.idleCh)
	}
	c.commitLocked(c.snapshot)
}

func (c *Controller) refetchLocked() {
	c.seq++
	seq := c.seq
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	c.cancel = cancel

	if !c.state.Loading {
		c.state.Loading = true
		c.idleCh = make(chan struct{})
	}

	q := domain.ListQuery{
		Page:   c.state.Page,
		Search: c.state.SearchTerm,
		Sort:   c.state.SortKey,
	}

	go func() {
		page, err := c.lister.ListPosts(ctx, q)
		cancel()

		c.mu.Lock()
		defer c.mu.Unlock()
		if seq != c.seq {
			// A newer request superseded this one; the response is stale.
			return
		}
		c.cancel = nil
		c.state.Loading = false
		close(c.idleCh)

		if err != nil {
			// Previous items and totalPages stay untouched.
			c.log.Error().Err(err).
				Int("page", q.Page).
				Str("search", q.Search).
				Str("sort", string(q.Sort)).
				Msg("Failed to fetch posts")
			return
		}
		c.commitLocked(page)
	}()
}

func (c *Controller) commitLocked(page domain.PostPage) {
	if page.Posts == nil {
		page = domain.EmptyPage()
	}
	c.state.Items = page.Posts
	c.state.TotalPages = maxInt(page.Pages, 1)
	c.state.Total = page.Total
	if page.Page >= 1 {
		c.state.Page = page.Page
	}
	if c.state.Page > c.state.TotalPages {
		c.state.Page = c.state.TotalPages
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
