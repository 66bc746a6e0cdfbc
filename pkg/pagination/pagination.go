// Package pagination drives incremental "load next page" lists.
//
// A Controller owns the fetch lifecycle of one list and writes its progress
// into a State, which is either a standalone Memory or an adapter over the
// application store.
package pagination

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/aditya-makadiya/sociofeed/pkg/errors"
	"github.com/aditya-makadiya/sociofeed/pkg/logger"
)

// Cursor is the state of one incrementally loaded list
type Cursor[T any] struct {
	Items       []T    `json:"items"`
	CurrentPage int    `json:"currentPage"`
	HasMore     bool   `json:"hasMore"`
	Total       int    `json:"total"`
	Loading     bool   `json:"loading"`
	Error       string `json:"error,omitempty"`
}

// Clone returns a copy that does not share the items slice
func (c Cursor[T]) Clone() Cursor[T] {
	if c.Items != nil {
		items := make([]T, len(c.Items))
		copy(items, c.Items)
		c.Items = items
	}
	return c
}

// Page is one page as returned by the server.
// Page is 0 when the server does not report it.
type Page[T any] struct {
	Items []T
	Page  int
	Total int
}

// Fetcher loads one page
type Fetcher[T any] func(ctx context.Context, page int) (Page[T], error)

// State stores a cursor
type State[T any] interface {
	Cursor() Cursor[T]
	Update(fn func(*Cursor[T]))
}

// Memory is a State held in memory
type Memory[T any] struct {
	mu sync.RWMutex
	c  Cursor[T]
}

func (m *Memory[T]) Cursor() Cursor[T] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.c.Clone()
}

func (m *Memory[T]) Update(fn func(*Cursor[T])) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.c)
}

// Controller loads pages of one list
type Controller[T any] struct {
	name  string
	fetch Fetcher[T]
	key   func(T) string
	state State[T]

	mu         sync.Mutex
	inFlight   bool
	generation uint64
	loaded     bool // a page succeeded since the last reset
}

// New creates a controller. key identifies items for deduplication.
func New[T any](name string, fetch Fetcher[T], key func(T) string, state State[T]) *Controller[T] {
	if state == nil {
		state = &Memory[T]{}
	}
	return &Controller[T]{name: name, fetch: fetch, key: key, state: state}
}

// Cursor returns the current list state
func (c *Controller[T]) Cursor() Cursor[T] {
	return c.state.Cursor()
}

// LoadFirstPage clears the list and fetches page 1.
// A fetch still in flight from before the reset is discarded when it lands.
func (c *Controller[T]) LoadFirstPage(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.inFlight = true
	c.loaded = false
	c.state.Update(func(cur *Cursor[T]) {
		*cur = Cursor[T]{Items: []T{}, CurrentPage: 1, HasMore: true, Loading: true}
	})
	c.mu.Unlock()

	return c.load(ctx, gen, 1)
}

// LoadNextPage fetches the page after the current one. It does nothing
// while a fetch is in flight or once the list is exhausted.
func (c *Controller[T]) LoadNextPage(ctx context.Context) error {
	c.mu.Lock()
	cur := c.state.Cursor()
	if c.inFlight || cur.Loading || !cur.HasMore {
		c.mu.Unlock()
		return nil
	}

	page := cur.CurrentPage + 1
	if !c.loaded {
		// first page failed; retry it instead of skipping ahead
		page = 1
	}
	gen := c.generation
	c.inFlight = true
	c.state.Update(func(cur *Cursor[T]) {
		cur.Loading = true
		cur.Error = ""
	})
	c.mu.Unlock()

	return c.load(ctx, gen, page)
}

func (c *Controller[T]) load(ctx context.Context, gen uint64, page int) error {
	logger.Debug("Loading page", "list", c.name, "page", page)
	res, err := c.fetch(ctx, page)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		logger.Debug("Dropping stale page", "list", c.name, "page", page)
		return nil
	}
	c.inFlight = false

	if err != nil {
		c.state.Update(func(cur *Cursor[T]) {
			cur.Loading = false
			if !stderrors.Is(err, context.Canceled) {
				cur.Error = errors.Message(err)
			}
		})
		return err
	}

	c.loaded = true
	c.state.Update(func(cur *Cursor[T]) {
		c.merge(cur, res, page)
	})
	return nil
}

// merge appends unseen items in first-seen order
func (c *Controller[T]) merge(cur *Cursor[T], res Page[T], requested int) {
	seen := make(map[string]struct{}, len(cur.Items)+len(res.Items))
	for _, item := range cur.Items {
		seen[c.key(item)] = struct{}{}
	}

	added := 0
	for _, item := range res.Items {
		k := c.key(item)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		cur.Items = append(cur.Items, item)
		added++
	}
	if cur.Items == nil {
		cur.Items = []T{}
	}

	cur.Total = res.Total
	cur.HasMore = added > 0 && len(cur.Items) < res.Total
	cur.CurrentPage = requested
	if res.Page > 0 {
		cur.CurrentPage = res.Page
	}
	cur.Loading = false
	cur.Error = ""

	logger.Debug("Page loaded", "list", c.name, "page", cur.CurrentPage, "added", added, "items", len(cur.Items), "total", res.Total, "has_more", cur.HasMore)
}

// Watch calls LoadNextPage for every signal (a sentinel coming into view)
// until ctx is done or signals is closed, handing the cursor to loaded
// after each attempt. Fetch errors are left in the cursor for display;
// they do not stop the watch.
func (c *Controller[T]) Watch(ctx context.Context, signals <-chan struct{}, loaded func(Cursor[T])) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-signals:
			if !ok {
				return nil
			}
			if err := c.LoadNextPage(ctx); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			if loaded != nil {
				loaded(c.Cursor())
			}
		}
	}
}
