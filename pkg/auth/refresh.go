package auth

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/aditya-makadiya/sociofeed/pkg/errors"
	"github.com/aditya-makadiya/sociofeed/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// RefreshFunc performs one session refresh against the API
type RefreshFunc func(ctx context.Context) error

// Coordinator serializes session refreshes.
//
// A request that gets a 401 records the session generation it was sent
// under and calls Refresh with it. Concurrent callers share a single
// in-flight refresh; a caller whose generation is already stale returns
// immediately so it can retry against the refreshed session.
type Coordinator struct {
	refresh RefreshFunc

	group      singleflight.Group
	generation atomic.Uint64
	attempts   atomic.Int64

	mu          sync.Mutex
	onExpired   func(error)
	onRefreshed func()
}

// NewCoordinator creates a coordinator around refresh
func NewCoordinator(refresh RefreshFunc) *Coordinator {
	return &Coordinator{refresh: refresh}
}

// OnExpired registers the hook run once per failed refresh (forced logout)
func (c *Coordinator) OnExpired(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpired = fn
}

// OnRefreshed registers the hook run after each successful transparent
// refresh, once the rotated cookies are in place
func (c *Coordinator) OnRefreshed(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRefreshed = fn
}

// Generation identifies the current session
func (c *Coordinator) Generation() uint64 {
	return c.generation.Load()
}

// Attempts returns how many refresh calls have been issued
func (c *Coordinator) Attempts() int64 {
	return c.attempts.Load()
}

// Refresh makes sure a refresh completed after generation seen.
// It returns a session-expired error when the refresh fails.
func (c *Coordinator) Refresh(ctx context.Context, seen uint64) error {
	if c.generation.Load() != seen {
		return nil
	}

	ch := c.group.DoChan("refresh", func() (interface{}, error) {
		if c.generation.Load() != seen {
			return nil, nil
		}

		c.attempts.Add(1)
		logger.Debug("Refreshing session", "generation", seen)

		// Waiters may give up, the refresh itself must finish for the rest
		if err := c.refresh(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Session refresh failed", "error", err)
			c.expire(err)
			return nil, errors.SessionExpiredError(err)
		}

		c.generation.Add(1)
		logger.Debug("Session refreshed", "generation", seen+1)
		c.refreshed()
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Bump marks the session as replaced (login, explicit refresh)
func (c *Coordinator) Bump() {
	c.generation.Add(1)
}

func (c *Coordinator) expire(err error) {
	c.mu.Lock()
	fn := c.onExpired
	c.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

func (c *Coordinator) refreshed() {
	c.mu.Lock()
	fn := c.onRefreshed
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// bypassPrefixes are endpoints whose 401 is a real answer, not an expired session
var bypassPrefixes = []string{
	"/auth/register",
	"/auth/login",
	"/auth/activate/",
	"/auth/forgot-password",
	"/auth/reset-password/",
	"/auth/resend-activation",
	"/auth/refresh-token",
	"/auth/logout",
}

// BypassesRefresh reports whether a 401 on path must not trigger a refresh
func BypassesRefresh(path string) bool {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for _, p := range bypassPrefixes {
		if path == strings.TrimSuffix(p, "/") || strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
