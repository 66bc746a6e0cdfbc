package pagination

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aditya-makadiya/sociofeed/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID string
}

func itemKey(i item) string { return i.ID }

func items(ids ...string) []item {
	out := make([]item, len(ids))
	for i, id := range ids {
		out[i] = item{ID: id}
	}
	return out
}

func ids(list []item) []string {
	out := make([]string, len(list))
	for i, it := range list {
		out[i] = it.ID
	}
	return out
}

// pagedFetcher serves fixed pages and counts calls
type pagedFetcher struct {
	pages map[int][]item
	total int
	calls atomic.Int32
	asked []int
	mu    sync.Mutex
}

func (f *pagedFetcher) fetch(_ context.Context, page int) (Page[item], error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.asked = append(f.asked, page)
	f.mu.Unlock()
	return Page[item]{Items: f.pages[page], Page: page, Total: f.total}, nil
}

func TestLoadFirstPage_EmptyFeed(t *testing.T) {
	f := &pagedFetcher{total: 0}
	c := New("feed", f.fetch, itemKey, nil)

	require.NoError(t, c.LoadFirstPage(context.Background()))
	cur := c.Cursor()
	assert.Empty(t, cur.Items)
	assert.NotNil(t, cur.Items)
	assert.False(t, cur.HasMore)
	assert.False(t, cur.Loading)

	require.NoError(t, c.LoadNextPage(context.Background()))
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestLoadNextPage_DisjointPages(t *testing.T) {
	page1 := make([]string, 10)
	page2 := make([]string, 10)
	for i := range page1 {
		page1[i] = fmt.Sprintf("a%d", i)
		page2[i] = fmt.Sprintf("b%d", i)
	}
	f := &pagedFetcher{total: 25, pages: map[int][]item{1: items(page1...), 2: items(page2...)}}
	c := New("feed", f.fetch, itemKey, nil)
	ctx := context.Background()

	require.NoError(t, c.LoadFirstPage(ctx))
	assert.True(t, c.Cursor().HasMore)
	assert.Equal(t, 1, c.Cursor().CurrentPage)

	require.NoError(t, c.LoadNextPage(ctx))
	cur := c.Cursor()
	assert.Len(t, cur.Items, 20)
	assert.True(t, cur.HasMore)
	assert.Equal(t, 2, cur.CurrentPage)
	assert.Equal(t, 25, cur.Total)
	assert.Equal(t, []int{1, 2}, f.asked)
}

func TestMerge_DeduplicatesInFirstSeenOrder(t *testing.T) {
	f := &pagedFetcher{total: 100, pages: map[int][]item{
		1: items("a", "b", "c"),
		2: items("c", "d", "a", "e"),
		3: items("e", "f", "b"),
	}}
	c := New("feed", f.fetch, itemKey, nil)
	ctx := context.Background()

	require.NoError(t, c.LoadFirstPage(ctx))
	require.NoError(t, c.LoadNextPage(ctx))
	require.NoError(t, c.LoadNextPage(ctx))

	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, ids(c.Cursor().Items))
}

func TestHasMore_StopsWhenNoNewItems(t *testing.T) {
	f := &pagedFetcher{total: 100, pages: map[int][]item{
		1: items("a", "b"),
		2: items("a", "b"),
	}}
	c := New("feed", f.fetch, itemKey, nil)
	ctx := context.Background()

	require.NoError(t, c.LoadFirstPage(ctx))
	require.NoError(t, c.LoadNextPage(ctx))
	assert.False(t, c.Cursor().HasMore)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.LoadNextPage(ctx))
	}
	assert.Equal(t, int32(2), f.calls.Load())

	require.NoError(t, c.LoadFirstPage(ctx))
	assert.Equal(t, int32(3), f.calls.Load())
	assert.True(t, c.Cursor().HasMore)
}

func TestHasMore_StopsAtTotal(t *testing.T) {
	f := &pagedFetcher{total: 3, pages: map[int][]item{
		1: items("a", "b"),
		2: items("c"),
	}}
	c := New("feed", f.fetch, itemKey, nil)
	ctx := context.Background()

	require.NoError(t, c.LoadFirstPage(ctx))
	require.NoError(t, c.LoadNextPage(ctx))
	assert.False(t, c.Cursor().HasMore)
	assert.Len(t, c.Cursor().Items, 3)
}

func TestLoadNextPage_FailureKeepsItems(t *testing.T) {
	fail := false
	fetch := func(_ context.Context, page int) (Page[item], error) {
		if fail {
			return Page[item]{}, errors.New(errors.KindServer, "Server error. Please try again later.", nil)
		}
		return Page[item]{Items: items(fmt.Sprintf("p%d", page)), Page: page, Total: 10}, nil
	}
	c := New("feed", fetch, itemKey, nil)
	ctx := context.Background()

	require.NoError(t, c.LoadFirstPage(ctx))
	fail = true
	require.Error(t, c.LoadNextPage(ctx))

	cur := c.Cursor()
	assert.Equal(t, []string{"p1"}, ids(cur.Items))
	assert.True(t, cur.HasMore)
	assert.False(t, cur.Loading)
	assert.Equal(t, "Server error. Please try again later.", cur.Error)
	assert.Equal(t, 1, cur.CurrentPage)

	fail = false
	require.NoError(t, c.LoadNextPage(ctx))
	cur = c.Cursor()
	assert.Equal(t, []string{"p1", "p2"}, ids(cur.Items))
	assert.Empty(t, cur.Error)
}

func TestLoadNextPage_RetriesFailedFirstPage(t *testing.T) {
	var asked []int
	fail := true
	fetch := func(_ context.Context, page int) (Page[item], error) {
		asked = append(asked, page)
		if fail {
			return Page[item]{}, fmt.Errorf("boom")
		}
		return Page[item]{Items: items("a"), Page: page, Total: 5}, nil
	}
	c := New("feed", fetch, itemKey, nil)
	ctx := context.Background()

	require.Error(t, c.LoadFirstPage(ctx))
	assert.True(t, c.Cursor().HasMore)

	fail = false
	require.NoError(t, c.LoadNextPage(ctx))
	assert.Equal(t, []int{1, 1}, asked)
}

func TestLoadNextPage_ReentrancyGuard(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(_ context.Context, page int) (Page[item], error) {
		calls.Add(1)
		if page > 1 {
			<-release
		}
		return Page[item]{Items: items(fmt.Sprintf("p%d", page)), Page: page, Total: 10}, nil
	}
	c := New("feed", fetch, itemKey, nil)
	ctx := context.Background()
	require.NoError(t, c.LoadFirstPage(ctx))

	done := make(chan error, 1)
	go func() { done <- c.LoadNextPage(ctx) }()

	require.Eventually(t, func() bool { return c.Cursor().Loading }, time.Second, time.Millisecond)
	for i := 0; i < 5; i++ {
		require.NoError(t, c.LoadNextPage(ctx))
	}

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []string{"p1", "p2"}, ids(c.Cursor().Items))
}

func TestLoadFirstPage_DropsStaleResult(t *testing.T) {
	release := make(chan struct{})
	var first atomic.Bool
	first.Store(true)
	fetch := func(_ context.Context, page int) (Page[item], error) {
		if first.CompareAndSwap(true, false) {
			<-release
			return Page[item]{Items: items("stale"), Page: 1, Total: 1}, nil
		}
		return Page[item]{Items: items("fresh"), Page: 1, Total: 1}, nil
	}
	c := New("feed", fetch, itemKey, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.LoadFirstPage(ctx) }()
	require.Eventually(t, func() bool { return !first.Load() }, time.Second, time.Millisecond)

	require.NoError(t, c.LoadFirstPage(ctx))
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"fresh"}, ids(c.Cursor().Items))
}

func TestMerge_FallsBackToRequestedPage(t *testing.T) {
	fetch := func(_ context.Context, page int) (Page[item], error) {
		return Page[item]{Items: items(fmt.Sprintf("p%d", page)), Total: 10}, nil
	}
	c := New("comments", fetch, itemKey, nil)
	ctx := context.Background()

	require.NoError(t, c.LoadFirstPage(ctx))
	require.NoError(t, c.LoadNextPage(ctx))
	assert.Equal(t, 2, c.Cursor().CurrentPage)
}

func TestLoad_CanceledLeavesNoError(t *testing.T) {
	fetch := func(ctx context.Context, page int) (Page[item], error) {
		return Page[item]{}, ctx.Err()
	}
	c := New("feed", fetch, itemKey, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.LoadFirstPage(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, c.Cursor().Error)
	assert.False(t, c.Cursor().Loading)
}

func TestWatch(t *testing.T) {
	f := &pagedFetcher{total: 3, pages: map[int][]item{
		1: items("a"),
		2: items("b"),
		3: items("c"),
	}}
	c := New("followers", f.fetch, itemKey, nil)
	ctx := context.Background()
	require.NoError(t, c.LoadFirstPage(ctx))

	signals := make(chan struct{}, 5)
	for i := 0; i < 5; i++ {
		signals <- struct{}{}
	}
	close(signals)

	var seen []int
	require.NoError(t, c.Watch(ctx, signals, func(cur Cursor[item]) {
		seen = append(seen, len(cur.Items))
	}))
	assert.Equal(t, []string{"a", "b", "c"}, ids(c.Cursor().Items))
	assert.Equal(t, int32(3), f.calls.Load())
	// signals past the last page still report the settled cursor
	assert.Equal(t, []int{2, 3, 3, 3, 3}, seen)
}

func TestWatch_StopsOnCancel(t *testing.T) {
	c := New("feed", (&pagedFetcher{}).fetch, itemKey, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Watch(ctx, make(chan struct{}), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCursorClone(t *testing.T) {
	c := Cursor[item]{Items: items("a")}
	cp := c.Clone()
	cp.Items[0].ID = "z"
	assert.Equal(t, "a", c.Items[0].ID)
}
