package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/aditya-makadiya/sociofeed/pkg/api"
	"github.com/aditya-makadiya/sociofeed/pkg/errors"
	"github.com/aditya-makadiya/sociofeed/pkg/notify"
	"github.com/aditya-makadiya/sociofeed/pkg/pagination"
	"github.com/aditya-makadiya/sociofeed/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPosts answers the post calls a test sets; the rest panic
type stubPosts struct {
	PostAPI

	like   func(ctx context.Context, postID string) (int, error)
	unlike func(ctx context.Context, postID string) (int, error)
	save   func(ctx context.Context, postID string) error
	unsave func(ctx context.Context, postID string) error
	get    func(ctx context.Context, postID string) (*api.Post, error)
}

func (s *stubPosts) LikePost(ctx context.Context, postID string) (int, error) {
	return s.like(ctx, postID)
}

func (s *stubPosts) UnlikePost(ctx context.Context, postID string) (int, error) {
	return s.unlike(ctx, postID)
}

func (s *stubPosts) SavePost(ctx context.Context, postID string) error {
	return s.save(ctx, postID)
}

func (s *stubPosts) UnsavePost(ctx context.Context, postID string) error {
	return s.unsave(ctx, postID)
}

func (s *stubPosts) GetPost(ctx context.Context, postID string, opts ...api.CallOption) (*api.Post, error) {
	return s.get(ctx, postID)
}

var errServer = errors.FromStatus(http.StatusInternalServerError, "", nil)

func getFails(context.Context, string) (*api.Post, error) {
	return nil, errServer
}

func newStubPostService(stub *stubPosts) (*PostService, *store.Store, *notify.Recorder) {
	st := store.New()
	rec := notify.NewRecorder()
	return NewPostService(stub, st, rec, 10), st, rec
}

func findPost(t *testing.T, st *store.Store, id string) api.Post {
	t.Helper()
	p, ok := st.Posts().Find(id)
	require.True(t, ok)
	return p
}

func TestToggleLike_ServerCountWins(t *testing.T) {
	release := make(chan int)
	stub := &stubPosts{like: func(ctx context.Context, postID string) (int, error) {
		return <-release, nil
	}}
	svc, st, rec := newStubPostService(stub)
	seedFeed(st, api.Post{ID: "p1", LikeCount: 5}, api.Post{ID: "p2", LikeCount: 1})

	done := make(chan Toggle)
	go func() {
		done <- svc.ToggleLike(context.Background(), "p1").Value()
	}()

	require.Eventually(t, func() bool {
		return st.Posts().IsLiking("p1") && findPost(t, st, "p1").IsLiked
	}, time.Second, 5*time.Millisecond)
	p := findPost(t, st, "p1")
	assert.Equal(t, 6, p.LikeCount)
	assert.False(t, st.Posts().IsLiking("p2"))

	release <- 42
	assert.Equal(t, Toggle{On: true, Count: 42}, <-done)

	p = findPost(t, st, "p1")
	assert.True(t, p.IsLiked)
	assert.Equal(t, 42, p.LikeCount)
	assert.False(t, st.Posts().IsLiking("p1"))
	assert.Equal(t, []string{"Post liked!"}, rec.Texts(notify.LevelSuccess))
}

func TestToggleLike_Unlike(t *testing.T) {
	stub := &stubPosts{unlike: func(context.Context, string) (int, error) { return 4, nil }}
	svc, st, _ := newStubPostService(stub)
	seedFeed(st, api.Post{ID: "p1", LikeCount: 5, IsLiked: true})

	r := svc.ToggleLike(context.Background(), "p1")
	require.True(t, r.IsOk())
	assert.Equal(t, Toggle{On: false, Count: 4}, r.Value())
}

func TestToggleLike_RevertsWhenReconcileFails(t *testing.T) {
	stub := &stubPosts{
		like: func(context.Context, string) (int, error) { return 0, errServer },
		get:  getFails,
	}
	svc, st, _ := newStubPostService(stub)
	seedFeed(st, api.Post{ID: "p1", LikeCount: 5})

	r := svc.ToggleLike(context.Background(), "p1")
	require.False(t, r.IsOk())

	p := findPost(t, st, "p1")
	assert.False(t, p.IsLiked)
	assert.Equal(t, 5, p.LikeCount)
	assert.False(t, st.Posts().IsLiking("p1"))
	assert.Equal(t, errors.DefaultMessage(http.StatusInternalServerError), st.Posts().Error)
}

func TestToggleLike_ReconcilesFromServer(t *testing.T) {
	stub := &stubPosts{
		like: func(context.Context, string) (int, error) { return 0, errServer },
		get: func(context.Context, string) (*api.Post, error) {
			return &api.Post{ID: "p1", IsLiked: true, LikeCount: 9}, nil
		},
	}
	svc, st, _ := newStubPostService(stub)
	seedFeed(st, api.Post{ID: "p1", LikeCount: 5})

	r := svc.ToggleLike(context.Background(), "p1")
	require.False(t, r.IsOk())

	p := findPost(t, st, "p1")
	assert.True(t, p.IsLiked)
	assert.Equal(t, 9, p.LikeCount)
}

func TestToggleLike_CountNeverNegative(t *testing.T) {
	stub := &stubPosts{
		unlike: func(context.Context, string) (int, error) { return 0, errServer },
		get:    getFails,
	}
	svc, st, _ := newStubPostService(stub)
	seedFeed(st, api.Post{ID: "p1", LikeCount: 0, IsLiked: true})

	var seen []int
	st.Subscribe(func(a store.Action) {
		if p, ok := a.(store.PostPatched); ok && p.Patch.LikeCount != nil {
			seen = append(seen, *p.Patch.LikeCount)
		}
	})
	svc.ToggleLike(context.Background(), "p1")
	for _, n := range seen {
		assert.GreaterOrEqual(t, n, 0)
	}
}

func TestToggleLike_LastResponseWins(t *testing.T) {
	first := make(chan int)
	second := make(chan int)
	calls := 0
	var mu sync.Mutex
	stub := &stubPosts{
		like: func(context.Context, string) (int, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return <-first, nil
		},
		unlike: func(context.Context, string) (int, error) {
			return <-second, nil
		},
	}
	svc, st, _ := newStubPostService(stub)
	seedFeed(st, api.Post{ID: "p1", LikeCount: 5})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		svc.ToggleLike(context.Background(), "p1")
	}()
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, time.Second, 5*time.Millisecond)

	// the second toggle starts from the optimistic like and unlikes
	wg.Add(1)
	go func() {
		defer wg.Done()
		svc.ToggleLike(context.Background(), "p1")
	}()
	require.Eventually(t, func() bool { return st.Posts().LikeLoading["p1"] == 2 }, time.Second, 5*time.Millisecond)

	second <- 5
	require.Eventually(t, func() bool { return st.Posts().LikeLoading["p1"] == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 5, findPost(t, st, "p1").LikeCount)
	first <- 6
	wg.Wait()

	p := findPost(t, st, "p1")
	assert.Equal(t, 6, p.LikeCount)
	assert.True(t, p.IsLiked)
	assert.False(t, st.Posts().IsLiking("p1"))
}

func TestToggleSave(t *testing.T) {
	stub := &stubPosts{
		save:   func(context.Context, string) error { return nil },
		unsave: func(context.Context, string) error { return errServer },
		get:    getFails,
	}
	svc, st, rec := newStubPostService(stub)
	seedFeed(st, api.Post{ID: "p1"})

	r := svc.ToggleSave(context.Background(), "p1")
	require.True(t, r.IsOk())
	assert.True(t, findPost(t, st, "p1").IsSaved)
	assert.Equal(t, []string{"Post saved!"}, rec.Texts(notify.LevelSuccess))

	r = svc.ToggleSave(context.Background(), "p1")
	require.False(t, r.IsOk())
	assert.True(t, findPost(t, st, "p1").IsSaved)
	assert.False(t, st.Posts().IsSaving("p1"))
}

func TestToggleLike_PropagatesEverywhere(t *testing.T) {
	stub := &stubPosts{like: func(context.Context, string) (int, error) { return 8, nil }}
	svc, st, _ := newStubPostService(stub)

	p1 := api.Post{ID: "p1", LikeCount: 7}
	seedFeed(st, api.Post{ID: "p0"}, p1, api.Post{ID: "p2"})
	st.Dispatch(store.PostListUpdated{List: store.SavedList, Update: func(c *pagination.Cursor[api.Post]) {
		c.Items = []api.Post{p1}
	}})
	st.Dispatch(store.PostListUpdated{List: store.ProfilePostsList, Update: func(c *pagination.Cursor[api.Post]) {
		c.Items = []api.Post{{ID: "p9"}, p1}
	}})
	st.Dispatch(store.PostDetailLoaded{Post: &p1})

	require.True(t, svc.ToggleLike(context.Background(), "p1").IsOk())

	posts := st.Posts()
	assert.Equal(t, []string{"p0", "p1", "p2"}, ids(posts.Feed.Items))
	assert.Equal(t, 8, posts.Feed.Items[1].LikeCount)
	assert.Equal(t, 8, posts.Saved.Items[0].LikeCount)
	assert.Equal(t, 8, posts.Detail.LikeCount)
	profile := st.Profile()
	assert.Equal(t, []string{"p9", "p1"}, ids(profile.Posts.Items))
	assert.Equal(t, 8, profile.Posts.Items[1].LikeCount)
	assert.True(t, profile.Posts.Items[1].IsLiked)
}

func TestToggleLike_LoadsUnknownPost(t *testing.T) {
	stub := &stubPosts{
		like: func(context.Context, string) (int, error) { return 3, nil },
		get: func(context.Context, string) (*api.Post, error) {
			return &api.Post{ID: "p1", LikeCount: 2}, nil
		},
	}
	svc, st, _ := newStubPostService(stub)

	r := svc.ToggleLike(context.Background(), "p1")
	require.True(t, r.IsOk())
	assert.Equal(t, 3, st.Posts().Detail.LikeCount)
}

func ids(posts []api.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestComments_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	aliceID := env.login(t, "alice")
	postID := env.fake.AddPost(aliceID, "hello", time.Now())

	require.True(t, env.posts.GetPost(ctx, postID).IsOk())
	require.True(t, env.posts.LoadComments(ctx, postID, 1).IsOk())
	assert.Empty(t, env.store.Posts().Comments)

	added := env.posts.AddComment(ctx, postID, "first!")
	require.True(t, added.IsOk(), added.Message())
	posts := env.store.Posts()
	require.Len(t, posts.Comments, 1)
	assert.Equal(t, "first!", posts.Comments[0].Content)
	assert.Equal(t, 1, posts.Detail.CommentCount)
	assert.Contains(t, env.rec.Texts(notify.LevelSuccess), "Comment added successfully!")

	updated := env.posts.UpdateComment(ctx, postID, added.Value().ID, "edited")
	require.True(t, updated.IsOk(), updated.Message())
	assert.Equal(t, "edited", env.store.Posts().Comments[0].Content)

	require.True(t, env.posts.DeleteComment(ctx, postID, added.Value().ID).IsOk())
	posts = env.store.Posts()
	assert.Empty(t, posts.Comments)
	assert.Equal(t, 0, posts.Detail.CommentCount)
	assert.False(t, posts.CommentLoading)
}

func TestAddComment_Invalid(t *testing.T) {
	env := newTestEnv(t)
	aliceID := env.login(t, "alice")
	postID := env.fake.AddPost(aliceID, "hello", time.Now())

	r := env.posts.AddComment(context.Background(), postID, "")
	require.False(t, r.IsOk())
	assert.Equal(t, "Content is required", env.store.Posts().Error)
	assert.Equal(t, 0, env.fake.Calls("POST /posts/:id/comments"))
}

func TestDeleteComment_ForbiddenRestoresCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bobID := env.fake.AddUser("bob", "bob@example.com", testPassword, true)
	postID := env.fake.AddPost(bobID, "bob's post", time.Now())
	env.login(t, "alice")

	require.True(t, env.posts.GetPost(ctx, postID).IsOk())
	added := env.posts.AddComment(ctx, postID, "nice")
	require.True(t, added.IsOk())

	// another account may not delete alice's comment
	env.login(t, "bob2")
	require.True(t, env.posts.GetPost(ctx, postID).IsOk())
	require.Equal(t, 1, env.store.Posts().Detail.CommentCount)

	r := env.posts.DeleteComment(ctx, postID, added.Value().ID)
	require.False(t, r.IsOk())
	assert.Equal(t, errors.KindForbidden, errors.KindOf(r.Error()))
	assert.Equal(t, 1, env.store.Posts().Detail.CommentCount)
	assert.Equal(t, "You can only modify your own comments", env.store.Posts().Error)
}
