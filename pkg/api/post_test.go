package api

import (
	"context"
	"testing"
	"time"

	"github.com/aditya-makadiya/sociofeed/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough for content sniffing to see an image
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestGetFeed_Pages(t *testing.T) {
	fake, c, _ := newTestAPI(t)
	me := loginAs(t, fake, c, "alice")

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		fake.AddPost(me, "post", base.Add(time.Duration(i)*time.Hour))
	}

	ctx := context.Background()
	first, err := c.GetFeed(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, first.Posts, 2)
	assert.Equal(t, 5, first.Total)
	assert.Equal(t, 1, first.Page)
	assert.True(t, first.Posts[0].CreatedAt.After(first.Posts[1].CreatedAt))

	last, err := c.GetFeed(ctx, 3, 2)
	require.NoError(t, err)
	assert.Len(t, last.Posts, 1)

	beyond, err := c.GetFeed(ctx, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, beyond.Posts)
	assert.NotNil(t, beyond.Posts)
}

func TestGetFeed_Unauthenticated(t *testing.T) {
	fake, c, _ := newTestAPI(t)

	_, err := c.GetFeed(context.Background(), 1, 10)
	require.Error(t, err)
	assert.Equal(t, errors.KindSessionExpired, errors.KindOf(err))
	assert.Equal(t, 1, fake.Calls("GET /auth/refresh-token"))
}

func TestCreatePost(t *testing.T) {
	fake, c, _ := newTestAPI(t)
	loginAs(t, fake, c, "alice")
	ctx := context.Background()

	p, err := c.CreatePost(ctx, CreatePostRequest{
		Content: "hello world",
		Images:  []Upload{{FileName: "a.png", ContentType: "image/png", Data: pngHeader}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello world", p.Content)
	assert.Equal(t, "alice", p.User.Username)
	assert.Len(t, p.Images, 1)

	_, err = c.CreatePost(ctx, CreatePostRequest{})
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.KindOf(err))

	_, err = c.CreatePost(ctx, CreatePostRequest{
		Content: "text file",
		Images:  []Upload{{FileName: "a.txt", ContentType: "text/plain", Data: []byte("plain text")}},
	})
	require.Error(t, err)
	assert.Equal(t, "Only image files are allowed", errors.Message(err))
}

func TestCreatePost_RetriedAfterRefresh(t *testing.T) {
	fake, c, _ := newTestAPI(t)
	loginAs(t, fake, c, "alice")
	fake.ExpireAccessTokens()

	p, err := c.CreatePost(context.Background(), CreatePostRequest{
		Content: "after refresh",
		Images:  []Upload{{FileName: "a.png", ContentType: "image/png", Data: pngHeader}},
	})
	require.NoError(t, err)
	assert.Len(t, p.Images, 1)
	assert.Equal(t, 2, fake.Calls("POST /posts"))
}

func TestLikeUnlike(t *testing.T) {
	fake, c, _ := newTestAPI(t)
	loginAs(t, fake, c, "alice")
	other := fake.AddUser("bob", "bob@example.com", testPassword, true)
	postID := fake.AddPost(other, "hi", time.Now())
	fake.AddLike(postID, other)
	ctx := context.Background()

	n, err := c.LikePost(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = c.LikePost(ctx, postID)
	require.Error(t, err)
	assert.Equal(t, "Post already liked", errors.Message(err))

	n, err = c.UnlikePost(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = c.LikePost(ctx, "missing")
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
}

func TestSaveUnsave(t *testing.T) {
	fake, c, _ := newTestAPI(t)
	me := loginAs(t, fake, c, "alice")
	postID := fake.AddPost(me, "keep", time.Now())
	fake.AddPost(me, "skip", time.Now())
	ctx := context.Background()

	require.NoError(t, c.SavePost(ctx, postID))
	saved, err := c.GetSavedPosts(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, saved.Posts, 1)
	assert.Equal(t, postID, saved.Posts[0].ID)
	assert.True(t, saved.Posts[0].IsSaved)

	require.NoError(t, c.UnsavePost(ctx, postID))
	assert.Error(t, c.UnsavePost(ctx, postID))

	p, err := c.GetPost(ctx, postID)
	require.NoError(t, err)
	assert.False(t, p.IsSaved)
}
