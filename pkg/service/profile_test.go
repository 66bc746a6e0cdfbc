package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"testing"
	"time"

	"github.com/aditya-makadiya/sociofeed/pkg/api"
	"github.com/aditya-makadiya/sociofeed/pkg/avatar"
	"github.com/aditya-makadiya/sociofeed/pkg/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.login(t, "alice")
	bobID := env.fake.AddUser("bob", "bob@example.com", testPassword, true)
	seedPosts(env, bobID, 4)

	r := env.profile.LoadPage(ctx, bobID)
	require.True(t, r.IsOk(), r.Message())
	assert.Equal(t, "bob", r.Value().Username)

	state := env.store.Profile()
	require.NotNil(t, state.Profile)
	assert.Equal(t, bobID, state.Profile.ID)
	assert.Len(t, state.Posts.Items, 3)
	assert.True(t, state.Posts.HasMore)

	more := env.profile.LoadMorePosts(ctx)
	require.True(t, more.IsOk())
	assert.Len(t, more.Value().Items, 4)
	assert.False(t, more.Value().HasMore)
}

func TestLoadPage_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "alice")

	r := env.profile.LoadPage(context.Background(), "missing")
	require.False(t, r.IsOk())
	assert.Equal(t, "User not found", r.Message())
}

func TestLoadPosts_RebindsOnNewUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.login(t, "alice")
	bobID := env.fake.AddUser("bob", "bob@example.com", testPassword, true)
	carolID := env.fake.AddUser("carol", "carol@example.com", testPassword, true)
	seedPosts(env, bobID, 2)
	env.fake.AddPost(carolID, "carol's only post", time.Now())

	require.True(t, env.profile.LoadPosts(ctx, bobID).IsOk())
	r := env.profile.LoadPosts(ctx, carolID)
	require.True(t, r.IsOk())
	require.Len(t, r.Value().Items, 1)
	assert.Equal(t, "carol's only post", r.Value().Items[0].Content)
}

func TestFollow_PropagatesToProfileAndLists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	aliceID := env.login(t, "alice")
	bobID := env.fake.AddUser("bob", "bob@example.com", testPassword, true)
	carolID := env.fake.AddUser("carol", "carol@example.com", testPassword, true)
	env.fake.Follow(carolID, bobID)
	env.fake.Follow(bobID, aliceID)

	require.True(t, env.profile.GetProfile(ctx, bobID).IsOk())
	require.True(t, env.profile.LoadFollowing(ctx, bobID).IsOk())
	require.True(t, env.profile.Search(ctx, "bo").IsOk())
	require.Equal(t, 1, env.store.Profile().Profile.FollowerCount)

	r := env.profile.ToggleFollow(ctx, bobID)
	require.True(t, r.IsOk(), r.Message())
	assert.Equal(t, Toggle{On: true, Count: 2}, r.Value())

	state := env.store.Profile()
	assert.True(t, state.Profile.IsFollowing)
	assert.Equal(t, 2, state.Profile.FollowerCount)
	require.Len(t, state.Search.Items, 1)
	assert.True(t, state.Search.Items[0].IsFollowing)
	assert.False(t, state.IsFollowPending(bobID))
	assert.Equal(t, []string{"User followed!"}, env.rec.Texts(notify.LevelSuccess))

	r = env.profile.ToggleFollow(ctx, bobID)
	require.True(t, r.IsOk(), r.Message())
	assert.Equal(t, Toggle{On: false, Count: 1}, r.Value())
	assert.False(t, env.store.Profile().Search.Items[0].IsFollowing)

	followers := env.profile.LoadFollowers(ctx, bobID)
	require.True(t, followers.IsOk())
	require.Len(t, followers.Value().Items, 1)
	assert.Equal(t, "carol", followers.Value().Items[0].Username)
}

func TestFollow_FailureReverts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.login(t, "alice")
	bobID := env.fake.AddUser("bob", "bob@example.com", testPassword, true)
	require.True(t, env.profile.GetProfile(ctx, bobID).IsOk())

	env.fake.FailNext("POST /users/:id/follow", http.StatusInternalServerError, "")
	r := env.profile.SetFollowing(ctx, bobID, true)
	require.False(t, r.IsOk())

	state := env.store.Profile()
	assert.False(t, state.Profile.IsFollowing)
	assert.Equal(t, 0, state.Profile.FollowerCount)
	assert.NotEmpty(t, state.Error)
	assert.False(t, state.IsFollowPending(bobID))
}

func TestFollow_Self(t *testing.T) {
	env := newTestEnv(t)
	aliceID := env.login(t, "alice")

	r := env.profile.SetFollowing(context.Background(), aliceID, true)
	require.False(t, r.IsOk())
	assert.Equal(t, "You cannot follow yourself", env.store.Profile().Error)
	assert.Equal(t, 0, env.fake.Calls("POST /users/:id/follow"))
}

func TestUpdateProfile_SyncsSessionUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	aliceID := env.login(t, "alice")
	require.True(t, env.profile.GetProfile(ctx, aliceID).IsOk())

	r := env.profile.UpdateProfile(ctx, aliceID, api.UpdateProfileRequest{Username: "alice2", Bio: "hi there"})
	require.True(t, r.IsOk(), r.Message())
	assert.Equal(t, "alice2", env.store.Profile().Profile.Username)
	assert.Equal(t, "alice2", env.store.Auth().User.Username)
	assert.Equal(t, "hi there", env.store.Auth().User.Bio)
	assert.False(t, env.store.Profile().Updating)
}

func TestUpdateProfile_Invalid(t *testing.T) {
	env := newTestEnv(t)
	aliceID := env.login(t, "alice")

	r := env.profile.UpdateProfile(context.Background(), aliceID, api.UpdateProfileRequest{Username: "a!"})
	require.False(t, r.IsOk())
	assert.NotEmpty(t, env.store.Profile().Error)
	assert.Equal(t, 0, env.fake.Calls("PATCH /users/:id"))
}

func testImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(y), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAvatar_UpdateAndReset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	aliceID := env.login(t, "alice")
	require.True(t, env.profile.GetProfile(ctx, aliceID).IsOk())
	original := env.store.Profile().Profile.Avatar

	r := env.profile.UpdateAvatar(ctx, aliceID, testImage(t, 120, 80), &avatar.Rect{X: 10, Y: 0, Width: 80, Height: 80})
	require.True(t, r.IsOk(), r.Message())
	assert.NotEqual(t, original, r.Value().Avatar)
	assert.Equal(t, r.Value().Avatar, env.store.Auth().User.Avatar)

	reset := env.profile.ResetAvatar(ctx, aliceID)
	require.True(t, reset.IsOk(), reset.Message())
	assert.Equal(t, original, reset.Value().Avatar)
}

func TestAvatar_RejectsNonImage(t *testing.T) {
	env := newTestEnv(t)
	aliceID := env.login(t, "alice")

	r := env.profile.UpdateAvatar(context.Background(), aliceID, []byte("not an image"), nil)
	require.False(t, r.IsOk())
	assert.Equal(t, "Please select a valid image file", env.store.Profile().Error)
	assert.Equal(t, []string{"Please select a valid image file"}, env.rec.Texts(notify.LevelError))
	assert.Equal(t, 0, env.fake.Calls("PATCH /users/:id/avatar"))
}

func TestSearch_EmptyQuery(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "alice")

	r := env.profile.Search(context.Background(), "  ")
	require.False(t, r.IsOk())
	assert.Equal(t, "Search query is required", env.store.Profile().Error)
}
