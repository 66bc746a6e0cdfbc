package service

import (
	"context"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aditya-makadiya/sociofeed/pkg/api"
	"github.com/aditya-makadiya/sociofeed/pkg/client"
	"github.com/aditya-makadiya/sociofeed/pkg/credentials"
	"github.com/aditya-makadiya/sociofeed/pkg/errors"
	"github.com/aditya-makadiya/sociofeed/pkg/fakeapi"
	"github.com/aditya-makadiya/sociofeed/pkg/notify"
	"github.com/aditya-makadiya/sociofeed/pkg/pagination"
	"github.com/aditya-makadiya/sociofeed/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "Password1!"

// testEnv wires every service to one in-memory API server
type testEnv struct {
	url      string
	fake     *fakeapi.Server
	client   *api.Client
	store    *store.Store
	rec      *notify.Recorder
	sessions *credentials.File

	auth    *AuthService
	feed    *FeedService
	posts   *PostService
	profile *ProfileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fake := fakeapi.New()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)

	rec := notify.NewRecorder()
	c, err := api.New(client.Options{BaseURL: srv.URL, Timeout: 5 * time.Second}, api.WithNotifier(rec))
	require.NoError(t, err)

	st := store.New()
	sessions := &credentials.File{Path: filepath.Join(t.TempDir(), "session.json")}

	return &testEnv{
		url:      srv.URL,
		fake:     fake,
		client:   c,
		store:    st,
		rec:      rec,
		sessions: sessions,
		auth:     NewAuthService(c, st, sessions, rec),
		feed:     NewFeedService(c, st, rec, 3),
		posts:    NewPostService(c, st, rec, 10),
		profile: NewProfileService(c, st, rec, ProfileOptions{
			PageSize:       3,
			AvatarSize:     64,
			AvatarMaxBytes: 5 << 20,
		}),
	}
}

// login creates an active account, logs in through the auth service and
// forgets the notifications that produced
func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()

	id := e.fake.AddUser(username, username+"@example.com", testPassword, true)
	r := e.auth.Login(context.Background(), api.LoginRequest{Identifier: username, Password: testPassword})
	require.True(t, r.IsOk(), r.Message())
	e.rec.Reset()
	return id
}

// other logs a second account in on its own client
func (e *testEnv) other(t *testing.T, username string) (*api.Client, string) {
	t.Helper()

	id := e.fake.AddUser(username, username+"@example.com", testPassword, true)
	c, err := api.New(client.Options{BaseURL: e.url, Timeout: 5 * time.Second})
	require.NoError(t, err)
	_, err = c.Login(context.Background(), api.LoginRequest{Identifier: username, Password: testPassword})
	require.NoError(t, err)
	return c, id
}

// seedFeed puts posts straight into the feed list
func seedFeed(st *store.Store, posts ...api.Post) {
	st.Dispatch(store.PostListUpdated{List: store.FeedList, Update: func(c *pagination.Cursor[api.Post]) {
		c.Items = append(c.Items, posts...)
		c.Total = len(c.Items)
	}})
}

func TestRun_ThreePhases(t *testing.T) {
	st := store.New()
	var seen []string
	st.Subscribe(func(a store.Action) {
		seen = append(seen, actionName(a))
	})

	r := run(st, store.AuthStarted{},
		func() (*api.User, error) { return &api.User{ID: "u1"}, nil },
		func(u *api.User) store.Action { return store.AuthSucceeded{User: u} },
		authFailed)
	require.True(t, r.IsOk())
	assert.Equal(t, []string{"AuthStarted", "AuthSucceeded"}, seen)
	assert.True(t, st.Auth().IsAuthenticated())
	assert.False(t, st.Auth().Loading)
}

func TestRun_Failure(t *testing.T) {
	st := store.New()

	r := run(st, store.AuthStarted{},
		func() (*api.User, error) { return nil, errors.FromStatus(401, "Invalid credentials", nil) },
		func(u *api.User) store.Action { return store.AuthSucceeded{User: u} },
		authFailed)
	assert.False(t, r.IsOk())
	assert.Equal(t, "Invalid credentials", r.Message())
	assert.Equal(t, "Invalid credentials", st.Auth().Error)
	assert.False(t, st.Auth().Loading)
}

func TestFlip(t *testing.T) {
	assert.Equal(t, Toggle{On: true, Count: 6}, flip(Toggle{On: false, Count: 5}))
	assert.Equal(t, Toggle{On: false, Count: 4}, flip(Toggle{On: true, Count: 5}))
	assert.Equal(t, Toggle{On: false, Count: 0}, flip(Toggle{On: true, Count: 0}))
}

func actionName(a store.Action) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", a), "store.")
}
