// Package service holds the domain action dispatchers. Each dispatcher runs
// the started/succeeded/failed state transitions around one API call and
// returns a result.Result instead of a raw error.
package service

import (
	"context"
	"net/http"

	"github.com/aditya-makadiya/sociofeed/pkg/api"
	"github.com/aditya-makadiya/sociofeed/pkg/credentials"
	"github.com/aditya-makadiya/sociofeed/pkg/errors"
	"github.com/aditya-makadiya/sociofeed/pkg/logger"
	"github.com/aditya-makadiya/sociofeed/pkg/notify"
	"github.com/aditya-makadiya/sociofeed/pkg/result"
	"github.com/aditya-makadiya/sociofeed/pkg/store"
	"github.com/aditya-makadiya/sociofeed/pkg/validate"
)

// AuthAPI is the part of the API client the auth dispatchers use
type AuthAPI interface {
	Register(ctx context.Context, req api.RegisterRequest) (*api.User, error)
	Login(ctx context.Context, req api.LoginRequest) (*api.User, error)
	Activate(ctx context.Context, token string) (*api.User, error)
	ForgotPassword(ctx context.Context, req api.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, token string, req api.ResetPasswordRequest) error
	ResendActivation(ctx context.Context, req api.ResendActivationRequest) error
	RefreshToken(ctx context.Context) (*api.User, error)
	Logout(ctx context.Context) error
	GetMe(ctx context.Context, opts ...api.CallOption) (*api.User, error)

	OnSessionExpired(fn func(error))
	OnSessionRefreshed(fn func())
	Cookies() []*http.Cookie
	RestoreCookies(cookies []*http.Cookie)
	ClearSession()
}

// PostAPI is the part of the API client the feed and post dispatchers use
type PostAPI interface {
	GetFeed(ctx context.Context, page, pageSize int) (*api.PostPage, error)
	GetSavedPosts(ctx context.Context, page, pageSize int) (*api.PostPage, error)
	CreatePost(ctx context.Context, req api.CreatePostRequest) (*api.Post, error)
	GetPost(ctx context.Context, postID string, opts ...api.CallOption) (*api.Post, error)
	LikePost(ctx context.Context, postID string) (int, error)
	UnlikePost(ctx context.Context, postID string) (int, error)
	SavePost(ctx context.Context, postID string) error
	UnsavePost(ctx context.Context, postID string) error
	GetComments(ctx context.Context, postID string, page, limit int) (*api.CommentPage, error)
	AddComment(ctx context.Context, postID, content string) (*api.CommentResult, error)
	UpdateComment(ctx context.Context, commentID, content string) (*api.CommentResult, error)
	DeleteComment(ctx context.Context, commentID string) (*api.DeleteCommentResult, error)
}

// ProfileAPI is the part of the API client the profile dispatchers use
type ProfileAPI interface {
	GetProfile(ctx context.Context, userID string) (*api.Profile, error)
	GetUserPosts(ctx context.Context, userID string, page, pageSize int) (*api.PostPage, error)
	GetFollowers(ctx context.Context, userID string, page, pageSize int) (*api.UserPage, error)
	GetFollowing(ctx context.Context, userID string, page, pageSize int) (*api.UserPage, error)
	FollowUser(ctx context.Context, userID string) (*api.FollowResult, error)
	UnfollowUser(ctx context.Context, userID string) (*api.FollowResult, error)
	UpdateProfile(ctx context.Context, userID string, req api.UpdateProfileRequest) (*api.Profile, error)
	UpdateAvatar(ctx context.Context, userID string, img api.Upload) (*api.Profile, error)
	ResetAvatar(ctx context.Context, userID string) (*api.Profile, error)
	SearchUsers(ctx context.Context, query string, page, pageSize int) (*api.UserPage, error)
}

// SessionStore persists the signed-in user across runs
type SessionStore interface {
	Load() (*credentials.Session, error)
	Save(s *credentials.Session) error
	Clear() error
}

// Empty is the value of dispatchers that carry no payload
type Empty struct{}

// run is the three-phase contract: started is dispatched before the call,
// then succeeded(value) or failed(message).
func run[T any](st *store.Store, started store.Action, call func() (T, error), succeeded func(T) store.Action, failed func(string) store.Action) result.Result[T] {
	if started != nil {
		st.Dispatch(started)
	}
	v, err := call()
	if err != nil {
		st.Dispatch(failed(errors.Message(err)))
		return result.Err[T](err)
	}
	if succeeded != nil {
		st.Dispatch(succeeded(v))
	}
	return result.Ok(v)
}

// check validates a form before any request. Failures never reach HTTP, so
// the dispatcher notifies them itself.
func check(st *store.Store, n notify.Notifier, form interface{}, failed func(string) store.Action) error {
	if err := validate.Struct(form); err != nil {
		reject[Empty](st, n, err, failed)
		return err
	}
	return nil
}

// reject fails a dispatcher on a client-side error
func reject[T any](st *store.Store, n notify.Notifier, err error, failed func(string) store.Action) result.Result[T] {
	msg := errors.Message(err)
	logger.Debug("Rejected before request", "message", msg)
	st.Dispatch(failed(msg))
	n.Error(msg)
	return result.Err[T](err)
}

func orNop(n notify.Notifier) notify.Notifier {
	if n == nil {
		return notify.Nop{}
	}
	return n
}

func boolPtr(b bool) *bool {
	return &b
}

func intPtr(n int) *int {
	return &n
}
