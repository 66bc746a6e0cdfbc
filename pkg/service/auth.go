package service

import (
	"context"

	"github.com/aditya-makadiya/sociofeed/pkg/api"
	"github.com/aditya-makadiya/sociofeed/pkg/credentials"
	"github.com/aditya-makadiya/sociofeed/pkg/errors"
	"github.com/aditya-makadiya/sociofeed/pkg/logger"
	"github.com/aditya-makadiya/sociofeed/pkg/notify"
	"github.com/aditya-makadiya/sociofeed/pkg/result"
	"github.com/aditya-makadiya/sociofeed/pkg/store"
)

// AuthService provides authentication operations
type AuthService struct {
	api      AuthAPI
	store    *store.Store
	sessions SessionStore
	notifier notify.Notifier
}

// NewAuthService creates an auth service and installs the session hooks on
// the API client: a failed refresh logs out, a transparent refresh saves the
// rotated cookies. sessions may be nil to skip persistence.
func NewAuthService(client AuthAPI, st *store.Store, sessions SessionStore, n notify.Notifier) *AuthService {
	s := &AuthService{
		api:      client,
		store:    st,
		sessions: sessions,
		notifier: orNop(n),
	}
	client.OnSessionExpired(s.expire)
	client.OnSessionRefreshed(s.refreshed)
	return s
}

func authFailed(msg string) store.Action {
	return store.AuthFailed{Message: msg}
}

func authCompleted(Empty) store.Action {
	return store.AuthCompleted{}
}

// Register creates an account. The account is recorded as pending; the
// session stays unauthenticated until activation and login.
func (s *AuthService) Register(ctx context.Context, req api.RegisterRequest) result.Result[*api.User] {
	logger.Debug("Registering", "username", req.Username)
	if err := check(s.store, s.notifier, req, authFailed); err != nil {
		return result.Err[*api.User](err)
	}

	r := run(s.store, store.AuthStarted{},
		func() (*api.User, error) { return s.api.Register(ctx, req) },
		func(u *api.User) store.Action { return store.AccountPending{User: u} },
		authFailed)
	if r.IsOk() {
		s.notifier.Success("Registration successful! Please check your email to activate your account.")
	}
	return r
}

// Login signs in and persists the session
func (s *AuthService) Login(ctx context.Context, req api.LoginRequest) result.Result[*api.User] {
	logger.Debug("Logging in", "identifier", req.Identifier)
	if err := check(s.store, s.notifier, req, authFailed); err != nil {
		return result.Err[*api.User](err)
	}

	r := run(s.store, store.AuthStarted{},
		func() (*api.User, error) { return s.api.Login(ctx, req) },
		func(u *api.User) store.Action { return store.AuthSucceeded{User: u} },
		authFailed)
	if r.IsOk() {
		s.persist(r.Value())
		s.notifier.Success("Login successful!")
	}
	return r
}

// Activate confirms an account with the emailed token
func (s *AuthService) Activate(ctx context.Context, token string) result.Result[*api.User] {
	if token == "" {
		return reject[*api.User](s.store, s.notifier, errors.ValidationError(map[string]string{"token": "Activation token is required"}), authFailed)
	}

	r := run(s.store, store.AuthStarted{},
		func() (*api.User, error) { return s.api.Activate(ctx, token) },
		func(u *api.User) store.Action { return store.AccountPending{User: u} },
		authFailed)
	if r.IsOk() {
		s.notifier.Success("Account activated successfully!")
	}
	return r
}

// ForgotPassword requests a reset link
func (s *AuthService) ForgotPassword(ctx context.Context, req api.ForgotPasswordRequest) result.Result[Empty] {
	if err := check(s.store, s.notifier, req, authFailed); err != nil {
		return result.Err[Empty](err)
	}

	r := run(s.store, store.AuthStarted{},
		func() (Empty, error) { return Empty{}, s.api.ForgotPassword(ctx, req) },
		authCompleted, authFailed)
	if r.IsOk() {
		s.notifier.Success("Reset password link sent! Please check your email.")
	}
	return r
}

// ResetPassword sets a new password with the emailed token
func (s *AuthService) ResetPassword(ctx context.Context, token string, req api.ResetPasswordRequest) result.Result[Empty] {
	if token == "" {
		return reject[Empty](s.store, s.notifier, errors.ValidationError(map[string]string{"token": "Reset token is required"}), authFailed)
	}
	if err := check(s.store, s.notifier, req, authFailed); err != nil {
		return result.Err[Empty](err)
	}

	r := run(s.store, store.AuthStarted{},
		func() (Empty, error) { return Empty{}, s.api.ResetPassword(ctx, token, req) },
		authCompleted, authFailed)
	if r.IsOk() {
		s.notifier.Success("Password reset successful! You can now log in.")
	}
	return r
}

// ResendActivation emails a new activation link
func (s *AuthService) ResendActivation(ctx context.Context, req api.ResendActivationRequest) result.Result[Empty] {
	if err := check(s.store, s.notifier, req, authFailed); err != nil {
		return result.Err[Empty](err)
	}

	r := run(s.store, store.AuthStarted{},
		func() (Empty, error) { return Empty{}, s.api.ResendActivation(ctx, req) },
		authCompleted, authFailed)
	if r.IsOk() {
		s.notifier.Success("Activation email sent! Please check your inbox.")
	}
	return r
}

// RefreshToken renews the access cookie explicitly. A rejected refresh
// ends the session locally.
func (s *AuthService) RefreshToken(ctx context.Context) result.Result[*api.User] {
	r := run(s.store, store.AuthStarted{},
		func() (*api.User, error) { return s.api.RefreshToken(ctx) },
		func(u *api.User) store.Action { return store.AuthSucceeded{User: u} },
		authFailed)
	if !r.IsOk() {
		s.forget()
		s.store.Dispatch(store.SessionCleared{})
		return r
	}
	s.persist(r.Value())
	return r
}

// CurrentSession fetches the signed-in user from the server
func (s *AuthService) CurrentSession(ctx context.Context) result.Result[*api.User] {
	r := run(s.store, store.AuthStarted{},
		func() (*api.User, error) { return s.api.GetMe(ctx) },
		func(u *api.User) store.Action { return store.AuthSucceeded{User: u} },
		authFailed)
	if r.IsOk() {
		s.persist(r.Value())
	}
	return r
}

// Logout ends the session. The local session is cleared even when the
// server call fails.
func (s *AuthService) Logout(ctx context.Context) result.Result[Empty] {
	s.store.Dispatch(store.AuthStarted{})
	err := s.api.Logout(ctx)

	s.forget()
	s.store.Dispatch(store.Reset{})
	if err != nil {
		s.store.Dispatch(store.AuthFailed{Message: errors.Message(err)})
		return result.Err[Empty](err)
	}

	s.notifier.Success("Logged out successfully!")
	return result.Ok(Empty{})
}

// Restore loads the persisted session at startup without a network call.
// It returns a nil user when nothing was saved.
func (s *AuthService) Restore() result.Result[*api.User] {
	if s.sessions == nil {
		return result.Ok[*api.User](nil)
	}

	saved, err := s.sessions.Load()
	if err != nil {
		logger.Warn("Failed to load saved session", "error", err)
		return result.Err[*api.User](errors.ParseError("saved session", err))
	}
	if saved == nil || saved.User == nil {
		return result.Ok[*api.User](nil)
	}

	s.api.RestoreCookies(saved.HTTPCookies())
	s.store.Dispatch(store.AuthSucceeded{User: saved.User})
	logger.Debug("Restored session", "username", saved.User.Username)
	return result.Ok(saved.User)
}

// expire is the forced logout run when a session refresh fails
func (s *AuthService) expire(err error) {
	logger.Warn("Session expired", "error", err)
	s.forget()
	s.store.Dispatch(store.Reset{})
}

// refreshed saves the cookies a transparent refresh rotated, so the next
// invocation restores a live session
func (s *AuthService) refreshed() {
	s.persist(s.store.Auth().User)
}

func (s *AuthService) persist(u *api.User) {
	if s.sessions == nil || u == nil {
		return
	}
	session := &credentials.Session{
		User:    u,
		Cookies: credentials.FromHTTP(s.api.Cookies()),
	}
	if err := s.sessions.Save(session); err != nil {
		logger.Warn("Failed to save session", "error", err)
	}
}

func (s *AuthService) forget() {
	s.api.ClearSession()
	if s.sessions == nil {
		return
	}
	if err := s.sessions.Clear(); err != nil {
		logger.Warn("Failed to clear saved session", "error", err)
	}
}
