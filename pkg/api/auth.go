package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/aditya-makadiya/sociofeed/pkg/logger"
)

// Register creates an account; the account stays inactive until activated
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	logger.Debug("Registering account", "username", req.Username, "email", req.Email)

	var payload userPayload
	if err := c.call(ctx, http.MethodPost, "/auth/register", jsonBody(req), &payload); err != nil {
		return nil, err
	}
	return payload.User, nil
}

// Login authenticates with a username or email
func (c *Client) Login(ctx context.Context, req LoginRequest) (*User, error) {
	logger.Debug("Attempting login", "identifier", req.Identifier)

	var payload userPayload
	if err := c.call(ctx, http.MethodPost, "/auth/login", jsonBody(req), &payload); err != nil {
		return nil, err
	}

	c.session.Bump()
	logger.Debug("Login successful", "username", payload.User.Username)
	return payload.User, nil
}

// Activate confirms an account with the emailed token
func (c *Client) Activate(ctx context.Context, token string) (*User, error) {
	logger.Debug("Activating account")

	var payload userPayload
	if err := c.call(ctx, http.MethodGet, "/auth/activate/"+url.PathEscape(token), nil, &payload); err != nil {
		return nil, err
	}
	return payload.User, nil
}

// ForgotPassword requests a password reset email
func (c *Client) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	logger.Debug("Requesting password reset", "identifier", req.Identifier)
	return c.call(ctx, http.MethodPost, "/auth/forgot-password", jsonBody(req), nil)
}

// ResetPassword sets a new password using the emailed token
func (c *Client) ResetPassword(ctx context.Context, token string, req ResetPasswordRequest) error {
	logger.Debug("Resetting password")
	return c.call(ctx, http.MethodPost, "/auth/reset-password/"+url.PathEscape(token), jsonBody(req), nil)
}

// ResendActivation sends the activation email again
func (c *Client) ResendActivation(ctx context.Context, req ResendActivationRequest) error {
	logger.Debug("Resending activation email", "identifier", req.Identifier)
	return c.call(ctx, http.MethodPost, "/auth/resend-activation", jsonBody(req), nil)
}

// RefreshToken explicitly refreshes the session and returns its user
func (c *Client) RefreshToken(ctx context.Context) (*User, error) {
	logger.Debug("Refreshing access token")

	var payload userPayload
	if err := c.call(ctx, http.MethodGet, "/auth/refresh-token", nil, &payload); err != nil {
		return nil, err
	}

	c.session.Bump()
	return payload.User, nil
}

// Logout ends the session on the server and forgets local cookies
func (c *Client) Logout(ctx context.Context) error {
	logger.Debug("Logging out")

	err := c.call(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.ClearSession()
	return err
}

// GetMe returns the user of the current session
func (c *Client) GetMe(ctx context.Context, opts ...CallOption) (*User, error) {
	logger.Debug("Fetching current user")

	var payload userPayload
	if err := c.call(ctx, http.MethodGet, "/auth/getMe", nil, &payload, opts...); err != nil {
		return nil, err
	}
	return payload.User, nil
}
