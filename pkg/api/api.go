// Package api is the HTTP boundary of the client: it attaches credentials,
// unwraps envelopes into typed payloads, normalizes failures into a single
// display message and transparently refreshes expired sessions.
package api

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/aditya-makadiya/sociofeed/pkg/auth"
	"github.com/aditya-makadiya/sociofeed/pkg/client"
	"github.com/aditya-makadiya/sociofeed/pkg/errors"
	"github.com/aditya-makadiya/sociofeed/pkg/logger"
	"github.com/aditya-makadiya/sociofeed/pkg/notify"
	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
)

// Client issues API calls
type Client struct {
	http     *client.Client
	session  *auth.Coordinator
	notifier notify.Notifier
}

// Option configures a Client
type Option func(*Client)

// WithNotifier sets where failure notifications go
func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) {
		c.notifier = n
	}
}

// New creates an API client on top of the given transport options
func New(opts client.Options, options ...Option) (*Client, error) {
	httpClient, err := client.New(opts)
	if err != nil {
		return nil, err
	}

	c := &Client{
		http:     httpClient,
		notifier: notify.Nop{},
	}
	c.session = auth.NewCoordinator(c.refreshSession)

	for _, o := range options {
		o(c)
	}
	return c, nil
}

// OnSessionExpired registers the forced-logout hook run when a refresh fails
func (c *Client) OnSessionExpired(fn func(error)) {
	c.session.OnExpired(fn)
}

// OnSessionRefreshed registers the hook run after a transparent refresh
// rotated the session cookies
func (c *Client) OnSessionRefreshed(fn func()) {
	c.session.OnRefreshed(fn)
}

// Session exposes the refresh coordinator
func (c *Client) Session() *auth.Coordinator {
	return c.session
}

// Cookies returns the current session cookies
func (c *Client) Cookies() []*http.Cookie {
	return c.http.Cookies()
}

// RestoreCookies loads previously persisted session cookies
func (c *Client) RestoreCookies(cookies []*http.Cookie) {
	c.http.SetCookies(cookies)
}

// ClearSession drops every session cookie
func (c *Client) ClearSession() {
	c.http.ClearCookies()
}

type callOptions struct {
	quiet bool
}

// CallOption tweaks a single call
type CallOption func(*callOptions)

// Quiet suppresses the failure notification for this call
func Quiet() CallOption {
	return func(o *callOptions) {
		o.quiet = true
	}
}

// call performs one API request. build is invoked once per attempt so that
// bodies and multipart readers are fresh on the post-refresh retry.
func (c *Client) call(ctx context.Context, method, path string, build func(*resty.Request) error, out interface{}, opts ...CallOption) error {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	gen := c.session.Generation()
	resp, err := c.send(ctx, method, path, build)
	if err == nil && resp.StatusCode() == http.StatusUnauthorized && !auth.BypassesRefresh(path) {
		logger.Debug("Got 401, waiting for session refresh", "method", method, "path", path)
		if rerr := c.session.Refresh(ctx, gen); rerr != nil {
			return c.fail(o, rerr)
		}
		resp, err = c.send(ctx, method, path, build)
	}

	if err != nil {
		if stderrors.Is(err, context.Canceled) {
			return err
		}
		var appErr *errors.Error
		if stderrors.As(err, &appErr) {
			return c.fail(o, appErr)
		}
		return c.fail(o, errors.NetworkError(err))
	}

	if !resp.IsSuccess() {
		return c.fail(o, ParseError(resp))
	}

	if out != nil {
		if err := decodePayload(resp.Body(), out); err != nil {
			return c.fail(o, err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, build func(*resty.Request) error) (*resty.Response, error) {
	req := c.http.R().SetContext(ctx)
	if build != nil {
		if err := build(req); err != nil {
			return nil, errors.New(errors.KindUnknown, errors.MsgUnexpected, err)
		}
	}
	return req.Execute(method, path)
}

func (c *Client) fail(o callOptions, err error) error {
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	var appErr *errors.Error
	if !stderrors.As(err, &appErr) {
		err = errors.Categorize(err)
	}
	msg := errors.Message(err)
	logger.Debug("API call failed", "kind", errors.KindOf(err), "message", msg)
	if !o.quiet {
		c.notifier.Error(msg)
	}
	return err
}

// jsonBody encodes v with jsoniter and sets it as the request body
func jsonBody(v interface{}) func(*resty.Request) error {
	return func(req *resty.Request) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		req.SetHeader("Content-Type", "application/json").SetBody(data)
		return nil
	}
}

// refreshSession asks the API for a new access cookie; used only by the coordinator
func (c *Client) refreshSession(ctx context.Context) error {
	var payload userPayload
	resp, err := c.send(ctx, http.MethodGet, "/auth/refresh-token", nil)
	if err != nil {
		return errors.NetworkError(err)
	}
	if !resp.IsSuccess() {
		return ParseError(resp)
	}
	return decodePayload(resp.Body(), &payload)
}
