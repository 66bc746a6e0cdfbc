package client

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/aditya-makadiya/sociofeed/pkg/config"
	"github.com/aditya-makadiya/sociofeed/pkg/logger"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Options configures the HTTP transport
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// OptionsFromConfig reads transport options from the loaded configuration
func OptionsFromConfig() Options {
	return Options{
		BaseURL:   config.GetString("api.base_url"),
		Timeout:   config.GetDuration("api.timeout"),
		UserAgent: config.GetString("api.user_agent"),
	}
}

// Client is a resty client whose credentials are the cookies in its jar
type Client struct {
	http *resty.Client
	jar  *cookiejar.Jar
	base *url.URL
}

// New initializes the HTTP client
func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", opts.BaseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseURL)
	httpClient.SetCookieJar(jar)
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}
	if opts.UserAgent != "" {
		httpClient.SetHeader("User-Agent", opts.UserAgent)
	}
	httpClient.SetHeader("Accept", "application/json")

	httpClient.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		if req.Header.Get("X-Request-ID") == "" {
			req.Header.Set("X-Request-ID", uuid.NewString())
		}
		logger.Debug("HTTP Request", "method", req.Method, "url", req.URL, "request_id", req.Header.Get("X-Request-ID"))
		return nil
	})

	httpClient.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logger.Debug("HTTP Response",
			"method", resp.Request.Method,
			"url", resp.Request.URL,
			"status", resp.StatusCode(),
			"duration", resp.Time(),
			"request_id", resp.Request.Header.Get("X-Request-ID"))
		return nil
	})

	return &Client{http: httpClient, jar: jar, base: base}, nil
}

// R starts a new request
func (c *Client) R() *resty.Request {
	return c.http.R()
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Cookies returns the session cookies held for the API host
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.base)
}

// SetCookies restores previously saved session cookies
func (c *Client) SetCookies(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	restored := make([]*http.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		restored = append(restored, &http.Cookie{Name: ck.Name, Value: ck.Value, Path: "/"})
	}
	c.jar.SetCookies(c.base, restored)
}

// ClearCookies expires every cookie held for the API host
func (c *Client) ClearCookies() {
	current := c.jar.Cookies(c.base)
	expired := make([]*http.Cookie, 0, len(current))
	for _, ck := range current {
		expired = append(expired, &http.Cookie{Name: ck.Name, Value: "", Path: "/", MaxAge: -1})
	}
	c.jar.SetCookies(c.base, expired)
}
