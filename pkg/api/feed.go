package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aditya-makadiya/sociofeed/pkg/logger"
	"github.com/go-resty/resty/v2"
)

func pageQuery(page, pageSize int) func(*resty.Request) error {
	return func(req *resty.Request) error {
		req.SetQueryParam("page", strconv.Itoa(page)).
			SetQueryParam("pageSize", strconv.Itoa(pageSize))
		return nil
	}
}

// GetFeed returns one page of the home feed
func (c *Client) GetFeed(ctx context.Context, page, pageSize int) (*PostPage, error) {
	logger.Debug("Fetching feed", "page", page, "page_size", pageSize)

	var resp PostPage
	if err := c.call(ctx, http.MethodGet, "/posts/feed", pageQuery(page, pageSize), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSavedPosts returns one page of the current user's saved posts
func (c *Client) GetSavedPosts(ctx context.Context, page, pageSize int) (*PostPage, error) {
	logger.Debug("Fetching saved posts", "page", page, "page_size", pageSize)

	var resp PostPage
	if err := c.call(ctx, http.MethodGet, "/posts/saved", pageQuery(page, pageSize), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
