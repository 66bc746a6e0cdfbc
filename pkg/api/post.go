package api

import (
	"bytes"
	"context"
	"net/http"
	"net/url"

	"github.com/aditya-makadiya/sociofeed/pkg/logger"
	"github.com/go-resty/resty/v2"
)

// CreatePost publishes a post with optional images (multipart)
func (c *Client) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	logger.Debug("Creating post", "content_len", len(req.Content), "images", len(req.Images))

	build := func(r *resty.Request) error {
		r.SetMultipartFormData(map[string]string{"content": req.Content})
		for _, img := range req.Images {
			r.SetMultipartField("images", img.FileName, img.ContentType, bytes.NewReader(img.Data))
		}
		return nil
	}

	var payload postPayload
	if err := c.call(ctx, http.MethodPost, "/posts", build, &payload); err != nil {
		return nil, err
	}

	logger.Debug("Post created", "post_id", payload.Post.ID)
	return payload.Post, nil
}

// GetPost returns the canonical detail of a post
func (c *Client) GetPost(ctx context.Context, postID string, opts ...CallOption) (*Post, error) {
	logger.Debug("Fetching post", "post_id", postID)

	var payload postPayload
	if err := c.call(ctx, http.MethodGet, "/posts/"+url.PathEscape(postID), nil, &payload, opts...); err != nil {
		return nil, err
	}
	return payload.Post, nil
}

// LikePost likes a post and returns the server's like count
func (c *Client) LikePost(ctx context.Context, postID string) (int, error) {
	logger.Debug("Liking post", "post_id", postID)

	var resp LikeResult
	if err := c.call(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/like", nil, &resp); err != nil {
		return 0, err
	}
	return *resp.LikesCount, nil
}

// UnlikePost removes a like and returns the server's like count
func (c *Client) UnlikePost(ctx context.Context, postID string) (int, error) {
	logger.Debug("Unliking post", "post_id", postID)

	var resp LikeResult
	if err := c.call(ctx, http.MethodDelete, "/posts/"+url.PathEscape(postID)+"/unlike", nil, &resp); err != nil {
		return 0, err
	}
	return *resp.LikesCount, nil
}

// SavePost bookmarks a post
func (c *Client) SavePost(ctx context.Context, postID string) error {
	logger.Debug("Saving post", "post_id", postID)
	return c.call(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/save", nil, nil)
}

// UnsavePost removes a bookmark
func (c *Client) UnsavePost(ctx context.Context, postID string) error {
	logger.Debug("Unsaving post", "post_id", postID)
	return c.call(ctx, http.MethodDelete, "/posts/"+url.PathEscape(postID)+"/unsave", nil, nil)
}
