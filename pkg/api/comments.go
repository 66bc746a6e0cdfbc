package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aditya-makadiya/sociofeed/pkg/logger"
	"github.com/go-resty/resty/v2"
)

// GetComments returns one page of a post's comments
func (c *Client) GetComments(ctx context.Context, postID string, page, limit int) (*CommentPage, error) {
	logger.Debug("Fetching comments", "post_id", postID, "page", page, "limit", limit)

	query := func(r *resty.Request) error {
		r.SetQueryParam("page", strconv.Itoa(page)).SetQueryParam("limit", strconv.Itoa(limit))
		return nil
	}

	var resp CommentPage
	if err := c.call(ctx, http.MethodGet, "/posts/"+url.PathEscape(postID)+"/comments", query, &resp); err != nil {
		return nil, err
	}
	if resp.Page == 0 {
		resp.Page = page
	}
	return &resp, nil
}

// AddComment creates a comment on a post
func (c *Client) AddComment(ctx context.Context, postID, content string) (*CommentResult, error) {
	logger.Debug("Creating comment", "post_id", postID)

	var resp CommentResult
	if err := c.call(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/comments", jsonBody(CommentRequest{Content: content}), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateComment edits a comment's content
func (c *Client) UpdateComment(ctx context.Context, commentID, content string) (*CommentResult, error) {
	logger.Debug("Updating comment", "comment_id", commentID)

	var resp CommentResult
	if err := c.call(ctx, http.MethodPut, "/posts/comments/"+url.PathEscape(commentID), jsonBody(CommentRequest{Content: content}), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteComment removes a comment
func (c *Client) DeleteComment(ctx context.Context, commentID string) (*DeleteCommentResult, error) {
	logger.Debug("Deleting comment", "comment_id", commentID)

	var resp DeleteCommentResult
	if err := c.call(ctx, http.MethodDelete, "/posts/comments/"+url.PathEscape(commentID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
