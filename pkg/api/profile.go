package api

import (
	"bytes"
	"context"
	"net/http"
	"net/url"

	"github.com/aditya-makadiya/sociofeed/pkg/logger"
	"github.com/go-resty/resty/v2"
)

func userPath(userID string, parts ...string) string {
	p := "/users/" + url.PathEscape(userID)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// GetProfile returns a user's public profile
func (c *Client) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	logger.Debug("Fetching profile", "user_id", userID)

	var payload profilePayload
	if err := c.call(ctx, http.MethodGet, userPath(userID), nil, &payload); err != nil {
		return nil, err
	}
	return payload.User, nil
}

// GetUserPosts returns one page of a user's posts
func (c *Client) GetUserPosts(ctx context.Context, userID string, page, pageSize int) (*PostPage, error) {
	logger.Debug("Fetching user posts", "user_id", userID, "page", page)

	var resp PostPage
	if err := c.call(ctx, http.MethodGet, userPath(userID, "posts"), pageQuery(page, pageSize), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetFollowers returns one page of a user's followers
func (c *Client) GetFollowers(ctx context.Context, userID string, page, pageSize int) (*UserPage, error) {
	logger.Debug("Fetching followers", "user_id", userID, "page", page)

	var resp UserPage
	if err := c.call(ctx, http.MethodGet, userPath(userID, "followers"), pageQuery(page, pageSize), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetFollowing returns one page of the users a user follows
func (c *Client) GetFollowing(ctx context.Context, userID string, page, pageSize int) (*UserPage, error) {
	logger.Debug("Fetching following", "user_id", userID, "page", page)

	var resp UserPage
	if err := c.call(ctx, http.MethodGet, userPath(userID, "following"), pageQuery(page, pageSize), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FollowUser follows a user
func (c *Client) FollowUser(ctx context.Context, userID string) (*FollowResult, error) {
	logger.Debug("Following user", "user_id", userID)

	var resp FollowResult
	if err := c.call(ctx, http.MethodPost, userPath(userID, "follow"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UnfollowUser unfollows a user
func (c *Client) UnfollowUser(ctx context.Context, userID string) (*FollowResult, error) {
	logger.Debug("Unfollowing user", "user_id", userID)

	var resp FollowResult
	if err := c.call(ctx, http.MethodDelete, userPath(userID, "follow"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateProfile changes username and bio
func (c *Client) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*Profile, error) {
	logger.Debug("Updating profile", "user_id", userID)

	var payload profilePayload
	if err := c.call(ctx, http.MethodPatch, userPath(userID), jsonBody(req), &payload); err != nil {
		return nil, err
	}
	return payload.User, nil
}

// UpdateAvatar uploads a new avatar image
func (c *Client) UpdateAvatar(ctx context.Context, userID string, img Upload) (*Profile, error) {
	logger.Debug("Updating avatar", "user_id", userID, "bytes", len(img.Data))

	build := func(r *resty.Request) error {
		r.SetMultipartField("avatar", img.FileName, img.ContentType, bytes.NewReader(img.Data))
		return nil
	}

	var payload profilePayload
	if err := c.call(ctx, http.MethodPatch, userPath(userID, "avatar"), build, &payload); err != nil {
		return nil, err
	}
	return payload.User, nil
}

// ResetAvatar restores the default avatar
func (c *Client) ResetAvatar(ctx context.Context, userID string) (*Profile, error) {
	logger.Debug("Resetting avatar", "user_id", userID)

	var payload profilePayload
	if err := c.call(ctx, http.MethodDelete, userPath(userID, "avatar"), nil, &payload); err != nil {
		return nil, err
	}
	return payload.User, nil
}

// SearchUsers finds users by username
func (c *Client) SearchUsers(ctx context.Context, query string, page, pageSize int) (*UserPage, error) {
	logger.Debug("Searching users", "query", query, "page", page)

	build := func(r *resty.Request) error {
		_ = pageQuery(page, pageSize)(r)
		r.SetQueryParam("search", query)
		return nil
	}

	var resp UserPage
	if err := c.call(ctx, http.MethodGet, "/users", build, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
