package service

import (
	"context"
	"strings"

	"github.com/aditya-makadiya/sociofeed/pkg/api"
	"github.com/aditya-makadiya/sociofeed/pkg/errors"
	"github.com/aditya-makadiya/sociofeed/pkg/logger"
	"github.com/aditya-makadiya/sociofeed/pkg/notify"
	"github.com/aditya-makadiya/sociofeed/pkg/pagination"
	"github.com/aditya-makadiya/sociofeed/pkg/result"
	"github.com/aditya-makadiya/sociofeed/pkg/store"
	"github.com/gabriel-vasile/mimetype"
)

// FeedService provides the feed and saved-post lists and post creation
type FeedService struct {
	api      PostAPI
	store    *store.Store
	notifier notify.Notifier

	feed  *pagination.Controller[api.Post]
	saved *pagination.Controller[api.Post]
}

// NewFeedService creates a feed service loading pageSize posts per page
func NewFeedService(client PostAPI, st *store.Store, n notify.Notifier, pageSize int) *FeedService {
	return &FeedService{
		api:      client,
		store:    st,
		notifier: orNop(n),
		feed:     pagination.New("feed", postPages(client.GetFeed, pageSize), postKey, st.PostListState(store.FeedList)),
		saved:    pagination.New("saved", postPages(client.GetSavedPosts, pageSize), postKey, st.PostListState(store.SavedList)),
	}
}

// Feed is the controller of the home feed
func (s *FeedService) Feed() *pagination.Controller[api.Post] {
	return s.feed
}

// Saved is the controller of the saved-post list
func (s *FeedService) Saved() *pagination.Controller[api.Post] {
	return s.saved
}

// LoadFeed resets the feed and loads its first page
func (s *FeedService) LoadFeed(ctx context.Context) result.Result[pagination.Cursor[api.Post]] {
	return firstPage(ctx, s.feed)
}

// LoadMoreFeed loads the next feed page
func (s *FeedService) LoadMoreFeed(ctx context.Context) result.Result[pagination.Cursor[api.Post]] {
	return nextPage(ctx, s.feed)
}

// LoadSaved resets the saved list and loads its first page
func (s *FeedService) LoadSaved(ctx context.Context) result.Result[pagination.Cursor[api.Post]] {
	return firstPage(ctx, s.saved)
}

// LoadMoreSaved loads the next saved page
func (s *FeedService) LoadMoreSaved(ctx context.Context) result.Result[pagination.Cursor[api.Post]] {
	return nextPage(ctx, s.saved)
}

// CreatePost publishes a post; the created post is prepended to the feed
func (s *FeedService) CreatePost(ctx context.Context, req api.CreatePostRequest) result.Result[*api.Post] {
	failed := func(msg string) store.Action { return store.PostCreateFailed{Message: msg} }

	if err := check(s.store, s.notifier, req, failed); err != nil {
		return result.Err[*api.Post](err)
	}
	if strings.TrimSpace(req.Content) == "" && len(req.Images) == 0 {
		return reject[*api.Post](s.store, s.notifier, errors.ValidationError(map[string]string{"content": "Post content or an image is required"}), failed)
	}
	for _, img := range req.Images {
		if !strings.HasPrefix(mimetype.Detect(img.Data).String(), "image/") {
			return reject[*api.Post](s.store, s.notifier, errors.ValidationError(map[string]string{"images": "Only image files are allowed"}), failed)
		}
	}

	logger.Debug("Creating post", "images", len(req.Images))
	r := run(s.store, store.PostCreateStarted{},
		func() (*api.Post, error) { return s.api.CreatePost(ctx, req) },
		func(p *api.Post) store.Action { return store.PostCreated{Post: *p} },
		failed)
	if r.IsOk() {
		s.notifier.Success("Post created successfully!")
	}
	return r
}

func postKey(p api.Post) string {
	return p.ID
}

func userKey(u api.UserSummary) string {
	return u.ID
}

// postPages adapts a paged post endpoint to a pagination fetcher
func postPages(fetch func(ctx context.Context, page, pageSize int) (*api.PostPage, error), pageSize int) pagination.Fetcher[api.Post] {
	return func(ctx context.Context, page int) (pagination.Page[api.Post], error) {
		p, err := fetch(ctx, page, pageSize)
		if err != nil {
			return pagination.Page[api.Post]{}, err
		}
		return pagination.Page[api.Post]{Items: p.Posts, Page: p.Page, Total: p.Total}, nil
	}
}

// userPages adapts a paged user endpoint to a pagination fetcher
func userPages(fetch func(ctx context.Context, page, pageSize int) (*api.UserPage, error), pageSize int) pagination.Fetcher[api.UserSummary] {
	return func(ctx context.Context, page int) (pagination.Page[api.UserSummary], error) {
		p, err := fetch(ctx, page, pageSize)
		if err != nil {
			return pagination.Page[api.UserSummary]{}, err
		}
		return pagination.Page[api.UserSummary]{Items: p.Users, Page: p.Page, Total: p.Total}, nil
	}
}

func firstPage[T any](ctx context.Context, c *pagination.Controller[T]) result.Result[pagination.Cursor[T]] {
	if err := c.LoadFirstPage(ctx); err != nil {
		return result.Err[pagination.Cursor[T]](err)
	}
	return result.Ok(c.Cursor())
}

func nextPage[T any](ctx context.Context, c *pagination.Controller[T]) result.Result[pagination.Cursor[T]] {
	if err := c.LoadNextPage(ctx); err != nil {
		return result.Err[pagination.Cursor[T]](err)
	}
	return result.Ok(c.Cursor())
}
