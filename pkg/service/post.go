package service

import (
	"context"

	"github.com/aditya-makadiya/sociofeed/pkg/api"
	"github.com/aditya-makadiya/sociofeed/pkg/errors"
	"github.com/aditya-makadiya/sociofeed/pkg/logger"
	"github.com/aditya-makadiya/sociofeed/pkg/notify"
	"github.com/aditya-makadiya/sociofeed/pkg/optimistic"
	"github.com/aditya-makadiya/sociofeed/pkg/result"
	"github.com/aditya-makadiya/sociofeed/pkg/store"
)

// Toggle is the state of a boolean post or profile flag and its counter
type Toggle struct {
	On    bool `json:"on"`
	Count int  `json:"count"`
}

// PostService provides post detail, like and save toggles and comments
type PostService struct {
	api          PostAPI
	store        *store.Store
	notifier     notify.Notifier
	commentLimit int
}

// NewPostService creates a post service loading commentLimit comments per page
func NewPostService(client PostAPI, st *store.Store, n notify.Notifier, commentLimit int) *PostService {
	return &PostService{
		api:          client,
		store:        st,
		notifier:     orNop(n),
		commentLimit: commentLimit,
	}
}

func postsFailed(msg string) store.Action {
	return store.PostsFailed{Message: msg}
}

// GetPost loads a post into the detail view
func (s *PostService) GetPost(ctx context.Context, postID string) result.Result[*api.Post] {
	return run(s.store, store.PostsStarted{},
		func() (*api.Post, error) { return s.api.GetPost(ctx, postID) },
		func(p *api.Post) store.Action { return store.PostDetailLoaded{Post: p} },
		postsFailed)
}

// find returns the local copy of a post, loading it when no list holds it
func (s *PostService) find(ctx context.Context, postID string) (api.Post, error) {
	if p, ok := s.store.Posts().Find(postID); ok {
		return p, nil
	}
	for _, p := range s.store.Profile().Posts.Items {
		if p.ID == postID {
			return p, nil
		}
	}
	r := s.GetPost(ctx, postID)
	if !r.IsOk() {
		return api.Post{}, r.Error()
	}
	return *r.Value(), nil
}

// current reads a post without fetching; missing posts read as zero
func (s *PostService) current(postID string) api.Post {
	if p, ok := s.store.Posts().Find(postID); ok {
		return p
	}
	for _, p := range s.store.Profile().Posts.Items {
		if p.ID == postID {
			return p
		}
	}
	return api.Post{ID: postID}
}

func (s *PostService) patch(postID string, patch store.PostPatch) {
	s.store.Dispatch(store.PostPatched{PostID: postID, Patch: patch})
}

// ToggleLike flips the like on a post. The change shows at once; the
// server's count replaces it when the call returns. On failure the post is
// re-read quietly, or restored when that fails too.
func (s *PostService) ToggleLike(ctx context.Context, postID string) result.Result[Toggle] {
	if _, err := s.find(ctx, postID); err != nil {
		return result.Err[Toggle](err)
	}

	s.store.Dispatch(store.LikeStarted{PostID: postID})
	v, outcome, err := optimistic.Run(ctx, optimistic.Mutation[Toggle]{
		Read: func() Toggle {
			p := s.current(postID)
			return Toggle{On: p.IsLiked, Count: p.LikeCount}
		},
		Write: func(t Toggle) {
			s.patch(postID, store.PostPatch{IsLiked: boolPtr(t.On), LikeCount: intPtr(t.Count)})
		},
		Apply: flip,
		Commit: func(ctx context.Context, base Toggle) (Toggle, error) {
			call := s.api.LikePost
			if base.On {
				call = s.api.UnlikePost
			}
			count, err := call(ctx, postID)
			if err != nil {
				return Toggle{}, err
			}
			return Toggle{On: !base.On, Count: count}, nil
		},
		Reconcile: func(ctx context.Context) (Toggle, error) {
			p, err := s.api.GetPost(ctx, postID, api.Quiet())
			if err != nil {
				return Toggle{}, err
			}
			return Toggle{On: p.IsLiked, Count: p.LikeCount}, nil
		},
	})
	logger.Debug("Like toggled", "post_id", postID, "outcome", outcome, "liked", v.On, "likes", v.Count)

	if err != nil {
		s.store.Dispatch(store.LikeFinished{PostID: postID, Error: errors.Message(err)})
		return result.Err[Toggle](err)
	}
	s.store.Dispatch(store.LikeFinished{PostID: postID})
	if v.On {
		s.notifier.Success("Post liked!")
	} else {
		s.notifier.Success("Post unliked!")
	}
	return result.Ok(v)
}

// ToggleSave flips the saved flag on a post, like ToggleLike
func (s *PostService) ToggleSave(ctx context.Context, postID string) result.Result[Toggle] {
	if _, err := s.find(ctx, postID); err != nil {
		return result.Err[Toggle](err)
	}

	s.store.Dispatch(store.SaveStarted{PostID: postID})
	v, outcome, err := optimistic.Run(ctx, optimistic.Mutation[Toggle]{
		Read: func() Toggle {
			return Toggle{On: s.current(postID).IsSaved}
		},
		Write: func(t Toggle) {
			s.patch(postID, store.PostPatch{IsSaved: boolPtr(t.On)})
		},
		Apply: func(t Toggle) Toggle {
			return Toggle{On: !t.On}
		},
		Commit: func(ctx context.Context, base Toggle) (Toggle, error) {
			call := s.api.SavePost
			if base.On {
				call = s.api.UnsavePost
			}
			if err := call(ctx, postID); err != nil {
				return Toggle{}, err
			}
			return Toggle{On: !base.On}, nil
		},
		Reconcile: func(ctx context.Context) (Toggle, error) {
			p, err := s.api.GetPost(ctx, postID, api.Quiet())
			if err != nil {
				return Toggle{}, err
			}
			return Toggle{On: p.IsSaved}, nil
		},
	})
	logger.Debug("Save toggled", "post_id", postID, "outcome", outcome, "saved", v.On)

	if err != nil {
		s.store.Dispatch(store.SaveFinished{PostID: postID, Error: errors.Message(err)})
		return result.Err[Toggle](err)
	}
	s.store.Dispatch(store.SaveFinished{PostID: postID})
	if v.On {
		s.notifier.Success("Post saved!")
	} else {
		s.notifier.Success("Post unsaved!")
	}
	return result.Ok(v)
}

// flip toggles On and moves Count by one, never below zero
func flip(t Toggle) Toggle {
	if t.On {
		return Toggle{On: false, Count: max(t.Count-1, 0)}
	}
	return Toggle{On: true, Count: t.Count + 1}
}

// LoadComments loads one page of a post's comments
func (s *PostService) LoadComments(ctx context.Context, postID string, page int) result.Result[*api.CommentPage] {
	page = max(page, 1)
	return run(s.store, store.CommentsStarted{PostID: postID},
		func() (*api.CommentPage, error) { return s.api.GetComments(ctx, postID, page, s.commentLimit) },
		func(p *api.CommentPage) store.Action {
			return store.CommentsLoaded{PostID: postID, Comments: p.Comments, Total: p.Total, Page: max(p.Page, page)}
		},
		func(msg string) store.Action { return store.CommentsFailed{Message: msg} })
}

func commentFailed(msg string) store.Action {
	return store.CommentMutationFailed{Message: msg}
}

// commentCount runs an optimistic change of a post's comment count.
// commit returns the server's count, or nil when it did not report one.
func (s *PostService) commentCount(ctx context.Context, postID string, delta int, commit func(ctx context.Context) (*int, error)) error {
	_, outcome, err := optimistic.Run(ctx, optimistic.Mutation[int]{
		Read: func() int {
			return s.current(postID).CommentCount
		},
		Write: func(n int) {
			s.patch(postID, store.PostPatch{CommentCount: intPtr(n)})
		},
		Apply: func(n int) int {
			return max(n+delta, 0)
		},
		Commit: func(ctx context.Context, base int) (int, error) {
			server, err := commit(ctx)
			if err != nil {
				return 0, err
			}
			if server != nil {
				return *server, nil
			}
			return max(base+delta, 0), nil
		},
		Reconcile: func(ctx context.Context) (int, error) {
			p, err := s.api.GetPost(ctx, postID, api.Quiet())
			if err != nil {
				return 0, err
			}
			return p.CommentCount, nil
		},
	})
	logger.Debug("Comment count settled", "post_id", postID, "outcome", outcome)
	return err
}

// AddComment posts a comment. The comment appears once the server returns
// it; only the post's comment count moves ahead of the response.
func (s *PostService) AddComment(ctx context.Context, postID, content string) result.Result[*api.Comment] {
	if err := check(s.store, s.notifier, api.CommentRequest{Content: content}, commentFailed); err != nil {
		return result.Err[*api.Comment](err)
	}

	s.store.Dispatch(store.CommentMutationStarted{})
	var created *api.Comment
	err := s.commentCount(ctx, postID, 1, func(ctx context.Context) (*int, error) {
		res, err := s.api.AddComment(ctx, postID, content)
		if err != nil {
			return nil, err
		}
		created = res.Comment
		return res.CommentCount, nil
	})
	if err != nil {
		s.store.Dispatch(commentFailed(errors.Message(err)))
		return result.Err[*api.Comment](err)
	}

	c := *created
	if c.PostID == "" {
		c.PostID = postID
	}
	s.store.Dispatch(store.CommentAdded{Comment: c})
	s.notifier.Success("Comment added successfully!")
	return result.Ok(&c)
}

// UpdateComment edits the content of an own comment
func (s *PostService) UpdateComment(ctx context.Context, postID, commentID, content string) result.Result[*api.Comment] {
	if err := check(s.store, s.notifier, api.CommentRequest{Content: content}, commentFailed); err != nil {
		return result.Err[*api.Comment](err)
	}

	r := run(s.store, store.CommentMutationStarted{},
		func() (*api.CommentResult, error) { return s.api.UpdateComment(ctx, commentID, content) },
		func(res *api.CommentResult) store.Action { return store.CommentUpdated{Comment: *res.Comment} },
		commentFailed)
	if !r.IsOk() {
		return result.Err[*api.Comment](r.Error())
	}
	if n := r.Value().CommentCount; n != nil {
		s.patch(postID, store.PostPatch{CommentCount: n})
	}
	s.notifier.Success("Comment updated successfully!")
	return result.Ok(r.Value().Comment)
}

// DeleteComment removes an own comment; the post's comment count drops at once
func (s *PostService) DeleteComment(ctx context.Context, postID, commentID string) result.Result[Empty] {
	s.store.Dispatch(store.CommentMutationStarted{})
	err := s.commentCount(ctx, postID, -1, func(ctx context.Context) (*int, error) {
		res, err := s.api.DeleteComment(ctx, commentID)
		if err != nil {
			return nil, err
		}
		return res.CommentCount, nil
	})
	if err != nil {
		s.store.Dispatch(commentFailed(errors.Message(err)))
		return result.Err[Empty](err)
	}

	s.store.Dispatch(store.CommentDeleted{CommentID: commentID})
	s.notifier.Success("Comment deleted successfully!")
	return result.Ok(Empty{})
}
