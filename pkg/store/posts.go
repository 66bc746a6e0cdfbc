package store

import (
	"github.com/aditya-makadiya/sociofeed/pkg/api"
	"github.com/aditya-makadiya/sociofeed/pkg/pagination"
)

// PostState is the feed/posts slice
type PostState struct {
	Feed   pagination.Cursor[api.Post] `json:"feed"`
	Saved  pagination.Cursor[api.Post] `json:"saved"`
	Detail *api.Post                   `json:"detail,omitempty"`

	// Comments of the open post, newest first
	CommentsPostID  string        `json:"commentsPostId,omitempty"`
	Comments        []api.Comment `json:"comments"`
	CommentsTotal   int           `json:"commentsTotal"`
	CommentsPage    int           `json:"commentsPage"`
	CommentsLoading bool          `json:"commentsLoading"`
	CommentLoading  bool          `json:"commentLoading"`

	// in-flight toggles per post id
	LikeLoading map[string]int `json:"likeLoading"`
	SaveLoading map[string]int `json:"saveLoading"`

	Creating bool   `json:"creating"`
	Loading  bool   `json:"loading"`
	Error    string `json:"error,omitempty"`
}

func newPostState() PostState {
	return PostState{
		LikeLoading: make(map[string]int),
		SaveLoading: make(map[string]int),
	}
}

// IsLiking reports whether a like toggle on postID is in flight
func (p PostState) IsLiking(postID string) bool {
	return p.LikeLoading[postID] > 0
}

// IsSaving reports whether a save toggle on postID is in flight
func (p PostState) IsSaving(postID string) bool {
	return p.SaveLoading[postID] > 0
}

// Find returns the first local copy of a post: detail, feed, then saved
func (p PostState) Find(postID string) (api.Post, bool) {
	if p.Detail != nil && p.Detail.ID == postID {
		return *p.Detail, true
	}
	for _, list := range [][]api.Post{p.Feed.Items, p.Saved.Items} {
		for _, post := range list {
			if post.ID == postID {
				return post, true
			}
		}
	}
	return api.Post{}, false
}

func (p PostState) clone() PostState {
	p.Feed = p.Feed.Clone()
	p.Saved = p.Saved.Clone()
	if p.Detail != nil {
		d := *p.Detail
		p.Detail = &d
	}
	if p.Comments != nil {
		comments := make([]api.Comment, len(p.Comments))
		copy(comments, p.Comments)
		p.Comments = comments
	}
	p.LikeLoading = cloneCounts(p.LikeLoading)
	p.SaveLoading = cloneCounts(p.SaveLoading)
	return p
}

// PostPatch holds the summary fields of a post that mutations change.
// Nil fields are left alone.
type PostPatch struct {
	IsLiked      *bool
	LikeCount    *int
	IsSaved      *bool
	CommentCount *int
}

// Apply merges the patch into post; counts never go below zero
func (p PostPatch) Apply(post *api.Post) {
	if p.IsLiked != nil {
		post.IsLiked = *p.IsLiked
	}
	if p.LikeCount != nil {
		post.LikeCount = max(*p.LikeCount, 0)
	}
	if p.IsSaved != nil {
		post.IsSaved = *p.IsSaved
	}
	if p.CommentCount != nil {
		post.CommentCount = max(*p.CommentCount, 0)
	}
}

// patchList merges patch into every copy of postID, in place
func patchList(items []api.Post, postID string, patch PostPatch) {
	for i := range items {
		if items[i].ID == postID {
			patch.Apply(&items[i])
		}
	}
}

// Post actions

type PostsStarted struct{}

type PostsFailed struct {
	Message string
}

// PostDetailLoaded sets the open post
type PostDetailLoaded struct {
	Post *api.Post
}

type PostCreateStarted struct{}

// PostCreated prepends the new post to the feed
type PostCreated struct {
	Post api.Post
}

type PostCreateFailed struct {
	Message string
}

// PostReceived prepends a post published by someone else to the feed
type PostReceived struct {
	Post api.Post
}

// PostPatched merges summary fields into every local copy of a post
type PostPatched struct {
	PostID string
	Patch  PostPatch
}

type LikeStarted struct {
	PostID string
}

// LikeFinished ends one like toggle; Error is empty on success
type LikeFinished struct {
	PostID string
	Error  string
}

type SaveStarted struct {
	PostID string
}

type SaveFinished struct {
	PostID string
	Error  string
}

type CommentsStarted struct {
	PostID string
}

// CommentsLoaded replaces the comment list of PostID
type CommentsLoaded struct {
	PostID   string
	Comments []api.Comment
	Total    int
	Page     int
}

type CommentsFailed struct {
	Message string
}

type CommentMutationStarted struct{}

type CommentAdded struct {
	Comment api.Comment
}

type CommentUpdated struct {
	Comment api.Comment
}

type CommentDeleted struct {
	CommentID string
}

type CommentMutationFailed struct {
	Message string
}

// prependFeed adds p to the top of the feed unless it is already listed
func prependFeed(s *PostState, p api.Post) {
	for _, existing := range s.Feed.Items {
		if existing.ID == p.ID {
			return
		}
	}
	s.Feed.Items = append([]api.Post{p}, s.Feed.Items...)
	s.Feed.Total++
}

func reducePosts(s *PostState, a Action) {
	switch a := a.(type) {
	case PostsStarted:
		s.Loading = true
		s.Error = ""
	case PostsFailed:
		s.Loading = false
		s.Error = a.Message
	case PostDetailLoaded:
		s.Detail = a.Post
		s.Loading = false
		s.Error = ""

	case PostListUpdated:
		switch a.List {
		case FeedList:
			a.Update(&s.Feed)
		case SavedList:
			a.Update(&s.Saved)
		}

	case PostCreateStarted:
		s.Creating = true
		s.Error = ""
	case PostCreated:
		s.Creating = false
		prependFeed(s, a.Post)
	case PostReceived:
		prependFeed(s, a.Post)
	case PostCreateFailed:
		s.Creating = false
		s.Error = a.Message

	case PostPatched:
		patchList(s.Feed.Items, a.PostID, a.Patch)
		patchList(s.Saved.Items, a.PostID, a.Patch)
		if s.Detail != nil && s.Detail.ID == a.PostID {
			d := *s.Detail
			a.Patch.Apply(&d)
			s.Detail = &d
		}

	case LikeStarted:
		incr(s.LikeLoading, a.PostID)
		s.Error = ""
	case LikeFinished:
		decr(s.LikeLoading, a.PostID)
		if a.Error != "" {
			s.Error = a.Error
		}
	case SaveStarted:
		incr(s.SaveLoading, a.PostID)
		s.Error = ""
	case SaveFinished:
		decr(s.SaveLoading, a.PostID)
		if a.Error != "" {
			s.Error = a.Error
		}

	case CommentsStarted:
		if s.CommentsPostID != a.PostID {
			s.CommentsPostID = a.PostID
			s.Comments = nil
			s.CommentsTotal = 0
			s.CommentsPage = 0
		}
		s.CommentsLoading = true
		s.Error = ""
	case CommentsLoaded:
		s.CommentsPostID = a.PostID
		s.Comments = a.Comments
		s.CommentsTotal = a.Total
		s.CommentsPage = a.Page
		s.CommentsLoading = false
		s.Error = ""
	case CommentsFailed:
		s.CommentsLoading = false
		s.Error = a.Message

	case CommentMutationStarted:
		s.CommentLoading = true
		s.Error = ""
	case CommentAdded:
		s.CommentLoading = false
		if a.Comment.PostID == "" || a.Comment.PostID == s.CommentsPostID {
			s.Comments = append([]api.Comment{a.Comment}, s.Comments...)
			s.CommentsTotal++
		}
	case CommentUpdated:
		s.CommentLoading = false
		for i := range s.Comments {
			if s.Comments[i].ID == a.Comment.ID {
				s.Comments[i] = a.Comment
			}
		}
	case CommentDeleted:
		s.CommentLoading = false
		for i := range s.Comments {
			if s.Comments[i].ID == a.CommentID {
				s.Comments = append(s.Comments[:i:i], s.Comments[i+1:]...)
				s.CommentsTotal = max(s.CommentsTotal-1, 0)
				break
			}
		}
	case CommentMutationFailed:
		s.CommentLoading = false
		s.Error = a.Message
	}
}
