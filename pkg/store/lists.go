package store

import (
	"github.com/aditya-makadiya/sociofeed/pkg/api"
	"github.com/aditya-makadiya/sociofeed/pkg/pagination"
)

// PostList names a paginated post list
type PostList string

const (
	FeedList         PostList = "feed"
	SavedList        PostList = "saved"
	ProfilePostsList PostList = "profile_posts"
)

// UserList names a paginated user list
type UserList string

const (
	FollowersList UserList = "followers"
	FollowingList UserList = "following"
	SearchList    UserList = "search"
)

// PostListUpdated runs Update on the named post list cursor
type PostListUpdated struct {
	List   PostList
	Update func(*pagination.Cursor[api.Post])
}

// UserListUpdated runs Update on the named user list cursor
type UserListUpdated struct {
	List   UserList
	Update func(*pagination.Cursor[api.UserSummary])
}

// PostListState adapts a post list to pagination.State
func (s *Store) PostListState(list PostList) pagination.State[api.Post] {
	return postListState{store: s, list: list}
}

// UserListState adapts a user list to pagination.State
func (s *Store) UserListState(list UserList) pagination.State[api.UserSummary] {
	return userListState{store: s, list: list}
}

type postListState struct {
	store *Store
	list  PostList
}

func (p postListState) Cursor() pagination.Cursor[api.Post] {
	p.store.mu.RLock()
	defer p.store.mu.RUnlock()
	switch p.list {
	case FeedList:
		return p.store.state.Posts.Feed.Clone()
	case SavedList:
		return p.store.state.Posts.Saved.Clone()
	case ProfilePostsList:
		return p.store.state.Profile.Posts.Clone()
	}
	return pagination.Cursor[api.Post]{}
}

func (p postListState) Update(fn func(*pagination.Cursor[api.Post])) {
	p.store.Dispatch(PostListUpdated{List: p.list, Update: fn})
}

type userListState struct {
	store *Store
	list  UserList
}

func (u userListState) Cursor() pagination.Cursor[api.UserSummary] {
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	switch u.list {
	case FollowersList:
		return u.store.state.Profile.Followers.Clone()
	case FollowingList:
		return u.store.state.Profile.Following.Clone()
	case SearchList:
		return u.store.state.Profile.Search.Clone()
	}
	return pagination.Cursor[api.UserSummary]{}
}

func (u userListState) Update(fn func(*pagination.Cursor[api.UserSummary])) {
	u.store.Dispatch(UserListUpdated{List: u.list, Update: fn})
}
