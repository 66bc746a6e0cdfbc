package store

import (
	"github.com/aditya-makadiya/sociofeed/pkg/api"
	"github.com/aditya-makadiya/sociofeed/pkg/pagination"
)

// ProfileState is the viewed-profile slice
type ProfileState struct {
	Profile   *api.Profile                       `json:"profile,omitempty"`
	Posts     pagination.Cursor[api.Post]        `json:"posts"`
	Followers pagination.Cursor[api.UserSummary] `json:"followers"`
	Following pagination.Cursor[api.UserSummary] `json:"following"`
	Search    pagination.Cursor[api.UserSummary] `json:"search"`

	// in-flight follow toggles per user id
	FollowLoading map[string]int `json:"followLoading"`

	Updating bool   `json:"updating"`
	Loading  bool   `json:"loading"`
	Error    string `json:"error,omitempty"`
}

func newProfileState() ProfileState {
	return ProfileState{FollowLoading: make(map[string]int)}
}

// IsFollowPending reports whether a follow toggle on userID is in flight
func (p ProfileState) IsFollowPending(userID string) bool {
	return p.FollowLoading[userID] > 0
}

func (p ProfileState) clone() ProfileState {
	if p.Profile != nil {
		pr := *p.Profile
		p.Profile = &pr
	}
	p.Posts = p.Posts.Clone()
	p.Followers = p.Followers.Clone()
	p.Following = p.Following.Clone()
	p.Search = p.Search.Clone()
	p.FollowLoading = cloneCounts(p.FollowLoading)
	return p
}

// FollowPatch holds the follow fields a follow toggle changes
type FollowPatch struct {
	IsFollowing   *bool
	FollowerCount *int
}

func patchUsers(users []api.UserSummary, userID string, isFollowing *bool) {
	if isFollowing == nil {
		return
	}
	for i := range users {
		if users[i].ID == userID {
			users[i].IsFollowing = *isFollowing
		}
	}
}

// Profile actions

type ProfileStarted struct{}

// ProfileLoaded sets the viewed profile
type ProfileLoaded struct {
	Profile *api.Profile
}

type ProfileFailed struct {
	Message string
}

type ProfileUpdateStarted struct{}

// ProfileUpdated replaces the viewed profile after an edit or avatar change
type ProfileUpdated struct {
	Profile *api.Profile
}

type ProfileUpdateFailed struct {
	Message string
}

type FollowStarted struct {
	UserID string
}

// FollowPatched merges follow state into the viewed profile and user lists
type FollowPatched struct {
	UserID string
	Patch  FollowPatch
}

type FollowFinished struct {
	UserID string
	Error  string
}

func reduceProfile(s *ProfileState, a Action) {
	switch a := a.(type) {
	case ProfileStarted:
		s.Loading = true
		s.Error = ""
	case ProfileLoaded:
		s.Profile = a.Profile
		s.Loading = false
		s.Error = ""
	case ProfileFailed:
		s.Loading = false
		s.Error = a.Message

	case PostListUpdated:
		if a.List == ProfilePostsList {
			a.Update(&s.Posts)
		}
	case UserListUpdated:
		switch a.List {
		case FollowersList:
			a.Update(&s.Followers)
		case FollowingList:
			a.Update(&s.Following)
		case SearchList:
			a.Update(&s.Search)
		}

	case PostPatched:
		patchList(s.Posts.Items, a.PostID, a.Patch)

	case ProfileUpdateStarted:
		s.Updating = true
		s.Error = ""
	case ProfileUpdated:
		s.Updating = false
		if s.Profile == nil || a.Profile == nil || s.Profile.ID == a.Profile.ID {
			s.Profile = a.Profile
		}
	case ProfileUpdateFailed:
		s.Updating = false
		s.Error = a.Message

	case FollowStarted:
		incr(s.FollowLoading, a.UserID)
		s.Error = ""
	case FollowPatched:
		if s.Profile != nil && s.Profile.ID == a.UserID {
			pr := *s.Profile
			if a.Patch.IsFollowing != nil {
				pr.IsFollowing = *a.Patch.IsFollowing
			}
			if a.Patch.FollowerCount != nil {
				pr.FollowerCount = max(*a.Patch.FollowerCount, 0)
			}
			s.Profile = &pr
		}
		patchUsers(s.Followers.Items, a.UserID, a.Patch.IsFollowing)
		patchUsers(s.Following.Items, a.UserID, a.Patch.IsFollowing)
		patchUsers(s.Search.Items, a.UserID, a.Patch.IsFollowing)
	case FollowFinished:
		decr(s.FollowLoading, a.UserID)
		if a.Error != "" {
			s.Error = a.Error
		}
	}
}
