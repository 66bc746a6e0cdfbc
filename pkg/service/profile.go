package service

import (
	"context"
	"strings"
	"sync"

	"github.com/aditya-makadiya/sociofeed/pkg/api"
	"github.com/aditya-makadiya/sociofeed/pkg/avatar"
	"github.com/aditya-makadiya/sociofeed/pkg/errors"
	"github.com/aditya-makadiya/sociofeed/pkg/logger"
	"github.com/aditya-makadiya/sociofeed/pkg/notify"
	"github.com/aditya-makadiya/sociofeed/pkg/optimistic"
	"github.com/aditya-makadiya/sociofeed/pkg/pagination"
	"github.com/aditya-makadiya/sociofeed/pkg/result"
	"github.com/aditya-makadiya/sociofeed/pkg/store"
	"golang.org/x/sync/errgroup"
)

// ProfileOptions sizes the profile lists and the avatar pipeline
type ProfileOptions struct {
	PageSize       int
	SearchPageSize int
	AvatarSize     int
	AvatarMaxBytes int64
}

// ProfileService provides profiles, their lists, follows and profile edits
type ProfileService struct {
	api      ProfileAPI
	store    *store.Store
	notifier notify.Notifier
	opts     ProfileOptions

	posts     boundList[api.Post]
	followers boundList[api.UserSummary]
	following boundList[api.UserSummary]
	search    boundList[api.UserSummary]
}

// NewProfileService creates a profile service
func NewProfileService(client ProfileAPI, st *store.Store, n notify.Notifier, opts ProfileOptions) *ProfileService {
	if opts.SearchPageSize <= 0 {
		opts.SearchPageSize = opts.PageSize
	}
	return &ProfileService{
		api:      client,
		store:    st,
		notifier: orNop(n),
		opts:     opts,
	}
}

// boundList is a list slot whose controller is rebuilt when its subject
// (a user id or a search query) changes
type boundList[T any] struct {
	mu      sync.Mutex
	subject string
	ctl     *pagination.Controller[T]
}

func (b *boundList[T]) bind(subject string, build func() *pagination.Controller[T]) *pagination.Controller[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctl == nil || b.subject != subject {
		b.subject = subject
		b.ctl = build()
	}
	return b.ctl
}

func (b *boundList[T]) current() *pagination.Controller[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctl
}

func profileFailed(msg string) store.Action {
	return store.ProfileFailed{Message: msg}
}

func profileUpdateFailed(msg string) store.Action {
	return store.ProfileUpdateFailed{Message: msg}
}

func profileUpdated(p *api.Profile) store.Action {
	return store.ProfileUpdated{Profile: p}
}

// GetProfile loads a user's profile into the viewed profile
func (s *ProfileService) GetProfile(ctx context.Context, userID string) result.Result[*api.Profile] {
	return run(s.store, store.ProfileStarted{},
		func() (*api.Profile, error) { return s.api.GetProfile(ctx, userID) },
		func(p *api.Profile) store.Action { return store.ProfileLoaded{Profile: p} },
		profileFailed)
}

// LoadPage loads a profile and the first page of its posts concurrently
func (s *ProfileService) LoadPage(ctx context.Context, userID string) result.Result[*api.Profile] {
	var profile result.Result[*api.Profile]
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profile = s.GetProfile(gctx, userID)
		return profile.Error()
	})
	g.Go(func() error {
		return s.LoadPosts(gctx, userID).Error()
	})
	if err := g.Wait(); err != nil {
		return result.Err[*api.Profile](err)
	}
	return profile
}

// LoadPosts resets the profile post grid to userID and loads its first page
func (s *ProfileService) LoadPosts(ctx context.Context, userID string) result.Result[pagination.Cursor[api.Post]] {
	ctl := s.posts.bind(userID, func() *pagination.Controller[api.Post] {
		fetch := func(ctx context.Context, page, size int) (*api.PostPage, error) {
			return s.api.GetUserPosts(ctx, userID, page, size)
		}
		return pagination.New("profile_posts", postPages(fetch, s.opts.PageSize), postKey, s.store.PostListState(store.ProfilePostsList))
	})
	return firstPage(ctx, ctl)
}

// LoadMorePosts loads the next page of the bound profile's posts
func (s *ProfileService) LoadMorePosts(ctx context.Context) result.Result[pagination.Cursor[api.Post]] {
	return more(ctx, s.posts.current())
}

// LoadFollowers resets the follower list to userID and loads its first page
func (s *ProfileService) LoadFollowers(ctx context.Context, userID string) result.Result[pagination.Cursor[api.UserSummary]] {
	ctl := s.followers.bind(userID, func() *pagination.Controller[api.UserSummary] {
		fetch := func(ctx context.Context, page, size int) (*api.UserPage, error) {
			return s.api.GetFollowers(ctx, userID, page, size)
		}
		return pagination.New("followers", userPages(fetch, s.opts.PageSize), userKey, s.store.UserListState(store.FollowersList))
	})
	return firstPage(ctx, ctl)
}

// LoadMoreFollowers loads the next follower page
func (s *ProfileService) LoadMoreFollowers(ctx context.Context) result.Result[pagination.Cursor[api.UserSummary]] {
	return more(ctx, s.followers.current())
}

// LoadFollowing resets the following list to userID and loads its first page
func (s *ProfileService) LoadFollowing(ctx context.Context, userID string) result.Result[pagination.Cursor[api.UserSummary]] {
	ctl := s.following.bind(userID, func() *pagination.Controller[api.UserSummary] {
		fetch := func(ctx context.Context, page, size int) (*api.UserPage, error) {
			return s.api.GetFollowing(ctx, userID, page, size)
		}
		return pagination.New("following", userPages(fetch, s.opts.PageSize), userKey, s.store.UserListState(store.FollowingList))
	})
	return firstPage(ctx, ctl)
}

// LoadMoreFollowing loads the next following page
func (s *ProfileService) LoadMoreFollowing(ctx context.Context) result.Result[pagination.Cursor[api.UserSummary]] {
	return more(ctx, s.following.current())
}

// Search resets the search list to query and loads its first page
func (s *ProfileService) Search(ctx context.Context, query string) result.Result[pagination.Cursor[api.UserSummary]] {
	query = strings.TrimSpace(query)
	if query == "" {
		return reject[pagination.Cursor[api.UserSummary]](s.store, s.notifier, errors.ValidationError(map[string]string{"query": "Search query is required"}), profileFailed)
	}

	ctl := s.search.bind(query, func() *pagination.Controller[api.UserSummary] {
		fetch := func(ctx context.Context, page, size int) (*api.UserPage, error) {
			return s.api.SearchUsers(ctx, query, page, size)
		}
		return pagination.New("search", userPages(fetch, s.opts.SearchPageSize), userKey, s.store.UserListState(store.SearchList))
	})
	return firstPage(ctx, ctl)
}

// LoadMoreSearch loads the next search page
func (s *ProfileService) LoadMoreSearch(ctx context.Context) result.Result[pagination.Cursor[api.UserSummary]] {
	return more(ctx, s.search.current())
}

func more[T any](ctx context.Context, ctl *pagination.Controller[T]) result.Result[pagination.Cursor[T]] {
	if ctl == nil {
		return result.Ok(pagination.Cursor[T]{})
	}
	return nextPage(ctx, ctl)
}

// followState reads the local follow state of userID. Count is only known
// for the viewed profile.
func (s *ProfileService) followState(userID string) (t Toggle, counted bool, found bool) {
	p := s.store.Profile()
	if p.Profile != nil && p.Profile.ID == userID {
		return Toggle{On: p.Profile.IsFollowing, Count: p.Profile.FollowerCount}, true, true
	}
	for _, list := range [][]api.UserSummary{p.Followers.Items, p.Following.Items, p.Search.Items} {
		for _, u := range list {
			if u.ID == userID {
				return Toggle{On: u.IsFollowing}, false, true
			}
		}
	}
	return Toggle{}, false, false
}

// ToggleFollow follows or unfollows userID depending on the local state
func (s *ProfileService) ToggleFollow(ctx context.Context, userID string) result.Result[Toggle] {
	if _, _, found := s.followState(userID); !found {
		if r := s.GetProfile(ctx, userID); !r.IsOk() {
			return result.Err[Toggle](r.Error())
		}
	}
	t, _, _ := s.followState(userID)
	return s.SetFollowing(ctx, userID, !t.On)
}

// SetFollowing follows (follow=true) or unfollows userID. The viewed
// profile and every user list show the change before the server answers;
// the server's follower count replaces it, and a failure restores the
// previous state.
func (s *ProfileService) SetFollowing(ctx context.Context, userID string, follow bool) result.Result[Toggle] {
	if me := s.store.Auth().User; me != nil && me.ID == userID {
		return reject[Toggle](s.store, s.notifier, errors.ValidationError(map[string]string{"userId": "You cannot follow yourself"}), profileFailed)
	}

	s.store.Dispatch(store.FollowStarted{UserID: userID})
	v, outcome, err := optimistic.Run(ctx, optimistic.Mutation[Toggle]{
		Read: func() Toggle {
			t, _, _ := s.followState(userID)
			return t
		},
		Write: func(t Toggle) {
			patch := store.FollowPatch{IsFollowing: boolPtr(t.On)}
			if _, counted, _ := s.followState(userID); counted {
				patch.FollowerCount = intPtr(t.Count)
			}
			s.store.Dispatch(store.FollowPatched{UserID: userID, Patch: patch})
		},
		Apply: func(t Toggle) Toggle {
			if t.On == follow {
				return t
			}
			return flip(t)
		},
		Commit: func(ctx context.Context, base Toggle) (Toggle, error) {
			call := s.api.UnfollowUser
			if follow {
				call = s.api.FollowUser
			}
			res, err := call(ctx, userID)
			if err != nil {
				return Toggle{}, err
			}
			out := Toggle{On: follow, Count: base.Count}
			if base.On != follow {
				out = flip(base)
			}
			if res.IsFollowing != nil {
				out.On = *res.IsFollowing
			}
			if res.FollowerCount != nil {
				out.Count = *res.FollowerCount
			}
			return out, nil
		},
	})
	logger.Debug("Follow settled", "user_id", userID, "outcome", outcome, "following", v.On, "followers", v.Count)

	if err != nil {
		s.store.Dispatch(store.FollowFinished{UserID: userID, Error: errors.Message(err)})
		return result.Err[Toggle](err)
	}
	s.store.Dispatch(store.FollowFinished{UserID: userID})
	if v.On {
		s.notifier.Success("User followed!")
	} else {
		s.notifier.Success("User unfollowed!")
	}
	return result.Ok(v)
}

// UpdateProfile edits the username and bio of userID
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, req api.UpdateProfileRequest) result.Result[*api.Profile] {
	if err := check(s.store, s.notifier, req, profileUpdateFailed); err != nil {
		return result.Err[*api.Profile](err)
	}

	r := run(s.store, store.ProfileUpdateStarted{},
		func() (*api.Profile, error) { return s.api.UpdateProfile(ctx, userID, req) },
		profileUpdated, profileUpdateFailed)
	if r.IsOk() {
		s.notifier.Success("Profile updated successfully!")
	}
	return r
}

// UpdateAvatar crops data (a centered square when crop is nil), scales it
// and uploads it as the avatar of userID
func (s *ProfileService) UpdateAvatar(ctx context.Context, userID string, data []byte, crop *avatar.Rect) result.Result[*api.Profile] {
	img, err := avatar.Prepare(data, crop, s.opts.AvatarSize, s.opts.AvatarMaxBytes)
	if err != nil {
		return reject[*api.Profile](s.store, s.notifier, err, profileUpdateFailed)
	}
	logger.Debug("Uploading avatar", "user_id", userID, "bytes", len(img.Data))

	r := run(s.store, store.ProfileUpdateStarted{},
		func() (*api.Profile, error) { return s.api.UpdateAvatar(ctx, userID, img) },
		profileUpdated, profileUpdateFailed)
	if r.IsOk() {
		s.notifier.Success("Avatar updated successfully!")
	}
	return r
}

// ResetAvatar restores the default avatar of userID
func (s *ProfileService) ResetAvatar(ctx context.Context, userID string) result.Result[*api.Profile] {
	r := run(s.store, store.ProfileUpdateStarted{},
		func() (*api.Profile, error) { return s.api.ResetAvatar(ctx, userID) },
		profileUpdated, profileUpdateFailed)
	if r.IsOk() {
		s.notifier.Success("Avatar reset to default")
	}
	return r
}
