package service

import (
	"context"
	"sync"

	"github.com/aditya-makadiya/sociofeed/pkg/api"
	"github.com/aditya-makadiya/sociofeed/pkg/live"
	"github.com/aditya-makadiya/sociofeed/pkg/logger"
	"github.com/aditya-makadiya/sociofeed/pkg/store"
)

// EventSource delivers server-pushed events
type EventSource interface {
	On(msgType live.MessageType, fn func(live.Message)) func()
}

// LiveService applies pushed counts and new posts to the store. Counts for
// an entity with a local mutation in flight are ignored; that mutation
// settles from its own server response.
type LiveService struct {
	api   PostAPI
	store *store.Store

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func NewLiveService(client PostAPI, st *store.Store) *LiveService {
	return &LiveService{api: client, store: st}
}

// Start subscribes to src until ctx is done; the returned func unsubscribes
// and waits for pending post fetches
func (s *LiveService) Start(ctx context.Context, src EventSource) func() {
	offs := []func(){
		src.On(live.MessageTypeLikeCountUpdate, s.likeCount),
		src.On(live.MessageTypeCommentCountUpdate, s.commentCount),
		src.On(live.MessageTypeFollowerCountUpdate, s.followerCount),
		src.On(live.MessageTypeNewPost, func(m live.Message) { s.newPost(ctx, m) }),
	}
	return func() {
		for _, off := range offs {
			off()
		}
		// a listener already running may still try to start a fetch
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		s.wg.Wait()
	}
}

func (s *LiveService) likeCount(m live.Message) {
	var ev live.PostEvent
	if err := m.Decode(&ev); err != nil || ev.LikeCount == nil {
		logger.Debug("Ignoring like event", "error", err)
		return
	}
	if s.store.Posts().IsLiking(ev.PostID) {
		return
	}
	s.store.Dispatch(store.PostPatched{PostID: ev.PostID, Patch: store.PostPatch{LikeCount: ev.LikeCount}})
}

func (s *LiveService) commentCount(m live.Message) {
	var ev live.PostEvent
	if err := m.Decode(&ev); err != nil || ev.CommentCount == nil {
		logger.Debug("Ignoring comment event", "error", err)
		return
	}
	if s.store.Posts().CommentLoading {
		return
	}
	s.store.Dispatch(store.PostPatched{PostID: ev.PostID, Patch: store.PostPatch{CommentCount: ev.CommentCount}})
}

func (s *LiveService) followerCount(m live.Message) {
	var ev live.FollowEvent
	if err := m.Decode(&ev); err != nil {
		logger.Debug("Ignoring follow event", "error", err)
		return
	}
	if s.store.Profile().IsFollowPending(ev.UserID) {
		return
	}
	s.store.Dispatch(store.FollowPatched{UserID: ev.UserID, Patch: store.FollowPatch{FollowerCount: intPtr(ev.FollowerCount)}})
}

// newPost fetches the post off the read loop, then prepends it to the feed
func (s *LiveService) newPost(ctx context.Context, m live.Message) {
	var ev live.PostEvent
	if err := m.Decode(&ev); err != nil || ev.PostID == "" {
		logger.Debug("Ignoring post event", "error", err)
		return
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		p, err := s.api.GetPost(ctx, ev.PostID, api.Quiet())
		if err != nil {
			logger.Debug("Could not load pushed post", "post_id", ev.PostID, "error", err)
			return
		}
		s.store.Dispatch(store.PostReceived{Post: *p})
	}()
}
