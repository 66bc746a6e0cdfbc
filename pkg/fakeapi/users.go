package fakeapi

import (
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/aditya-makadiya/sociofeed/pkg/live"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultAvatar  = "/uploads/default-avatar.png"
	maxBioLength   = 160
	maxAvatarBytes = 5 << 20
)

type profileView struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Bio            string `json:"bio"`
	Avatar         string `json:"avatar"`
	FollowerCount  int    `json:"followerCount"`
	FollowingCount int    `json:"followingCount"`
	PostCount      int    `json:"postCount"`
	IsFollowing    bool   `json:"isFollowing"`
}

type summaryView struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Avatar      string `json:"avatar"`
	Bio         string `json:"bio,omitempty"`
	IsFollowing bool   `json:"isFollowing"`
}

func sortComments(list []*comment) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}

func (s *Server) followerIDs(userID string) []string {
	var ids []string
	for follower, followees := range s.follows {
		if followees[userID] {
			ids = append(ids, follower)
		}
	}
	return ids
}

func (s *Server) followingIDs(userID string) []string {
	ids := make([]string, 0, len(s.follows[userID]))
	for id := range s.follows[userID] {
		ids = append(ids, id)
	}
	return ids
}

func (s *Server) isFollowing(follower, followee string) bool {
	return s.follows[follower][followee]
}

func (s *Server) profileView(u *user, viewerID string) profileView {
	posts := 0
	for _, p := range s.posts {
		if p.AuthorID == u.ID {
			posts++
		}
	}
	return profileView{
		ID:             u.ID,
		Username:       u.Username,
		Bio:            u.Bio,
		Avatar:         s.avatarOf(u),
		FollowerCount:  len(s.followerIDs(u.ID)),
		FollowingCount: len(s.follows[u.ID]),
		PostCount:      posts,
		IsFollowing:    s.isFollowing(viewerID, u.ID),
	}
}

func (s *Server) avatarOf(u *user) string {
	if u.Avatar == "" {
		return defaultAvatar
	}
	return u.Avatar
}

// writeUsers pages ids sorted by username
func (s *Server) writeUsers(c *gin.Context, ids []string, viewerID string) {
	list := make([]*user, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			list = append(list, u)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return strings.ToLower(list[i].Username) < strings.ToLower(list[j].Username)
	})

	page, size := pagination(c, "pageSize")
	views := make([]summaryView, 0, size)
	for _, u := range paginate(list, page, size) {
		views = append(views, summaryView{
			ID:          u.ID,
			Username:    u.Username,
			Avatar:      s.avatarOf(u),
			Bio:         u.Bio,
			IsFollowing: s.isFollowing(viewerID, u.ID),
		})
	}
	success(c, http.StatusOK, "", gin.H{
		"users":    views,
		"total":    len(list),
		"page":     page,
		"pageSize": size,
	})
}

// lookupUser aborts with 404 when the user is missing; callers hold s.mu
func (s *Server) lookupUser(c *gin.Context) *user {
	u, ok := s.users[c.Param("id")]
	if !ok {
		abortError(c, http.StatusNotFound, "User not found")
		return nil
	}
	return u
}

// lookupSelf aborts with 403 unless the path user is the viewer; callers hold s.mu
func (s *Server) lookupSelf(c *gin.Context, viewer string) *user {
	u := s.lookupUser(c)
	if u == nil {
		return nil
	}
	if u.ID != viewer {
		abortError(c, http.StatusForbidden, "You can only update your own profile")
		return nil
	}
	return u
}

func (s *Server) searchUsers(c *gin.Context) {
	viewer := c.GetString("user_id")
	query := strings.ToLower(strings.TrimSpace(c.Query("search")))

	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, u := range s.users {
		if !u.IsActive || u.ID == viewer {
			continue
		}
		if query == "" || strings.Contains(strings.ToLower(u.Username), query) {
			ids = append(ids, u.ID)
		}
	}
	s.writeUsers(c, ids, viewer)
}

func (s *Server) getProfile(c *gin.Context) {
	viewer := c.GetString("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if u := s.lookupUser(c); u != nil {
		success(c, http.StatusOK, "", gin.H{"user": s.profileView(u, viewer)})
	}
}

func (s *Server) getUserPosts(c *gin.Context) {
	viewer := c.GetString("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.lookupUser(c)
	if u == nil {
		return
	}
	s.writePage(c, s.sortedPosts(func(p *post) bool { return p.AuthorID == u.ID }), viewer)
}

func (s *Server) getFollowers(c *gin.Context) {
	viewer := c.GetString("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if u := s.lookupUser(c); u != nil {
		s.writeUsers(c, s.followerIDs(u.ID), viewer)
	}
}

func (s *Server) getFollowing(c *gin.Context) {
	viewer := c.GetString("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if u := s.lookupUser(c); u != nil {
		s.writeUsers(c, s.followingIDs(u.ID), viewer)
	}
}

// Follow records follower -> followee directly
func (s *Server) Follow(follower, followee string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.followLocked(follower, followee)
}

func (s *Server) followLocked(follower, followee string) {
	if s.follows[follower] == nil {
		s.follows[follower] = make(map[string]bool)
	}
	s.follows[follower][followee] = true
}

func (s *Server) follow(c *gin.Context) {
	viewer := c.GetString("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.lookupUser(c)
	if u == nil {
		return
	}
	if u.ID == viewer {
		abortError(c, http.StatusBadRequest, "You cannot follow yourself")
		return
	}
	if s.isFollowing(viewer, u.ID) {
		abortError(c, http.StatusBadRequest, "Already following this user")
		return
	}
	s.followLocked(viewer, u.ID)
	s.publishFollowers(u.ID)
	success(c, http.StatusOK, "User followed", gin.H{"followerCount": len(s.followerIDs(u.ID)), "isFollowing": true})
}

func (s *Server) unfollow(c *gin.Context) {
	viewer := c.GetString("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.lookupUser(c)
	if u == nil {
		return
	}
	if !s.isFollowing(viewer, u.ID) {
		abortError(c, http.StatusBadRequest, "You are not following this user")
		return
	}
	delete(s.follows[viewer], u.ID)
	s.publishFollowers(u.ID)
	success(c, http.StatusOK, "User unfollowed", gin.H{"followerCount": len(s.followerIDs(u.ID)), "isFollowing": false})
}

func (s *Server) updateProfile(c *gin.Context) {
	viewer := c.GetString("user_id")
	var req struct {
		Username string `json:"username"`
		Bio      string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	fields := map[string]string{}
	if req.Username != "" && !usernamePattern.MatchString(req.Username) {
		fields["username"] = "Username must be 3-50 alphanumeric characters"
	}
	if len(req.Bio) > maxBioLength {
		fields["bio"] = "Bio must be at most 160 characters"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.lookupSelf(c, viewer)
	if u == nil {
		return
	}
	if req.Username != "" && s.usernameTaken(req.Username, u.ID) {
		fields["username"] = "Username already taken"
	}
	if len(fields) > 0 {
		abortFields(c, fields)
		return
	}

	if req.Username != "" {
		u.Username = req.Username
	}
	u.Bio = req.Bio
	success(c, http.StatusOK, "Profile updated", gin.H{"user": s.profileView(u, viewer)})
}

func (s *Server) updateAvatar(c *gin.Context) {
	viewer := c.GetString("user_id")

	fh, err := c.FormFile("avatar")
	if err != nil {
		abortFields(c, map[string]string{"avatar": "Avatar image is required"})
		return
	}
	if fh.Size > maxAvatarBytes {
		abortFields(c, map[string]string{"avatar": "Avatar must be at most 5MB"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		abortError(c, http.StatusBadRequest, "Could not read avatar")
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		abortError(c, http.StatusBadRequest, "Could not read avatar")
		return
	}
	if !strings.HasPrefix(mimetype.Detect(data).String(), "image/") {
		abortFields(c, map[string]string{"avatar": "Only image files are allowed"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.lookupSelf(c, viewer)
	if u == nil {
		return
	}
	u.Avatar = "/uploads/avatars/" + uuid.NewString() + "-" + fh.Filename
	success(c, http.StatusOK, "Avatar updated", gin.H{"user": s.profileView(u, viewer)})
}

func (s *Server) resetAvatar(c *gin.Context) {
	viewer := c.GetString("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.lookupSelf(c, viewer)
	if u == nil {
		return
	}
	u.Avatar = ""
	success(c, http.StatusOK, "Avatar reset", gin.H{"user": s.profileView(u, viewer)})
}

func (s *Server) publishFollowers(userID string) {
	s.publish(live.MessageTypeFollowerCountUpdate, live.FollowEvent{UserID: userID, FollowerCount: len(s.followerIDs(userID))})
}
