package fakeapi

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aditya-makadiya/sociofeed/pkg/live"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxContentLength = 1000

type authorView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type postView struct {
	ID           string     `json:"id"`
	User         authorView `json:"user"`
	Content      string     `json:"content"`
	Images       []string   `json:"images"`
	LikeCount    int        `json:"likeCount"`
	CommentCount int        `json:"commentCount"`
	IsLiked      bool       `json:"isLiked"`
	IsSaved      bool       `json:"isSaved"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type commentView struct {
	ID        string     `json:"id"`
	PostID    string     `json:"postId"`
	User      authorView `json:"user"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (s *Server) author(id string) authorView {
	u, ok := s.users[id]
	if !ok {
		return authorView{ID: id}
	}
	return authorView{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

func (s *Server) commentCount(postID string) int {
	n := 0
	for _, cm := range s.comments {
		if cm.PostID == postID {
			n++
		}
	}
	return n
}

func (s *Server) postView(p *post, viewerID string) postView {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return postView{
		ID:           p.ID,
		User:         s.author(p.AuthorID),
		Content:      p.Content,
		Images:       images,
		LikeCount:    len(p.LikedBy),
		CommentCount: s.commentCount(p.ID),
		IsLiked:      p.LikedBy[viewerID],
		IsSaved:      p.SavedBy[viewerID],
		CreatedAt:    p.CreatedAt,
	}
}

func (s *Server) commentView(cm *comment) commentView {
	return commentView{
		ID:        cm.ID,
		PostID:    cm.PostID,
		User:      s.author(cm.AuthorID),
		Content:   cm.Content,
		CreatedAt: cm.CreatedAt,
		UpdatedAt: cm.UpdatedAt,
	}
}

// AddPost creates a post directly and returns its id
func (s *Server) AddPost(authorID, content string, createdAt time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addPostLocked(authorID, content, nil, createdAt).ID
}

func (s *Server) addPostLocked(authorID, content string, images []string, createdAt time.Time) *post {
	p := &post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Content:   content,
		Images:    images,
		CreatedAt: createdAt,
		LikedBy:   make(map[string]bool),
		SavedBy:   make(map[string]bool),
	}
	s.posts[p.ID] = p
	return p
}

// LikeCount returns the number of likes on a post
func (s *Server) LikeCount(postID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.posts[postID]; ok {
		return len(p.LikedBy)
	}
	return 0
}

// AddLike records a like from userID, as another client would
func (s *Server) AddLike(postID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.posts[postID]; ok {
		p.LikedBy[userID] = true
	}
}

func (s *Server) writePage(c *gin.Context, posts []*post, viewerID string) {
	page, size := pagination(c, "pageSize")
	views := make([]postView, 0, size)
	for _, p := range paginate(posts, page, size) {
		views = append(views, s.postView(p, viewerID))
	}
	success(c, http.StatusOK, "", gin.H{
		"posts":    views,
		"total":    len(posts),
		"page":     page,
		"pageSize": size,
	})
}

func (s *Server) getFeed(c *gin.Context) {
	viewer := c.GetString("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.writePage(c, s.sortedPosts(nil), viewer)
}

func (s *Server) getSaved(c *gin.Context) {
	viewer := c.GetString("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.writePage(c, s.sortedPosts(func(p *post) bool { return p.SavedBy[viewer] }), viewer)
}

func (s *Server) createPost(c *gin.Context) {
	viewer := c.GetString("user_id")
	content := strings.TrimSpace(c.PostForm("content"))

	var images []string
	if form, err := c.MultipartForm(); err == nil {
		for _, fh := range form.File["images"] {
			f, err := fh.Open()
			if err != nil {
				abortError(c, http.StatusBadRequest, "Could not read image")
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				abortError(c, http.StatusBadRequest, "Could not read image")
				return
			}
			if !strings.HasPrefix(mimetype.Detect(data).String(), "image/") {
				abortFields(c, map[string]string{"images": "Only image files are allowed"})
				return
			}
			images = append(images, "/uploads/"+uuid.NewString()+"-"+fh.Filename)
		}
	}

	if content == "" && len(images) == 0 {
		abortFields(c, map[string]string{"content": "Post content or an image is required"})
		return
	}
	if len(content) > maxContentLength {
		abortFields(c, map[string]string{"content": "Post content is too long"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.addPostLocked(viewer, content, images, s.now())
	s.publishOthers(viewer, live.MessageTypeNewPost, live.PostEvent{PostID: p.ID, AuthorID: p.AuthorID})
	success(c, http.StatusCreated, "Post created successfully", gin.H{"post": s.postView(p, viewer)})
}

// lookupPost aborts with 404 when the post is missing; callers hold s.mu
func (s *Server) lookupPost(c *gin.Context) *post {
	p, ok := s.posts[c.Param("id")]
	if !ok {
		abortError(c, http.StatusNotFound, "Post not found")
		return nil
	}
	return p
}

func (s *Server) getPost(c *gin.Context) {
	viewer := c.GetString("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if p := s.lookupPost(c); p != nil {
		success(c, http.StatusOK, "", gin.H{"post": s.postView(p, viewer)})
	}
}

func (s *Server) likePost(c *gin.Context) {
	viewer := c.GetString("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.lookupPost(c)
	if p == nil {
		return
	}
	if p.LikedBy[viewer] {
		abortError(c, http.StatusBadRequest, "Post already liked")
		return
	}
	p.LikedBy[viewer] = true
	s.publishLikes(p)
	success(c, http.StatusOK, "Post liked", gin.H{"likesCount": len(p.LikedBy)})
}

func (s *Server) unlikePost(c *gin.Context) {
	viewer := c.GetString("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.lookupPost(c)
	if p == nil {
		return
	}
	if !p.LikedBy[viewer] {
		abortError(c, http.StatusBadRequest, "Post not liked yet")
		return
	}
	delete(p.LikedBy, viewer)
	s.publishLikes(p)
	success(c, http.StatusOK, "Post unliked", gin.H{"likesCount": len(p.LikedBy)})
}

func (s *Server) savePost(c *gin.Context) {
	viewer := c.GetString("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.lookupPost(c)
	if p == nil {
		return
	}
	if p.SavedBy[viewer] {
		abortError(c, http.StatusBadRequest, "Post already saved")
		return
	}
	p.SavedBy[viewer] = true
	success(c, http.StatusOK, "Post saved", nil)
}

func (s *Server) unsavePost(c *gin.Context) {
	viewer := c.GetString("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.lookupPost(c)
	if p == nil {
		return
	}
	if !p.SavedBy[viewer] {
		abortError(c, http.StatusBadRequest, "Post not saved")
		return
	}
	delete(p.SavedBy, viewer)
	success(c, http.StatusOK, "Post unsaved", nil)
}

func (s *Server) getComments(c *gin.Context) {
	page, limit := pagination(c, "limit")

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.lookupPost(c)
	if p == nil {
		return
	}

	var list []*comment
	for _, cm := range s.comments {
		if cm.PostID == p.ID {
			list = append(list, cm)
		}
	}
	sortComments(list)

	views := make([]commentView, 0, limit)
	for _, cm := range paginate(list, page, limit) {
		views = append(views, s.commentView(cm))
	}
	success(c, http.StatusOK, "", gin.H{"comments": views, "total": len(list), "page": page})
}

func bindContent(c *gin.Context) (string, bool) {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "Invalid request body")
		return "", false
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		abortFields(c, map[string]string{"content": "Comment content is required"})
		return "", false
	}
	if len(content) > maxContentLength {
		abortFields(c, map[string]string{"content": "Comment is too long"})
		return "", false
	}
	return content, true
}

func (s *Server) addComment(c *gin.Context) {
	viewer := c.GetString("user_id")
	content, ok := bindContent(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.lookupPost(c)
	if p == nil {
		return
	}

	now := s.now()
	cm := &comment{ID: uuid.NewString(), PostID: p.ID, AuthorID: viewer, Content: content, CreatedAt: now, UpdatedAt: now}
	s.comments[cm.ID] = cm
	s.publishComments(p.ID)
	success(c, http.StatusCreated, "Comment added", gin.H{"comment": s.commentView(cm), "commentCount": s.commentCount(p.ID)})
}

// lookupOwnComment aborts with 404/403 unless viewer wrote the comment; callers hold s.mu
func (s *Server) lookupOwnComment(c *gin.Context, viewer string) *comment {
	cm, ok := s.comments[c.Param("commentId")]
	if !ok {
		abortError(c, http.StatusNotFound, "Comment not found")
		return nil
	}
	if cm.AuthorID != viewer {
		abortError(c, http.StatusForbidden, "You can only modify your own comments")
		return nil
	}
	return cm
}

func (s *Server) updateComment(c *gin.Context) {
	viewer := c.GetString("user_id")
	content, ok := bindContent(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cm := s.lookupOwnComment(c, viewer)
	if cm == nil {
		return
	}
	cm.Content = content
	cm.UpdatedAt = s.now()
	success(c, http.StatusOK, "Comment updated", gin.H{"comment": s.commentView(cm), "commentCount": s.commentCount(cm.PostID)})
}

func (s *Server) deleteComment(c *gin.Context) {
	viewer := c.GetString("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	cm := s.lookupOwnComment(c, viewer)
	if cm == nil {
		return
	}
	delete(s.comments, cm.ID)
	s.publishComments(cm.PostID)
	success(c, http.StatusOK, "Comment deleted", gin.H{"commentCount": s.commentCount(cm.PostID)})
}

func (s *Server) publishLikes(p *post) {
	n := len(p.LikedBy)
	s.publish(live.MessageTypeLikeCountUpdate, live.PostEvent{PostID: p.ID, LikeCount: &n})
}

func (s *Server) publishComments(postID string) {
	n := s.commentCount(postID)
	s.publish(live.MessageTypeCommentCountUpdate, live.PostEvent{PostID: postID, CommentCount: &n})
}
