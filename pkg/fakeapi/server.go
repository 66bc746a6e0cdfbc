// Package fakeapi is an in-memory implementation of the social API used by
// tests and by the mock-api command for local development.
package fakeapi

import (
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

type user struct {
	ID              string
	Username        string
	Email           string
	PasswordHash    []byte
	Bio             string
	Avatar          string
	IsActive        bool
	ActivationToken string
	ResetToken      string
	CreatedAt       time.Time
}

type post struct {
	ID        string
	AuthorID  string
	Content   string
	Images    []string
	CreatedAt time.Time
	LikedBy   map[string]bool
	SavedBy   map[string]bool
}

type comment struct {
	ID        string
	PostID    string
	AuthorID  string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type failure struct {
	status  int
	message string
	fields  map[string]string
}

// Server holds the in-memory state behind the HTTP handlers
type Server struct {
	mu sync.Mutex

	users    map[string]*user
	posts    map[string]*post
	comments map[string]*comment
	follows  map[string]map[string]bool // follower -> followee

	accessTokens  map[string]string // token -> user id
	refreshTokens map[string]string

	failRefresh bool
	failures    map[string][]failure
	latency     map[string]time.Duration
	calls       map[string]int

	hub    *hub
	now    func() time.Time
	engine *gin.Engine
}

// New creates an empty server
func New() *Server {
	s := &Server{
		users:         make(map[string]*user),
		posts:         make(map[string]*post),
		comments:      make(map[string]*comment),
		follows:       make(map[string]map[string]bool),
		accessTokens:  make(map[string]string),
		refreshTokens: make(map[string]string),
		failures:      make(map[string][]failure),
		latency:       make(map[string]time.Duration),
		calls:         make(map[string]int),
		hub:           newHub(),
		now:           time.Now,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.instrument())

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", s.register)
		authGroup.POST("/login", s.login)
		authGroup.GET("/activate/:token", s.activate)
		authGroup.POST("/forgot-password", s.forgotPassword)
		authGroup.POST("/reset-password/:token", s.resetPassword)
		authGroup.POST("/resend-activation", s.resendActivation)
		authGroup.GET("/refresh-token", s.refreshToken)
		authGroup.POST("/logout", s.logout)
		authGroup.GET("/getMe", s.requireAuth(), s.getMe)
	}

	posts := r.Group("/posts", s.requireAuth())
	{
		posts.GET("/feed", s.getFeed)
		posts.GET("/saved", s.getSaved)
		posts.POST("", s.createPost)
		posts.GET("/:id", s.getPost)
		posts.POST("/:id/like", s.likePost)
		posts.DELETE("/:id/unlike", s.unlikePost)
		posts.POST("/:id/save", s.savePost)
		posts.DELETE("/:id/unsave", s.unsavePost)
		posts.GET("/:id/comments", s.getComments)
		posts.POST("/:id/comments", s.addComment)
		posts.PUT("/comments/:commentId", s.updateComment)
		posts.DELETE("/comments/:commentId", s.deleteComment)
	}

	r.GET("/events", s.requireAuth(), s.events)

	users := r.Group("/users", s.requireAuth())
	{
		users.GET("", s.searchUsers)
		users.GET("/:id", s.getProfile)
		users.GET("/:id/posts", s.getUserPosts)
		users.GET("/:id/followers", s.getFollowers)
		users.GET("/:id/following", s.getFollowing)
		users.POST("/:id/follow", s.follow)
		users.DELETE("/:id/follow", s.unfollow)
		users.PATCH("/:id", s.updateProfile)
		users.PATCH("/:id/avatar", s.updateAvatar)
		users.DELETE("/:id/avatar", s.resetAvatar)
	}

	return r
}

// routeKey identifies a route as "METHOD /path/:param"
func routeKey(c *gin.Context) string {
	return c.Request.Method + " " + c.FullPath()
}

// instrument counts calls, applies configured latency and injected failures
func (s *Server) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := routeKey(c)

		s.mu.Lock()
		s.calls[key]++
		delay := s.latency[key]
		var injected *failure
		if queue := s.failures[key]; len(queue) > 0 {
			f := queue[0]
			injected = &f
			s.failures[key] = queue[1:]
		}
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-c.Request.Context().Done():
				c.Abort()
				return
			}
		}

		if injected != nil {
			if len(injected.fields) > 0 {
				c.AbortWithStatusJSON(injected.status, gin.H{"status": "error", "message": injected.message, "errors": injected.fields})
				return
			}
			if injected.message == "" {
				c.AbortWithStatus(injected.status)
				return
			}
			c.AbortWithStatusJSON(injected.status, gin.H{"status": "error", "message": injected.message})
			return
		}

		c.Next()
	}
}

// FailNext makes the next call to route ("POST /posts/:id/like") fail
func (s *Server) FailNext(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], failure{status: status, message: message})
}

// FailNextWithFields makes the next call to route fail with a field error map
func (s *Server) FailNextWithFields(route string, fields map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], failure{status: http.StatusBadRequest, fields: fields})
}

// SetLatency delays every call to route
func (s *Server) SetLatency(route string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency[route] = d
}

// Calls returns how many requests reached route
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// ExpireAccessTokens invalidates every access cookie; refresh cookies stay valid
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessTokens = make(map[string]string)
}

// SetFailRefresh makes refresh-token calls fail with 401
func (s *Server) SetFailRefresh(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = fail
}

// requireAuth resolves the access cookie to a user id
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(accessCookie)
		if err != nil || token == "" {
			abortError(c, http.StatusUnauthorized, "Not authorized, no token")
			return
		}

		s.mu.Lock()
		userID, ok := s.accessTokens[token]
		s.mu.Unlock()
		if !ok {
			abortError(c, http.StatusUnauthorized, "Not authorized, token expired")
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

func (s *Server) issueSession(c *gin.Context, userID string) {
	access := uuid.NewString()
	refresh := uuid.NewString()
	s.accessTokens[access] = userID
	s.refreshTokens[refresh] = userID
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessCookie, access, 15*60, "/", "", false, true)
	c.SetCookie(refreshCookie, refresh, 7*24*60*60, "/", "", false, true)
}

func success(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"status": "success"}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func abortError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"status": "error", "message": message})
}

func abortFields(c *gin.Context, fields map[string]string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Validation failed", "errors": fields})
}

// pagination reads page/pageSize (or limit) with sane bounds
func pagination(c *gin.Context, sizeParam string) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery(sizeParam, "10"))
	if err != nil || size < 1 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

func paginate[T any](items []T, page, size int) []T {
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// sortedPosts returns posts matching keep, newest first
func (s *Server) sortedPosts(keep func(*post) bool) []*post {
	out := make([]*post, 0, len(s.posts))
	for _, p := range s.posts {
		if keep == nil || keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
