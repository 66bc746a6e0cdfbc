package fakeapi

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]{3,50}$`)

type userView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
	Bio      string `json:"bio"`
	IsActive bool   `json:"isActive"`
}

func (u *user) view() userView {
	return userView{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Avatar:   u.Avatar,
		Bio:      u.Bio,
		IsActive: u.IsActive,
	}
}

// findByIdentifier matches a username or email, case-insensitively
func (s *Server) findByIdentifier(identifier string) *user {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	for _, u := range s.users {
		if strings.ToLower(u.Username) == identifier || strings.ToLower(u.Email) == identifier {
			return u
		}
	}
	return nil
}

func (s *Server) usernameTaken(username, exceptID string) bool {
	for _, u := range s.users {
		if u.ID != exceptID && strings.EqualFold(u.Username, username) {
			return true
		}
	}
	return false
}

// AddUser creates a user directly and returns its id
func (s *Server) AddUser(username, email, password string, active bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, email, password, active).ID
}

func (s *Server) addUserLocked(username, email, password string, active bool) *user {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &user{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     active,
		CreatedAt:    s.now(),
	}
	if !active {
		u.ActivationToken = uuid.NewString()
	}
	s.users[u.ID] = u
	return u
}

// ActivationToken returns the pending activation token for an email
func (s *Server) ActivationToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.findByIdentifier(email); u != nil {
		return u.ActivationToken
	}
	return ""
}

// ResetToken returns the pending password reset token for an email
func (s *Server) ResetToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.findByIdentifier(email); u != nil {
		return u.ResetToken
	}
	return ""
}

func (s *Server) register(c *gin.Context) {
	var req struct {
		Username        string `json:"username"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	fields := map[string]string{}
	if !usernamePattern.MatchString(req.Username) {
		fields["username"] = "Username must be 3-50 alphanumeric characters"
	}
	if !strings.Contains(req.Email, "@") {
		fields["email"] = "Invalid email address"
	}
	if len(req.Password) < 8 {
		fields["password"] = "Password must be at least 8 characters"
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		fields["confirmPassword"] = "Passwords must match"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.usernameTaken(req.Username, "") {
		fields["username"] = "Username already taken"
	}
	if s.findByIdentifier(req.Email) != nil {
		fields["email"] = "Email already registered"
	}
	if len(fields) > 0 {
		abortFields(c, fields)
		return
	}

	u := s.addUserLocked(req.Username, req.Email, req.Password, false)
	success(c, http.StatusCreated, "Registration successful. Please check your email to activate your account.", gin.H{"user": u.view()})
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Identifier == "" || req.Password == "" {
		abortError(c, http.StatusBadRequest, "Identifier and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findByIdentifier(req.Identifier)
	if u == nil || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)) != nil {
		abortError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !u.IsActive {
		abortError(c, http.StatusForbidden, "Please activate your account first")
		return
	}

	s.issueSession(c, u.ID)
	success(c, http.StatusOK, "Login successful", gin.H{"user": u.view()})
}

func (s *Server) activate(c *gin.Context) {
	token := c.Param("token")

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ActivationToken != "" && u.ActivationToken == token {
			u.IsActive = true
			u.ActivationToken = ""
			success(c, http.StatusOK, "Account activated successfully", gin.H{"user": u.view()})
			return
		}
	}
	abortError(c, http.StatusBadRequest, "Invalid or expired activation token")
}

func (s *Server) forgotPassword(c *gin.Context) {
	var req struct {
		Identifier string `json:"identifier"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Identifier == "" {
		abortFields(c, map[string]string{"identifier": "Email or username is required"})
		return
	}

	s.mu.Lock()
	if u := s.findByIdentifier(req.Identifier); u != nil {
		u.ResetToken = uuid.NewString()
	}
	s.mu.Unlock()

	success(c, http.StatusOK, "If the account exists, a reset link has been sent", nil)
}

func (s *Server) resetPassword(c *gin.Context) {
	token := c.Param("token")
	var req struct {
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Password) < 8 {
		abortFields(c, map[string]string{"password": "Password must be at least 8 characters"})
		return
	}
	if req.Password != req.ConfirmPassword {
		abortFields(c, map[string]string{"confirmPassword": "Passwords must match"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ResetToken != "" && u.ResetToken == token {
			hash, _ := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
			u.PasswordHash = hash
			u.ResetToken = ""
			success(c, http.StatusOK, "Password reset successful", nil)
			return
		}
	}
	abortError(c, http.StatusBadRequest, "Invalid or expired reset token")
}

func (s *Server) resendActivation(c *gin.Context) {
	var req struct {
		Identifier string `json:"identifier"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Identifier == "" {
		abortFields(c, map[string]string{"identifier": "Email or username is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findByIdentifier(req.Identifier)
	if u == nil {
		abortError(c, http.StatusNotFound, "User not found")
		return
	}
	if u.IsActive {
		abortError(c, http.StatusBadRequest, "Account is already active")
		return
	}
	u.ActivationToken = uuid.NewString()
	success(c, http.StatusOK, "Activation email sent", nil)
}

func (s *Server) refreshToken(c *gin.Context) {
	token, _ := c.Cookie(refreshCookie)

	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.refreshTokens[token]
	if s.failRefresh || !ok {
		abortError(c, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	delete(s.refreshTokens, token)
	s.issueSession(c, userID)
	success(c, http.StatusOK, "Token refreshed", gin.H{"user": s.users[userID].view()})
}

func (s *Server) logout(c *gin.Context) {
	access, _ := c.Cookie(accessCookie)
	refresh, _ := c.Cookie(refreshCookie)

	s.mu.Lock()
	delete(s.accessTokens, access)
	delete(s.refreshTokens, refresh)
	s.mu.Unlock()

	c.SetCookie(accessCookie, "", -1, "/", "", false, true)
	c.SetCookie(refreshCookie, "", -1, "/", "", false, true)
	success(c, http.StatusOK, "Logged out successfully", nil)
}

func (s *Server) getMe(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[c.GetString("user_id")]
	if !ok {
		abortError(c, http.StatusNotFound, "User not found")
		return
	}
	success(c, http.StatusOK, "", gin.H{"user": u.view()})
}
