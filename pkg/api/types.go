package api

import "time"

// User is the authenticated session user
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
	Bio      string `json:"bio,omitempty"`
	IsActive bool   `json:"isActive"`
}

// Author is the denormalized owner of a post or comment
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// Post is a feed item
type Post struct {
	ID           string    `json:"id"`
	User         Author    `json:"user"`
	Content      string    `json:"content"`
	Images       []string  `json:"images"`
	LikeCount    int       `json:"likeCount"`
	CommentCount int       `json:"commentCount"`
	IsLiked      bool      `json:"isLiked"`
	IsSaved      bool      `json:"isSaved"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Comment belongs to a post
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	User      Author    `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Profile is the viewed user's public profile
type Profile struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Bio            string `json:"bio"`
	Avatar         string `json:"avatar"`
	FollowerCount  int    `json:"followerCount"`
	FollowingCount int    `json:"followingCount"`
	PostCount      int    `json:"postCount"`
	IsFollowing    bool   `json:"isFollowing"`
}

// UserSummary is a row in follower, following and search lists
type UserSummary struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Avatar      string `json:"avatar"`
	Bio         string `json:"bio,omitempty"`
	IsFollowing bool   `json:"isFollowing"`
}

// Request types

type RegisterRequest struct {
	Username        string `json:"username" validate:"required,alphanum,min=3,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Identifier string `json:"identifier" validate:"required"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type ResendActivationRequest struct {
	Identifier string `json:"identifier" validate:"required"`
}

type CommentRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

type UpdateProfileRequest struct {
	Username string `json:"username,omitempty" validate:"omitempty,alphanum,min=3,max=50"`
	Bio      string `json:"bio" validate:"max=160"`
}

// Upload is an in-memory file sent as a multipart part
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// CreatePostRequest is sent as multipart form data
type CreatePostRequest struct {
	Content string   `json:"content" validate:"max=1000"`
	Images  []Upload `json:"-"`
}

// Response payloads, decoded from the envelope's data field

type userPayload struct {
	User *User `json:"user"`
}

func (p *userPayload) validate() error {
	if p.User == nil {
		return errMissing("user")
	}
	return nil
}

type profilePayload struct {
	User *Profile `json:"user"`
}

func (p *profilePayload) validate() error {
	if p.User == nil {
		return errMissing("user")
	}
	return nil
}

type postPayload struct {
	Post *Post `json:"post"`
}

func (p *postPayload) validate() error {
	if p.Post == nil {
		return errMissing("post")
	}
	return nil
}

// PostPage is one page of posts
type PostPage struct {
	Posts    []Post `json:"posts"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

func (p *PostPage) validate() error {
	if p.Posts == nil {
		return errMissing("posts")
	}
	return nil
}

// UserPage is one page of user summaries
type UserPage struct {
	Users    []UserSummary `json:"users"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}

func (p *UserPage) validate() error {
	if p.Users == nil {
		return errMissing("users")
	}
	return nil
}

// CommentPage is one page of comments
type CommentPage struct {
	Comments []Comment `json:"comments"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
}

func (p *CommentPage) validate() error {
	if p.Comments == nil {
		return errMissing("comments")
	}
	return nil
}

// LikeResult is the authoritative like count after like/unlike
type LikeResult struct {
	LikesCount *int `json:"likesCount"`
}

func (p *LikeResult) validate() error {
	if p.LikesCount == nil {
		return errMissing("likesCount")
	}
	if *p.LikesCount < 0 {
		return errInvalid("likesCount")
	}
	return nil
}

// CommentResult is returned by comment create and update.
// CommentCount is nil when the server does not report it.
type CommentResult struct {
	Comment      *Comment `json:"comment"`
	CommentCount *int     `json:"commentCount"`
}

func (p *CommentResult) validate() error {
	if p.Comment == nil {
		return errMissing("comment")
	}
	return nil
}

// DeleteCommentResult is returned by comment delete
type DeleteCommentResult struct {
	CommentCount *int `json:"commentCount"`
}

// FollowResult is returned by follow and unfollow
type FollowResult struct {
	FollowerCount *int  `json:"followerCount"`
	IsFollowing   *bool `json:"isFollowing"`
}
