package store

import "github.com/aditya-makadiya/sociofeed/pkg/api"

// AuthState is the session slice
type AuthState struct {
	User *api.User `json:"user"`
	// Pending is an account that registered or activated but has not logged in
	Pending *api.User `json:"pending,omitempty"`
	Loading bool      `json:"loading"`
	Error   string    `json:"error,omitempty"`
}

// IsAuthenticated is true iff a session user is present
func (a AuthState) IsAuthenticated() bool {
	return a.User != nil
}

func (a AuthState) clone() AuthState {
	if a.User != nil {
		u := *a.User
		a.User = &u
	}
	if a.Pending != nil {
		u := *a.Pending
		a.Pending = &u
	}
	return a
}

// Auth actions

type AuthStarted struct{}

// AuthSucceeded authenticates User (login, refresh, current session, restore)
type AuthSucceeded struct {
	User *api.User
}

// AccountPending records a registered or activated account without authenticating
type AccountPending struct {
	User *api.User
}

// AuthCompleted ends a request that changes no session data
type AuthCompleted struct{}

type AuthFailed struct {
	Message string
}

// SessionCleared drops the session user (logout, refresh failure)
type SessionCleared struct{}

func reduceAuth(s *AuthState, a Action) {
	switch a := a.(type) {
	case AuthStarted:
		s.Loading = true
		s.Error = ""
	case AuthSucceeded:
		s.User = a.User
		s.Pending = nil
		s.Loading = false
		s.Error = ""
	case AccountPending:
		s.Pending = a.User
		s.Loading = false
		s.Error = ""
	case AuthCompleted:
		s.Loading = false
		s.Error = ""
	case AuthFailed:
		s.Loading = false
		s.Error = a.Message
	case SessionCleared:
		s.User = nil
		s.Loading = false
	case ProfileUpdated:
		// keep the session user in step with edits to the own profile
		if s.User != nil && a.Profile != nil && s.User.ID == a.Profile.ID {
			u := *s.User
			u.Username = a.Profile.Username
			u.Bio = a.Profile.Bio
			u.Avatar = a.Profile.Avatar
			s.User = &u
		}
	}
}
