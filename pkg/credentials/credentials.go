package credentials

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aditya-makadiya/sociofeed/pkg/api"
	"github.com/aditya-makadiya/sociofeed/pkg/config"
	json "github.com/json-iterator/go"
)

// Cookie is a persisted session cookie
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Session is the durable client state: the signed-in user and its cookies
type Session struct {
	User    *api.User `json:"user"`
	Cookies []Cookie  `json:"cookies"`
	SavedAt time.Time `json:"saved_at"`
}

// FromHTTP converts jar cookies for persistence
func FromHTTP(cookies []*http.Cookie) []Cookie {
	out := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// HTTPCookies converts persisted cookies back for the jar
func (s *Session) HTTPCookies() []*http.Cookie {
	out := make([]*http.Cookie, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// File stores the session as JSON at Path
type File struct {
	Path string
}

// Default returns the session file in the config directory
func Default() *File {
	return &File{Path: config.GetSessionPath()}
}

// Load loads the session from disk; a missing file is not an error
func (f *File) Load() (*Session, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Session doesn't exist yet
		}
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save saves the session to disk
func (f *File) Save(s *Session) error {
	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.Path), 0700); err != nil {
		return err
	}

	// Write with restricted permissions (owner read/write only)
	return os.WriteFile(f.Path, data, 0600)
}

// Clear deletes the session file
func (f *File) Clear() error {
	err := os.Remove(f.Path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
