package fakeapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

// Demo account created by Seed
const (
	DemoUsername = "demo"
	DemoEmail    = "demo@example.com"
	DemoPassword = "Password1!"
)

// Seed fills the server with a demo account plus users, posts, comments,
// likes and follows generated by gofakeit
func (s *Server) Seed(users, posts int) {
	_ = gofakeit.Seed(time.Now().UnixNano())

	s.mu.Lock()
	defer s.mu.Unlock()

	demo := s.addUserLocked(DemoUsername, DemoEmail, DemoPassword, true)
	demo.Bio = "Just here to try things out"

	ids := []string{demo.ID}
	for i := 0; i < users; i++ {
		username := fakeUsername()
		for s.usernameTaken(username, "") {
			username = fakeUsername()
		}
		u := s.addUserLocked(username, strings.ToLower(username)+"@"+gofakeit.DomainName(), DemoPassword, true)
		u.Bio = truncate(gofakeit.HipsterSentence(), maxBioLength)
		ids = append(ids, u.ID)
	}

	now := s.now()
	for i := 0; i < posts; i++ {
		author := ids[gofakeit.Number(0, len(ids)-1)]
		createdAt := gofakeit.DateRange(now.AddDate(0, 0, -30), now)
		p := s.addPostLocked(author, gofakeit.HipsterSentence(), nil, createdAt)

		for _, id := range ids {
			if gofakeit.Number(0, 3) == 0 {
				p.LikedBy[id] = true
			}
		}
		for c := gofakeit.Number(0, 4); c > 0; c-- {
			at := gofakeit.DateRange(createdAt, now)
			cm := &comment{
				ID:        uuid.NewString(),
				PostID:    p.ID,
				AuthorID:  ids[gofakeit.Number(0, len(ids)-1)],
				Content:   gofakeit.HipsterSentence(),
				CreatedAt: at,
				UpdatedAt: at,
			}
			s.comments[cm.ID] = cm
		}
	}

	for _, follower := range ids {
		for _, followee := range ids {
			if follower != followee && gofakeit.Number(0, 2) == 0 {
				s.followLocked(follower, followee)
			}
		}
	}
}

// fakeUsername keeps only characters the register validator accepts
func fakeUsername() string {
	var b strings.Builder
	for _, r := range gofakeit.Username() {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if len(name) < 3 {
		name = fmt.Sprintf("%s%d", name, gofakeit.Number(100, 999))
	}
	return truncate(name, 50)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
