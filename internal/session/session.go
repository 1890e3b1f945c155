// Package session holds the signed-in identity for one request, together with
// the password and token primitives used to establish it.
package session

import (
	"context"

	"github.com/arawak/devboard/internal/store"
)

type contextKey struct{}

// Session is resolved once per request and passed down through the context.
type Session struct {
	UserID      string     `json:"userId"`
	Email       string     `json:"email"`
	Role        store.Role `json:"role"`
	DisplayName string     `json:"displayName"`
	AvatarURL   string     `json:"avatarUrl,omitempty"`
	// Source is "token" or "apikey".
	Source string `json:"-"`
}

// FromProfile builds a session from the user's profile row.
func FromProfile(p *store.Profile, source string) *Session {
	return &Session{
		UserID:      p.UserID,
		Email:       p.Email,
		Role:        p.Role,
		DisplayName: p.DisplayName(),
		AvatarURL:   p.AvatarURL,
		Source:      source,
	}
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}

func (s *Session) Is(role store.Role) bool {
	return s != nil && s.Role == role
}
