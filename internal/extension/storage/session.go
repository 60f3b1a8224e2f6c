package storage

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/heysagnik/chikki/internal/extension/protocol"
)

// Session is a logged-in identity. It exists only when both the token and the
// user are stored.
type Session struct {
	Token string
	User  protocol.User
}

// LoadSession returns the stored session, or ok=false when either half is
// missing or unreadable.
func LoadSession(ctx context.Context, s Store) (Session, bool, error) {
	items, err := s.Get(ctx, KeyAuthToken, KeyUser)
	if err != nil {
		return Session{}, false, err
	}
	rawToken, hasToken := items[KeyAuthToken]
	rawUser, hasUser := items[KeyUser]
	if !hasToken || !hasUser {
		return Session{}, false, nil
	}

	var sess Session
	if err := sonic.Unmarshal(rawToken, &sess.Token); err != nil || sess.Token == "" {
		return Session{}, false, nil
	}
	if err := sonic.Unmarshal(rawUser, &sess.User); err != nil {
		return Session{}, false, nil
	}
	return sess, true, nil
}

// LoadToken returns the stored token regardless of the user entry.
func LoadToken(ctx context.Context, s Store) (string, error) {
	items, err := s.Get(ctx, KeyAuthToken)
	if err != nil {
		return "", err
	}
	raw, ok := items[KeyAuthToken]
	if !ok {
		return "", nil
	}
	var token string
	if err := sonic.Unmarshal(raw, &token); err != nil {
		return "", nil
	}
	return token, nil
}

// SaveSession writes token and user in a single commit.
func SaveSession(ctx context.Context, s Store, token string, user protocol.User) error {
	rawToken, err := sonic.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	rawUser, err := sonic.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.Set(ctx, map[string][]byte{
		KeyAuthToken: rawToken,
		KeyUser:      rawUser,
	})
}

// SaveUser refreshes the stored profile.
func SaveUser(ctx context.Context, s Store, user protocol.User) error {
	raw, err := sonic.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.Set(ctx, map[string][]byte{KeyUser: raw})
}

// ClearSession removes both halves of the session.
func ClearSession(ctx context.Context, s Store) error {
	return s.Remove(ctx, KeyAuthToken, KeyUser)
}
