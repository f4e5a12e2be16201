package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finboard/models"
	"finboard/pkg/apperr"
	"finboard/pkg/store"
)

// Identity is the authenticated caller handed to every protected handler.
type Identity struct {
	UserID string
	User   *models.User
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}

// Authenticate verifies raw and loads the user it names.
func (s *Service) Authenticate(ctx context.Context, raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, apperr.Unauthenticated(MsgNotAuthenticated)
	}
	uid, err := s.tokens.Verify(raw)
	if err != nil {
		return Identity{}, apperr.Unauthenticated(MsgInvalidToken)
	}
	if !models.ValidID(uid) {
		return Identity{}, apperr.Unauthenticated(MsgInvalidToken)
	}
	u, err := s.users.UserByID(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return Identity{}, apperr.Unauthenticated(MsgUserGone)
	}
	if err != nil {
		return Identity{}, apperr.Internal(fmt.Errorf("load token user: %w", err))
	}
	return Identity{UserID: u.ID, User: u}, nil
}
