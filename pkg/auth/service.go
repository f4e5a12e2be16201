// Package auth registers and logs in users and resolves bearer tokens to identities.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"finboard/models"
	"finboard/pkg/apperr"
	"finboard/pkg/store"
	"finboard/pkg/token"

	"github.com/go-playground/validator/v10"
)

// Messages returned to clients.
const (
	MsgNotAuthenticated   = "you are not authenticated, please log in"
	MsgInvalidToken       = "invalid or expired token"
	MsgUserGone           = "the user for this token no longer exists"
	MsgInvalidCredentials = "invalid email or password"
	MsgEmailTaken         = "a user with this email already exists"
)

// Tokens signs and verifies bearer tokens.
type Tokens interface {
	Sign(userID string) (string, error)
	Verify(raw string) (string, error)
}

var _ Tokens = (*token.Service)(nil)

// Service implements registration, login and token resolution.
type Service struct {
	users  store.Users
	tokens Tokens
}

func NewService(users store.Users, tokens Tokens) *Service {
	return &Service{users: users, tokens: tokens}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MaxNameLength bounds display names, in characters.
const MaxNameLength = 50

var emailCheck = validator.New()

// checkRegistration applies the account rules shared by the API and the
// operator CLIs. name and email must already be normalised.
func checkRegistration(name, email, password string) error {
	var fields []apperr.FieldError
	switch {
	case name == "":
		fields = append(fields, apperr.FieldError{Field: "name", Message: "name is required"})
	case utf8.RuneCountInString(name) > MaxNameLength:
		fields = append(fields, apperr.FieldError{Field: "name", Message: fmt.Sprintf("name cannot exceed %d characters", MaxNameLength)})
	}
	if email == "" {
		fields = append(fields, apperr.FieldError{Field: "email", Message: "email is required"})
	} else if emailCheck.Var(email, "email") != nil {
		fields = append(fields, apperr.FieldError{Field: "email", Message: "please provide a valid email"})
	}
	if len(password) < MinPasswordLength {
		fields = append(fields, apperr.FieldError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)})
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid input", fields...)
	}
	return nil
}

// Register creates a user and returns it with a fresh token. A taken email
// is a Conflict and no token is issued. The lookup catches duplicates on
// stores without a unique index; the index still settles concurrent signups.
func (s *Service) Register(ctx context.Context, name, email, password string) (*models.User, string, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if err := checkRegistration(name, email, password); err != nil {
		return nil, "", err
	}
	switch _, err := s.users.UserByEmail(ctx, email); {
	case err == nil:
		return nil, "", apperr.Conflict(MsgEmailTaken)
	case !errors.Is(err, store.ErrNotFound):
		return nil, "", apperr.Internal(fmt.Errorf("find user: %w", err))
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", apperr.Internal(err)
	}
	u := &models.User{
		ID:           models.NewID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, "", apperr.Conflict(MsgEmailTaken)
		}
		return nil, "", apperr.Internal(fmt.Errorf("create user: %w", err))
	}
	tok, err := s.tokens.Sign(u.ID)
	if err != nil {
		return nil, "", apperr.Internal(err)
	}
	return u, tok, nil
}

// Login checks credentials. Unknown email and wrong password fail the same way.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	u, err := s.users.UserByEmail(ctx, NormalizeEmail(email))
	switch {
	case errors.Is(err, store.ErrNotFound):
		CheckPassword(dummyHash, password)
		return nil, "", apperr.Unauthenticated(MsgInvalidCredentials)
	case err != nil:
		return nil, "", apperr.Internal(fmt.Errorf("find user: %w", err))
	}
	if !CheckPassword(u.PasswordHash, password) {
		return nil, "", apperr.Unauthenticated(MsgInvalidCredentials)
	}
	tok, err := s.tokens.Sign(u.ID)
	if err != nil {
		return nil, "", apperr.Internal(err)
	}
	return u, tok, nil
}

// SetPassword replaces the password of the user with the given email.
func (s *Service) SetPassword(ctx context.Context, email, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return apperr.Validation(err.Error())
	}
	u, err := s.users.UserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("user not found")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.users.SetPasswordHash(ctx, u.ID, hash); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
