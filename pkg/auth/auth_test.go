package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"finboard/models"
	"finboard/pkg/apperr"
	"finboard/pkg/store"
	"finboard/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]*models.User
	email map[string]string
	// noUniqueEmail mimics a store whose unique email index was never created.
	noUniqueEmail bool
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*models.User{}, email: map[string]string{}}
}

func (m *memUsers) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.email[u.Email]; ok && !m.noUniqueEmail {
		return store.ErrDuplicate
	}
	cp := *u
	m.byID[u.ID] = &cp
	m.email[u.Email] = u.ID
	return nil
}

func (m *memUsers) UserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	id, ok := m.email[email]
	m.mu.Unlock()
	if !ok {
		return nil, store.ErrNotFound
	}
	return m.UserByID(ctx, id)
}

func (m *memUsers) SetPasswordHash(_ context.Context, id string, hash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *memUsers) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(m.email, u.Email)
	delete(m.byID, id)
	return nil
}

func newService() (*Service, *memUsers) {
	users := newMemUsers()
	return NewService(users, token.NewService("test-secret", time.Hour)), users
}

func TestRegisterNormalisesEmailAndIssuesToken(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	u, tok, err := svc.Register(ctx, "  Ana ", " Ana@Example.COM ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, "Ana", u.Name)
	assert.NotEqual(t, []byte("secret1"), u.PasswordHash)

	id, err := svc.Authenticate(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id.UserID)
	assert.Equal(t, "ana@example.com", id.User.Email)
}

func TestRegisterDuplicateIsConflictWithoutToken(t *testing.T) {
	svc, users := newService()
	ctx := context.Background()
	_, _, err := svc.Register(ctx, "Ana", "ana@example.com", "secret1")
	require.NoError(t, err)

	u, tok, err := svc.Register(ctx, "Other", "ANA@example.com", "secret2")
	assert.Nil(t, u)
	assert.Empty(t, tok)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Len(t, users.byID, 1)
}

func TestRegisterDuplicateWithoutUniqueIndex(t *testing.T) {
	svc, users := newService()
	users.noUniqueEmail = true
	ctx := context.Background()
	_, _, err := svc.Register(ctx, "Ana", "ana@example.com", "secret1")
	require.NoError(t, err)

	_, tok, err := svc.Register(ctx, "Ana again", " ana@EXAMPLE.com", "secret2")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Empty(t, tok)
	assert.Len(t, users.byID, 1)
}

func TestRegisterValidatesInput(t *testing.T) {
	svc, users := newService()
	ctx := context.Background()
	cases := []struct {
		name, email, password string
		field                 string
	}{
		{"   ", "ana@example.com", "secret1", "name"},
		{strings.Repeat("é", MaxNameLength+1), "ana@example.com", "secret1", "name"},
		{"Ana", "", "secret1", "email"},
		{"Ana", "not-an-email", "secret1", "email"},
		{"Ana", "ana@example.com", "12345", "password"},
	}
	for _, tc := range cases {
		_, _, err := svc.Register(ctx, tc.name, tc.email, tc.password)
		var ae *apperr.Error
		require.ErrorAs(t, err, &ae, tc)
		assert.Equal(t, apperr.KindValidation, ae.Kind)
		require.Len(t, ae.Fields, 1, tc)
		assert.Equal(t, tc.field, ae.Fields[0].Field)
	}
	assert.Empty(t, users.byID)

	_, _, err := svc.Register(ctx, strings.Repeat("é", MaxNameLength), "ana@example.com", "secret1")
	assert.NoError(t, err)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	_, _, err := svc.Register(ctx, "Ana", "ana@example.com", "secret1")
	require.NoError(t, err)

	_, _, wrongPass := svc.Login(ctx, "ana@example.com", "nope-nope")
	_, _, noUser := svc.Login(ctx, "ghost@example.com", "secret1")
	require.Error(t, wrongPass)
	require.Error(t, noUser)
	assert.Equal(t, wrongPass.Error(), noUser.Error())
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(wrongPass))

	u, tok, err := svc.Login(ctx, "ANA@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.Equal(t, "ana@example.com", u.Email)
}

func TestAuthenticateFailures(t *testing.T) {
	svc, users := newService()
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "")
	assert.Equal(t, MsgNotAuthenticated, apperr.From(err).Message)

	_, err = svc.Authenticate(ctx, "garbage")
	assert.Equal(t, MsgInvalidToken, apperr.From(err).Message)

	u, tok, err := svc.Register(ctx, "Ana", "ana@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, users.DeleteUser(ctx, u.ID))
	_, err = svc.Authenticate(ctx, tok)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
	assert.Equal(t, MsgUserGone, apperr.From(err).Message)
}

func TestSetPassword(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	_, _, err := svc.Register(ctx, "Ana", "ana@example.com", "secret1")
	require.NoError(t, err)

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(svc.SetPassword(ctx, "ana@example.com", "123")))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(svc.SetPassword(ctx, "ghost@example.com", "longenough")))

	require.NoError(t, svc.SetPassword(ctx, "ana@example.com", "brand-new"))
	_, _, err = svc.Login(ctx, "ana@example.com", "brand-new")
	assert.NoError(t, err)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", tok)

	_, ok = BearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = BearerToken("Bearer ")
	assert.False(t, ok)
}
