package service

import (
    "context"
    "strings"
    "testing"
    "time"

    "github.com/google/uuid"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/iliyamo/equipment-control/internal/model"
    "github.com/iliyamo/equipment-control/internal/repository"
    "github.com/iliyamo/equipment-control/internal/utils"
)

// memUsers mirrors the role assignment of repository.UserRepo.Create.
type memUsers struct {
    byName map[string]model.User
}

func newMemUsers() *memUsers { return &memUsers{byName: map[string]model.User{}} }

func (m *memUsers) Create(_ context.Context, u *model.User) error {
    if _, ok := m.byName[u.Username]; ok {
        return repository.ErrDuplicateUsername
    }
    u.Role = model.RoleUser
    if len(m.byName) == 0 {
        u.Role = model.RoleAdmin
    }
    m.byName[u.Username] = *u
    return nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
    u, ok := m.byName[username]
    if !ok {
        return model.User{}, repository.ErrUserNotFound
    }
    return u, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (model.User, error) {
    for _, u := range m.byName {
        if u.ID == id {
            return u, nil
        }
    }
    return model.User{}, repository.ErrUserNotFound
}

func newAuth(users UserStore) *AuthService {
    return NewAuthService(users, "secret", time.Hour, 4, zap.NewNop())
}

func TestRegister_RolesAndDuplicates(t *testing.T) {
    users := newMemUsers()
    s := newAuth(users)
    ctx := context.Background()

    first, err := s.Register(ctx, "alice", "pw1")
    require.NoError(t, err)
    assert.Equal(t, model.RoleAdmin, first.Role)
    _, err = uuid.Parse(first.ID)
    assert.NoError(t, err)
    assert.NotEqual(t, "pw1", first.PasswordHash)

    second, err := s.Register(ctx, "bob", "pw2")
    require.NoError(t, err)
    assert.Equal(t, model.RoleUser, second.Role)

    _, err = s.Register(ctx, "alice", "other")
    assert.ErrorIs(t, err, repository.ErrDuplicateUsername)
    assert.Len(t, users.byName, 2)

    third, err := s.Register(ctx, "Alice", "pw3")
    require.NoError(t, err, "usernames are case-sensitive")
    assert.Equal(t, model.RoleUser, third.Role)
}

func TestRegister_Validation(t *testing.T) {
    s := newAuth(newMemUsers())
    ctx := context.Background()

    _, err := s.Register(ctx, "  ", "pw")
    assert.ErrorIs(t, err, ErrMissingCredentials)
    _, err = s.Register(ctx, "carol", "")
    assert.ErrorIs(t, err, ErrMissingCredentials)
    _, err = s.Register(ctx, "carol", strings.Repeat("x", 73))
    assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestAuthenticate(t *testing.T) {
    s := newAuth(newMemUsers())
    ctx := context.Background()
    _, err := s.Register(ctx, "alice", "correct horse")
    require.NoError(t, err)

    u, err := s.Authenticate(ctx, "alice", "correct horse")
    require.NoError(t, err)
    assert.Equal(t, "alice", u.Username)

    _, err = s.Authenticate(ctx, "alice", "wrong")
    assert.ErrorIs(t, err, ErrInvalidCredentials)
    _, err = s.Authenticate(ctx, "nobody", "correct horse")
    assert.ErrorIs(t, err, ErrInvalidCredentials)
    _, err = s.Authenticate(ctx, "", "")
    assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestResolveSession(t *testing.T) {
    users := newMemUsers()
    s := newAuth(users)
    ctx := context.Background()
    u, err := s.Register(ctx, "alice", "pw")
    require.NoError(t, err)

    tok, err := s.IssueSession(u)
    require.NoError(t, err)

    got, ok := s.ResolveSession(ctx, tok.Token)
    require.True(t, ok)
    assert.Equal(t, u.ID, got.ID)

    _, ok = s.ResolveSession(ctx, "garbage")
    assert.False(t, ok)

    orphan, err := utils.NewSessionToken("secret", uuid.NewString(), time.Hour)
    require.NoError(t, err)
    _, ok = s.ResolveSession(ctx, orphan.Token)
    assert.False(t, ok, "token for an unknown user resolves to anonymous")
}
