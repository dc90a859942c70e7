package service

import (
    "context"
    "errors"
    "strings"
    "time"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "github.com/iliyamo/equipment-control/internal/model"
    "github.com/iliyamo/equipment-control/internal/repository"
    "github.com/iliyamo/equipment-control/internal/utils"
)

var (
    // ErrMissingCredentials is returned when username or password is empty.
    ErrMissingCredentials = errors.New("username and password are required")
    // ErrInvalidCredentials covers both unknown usernames and wrong passwords.
    ErrInvalidCredentials = errors.New("invalid username or password")
    // ErrPasswordTooLong is returned for passwords bcrypt would truncate.
    ErrPasswordTooLong = errors.New("password is too long")
)

// UserStore is the persistence used by AuthService.
type UserStore interface {
    Create(ctx context.Context, u *model.User) error
    GetByUsername(ctx context.Context, username string) (model.User, error)
    GetByID(ctx context.Context, id string) (model.User, error)
}

// AuthService registers users, checks passwords and issues and resolves
// session tokens.
type AuthService struct {
    users      UserStore
    secret     string
    sessionTTL time.Duration
    bcryptCost int
    log        *zap.Logger
}

func NewAuthService(users UserStore, secret string, sessionTTL time.Duration, bcryptCost int, log *zap.Logger) *AuthService {
    return &AuthService{users: users, secret: secret, sessionTTL: sessionTTL, bcryptCost: bcryptCost, log: log}
}

// Register creates a user.  Usernames are compared exactly, so "Alice" and
// "alice" are different users.  The first user ever registered becomes an
// admin.  A taken username yields repository.ErrDuplicateUsername.
func (s *AuthService) Register(ctx context.Context, username, password string) (model.User, error) {
    if strings.TrimSpace(username) == "" || password == "" {
        return model.User{}, ErrMissingCredentials
    }
    if len(password) > utils.MaxPasswordBytes {
        return model.User{}, ErrPasswordTooLong
    }
    hash, err := utils.HashPassword(password, s.bcryptCost)
    if err != nil {
        return model.User{}, err
    }
    u := model.User{ID: uuid.NewString(), Username: username, PasswordHash: hash}
    if err := s.users.Create(ctx, &u); err != nil {
        return model.User{}, err
    }
    s.log.Info("user registered", zap.String("user_id", u.ID), zap.String("role", u.Role))
    return u, nil
}

// Authenticate verifies a username and password pair.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (model.User, error) {
    if username == "" || password == "" {
        return model.User{}, ErrMissingCredentials
    }
    u, err := s.users.GetByUsername(ctx, username)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            utils.BurnCompare(password)
            return model.User{}, ErrInvalidCredentials
        }
        return model.User{}, err
    }
    if !utils.VerifyPassword(u.PasswordHash, password) {
        return model.User{}, ErrInvalidCredentials
    }
    return u, nil
}

// IssueSession signs a session token for u.
func (s *AuthService) IssueSession(u model.User) (utils.SessionToken, error) {
    return utils.NewSessionToken(s.secret, u.ID, s.sessionTTL)
}

// ResolveSession maps a raw session token to its user.  Any token that does
// not resolve (bad signature, expired, non-UUID subject, deleted user)
// yields false rather than an error.
func (s *AuthService) ResolveSession(ctx context.Context, raw string) (model.User, bool) {
    id, err := utils.ParseSessionToken(s.secret, raw)
    if err != nil {
        return model.User{}, false
    }
    u, err := s.users.GetByID(ctx, id.String())
    if err != nil {
        if !errors.Is(err, repository.ErrUserNotFound) {
            s.log.Warn("session user lookup failed", zap.Error(err))
        }
        return model.User{}, false
    }
    return u, true
}
