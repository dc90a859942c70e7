package utils // package utils provides helpers for session tokens and password hashing

import (
    "errors" // errors reports malformed subjects
    "time"   // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
    "github.com/google/uuid"       // uuid validates the subject claim
)

// ErrInvalidSession is returned for any token that cannot be resolved to a
// user id: bad signature, wrong algorithm, expired, or a subject that is not
// a UUID.
var ErrInvalidSession = errors.New("invalid session token")

// SessionToken is a signed session token together with its expiry.  It is
// carried in the session cookie.
type SessionToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// NewSessionToken builds and signs an HS256 JWT whose subject is the user
// id.  The role is deliberately not embedded: it is re-read from the users
// table on every request so role changes take effect immediately.
func NewSessionToken(secret, userID string, ttl time.Duration) (SessionToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := jwt.RegisteredClaims{
        Subject:   userID,
        IssuedAt:  jwt.NewNumericDate(now),
        ExpiresAt: jwt.NewNumericDate(exp),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, Exp: exp}, nil
}

// ParseSessionToken verifies raw and returns the user id it carries.  The
// subject must parse as a UUID; anything else is ErrInvalidSession.
func ParseSessionToken(secret, raw string) (uuid.UUID, error) {
    var claims jwt.RegisteredClaims
    tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidSession
        }
        return []byte(secret), nil
    }, jwt.WithExpirationRequired())
    if err != nil || !tok.Valid {
        return uuid.Nil, ErrInvalidSession
    }
    id, err := uuid.Parse(claims.Subject)
    if err != nil {
        return uuid.Nil, ErrInvalidSession
    }
    return id, nil
}
