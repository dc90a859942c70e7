package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context" // context bounds the user lookup
    "time"    // time sets the lookup timeout

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/equipment-control/internal/model"
)

// SessionCookie is the name of the cookie carrying the signed session token.
const SessionCookie = "session"

// userKey is the echo.Context key under which the resolved user is stored.
const userKey = "user"

// SessionResolver turns a raw session token into a user.  The boolean is
// false for every token that does not resolve, whatever the reason.
type SessionResolver interface {
    ResolveSession(ctx context.Context, raw string) (model.User, bool)
}

// Session returns a middleware that resolves the session cookie, if any, to
// a user and stores it in the context.  It never rejects a request: a
// missing, malformed, expired or orphaned token simply leaves the request
// anonymous and the authorization middleware decides what happens next.
func Session(resolver SessionResolver) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ck, err := c.Cookie(SessionCookie)
            if err != nil || ck.Value == "" {
                return next(c)
            }
            ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
            u, ok := resolver.ResolveSession(ctx, ck.Value)
            cancel()
            if ok {
                c.Set(userKey, u)
            }
            return next(c)
        }
    }
}

// CurrentUser returns the user resolved by Session, if any.
func CurrentUser(c echo.Context) (model.User, bool) {
    u, ok := c.Get(userKey).(model.User)
    return u, ok
}
