package middleware // middleware provides shared request processing for handlers

import (
    "fmt"      // fmt builds the denial message
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context

    "github.com/iliyamo/equipment-control/internal/model"
)

// LoginPath is where anonymous callers are sent.
const LoginPath = "/login"

// Decision is the outcome of one authorization check.
type Decision struct {
    Authenticated bool   // a user is bound to the session
    Allowed       bool   // the user holds one of the required roles
    Role          string // the user's role, empty when anonymous
}

// Authorize checks the user bound to c against roles.  With no roles any
// authenticated user is allowed.
func Authorize(c echo.Context, roles ...string) Decision {
    u, ok := CurrentUser(c)
    if !ok {
        return Decision{}
    }
    d := Decision{Authenticated: true, Role: u.Role, Allowed: len(roles) == 0}
    for _, r := range roles {
        if u.Role == r {
            d.Allowed = true
            break
        }
    }
    return d
}

// RequireLogin redirects anonymous callers to the login page.
func RequireLogin() echo.MiddlewareFunc {
    return RequireRole()
}

// RequireRole returns a middleware that enforces that the session user has
// one of the specified roles.  Anonymous callers are redirected to the login
// page.  Authenticated callers without a matching role get 403 and a plain
// text message naming their role.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            d := Authorize(c, roles...)
            switch {
            case !d.Authenticated:
                return c.Redirect(http.StatusSeeOther, LoginPath)
            case !d.Allowed:
                return c.String(http.StatusForbidden, DenialMessage(d.Role))
            }
            return next(c)
        }
    }
}

// RequireAdmin is RequireRole restricted to administrators.
func RequireAdmin() echo.MiddlewareFunc {
    return RequireRole(model.RoleAdmin)
}

// DenialMessage is the body returned to authenticated callers lacking a role.
func DenialMessage(role string) string {
    return fmt.Sprintf("You do not have permission to access this page. Your current role is %s", role)
}
