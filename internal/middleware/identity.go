package middleware

// identity.go names the caller for the request log.

import "github.com/labstack/echo/v4"

// currentUserID returns the id of the session user, or "anon" for anonymous
// requests such as the ESP dispatch endpoint.
func currentUserID(c echo.Context) string {
    if u, ok := CurrentUser(c); ok && u.ID != "" {
        return u.ID
    }
    return "anon"
}
