package handler

import (
    "context"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/equipment-control/internal/middleware"
    "github.com/iliyamo/equipment-control/internal/repository"
    "github.com/iliyamo/equipment-control/internal/service"
)

// Messages flashed by the authentication pages.
const (
    MsgDuplicateUsername = "Username already exists. Please choose a different one."
    MsgRegistered        = "Registration successful! You can now log in."
    MsgInvalidLogin      = "Invalid username or password. Please try again."
    MsgLoggedIn          = "Login successful!"
    MsgPasswordTooLong   = "Password must be at most 72 bytes long."
)

// AuthHandler serves registration, login and logout.
type AuthHandler struct {
    pages
    Auth         *service.AuthService
    SecureCookie bool
}

func NewAuthHandler(auth *service.AuthService, equipment EquipmentStore, secureCookie bool, log *zap.Logger) *AuthHandler {
    if auth == nil || equipment == nil {
        panic("nil dependency passed to NewAuthHandler")
    }
    return &AuthHandler{pages: pages{equipment: equipment, log: log}, Auth: auth, SecureCookie: secureCookie}
}

// RegisterForm renders the registration page.
func (h *AuthHandler) RegisterForm(c echo.Context) error {
    return h.render(c, http.StatusOK, "register", nil)
}

// Register creates an account and sends the user to the login page.
func (h *AuthHandler) Register(c echo.Context) error {
    username := c.FormValue("username")
    password := c.FormValue("password")

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    _, err := h.Auth.Register(ctx, username, password)
    switch {
    case err == nil:
        addFlash(c, FlashSuccess, MsgRegistered)
        return c.Redirect(http.StatusSeeOther, "/login")
    case errors.Is(err, service.ErrMissingCredentials):
        return back(c, MsgRequiredFields)
    case errors.Is(err, service.ErrPasswordTooLong):
        return back(c, MsgPasswordTooLong)
    case errors.Is(err, repository.ErrDuplicateUsername):
        return back(c, MsgDuplicateUsername)
    }
    h.log.Error("register failed", zap.Error(err))
    return echo.NewHTTPError(http.StatusInternalServerError, "registration failed")
}

// LoginForm renders the login page.
func (h *AuthHandler) LoginForm(c echo.Context) error {
    return h.render(c, http.StatusOK, "login", nil)
}

// Login checks the credentials and binds the user to a session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
    username := c.FormValue("username")
    password := c.FormValue("password")

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    u, err := h.Auth.Authenticate(ctx, username, password)
    switch {
    case errors.Is(err, service.ErrMissingCredentials):
        return back(c, MsgRequiredFields)
    case errors.Is(err, service.ErrInvalidCredentials):
        return back(c, MsgInvalidLogin)
    case err != nil:
        h.log.Error("login failed", zap.Error(err))
        return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
    }

    tok, err := h.Auth.IssueSession(u)
    if err != nil {
        h.log.Error("issue session failed", zap.Error(err))
        return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
    }
    c.SetCookie(&http.Cookie{
        Name:     middleware.SessionCookie,
        Value:    tok.Token,
        Path:     "/",
        Expires:  tok.Exp,
        HttpOnly: true,
        Secure:   h.SecureCookie,
        SameSite: http.SameSiteLaxMode,
    })
    addFlash(c, FlashSuccess, MsgLoggedIn)
    return c.Redirect(http.StatusSeeOther, "/")
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
    c.SetCookie(&http.Cookie{
        Name:     middleware.SessionCookie,
        Value:    "",
        Path:     "/",
        MaxAge:   -1,
        HttpOnly: true,
        Secure:   h.SecureCookie,
        SameSite: http.SameSiteLaxMode,
    })
    return c.Redirect(http.StatusSeeOther, "/")
}
