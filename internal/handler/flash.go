package handler

import (
    "encoding/base64"
    "encoding/json"
    "net/http"

    "github.com/labstack/echo/v4"
)

const flashCookie = "flash"

// Flash categories understood by the layout.
const (
    FlashSuccess = "success"
    FlashDanger  = "danger"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
    Category string `json:"c"`
    Message  string `json:"m"`
}

// addFlash queues a message for the next page render.  Messages queued
// during the same request are kept in order.
func addFlash(c echo.Context, category, message string) {
    queued := readFlashes(c)
    queued = append(queued, Flash{Category: category, Message: message})
    raw, err := json.Marshal(queued)
    if err != nil {
        return
    }
    encoded := base64.RawURLEncoding.EncodeToString(raw)
    // the queued value must be visible to a later addFlash in this request
    c.Request().AddCookie(&http.Cookie{Name: flashCookie, Value: encoded})
    c.SetCookie(&http.Cookie{
        Name:     flashCookie,
        Value:    encoded,
        Path:     "/",
        MaxAge:   60,
        HttpOnly: true,
        SameSite: http.SameSiteLaxMode,
    })
}

// popFlashes returns the queued messages and clears the cookie.
func popFlashes(c echo.Context) []Flash {
    queued := readFlashes(c)
    if len(queued) > 0 {
        c.SetCookie(&http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
    }
    return queued
}

func readFlashes(c echo.Context) []Flash {
    var ck *http.Cookie
    // the last cookie wins so that flashes added in this request are seen
    for _, candidate := range c.Request().Cookies() {
        if candidate.Name == flashCookie {
            ck = candidate
        }
    }
    if ck == nil || ck.Value == "" {
        return nil
    }
    raw, err := base64.RawURLEncoding.DecodeString(ck.Value)
    if err != nil {
        return nil
    }
    var out []Flash
    if err := json.Unmarshal(raw, &out); err != nil {
        return nil
    }
    return out
}
