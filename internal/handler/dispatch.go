package handler

import (
    "bytes"
    "context"
    "encoding/json"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/equipment-control/internal/service"
)

// Dispatcher toggles one piece of equipment.
type Dispatcher interface {
    Dispatch(ctx context.Context, id uint64) service.Result
}

// flexID accepts an equipment id sent either as a JSON number or as a
// numeric string, which is what the browser sends from a data attribute.
// Anything else decodes to zero.
type flexID uint64

func (f *flexID) UnmarshalJSON(b []byte) error {
    s := strings.TrimSpace(string(bytes.Trim(b, `"`)))
    n, err := strconv.ParseUint(s, 10, 64)
    if err != nil {
        *f = 0
        return nil
    }
    *f = flexID(n)
    return nil
}

type dispatchReq struct {
    ID flexID `json:"id"`
}

// DispatchHandler serves POST /request_to_esp.
type DispatchHandler struct {
    Dispatcher Dispatcher
}

func NewDispatchHandler(d Dispatcher) *DispatchHandler {
    if d == nil {
        panic("nil dispatcher passed to NewDispatchHandler")
    }
    return &DispatchHandler{Dispatcher: d}
}

// RequestToESP relays the stored IR command for the posted equipment id.
// It always answers 200; the outcome is carried in the JSON status field.
func (h *DispatchHandler) RequestToESP(c echo.Context) error {
    var req dispatchReq
    if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil || req.ID == 0 {
        return c.JSON(http.StatusOK, service.Result{Status: service.StatusFailed, Message: service.MsgInvalidInput})
    }
    return c.JSON(http.StatusOK, h.Dispatcher.Dispatch(c.Request().Context(), uint64(req.ID)))
}
