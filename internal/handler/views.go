package handler

import (
    "context"
    "net/http"
    "net/url"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
)

// ViewHandler serves the pages every signed-in user can see.
type ViewHandler struct {
    pages
}

func NewViewHandler(equipment EquipmentStore, log *zap.Logger) *ViewHandler {
    if equipment == nil {
        panic("nil repository passed to NewViewHandler")
    }
    return &ViewHandler{pages: pages{equipment: equipment, log: log}}
}

// Home sends visitors to the dashboard.
func (h *ViewHandler) Home(c echo.Context) error {
    return c.Redirect(http.StatusFound, "/dashboard")
}

// Dashboard lists the buildings.  The list itself comes from the layout data.
func (h *ViewHandler) Dashboard(c echo.Context) error {
    return h.render(c, http.StatusOK, "dashboard", nil)
}

// Building lists the equipment installed in one building.  Unknown
// buildings render an empty list.
func (h *ViewHandler) Building(c echo.Context) error {
    building := c.Param("building")
    // Echo routes on RawPath when the request carries one (an escaped "/"
    // for instance) and leaves its params escaped.  Otherwise the param is
    // already decoded and must not be unescaped again.
    if c.Request().URL.RawPath != "" {
        b, err := url.PathUnescape(building)
        if err != nil {
            return echo.ErrNotFound
        }
        building = b
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    items, err := h.equipment.ListByBuilding(ctx, building)
    if err != nil {
        h.log.Error("list equipment failed", zap.String("building", building), zap.Error(err))
        return echo.NewHTTPError(http.StatusInternalServerError, "could not load equipment")
    }
    return h.render(c, http.StatusOK, "building_detail", echo.Map{
        "Building":      building,
        "EquipmentList": items,
    })
}

// Buildings returns the sorted distinct building names as JSON.
func (h *ViewHandler) Buildings(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    list, err := h.equipment.Buildings(ctx)
    if err != nil {
        h.log.Error("list buildings failed", zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load buildings"})
    }
    if list == nil {
        list = []string{}
    }
    return c.JSON(http.StatusOK, echo.Map{"buildings": list})
}
