package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/equipment-control/internal/middleware"
    "github.com/iliyamo/equipment-control/internal/model"
)

// EquipmentStore is the equipment persistence used by the page handlers.
type EquipmentStore interface {
    Create(ctx context.Context, e *model.Equipment) error
    GetByID(ctx context.Context, id uint64) (*model.Equipment, error)
    Update(ctx context.Context, e *model.Equipment) error
    ListAll(ctx context.Context) ([]*model.Equipment, error)
    ListByBuilding(ctx context.Context, building string) ([]*model.Equipment, error)
    Buildings(ctx context.Context) ([]string, error)
}

// IRCommandStore is the IR command persistence used by the admin pages.
type IRCommandStore interface {
    Create(ctx context.Context, c *model.IRCommand) error
    GetByID(ctx context.Context, id uint64) (*model.IRCommand, error)
    Update(ctx context.Context, c *model.IRCommand) error
    ListAll(ctx context.Context) ([]*model.IRCommand, error)
}

// MsgRequiredFields is flashed when a form is submitted with a blank
// required field.
const MsgRequiredFields = "Please fill in all the required fields."

// dbTimeout bounds every database call made while serving a page.
const dbTimeout = 5 * time.Second

// pages renders templates with the data every page needs: the session user,
// the building list for the navigation bar and pending flash messages.
type pages struct {
    equipment EquipmentStore
    log       *zap.Logger
}

func (p pages) render(c echo.Context, status int, name string, data echo.Map) error {
    if data == nil {
        data = echo.Map{}
    }
    data["Flashes"] = popFlashes(c)
    if u, ok := middleware.CurrentUser(c); ok {
        data["User"] = u
        data["IsAdmin"] = u.IsAdmin()
        ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
        defer cancel()
        buildings, err := p.equipment.Buildings(ctx)
        if err != nil {
            p.log.Warn("load buildings failed", zap.Error(err))
        }
        data["Buildings"] = buildings
    }
    return c.Render(status, name, data)
}

// back flashes msg and redirects to the form the request came from.
func back(c echo.Context, msg string) error {
    addFlash(c, FlashDanger, msg)
    return c.Redirect(http.StatusSeeOther, c.Request().URL.Path)
}

// NotFound renders the 404 page.
func (p pages) NotFound(c echo.Context) error {
    return p.render(c, http.StatusNotFound, "404", nil)
}
