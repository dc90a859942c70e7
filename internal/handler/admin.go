package handler

import (
    "bytes"
    "context"
    "errors"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/equipment-control/internal/config"
    "github.com/iliyamo/equipment-control/internal/middleware"
    "github.com/iliyamo/equipment-control/internal/model"
    "github.com/iliyamo/equipment-control/internal/repository"
    "github.com/iliyamo/equipment-control/internal/service"
)

// MsgDuplicateModel is flashed when an IR command model name is taken.
const MsgDuplicateModel = "Command with the same model already exists. Choose a different name."

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler serves the administration pages for equipment and IR commands.
type AdminHandler struct {
    pages
    Commands IRCommandStore
    Cache    config.CacheConfig
    Redis    *redis.Client // optional; cached responses are purged after equipment writes
}

func NewAdminHandler(equipment EquipmentStore, commands IRCommandStore, cache config.CacheConfig, rdb *redis.Client, log *zap.Logger) *AdminHandler {
    if equipment == nil || commands == nil {
        panic("nil repository passed to NewAdminHandler")
    }
    return &AdminHandler{
        pages:    pages{equipment: equipment, log: log},
        Commands: commands,
        Cache:    cache,
        Redis:    rdb,
    }
}

// parseID reads the numeric :id path parameter.
func parseID(c echo.Context) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}

// formValues returns the trimmed values of the named form fields and
// whether all of them are present.
func formValues(c echo.Context, names ...string) (map[string]string, bool) {
    out := make(map[string]string, len(names))
    complete := true
    for _, n := range names {
        v := strings.TrimSpace(c.FormValue(n))
        if v == "" {
            complete = false
        }
        out[n] = v
    }
    return out, complete
}

// Index lists all equipment and all IR commands.
func (h *AdminHandler) Index(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    items, err := h.equipment.ListAll(ctx)
    if err != nil {
        h.log.Error("list equipment failed", zap.Error(err))
        return echo.NewHTTPError(http.StatusInternalServerError, "could not load equipment")
    }
    cmds, err := h.Commands.ListAll(ctx)
    if err != nil {
        h.log.Error("list ir commands failed", zap.Error(err))
        return echo.NewHTTPError(http.StatusInternalServerError, "could not load ir commands")
    }
    return h.render(c, http.StatusOK, "admin", echo.Map{
        "EquipmentList": items,
        "IRCommands":    cmds,
    })
}

// ----- IR commands -----

func (h *AdminHandler) AddIRCommandForm(c echo.Context) error {
    return h.render(c, http.StatusOK, "ir_command_form", echo.Map{"Action": "/admin/add_ir_command"})
}

// AddIRCommand creates a command.  Spaces are stripped from both payloads.
func (h *AdminHandler) AddIRCommand(c echo.Context) error {
    f, ok := formValues(c, "model", "raw_on", "raw_off")
    if !ok {
        return back(c, MsgRequiredFields)
    }
    cmd := &model.IRCommand{
        Model:  f["model"],
        RawOn:  model.StripSpaces(f["raw_on"]),
        RawOff: model.StripSpaces(f["raw_off"]),
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if err := h.Commands.Create(ctx, cmd); err != nil {
        if errors.Is(err, repository.ErrDuplicateModel) {
            return back(c, MsgDuplicateModel)
        }
        h.log.Error("create ir command failed", zap.Error(err))
        return echo.NewHTTPError(http.StatusInternalServerError, "could not save ir command")
    }
    h.log.Info("ir command created", zap.Uint64("id", cmd.ID), zap.String("model", cmd.Model))
    return c.Redirect(http.StatusSeeOther, "/admin")
}

func (h *AdminHandler) loadIRCommand(c echo.Context) (*model.IRCommand, error) {
    id, ok := parseID(c)
    if !ok {
        return nil, echo.ErrNotFound
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()
    cmd, err := h.Commands.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrIRCommandNotFound) {
            return nil, echo.ErrNotFound
        }
        h.log.Error("load ir command failed", zap.Uint64("id", id), zap.Error(err))
        return nil, echo.NewHTTPError(http.StatusInternalServerError, "could not load ir command")
    }
    return cmd, nil
}

func (h *AdminHandler) EditIRCommandForm(c echo.Context) error {
    cmd, err := h.loadIRCommand(c)
    if err != nil {
        return err
    }
    return h.render(c, http.StatusOK, "ir_command_form", echo.Map{
        "Action":    c.Request().URL.Path,
        "IRCommand": cmd,
    })
}

// EditIRCommand overwrites a command.  Renaming onto an existing model is
// rejected like a duplicate create.
func (h *AdminHandler) EditIRCommand(c echo.Context) error {
    cmd, err := h.loadIRCommand(c)
    if err != nil {
        return err
    }
    f, ok := formValues(c, "model", "raw_on", "raw_off")
    if !ok {
        return back(c, MsgRequiredFields)
    }
    cmd.Model = f["model"]
    cmd.RawOn = model.StripSpaces(f["raw_on"])
    cmd.RawOff = model.StripSpaces(f["raw_off"])

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if err := h.Commands.Update(ctx, cmd); err != nil {
        if errors.Is(err, repository.ErrDuplicateModel) {
            return back(c, MsgDuplicateModel)
        }
        h.log.Error("update ir command failed", zap.Uint64("id", cmd.ID), zap.Error(err))
        return echo.NewHTTPError(http.StatusInternalServerError, "could not save ir command")
    }
    return c.Redirect(http.StatusSeeOther, "/admin")
}

// ----- equipment -----

var equipmentFields = []string{"brand", "model", "building", "room"}

func (h *AdminHandler) AddEquipmentForm(c echo.Context) error {
    return h.render(c, http.StatusOK, "equipment_form", echo.Map{"Action": "/admin/add_equipment"})
}

// AddEquipment creates an equipment row.  Duplicate models are allowed.
func (h *AdminHandler) AddEquipment(c echo.Context) error {
    f, ok := formValues(c, equipmentFields...)
    if !ok {
        return back(c, MsgRequiredFields)
    }
    e := &model.Equipment{
        Brand:      f["brand"],
        Model:      f["model"],
        Building:   f["building"],
        Room:       f["room"],
        ESPAddress: strings.TrimSpace(c.FormValue("esp_address")),
        Active:     true,
        Condition:  model.ConditionOK,
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if err := h.equipment.Create(ctx, e); err != nil {
        h.log.Error("create equipment failed", zap.Error(err))
        return echo.NewHTTPError(http.StatusInternalServerError, "could not save equipment")
    }
    h.purge(ctx)
    h.log.Info("equipment created", zap.Uint64("id", e.ID), zap.String("building", e.Building))
    return c.Redirect(http.StatusSeeOther, "/admin")
}

func (h *AdminHandler) loadEquipment(c echo.Context) (*model.Equipment, error) {
    id, ok := parseID(c)
    if !ok {
        return nil, echo.ErrNotFound
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()
    e, err := h.equipment.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrEquipmentNotFound) {
            return nil, echo.ErrNotFound
        }
        h.log.Error("load equipment failed", zap.Uint64("id", id), zap.Error(err))
        return nil, echo.NewHTTPError(http.StatusInternalServerError, "could not load equipment")
    }
    return e, nil
}

func (h *AdminHandler) EditEquipmentForm(c echo.Context) error {
    e, err := h.loadEquipment(c)
    if err != nil {
        return err
    }
    return h.render(c, http.StatusOK, "equipment_form", echo.Map{
        "Action":    c.Request().URL.Path,
        "Equipment": e,
    })
}

func (h *AdminHandler) EditEquipment(c echo.Context) error {
    e, err := h.loadEquipment(c)
    if err != nil {
        return err
    }
    f, ok := formValues(c, equipmentFields...)
    if !ok {
        return back(c, MsgRequiredFields)
    }
    e.Brand, e.Model, e.Building, e.Room = f["brand"], f["model"], f["building"], f["room"]
    e.ESPAddress = strings.TrimSpace(c.FormValue("esp_address"))

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if err := h.equipment.Update(ctx, e); err != nil {
        h.log.Error("update equipment failed", zap.Uint64("id", e.ID), zap.Error(err))
        return echo.NewHTTPError(http.StatusInternalServerError, "could not save equipment")
    }
    h.purge(ctx)
    return c.Redirect(http.StatusSeeOther, "/admin")
}

// Export downloads the equipment inventory as an XLSX workbook.
func (h *AdminHandler) Export(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    items, err := h.equipment.ListAll(ctx)
    if err != nil {
        h.log.Error("list equipment failed", zap.Error(err))
        return echo.NewHTTPError(http.StatusInternalServerError, "could not load equipment")
    }
    var buf bytes.Buffer
    if err := service.WriteEquipmentXLSX(&buf, items); err != nil {
        h.log.Error("render xlsx failed", zap.Error(err))
        return echo.NewHTTPError(http.StatusInternalServerError, "could not build export")
    }
    c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="equipment.xlsx"`)
    return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// purge drops cached building listings after an equipment write.
func (h *AdminHandler) purge(ctx context.Context) {
    if err := middleware.PurgeCache(ctx, h.Cache, h.Redis); err != nil {
        h.log.Warn("purge response cache failed", zap.Error(err))
    }
}
