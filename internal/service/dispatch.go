package service

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/oklog/ulid/v2"
    "go.uber.org/zap"

    "github.com/iliyamo/equipment-control/internal/model"
    "github.com/iliyamo/equipment-control/internal/queue"
    "github.com/iliyamo/equipment-control/internal/repository"
)

// Dispatch outcomes reported to the caller.
const (
    StatusSuccess = "success"
    StatusFailed  = "failed"

    MsgSent          = "POST request sent to ESP"
    MsgSendFailed    = "POST request to ESP failed"
    MsgNoAddress     = "This equipment has no ESP address associated with it"
    MsgInvalidInput  = "Invalid request: equipment id is required"
    MsgNotFound      = "Equipment not found"
    MsgNoCommand     = "No IR command registered for this equipment model"
    MsgInternalError = "Could not process the request"
)

// Result is the JSON body returned by the dispatch endpoint.
type Result struct {
    Status  string `json:"status"`
    Message string `json:"message"`
}

func failed(msg string) Result { return Result{Status: StatusFailed, Message: msg} }

// EquipmentStore is the part of the equipment repository used by dispatch.
type EquipmentStore interface {
    GetByID(ctx context.Context, id uint64) (*model.Equipment, error)
    SetActive(ctx context.Context, id uint64, active bool) error
}

// CommandStore looks IR commands up by model name.
type CommandStore interface {
    GetByModel(ctx context.Context, model string) (*model.IRCommand, error)
}

// Relay delivers a payload to a device address and reports the HTTP status.
type Relay interface {
    Send(ctx context.Context, address, payload string) (int, error)
}

// EventPublisher records dispatch attempts.  It may be nil.
type EventPublisher interface {
    PublishDispatched(ctx context.Context, ev queue.EquipmentDispatchedEvent) error
}

// Dispatcher forwards the stored IR command for a piece of equipment to its
// ESP device, sending the command opposite to the recorded power state.
type Dispatcher struct {
    equipment EquipmentStore
    commands  CommandStore
    relay     Relay
    events    EventPublisher
    log       *zap.Logger
}

func NewDispatcher(equipment EquipmentStore, commands CommandStore, relay Relay, events EventPublisher, log *zap.Logger) *Dispatcher {
    if equipment == nil || commands == nil || relay == nil {
        panic("nil dependency passed to NewDispatcher")
    }
    return &Dispatcher{equipment: equipment, commands: commands, relay: relay, events: events, log: log}
}

// Dispatch toggles equipment id.  It never returns an error: every outcome,
// including missing rows and unreachable devices, is expressed as a Result.
// On a 200 from the device the equipment's active flag is flipped.
func (d *Dispatcher) Dispatch(ctx context.Context, id uint64) Result {
    if id == 0 {
        return failed(MsgInvalidInput)
    }
    log := d.log.With(zap.Uint64("equipment_id", id))

    eq, err := d.equipment.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrEquipmentNotFound) {
            return failed(MsgNotFound)
        }
        log.Error("load equipment failed", zap.Error(err))
        return failed(MsgInternalError)
    }
    if !eq.HasESP() {
        return failed(MsgNoAddress)
    }

    cmd, err := d.commands.GetByModel(ctx, eq.Model)
    if err != nil {
        if errors.Is(err, repository.ErrIRCommandNotFound) {
            log.Warn("no IR command for model", zap.String("model", eq.Model))
            return failed(MsgNoCommand)
        }
        log.Error("load IR command failed", zap.Error(err))
        return failed(MsgInternalError)
    }

    payload := cmd.PayloadFor(eq.Active)
    status, sendErr := d.relay.Send(ctx, eq.ESPAddress, payload)
    ok := sendErr == nil && status == http.StatusOK

    d.publish(ctx, eq, status, sendErr, ok)

    if !ok {
        log.Warn("ESP dispatch failed", zap.Int("http_status", status), zap.Error(sendErr))
        return failed(MsgSendFailed)
    }
    if err := d.equipment.SetActive(ctx, eq.ID, !eq.Active); err != nil {
        log.Error("persist toggled state failed", zap.Bool("active", !eq.Active), zap.Error(err))
    }
    log.Info("ESP dispatch succeeded", zap.String("command", commandName(eq.Active)))
    return Result{Status: StatusSuccess, Message: MsgSent}
}

// commandName names the command sent for an equipment in the given state.
func commandName(active bool) string {
    if active {
        return "off"
    }
    return "on"
}

func (d *Dispatcher) publish(ctx context.Context, eq *model.Equipment, status int, sendErr error, ok bool) {
    if d.events == nil {
        return
    }
    ev := queue.EquipmentDispatchedEvent{
        EventID:      ulid.Make().String(),
        EquipmentID:  eq.ID,
        Model:        eq.Model,
        Building:     eq.Building,
        Room:         eq.Room,
        ESPAddress:   eq.ESPAddress,
        Command:      commandName(eq.Active),
        Success:      ok,
        HTTPStatus:   status,
        DispatchedAt: time.Now().UTC().Format(time.RFC3339),
    }
    if sendErr != nil {
        ev.Error = sendErr.Error()
    }
    pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
    defer cancel()
    if err := d.events.PublishDispatched(pctx, ev); err != nil {
        d.log.Warn("publish dispatch event failed", zap.String("event_id", ev.EventID), zap.Error(err))
    }
}
