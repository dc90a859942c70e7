package service

import (
    "context"
    "errors"
    "net/http"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/iliyamo/equipment-control/internal/model"
    "github.com/iliyamo/equipment-control/internal/queue"
    "github.com/iliyamo/equipment-control/internal/repository"
)

type fakeEquipment struct {
    rows      map[uint64]*model.Equipment
    getErr    error
    setActive []bool
}

func (f *fakeEquipment) GetByID(_ context.Context, id uint64) (*model.Equipment, error) {
    if f.getErr != nil {
        return nil, f.getErr
    }
    e, ok := f.rows[id]
    if !ok {
        return nil, repository.ErrEquipmentNotFound
    }
    cp := *e
    return &cp, nil
}

func (f *fakeEquipment) SetActive(_ context.Context, id uint64, active bool) error {
    f.setActive = append(f.setActive, active)
    if e, ok := f.rows[id]; ok {
        e.Active = active
    }
    return nil
}

type fakeCommands map[string]*model.IRCommand

func (f fakeCommands) GetByModel(_ context.Context, m string) (*model.IRCommand, error) {
    c, ok := f[m]
    if !ok {
        return nil, repository.ErrIRCommandNotFound
    }
    return c, nil
}

type sentRequest struct{ address, payload string }

type fakeRelay struct {
    status int
    err    error
    sent   []sentRequest
}

func (f *fakeRelay) Send(_ context.Context, address, payload string) (int, error) {
    f.sent = append(f.sent, sentRequest{address, payload})
    return f.status, f.err
}

type fakeEvents struct{ events []queue.EquipmentDispatchedEvent }

func (f *fakeEvents) PublishDispatched(_ context.Context, ev queue.EquipmentDispatchedEvent) error {
    f.events = append(f.events, ev)
    return nil
}

func scenario(active bool, address string) (*fakeEquipment, fakeCommands) {
    eq := &fakeEquipment{rows: map[uint64]*model.Equipment{
        1: {ID: 1, Model: "AC-100", Brand: "Acme", Active: active, Building: "B1", Room: "101", ESPAddress: address},
    }}
    cmds := fakeCommands{"AC-100": {ID: 1, Model: "AC-100", RawOn: "A1", RawOff: "A0"}}
    return eq, cmds
}

func TestDispatch_ActiveSendsOff(t *testing.T) {
    eq, cmds := scenario(true, "http://10.0.0.5/ir")
    relay := &fakeRelay{status: http.StatusOK}
    events := &fakeEvents{}
    d := NewDispatcher(eq, cmds, relay, events, zap.NewNop())

    res := d.Dispatch(context.Background(), 1)

    assert.Equal(t, Result{Status: "success", Message: "POST request sent to ESP"}, res)
    require.Len(t, relay.sent, 1)
    assert.Equal(t, sentRequest{"http://10.0.0.5/ir", "A0"}, relay.sent[0])
    assert.Equal(t, []bool{false}, eq.setActive)

    require.Len(t, events.events, 1)
    assert.Equal(t, "off", events.events[0].Command)
    assert.True(t, events.events[0].Success)
    assert.NotEmpty(t, events.events[0].EventID)
}

func TestDispatch_InactiveSendsOnTrimmed(t *testing.T) {
    eq, cmds := scenario(false, "http://10.0.0.5/ir")
    cmds["AC-100"].RawOn = "\n  A1\t "
    relay := &fakeRelay{status: http.StatusOK}
    d := NewDispatcher(eq, cmds, relay, nil, zap.NewNop())

    res := d.Dispatch(context.Background(), 1)

    assert.Equal(t, StatusSuccess, res.Status)
    require.Len(t, relay.sent, 1)
    assert.Equal(t, "A1", relay.sent[0].payload)
    assert.Equal(t, []bool{true}, eq.setActive)
}

func TestDispatch_TogglesBackAndForth(t *testing.T) {
    eq, cmds := scenario(true, "http://10.0.0.5/ir")
    relay := &fakeRelay{status: http.StatusOK}
    d := NewDispatcher(eq, cmds, relay, nil, zap.NewNop())

    d.Dispatch(context.Background(), 1)
    d.Dispatch(context.Background(), 1)

    require.Len(t, relay.sent, 2)
    assert.Equal(t, "A0", relay.sent[0].payload)
    assert.Equal(t, "A1", relay.sent[1].payload)
}

func TestDispatch_NoAddress(t *testing.T) {
    eq, cmds := scenario(true, "")
    relay := &fakeRelay{status: http.StatusOK}
    events := &fakeEvents{}
    d := NewDispatcher(eq, cmds, relay, events, zap.NewNop())

    res := d.Dispatch(context.Background(), 1)

    assert.Equal(t, Result{Status: "failed", Message: "This equipment has no ESP address associated with it"}, res)
    assert.Empty(t, relay.sent)
    assert.Empty(t, events.events)
    assert.Empty(t, eq.setActive)
}

func TestDispatch_DeviceFailures(t *testing.T) {
    cases := map[string]*fakeRelay{
        "not found":   {status: http.StatusNotFound},
        "server":      {status: http.StatusInternalServerError},
        "created":     {status: http.StatusCreated},
        "unreachable": {err: errors.New("connection refused")},
    }
    for name, relay := range cases {
        t.Run(name, func(t *testing.T) {
            eq, cmds := scenario(true, "http://10.0.0.5/ir")
            events := &fakeEvents{}
            d := NewDispatcher(eq, cmds, relay, events, zap.NewNop())

            res := d.Dispatch(context.Background(), 1)

            assert.Equal(t, Result{Status: "failed", Message: "POST request to ESP failed"}, res)
            assert.Len(t, relay.sent, 1)
            assert.Empty(t, eq.setActive)
            require.Len(t, events.events, 1)
            assert.False(t, events.events[0].Success)
        })
    }
}

func TestDispatch_MissingRows(t *testing.T) {
    eq, cmds := scenario(true, "http://10.0.0.5/ir")
    relay := &fakeRelay{status: http.StatusOK}
    d := NewDispatcher(eq, cmds, relay, nil, zap.NewNop())

    assert.Equal(t, failed(MsgNotFound), d.Dispatch(context.Background(), 42))
    assert.Equal(t, failed(MsgInvalidInput), d.Dispatch(context.Background(), 0))

    delete(cmds, "AC-100")
    assert.Equal(t, failed(MsgNoCommand), d.Dispatch(context.Background(), 1))
    assert.Empty(t, relay.sent)
}

func TestDispatch_StoreError(t *testing.T) {
    eq := &fakeEquipment{getErr: errors.New("db down")}
    relay := &fakeRelay{status: http.StatusOK}
    d := NewDispatcher(eq, fakeCommands{}, relay, nil, zap.NewNop())

    assert.Equal(t, failed(MsgInternalError), d.Dispatch(context.Background(), 1))
    assert.Empty(t, relay.sent)
}
