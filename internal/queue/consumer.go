package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// DispatchConsumer appends every dispatch event to an audit log file.
type DispatchConsumer struct {
    URL     string // AMQP broker URL
    LogPath string // audit file, e.g. logs/dispatch.log
    Log     *zap.Logger
}

// Run connects to the broker, declares the dispatch queue (durable) and
// consumes until ctx is cancelled.  Connection failures are retried with
// exponential backoff capped at 30 seconds.  Malformed messages are rejected
// without requeue so they cannot spin the loop.
func (dc *DispatchConsumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(dc.URL)
        if err != nil {
            dc.Log.Warn("dispatch-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = dc.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        dc.Log.Warn("dispatch-consumer: consume loop ended, reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (dc *DispatchConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        dc.Log.Warn("dispatch-consumer: set QoS failed", zap.Error(err))
    }
    if _, err := ch.QueueDeclare(DispatchQueueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(DispatchQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := dc.Handle(d.Body); err != nil {
                dc.Log.Error("dispatch-consumer: handle message failed", zap.Error(err))
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes one event and appends it to the audit file.
func (dc *DispatchConsumer) Handle(body []byte) error {
    var ev EquipmentDispatchedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if err := os.MkdirAll(filepath.Dir(dc.LogPath), 0o755); err != nil {
        return fmt.Errorf("mkdir: %w", err)
    }
    f, err := os.OpenFile(dc.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders an event as a single human-readable audit line.
func FormatLine(ev EquipmentDispatchedEvent) string {
    outcome := "success"
    if !ev.Success {
        outcome = "failed"
    }
    line := fmt.Sprintf("[%s] Equipment dispatched | event_id=%s | equipment_id=%d | model=%q | building=%q | room=%q | command=%s | esp=%q | outcome=%s | http_status=%d",
        ev.DispatchedAt, ev.EventID, ev.EquipmentID, ev.Model, ev.Building, ev.Room, ev.Command, ev.ESPAddress, outcome, ev.HTTPStatus)
    if ev.Error != "" {
        line += fmt.Sprintf(" | error=%q", ev.Error)
    }
    return line + "\n"
}
