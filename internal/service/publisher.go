package service

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    "github.com/iliyamo/equipment-control/internal/queue"
)

// ErrPublishQueueFull is returned when events arrive faster than Run can
// hand them to the broker.
var ErrPublishQueueFull = errors.New("dispatch event queue full")

const publishBuffer = 256

// Publisher sends dispatch audit events to RabbitMQ.  PublishDispatched only
// enqueues; Run owns one long-lived connection and drains the queue, so a
// slow or absent broker never delays a dispatch response.
type Publisher struct {
    url     string
    log     *zap.Logger
    pending chan queue.EquipmentDispatchedEvent
}

// NewPublisher returns a Publisher for url.  An empty url yields a disabled
// publisher whose calls are no-ops.
func NewPublisher(url string, log *zap.Logger) *Publisher {
    if log == nil {
        log = zap.NewNop()
    }
    return &Publisher{url: url, log: log, pending: make(chan queue.EquipmentDispatchedEvent, publishBuffer)}
}

// Enabled reports whether a broker URL is configured.
func (p *Publisher) Enabled() bool { return p != nil && p.url != "" }

// PublishDispatched queues ev for Run.  It never blocks; when the buffer is
// full the event is dropped and ErrPublishQueueFull returned.
func (p *Publisher) PublishDispatched(_ context.Context, ev queue.EquipmentDispatchedEvent) error {
    if !p.Enabled() {
        return nil
    }
    select {
    case p.pending <- ev:
        return nil
    default:
        return ErrPublishQueueFull
    }
}

// Run publishes queued events to the durable equipment.dispatched queue
// until ctx is cancelled.  A failed publish is retried on a fresh
// connection; dial failures back off exponentially up to 30 seconds.
func (p *Publisher) Run(ctx context.Context) error {
    if !p.Enabled() {
        <-ctx.Done()
        return ctx.Err()
    }
    var (
        ch      *amqp.Channel
        conn    *amqp.Connection
        backoff = time.Second
    )
    closeConn := func() {
        if ch != nil {
            _ = ch.Close()
        }
        if conn != nil {
            _ = conn.Close()
        }
        ch, conn = nil, nil
    }
    defer closeConn()

    for {
        var ev queue.EquipmentDispatchedEvent
        select {
        case <-ctx.Done():
            return ctx.Err()
        case ev = <-p.pending:
        }

        for {
            if ch == nil {
                var err error
                conn, ch, err = p.open()
                if err != nil {
                    p.log.Warn("rabbitmq: connect failed", zap.Error(err), zap.Duration("retry_in", backoff))
                    if !sleepCtx(ctx, backoff) {
                        return ctx.Err()
                    }
                    if backoff < 30*time.Second {
                        backoff *= 2
                    }
                    continue
                }
                backoff = time.Second
            }
            if err := p.send(ctx, ch, ev); err != nil {
                p.log.Warn("rabbitmq: publish failed", zap.String("event_id", ev.EventID), zap.Error(err))
                closeConn()
                if ctx.Err() != nil {
                    return ctx.Err()
                }
                continue
            }
            break
        }
    }
}

func (p *Publisher) open() (*amqp.Connection, *amqp.Channel, error) {
    conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(3 * time.Second)})
    if err != nil {
        return nil, nil, err
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, nil, fmt.Errorf("channel open: %w", err)
    }
    if _, err := ch.QueueDeclare(
        queue.DispatchQueueName, // name
        true,                    // durable
        false,                   // autoDelete
        false,                   // exclusive
        false,                   // noWait
        nil,                     // args
    ); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, nil, fmt.Errorf("queue declare: %w", err)
    }
    return conn, ch, nil
}

func (p *Publisher) send(ctx context.Context, ch *amqp.Channel, ev queue.EquipmentDispatchedEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    return ch.PublishWithContext(pctx, "", queue.DispatchQueueName, false, false, amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    ev.EventID,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    })
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
