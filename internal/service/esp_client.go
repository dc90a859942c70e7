package service

import (
    "context"
    "time"

    "github.com/go-resty/resty/v2"
    "go.uber.org/zap"
)

// ESPClient posts raw IR payloads to IR blaster devices.  Retries are
// disabled: a repeated toggle would flip the unit back.
type ESPClient struct {
    http *resty.Client
    log  *zap.Logger
}

// NewESPClient creates a client.  A zero timeout waits for the device
// indefinitely.
func NewESPClient(timeout time.Duration, log *zap.Logger) *ESPClient {
    client := resty.New().
        SetTimeout(timeout).
        SetRetryCount(0).
        SetHeader("Content-Type", "text/plain")
    return &ESPClient{http: client, log: log}
}

// Send posts payload as the raw request body to address and returns the
// response status code.  A transport failure returns a zero status and the
// error.
func (c *ESPClient) Send(ctx context.Context, address, payload string) (int, error) {
    c.log.Debug("sending IR payload",
        zap.String("esp_address", address),
        zap.Int("payload_bytes", len(payload)),
    )
    resp, err := c.http.R().
        SetContext(ctx).
        SetBody(payload).
        Post(address)
    if err != nil {
        c.log.Warn("ESP request failed", zap.String("esp_address", address), zap.Error(err))
        return 0, err
    }
    return resp.StatusCode(), nil
}
