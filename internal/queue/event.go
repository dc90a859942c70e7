// Package queue defines message payloads exchanged over the message broker.
package queue

// DispatchQueueName is the durable queue carrying dispatch audit events.
const DispatchQueueName = "equipment.dispatched"

// EquipmentDispatchedEvent is published after every dispatch attempt that
// reached the outbound ESP call, whether or not the device accepted it.
type EquipmentDispatchedEvent struct {
    EventID      string `json:"event_id"` // ULID, sortable by time
    EquipmentID  uint64 `json:"equipment_id"`
    Model        string `json:"model"`
    Building     string `json:"building"`
    Room         string `json:"room"`
    ESPAddress   string `json:"esp_address"`
    Command      string `json:"command"` // "on" or "off"
    Success      bool   `json:"success"`
    HTTPStatus   int    `json:"http_status,omitempty"`
    Error        string `json:"error,omitempty"`
    DispatchedAt string `json:"dispatched_at"` // RFC 3339, UTC
}
