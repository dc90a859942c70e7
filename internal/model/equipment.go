package model

// Equipment conditions.  Purely informational, dispatch ignores them.
const (
    ConditionOK          = "ok"
    ConditionMaintenance = "maintenance"
)

// Equipment is a controllable unit (usually an air conditioner) installed in
// a room.  Building and Room are free text.  ESPAddress is the URL of the IR
// blaster that drives the unit; an empty value means no blaster is attached.
//
// Active records the last known power state.  The dispatch endpoint sends the
// opposite command and flips it on success.
type Equipment struct {
    ID         uint64 `json:"id"`          // equipment.id
    Model      string `json:"model"`       // equipment.model, matches ir_commands.model
    Brand      string `json:"brand"`       // equipment.brand
    Active     bool   `json:"active"`      // equipment.active
    Condition  string `json:"condition"`   // equipment.condition
    Building   string `json:"building"`    // equipment.building
    Room       string `json:"room"`        // equipment.room
    ESPAddress string `json:"esp_address"` // equipment.esp_address (NULL reads as "")
}

// HasESP reports whether an IR blaster address is configured.
func (e Equipment) HasESP() bool { return e.ESPAddress != "" }
