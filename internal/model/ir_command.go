package model

import "strings"

// IRCommand holds the raw infrared payloads for one equipment model.
// Equipment rows reference it by model name, not by foreign key.
type IRCommand struct {
    ID     uint64 `json:"id"`      // ir_commands.id
    Model  string `json:"model"`   // ir_commands.model (unique)
    RawOn  string `json:"raw_on"`  // ir_commands.raw_on
    RawOff string `json:"raw_off"` // ir_commands.raw_off
}

// StripSpaces removes every space character from a raw payload.  Other
// whitespace (tabs, newlines) is kept as entered.
func StripSpaces(raw string) string {
    return strings.ReplaceAll(raw, " ", "")
}

// PayloadFor returns the command that moves the equipment away from its
// current state: the off code while active, the on code otherwise.  Leading
// and trailing whitespace is trimmed.
func (c IRCommand) PayloadFor(active bool) string {
    if active {
        return strings.TrimSpace(c.RawOff)
    }
    return strings.TrimSpace(c.RawOn)
}
