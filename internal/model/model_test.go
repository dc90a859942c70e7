package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestStripSpaces(t *testing.T) {
    assert.Equal(t, "9000,4500,560", StripSpaces(" 9000, 4500, 560 "))
    assert.Equal(t, "a\tb\nc", StripSpaces("a \tb\n c"))
    assert.Equal(t, "", StripSpaces("   "))
}

func TestPayloadFor(t *testing.T) {
    cmd := IRCommand{Model: "AC-100", RawOn: "  A1\n", RawOff: "\tA0 "}

    assert.Equal(t, "A0", cmd.PayloadFor(true))
    assert.Equal(t, "A1", cmd.PayloadFor(false))
}

func TestUserIsAdmin(t *testing.T) {
    assert.True(t, User{Role: RoleAdmin}.IsAdmin())
    assert.False(t, User{Role: RoleUser}.IsAdmin())
    assert.False(t, User{}.IsAdmin())
}
