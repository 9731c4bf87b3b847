package logevent

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// NewEventID generates a store-wide unique event id of the form
// evt_<32 hex chars>.
func NewEventID() string {
	return "evt_" + randomHex()
}

// NewProvisionalWhatsAppID generates the id for a provisional event created
// from an inbound WhatsApp message before the gateway confirms it.
func NewProvisionalWhatsAppID() string {
	return "evt_prelog_wa_" + randomHex()
}

func randomHex() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
