package logevent

// ConsequenceSuggestion is a system-originated fact detected during
// projection that must become a new event. The consequence engine turns it
// into a draft causally linked to the triggering event.
type ConsequenceSuggestion struct {
	EventType string
	Data      map[string]interface{}
}
