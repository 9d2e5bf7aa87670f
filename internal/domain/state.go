package domain

// Severity grades a broadcast message.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ValidSeverity reports whether s is a known severity value.
func ValidSeverity(s string) bool {
	switch Severity(s) {
	case SeverityInfo, SeverityWarning, SeverityError:
		return true
	}
	return false
}

// Broadcast is the single global advisory message shown to all clients.
// A nil *Broadcast means no broadcast is active; an active broadcast always
// carries a non-empty message.
type Broadcast struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// PublicStatus is the unauthenticated view of the operational state,
// polled by clients to decide whether to show a maintenance screen.
type PublicStatus struct {
	Maintenance bool       `json:"maintenance"`
	Broadcast   *Broadcast `json:"broadcast,omitempty"`
}
