package registry

import (
	"fmt"
	"strings"

	"synchron/internal/audit"
	"synchron/internal/domain"
	"synchron/internal/metrics"
)

// Operational state lives alongside the user map and is mutated only
// through the registry. It is deliberately not persisted: a restart resets
// the maintenance flag and clears any broadcast.

// SetMaintenance flips the maintenance flag.
func (r *Registry) SetMaintenance(enabled bool) {
	r.mu.Lock()
	r.maintenance = enabled
	r.mu.Unlock()

	detail := "maintenance mode disabled"
	if enabled {
		detail = "maintenance mode enabled"
	}
	r.log.Append(audit.ActionMaintenance, "ADMIN", detail)
	metrics.Mutations.WithLabelValues(audit.ActionMaintenance).Inc()
}

// SetBroadcast stores a global advisory message, or clears it when message
// is empty. An active broadcast always carries a valid severity.
func (r *Registry) SetBroadcast(message, severity string) error {
	message = strings.TrimSpace(message)
	if message != "" && !domain.ValidSeverity(severity) {
		return fmt.Errorf("%w: unknown severity %q", ErrValidation, severity)
	}

	r.mu.Lock()
	if message == "" {
		r.broadcast = nil
	} else {
		r.broadcast = &domain.Broadcast{
			Message:  message,
			Severity: domain.Severity(severity),
		}
	}
	r.mu.Unlock()

	detail := "broadcast cleared"
	if message != "" {
		detail = fmt.Sprintf("broadcast set (%s): %s", severity, message)
	}
	r.log.Append(audit.ActionBroadcast, "ADMIN", detail)
	metrics.Mutations.WithLabelValues(audit.ActionBroadcast).Inc()
	return nil
}

// PublicStatus returns the unauthenticated status view.
func (r *Registry) PublicStatus() domain.PublicStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := domain.PublicStatus{Maintenance: r.maintenance}
	if r.broadcast != nil {
		b := *r.broadcast
		status.Broadcast = &b
	}
	return status
}
