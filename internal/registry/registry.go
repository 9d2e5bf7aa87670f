// Package registry owns the authoritative in-memory set of user records
// and the process's operational state. Durable storage is a lagging mirror
// maintained by an async snapshot writer; it is consulted only at startup.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"synchron/internal/audit"
	"synchron/internal/domain"
	"synchron/internal/metrics"
	"synchron/internal/snapshot"
)

// Registry is the user registry and operational state store. All methods
// are safe for concurrent use; mutations are atomic with respect to the
// in-memory map.
type Registry struct {
	mu    sync.Mutex
	users map[string]*domain.UserRecord

	maintenance bool
	broadcast   *domain.Broadcast

	log     *audit.Log
	writer  *snapshot.Writer
	logger  *logrus.Entry
	started time.Time
	now     func() time.Time
}

// New seeds a registry from the store's snapshot and starts the async
// snapshot writer. A failed or empty load starts the registry empty rather
// than failing startup.
func New(ctx context.Context, store snapshot.Store, log *audit.Log, logger *logrus.Logger) *Registry {
	r := &Registry{
		users:   make(map[string]*domain.UserRecord),
		log:     log,
		logger:  logger.WithField("component", "registry"),
		started: time.Now(),
		now:     func() time.Time { return time.Now().UTC() },
	}

	snap, err := store.Load(ctx)
	if err != nil {
		r.logger.Warnf("load snapshot: %v (starting empty)", err)
		log.Append(audit.ActionWarning, audit.ActorSystem, "snapshot load failed: "+err.Error())
	}
	for i := range snap.Users {
		u := snap.Users[i]
		u.ID = domain.NormalizeID(u.ID)
		if u.ID == "" {
			continue
		}
		r.users[u.ID] = &u
	}
	if n := len(r.users); n > 0 {
		r.logger.Infof("seeded %d users from snapshot (schema v%d)", n, snap.Version)
	}
	metrics.RegisteredUsers.Set(float64(len(r.users)))

	r.writer = snapshot.NewWriter(store, r.Snapshot, log, logger)
	r.writer.Start()
	return r
}

// Close flushes any pending snapshot write and stops the writer.
func (r *Registry) Close() {
	r.writer.Shutdown()
}

// RegisterPayload is an inbound registration. ID is deliberately untyped:
// clients send it as either a JSON number or a string.
type RegisterPayload struct {
	ID        any             `json:"id"`
	Name      string          `json:"name"`
	Year      string          `json:"year"`
	Email     string          `json:"email"`
	Role      string          `json:"role"`
	Status    string          `json:"status"`
	Timetable json.RawMessage `json:"timetable"`
}

// Register upserts a user record keyed by the normalized identifier.
// Fields absent from the payload are preserved on the update path; joined
// is set once and never touched again. Returns the resulting record count
// and whether a new record was created.
func (r *Registry) Register(p RegisterPayload) (int, bool, error) {
	id := domain.NormalizeID(p.ID)
	email := strings.TrimSpace(p.Email)
	if id == "" || email == "" {
		return 0, false, fmt.Errorf("%w: id and email are required", ErrValidation)
	}
	if p.Role != "" && !domain.ValidRole(p.Role) {
		return 0, false, fmt.Errorf("%w: unknown role %q", ErrValidation, p.Role)
	}
	if p.Status != "" && !domain.ValidStatus(p.Status) {
		return 0, false, fmt.Errorf("%w: unknown status %q", ErrValidation, p.Status)
	}

	r.mu.Lock()
	now := r.now()
	user, exists := r.users[id]
	if exists {
		if name := strings.TrimSpace(p.Name); name != "" {
			user.Name = name
		}
		if year := strings.TrimSpace(p.Year); year != "" {
			user.Year = year
		}
		user.Email = email
		if p.Role != "" {
			user.Role = domain.Role(p.Role)
		}
		if p.Status != "" {
			user.Status = domain.Status(p.Status)
		}
		if len(p.Timetable) > 0 {
			user.Timetable = p.Timetable
		}
		user.LastSeen = now
	} else {
		user = &domain.UserRecord{
			ID:        id,
			Name:      strings.TrimSpace(p.Name),
			Year:      strings.TrimSpace(p.Year),
			Email:     email,
			Role:      domain.RoleStudent,
			Status:    domain.StatusActive,
			Timetable: p.Timetable,
			Joined:    now,
			LastSeen:  now,
		}
		if p.Role != "" {
			user.Role = domain.Role(p.Role)
		}
		if p.Status != "" {
			user.Status = domain.Status(p.Status)
		}
		r.users[id] = user
	}
	count := len(r.users)
	r.mu.Unlock()

	if exists {
		r.log.Append(audit.ActionRegisterRenew, id, "user re-registered: "+email)
		metrics.Mutations.WithLabelValues(audit.ActionRegisterRenew).Inc()
	} else {
		r.log.Append(audit.ActionRegisterNew, id, "user registered: "+email)
		metrics.Mutations.WithLabelValues(audit.ActionRegisterNew).Inc()
	}
	metrics.RegisteredUsers.Set(float64(count))
	r.writer.Request()
	return count, !exists, nil
}

// patchable is the whitelist of fields an administrative patch may touch.
// Anything else in the submitted field set is silently ignored.
var patchable = map[string]struct{}{
	"role":   {},
	"status": {},
	"name":   {},
	"year":   {},
}

// ApplyPatch mutates a restricted field set on an existing record.
func (r *Registry) ApplyPatch(rawID any, fields map[string]any) (domain.UserRecord, error) {
	id := domain.NormalizeID(rawID)

	updates := make(map[string]string, len(fields))
	for key, value := range fields {
		if _, ok := patchable[key]; !ok {
			continue
		}
		str, ok := value.(string)
		if !ok {
			return domain.UserRecord{}, fmt.Errorf("%w: field %s must be a string", ErrValidation, key)
		}
		updates[key] = str
	}
	if role, ok := updates["role"]; ok && !domain.ValidRole(role) {
		return domain.UserRecord{}, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	if status, ok := updates["status"]; ok && !domain.ValidStatus(status) {
		return domain.UserRecord{}, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	r.mu.Lock()
	user, ok := r.users[id]
	if !ok {
		r.mu.Unlock()
		return domain.UserRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	changed := make([]string, 0, len(updates))
	for key, value := range updates {
		switch key {
		case "role":
			user.Role = domain.Role(value)
		case "status":
			user.Status = domain.Status(value)
		case "name":
			user.Name = value
		case "year":
			user.Year = value
		}
		changed = append(changed, key)
	}
	out := *user
	r.mu.Unlock()

	if len(changed) > 0 {
		sort.Strings(changed)
		r.log.Append(audit.ActionUpdate, "ADMIN",
			fmt.Sprintf("user %s updated: %s", id, strings.Join(changed, ", ")))
		metrics.Mutations.WithLabelValues(audit.ActionUpdate).Inc()
		r.writer.Request()
	}
	return out, nil
}

// Delete removes a record by normalized identifier.
func (r *Registry) Delete(rawID any) error {
	id := domain.NormalizeID(rawID)

	r.mu.Lock()
	if _, ok := r.users[id]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.users, id)
	count := len(r.users)
	r.mu.Unlock()

	r.log.Append(audit.ActionDelete, "ADMIN", "user "+id+" deleted")
	metrics.Mutations.WithLabelValues(audit.ActionDelete).Inc()
	metrics.RegisteredUsers.Set(float64(count))
	r.writer.Request()
	return nil
}

// Get fetches a record by normalized identifier.
func (r *Registry) Get(rawID any) (domain.UserRecord, error) {
	id := domain.NormalizeID(rawID)

	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return domain.UserRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *user, nil
}

// List returns a copy of every record, ordered by identifier for stable
// output; callers apply their own filtering and sorting.
func (r *Registry) List() []domain.UserRecord {
	r.mu.Lock()
	out := make([]domain.UserRecord, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, *user)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count reports the number of records currently held.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// Stats summarizes the registry for the admin console.
type Stats struct {
	TotalUsers    int     `json:"totalUsers"`
	SystemStatus  string  `json:"systemStatus"`
	UptimeSeconds float64 `json:"uptime"`
	HeapAllocMB   float64 `json:"heapAllocMB"`
}

// Stats reports aggregate counters computed from in-memory state only.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	total := len(r.users)
	maintenance := r.maintenance
	r.mu.Unlock()

	status := "Operational"
	if maintenance {
		status = "Maintenance"
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return Stats{
		TotalUsers:    total,
		SystemStatus:  status,
		UptimeSeconds: time.Since(r.started).Seconds(),
		HeapAllocMB:   float64(mem.HeapAlloc) / (1 << 20),
	}
}

// Snapshot captures the current user set for the snapshot writer.
func (r *Registry) Snapshot() snapshot.Snapshot {
	r.mu.Lock()
	users := make([]domain.UserRecord, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, *user)
	}
	r.mu.Unlock()

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return snapshot.New(users)
}
