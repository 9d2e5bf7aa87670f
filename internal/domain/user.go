package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Role classifies a registered user.
type Role string

const (
	RoleStudent Role = "Student"
	RolePrefect Role = "Prefect"
	RoleTeacher Role = "Teacher"
	RoleAdmin   Role = "Admin"
)

// Status reflects a user's standing in the registry.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
	StatusWarning  Status = "Warning"
)

// ValidRole reports whether s is a known role value.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleStudent, RolePrefect, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known status value.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusActive, StatusInactive, StatusWarning:
		return true
	}
	return false
}

// UserRecord is a registered end-user of the system. ID is always the
// canonical string form produced by NormalizeID; the registry keys on it.
type UserRecord struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Year      string          `json:"year"`
	Email     string          `json:"email"`
	Role      Role            `json:"role"`
	Status    Status          `json:"status"`
	Timetable json.RawMessage `json:"timetable,omitempty"`
	Joined    time.Time       `json:"joined"`
	LastSeen  time.Time       `json:"lastSeen"`
}

// NormalizeID canonicalizes an identifier that clients may submit as either
// a string or a bare number. Numeric forms render as plain decimal so that
// 430000001 and "430000001" resolve to the same record.
func NormalizeID(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		return strings.TrimSpace(id.String())
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(id))
	}
}
