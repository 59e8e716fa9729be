package domain

import (
	"strings"
	"time"
)

// EntityType names a record kind in audit entries and import runs.
type EntityType string

const (
	EntityClient     EntityType = "Client"
	EntityEmployee   EntityType = "Employee"
	EntityProject    EntityType = "Project"
	EntityAssignment EntityType = "Assignment"
	EntityUser       EntityType = "User"
)

// DateLayout is the day/month/year layout used for display and export.
const DateLayout = "02/01/2006"

// FormatDate renders t in DateLayout, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// FormatOptionalDate renders an optional date, or "" when nil.
func FormatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatDate(*t)
}

// Plural is the lower case plural used in routes and messages, e.g. "clients".
func (e EntityType) Plural() string {
	return strings.ToLower(string(e)) + "s"
}

// ParseEntityType accepts a singular or plural entity name in any case.
func ParseEntityType(raw string) (EntityType, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for _, e := range []EntityType{EntityClient, EntityEmployee, EntityProject, EntityAssignment} {
		if name == strings.ToLower(string(e)) || name == e.Plural() {
			return e, true
		}
	}
	return "", false
}
