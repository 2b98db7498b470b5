package utils

import (
	"strings"
	"time"
)

// LoadLocation returns the named time zone, or UTC when the name is empty or
// the zone database does not know it. In production docker, ensure tzdata is installed.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseUTC tries each layout in order and returns the first match converted to
// UTC. Empty or unparseable input yields nil.
func ParseUTC(s string, layouts ...string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}
