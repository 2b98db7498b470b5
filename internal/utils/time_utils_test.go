package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLocation(t *testing.T) {
	assert.Equal(t, time.UTC, LoadLocation(""))
	assert.Equal(t, time.UTC, LoadLocation("Mars/Olympus_Mons"))
}

func TestParseUTC(t *testing.T) {
	layouts := []string{time.RFC3339, "01/02/2006 15:04"}

	parsed := ParseUTC("2024-03-01T10:00:00+02:00", layouts...)
	require.NotNil(t, parsed)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), *parsed)
	assert.Equal(t, time.UTC, parsed.Location())

	parsed = ParseUTC("  03/15/2024 09:30 ", layouts...)
	require.NotNil(t, parsed)
	assert.Equal(t, time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC), *parsed)

	assert.Nil(t, ParseUTC("", layouts...))
	assert.Nil(t, ParseUTC("yesterday", layouts...))
	assert.Nil(t, ParseUTC("2024-03-01T10:00:00Z"))
}
