package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeISO(t *testing.T) {
	parsed, err := ParseTimeISO("2026-08-30T10:15:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 30, 10, 15, 0, 0, time.UTC), parsed)

	withOffset, err := ParseTimeISO("2026-08-30T17:15:00+07:00")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(withOffset))

	_, err = ParseTimeISO("30/08/2026")
	assert.Error(t, err)
}

func TestFormatTimeISORoundTrip(t *testing.T) {
	original := time.Date(2026, 8, 30, 10, 15, 0, 0, time.UTC)

	parsed, err := ParseTimeISO(FormatTimeISO(original))
	require.NoError(t, err)
	assert.True(t, original.Equal(parsed))
}
