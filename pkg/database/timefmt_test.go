package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTime_FixedWidthUTC(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	ts := time.Date(2026, 3, 14, 17, 0, 0, 0, jakarta)

	assert.Equal(t, "2026-03-14T10:00:00.000Z", FormatTime(ts))
	assert.Len(t, FormatTime(time.Date(2026, 12, 1, 9, 5, 3, 120_000_000, time.UTC)), 24)
}

func TestFormatTime_OrdersLexicographically(t *testing.T) {
	a := FormatTime(time.Date(2026, 3, 14, 9, 59, 59, 999_000_000, time.UTC))
	b := FormatTime(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
	assert.Less(t, a, b)
}

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
	}{
		{"canonical", "2024-05-01T10:00:00.000Z"},
		{"rfc3339 offset", "2024-05-01T17:00:00+07:00"},
		{"space separated", "2024-05-01 10:00:00"},
		{"no seconds", "2024-05-01T10:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.input)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}

	day, err := ParseTime("2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), day)

	_, err = ParseTime("")
	assert.Error(t, err)
	_, err = ParseTime("next tuesday")
	assert.Error(t, err)
}

func TestBuildDSN(t *testing.T) {
	dsn := BuildDSN("data/studio.db", 5*time.Second)

	assert.Contains(t, dsn, "data/studio.db?")
	assert.Contains(t, dsn, "_journal_mode=WAL")
	assert.Contains(t, dsn, "_foreign_keys=on")
	assert.Contains(t, dsn, "_busy_timeout=5000")
	assert.Contains(t, dsn, "_txlock=immediate")
}
