package parse

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRemoteTimeTextFormats(t *testing.T) {
	tests := []struct {
		input  string
		layout string
	}{
		{"2020-03-01T12:30:45", "2006-01-02T15:04:05"},
		{"2020-03-01 12:30:45", "2006-01-02T15:04:05"}, // separators are not inspected
		{"2020-03-01T12:30", "2006-01-02T15:04"},
		{"2020-03-01", "2006-01-02"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseRemoteTime(tt.input)
			require.True(t, ok)
			assert.Equal(t, ReferenceZone(), got.Location())

			// Parsing then re-formatting at the same granularity is idempotent.
			formatted := got.Format(tt.layout)
			again, ok := ParseRemoteTime(formatted)
			require.True(t, ok)
			assert.True(t, got.Equal(again))
		})
	}
}

func TestParseRemoteTimeRejectsEpochYearSentinel(t *testing.T) {
	_, ok := ParseRemoteTime("1970-01-01T00:00:00")
	assert.False(t, ok, "1970 text dates are zero-epoch sentinels")

	_, ok = ParseRemoteTime("1970-05-20")
	assert.False(t, ok)
}

func TestParseRemoteTimeRejectsMalformedText(t *testing.T) {
	inputs := []string{
		"2020-03-01T12:30:4",   // length 18
		"2020-03-01T12:30:45Z", // length 20
		"not-a-date",
		"2020-13-01",          // month out of range
		"2020-03-32",          // day out of range
		"2020-03-01T25:00:00", // hour out of range
		"20XX-03-01",
	}
	for _, input := range inputs {
		_, ok := ParseRemoteTime(input)
		assert.False(t, ok, "input %q", input)
	}
}

func TestParseRemoteTimeEpochSeconds(t *testing.T) {
	for _, sec := range []int64{1, 1583064000, 2147483647} {
		t.Run(fmt.Sprint(sec), func(t *testing.T) {
			got, ok := ParseRemoteTime(float64(sec)) // JSON numbers decode as float64
			require.True(t, ok)
			assert.Equal(t, time.UTC, got.Location())
			assert.Equal(t, sec, got.Unix())
		})
	}
}

func TestParseRemoteTimeEpochFromText(t *testing.T) {
	// Numeric text shorter than 10 characters takes the epoch branch.
	got, ok := ParseRemoteTime("12345")
	require.True(t, ok)
	assert.Equal(t, int64(12345), got.Unix())

	// Ten digits look like a positional date and are parsed as one, so a
	// textual epoch of that length is rejected rather than misread.
	_, ok = ParseRemoteTime("1583064000")
	assert.False(t, ok)
}

func TestParseRemoteTimeRejectsNonPositiveEpoch(t *testing.T) {
	for _, v := range []any{float64(0), float64(-5), int64(0), "0", "-1"} {
		_, ok := ParseRemoteTime(v)
		assert.False(t, ok, "input %v", v)
	}
}

func TestParseRemoteTimeRejectsOtherTypes(t *testing.T) {
	for _, v := range []any{nil, true, []any{1}, map[string]any{}} {
		_, ok := ParseRemoteTime(v)
		assert.False(t, ok, "input %#v", v)
	}
}
