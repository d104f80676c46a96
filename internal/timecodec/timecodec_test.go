package timecodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		in       string
		expected int
	}{
		{"00:00", 0},
		{"00:01", 1},
		{"01:00", 60},
		{"01:01", 61},
		{"12:00", 720},
		{"12:01", 721},
		{"23:59", 1439},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTime(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseTimeRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "8:45", "08-45", "24:00", "12:60", "ab:cd", "+1:00", "08:4 ", "08:450", "-1:00"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTime(in)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		minutes  int
		expected string
	}{
		{0, "12:00 AM"},
		{1, "12:01 AM"},
		{60, "01:00 AM"},
		{61, "01:01 AM"},
		{720, "12:00 PM"},
		{721, "12:01 PM"},
		{1439, "11:59 PM"},
		// past midnight the hour wraps through %24
		{1440, "12:00 AM"},
		{1500, "01:00 AM"},
		// before midnight floor semantics pick the previous evening
		{-3, "11:57 PM"},
		{-60, "11:00 PM"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatTime(tt.minutes))
		})
	}
}

func TestFormat24hRoundTrip(t *testing.T) {
	for h := 0; h < 24; h++ {
		for m := 0; m < 60; m++ {
			got, err := ParseTime(Format24h(h*60 + m))
			require.NoError(t, err)
			require.Equal(t, h*60+m, got)
		}
	}
	assert.Equal(t, "00:10", Format24h(MinutesPerDay+10))
	assert.Equal(t, "23:50", Format24h(-10))
}
