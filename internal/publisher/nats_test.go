package publisher

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arrival-windows/internal/gtfs"
	"arrival-windows/internal/predict"
)

func TestSubject(t *testing.T) {
	tests := []struct {
		prefix, route, trip string
		expected            string
	}{
		{"windows", "M15", "trip-1", "windows.M15.trip-1"},
		{"windows", "Line 1", "a.b>c*", "windows.Line_1.a_b_c_"},
		{"", " ", "x/y", "_.x_y"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, Subject(tt.prefix, tt.route, tt.trip))
		})
	}
}

func TestWindowsMessageJSON(t *testing.T) {
	windows, err := predict.Predict(predict.SampleRequest())
	require.NoError(t, err)

	msg := WindowsMessage{
		TripID:      "t1",
		RouteID:     "r1",
		Timestamp:   time.Date(2026, 1, 2, 8, 45, 0, 0, time.UTC),
		Vehicle:     gtfs.Coordinate{Lat: 40.7128, Lon: -74.0060},
		CurrentTime: "08:45",
		Windows:     windows,
	}
	b, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "t1", decoded["tripId"])
	assert.Equal(t, "08:45", decoded["currentTime"])
	assert.Len(t, decoded["windows"], 3)
}
