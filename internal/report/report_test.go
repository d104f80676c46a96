package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arrival-windows/internal/predict"
)

func sampleWindows(t *testing.T) []predict.Window {
	t.Helper()
	windows, err := predict.Predict(predict.SampleRequest())
	require.NoError(t, err)
	return windows
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleWindows(t)))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Stop Number | Min Expected Arrival | Max Expected Arrival", lines[0])
	assert.Equal(t, strings.Repeat("-", 55), lines[1])
	assert.Equal(t, "     1      |      08:08 AM      /     08:07 AM       |      09:33 AM      /     09:32 AM      ", lines[2])
	assert.Equal(t, "     2      |        09:10        |        09:10       ", lines[3])
	assert.Equal(t, "     3      |      07:45 AM       |      09:45 AM      ", lines[4])
}

func TestWriteTableRejectsUnknownKind(t *testing.T) {
	err := WriteTable(&bytes.Buffer{}, []predict.Window{{StopNumber: 9}})
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleWindows(t)))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 3)

	assert.Equal(t, "skipped", decoded[0]["kind"])
	assert.NotContains(t, decoded[0], "range")
	assert.Equal(t, "08:08 AM", decoded[0]["return"].(map[string]any)["min"])
	assert.Equal(t, "resolved", decoded[1]["kind"])
	assert.Equal(t, "09:10", decoded[1]["range"].(map[string]any)["max"])
	assert.Equal(t, "normal", decoded[2]["kind"])
	assert.NotContains(t, decoded[2], "continue")
}

func TestCenter(t *testing.T) {
	assert.Equal(t, "  ab   ", center("ab", 7))
	assert.Equal(t, "abcdef", center("abcdef", 3))
}
