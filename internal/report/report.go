// Package report renders predicted windows for people and programs.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"arrival-windows/internal/predict"
)

const (
	stopWidth = 11
	timeWidth = 19
)

// WriteTable prints one row per window. Skipped stops show their return and
// continue bounds side by side as "return/continue".
func WriteTable(w io.Writer, windows []predict.Window) error {
	var b strings.Builder
	b.WriteString("Stop Number | Min Expected Arrival | Max Expected Arrival\n")
	b.WriteString(strings.Repeat("-", 55) + "\n")
	for _, win := range windows {
		stop := center(strconv.Itoa(win.StopNumber), stopWidth)
		switch win.Kind {
		case predict.KindSkipped:
			fmt.Fprintf(&b, "%s | %s/%s | %s/%s\n", stop,
				center(win.Return.Min, timeWidth), center(win.Continue.Min, timeWidth),
				center(win.Return.Max, timeWidth), center(win.Continue.Max, timeWidth))
		case predict.KindResolved, predict.KindNormal:
			fmt.Fprintf(&b, "%s | %s | %s\n", stop, center(win.Range.Min, timeWidth), center(win.Range.Max, timeWidth))
		default:
			return fmt.Errorf("stop %d: unknown window kind %v", win.StopNumber, win.Kind)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON writes the windows as an indented JSON array.
func WriteJSON(w io.Writer, windows []predict.Window) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(windows)
}

// center pads s with spaces to width, the extra space going right.
func center(s string, width int) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}
