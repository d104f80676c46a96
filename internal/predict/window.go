package predict

import (
	"fmt"

	"arrival-windows/internal/timecodec"
)

// Kind tags which shape an ArrivalWindow has.
type Kind int

const (
	// KindResolved is a stop with an observed arrival; Range.Min == Range.Max.
	KindResolved Kind = iota + 1
	// KindNormal is a single min/max window in Range.
	KindNormal
	// KindSkipped is a bypassed stop carrying both Return and Continue.
	KindSkipped
)

func (k Kind) String() string {
	switch k {
	case KindResolved:
		return "resolved"
	case KindNormal:
		return "normal"
	case KindSkipped:
		return "skipped"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Range is a displayable [min, max] arrival interval plus the minute values
// it was formatted from.
type Range struct {
	Min        string `json:"min"`
	Max        string `json:"max"`
	MinMinutes int    `json:"minMinutes"`
	MaxMinutes int    `json:"maxMinutes"`
}

// Available is false for the sentinel returned when a skipped stop has no
// following stop to detour from.
func (r Range) Available() bool {
	return r.Min != timecodec.NotAvailable
}

func notAvailable() Range {
	return Range{Min: timecodec.NotAvailable, Max: timecodec.NotAvailable}
}

func newRange(lo, hi int) Range {
	return Range{
		Min:        timecodec.FormatTime(lo),
		Max:        timecodec.FormatTime(hi),
		MinMinutes: lo,
		MaxMinutes: hi,
	}
}

// Window is the arrival prediction for one stop. Range is set for resolved
// and normal stops; Return and Continue are set for skipped stops.
type Window struct {
	StopNumber int   `json:"stopNumber"`
	Kind       Kind  `json:"kind"`
	Range      Range `json:"range,omitzero"`
	Return     Range `json:"return,omitzero"`
	Continue   Range `json:"continue,omitzero"`
}
