// Package timecodec converts between "HH:MM" clock strings and minutes since
// midnight.
package timecodec

import (
	"errors"
	"fmt"
	"strconv"
)

// MinutesPerDay is the length of a service day in minutes.
const MinutesPerDay = 24 * 60

// NotAvailable is displayed in place of a time that cannot be computed.
const NotAvailable = "N/A"

// ErrFormat is returned for malformed time strings.
var ErrFormat = errors.New("malformed time")

// ParseTime parses a 24-hour "HH:MM" string into minutes since midnight.
func ParseTime(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q: want HH:MM", ErrFormat, s)
	}
	h, err := parseField(s[:2])
	if err != nil || h > 23 {
		return 0, fmt.Errorf("%w: %q: hour must be 00-23", ErrFormat, s)
	}
	m, err := parseField(s[3:])
	if err != nil || m > 59 {
		return 0, fmt.Errorf("%w: %q: minute must be 00-59", ErrFormat, s)
	}
	return h*60 + m, nil
}

func parseField(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("non-digit %q", s[i])
		}
	}
	return strconv.Atoi(s)
}

// FormatTime renders minutes as a 12-hour "HH:MM AM|PM" string. The hour
// wraps through (minutes/60)%24 and the minute is minutes%60, both with floor
// semantics, so negative values and values past midnight still render a
// clock time. Hours 0 and 12 display as 12.
func FormatTime(minutes int) string {
	h24 := floorMod(floorDiv(minutes, 60), 24)
	suffix := "AM"
	if h24 >= 12 {
		suffix = "PM"
	}
	h12 := h24 % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%02d:%02d %s", h12, floorMod(minutes, 60), suffix)
}

// Format24h renders minutes as "HH:MM" reduced modulo one day, the inverse of
// ParseTime.
func Format24h(minutes int) string {
	m := floorMod(minutes, MinutesPerDay)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}
