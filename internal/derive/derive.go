// Package derive computes read-only fields from raw step input: decimal
// coordinates from degrees/minutes/seconds, interval lengths from bounds,
// and threshold classifications. Everything here is pure and synchronous.
package derive

import (
	"math"
	"strings"
)

// decimalPlaces is the precision decimal degrees are rounded to.
const decimalPlaces = 8

// DecimalDegrees converts degrees/minutes/seconds to decimal degrees,
// rounded to 8 places. Negative degrees, -0 included, keep their sign
// across the minute/second part: -29°45' is -29.75.
func DecimalDegrees(degrees, minutes, seconds float64) float64 {
	frac := (minutes + seconds/60) / 60
	if degrees < 0 || (degrees == 0 && math.Signbit(degrees)) {
		return round(degrees-frac, decimalPlaces)
	}
	return round(degrees+frac, decimalPlaces)
}

// IntervalLength returns to - from.
func IntervalLength(from, to float64) float64 {
	return to - from
}

// Classify places value into below when value <= cutoff, otherwise above.
func Classify(value, cutoff float64, below, above string) string {
	if value <= cutoff {
		return below
	}
	return above
}

// southOrWest reports whether a hemisphere marker flips the sign.
func southOrWest(h string) bool {
	switch strings.ToUpper(strings.TrimSpace(h)) {
	case "S", "W", "SOUTH", "WEST":
		return true
	}
	return false
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
