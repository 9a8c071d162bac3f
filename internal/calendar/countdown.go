package calendar

import (
	"fmt"
	"time"
)

// Passed is the countdown label of an instant that is not in the future.
const Passed = "Passed"

// TimeUntil renders the compact countdown from now to instant using the largest unit pair.
func TimeUntil(instant, now time.Time) string {
	diff := instant.Sub(now)
	if diff <= 0 {
		return Passed
	}

	total := int64(diff / time.Second)
	s := total % 60
	m := (total / 60) % 60
	h := (total / 3600) % 24
	d := total / 86400

	switch {
	case d > 0:
		return fmt.Sprintf("%dd %dh", d, h)
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	default:
		return fmt.Sprintf("%dm %ds", m, s)
	}
}
