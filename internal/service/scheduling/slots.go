package scheduling

import (
	"fmt"
	"iter"
	"time"
)

// slotGrid returns a lazy, restartable sequence of slot start times
// ("HH:MM") from start inclusive to end exclusive.
func slotGrid(startMinute, endMinute, stepMinutes int) iter.Seq[string] {
	return func(yield func(string) bool) {
		for m := startMinute; m < endMinute; m += stepMinutes {
			if !yield(fmt.Sprintf("%02d:%02d", m/60, m%60)) {
				return
			}
		}
	}
}

// parseMinute converts a "HH:MM" clock value to minutes past midnight.
func parseMinute(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", clock, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
