package utils

import (
	"fmt"
	"time"
)

// TimeToText returns an abbreviated text representation of a time period:
// "59 sec", "59 min", "1 hr", "1 hr 12 min".
// Minutes are reported next to hours only under four hours.
func TimeToText(d time.Duration) string {
	seconds := int64(d.Seconds())
	switch {
	case seconds >= 3600:
		mins := (seconds % 3600) / 60
		if seconds < 14400 && mins > 10 {
			return fmt.Sprintf("%d hr %d min", seconds/3600, mins)
		}
		return fmt.Sprintf("%d hr", seconds/3600)
	case seconds >= 60:
		return fmt.Sprintf("%d min", seconds/60)
	default:
		return fmt.Sprintf("%d sec", seconds)
	}
}
