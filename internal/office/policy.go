package office

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock converts an "HH:MM" wall-clock string to a minute of day.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 24 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	total := hour*60 + minute
	if total > 24*60 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	return total, nil
}

// FormatClock renders a minute of day as "HH:MM".
func FormatClock(minuteOfDay int) string {
	return fmt.Sprintf("%02d:%02d", minuteOfDay/60, minuteOfDay%60)
}
