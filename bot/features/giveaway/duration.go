package giveaway

import (
	"fmt"
	"strings"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"
)

// ParseDuration parses a giveaway duration such as "30m", "6h", "2d" or "1d12h".
// Bounds are enforced by the giveaway service.
func ParseDuration(input string) (time.Duration, error) {
	s := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(input), " ", ""))
	if s == "" {
		return 0, fmt.Errorf("duration is empty")
	}

	d, err := str2duration.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", input, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}
	return d, nil
}

// FormatDuration renders a duration back in the form ParseDuration accepts
func FormatDuration(d time.Duration) string {
	return str2duration.String(d)
}
