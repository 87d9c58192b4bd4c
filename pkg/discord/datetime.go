package discord

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"ctfbot/internal/domain"
	"ctfbot/pkg/tz"
)

// DateRangeFormat is shown to organizers when a date range does not parse.
const DateRangeFormat = "Sat, 21 June 2025, 12:30 IST — Sun, 22 June 2025, 12:30 IST"

// Em dash, en dash or hyphen.
var dateRangeSeparator = regexp.MustCompile(`[—–-]`)

var dateLayouts = []string{
	"Mon, 2 January 2006, 15:04",
	"Mon, 2 Jan 2006, 15:04",
	"Mon 2 January 2006 15:04",
	"2 January 2006, 15:04",
	"2 Jan 2006, 15:04",
	"2 January 2006 15:04",
	"02/01/2006 15:04",
}

// ParseDateRange parses "<start> – <end>", each side a local date-time in IST,
// and returns both instants in UTC. The error wraps domain.ErrInvalidDateRange.
func ParseDateRange(s string) (start, end time.Time, err error) {
	parts := dateRangeSeparator.Split(s, -1)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: expected exactly one dash between start and end, got %d part(s)", domain.ErrInvalidDateRange, len(parts))
	}
	start, err = ParseEventDateTime(parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start: %v", domain.ErrInvalidDateRange, err)
	}
	end, err = ParseEventDateTime(parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end: %v", domain.ErrInvalidDateRange, err)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end must be after start", domain.ErrInvalidDateRange)
	}
	return start, end, nil
}

// ParseEventDateTime parses one side of a range in IST; a trailing "IST" is
// optional. The result is in UTC.
func ParseEventDateTime(s string) (time.Time, error) {
	s = strings.Join(strings.Fields(s), " ")
	if rest, ok := cutSuffixFold(s, " IST"); ok {
		s = strings.TrimSpace(rest)
	}
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, tz.IST); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot read %q (expected e.g. %q)", s, "Sat, 21 June 2025, 12:30 IST")
}

func cutSuffixFold(s, suffix string) (string, bool) {
	if len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix) {
		return s[:len(s)-len(suffix)], true
	}
	return s, false
}

// FormatEventDateTime renders t in IST for members.
func FormatEventDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(tz.IST).Format("Mon, 2 Jan 2006, 15:04 MST")
}

// FormatLead renders a lead time compactly: "30 min", "2 h", "1 h 15 min".
// Seconds are dropped.
func FormatLead(d time.Duration) string {
	d = d.Truncate(time.Minute)
	h, m := int(d/time.Hour), int(d%time.Hour/time.Minute)
	switch {
	case h == 0:
		return fmt.Sprintf("%d min", m)
	case m == 0:
		return fmt.Sprintf("%d h", h)
	default:
		return fmt.Sprintf("%d h %d min", h, m)
	}
}
