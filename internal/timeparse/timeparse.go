package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The portal writes timestamps in several loose shapes depending on which
// screen exported the table. Strategies are tried in order; the first match
// wins and no later shape is considered. An unmatched string is "unparseable",
// which callers must treat as unknown rather than as an error.

type strategy struct {
	pattern *regexp.Regexp
	build   func(m []string, ref time.Time) time.Time
}

var strategies = []strategy{
	// YYYY-MM-DD HH:MM[:SS] with ., / or - separators.
	{
		pattern: regexp.MustCompile(`^(\d{4})[./-](\d{1,2})[./-](\d{1,2})\s+(\d{1,2}):(\d{2})(?::(\d{2}))?$`),
		build: func(m []string, ref time.Time) time.Time {
			return time.Date(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]),
				atoi(m[4]), atoi(m[5]), atoi(m[6]), 0, ref.Location())
		},
	},
	// DD-MM-YY or DD-MM-YYYY HH:MM[:SS]; two-digit years are this century.
	{
		pattern: regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})[./-](\d{2}|\d{4})\s+(\d{1,2}):(\d{2})(?::(\d{2}))?$`),
		build: func(m []string, ref time.Time) time.Time {
			year := atoi(m[3])
			if year < 100 {
				year += 2000
			}
			return time.Date(year, time.Month(atoi(m[2])), atoi(m[1]),
				atoi(m[4]), atoi(m[5]), atoi(m[6]), 0, ref.Location())
		},
	},
	// Bare HH:MM[:SS], resolved against the reference date.
	{
		pattern: regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`),
		build: func(m []string, ref time.Time) time.Time {
			return time.Date(ref.Year(), ref.Month(), ref.Day(),
				atoi(m[1]), atoi(m[2]), atoi(m[3]), 0, ref.Location())
		},
	},
}

// Parse converts loosely formatted portal date/time text into an absolute
// timestamp. The reference time supplies the date for bare clock values and
// the location for all shapes. The second return value reports whether the
// text matched any known shape.
func Parse(text string, ref time.Time) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	for _, s := range strategies {
		m := s.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if !plausibleClock(m) {
			continue
		}
		return s.build(m, ref), true
	}
	return time.Time{}, false
}

// plausibleClock rejects matches whose trailing hour/minute fields cannot be a
// wall clock reading (e.g. "99:99"). Date fields are left to time.Date, which
// normalizes overflow the same way the portal's own renderer does.
func plausibleClock(m []string) bool {
	hour := atoi(m[len(m)-3])
	minute := atoi(m[len(m)-2])
	sec := atoi(m[len(m)-1])
	return hour < 24 && minute < 60 && sec < 60
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
