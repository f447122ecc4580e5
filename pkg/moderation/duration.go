package moderation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hako/durafmt"
)

var durationToken = regexp.MustCompile(`(?i)(\d+)([smhdw])`)

var unitSeconds = map[string]int64{
	"s": 1,
	"m": 60,
	"h": 3600,
	"d": 86400,
	"w": 604800,
}

// maxSeconds keeps the total representable as a time.Duration
const maxSeconds = math.MaxInt64 / int64(time.Second)

// ParseDuration parses compound durations such as "1d2h30m".
// Unrecognised text is skipped; ok is false when nothing adds up to a
// positive duration.
func ParseDuration(text string) (time.Duration, bool) {
	if strings.TrimSpace(text) == "" {
		return 0, false
	}

	var total int64
	for _, m := range durationToken.FindAllStringSubmatch(text, -1) {
		value, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		unit := unitSeconds[strings.ToLower(m[2])]
		if value > (maxSeconds-total)/unit {
			continue
		}
		total += value * unit
	}

	if total <= 0 {
		return 0, false
	}
	return time.Duration(total) * time.Second, true
}

// FormatDuration renders a human readable label, "Permanent" for zero.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "Permanent"
	}
	return durafmt.Parse(d.Truncate(time.Second)).String()
}

// FormatSeconds is FormatDuration for durations stored as seconds
func FormatSeconds(seconds int64) string {
	return FormatDuration(time.Duration(seconds) * time.Second)
}
