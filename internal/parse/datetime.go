package parse

import (
	"strconv"
	"sync"
	"time"
)

// The remote API reports text timestamps in its home time zone, not UTC.
// Epoch-second timestamps are UTC as usual.
var referenceZone = sync.OnceValue(func() *time.Location {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		// No tzdata on this host; Moscow has been UTC+3 year-round since 2014.
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
})

// ReferenceZone returns the fixed zone text timestamps are interpreted in.
func ReferenceZone() *time.Location {
	return referenceZone()
}

// ParseRemoteTime converts a raw remote value into a timestamp.
//
// Two accepted shapes:
//   - Text of exactly 19 ("2006-01-02T15:04:05"), 16, or 10 characters,
//     parsed positionally and interpreted in the reference zone. A parsed
//     year of 1970 is a zero-epoch sentinel masquerading as a date and is
//     rejected.
//   - Anything else is treated as positive epoch seconds (UTC). Zero and
//     negative counts are rejected.
//
// Returns ok=false on any failure; callers null the field rather than abort.
func ParseRemoteTime(v any) (time.Time, bool) {
	if s, isText := v.(string); isText && len(s) >= 10 {
		return parseTextTimestamp(s)
	}

	sec, ok := toEpochSeconds(v)
	if !ok || sec <= 0 {
		return time.Time{}, false
	}
	return time.Unix(sec, 0).UTC(), true
}

// parseTextTimestamp parses year/month/day[/hour/minute[/second]] from the
// fixed character positions of a 19-, 16-, or 10-character timestamp.
func parseTextTimestamp(s string) (time.Time, bool) {
	if len(s) != 19 && len(s) != 16 && len(s) != 10 {
		return time.Time{}, false
	}

	year, ok := atoi(s[0:4])
	if !ok {
		return time.Time{}, false
	}
	month, ok := atoi(s[5:7])
	if !ok {
		return time.Time{}, false
	}
	day, ok := atoi(s[8:10])
	if !ok {
		return time.Time{}, false
	}

	var hour, minute, second int
	if len(s) >= 16 {
		if hour, ok = atoi(s[11:13]); !ok {
			return time.Time{}, false
		}
		if minute, ok = atoi(s[14:16]); !ok {
			return time.Time{}, false
		}
	}
	if len(s) == 19 {
		if second, ok = atoi(s[17:19]); !ok {
			return time.Time{}, false
		}
	}

	// time.Date would silently normalize out-of-range components.
	if month < 1 || month > 12 || day < 1 || day > 31 ||
		hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}

	if year == 1970 {
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, referenceZone()), true
}

// toEpochSeconds converts numeric and numeric-text values to int64 seconds.
func toEpochSeconds(v any) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	case float64:
		return int64(val), true
	case string:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
