package twin

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the wire form of $lastUpdated.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

var timestampPattern = regexp.MustCompile(
	`^([+-]?\d{4,})-(\d{2})-(\d{2})T(\d{2}):(\d{2}):(\d{2})(?:\.(\d+))?(Z|[+-]\d{2}:\d{2})$`)

// ParseTimestamp reads an ISO-8601 timestamp as the hub writes it. Field
// values are not range-checked: out of range parts roll over the way
// time.Date normalizes them, so "0000-00-00T00:00:00.000Z" is accepted.
// Years may carry a sign and more than four digits, which is how
// FormatTimestamp renders years outside 0000-9999.
func ParseTimestamp(s string) (time.Time, error) {
	m := timestampPattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q is not an ISO-8601 timestamp", ErrFormat, s)
	}

	var parts [6]int
	for i := range parts {
		parts[i], _ = strconv.Atoi(m[i+1])
	}
	nanos := 0
	if frac := m[7]; frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		nanos, _ = strconv.Atoi(frac + strings.Repeat("0", 9-len(frac)))
	}

	t := time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], nanos, time.UTC)
	if zone := m[8]; zone != "Z" {
		hours, _ := strconv.Atoi(zone[1:3])
		minutes, _ := strconv.Atoi(zone[4:6])
		offset := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
		if zone[0] == '+' {
			t = t.Add(-offset)
		} else {
			t = t.Add(offset)
		}
	}
	return t, nil
}

// FormatTimestamp renders t in UTC with millisecond precision. The zero date
// normalizes to year -1 and is written as "-0001-11-30T00:00:00.000Z".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
