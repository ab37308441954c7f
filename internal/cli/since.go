// Package cli holds parsing helpers shared by command flags.
package cli

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// "2h", "30m ago", "1mo", "3w ago"
var agoPattern = regexp.MustCompile(`^(\d+)\s*(mo|w|d|h|m)(?:\s+ago)?$`)

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "weds": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseSince resolves a --since expression to the earliest instant it
// admits. Every form points at or before now:
//
//	2h, 30m ago, 1mo     a duration back from now
//	today, yesterday     the start of that day
//	monday, last fri     the start of the most recent such day
//	2023-11-14           the start of that date in now's location
//	RFC 3339             that instant
//	1700000000           Unix seconds, as the API reports created_at
func ParseSince(expr string, now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(expr)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty time expression")
	}
	input := strings.ToLower(raw)

	switch input {
	case "today":
		return midnight(now), nil
	case "yesterday":
		return midnight(now).AddDate(0, 0, -1), nil
	}
	if t, ok := lastWeekday(input, now); ok {
		return t, nil
	}
	if m := agoPattern.FindStringSubmatch(input); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return time.Time{}, fmt.Errorf("invalid relative time %q", raw)
		}
		return back(now, n, m[2]), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0), nil
	}
	return time.Time{}, fmt.Errorf("invalid time expression %q (try 2h, yesterday, 2023-11-14 or RFC 3339)", raw)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// lastWeekday finds the most recent day named by expr, today included
// unless prefixed with "last".
func lastWeekday(expr string, now time.Time) (time.Time, bool) {
	strict := false
	if rest, ok := strings.CutPrefix(expr, "last "); ok {
		strict = true
		expr = strings.TrimSpace(rest)
	}
	day, ok := weekdays[expr]
	if !ok {
		return time.Time{}, false
	}
	today := midnight(now)
	delta := (int(today.Weekday()) - int(day) + 7) % 7
	if strict && delta == 0 {
		delta = 7
	}
	return today.AddDate(0, 0, -delta), true
}

func back(now time.Time, n int, unit string) time.Time {
	switch unit {
	case "mo":
		return now.AddDate(0, -n, 0)
	case "w":
		return now.AddDate(0, 0, -7*n)
	case "d":
		return now.AddDate(0, 0, -n)
	case "h":
		return now.Add(-time.Duration(n) * time.Hour)
	default:
		return now.Add(-time.Duration(n) * time.Minute)
	}
}
