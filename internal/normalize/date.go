package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var (
	isoDateRegex  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	epochRegex    = regexp.MustCompile(`^\d{12,13}$`)
	relativeRegex = regexp.MustCompile(`(?i)(\d+)\s*(minute|hour|day|week|month|year)s?\s+ago`)
)

// EpochMillis formats a unix millisecond timestamp as a UTC date. Zero or
// negative values yield "".
func EpochMillis(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(dateLayout)
}

// PostedDate normalizes a posting date relative to now. It understands
// epoch milliseconds, ISO dates, dd/mm/yyyy and "N units ago" strings
// (optionally prefixed with "Reposted"). Anything else yields "".
func PostedDate(raw string, now time.Time) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	//Case 1: epoch millis
	if epochRegex.MatchString(raw) {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			return EpochMillis(ms)
		}
	}

	//Case 2: ISO format "2026-01-27" or 2026-01-27T...
	if isoDateRegex.MatchString(raw) {
		if d, err := time.Parse(dateLayout, raw[:10]); err == nil {
			return d.Format(dateLayout)
		}
	}

	//Case 3: dd/mm/yyyy
	if parts := strings.Split(raw, "/"); len(parts) == 3 {
		day, errD := strconv.Atoi(parts[0])
		month, errM := strconv.Atoi(parts[1])
		year, errY := strconv.Atoi(parts[2])
		if errD == nil && errM == nil && errY == nil {
			d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
			//time.Date rolls 31/02 over into March
			if d.Day() != day || int(d.Month()) != month || d.Year() != year {
				return ""
			}
			return d.Format(dateLayout)
		}
	}

	//Case 4: relative "3 weeks ago"
	if m := relativeRegex.FindStringSubmatch(raw); m != nil {
		n, _ := strconv.Atoi(m[1])
		now = now.UTC()
		var d time.Time
		switch strings.ToLower(m[2]) {
		case "minute":
			d = now.Add(-time.Duration(n) * time.Minute)
		case "hour":
			d = now.Add(-time.Duration(n) * time.Hour)
		case "day":
			d = now.AddDate(0, 0, -n)
		case "week":
			d = now.AddDate(0, 0, -7*n)
		case "month":
			d = now.AddDate(0, -n, 0)
		case "year":
			d = now.AddDate(-n, 0, 0)
		}
		return d.Format(dateLayout)
	}

	return ""
}
