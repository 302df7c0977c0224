package ledger

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The export writes dates as "02/Ene/2025" with Spanish month
// abbreviations. Hyphen-separated and single-digit-day variants appear in
// older exports of the same report.
var dateCellPattern = regexp.MustCompile(`^(\d{1,2})[/-]([A-Za-zÁ-ú]{3})[/-](\d{4})$`)

var spanishMonths = map[string]time.Month{
	"ene": time.January,
	"feb": time.February,
	"mar": time.March,
	"abr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"ago": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dic": time.December,
}

// looksLikeDate reports whether a cell matches the movement-row date shape.
// A matching cell may still hold an invalid date; see parseDate.
func looksLikeDate(s string) bool {
	return dateCellPattern.MatchString(s)
}

// parseDate converts a date cell to a time.Time. Unknown month
// abbreviations and out-of-range day/year come back as the zero time; the
// movement row is still kept.
func parseDate(s string) time.Time {
	m := dateCellPattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}
	}
	day, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}
	}
	month, ok := spanishMonths[strings.ToLower(m[2])]
	if !ok {
		return time.Time{}
	}
	year, err := strconv.Atoi(m[3])
	if err != nil {
		return time.Time{}
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (e.g. 31/Feb); reject anything that moved.
	if t.Day() != day || t.Month() != month || t.Year() != year {
		return time.Time{}
	}
	return t
}
