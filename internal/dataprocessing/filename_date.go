package dataprocessing

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// day number immediately followed by a month token and an optional year,
	// e.g. "_27Nov.xlsx", "3septiembre" or "27Nov2024"
	dayMonthPattern = regexp.MustCompile(`(?i)(\d{1,2})([a-zñ]{3,})(?:[-_ ]?(\d{4}))?`)
	// YYYY-MM-DD, YYYYMMDD or YYYY_MM_DD
	isoDatePattern = regexp.MustCompile(`(\d{4})[-_]?(\d{2})[-_]?(\d{2})`)
)

// monthTokens maps lowercase English and Spanish month names and
// abbreviations to their month number.
var monthTokens = map[string]time.Month{
	"ene": time.January, "jan": time.January, "enero": time.January, "january": time.January,
	"feb": time.February, "febrero": time.February, "february": time.February,
	"mar": time.March, "marzo": time.March, "march": time.March,
	"abr": time.April, "apr": time.April, "abril": time.April, "april": time.April,
	"may": time.May, "mayo": time.May,
	"jun": time.June, "junio": time.June, "june": time.June,
	"jul": time.July, "julio": time.July, "july": time.July,
	"ago": time.August, "aug": time.August, "agosto": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "septiembre": time.September,
	"setiembre": time.September, "september": time.September,
	"oct": time.October, "octubre": time.October, "october": time.October,
	"nov": time.November, "noviembre": time.November, "november": time.November,
	"dic": time.December, "dec": time.December, "diciembre": time.December, "december": time.December,
}

// DateExtractor pulls a survey cutoff date out of a file name.
type DateExtractor struct {
	now func() time.Time
}

// NewDateExtractor returns an extractor whose year default comes from the
// wall clock.
func NewDateExtractor() *DateExtractor {
	return &DateExtractor{now: time.Now}
}

// NewDateExtractorWithClock is used by tests and the CLI to pin the year.
func NewDateExtractorWithClock(now func() time.Time) *DateExtractor {
	if now == nil {
		now = time.Now
	}
	return &DateExtractor{now: now}
}

// Extract returns the cutoff date encoded in name as a UTC date. The
// day+month form is tried first and takes the year written after the month,
// or the current year when there is none; the numeric year-month-day form is
// the fallback.
func (e *DateExtractor) Extract(name string) (time.Time, bool) {
	base := strings.TrimSuffix(name, extOf(name))

	for _, m := range dayMonthPattern.FindAllStringSubmatch(base, -1) {
		month, ok := lookupMonth(m[2])
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		year := e.now().Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		if d, ok := makeDate(year, month, day); ok {
			return d, true
		}
		// invalid day for the month, fall through to the numeric form
		break
	}

	if m := isoDatePattern.FindStringSubmatch(name); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if month >= 1 && month <= 12 {
			if d, ok := makeDate(year, time.Month(month), day); ok {
				return d, true
			}
		}
	}

	return time.Time{}, false
}

// lookupMonth matches the longest known month name at the start of token,
// so "novfinal" and "noviembre" both resolve.
func lookupMonth(token string) (time.Month, bool) {
	token = strings.ToLower(token)
	if m, ok := monthTokens[token]; ok {
		return m, true
	}
	for n := len(token) - 1; n >= 3; n-- {
		if m, ok := monthTokens[token[:n]]; ok {
			return m, true
		}
	}
	return 0, false
}

// makeDate rejects combinations that time.Date would silently normalize.
func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Month() != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func extOf(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}

// TruncateDate strips the clock part of t, keeping the calendar date in UTC.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
