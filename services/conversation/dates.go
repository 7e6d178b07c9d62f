package conversation

import (
	"regexp"
	"time"

	"concierge/models"
)

// dateTokenRe matches day.month with an optional year and an optional
// trailing dot ("12.7.", "31.12.2026").
var dateTokenRe = regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})(?:\.(\d{2,4}))?\.?`)

// stripDateTokens removes date-like tokens so their digits cannot be
// mistaken for a party size afterwards.
func stripDateTokens(text string) string {
	return dateTokenRe.ReplaceAllString(text, " ")
}

// parseDateRange extracts a check-in/check-out pair from normalized text.
// Numeric day.month pairs win over human phrases; a pair is discarded unless
// both tokens parse to valid calendar dates. Returns nil when no range is
// found.
func parseDateRange(text string, loc *Locale, now time.Time) *models.DateRange {
	if r := parseNumericRange(text, now); r != nil {
		return r
	}
	if containsAny(text, loc.NewYearPhrases) {
		return newYearRange(now)
	}
	if containsAny(text, loc.WeekendWords) {
		return weekendRange(now)
	}
	return nil
}

func parseNumericRange(text string, now time.Time) *models.DateRange {
	matches := dateTokenRe.FindAllStringSubmatch(text, 2)
	if len(matches) < 2 {
		return nil
	}

	start, ok := parseDayMonth(matches[0], now)
	if !ok {
		return nil
	}
	end, ok := parseDayMonth(matches[1], now)
	if !ok {
		return nil
	}
	// A range ending before it starts crosses a year boundary.
	if end.Before(start) {
		end = end.AddDate(1, 0, 0)
	}
	return &models.DateRange{Start: start, End: end}
}

func parseDayMonth(m []string, now time.Time) (time.Time, bool) {
	day := atoi(m[1])
	month := atoi(m[2])
	year := now.Year()
	if m[3] != "" {
		year = atoi(m[3])
		if year < 100 {
			year += 2000
		}
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date silently rolls over invalid inputs (32.1. becomes 1.2.);
	// a changed component means the original was not a real calendar date.
	if d.Day() != day || int(d.Month()) != month {
		return time.Time{}, false
	}
	// Without an explicit year, a date already far in the past means next year.
	if m[3] == "" && d.Before(now.AddDate(0, 0, -1)) {
		d = d.AddDate(1, 0, 0)
	}
	return d, true
}

// weekendRange resolves "weekend" to the upcoming Friday through Sunday.
func weekendRange(now time.Time) *models.DateRange {
	day := int(now.Weekday())
	diffToFriday := (int(time.Friday) - day + 7) % 7
	friday := truncateDay(now).AddDate(0, 0, diffToFriday)
	return &models.DateRange{Start: friday, End: friday.AddDate(0, 0, 2)}
}

// newYearRange resolves "new year" to the next Dec 31 – Jan 2 window.
func newYearRange(now time.Time) *models.DateRange {
	start := time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	if start.Before(truncateDay(now)) {
		start = start.AddDate(1, 0, 0)
	}
	return &models.DateRange{Start: start, End: start.AddDate(0, 0, 2)}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
