package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// datePattern pairs a layout regex with the group indexes of month, day, year.
type datePattern struct {
	re    *regexp.Regexp
	month int
	day   int
	year  int
}

var datePatterns = []datePattern{
	{re: regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`), month: 1, day: 2, year: 3},
	{re: regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`), month: 1, day: 2, year: 3},
	{re: regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`), month: 2, day: 3, year: 1},
	{re: regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`), month: 2, day: 3, year: 1},
	{re: regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`), month: 2, day: 3, year: 1},
	{re: regexp.MustCompile(`^(\d{2})(\d{2})(\d{4})$`), month: 1, day: 2, year: 3},
}

// NormalizeDate converts a date in any of the supported layouts to MM/DD/YYYY.
// Returns "" when the input does not parse as a real calendar date.
func NormalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(value)
		if m == nil {
			continue
		}
		month, _ := strconv.Atoi(m[p.month])
		day, _ := strconv.Atoi(m[p.day])
		year, _ := strconv.Atoi(m[p.year])

		// Day-first input shows itself when the first component exceeds 12.
		if p.month == 1 && month > 12 && day <= 12 {
			month, day = day, month
		}
		if !isValidCalendarDate(year, month, day) {
			continue
		}
		return fmt.Sprintf("%02d/%02d/%04d", month, day, year)
	}
	return ""
}

func isValidCalendarDate(year, month, day int) bool {
	if year < 1900 || year > 2100 || month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day && int(t.Month()) == month
}
