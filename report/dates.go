package report

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DateLayout is the layout of Record.Date.
const DateLayout = "2006-01-02"

// Today returns today's date in DateLayout.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// parseDay reads a report date at midday, which keeps the weekday stable
// across timezones.
func parseDay(date string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, false
	}
	return t.Add(12 * time.Hour), true
}

// FormatDate renders a date as "Monday, 02 January 2006". Empty dates
// render as N/A; unparseable dates are returned unchanged.
func FormatDate(date string) string {
	if date == "" {
		return "N/A"
	}
	t, ok := parseDay(date)
	if !ok {
		return date
	}
	return t.Format("Monday, 02 January 2006")
}

// FormatDateShort renders a date as "Mon, 02 Jan".
func FormatDateShort(date string) string {
	if date == "" {
		return "N/A"
	}
	t, ok := parseDay(date)
	if !ok {
		return date
	}
	return t.Format("Mon, 02 Jan")
}

var dateParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseDate accepts YYYY-MM-DD or a natural-language day ("today",
// "yesterday", "last friday") relative to now, and returns DateLayout.
// The natural-language form must cover the whole input.
func ParseDate(input string, now time.Time) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrInvalidDate
	}
	if t, err := time.Parse(DateLayout, input); err == nil {
		return t.Format(DateLayout), nil
	}
	res, err := dateParser.Parse(input, now)
	if err != nil || res == nil || res.Index != 0 || len(res.Text) != len(input) {
		return "", &DateError{Input: input}
	}
	return res.Time.Format(DateLayout), nil
}
