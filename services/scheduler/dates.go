package scheduler

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/teambition/rrule-go"
)

const dateLayout = "2006-01-02"

var absoluteDateLayouts = []string{
	dateLayout,
	"2006-1-2",
	"2006/01/02",
	"2006/1/2",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
}

var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04PM",
	"3:04 PM",
	"3PM",
	"3 PM",
}

// numericDate matches all-digit dates such as 2024-02-30 or 12/25/2024.
// When none of the absolute layouts accepts one, it is an impossible
// calendar date rather than a relative expression.
var numericDate = regexp.MustCompile(`^\d{1,4}[-/.]\d{1,2}[-/.]\d{1,4}$`)

var relativeDates = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseDate accepts absolute dates and relative expressions such as
// "tomorrow" or "next Monday", resolved against now. The result is
// midnight UTC of the calendar day.
func ParseDate(expr string, now time.Time) (time.Time, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrInvalidDate)
	}

	for _, layout := range absoluteDateLayouts {
		if t, err := time.Parse(layout, expr); err == nil {
			return dayOf(t), nil
		}
	}

	if numericDate.MatchString(expr) {
		return time.Time{}, fmt.Errorf("%w %q: no such calendar day", ErrInvalidDate, expr)
	}

	r, err := relativeDates.Parse(expr, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrInvalidDate, expr, err)
	}
	if r == nil || !coversInput(expr, r.Text) {
		return time.Time{}, fmt.Errorf("%w %q", ErrInvalidDate, expr)
	}
	return dayOf(r.Time), nil
}

// coversInput reports whether the matched text accounts for every letter
// and digit of expr, so that "banana tomorrow kiwi" is not read as tomorrow.
func coversInput(expr, matched string) bool {
	m := strings.ToLower(strings.TrimFunc(matched, notAlnum))
	if m == "" {
		return false
	}
	lower := strings.ToLower(expr)
	i := strings.Index(lower, m)
	if i < 0 {
		return false
	}
	rest := lower[:i] + lower[i+len(m):]
	return !strings.ContainsFunc(rest, isAlnum)
}

func isAlnum(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }

func notAlnum(r rune) bool { return !isAlnum(r) }

// NormalizeTime returns the clock time as HH:MM.
func NormalizeTime(expr string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(expr))
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrInvalidTime, expr)
}

// expandDays returns days consecutive calendar days starting at start.
func expandDays(start time.Time, days int) ([]time.Time, error) {
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Count:   days,
		Dtstart: start,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to expand %d days from %s: %w", days, start.Format(dateLayout), err)
	}
	return r.All(), nil
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
