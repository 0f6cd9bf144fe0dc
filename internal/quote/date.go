package quote

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// ErrInvalidDate is returned by [ParseDate] for input that is neither the
// "today" sentinel nor a zero-padded dd.mm.yyyy date.
var ErrInvalidDate = errors.New(`quote: date must be dd.mm.yyyy or "today"`)

// dateLayout is the single user-facing date form. No locale variants.
const dateLayout = "02.01.2006"

// datePattern enforces the zero-padded shape before time.Parse sees the
// input; time.Parse alone would also accept "2.1.2006".
var datePattern = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)

// todaySentinels are the accepted "today" spellings, compared after
// trimming and lowercasing. The decorated form matches the quick-reply
// button label.
var todaySentinels = map[string]bool{
	"today":    true,
	"📅 today": true,
}

// ParseDate converts user input into a calendar date. The sentinel maps to
// the current date; everything else must match dd.mm.yyyy exactly.
// There is no partial parsing: "2005-06-25" or "32.13.2005" fail with
// [ErrInvalidDate].
func ParseDate(input string) (time.Time, error) {
	if todaySentinels[strings.ToLower(strings.TrimSpace(input))] {
		return time.Now(), nil
	}

	trimmed := strings.TrimSpace(input)
	if !datePattern.MatchString(trimmed) {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.Parse(dateLayout, trimmed)
	if err != nil {
		// Right shape, impossible calendar date (32.13.2005).
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FormatDate renders a date in the canonical zero-padded dd.mm.yyyy form.
// FormatDate(ParseDate(s)) == s for explicit dates; the sentinel is
// deliberately asymmetric.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
