package correlation

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar-date format accepted in queries.
const DateLayout = "2006-01-02"

var (
	// ErrBadDate is returned when a date string does not parse.
	ErrBadDate = errors.New("unable to parse date")

	// ErrInvalidRange is returned when the range bounds are reversed.
	ErrInvalidRange = errors.New("to date is before from date")
)

// ParseDateRange parses user-supplied date strings into an inclusive day
// range. When toStr is empty the range defaults to [from, from+1 day].
// Reversed bounds are rejected, never swapped.
func ParseDateRange(fromStr, toStr string) (DateRange, error) {
	from, err := time.ParseInLocation(DateLayout, fromStr, time.UTC)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: from %q", ErrBadDate, fromStr)
	}

	var to time.Time
	if toStr == "" {
		to = from.AddDate(0, 0, 1)
	} else {
		to, err = time.ParseInLocation(DateLayout, toStr, time.UTC)
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: to %q", ErrBadDate, toStr)
		}
	}

	if from.After(to) {
		return DateRange{}, ErrInvalidRange
	}

	return DateRange{From: from, To: to}, nil
}
