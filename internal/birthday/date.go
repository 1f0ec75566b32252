// Package birthday parses and validates the arguments of the birthday commands.
package birthday

import (
	"fmt"
	"regexp"
	"strconv"
)

var datePattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/(0[1-9]|[12]\d|3[01])$`)

// daysInMonth holds the maximum day per month. February allows 29 since no
// year is recorded.
var daysInMonth = [12]int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Date is a month/day pair without a year.
type Date struct {
	Month int
	Day   int
}

// String formats the date as zero-padded MM/DD.
func (d Date) String() string {
	return fmt.Sprintf("%02d/%02d", d.Month, d.Day)
}

// MaxDay returns the last valid day of month (1-12), or 0 if month is out of range.
func MaxDay(month int) int {
	if month < 1 || month > 12 {
		return 0
	}
	return daysInMonth[month-1]
}

// ParseDate validates a strict MM/DD string. Leading zeros are required and
// no surrounding text is allowed. It fails with ErrBadFormat or
// ErrDayOutOfRange, never both.
func ParseDate(input string) (Date, error) {
	m := datePattern.FindStringSubmatch(input)
	if m == nil {
		return Date{}, ErrBadFormat
	}

	// The pattern guarantees both groups are two digits.
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])

	if day > MaxDay(month) {
		return Date{}, ErrDayOutOfRange
	}
	return Date{Month: month, Day: day}, nil
}
