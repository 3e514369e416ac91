package models

import (
	"fmt"
	"regexp"
	"time"
)

// WeekDateLayout is the layout of week keys
const WeekDateLayout = "2006-01-02"

var weekDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateWeekDate checks that key is a real calendar date in YYYY-MM-DD form
func ValidateWeekDate(key string) error {
	if !weekDatePattern.MatchString(key) {
		return fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, key)
	}
	if _, err := time.Parse(WeekDateLayout, key); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidDate, key, err)
	}
	return nil
}

// ParseWeekDate parses a validated week key
func ParseWeekDate(key string) (time.Time, error) {
	if err := ValidateWeekDate(key); err != nil {
		return time.Time{}, err
	}
	return time.Parse(WeekDateLayout, key)
}

// FormatWeekDate renders t as a week key
func FormatWeekDate(t time.Time) string {
	return t.Format(WeekDateLayout)
}
