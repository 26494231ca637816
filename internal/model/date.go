package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage form of a calendar date.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned when a value cannot be read as a calendar date.
var ErrInvalidDate = errors.New("invalid date")

// Date is a calendar date without a time of day, stored as YYYY-MM-DD.
type Date string

// ParseDate validates s and returns it as a Date. A full timestamp, with
// a 'T' or a space before the time, is accepted and truncated to its date
// part, since some backends serialize date columns with a trailing time.
// Any other trailing text is rejected.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	day := s
	if len(s) > len(DateLayout) {
		if sep := s[len(DateLayout)]; sep != 'T' && sep != ' ' {
			return "", fmt.Errorf("%w %q: unexpected text after date", ErrInvalidDate, s)
		}
		if _, err := ParseTimestamp(s); err != nil {
			return "", fmt.Errorf("%w %q: %v", ErrInvalidDate, s, err)
		}
		day = s[:len(DateLayout)]
	}
	if _, err := time.Parse(DateLayout, day); err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidDate, s, err)
	}
	return Date(day), nil
}

// MustDate is ParseDate for literals known to be valid.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// String implements fmt.Stringer.
func (d Date) String() string { return string(d) }

// At returns the instant at hour:minute on d in loc.
func (d Date) At(hour, minute int, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, string(d), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrInvalidDate, d, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, loc), nil
}

// AddDays returns the date n calendar days after d. An invalid d is
// returned unchanged.
func (d Date) AddDays(n int) Date {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return d
	}
	return DateOf(t.AddDate(0, 0, n))
}

// UnmarshalJSON accepts a date string, a timestamp string, or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(data))
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner. DATE columns arrive as time.Time from
// drivers that parse them and as text from those that don't.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = DateOf(v)
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
	default:
		return fmt.Errorf("%w: scanning from %T", ErrInvalidDate, src)
	}
	return nil
}

// Value implements driver.Valuer. The zero Date is stored as NULL.
func (d Date) Value() (driver.Value, error) {
	if d == "" {
		return nil, nil
	}
	return string(d), nil
}
