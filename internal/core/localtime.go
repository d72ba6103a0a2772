package core

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"
)

// LocalTimeLayout is the wire format of an expense date: a wall-clock
// timestamp without zone information.
const LocalTimeLayout = "2006-01-02T15:04:05"

var localTimeInputLayouts = []string{
	LocalTimeLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var ErrInvalidDate = errors.New("invalid date")

// LocalTime is a wall-clock timestamp. It is always interpreted in
// time.Local; any zone offset present in the input is dropped and the
// clock reading kept.
type LocalTime struct {
	time.Time
}

// NewLocalTime builds a LocalTime from calendar fields in time.Local.
func NewLocalTime(year int, month time.Month, day, hour, min, sec int) LocalTime {
	return LocalTime{Time: time.Date(year, month, day, hour, min, sec, 0, time.Local)}
}

// AsLocal keeps the clock reading of t and moves it to time.Local.
func AsLocal(t time.Time) LocalTime {
	return LocalTime{Time: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local)}
}

// ParseLocalTime accepts the datetime-local input format, the full
// second-precision format, a bare date and RFC 3339.
func ParseLocalTime(s string) (LocalTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return LocalTime{}, ErrInvalidDate
	}
	for _, layout := range localTimeInputLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return LocalTime{Time: t}, nil
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return AsLocal(t), nil
	}
	return LocalTime{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (t LocalTime) String() string {
	if t.IsZero() {
		return ""
	}
	return t.Format(LocalTimeLayout)
}

func (t LocalTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.Format(LocalTimeLayout) + `"`), nil
}

func (t *LocalTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		*t = LocalTime{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrInvalidDate, data)
	}
	parsed, err := ParseLocalTime(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// SameMonth reports whether t falls in the given calendar month.
func (t LocalTime) SameMonth(year int, month time.Month) bool {
	return t.Year() == year && t.Month() == month
}
