package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

var weekdays = map[Weekday]time.Weekday{
	Sunday:    time.Sunday,
	Monday:    time.Monday,
	Tuesday:   time.Tuesday,
	Wednesday: time.Wednesday,
	Thursday:  time.Thursday,
	Friday:    time.Friday,
	Saturday:  time.Saturday,
}

// ParseWeekday accepts weekday names in any letter case.
func ParseWeekday(s string) (Weekday, error) {
	d := Weekday(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := weekdays[d]; !ok {
		return "", fmt.Errorf("unknown weekday %q", s)
	}

	return d, nil
}

func WeekdayOf(t time.Time) Weekday {
	return Weekday(strings.ToLower(t.Weekday().String()))
}

func (d Weekday) Time() time.Weekday {
	return weekdays[d]
}

func (d Weekday) Valid() bool {
	_, ok := weekdays[d]
	return ok
}

// Weekdays is stored as a postgres text[].
type Weekdays []Weekday

func (w Weekdays) Contains(d Weekday) bool {
	for _, v := range w {
		if v == d {
			return true
		}
	}

	return false
}

func (w Weekdays) Value() (driver.Value, error) {
	s := make([]string, len(w))
	for i, d := range w {
		s[i] = string(d)
	}

	return pq.Array(s).Value()
}

func (w *Weekdays) Scan(src any) error {
	var s pq.StringArray
	if err := s.Scan(src); err != nil {
		return fmt.Errorf("scan weekdays: %w", err)
	}

	out := make(Weekdays, len(s))
	for i, v := range s {
		out[i] = Weekday(v)
	}

	*w = out

	return nil
}

// StringList is a postgres text[] scanned into a plain slice.
type StringList []string

func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}

	return false
}

func (l StringList) Value() (driver.Value, error) {
	return pq.Array([]string(l)).Value()
}

func (l *StringList) Scan(src any) error {
	var s pq.StringArray
	if err := s.Scan(src); err != nil {
		return fmt.Errorf("scan string list: %w", err)
	}

	*l = StringList(s)

	return nil
}

// TimeOfDay is a local wall-clock time in minutes since midnight.
type TimeOfDay int

const timeOfDayLayout = "15:04"

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)

	for _, layout := range []string{timeOfDayLayout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimeOfDay(t.Hour(), t.Minute()), nil
		}
	}

	return 0, fmt.Errorf("invalid time of day %q, expected HH:MM", s)
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t = NewTimeOfDay(v.Hour(), v.Minute())
		return nil
	case []byte:
		return t.parseInto(string(v))
	case string:
		return t.parseInto(v)
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
}

func (t *TimeOfDay) parseInto(s string) error {
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	return t.parseInto(s)
}
