package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// ISODayLayout is the canonical textual form of a Day: UTC midnight with milliseconds.
const ISODayLayout = "2006-01-02T15:04:05.000Z"

var ErrInvalidDate = errors.New("invalid date")

var dayLayouts = []string{
	time.DateOnly,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Day is a calendar date in UTC. Two Days are equal iff they name the same date,
// so Day is safe to use with == and as a map key.
type Day struct {
	year  int
	month time.Month
	day   int
}

// DayOf truncates t to its UTC calendar date.
func DayOf(t time.Time) Day {
	y, m, d := t.UTC().Date()
	return Day{year: y, month: m, day: d}
}

func NewDay(year int, month time.Month, day int) Day {
	return DayOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseDay accepts YYYY-MM-DD or an RFC3339 timestamp and normalizes it to a Day.
func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Day{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DayOf(t), nil
		}
	}
	return Day{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (d Day) IsZero() bool {
	return d == Day{}
}

func (d Day) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

func (d Day) Year() int         { return d.year }
func (d Day) Month() time.Month { return d.month }

// ISO returns the canonical key form, e.g. 2024-03-01T00:00:00.000Z.
func (d Day) ISO() string {
	return d.Time().Format(ISODayLayout)
}

func (d Day) String() string {
	return d.Time().Format(time.DateOnly)
}

func (d Day) Compare(other Day) int {
	return d.Time().Compare(other.Time())
}

func (d Day) Before(other Day) bool { return d.Compare(other) < 0 }
func (d Day) After(other Day) bool  { return d.Compare(other) > 0 }
func (d Day) Equal(other Day) bool  { return d == other }

func (d Day) AddDays(n int) Day {
	return DayOf(d.Time().AddDate(0, 0, n))
}

// MonthRange returns [first day of month, first day of next month).
func MonthRange(year int, month time.Month) (Day, Day) {
	start := NewDay(year, month, 1)
	return start, DayOf(start.Time().AddDate(0, 1, 0))
}

func (d Day) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.ISO())
}

func (d *Day) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Day{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Day) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if d.IsZero() {
		return bsontype.Null, nil, nil
	}
	return bsontype.DateTime, bsoncore.AppendDateTime(nil, d.Time().UnixMilli()), nil
}

func (d *Day) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null {
		*d = Day{}
		return nil
	}
	ms, ok := bsoncore.Value{Type: t, Data: data}.DateTimeOK()
	if !ok {
		return fmt.Errorf("%w: cannot decode BSON %s into Day", ErrInvalidDate, t)
	}
	*d = DayOf(time.UnixMilli(ms))
	return nil
}

// ContainsDay reports whether days holds d.
func ContainsDay(days []Day, d Day) bool {
	for _, candidate := range days {
		if candidate == d {
			return true
		}
	}
	return false
}
