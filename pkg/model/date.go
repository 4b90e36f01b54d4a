package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Date is a calendar day with no time-of-day or zone. It is stored as UTC
// midnight so that two equal days always compare equal.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// Today returns the current calendar day in loc.
func Today(loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(time.Now().In(loc))
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return DateOf(t), nil
}

func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) Time() time.Time { return d.t }
func (d Date) IsZero() bool { return d.t.IsZero() }
func (d Date) Year() int { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int { return d.t.Day() }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) EpochDay() int64 { return d.t.Unix() / secondsPerDay }
func (d Date) DaysUntil(o Date) int { return int(o.EpochDay() - d.EpochDay()) }

func (d Date) Compare(o Date) int {
	return d.t.Compare(o.t)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string in YYYY-MM-DD format")
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if d.IsZero() {
		return bsontype.Null, nil, nil
	}
	return bsontype.DateTime, bsoncore.AppendDateTime(nil, d.t.UnixMilli()), nil
}

func (d *Date) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null || t == bsontype.Undefined {
		*d = Date{}
		return nil
	}
	if t != bsontype.DateTime {
		return fmt.Errorf("cannot decode %s into a Date", t)
	}
	ms, ok := bsoncore.Value{Type: t, Data: data}.DateTimeOK()
	if !ok {
		return fmt.Errorf("malformed BSON date")
	}
	*d = DateOf(time.UnixMilli(ms).UTC())
	return nil
}

// DaysIn expands the half-open range [start, end) into its days.
func DaysIn(start, end Date) []Date {
	n := start.DaysUntil(end)
	if n <= 0 {
		return nil
	}
	days := make([]Date, 0, n)
	for d := start; d.Before(end); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}
