package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const DayLayout = "2006-01-02"

// Day 日期（无时分秒），JSON 与数据库均为 "YYYY-MM-DD"
type Day struct{ time.Time }

func NewDay(t time.Time) Day { return Day{Date(t)} }

func Today() Day { return NewDay(time.Now()) }

func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return Day{t}, nil
}

func (d Day) String() string { return d.Format(DayLayout) }

func (d Day) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}
	if s == "" {
		*d = Day{}
		return nil
	}
	v, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (Day) GormDataType() string { return "date" }

func (d Day) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func (d *Day) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Day{}
	case time.Time:
		*d = NewDay(v)
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("day: unsupported scan type %T", src)
	}
	return nil
}

func (d *Day) scanString(s string) error {
	if len(s) >= len(DayLayout) {
		s = s[:len(DayLayout)]
	}
	v, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d Day) Before(o Day) bool { return d.Time.Before(o.Time) }
func (d Day) After(o Day) bool  { return d.Time.After(o.Time) }
