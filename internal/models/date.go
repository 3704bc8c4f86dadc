package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Date is a calendar day in UTC.
// JSON input accepts "2006-01-02", "20060102" (NASA POWER style) and RFC 3339.
type Date struct {
	time.Time
}

var dateLayouts = []string{"2006-01-02", "20060102", time.RFC3339}

// NewDate truncates t to its UTC calendar day
func NewDate(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses s using any of the accepted layouts
func ParseDate(s string) (Date, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t), nil
		}
	}
	return Date{}, &ValidationError{
		Field:   "date",
		Value:   s,
		Message: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD or YYYYMMDD", s),
	}
}

// String formats the date as YYYY-MM-DD
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Compact formats the date as YYYYMMDD
func (d Date) Compact() string {
	return d.Format("20060102")
}

// MarshalJSON encodes the date as "YYYY-MM-DD"
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes any of the accepted layouts; null leaves the zero date
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
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
