package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is the calendar date format used by briefs and candidates
const DateLayout = "2006-01-02"

// Date is a calendar day without time of day or zone
type Date struct {
	time.Time
}

// NewDate builds a Date in UTC
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// MustDate panics on malformed input; intended for tables and tests
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String returns YYYY-MM-DD, or "" for the zero date
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as a YYYY-MM-DD string
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts YYYY-MM-DD, an RFC3339 timestamp, or an empty string
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	return d.set(s)
}

// MarshalYAML encodes the date as a plain scalar
func (d Date) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML reads the raw scalar so YAML timestamps are not reinterpreted
func (d *Date) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("date must be a scalar at line %d", node.Line)
	}
	return d.set(node.Value)
}

func (d *Date) set(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*d = Date{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, day := t.Date()
		*d = NewDate(y, m, day)
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Window is an inclusive date range
type Window struct {
	From Date `json:"from" yaml:"from"`
	To   Date `json:"to" yaml:"to"`
}

// IsZero reports whether neither end is set
func (w Window) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// Contains reports whether other lies entirely inside w.
// An open end on w (zero date) is unbounded on that side.
func (w Window) Contains(other Window) bool {
	if !w.From.IsZero() && !other.From.IsZero() && other.From.Before(w.From.Time) {
		return false
	}
	if !w.To.IsZero() && !other.To.IsZero() && other.To.After(w.To.Time) {
		return false
	}
	return true
}

// Nights returns the number of nights between From and To
func (w Window) Nights() int {
	if w.From.IsZero() || w.To.IsZero() {
		return 0
	}
	n := int(w.To.Sub(w.From.Time).Hours() / 24)
	if n < 0 {
		return 0
	}
	return n
}
