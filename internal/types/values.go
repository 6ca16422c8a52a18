package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar day without time-of-day, serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate returns the UTC calendar date y-m-d.
func NewDate(y int, m time.Month, d int) Date {
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(d.Format(DateLayout))), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
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

// Nullable serializes as the wrapped value or as JSON null. A nil *Nullable
// field tagged omitempty is left out of the body entirely, which is how a
// patch distinguishes "leave alone" from "set to null".
type Nullable[T any] struct {
	Value *T
}

// Null returns a Nullable that serializes as null.
func Null[T any]() *Nullable[T] { return &Nullable[T]{} }

// Some returns a Nullable holding v.
func Some[T any](v T) *Nullable[T] { return &Nullable[T]{Value: &v} }

// MarshalJSON implements json.Marshaler.
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

type overrideOp uint8

const (
	overrideUnset overrideOp = iota
	overrideSet
	overrideClear
)

// Override is a per-key change to a retained query filter. The zero value
// leaves the retained filter untouched; Clear removes it; Set replaces it.
type Override[T any] struct {
	op    overrideOp
	value T
}

// Set returns an override that replaces the retained value with v.
func Set[T any](v T) Override[T] { return Override[T]{op: overrideSet, value: v} }

// Clear returns an override that removes the retained value.
func Clear[T any]() Override[T] { return Override[T]{op: overrideClear} }

// IsSet reports whether o replaces the retained value.
func (o Override[T]) IsSet() bool { return o.op == overrideSet }

// Get returns the override value and whether it is set.
func (o Override[T]) Get() (T, bool) { return o.value, o.op == overrideSet }

func (o Override[T]) applyTo(key string, filters map[string]string) {
	switch o.op {
	case overrideSet:
		if s := fmt.Sprint(o.value); s != "" {
			filters[key] = s
		} else {
			delete(filters, key)
		}
	case overrideClear:
		delete(filters, key)
	}
}

func cloneFilters(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
