package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// OptionalTime distinguishes an absent JSON field from an explicit null.
// Set is true whenever the field appeared; Value is nil for null or "".
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

// UnmarshalJSON accepts RFC 3339 timestamps and plain YYYY-MM-DD dates
func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Value = nil
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	o.Value = &t
	return nil
}

// ParseDate parses RFC 3339 or YYYY-MM-DD (midnight UTC)
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// apply stores the value into dst when the field was present
func (o OptionalTime) apply(dst **time.Time) {
	if o.Set {
		*dst = o.Value
	}
}
