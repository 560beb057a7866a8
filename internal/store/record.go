package store

import (
	"fmt"
	"time"
)

// Record is the structural serialization of an entity: string, number, bool,
// nested Record, and arrays of those. Timestamps are RFC 3339 UTC strings and
// enumerated fields are their lower-case tokens.
type Record map[string]any

// TimeFormat is sortable and unambiguous.
const TimeFormat = time.RFC3339Nano

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeFormat, s)
}

func (r Record) String(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

func (r Record) Bool(key string) bool {
	if v, ok := r[key].(bool); ok {
		return v
	}
	return false
}

// Int tolerates float64 because JSON decoding yields floats for all numbers.
func (r Record) Int(key string) int {
	switch v := r[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func (r Record) Time(key string) (time.Time, error) {
	s, ok := r[key].(string)
	if !ok || s == "" {
		return time.Time{}, fmt.Errorf("missing timestamp field %q", key)
	}
	return ParseTime(s)
}

// TimePtr returns nil for an absent or null field.
func (r Record) TimePtr(key string) (*time.Time, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return nil, nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r Record) Strings(key string) []string {
	switch v := r[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (r Record) Records(key string) []Record {
	switch v := r[key].(type) {
	case []Record:
		return v
	case []map[string]any:
		out := make([]Record, len(v))
		for i, m := range v {
			out[i] = Record(m)
		}
		return out
	case []any:
		out := make([]Record, 0, len(v))
		for _, e := range v {
			switch m := e.(type) {
			case Record:
				out = append(out, m)
			case map[string]any:
				out = append(out, Record(m))
			}
		}
		return out
	}
	return nil
}
