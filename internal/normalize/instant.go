package normalize

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// dateLayouts are tried in order for string dates
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// timeConverter matches store-native timestamp values that know how to
// become a time.Time (protobuf-style timestamps and friends)
type timeConverter interface {
	AsTime() time.Time
}

// ParseInstant converts any supported date representation into a UTC
// time.Time. It accepts:
//   - ISO-8601 strings (RFC 3339 with or without fraction, date-only, local date-time)
//   - store-native timestamp objects: {seconds, nanoseconds} or {_seconds, _nanoseconds}
//   - time.Time, *time.Time, and values with an AsTime() method
//   - numbers, read as milliseconds since the Unix epoch
//
// The second return value is false for nil, empty or unparseable input.
func ParseInstant(v any) (time.Time, bool) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if val.IsZero() {
			return time.Time{}, false
		}
		return val.UTC(), true
	case *time.Time:
		if val == nil || val.IsZero() {
			return time.Time{}, false
		}
		return val.UTC(), true
	case string:
		return parseDateString(val)
	case map[string]any:
		return parseTimestampObject(val)
	case timeConverter:
		t := val.AsTime()
		if t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	}

	if ms, ok := toFloat(v); ok {
		if math.IsNaN(ms) || math.IsInf(ms, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	return time.Time{}, false
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseTimestampObject(m map[string]any) (time.Time, bool) {
	secs, ok := firstNumber(m, "seconds", "_seconds")
	if !ok {
		return time.Time{}, false
	}
	nanos, _ := firstNumber(m, "nanoseconds", "_nanoseconds", "nanos")
	return time.Unix(int64(secs), int64(nanos)).UTC(), true
}

func firstNumber(m map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		if raw, present := m[key]; present {
			if n, ok := toFloat(raw); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// formatInstant is the canonical string form written by the serializer
func formatInstant(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
