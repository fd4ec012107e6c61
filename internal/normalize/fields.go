package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/thenoetrevino/taskroll/internal/models"
)

// stringField returns the first non-blank string-like value among keys.
// Numeric ids (JSON numbers) are rendered without a fractional part.
func stringField(raw models.RawRecord, keys ...string) string {
	for _, key := range keys {
		if s := asString(raw[key]); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	case bool:
		return ""
	}
	if n, ok := toFloat(v); ok {
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return strconv.FormatInt(int64(n), 10)
		}
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

// listField returns the first list value among keys, accepting []any and
// the typed slices callers build in-process
func listField(raw models.RawRecord, keys ...string) []any {
	for _, key := range keys {
		if list, ok := asList(raw[key]); ok {
			return list
		}
	}
	return nil
}

func asList(v any) ([]any, bool) {
	switch val := v.(type) {
	case []any:
		return val, true
	case []models.RawRecord:
		out := make([]any, len(val))
		for i, r := range val {
			out[i] = r
		}
		return out, true
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// asRecord accepts a nested record in either of its map spellings
func asRecord(v any) (models.RawRecord, bool) {
	rec, ok := v.(map[string]any)
	return rec, ok && rec != nil
}

// idList reads a list of ids given either as plain strings or as
// objects carrying an "id" (or "uid") field. Blank and repeated ids are
// skipped; order is preserved.
func idList(raw models.RawRecord, keys ...string) []string {
	list := listField(raw, keys...)
	out := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, item := range list {
		id := asString(item)
		if rec, ok := asRecord(item); ok {
			id = stringField(rec, "id", "uid", "userId")
		}
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
