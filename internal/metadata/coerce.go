package metadata

import (
	"sort"
	"strconv"
	"strings"
)

// timeSynonyms are object keys that may directly carry a time value,
// probed in this order before any structural fallback.
var timeSynonyms = []string{
	"value", "val", "sec", "secs", "second", "seconds", "s", "ms",
	"start", "end", "t0", "t1", "time", "timestamp", "duration",
}

// Coerce extracts a time in seconds from a loosely typed JSON value.
// Accepted shapes: bare numbers, numeric strings (optional s/ms suffix),
// clock strings ([[h:]m:]s.frac), single-element arrays, and objects
// carrying a synonym key, a sole entry, or any coercible entry.
func Coerce(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		return coerceString(x)
	case []any:
		if len(x) == 1 {
			return Coerce(x[0])
		}
		return 0, false
	case map[string]any:
		return coerceMap(x)
	}
	return 0, false
}

func coerceMap(m map[string]any) (float64, bool) {
	for _, key := range timeSynonyms {
		inner, ok := m[key]
		if !ok {
			continue
		}
		f, ok := Coerce(inner)
		if !ok {
			continue
		}
		if key == "ms" {
			return f / 1000.0, true
		}
		return f, true
	}

	if len(m) == 1 {
		for _, inner := range m {
			return Coerce(inner)
		}
	}

	// Last resort: scan entries in key order so the result is deterministic.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if f, ok := Coerce(m[k]); ok {
			return f, true
		}
	}
	return 0, false
}

func coerceString(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ":") {
		return coerceClock(s)
	}

	scale := 1.0
	if strings.HasSuffix(s, "ms") {
		scale = 1.0 / 1000.0
		s = strings.TrimSpace(strings.TrimSuffix(s, "ms"))
	} else if strings.HasSuffix(s, "s") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "s"))
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f * scale, true
}

// coerceClock parses [[h:]m:]s with an optional fractional seconds part.
func coerceClock(s string) (float64, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	total := 0.0
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || f < 0 {
			return 0, false
		}
		total = total*60.0 + f
	}
	return total, true
}
