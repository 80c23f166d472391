package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerceEquivalentRepresentations(t *testing.T) {
	// Every representation of 12.5 seconds must resolve identically.
	representations := []struct {
		name string
		v    any
	}{
		{name: "bare number", v: 12.5},
		{name: "numeric string", v: "12.5"},
		{name: "suffixed seconds string", v: "12.5s"},
		{name: "milliseconds string", v: "12500ms"},
		{name: "nested seconds object", v: map[string]any{"seconds": 12.5}},
		{name: "nested value object", v: map[string]any{"value": "12.5"}},
		{name: "single element array", v: []any{12.5}},
		{name: "single entry object", v: map[string]any{"anything": 12.5}},
		{name: "ms key object", v: map[string]any{"ms": 12500.0}},
	}

	for _, rep := range representations {
		rep := rep
		t.Run(rep.name, func(t *testing.T) {
			got, ok := Coerce(rep.v)
			assert.True(t, ok, "Coerce should accept %v", rep.v)
			assert.InDelta(t, 12.5, got, 1e-9)
		})
	}
}

func TestCoerceClockStrings(t *testing.T) {
	testCases := []struct {
		in   string
		want float64
	}{
		{in: "1:02.5", want: 62.5},
		{in: "0:05", want: 5.0},
		{in: "1:01:01.5", want: 3661.5},
		{in: "00:00:12", want: 12.0},
	}

	for _, tc := range testCases {
		got, ok := Coerce(tc.in)
		assert.True(t, ok, "Coerce(%q)", tc.in)
		assert.InDelta(t, tc.want, got, 1e-9, "Coerce(%q)", tc.in)
	}
}

func TestCoerceRejects(t *testing.T) {
	rejected := []any{
		"not a number",
		"",
		"1:2:3:4",
		[]any{1.0, 2.0},
		[]any{},
		map[string]any{"subject": "dancer", "tone": "calm"},
		nil,
		true,
	}

	for _, v := range rejected {
		_, ok := Coerce(v)
		assert.False(t, ok, "Coerce(%v) should fail", v)
	}
}

func TestCoerceRecursesNestedShapes(t *testing.T) {
	// value nested two levels deep behind a synonym key and an array
	v := map[string]any{"start": []any{map[string]any{"sec": "3s"}}}
	got, ok := Coerce(v)
	assert.True(t, ok)
	assert.InDelta(t, 3.0, got, 1e-9)
}
