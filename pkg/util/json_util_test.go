package util

import (
	"testing"
)

func TestExtractJsonFromText(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want string
	}{
		{
			name: "markdown json block",
			text: "Here is the result:\n```json\n{\"subject\": \"dancer\"}\n```\nDone.",
			want: `{"subject": "dancer"}`,
		},
		{
			name: "markdown block without language tag",
			text: "```\n{\"scene_type\": \"studio\"}\n```",
			want: `{"scene_type": "studio"}`,
		},
		{
			name: "bare object with surrounding prose",
			text: `Sure! {"motion": "slow"} hope that helps`,
			want: `{"motion": "slow"}`,
		},
		{
			name: "array payload",
			text: `[1, 2, 3] trailing`,
			want: `[1, 2, 3]`,
		},
		{
			name: "no json returns raw text",
			text: "nothing to see here",
			want: "nothing to see here",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractJsonFromText(tc.text); got != tc.want {
				t.Fatalf("ExtractJsonFromText() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGenerateRandStringWithUpperLowerNum(t *testing.T) {
	got := GenerateRandStringWithUpperLowerNum(16)
	if len(got) != 16 {
		t.Fatalf("len = %d, want 16", len(got))
	}
	for _, r := range got {
		isUpper := r >= 'A' && r <= 'Z'
		isLower := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		if !isUpper && !isLower && !isDigit {
			t.Fatalf("unexpected rune %q in %q", r, got)
		}
	}
}
