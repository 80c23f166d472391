package util

import (
	"regexp"
	"strings"
)

var fencedJsonRe = regexp.MustCompile("(?s)```(?:json)?(.*?)```")

// ExtractJsonFromText strips markdown fences and surrounding prose from a
// model reply, returning the widest JSON object or array span found. Returns
// the input unchanged when no bracket pair is present.
func ExtractJsonFromText(text string) string {
	if matches := fencedJsonRe.FindStringSubmatch(text); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	start := pickBracket(strings.Index(text, "{"), strings.Index(text, "["), false)
	if start == -1 {
		return text
	}
	end := pickBracket(strings.LastIndex(text, "}"), strings.LastIndex(text, "]"), true)
	if end <= start {
		return text
	}
	return text[start : end+1]
}

// pickBracket chooses between the object and array bracket position:
// the earlier one for openers, the later one for closers. -1 means absent.
func pickBracket(obj, arr int, wantLater bool) int {
	if obj == -1 {
		return arr
	}
	if arr == -1 {
		return obj
	}
	if wantLater {
		if obj > arr {
			return obj
		}
		return arr
	}
	if obj < arr {
		return obj
	}
	return arr
}
