package metadata

import (
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// canonicalFields maps every accepted key spelling (already normalized)
// onto the canonical field vocabulary.
var canonicalFields = map[string]string{
	"emb_start": "start",
	"embstart":  "start",
	"start_emb": "start",
	"start":     "start",
	"t0":        "start",

	"emb_end": "end",
	"embend":  "end",
	"end_emb": "end",
	"end":     "end",
	"t1":      "end",

	"fps":        "fps",
	"frame_rate": "fps",
	"framerate":  "fps",

	"frames":      "frames",
	"n_frames":    "frames",
	"frame_count": "frames",

	"duration":   "duration",
	"duration_s": "duration",
	"secs":       "duration",
	"seconds":    "duration",

	"path":      "path",
	"file":      "path",
	"filepath":  "path",
	"file_path": "path",
}

// nestedContainers are keys whose object values are probed for time
// fields when the top level did not resolve them.
var nestedContainers = map[string]bool{
	"base":      true,
	"timing":    true,
	"meta":      true,
	"embedding": true,
	"range":     true,
	"clip":      true,
}

// descriptiveKeys are known non-time keys that never warrant a
// did-you-mean hint.
var descriptiveKeys = map[string]bool{
	"subject":         true,
	"action":          true,
	"motion":          true,
	"lighting":        true,
	"tone":            true,
	"scene_type":      true,
	"dominant_colors": true,
	"base":            true,
}

func normalizeKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	k = strings.ReplaceAll(k, "-", "_")
	k = strings.ReplaceAll(k, " ", "_")
	return k
}

// suggestKey returns the accepted spelling closest to key when it is
// within edit distance 2. Diagnostics only, never changes resolution.
func suggestKey(key string) (string, bool) {
	best := ""
	bestDist := 3
	for _, spelling := range sortedSpellings() {
		d := levenshtein.DistanceForStrings([]rune(key), []rune(spelling), levenshtein.DefaultOptions)
		if d < bestDist {
			best, bestDist = spelling, d
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

var spellingList []string

func sortedSpellings() []string {
	if spellingList == nil {
		for spelling := range canonicalFields {
			spellingList = append(spellingList, spelling)
		}
		sort.Strings(spellingList)
	}
	return spellingList
}
