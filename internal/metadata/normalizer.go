package metadata

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"stitch-ai/internal/types"
	apperrors "stitch-ai/pkg/errors"
)

// Source 一份已解码的片段元数据文档
type Source struct {
	Name  string
	Value map[string]any
}

// Problem 单条记录的规范化问题报告
type Problem struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// ResolvedClip carries one normalized record plus whether its time
// bounds came from real metadata.
type ResolvedClip struct {
	Record        types.ClipRecord
	TimesResolved bool
}

// Resolution is the outcome of phase one: every usable record resolved,
// every shortfall reported. The fallback decision happens afterwards.
type Resolution struct {
	Clips    []ResolvedClip
	Problems []Problem
}

// NeedsFallback reports whether any usable record lacks resolved time
// bounds. The decision is batch-wide: a single unresolved record
// switches every record to sequential fallback timing, so a manifest is
// never a mix of measured and synthetic timings.
func (r Resolution) NeedsFallback() bool {
	for _, c := range r.Clips {
		if !c.TimesResolved {
			return true
		}
	}
	return false
}

// Normalizer turns loosely shaped metadata documents into ClipRecords.
type Normalizer struct {
	VideosDir          string
	DefaultClipSeconds float64
}

func NewNormalizer(videosDir string, defaultClipSeconds float64) *Normalizer {
	if defaultClipSeconds <= 0 {
		defaultClipSeconds = 5.0
	}
	return &Normalizer{
		VideosDir:          videosDir,
		DefaultClipSeconds: defaultClipSeconds,
	}
}

// ResolveBatch runs phase one over every source. Records without a
// resolvable path are excluded and reported; nothing else is dropped.
func (n *Normalizer) ResolveBatch(sources []Source) Resolution {
	var res Resolution
	for _, src := range sources {
		clip, problems := n.resolveRecord(src)
		res.Problems = append(res.Problems, problems...)
		if clip.Record.Path == "" {
			continue
		}
		res.Clips = append(res.Clips, clip)
	}
	return res
}

// Finalize applies the batch-wide fallback decision and yields records
// ready for sequencing. The bool reports whether fallback timing was
// assigned. An empty usable batch is terminal.
func (n *Normalizer) Finalize(res Resolution) ([]types.ClipRecord, bool, error) {
	if len(res.Clips) == 0 {
		return nil, false, apperrors.ErrEmptyBatch
	}
	if res.NeedsFallback() {
		return n.AssignSequentialFallback(res.Clips), true, nil
	}
	out := make([]types.ClipRecord, len(res.Clips))
	for i, c := range res.Clips {
		out[i] = c.Record
	}
	return out, false, nil
}

// AssignSequentialFallback orders records by clip file name and assigns
// contiguous windows of DefaultClipSeconds starting at zero.
func (n *Normalizer) AssignSequentialFallback(clips []ResolvedClip) []types.ClipRecord {
	out := make([]types.ClipRecord, len(clips))
	for i, c := range clips {
		out[i] = c.Record
	}
	sort.SliceStable(out, func(i, j int) bool {
		return filepath.Base(out[i].Path) < filepath.Base(out[j].Path)
	})
	for i := range out {
		out[i].T0 = float64(i) * n.DefaultClipSeconds
		out[i].T1 = float64(i+1) * n.DefaultClipSeconds
	}
	return out
}

type rawTimes struct {
	start, end, fps, frames, duration                float64
	hasStart, hasEnd, hasFps, hasFrames, hasDuration bool
}

func (t *rawTimes) absorb(canon string, v any) {
	f, ok := Coerce(v)
	if !ok {
		return
	}
	switch canon {
	case "start":
		if !t.hasStart {
			t.start, t.hasStart = f, true
		}
	case "end":
		if !t.hasEnd {
			t.end, t.hasEnd = f, true
		}
	case "fps":
		if !t.hasFps {
			t.fps, t.hasFps = f, true
		}
	case "frames":
		if !t.hasFrames {
			t.frames, t.hasFrames = f, true
		}
	case "duration":
		if !t.hasDuration {
			t.duration, t.hasDuration = f, true
		}
	}
}

// scan absorbs time fields from an object, keys visited in sorted order
// so resolution stays deterministic regardless of decode order.
func (t *rawTimes) scan(m map[string]any) {
	for _, k := range sortedKeys(m) {
		canon, known := canonicalFields[normalizeKey(k)]
		if !known || canon == "path" {
			continue
		}
		t.absorb(canon, m[k])
	}
}

func (n *Normalizer) resolveRecord(src Source) (ResolvedClip, []Problem) {
	var problems []Problem

	record := types.ClipRecord{Id: stem(src.Name)}
	var times rawTimes

	keys := sortedKeys(src.Value)

	// Path and base first; everything else hangs off them.
	for _, k := range keys {
		if canonicalFields[normalizeKey(k)] != "path" {
			continue
		}
		s, ok := src.Value[k].(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		if record.Path == "" {
			record.Path = n.resolvePath(strings.TrimSpace(s))
			record.Base = stem(filepath.Base(strings.TrimSpace(s)))
		}
	}
	if b, ok := src.Value["base"].(string); ok && strings.TrimSpace(b) != "" {
		record.Base = strings.TrimSpace(b)
	}

	for _, k := range keys {
		v := src.Value[k]
		norm := normalizeKey(k)

		if canon, known := canonicalFields[norm]; known {
			if canon == "path" {
				continue
			}
			times.absorb(canon, v)
			if m, ok := v.(map[string]any); ok {
				switch canon {
				case "start":
					record.StartAttrs = mergeAttrs(record.StartAttrs, parseAttrs(m))
				case "end":
					record.EndAttrs = mergeAttrs(record.EndAttrs, parseAttrs(m))
				}
			}
			continue
		}

		if nestedContainers[norm] {
			if m, ok := v.(map[string]any); ok {
				times.scan(m)
			}
			continue
		}

		if descriptiveKeys[norm] {
			continue
		}
		if hint, ok := suggestKey(norm); ok {
			problems = append(problems, Problem{
				File:   src.Name,
				Reason: fmt.Sprintf("unknown key %q (did you mean %q?)", k, hint),
			})
		}
	}

	if record.Path == "" {
		problems = append(problems, Problem{File: src.Name, Reason: "no resolvable clip path"})
		return ResolvedClip{}, problems
	}

	start, end, reason := resolveBounds(times)
	if reason != "" {
		problems = append(problems, Problem{File: src.Name, Reason: reason})
		return ResolvedClip{Record: record}, problems
	}

	record.T0, record.T1 = start, end
	return ResolvedClip{Record: record, TimesResolved: true}, problems
}

// resolveBounds applies the end resolution order: explicit end, then
// start+duration, then start+frames/fps. Returns a reason when the
// bounds stay unresolved; those records ride the fallback policy.
func resolveBounds(t rawTimes) (float64, float64, string) {
	if !t.hasStart {
		return 0, 0, "no resolvable start time"
	}
	end := 0.0
	switch {
	case t.hasEnd:
		end = t.end
	case t.hasDuration:
		end = t.start + t.duration
	case t.hasFrames && t.hasFps && t.fps > 0:
		end = t.start + t.frames/t.fps
	default:
		return 0, 0, "no resolvable end time"
	}
	if end <= t.start {
		return 0, 0, fmt.Sprintf("end %.3f not after start %.3f", end, t.start)
	}
	return t.start, end, ""
}

var driveLetterRe = regexp.MustCompile(`^[a-zA-Z]:[\\/]`)

// resolvePath keeps absolute-looking paths (unix absolute, drive letter,
// UNC) untouched and joins everything else onto the videos dir.
func (n *Normalizer) resolvePath(p string) string {
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\\`) || driveLetterRe.MatchString(p) {
		return p
	}
	if n.VideosDir == "" {
		return p
	}
	return filepath.Join(n.VideosDir, p)
}

func parseAttrs(m map[string]any) types.AttributeSet {
	attrs := types.AttributeSet{}
	attrs.Subject = stringAt(m, "subject")
	attrs.Action = stringAt(m, "action")
	attrs.Motion = stringAt(m, "motion")
	attrs.Lighting = stringAt(m, "lighting")
	attrs.Tone = stringAt(m, "tone")
	attrs.SceneType = stringAt(m, "scene_type")
	if list, ok := m["dominant_colors"].([]any); ok {
		for _, c := range list {
			if s, ok := c.(string); ok && strings.TrimSpace(s) != "" {
				attrs.DominantColors = append(attrs.DominantColors, strings.ToLower(strings.TrimSpace(s)))
			}
		}
	}
	return attrs
}

func mergeAttrs(dst, src types.AttributeSet) types.AttributeSet {
	if dst.Subject == "" {
		dst.Subject = src.Subject
	}
	if dst.Action == "" {
		dst.Action = src.Action
	}
	if dst.Motion == "" {
		dst.Motion = src.Motion
	}
	if dst.Lighting == "" {
		dst.Lighting = src.Lighting
	}
	if dst.Tone == "" {
		dst.Tone = src.Tone
	}
	if dst.SceneType == "" {
		dst.SceneType = src.SceneType
	}
	if len(dst.DominantColors) == 0 {
		dst.DominantColors = src.DominantColors
	}
	return dst
}

func stringAt(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
