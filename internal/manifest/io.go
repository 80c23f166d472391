package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	apperrors "stitch-ai/pkg/errors"
)

// Keys older manifest writers used for the item list, probed in order.
var lenientListKeys = []string{"items", "clips", "segments", "paths", "files"}

// Load reads a manifest leniently. It accepts the native object form, a
// bare item list, or an object keyed by any of items/clips/segments/
// paths/files. Bare string entries become path-only items with a
// placeholder end that rendering must probe.
func Load(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFileNotFound, "清单文件不可读 manifest not readable", err)
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err == nil && len(m.Items) > 0 {
		if m.Version == "" {
			m.Version = Version
		}
		return &m, nil
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMetaParseFailed, "清单解析失败 manifest parse failed", err)
	}

	items := coerceItems(doc)
	if len(items) == 0 {
		return nil, apperrors.New(apperrors.CodeEmptyBatch, "清单中没有可用条目 manifest has no usable items")
	}
	return &Manifest{Version: Version, Items: items}, nil
}

func coerceItems(doc any) []Item {
	switch v := doc.(type) {
	case []any:
		return decodeItems(v)
	case map[string]any:
		for _, key := range lenientListKeys {
			list, ok := v[key].([]any)
			if !ok {
				continue
			}
			if items := decodeItems(list); len(items) > 0 {
				return items
			}
		}
	}
	return nil
}

func decodeItems(list []any) []Item {
	items := make([]Item, 0, len(list))
	for _, entry := range list {
		switch e := entry.(type) {
		case string:
			if strings.TrimSpace(e) != "" {
				items = append(items, Item{Path: e, T1: PlaceholderEnd})
			}
		case map[string]any:
			path, _ := e["path"].(string)
			if path == "" {
				path, _ = e["file"].(string)
			}
			if path == "" {
				continue
			}
			it := Item{
				Path: path,
				T0:   floatOr(e["t0"], 0),
				T1:   floatOr(e["t1"], PlaceholderEnd),
			}
			if base, ok := e["base"].(string); ok {
				it.Base = base
			}
			items = append(items, it)
		}
	}
	return items
}

func floatOr(v any, def float64) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return def
}

// Save writes the manifest wholesale: encode to a temp file next to the
// destination, then rename over it, so readers never see a torn write.
func Save(m *Manifest, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return apperrors.Wrap(apperrors.CodeFileWriteError, "清单序列化失败 manifest encode failed", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.Wrap(apperrors.CodeFileWriteError, "创建清单目录失败 failed to create manifest dir", err)
	}

	tmp, err := os.CreateTemp(dir, ".manifest_*.json")
	if err != nil {
		return apperrors.Wrap(apperrors.CodeFileWriteError, "创建临时清单失败 failed to create temp manifest", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return apperrors.Wrap(apperrors.CodeFileWriteError, "写入清单失败 failed to write manifest", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return apperrors.Wrap(apperrors.CodeFileWriteError, "写入清单失败 failed to write manifest", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return apperrors.Wrap(apperrors.CodeFileWriteError, "替换清单失败 failed to replace manifest", err)
	}
	return nil
}

// SaveWithBackup preserves the current manifest as <name>_raw.json
// before overwriting it with the refined plan. Returns the backup path,
// empty when there was nothing to back up.
func SaveWithBackup(m *Manifest, path string) (string, error) {
	backup := ""
	if data, err := os.ReadFile(path); err == nil {
		backup = backupPath(path)
		if err := os.WriteFile(backup, data, 0644); err != nil {
			return "", apperrors.Wrap(apperrors.CodeFileWriteError, "备份清单失败 failed to back up manifest", err)
		}
	}
	if err := Save(m, path); err != nil {
		return backup, err
	}
	return backup, nil
}

func backupPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_raw" + ext
}

// WriteConcatList writes the ffmpeg concat demuxer list for the items,
// one absolute path per line.
func WriteConcatList(m *Manifest, path string) error {
	var b strings.Builder
	for _, it := range m.Items {
		quoted := strings.ReplaceAll(it.Path, `'`, `'\''`)
		b.WriteString("file '")
		b.WriteString(quoted)
		b.WriteString("'\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return apperrors.Wrap(apperrors.CodeFileWriteError, "写入拼接列表失败 failed to write concat list", err)
	}
	return nil
}
