package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	apperrors "stitch-ai/pkg/errors"
)

// LoadDir reads every .json document in dir as one metadata source.
// Unreadable or malformed documents become problems, not errors; the
// directory itself being unreadable is terminal.
func LoadDir(dir string) ([]Source, []Problem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeFileNotFound, "读取元数据目录失败 Failed to read meta dir", err)
	}

	var sources []Source
	var problems []Problem
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			problems = append(problems, Problem{File: e.Name(), Reason: "unreadable: " + err.Error()})
			continue
		}
		var value map[string]any
		if err := json.Unmarshal(data, &value); err != nil {
			problems = append(problems, Problem{File: e.Name(), Reason: "invalid JSON: " + err.Error()})
			continue
		}
		sources = append(sources, Source{Name: e.Name(), Value: value})
	}
	return sources, problems, nil
}
