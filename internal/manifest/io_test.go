package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stitch-ai/internal/types"
	apperrors "stitch-ai/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSaveLoadRoundTrip(t *testing.T) {
	records := []types.ClipRecord{record("a"), record("b"), record("c")}
	transitions := []types.Transition{
		{FromId: "a", ToId: "b", Score: 0.65, Kind: types.TransitionCrossfade, Duration: 0.5},
		{FromId: "b", ToId: "c", Score: 0.3, Kind: types.TransitionFadeBlack, Duration: 0.3},
	}
	m := NewBuilder(5.0).Build(records, transitions)

	path := filepath.Join(t.TempDir(), "smart_manifest.json")
	require.NoError(t, Save(m, path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, Version, loaded.Version)
	require.Len(t, loaded.Items, 3)
	assert.Len(t, loaded.Transitions, len(loaded.Items)-1)
	assert.InDelta(t, m.TotalDuration, loaded.TotalDuration, 1e-9)

	assert.Nil(t, loaded.Items[0].TransitionIn)
	require.NotNil(t, loaded.Items[1].TransitionIn)
	assert.Equal(t, "crossfade", loaded.Items[1].TransitionIn.Type)
	assert.Nil(t, loaded.Items[0].StartTrim)

	require.NotNil(t, loaded.Optimization)
	assert.Equal(t, 3, loaded.Optimization.TotalClips)
}

func TestSaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "manifest.json")
	require.NoError(t, Save(&Manifest{Version: Version}, path))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadLenientShapes(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		count   int
	}{
		{
			"bare list",
			`[{"path": "/v/a.mp4", "t0": 0.0, "t1": -1.0}, {"path": "/v/b.mp4", "t0": 0.0, "t1": -1.0}]`,
			2,
		},
		{
			"clips key",
			`{"clips": [{"path": "/v/a.mp4", "t0": 1.0, "t1": 4.0}]}`,
			1,
		},
		{
			"segments key",
			`{"segments": [{"file": "/v/a.mp4"}]}`,
			1,
		},
		{
			"paths of strings",
			`{"paths": ["/v/a.mp4", "/v/b.mp4", "/v/c.mp4"]}`,
			3,
		},
		{
			"files key",
			`{"files": ["/v/a.mp4"]}`,
			1,
		},
		{
			"numeric version",
			`{"version": 1, "items": [{"path": "/v/a.mp4", "t0": 0, "t1": 9999999.0}]}`,
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name+".json", tt.content)

			m, err := Load(path)
			require.NoError(t, err)
			assert.Len(t, m.Items, tt.count)
			assert.Equal(t, Version, m.Version)
			for _, it := range m.Items {
				assert.NotEmpty(t, it.Path)
			}
		})
	}
}

func TestLoadStringEntriesGetPlaceholderEnd(t *testing.T) {
	path := writeFile(t, t.TempDir(), "m.json", `{"paths": ["/v/a.mp4"]}`)

	m, err := Load(path)
	require.NoError(t, err)
	require.Len(t, m.Items, 1)
	assert.InDelta(t, PlaceholderEnd, m.Items[0].T1, 1e-9)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Equal(t, apperrors.CodeFileNotFound, apperrors.GetCode(err))

	bad := writeFile(t, dir, "bad.json", `{not json`)
	_, err = Load(bad)
	assert.Equal(t, apperrors.CodeMetaParseFailed, apperrors.GetCode(err))

	empty := writeFile(t, dir, "empty.json", `{"items": []}`)
	_, err = Load(empty)
	assert.Equal(t, apperrors.CodeEmptyBatch, apperrors.GetCode(err))
}

func TestSaveWithBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	original := &Manifest{Version: Version, Items: []Item{{Path: "/v/a.mp4", T0: 0, T1: 5}}}
	require.NoError(t, Save(original, path))

	refined := &Manifest{Version: Version, Items: []Item{{Path: "/v/a.mp4", T0: 0.3, T1: 4.7}}}
	backup, err := SaveWithBackup(refined, path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "manifest_raw.json"), backup)

	backedUp, err := Load(backup)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, backedUp.Items[0].T1, 1e-9)

	current, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 4.7, current.Items[0].T1, 1e-9)
}

func TestSaveWithBackupOnFreshFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")

	backup, err := SaveWithBackup(&Manifest{Version: Version}, path)
	require.NoError(t, err)
	assert.Empty(t, backup)
}

func TestWriteConcatList(t *testing.T) {
	m := &Manifest{Items: []Item{
		{Path: "/v/a.mp4"},
		{Path: "/v/it's.mp4"},
	}}

	path := filepath.Join(t.TempDir(), "concat.txt")
	require.NoError(t, WriteConcatList(m, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file '/v/a.mp4'\nfile '/v/it'\\''s.mp4'\n", string(data))
}

func TestManifestJSONShape(t *testing.T) {
	m := NewBuilder(5.0).Build([]types.ClipRecord{record("a")}, nil)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "smart_v1", doc["version"])
	assert.Contains(t, doc, "total_duration")
	assert.Contains(t, doc, "optimization_summary")
	assert.NotContains(t, doc, "loop_detection")

	items := doc["items"].([]any)
	first := items[0].(map[string]any)
	// transition_in must be present and null on the first item
	v, ok := first["transition_in"]
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.NotContains(t, first, "start_trim")
}
