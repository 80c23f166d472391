package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"stitch-ai/internal/dto"
	"stitch-ai/internal/manifest"
	"stitch-ai/log"
	apperrors "stitch-ai/pkg/errors"
)

// clipExtensions are the video containers the fallback generator scans.
var clipExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".mkv": true, ".avi": true, ".webm": true,
}

const (
	// probeFailEnd is the sentinel t1 recorded when a duration cannot be
	// probed. Loaders treat such items as unbounded.
	probeFailEnd = 9999999.0

	// fallbackMetaSeconds is the window each generated meta covers when
	// the request does not override it.
	fallbackMetaSeconds = 2.0

	probeManifestFileName = "manifest.json"
)

// secondsField nests a bare time the way the loose metadata vocabulary
// expects it.
type secondsField struct {
	Seconds float64 `json:"seconds"`
}

type fallbackMeta struct {
	File  string       `json:"file"`
	Start secondsField `json:"start"`
	End   secondsField `json:"end"`
	Base  string       `json:"base"`
}

// GenerateFallbackMeta writes a sequential metadata document for every
// video in the directory that does not have one yet. The running clock
// advances only when a document is written; skipped clips do not consume
// a window.
func (s Service) GenerateFallbackMeta(req dto.GenerateMetaReq) (*dto.GenerateMetaResData, error) {
	entries, err := os.ReadDir(req.VideosDir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMetaGenFailed, "读取视频目录失败 failed to read videos dir", err)
	}
	if err = os.MkdirAll(req.MetaDir, os.ModePerm); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFileWriteError, "创建元数据目录失败 failed to create meta dir", err)
	}

	clipSeconds := req.ClipSeconds
	if clipSeconds <= 0 {
		clipSeconds = fallbackMetaSeconds
	}

	res := &dto.GenerateMetaResData{}
	t := 0.0
	for _, e := range entries {
		if e.IsDir() || !clipExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		metaPath := filepath.Join(req.MetaDir, stem+".json")
		if !req.Force {
			if _, statErr := os.Stat(metaPath); statErr == nil {
				res.Skipped++
				continue
			}
		}

		doc := fallbackMeta{
			File:  e.Name(),
			Start: secondsField{Seconds: t},
			End:   secondsField{Seconds: t + clipSeconds},
			Base:  stem,
		}
		data, mErr := json.MarshalIndent(doc, "", "  ")
		if mErr != nil {
			return nil, apperrors.Wrap(apperrors.CodeMetaGenFailed, "元数据序列化失败 meta encode failed", mErr)
		}
		if wErr := os.WriteFile(metaPath, data, 0644); wErr != nil {
			return nil, apperrors.Wrap(apperrors.CodeFileWriteError, "写入元数据失败 failed to write meta file", wErr)
		}
		res.Written++
		t += clipSeconds
	}

	log.GetLogger().Info("fallback meta generated", zap.String("videos_dir", req.VideosDir),
		zap.Int("written", res.Written), zap.Int("skipped", res.Skipped))
	return res, nil
}

// BuildProbeManifest lists *.mp4 in a directory and writes a manifest
// whose item windows come straight from ffprobe.
func (s Service) BuildProbeManifest(ctx context.Context, req dto.ProbeManifestReq) (*dto.ProbeManifestResData, error) {
	matches, err := filepath.Glob(filepath.Join(req.VideosDir, "*.mp4"))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMetaGenFailed, "扫描视频目录失败 failed to scan videos dir", err)
	}
	if len(matches) == 0 {
		return nil, apperrors.New(apperrors.CodeEmptyBatch, "目录中没有可用的MP4文件 no mp4 files in dir")
	}

	items := make([]manifest.Item, 0, len(matches))
	for _, path := range matches {
		d, probeErr := s.Prober.ProbeDuration(ctx, path)
		if probeErr != nil {
			log.GetLogger().Warn("时长探测失败 probe failed", zap.String("path", path), zap.Error(probeErr))
		}
		t1 := probeFailEnd
		if probeErr == nil && d > 0 {
			t1 = d
		}
		items = append(items, manifest.Item{Path: path, T0: 0, T1: t1})
	}

	outPath := filepath.Join(req.OutDir, probeManifestFileName)
	if err = manifest.Save(&manifest.Manifest{Version: manifest.Version, Items: items}, outPath); err != nil {
		return nil, err
	}
	log.GetLogger().Info("probe manifest written", zap.String("path", outPath), zap.Int("items", len(items)))
	return &dto.ProbeManifestResData{ManifestPath: outPath, ItemCount: len(items)}, nil
}
