package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stitch-ai/internal/dto"
	"stitch-ai/internal/manifest"
	"stitch-ai/internal/types"
	"stitch-ai/log"
	apperrors "stitch-ai/pkg/errors"
)

// clipMeta is the metadata document AnalyzeClip writes. The normalizer
// reads the same shape back, so the attribute keys must stay aligned
// with the loader vocabulary.
type clipMeta struct {
	File  string             `json:"file"`
	Base  string             `json:"base"`
	Start types.AttributeSet `json:"start"`
	End   types.AttributeSet `json:"end"`
}

// AnalyzeClip samples the first and last frame of one clip, has the
// vision model describe both, and writes the result as the clip's
// metadata document next to the video (or into req.MetaDir).
func (s Service) AnalyzeClip(ctx context.Context, req dto.AnalyzeClipReq) (*dto.AnalyzeClipResData, error) {
	if s.Vision == nil {
		return nil, apperrors.New(apperrors.CodeAnalysisFailed, "未配置视觉模型 vision model is not configured")
	}
	if _, err := os.Stat(req.VideoPath); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeClipFileNotFound, "片段文件不存在 clip file not found", err)
	}

	metaDir := req.MetaDir
	if metaDir == "" {
		metaDir = filepath.Dir(req.VideoPath)
	}
	if err := os.MkdirAll(metaDir, os.ModePerm); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFileWriteError, "创建元数据目录失败 failed to create meta dir", err)
	}

	duration, err := s.Prober.ProbeDuration(ctx, req.VideoPath)
	if err != nil {
		log.GetLogger().Warn("时长探测失败，使用默认时长 probe failed, using default duration",
			zap.String("video", req.VideoPath), zap.Error(err))
		duration = manifest.DefaultClipSeconds
	}
	lastTs := duration - 1.0
	if lastTs < 0 {
		lastTs = 0
	}

	scratchDir, err := resolveFrameScratchDir("analyze_" + uuid.New().String())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeAnalysisFailed, "解析缓存目录失败 failed to resolve scratch dir", err)
	}
	if err = os.MkdirAll(scratchDir, os.ModePerm); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFileWriteError, "创建缓存目录失败 failed to create scratch dir", err)
	}
	defer os.RemoveAll(scratchDir)

	startAttrs, err := s.describeFrameAt(ctx, req.VideoPath, 0, filepath.Join(scratchDir, "first.jpg"))
	if err != nil {
		return nil, err
	}
	endAttrs, err := s.describeFrameAt(ctx, req.VideoPath, lastTs, filepath.Join(scratchDir, "last.jpg"))
	if err != nil {
		return nil, err
	}

	name := filepath.Base(req.VideoPath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	data, err := json.MarshalIndent(clipMeta{File: name, Base: stem, Start: startAttrs, End: endAttrs}, "", "  ")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeAnalysisFailed, "元数据序列化失败 meta encode failed", err)
	}
	metaPath := filepath.Join(metaDir, stem+".json")
	if err = os.WriteFile(metaPath, data, 0644); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFileWriteError, "写入元数据失败 failed to write meta file", err)
	}

	log.GetLogger().Info("clip analyzed", zap.String("video", req.VideoPath),
		zap.String("meta", metaPath), zap.Float64("duration", duration))
	return &dto.AnalyzeClipResData{MetaPath: metaPath, Duration: duration}, nil
}

func (s Service) describeFrameAt(ctx context.Context, videoPath string, ts float64, framePath string) (types.AttributeSet, error) {
	if err := s.Sampler.SampleFrame(ctx, videoPath, ts, framePath); err != nil {
		return types.AttributeSet{}, err
	}
	attrs, err := s.Vision.DescribeFrame(ctx, framePath)
	if err != nil {
		return types.AttributeSet{}, apperrors.Wrap(apperrors.CodeAnalysisFailed, "画面分析失败 frame analysis failed", err)
	}
	return attrs, nil
}
