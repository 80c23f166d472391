package service

import (
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"stitch-ai/config"
	"stitch-ai/internal/dto"
	"stitch-ai/internal/metadata"
	"stitch-ai/internal/sequence"
	"stitch-ai/log"
)

// InspectScenes loads and normalizes a metadata directory without
// starting a task, then buckets the clips by their opening scene
// signature and rates each one's loop potential. Meant for checking a
// batch before committing it to a sequencing run.
func (s Service) InspectScenes(req dto.InspectScenesReq) (*dto.InspectScenesResData, error) {
	videosDir := req.VideosDir
	if videosDir == "" {
		videosDir = req.MetaDir
	}
	sources, problems, err := metadata.LoadDir(req.MetaDir)
	if err != nil {
		return nil, err
	}
	normalizer := metadata.NewNormalizer(videosDir, float64(config.Conf.App.SegmentDuration))
	res := normalizer.ResolveBatch(sources)
	res.Problems = append(problems, res.Problems...)
	for _, p := range res.Problems {
		log.GetLogger().Warn("元数据问题 metadata problem",
			zap.String("file", p.File), zap.String("reason", p.Reason))
	}
	records, _, err := normalizer.Finalize(res)
	if err != nil {
		return nil, err
	}

	grouped := sequence.GroupByScene(records)
	signatures := make([]string, 0, len(grouped))
	for sig := range grouped {
		signatures = append(signatures, sig)
	}
	sort.Strings(signatures)

	out := &dto.InspectScenesResData{
		ClipCount:  len(records),
		GroupCount: len(grouped),
		Groups:     make([]dto.SceneGroup, 0, len(grouped)),
	}
	for _, sig := range signatures {
		group := dto.SceneGroup{Signature: sig}
		for _, r := range grouped[sig] {
			// 首尾任一状态像可循环镜头就算候选
			score := sequence.LoopCandidateScore(r.StartAttrs)
			if endScore := sequence.LoopCandidateScore(r.EndAttrs); endScore > score {
				score = endScore
			}
			candidate := sequence.IsLoopCandidate(r.StartAttrs) || sequence.IsLoopCandidate(r.EndAttrs)
			if candidate {
				out.LoopCandidates++
			}
			group.Clips = append(group.Clips, dto.SceneClip{
				Id:            r.Id,
				File:          filepath.Base(r.Path),
				LoopScore:     score,
				LoopCandidate: candidate,
			})
		}
		out.Groups = append(out.Groups, group)
	}

	log.GetLogger().Info("scene inspection done", zap.String("meta_dir", req.MetaDir),
		zap.Int("clips", out.ClipCount), zap.Int("groups", out.GroupCount),
		zap.Int("loop_candidates", out.LoopCandidates))
	return out, nil
}
