package dto

// Render modes accepted by StartSequenceTaskReq. Empty means plan only.
const (
	RenderModeTransitions = "transitions"
	RenderModeCuts        = "cuts"
	RenderModeConcat      = "concat"
)

// StartSequenceTaskReq 启动一次编排任务
type StartSequenceTaskReq struct {
	MetaDir   string `json:"meta_dir" binding:"required"`
	VideosDir string `json:"videos_dir"`
	OutputDir string `json:"output_dir"`
	// RenderMode 为空只产出清单；transitions / cuts / concat 额外合成视频
	RenderMode string `json:"render_mode"`
	// LoopTrim 是否在清单上做循环边界修剪
	LoopTrim bool `json:"loop_trim"`
	// ReuseTaskId 重试时复用已有任务号
	ReuseTaskId string `json:"reuse_task_id"`
}

type StartSequenceTaskResData struct {
	TaskId string `json:"task_id"`
}

// GetSequenceTaskReq 查询任务状态
type GetSequenceTaskReq struct {
	TaskId string `json:"task_id" form:"task_id" binding:"required"`
}

type GetSequenceTaskResData struct {
	TaskId         string  `json:"task_id"`
	Status         int     `json:"status"`
	Stage          string  `json:"stage"`
	ProcessPercent uint8   `json:"process_percent"`
	StatusMsg      string  `json:"status_msg"`
	ManifestPath   string  `json:"manifest_path,omitempty"`
	OutputPath     string  `json:"output_path,omitempty"`
	// ManifestUrl / OutputUrl 是文件下载接口可用的别名地址
	ManifestUrl    string  `json:"manifest_url,omitempty"`
	OutputUrl      string  `json:"output_url,omitempty"`
	ClipCount      int     `json:"clip_count"`
	TotalDuration  float64 `json:"total_duration"`
	AvgScore       float64 `json:"avg_score"`
	TimeSaved      float64 `json:"time_saved"`
	FallbackTiming bool    `json:"fallback_timing"`
	FailReason     string  `json:"fail_reason,omitempty"`
}

// AnalyzeClipReq 对单个片段做视觉分析并写出元数据 JSON
type AnalyzeClipReq struct {
	VideoPath string `json:"video_path" binding:"required"`
	// MetaDir 元数据输出目录，默认与视频同目录
	MetaDir string `json:"meta_dir"`
}

type AnalyzeClipResData struct {
	MetaPath string  `json:"meta_path"`
	Duration float64 `json:"duration"`
}

// GenerateMetaReq 为整个视频目录生成顺序兜底元数据
type GenerateMetaReq struct {
	VideosDir string `json:"videos_dir" binding:"required"`
	MetaDir   string `json:"meta_dir" binding:"required"`
	// ClipSeconds 每个片段的窗口时长，默认 2 秒
	ClipSeconds float64 `json:"clip_seconds"`
	// Force 覆盖已有元数据文件
	Force bool `json:"force"`
}

type GenerateMetaResData struct {
	Written int `json:"written"`
	Skipped int `json:"skipped"`
}

// InspectScenesReq 按场景签名分组元数据目录并评估循环潜力
type InspectScenesReq struct {
	MetaDir string `json:"meta_dir" binding:"required"`
	// VideosDir 用于解析相对片段路径，默认与 meta_dir 相同
	VideosDir string `json:"videos_dir"`
}

type SceneClip struct {
	Id            string  `json:"id"`
	File          string  `json:"file"`
	LoopScore     float64 `json:"loop_score"`
	LoopCandidate bool    `json:"loop_candidate"`
}

type SceneGroup struct {
	Signature string      `json:"signature"`
	Clips     []SceneClip `json:"clips"`
}

type InspectScenesResData struct {
	ClipCount      int          `json:"clip_count"`
	GroupCount     int          `json:"group_count"`
	LoopCandidates int          `json:"loop_candidates"`
	Groups         []SceneGroup `json:"groups"`
}

// ProbeManifestReq 跳过编排，直接按目录顺序+探测时长出清单
type ProbeManifestReq struct {
	VideosDir string `json:"videos_dir" binding:"required"`
	OutDir    string `json:"out_dir" binding:"required"`
}

type ProbeManifestResData struct {
	ManifestPath string `json:"manifest_path"`
	ItemCount    int    `json:"item_count"`
}
