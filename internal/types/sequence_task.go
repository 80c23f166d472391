package types

// Task status values persisted in sequence_tasks.status
const (
	TaskStatusQueued  = 0
	TaskStatusRunning = 1
	TaskStatusSuccess = 2
	TaskStatusFailed  = 3
)

// SequenceTask 一次编排任务的持久化记录
type SequenceTask struct {
	Id             int64   `json:"id" gorm:"primaryKey;autoIncrement"`
	TaskId         string  `json:"task_id" gorm:"uniqueIndex;size:64"`
	Status         int     `json:"status"`
	StatusMsg      string  `json:"status_msg"`
	ProcessPercent uint8   `json:"process_percent"`
	MetaDir        string  `json:"meta_dir"`
	VideosDir      string  `json:"videos_dir"`
	OutputDir      string  `json:"output_dir"`
	RenderMode     string  `json:"render_mode"`
	LoopTrim       bool    `json:"loop_trim"`
	ManifestPath   string  `json:"manifest_path"`
	OutputPath     string  `json:"output_path"`
	ClipCount      int     `json:"clip_count"`
	TotalDuration  float64 `json:"total_duration"`
	AvgScore       float64 `json:"avg_score"`
	TimeSaved      float64 `json:"time_saved"`
	FallbackTiming bool    `json:"fallback_timing"`
	FailReason     string  `json:"fail_reason"`
	CreateTime     int64   `json:"create_time" gorm:"autoCreateTime"`
	UpdateTime     int64   `json:"update_time" gorm:"autoUpdateTime"`
}

// TaskStateEvent webhook 回调载荷
type TaskStateEvent struct {
	TaskId       string `json:"task_id"`
	Status       int    `json:"status"`
	StatusMsg    string `json:"status_msg"`
	ManifestPath string `json:"manifest_path,omitempty"`
	OutputPath   string `json:"output_path,omitempty"`
	FailReason   string `json:"fail_reason,omitempty"`
}
