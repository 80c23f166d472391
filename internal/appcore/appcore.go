// Package appcore defines the job lifecycle vocabulary shared by the
// API layer and the background executors: pipeline stages, the progress
// checkpoints the pipeline reports, and the event frames pushed to
// status subscribers.
package appcore

import "stitch-ai/internal/types"

// JobStage is the coarse position of a task inside the pipeline.
type JobStage uint8

const (
	JobStageQueued JobStage = iota
	JobStagePreparing
	JobStageSequencing
	JobStageRefining
	JobStageRendering
	JobStageSucceeded
	JobStageFailed
)

func (s JobStage) String() string {
	switch s {
	case JobStageQueued:
		return "queued"
	case JobStagePreparing:
		return "preparing"
	case JobStageSequencing:
		return "sequencing"
	case JobStageRefining:
		return "refining"
	case JobStageRendering:
		return "rendering"
	case JobStageSucceeded:
		return "succeeded"
	case JobStageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the stage ends the job lifecycle.
func (s JobStage) IsTerminal() bool {
	return s == JobStageSucceeded || s == JobStageFailed
}

// Progress checkpoints reported by the sequencing pipeline. Each value
// is set when the stage starts, so a row sitting at a checkpoint is
// inside that stage.
const (
	PercentLoading    uint8 = 5
	PercentSequencing uint8 = 25
	PercentManifest   uint8 = 45
	PercentRefining   uint8 = 65
	PercentRendering  uint8 = 85
	PercentDone       uint8 = 100
)

// StageForTask maps a persisted task row back onto its stage. Running
// rows are banded by their last progress checkpoint.
func StageForTask(status int, percent uint8) JobStage {
	switch status {
	case types.TaskStatusQueued:
		return JobStageQueued
	case types.TaskStatusSuccess:
		return JobStageSucceeded
	case types.TaskStatusFailed:
		return JobStageFailed
	}

	switch {
	case percent < PercentSequencing:
		return JobStagePreparing
	case percent < PercentRefining:
		return JobStageSequencing
	case percent < PercentRendering:
		return JobStageRefining
	default:
		return JobStageRendering
	}
}

// JobEvent is one progress frame pushed to websocket subscribers.
type JobEvent struct {
	TaskId  string `json:"task_id"`
	Status  int    `json:"status"`
	Stage   string `json:"stage"`
	Percent uint8  `json:"percent"`
	Message string `json:"message"`
}

// EventForTask snapshots a task row into a progress frame.
func EventForTask(task *types.SequenceTask) JobEvent {
	return JobEvent{
		TaskId:  task.TaskId,
		Status:  task.Status,
		Stage:   StageForTask(task.Status, task.ProcessPercent).String(),
		Percent: task.ProcessPercent,
		Message: task.StatusMsg,
	}
}
