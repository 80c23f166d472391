package storage

import (
	"errors"

	"stitch-ai/internal/types"

	"gorm.io/gorm"
)

func SaveTask(task *types.SequenceTask) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	// Upsert: TaskId is unique but Id is the primary key, so search by TaskId first
	var existing types.SequenceTask
	result := DB.Where("task_id = ?", task.TaskId).First(&existing)

	if result.Error == nil {
		task.Id = existing.Id // Preserve ID
		return DB.Save(task).Error
	} else if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return DB.Create(task).Error
	}
	return result.Error
}

func GetTask(taskId string) (*types.SequenceTask, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	var task types.SequenceTask
	if err := DB.Where("task_id = ?", taskId).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func GetTaskHistory(limit int) ([]types.SequenceTask, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	var tasks []types.SequenceTask
	if err := DB.Order("create_time desc").Limit(limit).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func DeleteTask(taskId string) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	return DB.Where("task_id = ?", taskId).Delete(&types.SequenceTask{}).Error
}

// MarkStaleTasks marks all "running" tasks (status=1) as "failed" (status=3)
// This should be called on server startup to clean up zombie tasks
func MarkStaleTasks() (int64, error) {
	if DB == nil {
		return 0, errors.New("database not initialized")
	}
	result := DB.Model(&types.SequenceTask{}).
		Where("status = ?", types.TaskStatusRunning).
		Updates(map[string]interface{}{
			"status":      types.TaskStatusFailed,
			"fail_reason": "服务重启，任务被中断 Task interrupted by server restart",
			"status_msg":  "任务超时/中断 Task Timeout/Interrupted",
		})
	return result.RowsAffected, result.Error
}
