package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tasknest/tasknest-api/internal/models"
)

// TestToTaskDTO_FlagsLateCompletion tests the completed-late derivation
func TestToTaskDTO_FlagsLateCompletion(t *testing.T) {
	due := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	late := due.Add(time.Hour)
	task := models.Task{ID: 1, Title: "Late", Stage: models.StageCompleted, DueDate: &due, CompletedAt: &late}
	assert.True(t, ToTaskDTO(task).CompletedLate)

	onTime := due.Add(-time.Hour)
	task.CompletedAt = &onTime
	assert.False(t, ToTaskDTO(task).CompletedLate)

	// Without a due date or a completion there is nothing to be late against.
	task.CompletedAt = nil
	assert.False(t, ToTaskDTO(task).CompletedLate)
	task.CompletedAt = &late
	task.DueDate = nil
	assert.False(t, ToTaskDTO(task).CompletedLate)
}
