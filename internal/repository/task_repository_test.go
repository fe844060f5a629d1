package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasknest/tasknest-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTaskRepo(t *testing.T) (TaskRepository, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.Reminder{},
		&models.Notification{},
		&models.Comment{},
	))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		require.NoError(t, err)
		sqlDB.Close()
	})

	return NewTaskRepository(db), db
}

// TestChangeStage_AppliesOnlyFromExpectedStage tests the conditional write
func TestChangeStage_AppliesOnlyFromExpectedStage(t *testing.T) {
	repo, db := newTaskRepo(t)

	task := &models.Task{Title: "Guarded", Stage: models.StageTodo, ManagerID: 1}
	require.NoError(t, db.Create(task).Error)

	applied, err := repo.ChangeStage(task.ID, models.StageTodo, models.StageInProgress, nil)
	require.NoError(t, err)
	assert.True(t, applied)

	// A second writer that still believes the task is in "todo" loses.
	applied, err = repo.ChangeStage(task.ID, models.StageTodo, models.StageInProgress, nil)
	require.NoError(t, err)
	assert.False(t, applied)

	var reloaded models.Task
	require.NoError(t, db.First(&reloaded, task.ID).Error)
	assert.Equal(t, models.StageInProgress, reloaded.Stage)
}

// TestChangeStage_StampsCompletedAt tests the completion timestamp write
func TestChangeStage_StampsCompletedAt(t *testing.T) {
	repo, db := newTaskRepo(t)

	task := &models.Task{Title: "Finishing", Stage: models.StageInProgress, ManagerID: 1}
	require.NoError(t, db.Create(task).Error)

	completedAt := time.Now().UTC()
	applied, err := repo.ChangeStage(task.ID, models.StageInProgress, models.StageCompleted, &completedAt)
	require.NoError(t, err)
	assert.True(t, applied)

	var reloaded models.Task
	require.NoError(t, db.First(&reloaded, task.ID).Error)
	require.NotNil(t, reloaded.CompletedAt)
	assert.WithinDuration(t, completedAt, *reloaded.CompletedAt, time.Second)
}

// TestUpdate_PreservesConcurrentStageAndTrashWrites tests that a stale field
// update cannot undo a stage transition or trash flip committed in between
func TestUpdate_PreservesConcurrentStageAndTrashWrites(t *testing.T) {
	repo, db := newTaskRepo(t)

	task := &models.Task{Title: "Edited", Stage: models.StageTodo, ManagerID: 1}
	require.NoError(t, db.Create(task).Error)

	// Another writer moves the task forward while this copy is still in hand.
	stale, err := repo.FindByID(task.ID)
	require.NoError(t, err)

	applied, err := repo.ChangeStage(task.ID, models.StageTodo, models.StageInProgress, nil)
	require.NoError(t, err)
	require.True(t, applied)
	require.NoError(t, repo.SetTrashed(task.ID, true))

	stale.Title = "Edited later"
	require.NoError(t, repo.Update(stale))

	var reloaded models.Task
	require.NoError(t, db.First(&reloaded, task.ID).Error)
	assert.Equal(t, "Edited later", reloaded.Title)
	assert.Equal(t, models.StageInProgress, reloaded.Stage)
	assert.True(t, reloaded.IsTrashed)
}

// TestHardDelete_CascadesAttachedRecords tests removal of everything hanging off a task
func TestHardDelete_CascadesAttachedRecords(t *testing.T) {
	repo, db := newTaskRepo(t)

	user := &models.User{Name: "member", Email: "member@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)

	task := &models.Task{Title: "Doomed", ManagerID: user.ID}
	other := &models.Task{Title: "Survivor", ManagerID: user.ID}
	require.NoError(t, db.Create(task).Error)
	require.NoError(t, db.Create(other).Error)
	require.NoError(t, db.Model(task).Association("Team").Append(user))
	require.NoError(t, db.Model(other).Association("Dependencies").Append(task))

	taskID := task.ID
	require.NoError(t, db.Create(&models.Reminder{TaskID: taskID, Time: time.Now()}).Error)
	require.NoError(t, db.Create(&models.Comment{TaskID: taskID, AuthorID: user.ID, Body: "gone"}).Error)
	require.NoError(t, db.Create(&models.Notification{
		RecipientID: user.ID, SenderID: user.ID,
		Type: models.NotificationTaskAssigned, Title: "Assigned", TaskID: &taskID,
	}).Error)

	require.NoError(t, repo.HardDelete(taskID))

	var count int64
	db.Model(&models.Task{}).Where("id = ?", taskID).Count(&count)
	assert.Equal(t, int64(0), count)
	db.Model(&models.Reminder{}).Where("task_id = ?", taskID).Count(&count)
	assert.Equal(t, int64(0), count)
	db.Model(&models.Comment{}).Where("task_id = ?", taskID).Count(&count)
	assert.Equal(t, int64(0), count)
	db.Model(&models.Notification{}).Where("task_id = ?", taskID).Count(&count)
	assert.Equal(t, int64(0), count)
	db.Table("task_team").Where("task_id = ?", taskID).Count(&count)
	assert.Equal(t, int64(0), count)
	// Both directions of the dependency table are cleared.
	db.Table("task_dependencies").Where("task_id = ? OR depends_on_id = ?", taskID, taskID).Count(&count)
	assert.Equal(t, int64(0), count)

	// The dependent task itself survives.
	db.Model(&models.Task{}).Where("id = ?", other.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

// TestFindDependents_ReturnsTasksGatedOnTarget tests the reverse dependency lookup
func TestFindDependents_ReturnsTasksGatedOnTarget(t *testing.T) {
	repo, db := newTaskRepo(t)

	blocker := &models.Task{Title: "Blocker", ManagerID: 1}
	first := &models.Task{Title: "First dependent", ManagerID: 1}
	second := &models.Task{Title: "Second dependent", ManagerID: 1}
	unrelated := &models.Task{Title: "Unrelated", ManagerID: 1}
	for _, task := range []*models.Task{blocker, first, second, unrelated} {
		require.NoError(t, db.Create(task).Error)
	}
	require.NoError(t, db.Model(first).Association("Dependencies").Append(blocker))
	require.NoError(t, db.Model(second).Association("Dependencies").Append(blocker))

	dependents, err := repo.FindDependents(blocker.ID)
	require.NoError(t, err)
	require.Len(t, dependents, 2)

	titles := []string{dependents[0].Title, dependents[1].Title}
	assert.ElementsMatch(t, []string{"First dependent", "Second dependent"}, titles)
}

// TestSetDependencies_ReplacesSet tests that the dependency set is replaced, not appended
func TestSetDependencies_ReplacesSet(t *testing.T) {
	repo, db := newTaskRepo(t)

	task := &models.Task{Title: "Gated", ManagerID: 1}
	depA := &models.Task{Title: "A", ManagerID: 1}
	depB := &models.Task{Title: "B", ManagerID: 1}
	for _, item := range []*models.Task{task, depA, depB} {
		require.NoError(t, db.Create(item).Error)
	}

	require.NoError(t, repo.SetDependencies(task.ID, []uint64{depA.ID}))
	require.NoError(t, repo.SetDependencies(task.ID, []uint64{depB.ID}))

	loaded, err := repo.FindByID(task.ID, "Dependencies")
	require.NoError(t, err)
	require.Len(t, loaded.Dependencies, 1)
	assert.Equal(t, depB.ID, loaded.Dependencies[0].ID)
}

// TestCountUsersByIDs tests the existence count used by team validation
func TestCountUsersByIDs(t *testing.T) {
	repo, db := newTaskRepo(t)

	alice := &models.User{Name: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(alice).Error)

	count, err := repo.CountUsersByIDs([]uint64{alice.ID, 9999})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
