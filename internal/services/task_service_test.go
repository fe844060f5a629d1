package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tasknest/tasknest-api/internal/events"
	"github.com/tasknest/tasknest-api/internal/models"
	"github.com/tasknest/tasknest-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// stageRacingRepo wraps a TaskRepository and commits a stage transition
// between the service's read and its write, like a second instance would.
type stageRacingRepo struct {
	repository.TaskRepository
	taskID uint64
}

func (r *stageRacingRepo) Update(task *models.Task) error {
	if task.ID == r.taskID {
		if _, err := r.TaskRepository.ChangeStage(r.taskID, models.StageTodo, models.StageInProgress, nil); err != nil {
			return err
		}
	}
	return r.TaskRepository.Update(task)
}

// TaskServiceTestSuite defines the test suite for TaskService
type TaskServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	publisher *recordingPublisher
	taskRepo  repository.TaskRepository
	service   *TaskService
}

// SetupTest runs before each test
func (suite *TaskServiceTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.Reminder{},
		&models.Notification{},
		&models.Comment{},
	)
	suite.Require().NoError(err)

	suite.publisher = &recordingPublisher{}
	fanout := events.NewFanout(suite.publisher)

	suite.taskRepo = repository.NewTaskRepository(suite.db)
	notifications := NewNotificationService(repository.NewNotificationRepository(suite.db), fanout)
	suite.service = NewTaskService(suite.taskRepo, notifications, fanout)
}

// TearDownTest runs after each test
func (suite *TaskServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *TaskServiceTestSuite) createTestUser(email string, role models.UserRole) *models.User {
	user := &models.User{
		Name:         email,
		Email:        email,
		PasswordHash: "hashedpassword",
		Role:         role,
	}
	suite.db.Create(user)
	return user
}

func (suite *TaskServiceTestSuite) createTestTask(title string, stage models.TaskStage, managerID uint64) *models.Task {
	task := &models.Task{
		Title:     title,
		Stage:     stage,
		ManagerID: managerID,
	}
	suite.db.Create(task)
	return task
}

// TestUpdateTask_KeepsConcurrentStageTransition tests that a field update
// racing a committed stage transition cannot write the old stage back
func (suite *TaskServiceTestSuite) TestUpdateTask_KeepsConcurrentStageTransition() {
	manager := suite.createTestUser("manager@example.com", models.RoleUser)
	task := suite.createTestTask("Racy", models.StageTodo, manager.ID)

	racing := &stageRacingRepo{TaskRepository: suite.taskRepo, taskID: task.ID}
	fanout := events.NewFanout(suite.publisher)
	notifications := NewNotificationService(repository.NewNotificationRepository(suite.db), fanout)
	service := NewTaskService(racing, notifications, fanout)

	title := "Racy, renamed"
	updated, err := service.UpdateTask(task.ID, manager, UpdateTaskInput{Title: &title})
	suite.Require().NoError(err)

	// Both writers land: the rename applies and the transition survives.
	assert.Equal(suite.T(), "Racy, renamed", updated.Title)
	assert.Equal(suite.T(), models.StageInProgress, updated.Stage)

	var reloaded models.Task
	suite.db.First(&reloaded, task.ID)
	assert.Equal(suite.T(), models.StageInProgress, reloaded.Stage)
}

// TestUpdateTask_ClearsDueDate tests that an explicit clear writes NULL
func (suite *TaskServiceTestSuite) TestUpdateTask_ClearsDueDate() {
	manager := suite.createTestUser("manager@example.com", models.RoleUser)
	task := suite.createTestTask("Dated", models.StageTodo, manager.ID)
	due := time.Now().Add(24 * time.Hour)
	suite.db.Model(task).Update("due_date", due)

	updated, err := suite.service.UpdateTask(task.ID, manager, UpdateTaskInput{ClearDueDate: true})
	suite.Require().NoError(err)
	assert.Nil(suite.T(), updated.DueDate)
}

// TestDuplicateTask_CopiesTeamAndDependencies tests what a duplicate carries over
func (suite *TaskServiceTestSuite) TestDuplicateTask_CopiesTeamAndDependencies() {
	manager := suite.createTestUser("manager@example.com", models.RoleUser)
	member := suite.createTestUser("member@example.com", models.RoleUser)
	blocker := suite.createTestTask("Blocker", models.StageInProgress, manager.ID)
	task := suite.createTestTask("Original", models.StageTodo, manager.ID)
	suite.Require().NoError(suite.db.Model(task).Association("Team").Append(member))
	suite.Require().NoError(suite.db.Model(task).Association("Dependencies").Append(blocker))

	dup, err := suite.service.DuplicateTask(task.ID, manager)
	suite.Require().NoError(err)

	assert.NotEqual(suite.T(), task.ID, dup.ID)
	assert.Equal(suite.T(), "Duplicate - Original", dup.Title)
	assert.Equal(suite.T(), manager.ID, dup.ManagerID)
	suite.Require().Len(dup.Team, 1)
	assert.Equal(suite.T(), member.ID, dup.Team[0].ID)
	suite.Require().Len(dup.Dependencies, 1)
	assert.Equal(suite.T(), blocker.ID, dup.Dependencies[0].ID)

	// The copy announces itself like any other new task and notifies the team.
	assert.Contains(suite.T(), suite.publisher.eventNames(), "task-created")
	var count int64
	suite.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND type = ?", member.ID, models.NotificationTaskAssigned).
		Count(&count)
	assert.Equal(suite.T(), int64(1), count)
}

// TestDuplicateTask_ResetsProgress tests that the copy starts over
func (suite *TaskServiceTestSuite) TestDuplicateTask_ResetsProgress() {
	manager := suite.createTestUser("manager@example.com", models.RoleUser)
	task := suite.createTestTask("Finished", models.StageCompleted, manager.ID)
	completedAt := time.Now().UTC()
	suite.db.Model(task).Update("completed_at", completedAt)

	dup, err := suite.service.DuplicateTask(task.ID, manager)
	suite.Require().NoError(err)

	assert.Equal(suite.T(), models.StageTodo, dup.Stage)
	assert.Nil(suite.T(), dup.CompletedAt)
}

// TestDuplicateTask_ManagerOnly tests that only the manager or an admin may duplicate
func (suite *TaskServiceTestSuite) TestDuplicateTask_ManagerOnly() {
	manager := suite.createTestUser("manager@example.com", models.RoleUser)
	outsider := suite.createTestUser("outsider@example.com", models.RoleUser)
	admin := suite.createTestUser("admin@example.com", models.RoleAdmin)
	task := suite.createTestTask("Guarded", models.StageTodo, manager.ID)

	_, err := suite.service.DuplicateTask(task.ID, outsider)
	assert.ErrorIs(suite.T(), err, ErrNotTaskManager)

	_, err = suite.service.DuplicateTask(task.ID, admin)
	assert.NoError(suite.T(), err)
}

// TestDuplicateTask_NotFound tests the missing-task path
func (suite *TaskServiceTestSuite) TestDuplicateTask_NotFound() {
	actor := suite.createTestUser("manager@example.com", models.RoleUser)

	_, err := suite.service.DuplicateTask(9999, actor)
	assert.ErrorIs(suite.T(), err, ErrTaskNotFound)
}

// TestSuite runs the test suite
func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}
