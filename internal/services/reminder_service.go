package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/tasknest/tasknest-api/internal/events"
	"github.com/tasknest/tasknest-api/internal/models"
	"github.com/tasknest/tasknest-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrReminderNotFound     = errors.New("reminder not found")
	ErrReminderTimeRequired = errors.New("reminder time is required")
	ErrReminderTaskMismatch = errors.New("reminder does not belong to this task")
)

// ReminderService manages reminders attached to tasks. Dispatching due
// reminders is the scheduler's job; this service only creates and removes
// them.
type ReminderService struct {
	reminderRepo repository.ReminderRepository
	taskRepo     repository.TaskRepository
	fanout       *events.Fanout
}

// NewReminderService creates a new ReminderService
func NewReminderService(reminderRepo repository.ReminderRepository, taskRepo repository.TaskRepository, fanout *events.Fanout) *ReminderService {
	return &ReminderService{
		reminderRepo: reminderRepo,
		taskRepo:     taskRepo,
		fanout:       fanout,
	}
}

// AddReminderInput represents input for attaching a reminder to a task
type AddReminderInput struct {
	TaskID  uint64
	Type    models.ReminderType
	Time    time.Time
	Message string
}

// AddReminder attaches a reminder to a task
func (s *ReminderService) AddReminder(actor *models.User, input AddReminderInput) (*models.Reminder, error) {
	if input.Time.IsZero() {
		return nil, ErrReminderTimeRequired
	}

	task, err := s.taskRepo.FindByID(input.TaskID, "Team")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if !canActOnTask(task, actor) {
		return nil, ErrTaskAccessForbidden
	}

	if input.Type == "" {
		input.Type = models.ReminderInApp
	}
	if input.Message == "" {
		input.Message = fmt.Sprintf("Reminder for task: %s", task.Title)
	}

	reminder := &models.Reminder{
		TaskID:  input.TaskID,
		Type:    input.Type,
		Time:    input.Time,
		Message: input.Message,
	}

	if err := s.reminderRepo.Create(reminder); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	s.fanout.Publish(events.ReminderAdded{TaskID: input.TaskID, ReminderID: reminder.ID})
	return reminder, nil
}

// DeleteReminder removes a reminder from a task
func (s *ReminderService) DeleteReminder(taskID, reminderID uint64, actor *models.User) error {
	reminder, err := s.reminderRepo.FindByID(reminderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReminderNotFound
		}
		return fmt.Errorf("failed to find reminder: %w", err)
	}

	if reminder.TaskID != taskID {
		return ErrReminderTaskMismatch
	}

	task, err := s.taskRepo.FindByID(taskID, "Team")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if !canActOnTask(task, actor) {
		return ErrTaskAccessForbidden
	}

	if err := s.reminderRepo.Delete(reminderID); err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}

	s.fanout.Publish(events.ReminderDeleted{TaskID: taskID, ReminderID: reminderID})
	return nil
}
