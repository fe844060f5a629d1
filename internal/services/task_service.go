package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tasknest/tasknest-api/internal/events"
	"github.com/tasknest/tasknest-api/internal/models"
	"github.com/tasknest/tasknest-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrTitleRequired       = errors.New("title is required")
	ErrTitleEmpty          = errors.New("title cannot be empty")
	ErrNotTaskManager      = errors.New("only the task manager or an admin can perform this action")
	ErrInvalidTeamMember   = errors.New("one or more team members do not exist")
	ErrSelfDependency      = errors.New("a task cannot depend on itself")
	ErrInvalidDependency   = errors.New("one or more dependency tasks do not exist")
	ErrTaskNotTrashed      = errors.New("task is not in the trash")
	ErrTaskAccessForbidden = errors.New("user does not have access to this task")
)

// TaskService handles task business logic outside the stage state machine.
type TaskService struct {
	taskRepo      repository.TaskRepository
	notifications *NotificationService
	fanout        *events.Fanout
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, notifications *NotificationService, fanout *events.Fanout) *TaskService {
	return &TaskService{
		taskRepo:      taskRepo,
		notifications: notifications,
		fanout:        fanout,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Stage         *models.TaskStage
	AssignedToMe  bool
	UserID        uint64
	Trashed       bool
	Search        string
	DueToday      bool
	SortByDueDate bool
	Page          int
	PageSize      int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title         string
	Description   string
	Priority      models.TaskPriority
	StartDate     *time.Time
	DueDate       *time.Time
	ManagerID     uint64
	TeamIDs       []uint64
	DependencyIDs []uint64
}

// UpdateTaskInput represents input for updating a task. Stage is absent on
// purpose: stage moves go through the lifecycle service.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Priority      *models.TaskPriority
	StartDate     *time.Time
	DueDate       *time.Time
	ClearDueDate  bool
	TeamIDs       []uint64
	DependencyIDs []uint64
}

// ListTasks returns tasks matching the provided filters
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		Stage:         input.Stage,
		Trashed:       input.Trashed,
		Search:        strings.TrimSpace(input.Search),
		SortByDueDate: input.SortByDueDate,
		Page:          input.Page,
		PageSize:      input.PageSize,
	}

	if input.AssignedToMe {
		filter.AssignedUserID = &input.UserID
	}
	if input.DueToday {
		now := time.Now()
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		endOfDay := startOfDay.Add(24 * time.Hour)
		filter.DueDateFrom = &startOfDay
		filter.DueDateTo = &endOfDay
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Manager", "Team", "Dependencies", "Reminders", "Comments", "Comments.Author")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// CreateTask creates a new task owned by the acting manager
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	if input.Priority == "" {
		input.Priority = models.PriorityNormal
	}

	if err := s.verifyUsers(input.TeamIDs); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		Stage:       models.StageTodo,
		Priority:    input.Priority,
		StartDate:   input.StartDate,
		DueDate:     input.DueDate,
		ManagerID:   input.ManagerID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if len(input.TeamIDs) > 0 {
		if err := s.taskRepo.SetTeam(task.ID, uniqueUint64(input.TeamIDs)); err != nil {
			return nil, fmt.Errorf("failed to assign team: %w", err)
		}
	}

	if len(input.DependencyIDs) > 0 {
		if err := s.setDependencies(task.ID, input.DependencyIDs); err != nil {
			return nil, err
		}
	}

	s.fanout.Publish(events.TaskCreated{TaskID: task.ID})
	s.notifyAssignment(task.ID, input.ManagerID, input.TeamIDs, task.Title)

	return s.taskRepo.FindByID(task.ID, "Manager", "Team", "Dependencies")
}

// UpdateTask updates task fields with last-writer-wins semantics
func (s *TaskService) UpdateTask(taskID uint64, actor *models.User, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Team")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if !canActOnTask(task, actor) {
		return nil, ErrTaskAccessForbidden
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrTitleEmpty
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.StartDate != nil {
		task.StartDate = input.StartDate
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}

	// Only the editable scalar columns are written; associations are
	// replaced explicitly below
	task.Team = nil
	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if input.TeamIDs != nil {
		if err := s.verifyUsers(input.TeamIDs); err != nil {
			return nil, err
		}
		if err := s.taskRepo.SetTeam(taskID, uniqueUint64(input.TeamIDs)); err != nil {
			return nil, fmt.Errorf("failed to update team: %w", err)
		}
	}

	if input.DependencyIDs != nil {
		if err := s.setDependencies(taskID, input.DependencyIDs); err != nil {
			return nil, err
		}
	}

	s.fanout.Publish(events.TaskUpdated{TaskID: taskID})

	return s.taskRepo.FindByID(taskID, "Manager", "Team", "Dependencies")
}

// DuplicateTask creates a copy of a task under the same manager. The copy
// keeps the fields, team and dependency set of the original but starts back
// at todo with no completion timestamp; reminders and comments are not
// carried over.
func (s *TaskService) DuplicateTask(taskID uint64, actor *models.User) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Team", "Dependencies")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if task.ManagerID != actor.ID && !actor.IsAdmin() {
		return nil, ErrNotTaskManager
	}

	dup := &models.Task{
		Title:       "Duplicate - " + task.Title,
		Description: task.Description,
		Stage:       models.StageTodo,
		Priority:    task.Priority,
		StartDate:   task.StartDate,
		DueDate:     task.DueDate,
		ManagerID:   task.ManagerID,
	}

	if err := s.taskRepo.Create(dup); err != nil {
		return nil, fmt.Errorf("failed to duplicate task: %w", err)
	}

	teamIDs := make([]uint64, 0, len(task.Team))
	for _, member := range task.Team {
		teamIDs = append(teamIDs, member.ID)
	}
	if len(teamIDs) > 0 {
		if err := s.taskRepo.SetTeam(dup.ID, teamIDs); err != nil {
			return nil, fmt.Errorf("failed to copy team: %w", err)
		}
	}

	depIDs := make([]uint64, 0, len(task.Dependencies))
	for _, dep := range task.Dependencies {
		depIDs = append(depIDs, dep.ID)
	}
	if len(depIDs) > 0 {
		if err := s.taskRepo.SetDependencies(dup.ID, depIDs); err != nil {
			return nil, fmt.Errorf("failed to copy dependencies: %w", err)
		}
	}

	s.fanout.Publish(events.TaskCreated{TaskID: dup.ID})
	s.notifyAssignment(dup.ID, actor.ID, teamIDs, dup.Title)

	return s.taskRepo.FindByID(dup.ID, "Manager", "Team", "Dependencies")
}

// TrashTask moves a task to the trash
func (s *TaskService) TrashTask(taskID uint64, actor *models.User) error {
	task, err := s.findManaged(taskID, actor)
	if err != nil {
		return err
	}

	if err := s.taskRepo.SetTrashed(task.ID, true); err != nil {
		return fmt.Errorf("failed to trash task: %w", err)
	}

	s.fanout.Publish(events.TaskTrashed{TaskID: taskID})
	return nil
}

// RestoreTask brings a task back from the trash
func (s *TaskService) RestoreTask(taskID uint64, actor *models.User) error {
	task, err := s.findManaged(taskID, actor)
	if err != nil {
		return err
	}

	if !task.IsTrashed {
		return ErrTaskNotTrashed
	}

	if err := s.taskRepo.SetTrashed(task.ID, false); err != nil {
		return fmt.Errorf("failed to restore task: %w", err)
	}

	s.fanout.Publish(events.TaskUpdated{TaskID: taskID})
	return nil
}

// DeleteTask permanently removes a trashed task and everything attached to it
func (s *TaskService) DeleteTask(taskID uint64, actor *models.User) error {
	task, err := s.findManaged(taskID, actor)
	if err != nil {
		return err
	}

	if !task.IsTrashed {
		return ErrTaskNotTrashed
	}

	if err := s.taskRepo.HardDelete(task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.fanout.Publish(events.TaskDeleted{TaskID: taskID})
	return nil
}

// AssignTeam replaces the task's team and notifies the new members
func (s *TaskService) AssignTeam(taskID uint64, actor *models.User, userIDs []uint64) (*models.Task, error) {
	task, err := s.findManaged(taskID, actor)
	if err != nil {
		return nil, err
	}

	if err := s.verifyUsers(userIDs); err != nil {
		return nil, err
	}

	if err := s.taskRepo.SetTeam(task.ID, uniqueUint64(userIDs)); err != nil {
		return nil, fmt.Errorf("failed to assign team: %w", err)
	}

	s.fanout.Publish(events.TaskUpdated{TaskID: taskID})
	s.notifyAssignment(task.ID, actor.ID, userIDs, task.Title)

	return s.taskRepo.FindByID(taskID, "Manager", "Team")
}

// findManaged loads a task and checks the actor may administer it
func (s *TaskService) findManaged(taskID uint64, actor *models.User) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if task.ManagerID != actor.ID && !actor.IsAdmin() {
		return nil, ErrNotTaskManager
	}

	return task, nil
}

func (s *TaskService) verifyUsers(userIDs []uint64) error {
	if len(userIDs) == 0 {
		return nil
	}

	unique := uniqueUint64(userIDs)
	count, err := s.taskRepo.CountUsersByIDs(unique)
	if err != nil {
		return fmt.Errorf("failed to verify users: %w", err)
	}
	if int(count) != len(unique) {
		return ErrInvalidTeamMember
	}
	return nil
}

func (s *TaskService) setDependencies(taskID uint64, dependencyIDs []uint64) error {
	unique := uniqueUint64(dependencyIDs)
	for _, depID := range unique {
		if depID == taskID {
			return ErrSelfDependency
		}
		if _, err := s.taskRepo.FindByID(depID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidDependency
			}
			return fmt.Errorf("failed to verify dependency: %w", err)
		}
	}

	if err := s.taskRepo.SetDependencies(taskID, unique); err != nil {
		return fmt.Errorf("failed to set dependencies: %w", err)
	}
	return nil
}

// notifyAssignment creates task_assigned notifications for team members
func (s *TaskService) notifyAssignment(taskID, senderID uint64, userIDs []uint64, title string) {
	id := taskID
	for _, userID := range uniqueUint64(userIDs) {
		if userID == senderID {
			continue
		}
		_, err := s.notifications.Create(CreateNotificationInput{
			RecipientID: userID,
			SenderID:    senderID,
			Type:        models.NotificationTaskAssigned,
			Title:       "Task assigned",
			Message:     fmt.Sprintf("You have been assigned to %q.", title),
			TaskID:      &id,
		})
		if err != nil {
			log.Printf("failed to notify user %d about assignment to task %d: %v", userID, taskID, err)
		}
	}
}

func uniqueUint64(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	unique := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
