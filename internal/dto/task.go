package dto

import (
	"time"

	"github.com/tasknest/tasknest-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID    uint64          `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Role  models.UserRole `json:"role"`
}

// TaskSummaryDTO references a related task with just enough to render it
type TaskSummaryDTO struct {
	ID    uint64           `json:"id"`
	Title string           `json:"title"`
	Stage models.TaskStage `json:"stage"`
}

// ReminderDTO represents a reminder in API responses
type ReminderDTO struct {
	ID      uint64              `json:"id"`
	TaskID  uint64              `json:"task_id"`
	Type    models.ReminderType `json:"type"`
	Time    time.Time           `json:"time"`
	Sent    bool                `json:"sent"`
	Message string              `json:"message"`
}

// CommentDTO represents a comment in API responses
type CommentDTO struct {
	ID        uint64    `json:"id"`
	TaskID    uint64    `json:"task_id"`
	Body      string    `json:"body"`
	Author    *UserDTO  `json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID            uint64              `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Stage         models.TaskStage    `json:"stage"`
	Priority      models.TaskPriority `json:"priority"`
	StartDate     *time.Time          `json:"start_date"`
	DueDate       *time.Time          `json:"due_date"`
	CompletedAt   *time.Time          `json:"completed_at"`
	CompletedLate bool                `json:"completed_late"`
	IsTrashed     bool                `json:"is_trashed"`
	ManagerID     uint64              `json:"manager_id"`
	Manager       *UserDTO            `json:"manager,omitempty"`
	Team          []UserDTO           `json:"team,omitempty"`
	Dependencies  []TaskSummaryDTO    `json:"dependencies,omitempty"`
	Reminders     []ReminderDTO       `json:"reminders,omitempty"`
	Comments      []CommentDTO        `json:"comments,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// TaskListItemDTO represents a task in list responses (minimal data)
type TaskListItemDTO struct {
	ID        uint64              `json:"id"`
	Title     string              `json:"title"`
	Stage     models.TaskStage    `json:"stage"`
	Priority  models.TaskPriority `json:"priority"`
	DueDate   *time.Time          `json:"due_date"`
	ManagerID uint64              `json:"manager_id"`
	Manager   *UserDTO            `json:"manager,omitempty"`
	Team      []UserDTO           `json:"team,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}

// ToReminderDTO converts a Reminder model to ReminderDTO
func ToReminderDTO(reminder models.Reminder) ReminderDTO {
	return ReminderDTO{
		ID:      reminder.ID,
		TaskID:  reminder.TaskID,
		Type:    reminder.Type,
		Time:    reminder.Time,
		Sent:    reminder.Sent,
		Message: reminder.Message,
	}
}

// ToCommentDTO converts a Comment model to CommentDTO
func ToCommentDTO(comment models.Comment) CommentDTO {
	dto := CommentDTO{
		ID:        comment.ID,
		TaskID:    comment.TaskID,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	}
	if comment.Author.ID != 0 {
		author := ToUserDTO(comment.Author)
		dto.Author = &author
	}
	return dto
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:            task.ID,
		Title:         task.Title,
		Description:   task.Description,
		Stage:         task.Stage,
		Priority:      task.Priority,
		StartDate:     task.StartDate,
		DueDate:       task.DueDate,
		CompletedAt:   task.CompletedAt,
		CompletedLate: task.CompletedLate(),
		IsTrashed:     task.IsTrashed,
		ManagerID:     task.ManagerID,
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
	}

	if task.Manager.ID != 0 {
		manager := ToUserDTO(task.Manager)
		dto.Manager = &manager
	}
	for _, member := range task.Team {
		dto.Team = append(dto.Team, ToUserDTO(member))
	}
	for _, dep := range task.Dependencies {
		dto.Dependencies = append(dto.Dependencies, TaskSummaryDTO{
			ID:    dep.ID,
			Title: dep.Title,
			Stage: dep.Stage,
		})
	}
	for _, reminder := range task.Reminders {
		dto.Reminders = append(dto.Reminders, ToReminderDTO(reminder))
	}
	for _, comment := range task.Comments {
		dto.Comments = append(dto.Comments, ToCommentDTO(comment))
	}

	return dto
}

// ToTaskListItemDTO converts a Task model to TaskListItemDTO
func ToTaskListItemDTO(task models.Task) TaskListItemDTO {
	dto := TaskListItemDTO{
		ID:        task.ID,
		Title:     task.Title,
		Stage:     task.Stage,
		Priority:  task.Priority,
		DueDate:   task.DueDate,
		ManagerID: task.ManagerID,
		CreatedAt: task.CreatedAt,
	}
	if task.Manager.ID != 0 {
		manager := ToUserDTO(task.Manager)
		dto.Manager = &manager
	}
	for _, member := range task.Team {
		dto.Team = append(dto.Team, ToUserDTO(member))
	}
	return dto
}
