package models

import (
	"time"
)

type TaskStage string

const (
	StageTodo       TaskStage = "todo"
	StageInProgress TaskStage = "in progress"
	StageCompleted  TaskStage = "completed"
)

type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityNormal TaskPriority = "normal"
	PriorityLow    TaskPriority = "low"
)

type Task struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Stage       TaskStage    `gorm:"type:varchar(20);not null;default:'todo'" json:"stage"`
	Priority    TaskPriority `gorm:"type:varchar(10);not null;default:'normal'" json:"priority"`
	StartDate   *time.Time   `json:"start_date"`
	DueDate     *time.Time   `json:"due_date"`
	CompletedAt *time.Time   `json:"completed_at"`
	ManagerID   uint64       `gorm:"not null;index" json:"manager_id"`
	IsTrashed   bool         `gorm:"not null;default:false;index" json:"is_trashed"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Relations
	Manager      User       `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	Team         []User     `gorm:"many2many:task_team" json:"team,omitempty"`
	Dependencies []Task     `gorm:"many2many:task_dependencies;joinForeignKey:TaskID;joinReferences:DependsOnID" json:"dependencies,omitempty"`
	Reminders    []Reminder `gorm:"foreignKey:TaskID" json:"reminders,omitempty"`
	Comments     []Comment  `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
}

// CompletedLate reports whether the task finished after its due date.
func (t *Task) CompletedLate() bool {
	return t.CompletedAt != nil && t.DueDate != nil && t.CompletedAt.After(*t.DueDate)
}
