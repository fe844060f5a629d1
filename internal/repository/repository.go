package repository

import (
	"time"

	"github.com/tasknest/tasknest-api/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update persists a task's editable scalar columns (title, description,
	// priority, start and due dates). It never writes stage, completed_at or
	// is_trashed; those belong to ChangeStage and SetTrashed.
	Update(task *models.Task) error

	// ChangeStage conditionally moves a task from one stage to another.
	// The write only applies while the task is still in the expected stage,
	// so two concurrent transitions cannot both succeed. Returns whether the
	// write applied.
	ChangeStage(id uint64, from, to models.TaskStage, completedAt *time.Time) (bool, error)

	// SetTrashed flips the soft-delete flag
	SetTrashed(id uint64, trashed bool) error

	// HardDelete permanently removes a task and everything attached to it:
	// reminders, comments, notifications referencing it, and its team and
	// dependency links in both directions.
	HardDelete(id uint64) error

	// SetTeam replaces the task's team membership
	SetTeam(taskID uint64, userIDs []uint64) error

	// SetDependencies replaces the task's dependency set
	SetDependencies(taskID uint64, dependencyIDs []uint64) error

	// FindDependents lists tasks that declare the given task as a dependency
	FindDependents(taskID uint64) ([]models.Task, error)

	// CountUsersByIDs counts how many of the given user IDs exist
	CountUsersByIDs(userIDs []uint64) (int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Stage          *models.TaskStage
	ManagerID      *uint64
	AssignedUserID *uint64
	Trashed        bool
	Search         string
	DueDateFrom    *time.Time
	DueDateTo      *time.Time
	SortByDueDate  bool
	Page           int
	PageSize       int
}

// ReminderRepository defines the interface for reminder data access
type ReminderRepository interface {
	// Create creates a new reminder
	Create(reminder *models.Reminder) error

	// FindByID finds a reminder by ID
	FindByID(id uint64) (*models.Reminder, error)

	// ListDue lists unsent reminders whose scheduled time has passed
	ListDue(now time.Time) ([]models.Reminder, error)

	// Claim atomically marks a reminder sent. The read of the sent flag and
	// the write are one conditional update, so of any number of overlapping
	// scans exactly one observes the claim succeed. Returns whether this
	// caller won the claim.
	Claim(id uint64) (bool, error)

	// Delete removes a reminder
	Delete(id uint64) error
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// Create creates a new notification
	Create(n *models.Notification) error

	// FindByID finds a notification by ID
	FindByID(id uint64) (*models.Notification, error)

	// ListByRecipient lists a user's notifications, newest first
	ListByRecipient(recipientID uint64, page, pageSize int) ([]models.Notification, int64, error)

	// CountUnread returns the live count of unread notifications for a user
	CountUnread(recipientID uint64) (int64, error)

	// MarkRead flips a notification's read flag; the flip is monotonic
	MarkRead(id uint64) error

	// MarkAllRead flips every unread notification of a recipient
	MarkAllRead(recipientID uint64) error

	// Delete removes a notification
	Delete(id uint64) error

	// DeleteAllByRecipient removes every notification of a recipient
	DeleteAllByRecipient(recipientID uint64) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create creates a new comment
	Create(comment *models.Comment) error

	// FindByID finds a comment by ID
	FindByID(id uint64) (*models.Comment, error)

	// ListByTask lists a task's comments, oldest first
	ListByTask(taskID uint64) ([]models.Comment, error)

	// Delete removes a comment
	Delete(id uint64) error
}
