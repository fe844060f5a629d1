// Package events defines the closed set of domain events and routes them to
// live-push topics. Events are typed variants rather than name strings, so the
// emitter and the fanout cannot drift apart.
package events

import "github.com/tasknest/tasknest-api/internal/models"

// Event is the closed set of domain events. Only types in this package
// implement it; Fanout dispatches over the full set.
type Event interface {
	// Name is the wire-level event name pushed to clients.
	Name() string

	isEvent()
}

// TaskCreated announces a newly created task.
type TaskCreated struct {
	TaskID uint64 `json:"taskId"`
}

// TaskUpdated announces a field-level task update.
type TaskUpdated struct {
	TaskID uint64 `json:"taskId"`
}

// TaskStageChanged announces a committed stage transition.
type TaskStageChanged struct {
	TaskID uint64           `json:"taskId"`
	Stage  models.TaskStage `json:"stage"`
}

// TaskTrashed announces a task moved to the trash.
type TaskTrashed struct {
	TaskID uint64 `json:"taskId"`
}

// TaskDeleted announces a permanent task removal.
type TaskDeleted struct {
	TaskID uint64 `json:"taskId"`
}

// ReminderAdded announces a reminder attached to a task.
type ReminderAdded struct {
	TaskID     uint64 `json:"taskId"`
	ReminderID uint64 `json:"reminderId"`
}

// ReminderDeleted announces a reminder removed from a task.
type ReminderDeleted struct {
	TaskID     uint64 `json:"taskId"`
	ReminderID uint64 `json:"reminderId"`
}

// ReminderSent announces that a due reminder was dispatched.
type ReminderSent struct {
	TaskID     uint64 `json:"taskId"`
	ReminderID uint64 `json:"reminderId"`
}

// CommentAdded announces a comment posted on a task.
type CommentAdded struct {
	TaskID    uint64 `json:"taskId"`
	CommentID uint64 `json:"commentId"`
}

// NotificationCreated carries a recipient's refreshed unread count alongside
// the new record's id.
type NotificationCreated struct {
	UserID         uint64 `json:"userId"`
	UnreadCount    int64  `json:"unreadCount"`
	NotificationID uint64 `json:"notificationId"`
}

// NotificationRead carries a recipient's refreshed unread count after one or
// more read flips.
type NotificationRead struct {
	UserID      uint64 `json:"userId"`
	UnreadCount int64  `json:"unreadCount"`
}

// NotificationDeleted carries a recipient's refreshed unread count after a
// deletion.
type NotificationDeleted struct {
	UserID      uint64 `json:"userId"`
	UnreadCount int64  `json:"unreadCount"`
}

func (TaskCreated) Name() string         { return "task-created" }
func (TaskUpdated) Name() string         { return "task-updated" }
func (TaskStageChanged) Name() string    { return "task-stage-changed" }
func (TaskTrashed) Name() string         { return "task-trashed" }
func (TaskDeleted) Name() string         { return "task-deleted" }
func (ReminderAdded) Name() string       { return "reminder-added" }
func (ReminderDeleted) Name() string     { return "reminder-deleted" }
func (ReminderSent) Name() string        { return "reminder-sent" }
func (CommentAdded) Name() string        { return "comment-added" }
func (NotificationCreated) Name() string { return "notification-new" }
func (NotificationRead) Name() string    { return "notification-read" }
func (NotificationDeleted) Name() string { return "notification-deleted" }

func (TaskCreated) isEvent()         {}
func (TaskUpdated) isEvent()         {}
func (TaskStageChanged) isEvent()    {}
func (TaskTrashed) isEvent()         {}
func (TaskDeleted) isEvent()         {}
func (ReminderAdded) isEvent()       {}
func (ReminderDeleted) isEvent()     {}
func (ReminderSent) isEvent()        {}
func (CommentAdded) isEvent()        {}
func (NotificationCreated) isEvent() {}
func (NotificationRead) isEvent()    {}
func (NotificationDeleted) isEvent() {}
