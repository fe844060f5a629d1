package models

import "time"

type NotificationType string

const (
	NotificationTaskAssigned        NotificationType = "task_assigned"
	NotificationTaskCompleted       NotificationType = "task_completed"
	NotificationReminder            NotificationType = "reminder"
	NotificationDependencyCompleted NotificationType = "dependency_completed"
	NotificationCommentAdded        NotificationType = "comment_added"
)

type Notification struct {
	ID          uint64           `gorm:"primarykey" json:"id"`
	RecipientID uint64           `gorm:"not null;index:idx_notifications_unread,priority:1" json:"recipient_id"`
	SenderID    uint64           `gorm:"not null" json:"sender_id"`
	Type        NotificationType `gorm:"type:varchar(30);not null" json:"type"`
	Title       string           `gorm:"type:varchar(255);not null" json:"title"`
	Message     string           `gorm:"type:text" json:"message"`
	TaskID      *uint64          `gorm:"index" json:"task_id"`
	IsRead      bool             `gorm:"not null;default:false;index:idx_notifications_unread,priority:2" json:"is_read"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	// Relations
	Recipient User  `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
	Sender    User  `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Task      *Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
}
