package models

import "time"

type ReminderType string

const (
	ReminderInApp ReminderType = "in-app"
	ReminderEmail ReminderType = "email"
)

type Reminder struct {
	ID        uint64       `gorm:"primarykey" json:"id"`
	TaskID    uint64       `gorm:"not null;index" json:"task_id"`
	Type      ReminderType `gorm:"type:varchar(10);not null;default:'in-app'" json:"type"`
	Time      time.Time    `gorm:"not null;index:idx_reminders_due,priority:1" json:"time"`
	Sent      bool         `gorm:"not null;default:false;index:idx_reminders_due,priority:2" json:"sent"`
	Message   string       `gorm:"type:text" json:"message"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
}
