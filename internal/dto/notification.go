package dto

import (
	"time"

	"github.com/tasknest/tasknest-api/internal/models"
)

// NotificationDTO represents a notification in API responses
type NotificationDTO struct {
	ID        uint64                  `json:"id"`
	Type      models.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	TaskID    *uint64                 `json:"task_id"`
	IsRead    bool                    `json:"is_read"`
	Sender    *UserDTO                `json:"sender,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

// ToNotificationDTO converts a Notification model to NotificationDTO
func ToNotificationDTO(n models.Notification) NotificationDTO {
	dto := NotificationDTO{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		TaskID:    n.TaskID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	if n.Sender.ID != 0 {
		sender := ToUserDTO(n.Sender)
		dto.Sender = &sender
	}
	return dto
}
