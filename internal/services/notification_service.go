package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/tasknest/tasknest-api/internal/events"
	"github.com/tasknest/tasknest-api/internal/models"
	"github.com/tasknest/tasknest-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotNotificationOwner = errors.New("notification belongs to another user")
	ErrRecipientRequired    = errors.New("recipient is required")
)

// NotificationService owns notification records and the derived unread
// counter. Every mutation recomputes the affected recipient's live unread
// count and republishes it before returning, so an acknowledged mutation is
// never followed by a stale counter.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	fanout           *events.Fanout
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notificationRepo repository.NotificationRepository, fanout *events.Fanout) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		fanout:           fanout,
	}
}

// CreateNotificationInput represents input for creating a notification
type CreateNotificationInput struct {
	RecipientID uint64
	SenderID    uint64
	Type        models.NotificationType
	Title       string
	Message     string
	TaskID      *uint64
}

// Create persists a notification and republishes the recipient's unread count.
func (s *NotificationService) Create(input CreateNotificationInput) (*models.Notification, error) {
	if input.RecipientID == 0 {
		return nil, ErrRecipientRequired
	}

	n := &models.Notification{
		RecipientID: input.RecipientID,
		SenderID:    input.SenderID,
		Type:        input.Type,
		Title:       input.Title,
		Message:     input.Message,
		TaskID:      input.TaskID,
	}

	if err := s.notificationRepo.Create(n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if count, ok := s.refreshCount(input.RecipientID); ok {
		s.fanout.Publish(events.NotificationCreated{
			UserID:         input.RecipientID,
			UnreadCount:    count,
			NotificationID: n.ID,
		})
	}

	return n, nil
}

// MarkRead flips one notification to read and republishes the unread count.
func (s *NotificationService) MarkRead(id, actorID uint64) error {
	n, err := s.notificationRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to find notification: %w", err)
	}

	if n.RecipientID != actorID {
		return ErrNotNotificationOwner
	}

	if err := s.notificationRepo.MarkRead(id); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	if count, ok := s.refreshCount(actorID); ok {
		s.fanout.Publish(events.NotificationRead{UserID: actorID, UnreadCount: count})
	}
	return nil
}

// MarkAllRead flips every unread notification of the recipient and publishes
// the resulting count (zero) once.
func (s *NotificationService) MarkAllRead(recipientID uint64) error {
	if err := s.notificationRepo.MarkAllRead(recipientID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	if count, ok := s.refreshCount(recipientID); ok {
		s.fanout.Publish(events.NotificationRead{UserID: recipientID, UnreadCount: count})
	}
	return nil
}

// Delete removes one notification and republishes the unread count.
func (s *NotificationService) Delete(id, actorID uint64) error {
	n, err := s.notificationRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to find notification: %w", err)
	}

	if n.RecipientID != actorID {
		return ErrNotNotificationOwner
	}

	if err := s.notificationRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	if count, ok := s.refreshCount(actorID); ok {
		s.fanout.Publish(events.NotificationDeleted{UserID: actorID, UnreadCount: count})
	}
	return nil
}

// DeleteAll removes every notification of the recipient.
func (s *NotificationService) DeleteAll(recipientID uint64) error {
	if err := s.notificationRepo.DeleteAllByRecipient(recipientID); err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}

	if count, ok := s.refreshCount(recipientID); ok {
		s.fanout.Publish(events.NotificationDeleted{UserID: recipientID, UnreadCount: count})
	}
	return nil
}

// UnreadCount returns the live unread count for a recipient.
func (s *NotificationService) UnreadCount(recipientID uint64) (int64, error) {
	return s.notificationRepo.CountUnread(recipientID)
}

// List returns a recipient's notifications, newest first.
func (s *NotificationService) List(recipientID uint64, page, pageSize int) ([]models.Notification, int64, error) {
	return s.notificationRepo.ListByRecipient(recipientID, page, pageSize)
}

// refreshCount recomputes the unread counter from its source records; the
// counter is never cached across mutations. A false return means the recount
// failed and the caller skips its publish; every published count is derived
// from the records.
func (s *NotificationService) refreshCount(recipientID uint64) (int64, bool) {
	count, err := s.notificationRepo.CountUnread(recipientID)
	if err != nil {
		log.Printf("failed to count unread notifications for user %d: %v", recipientID, err)
		return 0, false
	}
	return count, true
}
