package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/tasknest/tasknest-api/internal/events"
	"github.com/tasknest/tasknest-api/internal/models"
	"github.com/tasknest/tasknest-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound  = errors.New("comment not found")
	ErrCommentEmpty     = errors.New("comment body cannot be empty")
	ErrNotCommentAuthor = errors.New("only the comment author or an admin can delete it")
)

// CommentService manages task comments. A posted comment fans out to the
// task's topic and notifies the other participants.
type CommentService struct {
	commentRepo   repository.CommentRepository
	taskRepo      repository.TaskRepository
	notifications *NotificationService
	fanout        *events.Fanout
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repository.CommentRepository, taskRepo repository.TaskRepository, notifications *NotificationService, fanout *events.Fanout) *CommentService {
	return &CommentService{
		commentRepo:   commentRepo,
		taskRepo:      taskRepo,
		notifications: notifications,
		fanout:        fanout,
	}
}

// AddComment posts a comment on a task
func (s *CommentService) AddComment(taskID uint64, author *models.User, body string) (*models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrCommentEmpty
	}

	task, err := s.taskRepo.FindByID(taskID, "Team")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if !canActOnTask(task, author) {
		return nil, ErrTaskAccessForbidden
	}

	comment := &models.Comment{
		TaskID:   taskID,
		AuthorID: author.ID,
		Body:     body,
	}

	if err := s.commentRepo.Create(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.fanout.Publish(events.CommentAdded{TaskID: taskID, CommentID: comment.ID})

	id := taskID
	for _, recipientID := range taskRecipients(task) {
		if recipientID == author.ID {
			continue
		}
		_, err := s.notifications.Create(CreateNotificationInput{
			RecipientID: recipientID,
			SenderID:    author.ID,
			Type:        models.NotificationCommentAdded,
			Title:       "New comment",
			Message:     fmt.Sprintf("%s commented on %q.", author.Name, task.Title),
			TaskID:      &id,
		})
		if err != nil {
			log.Printf("failed to notify user %d about comment on task %d: %v", recipientID, taskID, err)
		}
	}

	return comment, nil
}

// ListComments lists a task's comments, oldest first
func (s *CommentService) ListComments(taskID uint64) ([]models.Comment, error) {
	if _, err := s.taskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return s.commentRepo.ListByTask(taskID)
}

// DeleteComment removes a comment
func (s *CommentService) DeleteComment(taskID, commentID uint64, actor *models.User) error {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to find comment: %w", err)
	}

	if comment.TaskID != taskID {
		return ErrCommentNotFound
	}

	if comment.AuthorID != actor.ID && !actor.IsAdmin() {
		return ErrNotCommentAuthor
	}

	if err := s.commentRepo.Delete(commentID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return nil
}
