// Package scheduler runs the periodic reminder scan. Overlapping scans are
// safe: each due reminder is claimed with an atomic conditional write before
// it is dispatched, so even two scheduler instances against the same database
// deliver it once.
package scheduler

import (
	"errors"
	"fmt"
	"log"
	"time"

	apierrors "github.com/tasknest/tasknest-api/internal/errors"
	"github.com/tasknest/tasknest-api/internal/events"
	"github.com/tasknest/tasknest-api/internal/models"
	"github.com/tasknest/tasknest-api/internal/repository"
	"github.com/tasknest/tasknest-api/internal/services"
	"gorm.io/gorm"
)

// ReminderScheduler scans for due reminders on a fixed interval and drives
// their dispatch.
type ReminderScheduler struct {
	reminderRepo  repository.ReminderRepository
	taskRepo      repository.TaskRepository
	notifications *services.NotificationService
	fanout        *events.Fanout
	interval      time.Duration
	stop          chan struct{}
	done          chan struct{}
}

// NewReminderScheduler creates a scheduler scanning at the given interval.
func NewReminderScheduler(
	reminderRepo repository.ReminderRepository,
	taskRepo repository.TaskRepository,
	notifications *services.NotificationService,
	fanout *events.Fanout,
	interval time.Duration,
) *ReminderScheduler {
	return &ReminderScheduler{
		reminderRepo:  reminderRepo,
		taskRepo:      taskRepo,
		notifications: notifications,
		fanout:        fanout,
		interval:      interval,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start launches the scan loop in the background.
func (s *ReminderScheduler) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		log.Printf("Reminder scheduler started (interval %s)", s.interval)
		for {
			select {
			case <-ticker.C:
				s.Scan(time.Now())
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop shuts the scan loop down and waits for it to exit.
func (s *ReminderScheduler) Stop() {
	close(s.stop)
	<-s.done
}

// Scan finds every due unsent reminder and dispatches each one it wins the
// claim for. Dispatch failures for one reminder never abort the rest of the
// scan.
func (s *ReminderScheduler) Scan(now time.Time) {
	due, err := s.reminderRepo.ListDue(now)
	if err != nil {
		log.Printf("reminder scan failed: %v", err)
		return
	}

	for _, reminder := range due {
		claimed, err := s.reminderRepo.Claim(reminder.ID)
		if err != nil {
			log.Printf("failed to claim reminder %d: %v", reminder.ID, err)
			continue
		}
		if !claimed {
			// Another scan owns this reminder.
			continue
		}

		if err := s.dispatch(&reminder); err != nil {
			var dispatchErr *apierrors.DispatchError
			if errors.As(err, &dispatchErr) {
				log.Printf("reminder %d partially dispatched: %v", reminder.ID, err)
			} else {
				log.Printf("failed to dispatch reminder %d: %v", reminder.ID, err)
			}
		}
	}
}

// dispatch delivers one claimed reminder: a durable notification per
// recipient with an unread-count republish, then a task-scoped announce.
func (s *ReminderScheduler) dispatch(reminder *models.Reminder) error {
	task, err := s.taskRepo.FindByID(reminder.TaskID, "Team")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The task was deleted from under the reminder; nothing to send.
			return nil
		}
		return fmt.Errorf("failed to resolve task %d: %w", reminder.TaskID, err)
	}

	if reminder.Type == models.ReminderEmail {
		// Email delivery mechanics live outside this service.
		log.Printf("Email reminder queued for task %q", task.Title)
	}

	var failures []error
	taskID := task.ID
	for _, recipientID := range recipients(task) {
		_, err := s.notifications.Create(services.CreateNotificationInput{
			RecipientID: recipientID,
			SenderID:    task.ManagerID,
			Type:        models.NotificationReminder,
			Title:       "Task Reminder",
			Message:     reminder.Message,
			TaskID:      &taskID,
		})
		if err != nil {
			failures = append(failures, fmt.Errorf("recipient %d: %w", recipientID, err))
		}
	}

	s.fanout.Publish(events.ReminderSent{TaskID: task.ID, ReminderID: reminder.ID})

	if len(failures) > 0 {
		return &apierrors.DispatchError{ReminderID: reminder.ID, Failures: failures}
	}
	return nil
}

// recipients resolves the task's team plus manager into a deduplicated set.
func recipients(task *models.Task) []uint64 {
	seen := map[uint64]struct{}{task.ManagerID: {}}
	ids := []uint64{task.ManagerID}
	for _, member := range task.Team {
		if _, ok := seen[member.ID]; ok {
			continue
		}
		seen[member.ID] = struct{}{}
		ids = append(ids, member.ID)
	}
	return ids
}
