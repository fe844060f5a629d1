package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	apierrors "github.com/tasknest/tasknest-api/internal/errors"
	"github.com/tasknest/tasknest-api/internal/events"
	"github.com/tasknest/tasknest-api/internal/models"
	"github.com/tasknest/tasknest-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrStageChangeForbidden = errors.New("only the task manager, a team member, or an admin can change the stage")
	ErrUnknownStage         = errors.New("unknown task stage")
	ErrStageConflict        = errors.New("task stage was changed concurrently")
)

// stageTransitions is the only set of legal forward edges. Completed is
// terminal; todo cannot skip straight to completed.
var stageTransitions = map[models.TaskStage]models.TaskStage{
	models.StageTodo:       models.StageInProgress,
	models.StageInProgress: models.StageCompleted,
}

// LifecycleService enforces the task stage state machine: ordered
// transitions, dependency gating, and the completion side effects.
type LifecycleService struct {
	taskRepo      repository.TaskRepository
	notifications *NotificationService
	fanout        *events.Fanout
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(taskRepo repository.TaskRepository, notifications *NotificationService, fanout *events.Fanout) *LifecycleService {
	return &LifecycleService{
		taskRepo:      taskRepo,
		notifications: notifications,
		fanout:        fanout,
	}
}

// ChangeStage moves a task to the requested stage on behalf of the actor.
// Authorization is checked before the transition table. Transitions into
// "in progress" and "completed" both require every dependency to be
// completed; the dependency set may have changed since the previous check, so
// it is re-read each time. The stage write itself is conditional on the stage
// the rules were evaluated against, so a concurrent transition cannot apply
// twice.
func (s *LifecycleService) ChangeStage(taskID uint64, actor *models.User, next models.TaskStage) (*models.Task, error) {
	if next != models.StageTodo && next != models.StageInProgress && next != models.StageCompleted {
		return nil, ErrUnknownStage
	}

	task, err := s.taskRepo.FindByID(taskID, "Dependencies", "Team")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if !canActOnTask(task, actor) {
		return nil, ErrStageChangeForbidden
	}

	if stageTransitions[task.Stage] != next {
		return nil, &apierrors.InvalidTransitionError{
			From: string(task.Stage),
			To:   string(next),
		}
	}

	if incomplete := incompleteDependencies(task); len(incomplete) > 0 {
		return nil, &apierrors.InvalidTransitionError{
			From:                   string(task.Stage),
			To:                     string(next),
			IncompleteDependencies: incomplete,
		}
	}

	var completedAt *time.Time
	if next == models.StageCompleted {
		now := time.Now().UTC()
		completedAt = &now
	}

	applied, err := s.taskRepo.ChangeStage(taskID, task.Stage, next, completedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to change stage: %w", err)
	}
	if !applied {
		return nil, ErrStageConflict
	}

	s.fanout.Publish(events.TaskStageChanged{TaskID: taskID, Stage: next})

	if next == models.StageCompleted {
		s.notifyDependents(task, actor)
	}

	return s.taskRepo.FindByID(taskID, "Manager", "Team", "Dependencies")
}

// notifyDependents tells every task gated on the completed one that its
// prerequisite is satisfied.
func (s *LifecycleService) notifyDependents(completed *models.Task, actor *models.User) {
	dependents, err := s.taskRepo.FindDependents(completed.ID)
	if err != nil {
		log.Printf("failed to find dependents of task %d: %v", completed.ID, err)
		return
	}

	for _, dependent := range dependents {
		taskID := dependent.ID
		for _, recipientID := range taskRecipients(&dependent) {
			_, err := s.notifications.Create(CreateNotificationInput{
				RecipientID: recipientID,
				SenderID:    actor.ID,
				Type:        models.NotificationDependencyCompleted,
				Title:       "Dependency completed",
				Message:     fmt.Sprintf("%q has been completed. You can now start working on %q.", completed.Title, dependent.Title),
				TaskID:      &taskID,
			})
			if err != nil {
				log.Printf("failed to notify user %d about dependency %d: %v", recipientID, completed.ID, err)
			}
		}
	}
}

// incompleteDependencies lists the titles of dependencies not yet completed.
func incompleteDependencies(task *models.Task) []string {
	var incomplete []string
	for _, dep := range task.Dependencies {
		if dep.Stage != models.StageCompleted {
			incomplete = append(incomplete, dep.Title)
		}
	}
	return incomplete
}

// canActOnTask reports whether the actor is the owning manager, a team
// member, or an admin.
func canActOnTask(task *models.Task, actor *models.User) bool {
	if actor.IsAdmin() || task.ManagerID == actor.ID {
		return true
	}
	for _, member := range task.Team {
		if member.ID == actor.ID {
			return true
		}
	}
	return false
}

// taskRecipients resolves a task's manager plus team into a deduplicated
// recipient list.
func taskRecipients(task *models.Task) []uint64 {
	seen := map[uint64]struct{}{task.ManagerID: {}}
	recipients := []uint64{task.ManagerID}
	for _, member := range task.Team {
		if _, ok := seen[member.ID]; ok {
			continue
		}
		seen[member.ID] = struct{}{}
		recipients = append(recipients, member.ID)
	}
	return recipients
}
