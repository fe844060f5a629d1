package repository

import (
	"time"

	"github.com/tasknest/tasknest-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{}).Where("tasks.is_trashed = ?", filter.Trashed)

	if filter.Stage != nil {
		query = query.Where("tasks.stage = ?", *filter.Stage)
	}
	if filter.ManagerID != nil {
		query = query.Where("tasks.manager_id = ?", *filter.ManagerID)
	}
	if filter.AssignedUserID != nil {
		teamSubQuery := r.db.Table("task_team").
			Select("1").
			Where("task_team.task_id = tasks.id").
			Where("task_team.user_id = ?", *filter.AssignedUserID)
		query = query.Where("tasks.manager_id = ? OR EXISTS (?)", *filter.AssignedUserID, teamSubQuery)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("tasks.title LIKE ? OR tasks.description LIKE ?", pattern, pattern)
	}
	if filter.DueDateFrom != nil {
		query = query.Where("tasks.due_date >= ?", *filter.DueDateFrom)
	}
	if filter.DueDateTo != nil {
		query = query.Where("tasks.due_date < ?", *filter.DueDateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query
	if filter.SortByDueDate {
		listQuery = listQuery.Order("CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END, tasks.due_date ASC")
	} else {
		listQuery = listQuery.Order("tasks.created_at DESC")
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		listQuery = listQuery.Offset(offset).Limit(filter.PageSize)
	}

	if err := listQuery.Preload("Manager").Preload("Team").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update persists a task's editable scalar columns. Stage, completed_at and
// is_trashed are excluded on purpose: those columns are owned by ChangeStage
// and SetTrashed, and a field update racing one of their writes must not be
// able to undo it with a stale full-row write.
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Model(task).
		Select("title", "description", "priority", "start_date", "due_date", "updated_at").
		Updates(task).Error
}

// ChangeStage conditionally moves a task from one stage to another
func (r *GormTaskRepository) ChangeStage(id uint64, from, to models.TaskStage, completedAt *time.Time) (bool, error) {
	updates := map[string]interface{}{"stage": to}
	if completedAt != nil {
		updates["completed_at"] = *completedAt
	}

	result := r.db.Model(&models.Task{}).
		Where("id = ? AND stage = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// SetTrashed flips the soft-delete flag
func (r *GormTaskRepository) SetTrashed(id uint64, trashed bool) error {
	return r.db.Model(&models.Task{}).
		Where("id = ?", id).
		Update("is_trashed", trashed).Error
}

// HardDelete permanently removes a task and its attached records
func (r *GormTaskRepository) HardDelete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.Reminder{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM task_team WHERE task_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM task_dependencies WHERE task_id = ? OR depends_on_id = ?", id, id).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// SetTeam replaces the task's team membership
func (r *GormTaskRepository) SetTeam(taskID uint64, userIDs []uint64) error {
	task := models.Task{ID: taskID}

	users := make([]models.User, len(userIDs))
	for i, userID := range userIDs {
		users[i] = models.User{ID: userID}
	}

	return r.db.Model(&task).Association("Team").Replace(users)
}

// SetDependencies replaces the task's dependency set
func (r *GormTaskRepository) SetDependencies(taskID uint64, dependencyIDs []uint64) error {
	task := models.Task{ID: taskID}

	deps := make([]models.Task, len(dependencyIDs))
	for i, depID := range dependencyIDs {
		deps[i] = models.Task{ID: depID}
	}

	return r.db.Model(&task).Association("Dependencies").Replace(deps)
}

// FindDependents lists tasks that declare the given task as a dependency
func (r *GormTaskRepository) FindDependents(taskID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Joins("JOIN task_dependencies ON task_dependencies.task_id = tasks.id").
		Where("task_dependencies.depends_on_id = ?", taskID).
		Preload("Team").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// CountUsersByIDs counts how many of the given user IDs exist
func (r *GormTaskRepository) CountUsersByIDs(userIDs []uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).
		Where("id IN ?", userIDs).
		Count(&count).Error
	return count, err
}
