package repository

import (
	"time"

	"github.com/tasknest/tasknest-api/internal/models"
	"gorm.io/gorm"
)

// GormReminderRepository is a GORM implementation of ReminderRepository
type GormReminderRepository struct {
	db *gorm.DB
}

// NewReminderRepository creates a new ReminderRepository
func NewReminderRepository(db *gorm.DB) ReminderRepository {
	return &GormReminderRepository{db: db}
}

// Create creates a new reminder
func (r *GormReminderRepository) Create(reminder *models.Reminder) error {
	return r.db.Create(reminder).Error
}

// FindByID finds a reminder by ID
func (r *GormReminderRepository) FindByID(id uint64) (*models.Reminder, error) {
	var reminder models.Reminder
	if err := r.db.First(&reminder, id).Error; err != nil {
		return nil, err
	}
	return &reminder, nil
}

// ListDue lists unsent reminders whose scheduled time has passed
func (r *GormReminderRepository) ListDue(now time.Time) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := r.db.
		Where("sent = ? AND time <= ?", false, now).
		Order("time ASC").
		Find(&reminders).Error
	if err != nil {
		return nil, err
	}
	return reminders, nil
}

// Claim atomically marks a reminder sent. The sent flag is both the guard and
// the write target of a single UPDATE, so overlapping scans race on the
// database row, not on in-process state.
func (r *GormReminderRepository) Claim(id uint64) (bool, error) {
	result := r.db.Model(&models.Reminder{}).
		Where("id = ? AND sent = ?", id, false).
		Update("sent", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Delete removes a reminder
func (r *GormReminderRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Reminder{}, id).Error
}
