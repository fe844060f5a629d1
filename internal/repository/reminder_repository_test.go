package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasknest/tasknest-api/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newMockDB wires GORM to a sqlmock connection so the generated SQL can be
// asserted directly.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return db, mock
}

// TestClaim_IsSingleConditionalUpdate asserts the claim is one UPDATE guarded
// on the unsent flag, not a read followed by a write.
func TestClaim_IsSingleConditionalUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReminderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `reminders` SET `sent`=.+,`updated_at`=.+ WHERE id = \\? AND sent = \\?").
		WithArgs(true, sqlmock.AnyArg(), uint64(5), false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	claimed, err := repo.Claim(5)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestClaim_LosesWhenAlreadySent asserts a zero-row update reports a lost claim.
func TestClaim_LosesWhenAlreadySent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReminderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `reminders` SET `sent`=.+,`updated_at`=.+ WHERE id = \\? AND sent = \\?").
		WithArgs(true, sqlmock.AnyArg(), uint64(5), false).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	claimed, err := repo.Claim(5)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func newSQLiteRepo(t *testing.T) (ReminderRepository, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Task{}, &models.Reminder{}))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		require.NoError(t, err)
		sqlDB.Close()
	})

	return NewReminderRepository(db), db
}

// TestClaim_OnlyFirstCallerWins runs the claim against a real database twice.
func TestClaim_OnlyFirstCallerWins(t *testing.T) {
	repo, db := newSQLiteRepo(t)

	reminder := &models.Reminder{TaskID: 1, Time: time.Now().Add(-time.Minute), Message: "due"}
	require.NoError(t, db.Create(reminder).Error)

	first, err := repo.Claim(reminder.ID)
	require.NoError(t, err)
	second, err := repo.Claim(reminder.ID)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

// TestListDue_FiltersOnTimeAndSent tests the due window
func TestListDue_FiltersOnTimeAndSent(t *testing.T) {
	repo, db := newSQLiteRepo(t)

	now := time.Now()
	due := &models.Reminder{TaskID: 1, Time: now.Add(-time.Hour), Message: "past"}
	future := &models.Reminder{TaskID: 1, Time: now.Add(time.Hour), Message: "future"}
	sent := &models.Reminder{TaskID: 1, Time: now.Add(-2 * time.Hour), Sent: true, Message: "sent"}
	require.NoError(t, db.Create(due).Error)
	require.NoError(t, db.Create(future).Error)
	require.NoError(t, db.Create(sent).Error)

	reminders, err := repo.ListDue(now)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, due.ID, reminders[0].ID)
}
