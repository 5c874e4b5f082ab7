package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"envelope/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordActivity_BackdatedCascadesForward(t *testing.T) {
	db := newTestDB(t)
	e := NewEngine(db)
	c := seedCategory(t, db, testUser, "Travel")

	_, err := e.SetAssigned(context.Background(), testUser, c.ID, month(2024, time.May), 40_000)
	require.NoError(t, err)
	_, err = e.SetAssigned(context.Background(), testUser, c.ID, month(2024, time.July), 10_000)
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), budgetRow(t, db, c.ID, month(2024, time.July)).Available)

	// 补录四月份的支出，之后所有已存在的月份同步减少
	require.NoError(t, e.RecordActivity(db, testUser, c.ID, month(2024, time.April), -8_000))
	require.NoError(t, e.RecordActivity(db, testUser, c.ID, time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC), -2_000))

	april := budgetRow(t, db, c.ID, month(2024, time.April))
	assert.Equal(t, int64(-10_000), april.Activity)
	assert.Equal(t, int64(-10_000), april.Available)
	assert.Equal(t, int64(30_000), budgetRow(t, db, c.ID, month(2024, time.May)).Available)
	assert.Equal(t, int64(40_000), budgetRow(t, db, c.ID, month(2024, time.July)).Available)

	for _, m := range []time.Time{month(2024, time.April), month(2024, time.May), month(2024, time.July)} {
		folded, err := e.Fold(context.Background(), c.ID, m)
		require.NoError(t, err)
		assert.Equal(t, folded, budgetRow(t, db, c.ID, m).Available)
	}
}

func TestRecordActivity_ZeroDeltaIsNoop(t *testing.T) {
	db := newTestDB(t)
	e := NewEngine(db)
	c := seedCategory(t, db, testUser, "Misc")

	require.NoError(t, e.RecordActivity(db, testUser, c.ID, month(2024, time.May), 0))
	assert.Equal(t, int64(0), countRows(t, db, &models.Budget{}))
}

func TestSetAssigned_DoesNotTouchActivity(t *testing.T) {
	db := newTestDB(t)
	e := NewEngine(db)
	c := seedCategory(t, db, testUser, "Dining")
	m := month(2024, time.September)

	require.NoError(t, e.RecordActivity(db, testUser, c.ID, m, -7_500))
	b, err := e.SetAssigned(context.Background(), testUser, c.ID, m, 20_000)
	require.NoError(t, err)
	assert.Equal(t, int64(-7_500), b.Activity)
	assert.Equal(t, int64(12_500), b.Available)

	// 相同的值不产生写入
	same, err := e.SetAssigned(context.Background(), testUser, c.ID, m, 20_000)
	require.NoError(t, err)
	assert.Equal(t, b.Available, same.Available)

	b, err = e.SetAssigned(context.Background(), testUser, c.ID, m, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(-7_500), b.Available)
	assert.Equal(t, int64(-7_500), budgetRow(t, db, c.ID, m).Activity)
}

func TestSetAssigned_RejectsForeignCategory(t *testing.T) {
	db := newTestDB(t)
	e := NewEngine(db)
	c := seedCategory(t, db, "user-2", "Theirs")

	_, err := e.SetAssigned(context.Background(), testUser, c.ID, month(2024, time.May), 1)
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = e.SetAssigned(context.Background(), testUser, "", month(2024, time.May), 1)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = e.Touch(context.Background(), testUser, c.ID, month(2024, time.May))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, int64(0), countRows(t, db, &models.Budget{}))
}

func TestMonthBudgets_OrderAndCarry(t *testing.T) {
	db := newTestDB(t)
	e := NewEngine(db)
	first := seedCategory(t, db, testUser, "First")
	second := seedCategory(t, db, testUser, "Second")
	require.NoError(t, db.Model(&models.CategoryGroup{}).Where("id = ?", second.GroupID).Update("position", -1).Error)
	seedCategory(t, db, "user-2", "Hidden")

	_, err := e.SetAssigned(context.Background(), testUser, first.ID, month(2024, time.January), 5_000)
	require.NoError(t, err)
	_, err = e.SetAssigned(context.Background(), testUser, first.ID, month(2024, time.March), 1_000)
	require.NoError(t, err)

	view, err := e.MonthBudgets(context.Background(), testUser, month(2024, time.February))
	require.NoError(t, err)
	require.Len(t, view, 2)
	assert.Equal(t, second.ID, view[0].CategoryID)
	assert.True(t, view[0].Virtual)
	assert.Equal(t, int64(0), view[0].Available)
	assert.Equal(t, first.ID, view[1].CategoryID)
	assert.True(t, view[1].Virtual)
	assert.Equal(t, int64(5_000), view[1].Available)

	view, err = e.MonthBudgets(context.Background(), testUser, month(2024, time.March))
	require.NoError(t, err)
	assert.False(t, view[1].Virtual)
	assert.Equal(t, int64(1_000), view[1].Assigned)
	assert.Equal(t, int64(6_000), view[1].Available)
}

func TestWithConflictRetry(t *testing.T) {
	e := &Engine{log: testLogger()}
	conflict := &ConflictError{Entity: "budget", Key: "k"}

	calls := 0
	err := e.withConflictRetry(context.Background(), func() error {
		calls++
		if calls == 1 {
			return conflict
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)

	// 只重试一次
	calls = 0
	err = e.withConflictRetry(context.Background(), func() error {
		calls++
		return conflict
	})
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, 2, calls)

	calls = 0
	boom := errors.New("boom")
	err = e.withConflictRetry(context.Background(), func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)

	// 已取消的上下文不再重试
	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls = 0
	err = e.withConflictRetry(cctx, func() error {
		calls++
		return conflict
	})
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, 1, calls)
}

// expectFirstAssignment 期望为尚无行的月份设置分配额时的语句序列，insertErr 非空时插入失败并回滚
func expectFirstAssignment(mock sqlmock.Sqlmock, insertErr error) {
	mock.ExpectBegin()
	// 先锁定类别行，同一类别的写入串行化
	mock.ExpectQuery("SELECT `id` FROM `categories` WHERE .+ FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("cat-1"))
	mock.ExpectQuery("SELECT \\* FROM `budgets` WHERE .+ FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT \\* FROM `budgets` WHERE .+ ORDER BY month DESC").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	if insertErr != nil {
		mock.ExpectExec("INSERT INTO `budgets`").WillReturnError(insertErr)
		mock.ExpectRollback()
		return
	}
	mock.ExpectExec("INSERT INTO `budgets`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `budgets` SET `available`=available \\+ \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
}

func TestSetAssigned_LocksCategoryAndRetriesDeadlock(t *testing.T) {
	db, mock := setupMockDB(t)
	e := NewEngine(db)

	expectFirstAssignment(mock, &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock; try restarting transaction"})
	expectFirstAssignment(mock, nil)

	b, err := e.SetAssigned(context.Background(), testUser, "cat-1", month(2024, time.March), 500)
	require.NoError(t, err)
	assert.Equal(t, int64(500), b.Assigned)
	assert.Equal(t, int64(500), b.Available)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetAssigned_DeadlockRetriedOnlyOnce(t *testing.T) {
	db, mock := setupMockDB(t)
	e := NewEngine(db)

	deadlock := &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock; try restarting transaction"}
	expectFirstAssignment(mock, deadlock)
	expectFirstAssignment(mock, deadlock)

	_, err := e.SetAssigned(context.Background(), testUser, "cat-1", month(2024, time.March), 500)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.ErrorIs(t, err, deadlock)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetAssigned_RejectsOutOfRangeAmount(t *testing.T) {
	db, mock := setupMockDB(t)
	e := NewEngine(db)

	_, err := e.SetAssigned(context.Background(), testUser, "cat-1", month(2024, time.March), MaxAmount+1)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "assigned", verr.Field)
	require.NoError(t, mock.ExpectationsWereMet())
}
