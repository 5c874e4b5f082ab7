package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindValidation, KindOf(invalid("amount", "不能为 0")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("wrap: %w", &NotFoundError{Entity: "account", ID: "x"})))
	assert.Equal(t, KindConflict, KindOf(&ConflictError{Entity: "budget", Key: "k"}))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))

	// 部分生效优先于其包装的原因
	perr := &PartialApplicationError{
		TransactionID:   "t1",
		Applied:         []string{stepInsertTransaction},
		Cause:           &NotFoundError{Entity: "category", ID: "c"},
		CompensationErr: errors.New("delete failed"),
	}
	assert.Equal(t, KindPartialApplication, KindOf(perr))
	assert.Contains(t, perr.Error(), "insert_transaction")
	assert.ErrorContains(t, perr, "delete failed")

	var nf *NotFoundError
	assert.ErrorAs(t, perr, &nf)
}

func TestIsDuplicateKey(t *testing.T) {
	assert.False(t, isDuplicateKey(nil))
	assert.True(t, isDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicateKey(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, isDuplicateKey(errors.New("UNIQUE constraint failed: budgets.category_id, budgets.month")))
	assert.True(t, isDuplicateKey(errors.New("Error 1062 (23000): Duplicate entry 'x' for key 'idx_budgets_category_month'")))
	assert.False(t, isDuplicateKey(errors.New("no such table")))

	ce := &ConflictError{Entity: "budget", Key: "k", Err: gorm.ErrDuplicatedKey}
	assert.ErrorIs(t, ce, gorm.ErrDuplicatedKey)
}

func TestIsLockConflict(t *testing.T) {
	deadlock := &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock; try restarting transaction"}
	lockWait := &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded; try restarting transaction"}

	assert.True(t, isLockConflict(deadlock))
	assert.True(t, isLockConflict(lockWait))
	assert.True(t, isLockConflict(fmt.Errorf("创建预算行失败: %w", deadlock)))
	assert.False(t, isLockConflict(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.False(t, isLockConflict(errors.New("Deadlock found")))
	assert.False(t, isLockConflict(nil))
}

func TestPartialApplicationError_WithoutCompensation(t *testing.T) {
	perr := &PartialApplicationError{
		TransactionID: "t1",
		Applied:       []string{stepInsertTransaction},
		Cause:         ErrIncompleteRecording,
	}
	assert.NotContains(t, perr.Error(), "补偿失败")
	assert.ErrorIs(t, perr, ErrIncompleteRecording)
	assert.Len(t, perr.Unwrap(), 1)
}
