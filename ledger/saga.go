package ledger

import (
	"envelope/models"

	"gorm.io/gorm"
)

const (
	stepInsertTransaction = "insert_transaction"
	stepApplyBalance      = "apply_balance"
	stepRecordActivity    = "record_activity"
	stepMarkApplied       = "mark_applied"
)

// step 可逆的记账步骤
type step struct {
	name   string
	apply  func(db *gorm.DB) error
	revert func(db *gorm.DB) error
}

// compensationLog 已生效步骤的补偿日志，失败时按逆序撤销
type compensationLog struct {
	applied []step
}

func (l *compensationLog) push(s step) {
	l.applied = append(l.applied, s)
}

// rollback 逆序撤销已生效步骤。遇到第一个撤销失败即停止，返回仍然生效的步骤名
func (l *compensationLog) rollback(db *gorm.DB) ([]string, error) {
	for i := len(l.applied) - 1; i >= 0; i-- {
		if err := l.applied[i].revert(db); err != nil {
			remaining := make([]string, 0, i+1)
			for _, s := range l.applied[:i+1] {
				remaining = append(remaining, s.name)
			}
			return remaining, err
		}
	}
	l.applied = nil
	return nil, nil
}

// effects 交易对余额与月度活动的影响，按执行顺序排列
func (r *Recorder) effects(userID string, txn *models.Transaction) []step {
	steps := []step{{
		name: stepApplyBalance,
		apply: func(db *gorm.DB) error {
			return r.balances.Apply(db, userID, txn.AccountID, txn.Amount)
		},
		revert: func(db *gorm.DB) error {
			return r.balances.Apply(db, userID, txn.AccountID, -txn.Amount)
		},
	}}
	if txn.CategoryID != nil {
		categoryID := *txn.CategoryID
		month := MonthOf(txn.Date)
		steps = append(steps, step{
			name: stepRecordActivity,
			apply: func(db *gorm.DB) error {
				return r.engine.RecordActivity(db, userID, categoryID, month, txn.Amount)
			},
			revert: func(db *gorm.DB) error {
				return r.engine.RecordActivity(db, userID, categoryID, month, -txn.Amount)
			},
		})
	}
	return steps
}
