package ledger

import (
	"fmt"

	"envelope/models"

	"gorm.io/gorm"
)

// BalanceMaintainer 维护账户运行余额
type BalanceMaintainer struct{}

// Apply 在存储端原子执行 balance = balance + delta
//
// 不在客户端读后写，并发记账不会丢失更新。账户不存在或不属于该用户时返回 NotFoundError。
func (BalanceMaintainer) Apply(tx *gorm.DB, userID, accountID string, delta int64) error {
	res := tx.Model(&models.Account{}).
		Where("id = ? AND user_id = ?", accountID, userID).
		UpdateColumn("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("更新账户余额失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "account", ID: accountID}
	}
	return nil
}
