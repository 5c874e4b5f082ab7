package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Transaction 交易记录。金额为带符号最小货币单位：负数为支出，正数为收入
type Transaction struct {
	ID             string    `json:"id" gorm:"type:char(36);primaryKey"`
	UserID         string    `json:"user_id" gorm:"type:varchar(64);not null;index;uniqueIndex:idx_transactions_user_idempotency,priority:1"`
	AccountID      string    `json:"account_id" gorm:"type:char(36);index;not null"`
	CategoryID     *string   `json:"category_id" gorm:"type:char(36);index"`
	Date           time.Time `json:"date" gorm:"type:date;not null;index"`
	Amount         int64     `json:"amount" gorm:"not null"`
	Payee          string    `json:"payee" gorm:"size:100"`
	Memo           string    `json:"memo" gorm:"size:255"`
	Cleared        bool      `json:"cleared" gorm:"not null;default:false"`
	IdempotencyKey *string   `json:"idempotency_key,omitempty" gorm:"type:varchar(64);uniqueIndex:idx_transactions_user_idempotency,priority:2"`
	// Pending 分步记账时交易行先于余额与活动写入，全部步骤完成后清除
	Pending        bool      `json:"pending" gorm:"not null;default:false;index"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName 设置表名
func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
