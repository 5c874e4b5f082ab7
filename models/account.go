package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 账户类型，仅用于展示，不影响记账规则
const (
	AccountTypeChecking = "checking"
	AccountTypeSavings  = "savings"
	AccountTypeCredit   = "credit"
	AccountTypeCash     = "cash"
)

// Account 资金账户
type Account struct {
	ID              string    `json:"id" gorm:"type:char(36);primaryKey"`
	UserID          string    `json:"user_id" gorm:"type:varchar(64);index;not null"`
	Name            string    `json:"name" gorm:"size:100;not null"`
	Type            string    `json:"type" gorm:"size:20;not null"`
	Balance         int64     `json:"balance" gorm:"not null"`
	StartingBalance int64     `json:"starting_balance" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName 设置表名
func (Account) TableName() string {
	return "accounts"
}

// BeforeCreate 生成主键
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// GetAccountTypes 获取所有账户类型
func GetAccountTypes() []string {
	return []string{
		AccountTypeChecking,
		AccountTypeSavings,
		AccountTypeCredit,
		AccountTypeCash,
	}
}

// IsValidAccountType 判断账户类型是否合法
func IsValidAccountType(t string) bool {
	for _, v := range GetAccountTypes() {
		if v == t {
			return true
		}
	}
	return false
}
