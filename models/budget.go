package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Budget 类别月度预算行，(category_id, month) 唯一
//
// Available 满足 available(m) = available(上一条已存在的行) + assigned(m) + activity(m)
type Budget struct {
	ID         string    `json:"id" gorm:"type:char(36);primaryKey"`
	UserID     string    `json:"user_id" gorm:"type:varchar(64);index;not null"`
	CategoryID string    `json:"category_id" gorm:"type:char(36);not null;uniqueIndex:idx_budgets_category_month,priority:1"`
	Month      time.Time `json:"month" gorm:"type:date;not null;uniqueIndex:idx_budgets_category_month,priority:2"`
	Assigned   int64     `json:"assigned" gorm:"not null"`
	Activity   int64     `json:"activity" gorm:"not null"`
	Available  int64     `json:"available" gorm:"not null"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName 设置表名
func (Budget) TableName() string {
	return "budgets"
}

func (b *Budget) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
