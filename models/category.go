package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoryGroup 类别分组，仅用于组织类别
type CategoryGroup struct {
	ID         string     `json:"id" gorm:"type:char(36);primaryKey"`
	UserID     string     `json:"user_id" gorm:"type:varchar(64);index;not null"`
	Name       string     `json:"name" gorm:"size:100;not null"`
	Position   int        `json:"position" gorm:"not null;index"`
	CreatedAt  time.Time  `json:"created_at"`
	Categories []Category `json:"categories,omitempty" gorm:"foreignKey:GroupID"`
}

func (CategoryGroup) TableName() string {
	return "category_groups"
}

func (g *CategoryGroup) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// Category 预算类别（信封）。TargetAmount 只是建议目标，不限制支出
type Category struct {
	ID           string    `json:"id" gorm:"type:char(36);primaryKey"`
	UserID       string    `json:"user_id" gorm:"type:varchar(64);index;not null"`
	GroupID      string    `json:"group_id" gorm:"type:char(36);index;not null"`
	Name         string    `json:"name" gorm:"size:100;not null"`
	TargetAmount *int64    `json:"target_amount"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
