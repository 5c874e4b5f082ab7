package models

import (
	"time"
)

// Profile 用户资料，ID 即身份服务提供的用户标识
type Profile struct {
	ID        string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	FullName  string    `json:"full_name" gorm:"size:100"`
	AvatarURL string    `json:"avatar_url" gorm:"size:255"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 设置表名
func (Profile) TableName() string {
	return "profiles"
}
