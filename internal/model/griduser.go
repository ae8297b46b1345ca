package model

import (
	"time"
)

// GridUser 网格用户的位置记录
// 家区域在设置家时写入，最后区域/位置在登出时写入，供下次登录恢复
type GridUser struct {
	UserID       string    `gorm:"type:char(36);primaryKey" json:"user_id"`
	HomeRegionID string    `gorm:"type:char(36);default:''" json:"home_region_id"`
	HomePosition string    `gorm:"type:varchar(64);default:''" json:"home_position"`
	HomeLookAt   string    `gorm:"type:varchar(64);default:''" json:"home_look_at"`
	LastRegionID string    `gorm:"type:char(36);default:''" json:"last_region_id"`
	LastPosition string    `gorm:"type:varchar(64);default:''" json:"last_position"`
	LastLookAt   string    `gorm:"type:varchar(64);default:''" json:"last_look_at"`
	Online       bool      `gorm:"default:false" json:"online"`
	LoginTime    time.Time `json:"login_time"`
	LogoutTime   time.Time `json:"logout_time"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName 表名
func (GridUser) TableName() string {
	return "grid_users"
}
