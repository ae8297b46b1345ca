package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// GridRegion 区域记录（区域注册表返回）
type GridRegion struct {
	RegionID  string `json:"region_id"`
	Name      string `json:"name"`
	ServerURI string `json:"server_uri"` // 承载该区域的模拟器地址
	LocX      int    `json:"loc_x"`
	LocY      int    `json:"loc_y"`
}

// PresenceInfo 在线会话记录（在线状态服务返回）
type PresenceInfo struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	RegionID  string `json:"region_id"` // 全零表示尚未进入任何区域
}

// ServiceURLs 用户账户携带的服务地址表（JSON 存储）
type ServiceURLs map[string]string

// Value 实现 driver.Valuer 接口，用于数据库存储
func (s ServiceURLs) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan 实现 sql.Scanner 接口，用于数据库读取
func (s *ServiceURLs) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("ServiceURLs 反序列化失败：非字节切片")
	}
	return json.Unmarshal(b, s)
}

// UserAccount 用户账户（账户服务返回）
// UserLevel 同时是出境策略和对外可见性的信任等级
type UserAccount struct {
	ID          string      `json:"id"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Email       string      `json:"email,omitempty"`
	UserLevel   int         `json:"user_level"`
	UserTitle   string      `json:"user_title,omitempty"`
	ServiceURLs ServiceURLs `json:"service_urls,omitempty"`
}

// Name 显示名，"名 姓" 格式
func (a *UserAccount) Name() string {
	return a.FirstName + " " + a.LastName
}

// AvatarAppearance 化身外观（外观服务返回）
// 记录当前穿戴的可穿戴物与附件的物品 ID
type AvatarAppearance struct {
	UserID      string   `json:"user_id"`
	WornItems   []string `json:"worn_items"`
	Attachments []string `json:"attachments"`
}

// References 外观是否引用了该物品
func (a *AvatarAppearance) References(itemID string) bool {
	for _, id := range a.WornItems {
		if id == itemID {
			return true
		}
	}
	for _, id := range a.Attachments {
		if id == itemID {
			return true
		}
	}
	return false
}
