package model

// 即时消息对话类型（与查看器线路协议一致）
const (
	DialogMessageFromAgent             = 0  // 普通消息
	DialogGroupInvitation              = 3  // 群组邀请
	DialogInventoryOffered             = 4  // 物品赠送
	DialogTaskInventoryOffered         = 9  // 物体内物品赠送
	DialogMessageFromObject            = 19 // 物体消息
	DialogGroupNotice                  = 32 // 群组公告
	DialogGroupNoticeInventoryAccepted = 33
	DialogGroupNoticeInventoryDeclined = 34
	DialogFriendshipOffered            = 38 // 好友邀约
	DialogFriendshipAccepted           = 39
	DialogFriendshipDeclined           = 40
)

// InstantMessage 即时消息（线路格式）
type InstantMessage struct {
	FromAgentID   string `json:"from_agent_id"`
	FromAgentName string `json:"from_agent_name"`
	ToAgentID     string `json:"to_agent_id"`
	Dialog        int    `json:"dialog"`
	Message       string `json:"message"`
	Offline       bool   `json:"offline"`
	RegionID      string `json:"region_id,omitempty"`
	Position      string `json:"position,omitempty"`
	Timestamp     int64  `json:"timestamp,omitempty"`
}

// OfflineEligible 投递失败后是否允许落入离线存储
// 普通消息、物体消息、物品赠送始终允许；
// 群组类消息需开启 forward_offline_group_messages
func (m *InstantMessage) OfflineEligible(forwardGroup bool) bool {
	switch m.Dialog {
	case DialogMessageFromAgent, DialogMessageFromObject,
		DialogInventoryOffered, DialogTaskInventoryOffered:
		return true
	case DialogGroupNotice, DialogGroupNoticeInventoryAccepted,
		DialogGroupNoticeInventoryDeclined, DialogGroupInvitation:
		return forwardGroup
	default:
		return false
	}
}

// OfflineMessage 离线消息存储
type OfflineMessage struct {
	BaseModel
	ToUserID      string `gorm:"type:char(36);index;not null" json:"to_user_id"`
	FromUserID    string `gorm:"type:char(36)" json:"from_user_id"`
	FromAgentName string `gorm:"type:varchar(255)" json:"from_agent_name"`
	Dialog        int    `gorm:"default:0" json:"dialog"`
	Message       string `gorm:"type:text" json:"message"`
}

// TableName 表名
func (OfflineMessage) TableName() string {
	return "hg_offline_messages"
}

// ToInstantMessage 还原为线路格式（登录补投时使用）
func (m *OfflineMessage) ToInstantMessage() *InstantMessage {
	return &InstantMessage{
		FromAgentID:   m.FromUserID,
		FromAgentName: m.FromAgentName,
		ToAgentID:     m.ToUserID,
		Dialog:        m.Dialog,
		Message:       m.Message,
		Offline:       true,
		Timestamp:     m.CreatedAt.Unix(),
	}
}
