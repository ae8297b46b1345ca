package model

// 好友关系标志
// TheirFlags 为 -1 表示单向邀约尚未被对方回应；双方握手完成后
// 两侧各自的行都改写为 1
const (
	FriendFlagsPending   = -1 // 单向邀约，待确认
	FriendFlagsNone      = 0  // 已落库，未授予权限
	FriendFlagsConfirmed = 1  // 双向确认
)

// FriendRelation 跨网格好友关系（单向行）
// A 与 B 的跨网格好友关系由两条行表示，各存于两侧的归属网格，
// FriendUUI 的密钥段必须两侧一致。删除必须出示匹配的密钥，
// 因为届时不存在可用来鉴权的跨网格会话。
type FriendRelation struct {
	BaseModel
	OwnerID    string `gorm:"type:char(36);index;not null" json:"owner_id"`     // 本侧用户 ID
	FriendUUI  string `gorm:"type:varchar(500);not null" json:"friend_uui"`     // 对方 UUI，末段为共享密钥
	TheirFlags int    `gorm:"default:0" json:"their_flags"`                     // 授予对方的权限位，-1 表示待确认
}

// TableName 表名
func (FriendRelation) TableName() string {
	return "hg_friends"
}

// IsPending 是否为待确认的单向邀约
func (f *FriendRelation) IsPending() bool {
	return f.TheirFlags == FriendFlagsPending
}

// HasRights 是否携带权限（状态通知只对这类关系生效）
func (f *FriendRelation) HasRights() bool {
	return f.TheirFlags > 0
}

// FriendOffer 跨网格好友邀约（线路格式）
// FromUUI 携带发起方的完整 UUI 含共享密钥
type FriendOffer struct {
	FromID   string `json:"from_id"`
	FromName string `json:"from_name"` // "名.姓 @网格地址" 格式
	FromUUI  string `json:"from_uui"`
	ToID     string `json:"to_id"`
	Message  string `json:"message"`
}
