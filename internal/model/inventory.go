package model

// 目录类别（与查看器资产协议一致）
const (
	FolderTypeTexture       = 0
	FolderTypeSound         = 1
	FolderTypeCallingCard   = 2
	FolderTypeLandmark      = 3
	FolderTypeClothing      = 5
	FolderTypeObject        = 6
	FolderTypeNotecard      = 7
	FolderTypeRoot          = 8
	FolderTypeLSLText       = 10
	FolderTypeBodyPart      = 13
	FolderTypeTrash         = 14
	FolderTypeSnapshot      = 15
	FolderTypeLostAndFound  = 16
	FolderTypeAnimation     = 20
	FolderTypeGesture       = 21
	FolderTypeFavorites     = 23
	FolderTypeCurrentOutfit = 46
	FolderTypeSettings      = 56
	FolderTypeSuitcase      = 100 // 外来会话可见子树的根
	FolderTypeNone          = -1
)

// InventoryFolder 库存目录
type InventoryFolder struct {
	ID       string `gorm:"type:char(36);primaryKey" json:"id"`
	OwnerID  string `gorm:"type:char(36);index;not null" json:"owner_id"`
	ParentID string `gorm:"type:char(36);index;default:''" json:"parent_id"`
	Name     string `gorm:"type:varchar(255);not null" json:"name"`
	Type     int    `gorm:"default:-1" json:"type"`
	Version  int    `gorm:"default:1" json:"version"`
}

// TableName 表名
func (InventoryFolder) TableName() string {
	return "inventory_folders"
}

// InventoryItem 库存物品
type InventoryItem struct {
	ID          string `gorm:"type:char(36);primaryKey" json:"id"`
	OwnerID     string `gorm:"type:char(36);index;not null" json:"owner_id"`
	FolderID    string `gorm:"type:char(36);index;not null" json:"folder_id"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `gorm:"type:varchar(255)" json:"description"`
	AssetID     string `gorm:"type:char(36)" json:"asset_id"`
	AssetType   int    `gorm:"default:-1" json:"asset_type"`
	InvType     int    `gorm:"default:-1" json:"inv_type"`
	Flags       uint   `gorm:"default:0" json:"flags"`
}

// TableName 表名
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// FolderContent 目录内容（浅层）
type FolderContent struct {
	FolderID string             `json:"folder_id"`
	Version  int                `json:"version"`
	Folders  []*InventoryFolder `json:"folders"`
	Items    []*InventoryItem   `json:"items"`
}
