package repository

import (
	"context"
	"errors"

	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
	"gorm.io/gorm"
)

// 错误定义
var (
	ErrFolderNotFound = errors.New("库存目录不存在")
	ErrItemNotFound   = errors.New("库存物品不存在")
)

// InventoryRepository 库存数据访问接口
type InventoryRepository interface {
	GetFolder(ctx context.Context, folderID string) (*model.InventoryFolder, error)
	GetFolderByType(ctx context.Context, ownerID string, folderType int) (*model.InventoryFolder, error)
	GetFoldersByType(ctx context.Context, ownerID string, folderType int) ([]*model.InventoryFolder, error)
	GetChildFolders(ctx context.Context, ownerID, parentID string) ([]*model.InventoryFolder, error)
	GetFolderItems(ctx context.Context, ownerID, folderID string) ([]*model.InventoryItem, error)
	CreateFolder(ctx context.Context, folder *model.InventoryFolder) error
	UpdateFolder(ctx context.Context, folder *model.InventoryFolder) error
	MoveFolder(ctx context.Context, folderID, newParentID string) error
	GetItem(ctx context.Context, itemID string) (*model.InventoryItem, error)
	CreateItem(ctx context.Context, item *model.InventoryItem) error
	UpdateItem(ctx context.Context, item *model.InventoryItem) error
	MoveItem(ctx context.Context, itemID, newFolderID string) error
}

// inventoryRepository 库存数据访问实现
type inventoryRepository struct {
	db *gorm.DB
}

// NewInventoryRepository 创建库存仓库
func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

// GetFolder 按目录 ID 查询
func (r *inventoryRepository) GetFolder(ctx context.Context, folderID string) (*model.InventoryFolder, error) {
	var folder model.InventoryFolder
	err := r.db.WithContext(ctx).Where("id = ?", folderID).First(&folder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFolderNotFound
		}
		return nil, err
	}
	return &folder, nil
}

// GetFolderByType 按类别查询用户目录，同类多个时取第一个
func (r *inventoryRepository) GetFolderByType(ctx context.Context, ownerID string, folderType int) (*model.InventoryFolder, error) {
	var folder model.InventoryFolder
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND type = ?", ownerID, folderType).
		First(&folder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFolderNotFound
		}
		return nil, err
	}
	return &folder, nil
}

// GetFoldersByType 列出用户某一类别的全部目录
func (r *inventoryRepository) GetFoldersByType(ctx context.Context, ownerID string, folderType int) ([]*model.InventoryFolder, error) {
	var folders []*model.InventoryFolder
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND type = ?", ownerID, folderType).
		Find(&folders).Error
	return folders, err
}

// GetChildFolders 列出直接子目录
func (r *inventoryRepository) GetChildFolders(ctx context.Context, ownerID, parentID string) ([]*model.InventoryFolder, error) {
	var folders []*model.InventoryFolder
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND parent_id = ?", ownerID, parentID).
		Find(&folders).Error
	return folders, err
}

// GetFolderItems 列出目录下的物品
func (r *inventoryRepository) GetFolderItems(ctx context.Context, ownerID, folderID string) ([]*model.InventoryItem, error) {
	var items []*model.InventoryItem
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND folder_id = ?", ownerID, folderID).
		Find(&items).Error
	return items, err
}

// CreateFolder 创建目录
func (r *inventoryRepository) CreateFolder(ctx context.Context, folder *model.InventoryFolder) error {
	return r.db.WithContext(ctx).Create(folder).Error
}

// UpdateFolder 更新目录并递增版本号
func (r *inventoryRepository) UpdateFolder(ctx context.Context, folder *model.InventoryFolder) error {
	folder.Version++
	return r.db.WithContext(ctx).Save(folder).Error
}

// MoveFolder 改挂父目录
func (r *inventoryRepository) MoveFolder(ctx context.Context, folderID, newParentID string) error {
	result := r.db.WithContext(ctx).Model(&model.InventoryFolder{}).
		Where("id = ?", folderID).
		Update("parent_id", newParentID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFolderNotFound
	}
	return nil
}

// GetItem 按物品 ID 查询
func (r *inventoryRepository) GetItem(ctx context.Context, itemID string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

// CreateItem 创建物品
func (r *inventoryRepository) CreateItem(ctx context.Context, item *model.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateItem 更新物品
func (r *inventoryRepository) UpdateItem(ctx context.Context, item *model.InventoryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// MoveItem 改挂目录
func (r *inventoryRepository) MoveItem(ctx context.Context, itemID, newFolderID string) error {
	result := r.db.WithContext(ctx).Model(&model.InventoryItem{}).
		Where("id = ?", itemID).
		Update("folder_id", newFolderID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}
