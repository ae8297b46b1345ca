// Package repository 数据访问层
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
	"gorm.io/gorm"
)

// 错误定义
var (
	ErrFriendNotFound = errors.New("好友关系不存在")
)

// FriendRepository 跨网格好友关系数据访问接口
// 行按 (OwnerID, FriendUUI) 定向存储；按好友 ID 查询时
// 用前缀匹配，因为 FriendUUI 携带网格地址和密钥段
type FriendRepository interface {
	Store(ctx context.Context, rel *model.FriendRelation) error
	GetFriends(ctx context.Context, ownerID string) ([]*model.FriendRelation, error)
	GetByOwnerAndFriendID(ctx context.Context, ownerID, friendID string) (*model.FriendRelation, error)
	Delete(ctx context.Context, ownerID, friendUUI string) error
	DeleteByOwnerAndFriendID(ctx context.Context, ownerID, friendID string) error
}

// friendRepository 好友关系数据访问实现
type friendRepository struct {
	db *gorm.DB
}

// NewFriendRepository 创建好友关系仓库
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

// Store 写入关系行；同一 (owner, 好友ID) 已有行时覆盖
func (r *friendRepository) Store(ctx context.Context, rel *model.FriendRelation) error {
	friendID := rel.FriendUUI
	if i := strings.Index(friendID, ";"); i >= 0 {
		friendID = friendID[:i]
	}

	existing, err := r.GetByOwnerAndFriendID(ctx, rel.OwnerID, friendID)
	if err == nil {
		rel.ID = existing.ID
		rel.CreatedAt = existing.CreatedAt
		return r.db.WithContext(ctx).Save(rel).Error
	}
	if !errors.Is(err, ErrFriendNotFound) {
		return err
	}
	return r.db.WithContext(ctx).Create(rel).Error
}

// GetFriends 列出 owner 的全部关系行
func (r *friendRepository) GetFriends(ctx context.Context, ownerID string) ([]*model.FriendRelation, error) {
	var rels []*model.FriendRelation
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&rels).Error
	return rels, err
}

// GetByOwnerAndFriendID 按好友 ID 前缀定位关系行
func (r *friendRepository) GetByOwnerAndFriendID(ctx context.Context, ownerID, friendID string) (*model.FriendRelation, error) {
	var rel model.FriendRelation
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND (friend_uui = ? OR friend_uui LIKE ?)", ownerID, friendID, friendID+";%").
		First(&rel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFriendNotFound
		}
		return nil, err
	}
	return &rel, nil
}

// Delete 精确删除关系行
func (r *friendRepository) Delete(ctx context.Context, ownerID, friendUUI string) error {
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND friend_uui = ?", ownerID, friendUUI).
		Delete(&model.FriendRelation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFriendNotFound
	}
	return nil
}

// DeleteByOwnerAndFriendID 按好友 ID 前缀删除关系行
func (r *friendRepository) DeleteByOwnerAndFriendID(ctx context.Context, ownerID, friendID string) error {
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND (friend_uui = ? OR friend_uui LIKE ?)", ownerID, friendID, friendID+";%").
		Delete(&model.FriendRelation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFriendNotFound
	}
	return nil
}
