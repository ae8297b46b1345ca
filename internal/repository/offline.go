package repository

import (
	"context"

	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
	"gorm.io/gorm"
)

// OfflineMessageRepository 离线消息数据访问接口
type OfflineMessageRepository interface {
	Store(ctx context.Context, msg *model.OfflineMessage) error
	ListByUser(ctx context.Context, userID string) ([]*model.OfflineMessage, error)
	DeleteForUser(ctx context.Context, userID string) error
}

// offlineMessageRepository 离线消息数据访问实现
type offlineMessageRepository struct {
	db *gorm.DB
}

// NewOfflineMessageRepository 创建离线消息仓库
func NewOfflineMessageRepository(db *gorm.DB) OfflineMessageRepository {
	return &offlineMessageRepository{db: db}
}

// Store 暂存一条离线消息
func (r *offlineMessageRepository) Store(ctx context.Context, msg *model.OfflineMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListByUser 按接收人取出离线消息，按入库顺序返回
func (r *offlineMessageRepository) ListByUser(ctx context.Context, userID string) ([]*model.OfflineMessage, error) {
	var msgs []*model.OfflineMessage
	err := r.db.WithContext(ctx).
		Where("to_user_id = ?", userID).
		Order("created_at ASC").
		Find(&msgs).Error
	return msgs, err
}

// DeleteForUser 清空接收人的离线消息
func (r *offlineMessageRepository) DeleteForUser(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("to_user_id = ?", userID).
		Delete(&model.OfflineMessage{}).Error
}
