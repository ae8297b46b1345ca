package repository

import (
	"context"
	"errors"
	"time"

	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
	"gorm.io/gorm"
)

// 错误定义
var (
	ErrGridUserNotFound = errors.New("网格用户记录不存在")
)

// GridUserRepository 网格用户位置记录数据访问接口
type GridUserRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.GridUser, error)
	SetHome(ctx context.Context, userID, regionID, position, lookAt string) error
	LoggedIn(ctx context.Context, userID string) error
	LoggedOut(ctx context.Context, userID, regionID, position, lookAt string) error
}

// gridUserRepository 网格用户数据访问实现
type gridUserRepository struct {
	db *gorm.DB
}

// NewGridUserRepository 创建网格用户仓库
func NewGridUserRepository(db *gorm.DB) GridUserRepository {
	return &gridUserRepository{db: db}
}

// GetByUserID 按用户 ID 查询位置记录
func (r *gridUserRepository) GetByUserID(ctx context.Context, userID string) (*model.GridUser, error) {
	var gu model.GridUser
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&gu).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGridUserNotFound
		}
		return nil, err
	}
	return &gu, nil
}

// ensure 记录不存在时先建一条空记录
func (r *gridUserRepository) ensure(ctx context.Context, userID string) (*model.GridUser, error) {
	gu, err := r.GetByUserID(ctx, userID)
	if err == nil {
		return gu, nil
	}
	if !errors.Is(err, ErrGridUserNotFound) {
		return nil, err
	}
	gu = &model.GridUser{UserID: userID}
	if err := r.db.WithContext(ctx).Create(gu).Error; err != nil {
		return nil, err
	}
	return gu, nil
}

// SetHome 写入家区域
func (r *gridUserRepository) SetHome(ctx context.Context, userID, regionID, position, lookAt string) error {
	gu, err := r.ensure(ctx, userID)
	if err != nil {
		return err
	}
	gu.HomeRegionID = regionID
	gu.HomePosition = position
	gu.HomeLookAt = lookAt
	return r.db.WithContext(ctx).Save(gu).Error
}

// LoggedIn 记录上线
func (r *gridUserRepository) LoggedIn(ctx context.Context, userID string) error {
	gu, err := r.ensure(ctx, userID)
	if err != nil {
		return err
	}
	gu.Online = true
	gu.LoginTime = time.Now()
	return r.db.WithContext(ctx).Save(gu).Error
}

// LoggedOut 记录下线并保存最后位置
func (r *gridUserRepository) LoggedOut(ctx context.Context, userID, regionID, position, lookAt string) error {
	gu, err := r.ensure(ctx, userID)
	if err != nil {
		return err
	}
	gu.Online = false
	gu.LogoutTime = time.Now()
	if regionID != "" && regionID != model.ZeroID {
		gu.LastRegionID = regionID
		gu.LastPosition = position
		gu.LastLookAt = lookAt
	}
	return r.db.WithContext(ctx).Save(gu).Error
}
