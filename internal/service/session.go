package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound = errors.New("旅行会话不存在")
)

// TravelSessionStore 旅行会话存储接口
// 会话随登录建立、随登出删除；跨网格传送只就地改写，
// 覆盖前调用方应先读出旧值以便失败回滚
type TravelSessionStore interface {
	Store(ctx context.Context, sess *model.TravelSession) error
	Get(ctx context.Context, sessionID string) (*model.TravelSession, error)
	GetByUserID(ctx context.Context, userID string) ([]*model.TravelSession, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteByUserID(ctx context.Context, userID string) error
	Sweep(ctx context.Context) (int, error)
}

// TravelSessionStoreConfig 旅行会话存储配置
type TravelSessionStoreConfig struct {
	SessionExpiry time.Duration // 会话兜底有效期，默认 48 小时
}

type travelSessionStore struct {
	redis  *redis.Client
	config *TravelSessionStoreConfig
}

// NewTravelSessionStore 创建旅行会话存储
func NewTravelSessionStore(redisClient *redis.Client, config *TravelSessionStoreConfig) TravelSessionStore {
	if config == nil {
		config = &TravelSessionStoreConfig{}
	}
	if config.SessionExpiry == 0 {
		config.SessionExpiry = 48 * time.Hour // 默认 48 小时
	}
	return &travelSessionStore{
		redis:  redisClient,
		config: config,
	}
}

// Redis key 前缀
const (
	travelSessionKeyPrefix = "hg_session:"
	userTravelKeyPrefix    = "hg_user_sessions:"
)

// Store 写入会话，已存在时整体覆盖并刷新有效期
func (s *travelSessionStore) Store(ctx context.Context, sess *model.TravelSession) error {
	now := time.Now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("序列化旅行会话失败: %w", err)
	}

	key := travelSessionKeyPrefix + sess.SessionID
	if err := s.redis.Set(ctx, key, data, s.config.SessionExpiry).Err(); err != nil {
		return fmt.Errorf("存储旅行会话失败: %w", err)
	}

	// 用户索引，登出和定位时按用户扫描
	userKey := userTravelKeyPrefix + sess.UserID
	if err := s.redis.SAdd(ctx, userKey, sess.SessionID).Err(); err != nil {
		return fmt.Errorf("添加用户会话索引失败: %w", err)
	}
	s.redis.Expire(ctx, userKey, s.config.SessionExpiry+time.Hour)
	return nil
}

// Get 按会话 ID 读取
func (s *travelSessionStore) Get(ctx context.Context, sessionID string) (*model.TravelSession, error) {
	key := travelSessionKeyPrefix + sessionID
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("读取旅行会话失败: %w", err)
	}

	var sess model.TravelSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("反序列化旅行会话失败: %w", err)
	}
	return &sess, nil
}

// GetByUserID 列出用户的全部在册会话，索引中已失效的条目顺带清理
func (s *travelSessionStore) GetByUserID(ctx context.Context, userID string) ([]*model.TravelSession, error) {
	userKey := userTravelKeyPrefix + userID
	ids, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		return nil, fmt.Errorf("读取用户会话索引失败: %w", err)
	}

	sessions := make([]*model.TravelSession, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				s.redis.SRem(ctx, userKey, id)
				continue
			}
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// Delete 删除会话及其索引条目
func (s *travelSessionStore) Delete(ctx context.Context, sessionID string) error {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	key := travelSessionKeyPrefix + sessionID
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("删除旅行会话失败: %w", err)
	}
	s.redis.SRem(ctx, userTravelKeyPrefix+sess.UserID, sessionID)
	return nil
}

// DeleteByUserID 删除用户的全部会话
func (s *travelSessionStore) DeleteByUserID(ctx context.Context, userID string) error {
	userKey := userTravelKeyPrefix + userID
	ids, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("读取用户会话索引失败: %w", err)
	}
	for _, id := range ids {
		s.redis.Del(ctx, travelSessionKeyPrefix+id)
	}
	return s.redis.Del(ctx, userKey).Err()
}

// Sweep 扫描全部用户索引，剔除已过期会话的残留条目，返回剔除数量
// 启动时执行一次即可，日常读取路径会顺带清理
func (s *travelSessionStore) Sweep(ctx context.Context) (int, error) {
	removed := 0
	iter := s.redis.Scan(ctx, 0, userTravelKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		userKey := iter.Val()
		ids, err := s.redis.SMembers(ctx, userKey).Result()
		if err != nil {
			return removed, fmt.Errorf("读取用户会话索引失败: %w", err)
		}
		for _, id := range ids {
			exists, err := s.redis.Exists(ctx, travelSessionKeyPrefix+id).Result()
			if err != nil {
				return removed, fmt.Errorf("检查旅行会话失败: %w", err)
			}
			if exists == 0 {
				s.redis.SRem(ctx, userKey, id)
				removed++
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("扫描会话索引失败: %w", err)
	}
	return removed, nil
}
