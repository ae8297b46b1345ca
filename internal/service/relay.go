package service

import (
	"context"
	"time"

	"github.com/pu-ac-cn/hypergrid-backend/internal/config"
	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
	"github.com/pu-ac-cn/hypergrid-backend/internal/repository"
	"github.com/pu-ac-cn/hypergrid-backend/pkg/cache"
	"github.com/pu-ac-cn/hypergrid-backend/pkg/logger"
	"go.uber.org/zap"
)

// 缓存有效期
const (
	locationCacheTTL = 2 * time.Minute
	regionCacheTTL   = 5 * time.Minute
)

// RelayService 跨网格即时消息中继接口
// 接收人可能在本格任一区域，也可能正在外格旅行，
// 投递沿缓存、在线状态、归属网格定位逐级解析
type RelayService interface {
	// IncomingInstantMessage 处理到达本格的消息
	// 投递失败且本格承担守门人角色时转入离线存储
	IncomingInstantMessage(ctx context.Context, msg *model.InstantMessage) bool
	// OutgoingInstantMessage 把本格消息送往外格
	OutgoingInstantMessage(ctx context.Context, msg *model.InstantMessage, url string, foreigner bool) bool
	// RetrieveOfflineMessages 取出并清空用户的离线消息
	RetrieveOfflineMessages(ctx context.Context, userID string) ([]*model.InstantMessage, error)
}

// deliveryTarget 一次解析得到的投递目标，二选一
type deliveryTarget struct {
	Presence *model.PresenceInfo // 本格在线会话
	URL      string              // 外格网格地址
}

// sameTarget 是否指向同一投递位置
func sameTarget(a, b *deliveryTarget) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Presence != nil && b.Presence != nil {
		return a.Presence.RegionID == b.Presence.RegionID
	}
	if a.Presence == nil && b.Presence == nil {
		return a.URL == b.URL
	}
	return false
}

// relayService 即时消息中继实现
type relayService struct {
	cfg      *config.GridConfig
	offline  repository.OfflineMessageRepository
	presence PresenceService
	regions  RegionRegistry
	travel   TravelService
	gateway  MessageGateway

	locations   *cache.ExpiringCache[*deliveryTarget]
	regionCache *cache.ExpiringCache[*model.GridRegion]
}

// NewRelayService 创建即时消息中继
func NewRelayService(
	cfg *config.GridConfig,
	offline repository.OfflineMessageRepository,
	presence PresenceService,
	regions RegionRegistry,
	travel TravelService,
	gateway MessageGateway,
) RelayService {
	return &relayService{
		cfg:         cfg,
		offline:     offline,
		presence:    presence,
		regions:     regions,
		travel:      travel,
		gateway:     gateway,
		locations:   cache.New[*deliveryTarget](locationCacheTTL),
		regionCache: cache.New[*model.GridRegion](regionCacheTTL),
	}
}

// IncomingInstantMessage 处理到达本格的消息
func (s *relayService) IncomingInstantMessage(ctx context.Context, msg *model.InstantMessage) bool {
	if s.trySend(ctx, msg, "", nil, false) {
		return true
	}
	if !s.cfg.InGatekeeper {
		return false
	}
	if !msg.OfflineEligible(s.cfg.ForwardOfflineGroupMessages) {
		return false
	}
	return s.storeOffline(ctx, msg)
}

// OutgoingInstantMessage 把本格消息送往外格
// 调用方给出的地址只作提示：缓存里有更新的位置时先投缓存，
// 提示地址排在其后
func (s *relayService) OutgoingInstantMessage(ctx context.Context, msg *model.InstantMessage, url string, foreigner bool) bool {
	return s.trySend(ctx, msg, url, nil, foreigner)
}

// RetrieveOfflineMessages 取出并清空用户的离线消息
func (s *relayService) RetrieveOfflineMessages(ctx context.Context, userID string) ([]*model.InstantMessage, error) {
	stored, err := s.offline.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	msgs := make([]*model.InstantMessage, 0, len(stored))
	for _, m := range stored {
		msgs = append(msgs, m.ToInstantMessage())
	}
	if err := s.offline.DeleteForUser(ctx, userID); err != nil {
		return nil, err
	}
	return msgs, nil
}

// trySend 沿缓存、提示地址、重新解析的顺序逐级投递
// previous 是上一轮失败的目标：与它重合的一级直接跳过，
// 重查仍得到同一位置时放弃，保证解析链有界不空转
func (s *relayService) trySend(ctx context.Context, msg *model.InstantMessage, hint string, previous *deliveryTarget, foreigner bool) bool {
	toID := msg.ToAgentID

	// 第一级：位置缓存
	if target, ok := s.locations.Get(toID); ok && !sameTarget(target, previous) {
		if s.deliver(ctx, msg, target) {
			return true
		}
		s.locations.Delete(toID)
		return s.trySend(ctx, msg, hint, target, foreigner)
	}

	// 第二级：调用方提示的地址，与刚失败的位置相同则跳过
	if hint != "" {
		target := &deliveryTarget{URL: hint}
		if !sameTarget(target, previous) {
			if s.deliver(ctx, msg, target) {
				s.locations.Set(toID, target)
				return true
			}
			return s.trySend(ctx, msg, "", target, foreigner)
		}
	}

	// 第三级：重新解析
	target := s.resolve(ctx, toID, foreigner)
	if target == nil || sameTarget(target, previous) {
		s.locations.Delete(toID)
		return false
	}
	s.locations.Set(toID, target)
	if s.deliver(ctx, msg, target) {
		return true
	}
	return s.trySend(ctx, msg, "", target, foreigner)
}

// deliver 向目标投递一次
func (s *relayService) deliver(ctx context.Context, msg *model.InstantMessage, target *deliveryTarget) bool {
	if target.Presence != nil {
		region, err := s.regionCache.GetOrCompute(target.Presence.RegionID, func() (*model.GridRegion, error) {
			return s.regions.GetRegionByID(ctx, target.Presence.RegionID)
		})
		if err != nil || region == nil {
			return false
		}
		if ok, _ := s.gateway.Send(ctx, region.ServerURI, msg); ok {
			return true
		}
		s.regionCache.Delete(target.Presence.RegionID)
		return false
	}
	if target.URL == "" {
		return false
	}
	ok, _ := s.gateway.Send(ctx, target.URL, msg)
	return ok
}

// resolve 查接收人当前位置：先看本格在线状态，
// 本格用户离格旅行时再问归属网格服务
func (s *relayService) resolve(ctx context.Context, toID string, foreigner bool) *deliveryTarget {
	sessions, err := s.presence.GetSessions(ctx, toID)
	if err == nil {
		for _, p := range sessions {
			if p.RegionID != "" && p.RegionID != model.ZeroID {
				return &deliveryTarget{Presence: p}
			}
		}
	}
	if foreigner {
		return nil
	}
	if url := s.travel.LocateUser(ctx, toID); url != "" {
		return &deliveryTarget{URL: url}
	}
	return nil
}

// storeOffline 落库离线消息
func (s *relayService) storeOffline(ctx context.Context, msg *model.InstantMessage) bool {
	err := s.offline.Store(ctx, &model.OfflineMessage{
		ToUserID:      msg.ToAgentID,
		FromUserID:    msg.FromAgentID,
		FromAgentName: msg.FromAgentName,
		Dialog:        msg.Dialog,
		Message:       msg.Message,
	})
	if err != nil {
		logger.Get().Error("离线消息落库失败",
			zap.String("to_id", msg.ToAgentID),
			zap.Error(err))
		return false
	}
	return true
}
