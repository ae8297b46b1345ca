package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pu-ac-cn/hypergrid-backend/internal/config"
	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
	"github.com/pu-ac-cn/hypergrid-backend/internal/repository"
	"github.com/pu-ac-cn/hypergrid-backend/pkg/logger"
	uuicodec "github.com/pu-ac-cn/hypergrid-backend/pkg/uui"
	"go.uber.org/zap"
)

// 向对方网格核实或回传时的超时
const friendRemoteTimeout = 10 * time.Second

// FriendService 跨网格好友服务接口
// 关系行定向存储，密钥段是两侧唯一共享的凭据：建立要靠它完成
// 握手，删除要靠它鉴权，因为届时没有任何跨网格会话可用
type FriendService interface {
	// OfferFriendship 本格用户向外格用户发起邀约
	OfferFriendship(ctx context.Context, ownerID, friendUUI, message string) error
	// NewFriendship 落库一条好友关系
	// verified 表示请求来自本格已鉴权通道；否则必须存在对向的
	// 待确认行且密钥一致，成立时双向改写为已确认
	NewFriendship(ctx context.Context, rel *model.FriendRelation, verified bool) bool
	// DeleteFriendship 凭共享密钥删除双向关系行
	DeleteFriendship(ctx context.Context, rel *model.FriendRelation, secret string) bool
	// FriendshipOffered 外格用户的邀约到达
	// 立即应答，真正的核实与落库在后台完成
	FriendshipOffered(ctx context.Context, offer *model.FriendOffer) bool
	// ValidateFriendshipOffered 对方网格回查：toID 是否确实向 fromID 发过邀约
	ValidateFriendshipOffered(ctx context.Context, fromID, toID string) bool
	// StatusNotification 外格用户上下线，筛选后通知本格好友，返回在线好友 ID
	StatusNotification(ctx context.Context, friendUUIs []string, foreignUserID string, online bool) []string
	// GetOnlineFriends 与 StatusNotification 同样筛选，只查不通知
	GetOnlineFriends(ctx context.Context, foreignUserID string, friendUUIs []string) []string
	// NotifyStatusChange 本格用户上下线，按归属网格分组推送给外格好友
	NotifyStatusChange(ctx context.Context, userID string, online bool)
}

// friendService 跨网格好友服务实现
type friendService struct {
	cfg       *config.GridConfig
	friends   repository.FriendRepository
	accounts  AccountService
	presence  PresenceService
	sink      LocalEventSink
	userAgent UserAgentGateway
	gateway   FriendsGateway
}

// NewFriendService 创建跨网格好友服务
func NewFriendService(
	cfg *config.GridConfig,
	friends repository.FriendRepository,
	accounts AccountService,
	presence PresenceService,
	sink LocalEventSink,
	userAgent UserAgentGateway,
	gateway FriendsGateway,
) FriendService {
	return &friendService{
		cfg:       cfg,
		friends:   friends,
		accounts:  accounts,
		presence:  presence,
		sink:      sink,
		userAgent: userAgent,
		gateway:   gateway,
	}
}

// OfferFriendship 本格用户向外格用户发起邀约
// 先落一条待确认行并铸造共享密钥，再把邀约转发到对方网格
func (s *friendService) OfferFriendship(ctx context.Context, ownerID, friendUUI, message string) error {
	target, err := uuicodec.Parse(friendUUI)
	if err != nil {
		return err
	}
	account, err := s.accounts.GetAccount(ctx, ownerID)
	if err != nil {
		return ErrAccountNotFound
	}

	secret := uuid.New().String()
	target.Secret = secret
	if err := s.friends.Store(ctx, &model.FriendRelation{
		OwnerID:    ownerID,
		FriendUUI:  target.String(),
		TheirFlags: model.FriendFlagsPending,
	}); err != nil {
		return err
	}

	ownUUI := uuicodec.UUI{
		UserID:  ownerID,
		GridURL: uuicodec.NormalizeURL(s.cfg.ExternalName),
		Name:    account.Name(),
		Secret:  secret,
	}
	offer := &model.FriendOffer{
		FromID:   ownerID,
		FromName: ownUUI.UniversalName(),
		FromUUI:  ownUUI.String(),
		ToID:     target.UserID,
		Message:  message,
	}
	if _, err := s.gateway.FriendshipOffered(ctx, target.GridURL, offer); err != nil {
		logger.Get().Warn("好友邀约转发失败",
			zap.String("grid", target.GridURL),
			zap.Error(err))
		return err
	}
	return nil
}

// NewFriendship 落库一条好友关系
func (s *friendService) NewFriendship(ctx context.Context, rel *model.FriendRelation, verified bool) bool {
	friend, err := uuicodec.Parse(rel.FriendUUI)
	if err != nil {
		return false
	}

	if verified {
		rel.TheirFlags = model.FriendFlagsNone
		if err := s.friends.Store(ctx, rel); err != nil {
			return false
		}
		// 带密钥接受外格邀约时，把接受结果回传对方网格完成对侧握手
		if friend.HasSecret() && friend.GridURL != "" && friend.GridURL != uuicodec.NormalizeURL(s.cfg.ExternalName) {
			if ok, err := s.gateway.NewFriendship(ctx, friend.GridURL, rel); err != nil || !ok {
				logger.Get().Warn("好友接受回传失败",
					zap.String("grid", friend.GridURL),
					zap.Error(err))
			}
		}
		return true
	}

	if !friend.HasSecret() {
		return false
	}

	// 对向的待确认行：对方此前向 rel.OwnerID 发过邀约
	recip, err := s.friends.GetByOwnerAndFriendID(ctx, friend.UserID, rel.OwnerID)
	if err != nil || !recip.IsPending() {
		return false
	}
	recipUUI, err := uuicodec.Parse(recip.FriendUUI)
	if err != nil || !recipUUI.MatchesSecret(friend.Secret) {
		return false
	}

	// 握手成立，双向改写为已确认
	rel.TheirFlags = model.FriendFlagsConfirmed
	if err := s.friends.Store(ctx, rel); err != nil {
		return false
	}
	recip.TheirFlags = model.FriendFlagsConfirmed
	if err := s.friends.Store(ctx, recip); err != nil {
		return false
	}

	if err := s.sink.FriendshipApproved(ctx, recip.OwnerID, recip.FriendUUI, friend.Name); err != nil {
		logger.Get().Warn("好友确认通知失败",
			zap.String("user_id", recip.OwnerID),
			zap.Error(err))
	}
	return true
}

// DeleteFriendship 凭共享密钥删除双向关系行
func (s *friendService) DeleteFriendship(ctx context.Context, rel *model.FriendRelation, secret string) bool {
	friendID := rel.FriendUUI
	if i := strings.Index(friendID, ";"); i >= 0 {
		friendID = friendID[:i]
	}

	row, err := s.friends.GetByOwnerAndFriendID(ctx, rel.OwnerID, friendID)
	if err != nil {
		return false
	}
	stored, err := uuicodec.Parse(row.FriendUUI)
	if err != nil || !stored.MatchesSecret(secret) {
		return false
	}

	if err := s.friends.Delete(ctx, rel.OwnerID, row.FriendUUI); err != nil {
		return false
	}
	// 对向行可能不存在，忽略未找到
	s.friends.DeleteByOwnerAndFriendID(ctx, stored.UserID, rel.OwnerID)

	if err := s.sink.FriendshipTerminated(ctx, rel.OwnerID, stored.UserID); err != nil {
		logger.Get().Warn("好友终止通知下发失败",
			zap.String("user_id", rel.OwnerID),
			zap.Error(err))
	}
	// 转告对方网格删掉它那侧的行；对方已先删完时会回传失败，到此为止
	if stored.GridURL != "" && stored.GridURL != uuicodec.NormalizeURL(s.cfg.ExternalName) {
		if _, err := s.gateway.DeleteFriendship(ctx, stored.GridURL, &model.FriendRelation{
			OwnerID:   stored.UserID,
			FriendUUI: rel.OwnerID,
		}, secret); err != nil {
			logger.Get().Warn("好友删除转发失败",
				zap.String("grid", stored.GridURL),
				zap.Error(err))
		}
	}
	return true
}

// FriendshipOffered 外格用户的邀约到达
// 目标账户存在即应答成功，向发起方归属网格的核实、落库和
// 给目标用户的提示都在后台完成，不阻塞对方网格
func (s *friendService) FriendshipOffered(ctx context.Context, offer *model.FriendOffer) bool {
	account, err := s.accounts.GetAccount(ctx, offer.ToID)
	if err != nil || account == nil {
		return false
	}
	from, err := uuicodec.Parse(offer.FromUUI)
	if err != nil || !from.HasSecret() {
		return false
	}

	go s.settleOffer(offer, from, account)
	return true
}

// settleOffer 后台核实并落库邀约
func (s *friendService) settleOffer(offer *model.FriendOffer, from *uuicodec.UUI, account *model.UserAccount) {
	ctx, cancel := context.WithTimeout(context.Background(), friendRemoteTimeout)
	defer cancel()

	ok, err := s.userAgent.ValidateFriendshipOffered(ctx, from.GridURL, offer.ToID, offer.FromID)
	if err != nil || !ok {
		logger.Get().Warn("好友邀约未通过发起方网格核实",
			zap.String("from_id", offer.FromID),
			zap.String("grid", from.GridURL),
			zap.Error(err))
		return
	}

	// 待确认行记在发起方名下，密钥沿用邀约携带的密钥
	toUUI := uuicodec.UUI{
		UserID:  offer.ToID,
		GridURL: uuicodec.NormalizeURL(s.cfg.ExternalName),
		Name:    account.Name(),
		Secret:  from.Secret,
	}
	if err := s.friends.Store(ctx, &model.FriendRelation{
		OwnerID:    offer.FromID,
		FriendUUI:  toUUI.String(),
		TheirFlags: model.FriendFlagsPending,
	}); err != nil {
		logger.Get().Error("好友邀约落库失败",
			zap.String("from_id", offer.FromID),
			zap.Error(err))
		return
	}

	if err := s.sink.FriendshipOffered(ctx, offer.ToID, offer.FromID, offer.FromName, offer.Message); err != nil {
		logger.Get().Warn("好友邀约提示下发失败",
			zap.String("to_id", offer.ToID),
			zap.Error(err))
	}
}

// ValidateFriendshipOffered 对方网格回查邀约是否确实由本格发出
func (s *friendService) ValidateFriendshipOffered(ctx context.Context, fromID, toID string) bool {
	row, err := s.friends.GetByOwnerAndFriendID(ctx, toID, fromID)
	if err != nil {
		return false
	}
	return row.IsPending()
}

// StatusNotification 外格用户上下线通知
func (s *friendService) StatusNotification(ctx context.Context, friendUUIs []string, foreignUserID string, online bool) []string {
	return s.filterFriends(ctx, friendUUIs, foreignUserID, true, online)
}

// GetOnlineFriends 只筛选在线好友，不下发通知
func (s *friendService) GetOnlineFriends(ctx context.Context, foreignUserID string, friendUUIs []string) []string {
	return s.filterFriends(ctx, friendUUIs, foreignUserID, false, false)
}

// NotifyStatusChange 本格用户上下线，把通知推送到外格好友的归属网格
// 行里的 FriendUUI 自带密钥，对方网格凭它完成对称的筛选
func (s *friendService) NotifyStatusChange(ctx context.Context, userID string, online bool) {
	rows, err := s.friends.GetFriends(ctx, userID)
	if err != nil {
		logger.Get().Warn("读取好友关系失败",
			zap.String("user_id", userID),
			zap.Error(err))
		return
	}

	home := uuicodec.NormalizeURL(s.cfg.ExternalName)
	byGrid := make(map[string][]string)
	for _, row := range rows {
		if row.IsPending() {
			continue
		}
		friend, err := uuicodec.Parse(row.FriendUUI)
		if err != nil || friend.GridURL == "" || friend.GridURL == home {
			continue
		}
		byGrid[friend.GridURL] = append(byGrid[friend.GridURL], row.FriendUUI)
	}

	for grid, uuis := range byGrid {
		if _, err := s.userAgent.StatusNotification(ctx, grid, uuis, userID, online); err != nil {
			logger.Get().Warn("好友状态跨网格推送失败",
				zap.String("grid", grid),
				zap.Error(err))
		}
	}
}

// filterFriends 逐个校验候选 UUI 的密钥与权限位，返回在线的本格好友
func (s *friendService) filterFriends(ctx context.Context, friendUUIs []string, foreignUserID string, notify, online bool) []string {
	result := make([]string, 0, len(friendUUIs))
	for _, raw := range friendUUIs {
		candidate, err := uuicodec.Parse(raw)
		if err != nil {
			continue
		}
		row, err := s.friends.GetByOwnerAndFriendID(ctx, candidate.UserID, foreignUserID)
		if err != nil || !row.HasRights() {
			continue
		}
		stored, err := uuicodec.Parse(row.FriendUUI)
		if err != nil || !stored.MatchesSecret(candidate.Secret) {
			continue
		}

		sessions, err := s.presence.GetSessions(ctx, candidate.UserID)
		if err != nil {
			continue
		}
		// 只取第一个已进入区域的会话
		var current *model.PresenceInfo
		for _, sess := range sessions {
			if sess.RegionID != "" && sess.RegionID != model.ZeroID {
				current = sess
				break
			}
		}
		if current == nil {
			continue
		}

		if notify {
			if err := s.sink.StatusNotify(ctx, candidate.UserID, foreignUserID, online); err != nil {
				logger.Get().Warn("好友状态通知下发失败",
					zap.String("user_id", candidate.UserID),
					zap.Error(err))
			}
		}
		result = append(result, candidate.UserID)
	}
	return result
}
