package service

import (
	"context"
	"errors"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pu-ac-cn/hypergrid-backend/internal/config"
	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
	"github.com/pu-ac-cn/hypergrid-backend/internal/repository"
	uuicodec "github.com/pu-ac-cn/hypergrid-backend/pkg/uui"
	"golang.org/x/crypto/bcrypt"
)

// 旅行相关错误
var (
	ErrAccountNotFound   = errors.New("账户不存在")
	ErrTripRefused       = errors.New("出境策略拒绝前往该网格")
	ErrGatekeeperUnknown = errors.New("无法识别目的网格")
)

// LoginRequest 登录或传送请求
type LoginRequest struct {
	UserID          string
	SessionID       string
	Gatekeeper      string // 目的网格守门人地址
	Region          *model.GridRegion
	ClientIPAddress string
	FromLogin       bool // 登录首跳为 true，跨网格传送为 false
}

// TravelService 旅行会话服务接口
// 管理本格用户的出境会话：准入、校验、定位和对外身份查询
type TravelService interface {
	GetHomeRegion(ctx context.Context, userID string) (*model.GridRegion, string, string)
	LoginAgentToGrid(ctx context.Context, req *LoginRequest) (bool, string)
	VerifyClient(ctx context.Context, sessionID, reportedIP string) bool
	VerifyAgent(ctx context.Context, sessionID, token string) bool
	IsAgentComingHome(ctx context.Context, sessionID, thisGridName string) bool
	LogoutAgent(ctx context.Context, userID, sessionID string) error
	LocateUser(ctx context.Context, userID string) string
	GetUUID(ctx context.Context, firstName, lastName string) string
	GetUUI(ctx context.Context, userID, targetUserID string) string
	GetUserInfo(ctx context.Context, userID string) (map[string]interface{}, error)
	GetServerURLs(ctx context.Context, userID string) (model.ServiceURLs, error)
}

// travelService 旅行会话服务实现
type travelService struct {
	cfg        *config.GridConfig
	sessions   TravelSessionStore
	accounts   AccountService
	regions    RegionRegistry
	gridUsers  repository.GridUserRepository
	friends    repository.FriendRepository
	policy     *TravelPolicy
	simulator  SimulatorGateway
	gatekeeper GatekeeperGateway

	externalIPOnce sync.Once
	externalIPs    []string
}

// NewTravelService 创建旅行会话服务
func NewTravelService(
	cfg *config.GridConfig,
	sessions TravelSessionStore,
	accounts AccountService,
	regions RegionRegistry,
	gridUsers repository.GridUserRepository,
	friends repository.FriendRepository,
	policy *TravelPolicy,
	simulator SimulatorGateway,
	gatekeeper GatekeeperGateway,
) TravelService {
	return &travelService{
		cfg:        cfg,
		sessions:   sessions,
		accounts:   accounts,
		regions:    regions,
		gridUsers:  gridUsers,
		friends:    friends,
		policy:     policy,
		simulator:  simulator,
		gatekeeper: gatekeeper,
	}
}

// GetHomeRegion 查询用户家区域
// 家区域缺失或已下线时退回网格默认区域，查询永不报错，
// 彻底无可用区域时返回 nil
func (s *travelService) GetHomeRegion(ctx context.Context, userID string) (*model.GridRegion, string, string) {
	gu, err := s.gridUsers.GetByUserID(ctx, userID)
	if err == nil && gu.HomeRegionID != "" && gu.HomeRegionID != model.ZeroID {
		region, err := s.regions.GetRegionByID(ctx, gu.HomeRegionID)
		if err == nil && region != nil {
			return region, gu.HomePosition, gu.HomeLookAt
		}
	}

	region, err := s.regions.GetDefaultRegion(ctx)
	if err != nil || region == nil {
		return nil, "", ""
	}
	return region, "", ""
}

// LoginAgentToGrid 把本格用户准入到目的网格
// 覆盖会话前先读出旧值；目的地拒绝时回滚到旧会话，
// 首跳失败则直接删除，保证失败不留下指向新目的地的脏会话
func (s *travelService) LoginAgentToGrid(ctx context.Context, req *LoginRequest) (bool, string) {
	account, err := s.accounts.GetAccount(ctx, req.UserID)
	if err != nil || account == nil {
		return false, "账户不存在"
	}

	local := s.isLocalGrid(req.Gatekeeper)

	gridName := uuicodec.NormalizeURL(s.cfg.ExternalName)
	if !local {
		name, err := s.gatekeeper.GridName(ctx, req.Gatekeeper)
		if err != nil || name == "" {
			return false, "无法识别目的网格"
		}
		gridName = name

		if !s.policy.ForeignTripAllowed(account.UserLevel, req.Gatekeeper) {
			return false, "出境策略拒绝前往该网格"
		}
	}

	// 铸造服务令牌，明文只随准入请求外发，本地只存哈希
	serviceToken := uuid.New().String()
	tokenHash, err := bcrypt.GenerateFromPassword([]byte(serviceToken), bcrypt.DefaultCost)
	if err != nil {
		return false, "服务令牌生成失败"
	}

	prior, priorErr := s.sessions.Get(ctx, req.SessionID)

	clientIP := req.ClientIPAddress
	if !req.FromLogin && priorErr == nil && prior.ClientIPAddress != "" {
		// 传送不改 IP 锚点，仍以最初登录观察到的地址为准
		clientIP = prior.ClientIPAddress
	}

	sess := &model.TravelSession{
		SessionID:        req.SessionID,
		UserID:           req.UserID,
		GridExternalName: gridName,
		ServiceTokenHash: string(tokenHash),
		ClientIPAddress:  clientIP,
	}
	if priorErr == nil {
		sess.CreatedAt = prior.CreatedAt
	}
	if err := s.sessions.Store(ctx, sess); err != nil {
		return false, "会话存储失败"
	}

	var ok bool
	var reason string
	if local {
		ok, reason, err = s.simulator.LaunchAgent(ctx, req.Region, sess, serviceToken, req.FromLogin)
	} else {
		ok, reason, err = s.gatekeeper.LaunchAgent(ctx, req.Gatekeeper, req.Region, sess, serviceToken, req.FromLogin)
	}
	if err != nil {
		ok = false
		if reason == "" {
			reason = "目的网格无法访问"
		}
	}

	if !ok {
		// 回滚：有旧会话恢复旧会话，否则抹掉本次写入
		if priorErr == nil {
			s.sessions.Store(ctx, prior)
		} else {
			s.sessions.Delete(ctx, req.SessionID)
		}
		return false, reason
	}

	if req.FromLogin {
		s.gridUsers.LoggedIn(ctx, req.UserID)
	}
	return true, ""
}

// VerifyClient 校验来访客户端 IP 是否与登录时一致
// 目的网格在接纳化身前回调此接口，防止会话被第三方冒用
func (s *travelService) VerifyClient(ctx context.Context, sessionID, reportedIP string) bool {
	if s.cfg.BypassClientVerification {
		return true
	}
	// 空地址一律拒绝：即使登录时也没有记录到 IP，空串相等不构成身份证明
	if reportedIP == "" {
		return false
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return false
	}
	if sess.ClientIPAddress == reportedIP {
		return true
	}

	// 经本格网关中转的请求源地址是网关自身
	for _, ip := range s.ownExternalIPs() {
		if ip == reportedIP {
			return true
		}
	}
	return false
}

// VerifyAgent 校验服务令牌
func (s *travelService) VerifyAgent(ctx context.Context, sessionID, token string) bool {
	if token == "" {
		return false
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(sess.ServiceTokenHash), []byte(token)) == nil
}

// IsAgentComingHome 化身是否正从记录中的网格返回
func (s *travelService) IsAgentComingHome(ctx context.Context, sessionID, thisGridName string) bool {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return false
	}
	return uuicodec.NormalizeURL(sess.GridExternalName) == uuicodec.NormalizeURL(thisGridName)
}

// LogoutAgent 登出并清理会话
func (s *travelService) LogoutAgent(ctx context.Context, userID, sessionID string) error {
	if sessionID != "" {
		if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
			return err
		}
	} else if err := s.sessions.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	return s.gridUsers.LoggedOut(ctx, userID, "", "", "")
}

// LocateUser 查询用户当前所在的外部网格地址，在本格或不在线返回空串
func (s *travelService) LocateUser(ctx context.Context, userID string) string {
	sessions, err := s.sessions.GetByUserID(ctx, userID)
	if err != nil {
		return ""
	}
	home := uuicodec.NormalizeURL(s.cfg.ExternalName)
	// 索引集合返回的顺序不定，多会话时取最近更新的那条
	var (
		latest   string
		latestAt time.Time
	)
	for _, sess := range sessions {
		grid := uuicodec.NormalizeURL(sess.GridExternalName)
		if grid == "" || grid == home {
			continue
		}
		if latest == "" || sess.UpdatedAt.After(latestAt) {
			latest = grid
			latestAt = sess.UpdatedAt
		}
	}
	return latest
}

// GetUUID 外部网格按名字查本格用户 ID
// 信任等级低于 level_outside_contacts 的账户对外不可见，返回全零
func (s *travelService) GetUUID(ctx context.Context, firstName, lastName string) string {
	account, err := s.accounts.GetAccountByName(ctx, firstName, lastName)
	if err != nil || account == nil {
		return model.ZeroID
	}
	if account.UserLevel < s.cfg.LevelOutsideContacts {
		return model.ZeroID
	}
	return account.ID
}

// GetUUI 查询目标用户的 UUI
// 目标是本格账户时现场拼装；否则回落到查询方的好友关系行，
// 行里存有对方的完整 UUI
func (s *travelService) GetUUI(ctx context.Context, userID, targetUserID string) string {
	account, err := s.accounts.GetAccount(ctx, targetUserID)
	if err == nil && account != nil {
		u := uuicodec.UUI{
			UserID:  account.ID,
			GridURL: uuicodec.NormalizeURL(s.cfg.ExternalName),
			Name:    account.Name(),
		}
		return u.String()
	}

	rel, err := s.friends.GetByOwnerAndFriendID(ctx, userID, targetUserID)
	if err != nil {
		return ""
	}
	return rel.FriendUUI
}

// GetUserInfo 对外档案查询
// show_user_details_in_hg_profile 关闭时只暴露名字
func (s *travelService) GetUserInfo(ctx context.Context, userID string) (map[string]interface{}, error) {
	account, err := s.accounts.GetAccount(ctx, userID)
	if err != nil {
		return nil, ErrAccountNotFound
	}

	info := map[string]interface{}{
		"user_firstname": account.FirstName,
		"user_lastname":  account.LastName,
	}
	if s.cfg.ShowUserDetailsInHGProfile {
		info["user_level"] = account.UserLevel
		info["user_title"] = account.UserTitle
		info["user_email"] = account.Email
	}
	return info, nil
}

// GetServerURLs 查询本格用户的服务地址表
func (s *travelService) GetServerURLs(ctx context.Context, userID string) (model.ServiceURLs, error) {
	account, err := s.accounts.GetAccount(ctx, userID)
	if err != nil {
		return nil, ErrAccountNotFound
	}
	if account.ServiceURLs == nil {
		return model.ServiceURLs{}, nil
	}
	return account.ServiceURLs, nil
}

// isLocalGrid 目的守门人是否就是本网格
func (s *travelService) isLocalGrid(gatekeeperURI string) bool {
	if gatekeeperURI == "" {
		return true
	}
	return uuicodec.NormalizeURL(gatekeeperURI) == uuicodec.NormalizeURL(s.cfg.GatekeeperURL()) ||
		uuicodec.NormalizeURL(gatekeeperURI) == uuicodec.NormalizeURL(s.cfg.ExternalName)
}

// ownExternalIPs 解析本网格对外地址的 IP，仅解析一次
func (s *travelService) ownExternalIPs() []string {
	s.externalIPOnce.Do(func() {
		u, err := url.Parse(s.cfg.GatekeeperURL())
		if err != nil || u.Hostname() == "" {
			return
		}
		ips, err := net.LookupHost(u.Hostname())
		if err != nil {
			return
		}
		s.externalIPs = ips
	})
	return s.externalIPs
}
