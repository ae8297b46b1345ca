package remote

import (
	"context"
	"errors"

	"github.com/pu-ac-cn/hypergrid-backend/internal/config"
	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
	"github.com/pu-ac-cn/hypergrid-backend/internal/service"
	"github.com/pu-ac-cn/hypergrid-backend/pkg/response"
)

// 错误定义
var (
	ErrNotFound = errors.New("对方服务未找到记录")
)

// accountService 账户服务连接器
type accountService struct {
	client  *Client
	baseURL string
}

// NewAccountService 创建账户服务连接器
func NewAccountService(client *Client, cfg *config.ServicesConfig) service.AccountService {
	return &accountService{client: client, baseURL: cfg.AccountsURL}
}

// accountReply 账户查询应答
type accountReply struct {
	Result  string             `json:"result"`
	Account *model.UserAccount `json:"account"`
}

// GetAccount 按用户 ID 查账户
func (s *accountService) GetAccount(ctx context.Context, userID string) (*model.UserAccount, error) {
	var reply accountReply
	err := s.client.CallInto(ctx, joinURL(s.baseURL, "accounts/get_account"), map[string]interface{}{
		"user_id": userID,
	}, &reply)
	if err != nil {
		return nil, err
	}
	if !response.ParseBool(reply.Result) || reply.Account == nil {
		return nil, ErrNotFound
	}
	return reply.Account, nil
}

// GetAccountByName 按姓名查账户
func (s *accountService) GetAccountByName(ctx context.Context, firstName, lastName string) (*model.UserAccount, error) {
	var reply accountReply
	err := s.client.CallInto(ctx, joinURL(s.baseURL, "accounts/get_account_by_name"), map[string]interface{}{
		"first_name": firstName,
		"last_name":  lastName,
	}, &reply)
	if err != nil {
		return nil, err
	}
	if !response.ParseBool(reply.Result) || reply.Account == nil {
		return nil, ErrNotFound
	}
	return reply.Account, nil
}

// presenceService 在线状态服务连接器
type presenceService struct {
	client  *Client
	baseURL string
}

// NewPresenceService 创建在线状态服务连接器
func NewPresenceService(client *Client, cfg *config.ServicesConfig) service.PresenceService {
	return &presenceService{client: client, baseURL: cfg.PresenceURL}
}

// GetSessions 查用户的在线会话
func (s *presenceService) GetSessions(ctx context.Context, userID string) ([]*model.PresenceInfo, error) {
	var reply struct {
		Result   string                `json:"result"`
		Sessions []*model.PresenceInfo `json:"sessions"`
	}
	err := s.client.CallInto(ctx, joinURL(s.baseURL, "presence/get_sessions"), map[string]interface{}{
		"user_id": userID,
	}, &reply)
	if err != nil {
		return nil, err
	}
	if !response.ParseBool(reply.Result) {
		return nil, nil
	}
	return reply.Sessions, nil
}

// regionRegistry 区域注册表连接器
type regionRegistry struct {
	client  *Client
	baseURL string
}

// NewRegionRegistry 创建区域注册表连接器
func NewRegionRegistry(client *Client, cfg *config.ServicesConfig) service.RegionRegistry {
	return &regionRegistry{client: client, baseURL: cfg.GridURL}
}

// regionReply 区域查询应答
type regionReply struct {
	Result string            `json:"result"`
	Region *model.GridRegion `json:"region"`
}

// GetRegionByID 按区域 ID 查询
func (s *regionRegistry) GetRegionByID(ctx context.Context, regionID string) (*model.GridRegion, error) {
	var reply regionReply
	err := s.client.CallInto(ctx, joinURL(s.baseURL, "grid/get_region_by_id"), map[string]interface{}{
		"region_id": regionID,
	}, &reply)
	if err != nil {
		return nil, err
	}
	if !response.ParseBool(reply.Result) || reply.Region == nil {
		return nil, ErrNotFound
	}
	return reply.Region, nil
}

// GetDefaultRegion 查询网格默认区域
func (s *regionRegistry) GetDefaultRegion(ctx context.Context) (*model.GridRegion, error) {
	var reply regionReply
	err := s.client.CallInto(ctx, joinURL(s.baseURL, "grid/get_default_region"), map[string]interface{}{}, &reply)
	if err != nil {
		return nil, err
	}
	if !response.ParseBool(reply.Result) || reply.Region == nil {
		return nil, ErrNotFound
	}
	return reply.Region, nil
}

// avatarService 化身外观服务连接器
type avatarService struct {
	client  *Client
	baseURL string
}

// NewAvatarService 创建化身外观服务连接器
func NewAvatarService(client *Client, cfg *config.ServicesConfig) service.AvatarService {
	return &avatarService{client: client, baseURL: cfg.AvatarURL}
}

// GetAppearance 查用户当前外观
func (s *avatarService) GetAppearance(ctx context.Context, userID string) (*model.AvatarAppearance, error) {
	var reply struct {
		Result     string                  `json:"result"`
		Appearance *model.AvatarAppearance `json:"appearance"`
	}
	err := s.client.CallInto(ctx, joinURL(s.baseURL, "avatar/get_appearance"), map[string]interface{}{
		"user_id": userID,
	}, &reply)
	if err != nil {
		return nil, err
	}
	if !response.ParseBool(reply.Result) || reply.Appearance == nil {
		return nil, ErrNotFound
	}
	return reply.Appearance, nil
}
