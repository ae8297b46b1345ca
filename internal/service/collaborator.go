// Package service 业务逻辑层
package service

import (
	"context"

	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
)

// 本格协作服务接口。由网格内其它服务提供，
// 生产环境经 internal/remote 的 HTTP 连接器接入，测试用内存实现

// AccountService 账户查询
type AccountService interface {
	GetAccount(ctx context.Context, userID string) (*model.UserAccount, error)
	GetAccountByName(ctx context.Context, firstName, lastName string) (*model.UserAccount, error)
}

// PresenceService 在线状态查询
type PresenceService interface {
	GetSessions(ctx context.Context, userID string) ([]*model.PresenceInfo, error)
}

// RegionRegistry 区域注册表查询
type RegionRegistry interface {
	GetRegionByID(ctx context.Context, regionID string) (*model.GridRegion, error)
	GetDefaultRegion(ctx context.Context) (*model.GridRegion, error)
}

// AvatarService 化身外观查询
type AvatarService interface {
	GetAppearance(ctx context.Context, userID string) (*model.AvatarAppearance, error)
}

// SimulatorGateway 本格模拟器投放通道
type SimulatorGateway interface {
	// LaunchAgent 请求区域接纳化身，返回是否接纳及拒绝原因
	LaunchAgent(ctx context.Context, region *model.GridRegion, sess *model.TravelSession, serviceToken string, fromLogin bool) (bool, string, error)
}

// GatekeeperGateway 目的网格网关通道
type GatekeeperGateway interface {
	// GridName 查询网关对外名称，用于策略匹配和会话记录
	GridName(ctx context.Context, gatekeeperURI string) (string, error)
	// LaunchAgent 请求目的网格接纳化身，返回是否接纳及拒绝原因
	LaunchAgent(ctx context.Context, gatekeeperURI string, region *model.GridRegion, sess *model.TravelSession, serviceToken string, fromLogin bool) (bool, string, error)
}

// UserAgentGateway 用户归属网格通道（homeagent 服务）
type UserAgentGateway interface {
	// LocateUser 查询用户当前所在区域地址，空串表示不在线
	LocateUser(ctx context.Context, homeURL, userID string) (string, error)
	// ValidateFriendshipOffered 向发起方归属网格核实邀约确实由其发出
	ValidateFriendshipOffered(ctx context.Context, homeURL, fromID, toID string) (bool, error)
	// StatusNotification 向对方网格推送上下线通知，返回对方在线的好友 ID
	StatusNotification(ctx context.Context, homeURL string, friendUUIs []string, userID string, online bool) ([]string, error)
}

// FriendsGateway 对方网格好友服务通道（hgfriends 服务）
type FriendsGateway interface {
	// NewFriendship 把接受结果回传给对方网格完成握手
	NewFriendship(ctx context.Context, gridURL string, rel *model.FriendRelation) (bool, error)
	// DeleteFriendship 通知对方网格删除对向关系行
	DeleteFriendship(ctx context.Context, gridURL string, rel *model.FriendRelation, secret string) (bool, error)
	// FriendshipOffered 把本格用户的邀约转发到对方网格
	FriendshipOffered(ctx context.Context, gridURL string, fromUUI *model.FriendOffer) (bool, error)
}

// MessageGateway 即时消息投递通道，目标为区域模拟器地址
type MessageGateway interface {
	Send(ctx context.Context, regionURL string, msg *model.InstantMessage) (bool, error)
}

// LocalEventSink 本格在线会话事件下发（好友通知走模拟器）
type LocalEventSink interface {
	FriendshipOffered(ctx context.Context, userID, fromID, fromName, message string) error
	FriendshipApproved(ctx context.Context, userID, friendUUI, friendName string) error
	FriendshipTerminated(ctx context.Context, userID, friendID string) error
	StatusNotify(ctx context.Context, userID, friendID string, online bool) error
}
