package service

import (
	"context"
	"testing"

	"github.com/pu-ac-cn/hypergrid-backend/internal/config"
	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTravelService 中继测试只用到 LocateUser，其余方法为空壳
type stubTravelService struct {
	locations map[string]string // userID -> 外格地址
}

func (s *stubTravelService) GetHomeRegion(ctx context.Context, userID string) (*model.GridRegion, string, string) {
	return nil, "", ""
}
func (s *stubTravelService) LoginAgentToGrid(ctx context.Context, req *LoginRequest) (bool, string) {
	return false, ""
}
func (s *stubTravelService) VerifyClient(ctx context.Context, sessionID, reportedIP string) bool {
	return false
}
func (s *stubTravelService) VerifyAgent(ctx context.Context, sessionID, token string) bool {
	return false
}
func (s *stubTravelService) IsAgentComingHome(ctx context.Context, sessionID, thisGridName string) bool {
	return false
}
func (s *stubTravelService) LogoutAgent(ctx context.Context, userID, sessionID string) error {
	return nil
}
func (s *stubTravelService) LocateUser(ctx context.Context, userID string) string {
	return s.locations[userID]
}
func (s *stubTravelService) GetUUID(ctx context.Context, firstName, lastName string) string {
	return model.ZeroID
}
func (s *stubTravelService) GetUUI(ctx context.Context, userID, targetUserID string) string {
	return ""
}
func (s *stubTravelService) GetUserInfo(ctx context.Context, userID string) (map[string]interface{}, error) {
	return nil, ErrAccountNotFound
}
func (s *stubTravelService) GetServerURLs(ctx context.Context, userID string) (model.ServiceURLs, error) {
	return model.ServiceURLs{}, nil
}

// relayFixture 消息中继测试夹具
type relayFixture struct {
	svc      RelayService
	offline  *mockOfflineRepository
	presence *mockPresenceService
	regions  *mockRegionRegistry
	travel   *stubTravelService
	gateway  *mockMessageGateway
	cfg      *config.GridConfig
}

func setupRelayService(t *testing.T) *relayFixture {
	f := &relayFixture{
		offline:  newMockOfflineRepository(),
		presence: newMockPresenceService(),
		regions:  newMockRegionRegistry(),
		travel:   &stubTravelService{locations: make(map[string]string)},
		gateway:  newMockMessageGateway(),
		cfg:      &config.GridConfig{ExternalName: "http://home.example.org:8002/"},
	}
	f.svc = NewRelayService(f.cfg, f.offline, f.presence, f.regions, f.travel, f.gateway)
	return f
}

func TestRelayService_Incoming_LocalDelivery(t *testing.T) {
	f := setupRelayService(t)
	ctx := context.Background()

	f.presence.sessions[testUserA] = []*model.PresenceInfo{
		{UserID: testUserA, SessionID: "s1", RegionID: "region-1"},
	}
	f.regions.regions["region-1"] = &model.GridRegion{
		RegionID: "region-1", ServerURI: "http://sim1.example.org:9000/",
	}

	ok := f.svc.IncomingInstantMessage(ctx, &model.InstantMessage{
		FromAgentID: testUserC, ToAgentID: testUserA, Message: "hello",
	})
	require.True(t, ok)
	assert.Equal(t, []string{"http://sim1.example.org:9000/"}, f.gateway.sends)
	assert.Empty(t, f.offline.messages)
}

func TestRelayService_Incoming_SkipsSessionWithoutRegion(t *testing.T) {
	f := setupRelayService(t)
	ctx := context.Background()

	// 第一个会话尚未进入区域，解析取第一个有区域的会话
	f.presence.sessions[testUserA] = []*model.PresenceInfo{
		{UserID: testUserA, SessionID: "s1", RegionID: model.ZeroID},
		{UserID: testUserA, SessionID: "s2", RegionID: "region-2"},
	}
	f.regions.regions["region-2"] = &model.GridRegion{
		RegionID: "region-2", ServerURI: "http://sim2.example.org:9000/",
	}

	ok := f.svc.IncomingInstantMessage(ctx, &model.InstantMessage{
		FromAgentID: testUserC, ToAgentID: testUserA,
	})
	require.True(t, ok)
	assert.Equal(t, []string{"http://sim2.example.org:9000/"}, f.gateway.sends)
}

func TestRelayService_Incoming_OfflineFallback(t *testing.T) {
	f := setupRelayService(t)
	f.cfg.InGatekeeper = true
	ctx := context.Background()

	// 接收人不在线，普通消息落入离线存储
	ok := f.svc.IncomingInstantMessage(ctx, &model.InstantMessage{
		FromAgentID:   testUserC,
		FromAgentName: "Carol Crosser",
		ToAgentID:     testUserA,
		Dialog:        model.DialogMessageFromAgent,
		Message:       "hello",
	})
	require.True(t, ok)
	require.Len(t, f.offline.messages, 1)
	assert.Equal(t, testUserA, f.offline.messages[0].ToUserID)
	assert.Equal(t, "hello", f.offline.messages[0].Message)
}

func TestRelayService_Incoming_OfflineRequiresGatekeeperRole(t *testing.T) {
	f := setupRelayService(t)

	// 本格不承担守门人角色时不做离线存储
	ok := f.svc.IncomingInstantMessage(context.Background(), &model.InstantMessage{
		FromAgentID: testUserC, ToAgentID: testUserA,
		Dialog: model.DialogMessageFromAgent,
	})
	assert.False(t, ok)
	assert.Empty(t, f.offline.messages)
}

func TestRelayService_Incoming_GroupMessagesGated(t *testing.T) {
	f := setupRelayService(t)
	f.cfg.InGatekeeper = true
	ctx := context.Background()

	// 群组公告默认不落离线
	ok := f.svc.IncomingInstantMessage(ctx, &model.InstantMessage{
		FromAgentID: testUserC, ToAgentID: testUserA,
		Dialog: model.DialogGroupNotice,
	})
	assert.False(t, ok)

	f.cfg.ForwardOfflineGroupMessages = true
	ok = f.svc.IncomingInstantMessage(ctx, &model.InstantMessage{
		FromAgentID: testUserC, ToAgentID: testUserA,
		Dialog: model.DialogGroupNotice,
	})
	assert.True(t, ok)
	assert.Len(t, f.offline.messages, 1)
}

func TestRelayService_Incoming_FriendshipDialogNeverOffline(t *testing.T) {
	f := setupRelayService(t)
	f.cfg.InGatekeeper = true

	// 好友邀约类对话由专门链路处理，不落离线
	ok := f.svc.IncomingInstantMessage(context.Background(), &model.InstantMessage{
		FromAgentID: testUserC, ToAgentID: testUserA,
		Dialog: model.DialogFriendshipOffered,
	})
	assert.False(t, ok)
	assert.Empty(t, f.offline.messages)
}

func TestRelayService_Incoming_BoundedRetry(t *testing.T) {
	f := setupRelayService(t)
	ctx := context.Background()

	f.presence.sessions[testUserA] = []*model.PresenceInfo{
		{UserID: testUserA, SessionID: "s1", RegionID: "region-1"},
	}
	f.regions.regions["region-1"] = &model.GridRegion{
		RegionID: "region-1", ServerURI: "http://sim1.example.org:9000/",
	}
	f.gateway.failing["http://sim1.example.org:9000/"] = true

	// 投递失败后重查得到同一位置，直接放弃不空转
	ok := f.svc.IncomingInstantMessage(ctx, &model.InstantMessage{
		FromAgentID: testUserC, ToAgentID: testUserA,
	})
	assert.False(t, ok)
	assert.Equal(t, []string{"http://sim1.example.org:9000/"}, f.gateway.sends)
}

func TestRelayService_Incoming_ForeignTraveler(t *testing.T) {
	f := setupRelayService(t)
	ctx := context.Background()

	// 本格用户正在外格旅行，消息转投其所在网格
	f.travel.locations[testUserA] = "http://foreign.example.org:8002/"

	ok := f.svc.IncomingInstantMessage(ctx, &model.InstantMessage{
		FromAgentID: testUserB, ToAgentID: testUserA,
	})
	require.True(t, ok)
	assert.Equal(t, []string{"http://foreign.example.org:8002/"}, f.gateway.sends)
}

func TestRelayService_Outgoing_DirectURL(t *testing.T) {
	f := setupRelayService(t)
	ctx := context.Background()

	ok := f.svc.OutgoingInstantMessage(ctx, &model.InstantMessage{
		FromAgentID: testUserA, ToAgentID: testUserC,
	}, "http://foreign.example.org:8002/", true)
	require.True(t, ok)
	assert.Equal(t, []string{"http://foreign.example.org:8002/"}, f.gateway.sends)

	// 成功的地址进入位置缓存，后续投递不再重查
	ok = f.svc.IncomingInstantMessage(ctx, &model.InstantMessage{
		FromAgentID: testUserA, ToAgentID: testUserC,
	})
	require.True(t, ok)
	assert.Len(t, f.gateway.sends, 2)
}

func TestRelayService_Outgoing_DirectURLFails(t *testing.T) {
	f := setupRelayService(t)
	ctx := context.Background()

	f.gateway.failing["http://foreign.example.org:8002/"] = true

	// 外来用户的目标地址失败后没有别的解析途径
	ok := f.svc.OutgoingInstantMessage(ctx, &model.InstantMessage{
		FromAgentID: testUserA, ToAgentID: testUserC,
	}, "http://foreign.example.org:8002/", true)
	assert.False(t, ok)
	assert.Equal(t, []string{"http://foreign.example.org:8002/"}, f.gateway.sends)
}

func TestRelayService_Outgoing_FallsBackToResolution(t *testing.T) {
	f := setupRelayService(t)
	ctx := context.Background()

	// 给定地址已失效，但本格在线状态能给出新位置
	f.gateway.failing["http://stale.example.org:8002/"] = true
	f.presence.sessions[testUserA] = []*model.PresenceInfo{
		{UserID: testUserA, SessionID: "s1", RegionID: "region-1"},
	}
	f.regions.regions["region-1"] = &model.GridRegion{
		RegionID: "region-1", ServerURI: "http://sim1.example.org:9000/",
	}

	ok := f.svc.OutgoingInstantMessage(ctx, &model.InstantMessage{
		FromAgentID: testUserB, ToAgentID: testUserA,
	}, "http://stale.example.org:8002/", false)
	require.True(t, ok)
	assert.Equal(t, []string{
		"http://stale.example.org:8002/",
		"http://sim1.example.org:9000/",
	}, f.gateway.sends)
}

func TestRelayService_Outgoing_CachedLocationBeforeHint(t *testing.T) {
	f := setupRelayService(t)
	ctx := context.Background()

	// 第一次直投成功，目标进入位置缓存
	ok := f.svc.OutgoingInstantMessage(ctx, &model.InstantMessage{
		FromAgentID: testUserA, ToAgentID: testUserC,
	}, "http://fresh.example.org:8002/", true)
	require.True(t, ok)

	// 缓存仍然新鲜时，过期的提示地址不该被碰
	ok = f.svc.OutgoingInstantMessage(ctx, &model.InstantMessage{
		FromAgentID: testUserA, ToAgentID: testUserC,
	}, "http://stale.example.org:8002/", true)
	require.True(t, ok)
	assert.Equal(t, []string{
		"http://fresh.example.org:8002/",
		"http://fresh.example.org:8002/",
	}, f.gateway.sends)
}

func TestRelayService_Outgoing_HintSameAsFailedCacheSkipped(t *testing.T) {
	f := setupRelayService(t)
	ctx := context.Background()

	ok := f.svc.OutgoingInstantMessage(ctx, &model.InstantMessage{
		FromAgentID: testUserA, ToAgentID: testUserC,
	}, "http://foreign.example.org:8002/", true)
	require.True(t, ok)

	// 缓存地址失效后，与之相同的提示地址不再重复投递
	f.gateway.failing["http://foreign.example.org:8002/"] = true
	ok = f.svc.OutgoingInstantMessage(ctx, &model.InstantMessage{
		FromAgentID: testUserA, ToAgentID: testUserC,
	}, "http://foreign.example.org:8002/", true)
	assert.False(t, ok)
	assert.Equal(t, []string{
		"http://foreign.example.org:8002/",
		"http://foreign.example.org:8002/",
	}, f.gateway.sends)
}

func TestRelayService_RetrieveOfflineMessages(t *testing.T) {
	f := setupRelayService(t)
	ctx := context.Background()

	require.NoError(t, f.offline.Store(ctx, &model.OfflineMessage{
		ToUserID: testUserA, FromUserID: testUserC,
		FromAgentName: "Carol Crosser", Message: "first",
	}))
	require.NoError(t, f.offline.Store(ctx, &model.OfflineMessage{
		ToUserID: testUserA, FromUserID: testUserB, Message: "second",
	}))
	require.NoError(t, f.offline.Store(ctx, &model.OfflineMessage{
		ToUserID: testUserB, Message: "other user",
	}))

	msgs, err := f.svc.RetrieveOfflineMessages(ctx, testUserA)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Message)
	assert.True(t, msgs[0].Offline)
	assert.Equal(t, testUserA, msgs[0].ToAgentID)

	// 取出即清空，别人的消息不受影响
	msgs, err = f.svc.RetrieveOfflineMessages(ctx, testUserA)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	remaining, err := f.offline.ListByUser(ctx, testUserB)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
