package remote

import (
	"context"

	"github.com/pu-ac-cn/hypergrid-backend/internal/service"
	"github.com/pu-ac-cn/hypergrid-backend/pkg/response"
)

// userAgentGateway 用户归属网格连接器
type userAgentGateway struct {
	client *Client
}

// NewUserAgentGateway 创建归属网格连接器
func NewUserAgentGateway(client *Client) service.UserAgentGateway {
	return &userAgentGateway{client: client}
}

// LocateUser 查询用户当前所在区域地址
func (g *userAgentGateway) LocateUser(ctx context.Context, homeURL, userID string) (string, error) {
	m, err := g.client.Call(ctx, joinURL(homeURL, "useragent/locate_user"), map[string]interface{}{
		"user_id": userID,
	})
	if err != nil {
		return "", err
	}
	if !response.ParseBool(m["result"]) {
		return "", nil
	}
	url, _ := m["url"].(string)
	return url, nil
}

// ValidateFriendshipOffered 向发起方归属网格核实邀约
func (g *userAgentGateway) ValidateFriendshipOffered(ctx context.Context, homeURL, fromID, toID string) (bool, error) {
	ok, _, err := g.client.CallResult(ctx, joinURL(homeURL, "useragent/validate_friendship_offered"), map[string]interface{}{
		"from_id": fromID,
		"to_id":   toID,
	})
	return ok, err
}

// StatusNotification 向对方网格推送上下线通知
func (g *userAgentGateway) StatusNotification(ctx context.Context, homeURL string, friendUUIs []string, userID string, online bool) ([]string, error) {
	m, err := g.client.Call(ctx, joinURL(homeURL, "useragent/status_notification"), map[string]interface{}{
		"friend_uuis": friendUUIs,
		"user_id":     userID,
		"online":      response.BoolString(online),
	})
	if err != nil {
		return nil, err
	}

	raw, _ := m["online_friends"].([]interface{})
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}
