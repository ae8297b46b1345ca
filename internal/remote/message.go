package remote

import (
	"context"

	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
	"github.com/pu-ac-cn/hypergrid-backend/internal/service"
	"github.com/pu-ac-cn/hypergrid-backend/pkg/response"
)

// messageGateway 即时消息投递连接器
type messageGateway struct {
	client *Client
}

// NewMessageGateway 创建消息投递连接器
func NewMessageGateway(client *Client) service.MessageGateway {
	return &messageGateway{client: client}
}

// Send 向区域或对方网格投递消息
func (g *messageGateway) Send(ctx context.Context, regionURL string, msg *model.InstantMessage) (bool, error) {
	ok, _, err := g.client.CallResult(ctx, joinURL(regionURL, "hgim/deliver"), map[string]interface{}{
		"from_agent_id":   msg.FromAgentID,
		"from_agent_name": msg.FromAgentName,
		"to_agent_id":     msg.ToAgentID,
		"dialog":          msg.Dialog,
		"message":         msg.Message,
		"offline":         response.BoolString(msg.Offline),
		"region_id":       msg.RegionID,
		"position":        msg.Position,
		"timestamp":       msg.Timestamp,
	})
	return ok, err
}
