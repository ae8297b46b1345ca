package remote

import (
	"context"

	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
	"github.com/pu-ac-cn/hypergrid-backend/internal/service"
	"github.com/pu-ac-cn/hypergrid-backend/pkg/response"
	"github.com/pu-ac-cn/hypergrid-backend/pkg/uui"
)

// gatekeeperGateway 目的网格守门人连接器
type gatekeeperGateway struct {
	client *Client
}

// NewGatekeeperGateway 创建守门人连接器
func NewGatekeeperGateway(client *Client) service.GatekeeperGateway {
	return &gatekeeperGateway{client: client}
}

// GridName 查询网关对外名称
func (g *gatekeeperGateway) GridName(ctx context.Context, gatekeeperURI string) (string, error) {
	m, err := g.client.Call(ctx, joinURL(gatekeeperURI, "gatekeeper/grid_info"), map[string]interface{}{})
	if err != nil {
		return "", err
	}
	name, _ := m["external_name"].(string)
	return uui.NormalizeURL(name), nil
}

// LaunchAgent 请求目的网格接纳化身
func (g *gatekeeperGateway) LaunchAgent(ctx context.Context, gatekeeperURI string, region *model.GridRegion, sess *model.TravelSession, serviceToken string, fromLogin bool) (bool, string, error) {
	payload := map[string]interface{}{
		"user_id":       sess.UserID,
		"session_id":    sess.SessionID,
		"client_ip":     sess.ClientIPAddress,
		"service_token": serviceToken,
		"from_login":    response.BoolString(fromLogin),
	}
	if region != nil {
		payload["region_id"] = region.RegionID
		payload["region_uri"] = region.ServerURI
	}
	return g.client.CallResult(ctx, joinURL(gatekeeperURI, "gatekeeper/launch_agent"), payload)
}

// simulatorGateway 本格模拟器投放连接器
type simulatorGateway struct {
	client *Client
}

// NewSimulatorGateway 创建模拟器连接器
func NewSimulatorGateway(client *Client) service.SimulatorGateway {
	return &simulatorGateway{client: client}
}

// LaunchAgent 请求本格区域接纳化身
func (g *simulatorGateway) LaunchAgent(ctx context.Context, region *model.GridRegion, sess *model.TravelSession, serviceToken string, fromLogin bool) (bool, string, error) {
	if region == nil {
		return false, "目标区域缺失", nil
	}
	payload := map[string]interface{}{
		"user_id":       sess.UserID,
		"session_id":    sess.SessionID,
		"client_ip":     sess.ClientIPAddress,
		"service_token": serviceToken,
		"from_login":    response.BoolString(fromLogin),
		"region_id":     region.RegionID,
	}
	return g.client.CallResult(ctx, joinURL(region.ServerURI, "agent"), payload)
}
