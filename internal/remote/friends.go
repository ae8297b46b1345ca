package remote

import (
	"context"

	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
	"github.com/pu-ac-cn/hypergrid-backend/internal/service"
)

// friendsGateway 对方网格好友服务连接器
type friendsGateway struct {
	client *Client
}

// NewFriendsGateway 创建好友服务连接器
func NewFriendsGateway(client *Client) service.FriendsGateway {
	return &friendsGateway{client: client}
}

// NewFriendship 把接受结果回传给对方网格
func (g *friendsGateway) NewFriendship(ctx context.Context, gridURL string, rel *model.FriendRelation) (bool, error) {
	ok, _, err := g.client.CallResult(ctx, joinURL(gridURL, "hgfriends/newfriendship"), map[string]interface{}{
		"owner_id":   rel.OwnerID,
		"friend_uui": rel.FriendUUI,
	})
	return ok, err
}

// DeleteFriendship 通知对方网格删除对向关系行
func (g *friendsGateway) DeleteFriendship(ctx context.Context, gridURL string, rel *model.FriendRelation, secret string) (bool, error) {
	ok, _, err := g.client.CallResult(ctx, joinURL(gridURL, "hgfriends/deletefriendship"), map[string]interface{}{
		"owner_id":   rel.OwnerID,
		"friend_uui": rel.FriendUUI,
		"secret":     secret,
	})
	return ok, err
}

// FriendshipOffered 把本格用户的邀约转发到对方网格
func (g *friendsGateway) FriendshipOffered(ctx context.Context, gridURL string, offer *model.FriendOffer) (bool, error) {
	ok, _, err := g.client.CallResult(ctx, joinURL(gridURL, "hgfriends/friendship_offered"), map[string]interface{}{
		"from_id":   offer.FromID,
		"from_name": offer.FromName,
		"from_uui":  offer.FromUUI,
		"to_id":     offer.ToID,
		"message":   offer.Message,
	})
	return ok, err
}
