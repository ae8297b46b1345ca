package remote

import (
	"context"

	"github.com/pu-ac-cn/hypergrid-backend/internal/service"
	"github.com/pu-ac-cn/hypergrid-backend/pkg/response"
)

// eventSink 本格事件下发连接器，目标是承载用户会话的模拟器
type eventSink struct {
	client *Client
	simURL string
}

// NewEventSink 创建本格事件下发连接器
func NewEventSink(client *Client, simURL string) service.LocalEventSink {
	return &eventSink{client: client, simURL: simURL}
}

// FriendshipOffered 下发好友邀约提示
func (s *eventSink) FriendshipOffered(ctx context.Context, userID, fromID, fromName, message string) error {
	_, _, err := s.client.CallResult(ctx, joinURL(s.simURL, "friends/offered"), map[string]interface{}{
		"user_id":   userID,
		"from_id":   fromID,
		"from_name": fromName,
		"message":   message,
	})
	return err
}

// FriendshipApproved 下发好友确认通知
func (s *eventSink) FriendshipApproved(ctx context.Context, userID, friendUUI, friendName string) error {
	_, _, err := s.client.CallResult(ctx, joinURL(s.simURL, "friends/approved"), map[string]interface{}{
		"user_id":     userID,
		"friend_uui":  friendUUI,
		"friend_name": friendName,
	})
	return err
}

// FriendshipTerminated 下发好友解除通知
func (s *eventSink) FriendshipTerminated(ctx context.Context, userID, friendID string) error {
	_, _, err := s.client.CallResult(ctx, joinURL(s.simURL, "friends/terminated"), map[string]interface{}{
		"user_id":   userID,
		"friend_id": friendID,
	})
	return err
}

// StatusNotify 下发好友上下线通知
func (s *eventSink) StatusNotify(ctx context.Context, userID, friendID string, online bool) error {
	_, _, err := s.client.CallResult(ctx, joinURL(s.simURL, "friends/status"), map[string]interface{}{
		"user_id":   userID,
		"friend_id": friendID,
		"online":    response.BoolString(online),
	})
	return err
}
