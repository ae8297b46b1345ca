package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
	"github.com/pu-ac-cn/hypergrid-backend/internal/service"
	"github.com/pu-ac-cn/hypergrid-backend/pkg/response"
)

// MessageHandler 跨网格即时消息处理器
type MessageHandler struct {
	relay service.RelayService
}

// NewMessageHandler 创建即时消息处理器
func NewMessageHandler(relaySvc service.RelayService) *MessageHandler {
	return &MessageHandler{relay: relaySvc}
}

// InstantMessageRequest 即时消息线路格式
type InstantMessageRequest struct {
	FromAgentID   string `json:"from_agent_id" binding:"required"`
	FromAgentName string `json:"from_agent_name"`
	ToAgentID     string `json:"to_agent_id" binding:"required"`
	Dialog        int    `json:"dialog"`
	Message       string `json:"message"`
	Offline       string `json:"offline"`
	RegionID      string `json:"region_id"`
	Position      string `json:"position"`
	Timestamp     int64  `json:"timestamp"`
	URL           string `json:"url"`      // 外发时可指定目标网格
	Foreigner     string `json:"foreigner"`
}

// toModel 转为内部消息
func (r *InstantMessageRequest) toModel() *model.InstantMessage {
	return &model.InstantMessage{
		FromAgentID:   r.FromAgentID,
		FromAgentName: r.FromAgentName,
		ToAgentID:     r.ToAgentID,
		Dialog:        r.Dialog,
		Message:       r.Message,
		Offline:       response.ParseBool(r.Offline),
		RegionID:      r.RegionID,
		Position:      r.Position,
		Timestamp:     r.Timestamp,
	}
}

// Incoming 处理到达本格的消息
// POST /hgim/incoming
func (h *MessageHandler) Incoming(c *gin.Context) {
	var req InstantMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	response.Result(c, h.relay.IncomingInstantMessage(c.Request.Context(), req.toModel()))
}

// Outgoing 把本格消息送往外格
// POST /hgim/outgoing
func (h *MessageHandler) Outgoing(c *gin.Context) {
	var req InstantMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	ok := h.relay.OutgoingInstantMessage(c.Request.Context(), req.toModel(), req.URL, response.ParseBool(req.Foreigner))
	response.Result(c, ok)
}

// RetrieveOffline 取出并清空用户的离线消息
// POST /hgim/retrieve_offline
func (h *MessageHandler) RetrieveOffline(c *gin.Context) {
	var req UserIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	msgs, err := h.relay.RetrieveOfflineMessages(c.Request.Context(), req.UserID)
	if err != nil {
		response.Result(c, false)
		return
	}
	response.ResultData(c, true, gin.H{"messages": msgs})
}
