// Package handler HTTP 处理器
package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
	"github.com/pu-ac-cn/hypergrid-backend/internal/service"
	"github.com/pu-ac-cn/hypergrid-backend/pkg/response"
)

// UserAgentHandler 用户归属服务处理器
// 对外承接其它网格对本格用户的查询与校验，对内承接
// 登录服务和模拟器发起的准入与登出
type UserAgentHandler struct {
	travel  service.TravelService
	friends service.FriendService
}

// NewUserAgentHandler 创建用户归属服务处理器
func NewUserAgentHandler(travelSvc service.TravelService, friendSvc service.FriendService) *UserAgentHandler {
	return &UserAgentHandler{
		travel:  travelSvc,
		friends: friendSvc,
	}
}

// LoginAgentRequest 准入请求
type LoginAgentRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	SessionID  string `json:"session_id" binding:"required"`
	Gatekeeper string `json:"gatekeeper"`
	RegionID   string `json:"region_id"`
	RegionURI  string `json:"region_uri"`
	ClientIP   string `json:"client_ip"`
	FromLogin  string `json:"from_login"`
}

// LoginAgent 把本格用户准入到目的网格
// POST /useragent/login_agent
func (h *UserAgentHandler) LoginAgent(c *gin.Context) {
	var req LoginAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	var region *model.GridRegion
	if req.RegionID != "" || req.RegionURI != "" {
		region = &model.GridRegion{RegionID: req.RegionID, ServerURI: req.RegionURI}
	}
	fromLogin := response.ParseBool(req.FromLogin)
	ok, reason := h.travel.LoginAgentToGrid(c.Request.Context(), &service.LoginRequest{
		UserID:          req.UserID,
		SessionID:       req.SessionID,
		Gatekeeper:      req.Gatekeeper,
		Region:          region,
		ClientIPAddress: req.ClientIP,
		FromLogin:       fromLogin,
	})
	if ok && fromLogin {
		// 上线推送不阻塞准入应答
		go h.friends.NotifyStatusChange(context.Background(), req.UserID, true)
	}
	response.ResultWithReason(c, ok, reason)
}

// VerifyClientRequest 客户端校验请求
type VerifyClientRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	ClientIP  string `json:"client_ip"`
}

// VerifyClient 目的网格回查客户端 IP
// POST /useragent/verify_client
func (h *UserAgentHandler) VerifyClient(c *gin.Context) {
	var req VerifyClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	response.Result(c, h.travel.VerifyClient(c.Request.Context(), req.SessionID, req.ClientIP))
}

// VerifyAgentRequest 服务令牌校验请求
type VerifyAgentRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Token     string `json:"token"`
}

// VerifyAgent 目的网格回查服务令牌
// POST /useragent/verify_agent
func (h *UserAgentHandler) VerifyAgent(c *gin.Context) {
	var req VerifyAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	response.Result(c, h.travel.VerifyAgent(c.Request.Context(), req.SessionID, req.Token))
}

// ComingHomeRequest 回格校验请求
type ComingHomeRequest struct {
	SessionID        string `json:"session_id" binding:"required"`
	GridExternalName string `json:"grid_external_name"`
}

// AgentIsComingHome 化身是否正从记录中的网格返回
// POST /useragent/agent_is_coming_home
func (h *UserAgentHandler) AgentIsComingHome(c *gin.Context) {
	var req ComingHomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	response.Result(c, h.travel.IsAgentComingHome(c.Request.Context(), req.SessionID, req.GridExternalName))
}

// LogoutAgentRequest 登出请求
type LogoutAgentRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	SessionID string `json:"session_id"`
}

// LogoutAgent 登出并清理会话
// POST /useragent/logout_agent
func (h *UserAgentHandler) LogoutAgent(c *gin.Context) {
	var req LogoutAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	err := h.travel.LogoutAgent(c.Request.Context(), req.UserID, req.SessionID)
	if err == nil {
		go h.friends.NotifyStatusChange(context.Background(), req.UserID, false)
	}
	response.Result(c, err == nil)
}

// UserIDRequest 按用户 ID 查询的通用请求
type UserIDRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// LocateUser 查询用户当前所在的外部网格
// POST /useragent/locate_user
func (h *UserAgentHandler) LocateUser(c *gin.Context) {
	var req UserIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	url := h.travel.LocateUser(c.Request.Context(), req.UserID)
	response.ResultData(c, url != "", gin.H{"url": url})
}

// GetHomeRegion 查询用户家区域
// POST /useragent/get_home_region
func (h *UserAgentHandler) GetHomeRegion(c *gin.Context) {
	var req UserIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	region, position, lookAt := h.travel.GetHomeRegion(c.Request.Context(), req.UserID)
	if region == nil {
		response.Result(c, false)
		return
	}
	response.ResultData(c, true, gin.H{
		"region":   region,
		"position": position,
		"look_at":  lookAt,
	})
}

// GetUUIDRequest 按名字查 ID 的请求
type GetUUIDRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

// GetUUID 外部网格按名字查本格用户 ID
// POST /useragent/get_uuid
func (h *UserAgentHandler) GetUUID(c *gin.Context) {
	var req GetUUIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	c.JSON(200, gin.H{"uuid": h.travel.GetUUID(c.Request.Context(), req.FirstName, req.LastName)})
}

// GetUUIRequest 查询 UUI 的请求
type GetUUIRequest struct {
	UserID       string `json:"user_id" binding:"required"`
	TargetUserID string `json:"target_user_id" binding:"required"`
}

// GetUUI 查询目标用户的 UUI
// POST /useragent/get_uui
func (h *UserAgentHandler) GetUUI(c *gin.Context) {
	var req GetUUIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	uui := h.travel.GetUUI(c.Request.Context(), req.UserID, req.TargetUserID)
	response.ResultData(c, uui != "", gin.H{"uui": uui})
}

// GetUserInfo 对外档案查询
// POST /useragent/get_user_info
func (h *UserAgentHandler) GetUserInfo(c *gin.Context) {
	var req UserIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	info, err := h.travel.GetUserInfo(c.Request.Context(), req.UserID)
	if err != nil {
		response.Result(c, false)
		return
	}
	response.ResultData(c, true, gin.H{"info": info})
}

// GetServerURLs 查询本格用户的服务地址表
// POST /useragent/get_server_urls
func (h *UserAgentHandler) GetServerURLs(c *gin.Context) {
	var req UserIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	urls, err := h.travel.GetServerURLs(c.Request.Context(), req.UserID)
	if err != nil {
		response.Result(c, false)
		return
	}
	response.ResultData(c, true, gin.H{"urls": urls})
}

// StatusNotificationRequest 好友上下线通知请求
type StatusNotificationRequest struct {
	FriendUUIs []string `json:"friend_uuis"`
	UserID     string   `json:"user_id" binding:"required"`
	Online     string   `json:"online"`
}

// StatusNotification 外格用户上下线，通知本格好友
// POST /useragent/status_notification
func (h *UserAgentHandler) StatusNotification(c *gin.Context) {
	var req StatusNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	online := h.friends.StatusNotification(c.Request.Context(), req.FriendUUIs, req.UserID, response.ParseBool(req.Online))
	response.ResultData(c, true, gin.H{"online_friends": online})
}

// GetOnlineFriendsRequest 在线好友查询请求
type GetOnlineFriendsRequest struct {
	UserID     string   `json:"user_id" binding:"required"`
	FriendUUIs []string `json:"friend_uuis"`
}

// GetOnlineFriends 查询本格在线好友
// POST /useragent/get_online_friends
func (h *UserAgentHandler) GetOnlineFriends(c *gin.Context) {
	var req GetOnlineFriendsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	online := h.friends.GetOnlineFriends(c.Request.Context(), req.UserID, req.FriendUUIs)
	response.ResultData(c, true, gin.H{"online_friends": online})
}

// ValidateOfferRequest 邀约回查请求
type ValidateOfferRequest struct {
	FromID string `json:"from_id" binding:"required"`
	ToID   string `json:"to_id" binding:"required"`
}

// ValidateFriendshipOffered 对方网格回查邀约是否由本格发出
// POST /useragent/validate_friendship_offered
func (h *UserAgentHandler) ValidateFriendshipOffered(c *gin.Context) {
	var req ValidateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	response.Result(c, h.friends.ValidateFriendshipOffered(c.Request.Context(), req.FromID, req.ToID))
}
