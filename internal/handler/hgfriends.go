package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/pu-ac-cn/hypergrid-backend/internal/middleware"
	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
	"github.com/pu-ac-cn/hypergrid-backend/internal/service"
	"github.com/pu-ac-cn/hypergrid-backend/pkg/response"
)

// FriendsHandler 跨网格好友处理器
// newfriendship 对内对外共用：本格通道带服务令牌视为已鉴权，
// 外部请求必须凭密钥完成握手
type FriendsHandler struct {
	friends service.FriendService
}

// NewFriendsHandler 创建跨网格好友处理器
func NewFriendsHandler(friendSvc service.FriendService) *FriendsHandler {
	return &FriendsHandler{friends: friendSvc}
}

// FriendshipRequest 关系落库请求
type FriendshipRequest struct {
	OwnerID   string `json:"owner_id" binding:"required"`
	FriendUUI string `json:"friend_uui" binding:"required"`
}

// NewFriendship 落库一条好友关系
// POST /hgfriends/newfriendship
func (h *FriendsHandler) NewFriendship(c *gin.Context) {
	var req FriendshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	ok := h.friends.NewFriendship(c.Request.Context(), &model.FriendRelation{
		OwnerID:   req.OwnerID,
		FriendUUI: req.FriendUUI,
	}, middleware.IsVerifiedChannel(c))
	response.Result(c, ok)
}

// DeleteFriendshipRequest 关系删除请求
type DeleteFriendshipRequest struct {
	OwnerID   string `json:"owner_id" binding:"required"`
	FriendUUI string `json:"friend_uui" binding:"required"`
	Secret    string `json:"secret" binding:"required"`
}

// DeleteFriendship 凭共享密钥删除关系
// POST /hgfriends/deletefriendship
func (h *FriendsHandler) DeleteFriendship(c *gin.Context) {
	var req DeleteFriendshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	ok := h.friends.DeleteFriendship(c.Request.Context(), &model.FriendRelation{
		OwnerID:   req.OwnerID,
		FriendUUI: req.FriendUUI,
	}, req.Secret)
	response.Result(c, ok)
}

// FriendshipOffered 外格用户的邀约到达
// POST /hgfriends/friendship_offered
func (h *FriendsHandler) FriendshipOffered(c *gin.Context) {
	var offer model.FriendOffer
	if err := c.ShouldBindJSON(&offer); err != nil {
		response.Result(c, false)
		return
	}
	if offer.FromID == "" || offer.ToID == "" || offer.FromUUI == "" {
		response.Result(c, false)
		return
	}
	response.Result(c, h.friends.FriendshipOffered(c.Request.Context(), &offer))
}

// OfferFriendshipRequest 本格用户发起邀约的请求
type OfferFriendshipRequest struct {
	OwnerID   string `json:"owner_id" binding:"required"`
	FriendUUI string `json:"friend_uui" binding:"required"`
	Message   string `json:"message"`
}

// OfferFriendship 本格用户向外格用户发起邀约
// POST /hgfriends/offer
func (h *FriendsHandler) OfferFriendship(c *gin.Context) {
	var req OfferFriendshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}
	err := h.friends.OfferFriendship(c.Request.Context(), req.OwnerID, req.FriendUUI, req.Message)
	response.Result(c, err == nil)
}
