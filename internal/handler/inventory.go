package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
	"github.com/pu-ac-cn/hypergrid-backend/internal/service"
	"github.com/pu-ac-cn/hypergrid-backend/pkg/response"
)

// InventoryHandler 外来会话受限库存处理器
// 删除类操作照常挂路由，但一律拒绝：外格拿到的库存视图
// 只允许在手提箱子树内读写
type InventoryHandler struct {
	suitcase service.SuitcaseService
}

// NewInventoryHandler 创建受限库存处理器
func NewInventoryHandler(suitcaseSvc service.SuitcaseService) *InventoryHandler {
	return &InventoryHandler{suitcase: suitcaseSvc}
}

// CreateUserInventory 禁用
// POST /hginventory/create_user_inventory
func (h *InventoryHandler) CreateUserInventory(c *gin.Context) {
	response.Result(c, false)
}

// GetRootFolder 返回手提箱目录充当根
// POST /hginventory/get_root_folder
func (h *InventoryHandler) GetRootFolder(c *gin.Context) {
	var req UserIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	folder, err := h.suitcase.GetRootFolder(c.Request.Context(), req.UserID)
	if err != nil {
		response.Result(c, false)
		return
	}
	response.ResultData(c, true, gin.H{"folder": folder})
}

// GetInventorySkeleton 返回手提箱子树的目录骨架
// POST /hginventory/get_inventory_skeleton
func (h *InventoryHandler) GetInventorySkeleton(c *gin.Context) {
	var req UserIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	folders, err := h.suitcase.GetInventorySkeleton(c.Request.Context(), req.UserID)
	if err != nil {
		response.Result(c, false)
		return
	}
	response.ResultData(c, true, gin.H{"folders": folders})
}

// FolderForTypeRequest 按类别查目录的请求
type FolderForTypeRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Type   int    `json:"type"`
}

// GetFolderForType 在手提箱子树内按类别找目录
// POST /hginventory/get_folder_for_type
func (h *InventoryHandler) GetFolderForType(c *gin.Context) {
	var req FolderForTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	folder, err := h.suitcase.GetFolderForType(c.Request.Context(), req.UserID, req.Type)
	if err != nil {
		response.Result(c, false)
		return
	}
	response.ResultData(c, true, gin.H{"folder": folder})
}

// FolderRequest 按目录 ID 操作的请求
type FolderRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	FolderID string `json:"folder_id" binding:"required"`
}

// GetFolderContent 读目录内容
// POST /hginventory/get_folder_content
func (h *InventoryHandler) GetFolderContent(c *gin.Context) {
	var req FolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	content, err := h.suitcase.GetFolderContent(c.Request.Context(), req.UserID, req.FolderID)
	if err != nil {
		response.Result(c, false)
		return
	}
	response.ResultData(c, true, gin.H{"content": content})
}

// GetFolder 读目录
// POST /hginventory/get_folder
func (h *InventoryHandler) GetFolder(c *gin.Context) {
	var req FolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	folder, err := h.suitcase.GetFolder(c.Request.Context(), req.UserID, req.FolderID)
	if err != nil {
		response.Result(c, false)
		return
	}
	response.ResultData(c, true, gin.H{"folder": folder})
}

// ItemRequest 按物品 ID 操作的请求
type ItemRequest struct {
	UserID string `json:"user_id" binding:"required"`
	ItemID string `json:"item_id" binding:"required"`
}

// GetItem 读物品
// POST /hginventory/get_item
func (h *InventoryHandler) GetItem(c *gin.Context) {
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	item, err := h.suitcase.GetItem(c.Request.Context(), req.UserID, req.ItemID)
	if err != nil {
		response.Result(c, false)
		return
	}
	response.ResultData(c, true, gin.H{"item": item})
}

// AddFolder 建目录
// POST /hginventory/add_folder
func (h *InventoryHandler) AddFolder(c *gin.Context) {
	var folder model.InventoryFolder
	if err := c.ShouldBindJSON(&folder); err != nil {
		response.Result(c, false)
		return
	}
	response.Result(c, h.suitcase.AddFolder(c.Request.Context(), &folder))
}

// UpdateFolder 改目录
// POST /hginventory/update_folder
func (h *InventoryHandler) UpdateFolder(c *gin.Context) {
	var folder model.InventoryFolder
	if err := c.ShouldBindJSON(&folder); err != nil {
		response.Result(c, false)
		return
	}
	response.Result(c, h.suitcase.UpdateFolder(c.Request.Context(), &folder))
}

// MoveFolderRequest 挪目录请求
type MoveFolderRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	FolderID    string `json:"folder_id" binding:"required"`
	NewParentID string `json:"new_parent_id" binding:"required"`
}

// MoveFolder 挪目录
// POST /hginventory/move_folder
func (h *InventoryHandler) MoveFolder(c *gin.Context) {
	var req MoveFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	response.Result(c, h.suitcase.MoveFolder(c.Request.Context(), req.UserID, req.FolderID, req.NewParentID))
}

// DeleteFolders 禁用
// POST /hginventory/delete_folders
func (h *InventoryHandler) DeleteFolders(c *gin.Context) {
	response.Result(c, false)
}

// PurgeFolder 禁用
// POST /hginventory/purge_folder
func (h *InventoryHandler) PurgeFolder(c *gin.Context) {
	response.Result(c, false)
}

// AddItem 加物品
// POST /hginventory/add_item
func (h *InventoryHandler) AddItem(c *gin.Context) {
	var item model.InventoryItem
	if err := c.ShouldBindJSON(&item); err != nil {
		response.Result(c, false)
		return
	}
	response.Result(c, h.suitcase.AddItem(c.Request.Context(), &item))
}

// UpdateItem 改物品
// POST /hginventory/update_item
func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	var item model.InventoryItem
	if err := c.ShouldBindJSON(&item); err != nil {
		response.Result(c, false)
		return
	}
	response.Result(c, h.suitcase.UpdateItem(c.Request.Context(), &item))
}

// MoveItemsRequest 挪物品请求
type MoveItemsRequest struct {
	UserID       string   `json:"user_id" binding:"required"`
	ItemIDs      []string `json:"item_ids" binding:"required"`
	DestFolderID string   `json:"dest_folder_id" binding:"required"`
}

// MoveItems 挪物品
// POST /hginventory/move_items
func (h *InventoryHandler) MoveItems(c *gin.Context) {
	var req MoveItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Result(c, false)
		return
	}
	response.Result(c, h.suitcase.MoveItems(c.Request.Context(), req.UserID, req.ItemIDs, req.DestFolderID))
}

// DeleteItems 禁用
// POST /hginventory/delete_items
func (h *InventoryHandler) DeleteItems(c *gin.Context) {
	response.Result(c, false)
}
