package handler

import (
	"context"
	"sync"

	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
	"github.com/pu-ac-cn/hypergrid-backend/internal/service"
)

// 处理器测试用的服务桩：固定返回预置字段，记录关键入参

// stubTravelService 旅行服务桩
type stubTravelService struct {
	loginOK      bool
	loginReason  string
	lastLogin    *service.LoginRequest
	verifyClient bool
	verifyAgent  bool
	comingHome   bool
	logoutErr    error
	locateURL    string
	homeRegion   *model.GridRegion
	uuid         string
	uui          string
	info         map[string]interface{}
	infoErr      error
	urls         model.ServiceURLs
}

func (s *stubTravelService) GetHomeRegion(ctx context.Context, userID string) (*model.GridRegion, string, string) {
	return s.homeRegion, "<128,128,25>", "<0,1,0>"
}

func (s *stubTravelService) LoginAgentToGrid(ctx context.Context, req *service.LoginRequest) (bool, string) {
	s.lastLogin = req
	return s.loginOK, s.loginReason
}

func (s *stubTravelService) VerifyClient(ctx context.Context, sessionID, reportedIP string) bool {
	return s.verifyClient
}

func (s *stubTravelService) VerifyAgent(ctx context.Context, sessionID, token string) bool {
	return s.verifyAgent
}

func (s *stubTravelService) IsAgentComingHome(ctx context.Context, sessionID, thisGridName string) bool {
	return s.comingHome
}

func (s *stubTravelService) LogoutAgent(ctx context.Context, userID, sessionID string) error {
	return s.logoutErr
}

func (s *stubTravelService) LocateUser(ctx context.Context, userID string) string {
	return s.locateURL
}

func (s *stubTravelService) GetUUID(ctx context.Context, firstName, lastName string) string {
	if s.uuid == "" {
		return model.ZeroID
	}
	return s.uuid
}

func (s *stubTravelService) GetUUI(ctx context.Context, userID, targetUserID string) string {
	return s.uui
}

func (s *stubTravelService) GetUserInfo(ctx context.Context, userID string) (map[string]interface{}, error) {
	return s.info, s.infoErr
}

func (s *stubTravelService) GetServerURLs(ctx context.Context, userID string) (model.ServiceURLs, error) {
	return s.urls, nil
}

// stubFriendService 好友服务桩
// 状态推送由处理器在后台下发，记录字段加锁
type stubFriendService struct {
	mu           sync.Mutex
	offerErr     error
	newOK        bool
	lastVerified bool
	deleteOK     bool
	offeredOK    bool
	lastOffer    *model.FriendOffer
	validateOK   bool
	online       []string
	notified     []string
}

func (s *stubFriendService) OfferFriendship(ctx context.Context, ownerID, friendUUI, message string) error {
	return s.offerErr
}

func (s *stubFriendService) NewFriendship(ctx context.Context, rel *model.FriendRelation, verified bool) bool {
	s.lastVerified = verified
	return s.newOK
}

func (s *stubFriendService) DeleteFriendship(ctx context.Context, rel *model.FriendRelation, secret string) bool {
	return s.deleteOK
}

func (s *stubFriendService) FriendshipOffered(ctx context.Context, offer *model.FriendOffer) bool {
	s.lastOffer = offer
	return s.offeredOK
}

func (s *stubFriendService) ValidateFriendshipOffered(ctx context.Context, fromID, toID string) bool {
	return s.validateOK
}

func (s *stubFriendService) StatusNotification(ctx context.Context, friendUUIs []string, foreignUserID string, online bool) []string {
	return s.online
}

func (s *stubFriendService) GetOnlineFriends(ctx context.Context, foreignUserID string, friendUUIs []string) []string {
	return s.online
}

func (s *stubFriendService) NotifyStatusChange(ctx context.Context, userID string, online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notified = append(s.notified, userID)
}

// stubRelayService 消息中继桩
type stubRelayService struct {
	incomingOK    bool
	outgoingOK    bool
	lastURL       string
	lastForeigner bool
	retrieved     []*model.InstantMessage
	retrieveErr   error
}

func (s *stubRelayService) IncomingInstantMessage(ctx context.Context, msg *model.InstantMessage) bool {
	return s.incomingOK
}

func (s *stubRelayService) OutgoingInstantMessage(ctx context.Context, msg *model.InstantMessage, url string, foreigner bool) bool {
	s.lastURL = url
	s.lastForeigner = foreigner
	return s.outgoingOK
}

func (s *stubRelayService) RetrieveOfflineMessages(ctx context.Context, userID string) ([]*model.InstantMessage, error) {
	return s.retrieved, s.retrieveErr
}

// stubSuitcaseService 受限库存桩
type stubSuitcaseService struct {
	root     *model.InventoryFolder
	rootErr  error
	skeleton []*model.InventoryFolder
	folder   *model.InventoryFolder
	content  *model.FolderContent
	item     *model.InventoryItem
	itemErr  error
	writeOK  bool
}

func (s *stubSuitcaseService) CreateUserInventory(ctx context.Context, userID string) bool {
	return false
}

func (s *stubSuitcaseService) GetRootFolder(ctx context.Context, userID string) (*model.InventoryFolder, error) {
	return s.root, s.rootErr
}

func (s *stubSuitcaseService) GetInventorySkeleton(ctx context.Context, userID string) ([]*model.InventoryFolder, error) {
	return s.skeleton, s.rootErr
}

func (s *stubSuitcaseService) GetFolderForType(ctx context.Context, userID string, folderType int) (*model.InventoryFolder, error) {
	return s.folder, s.rootErr
}

func (s *stubSuitcaseService) GetFolderContent(ctx context.Context, userID, folderID string) (*model.FolderContent, error) {
	return s.content, s.rootErr
}

func (s *stubSuitcaseService) GetFolder(ctx context.Context, userID, folderID string) (*model.InventoryFolder, error) {
	return s.folder, s.rootErr
}

func (s *stubSuitcaseService) GetItem(ctx context.Context, userID, itemID string) (*model.InventoryItem, error) {
	return s.item, s.itemErr
}

func (s *stubSuitcaseService) AddFolder(ctx context.Context, folder *model.InventoryFolder) bool {
	return s.writeOK
}

func (s *stubSuitcaseService) UpdateFolder(ctx context.Context, folder *model.InventoryFolder) bool {
	return s.writeOK
}

func (s *stubSuitcaseService) MoveFolder(ctx context.Context, userID, folderID, newParentID string) bool {
	return s.writeOK
}

func (s *stubSuitcaseService) DeleteFolders(ctx context.Context, userID string, folderIDs []string) bool {
	return false
}

func (s *stubSuitcaseService) PurgeFolder(ctx context.Context, userID, folderID string) bool {
	return false
}

func (s *stubSuitcaseService) AddItem(ctx context.Context, item *model.InventoryItem) bool {
	return s.writeOK
}

func (s *stubSuitcaseService) UpdateItem(ctx context.Context, item *model.InventoryItem) bool {
	return s.writeOK
}

func (s *stubSuitcaseService) MoveItems(ctx context.Context, userID string, itemIDs []string, destFolderID string) bool {
	return s.writeOK
}

func (s *stubSuitcaseService) DeleteItems(ctx context.Context, userID string, itemIDs []string) bool {
	return false
}
