package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
	"github.com/pu-ac-cn/hypergrid-backend/internal/repository"
)

// 协作服务查不到记录时的错误
var errMockNotFound = errors.New("记录不存在")

// 测试用固定 ID（UUI 的 ID 段必须是合法 UUID）
const (
	testUserA = "11111111-1111-1111-1111-111111111111"
	testUserB = "22222222-2222-2222-2222-222222222222"
	testUserC = "33333333-3333-3333-3333-333333333333"
	testUserD = "44444444-4444-4444-4444-444444444444"
)

// mockFriendRepository 内存版好友关系仓库
// 与真实实现相同：按 (owner, 好友ID前缀) 覆盖写
type mockFriendRepository struct {
	mu   sync.Mutex
	rows map[string]*model.FriendRelation // key: ownerID|friendID
}

func newMockFriendRepository() *mockFriendRepository {
	return &mockFriendRepository{rows: make(map[string]*model.FriendRelation)}
}

func friendIDOf(friendUUI string) string {
	if i := strings.Index(friendUUI, ";"); i >= 0 {
		return friendUUI[:i]
	}
	return friendUUI
}

func (m *mockFriendRepository) Store(ctx context.Context, rel *model.FriendRelation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *rel
	m.rows[rel.OwnerID+"|"+friendIDOf(rel.FriendUUI)] = &clone
	return nil
}

func (m *mockFriendRepository) GetFriends(ctx context.Context, ownerID string) ([]*model.FriendRelation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.FriendRelation
	for key, rel := range m.rows {
		if strings.HasPrefix(key, ownerID+"|") {
			clone := *rel
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (m *mockFriendRepository) GetByOwnerAndFriendID(ctx context.Context, ownerID, friendID string) (*model.FriendRelation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rel, ok := m.rows[ownerID+"|"+friendID]
	if !ok {
		return nil, repository.ErrFriendNotFound
	}
	clone := *rel
	return &clone, nil
}

func (m *mockFriendRepository) Delete(ctx context.Context, ownerID, friendUUI string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ownerID + "|" + friendIDOf(friendUUI)
	rel, ok := m.rows[key]
	if !ok || rel.FriendUUI != friendUUI {
		return repository.ErrFriendNotFound
	}
	delete(m.rows, key)
	return nil
}

func (m *mockFriendRepository) DeleteByOwnerAndFriendID(ctx context.Context, ownerID, friendID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ownerID + "|" + friendID
	if _, ok := m.rows[key]; !ok {
		return repository.ErrFriendNotFound
	}
	delete(m.rows, key)
	return nil
}

// mockOfflineRepository 内存版离线消息仓库
type mockOfflineRepository struct {
	messages []*model.OfflineMessage
}

func newMockOfflineRepository() *mockOfflineRepository {
	return &mockOfflineRepository{}
}

func (m *mockOfflineRepository) Store(ctx context.Context, msg *model.OfflineMessage) error {
	clone := *msg
	m.messages = append(m.messages, &clone)
	return nil
}

func (m *mockOfflineRepository) ListByUser(ctx context.Context, userID string) ([]*model.OfflineMessage, error) {
	var result []*model.OfflineMessage
	for _, msg := range m.messages {
		if msg.ToUserID == userID {
			result = append(result, msg)
		}
	}
	return result, nil
}

func (m *mockOfflineRepository) DeleteForUser(ctx context.Context, userID string) error {
	kept := m.messages[:0]
	for _, msg := range m.messages {
		if msg.ToUserID != userID {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	return nil
}

// mockGridUserRepository 内存版网格用户仓库
type mockGridUserRepository struct {
	users     map[string]*model.GridUser
	loggedIn  []string
	loggedOut []string
}

func newMockGridUserRepository() *mockGridUserRepository {
	return &mockGridUserRepository{users: make(map[string]*model.GridUser)}
}

func (m *mockGridUserRepository) GetByUserID(ctx context.Context, userID string) (*model.GridUser, error) {
	gu, ok := m.users[userID]
	if !ok {
		return nil, repository.ErrGridUserNotFound
	}
	return gu, nil
}

func (m *mockGridUserRepository) SetHome(ctx context.Context, userID, regionID, position, lookAt string) error {
	gu, ok := m.users[userID]
	if !ok {
		gu = &model.GridUser{UserID: userID}
		m.users[userID] = gu
	}
	gu.HomeRegionID = regionID
	gu.HomePosition = position
	gu.HomeLookAt = lookAt
	return nil
}

func (m *mockGridUserRepository) LoggedIn(ctx context.Context, userID string) error {
	m.loggedIn = append(m.loggedIn, userID)
	return nil
}

func (m *mockGridUserRepository) LoggedOut(ctx context.Context, userID, regionID, position, lookAt string) error {
	m.loggedOut = append(m.loggedOut, userID)
	return nil
}

// mockInventoryRepository 内存版库存仓库
type mockInventoryRepository struct {
	folders map[string]*model.InventoryFolder
	items   map[string]*model.InventoryItem
}

func newMockInventoryRepository() *mockInventoryRepository {
	return &mockInventoryRepository{
		folders: make(map[string]*model.InventoryFolder),
		items:   make(map[string]*model.InventoryItem),
	}
}

func (m *mockInventoryRepository) GetFolder(ctx context.Context, folderID string) (*model.InventoryFolder, error) {
	f, ok := m.folders[folderID]
	if !ok {
		return nil, repository.ErrFolderNotFound
	}
	clone := *f
	return &clone, nil
}

func (m *mockInventoryRepository) GetFolderByType(ctx context.Context, ownerID string, folderType int) (*model.InventoryFolder, error) {
	for _, f := range m.folders {
		if f.OwnerID == ownerID && f.Type == folderType {
			clone := *f
			return &clone, nil
		}
	}
	return nil, repository.ErrFolderNotFound
}

func (m *mockInventoryRepository) GetFoldersByType(ctx context.Context, ownerID string, folderType int) ([]*model.InventoryFolder, error) {
	var result []*model.InventoryFolder
	for _, f := range m.folders {
		if f.OwnerID == ownerID && f.Type == folderType {
			clone := *f
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (m *mockInventoryRepository) GetChildFolders(ctx context.Context, ownerID, parentID string) ([]*model.InventoryFolder, error) {
	var result []*model.InventoryFolder
	for _, f := range m.folders {
		if f.OwnerID == ownerID && f.ParentID == parentID {
			clone := *f
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (m *mockInventoryRepository) GetFolderItems(ctx context.Context, ownerID, folderID string) ([]*model.InventoryItem, error) {
	var result []*model.InventoryItem
	for _, item := range m.items {
		if item.OwnerID == ownerID && item.FolderID == folderID {
			clone := *item
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (m *mockInventoryRepository) CreateFolder(ctx context.Context, folder *model.InventoryFolder) error {
	clone := *folder
	m.folders[folder.ID] = &clone
	return nil
}

func (m *mockInventoryRepository) UpdateFolder(ctx context.Context, folder *model.InventoryFolder) error {
	if _, ok := m.folders[folder.ID]; !ok {
		return repository.ErrFolderNotFound
	}
	clone := *folder
	clone.Version++
	m.folders[folder.ID] = &clone
	return nil
}

func (m *mockInventoryRepository) MoveFolder(ctx context.Context, folderID, newParentID string) error {
	f, ok := m.folders[folderID]
	if !ok {
		return repository.ErrFolderNotFound
	}
	f.ParentID = newParentID
	return nil
}

func (m *mockInventoryRepository) GetItem(ctx context.Context, itemID string) (*model.InventoryItem, error) {
	item, ok := m.items[itemID]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	clone := *item
	return &clone, nil
}

func (m *mockInventoryRepository) CreateItem(ctx context.Context, item *model.InventoryItem) error {
	clone := *item
	m.items[item.ID] = &clone
	return nil
}

func (m *mockInventoryRepository) UpdateItem(ctx context.Context, item *model.InventoryItem) error {
	if _, ok := m.items[item.ID]; !ok {
		return repository.ErrItemNotFound
	}
	clone := *item
	m.items[item.ID] = &clone
	return nil
}

func (m *mockInventoryRepository) MoveItem(ctx context.Context, itemID, newFolderID string) error {
	item, ok := m.items[itemID]
	if !ok {
		return repository.ErrItemNotFound
	}
	item.FolderID = newFolderID
	return nil
}

// mockAccountService 内存版账户服务
type mockAccountService struct {
	accounts map[string]*model.UserAccount
}

func newMockAccountService() *mockAccountService {
	return &mockAccountService{accounts: make(map[string]*model.UserAccount)}
}

func (m *mockAccountService) add(account *model.UserAccount) {
	m.accounts[account.ID] = account
}

func (m *mockAccountService) GetAccount(ctx context.Context, userID string) (*model.UserAccount, error) {
	account, ok := m.accounts[userID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func (m *mockAccountService) GetAccountByName(ctx context.Context, firstName, lastName string) (*model.UserAccount, error) {
	for _, account := range m.accounts {
		if account.FirstName == firstName && account.LastName == lastName {
			return account, nil
		}
	}
	return nil, ErrAccountNotFound
}

// mockPresenceService 内存版在线状态服务
type mockPresenceService struct {
	sessions map[string][]*model.PresenceInfo
}

func newMockPresenceService() *mockPresenceService {
	return &mockPresenceService{sessions: make(map[string][]*model.PresenceInfo)}
}

func (m *mockPresenceService) GetSessions(ctx context.Context, userID string) ([]*model.PresenceInfo, error) {
	return m.sessions[userID], nil
}

// mockRegionRegistry 内存版区域注册表
type mockRegionRegistry struct {
	regions       map[string]*model.GridRegion
	defaultRegion *model.GridRegion
}

func newMockRegionRegistry() *mockRegionRegistry {
	return &mockRegionRegistry{regions: make(map[string]*model.GridRegion)}
}

func (m *mockRegionRegistry) GetRegionByID(ctx context.Context, regionID string) (*model.GridRegion, error) {
	region, ok := m.regions[regionID]
	if !ok {
		return nil, errMockNotFound
	}
	return region, nil
}

func (m *mockRegionRegistry) GetDefaultRegion(ctx context.Context) (*model.GridRegion, error) {
	if m.defaultRegion == nil {
		return nil, errMockNotFound
	}
	return m.defaultRegion, nil
}

// mockAvatarService 内存版化身外观服务
type mockAvatarService struct {
	appearances map[string]*model.AvatarAppearance
}

func newMockAvatarService() *mockAvatarService {
	return &mockAvatarService{appearances: make(map[string]*model.AvatarAppearance)}
}

func (m *mockAvatarService) GetAppearance(ctx context.Context, userID string) (*model.AvatarAppearance, error) {
	appearance, ok := m.appearances[userID]
	if !ok {
		return nil, errMockNotFound
	}
	return appearance, nil
}

// mockSimulatorGateway 本格模拟器投放桩
type mockSimulatorGateway struct {
	ok        bool
	reason    string
	err       error
	calls     int
	lastToken string
	lastSess  *model.TravelSession
}

func (m *mockSimulatorGateway) LaunchAgent(ctx context.Context, region *model.GridRegion, sess *model.TravelSession, serviceToken string, fromLogin bool) (bool, string, error) {
	m.calls++
	m.lastToken = serviceToken
	clone := *sess
	m.lastSess = &clone
	return m.ok, m.reason, m.err
}

// mockGatekeeperGateway 目的网格网关桩
type mockGatekeeperGateway struct {
	gridName  string
	nameErr   error
	ok        bool
	reason    string
	err       error
	calls     int
	lastToken string
}

func (m *mockGatekeeperGateway) GridName(ctx context.Context, gatekeeperURI string) (string, error) {
	return m.gridName, m.nameErr
}

func (m *mockGatekeeperGateway) LaunchAgent(ctx context.Context, gatekeeperURI string, region *model.GridRegion, sess *model.TravelSession, serviceToken string, fromLogin bool) (bool, string, error) {
	m.calls++
	m.lastToken = serviceToken
	return m.ok, m.reason, m.err
}

// mockUserAgentGateway 归属网格通道桩
type mockUserAgentGateway struct {
	mu             sync.Mutex
	locations      map[string]string // userID -> url
	validateResult bool
	validateErr    error
	validateCalls  []string // "homeURL|fromID|toID"
	statusCalls    []statusCall
}

func newMockUserAgentGateway() *mockUserAgentGateway {
	return &mockUserAgentGateway{locations: make(map[string]string)}
}

func (m *mockUserAgentGateway) LocateUser(ctx context.Context, homeURL, userID string) (string, error) {
	return m.locations[userID], nil
}

func (m *mockUserAgentGateway) ValidateFriendshipOffered(ctx context.Context, homeURL, fromID, toID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validateCalls = append(m.validateCalls, homeURL+"|"+fromID+"|"+toID)
	return m.validateResult, m.validateErr
}

func (m *mockUserAgentGateway) StatusNotification(ctx context.Context, homeURL string, friendUUIs []string, userID string, online bool) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls = append(m.statusCalls, statusCall{
		HomeURL: homeURL, FriendUUIs: friendUUIs, UserID: userID, Online: online,
	})
	return nil, nil
}

// statusCall 状态推送调用记录
type statusCall struct {
	HomeURL    string
	FriendUUIs []string
	UserID     string
	Online     bool
}

// mockFriendsGateway 对方网格好友服务桩
type mockFriendsGateway struct {
	offered    []*model.FriendOffer
	offeredOK  bool
	offeredErr error

	newRels    []*model.FriendRelation
	newGrids   []string
	deleted    int
	deleteGrid string
	deleteRel  *model.FriendRelation
	deleteKey  string
}

func (m *mockFriendsGateway) NewFriendship(ctx context.Context, gridURL string, rel *model.FriendRelation) (bool, error) {
	clone := *rel
	m.newRels = append(m.newRels, &clone)
	m.newGrids = append(m.newGrids, gridURL)
	return true, nil
}

func (m *mockFriendsGateway) DeleteFriendship(ctx context.Context, gridURL string, rel *model.FriendRelation, secret string) (bool, error) {
	m.deleted++
	m.deleteGrid = gridURL
	clone := *rel
	m.deleteRel = &clone
	m.deleteKey = secret
	return true, nil
}

func (m *mockFriendsGateway) FriendshipOffered(ctx context.Context, gridURL string, offer *model.FriendOffer) (bool, error) {
	m.offered = append(m.offered, offer)
	return m.offeredOK, m.offeredErr
}

// sinkEvent 下发事件记录
type sinkEvent struct {
	Kind     string
	UserID   string
	FriendID string
	Online   bool
}

// mockEventSink 本格事件下发桩
type mockEventSink struct {
	mu     sync.Mutex
	events []sinkEvent
}

func (m *mockEventSink) FriendshipOffered(ctx context.Context, userID, fromID, fromName, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, sinkEvent{Kind: "offered", UserID: userID, FriendID: fromID})
	return nil
}

func (m *mockEventSink) FriendshipApproved(ctx context.Context, userID, friendUUI, friendName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, sinkEvent{Kind: "approved", UserID: userID, FriendID: friendUUI})
	return nil
}

func (m *mockEventSink) FriendshipTerminated(ctx context.Context, userID, friendID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, sinkEvent{Kind: "terminated", UserID: userID, FriendID: friendID})
	return nil
}

func (m *mockEventSink) StatusNotify(ctx context.Context, userID, friendID string, online bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, sinkEvent{Kind: "status", UserID: userID, FriendID: friendID, Online: online})
	return nil
}

func (m *mockEventSink) snapshot() []sinkEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sinkEvent(nil), m.events...)
}

// mockMessageGateway 即时消息投递桩
// failing 中的地址投递失败，sends 记录每次尝试的目标
type mockMessageGateway struct {
	failing map[string]bool
	sends   []string
}

func newMockMessageGateway() *mockMessageGateway {
	return &mockMessageGateway{failing: make(map[string]bool)}
}

func (m *mockMessageGateway) Send(ctx context.Context, regionURL string, msg *model.InstantMessage) (bool, error) {
	m.sends = append(m.sends, regionURL)
	if m.failing[regionURL] {
		return false, nil
	}
	return true, nil
}
