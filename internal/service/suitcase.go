package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pu-ac-cn/hypergrid-backend/internal/model"
	"github.com/pu-ac-cn/hypergrid-backend/internal/repository"
	"github.com/pu-ac-cn/hypergrid-backend/pkg/cache"
	"github.com/pu-ac-cn/hypergrid-backend/pkg/logger"
	"go.uber.org/zap"
)

// 库存视图相关错误
var (
	ErrNoRootFolder = errors.New("用户根目录不存在")
	ErrNoSuitcase   = errors.New("手提箱目录不存在")
)

// 子树与外观缓存有效期
const suitcaseCacheTTL = 5 * time.Minute

// 手提箱内预建的标准类别目录
var suitcaseSystemFolders = []struct {
	Type int
	Name string
}{
	{model.FolderTypeTexture, "Textures"},
	{model.FolderTypeSound, "Sounds"},
	{model.FolderTypeCallingCard, "Calling Cards"},
	{model.FolderTypeLandmark, "Landmarks"},
	{model.FolderTypeClothing, "Clothing"},
	{model.FolderTypeObject, "Objects"},
	{model.FolderTypeNotecard, "Notecards"},
	{model.FolderTypeLSLText, "Scripts"},
	{model.FolderTypeBodyPart, "Body Parts"},
	{model.FolderTypeTrash, "Trash"},
	{model.FolderTypeSnapshot, "Photo Album"},
	{model.FolderTypeLostAndFound, "Lost And Found"},
	{model.FolderTypeAnimation, "Animations"},
	{model.FolderTypeGesture, "Gestures"},
	{model.FolderTypeFavorites, "Favorites"},
	{model.FolderTypeCurrentOutfit, "Current Outfit"},
	{model.FolderTypeSettings, "Settings"},
}

// SuitcaseService 外来会话的受限库存视图接口
// 外格只能看到手提箱子树：读操作越界时返回空或未找到，
// 写操作涉及的目录必须全部位于子树内，删除一律禁用。
// 唯一的例外是当前外观引用的物品，越界也允许读取，
// 否则化身在外格无法渲染
type SuitcaseService interface {
	CreateUserInventory(ctx context.Context, userID string) bool
	GetRootFolder(ctx context.Context, userID string) (*model.InventoryFolder, error)
	GetInventorySkeleton(ctx context.Context, userID string) ([]*model.InventoryFolder, error)
	GetFolderForType(ctx context.Context, userID string, folderType int) (*model.InventoryFolder, error)
	GetFolderContent(ctx context.Context, userID, folderID string) (*model.FolderContent, error)
	GetFolder(ctx context.Context, userID, folderID string) (*model.InventoryFolder, error)
	GetItem(ctx context.Context, userID, itemID string) (*model.InventoryItem, error)
	AddFolder(ctx context.Context, folder *model.InventoryFolder) bool
	UpdateFolder(ctx context.Context, folder *model.InventoryFolder) bool
	MoveFolder(ctx context.Context, userID, folderID, newParentID string) bool
	DeleteFolders(ctx context.Context, userID string, folderIDs []string) bool
	PurgeFolder(ctx context.Context, userID, folderID string) bool
	AddItem(ctx context.Context, item *model.InventoryItem) bool
	UpdateItem(ctx context.Context, item *model.InventoryItem) bool
	MoveItems(ctx context.Context, userID string, itemIDs []string, destFolderID string) bool
	DeleteItems(ctx context.Context, userID string, itemIDs []string) bool
}

// suitcaseService 受限库存视图实现
type suitcaseService struct {
	repo   repository.InventoryRepository
	avatar AvatarService

	trees       *cache.ExpiringCache[map[string]*model.InventoryFolder]
	appearances *cache.ExpiringCache[*model.AvatarAppearance]
}

// NewSuitcaseService 创建受限库存视图
func NewSuitcaseService(repo repository.InventoryRepository, avatar AvatarService) SuitcaseService {
	return &suitcaseService{
		repo:        repo,
		avatar:      avatar,
		trees:       cache.New[map[string]*model.InventoryFolder](suitcaseCacheTTL),
		appearances: cache.New[*model.AvatarAppearance](suitcaseCacheTTL),
	}
}

// CreateUserInventory 禁用：外来会话不得初始化完整库存
func (s *suitcaseService) CreateUserInventory(ctx context.Context, userID string) bool {
	return false
}

// GetRootFolder 返回手提箱目录充当根
// 手提箱不存在时现场创建并预建标准类别目录；
// 对外呈现为根类别且不挂父目录，子树之外对来访者不存在
func (s *suitcaseService) GetRootFolder(ctx context.Context, userID string) (*model.InventoryFolder, error) {
	suitcase, err := s.ensureSuitcase(ctx, userID)
	if err != nil {
		return nil, err
	}

	presented := *suitcase
	presented.Type = model.FolderTypeRoot
	presented.ParentID = ""
	return &presented, nil
}

// GetInventorySkeleton 返回手提箱子树的目录骨架
func (s *suitcaseService) GetInventorySkeleton(ctx context.Context, userID string) ([]*model.InventoryFolder, error) {
	suitcase, tree, err := s.subtree(ctx, userID)
	if err != nil {
		return nil, err
	}

	skeleton := make([]*model.InventoryFolder, 0, len(tree))
	for _, folder := range tree {
		f := *folder
		if f.ID == suitcase.ID {
			f.Type = model.FolderTypeRoot
			f.ParentID = ""
		}
		skeleton = append(skeleton, &f)
	}
	return skeleton, nil
}

// GetFolderForType 在手提箱子树内按类别找目录
func (s *suitcaseService) GetFolderForType(ctx context.Context, userID string, folderType int) (*model.InventoryFolder, error) {
	if folderType == model.FolderTypeRoot || folderType == model.FolderTypeSuitcase {
		return s.GetRootFolder(ctx, userID)
	}

	_, tree, err := s.subtree(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, folder := range tree {
		if folder.Type == folderType {
			return folder, nil
		}
	}
	return nil, repository.ErrFolderNotFound
}

// GetFolderContent 读目录内容，越界返回空内容而非报错
func (s *suitcaseService) GetFolderContent(ctx context.Context, userID, folderID string) (*model.FolderContent, error) {
	empty := &model.FolderContent{FolderID: folderID}

	_, tree, err := s.subtree(ctx, userID)
	if err != nil {
		return empty, nil
	}
	folder, ok := tree[folderID]
	if !ok {
		return empty, nil
	}

	subFolders, err := s.repo.GetChildFolders(ctx, userID, folderID)
	if err != nil {
		return empty, nil
	}
	items, err := s.repo.GetFolderItems(ctx, userID, folderID)
	if err != nil {
		return empty, nil
	}
	return &model.FolderContent{
		FolderID: folderID,
		Version:  folder.Version,
		Folders:  subFolders,
		Items:    items,
	}, nil
}

// GetFolder 读目录，越界视同不存在
func (s *suitcaseService) GetFolder(ctx context.Context, userID, folderID string) (*model.InventoryFolder, error) {
	_, tree, err := s.subtree(ctx, userID)
	if err != nil {
		return nil, err
	}
	folder, ok := tree[folderID]
	if !ok {
		return nil, repository.ErrFolderNotFound
	}
	return folder, nil
}

// GetItem 读物品
// 所在目录必须在子树内；唯一例外是当前外观引用的物品
func (s *suitcaseService) GetItem(ctx context.Context, userID, itemID string) (*model.InventoryItem, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != userID {
		return nil, repository.ErrItemNotFound
	}

	if s.inSubtree(ctx, userID, item.FolderID) {
		return item, nil
	}

	appearance, err := s.appearances.GetOrCompute(userID, func() (*model.AvatarAppearance, error) {
		return s.avatar.GetAppearance(ctx, userID)
	})
	if err == nil && appearance != nil && appearance.References(item.ID) {
		return item, nil
	}
	return nil, repository.ErrItemNotFound
}

// AddFolder 建目录，父目录必须在子树内
func (s *suitcaseService) AddFolder(ctx context.Context, folder *model.InventoryFolder) bool {
	if !s.inSubtree(ctx, folder.OwnerID, folder.ParentID) {
		return false
	}
	if folder.ID == "" {
		folder.ID = uuid.New().String()
	}
	if err := s.repo.CreateFolder(ctx, folder); err != nil {
		return false
	}
	s.trees.Delete(folder.OwnerID)
	return true
}

// UpdateFolder 改目录，目录自身与新父目录都必须在子树内
func (s *suitcaseService) UpdateFolder(ctx context.Context, folder *model.InventoryFolder) bool {
	if !s.inSubtree(ctx, folder.OwnerID, folder.ID) {
		return false
	}
	if folder.ParentID != "" && !s.inSubtree(ctx, folder.OwnerID, folder.ParentID) {
		return false
	}
	if err := s.repo.UpdateFolder(ctx, folder); err != nil {
		return false
	}
	s.trees.Delete(folder.OwnerID)
	return true
}

// MoveFolder 挪目录，源与目标都必须在子树内
func (s *suitcaseService) MoveFolder(ctx context.Context, userID, folderID, newParentID string) bool {
	if !s.inSubtree(ctx, userID, folderID) || !s.inSubtree(ctx, userID, newParentID) {
		return false
	}
	if err := s.repo.MoveFolder(ctx, folderID, newParentID); err != nil {
		return false
	}
	s.trees.Delete(userID)
	return true
}

// DeleteFolders 禁用：外来会话不得删除目录
func (s *suitcaseService) DeleteFolders(ctx context.Context, userID string, folderIDs []string) bool {
	return false
}

// PurgeFolder 禁用：外来会话不得清空目录
func (s *suitcaseService) PurgeFolder(ctx context.Context, userID, folderID string) bool {
	return false
}

// AddItem 加物品，所在目录必须在子树内
func (s *suitcaseService) AddItem(ctx context.Context, item *model.InventoryItem) bool {
	if !s.inSubtree(ctx, item.OwnerID, item.FolderID) {
		return false
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	return s.repo.CreateItem(ctx, item) == nil
}

// UpdateItem 改物品，所在目录必须在子树内
func (s *suitcaseService) UpdateItem(ctx context.Context, item *model.InventoryItem) bool {
	if !s.inSubtree(ctx, item.OwnerID, item.FolderID) {
		return false
	}
	return s.repo.UpdateItem(ctx, item) == nil
}

// MoveItems 挪物品，目标目录和每件物品的当前目录都必须在子树内，
// 任何一件越界则整批放弃
func (s *suitcaseService) MoveItems(ctx context.Context, userID string, itemIDs []string, destFolderID string) bool {
	if !s.inSubtree(ctx, userID, destFolderID) {
		return false
	}

	items := make([]*model.InventoryItem, 0, len(itemIDs))
	for _, id := range itemIDs {
		item, err := s.repo.GetItem(ctx, id)
		if err != nil || item.OwnerID != userID {
			return false
		}
		if !s.inSubtree(ctx, userID, item.FolderID) {
			return false
		}
		items = append(items, item)
	}

	for _, item := range items {
		if err := s.repo.MoveItem(ctx, item.ID, destFolderID); err != nil {
			logger.Get().Error("物品移动失败",
				zap.String("item_id", item.ID),
				zap.Error(err))
			return false
		}
	}
	return true
}

// DeleteItems 禁用：外来会话不得删除物品
func (s *suitcaseService) DeleteItems(ctx context.Context, userID string, itemIDs []string) bool {
	return false
}

// ensureSuitcase 找到或创建手提箱目录
func (s *suitcaseService) ensureSuitcase(ctx context.Context, userID string) (*model.InventoryFolder, error) {
	suitcase, err := s.repo.GetFolderByType(ctx, userID, model.FolderTypeSuitcase)
	if err == nil {
		return suitcase, nil
	}
	if !errors.Is(err, repository.ErrFolderNotFound) {
		return nil, err
	}

	root, err := s.repo.GetFolderByType(ctx, userID, model.FolderTypeRoot)
	if err != nil {
		return nil, ErrNoRootFolder
	}

	suitcase = &model.InventoryFolder{
		ID:       uuid.New().String(),
		OwnerID:  userID,
		ParentID: root.ID,
		Name:     "My Suitcase",
		Type:     model.FolderTypeSuitcase,
		Version:  1,
	}
	if err := s.repo.CreateFolder(ctx, suitcase); err != nil {
		return nil, err
	}
	for _, sys := range suitcaseSystemFolders {
		folder := &model.InventoryFolder{
			ID:       uuid.New().String(),
			OwnerID:  userID,
			ParentID: suitcase.ID,
			Name:     sys.Name,
			Type:     sys.Type,
			Version:  1,
		}
		if err := s.repo.CreateFolder(ctx, folder); err != nil {
			return nil, err
		}
	}
	s.trees.Delete(userID)
	return suitcase, nil
}

// subtree 计算外来会话可见的目录集合，按用户缓存
// 以手提箱为根迭代下探并带已访问集合，目录数据有环也不会卡死。
// 当前装束目录无论挂在哪里都并入集合：它由常规库存服务建在
// 真根之下，化身渲染离不开它
func (s *suitcaseService) subtree(ctx context.Context, userID string) (*model.InventoryFolder, map[string]*model.InventoryFolder, error) {
	suitcase, err := s.repo.GetFolderByType(ctx, userID, model.FolderTypeSuitcase)
	if err != nil {
		if errors.Is(err, repository.ErrFolderNotFound) {
			return nil, nil, ErrNoSuitcase
		}
		return nil, nil, err
	}

	tree, err := s.trees.GetOrCompute(userID, func() (map[string]*model.InventoryFolder, error) {
		visited := map[string]*model.InventoryFolder{suitcase.ID: suitcase}
		queue := []string{suitcase.ID}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]

			children, err := s.repo.GetChildFolders(ctx, userID, current)
			if err != nil {
				return nil, err
			}
			for _, child := range children {
				if _, seen := visited[child.ID]; seen {
					continue
				}
				visited[child.ID] = child
				queue = append(queue, child.ID)
			}
		}

		outfits, err := s.repo.GetFoldersByType(ctx, userID, model.FolderTypeCurrentOutfit)
		if err != nil {
			return nil, err
		}
		for _, outfit := range outfits {
			if _, seen := visited[outfit.ID]; !seen {
				visited[outfit.ID] = outfit
			}
		}
		return visited, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return suitcase, tree, nil
}

// inSubtree 目录是否在手提箱子树内
func (s *suitcaseService) inSubtree(ctx context.Context, userID, folderID string) bool {
	if folderID == "" {
		return false
	}
	_, tree, err := s.subtree(ctx, userID)
	if err != nil {
		return false
	}
	_, ok := tree[folderID]
	return ok
}
