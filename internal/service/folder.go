package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"arbor/internal/config"
	"arbor/internal/domain"
	"arbor/internal/domain/models"
	"arbor/internal/domain/repositories"
	"arbor/internal/domain/services"
	"arbor/internal/itemtypes"
)

var folderNamePattern = regexp.MustCompile(`^[^/\\]+$`)

// folderService implements the FolderService interface
type folderService struct {
	folderRepo repositories.FolderRepository
	permRepo   repositories.PermissionRepository
	perms      services.PermissionService
	tree       services.TreeStore
	stores     []repositories.FolderableStore
	storesByID map[models.ItemType]repositories.FolderableStore
	itemTypes  *itemtypes.Registry
	txManager  repositories.TransactionManager
	logger     *slog.Logger
}

// NewFolderService creates a new folder service. Stores are consulted in
// the order given, which keeps aggregated listings deterministic.
func NewFolderService(
	folderRepo repositories.FolderRepository,
	permRepo repositories.PermissionRepository,
	perms services.PermissionService,
	tree services.TreeStore,
	stores []repositories.FolderableStore,
	itemTypes *itemtypes.Registry,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.FolderService {
	byType := make(map[models.ItemType]repositories.FolderableStore, len(stores))
	for _, store := range stores {
		byType[store.ItemType()] = store
	}
	return &folderService{
		folderRepo: folderRepo,
		permRepo:   permRepo,
		perms:      perms,
		tree:       tree,
		stores:     stores,
		storesByID: byType,
		itemTypes:  itemTypes,
		txManager:  txManager,
		logger:     logger,
	}
}

// CreateFolder creates a new folder
func (s *folderService) CreateFolder(ctx context.Context, tenantID, userID string, req *services.CreateFolderRequest) (*models.Folder, error) {
	// Normalize empty string to nil for root-level folders
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}

	if err := s.validateCreateRequest(req); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}
	name := strings.TrimSpace(req.Name)

	// Root creation is unconditional; below a parent the user needs write
	if req.ParentID != nil {
		parent, err := s.folderRepo.GetByID(ctx, *req.ParentID, tenantID)
		if err != nil {
			return nil, err
		}
		if err := s.requireWrite(ctx, tenantID, parent, userID); err != nil {
			return nil, err
		}
	}

	// Check for duplicate name among siblings
	sibling, err := s.folderRepo.GetByNameAndParent(ctx, tenantID, name, req.ParentID)
	if err != nil {
		return nil, err
	}
	if sibling != nil {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("a folder named %q already exists in this location", name),
			ResourceType: "folder",
			ResourceID:   sibling.ID,
		}
	}

	// Append to the sibling order. Read-then-write: two racing creates can
	// produce duplicate order values, an accepted weak-ordering trade-off.
	maxOrder, err := s.folderRepo.MaxOrderInContainer(ctx, tenantID, req.ParentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	folder := &models.Folder{
		TenantID:    tenantID,
		Name:        name,
		Description: req.Description,
		ParentID:    req.ParentID,
		OrderIndex:  maxOrder + 1,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.folderRepo.Create(txCtx, folder)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"tenant_id", tenantID,
		"parent_folder_id", folder.ParentID,
		"order_index", folder.OrderIndex,
	)

	return folder, nil
}

// GetFolder retrieves a folder the user can access
func (s *folderService) GetFolder(ctx context.Context, tenantID, userID, folderID string) (*models.Folder, error) {
	folder, err := s.folderRepo.GetByID(ctx, folderID, tenantID)
	if err != nil {
		return nil, err
	}
	if err := s.requireRead(ctx, tenantID, folder, userID); err != nil {
		return nil, err
	}
	return folder, nil
}

// UpdateFolder renames, re-describes or moves a folder
func (s *folderService) UpdateFolder(ctx context.Context, tenantID, userID, folderID string, req *services.UpdateFolderRequest) (*models.Folder, error) {
	if err := s.requireManage(ctx, tenantID, folderID, userID); err != nil {
		return nil, err
	}

	if err := s.validateUpdateRequest(req); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	folder, err := s.folderRepo.GetByID(ctx, folderID, tenantID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		folder.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		folder.Description = req.Description
	}

	// Tri-state: only move the folder if the field was present in the request
	if req.Parent.Present {
		if req.Parent.Value != nil {
			parent, err := s.folderRepo.GetByID(ctx, *req.Parent.Value, tenantID)
			if err != nil {
				return nil, fmt.Errorf("parent folder: %w", err)
			}

			// A folder cannot move under itself or one of its descendants
			if err := s.validateNoCircularReference(ctx, tenantID, folderID, parent.ID); err != nil {
				return nil, err
			}

			folder.ParentID = &parent.ID
			s.logger.Debug("moving folder to new parent",
				"folder_id", folderID,
				"new_parent_id", parent.ID,
			)
		} else {
			// null = move to root
			folder.ParentID = nil
			s.logger.Debug("moving folder to root", "folder_id", folderID)
		}

		// Append to the destination's sibling order
		maxOrder, err := s.folderRepo.MaxOrderInContainer(ctx, tenantID, folder.ParentID)
		if err != nil {
			return nil, err
		}
		folder.OrderIndex = maxOrder + 1
	}

	// Check for duplicate name in the target location
	if req.Name != nil || req.Parent.Present {
		sibling, err := s.folderRepo.GetByNameAndParent(ctx, tenantID, folder.Name, folder.ParentID)
		if err != nil {
			return nil, err
		}
		if sibling != nil && sibling.ID != folder.ID {
			return nil, &domain.ConflictError{
				Message:      fmt.Sprintf("a folder named %q already exists in this location", folder.Name),
				ResourceType: "folder",
				ResourceID:   sibling.ID,
			}
		}
	}

	folder.UpdatedAt = time.Now()

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.folderRepo.Update(txCtx, folder)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder updated",
		"id", folder.ID,
		"name", folder.Name,
		"parent_folder_id", folder.ParentID,
	)

	return folder, nil
}

// DeleteFolder removes a folder and its whole subtree. Items of every type
// contained anywhere in the subtree are detached back to the unfiled state
// inside the same transaction, so the cascade is all-or-nothing.
func (s *folderService) DeleteFolder(ctx context.Context, tenantID, userID, folderID string) error {
	if err := s.requireManage(ctx, tenantID, folderID, userID); err != nil {
		return err
	}

	all, err := s.folderRepo.GetAllByTenant(ctx, tenantID)
	if err != nil {
		return err
	}

	ids := []string{folderID}
	for id := range s.tree.Descendants(all, folderID) {
		ids = append(ids, id)
	}

	var detached int64
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		for _, store := range s.stores {
			n, err := store.DetachAllInFolders(txCtx, tenantID, ids)
			if err != nil {
				return err
			}
			detached += n
		}

		if _, err := s.permRepo.DeleteByFolderIDs(txCtx, tenantID, ids); err != nil {
			return err
		}

		removed, err := s.folderRepo.DeleteByIDs(txCtx, tenantID, ids)
		if err != nil {
			return err
		}
		if removed == 0 {
			return &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", folderID)}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("folder deleted",
		"id", folderID,
		"tenant_id", tenantID,
		"subtree_size", len(ids),
		"items_detached", detached,
	)

	return nil
}

// GetFolderContents lists subfolders and items of a container
func (s *folderService) GetFolderContents(ctx context.Context, tenantID, userID string, folderID *string, opts services.ContentOptions) (*services.FolderContents, error) {
	contents := &services.FolderContents{
		Folders: []models.Folder{},
		Items:   []models.ItemSummary{},
	}

	if folderID != nil {
		folder, err := s.folderRepo.GetByID(ctx, *folderID, tenantID)
		if err != nil {
			return nil, err
		}
		if err := s.requireRead(ctx, tenantID, folder, userID); err != nil {
			return nil, err
		}
		contents.Folder = folder

		crumbs, err := s.GetBreadcrumbs(ctx, tenantID, *folderID)
		if err != nil {
			return nil, err
		}
		contents.Breadcrumbs = crumbs
	}

	accessible, err := s.perms.AccessibleFolders(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	if opts.IncludeSubfolders {
		children, err := s.folderRepo.ListChildren(ctx, tenantID, folderID)
		if err != nil {
			return nil, err
		}

		for _, child := range children {
			if _, ok := accessible[child.ID]; ok {
				contents.Folders = append(contents.Folders, child)
				continue
			}
			// At root level the user additionally sees folders they created
			if folderID == nil && child.CreatedBy == userID {
				contents.Folders = append(contents.Folders, child)
			}
		}
	}

	if opts.IncludeItems {
		for _, store := range s.stores {
			items, err := store.ListInContainer(ctx, tenantID, folderID)
			if err != nil {
				return nil, err
			}
			contents.Items = append(contents.Items, items...)
		}
		sortItems(contents.Items)
	}

	return contents, nil
}

// GetBreadcrumbs returns the ancestor trail for a folder, root to target,
// prefixed with the synthetic root marker
func (s *folderService) GetBreadcrumbs(ctx context.Context, tenantID, folderID string) ([]models.Breadcrumb, error) {
	path, err := s.tree.AncestorPath(ctx, tenantID, folderID)
	if err != nil {
		return nil, err
	}

	crumbs := make([]models.Breadcrumb, 0, len(path)+1)
	crumbs = append(crumbs, models.Breadcrumb{ID: "", Name: "Root", IsRoot: true})
	for _, folder := range path {
		crumbs = append(crumbs, models.Breadcrumb{ID: folder.ID, Name: folder.Name})
	}

	return crumbs, nil
}

// AddItemToFolder places a content item at the end of a folder's
// cross-type order
func (s *folderService) AddItemToFolder(ctx context.Context, tenantID, userID string, req *services.AddItemRequest) (*models.ItemSummary, error) {
	if err := (validation.Errors{
		"folder_id": validation.Validate(req.FolderID, validation.Required),
		"item_id":   validation.Validate(req.ItemID, validation.Required),
	}).Filter(); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	store, err := s.storeFor(req.ItemType)
	if err != nil {
		return nil, err
	}

	folder, err := s.folderRepo.GetByID(ctx, req.FolderID, tenantID)
	if err != nil {
		return nil, err
	}
	if err := s.requireWrite(ctx, tenantID, folder, userID); err != nil {
		return nil, err
	}

	orderIndex, err := s.nextOrderIndex(ctx, tenantID, &req.FolderID)
	if err != nil {
		return nil, err
	}

	var summary *models.ItemSummary
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		summary, err = store.PlaceInContainer(txCtx, tenantID, req.ItemID, &req.FolderID, orderIndex, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("item added to folder",
		"item_id", req.ItemID,
		"item_type", req.ItemType,
		"folder_id", req.FolderID,
		"order_index", orderIndex,
	)

	return summary, nil
}

// MoveItem relocates a content item to another folder or back to the
// unfiled root
func (s *folderService) MoveItem(ctx context.Context, tenantID, userID string, req *services.MoveItemRequest) (*models.ItemSummary, error) {
	if err := validation.Validate(req.ItemID, validation.Required); err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("item_id: %v", err)}
	}

	store, err := s.storeFor(req.ItemType)
	if err != nil {
		return nil, err
	}

	// Moves to the unfiled root are unconditionally allowed; moves into a
	// folder require write on the destination
	if req.FolderID != nil {
		folder, err := s.folderRepo.GetByID(ctx, *req.FolderID, tenantID)
		if err != nil {
			return nil, err
		}
		if err := s.requireWrite(ctx, tenantID, folder, userID); err != nil {
			return nil, err
		}
	}

	orderIndex, err := s.nextOrderIndex(ctx, tenantID, req.FolderID)
	if err != nil {
		return nil, err
	}

	var summary *models.ItemSummary
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		summary, err = store.PlaceInContainer(txCtx, tenantID, req.ItemID, req.FolderID, orderIndex, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("item moved",
		"item_id", req.ItemID,
		"item_type", req.ItemType,
		"folder_id", req.FolderID,
		"order_index", orderIndex,
	)

	return summary, nil
}

// ReorderItems rewrites the order of the given items inside one folder to
// the sequence passed by the caller. Refs carry the item type, so every
// item routes to its own store; the whole rewrite is one transaction.
func (s *folderService) ReorderItems(ctx context.Context, tenantID, userID string, req *services.ReorderRequest) error {
	if err := (validation.Errors{
		"folder_id": validation.Validate(req.FolderID, validation.Required),
		"items":     validation.Validate(req.Items, validation.Required),
	}).Filter(); err != nil {
		return &domain.ValidationError{Message: err.Error()}
	}
	for _, ref := range req.Items {
		if _, err := s.storeFor(ref.Type); err != nil {
			return err
		}
		if ref.ID == "" {
			return &domain.ValidationError{Message: "item id must not be empty"}
		}
	}

	folder, err := s.folderRepo.GetByID(ctx, req.FolderID, tenantID)
	if err != nil {
		return err
	}
	if err := s.requireWrite(ctx, tenantID, folder, userID); err != nil {
		return err
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		for i, ref := range req.Items {
			store := s.storesByID[ref.Type]
			if _, err := store.PlaceInContainer(txCtx, tenantID, ref.ID, &req.FolderID, i+1, userID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("items reordered",
		"folder_id", req.FolderID,
		"count", len(req.Items),
	)

	return nil
}

// Search finds folders and items by name substring within the user's
// accessible scope. Pagination is cursor-based: the cursor encodes how many
// matches of each list were already served, and every page re-runs the
// scoped query up to the window end, so results stay consistent as long as
// the underlying order (order index, display name) is stable.
func (s *folderService) Search(ctx context.Context, tenantID, userID string, req *services.SearchRequest) (*services.SearchResults, error) {
	if err := validation.Validate(req.Query, validation.Required); err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("query: %v", err)}
	}
	limit := req.Limit
	if limit <= 0 {
		limit = config.DefaultSearchLimit
	}
	if limit > config.MaxSearchLimit {
		limit = config.MaxSearchLimit
	}
	offset, err := decodeSearchCursor(req.Cursor)
	if err != nil {
		return nil, err
	}
	window := offset + limit

	accessible, err := s.perms.AccessibleFolders(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	all, err := s.folderRepo.GetAllByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(req.Query)
	matched := []models.Folder{}
	for _, folder := range all {
		if len(matched) >= window {
			break
		}
		if !strings.Contains(strings.ToLower(folder.Name), needle) {
			continue
		}
		if req.ParentFolderID != nil {
			if folder.ParentID == nil || *folder.ParentID != *req.ParentFolderID {
				continue
			}
		}
		if _, ok := accessible[folder.ID]; !ok {
			continue
		}
		matched = append(matched, folder)
	}

	stores := s.stores
	if req.ItemType != nil {
		store, err := s.storeFor(*req.ItemType)
		if err != nil {
			return nil, err
		}
		stores = []repositories.FolderableStore{store}
	}

	found := []models.ItemSummary{}
	for _, store := range stores {
		page, err := store.SearchInScope(ctx, tenantID, req.Query, req.ParentFolderID, window)
		if err != nil {
			return nil, err
		}
		found = append(found, page...)
	}
	sortItems(found)
	if len(found) > window {
		found = found[:window]
	}

	results := &services.SearchResults{
		Folders: pageOf(matched, offset),
		Items:   pageOf(found, offset),
	}
	results.TotalCount = len(results.Folders) + len(results.Items)

	// A full window means more matches may exist beyond it. The cursor can
	// overshoot when the window ended exactly at the last match; the next
	// page then comes back empty with no cursor.
	if len(matched) >= window || len(found) >= window {
		results.NextCursor = strconv.Itoa(window)
	}

	return results, nil
}

// decodeSearchCursor parses the opaque continuation token back into the
// number of matches already served
func decodeSearchCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(cursor)
	if err != nil || n < 0 {
		return 0, &domain.ValidationError{Message: fmt.Sprintf("invalid cursor %q", cursor)}
	}
	return n, nil
}

// pageOf slices off the already-served prefix of a windowed match list
func pageOf[T any](matches []T, offset int) []T {
	if offset >= len(matches) {
		return []T{}
	}
	return matches[offset:]
}

// nextOrderIndex computes the cross-type append position for a container:
// the overall max order across every content store plus the folder tree
// itself, plus one. Read-then-write; see the weak-ordering note on create.
func (s *folderService) nextOrderIndex(ctx context.Context, tenantID string, folderID *string) (int, error) {
	max, err := s.folderRepo.MaxOrderInContainer(ctx, tenantID, folderID)
	if err != nil {
		return 0, err
	}

	for _, store := range s.stores {
		n, err := store.MaxOrderInContainer(ctx, tenantID, folderID)
		if err != nil {
			return 0, err
		}
		if n > max {
			max = n
		}
	}

	return max + 1, nil
}

// storeFor resolves an item type to its content store; unsupported or
// disabled types are validation errors
func (s *folderService) storeFor(t models.ItemType) (repositories.FolderableStore, error) {
	if !s.itemTypes.Enabled(t) {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unsupported item type %q", t)}
	}
	store, ok := s.storesByID[t]
	if !ok {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("no store registered for item type %q", t)}
	}
	return store, nil
}

// requireRead allows the folder's creator or any effective permission level
func (s *folderService) requireRead(ctx context.Context, tenantID string, folder *models.Folder, userID string) error {
	if folder.CreatedBy == userID {
		return nil
	}
	level, err := s.perms.EffectivePermission(ctx, tenantID, folder.ID, userID)
	if err != nil {
		return err
	}
	if level == models.PermissionNone {
		return &domain.ForbiddenError{Message: fmt.Sprintf("user %s cannot access folder %s", userID, folder.ID)}
	}
	return nil
}

// requireWrite allows the folder's creator or effective write and above
func (s *folderService) requireWrite(ctx context.Context, tenantID string, folder *models.Folder, userID string) error {
	if folder.CreatedBy == userID {
		return nil
	}
	ok, err := s.perms.HasPermission(ctx, tenantID, folder.ID, userID, models.PermissionWrite)
	if err != nil {
		return err
	}
	if !ok {
		return &domain.ForbiddenError{Message: fmt.Sprintf("user %s cannot write to folder %s", userID, folder.ID)}
	}
	return nil
}

// requireManage resolves CanManage into a forbidden error
func (s *folderService) requireManage(ctx context.Context, tenantID, folderID, userID string) error {
	ok, err := s.perms.CanManage(ctx, tenantID, folderID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return &domain.ForbiddenError{Message: fmt.Sprintf("user %s cannot manage folder %s", userID, folderID)}
	}
	return nil
}

// validateNoCircularReference rejects moves that would put a folder under
// itself or one of its own descendants
func (s *folderService) validateNoCircularReference(ctx context.Context, tenantID, folderID, newParentID string) error {
	if folderID == newParentID {
		return &domain.ValidationError{Message: "cannot move folder into itself"}
	}

	path, err := s.tree.AncestorPath(ctx, tenantID, newParentID)
	if err != nil {
		return err
	}
	for _, ancestor := range path {
		if ancestor.ID == folderID {
			return &domain.ValidationError{Message: "cannot move folder under its own descendant"}
		}
	}

	return nil
}

func (s *folderService) validateCreateRequest(req *services.CreateFolderRequest) error {
	return validation.Errors{
		"name": validation.Validate(req.Name,
			validation.Required,
			validation.Length(1, config.MaxFolderNameLength),
			validation.Match(folderNamePattern).Error("folder name cannot contain slashes"),
		),
		"description": validation.Validate(req.Description,
			validation.Length(0, config.MaxFolderDescriptionLength),
		),
	}.Filter()
}

func (s *folderService) validateUpdateRequest(req *services.UpdateFolderRequest) error {
	// At least one field must be provided
	if req.Name == nil && req.Description == nil && !req.Parent.Present {
		return fmt.Errorf("at least one field must be provided")
	}

	errs := validation.Errors{}
	if req.Name != nil {
		errs["name"] = validation.Validate(*req.Name,
			validation.Required,
			validation.Length(1, config.MaxFolderNameLength),
			validation.Match(folderNamePattern).Error("folder name cannot contain slashes"),
		)
	}
	if req.Description != nil {
		errs["description"] = validation.Validate(*req.Description,
			validation.Length(0, config.MaxFolderDescriptionLength),
		)
	}
	return errs.Filter()
}

// sortItems orders an aggregated item list by (order index, display name).
// The display name tie-break keeps mixed-type listings stable when racing
// writers produced duplicate order values.
func sortItems(items []models.ItemSummary) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].OrderIndex != items[j].OrderIndex {
			return items[i].OrderIndex < items[j].OrderIndex
		}
		return items[i].DisplayName < items[j].DisplayName
	})
}
