package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"arbor/internal/domain"
	"arbor/internal/domain/models"
	"arbor/internal/domain/repositories"
	"arbor/internal/domain/services"
	"arbor/internal/itemtypes"
)

// In-memory fakes for the repository and gateway interfaces. They mirror
// the tenant scoping and nil-on-absence conventions of the postgres
// implementations so the services under test see the same behavior.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// --- folder repository ---

type fakeFolderRepo struct {
	mu      sync.Mutex
	folders map[string]*models.Folder
}

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{folders: make(map[string]*models.Folder)}
}

func (r *fakeFolderRepo) Create(_ context.Context, folder *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.folders {
		if existing.TenantID == folder.TenantID && existing.Name == folder.Name && sameParent(existing.ParentID, folder.ParentID) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("a folder named %q already exists in this location", folder.Name),
				ResourceType: "folder",
				ResourceID:   existing.ID,
			}
		}
	}
	if folder.ID == "" {
		folder.ID = uuid.New().String()
	}
	clone := *folder
	r.folders[folder.ID] = &clone
	return nil
}

func (r *fakeFolderRepo) GetByID(_ context.Context, id, tenantID string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	folder, ok := r.folders[id]
	if !ok || folder.TenantID != tenantID {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	clone := *folder
	return &clone, nil
}

func (r *fakeFolderRepo) Update(_ context.Context, folder *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.folders[folder.ID]
	if !ok || existing.TenantID != folder.TenantID {
		return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrNotFound)
	}
	clone := *folder
	r.folders[folder.ID] = &clone
	return nil
}

func (r *fakeFolderRepo) DeleteByIDs(_ context.Context, tenantID string, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for _, id := range ids {
		if folder, ok := r.folders[id]; ok && folder.TenantID == tenantID {
			delete(r.folders, id)
			removed++
		}
	}
	return removed, nil
}

func (r *fakeFolderRepo) ListChildren(_ context.Context, tenantID string, parentID *string) ([]models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var children []models.Folder
	for _, folder := range r.folders {
		if folder.TenantID == tenantID && sameParent(folder.ParentID, parentID) {
			children = append(children, *folder)
		}
	}
	sort.Slice(children, func(i, j int) bool {
		if children[i].OrderIndex != children[j].OrderIndex {
			return children[i].OrderIndex < children[j].OrderIndex
		}
		return children[i].Name < children[j].Name
	})
	return children, nil
}

func (r *fakeFolderRepo) GetAllByTenant(_ context.Context, tenantID string) ([]models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []models.Folder
	for _, folder := range r.folders {
		if folder.TenantID == tenantID {
			all = append(all, *folder)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return all, nil
}

func (r *fakeFolderRepo) GetByNameAndParent(_ context.Context, tenantID, name string, parentID *string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, folder := range r.folders {
		if folder.TenantID == tenantID && folder.Name == name && sameParent(folder.ParentID, parentID) {
			clone := *folder
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeFolderRepo) MaxOrderInContainer(_ context.Context, tenantID string, parentID *string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, folder := range r.folders {
		if folder.TenantID == tenantID && sameParent(folder.ParentID, parentID) && folder.OrderIndex > max {
			max = folder.OrderIndex
		}
	}
	return max, nil
}

// --- permission repository ---

type fakePermRepo struct {
	mu     sync.Mutex
	grants map[string]*models.FolderPermission // keyed by folderID + "|" + userID
}

func newFakePermRepo() *fakePermRepo {
	return &fakePermRepo{grants: make(map[string]*models.FolderPermission)}
}

func permKey(folderID, userID string) string {
	return folderID + "|" + userID
}

func (r *fakePermRepo) Create(_ context.Context, grant *models.FolderPermission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := permKey(grant.FolderID, grant.UserID)
	if _, ok := r.grants[key]; ok {
		return fmt.Errorf("grant for user %s on folder %s: %w", grant.UserID, grant.FolderID, domain.ErrConflict)
	}
	if grant.ID == "" {
		grant.ID = uuid.New().String()
	}
	clone := *grant
	r.grants[key] = &clone
	return nil
}

func (r *fakePermRepo) Update(_ context.Context, grant *models.FolderPermission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := permKey(grant.FolderID, grant.UserID)
	existing, ok := r.grants[key]
	if !ok || existing.TenantID != grant.TenantID {
		return fmt.Errorf("grant for user %s on folder %s: %w", grant.UserID, grant.FolderID, domain.ErrNotFound)
	}
	clone := *grant
	r.grants[key] = &clone
	return nil
}

func (r *fakePermRepo) GetByFolderAndUser(_ context.Context, tenantID, folderID, userID string) (*models.FolderPermission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	grant, ok := r.grants[permKey(folderID, userID)]
	if !ok || grant.TenantID != tenantID {
		return nil, nil
	}
	clone := *grant
	return &clone, nil
}

func (r *fakePermRepo) ListByUser(_ context.Context, tenantID, userID string) ([]models.FolderPermission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var grants []models.FolderPermission
	for _, grant := range r.grants {
		if grant.TenantID == tenantID && grant.UserID == userID {
			grants = append(grants, *grant)
		}
	}
	return grants, nil
}

func (r *fakePermRepo) ListByFolder(_ context.Context, tenantID, folderID string) ([]models.FolderPermission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var grants []models.FolderPermission
	for _, grant := range r.grants {
		if grant.TenantID == tenantID && grant.FolderID == folderID {
			grants = append(grants, *grant)
		}
	}
	return grants, nil
}

func (r *fakePermRepo) DeleteByFolderAndUser(_ context.Context, tenantID, folderID, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := permKey(folderID, userID)
	if grant, ok := r.grants[key]; ok && grant.TenantID == tenantID {
		delete(r.grants, key)
		return 1, nil
	}
	return 0, nil
}

func (r *fakePermRepo) DeleteByFolderIDs(_ context.Context, tenantID string, folderIDs []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make(map[string]struct{}, len(folderIDs))
	for _, id := range folderIDs {
		ids[id] = struct{}{}
	}
	var removed int64
	for key, grant := range r.grants {
		if grant.TenantID != tenantID {
			continue
		}
		if _, ok := ids[grant.FolderID]; ok {
			delete(r.grants, key)
			removed++
		}
	}
	return removed, nil
}

// --- folderable content store ---

type fakeStore struct {
	mu    sync.Mutex
	typ   models.ItemType
	items map[string]*models.ItemSummary
}

func newFakeStore(typ models.ItemType) *fakeStore {
	return &fakeStore{typ: typ, items: make(map[string]*models.ItemSummary)}
}

// addItem registers an unfiled item fixture and returns its id
func (s *fakeStore) addItem(tenantID, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New().String()
	now := time.Now()
	s.items[id] = &models.ItemSummary{
		ID:          id,
		Type:        s.typ,
		DisplayName: name,
		TenantID:    tenantID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return id
}

func (s *fakeStore) get(id string) *models.ItemSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *s.items[id]
	return &clone
}

func (s *fakeStore) ItemType() models.ItemType {
	return s.typ
}

func (s *fakeStore) ListInContainer(_ context.Context, tenantID string, folderID *string) ([]models.ItemSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []models.ItemSummary
	for _, item := range s.items {
		if item.TenantID == tenantID && sameParent(item.FolderID, folderID) {
			items = append(items, *item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].OrderIndex != items[j].OrderIndex {
			return items[i].OrderIndex < items[j].OrderIndex
		}
		return items[i].DisplayName < items[j].DisplayName
	})
	return items, nil
}

func (s *fakeStore) PlaceInContainer(_ context.Context, tenantID, itemID string, folderID *string, orderIndex int, actingUserID string) (*models.ItemSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok || item.TenantID != tenantID {
		return nil, fmt.Errorf("%s %s: %w", s.typ, itemID, domain.ErrNotFound)
	}
	now := time.Now()
	item.FolderID = folderID
	item.OrderIndex = orderIndex
	item.AddedAt = &now
	item.AddedBy = &actingUserID
	item.UpdatedAt = now
	clone := *item
	return &clone, nil
}

func (s *fakeStore) MaxOrderInContainer(_ context.Context, tenantID string, folderID *string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := 0
	for _, item := range s.items {
		if item.TenantID == tenantID && sameParent(item.FolderID, folderID) && item.OrderIndex > max {
			max = item.OrderIndex
		}
	}
	return max, nil
}

func (s *fakeStore) DetachAllInFolders(_ context.Context, tenantID string, folderIDs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[string]struct{}, len(folderIDs))
	for _, id := range folderIDs {
		ids[id] = struct{}{}
	}
	var detached int64
	for _, item := range s.items {
		if item.TenantID != tenantID || item.FolderID == nil {
			continue
		}
		if _, ok := ids[*item.FolderID]; ok {
			item.FolderID = nil
			item.AddedAt = nil
			item.AddedBy = nil
			detached++
		}
	}
	return detached, nil
}

func (s *fakeStore) SearchInScope(_ context.Context, tenantID, query string, folderID *string, limit int) ([]models.ItemSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(query)
	var items []models.ItemSummary
	for _, item := range s.items {
		if item.TenantID != tenantID {
			continue
		}
		if !strings.Contains(strings.ToLower(item.DisplayName), needle) {
			continue
		}
		if folderID != nil && !sameParent(item.FolderID, folderID) {
			continue
		}
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].OrderIndex != items[j].OrderIndex {
			return items[i].OrderIndex < items[j].OrderIndex
		}
		return items[i].DisplayName < items[j].DisplayName
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// --- transaction manager ---

// fixture wires the services over the in-memory fakes
type fixture struct {
	folderRepo *fakeFolderRepo
	permRepo   *fakePermRepo
	docs       *fakeStore
	posts      *fakeStore
	media      *fakeStore
	tree       services.TreeStore
	perms      services.PermissionService
	folders    services.FolderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	registry, err := itemtypes.NewRegistry()
	if err != nil {
		t.Fatalf("loading item type registry: %v", err)
	}
	f := &fixture{
		folderRepo: newFakeFolderRepo(),
		permRepo:   newFakePermRepo(),
		docs:       newFakeStore(models.ItemTypeDocument),
		posts:      newFakeStore(models.ItemTypePost),
		media:      newFakeStore(models.ItemTypeMedia),
	}
	logger := testLogger()
	f.tree = NewTreeStore(f.folderRepo, logger)
	f.perms = NewPermissionService(f.folderRepo, f.permRepo, f.tree, fakeTxManager{}, logger)
	f.folders = NewFolderService(
		f.folderRepo, f.permRepo, f.perms, f.tree,
		[]repositories.FolderableStore{f.docs, f.posts, f.media},
		registry, fakeTxManager{}, logger,
	)
	return f
}

// mustCreateFolder creates a folder as userID, failing the test on error
func (f *fixture) mustCreateFolder(t *testing.T, tenantID, userID, name string, parentID *string) *models.Folder {
	t.Helper()
	folder, err := f.folders.CreateFolder(context.Background(), tenantID, userID, &services.CreateFolderRequest{
		Name:     name,
		ParentID: parentID,
	})
	if err != nil {
		t.Fatalf("creating folder %q: %v", name, err)
	}
	return folder
}

// fakeTxManager runs the function directly; the fakes mutate in place so
// there is nothing to roll back
type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}
