package repositories

import (
	"context"

	"arbor/internal/domain/models"
)

// FolderableStore is the capability contract every content store implements
// so the folder core can place, order, list and search its items without
// knowing the concrete entity schema. The core only ever reads and writes
// the four placement fields through this interface.
type FolderableStore interface {
	// ItemType returns the type key this store serves
	ItemType() models.ItemType

	// ListInContainer lists item summaries in a folder
	// (nil folder = unfiled root), ordered by order index
	ListInContainer(ctx context.Context, tenantID string, folderID *string) ([]models.ItemSummary, error)

	// PlaceInContainer moves one item into a folder (nil = unfiled) at the
	// given order index and records who placed it. Fails with ErrNotFound
	// if the item does not exist in the tenant.
	PlaceInContainer(ctx context.Context, tenantID, itemID string, folderID *string, orderIndex int, actingUserID string) (*models.ItemSummary, error)

	// MaxOrderInContainer returns the highest order index among this
	// store's items in a folder (0 if empty)
	MaxOrderInContainer(ctx context.Context, tenantID string, folderID *string) (int, error)

	// DetachAllInFolders sets folder id to NULL for every item contained
	// in any of the given folders, returning items to the unfiled state.
	// Used by the cascading folder delete.
	DetachAllInFolders(ctx context.Context, tenantID string, folderIDs []string) (int64, error)

	// SearchInScope lists items whose display name contains the query,
	// optionally restricted to one container
	SearchInScope(ctx context.Context, tenantID, query string, folderID *string, limit int) ([]models.ItemSummary, error)
}
