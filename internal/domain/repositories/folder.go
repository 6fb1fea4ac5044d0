package repositories

import (
	"context"

	"arbor/internal/domain/models"
)

// FolderRepository defines data access operations for folders.
// Every operation is scoped by tenant id; a folder from another tenant
// behaves exactly like a missing folder.
type FolderRepository interface {
	// Create creates a new folder and fills in DB-generated fields
	Create(ctx context.Context, folder *models.Folder) error

	// GetByID retrieves a folder by ID within a tenant
	GetByID(ctx context.Context, id, tenantID string) (*models.Folder, error)

	// Update updates a folder's name, description, parent and order
	Update(ctx context.Context, folder *models.Folder) error

	// DeleteByIDs deletes the given folders and returns the number of
	// rows removed. Used by the cascading subtree delete.
	DeleteByIDs(ctx context.Context, tenantID string, ids []string) (int64, error)

	// ListChildren lists immediate child folders (nil parent = root level)
	ListChildren(ctx context.Context, tenantID string, parentID *string) ([]models.Folder, error)

	// GetAllByTenant retrieves all folders in a tenant (flat list)
	GetAllByTenant(ctx context.Context, tenantID string) ([]models.Folder, error)

	// GetByNameAndParent finds a sibling by exact name; returns nil, nil
	// when no such folder exists
	GetByNameAndParent(ctx context.Context, tenantID, name string, parentID *string) (*models.Folder, error)

	// MaxOrderInContainer returns the highest order index among folders
	// directly under parentID (0 if none). Folders share the container
	// order space with items, so this participates in cross-type max.
	MaxOrderInContainer(ctx context.Context, tenantID string, parentID *string) (int, error)
}
