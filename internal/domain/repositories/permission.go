package repositories

import (
	"context"

	"arbor/internal/domain/models"
)

// PermissionRepository defines data access operations for folder permission
// grants. Absence of a grant is an ordinary nil result, not an error.
type PermissionRepository interface {
	// Create inserts a new grant and fills in DB-generated fields
	Create(ctx context.Context, grant *models.FolderPermission) error

	// Update changes the level of an existing grant
	Update(ctx context.Context, grant *models.FolderPermission) error

	// GetByFolderAndUser returns the direct grant for (folder, user),
	// or nil, nil when none exists
	GetByFolderAndUser(ctx context.Context, tenantID, folderID, userID string) (*models.FolderPermission, error)

	// ListByUser lists all direct grants a user holds in a tenant
	ListByUser(ctx context.Context, tenantID, userID string) ([]models.FolderPermission, error)

	// ListByFolder lists all grants on one folder
	ListByFolder(ctx context.Context, tenantID, folderID string) ([]models.FolderPermission, error)

	// DeleteByFolderAndUser removes the grant for (folder, user);
	// reports how many rows were removed (0 when no grant existed)
	DeleteByFolderAndUser(ctx context.Context, tenantID, folderID, userID string) (int64, error)

	// DeleteByFolderIDs removes every grant on the given folders.
	// Used by the cascading subtree delete.
	DeleteByFolderIDs(ctx context.Context, tenantID string, folderIDs []string) (int64, error)
}
