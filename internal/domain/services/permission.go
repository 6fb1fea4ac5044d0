package services

import (
	"context"

	"arbor/internal/domain/models"
)

// PermissionResolver authorizes actions against folders using
// nearest-ancestor-wins inheritance. A grant on a folder is visible to all
// its descendants that have no closer override; it is never visible to the
// folder's ancestors or siblings.
type PermissionResolver interface {
	// EffectivePermission walks from the target folder outward to the
	// root and returns the level of the first explicit grant found for
	// userID, or PermissionNone when no grant exists anywhere on the
	// path. Absence of a grant is not an error.
	EffectivePermission(ctx context.Context, tenantID, folderID, userID string) (models.PermissionLevel, error)

	// HasPermission reports whether the user's effective permission
	// satisfies the required level
	HasPermission(ctx context.Context, tenantID, folderID, userID string, required models.PermissionLevel) (bool, error)

	// CanManage reports whether the user may manage the folder: true for
	// the folder's creator, otherwise requires effective admin
	CanManage(ctx context.Context, tenantID, folderID, userID string) (bool, error)

	// AccessibleFolders returns every folder id the user can reach
	// through direct grants: each directly-granted folder plus all of
	// its descendants. Ancestors of a granted folder are not included.
	AccessibleFolders(ctx context.Context, tenantID, userID string) (map[string]struct{}, error)
}

// GrantRequest asks for a permission grant on a folder. Granting over an
// existing (folder, user) pair replaces the prior grant atomically.
type GrantRequest struct {
	FolderID string                 `json:"folder_id"`
	UserID   string                 `json:"user_id"`
	Level    models.PermissionLevel `json:"level"`
}

// UpdateGrantRequest changes the level of an existing grant
type UpdateGrantRequest struct {
	FolderID string                 `json:"folder_id"`
	UserID   string                 `json:"user_id"`
	Level    models.PermissionLevel `json:"level"`
}

// PermissionService combines resolution with grant lifecycle management.
// All mutations require the acting user to manage the target folder and
// run inside a single transaction.
type PermissionService interface {
	PermissionResolver

	// GrantPermission creates or replaces a grant
	GrantPermission(ctx context.Context, tenantID, actingUserID string, req *GrantRequest) (*models.FolderPermission, error)

	// UpdatePermission changes the level of an existing grant; fails
	// with ErrNotFound when no grant exists for the pair
	UpdatePermission(ctx context.Context, tenantID, actingUserID string, req *UpdateGrantRequest) (*models.FolderPermission, error)

	// RevokePermission removes a grant; fails with ErrNotFound when no
	// grant exists for the pair
	RevokePermission(ctx context.Context, tenantID, actingUserID, folderID, userID string) error

	// ListGrants lists all grants on a folder (requires manage)
	ListGrants(ctx context.Context, tenantID, actingUserID, folderID string) ([]models.FolderPermission, error)
}
