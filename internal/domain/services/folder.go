package services

import (
	"context"

	"arbor/internal/domain/models"
)

// FolderService orchestrates folder CRUD, breadcrumbs, contents listing,
// item placement and search across the folder tree, the permission
// resolver and the registered content stores
type FolderService interface {
	// CreateFolder creates a new folder; requires write permission on
	// the parent (root creation is unconditional)
	CreateFolder(ctx context.Context, tenantID, userID string, req *CreateFolderRequest) (*models.Folder, error)

	// GetFolder retrieves a folder the user can access
	GetFolder(ctx context.Context, tenantID, userID, folderID string) (*models.Folder, error)

	// UpdateFolder renames, re-describes or moves a folder; requires manage
	UpdateFolder(ctx context.Context, tenantID, userID, folderID string, req *UpdateFolderRequest) (*models.Folder, error)

	// DeleteFolder removes a folder and its whole subtree; contained
	// items of every type are detached back to the unfiled state inside
	// the same transaction. Requires manage.
	DeleteFolder(ctx context.Context, tenantID, userID, folderID string) error

	// GetFolderContents lists subfolders and items of a folder
	// (nil folder = root/unfiled), filtered to what the user can access
	GetFolderContents(ctx context.Context, tenantID, userID string, folderID *string, opts ContentOptions) (*FolderContents, error)

	// GetBreadcrumbs returns the ancestor trail for a folder, prefixed
	// with the synthetic root marker
	GetBreadcrumbs(ctx context.Context, tenantID, folderID string) ([]models.Breadcrumb, error)

	// AddItemToFolder places a content item into a folder at the end of
	// the container's cross-type order; requires write on the folder
	AddItemToFolder(ctx context.Context, tenantID, userID string, req *AddItemRequest) (*models.ItemSummary, error)

	// MoveItem relocates an item to another folder (nil = unfiled root,
	// unconditionally allowed) at the end of the destination's order
	MoveItem(ctx context.Context, tenantID, userID string, req *MoveItemRequest) (*models.ItemSummary, error)

	// ReorderItems rewrites the order of the given items inside one
	// folder to the sequence passed by the caller; requires write
	ReorderItems(ctx context.Context, tenantID, userID string, req *ReorderRequest) error

	// Search finds folders and items by name substring within the
	// user's accessible scope
	Search(ctx context.Context, tenantID, userID string, req *SearchRequest) (*SearchResults, error)
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	ParentID    *string `json:"parent_folder_id,omitempty"` // nil = create at root
}

// OptionalParent distinguishes "field absent" from "move to root (null)"
// in update requests
type OptionalParent struct {
	Present bool
	Value   *string // nil = root
}

// UpdateFolderRequest represents a folder update request; at least one
// field must be provided
type UpdateFolderRequest struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Parent      OptionalParent `json:"-"`
}

// ContentOptions controls what GetFolderContents returns
type ContentOptions struct {
	IncludeSubfolders bool
	IncludeItems      bool
}

// FolderContents aggregates one container's subfolders and items.
// Items of all types are merged and sorted by (order index, display name).
type FolderContents struct {
	Folder      *models.Folder       `json:"folder,omitempty"` // nil for root
	Breadcrumbs []models.Breadcrumb  `json:"breadcrumbs,omitempty"`
	Folders     []models.Folder      `json:"folders"`
	Items       []models.ItemSummary `json:"items"`
}

// AddItemRequest places a content item into a folder
type AddItemRequest struct {
	FolderID string          `json:"folder_id"`
	ItemID   string          `json:"item_id"`
	ItemType models.ItemType `json:"item_type"`
}

// MoveItemRequest relocates a content item (nil folder = unfiled root)
type MoveItemRequest struct {
	ItemID   string          `json:"item_id"`
	ItemType models.ItemType `json:"item_type"`
	FolderID *string         `json:"folder_id"`
}

// ReorderRequest rewrites item order inside one folder. Refs are typed so
// each item can be routed to its content store.
type ReorderRequest struct {
	FolderID string           `json:"folder_id"`
	Items    []models.ItemRef `json:"items"`
}

// SearchRequest scopes a name-substring search. Cursor is the opaque
// continuation token from a prior page's NextCursor; empty starts from
// the beginning.
type SearchRequest struct {
	Query          string           `json:"query"`
	ParentFolderID *string          `json:"parent_folder_id,omitempty"` // restrict to one container
	ItemType       *models.ItemType `json:"item_type,omitempty"`        // restrict to one type
	Limit          int              `json:"limit,omitempty"`
	Cursor         string           `json:"cursor,omitempty"`
}

// SearchResults carries one page of matching folders and items plus the
// combined page count. NextCursor is set when another page may exist;
// pass it back verbatim to continue.
type SearchResults struct {
	Folders    []models.Folder      `json:"folders"`
	Items      []models.ItemSummary `json:"items"`
	TotalCount int                  `json:"total_count"`
	NextCursor string               `json:"next_cursor,omitempty"`
}
