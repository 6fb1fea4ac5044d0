package repositories

import (
	"context"

	"arbor/internal/domain/models"
)

// The concrete content stores own their entity schemas; the folder core
// only depends on the embedded FolderableStore capability. The Create
// methods exist for seeding and for the enclosing application layer.

// DocumentStore persists documents and exposes their folderable capability
type DocumentStore interface {
	FolderableStore

	// Create inserts a new document and fills in DB-generated fields
	Create(ctx context.Context, doc *models.Document) error

	// GetByID retrieves a document by ID within a tenant
	GetByID(ctx context.Context, id, tenantID string) (*models.Document, error)
}

// PostStore persists posts and exposes their folderable capability
type PostStore interface {
	FolderableStore

	// Create inserts a new post and fills in DB-generated fields
	Create(ctx context.Context, post *models.Post) error

	// GetByID retrieves a post by ID within a tenant
	GetByID(ctx context.Context, id, tenantID string) (*models.Post, error)
}

// MediaStore persists media asset metadata and exposes their folderable
// capability
type MediaStore interface {
	FolderableStore

	// Create inserts a new media asset and fills in DB-generated fields
	Create(ctx context.Context, asset *models.MediaAsset) error

	// GetByID retrieves a media asset by ID within a tenant
	GetByID(ctx context.Context, id, tenantID string) (*models.MediaAsset, error)
}
