package services

import (
	"context"

	"arbor/internal/domain/models"
)

// TreeStore provides read-only traversal primitives over the folder forest
type TreeStore interface {
	// AncestorPath returns the ordered chain of folders from the tree
	// root down to folderID (root first, target last). Fails with
	// ErrNotFound if any link in the chain is missing or belongs to
	// a different tenant.
	AncestorPath(ctx context.Context, tenantID, folderID string) ([]models.Folder, error)

	// Descendants expands the full set of descendant folder ids of
	// folderID over a pre-fetched tenant-wide folder list. Returns an
	// empty set for a leaf. The target folder itself is not included.
	Descendants(all []models.Folder, folderID string) map[string]struct{}
}
