package service

import (
	"context"
	"fmt"
	"log/slog"

	"arbor/internal/domain/models"
	"arbor/internal/domain/repositories"
	"arbor/internal/domain/services"
)

// maxAncestorDepth bounds the upward walk. Moves reject descendants as new
// parents, so a chain this long means corrupted parent links rather than a
// legitimate tree.
const maxAncestorDepth = 128

// treeStore implements the TreeStore interface. Traversal is iterative
// lookup by folder id, bounded by maxAncestorDepth.
type treeStore struct {
	folderRepo repositories.FolderRepository
	logger     *slog.Logger
}

// NewTreeStore creates a new tree store
func NewTreeStore(folderRepo repositories.FolderRepository, logger *slog.Logger) services.TreeStore {
	return &treeStore{
		folderRepo: folderRepo,
		logger:     logger,
	}
}

// AncestorPath returns the chain of folders from the root down to folderID
func (s *treeStore) AncestorPath(ctx context.Context, tenantID, folderID string) ([]models.Folder, error) {
	// Walk upward, then reverse so the root comes first
	var reversed []models.Folder

	currentID := folderID
	for depth := 0; ; depth++ {
		if depth >= maxAncestorDepth {
			return nil, fmt.Errorf("folder %s: ancestor chain exceeds %d levels", folderID, maxAncestorDepth)
		}

		folder, err := s.folderRepo.GetByID(ctx, currentID, tenantID)
		if err != nil {
			// A missing link means the target itself is gone or the
			// chain crosses a tenant boundary; both surface as not found
			return nil, err
		}

		reversed = append(reversed, *folder)
		if folder.ParentID == nil {
			break
		}
		currentID = *folder.ParentID
	}

	path := make([]models.Folder, len(reversed))
	for i, folder := range reversed {
		path[len(reversed)-1-i] = folder
	}

	s.logger.Debug("ancestor path resolved",
		"folder_id", folderID,
		"depth", len(path),
	)

	return path, nil
}

// Descendants expands all descendant folder ids of folderID over a
// pre-fetched tenant-wide list, avoiding one query per tree level
func (s *treeStore) Descendants(all []models.Folder, folderID string) map[string]struct{} {
	// Build a children index once, then walk it with an explicit stack
	children := make(map[string][]string)
	for _, folder := range all {
		if folder.ParentID != nil {
			children[*folder.ParentID] = append(children[*folder.ParentID], folder.ID)
		}
	}

	result := make(map[string]struct{})
	stack := append([]string(nil), children[folderID]...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := result[id]; seen {
			continue
		}
		result[id] = struct{}{}
		stack = append(stack, children[id]...)
	}

	return result
}
