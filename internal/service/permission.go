package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"arbor/internal/domain"
	"arbor/internal/domain/models"
	"arbor/internal/domain/repositories"
	"arbor/internal/domain/services"
)

// permissionService implements the PermissionService interface.
// Resolution re-walks the ancestor chain on every check; nothing is cached,
// so a revoked grant takes effect on the very next call.
type permissionService struct {
	folderRepo repositories.FolderRepository
	permRepo   repositories.PermissionRepository
	tree       services.TreeStore
	txManager  repositories.TransactionManager
	logger     *slog.Logger
}

// NewPermissionService creates a new permission service
func NewPermissionService(
	folderRepo repositories.FolderRepository,
	permRepo repositories.PermissionRepository,
	tree services.TreeStore,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.PermissionService {
	return &permissionService{
		folderRepo: folderRepo,
		permRepo:   permRepo,
		tree:       tree,
		txManager:  txManager,
		logger:     logger,
	}
}

// EffectivePermission walks from the target folder outward to the root and
// returns the level of the nearest explicit grant
func (s *permissionService) EffectivePermission(ctx context.Context, tenantID, folderID, userID string) (models.PermissionLevel, error) {
	path, err := s.tree.AncestorPath(ctx, tenantID, folderID)
	if err != nil {
		return models.PermissionNone, err
	}

	// Nearest ancestor first: scan the path from the target upward
	for i := len(path) - 1; i >= 0; i-- {
		grant, err := s.permRepo.GetByFolderAndUser(ctx, tenantID, path[i].ID, userID)
		if err != nil {
			return models.PermissionNone, err
		}
		if grant != nil {
			return grant.Level, nil
		}
	}

	return models.PermissionNone, nil
}

// HasPermission reports whether the user's effective permission satisfies
// the required level
func (s *permissionService) HasPermission(ctx context.Context, tenantID, folderID, userID string, required models.PermissionLevel) (bool, error) {
	level, err := s.EffectivePermission(ctx, tenantID, folderID, userID)
	if err != nil {
		return false, err
	}
	return level.AtLeast(required), nil
}

// CanManage reports whether the user may manage a folder: the creator
// always can; everyone else needs effective admin
func (s *permissionService) CanManage(ctx context.Context, tenantID, folderID, userID string) (bool, error) {
	folder, err := s.folderRepo.GetByID(ctx, folderID, tenantID)
	if err != nil {
		return false, err
	}

	if folder.CreatedBy == userID {
		return true, nil
	}

	return s.HasPermission(ctx, tenantID, folderID, userID, models.PermissionAdmin)
}

// AccessibleFolders returns the ids of every directly-granted folder plus
// all their descendants. Grants propagate downward only: ancestors of a
// granted folder stay out unless independently granted.
func (s *permissionService) AccessibleFolders(ctx context.Context, tenantID, userID string) (map[string]struct{}, error) {
	grants, err := s.permRepo.ListByUser(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	result := make(map[string]struct{})
	if len(grants) == 0 {
		return result, nil
	}

	all, err := s.folderRepo.GetAllByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	for _, grant := range grants {
		result[grant.FolderID] = struct{}{}
		for id := range s.tree.Descendants(all, grant.FolderID) {
			result[id] = struct{}{}
		}
	}

	return result, nil
}

// GrantPermission creates or replaces a grant. The replace runs as
// delete-then-insert inside one transaction so a failure cannot leave the
// pair without any grant.
func (s *permissionService) GrantPermission(ctx context.Context, tenantID, actingUserID string, req *services.GrantRequest) (*models.FolderPermission, error) {
	if err := validateGrantFields(req.FolderID, req.UserID, req.Level); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	if err := s.requireManage(ctx, tenantID, req.FolderID, actingUserID); err != nil {
		return nil, err
	}

	now := time.Now()
	grant := &models.FolderPermission{
		FolderID:  req.FolderID,
		UserID:    req.UserID,
		Level:     req.Level,
		TenantID:  tenantID,
		GrantedBy: actingUserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if _, err := s.permRepo.DeleteByFolderAndUser(txCtx, tenantID, req.FolderID, req.UserID); err != nil {
			return err
		}
		return s.permRepo.Create(txCtx, grant)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("permission granted",
		"folder_id", req.FolderID,
		"user_id", req.UserID,
		"level", req.Level,
		"granted_by", actingUserID,
	)

	return grant, nil
}

// UpdatePermission changes the level of an existing grant
func (s *permissionService) UpdatePermission(ctx context.Context, tenantID, actingUserID string, req *services.UpdateGrantRequest) (*models.FolderPermission, error) {
	if err := validateGrantFields(req.FolderID, req.UserID, req.Level); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	if err := s.requireManage(ctx, tenantID, req.FolderID, actingUserID); err != nil {
		return nil, err
	}

	existing, err := s.permRepo.GetByFolderAndUser(ctx, tenantID, req.FolderID, req.UserID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("no grant for user %s on folder %s", req.UserID, req.FolderID)}
	}

	existing.Level = req.Level
	existing.GrantedBy = actingUserID
	existing.UpdatedAt = time.Now()

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.permRepo.Update(txCtx, existing)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("permission updated",
		"folder_id", req.FolderID,
		"user_id", req.UserID,
		"level", req.Level,
	)

	return existing, nil
}

// RevokePermission removes a grant
func (s *permissionService) RevokePermission(ctx context.Context, tenantID, actingUserID, folderID, userID string) error {
	if err := s.requireManage(ctx, tenantID, folderID, actingUserID); err != nil {
		return err
	}

	var removed int64
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		removed, err = s.permRepo.DeleteByFolderAndUser(txCtx, tenantID, folderID, userID)
		return err
	})
	if err != nil {
		return err
	}
	if removed == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("no grant for user %s on folder %s", userID, folderID)}
	}

	s.logger.Info("permission revoked",
		"folder_id", folderID,
		"user_id", userID,
		"revoked_by", actingUserID,
	)

	return nil
}

// ListGrants lists all grants on a folder
func (s *permissionService) ListGrants(ctx context.Context, tenantID, actingUserID, folderID string) ([]models.FolderPermission, error) {
	if err := s.requireManage(ctx, tenantID, folderID, actingUserID); err != nil {
		return nil, err
	}
	return s.permRepo.ListByFolder(ctx, tenantID, folderID)
}

// requireManage resolves CanManage into a forbidden error
func (s *permissionService) requireManage(ctx context.Context, tenantID, folderID, userID string) error {
	ok, err := s.CanManage(ctx, tenantID, folderID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return &domain.ForbiddenError{Message: fmt.Sprintf("user %s cannot manage folder %s", userID, folderID)}
	}
	return nil
}

func validateGrantFields(folderID, userID string, level models.PermissionLevel) error {
	return validation.Errors{
		"folder_id": validation.Validate(folderID, validation.Required),
		"user_id":   validation.Validate(userID, validation.Required),
		"level": validation.Validate(string(level), validation.Required, validation.In(
			string(models.PermissionRead),
			string(models.PermissionWrite),
			string(models.PermissionAdmin),
		)),
	}.Filter()
}
