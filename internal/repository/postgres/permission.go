package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"arbor/internal/domain"
	"arbor/internal/domain/models"
	"arbor/internal/domain/repositories"
)

// PostgresPermissionRepository implements the PermissionRepository interface
type PostgresPermissionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewPermissionRepository creates a new permission repository
func NewPermissionRepository(config *RepositoryConfig) repositories.PermissionRepository {
	return &PostgresPermissionRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const permissionColumns = "id, folder_id, user_id, level, tenant_id, granted_by, created_at, updated_at"

func scanPermission(row interface{ Scan(dest ...any) error }, grant *models.FolderPermission) error {
	return row.Scan(
		&grant.ID,
		&grant.FolderID,
		&grant.UserID,
		&grant.Level,
		&grant.TenantID,
		&grant.GrantedBy,
		&grant.CreatedAt,
		&grant.UpdatedAt,
	)
}

// Create inserts a new grant
func (r *PostgresPermissionRepository) Create(ctx context.Context, grant *models.FolderPermission) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (folder_id, user_id, level, tenant_id, granted_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, r.tables.Permissions)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		grant.FolderID,
		grant.UserID,
		grant.Level,
		grant.TenantID,
		grant.GrantedBy,
		grant.CreatedAt,
		grant.UpdatedAt,
	).Scan(&grant.ID, &grant.CreatedAt, &grant.UpdatedAt)

	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("grant for user %s on folder %s: %w", grant.UserID, grant.FolderID, domain.ErrConflict)
		}
		if isPgForeignKeyError(err) {
			return fmt.Errorf("folder %s: %w", grant.FolderID, domain.ErrNotFound)
		}
		return fmt.Errorf("create permission grant: %w", err)
	}

	return nil
}

// Update changes the level of an existing grant
func (r *PostgresPermissionRepository) Update(ctx context.Context, grant *models.FolderPermission) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET level = $1, granted_by = $2, updated_at = $3
		WHERE tenant_id = $4 AND folder_id = $5 AND user_id = $6
	`, r.tables.Permissions)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		grant.Level,
		grant.GrantedBy,
		grant.UpdatedAt,
		grant.TenantID,
		grant.FolderID,
		grant.UserID,
	)
	if err != nil {
		return fmt.Errorf("update permission grant: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("grant for user %s on folder %s: %w", grant.UserID, grant.FolderID, domain.ErrNotFound)
	}

	return nil
}

// GetByFolderAndUser returns the direct grant for (folder, user), nil if absent
func (r *PostgresPermissionRepository) GetByFolderAndUser(ctx context.Context, tenantID, folderID, userID string) (*models.FolderPermission, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE tenant_id = $1 AND folder_id = $2 AND user_id = $3
	`, permissionColumns, r.tables.Permissions)

	var grant models.FolderPermission
	err := scanPermission(GetExecutor(ctx, r.pool).QueryRow(ctx, query, tenantID, folderID, userID), &grant)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, nil // No grant, not an error
		}
		return nil, fmt.Errorf("get permission grant: %w", err)
	}

	return &grant, nil
}

// ListByUser lists all direct grants a user holds in a tenant
func (r *PostgresPermissionRepository) ListByUser(ctx context.Context, tenantID, userID string) ([]models.FolderPermission, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE tenant_id = $1 AND user_id = $2
		ORDER BY created_at ASC
	`, permissionColumns, r.tables.Permissions)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("list grants by user: %w", err)
	}
	defer rows.Close()

	var grants []models.FolderPermission
	for rows.Next() {
		var grant models.FolderPermission
		if err := scanPermission(rows, &grant); err != nil {
			return nil, fmt.Errorf("scan permission grant: %w", err)
		}
		grants = append(grants, grant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permission grants: %w", err)
	}

	return grants, nil
}

// ListByFolder lists all grants on one folder
func (r *PostgresPermissionRepository) ListByFolder(ctx context.Context, tenantID, folderID string) ([]models.FolderPermission, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE tenant_id = $1 AND folder_id = $2
		ORDER BY created_at ASC
	`, permissionColumns, r.tables.Permissions)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, tenantID, folderID)
	if err != nil {
		return nil, fmt.Errorf("list grants by folder: %w", err)
	}
	defer rows.Close()

	var grants []models.FolderPermission
	for rows.Next() {
		var grant models.FolderPermission
		if err := scanPermission(rows, &grant); err != nil {
			return nil, fmt.Errorf("scan permission grant: %w", err)
		}
		grants = append(grants, grant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permission grants: %w", err)
	}

	return grants, nil
}

// DeleteByFolderAndUser removes the grant for (folder, user)
func (r *PostgresPermissionRepository) DeleteByFolderAndUser(ctx context.Context, tenantID, folderID, userID string) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE tenant_id = $1 AND folder_id = $2 AND user_id = $3
	`, r.tables.Permissions)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, tenantID, folderID, userID)
	if err != nil {
		return 0, fmt.Errorf("delete permission grant: %w", err)
	}

	return result.RowsAffected(), nil
}

// DeleteByFolderIDs removes every grant on the given folders
func (r *PostgresPermissionRepository) DeleteByFolderIDs(ctx context.Context, tenantID string, folderIDs []string) (int64, error) {
	if len(folderIDs) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE tenant_id = $1 AND folder_id = ANY($2)
	`, r.tables.Permissions)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, tenantID, folderIDs)
	if err != nil {
		return 0, fmt.Errorf("delete permission grants: %w", err)
	}

	return result.RowsAffected(), nil
}
