package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"arbor/internal/domain"
	"arbor/internal/domain/models"
	"arbor/internal/domain/repositories"
)

// PostgresMediaStore implements the MediaStore interface. Media assets
// carry a real file name, so display names are used as-is.
type PostgresMediaStore struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewMediaStore creates a new media store
func NewMediaStore(config *RepositoryConfig) repositories.MediaStore {
	return &PostgresMediaStore{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const mediaColumns = "id, tenant_id, file_name, mime_type, size_bytes, folder_id, order_index, added_to_folder_at, added_to_folder_by, created_by, created_at, updated_at"

func scanMedia(row interface{ Scan(dest ...any) error }, asset *models.MediaAsset) error {
	return row.Scan(
		&asset.ID,
		&asset.TenantID,
		&asset.FileName,
		&asset.MimeType,
		&asset.SizeBytes,
		&asset.FolderID,
		&asset.OrderIndex,
		&asset.AddedAt,
		&asset.AddedBy,
		&asset.CreatedBy,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	)
}

// ItemType returns the type key this store serves
func (r *PostgresMediaStore) ItemType() models.ItemType {
	return models.ItemTypeMedia
}

func summarizeMedia(asset *models.MediaAsset) models.ItemSummary {
	return models.ItemSummary{
		ID:          asset.ID,
		Type:        models.ItemTypeMedia,
		DisplayName: asset.FileName,
		FolderID:    asset.FolderID,
		OrderIndex:  asset.OrderIndex,
		AddedAt:     asset.AddedAt,
		AddedBy:     asset.AddedBy,
		TenantID:    asset.TenantID,
		CreatedAt:   asset.CreatedAt,
		UpdatedAt:   asset.UpdatedAt,
	}
}

// Create inserts a new media asset
func (r *PostgresMediaStore) Create(ctx context.Context, asset *models.MediaAsset) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (tenant_id, file_name, mime_type, size_bytes, folder_id, order_index, added_to_folder_at, added_to_folder_by, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`, r.tables.Media)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		asset.TenantID,
		asset.FileName,
		asset.MimeType,
		asset.SizeBytes,
		asset.FolderID,
		asset.OrderIndex,
		asset.AddedAt,
		asset.AddedBy,
		asset.CreatedBy,
		asset.CreatedAt,
		asset.UpdatedAt,
	).Scan(&asset.ID, &asset.CreatedAt, &asset.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create media asset: %w", err)
	}

	return nil
}

// GetByID retrieves a media asset by ID
func (r *PostgresMediaStore) GetByID(ctx context.Context, id, tenantID string) (*models.MediaAsset, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND tenant_id = $2
	`, mediaColumns, r.tables.Media)

	var asset models.MediaAsset
	err := scanMedia(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id, tenantID), &asset)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("media asset %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get media asset: %w", err)
	}

	return &asset, nil
}

// ListInContainer lists media summaries in a folder
func (r *PostgresMediaStore) ListInContainer(ctx context.Context, tenantID string, folderID *string) ([]models.ItemSummary, error) {
	var query string
	var args []interface{}

	if folderID == nil {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE tenant_id = $1 AND folder_id IS NULL
			ORDER BY order_index ASC, file_name ASC
		`, mediaColumns, r.tables.Media)
		args = append(args, tenantID)
	} else {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE tenant_id = $1 AND folder_id = $2
			ORDER BY order_index ASC, file_name ASC
		`, mediaColumns, r.tables.Media)
		args = append(args, tenantID, *folderID)
	}

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list media in container: %w", err)
	}
	defer rows.Close()

	var items []models.ItemSummary
	for rows.Next() {
		var asset models.MediaAsset
		if err := scanMedia(rows, &asset); err != nil {
			return nil, fmt.Errorf("scan media asset: %w", err)
		}
		items = append(items, summarizeMedia(&asset))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media assets: %w", err)
	}

	return items, nil
}

// PlaceInContainer moves a media asset into a folder at the given order index
func (r *PostgresMediaStore) PlaceInContainer(ctx context.Context, tenantID, itemID string, folderID *string, orderIndex int, actingUserID string) (*models.ItemSummary, error) {
	now := time.Now()
	query := fmt.Sprintf(`
		UPDATE %s
		SET folder_id = $1, order_index = $2, added_to_folder_at = $3, added_to_folder_by = $4, updated_at = $5
		WHERE id = $6 AND tenant_id = $7
		RETURNING %s
	`, r.tables.Media, mediaColumns)

	var asset models.MediaAsset
	err := scanMedia(GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		folderID, orderIndex, now, actingUserID, now, itemID, tenantID,
	), &asset)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("media asset %s: %w", itemID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("place media asset: %w", err)
	}

	summary := summarizeMedia(&asset)
	return &summary, nil
}

// MaxOrderInContainer returns the highest order index among media in a folder
func (r *PostgresMediaStore) MaxOrderInContainer(ctx context.Context, tenantID string, folderID *string) (int, error) {
	return maxOrderInContainer(ctx, GetExecutor(ctx, r.pool), r.tables.Media, tenantID, folderID)
}

// DetachAllInFolders returns media in the given folders to the unfiled state
func (r *PostgresMediaStore) DetachAllInFolders(ctx context.Context, tenantID string, folderIDs []string) (int64, error) {
	return detachAllInFolders(ctx, GetExecutor(ctx, r.pool), r.tables.Media, tenantID, folderIDs)
}

// SearchInScope lists media whose file name contains the query
func (r *PostgresMediaStore) SearchInScope(ctx context.Context, tenantID, query string, folderID *string, limit int) ([]models.ItemSummary, error) {
	sql, args := searchQuery(mediaColumns, r.tables.Media, "file_name", tenantID, query, folderID, limit)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search media: %w", err)
	}
	defer rows.Close()

	var items []models.ItemSummary
	for rows.Next() {
		var asset models.MediaAsset
		if err := scanMedia(rows, &asset); err != nil {
			return nil, fmt.Errorf("scan media asset: %w", err)
		}
		items = append(items, summarizeMedia(&asset))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media assets: %w", err)
	}

	return items, nil
}
