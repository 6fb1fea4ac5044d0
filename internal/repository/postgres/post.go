package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"arbor/internal/domain"
	"arbor/internal/domain/models"
	"arbor/internal/domain/repositories"
	"arbor/internal/itemtypes"
)

// PostgresPostStore implements the PostStore interface
type PostgresPostStore struct {
	pool      *pgxpool.Pool
	tables    *TableNames
	itemTypes *itemtypes.Registry
}

// NewPostStore creates a new post store
func NewPostStore(config *RepositoryConfig) repositories.PostStore {
	return &PostgresPostStore{
		pool:      config.Pool,
		tables:    config.Tables,
		itemTypes: config.ItemTypes,
	}
}

const postColumns = "id, tenant_id, title, body, status, folder_id, order_index, added_to_folder_at, added_to_folder_by, created_by, created_at, updated_at"

func scanPost(row interface{ Scan(dest ...any) error }, post *models.Post) error {
	return row.Scan(
		&post.ID,
		&post.TenantID,
		&post.Title,
		&post.Body,
		&post.Status,
		&post.FolderID,
		&post.OrderIndex,
		&post.AddedAt,
		&post.AddedBy,
		&post.CreatedBy,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
}

// ItemType returns the type key this store serves
func (r *PostgresPostStore) ItemType() models.ItemType {
	return models.ItemTypePost
}

func (r *PostgresPostStore) summarize(post *models.Post) models.ItemSummary {
	name := post.Title
	if suffix, ok := r.itemTypes.DisplaySuffix(models.ItemTypePost); ok && suffix != "" {
		name = post.Title + "." + suffix
	}
	return models.ItemSummary{
		ID:          post.ID,
		Type:        models.ItemTypePost,
		DisplayName: name,
		FolderID:    post.FolderID,
		OrderIndex:  post.OrderIndex,
		AddedAt:     post.AddedAt,
		AddedBy:     post.AddedBy,
		TenantID:    post.TenantID,
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
	}
}

// Create inserts a new post
func (r *PostgresPostStore) Create(ctx context.Context, post *models.Post) error {
	if post.Status == "" {
		post.Status = models.PostStatusDraft
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (tenant_id, title, body, status, folder_id, order_index, added_to_folder_at, added_to_folder_by, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`, r.tables.Posts)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		post.TenantID,
		post.Title,
		post.Body,
		post.Status,
		post.FolderID,
		post.OrderIndex,
		post.AddedAt,
		post.AddedBy,
		post.CreatedBy,
		post.CreatedAt,
		post.UpdatedAt,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	return nil
}

// GetByID retrieves a post by ID
func (r *PostgresPostStore) GetByID(ctx context.Context, id, tenantID string) (*models.Post, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND tenant_id = $2
	`, postColumns, r.tables.Posts)

	var post models.Post
	err := scanPost(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id, tenantID), &post)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("post %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get post: %w", err)
	}

	return &post, nil
}

// ListInContainer lists post summaries in a folder
func (r *PostgresPostStore) ListInContainer(ctx context.Context, tenantID string, folderID *string) ([]models.ItemSummary, error) {
	var query string
	var args []interface{}

	if folderID == nil {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE tenant_id = $1 AND folder_id IS NULL
			ORDER BY order_index ASC, title ASC
		`, postColumns, r.tables.Posts)
		args = append(args, tenantID)
	} else {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE tenant_id = $1 AND folder_id = $2
			ORDER BY order_index ASC, title ASC
		`, postColumns, r.tables.Posts)
		args = append(args, tenantID, *folderID)
	}

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts in container: %w", err)
	}
	defer rows.Close()

	var items []models.ItemSummary
	for rows.Next() {
		var post models.Post
		if err := scanPost(rows, &post); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, r.summarize(&post))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return items, nil
}

// PlaceInContainer moves a post into a folder at the given order index
func (r *PostgresPostStore) PlaceInContainer(ctx context.Context, tenantID, itemID string, folderID *string, orderIndex int, actingUserID string) (*models.ItemSummary, error) {
	now := time.Now()
	query := fmt.Sprintf(`
		UPDATE %s
		SET folder_id = $1, order_index = $2, added_to_folder_at = $3, added_to_folder_by = $4, updated_at = $5
		WHERE id = $6 AND tenant_id = $7
		RETURNING %s
	`, r.tables.Posts, postColumns)

	var post models.Post
	err := scanPost(GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		folderID, orderIndex, now, actingUserID, now, itemID, tenantID,
	), &post)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("post %s: %w", itemID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("place post: %w", err)
	}

	summary := r.summarize(&post)
	return &summary, nil
}

// MaxOrderInContainer returns the highest order index among posts in a folder
func (r *PostgresPostStore) MaxOrderInContainer(ctx context.Context, tenantID string, folderID *string) (int, error) {
	return maxOrderInContainer(ctx, GetExecutor(ctx, r.pool), r.tables.Posts, tenantID, folderID)
}

// DetachAllInFolders returns posts in the given folders to the unfiled state
func (r *PostgresPostStore) DetachAllInFolders(ctx context.Context, tenantID string, folderIDs []string) (int64, error) {
	return detachAllInFolders(ctx, GetExecutor(ctx, r.pool), r.tables.Posts, tenantID, folderIDs)
}

// SearchInScope lists posts whose title contains the query
func (r *PostgresPostStore) SearchInScope(ctx context.Context, tenantID, query string, folderID *string, limit int) ([]models.ItemSummary, error) {
	sql, args := searchQuery(postColumns, r.tables.Posts, "title", tenantID, query, folderID, limit)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	defer rows.Close()

	var items []models.ItemSummary
	for rows.Next() {
		var post models.Post
		if err := scanPost(rows, &post); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, r.summarize(&post))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return items, nil
}
