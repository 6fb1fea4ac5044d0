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

// PostgresDocumentStore implements the DocumentStore interface, including
// the folderable capability the folder core consumes
type PostgresDocumentStore struct {
	pool      *pgxpool.Pool
	tables    *TableNames
	itemTypes *itemtypes.Registry
}

// NewDocumentStore creates a new document store
func NewDocumentStore(config *RepositoryConfig) repositories.DocumentStore {
	return &PostgresDocumentStore{
		pool:      config.Pool,
		tables:    config.Tables,
		itemTypes: config.ItemTypes,
	}
}

const documentColumns = "id, tenant_id, title, body, content_type, folder_id, order_index, added_to_folder_at, added_to_folder_by, created_by, created_at, updated_at"

func scanDocument(row interface{ Scan(dest ...any) error }, doc *models.Document) error {
	return row.Scan(
		&doc.ID,
		&doc.TenantID,
		&doc.Title,
		&doc.Body,
		&doc.ContentType,
		&doc.FolderID,
		&doc.OrderIndex,
		&doc.AddedAt,
		&doc.AddedBy,
		&doc.CreatedBy,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
}

// ItemType returns the type key this store serves
func (r *PostgresDocumentStore) ItemType() models.ItemType {
	return models.ItemTypeDocument
}

// displayName renders "title.suffix"; the row's own content type wins over
// the registry fallback
func (r *PostgresDocumentStore) displayName(doc *models.Document) string {
	suffix := doc.ContentType
	if suffix == "" {
		suffix, _ = r.itemTypes.DisplaySuffix(models.ItemTypeDocument)
	}
	if suffix == "" {
		return doc.Title
	}
	return doc.Title + "." + suffix
}

func (r *PostgresDocumentStore) summarize(doc *models.Document) models.ItemSummary {
	return models.ItemSummary{
		ID:          doc.ID,
		Type:        models.ItemTypeDocument,
		DisplayName: r.displayName(doc),
		FolderID:    doc.FolderID,
		OrderIndex:  doc.OrderIndex,
		AddedAt:     doc.AddedAt,
		AddedBy:     doc.AddedBy,
		TenantID:    doc.TenantID,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

// Create inserts a new document
func (r *PostgresDocumentStore) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (tenant_id, title, body, content_type, folder_id, order_index, added_to_folder_at, added_to_folder_by, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`, r.tables.Documents)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		doc.TenantID,
		doc.Title,
		doc.Body,
		doc.ContentType,
		doc.FolderID,
		doc.OrderIndex,
		doc.AddedAt,
		doc.AddedBy,
		doc.CreatedBy,
		doc.CreatedAt,
		doc.UpdatedAt,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *PostgresDocumentStore) GetByID(ctx context.Context, id, tenantID string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND tenant_id = $2
	`, documentColumns, r.tables.Documents)

	var doc models.Document
	err := scanDocument(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id, tenantID), &doc)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return &doc, nil
}

// ListInContainer lists document summaries in a folder
func (r *PostgresDocumentStore) ListInContainer(ctx context.Context, tenantID string, folderID *string) ([]models.ItemSummary, error) {
	var query string
	var args []interface{}

	if folderID == nil {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE tenant_id = $1 AND folder_id IS NULL
			ORDER BY order_index ASC, title ASC
		`, documentColumns, r.tables.Documents)
		args = append(args, tenantID)
	} else {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE tenant_id = $1 AND folder_id = $2
			ORDER BY order_index ASC, title ASC
		`, documentColumns, r.tables.Documents)
		args = append(args, tenantID, *folderID)
	}

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents in container: %w", err)
	}
	defer rows.Close()

	var items []models.ItemSummary
	for rows.Next() {
		var doc models.Document
		if err := scanDocument(rows, &doc); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		items = append(items, r.summarize(&doc))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return items, nil
}

// PlaceInContainer moves a document into a folder at the given order index
func (r *PostgresDocumentStore) PlaceInContainer(ctx context.Context, tenantID, itemID string, folderID *string, orderIndex int, actingUserID string) (*models.ItemSummary, error) {
	now := time.Now()
	query := fmt.Sprintf(`
		UPDATE %s
		SET folder_id = $1, order_index = $2, added_to_folder_at = $3, added_to_folder_by = $4, updated_at = $5
		WHERE id = $6 AND tenant_id = $7
		RETURNING %s
	`, r.tables.Documents, documentColumns)

	var doc models.Document
	err := scanDocument(GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		folderID, orderIndex, now, actingUserID, now, itemID, tenantID,
	), &doc)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", itemID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("place document: %w", err)
	}

	summary := r.summarize(&doc)
	return &summary, nil
}

// MaxOrderInContainer returns the highest order index among documents in a folder
func (r *PostgresDocumentStore) MaxOrderInContainer(ctx context.Context, tenantID string, folderID *string) (int, error) {
	return maxOrderInContainer(ctx, GetExecutor(ctx, r.pool), r.tables.Documents, tenantID, folderID)
}

// DetachAllInFolders returns documents in the given folders to the unfiled state
func (r *PostgresDocumentStore) DetachAllInFolders(ctx context.Context, tenantID string, folderIDs []string) (int64, error) {
	return detachAllInFolders(ctx, GetExecutor(ctx, r.pool), r.tables.Documents, tenantID, folderIDs)
}

// SearchInScope lists documents whose title contains the query
func (r *PostgresDocumentStore) SearchInScope(ctx context.Context, tenantID, query string, folderID *string, limit int) ([]models.ItemSummary, error) {
	sql, args := searchQuery(documentColumns, r.tables.Documents, "title", tenantID, query, folderID, limit)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	var items []models.ItemSummary
	for rows.Next() {
		var doc models.Document
		if err := scanDocument(rows, &doc); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		items = append(items, r.summarize(&doc))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return items, nil
}
