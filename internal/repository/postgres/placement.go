package postgres

import (
	"context"
	"fmt"

	"arbor/internal/domain/repositories"
)

// Shared placement queries for the content tables. Every content table
// carries the same four placement columns (folder_id, order_index,
// added_to_folder_at, added_to_folder_by), so the max-order, detach and
// search scaffolding is identical across stores.

func maxOrderInContainer(ctx context.Context, exec repositories.DBTX, table, tenantID string, folderID *string) (int, error) {
	var query string
	var args []interface{}

	if folderID == nil {
		query = fmt.Sprintf(`
			SELECT COALESCE(MAX(order_index), 0)
			FROM %s
			WHERE tenant_id = $1 AND folder_id IS NULL
		`, table)
		args = append(args, tenantID)
	} else {
		query = fmt.Sprintf(`
			SELECT COALESCE(MAX(order_index), 0)
			FROM %s
			WHERE tenant_id = $1 AND folder_id = $2
		`, table)
		args = append(args, tenantID, *folderID)
	}

	var max int
	if err := exec.QueryRow(ctx, query, args...).Scan(&max); err != nil {
		return 0, fmt.Errorf("max order in %s: %w", table, err)
	}

	return max, nil
}

func detachAllInFolders(ctx context.Context, exec repositories.DBTX, table, tenantID string, folderIDs []string) (int64, error) {
	if len(folderIDs) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET folder_id = NULL, added_to_folder_at = NULL, added_to_folder_by = NULL
		WHERE tenant_id = $1 AND folder_id = ANY($2)
	`, table)

	result, err := exec.Exec(ctx, query, tenantID, folderIDs)
	if err != nil {
		return 0, fmt.Errorf("detach items in %s: %w", table, err)
	}

	return result.RowsAffected(), nil
}

// searchQuery builds a case-insensitive name-substring query, optionally
// scoped to one container
func searchQuery(columns, table, nameColumn, tenantID, query string, folderID *string, limit int) (string, []interface{}) {
	pattern := "%" + query + "%"

	if folderID == nil {
		sql := fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE tenant_id = $1 AND %s ILIKE $2
			ORDER BY order_index ASC, %s ASC
			LIMIT $3
		`, columns, table, nameColumn, nameColumn)
		return sql, []interface{}{tenantID, pattern, limit}
	}

	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE tenant_id = $1 AND %s ILIKE $2 AND folder_id = $3
		ORDER BY order_index ASC, %s ASC
		LIMIT $4
	`, columns, table, nameColumn, nameColumn)
	return sql, []interface{}{tenantID, pattern, *folderID, limit}
}
