package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"arbor/internal/domain/repositories"
	"arbor/internal/itemtypes"
)

// RepositoryConfig holds shared configuration for repository implementations
type RepositoryConfig struct {
	Pool      *pgxpool.Pool
	Tables    *TableNames
	ItemTypes *itemtypes.Registry
	Logger    *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Folders     string
	Permissions string
	Documents   string
	Posts       string
	Media       string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Folders:     fmt.Sprintf("%sfolders", prefix),
		Permissions: fmt.Sprintf("%sfolder_permissions", prefix),
		Documents:   fmt.Sprintf("%sdocuments", prefix),
		Posts:       fmt.Sprintf("%sposts", prefix),
		Media:       fmt.Sprintf("%smedia_assets", prefix),
	}
}

// CreateConnectionPool creates a new pgx connection pool.
//
// Note on dynamic table names: the fmt.Sprintf interpolation of table
// prefixes (dev_, test_, prod_) happens before SQL reaches the database,
// so each environment gets its own prepared statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	// Configure pool size
	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the appropriate query executor for the context.
// If a transaction is present in the context, it returns the transaction.
// Otherwise, it returns the provided pool.
// This enables repositories to automatically participate in transactions when they exist.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
