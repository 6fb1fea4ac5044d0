package main

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"arbor/internal/config"
	"arbor/internal/domain/models"
	"arbor/internal/domain/repositories"
	"arbor/internal/domain/services"
	"arbor/internal/itemtypes"
	"arbor/internal/repository/postgres"
	"arbor/internal/service"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed demo data")
	clearData := flag.Bool("clear-data", false, "Clear all folders, grants and content (keep schema)")
	tenantID := flag.String("tenant", "demo", "Tenant id to seed")
	flag.Parse()

	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	logger := setupLogger(cfg)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Printf("Dropping all tables (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	log.Printf("Setting up schema (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to set up schema: %v", err)
	}

	if *clearData {
		log.Printf("Clearing tenant data (tenant: %s)", *tenantID)
		if err := clearTenantData(ctx, pool, tables, *tenantID); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
	}

	if *schemaOnly {
		log.Println("Schema ready, skipping seed (--schema-only)")
		return
	}

	if err := seedDemoTenant(ctx, pool, tables, *tenantID, logger); err != nil {
		log.Fatalf("Failed to seed demo tenant: %v", err)
	}

	log.Println("Seeding complete")
}

// setupLogger writes JSON logs to stdout, and additionally to a rotating
// file under LOG_DIR when configured
func setupLogger(cfg *config.Config) *slog.Logger {
	var w io.Writer = os.Stdout
	if cfg.LogDir != "" {
		if f, err := config.SetupLogFile(cfg.LogDir, 10); err == nil {
			w = io.MultiWriter(os.Stdout, f)
		} else {
			log.Printf("Warning: could not set up log file: %v", err)
		}
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	// Enable UUID extension
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`); err != nil {
		return err
	}

	createFolders := `
		CREATE TABLE IF NOT EXISTS ` + tables.Folders + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			parent_id UUID REFERENCES ` + tables.Folders + `(id) ON DELETE CASCADE,
			order_index INTEGER NOT NULL DEFAULT 0,
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(tenant_id, parent_id, name)
		)
	`
	if _, err := pool.Exec(ctx, createFolders); err != nil {
		return err
	}

	createPermissions := `
		CREATE TABLE IF NOT EXISTS ` + tables.Permissions + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			folder_id UUID NOT NULL REFERENCES ` + tables.Folders + `(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			level TEXT NOT NULL,
			tenant_id TEXT NOT NULL,
			granted_by TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(folder_id, user_id)
		)
	`
	if _, err := pool.Exec(ctx, createPermissions); err != nil {
		return err
	}

	placementColumns := `
			folder_id UUID REFERENCES ` + tables.Folders + `(id) ON DELETE SET NULL,
			order_index INTEGER NOT NULL DEFAULT 0,
			added_to_folder_at TIMESTAMPTZ,
			added_to_folder_by TEXT,
	`

	createDocuments := `
		CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			tenant_id TEXT NOT NULL,
			title TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			content_type TEXT NOT NULL DEFAULT '',
` + placementColumns + `
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createDocuments); err != nil {
		return err
	}

	createPosts := `
		CREATE TABLE IF NOT EXISTS ` + tables.Posts + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			tenant_id TEXT NOT NULL,
			title TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'draft',
` + placementColumns + `
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createPosts); err != nil {
		return err
	}

	createMedia := `
		CREATE TABLE IF NOT EXISTS ` + tables.Media + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			tenant_id TEXT NOT NULL,
			file_name TEXT NOT NULL,
			mime_type TEXT NOT NULL DEFAULT '',
			size_bytes BIGINT NOT NULL DEFAULT 0,
` + placementColumns + `
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createMedia); err != nil {
		return err
	}

	// Create indexes
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `folders_tenant_parent ON ` + tables.Folders + `(tenant_id, parent_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `folders_root_unique ON ` + tables.Folders + `(tenant_id, name) WHERE parent_id IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `permissions_tenant_user ON ` + tables.Permissions + `(tenant_id, user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `documents_tenant_folder ON ` + tables.Documents + `(tenant_id, folder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `posts_tenant_folder ON ` + tables.Posts + `(tenant_id, folder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `media_tenant_folder ON ` + tables.Media + `(tenant_id, folder_id)`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables in reverse order (to respect foreign keys)
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.Media,
		tables.Posts,
		tables.Documents,
		tables.Permissions,
		tables.Folders,
	}

	for _, table := range tableNames {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return err
		}
		log.Printf("  dropped %s", table)
	}

	return nil
}

// clearTenantData clears all rows belonging to one tenant
func clearTenantData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tenantID string) error {
	tableNames := []string{
		tables.Media,
		tables.Posts,
		tables.Documents,
		tables.Permissions,
		tables.Folders,
	}

	for _, table := range tableNames {
		if _, err := pool.Exec(ctx, "DELETE FROM "+table+" WHERE tenant_id = $1", tenantID); err != nil {
			return err
		}
	}

	return nil
}

// seedDemoTenant builds a small folder tree with grants and mixed content
// through the service layer, exercising the same code paths the enclosing
// application uses
func seedDemoTenant(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tenantID string, logger *slog.Logger) error {
	registry, err := itemtypes.NewRegistry()
	if err != nil {
		return err
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:      pool,
		Tables:    tables,
		ItemTypes: registry,
		Logger:    logger,
	}
	folderRepo := postgres.NewFolderRepository(repoConfig)
	permRepo := postgres.NewPermissionRepository(repoConfig)
	docStore := postgres.NewDocumentStore(repoConfig)
	postStore := postgres.NewPostStore(repoConfig)
	mediaStore := postgres.NewMediaStore(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	tree := service.NewTreeStore(folderRepo, logger)
	perms := service.NewPermissionService(folderRepo, permRepo, tree, txManager, logger)
	folderSvc := service.NewFolderService(
		folderRepo,
		permRepo,
		perms,
		tree,
		[]repositories.FolderableStore{docStore, postStore, mediaStore},
		registry,
		txManager,
		logger,
	)

	owner := "user-" + uuid.New().String()[:8]
	editor := "user-" + uuid.New().String()[:8]
	log.Printf("Seeding tenant %q (owner: %s, editor: %s)", tenantID, owner, editor)

	reports, err := folderSvc.CreateFolder(ctx, tenantID, owner, &services.CreateFolderRequest{Name: "Reports"})
	if err != nil {
		return err
	}
	quarterly, err := folderSvc.CreateFolder(ctx, tenantID, owner, &services.CreateFolderRequest{
		Name:     "Quarterly",
		ParentID: &reports.ID,
	})
	if err != nil {
		return err
	}
	if _, err := folderSvc.CreateFolder(ctx, tenantID, owner, &services.CreateFolderRequest{Name: "Archive"}); err != nil {
		return err
	}

	if _, err := perms.GrantPermission(ctx, tenantID, owner, &services.GrantRequest{
		FolderID: reports.ID,
		UserID:   editor,
		Level:    models.PermissionWrite,
	}); err != nil {
		return err
	}

	now := time.Now()
	doc := &models.Document{
		TenantID: tenantID, Title: "Q3 Summary", Body: "# Q3\n\nNumbers looking up.",
		ContentType: "md", CreatedBy: owner, CreatedAt: now, UpdatedAt: now,
	}
	if err := docStore.Create(ctx, doc); err != nil {
		return err
	}
	post := &models.Post{
		TenantID: tenantID, Title: "Launch announcement", Body: "We shipped.",
		Status: models.PostStatusPublished, CreatedBy: owner, CreatedAt: now, UpdatedAt: now,
	}
	if err := postStore.Create(ctx, post); err != nil {
		return err
	}
	asset := &models.MediaAsset{
		TenantID: tenantID, FileName: "chart.png", MimeType: "image/png",
		SizeBytes: 48213, CreatedBy: owner, CreatedAt: now, UpdatedAt: now,
	}
	if err := mediaStore.Create(ctx, asset); err != nil {
		return err
	}

	for _, add := range []*services.AddItemRequest{
		{FolderID: quarterly.ID, ItemID: doc.ID, ItemType: models.ItemTypeDocument},
		{FolderID: quarterly.ID, ItemID: post.ID, ItemType: models.ItemTypePost},
		{FolderID: quarterly.ID, ItemID: asset.ID, ItemType: models.ItemTypeMedia},
	} {
		if _, err := folderSvc.AddItemToFolder(ctx, tenantID, owner, add); err != nil {
			return err
		}
	}

	log.Printf("Seeded folders Reports/Quarterly and Archive with 3 items")
	return nil
}
