// Package store persists documents and AI call audit records.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/af-corp/aegis-docai/internal/config"
	"github.com/af-corp/aegis-docai/internal/types"
)

// Documents is the tenant-scoped document collaborator.
type Documents interface {
	// GetDocument returns types.ErrNotFound when the id does not exist for tenantID.
	GetDocument(ctx context.Context, tenantID, id string) (*types.Document, error)
	// CreateDocument returns types.ErrConflict when the id already exists for the tenant.
	CreateDocument(ctx context.Context, doc *types.Document) error
}

// Audits persists one record per orchestrated flow.
type Audits interface {
	SaveAudit(ctx context.Context, rec *types.AuditRecord) error
	ListAudits(ctx context.Context, tenantID string, limit int) ([]types.AuditRecord, error)
}

type Store interface {
	Documents
	Audits
	Ping(ctx context.Context) error
	Close() error
}

// Open connects the configured backend. Postgres migrations run when auto_migrate is set;
// SQLite bootstraps its schema on every open.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		if cfg.AutoMigrate {
			if err := MigratePostgres(cfg.DSN()); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
			logger.Info("database migrations applied")
		}
		return NewPostgresStore(ctx, cfg)
	case "sqlite":
		return OpenSQLite(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
