package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/af-corp/aegis-docai/internal/config"
	"github.com/af-corp/aegis-docai/internal/types"
)

// PostgresStore implements Store with pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, tenantID, id string) (*types.Document, error) {
	var doc types.Document
	err := s.pool.QueryRow(ctx, `
		SELECT tenant_id, id, title, text, created_at
		FROM documents
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id).Scan(&doc.TenantID, &doc.ID, &doc.Title, &doc.Text, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}
	return &doc, nil
}

func (s *PostgresStore) CreateDocument(ctx context.Context, doc *types.Document) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO documents (tenant_id, id, title, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, id) DO NOTHING
	`, doc.TenantID, doc.ID, doc.Title, doc.Text, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrConflict
	}
	return nil
}

func (s *PostgresStore) SaveAudit(ctx context.Context, rec *types.AuditRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ai_call_audit (id, tenant_id, flow_name, request_payload, response_payload, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.TenantID, rec.FlowName, []byte(rec.RequestPayload), []byte(rec.ResponsePayload), rec.Success, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAudits(ctx context.Context, tenantID string, limit int) ([]types.AuditRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, tenant_id, flow_name, request_payload, response_payload, success, created_at
		FROM ai_call_audit
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var out []types.AuditRecord
	for rows.Next() {
		var rec types.AuditRecord
		var reqPayload, respPayload []byte
		if err := rows.Scan(&rec.ID, &rec.TenantID, &rec.FlowName, &reqPayload, &respPayload, &rec.Success, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		rec.RequestPayload = reqPayload
		rec.ResponsePayload = respPayload
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
