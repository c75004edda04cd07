package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver.
	_ "modernc.org/sqlite"

	"github.com/af-corp/aegis-docai/internal/types"
)

// timeLayout has fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store on a local SQLite file for zero-config deployments.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens path, applies pragmas and creates the schema if needed.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.bootstrap(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) bootstrap(ctx context.Context) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		`CREATE TABLE IF NOT EXISTS documents (
			tenant_id  TEXT NOT NULL,
			id         TEXT NOT NULL,
			title      TEXT NOT NULL,
			text       TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (tenant_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS ai_call_audit (
			id               TEXT PRIMARY KEY,
			tenant_id        TEXT NOT NULL,
			flow_name        TEXT NOT NULL,
			request_payload  TEXT NOT NULL,
			response_payload TEXT NOT NULL,
			success          INTEGER NOT NULL,
			created_at       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ai_call_audit_tenant_created
			ON ai_call_audit (tenant_id, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, tenantID, id string) (*types.Document, error) {
	var doc types.Document
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT tenant_id, id, title, text, created_at
		FROM documents
		WHERE tenant_id = ? AND id = ?
	`, tenantID, id).Scan(&doc.TenantID, &doc.ID, &doc.Title, &doc.Text, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}
	if doc.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &doc, nil
}

func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *types.Document) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (tenant_id, id, title, text, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, id) DO NOTHING
	`, doc.TenantID, doc.ID, doc.Title, doc.Text, doc.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	if n == 0 {
		return types.ErrConflict
	}
	return nil
}

func (s *SQLiteStore) SaveAudit(ctx context.Context, rec *types.AuditRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_call_audit (id, tenant_id, flow_name, request_payload, response_payload, success, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.TenantID, rec.FlowName, string(rec.RequestPayload), string(rec.ResponsePayload), rec.Success,
		rec.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListAudits(ctx context.Context, tenantID string, limit int) ([]types.AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, flow_name, request_payload, response_payload, success, created_at
		FROM ai_call_audit
		WHERE tenant_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var out []types.AuditRecord
	for rows.Next() {
		var rec types.AuditRecord
		var reqPayload, respPayload, createdAt string
		if err := rows.Scan(&rec.ID, &rec.TenantID, &rec.FlowName, &reqPayload, &respPayload, &rec.Success, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		rec.RequestPayload = []byte(reqPayload)
		rec.ResponsePayload = []byte(respPayload)
		if rec.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
