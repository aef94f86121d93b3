// Package storage persists an append-only audit trail of money-bearing admin
// actions: status transitions, bulk runs and commission payouts.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	ActionStatusChange     = "status_change"
	ActionBulkUpdate       = "bulk_update"
	ActionBatchComplete    = "batch_complete"
	ActionCommissionPayout = "commission_payout"
)

type AuditEntry struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	ActorID   int       `json:"actorId"`
	Subject   string    `json:"subject"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"createdAt"`
}

type PostgresAudit struct {
	db *pgxpool.Pool
}

func (store *PostgresAudit) initSchema(ctx context.Context) error {
	const initSchemaQuery = `
	CREATE TABLE IF NOT EXISTS audit_log (
		id SERIAL PRIMARY KEY,
		action TEXT NOT NULL,
		actor_id INT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log (created_at DESC);`

	_, err := store.db.Exec(ctx, initSchemaQuery)
	return err
}

func NewPostgresAudit(ctx context.Context, databaseURI string) (*PostgresAudit, error) {
	db, err := pgxpool.New(ctx, databaseURI)
	if err != nil {
		return nil, err
	}

	store := &PostgresAudit{db: db}

	if err := store.Ping(ctx); err != nil {
		return nil, err
	}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

func (store *PostgresAudit) Ping(ctx context.Context) error {
	return store.db.Ping(ctx)
}

func (store *PostgresAudit) Record(ctx context.Context, entry AuditEntry) error {
	const insertQuery = `INSERT INTO audit_log (action, actor_id, subject, detail) VALUES ($1, $2, $3, $4)`

	_, err := store.db.Exec(ctx, insertQuery, entry.Action, entry.ActorID, entry.Subject, entry.Detail)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (store *PostgresAudit) ListRecent(ctx context.Context, limit int) ([]AuditEntry, error) {
	const query = `
		SELECT id, action, actor_id, subject, detail, created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT $1`

	if limit <= 0 {
		limit = 50
	}

	rows, err := store.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.ActorID, &e.Subject, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}

	return entries, nil
}

// Discard is used when no audit database is configured.
type Discard struct{}

func (Discard) Record(ctx context.Context, entry AuditEntry) error { return nil }

func (Discard) ListRecent(ctx context.Context, limit int) ([]AuditEntry, error) {
	return nil, nil
}
