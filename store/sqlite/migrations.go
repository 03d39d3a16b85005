package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Storehook store (SQLite).
var Migrations = migrate.NewGroup("storehook")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_storehook_endpoints",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS storehook_endpoints (
    id          TEXT PRIMARY KEY,
    url         TEXT NOT NULL UNIQUE,
    secret      TEXT NOT NULL,
    events      TEXT NOT NULL DEFAULT '[]',
    description TEXT NOT NULL DEFAULT '',
    active      INTEGER NOT NULL DEFAULT 1,
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS storehook_endpoints`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_storehook_delivery_logs",
			Version: "20260101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS storehook_delivery_logs (
    id            TEXT PRIMARY KEY,
    endpoint_id   TEXT,
    event_type    TEXT NOT NULL,
    payload       TEXT NOT NULL,
    http_status   INTEGER NOT NULL DEFAULT 0,
    response_body TEXT NOT NULL DEFAULT '',
    error         TEXT NOT NULL DEFAULT '',
    duration_ms   INTEGER NOT NULL DEFAULT 0,
    status        TEXT NOT NULL CHECK (status IN ('success', 'failed', 'archived', 'retried')),
    created_at    TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_storehook_logs_endpoint ON storehook_delivery_logs (endpoint_id, id);
CREATE INDEX IF NOT EXISTS idx_storehook_logs_status ON storehook_delivery_logs (status, id);
CREATE INDEX IF NOT EXISTS idx_storehook_logs_created ON storehook_delivery_logs (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS storehook_delivery_logs`)
				return err
			},
		},
	)
}
