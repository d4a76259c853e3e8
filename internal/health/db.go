// Package health provides readiness checks for the service's backing stores.
package health

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaProbe fails until migrations have created the ownership table.
const schemaProbe = `SELECT 1 FROM ownership_records LIMIT 1`

// DBChecker reports whether Postgres is reachable and migrated.
type DBChecker struct {
	db *sql.DB
}

// NewDBChecker creates a new database health checker.
func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{db: db}
}

// HealthCheck pings the database and probes the leaderboard schema.
func (d *DBChecker) HealthCheck(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	var one int
	err := d.db.QueryRowContext(ctx, schemaProbe).Scan(&one)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("probe schema: %w", err)
	}
	return nil
}
