// Package warehousetest builds small RavenStack warehouses for tests.
package warehousetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// Regions seeded by the fixture. Each has a subscription active through all of 2024.
var Regions = []string{"DE", "IN", "US"}

const schemaDDL = `
CREATE TABLE accounts (
  account_id TEXT PRIMARY KEY, account_name TEXT, industry TEXT, country TEXT,
  signup_date TEXT, referral_source TEXT, plan_tier TEXT, seats INTEGER,
  is_trial INTEGER, churn_flag INTEGER
);
CREATE TABLE subscriptions (
  subscription_id TEXT PRIMARY KEY, account_id TEXT, start_date TEXT, end_date TEXT,
  plan_tier TEXT, seats INTEGER, mrr_amount REAL, arr_amount REAL, is_trial INTEGER,
  upgrade_flag INTEGER, downgrade_flag INTEGER, churn_flag INTEGER,
  billing_frequency TEXT, auto_renew_flag INTEGER
);
CREATE TABLE feature_usage (
  usage_id TEXT PRIMARY KEY, subscription_id TEXT, usage_date TEXT, feature_name TEXT,
  usage_count INTEGER, usage_duration_secs INTEGER, error_count INTEGER, is_beta_feature INTEGER
);
CREATE TABLE support_tickets (
  ticket_id TEXT PRIMARY KEY, account_id TEXT, submitted_at TEXT, closed_at TEXT,
  resolution_time_hours REAL, priority TEXT, first_response_time_minutes REAL,
  satisfaction_score REAL, escalation_flag INTEGER
);
CREATE TABLE churn_events (
  churn_event_id TEXT PRIMARY KEY, account_id TEXT, churn_date TEXT, reason_code TEXT,
  refund_amount_usd REAL, preceding_upgrade_flag INTEGER, preceding_downgrade_flag INTEGER,
  is_reactivation INTEGER, feedback_text TEXT
);
`

var seed = []string{
	`INSERT INTO accounts VALUES
	  ('A-DE-1', 'Kiel GmbH', 'Manufacturing', 'DE', '2023-02-10', 'partner', 'Pro', 20, 0, 0),
	  ('A-IN-1', 'Pune Labs', 'FinTech', 'IN', '2023-03-15', 'organic', 'Basic', 5, 0, 1),
	  ('A-US-1', 'Austin Co', 'FinTech', 'US', '2023-01-05', 'ads', 'Enterprise', 80, 0, 0),
	  ('A-US-2', 'Boise Inc', 'HealthTech', 'US', '2024-05-20', 'event', 'Pro', 12, 1, 0)`,
	`INSERT INTO subscriptions VALUES
	  ('S-DE-1', 'A-DE-1', '2023-06-01', NULL, 'Pro', 20, 900, 10800, 0, 0, 0, 0, 'monthly', 1),
	  ('S-IN-1', 'A-IN-1', '2023-06-01', NULL, 'Basic', 5, 150, 1800, 0, 0, 0, 0, 'annual', 1),
	  ('S-US-1', 'A-US-1', '2023-06-01', NULL, 'Enterprise', 80, 4000, 48000, 0, 1, 0, 0, 'annual', 1),
	  ('S-US-2', 'A-US-2', '2024-06-01', '2024-09-30', 'Pro', 12, 600, 7200, 1, 0, 0, 1, 'monthly', 0)`,
	`INSERT INTO feature_usage VALUES
	  ('U-1', 'S-DE-1', '2024-02-03', 'dashboards', 14, 3600, 0, 0),
	  ('U-2', 'S-US-1', '2024-02-04', 'alerts', 3, 400, 1, 1),
	  ('U-3', 'S-US-2', '2024-07-11', 'dashboards', 7, 1200, 0, 0)`,
	`INSERT INTO support_tickets VALUES
	  ('T-1', 'A-US-1', '2024-01-09 10:00:00', '2024-01-09 16:00:00', 6, 'high', 20, 4.5, 0),
	  ('T-2', 'A-DE-1', '2024-03-02 08:30:00', '2024-03-04 08:30:00', 48, 'low', 240, 3.0, 1),
	  ('T-3', 'A-IN-1', '2024-03-20 12:00:00', '2024-03-20 14:00:00', 2, 'medium', 15, 5.0, 0)`,
	`INSERT INTO churn_events VALUES
	  ('C-1', 'A-US-2', '2024-09-30', 'budget', 300, 0, 0, 0, 'too expensive')`,
}

// Seed creates the RavenStack schema and a handful of rows.
func Seed(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return err
	}
	for _, stmt := range seed {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Memory returns a seeded in-memory warehouse closed with the test.
func Memory(t testing.TB) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Every pooled connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := Seed(context.Background(), db); err != nil {
		t.Fatalf("seed warehouse: %v", err)
	}
	return db
}

// File writes a seeded warehouse under the test's temp dir and returns its path.
func File(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "warehouse.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	if err := Seed(context.Background(), db); err != nil {
		t.Fatalf("seed warehouse: %v", err)
	}
	return path
}
