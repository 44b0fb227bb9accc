// Package dbtest opens a migrated PostgreSQL database for scenario tests.
// Tests are skipped unless TEST_DATABASE_URL is set.
package dbtest

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"gymhub/internal/db"
)

var tables = []string{
	"campaign_events", "campaigns", "retention_scores",
	"sales", "stock_movements", "products",
	"attendance", "class_ratings", "credit_transactions", "class_waitlist", "class_bookings",
	"member_passes", "class_packages", "class_schedules", "classes",
	"memberships", "membership_plans", "discount_codes", "users",
}

func Open(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	conn, err := db.Connect(url)
	require.NoError(t, err)

	_, file, _, _ := runtime.Caller(0)
	migrations := filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
	require.NoError(t, db.RunMigrations(conn, migrations))

	_, err = conn.Exec("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE")
	require.NoError(t, err)

	t.Cleanup(func() { conn.Close() })
	return conn
}

// CreateUser inserts a user directly and returns its id.
func CreateUser(t *testing.T, conn *sqlx.DB, email, role string) int {
	t.Helper()
	var id int
	err := conn.QueryRow(`
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, 'x', $3)
		RETURNING id
	`, email, email, role).Scan(&id)
	require.NoError(t, err)
	return id
}
