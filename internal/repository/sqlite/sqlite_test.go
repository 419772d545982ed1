package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmaia-dev/reelpick/internal/domain"
	"github.com/dmaia-dev/reelpick/internal/repository/sqlite"
)

// The store must satisfy the lifecycle contract main wires it through.
var _ domain.Database = (*sqlite.DB)(nil)

var _ domain.UserRepository = (*sqlite.UserRepository)(nil)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNew_ConfiguresDatabase(t *testing.T) {
	db := newTestDB(t)

	if err := db.SqlDB.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}

	var fkEnabled int
	if err := db.SqlDB.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("query foreign_keys pragma: %v", err)
	}
	if fkEnabled != 1 {
		t.Fatal("expected foreign keys to be enabled")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Running migrations again must be a no-op.
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	var count int
	err := db.SqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	if err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count == 0 {
		t.Fatal("expected at least one applied migration")
	}

	// The users table must exist after migration.
	if _, err := db.SqlDB.ExecContext(ctx, "SELECT COUNT(*) FROM users"); err != nil {
		t.Fatalf("users table missing: %v", err)
	}
}
