package repo_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/pressly/goose/v3"

	"github.com/moroccoview/companion/migrations"
	"github.com/moroccoview/companion/testutil"
)

// TestMain applies all pending migrations to the test database once for the
// whole package, so individual tests never think about schema state.
// Without TEST_DATABASE_URL every test skips itself via testutil.
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		os.Exit(m.Run())
	}

	db := testutil.MustOpenSQLDB(dsn)
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		log.Fatalf("TestMain: create goose provider: %v", err)
	}
	if _, err := provider.Up(context.Background()); err != nil {
		log.Fatalf("TestMain: run migrations: %v", err)
	}
	_ = db.Close()

	os.Exit(m.Run())
}
