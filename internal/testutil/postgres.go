package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/target/csv-ingestor/internal/data/pgxutil"
	"github.com/target/csv-ingestor/internal/domain/model"
	"github.com/target/csv-ingestor/internal/migrate"
)

// TestingTB is the subset of testing.TB the helpers need.
type TestingTB interface {
	Helper()
	Skip(args ...any)
	Skipf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
	Cleanup(func())
}

// TestDBCredentials returns the connection settings for the integration database.
// Defaults target the local compose database on port 55432; CI sets TEST_DB_* explicitly.
func TestDBCredentials() model.DBCredentials {
	port, err := strconv.Atoi(envOr("TEST_DB_PORT", "55432"))
	if err != nil {
		port = 55432
	}
	return model.DBCredentials{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     port,
		Username: envOr("TEST_DB_USER", "ingestor"),
		Password: envOr("TEST_DB_PASSWORD", "ingestor"),
		DBName:   envOr("TEST_DB_NAME", "warehouse"),
	}
}

func testDSN(searchPath string) string {
	dsn := TestDBCredentials().DSN(model.DSNOptions{
		SSLMode:        envOr("TEST_DB_SSL_MODE", "disable"),
		ConnectTimeout: 5 * time.Second,
	})
	if searchPath == "" {
		return dsn
	}
	return dsn + "&search_path=" + url.QueryEscape(searchPath)
}

// SkipIfNoTestDB skips the test when the integration database cannot be reached, or fails
// it when TEST_REQUIRE_DB / TEST_REQUIRE_INFRA is set.
func SkipIfNoTestDB(t TestingTB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	db, err := pgxutil.Open(ctx, testDSN(""))
	if err != nil {
		if requireDB() {
			t.Fatal("Test database not available:", err)
		}
		t.Skip("Test database not available:", err)
		return
	}
	closeAndLog(t, "probe DB", db)
}

// WithDB runs fn against a migrated, throwaway schema. The schema is dropped when the test ends.
func WithDB(t TestingTB, fn func(*sql.DB)) {
	t.Helper()
	fn(SetupSchemaDB(t))
}

// SetupSchemaDB creates a unique schema, points search_path at it and applies the migrations.
func SetupSchemaDB(t TestingTB) *sql.DB {
	t.Helper()
	SkipIfNoTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	admin, err := pgxutil.Open(ctx, testDSN(""))
	if err != nil {
		t.Fatal("Failed to open admin DB:", err)
	}
	schema := schemaName()
	if _, err := admin.ExecContext(ctx, "CREATE SCHEMA "+schema); err != nil {
		closeAndLog(t, "admin DB", admin)
		t.Fatalf("Failed to create schema %s: %v", schema, err)
	}

	db, err := pgxutil.Open(ctx, testDSN(schema+",public"))
	if err != nil {
		dropSchema(t, admin, schema)
		t.Fatal("Failed to open schema-scoped DB:", err)
	}
	t.Logf("Using ephemeral schema: %s", schema)
	t.Cleanup(func() {
		closeAndLog(t, "schema DB", db)
		dropSchema(t, admin, schema)
	})

	if err := migrate.Run(ctx, db); err != nil {
		t.Fatal("Failed to run migrations in ephemeral schema:", err)
	}
	return db
}

func dropSchema(t TestingTB, admin *sql.DB, schema string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := admin.ExecContext(ctx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
		t.Logf("warning: failed to drop schema %s: %v", schema, err)
	}
	closeAndLog(t, "admin DB", admin)
}

func schemaName() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "t_" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return "t_" + hex.EncodeToString(b)
}

// CreateTargetTable (re)creates a plain load target with the given column definitions.
func CreateTargetTable(t TestingTB, db *sql.DB, name, columns string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
		t.Fatalf("Failed to drop table %s: %v", name, err)
	}
	if _, err := db.ExecContext(ctx, "CREATE TABLE "+name+" ("+columns+")"); err != nil {
		t.Fatalf("Failed to create table %s: %v", name, err)
	}
}

// CountRows returns the number of rows in table.
func CountRows(t TestingTB, db *sql.DB, table string) int64 {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var n int64
	if err := db.QueryRowContext(ctx, "SELECT count(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}
	return n
}

func closeAndLog(t TestingTB, name string, closer interface{ Close() error }) {
	if err := closer.Close(); err != nil {
		t.Logf("warning: failed to close %s: %v", name, err)
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func requireDB() bool    { return envBool("TEST_REQUIRE_DB") || envBool("TEST_REQUIRE_INFRA") }
func requireRedis() bool { return envBool("TEST_REQUIRE_REDIS") || envBool("TEST_REQUIRE_INFRA") }
