package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nsets/erp-backend/pkg/migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1, "expected exactly one %s migration", suffix)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestQueriesMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "create_queries_tables")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS queries",
		"deleted_at TIMESTAMPTZ",
		"CHECK (status IN ('pending', 'submitted'))",
		"CREATE TABLE IF NOT EXISTS query_items",
		"CREATE TABLE IF NOT EXISTS supplier_responses",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_suggestions_kind_value",
	}
	for _, sub := range checks {
		assert.Contains(t, content, sub)
	}
}

func TestDocumentMigrationsCarryProvenanceKeys(t *testing.T) {
	po := readMigration(t, "create_purchase_orders_tables")
	assert.Contains(t, po, "query_id BIGINT REFERENCES queries (id)")
	assert.Contains(t, po, "quotation_id BIGINT REFERENCES quotations (id)")

	inv := readMigration(t, "create_invoices_tables")
	for _, fk := range []string{"query_id", "quotation_id", "purchase_order_id"} {
		assert.True(t, strings.Contains(inv, fk+" BIGINT REFERENCES"), "invoices missing %s", fk)
	}
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()

	path, err := migrate.CreateSQLMigration(dir, "Add Invoice Notes!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_invoice_notes.sql"))
	require.NoError(t, migrate.ValidateDir(dir))
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, migrate.ValidateDir(dir))
}

func TestValidateDirRejectsUnbalancedStatements(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_broken.sql"), []byte(body), 0o644))
	assert.Error(t, migrate.ValidateDir(dir))
}
