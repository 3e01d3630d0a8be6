package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesSortedSQLOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_more.sql", "0001_init.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "0000_dir.sql"), 0o755))

	files, err := migrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql", "0002_more.sql"}, files)
}

func TestMigrationsAgainstDatabase(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, Migrate(ctx, pool, filepath.Join("..", "..", "..", "migrations")))
	require.NoError(t, Migrate(ctx, pool, filepath.Join("..", "..", "..", "migrations")))
	require.NoError(t, Seed(ctx, pool, SeedOptions{TenantName: "Test Tenant", AdminEmail: "hr@example.com", AdminPassword: "change-me"}))
	require.NoError(t, Seed(ctx, pool, SeedOptions{TenantName: "Test Tenant", AdminEmail: "hr@example.com", AdminPassword: "change-me"}))
}
