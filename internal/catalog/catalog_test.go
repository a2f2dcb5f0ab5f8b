package catalog_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/caja-service/internal/catalog"
)

const migrationsPath = "../../migrations/catalog"

func setupTestDB(t *testing.T) *catalog.SQLite {
	t.Helper()
	repo, err := catalog.NewSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.RunMigrations(migrationsPath))
	return repo
}

func TestStatic_DefaultProducts(t *testing.T) {
	c := catalog.NewStatic(catalog.DefaultProducts())

	all, err := c.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 6)

	p, err := c.Get(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "Café americano", p.Name)
	assert.Equal(t, int64(3000), p.UnitPrice)

	_, err = c.Get(context.Background(), 99)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestStatic_AllReturnsCopy(t *testing.T) {
	c := catalog.NewStatic(catalog.DefaultProducts())

	all, _ := c.All(context.Background())
	all[0].Name = "changed"

	again, _ := c.All(context.Background())
	assert.Equal(t, "Pan de bono", again[0].Name)
}

func TestSQLite_SeedsMenu(t *testing.T) {
	repo := setupTestDB(t)

	products, err := repo.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, catalog.DefaultProducts(), products)
}

func TestSQLite_Get(t *testing.T) {
	repo := setupTestDB(t)

	p, err := repo.Get(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, "Jugo de Naranja", p.Name)

	_, err = repo.Get(context.Background(), 42)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestSQLite_MigrationsIdempotent(t *testing.T) {
	repo := setupTestDB(t)
	assert.NoError(t, repo.RunMigrations(migrationsPath))
}

func TestSQLite_CancelledContext(t *testing.T) {
	repo := setupTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.All(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadSQLite(t *testing.T) {
	c, err := catalog.LoadSQLite(context.Background(), filepath.Join(t.TempDir(), "menu.db"), migrationsPath)
	require.NoError(t, err)

	p, err := c.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Croissant", p.Name)
}
