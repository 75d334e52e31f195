package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/guillermoBallester/pgreader/internal/adapter/store"
	"github.com/guillermoBallester/pgreader/internal/core/domain"
	"github.com/guillermoBallester/pgreader/internal/core/port"
)

func setupStore(t *testing.T) (*store.Repository, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, store.Migrate(ctx, connStr))
	// Applying twice is a no-op.
	require.NoError(t, store.Migrate(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return store.NewRepository(pool), pool
}

func TestRepository_Connections(t *testing.T) {
	repo, _ := setupStore(t)
	ctx := context.Background()

	rec, err := repo.GetConnection(ctx, "sales")
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, repo.SaveConnection(ctx, "sales", []byte{1, 2, 3}))
	require.NoError(t, repo.SaveConnection(ctx, "sales", []byte{4, 5}))

	rec, err = repo.GetConnection(ctx, "sales")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "sales", rec.Name)
	assert.Equal(t, []byte{4, 5}, rec.EncryptedConnectionURL)
}

func TestRepository_Settings(t *testing.T) {
	repo, _ := setupStore(t)
	ctx := context.Background()

	s, err := repo.Settings(ctx)
	require.NoError(t, err)
	assert.Nil(t, s, "empty store has no settings")

	pkgs := []domain.Package{
		{Name: "billing", Prefix: "inv_"},
		{Name: "common", Prefix: "*"},
		{Name: "billing", Prefix: "inv_"},
	}
	require.NoError(t, repo.SavePackages(ctx, "sales", pkgs))
	require.NoError(t, repo.SaveConnection(ctx, "reporting", nil))

	s, err = repo.Settings(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.Len(t, s.Entries, 2)

	e, ok := s.Lookup("sales")
	require.True(t, ok)
	assert.Equal(t, pkgs, e.Packages)

	e, ok = s.Lookup("reporting")
	require.True(t, ok)
	assert.Empty(t, e.Packages)

	// Replacing keeps only the new list.
	require.NoError(t, repo.SavePackages(ctx, "sales", pkgs[1:2]))
	s, err = repo.Settings(ctx)
	require.NoError(t, err)
	e, _ = s.Lookup("sales")
	assert.Equal(t, pkgs[1:2], e.Packages)
}

func TestRepository_SavePackagesRejectsMalformed(t *testing.T) {
	repo, _ := setupStore(t)

	err := repo.SavePackages(context.Background(), "sales", []domain.Package{{Name: "billing"}})
	assert.ErrorIs(t, err, domain.ErrMalformedConfig)
}

func TestRepository_SettingsMalformedRow(t *testing.T) {
	repo, pool := setupStore(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `INSERT INTO connections (name) VALUES ('sales')`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO connection_packages (connection_name, position, package_name, prefix)
		VALUES ('sales', 0, 'billing', '')`)
	require.NoError(t, err)

	_, err = repo.Settings(ctx)
	assert.ErrorIs(t, err, domain.ErrMalformedConfig)
}

func TestRepository_SettingsConcurrent(t *testing.T) {
	repo, _ := setupStore(t)
	ctx := context.Background()
	require.NoError(t, repo.SavePackages(ctx, "sales", []domain.Package{{Name: "billing", Prefix: "inv_"}}))

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := repo.Settings(ctx)
			if err == nil && s == nil {
				err = assert.AnError
			}
			errs[i] = err
		}()
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestAuditRepository_InsertAndList(t *testing.T) {
	_, pool := setupStore(t)
	repo := store.NewAuditRepository(pool)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	entries := []port.StatementEntry{
		{ID: uuid.New(), Database: "sales", Operation: "query", Statement: "SELECT 1", DurationMs: 3, CreatedAt: base},
		{ID: uuid.New(), Database: "sales", Operation: "call", Statement: "inv_totals", DurationMs: 7, IsError: true, CreatedAt: base.Add(time.Minute)},
		{ID: uuid.New(), Database: "reporting", Operation: "batch", Statement: "SELECT 1; SELECT 2", DurationMs: 1, CreatedAt: base.Add(2 * time.Minute)},
	}
	require.NoError(t, repo.InsertBatch(ctx, entries))

	got, err := repo.ListStatements(ctx, "sales", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, entries[1].ID, got[0].ID, "newest first")
	assert.True(t, got[0].IsError)
	assert.Equal(t, "inv_totals", got[0].Statement)
	assert.Equal(t, entries[0].ID, got[1].ID)

	all, err := repo.ListStatements(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "reporting", all[0].Database)
}
