package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/prodscrape/models"
)

// openTestPostgres connects to PRODSCRAPE_TEST_DATABASE_URL and empties
// the products table. Tests are skipped when the variable is unset.
func openTestPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("PRODSCRAPE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("PRODSCRAPE_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := OpenPostgres(ctx, dsn, 2)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	_, err = s.pool.Exec(ctx, `TRUNCATE products RESTART IDENTITY`)
	require.NoError(t, err)
	return s
}

func TestPostgresStore_UpsertAndGet(t *testing.T) {
	s := openTestPostgres(t)
	ctx := context.Background()

	_, err := s.GetByURL(ctx, "https://shop.example/a")
	assert.ErrorIs(t, err, ErrNotFound)

	created, err := s.Upsert(ctx, &models.ProductRecord{
		URL: "https://shop.example/a", Title: "Lamp", Price: "₹499",
		CreatedAt: t0, UpdatedAt: t0,
	})
	require.NoError(t, err)

	later := t0.Add(8 * 24 * time.Hour)
	updated, err := s.Upsert(ctx, &models.ProductRecord{
		URL: "https://shop.example/a", Title: "Lamp v2",
		CreatedAt: later, UpdatedAt: later,
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, t0.Equal(updated.CreatedAt))
	assert.True(t, later.Equal(updated.UpdatedAt))
	assert.Empty(t, updated.Price)

	byID, err := s.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lamp v2", byID.Title)
}

func TestPostgresStore_List(t *testing.T) {
	s := openTestPostgres(t)
	ctx := context.Background()

	for i, rec := range []models.ProductRecord{
		{URL: "https://shop.example/1", Title: "100% Cotton Tee", UpdatedAt: t0},
		{URL: "https://shop.example/2", Title: "Desk Lamp", Category: "Lighting", UpdatedAt: t0.Add(time.Hour)},
	} {
		rec := rec
		_, err := s.Upsert(ctx, &rec)
		require.NoError(t, err, "seed %d", i)
	}

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "https://shop.example/2", all[0].URL)

	lit, err := s.List(ctx, "100%")
	require.NoError(t, err)
	require.Len(t, lit, 1)
	assert.Equal(t, "https://shop.example/1", lit[0].URL)

	cat, err := s.List(ctx, "LIGHT")
	require.NoError(t, err)
	require.Len(t, cat, 1)

	none, err := s.List(ctx, "kettle")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now\\`, escapeLike(`50% off_now\`))
}
