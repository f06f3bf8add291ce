package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/use-agent/prodscrape/models"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS products (
    id          BIGSERIAL PRIMARY KEY,
    url         TEXT          NOT NULL UNIQUE,
    title       TEXT          NOT NULL DEFAULT '',
    description TEXT          NOT NULL DEFAULT '',
    price       TEXT          NOT NULL DEFAULT '',
    contact     TEXT          NOT NULL DEFAULT '',
    size        TEXT          NOT NULL DEFAULT '',
    category    TEXT          NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ   NOT NULL,
    updated_at  TIMESTAMPTZ   NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS products_updated_at_idx ON products (updated_at DESC)`,
}

const productColumns = `id, url, title, description, price, contact, size, category, created_at, updated_at`

// PostgresStore persists records in a PostgreSQL "products" table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn, verifies the connection and creates the
// schema if needed. maxConns <= 0 keeps the pgxpool default.
func OpenPostgres(ctx context.Context, dsn string, maxConns int) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("store: create schema: %w", err)
		}
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStore wraps an existing pool. The schema must already exist.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) GetByURL(ctx context.Context, url string) (*models.ProductRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE url = $1`, url)
	return scanOne(row)
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*models.ProductRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanOne(row)
}

func (s *PostgresStore) Upsert(ctx context.Context, rec *models.ProductRecord) (*models.ProductRecord, error) {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = rec.UpdatedAt
	}
	row := s.pool.QueryRow(ctx, `
INSERT INTO products (url, title, description, price, contact, size, category, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (url) DO UPDATE SET
    title       = EXCLUDED.title,
    description = EXCLUDED.description,
    price       = EXCLUDED.price,
    contact     = EXCLUDED.contact,
    size        = EXCLUDED.size,
    category    = EXCLUDED.category,
    updated_at  = EXCLUDED.updated_at
RETURNING `+productColumns,
		rec.URL, rec.Title, rec.Description, rec.Price, rec.Contact, rec.Size, rec.Category,
		createdAt, rec.UpdatedAt)
	return scanOne(row)
}

func (s *PostgresStore) List(ctx context.Context, query string) ([]models.ProductRecord, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if q := strings.TrimSpace(query); q != "" {
		rows, err = s.pool.Query(ctx, `
SELECT `+productColumns+` FROM products
WHERE title ILIKE $1 OR description ILIKE $1 OR category ILIKE $1
ORDER BY updated_at DESC, id DESC`, "%"+escapeLike(q)+"%")
	} else {
		rows, err = s.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY updated_at DESC, id DESC`)
	}
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	out := []models.ProductRecord{}
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list scan: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func scanOne(row pgx.Row) (*models.ProductRecord, error) {
	rec, err := scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func scan(row pgx.Row) (*models.ProductRecord, error) {
	var rec models.ProductRecord
	err := row.Scan(&rec.ID, &rec.URL, &rec.Title, &rec.Description, &rec.Price,
		&rec.Contact, &rec.Size, &rec.Category, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// escapeLike escapes the ILIKE wildcards so query is matched literally.
func escapeLike(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(q)
}
