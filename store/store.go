// Package store persists product records keyed by URL.
package store

import (
	"context"
	"errors"

	"github.com/use-agent/prodscrape/models"
)

// ErrNotFound is returned when no record matches the lookup key.
var ErrNotFound = errors.New("store: record not found")

// Store is the record persistence contract. Exactly one record exists
// per distinct URL. Implementations return copies; callers may mutate
// what they receive without affecting stored state.
type Store interface {
	// Name identifies the backend ("memory", "postgres").
	Name() string

	GetByURL(ctx context.Context, url string) (*models.ProductRecord, error)
	GetByID(ctx context.Context, id int64) (*models.ProductRecord, error)

	// Upsert inserts rec, or replaces the six attributes and UpdatedAt of
	// the record with the same URL. On replace, the stored ID and
	// CreatedAt are kept. The persisted record is returned.
	Upsert(ctx context.Context, rec *models.ProductRecord) (*models.ProductRecord, error)

	// List returns records whose title, description or category contain
	// query case-insensitively, most recently updated first. An empty
	// query matches everything.
	List(ctx context.Context, query string) ([]models.ProductRecord, error)

	Ping(ctx context.Context) error
	Close()
}
