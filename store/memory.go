package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/use-agent/prodscrape/models"
)

// MemoryStore keeps records in process memory. It is safe for concurrent
// use and is the default backend when no database is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	byURL  map[string]*models.ProductRecord
	byID   map[int64]*models.ProductRecord
	nextID int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byURL: make(map[string]*models.ProductRecord),
		byID:  make(map[int64]*models.ProductRecord),
	}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) GetByURL(_ context.Context, url string) (*models.ProductRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byURL[url]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (*models.ProductRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) Upsert(_ context.Context, rec *models.ProductRecord) (*models.ProductRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byURL[rec.URL]; ok {
		existing.Title = rec.Title
		existing.Description = rec.Description
		existing.Price = rec.Price
		existing.Contact = rec.Contact
		existing.Size = rec.Size
		existing.Category = rec.Category
		existing.UpdatedAt = rec.UpdatedAt
		return existing.Clone(), nil
	}

	s.nextID++
	stored := rec.Clone()
	stored.ID = s.nextID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = stored.UpdatedAt
	}
	s.byURL[stored.URL] = stored
	s.byID[stored.ID] = stored
	return stored.Clone(), nil
}

func (s *MemoryStore) List(_ context.Context, query string) ([]models.ProductRecord, error) {
	q := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	out := make([]models.ProductRecord, 0, len(s.byID))
	for _, rec := range s.byID {
		if q == "" || matches(rec, q) {
			out = append(out, *rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// matches reports whether q (already lower-cased) occurs in the title,
// description or category of rec.
func matches(rec *models.ProductRecord, q string) bool {
	return strings.Contains(strings.ToLower(rec.Title), q) ||
		strings.Contains(strings.ToLower(rec.Description), q) ||
		strings.Contains(strings.ToLower(rec.Category), q)
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() {}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
