// Package freshness decides when a stored product record may be served
// as-is and when its page must be fetched and extracted again.
package freshness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/use-agent/prodscrape/engine"
	"github.com/use-agent/prodscrape/extractor"
	"github.com/use-agent/prodscrape/models"
	"github.com/use-agent/prodscrape/store"
	"golang.org/x/sync/singleflight"
)

// DefaultStaleAfter is the staleness window: a record updated less than
// this long ago is served from the store without a fetch.
const DefaultStaleAfter = 7 * 24 * time.Hour

// Resolution sources.
const (
	SourceCached  = "cached"
	SourceFetched = "fetched"
)

// Fetcher retrieves a page. engine.Engine implementations satisfy it.
type Fetcher interface {
	Fetch(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error)
}

// Notifier is told about every record persisted after a fetch. It must
// not block.
type Notifier interface {
	RecordUpdated(rec *models.ProductRecord)
}

// Options tune a Resolver. Zero values select the defaults.
type Options struct {
	StaleAfter   time.Duration    // default: DefaultStaleAfter
	FetchTimeout time.Duration    // default: engine.DefaultTimeout
	Now          func() time.Time // default: time.Now in UTC
	Notifier     Notifier
}

// Resolution is the outcome of Resolve or Refetch.
type Resolution struct {
	Source string // SourceCached or SourceFetched
	Record *models.ProductRecord
}

// Resolver gates page fetches per URL using the stored UpdatedAt.
// It is safe for concurrent use. Concurrent fetches of the same URL are
// coalesced into one, so the read-modify-write of a record never runs
// twice at once for the same URL.
type Resolver struct {
	fetcher   Fetcher
	extractor *extractor.Extractor
	store     store.Store
	opts      Options
	inflight  singleflight.Group
}

// New creates a Resolver. The caller owns the lifecycle of every
// dependency.
func New(f Fetcher, ex *extractor.Extractor, st store.Store, opts Options) *Resolver {
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = engine.DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Resolver{fetcher: f, extractor: ex, store: st, opts: opts}
}

// IsFresh reports whether rec, updated at rec.UpdatedAt, is still inside
// the staleness window at now.
func IsFresh(rec *models.ProductRecord, now time.Time, window time.Duration) bool {
	return rec != nil && now.Sub(rec.UpdatedAt) < window
}

// Resolve returns the stored record for rawURL when it exists, force is
// false and it is still fresh. Otherwise the page is fetched, extracted
// and persisted. A failed fetch returns a FETCH_FAILED error and leaves
// any stored record untouched.
func (r *Resolver) Resolve(ctx context.Context, rawURL string, force bool) (*Resolution, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}
	now := r.opts.Now()

	existing, err := r.store.GetByURL(ctx, rawURL)
	switch {
	case errors.Is(err, store.ErrNotFound):
		existing = nil
	case err != nil:
		return nil, models.NewScrapeError(models.ErrCodeStore, "failed to look up product", err)
	}

	if existing != nil && !force && IsFresh(existing, now, r.opts.StaleAfter) {
		slog.Debug("serving cached product", "url", rawURL, "age", now.Sub(existing.UpdatedAt).Round(time.Second))
		return &Resolution{Source: SourceCached, Record: existing}, nil
	}

	rec, err := r.refresh(ctx, rawURL, now)
	if err != nil {
		return nil, err
	}
	return &Resolution{Source: SourceFetched, Record: rec}, nil
}

// Refetch always re-fetches the page of the record with the given ID.
func (r *Resolver) Refetch(ctx context.Context, id int64) (*Resolution, error) {
	existing, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rec, err := r.refresh(ctx, existing.URL, r.opts.Now())
	if err != nil {
		return nil, err
	}
	return &Resolution{Source: SourceFetched, Record: rec}, nil
}

// Get returns the record with the given ID, or a NOT_FOUND error.
func (r *Resolver) Get(ctx context.Context, id int64) (*models.ProductRecord, error) {
	rec, err := r.store.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, models.NewScrapeError(models.ErrCodeNotFound, fmt.Sprintf("product %d not found", id), err)
	}
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeStore, "failed to load product", err)
	}
	return rec, nil
}

// List returns stored records matching query, most recently updated first.
func (r *Resolver) List(ctx context.Context, query string) ([]models.ProductRecord, error) {
	recs, err := r.store.List(ctx, query)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeStore, "failed to list products", err)
	}
	return recs, nil
}

// refresh fetches and extracts rawURL and writes the result, sharing the
// work with any concurrent refresh of the same URL.
func (r *Resolver) refresh(ctx context.Context, rawURL string, now time.Time) (*models.ProductRecord, error) {
	// The fetch is bounded by FetchTimeout alone; a caller going away
	// must not abort the work other callers are waiting on.
	ctx = context.WithoutCancel(ctx)

	v, err, shared := r.inflight.Do(rawURL, func() (any, error) {
		return r.fetchAndStore(ctx, rawURL, now)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("coalesced concurrent fetch", "url", rawURL)
	}
	return v.(*models.ProductRecord).Clone(), nil
}

func (r *Resolver) fetchAndStore(ctx context.Context, rawURL string, now time.Time) (*models.ProductRecord, error) {
	start := time.Now()
	page := &extractor.Page{URL: rawURL}
	res, err := r.fetcher.Fetch(ctx, &engine.FetchRequest{URL: rawURL, Timeout: r.opts.FetchTimeout})
	if err != nil {
		page.Err = err
	} else {
		page.StatusCode = res.StatusCode
		page.Body = res.HTML
	}

	result, err := r.extractor.Extract(page)
	if err != nil {
		slog.Warn("product fetch failed",
			"url", rawURL,
			"status", page.StatusCode,
			"elapsed", time.Since(start),
			"error", err,
		)
		return nil, err
	}

	// Re-read under the in-flight guard so a record created by an earlier
	// refresh keeps its ID and CreatedAt.
	rec, err := r.store.GetByURL(ctx, rawURL)
	switch {
	case errors.Is(err, store.ErrNotFound):
		rec = &models.ProductRecord{URL: rawURL, CreatedAt: now}
	case err != nil:
		return nil, models.NewScrapeError(models.ErrCodeStore, "failed to look up product", err)
	}

	result.Apply(rec)
	// UpdatedAt never moves backwards, even if the clock does.
	if now.After(rec.UpdatedAt) {
		rec.UpdatedAt = now
	}

	saved, err := r.store.Upsert(ctx, rec)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeStore, "failed to save product", err)
	}

	slog.Info("product fetched",
		"url", rawURL,
		"id", saved.ID,
		"elapsed", time.Since(start),
		"fields", len(result.Sources),
	)
	for f, step := range result.Sources {
		slog.Debug("field extracted", "url", rawURL, "field", string(f), "step", step)
	}

	if r.opts.Notifier != nil {
		r.opts.Notifier.RecordUpdated(saved.Clone())
	}
	return saved, nil
}

// ValidateURL rejects empty input and anything that is not an absolute
// http or https URL.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return models.NewScrapeError(models.ErrCodeInvalidInput, "url is required", nil)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeInvalidInput, "url is malformed", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.NewScrapeError(models.ErrCodeInvalidInput, "url must be an absolute http(s) URL", nil)
	}
	return nil
}
