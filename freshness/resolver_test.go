package freshness

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/prodscrape/engine"
	"github.com/use-agent/prodscrape/extractor"
	"github.com/use-agent/prodscrape/models"
	"github.com/use-agent/prodscrape/store"
)

const productURL = "https://shop.example/p/kurta"

const kurtaPage = `<html><head>
<meta property="og:title" content="Blue Kurta">
<meta property="og:description" content="Hand block printed">
<meta property="product:price:amount" content="1299">
<script type="application/ld+json">{"size":"M","category":"Apparel"}</script>
</head><body>Call 9876543210</body></html>`

// fakeFetcher serves canned responses and counts calls.
type fakeFetcher struct {
	mu     sync.Mutex
	status int
	body   string
	err    error
	delay  time.Duration
	calls  atomic.Int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &engine.FetchResult{HTML: f.body, StatusCode: f.status, FinalURL: req.URL, EngineName: "fake"}, nil
}

func (f *fakeFetcher) serve(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.body, f.err = status, body, nil
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu   sync.Mutex
	seen []*models.ProductRecord
}

func (n *recordingNotifier) RecordUpdated(rec *models.ProductRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seen = append(n.seen, rec)
}

type fixture struct {
	fetcher  *fakeFetcher
	clock    *clock
	store    *store.MemoryStore
	notifier *recordingNotifier
	resolver *Resolver
}

func newFixture() *fixture {
	f := &fixture{
		fetcher:  &fakeFetcher{status: http.StatusOK, body: kurtaPage},
		clock:    &clock{now: time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)},
		store:    store.NewMemoryStore(),
		notifier: &recordingNotifier{},
	}
	f.resolver = New(f.fetcher, extractor.New(), f.store, Options{
		Now:      f.clock.Now,
		Notifier: f.notifier,
	})
	return f
}

// seed stores a record last updated age ago.
func (f *fixture) seed(t *testing.T, age time.Duration) *models.ProductRecord {
	t.Helper()
	updated := f.clock.Now().Add(-age)
	rec, err := f.store.Upsert(context.Background(), &models.ProductRecord{
		URL:       productURL,
		Title:     "Stored Title",
		Price:     "₹999",
		Contact:   "9000000000",
		CreatedAt: updated.Add(-time.Hour),
		UpdatedAt: updated,
	})
	require.NoError(t, err)
	return rec
}

func TestResolve_NewURLFetchesAndCreates(t *testing.T) {
	f := newFixture()

	res, err := f.resolver.Resolve(context.Background(), productURL, false)
	require.NoError(t, err)

	assert.Equal(t, SourceFetched, res.Source)
	assert.Equal(t, int32(1), f.fetcher.calls.Load())

	rec := res.Record
	assert.NotZero(t, rec.ID)
	assert.Equal(t, productURL, rec.URL)
	assert.Equal(t, "Blue Kurta", rec.Title)
	assert.Equal(t, "Hand block printed", rec.Description)
	assert.Equal(t, "1299", rec.Price)
	assert.Equal(t, "9876543210", rec.Contact)
	assert.Equal(t, "M", rec.Size)
	assert.Equal(t, "Apparel", rec.Category)
	assert.Equal(t, f.clock.Now(), rec.CreatedAt)
	assert.Equal(t, f.clock.Now(), rec.UpdatedAt)

	assert.Len(t, f.notifier.seen, 1)
}

func TestResolve_Freshness(t *testing.T) {
	tests := []struct {
		name       string
		age        time.Duration
		force      bool
		wantSource string
		wantCalls  int32
	}{
		{"six days old is cached", 6 * 24 * time.Hour, false, SourceCached, 0},
		{"just under window is cached", DefaultStaleAfter - time.Second, false, SourceCached, 0},
		{"exactly window is stale", DefaultStaleAfter, false, SourceFetched, 1},
		{"eight days old is stale", 8 * 24 * time.Hour, false, SourceFetched, 1},
		{"force on a brand new record", 0, true, SourceFetched, 1},
		{"force on a six day old record", 6 * 24 * time.Hour, true, SourceFetched, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			seeded := f.seed(t, tt.age)

			res, err := f.resolver.Resolve(context.Background(), productURL, tt.force)
			require.NoError(t, err)

			assert.Equal(t, tt.wantSource, res.Source)
			assert.Equal(t, tt.wantCalls, f.fetcher.calls.Load())
			assert.Equal(t, seeded.ID, res.Record.ID)
			assert.Equal(t, seeded.CreatedAt, res.Record.CreatedAt)

			if tt.wantSource == SourceCached {
				assert.Equal(t, seeded, res.Record)
				assert.Empty(t, f.notifier.seen)
			} else {
				assert.Equal(t, "Blue Kurta", res.Record.Title)
				assert.Equal(t, f.clock.Now(), res.Record.UpdatedAt)
			}
		})
	}
}

func TestResolve_ForceOverwritesWithEmptyFields(t *testing.T) {
	f := newFixture()
	f.seed(t, 0)
	f.fetcher.serve(http.StatusOK, `<html><head><title>Bare</title></head><body></body></html>`)

	res, err := f.resolver.Resolve(context.Background(), productURL, true)
	require.NoError(t, err)

	assert.Equal(t, "Bare", res.Record.Title)
	assert.Empty(t, res.Record.Price)
	assert.Empty(t, res.Record.Contact)
	assert.Empty(t, res.Record.Description)

	stored, err := f.store.GetByURL(context.Background(), productURL)
	require.NoError(t, err)
	assert.Equal(t, res.Record, stored)
}

func TestResolve_IdempotentForcedResubmission(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.resolver.Resolve(ctx, productURL, true)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	second, err := f.resolver.Resolve(ctx, productURL, true)
	require.NoError(t, err)

	assert.Equal(t, int32(2), f.fetcher.calls.Load())
	assert.True(t, second.Record.UpdatedAt.After(first.Record.UpdatedAt))

	a, b := *first.Record, *second.Record
	a.UpdatedAt, b.UpdatedAt = time.Time{}, time.Time{}
	assert.Equal(t, a, b)
}

func TestResolve_FetchFailureLeavesRecordUntouched(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeFetcher)
	}{
		{"http 500", func(ff *fakeFetcher) { ff.serve(http.StatusInternalServerError, "oops") }},
		{"http 404", func(ff *fakeFetcher) { ff.serve(http.StatusNotFound, "<title>Not Found</title>") }},
		{"transport error", func(ff *fakeFetcher) {
			ff.mu.Lock()
			ff.err = errors.New("dial tcp: i/o timeout")
			ff.mu.Unlock()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			seeded := f.seed(t, 30*24*time.Hour)
			tt.setup(f.fetcher)

			res, err := f.resolver.Resolve(context.Background(), productURL, false)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, models.IsFetchError(err))

			stored, err := f.store.GetByURL(context.Background(), productURL)
			require.NoError(t, err)
			assert.Equal(t, seeded, stored)
			assert.Empty(t, f.notifier.seen)
		})
	}
}

func TestResolve_FetchFailureOnNewURLCreatesNothing(t *testing.T) {
	f := newFixture()
	f.fetcher.serve(http.StatusBadGateway, "")

	_, err := f.resolver.Resolve(context.Background(), productURL, false)
	require.Error(t, err)

	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Status code: 502", se.Message)
	assert.Equal(t, 0, f.store.Len())
}

func TestResolve_InvalidURL(t *testing.T) {
	f := newFixture()

	for _, raw := range []string{"", "not a url", "ftp://shop.example/x", "/relative/path", "https://"} {
		_, err := f.resolver.Resolve(context.Background(), raw, false)
		require.Error(t, err, raw)
		assert.True(t, models.HasCode(err, models.ErrCodeInvalidInput), raw)
	}
	assert.Equal(t, int32(0), f.fetcher.calls.Load())
}

func TestResolve_UpdatedAtNeverMovesBackwards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.resolver.Resolve(ctx, productURL, true)
	require.NoError(t, err)

	f.clock.Advance(-time.Hour)
	second, err := f.resolver.Resolve(ctx, productURL, true)
	require.NoError(t, err)

	assert.Equal(t, first.Record.UpdatedAt, second.Record.UpdatedAt)
}

func TestResolve_ConcurrentCallsShareOneFetch(t *testing.T) {
	f := newFixture()
	f.fetcher.delay = 50 * time.Millisecond

	var wg sync.WaitGroup
	results := make([]*Resolution, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.resolver.Resolve(context.Background(), productURL, true)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	assert.Less(t, f.fetcher.calls.Load(), int32(8))
	assert.Equal(t, 1, f.store.Len())
	for _, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, results[0].Record.ID, res.Record.ID)
	}
}

func TestRefetch(t *testing.T) {
	f := newFixture()
	seeded := f.seed(t, time.Minute)

	res, err := f.resolver.Refetch(context.Background(), seeded.ID)
	require.NoError(t, err)

	assert.Equal(t, SourceFetched, res.Source)
	assert.Equal(t, int32(1), f.fetcher.calls.Load())
	assert.Equal(t, seeded.ID, res.Record.ID)
	assert.Equal(t, "Blue Kurta", res.Record.Title)
}

func TestRefetch_UnknownID(t *testing.T) {
	f := newFixture()

	_, err := f.resolver.Refetch(context.Background(), 404)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.ErrCodeNotFound))
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, int32(0), f.fetcher.calls.Load())
}

func TestRefetch_FailureKeepsRecord(t *testing.T) {
	f := newFixture()
	seeded := f.seed(t, time.Minute)
	f.fetcher.serve(http.StatusInternalServerError, "")

	_, err := f.resolver.Refetch(context.Background(), seeded.ID)
	require.Error(t, err)

	stored, err := f.store.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded, stored)
}

func TestList(t *testing.T) {
	f := newFixture()
	f.seed(t, time.Hour)

	recs, err := f.resolver.List(context.Background(), "stored")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, productURL, recs[0].URL)
}

func TestIsFresh(t *testing.T) {
	now := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	window := 7 * 24 * time.Hour

	assert.False(t, IsFresh(nil, now, window))
	assert.True(t, IsFresh(&models.ProductRecord{UpdatedAt: now}, now, window))
	assert.True(t, IsFresh(&models.ProductRecord{UpdatedAt: now.Add(-6 * 24 * time.Hour)}, now, window))
	assert.False(t, IsFresh(&models.ProductRecord{UpdatedAt: now.Add(-window)}, now, window))
	assert.False(t, IsFresh(&models.ProductRecord{UpdatedAt: now.Add(-8 * 24 * time.Hour)}, now, window))
}
