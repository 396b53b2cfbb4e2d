// Package locations serves read-heavy location lookups through a layered
// cache: a time-bounded full-index snapshot with fuzzy search, a bounded
// recency cache for full records, and uncached proximity queries.
//
// An Engine owns all of its cache state; create one per database with New.
package locations

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Ev19Coding/parktrack/internal/fuzzy"
	"github.com/Ev19Coding/parktrack/internal/logging"
	"github.com/Ev19Coding/parktrack/internal/sqlite"
	"github.com/Ev19Coding/parktrack/pkg/types"
)

// DefaultConcurrency bounds the number of concurrent lookups in GetMany.
const DefaultConcurrency = 4

// searchFields are the fuzzy keys in the column order of indexColumns
// after id.
var searchFields = []fuzzy.Field{
	{Name: "title", Weight: 1.0},
	{Name: "category", Weight: 0.8},
	{Name: "address", Weight: 0.5},
	{Name: "description", Weight: 0.3},
}

// snapshot is the lightweight data, its index and the refresh time. A
// snapshot is never modified after it is published.
type snapshot struct {
	data     []types.LightweightLocation
	index    *fuzzy.Index
	cachedOn time.Time
}

// Engine answers location queries.
type Engine struct {
	store       *sqlite.Adapter
	logger      *slog.Logger
	now         func() time.Time
	indexTTL    time.Duration
	recordSize  int
	recordTTL   time.Duration
	concurrency int

	snap    atomic.Pointer[snapshot]
	records *expirable.LRU[string, *types.Location]

	// gen counts invalidations. Reads that started before a bump must not
	// publish what they loaded.
	gen atomic.Uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Index refreshes are logged at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = logging.OrDiscard(l) }
}

// WithClock replaces time.Now for index staleness checks and write
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIndexTTL sets how long an index snapshot stays fresh.
func WithIndexTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.indexTTL = ttl
		}
	}
}

// WithRecordCache sizes the full-record cache by entry count and maximum
// entry age.
func WithRecordCache(size int, ttl time.Duration) Option {
	return func(e *Engine) {
		if size > 0 {
			e.recordSize = size
		}
		if ttl > 0 {
			e.recordTTL = ttl
		}
	}
}

// WithConcurrency bounds concurrent lookups in GetMany.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithConfig applies the cache settings from cfg.
func WithConfig(cfg types.CacheConfig) Option {
	return func(e *Engine) {
		WithIndexTTL(cfg.IndexTTL)(e)
		WithRecordCache(cfg.RecordSize, cfg.RecordTTL)(e)
	}
}

// New returns an engine running its queries on q.
func New(q sqlite.Querier, opts ...Option) *Engine {
	e := &Engine{
		store:       sqlite.NewAdapter(q),
		logger:      logging.Discard(),
		now:         time.Now,
		indexTTL:    types.DefaultIndexTTL,
		recordSize:  types.DefaultRecordCacheSize,
		recordTTL:   types.DefaultRecordTTL,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.records = expirable.NewLRU[string, *types.Location](e.recordSize, nil, e.recordTTL)
	return e
}

// Reset drops the index snapshot and every cached record.
func (e *Engine) Reset() {
	e.gen.Add(1)
	e.snap.Store(nil)
	e.records.Purge()
}

func (e *Engine) stale(s *snapshot) bool {
	return s == nil || e.now().Sub(s.cachedOn) > e.indexTTL
}

// invalidate forgets the cached record for id and marks the index stale.
func (e *Engine) invalidate(id string) {
	e.gen.Add(1)
	e.records.Remove(id)
	e.snap.Store(nil)
}

// RefreshIndexIfStale reloads the lightweight data and rebuilds the fuzzy
// index when the current snapshot is missing or older than the index TTL.
// A row that fails validation aborts the refresh and the previous snapshot
// stays in place.
func (e *Engine) RefreshIndexIfStale(ctx context.Context) error {
	if !e.stale(e.snap.Load()) {
		return nil
	}
	_, err := e.refresh(ctx)
	return err
}

func (e *Engine) current(ctx context.Context) (*snapshot, error) {
	if s := e.snap.Load(); !e.stale(s) {
		return s, nil
	}
	return e.refresh(ctx)
}

func (e *Engine) refresh(ctx context.Context) (*snapshot, error) {
	gen := e.gen.Load()
	recs, err := e.store.FindMany(ctx, types.TableLocation, nil, types.FindOptions{
		Fields: indexColumns,
		SortBy: &types.SortBy{Field: "id", Direction: types.SortAsc},
	})
	if err != nil {
		return nil, fmt.Errorf("refresh location index: %w", err)
	}

	data := make([]types.LightweightLocation, 0, len(recs))
	docs := make([][]string, 0, len(recs))
	for _, rec := range recs {
		l := lightweightFromRecord(rec)
		l.ApplyDefaults()
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("refresh location index: %w", err)
		}
		data = append(data, l)
		docs = append(docs, []string{l.Title, l.Category, l.Address, l.Description})
	}

	s := &snapshot{
		data:     data,
		index:    fuzzy.New(searchFields, docs),
		cachedOn: e.now(),
	}
	if e.gen.Load() == gen {
		e.snap.Store(s)
	}
	e.logger.Debug("location index refreshed", "count", s.index.Len())
	return s, nil
}

// Search ranks indexed locations against query and returns at most
// maxResults listings, best first. A blank query returns no results.
func (e *Engine) Search(ctx context.Context, query string, maxResults int) ([]types.BareMinimumLocation, error) {
	if maxResults <= 0 {
		return nil, fmt.Errorf("search: max results must be positive: %w", types.ErrInvalidInput)
	}
	if strings.TrimSpace(query) == "" {
		return []types.BareMinimumLocation{}, nil
	}

	s, err := e.current(ctx)
	if err != nil {
		return nil, err
	}

	matches := s.index.Search(query, maxResults)
	out := make([]types.BareMinimumLocation, 0, len(matches))
	for _, m := range matches {
		out = append(out, s.data[m.Index].Bare())
	}
	return out, nil
}

// Get returns the full location for id, or nil when it does not exist.
// Found records are cached; absent ids are not. The returned value is
// shared with the cache and must not be modified.
func (e *Engine) Get(ctx context.Context, id string) (*types.Location, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	if loc, ok := e.records.Get(id); ok {
		return loc, nil
	}

	gen := e.gen.Load()
	rec, err := e.store.FindOne(ctx, types.ViewLocationDetail, []types.Where{{Field: "id", Value: id}})
	if err != nil {
		return nil, fmt.Errorf("get location %s: %w", id, err)
	}
	if rec == nil {
		return nil, nil
	}
	loc, err := locationFromRecord(rec)
	if err != nil {
		return nil, err
	}
	e.records.Add(id, loc)
	if e.gen.Load() != gen {
		// A write landed while the row was loading; it may be stale.
		e.records.Remove(id)
	}
	return loc, nil
}
