package assets

import (
	"context"
	"errors"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/iam74k4/SwipeSort-iOS-sub000/internal/media"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	defaultWindowSize    = 6
	defaultCacheCapacity = 64
	defaultPreloadWidth  = 3
	defaultFetchRate     = rate.Limit(32)
)

// defaultDeadlines are the per-rendition-class fetch deadlines. Thumbnails
// are expected to be local and cheap.
var defaultDeadlines = map[Quality]time.Duration{
	QualityThumbnail: 2 * time.Second,
	QualityPreview:   5 * time.Second,
	QualityFull:      10 * time.Second,
	QualityVideo:     15 * time.Second,
}

// preloadQuality is the rendition class warmed ahead of the viewing position.
const preloadQuality = QualityPreview

var errMissingSource = errors.New("assets: source is required")

// EngineConfig describes the dependencies and tuning of the cache engine.
type EngineConfig struct {
	Source Source
	// WindowSize is the number of upcoming assets kept warm.
	WindowSize int
	// CacheCapacity bounds the rendition LRU cache.
	CacheCapacity int
	// PreloadWidth bounds how many preload fetches run in parallel.
	PreloadWidth int64
	// FetchRate paces rendition requests against the source.
	FetchRate rate.Limit
	// Deadlines overrides the per-quality fetch deadlines.
	Deadlines map[Quality]time.Duration
	Logger    *zap.Logger
}

type renditionKey struct {
	id      media.AssetID
	quality Quality
}

// Engine fetches renditions through the deadline race, keeps a bounded LRU of
// results, and holds a moving window of upcoming assets warm. Fetches run
// fully in parallel with each other; each race has its own ticket and lock.
type Engine struct {
	source    Source
	cache     *lru.Cache[renditionKey, Rendition]
	sem       *semaphore.Weighted
	limiter   *rate.Limiter
	deadlines map[Quality]time.Duration
	logger    *zap.Logger

	windowSize int

	mu       sync.Mutex
	window   WindowSet
	preloads map[media.AssetID]*preloadHandle
}

// preloadHandle identifies one in-flight preload so a finished goroutine only
// clears its own bookkeeping, never a successor's for the same asset.
type preloadHandle struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewEngine constructs the cache engine. Zero config values fall back to
// defaults.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Source == nil {
		return nil, errMissingSource
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = defaultWindowSize
	}
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = defaultCacheCapacity
	}
	if cfg.PreloadWidth <= 0 {
		cfg.PreloadWidth = defaultPreloadWidth
	}
	if cfg.FetchRate <= 0 {
		cfg.FetchRate = defaultFetchRate
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cache, err := lru.New[renditionKey, Rendition](cfg.CacheCapacity)
	if err != nil {
		return nil, err
	}

	deadlines := make(map[Quality]time.Duration, len(defaultDeadlines))
	for quality, deadline := range defaultDeadlines {
		deadlines[quality] = deadline
	}
	for quality, deadline := range cfg.Deadlines {
		if deadline > 0 {
			deadlines[quality] = deadline
		}
	}

	return &Engine{
		source:     cfg.Source,
		cache:      cache,
		sem:        semaphore.NewWeighted(cfg.PreloadWidth),
		limiter:    rate.NewLimiter(cfg.FetchRate, int(cfg.PreloadWidth)+1),
		deadlines:  deadlines,
		logger:     logger,
		windowSize: cfg.WindowSize,
		window:     make(WindowSet),
		preloads:   make(map[media.AssetID]*preloadHandle),
	}, nil
}

func (e *Engine) deadline(quality Quality) time.Duration {
	if deadline, ok := e.deadlines[quality]; ok {
		return deadline
	}
	return defaultDeadlines[QualityPreview]
}

// Load returns the requested rendition, or false on cancellation or on
// timeout with nothing fetched. Timeouts resolve to the best partial seen
// rather than an error; the caller shows a placeholder and retries on the
// next view.
func (e *Engine) Load(ctx context.Context, id media.AssetID, quality Quality) (Rendition, bool) {
	key := renditionKey{id: id, quality: quality}
	if cached, ok := e.cache.Get(key); ok {
		return cached, true
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return Rendition{}, false
	}

	result := Race(ctx, e.deadline(quality), func(opCtx context.Context, publish func(Rendition)) (Rendition, error) {
		return e.source.LoadRendition(opCtx, id, quality, publish)
	})

	switch result.State {
	case RaceComplete:
		e.cache.Add(key, result.Value)
	case RaceTimedOut:
		e.logger.Debug("rendition fetch timed out",
			zap.String("asset_id", id.String()),
			zap.String("quality", string(quality)),
			zap.Bool("partial", result.HasValue))
	case RaceFailed:
		e.logger.Warn("rendition fetch failed",
			zap.String("asset_id", id.String()),
			zap.String("quality", string(quality)))
	}
	return result.Value, result.HasValue
}

// UpdateWindow recomputes the warm window for the new viewing position,
// tells the source to start and stop warming the difference, evicts cooled
// renditions, and preloads the newly warm assets with bounded parallelism.
// Call on every position change.
func (e *Engine) UpdateWindow(position int, order []media.AssetID) {
	next := Window(position, e.windowSize, order)

	e.mu.Lock()
	toStart, toStop := DiffWindow(e.window, next)
	e.window = next
	for _, id := range toStop {
		if handle, ok := e.preloads[id]; ok {
			handle.cancel()
			delete(e.preloads, id)
		}
	}
	started := make(map[media.AssetID]*preloadHandle, len(toStart))
	for _, id := range toStart {
		preloadCtx, cancel := context.WithCancel(context.Background())
		handle := &preloadHandle{ctx: preloadCtx, cancel: cancel}
		e.preloads[id] = handle
		started[id] = handle
	}
	e.mu.Unlock()

	e.evict(toStop)
	if len(toStop) > 0 {
		e.source.StopWarming(toStop)
	}
	if len(toStart) > 0 {
		e.source.StartWarming(toStart)
	}
	for id, handle := range started {
		go e.preload(id, handle)
	}
}

// evict removes every cached rendition of the cooled assets, regardless of
// quality, so memory tracks the window.
func (e *Engine) evict(ids []media.AssetID) {
	if len(ids) == 0 {
		return
	}
	cooled := make(map[media.AssetID]struct{}, len(ids))
	for _, id := range ids {
		cooled[id] = struct{}{}
	}
	for _, key := range e.cache.Keys() {
		if _, ok := cooled[key.id]; ok {
			e.cache.Remove(key)
		}
	}
}

// preload opportunistically fetches the primary rendition of an upcoming
// asset. Cancellation must still release the semaphore and clear the
// bookkeeping so later windows are never starved.
func (e *Engine) preload(id media.AssetID, handle *preloadHandle) {
	defer e.clearPreload(id, handle)

	if err := e.sem.Acquire(handle.ctx, 1); err != nil {
		return
	}
	defer e.sem.Release(1)
	if handle.ctx.Err() != nil {
		return
	}
	e.Load(handle.ctx, id, preloadQuality)
}

// clearPreload removes this preload's own bookkeeping entry. A newer window
// may have registered a fresh handle for the same asset in the meantime;
// that one is left alone.
func (e *Engine) clearPreload(id media.AssetID, handle *preloadHandle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if current, ok := e.preloads[id]; ok && current == handle {
		handle.cancel()
		delete(e.preloads, id)
	}
}

// Warm reports whether the asset is inside the current window. Exposed for
// observability and tests.
func (e *Engine) Warm(id media.AssetID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.window[id]
	return ok
}

// CachedRenditions reports how many renditions are currently cached.
func (e *Engine) CachedRenditions() int {
	return e.cache.Len()
}
