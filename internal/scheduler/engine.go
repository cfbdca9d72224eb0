// Package scheduler keeps the active requirement keys fresh: on every tick
// it fetches each key whose cached value has gone stale.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/web3-frozen/anchor-autopilot/internal/cache"
	"github.com/web3-frozen/anchor-autopilot/internal/config"
	"github.com/web3-frozen/anchor-autopilot/internal/contract"
	"github.com/web3-frozen/anchor-autopilot/internal/metrics"
	"github.com/web3-frozen/anchor-autopilot/internal/provider"
	"github.com/web3-frozen/anchor-autopilot/internal/requirement"
)

const (
	defaultTickInterval = time.Second
	// A transaction scan may run for its full budget.
	defaultFetchTimeout = 5 * time.Minute
)

// Fetcher produces the current value of a key.
type Fetcher interface {
	Fetch(ctx context.Context, key string) (any, error)
}

// Archiver receives every successfully fetched value.
type Archiver interface {
	Archive(ctx context.Context, key string, value any) error
}

// Leaser serialises fetches of a key across replicas.
type Leaser interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) bool
	Release(ctx context.Context, key string)
}

type Option func(*Engine)

func WithClock(c clockwork.Clock) Option { return func(e *Engine) { e.clock = c } }

func WithTickInterval(d time.Duration) Option { return func(e *Engine) { e.interval = d } }

func WithFetchTimeout(d time.Duration) Option { return func(e *Engine) { e.fetchTimeout = d } }

func WithLease(l Leaser) Option { return func(e *Engine) { e.lease = l } }

func WithArchiver(a Archiver) Option { return func(e *Engine) { e.archiver = a } }

func WithCatalog(c []requirement.Entry) Option { return func(e *Engine) { e.catalog = c } }

// Engine drives fetches for the requirement keys selected by the current
// settings.
type Engine struct {
	cache        *cache.Cache
	fetcher      Fetcher
	settings     *config.Live
	logger       *slog.Logger
	clock        clockwork.Clock
	catalog      []requirement.Entry
	interval     time.Duration
	fetchTimeout time.Duration
	lease        Leaser
	archiver     Archiver

	// update serialises settings changes so active always matches settings.
	update sync.Mutex

	mu       sync.RWMutex
	active   []requirement.Entry
	reported map[string]struct{}

	wg sync.WaitGroup
}

func NewEngine(c *cache.Cache, f Fetcher, settings *config.Live, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		cache:        c,
		fetcher:      f,
		settings:     settings,
		logger:       logger,
		clock:        clockwork.NewRealClock(),
		catalog:      requirement.Catalog(),
		interval:     defaultTickInterval,
		fetchTimeout: defaultFetchTimeout,
		reported:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.reselect(settings.Load())
	return e
}

// Settings returns the settings the active set was selected from.
func (e *Engine) Settings() config.Settings { return e.settings.Load() }

// UpdateSettings stores s and recomputes the active set. Keys that drop out
// keep their cached values but are no longer refreshed.
func (e *Engine) UpdateSettings(s config.Settings) {
	e.update.Lock()
	defer e.update.Unlock()
	e.settings.Store(s)
	e.reselect(s)
}

// ApplySettings derives new settings from the current ones and stores them.
// Concurrent calls are serialised, so none of them is lost. An error from
// apply leaves the settings unchanged.
func (e *Engine) ApplySettings(apply func(config.Settings) (config.Settings, error)) (config.Settings, error) {
	e.update.Lock()
	defer e.update.Unlock()
	next, err := apply(e.settings.Load())
	if err != nil {
		return config.Settings{}, err
	}
	e.settings.Store(next)
	e.reselect(next)
	return next, nil
}

func (e *Engine) reselect(s config.Settings) {
	active := requirement.Select(e.catalog, s.Flags.Tags())
	e.mu.Lock()
	e.active = active
	e.mu.Unlock()
	metrics.ActiveRequirements.Set(float64(len(active)))
	e.logger.Info("active requirements", "count", len(active), "flags", s.Flags)
}

// Active returns a copy of the active set.
func (e *Engine) Active() []requirement.Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]requirement.Entry, len(e.active))
	copy(out, e.active)
	return out
}

// Run ticks until ctx is done. It returns without waiting for in-flight
// fetches; call Wait for that.
func (e *Engine) Run(ctx context.Context) {
	e.Tick(ctx)

	ticker := e.clock.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			e.Tick(ctx)
		}
	}
}

// Tick starts a fetch for every active key that is stale and not already
// being fetched. It does not wait for the fetches to finish.
func (e *Engine) Tick(ctx context.Context) {
	for _, entry := range e.Active() {
		if !e.cache.NeedsRefresh(entry.Key, entry.Interval) {
			continue
		}
		if !e.cache.BeginFetch(entry.Key) {
			continue
		}
		if e.lease != nil && !e.lease.Acquire(ctx, entry.Key, e.fetchTimeout) {
			e.cache.Abort(entry.Key)
			metrics.FetchesSkippedTotal.WithLabelValues(entry.Key).Inc()
			continue
		}

		e.wg.Add(1)
		go e.fetch(ctx, entry)
	}
}

// Wait blocks until every started fetch has completed.
func (e *Engine) Wait() { e.wg.Wait() }

func (e *Engine) fetch(ctx context.Context, entry requirement.Entry) {
	defer e.wg.Done()
	metrics.FetchesInFlight.Inc()
	defer metrics.FetchesInFlight.Dec()
	if e.lease != nil {
		defer e.lease.Release(context.WithoutCancel(ctx), entry.Key)
	}

	ctx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	start := e.clock.Now()
	value, err := e.run(ctx, entry.Key)
	e.cache.Complete(entry.Key, value, err)
	duration := e.clock.Since(start)

	metrics.FetchDuration.WithLabelValues(entry.Key).Observe(duration.Seconds())
	if err != nil {
		metrics.FetchTotal.WithLabelValues(entry.Key, "error").Inc()
		e.logFailure(entry.Key, duration, err)
		return
	}
	metrics.FetchTotal.WithLabelValues(entry.Key, "success").Inc()
	metrics.FetchLastSuccess.WithLabelValues(entry.Key).Set(float64(e.clock.Now().Unix()))
	e.logger.Info("fetched", "key", entry.Key, "duration", duration)

	if e.archiver != nil {
		if err := e.archiver.Archive(ctx, entry.Key, value); err != nil {
			e.logger.Error("archive failed", "key", entry.Key, "error", err)
		}
	}
}

// run calls the fetcher and turns a panic into an error so the key is
// still completed.
func (e *Engine) run(ctx context.Context, key string) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value, err = nil, fmt.Errorf("fetch %s panicked: %v", key, r)
		}
	}()
	return e.fetcher.Fetch(ctx, key)
}

// logFailure warns on every transient error but only once per key for
// permanent ones.
func (e *Engine) logFailure(key string, duration time.Duration, err error) {
	if IsPermanent(err) {
		e.mu.Lock()
		_, seen := e.reported[key]
		e.reported[key] = struct{}{}
		e.mu.Unlock()
		if seen {
			e.logger.Debug("fetch failed", "key", key, "error", err)
			return
		}
	}
	e.logger.Warn("fetch failed", "key", key, "duration", duration, "error", err)
}

// IsPermanent reports whether retrying err cannot succeed without a
// configuration change.
func IsPermanent(err error) bool {
	return errors.Is(err, contract.ErrUnknownContract) ||
		errors.Is(err, contract.ErrUnknownDex) ||
		errors.Is(err, provider.ErrNoProvider) ||
		errors.Is(err, provider.ErrNoWallet)
}
