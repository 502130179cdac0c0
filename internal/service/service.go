// Package service runs ledger operations against a store: it loads the
// snapshot, lets the ledger engine compute the change, and writes it back.
package service

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/brankas/brankas/internal/cache"
	"github.com/brankas/brankas/internal/ledger"
	"github.com/brankas/brankas/internal/store"
)

const (
	keyAccounts  = "accounts:all"
	keyDashboard = "summary:dashboard"
)

// Ledger is the application service behind the API and CLI.
//
// Mutations are serialized within the process so the snapshot a change is
// computed from is the one it is written over. Several processes sharing a
// store are not coordinated.
type Ledger struct {
	store  store.Store
	engine *ledger.Engine
	cache  *cache.Cache
	now    func() time.Time
	log    zerolog.Logger

	mu sync.Mutex

	// gen counts invalidations. A read only fills the cache if no write
	// invalidated it while the read was loading.
	cacheMu sync.Mutex
	gen     uint64
}

type Option func(*Ledger)

// WithCache enables read caching of the account list and dashboard.
func WithCache(c *cache.Cache) Option { return func(l *Ledger) { l.cache = c } }

func WithClock(now func() time.Time) Option { return func(l *Ledger) { l.now = now } }

func WithLogger(log zerolog.Logger) Option {
	return func(l *Ledger) { l.log = log.With().Str("component", "service").Logger() }
}

func New(st store.Store, engine *ledger.Engine, opts ...Option) *Ledger {
	l := &Ledger{
		store:  st,
		engine: engine,
		now:    time.Now,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Engine exposes the ledger engine, e.g. for its policy.
func (l *Ledger) Engine() *ledger.Engine { return l.engine }

func (l *Ledger) invalidate() {
	l.cacheMu.Lock()
	defer l.cacheMu.Unlock()
	l.gen++
	l.cache.Clear(cache.GroupAccounts, cache.GroupSummary)
}

// generation returns the invalidation count to pass to fill.
func (l *Ledger) generation() uint64 {
	l.cacheMu.Lock()
	defer l.cacheMu.Unlock()
	return l.gen
}

// fill caches value unless the cache was invalidated after gen was taken.
func (l *Ledger) fill(gen uint64, group, key string, value any) {
	l.cacheMu.Lock()
	defer l.cacheMu.Unlock()
	if l.gen != gen {
		return
	}
	l.cache.Set(group, key, value)
}
