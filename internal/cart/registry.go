package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultIdleTTL = 30 * time.Minute

	hydrateTimeout   = 3 * time.Second
	maxSweepInterval = time.Minute
)

type RegistryOptions struct {
	// IdleTTL drops carts untouched for this long from memory. They are
	// hydrated again on next use. Zero means DefaultIdleTTL.
	IdleTTL time.Duration
	// Reload re-reads the slot on every access. Set it when several
	// processes share one slot store.
	Reload bool
}

// Registry holds one Store per session, hydrating each on first use and
// wiring its commits to the adapter.
type Registry struct {
	adapter *Adapter
	metrics *Metrics
	log     *zap.Logger
	idleTTL time.Duration
	reload  bool
	now     func() time.Time

	mu        sync.Mutex
	carts     map[string]*entry
	lastSweep time.Time
}

type entry struct {
	mu    sync.Mutex
	store *Store
	dead  bool

	lastUsed time.Time // guarded by Registry.mu
}

func NewRegistry(adapter *Adapter, metrics *Metrics, log *zap.Logger, opts RegistryOptions) *Registry {
	ttl := opts.IdleTTL
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &Registry{
		adapter: adapter,
		metrics: metrics,
		log:     log,
		idleTTL: ttl,
		reload:  opts.Reload,
		now:     time.Now,
		carts:   make(map[string]*entry),
	}
}

// Cart returns the store for session. Concurrent first calls for the same
// session hydrate it once; other sessions are not blocked meanwhile. A
// failed slot read is returned and nothing is cached, so the next call
// reads again instead of starting from an empty cart.
func (r *Registry) Cart(ctx context.Context, session string) (*Store, error) {
	for {
		e := r.touch(session)

		e.mu.Lock()
		if e.dead {
			e.mu.Unlock()
			continue
		}
		s, err := r.load(ctx, session, e)
		e.mu.Unlock()
		return s, err
	}
}

// load runs with e.mu held.
func (r *Registry) load(ctx context.Context, session string, e *entry) (*Store, error) {
	if e.store != nil && !r.reload {
		return e.store, nil
	}

	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), hydrateTimeout)
	defer cancel()

	items, err := r.adapter.Hydrate(hctx, session)
	if err != nil {
		if e.store == nil {
			e.dead = true
			r.forget(session, e)
		}
		return nil, err
	}

	if e.store != nil {
		e.store.replace(items)
		return e.store, nil
	}

	e.store = NewStore(items, func(items []LineItem) {
		r.adapter.Save(context.Background(), session, items)
	})
	if r.log != nil {
		r.log.Debug("cart hydrated", zap.String("session", session), zap.Int("lines", len(items)))
	}
	return e.store, nil
}

func (r *Registry) touch(session string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) >= min(r.idleTTL, maxSweepInterval) {
		r.sweep(now)
	}

	e, ok := r.carts[session]
	if !ok {
		e = &entry{}
		r.carts[session] = e
	}
	e.lastUsed = now
	r.metrics.activeCarts(len(r.carts))
	return e
}

// sweep runs with r.mu held. Evicted stores have already committed every
// mutation, so dropping them loses nothing.
func (r *Registry) sweep(now time.Time) {
	r.lastSweep = now
	for k, e := range r.carts {
		if now.Sub(e.lastUsed) > r.idleTTL {
			delete(r.carts, k)
		}
	}
}

func (r *Registry) forget(session string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.carts[session] == e {
		delete(r.carts, session)
		r.metrics.activeCarts(len(r.carts))
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}
