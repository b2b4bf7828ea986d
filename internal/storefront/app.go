// Package storefront composes the catalog, search, cart and locale
// handlers into one HTTP service.
package storefront

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"Jaryq/internal/cart"
	"Jaryq/internal/catalog"
	"Jaryq/internal/i18n"
	"Jaryq/internal/search"
	"Jaryq/internal/session"
	"Jaryq/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

type Deps struct {
	Catalog  *catalog.Catalog
	Source   catalog.Source
	Index    *search.Index
	Slots    cart.Slots
	Sessions *session.Manager
	Bundle   *i18n.Bundle
	Locales  *i18n.Notifier

	Currency        string
	SaveTimeout     time.Duration
	CartIdleTTL     time.Duration
	SharedSlots     bool
	SearchPerMinute int
	TrustProxy      bool
}

const (
	readyTimeout     = 2 * time.Second
	readyPingTimeout = 700 * time.Millisecond
)

func NewHandler(deps Deps, httpDeps HTTPDeps) (http.Handler, error) {
	if deps.Catalog == nil {
		return nil, errors.New("storefront: catalog is required")
	}
	if deps.Slots == nil {
		return nil, errors.New("storefront: cart slots are required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("storefront: session manager is required")
	}
	if deps.Bundle == nil {
		b, err := i18n.NewBundle()
		if err != nil {
			return nil, err
		}
		deps.Bundle = b
	}
	if deps.Locales == nil {
		deps.Locales = &i18n.Notifier{}
	}
	if deps.Index == nil {
		deps.Index = search.Build(deps.Catalog.All(), search.Options{})
	}

	log := httpDeps.Log

	var (
		cartMetrics   *cart.Metrics
		searchMetrics *search.Metrics
	)
	if httpDeps.Registry != nil {
		cartMetrics = cart.NewMetrics(httpDeps.Registry)
		searchMetrics = search.NewMetrics(httpDeps.Registry)
	}
	watchLocales(deps.Locales, httpDeps.Registry, log)

	adapter := &cart.Adapter{
		Slots:       deps.Slots,
		Log:         log,
		Metrics:     cartMetrics,
		SaveTimeout: deps.SaveTimeout,
	}

	catalogSrv := &catalog.Server{Catalog: deps.Catalog, Log: log}
	searchSrv := &search.Server{Index: deps.Index, Bundle: deps.Bundle, Metrics: searchMetrics, Log: log}
	cartSrv := &cart.Server{
		Registry: cart.NewRegistry(adapter, cartMetrics, log, cart.RegistryOptions{
			IdleTTL: deps.CartIdleTTL,
			Reload:  deps.SharedSlots,
		}),
		Catalog:  deps.Catalog,
		Sessions: deps.Sessions,
		Bundle:   deps.Bundle,
		Metrics:  cartMetrics,
		Currency: deps.Currency,
		Log:      log,
	}
	localeSrv := &i18n.Server{Bundle: deps.Bundle, Notifier: deps.Locales, Log: log}

	r := chi.NewRouter()
	setupMiddleware(r, httpDeps)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps, log))

	r.Mount("/products", catalogSrv.Routes())
	r.Route("/search", func(sr chi.Router) {
		limiter := kit.NewIPRateLimiter(deps.SearchPerMinute, time.Minute)
		limiter.TrustForwardedFor = deps.TrustProxy
		sr.Use(limiter.Middleware)
		sr.Mount("/", searchSrv.Routes())
	})
	r.Mount("/cart", cartSrv.Routes())
	r.Mount("/locale", localeSrv.Routes())

	return r, nil
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

// watchLocales subscribes the service's own locale listener: a log line
// and a counter per switch.
func watchLocales(n *i18n.Notifier, reg prometheus.Registerer, log *zap.Logger) {
	var changes *prometheus.CounterVec
	if reg != nil {
		changes = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: kit.Namespace,
				Name:      "locale_changes_total",
				Help:      "Locale switches by target locale",
			},
			[]string{"locale"},
		)
		reg.MustRegister(changes)
	}

	n.Subscribe(func(l i18n.Locale) {
		if changes != nil {
			changes.WithLabelValues(string(l)).Inc()
		}
		if log != nil {
			log.Info("locale changed", zap.String("locale", string(l)))
		}
	})
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(deps Deps, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if deps.Source != nil {
			if err := pingDep(ctx, deps.Source.Ping); err != nil {
				if log != nil {
					log.Warn("readyz failed: catalog", zap.Error(err))
				}
				kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog not ready", nil)
				return
			}
		}

		if err := pingDep(ctx, deps.Slots.Ping); err != nil {
			if log != nil {
				log.Warn("readyz failed: cart slots", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "cart storage not ready", nil)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

func pingDep(ctx context.Context, ping func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, readyPingTimeout)
	defer cancel()
	return ping(cctx)
}
