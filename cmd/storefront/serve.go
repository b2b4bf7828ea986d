package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"Jaryq/internal/cart"
	"Jaryq/internal/catalog"
	"Jaryq/internal/config"
	"Jaryq/internal/i18n"
	"Jaryq/internal/search"
	"Jaryq/internal/session"
	"Jaryq/internal/storefront"
	"Jaryq/pkg/kit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storefront HTTP service",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := kit.NewLogger(cfg.Service, cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var db *sql.DB
	if cfg.Catalog.Source == config.CatalogPostgres || cfg.Cart.Backend == config.CartPostgres {
		db, err = sql.Open("pgx", cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
	}

	src, err := openSource(cfg, db)
	if err != nil {
		return err
	}
	cat, err := catalog.Load(ctx, src)
	if err != nil {
		return err
	}
	log.Info("catalog loaded", zap.String("source", cfg.Catalog.Source), zap.Int("products", cat.Len()))

	slots, closeSlots, err := openSlots(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeSlots()

	bundle, err := i18n.NewBundle()
	if err != nil {
		return err
	}

	h, err := storefront.NewHandler(storefront.Deps{
		Catalog: cat,
		Source:  src,
		Index: search.Build(cat.All(), search.Options{
			Threshold: cfg.Search.Threshold,
			Limit:     cfg.Search.Limit,
		}),
		Slots:           slots,
		Sessions:        session.NewManager(cfg.Session.Secret, cfg.GetSessionTTL(), cfg.Session.SecureCookie),
		Bundle:          bundle,
		Locales:         &i18n.Notifier{},
		Currency:        cfg.Currency,
		SaveTimeout:     cfg.GetSaveTimeout(),
		CartIdleTTL:     cfg.GetCartIdleTTL(),
		SharedSlots:     cfg.SharedSlots(),
		SearchPerMinute: cfg.Search.RateLimitPerMin,
		TrustProxy:      cfg.TrustProxy,
	}, storefront.HTTPDeps{
		Log:            log,
		Service:        cfg.Service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
	})
	if err != nil {
		return fmt.Errorf("init storefront handler: %w", err)
	}

	return kit.RunHTTPServer(ctx, cfg.Addr(), h, log)
}

func openSource(cfg *config.Config, db *sql.DB) (catalog.Source, error) {
	switch cfg.Catalog.Source {
	case config.CatalogFile:
		return catalog.FromFile(cfg.Catalog.Path)
	case config.CatalogPostgres:
		return catalog.NewPostgresSource(db), nil
	default:
		return catalog.Embedded(), nil
	}
}

func openSlots(ctx context.Context, cfg *config.Config, db *sql.DB) (cart.Slots, func(), error) {
	switch cfg.Cart.Backend {
	case config.CartMemory:
		return cart.NewMemSlots(), func() {}, nil
	case config.CartPostgres:
		s := cart.NewPostgresSlots(db)
		if err := s.Migrate(ctx); err != nil {
			return nil, nil, fmt.Errorf("migrate cart slots: %w", err)
		}
		return s, func() {}, nil
	default:
		s, err := cart.OpenSQLiteSlots(cfg.Cart.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
}
