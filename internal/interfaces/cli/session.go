package cli

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appcart "github.com/storefront/cartsync/internal/application/cart"
	"github.com/storefront/cartsync/internal/domain/cart"
	"github.com/storefront/cartsync/internal/domain/tax"
	"github.com/storefront/cartsync/internal/infrastructure/config"
	"github.com/storefront/cartsync/internal/infrastructure/event"
	"github.com/storefront/cartsync/internal/infrastructure/localstore"
	"github.com/storefront/cartsync/internal/infrastructure/logger"
	"github.com/storefront/cartsync/internal/infrastructure/ratetable"
	"github.com/storefront/cartsync/internal/infrastructure/remote"
	"github.com/storefront/cartsync/internal/infrastructure/telemetry"
)

var _ appcart.MetricsRecorder = (*telemetry.CartMetrics)(nil)

// rateCacheTTL bounds how long a fetched HSN rate is reused within one run
const rateCacheTTL = 10 * time.Minute

// session is one cartctl run: a coordinator over the configured local backend,
// optionally logged in to the remote cart.
type session struct {
	cfg      *config.Config
	log      *zap.Logger
	backend  localstore.Backend
	catalog  *remote.CatalogClient
	meters   *telemetry.MeterProvider
	coord    *appcart.Coordinator
	warnings []cart.Warning
}

func loadConfig(opts *RootOptions) (*config.Config, error) {
	path := opts.ConfigFile
	if path == "" {
		path = os.Getenv("CART_CONFIG_FILE")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	if opts.BaseURL != "" {
		cfg.Sync.RemoteBaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.BuyerState != "" {
		cfg.Sync.BuyerState = opts.BuyerState
	}
	if opts.Token != "" {
		cfg.Sync.Token = opts.Token
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, verbose bool) (*zap.Logger, error) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Level: level, Format: "console", Output: "stderr"})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "init logger", err)
	}
	return log.With(zap.String("app", cfg.App.Name)), nil
}

// openSession seeds a coordinator from the local backend. When authenticate is
// set and a token is configured the local cart is merged into the remote one.
func openSession(ctx context.Context, opts *RootOptions, authenticate bool) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg, opts.Verbose)
	if err != nil {
		return nil, err
	}

	backend, err := localstore.NewFactory(cfg.Sync, cfg.Redis, localstore.WithLogger(log)).Create(ctx)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open local cart store", err)
	}

	clientOpts := []remote.Option{remote.WithTimeout(cfg.Sync.RemoteTimeout), remote.WithLogger(log)}
	catalog := remote.NewCatalogClient(cfg.Sync.RemoteBaseURL, rateCacheTTL, clientOpts...)
	engine := tax.NewEngine(
		ratetable.Chain{ratetable.NewStatic(cfg.Tax.Rates), catalog},
		tax.WithUnknownStatePolicy(tax.UnknownStatePolicy(cfg.Tax.UnknownStatePolicy)),
	)

	meters, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		_ = backend.Close()
		return nil, WrapExitError(ExitCommandError, "init metrics", err)
	}
	cartMetrics, err := telemetry.NewCartMetrics(meters.Meter("cartsync/cartctl"))
	if err != nil {
		_ = backend.Close()
		return nil, WrapExitError(ExitCommandError, "init metrics", err)
	}

	coord := appcart.NewCoordinator(engine, backend, event.NewInMemoryEventBus(log),
		appcart.WithRemoteTimeout(cfg.Sync.RemoteTimeout),
		appcart.WithLogger(log),
		appcart.WithMetrics(cartMetrics),
		appcart.WithStoreOptions(
			cart.WithStockProvider(catalog),
			cart.WithBuyerState(cfg.Sync.BuyerState),
			cart.WithOriginState(cfg.Tax.OriginState),
			cart.WithShippingTax(cfg.Tax.ApplyTaxToShipping, cfg.Tax.ShippingRatePercent),
		),
	)

	s := &session{cfg: cfg, log: log, backend: backend, catalog: catalog, meters: meters, coord: coord}
	warnings, err := coord.Start(ctx)
	if err != nil {
		s.close()
		return nil, WrapExitError(ExitCommandError, "read local cart", err)
	}
	s.warnings = warnings

	if authenticate && cfg.Sync.Token != "" {
		report, err := s.login(ctx, cfg.Sync.Token)
		s.warnings = append(s.warnings, report.Warnings...)
		if err != nil && !errors.Is(err, cart.ErrPartialSyncLoss) {
			s.close()
			return nil, err
		}
	}
	return s, nil
}

func (s *session) login(ctx context.Context, token string) (appcart.SyncReport, error) {
	client := remote.NewCartClient(s.cfg.Sync.RemoteBaseURL, token,
		remote.WithTimeout(s.cfg.Sync.RemoteTimeout), remote.WithLogger(s.log))
	return s.coord.Login(ctx, client)
}

func (s *session) close() {
	s.coord.Close()
	if err := s.backend.Close(); err != nil {
		s.log.Warn("closing local cart store", zap.Error(err))
	}
	// a short-lived run exits before the periodic reader fires
	if err := s.meters.Shutdown(context.Background()); err != nil {
		s.log.Warn("flushing metrics", zap.Error(err))
	}
	_ = s.log.Sync()
}

// resolveItem finds a cart line by item id, remote id or product id
func (s *session) resolveItem(ref string) (uuid.UUID, error) {
	snap := s.coord.Snapshot()
	if id, err := uuid.Parse(ref); err == nil {
		if _, ok := snap.Find(id); ok {
			return id, nil
		}
	}
	for _, it := range snap.Items {
		if it.RemoteID == ref || it.ProductID == ref {
			return it.ItemID, nil
		}
	}
	return uuid.Nil, cart.ErrItemNotFound
}
