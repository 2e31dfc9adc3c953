// Package server wires the storefront API over a server database
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storefront/cartsync/internal/application/storefront"
	"github.com/storefront/cartsync/internal/domain/tax"
	"github.com/storefront/cartsync/internal/infrastructure/auth"
	"github.com/storefront/cartsync/internal/infrastructure/config"
	"github.com/storefront/cartsync/internal/infrastructure/persistence"
	"github.com/storefront/cartsync/internal/infrastructure/ratetable"
	"github.com/storefront/cartsync/internal/interfaces/http/handler"
	"github.com/storefront/cartsync/internal/interfaces/http/router"
)

// NewEngine builds repositories, services and handlers over db and returns the
// routed gin engine. Rates resolve from the database first, then the rates in config.
func NewEngine(cfg *config.Config, db *persistence.Database, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}

	productRepo := persistence.NewGormProductRepository(db.DB)
	rateRepo := persistence.NewGormRateRepository(db.DB)
	entryRepo := persistence.NewGormCartEntryRepository(db.DB)

	engine := tax.NewEngine(
		ratetable.Chain{rateRepo, ratetable.NewStatic(cfg.Tax.Rates)},
		tax.WithUnknownStatePolicy(tax.UnknownStatePolicy(cfg.Tax.UnknownStatePolicy)),
	)
	jwtService := auth.NewJWTService(cfg.JWT)

	handlers := router.Handlers{
		Cart:    handler.NewCartHandler(storefront.NewCartService(entryRepo, productRepo, log.Named("cart"))),
		Catalog: handler.NewCatalogHandler(storefront.NewCatalogService(productRepo, rateRepo)),
		Tax:     handler.NewTaxHandler(storefront.NewTaxService(engine)),
		Health:  handler.NewHealthHandler(db),
	}
	if cfg.Auth.DevLoginEnabled {
		log.Warn("development login enabled: POST /api/v1/auth/token issues tokens without credentials")
		handlers.Auth = handler.NewAuthHandler(jwtService)
	}

	return router.New(router.Config{
		HTTP:      cfg.HTTP,
		Telemetry: cfg.Telemetry,
		Validator: jwtService,
		Logger:    log,
	}, handlers)
}
