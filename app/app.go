package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"sku-generator/app/controller"
	"sku-generator/app/router"
	"sku-generator/catalog"
	"sku-generator/config"
	"sku-generator/db"
	"sku-generator/logger"
	"sku-generator/repository"
	"sku-generator/service"
	"sku-generator/shopify"
)

// Initialize wires the services and returns the HTTP handler plus a cleanup
// function to run on shutdown.
func Initialize(ctx context.Context, cfg *config.Config, log *zap.Logger) (http.Handler, func(), error) {
	log = logger.OrNop(log)
	cleanup := func() {}

	// Load the catalog tables
	tables, err := catalog.LoadTables(cfg.Catalog.TablesPath)
	if err != nil {
		return nil, cleanup, err
	}
	if err := tables.Validate(); err != nil {
		return nil, cleanup, fmt.Errorf("invalid catalog tables: %w", err)
	}
	expander := catalog.NewExpander(tables, catalog.Defaults{
		Vendor:             cfg.Catalog.Vendor,
		Published:          cfg.Catalog.Published,
		InventoryPolicy:    cfg.Catalog.InventoryPolicy,
		FulfillmentService: cfg.Catalog.FulfillmentService,
		RequiresShipping:   cfg.Catalog.RequiresShipping,
		Taxable:            cfg.Catalog.Taxable,
		InventoryTracker:   cfg.Catalog.InventoryTracker,
		CustomLabel0:       cfg.Catalog.CustomLabel0,
	})

	// Initialize Drive service
	driveService, err := service.NewDriveService(ctx, cfg.Drive, log)
	if err != nil {
		return nil, cleanup, err
	}

	tracker, closeTracker, err := newTracker(ctx, cfg, log)
	if err != nil {
		return nil, cleanup, err
	}
	cleanup = closeTracker

	designService := service.NewDesignService(driveService, expander, cfg.Drive,
		service.NewImageOptimizer("", log), log)
	reviewService := service.NewReviewService(cfg.BaseURL, log)
	publishService := service.NewPublishService(designService, tracker, newSessionPool(cfg, log).Get, cfg, log)

	// Create controllers
	controllers := &router.Controllers{
		Design:  controller.NewDesignController(designService, reviewService, log),
		Catalog: controller.NewCatalogController(publishService, log),
		Upload:  controller.NewUploadController(publishService, log),
		Shopify: controller.NewShopifyController(publishService),
	}

	log.Info("✓ Application initialized",
		zap.String("designs_root", cfg.Drive.DesignsRoot),
		zap.String("tracker", cfg.Tracker.Backend),
		zap.Int("store_profiles", len(cfg.Shopify.Profiles)))
	return router.SetupRoutes(controllers, log), cleanup, nil
}

// newTracker opens the configured suffix tracker. The "none" backend yields a
// nil tracker, which disables the duplicate-suffix guard.
func newTracker(ctx context.Context, cfg *config.Config, log *zap.Logger) (service.SuffixTracker, func(), error) {
	switch cfg.Tracker.Backend {
	case "sheets":
		t, err := service.NewSheetsTracker(ctx, cfg.Drive, cfg.Tracker, log)
		if err != nil {
			return nil, func() {}, err
		}
		return t, func() {}, nil
	case "postgres":
		if err := db.InitDB(ctx, cfg.Database.DSN(), log); err != nil {
			return nil, func() {}, fmt.Errorf("failed to initialize database: %w", err)
		}
		closeDB := func() {
			if err := db.CloseDB(); err != nil {
				log.Warn("failed to close database", zap.Error(err))
			}
		}
		repo := repository.NewSuffixRepository(db.DB, log)
		if err := repo.EnsureSchema(ctx); err != nil {
			closeDB()
			return nil, func() {}, err
		}
		return repo, closeDB, nil
	}
	log.Warn("⚠️ SKU suffix tracker disabled, duplicate suffixes will not be detected")
	return nil, func() {}, nil
}

// sessionPool keeps one store session per profile so every caller shares
// the profile's rate limiter.
type sessionPool struct {
	cfg    *config.Config
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*shopify.Session
}

func newSessionPool(cfg *config.Config, log *zap.Logger) *sessionPool {
	return &sessionPool{cfg: cfg, logger: log, sessions: make(map[string]*shopify.Session)}
}

// Get returns the session of the profile with the given label.
func (p *sessionPool) Get(label string) (service.StoreSession, error) {
	profile, err := p.cfg.Shopify.Profile(label)
	if err != nil {
		return nil, err
	}
	key := strings.ToLower(profile.Label)

	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.sessions[key]; ok {
		return s, nil
	}
	s, err := shopify.NewSession(p.cfg, profile.Label, p.logger)
	if err != nil {
		return nil, err
	}
	p.sessions[key] = s
	return s, nil
}
