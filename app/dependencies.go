package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agentfleet/control-plane/config"
	"github.com/agentfleet/control-plane/handlers"
	"github.com/agentfleet/control-plane/middleware"
	"github.com/agentfleet/control-plane/store"
	"github.com/agentfleet/control-plane/store/postgres"
)

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection: constructed once at process
// start and passed by reference, never a process-wide singleton.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	Store  store.Store

	// Middleware
	AuthMiddleware *middleware.AuthMiddleware

	// Handlers
	TicketHandler   *handlers.TicketHandler
	JobHandler      *handlers.JobHandler
	ApprovalHandler *handlers.ApprovalHandler
	AuditHandler    *handlers.AuditHandler
	HealthHandler   *handlers.HealthHandler

	pgStore *postgres.Store
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initStore(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	deps.AuthMiddleware = middleware.NewAuthMiddleware(cfg.Auth.Secret, logger)

	deps.TicketHandler = handlers.NewTicketHandler(deps.Store, logger)
	deps.JobHandler = handlers.NewJobHandler(deps.Store, logger)
	deps.ApprovalHandler = handlers.NewApprovalHandler(deps.Store, logger)
	deps.AuditHandler = handlers.NewAuditHandler(deps.Store, logger)
	deps.HealthHandler = handlers.NewHealthHandler(deps.Store, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initStore opens the postgres-backed store and prepares its schema
func (d *Dependencies) initStore(ctx context.Context, cfg *config.Config) error {
	pg, err := postgres.New(cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	if err := pg.Ping(ctx); err != nil {
		_ = pg.Close()
		return fmt.Errorf("store ping failed: %w", err)
	}

	if err := pg.InitSchema(ctx); err != nil {
		_ = pg.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.pgStore = pg
	d.Store = pg

	d.Logger.Info("store connection established",
		zap.String("connection", cfg.Database.LogString()))

	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.pgStore != nil {
		if err := d.pgStore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close store: %w", err))
		} else {
			d.Logger.Info("store connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
