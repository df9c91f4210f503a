package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	auditpostgres "sellerpromotions/admin-api/internal/adapters/audit/postgres"
	auditrest "sellerpromotions/admin-api/internal/adapters/audit/rest"
	authhttp "sellerpromotions/admin-api/internal/adapters/http/auth"
	candidateshttp "sellerpromotions/admin-api/internal/adapters/http/candidates"
	credibilityhttp "sellerpromotions/admin-api/internal/adapters/http/credibility"
	healthhttp "sellerpromotions/admin-api/internal/adapters/http/health"
	itemshttp "sellerpromotions/admin-api/internal/adapters/http/items"
	lookuphttp "sellerpromotions/admin-api/internal/adapters/http/lookup"
	promotionshttp "sellerpromotions/admin-api/internal/adapters/http/promotions"
	"sellerpromotions/admin-api/internal/adapters/http/support"
	"sellerpromotions/admin-api/internal/adapters/middleend/restclient"
	appaudit "sellerpromotions/admin-api/internal/application/audit"
	appcandidates "sellerpromotions/admin-api/internal/application/candidates"
	appcredibility "sellerpromotions/admin-api/internal/application/credibility"
	apphealth "sellerpromotions/admin-api/internal/application/health"
	appitems "sellerpromotions/admin-api/internal/application/items"
	applookup "sellerpromotions/admin-api/internal/application/lookup"
	appmassive "sellerpromotions/admin-api/internal/application/massiveoffers"
	appoffers "sellerpromotions/admin-api/internal/application/offers"
	apppromotions "sellerpromotions/admin-api/internal/application/promotions"
	"sellerpromotions/admin-api/internal/application/siteconfig"
	coreaudit "sellerpromotions/admin-api/internal/core/audit"
	"sellerpromotions/admin-api/internal/infrastructure/cache"
	"sellerpromotions/admin-api/internal/infrastructure/config"
	"sellerpromotions/admin-api/internal/infrastructure/database"
	httpx "sellerpromotions/admin-api/internal/infrastructure/http"
	"sellerpromotions/admin-api/internal/infrastructure/http/middleware"
	"sellerpromotions/admin-api/internal/infrastructure/http/server"
	"sellerpromotions/admin-api/internal/infrastructure/logger"
	"sellerpromotions/admin-api/internal/infrastructure/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "service stopped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var checks []apphealth.Check

	var pool *pgxpool.Pool
	if cfg.Audit.Enabled && cfg.Audit.Backend == "postgres" {
		pool, err = database.NewPool(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect audit database: %w", err)
		}
		defer pool.Close()

		if err := database.RunMigrations(ctx, pool, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		log.Info("audit database connected", "database", cfg.Database.Database)
		checks = append(checks, apphealth.Check{Name: "audit-db", Ping: pool.Ping})
	}

	store := lookupStore(ctx, cfg.Cache, log)
	if redisStore, ok := store.(*cache.RedisStore); ok {
		defer redisStore.Close()
		checks = append(checks, apphealth.Check{Name: "redis", Ping: redisStore.Ping})
	}

	recorder := appaudit.NewRecorder(auditWriter(cfg, pool, log), cfg.Audit, log, m)
	defer recorder.Wait()
	log.Info("audit trail configured",
		"enabled", cfg.Audit.Enabled,
		"backend", cfg.Audit.Backend,
		"max_body_size", cfg.Audit.MaxBodySize,
	)

	authenticator, err := middleware.NewJWTAuthenticator(cfg.Auth, log)
	if err != nil {
		return fmt.Errorf("create authenticator: %w", err)
	}
	defer authenticator.Close()
	if !cfg.Auth.Enabled {
		log.Warn("authentication disabled, requests run as the development user", "user", cfg.Auth.DevUserID)
	}

	transport := httpx.NewTransport(0)
	timeouts := cfg.Middleend.Timeouts
	resolver := siteconfig.NewResolver(cfg.Middleend)
	lookupClient := restclient.New(restclient.Options{
		Resource:  "lookup",
		BaseURL:   cfg.Internal.BaseURL,
		Timeout:   timeouts.Lookup,
		Transport: transport,
		Logger:    log,
		Metrics:   m,
	})
	middleendClient := func(resource string, timeout time.Duration) *restclient.Client {
		return restclient.ForMiddleend(cfg.Middleend, resource, timeout, transport, log, m)
	}

	promotionsService := apppromotions.NewService(middleendClient("promotions", timeouts.Promotions), resolver).
		WithNavigationClient(middleendClient("navigation", timeouts.Navigation))
	offersService := appoffers.NewService(middleendClient("offers", timeouts.Offers))
	massiveService := appmassive.NewService(middleendClient("massive-offers", timeouts.MassiveOffers), resolver)
	candidatesService := appcandidates.NewService(middleendClient("candidates", timeouts.Candidates))
	itemsService := appitems.NewService(middleendClient("items", timeouts.Items))
	credibilityService := appcredibility.NewService(middleendClient("credibility", timeouts.Credibility), resolver)
	lookupService := applookup.NewService(lookupClient, store, cfg.Cache.LookupTTL, log)

	base := support.Base{
		Resolver:      resolver,
		Recorder:      recorder,
		Log:           log,
		MaxUploadSize: cfg.HTTP.MaxUploadSize,
	}
	blockade := middleware.NewAuthorizer(http.StatusUnauthorized, log)

	promotionsHandler := promotionshttp.NewHandler(promotionshttp.Options{
		Base:            base,
		Promotions:      promotionsService,
		Offers:          offersService,
		Massive:         massiveService,
		Authorizer:      blockade,
		ActionScopes:    cfg.Security.ActionScopes,
		OffersListDelay: cfg.Delays.OffersList,
	})
	candidatesHandler := candidateshttp.NewHandler(base, candidatesService, blockade, candidateshttp.Delays{
		Items:   cfg.Delays.CandidateItems,
		Invalid: cfg.Delays.InvalidCandidates,
	})
	itemsHandler := itemshttp.NewHandler(base, itemsService, blockade)
	credibilityHandler := credibilityhttp.NewHandler(base, credibilityService, blockade)
	lookupHandler := lookuphttp.NewHandler(lookupService, log)
	authHandler := authhttp.NewHandler(middleware.NewAuthorizer(http.StatusForbidden, log), log)

	healthService := apphealth.NewService(apphealth.Metadata{
		Service:     cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
	}, checks...)
	healthHandler := healthhttp.NewHandler(healthService, log)

	srv, err := server.New(server.Options{
		Config:        cfg,
		Logger:        log,
		Metrics:       m,
		Authenticator: authenticator.Middleware,
		HealthHandler: http.HandlerFunc(healthHandler.Status),
		Routes: []server.Route{
			{Prefix: "/auth", Register: authHandler.Register},
			{Prefix: "/sites", Register: lookupHandler.RegisterSites},
			{Prefix: "/promotions", Register: promotionsHandler.Register},
			{Prefix: "/promotions", Register: candidatesHandler.Register},
			{Prefix: "/credibility", Register: credibilityHandler.Register},
			{Prefix: "/items", Register: itemsHandler.Register},
			{Prefix: "/country", Register: lookupHandler.RegisterCountry},
			{Prefix: "/currency", Register: lookupHandler.RegisterCurrency},
		},
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	log.Info("starting promotions admin api",
		"port", cfg.HTTP.Port,
		"environment", cfg.App.Environment,
		"middleend_env", cfg.Middleend.Environment,
		"scope", cfg.Middleend.Scope,
	)
	return srv.Run(ctx)
}

// lookupStore prefers redis so instances share lookups; without it, or when
// it does not answer, lookups are cached in process.
func lookupStore(ctx context.Context, cfg config.CacheSettings, log *slog.Logger) cache.Store {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryStore()
	}
	store, err := cache.NewRedisStore(ctx, cfg)
	if err != nil {
		log.Warn("redis unavailable, using in-memory lookup cache", "addr", cfg.RedisAddr, "error", err)
		return cache.NewMemoryStore()
	}
	log.Info("lookup cache connected", "addr", cfg.RedisAddr)
	return store
}

func auditWriter(cfg config.AppConfig, pool *pgxpool.Pool, log *slog.Logger) coreaudit.Writer {
	if !cfg.Audit.Enabled {
		return nil
	}
	switch cfg.Audit.Backend {
	case "http":
		return auditrest.NewWriter(cfg.Audit, log)
	case "postgres":
		return auditpostgres.NewRepository(pool, log)
	default:
		return nil
	}
}
