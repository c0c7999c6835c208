package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/bankdetails"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/categories"
	"github.com/angelmondragon/storefront-backend/internal/colors"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/instance"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Env:         cfg.App.Env,
		Instance:    instance.GetID(),
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps, err := buildServices(cfg, logg, dbClient, redisClient, sessionManager, reg)
	if err != nil {
		return err
	}
	deps.Config = cfg
	deps.Logger = logg
	deps.DB = dbClient
	deps.Redis = redisClient
	deps.Sessions = sessionManager
	deps.Gatherer = reg
	deps.Metrics = metrics.NewHTTPMetrics(reg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithField(ctx, "addr", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, sessions *session.Manager, reg prometheus.Registerer) (routes.Dependencies, error) {
	conn := dbClient.DB()
	hasher := security.NewHasher(cfg.Password)
	userRepo := users.NewRepository(conn)

	var cache *products.ProductCache
	if cfg.FeatureFlags.ProductCache {
		cache = products.NewProductCache(redisClient, cfg.Catalog.ProductCacheTTL, metrics.NewCacheMetrics(reg), logg)
	}

	var (
		d    routes.Dependencies
		errs error
		err  error
	)

	d.Auth, err = auth.NewService(auth.ServiceParams{
		UserRepo:               userRepo,
		SessionManager:         sessions,
		Hasher:                 hasher,
		JWTConfig:              cfg.JWT,
		AllowAdminRegistration: !cfg.App.IsProd(),
		Logger:                 logg,
	})
	errs = multierr.Append(errs, err)

	d.Users, err = users.NewService(users.ServiceParams{Repo: userRepo, Tx: dbClient, Hasher: hasher, Logger: logg})
	errs = multierr.Append(errs, err)

	d.BankDetails, err = bankdetails.NewService(bankdetails.NewRepository(conn))
	errs = multierr.Append(errs, err)

	d.Addresses, err = address.NewService(address.NewRepository(conn), dbClient)
	errs = multierr.Append(errs, err)

	d.Categories, err = categories.NewService(categories.NewRepository(conn), dbClient)
	errs = multierr.Append(errs, err)

	d.Products, err = products.NewService(products.ServiceParams{
		Repo:             products.NewRepository(conn),
		Tx:               dbClient,
		Cache:            cache,
		Logger:           logg,
		SpecialListLimit: cfg.Catalog.SpecialListLimit,
	})
	errs = multierr.Append(errs, err)

	d.Cart, err = cart.NewService(cart.NewRepository(conn))
	errs = multierr.Append(errs, err)

	orderParams := orders.ServiceParams{
		Repo:    orders.NewRepository(conn),
		Tx:      dbClient,
		Metrics: metrics.NewOrderMetrics(reg),
		Logger:  logg,
	}
	if cache != nil {
		orderParams.Products = cache
	}
	d.Orders, err = orders.NewService(orderParams)
	errs = multierr.Append(errs, err)

	d.Reviews, err = reviews.NewService(reviews.NewRepository(conn), logg)
	errs = multierr.Append(errs, err)

	d.Coupons, err = coupons.NewService(coupons.NewRepository(conn))
	errs = multierr.Append(errs, err)

	d.Colors, err = colors.NewService(colors.NewRepository(conn))
	errs = multierr.Append(errs, err)

	return d, errs
}
