package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/sandeepkv93/product-catalog-api/internal/app"
	"github.com/sandeepkv93/product-catalog-api/internal/config"
	"github.com/sandeepkv93/product-catalog-api/internal/database"
	"github.com/sandeepkv93/product-catalog-api/internal/health"
	"github.com/sandeepkv93/product-catalog-api/internal/http/handler"
	"github.com/sandeepkv93/product-catalog-api/internal/http/router"
	"github.com/sandeepkv93/product-catalog-api/internal/observability"
	"github.com/sandeepkv93/product-catalog-api/internal/repository"
	"github.com/sandeepkv93/product-catalog-api/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(provideProductRepository)

var MediaSet = wire.NewSet(
	provideMediaGateway,
	provideIdentifierExtractor,
)

var ServiceSet = wire.NewSet(
	service.NewProductService,
	service.NewMediaService,
	wire.Bind(new(service.ProductService), new(*service.ProductServiceImpl)),
	wire.Bind(new(service.MediaUploader), new(*service.MediaService)),
)

var HTTPSet = wire.NewSet(
	handler.NewProductHandler,
	handler.NewMediaHandler,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(provideApp)

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

// provideRuntimeDB opens and migrates the relational store. It yields a nil
// handle when the in-memory store is configured.
func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg.StoreBackend == config.StoreBackendMemory {
		return nil, nil
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func provideProductRepository(cfg *config.Config, db *gorm.DB) (repository.ProductRepository, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		return repository.NewMemoryProductRepository(), nil
	case config.StoreBackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("product repository: database not initialized")
		}
		return repository.NewProductRepository(db), nil
	default:
		return nil, fmt.Errorf("product repository: unknown store backend %q", cfg.StoreBackend)
	}
}

func provideMediaGateway(cfg *config.Config) (service.MediaGateway, error) {
	var (
		gw  service.MediaGateway
		err error
	)
	switch cfg.MediaProvider {
	case config.MediaProviderCloudinary:
		gw, err = service.NewCloudinaryMediaGateway(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.MediaFolder)
	case config.MediaProviderMinIO:
		gw, err = service.NewMinIOMediaGateway(service.MinIOGatewayConfig{
			Endpoint:      cfg.MinIOEndpoint,
			AccessKey:     cfg.MinIOAccessKey,
			SecretKey:     cfg.MinIOSecretKey,
			Bucket:        cfg.MinIOBucket,
			UseSSL:        cfg.MinIOUseSSL,
			Folder:        cfg.MediaFolder,
			PublicBaseURL: cfg.MinIOPublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("media gateway: unknown provider %q", cfg.MediaProvider)
	}
	if err != nil {
		return nil, err
	}
	return service.NewInstrumentedMediaGateway(gw, cfg.MediaProvider), nil
}

func provideIdentifierExtractor(cfg *config.Config) service.IdentifierExtractor {
	return service.NewPathSegmentExtractor(cfg.MediaFolder)
}

func provideRouterDependencies(
	productHandler *handler.ProductHandler,
	mediaHandler *handler.MediaHandler,
	readiness *health.ProbeRunner,
	cfg *config.Config,
	logger *slog.Logger,
) router.Dependencies {
	return router.Dependencies{
		ProductHandler: productHandler,
		MediaHandler:   mediaHandler,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		Readiness:      readiness,
		EnableOTelHTTP: cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
		Logger:         logger,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, media service.MediaGateway) *health.ProbeRunner {
	return health.NewProbeRunner(
		cfg.ReadinessProbeTimeout,
		cfg.ServerStartGracePeriod,
		health.NewDBChecker(db),
		health.NewMediaChecker(cfg.MediaProvider, media),
	)
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	readiness *health.ProbeRunner,
) *app.App {
	return app.New(cfg, logger, server, runtime, db, readiness)
}
