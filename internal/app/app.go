package app

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"retentionpulse/internal/assistant"
	"retentionpulse/internal/cache"
	"retentionpulse/internal/config"
	"retentionpulse/internal/dataprocessing"
	"retentionpulse/internal/errors"
	"retentionpulse/internal/files"
	"retentionpulse/internal/infrastructure"
	customMiddleware "retentionpulse/internal/middleware"
	"retentionpulse/internal/services"
	handlers "retentionpulse/internal/transport/http"
	"retentionpulse/pkg/contracts"
)

// BuildID identifies the build in startup logs
var BuildID = generateBuildID()

func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(config.AppVersion))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        chi.Router
	Server        *http.Server
	Logger        *slog.Logger
	Services      *ServiceContainer
	OTelProviders *infrastructure.OTelProviders
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Source    files.Writable
	Cache     *cache.DatasetCache
	Dashboard *services.DashboardService
	Chat      *services.ChatService
	Health    *services.HealthService
	Metrics   *infrastructure.BusinessMetrics
}

// NewApplication loads the configuration, initializes the process logger
// and builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(context.Background(), cfg, logger)
}

// New builds the application from an already validated configuration.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("build_id", BuildID),
		slog.String("build", contracts.GetVersionInfo(config.AppVersion).FullVersionString()),
		slog.String("source", cfg.SourceDescriptor()))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry, config.AppVersion), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

func (a *Application) initializeServices(ctx context.Context) error {
	metrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}

	source, err := files.New(ctx, a.Config.Source, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create survey source: %w", err)
	}

	ingestor := dataprocessing.NewIngestor(dataprocessing.NewDateExtractor(), a.Logger)
	loader := dataprocessing.NewLoader(source, ingestor, a.Logger)
	datasetCache := cache.New(a.Config.Cache.TTL, cache.WithLoadTimeout(a.Config.Cache.LoadTimeout))

	dashboard := services.NewDashboardService(loader, source, ingestor, datasetCache, services.DashboardOptions{
		DefaultStart:  a.Config.Dashboard.StartDate(),
		MaxUploadSize: a.Config.Dashboard.MaxUploadSize,
		EnableUpload:  a.Config.Dashboard.EnableUpload,
	}, metrics, a.Logger)

	asker, err := assistant.New(ctx, a.Config.Assistant, a.Config.Source.Region, a.Logger)
	if err != nil {
		// a broken assistant must not keep the dashboard down
		a.Logger.WarnContext(ctx, "Assistant unavailable, questions will get a placeholder answer",
			slog.String("provider", a.Config.Assistant.Provider),
			slog.String("error", err.Error()))
		asker = nil
	}

	chat := services.NewChatService(dashboard, asker, assistant.NewSessionStore(assistant.DefaultMaxSessions),
		a.Config.Assistant.SystemPrompt, metrics, a.Logger)

	health := services.NewHealthService(config.AppVersion, source, datasetCache,
		a.Config.Assistant.Provider, a.assistantConfigured(asker), a.Logger)

	a.Services = &ServiceContainer{
		Source:    source,
		Cache:     datasetCache,
		Dashboard: dashboard,
		Chat:      chat,
		Health:    health,
		Metrics:   metrics,
	}
	return nil
}

func (a *Application) assistantConfigured(asker assistant.Asker) bool {
	if asker == nil {
		return false
	}
	if a.Config.Assistant.Provider == config.AssistantBedrock {
		return true
	}
	return a.Config.Assistant.AzureConfigured()
}

func (a *Application) setupRouter() {
	errorHandler := errors.NewErrorHandler(a.Logger, a.isDevelopmentMode())
	validator := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler)

	var limiter *customMiddleware.RateLimiter
	if rl := a.Config.Security.RateLimit; rl.Enabled {
		limiter = customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, errorHandler, a.Logger)
	}

	var cors *customMiddleware.CORSConfig
	if a.Config.Security.EnableCORS {
		c := a.getCORSConfig()
		cors = &c
	}

	a.Router = handlers.NewRouter(handlers.RouterConfig{
		Dashboard: handlers.NewDashboardHandler(a.Services.Dashboard, validator, a.Config.Dashboard.MaxUploadSize, a.Logger, errorHandler),
		Chat:      handlers.NewChatHandler(a.Services.Chat, validator, a.Logger, errorHandler),
		Health:    handlers.NewHealthHandler(a.Services.Health, a.Logger),
		ClientLog: handlers.NewClientLogHandler(validator, a.Logger, errorHandler),
		Metrics:   handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.Services.Cache),
		Page: handlers.ServeDashboard(handlers.PageConfig{
			Title:         config.AppName,
			Version:       config.AppVersion,
			Source:        a.Services.Source.Descriptor(),
			DefaultStart:  a.Config.Dashboard.DefaultStartDate,
			UploadEnabled: a.Config.Dashboard.EnableUpload,
			AssistantName: a.Config.Assistant.Provider,
		}, a.Logger),
		OTel:           customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Services.Metrics, a.Logger),
		RateLimiter:    limiter,
		CORS:           cors,
		RequestTimeout: a.Config.Server.RequestTimeout,
		ErrorHandler:   errorHandler,
		Logger:         a.Logger,
	})
}

// getCORSConfig returns CORS configuration for the configured origins
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins:   a.Config.Security.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		ExposedHeaders:   []string{customMiddleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

// isDevelopmentMode enables stack traces in problem responses
func (a *Application) isDevelopmentMode() bool {
	switch os.Getenv("ENVIRONMENT") {
	case "", "development", "dev":
		return a.Config.Logging.Level == "debug"
	default:
		return false
	}
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts serving in the background. A listener failure cancels ctx
// through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.Services.Cache.InvalidateAll()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.ErrorContext(ctx, "Error closing log file", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}

// performStartupHealthCheck warms the dataset cache and reports source
// problems without failing startup.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.Config.Server.RequestTimeout)
	defer cancel()

	names, err := a.Services.Source.List(ctx)
	if err != nil {
		return fmt.Errorf("survey source %s unreachable: %w", a.Services.Source.Descriptor(), err)
	}
	if len(names) == 0 {
		a.Logger.WarnContext(ctx, "No survey workbooks found",
			slog.String("source", a.Services.Source.Descriptor()))
		return nil
	}

	ds, err := a.Services.Dashboard.Dataset(ctx)
	if err != nil {
		return fmt.Errorf("initial dataset load failed: %w", err)
	}

	a.Logger.InfoContext(ctx, "Startup health check passed",
		slog.Int("files", len(names)),
		slog.Int("records", ds.Len()))
	return nil
}
