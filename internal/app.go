package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"
	token_adapter "github.com/ulisescolosimo/scraping-alquileres/internal/adapters/jwt"
	logger_adapter "github.com/ulisescolosimo/scraping-alquileres/internal/adapters/logger"
	"github.com/ulisescolosimo/scraping-alquileres/internal/adapters/notifier"
	postgres_adapter "github.com/ulisescolosimo/scraping-alquileres/internal/adapters/postgres"
	rabbitmq_adapter "github.com/ulisescolosimo/scraping-alquileres/internal/adapters/rabbitmq"
	"github.com/ulisescolosimo/scraping-alquileres/internal/adapters/session"
	"github.com/ulisescolosimo/scraping-alquileres/internal/adapters/supabase"
	"github.com/ulisescolosimo/scraping-alquileres/internal/adapters/web"
	"github.com/ulisescolosimo/scraping-alquileres/internal/configs"
	"github.com/ulisescolosimo/scraping-alquileres/internal/constants"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/usecase"
	fluentlogger "github.com/ulisescolosimo/scraping-alquileres/pkg/fluent_logger"
	"github.com/ulisescolosimo/scraping-alquileres/pkg/postgres"
	"github.com/ulisescolosimo/scraping-alquileres/pkg/rabbitmq/rabbitmq_common"
	"github.com/ulisescolosimo/scraping-alquileres/pkg/rabbitmq/rabbitmq_producer"
)

const shutdownTimeout = 10 * time.Second

// App is the composition root of the web front end.
type App struct {
	config       *configs.AppConfig
	server       *web.Server
	sseNotifier  *notifier.SSENotifier
	dbPool       *pgxpool.Pool
	connManager  *rabbitmq_common.ConnectionManager
	authProducer *rabbitmq_producer.Publisher
	fluentClient *fluent.Fluent
	logger       port.LoggerPort
}

// NewApp loads the configuration and wires every adapter and use case.
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	app := &App{config: appConfig}

	baseLogger, err := app.initLoggers()
	if err != nil {
		return nil, err
	}
	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	app.logger = appLogger

	// any failure below releases what was already opened
	ok := false
	defer func() {
		if !ok {
			app.closeResources()
		}
	}()

	supabaseClient, err := supabase.NewClient(supabase.Config{
		URL:           appConfig.Supabase.URL,
		AnonKey:       appConfig.Supabase.AnonKey,
		PropertyTable: appConfig.Supabase.PropertyTable,
		Timeout:       appConfig.Supabase.ClientTimeout,
	})
	if err != nil {
		appLogger.Error("Failed to create Supabase client", err, nil)
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	appLogger.Info("Supabase client initialized", port.Fields{"url": appConfig.Supabase.URL})

	var propertyStorage port.PropertyStoragePort = supabaseClient
	if appConfig.Database.Backend == configs.DataBackendPostgres {
		dbPool, err := postgres.NewClient(context.Background(), postgres.Config{
			DatabaseURL: appConfig.Database.URL,
			MaxConns:    int32(appConfig.Database.MaxConns),
		})
		if err != nil {
			appLogger.Error("Failed to connect to PostgreSQL", err, nil)
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		app.dbPool = dbPool

		pgStorage, err := postgres_adapter.NewPostgresPropertyStorage(dbPool, appConfig.Supabase.PropertyTable)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres property storage: %w", err)
		}
		propertyStorage = pgStorage
		appLogger.Info("Properties are read from PostgreSQL directly", nil)
	}

	var tokenVerifier port.TokenVerifierPort
	if appConfig.Supabase.JWTSecret != "" {
		verifier, err := token_adapter.NewTokenVerifier(appConfig.Supabase.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to create token verifier: %w", err)
		}
		tokenVerifier = verifier
		appLogger.Info("Access tokens are verified locally", nil)
	}

	var eventPublisher port.AuthEventPublisherPort
	if appConfig.RabbitMQ.Enabled {
		publisher, err := app.initAuthEventsPublisher(baseLogger)
		if err != nil {
			appLogger.Error("Failed to set up auth events publisher", err, nil)
			return nil, err
		}
		eventPublisher = publisher
	}

	app.sseNotifier = notifier.NewSSENotifier(baseLogger)

	cookieStore, err := session.NewCookieStore(session.Config{
		Secret: appConfig.Session.Secret,
		Secure: appConfig.Session.SecureCookie,
		MaxAge: appConfig.Session.MaxAge,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	listPropertiesUseCase := usecase.NewListPropertiesUseCase(propertyStorage)
	getPropertyUseCase := usecase.NewGetPropertyUseCase(propertyStorage)
	signInUseCase := usecase.NewSignInUseCase(supabaseClient, app.sseNotifier, eventPublisher)
	signUpUseCase := usecase.NewSignUpUseCase(supabaseClient)
	signOutUseCase := usecase.NewSignOutUseCase(supabaseClient, app.sseNotifier, eventPublisher)
	resolveSessionUseCase := usecase.NewResolveSessionUseCase(supabaseClient, tokenVerifier)
	appLogger.Info("All use cases initialized.", nil)

	views, err := web.NewViews()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	app.server = web.NewServer(web.ServerConfig{
		Port:                appConfig.Rest.Port,
		ListingsRequireAuth: appConfig.Web.ListingsRequireAuth,
		CORSAllowedOrigins:  appConfig.Web.CORSAllowedOrigins,
	}, web.Handlers{
		Pages:    web.NewPageHandler(listPropertiesUseCase, getPropertyUseCase, views),
		Auth:     web.NewAuthHandler(signInUseCase, signUpUseCase, signOutUseCase, cookieStore, views),
		Events:   web.NewEventsHandler(app.sseNotifier),
		API:      web.NewPropertyAPIHandler(listPropertiesUseCase, getPropertyUseCase),
		Sessions: web.NewSessionMiddleware(cookieStore, resolveSessionUseCase),
	}, baseLogger)
	appLogger.Info("HTTP server configured.", port.Fields{
		"data_backend":          appConfig.Database.Backend,
		"listings_require_auth": appConfig.Web.ListingsRequireAuth,
	})

	ok = true
	return app, nil
}

func (a *App) initLoggers() (port.LoggerPort, error) {
	cfg := a.config

	var activeLoggers []port.LoggerPort
	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Level:    parseLogLevel(cfg.StdoutLogger.Level),
		IsJSON:   cfg.StdoutLogger.IsJSON,
		UseColor: true,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	if cfg.FluentBit.Enabled {
		fluentClient, err := fluentlogger.NewClient(fluentlogger.Config{
			Host:      cfg.FluentBit.Host,
			Port:      cfg.FluentBit.Port,
			TagPrefix: cfg.AppName,
			Async:     true,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(cfg.FluentBit.Level))
		if err != nil {
			fluentClient.Close()
			return nil, err
		}
		a.fluentClient = fluentClient
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiLoggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{"service_name": cfg.AppName})
	baseLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers),
		"fluent_enabled": cfg.FluentBit.Enabled,
	})
	return baseLogger, nil
}

func (a *App) initAuthEventsPublisher(baseLogger port.LoggerPort) (port.AuthEventPublisherPort, error) {
	cfg := a.config.RabbitMQ

	connManagerBridge := rabbitmq_adapter.NewPkgLoggerBridge(baseLogger.WithFields(port.Fields{"component": "rabbitmq_conn_manager"}))
	connManager, err := rabbitmq_common.NewConnectionManager(rabbitmq_common.Config{URL: cfg.URL}, connManagerBridge)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection manager: %w", err)
	}
	a.connManager = connManager

	exchange := cfg.Exchange
	if exchange == "" {
		exchange = constants.ExchangeAuthEvents
	}
	producer, err := rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
		Config:                   rabbitmq_common.Config{URL: cfg.URL},
		ExchangeName:             exchange,
		ExchangeType:             constants.ExchangeTypeTopic,
		DurableExchange:          true,
		DeclareExchangeIfMissing: true,
		Logger:                   rabbitmq_adapter.NewPkgLoggerBridge(baseLogger.WithFields(port.Fields{"component": "rabbitmq_producer"})),
	}, connManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth events producer: %w", err)
	}
	a.authProducer = producer

	adapter, err := rabbitmq_adapter.NewAuthEventsPublisherAdapter(producer, constants.RoutingKeyAuthStateChanged)
	if err != nil {
		return nil, err
	}
	a.logger.Info("RabbitMQ auth events publisher initialized.", port.Fields{"exchange": exchange})
	return adapter, nil
}

// Run serves HTTP until SIGINT/SIGTERM or a server failure, then shuts down.
func (a *App) Run() error {
	defer a.shutdown()

	errorsCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorsCh <- fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	a.logger.Info("Application running. Waiting for signals or server error...", port.Fields{"port": a.config.Rest.Port})
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case err := <-errorsCh:
		a.logger.Error("A critical component failed, shutting down", err, nil)
		return err
	}
	return nil
}

func (a *App) shutdown() {
	a.logger.Info("Shutdown sequence initiated...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Stop(ctx); err != nil {
		a.logger.Error("Error during HTTP server shutdown", err, nil)
	}

	a.closeResources()
	a.logger.Info("Application shut down gracefully.", nil)

	if a.fluentClient != nil {
		if err := a.fluentClient.Close(); err != nil {
			// fluent may already be gone
			fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
		}
	}
}

// closeResources releases everything except the server and the fluent client.
func (a *App) closeResources() {
	if a.sseNotifier != nil {
		a.sseNotifier.Stop()
	}
	if a.authProducer != nil {
		if err := a.authProducer.Close(); err != nil {
			a.logger.Error("Error closing auth events producer", err, nil)
		}
	}
	if a.connManager != nil {
		if err := a.connManager.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ connection", err, nil)
		}
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.logger.Info("PostgreSQL pool closed.", nil)
	}
}

func parseLogLevel(levelStr string) slog.Level {
	level, ok := logger_adapter.ParseLevel(levelStr)
	if !ok {
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
	}
	return level
}
