// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"go.mongodb.org/mongo-driver/v2/mongo"

	capabilityUseCase "github.com/capdocs/capdocs/internal/capability/usecase"
	collectionService "github.com/capdocs/capdocs/internal/collection/service"
	collectionUseCase "github.com/capdocs/capdocs/internal/collection/usecase"
	"github.com/capdocs/capdocs/internal/config"
	documentUseCase "github.com/capdocs/capdocs/internal/document/usecase"
	internalHTTP "github.com/capdocs/capdocs/internal/http"
	"github.com/capdocs/capdocs/internal/metrics"
	"github.com/capdocs/capdocs/internal/mongodb"
	principalUseCase "github.com/capdocs/capdocs/internal/principal/usecase"
	queryUseCase "github.com/capdocs/capdocs/internal/query/usecase"
	queryWorker "github.com/capdocs/capdocs/internal/query/worker"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	mongoClient     *mongo.Client
	mongoDatabase   *mongo.Database
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Services
	accessFilter collectionService.AccessFilter

	// Use Cases
	principalUseCase  principalUseCase.PrincipalUseCase
	authorizeUseCase  capabilityUseCase.AuthorizeUseCase
	collectionUseCase collectionUseCase.CollectionUseCase
	documentUseCase   documentUseCase.DocumentUseCase
	queryUseCase      queryUseCase.QueryUseCase

	// Servers and Workers
	httpServer    *internalHTTP.Server
	metricsServer *internalHTTP.MetricsServer
	runWorker     *queryWorker.Worker

	// Initialization flags and mutex for thread-safety
	mu                    sync.Mutex
	loggerInit            sync.Once
	mongoInit             sync.Once
	metricsProviderInit   sync.Once
	businessMetricsInit   sync.Once
	accessFilterInit      sync.Once
	principalUseCaseInit  sync.Once
	authorizeUseCaseInit  sync.Once
	collectionUseCaseInit sync.Once
	documentUseCaseInit   sync.Once
	queryUseCaseInit      sync.Once
	httpServerInit        sync.Once
	metricsServerInit     sync.Once
	runWorkerInit         sync.Once
	initErrors            map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// MongoClient returns the MongoDB client connection.
func (c *Container) MongoClient() (*mongo.Client, error) {
	if err := c.initMongo(); err != nil {
		return nil, err
	}
	return c.mongoClient, nil
}

// MongoDatabase returns the service database handle.
func (c *Container) MongoDatabase() (*mongo.Database, error) {
	if err := c.initMongo(); err != nil {
		return nil, err
	}
	return c.mongoDatabase, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. When metrics are
// disabled a no-op recorder is returned.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		provider, providerErr := c.MetricsProvider()
		if providerErr != nil {
			c.initErrors["businessMetrics"] = providerErr
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		c.businessMetrics, err = metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// AccessFilter returns the stateless ACL/ownership filter builder.
func (c *Container) AccessFilter() collectionService.AccessFilter {
	c.accessFilterInit.Do(func() {
		c.accessFilter = collectionService.NewAccessFilter()
	})
	return c.accessFilter
}

// HTTPServer returns the API server instance.
func (c *Container) HTTPServer() (*internalHTTP.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server instance, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*internalHTTP.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		provider, providerErr := c.MetricsProvider()
		if providerErr != nil {
			c.initErrors["metricsServer"] = providerErr
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = internalHTTP.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown HTTP server if initialized
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	// Shutdown metrics server if initialized
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Shutdown metrics provider if initialized
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Disconnect MongoDB client if initialized
	if c.mongoClient != nil {
		if err := c.mongoClient.Disconnect(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("mongodb disconnect: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initMongo establishes the MongoDB connection and database handle.
func (c *Container) initMongo() error {
	var err error
	c.mongoInit.Do(func() {
		c.mongoClient, err = mongodb.Connect(context.Background(), mongodb.Config{
			URI:              c.config.MongoURI,
			Database:         c.config.MongoDatabase,
			ConnectTimeout:   c.config.MongoConnectTimeout,
			OperationTimeout: c.config.MongoOperationTimeout,
		})
		if err != nil {
			c.initErrors["mongo"] = fmt.Errorf("failed to connect to mongodb: %w", err)
			return
		}
		c.mongoDatabase = c.mongoClient.Database(c.config.MongoDatabase)
	})
	if err != nil {
		return c.initErrors["mongo"]
	}
	if storedErr, exists := c.initErrors["mongo"]; exists {
		return storedErr
	}
	return nil
}
