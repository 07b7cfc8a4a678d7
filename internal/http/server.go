// Package http provides the API server, its router and supporting middleware.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	capabilityDomain "github.com/capdocs/capdocs/internal/capability/domain"
	capabilityHTTP "github.com/capdocs/capdocs/internal/capability/http"
	capabilityUseCase "github.com/capdocs/capdocs/internal/capability/usecase"
	collectionHTTP "github.com/capdocs/capdocs/internal/collection/http"
	documentHTTP "github.com/capdocs/capdocs/internal/document/http"
	"github.com/capdocs/capdocs/internal/metrics"
	principalHTTP "github.com/capdocs/capdocs/internal/principal/http"
	queryHTTP "github.com/capdocs/capdocs/internal/query/http"
)

// Config holds the API server's HTTP-level configuration.
type Config struct {
	Host string
	Port int

	RateLimitEnabled        bool
	RateLimitRequestsPerSec float64
	RateLimitBurst          int

	CORSEnabled      bool
	CORSAllowOrigins string

	MetricsNamespace string
}

// Server represents the API HTTP server.
type Server struct {
	config Config
	server *http.Server
	router *gin.Engine
	logger *slog.Logger

	mongoClient      *mongo.Client
	authorizeUseCase capabilityUseCase.AuthorizeUseCase
	metricsProvider  *metrics.Provider

	principalHandler  *principalHTTP.PrincipalHandler
	collectionHandler *collectionHTTP.CollectionHandler
	documentHandler   *documentHTTP.DocumentHandler
	queryHandler      *queryHTTP.QueryHandler
}

// NewServer creates a new API server. The metrics provider may be nil, in
// which case no HTTP metrics are recorded.
func NewServer(
	config Config,
	mongoClient *mongo.Client,
	logger *slog.Logger,
	authorizeUseCase capabilityUseCase.AuthorizeUseCase,
	metricsProvider *metrics.Provider,
	principalHandler *principalHTTP.PrincipalHandler,
	collectionHandler *collectionHTTP.CollectionHandler,
	documentHandler *documentHTTP.DocumentHandler,
	queryHandler *queryHTTP.QueryHandler,
) *Server {
	return &Server{
		config:            config,
		logger:            logger,
		mongoClient:       mongoClient,
		authorizeUseCase:  authorizeUseCase,
		metricsProvider:   metricsProvider,
		principalHandler:  principalHandler,
		collectionHandler: collectionHandler,
		documentHandler:   documentHandler,
		queryHandler:      queryHandler,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the Gin engine with all middleware and routes.
func (s *Server) SetupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if s.metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(s.metricsProvider.MeterProvider(), s.config.MetricsNamespace))
	}

	if corsMiddleware := createCORSMiddleware(
		s.config.CORSEnabled, s.config.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	// Health and readiness endpoints (unauthenticated)
	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	// Every /v1 route requires a verified capability chain; each endpoint then
	// declares the command namespace the presented chain must attenuate.
	v1 := router.Group("/v1")
	v1.Use(capabilityHTTP.CapabilityMiddleware(s.authorizeUseCase, s.logger))
	if s.config.RateLimitEnabled {
		v1.Use(capabilityHTTP.RateLimitMiddleware(
			s.config.RateLimitRequestsPerSec, s.config.RateLimitBurst, s.logger))
	}

	require := func(command capabilityDomain.Command) gin.HandlerFunc {
		return capabilityHTTP.RequireCommand(command, s.logger)
	}

	// Principals
	v1.POST("/builders",
		require(capabilityDomain.CommandBuildersWrite), s.principalHandler.CreateBuilderHandler)
	v1.POST("/users",
		require(capabilityDomain.CommandBuildersWrite), s.principalHandler.CreateUserHandler)
	v1.GET("/principals/me",
		require(capabilityDomain.CommandBuildersRead), s.principalHandler.GetSelfHandler)

	// Collections
	v1.POST("/collections",
		require(capabilityDomain.CommandCollectionsWrite), s.collectionHandler.CreateHandler)
	v1.GET("/collections",
		require(capabilityDomain.CommandCollectionsRead), s.collectionHandler.ListHandler)
	v1.GET("/collections/:id",
		require(capabilityDomain.CommandCollectionsRead), s.collectionHandler.GetHandler)
	v1.PUT("/collections/:id/schema",
		require(capabilityDomain.CommandCollectionsWrite), s.collectionHandler.UpdateSchemaHandler)
	v1.DELETE("/collections/:id",
		require(capabilityDomain.CommandCollectionsWrite), s.collectionHandler.DeleteHandler)

	// Documents
	v1.POST("/collections/:id/documents",
		require(capabilityDomain.CommandDocumentsWrite), s.documentHandler.CreateHandler)
	v1.GET("/collections/:id/documents",
		require(capabilityDomain.CommandDocumentsRead), s.documentHandler.ListHandler)
	v1.GET("/collections/:id/documents/:documentID",
		require(capabilityDomain.CommandDocumentsRead), s.documentHandler.GetHandler)
	v1.PUT("/collections/:id/documents/:documentID",
		require(capabilityDomain.CommandDocumentsWrite), s.documentHandler.UpdateHandler)
	v1.DELETE("/collections/:id/documents/:documentID",
		require(capabilityDomain.CommandDocumentsDelete), s.documentHandler.DeleteHandler)

	// Document ACL
	v1.POST("/collections/:id/documents/:documentID/acl",
		require(capabilityDomain.CommandACLWrite), s.documentHandler.GrantHandler)
	v1.DELETE("/collections/:id/documents/:documentID/acl",
		require(capabilityDomain.CommandACLWrite), s.documentHandler.RevokeHandler)

	// Queries and runs
	v1.POST("/queries",
		require(capabilityDomain.CommandQueriesWrite), s.queryHandler.CreateHandler)
	v1.GET("/queries",
		require(capabilityDomain.CommandQueriesRead), s.queryHandler.ListHandler)
	v1.GET("/queries/:id",
		require(capabilityDomain.CommandQueriesRead), s.queryHandler.GetHandler)
	v1.DELETE("/queries/:id",
		require(capabilityDomain.CommandQueriesWrite), s.queryHandler.DeleteHandler)
	v1.POST("/queries/:id/run",
		require(capabilityDomain.CommandQueriesRun), s.queryHandler.SubmitHandler)
	v1.GET("/queries/:id/runs",
		require(capabilityDomain.CommandQueriesRead), s.queryHandler.ListRunsHandler)
	v1.GET("/runs/:id",
		require(capabilityDomain.CommandQueriesRead), s.queryHandler.GetRunHandler)

	s.router = router
	return router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the API HTTP server.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		s.SetupRouter()
	}
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the API HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can reach its dependencies.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}

	if s.mongoClient == nil {
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.mongoClient.Ping(pingCtx, readpref.Primary()); err != nil {
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	components["database"] = "ok"
	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}
