package app

import (
	"fmt"

	collectionHTTP "github.com/capdocs/capdocs/internal/collection/http"
	collectionRepository "github.com/capdocs/capdocs/internal/collection/repository"
	collectionUseCase "github.com/capdocs/capdocs/internal/collection/usecase"
	documentHTTP "github.com/capdocs/capdocs/internal/document/http"
	documentRepository "github.com/capdocs/capdocs/internal/document/repository"
	documentUseCase "github.com/capdocs/capdocs/internal/document/usecase"
	internalHTTP "github.com/capdocs/capdocs/internal/http"
	principalHTTP "github.com/capdocs/capdocs/internal/principal/http"
	queryHTTP "github.com/capdocs/capdocs/internal/query/http"
	queryRepository "github.com/capdocs/capdocs/internal/query/repository"
	queryUseCase "github.com/capdocs/capdocs/internal/query/usecase"
	queryWorker "github.com/capdocs/capdocs/internal/query/worker"
)

// CollectionUseCase returns the collection use case instance.
func (c *Container) CollectionUseCase() (collectionUseCase.CollectionUseCase, error) {
	var err error
	c.collectionUseCaseInit.Do(func() {
		c.collectionUseCase, err = c.initCollectionUseCase()
		if err != nil {
			c.initErrors["collectionUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["collectionUseCase"]; exists {
		return nil, storedErr
	}
	return c.collectionUseCase, nil
}

// DocumentUseCase returns the document use case instance.
func (c *Container) DocumentUseCase() (documentUseCase.DocumentUseCase, error) {
	var err error
	c.documentUseCaseInit.Do(func() {
		c.documentUseCase, err = c.initDocumentUseCase()
		if err != nil {
			c.initErrors["documentUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["documentUseCase"]; exists {
		return nil, storedErr
	}
	return c.documentUseCase, nil
}

// QueryUseCase returns the query use case instance.
func (c *Container) QueryUseCase() (queryUseCase.QueryUseCase, error) {
	var err error
	c.queryUseCaseInit.Do(func() {
		c.queryUseCase, err = c.initQueryUseCase()
		if err != nil {
			c.initErrors["queryUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["queryUseCase"]; exists {
		return nil, storedErr
	}
	return c.queryUseCase, nil
}

// RunWorker returns the query-run worker instance.
func (c *Container) RunWorker() (*queryWorker.Worker, error) {
	var err error
	c.runWorkerInit.Do(func() {
		c.runWorker, err = c.initRunWorker()
		if err != nil {
			c.initErrors["runWorker"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["runWorker"]; exists {
		return nil, storedErr
	}
	return c.runWorker, nil
}

// initCollectionUseCase creates the collection use case with its dependencies.
func (c *Container) initCollectionUseCase() (collectionUseCase.CollectionUseCase, error) {
	db, err := c.MongoDatabase()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for collection use case: %w", err)
	}

	principals, err := c.PrincipalUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get principal use case for collection use case: %w", err)
	}

	collections := collectionRepository.NewMongoDBCollectionRepository(db)
	documents := documentRepository.NewMongoDBDocumentRepository(db)

	return collectionUseCase.NewCollectionUseCase(collections, documents, principals, c.Logger()), nil
}

// initDocumentUseCase creates the document use case with its dependencies.
func (c *Container) initDocumentUseCase() (documentUseCase.DocumentUseCase, error) {
	db, err := c.MongoDatabase()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for document use case: %w", err)
	}

	principals, err := c.PrincipalUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get principal use case for document use case: %w", err)
	}

	documents := documentRepository.NewMongoDBDocumentRepository(db)
	collections := collectionRepository.NewMongoDBCollectionRepository(db)

	return documentUseCase.NewDocumentUseCase(
		documents,
		collections,
		c.AccessFilter(),
		principals,
		c.Logger(),
	), nil
}

// initQueryUseCase creates the query use case with its dependencies.
func (c *Container) initQueryUseCase() (queryUseCase.QueryUseCase, error) {
	db, err := c.MongoDatabase()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for query use case: %w", err)
	}

	principals, err := c.PrincipalUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get principal use case for query use case: %w", err)
	}

	queries := queryRepository.NewMongoDBQueryRepository(db)
	runs := queryRepository.NewMongoDBRunRepository(db)
	collections := collectionRepository.NewMongoDBCollectionRepository(db)

	return queryUseCase.NewQueryUseCase(queries, runs, collections, principals, c.Logger()), nil
}

// initRunWorker creates the query-run worker with its dependencies.
func (c *Container) initRunWorker() (*queryWorker.Worker, error) {
	db, err := c.MongoDatabase()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for run worker: %w", err)
	}

	principals, err := c.PrincipalUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get principal use case for run worker: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for run worker: %w", err)
	}

	queries := queryRepository.NewMongoDBQueryRepository(db)
	runs := queryRepository.NewMongoDBRunRepository(db)
	collections := collectionRepository.NewMongoDBCollectionRepository(db)
	documents := documentRepository.NewMongoDBDocumentRepository(db)

	return queryWorker.NewWorker(
		runs,
		queries,
		collections,
		documents,
		c.AccessFilter(),
		principals,
		businessMetrics,
		c.config.QueryWorkerCount,
		c.config.QueryWorkerInterval,
		c.config.QueryResultCap,
		c.Logger(),
	), nil
}

// initHTTPServer creates the API server with all its handlers.
func (c *Container) initHTTPServer() (*internalHTTP.Server, error) {
	logger := c.Logger()

	mongoClient, err := c.MongoClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get mongodb client for http server: %w", err)
	}

	authorize, err := c.AuthorizeUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get authorize use case for http server: %w", err)
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	principals, err := c.PrincipalUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get principal use case for http server: %w", err)
	}

	collections, err := c.CollectionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get collection use case for http server: %w", err)
	}

	documents, err := c.DocumentUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get document use case for http server: %w", err)
	}

	queries, err := c.QueryUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get query use case for http server: %w", err)
	}

	server := internalHTTP.NewServer(
		internalHTTP.Config{
			Host:                    c.config.ServerHost,
			Port:                    c.config.ServerPort,
			RateLimitEnabled:        c.config.RateLimitEnabled,
			RateLimitRequestsPerSec: c.config.RateLimitRequestsPerSec,
			RateLimitBurst:          c.config.RateLimitBurst,
			CORSEnabled:             c.config.CORSEnabled,
			CORSAllowOrigins:        c.config.CORSAllowOrigins,
			MetricsNamespace:        c.config.MetricsNamespace,
		},
		mongoClient,
		logger,
		authorize,
		metricsProvider,
		principalHTTP.NewPrincipalHandler(principals, logger),
		collectionHTTP.NewCollectionHandler(collections, logger),
		documentHTTP.NewDocumentHandler(documents, logger),
		queryHTTP.NewQueryHandler(queries, logger),
	)

	server.SetupRouter()
	return server, nil
}
