// Package worker executes pending query runs.
package worker

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/sync/errgroup"

	collectionDomain "github.com/capdocs/capdocs/internal/collection/domain"
	collectionService "github.com/capdocs/capdocs/internal/collection/service"
	"github.com/capdocs/capdocs/internal/metrics"
	principalUseCase "github.com/capdocs/capdocs/internal/principal/usecase"
	queryDomain "github.com/capdocs/capdocs/internal/query/domain"
	queryUseCase "github.com/capdocs/capdocs/internal/query/usecase"
)

// DocumentAggregator runs aggregation pipelines against a collection's
// documents.
type DocumentAggregator interface {
	Aggregate(
		ctx context.Context,
		collection *collectionDomain.Collection,
		pipeline []bson.M,
		resultCap int,
	) ([]bson.M, error)
}

// Worker polls for pending runs and advances them to a terminal state.
//
// Claims are atomic, terminal transitions are conditional on the running
// state, and execution errors land in the run's error list instead of
// propagating: a duplicated or retried worker can never corrupt a terminal
// run, and a failed run never fails the submitter's request.
type Worker struct {
	runs         queryUseCase.RunRepository
	queries      queryUseCase.QueryRepository
	collections  queryUseCase.CollectionReader
	documents    DocumentAggregator
	accessFilter collectionService.AccessFilter
	principals   principalUseCase.PrincipalUseCase
	metrics      metrics.BusinessMetrics
	count        int
	interval     time.Duration
	resultCap    int
	logger       *slog.Logger
}

// NewWorker creates a run worker. Count is the number of concurrent
// executors, interval the idle poll delay, resultCap the maximum number of
// result documents attached to a completed run.
func NewWorker(
	runs queryUseCase.RunRepository,
	queries queryUseCase.QueryRepository,
	collections queryUseCase.CollectionReader,
	documents DocumentAggregator,
	accessFilter collectionService.AccessFilter,
	principals principalUseCase.PrincipalUseCase,
	businessMetrics metrics.BusinessMetrics,
	count int,
	interval time.Duration,
	resultCap int,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		runs:         runs,
		queries:      queries,
		collections:  collections,
		documents:    documents,
		accessFilter: accessFilter,
		principals:   principals,
		metrics:      businessMetrics,
		count:        count,
		interval:     interval,
		resultCap:    resultCap,
		logger:       logger,
	}
}

// Run starts the executor pool and blocks until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.count; i++ {
		group.Go(func() error {
			w.loop(ctx)
			return nil
		})
	}
	return group.Wait()
}

// loop claims and executes runs until the context is canceled, sleeping for
// the poll interval when no work is pending.
func (w *Worker) loop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		run, err := w.runs.ClaimPending(ctx)
		if err != nil {
			w.logger.Error("failed to claim pending run", slog.Any("error", err))
		} else if run != nil {
			w.execute(ctx, run)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.interval):
		}
	}
}

// execute advances one claimed run to a terminal state.
func (w *Worker) execute(ctx context.Context, run *queryDomain.Run) {
	start := time.Now()

	result, err := w.evaluate(ctx, run)
	if err != nil {
		w.metrics.RecordDuration(ctx, "queries", "query_run", time.Since(start), "error")
		w.fail(ctx, run, err)
		return
	}
	w.metrics.RecordDuration(ctx, "queries", "query_run", time.Since(start), "complete")

	if err := w.runs.Complete(ctx, run.ID, result); err != nil {
		w.logger.Error("failed to complete run",
			slog.String("run_id", run.ID.String()),
			slog.Any("error", err))
		return
	}

	w.logger.Info("run complete",
		slog.String("run_id", run.ID.String()),
		slog.Int("result_count", len(result)))
}

// evaluate executes the run's pipeline with bound variables, scoped by the
// submitting principal's access.
func (w *Worker) evaluate(ctx context.Context, run *queryDomain.Run) ([]map[string]any, error) {
	query, err := w.queries.GetByID(ctx, run.Query)
	if err != nil {
		return nil, err
	}

	collection, err := w.collections.GetByID(ctx, query.Collection)
	if err != nil {
		return nil, err
	}

	principal, err := w.principals.Load(ctx, run.Principal)
	if err != nil {
		return nil, err
	}

	// The access scope is evaluated at execution time, against the ACL state
	// of that moment, never one captured at submission.
	scope, err := w.accessFilter.Scope(principal, collection, collectionDomain.PermissionExecute, nil)
	if err != nil {
		return nil, err
	}

	bound := queryDomain.BindPipeline(query.Pipeline, run.Bindings)
	pipeline := make([]bson.M, 0, len(bound)+1)
	pipeline = append(pipeline, bson.M{"$match": scope})
	for _, stage := range bound {
		pipeline = append(pipeline, bson.M(stage))
	}

	results, err := w.documents.Aggregate(ctx, collection, pipeline, w.resultCap)
	if err != nil {
		return nil, err
	}

	mapped := make([]map[string]any, len(results))
	for i, result := range results {
		mapped[i] = map[string]any(result)
	}
	return mapped, nil
}

// fail records an execution error on the run.
func (w *Worker) fail(ctx context.Context, run *queryDomain.Run, cause error) {
	w.logger.Warn("run failed",
		slog.String("run_id", run.ID.String()),
		slog.Any("error", cause))

	if err := w.runs.Fail(ctx, run.ID, []string{cause.Error()}); err != nil {
		w.logger.Error("failed to record run failure",
			slog.String("run_id", run.ID.String()),
			slog.Any("error", err))
	}
}
