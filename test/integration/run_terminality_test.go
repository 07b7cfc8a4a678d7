// Package integration provides end-to-end tests against a real MongoDB
// deployment. The target is taken from MONGO_URI (default localhost); tests
// are skipped when no deployment is reachable.
package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/capdocs/capdocs/internal/errors"
	"github.com/capdocs/capdocs/internal/mongodb"
	queryDomain "github.com/capdocs/capdocs/internal/query/domain"
	queryRepository "github.com/capdocs/capdocs/internal/query/repository"
	queryUseCase "github.com/capdocs/capdocs/internal/query/usecase"
)

// setupRunRepository connects to MongoDB and returns a run repository backed
// by a throwaway database that is dropped when the test finishes.
func setupRunRepository(t *testing.T) (context.Context, queryUseCase.RunRepository) {
	t.Helper()

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	databaseName := fmt.Sprintf("capdocs_test_%s", uuid.New().String()[:8])

	ctx := context.Background()
	client, err := mongodb.Connect(ctx, mongodb.Config{
		URI:              uri,
		Database:         databaseName,
		ConnectTimeout:   5 * time.Second,
		OperationTimeout: 10 * time.Second,
	})
	if err != nil {
		t.Skipf("mongodb unavailable: %v", err)
	}

	database := client.Database(databaseName)
	t.Cleanup(func() {
		_ = database.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	return ctx, queryRepository.NewMongoDBRunRepository(database)
}

// claimRun creates and claims a run, returning it in the running state.
func claimRun(ctx context.Context, t *testing.T, runs queryUseCase.RunRepository) *queryDomain.Run {
	t.Helper()

	run := &queryDomain.Run{
		ID:        uuid.New(),
		Query:     uuid.New(),
		Principal: "did:key:zTester",
		Status:    queryDomain.RunPending,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, runs.Create(ctx, run))

	claimed, err := runs.ClaimPending(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	require.Equal(t, run.ID, claimed.ID)
	require.Equal(t, queryDomain.RunRunning, claimed.Status)

	return claimed
}

func TestRunTerminality(t *testing.T) {
	// Skip if short mode (integration tests can be slow)
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	t.Run("CompletedRunIgnoresLateTransitions", func(t *testing.T) {
		ctx, runs := setupRunRepository(t)
		claimed := claimRun(ctx, t, runs)

		result := []map[string]any{{"customer": "c-1"}}
		require.NoError(t, runs.Complete(ctx, claimed.ID, result))

		snapshot, err := runs.GetByID(ctx, claimed.ID)
		require.NoError(t, err)
		require.Equal(t, queryDomain.RunComplete, snapshot.Status)
		require.Equal(t, result, snapshot.Result)

		// A retried or duplicated worker hitting a terminal run gets a
		// not-found and changes nothing.
		err = runs.Fail(ctx, claimed.ID, []string{"late failure"})
		assert.True(t, apperrors.Is(err, queryDomain.ErrRunNotFound))

		err = runs.Complete(ctx, claimed.ID, []map[string]any{{"customer": "c-2"}})
		assert.True(t, apperrors.Is(err, queryDomain.ErrRunNotFound))

		again, err := runs.GetByID(ctx, claimed.ID)
		require.NoError(t, err)
		assert.Equal(t, snapshot, again)
	})

	t.Run("FailedRunIgnoresLateTransitions", func(t *testing.T) {
		ctx, runs := setupRunRepository(t)
		claimed := claimRun(ctx, t, runs)

		require.NoError(t, runs.Fail(ctx, claimed.ID, []string{"unknown stage"}))

		snapshot, err := runs.GetByID(ctx, claimed.ID)
		require.NoError(t, err)
		require.Equal(t, queryDomain.RunError, snapshot.Status)
		require.Equal(t, []string{"unknown stage"}, snapshot.Errors)

		err = runs.Complete(ctx, claimed.ID, []map[string]any{{"customer": "c-1"}})
		assert.True(t, apperrors.Is(err, queryDomain.ErrRunNotFound))

		err = runs.Fail(ctx, claimed.ID, []string{"second failure"})
		assert.True(t, apperrors.Is(err, queryDomain.ErrRunNotFound))

		again, err := runs.GetByID(ctx, claimed.ID)
		require.NoError(t, err)
		assert.Equal(t, snapshot, again)
	})

	t.Run("TerminalRunIsNeverReclaimed", func(t *testing.T) {
		ctx, runs := setupRunRepository(t)
		claimed := claimRun(ctx, t, runs)

		require.NoError(t, runs.Complete(ctx, claimed.ID, nil))

		reclaimed, err := runs.ClaimPending(ctx)
		require.NoError(t, err)
		assert.Nil(t, reclaimed)
	})
}
