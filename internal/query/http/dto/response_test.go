package dto

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	queryDomain "github.com/capdocs/capdocs/internal/query/domain"
)

func TestMapRunToResponse(t *testing.T) {
	now := time.Now().UTC()

	newRun := func(status queryDomain.RunStatus) *queryDomain.Run {
		return &queryDomain.Run{
			ID:        uuid.New(),
			Query:     uuid.New(),
			Status:    status,
			Result:    []map[string]any{{"customer": "c-1"}},
			Errors:    []string{"unknown stage"},
			CreatedAt: now,
		}
	}

	t.Run("NonTerminalRunCarriesNoResultOrErrors", func(t *testing.T) {
		for _, status := range []queryDomain.RunStatus{queryDomain.RunPending, queryDomain.RunRunning} {
			response := MapRunToResponse(newRun(status))

			assert.Equal(t, string(status), response.Status)
			assert.Nil(t, response.Result)
			assert.Nil(t, response.Errors)
		}
	})

	t.Run("CompleteRunCarriesResult", func(t *testing.T) {
		run := newRun(queryDomain.RunComplete)
		run.Errors = nil

		response := MapRunToResponse(run)

		assert.Equal(t, "complete", response.Status)
		assert.Equal(t, run.Result, response.Result)
		assert.Nil(t, response.Errors)
	})

	t.Run("ErrorRunCarriesErrorList", func(t *testing.T) {
		run := newRun(queryDomain.RunError)
		run.Result = nil

		response := MapRunToResponse(run)

		assert.Equal(t, "error", response.Status)
		assert.Equal(t, run.Errors, response.Errors)
		assert.Nil(t, response.Result)
	})
}
