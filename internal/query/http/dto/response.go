package dto

import (
	"time"

	queryDomain "github.com/capdocs/capdocs/internal/query/domain"
)

// VariableResponse represents one template variable in API responses.
type VariableResponse struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// QueryResponse represents a stored query in API responses.
type QueryResponse struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Collection string             `json:"collection"`
	Pipeline   []map[string]any   `json:"pipeline"`
	Variables  []VariableResponse `json:"variables,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// MapQueryToResponse converts a domain query to an API response.
func MapQueryToResponse(query *queryDomain.Query) QueryResponse {
	variables := make([]VariableResponse, 0, len(query.Variables))
	for _, variable := range query.Variables {
		variables = append(variables, VariableResponse{
			Name: variable.Name,
			Path: variable.Path,
		})
	}
	if len(variables) == 0 {
		variables = nil
	}

	return QueryResponse{
		ID:         query.ID.String(),
		Name:       query.Name,
		Collection: query.Collection.String(),
		Pipeline:   query.Pipeline,
		Variables:  variables,
		CreatedAt:  query.CreatedAt,
		UpdatedAt:  query.UpdatedAt,
	}
}

// ListQueriesResponse represents a paginated list of queries in API responses.
type ListQueriesResponse struct {
	Data []QueryResponse `json:"data"`
}

// MapQueriesToListResponse converts a slice of domain queries to a list response.
func MapQueriesToListResponse(queries []*queryDomain.Query) ListQueriesResponse {
	data := make([]QueryResponse, 0, len(queries))
	for _, query := range queries {
		data = append(data, MapQueryToResponse(query))
	}

	return ListQueriesResponse{
		Data: data,
	}
}

// RunResponse represents a query run in API responses. Result and Errors are
// only present once the run reaches a terminal state.
type RunResponse struct {
	ID          string           `json:"id"`
	Query       string           `json:"query"`
	Status      string           `json:"status"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Result      []map[string]any `json:"result,omitempty"`
	Errors      []string         `json:"errors,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// MapRunToResponse converts a domain run to an API response.
func MapRunToResponse(run *queryDomain.Run) RunResponse {
	response := RunResponse{
		ID:          run.ID.String(),
		Query:       run.Query.String(),
		Status:      string(run.Status),
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		CreatedAt:   run.CreatedAt,
	}
	if run.Status.Terminal() {
		response.Result = run.Result
		response.Errors = run.Errors
	}
	return response
}

// ListRunsResponse represents a paginated list of runs in API responses.
type ListRunsResponse struct {
	Data []RunResponse `json:"data"`
}

// MapRunsToListResponse converts a slice of domain runs to a list response.
func MapRunsToListResponse(runs []*queryDomain.Run) ListRunsResponse {
	data := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		data = append(data, MapRunToResponse(run))
	}

	return ListRunsResponse{
		Data: data,
	}
}
