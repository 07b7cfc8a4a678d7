// Package http provides HTTP handlers for stored queries and runs.
package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	capabilityHTTP "github.com/capdocs/capdocs/internal/capability/http"
	apperrors "github.com/capdocs/capdocs/internal/errors"
	"github.com/capdocs/capdocs/internal/httputil"
	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
	queryDomain "github.com/capdocs/capdocs/internal/query/domain"
	"github.com/capdocs/capdocs/internal/query/http/dto"
	queryUseCase "github.com/capdocs/capdocs/internal/query/usecase"
	customValidation "github.com/capdocs/capdocs/internal/validation"
)

// QueryHandler handles HTTP requests for stored queries and their runs.
type QueryHandler struct {
	queryUseCase queryUseCase.QueryUseCase
	logger       *slog.Logger
}

// NewQueryHandler creates a new query handler with required dependencies.
func NewQueryHandler(
	queryUseCase queryUseCase.QueryUseCase,
	logger *slog.Logger,
) *QueryHandler {
	return &QueryHandler{
		queryUseCase: queryUseCase,
		logger:       logger,
	}
}

// CreateHandler defines a new stored query.
// POST /v1/queries - Requires command capdocs/queries/write.
// Returns 201 Created with the stored query.
func (h *QueryHandler) CreateHandler(c *gin.Context) {
	builder, ok := h.requireBuilder(c)
	if !ok {
		return
	}

	var req dto.CreateQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	collectionID, err := uuid.Parse(req.Collection)
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid collection ID format: must be a valid UUID"),
			h.logger)
		return
	}

	variables := make([]queryDomain.Variable, 0, len(req.Variables))
	for _, variable := range req.Variables {
		variables = append(variables, queryDomain.Variable{
			Name: variable.Name,
			Path: variable.Path,
		})
	}

	query, err := h.queryUseCase.Create(
		c.Request.Context(), builder, req.Name, collectionID, req.Pipeline, variables)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapQueryToResponse(query)
	c.JSON(http.StatusCreated, response)
}

// GetHandler returns a stored query.
// GET /v1/queries/:id - Requires command capdocs/queries/read.
// Returns 200 OK with the query.
func (h *QueryHandler) GetHandler(c *gin.Context) {
	builder, ok := h.requireBuilder(c)
	if !ok {
		return
	}

	queryID, ok := h.parseQueryID(c)
	if !ok {
		return
	}

	query, err := h.queryUseCase.Get(c.Request.Context(), builder, queryID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapQueryToResponse(query)
	c.JSON(http.StatusOK, response)
}

// ListHandler returns a page of the builder's queries.
// GET /v1/queries - Requires command capdocs/queries/read.
// Returns 200 OK with a paginated list.
func (h *QueryHandler) ListHandler(c *gin.Context) {
	builder, ok := h.requireBuilder(c)
	if !ok {
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	queries, err := h.queryUseCase.List(c.Request.Context(), builder, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapQueriesToListResponse(queries)
	c.JSON(http.StatusOK, response)
}

// DeleteHandler removes a stored query. Existing runs stay readable.
// DELETE /v1/queries/:id - Requires command capdocs/queries/write.
// Returns 204 No Content.
func (h *QueryHandler) DeleteHandler(c *gin.Context) {
	builder, ok := h.requireBuilder(c)
	if !ok {
		return
	}

	queryID, ok := h.parseQueryID(c)
	if !ok {
		return
	}

	if err := h.queryUseCase.Delete(c.Request.Context(), builder, queryID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// SubmitHandler enqueues a new run of a stored query.
// POST /v1/queries/:id/run - Requires command capdocs/queries/run.
// Returns 202 Accepted with the pending run; execution is observed by
// polling the run resource.
func (h *QueryHandler) SubmitHandler(c *gin.Context) {
	principal, ok := h.requirePrincipal(c)
	if !ok {
		return
	}

	queryID, ok := h.parseQueryID(c)
	if !ok {
		return
	}

	// A query without variables accepts a missing body.
	var req dto.SubmitRunRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	run, err := h.queryUseCase.Submit(c.Request.Context(), principal, queryID, req.Variables)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapRunToResponse(run)
	c.JSON(http.StatusAccepted, response)
}

// GetRunHandler returns a run visible to the principal.
// GET /v1/runs/:id - Requires command capdocs/queries/read.
// Returns 200 OK with the run, including result or errors once terminal.
func (h *QueryHandler) GetRunHandler(c *gin.Context) {
	principal, ok := h.requirePrincipal(c)
	if !ok {
		return
	}

	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid run ID format: must be a valid UUID"),
			h.logger)
		return
	}

	run, err := h.queryUseCase.GetRun(c.Request.Context(), principal, runID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapRunToResponse(run)
	c.JSON(http.StatusOK, response)
}

// ListRunsHandler returns a page of a query's runs to the builder owning it.
// GET /v1/queries/:id/runs - Requires command capdocs/queries/read.
// Returns 200 OK with a paginated list.
func (h *QueryHandler) ListRunsHandler(c *gin.Context) {
	builder, ok := h.requireBuilder(c)
	if !ok {
		return
	}

	queryID, ok := h.parseQueryID(c)
	if !ok {
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	runs, err := h.queryUseCase.ListRuns(c.Request.Context(), builder, queryID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapRunsToListResponse(runs)
	c.JSON(http.StatusOK, response)
}

// requireBuilder extracts the authenticated builder, writing the error
// response itself when the principal is missing or is not a builder.
func (h *QueryHandler) requireBuilder(c *gin.Context) (*principalDomain.Builder, bool) {
	builder, ok := capabilityHTTP.GetBuilder(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c,
			apperrors.Wrap(apperrors.ErrForbidden, "query management requires a builder principal"),
			h.logger)
		return nil, false
	}
	return builder, true
}

// requirePrincipal extracts the authenticated principal of either kind.
func (h *QueryHandler) requirePrincipal(c *gin.Context) (principalDomain.Principal, bool) {
	principal, ok := capabilityHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return nil, false
	}
	return principal, true
}

// parseQueryID parses the query id URL parameter, writing the error response
// itself on failure.
func (h *QueryHandler) parseQueryID(c *gin.Context) (uuid.UUID, bool) {
	queryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid query ID format: must be a valid UUID"),
			h.logger)
		return uuid.Nil, false
	}
	return queryID, true
}
