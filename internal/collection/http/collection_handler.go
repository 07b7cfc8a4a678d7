// Package http provides HTTP handlers for collection management.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	capabilityHTTP "github.com/capdocs/capdocs/internal/capability/http"
	collectionDomain "github.com/capdocs/capdocs/internal/collection/domain"
	"github.com/capdocs/capdocs/internal/collection/http/dto"
	collectionUseCase "github.com/capdocs/capdocs/internal/collection/usecase"
	apperrors "github.com/capdocs/capdocs/internal/errors"
	"github.com/capdocs/capdocs/internal/httputil"
	customValidation "github.com/capdocs/capdocs/internal/validation"
)

// CollectionHandler handles HTTP requests for collection management operations.
type CollectionHandler struct {
	collectionUseCase collectionUseCase.CollectionUseCase
	logger            *slog.Logger
}

// NewCollectionHandler creates a new collection handler with required dependencies.
func NewCollectionHandler(
	collectionUseCase collectionUseCase.CollectionUseCase,
	logger *slog.Logger,
) *CollectionHandler {
	return &CollectionHandler{
		collectionUseCase: collectionUseCase,
		logger:            logger,
	}
}

// CreateHandler creates a new collection owned by the authenticated builder.
// POST /v1/collections - Requires command capdocs/collections/write.
// Returns 201 Created with collection metadata.
func (h *CollectionHandler) CreateHandler(c *gin.Context) {
	builder, ok := capabilityHTTP.GetBuilder(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrForbidden, h.logger)
		return
	}

	var req dto.CreateCollectionRequest

	// Parse and bind JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	// Validate request
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	// Call use case
	collection, err := h.collectionUseCase.Create(
		c.Request.Context(),
		builder,
		req.Name,
		collectionDomain.Kind(req.Kind),
		req.Schema,
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Return response
	response := dto.MapCollectionToResponse(collection)
	c.JSON(http.StatusCreated, response)
}

// GetHandler returns one of the authenticated builder's collections.
// GET /v1/collections/:id - Requires command capdocs/collections/read.
// Returns 200 OK with collection metadata.
func (h *CollectionHandler) GetHandler(c *gin.Context) {
	builder, ok := capabilityHTTP.GetBuilder(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrForbidden, h.logger)
		return
	}

	collectionID, err := parseCollectionID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	collection, err := h.collectionUseCase.Get(c.Request.Context(), builder, collectionID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapCollectionToResponse(collection)
	c.JSON(http.StatusOK, response)
}

// ListHandler returns a page of the authenticated builder's collections.
// GET /v1/collections - Requires command capdocs/collections/read.
// Returns 200 OK with a paginated list.
func (h *CollectionHandler) ListHandler(c *gin.Context) {
	builder, ok := capabilityHTTP.GetBuilder(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrForbidden, h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	collections, err := h.collectionUseCase.List(c.Request.Context(), builder, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapCollectionsToListResponse(collections)
	c.JSON(http.StatusOK, response)
}

// UpdateSchemaHandler replaces a collection's document schema.
// PUT /v1/collections/:id/schema - Requires command capdocs/collections/write.
// Returns 200 OK with updated collection metadata.
func (h *CollectionHandler) UpdateSchemaHandler(c *gin.Context) {
	builder, ok := capabilityHTTP.GetBuilder(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrForbidden, h.logger)
		return
	}

	collectionID, err := parseCollectionID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.UpdateCollectionSchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	collection, err := h.collectionUseCase.UpdateSchema(c.Request.Context(), builder, collectionID, req.Schema)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapCollectionToResponse(collection)
	c.JSON(http.StatusOK, response)
}

// DeleteHandler deletes a collection and its documents.
// DELETE /v1/collections/:id - Requires command capdocs/collections/write.
// Returns 204 No Content.
func (h *CollectionHandler) DeleteHandler(c *gin.Context) {
	builder, ok := capabilityHTTP.GetBuilder(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrForbidden, h.logger)
		return
	}

	collectionID, err := parseCollectionID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := h.collectionUseCase.Delete(c.Request.Context(), builder, collectionID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// parseCollectionID extracts and validates the collection id URL parameter.
func parseCollectionID(c *gin.Context) (uuid.UUID, error) {
	collectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid collection ID format: must be a valid UUID")
	}
	return collectionID, nil
}
