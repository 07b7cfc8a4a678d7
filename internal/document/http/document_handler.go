// Package http provides HTTP handlers for document operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	capabilityHTTP "github.com/capdocs/capdocs/internal/capability/http"
	documentDomain "github.com/capdocs/capdocs/internal/document/domain"
	"github.com/capdocs/capdocs/internal/document/http/dto"
	documentUseCase "github.com/capdocs/capdocs/internal/document/usecase"
	apperrors "github.com/capdocs/capdocs/internal/errors"
	"github.com/capdocs/capdocs/internal/httputil"
	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
	customValidation "github.com/capdocs/capdocs/internal/validation"
)

// DocumentHandler handles HTTP requests for document operations.
type DocumentHandler struct {
	documentUseCase documentUseCase.DocumentUseCase
	logger          *slog.Logger
}

// NewDocumentHandler creates a new document handler with required dependencies.
func NewDocumentHandler(
	documentUseCase documentUseCase.DocumentUseCase,
	logger *slog.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		documentUseCase: documentUseCase,
		logger:          logger,
	}
}

// CreateHandler stores a new document in a collection.
// POST /v1/collections/:id/documents - Requires command capdocs/documents/write.
// Returns 201 Created with the stored document.
func (h *DocumentHandler) CreateHandler(c *gin.Context) {
	principal, collectionID, ok := h.requestScope(c)
	if !ok {
		return
	}

	var req dto.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	document, err := h.documentUseCase.Create(c.Request.Context(), principal, collectionID, req.Data)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapDocumentToResponse(document)
	c.JSON(http.StatusCreated, response)
}

// GetHandler returns a single document.
// GET /v1/collections/:id/documents/:documentID - Requires command capdocs/documents/read.
// Returns 200 OK with the document.
func (h *DocumentHandler) GetHandler(c *gin.Context) {
	principal, collectionID, ok := h.requestScope(c)
	if !ok {
		return
	}

	document, err := h.documentUseCase.Get(c.Request.Context(), principal, collectionID, c.Param("documentID"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapDocumentToResponse(document)
	c.JSON(http.StatusOK, response)
}

// ListHandler returns a page of documents visible to the principal.
// GET /v1/collections/:id/documents - Requires command capdocs/documents/read.
// Returns 200 OK with a paginated list.
func (h *DocumentHandler) ListHandler(c *gin.Context) {
	principal, collectionID, ok := h.requestScope(c)
	if !ok {
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	documents, err := h.documentUseCase.List(c.Request.Context(), principal, collectionID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapDocumentsToListResponse(documents)
	c.JSON(http.StatusOK, response)
}

// UpdateHandler replaces a document's data fields.
// PUT /v1/collections/:id/documents/:documentID - Requires command capdocs/documents/write.
// Returns 204 No Content.
func (h *DocumentHandler) UpdateHandler(c *gin.Context) {
	principal, collectionID, ok := h.requestScope(c)
	if !ok {
		return
	}

	var req dto.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	err := h.documentUseCase.Update(c.Request.Context(), principal, collectionID, c.Param("documentID"), req.Data)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// DeleteHandler removes a document.
// DELETE /v1/collections/:id/documents/:documentID - Requires command capdocs/documents/delete.
// Returns 204 No Content.
func (h *DocumentHandler) DeleteHandler(c *gin.Context) {
	principal, collectionID, ok := h.requestScope(c)
	if !ok {
		return
	}

	err := h.documentUseCase.Delete(c.Request.Context(), principal, collectionID, c.Param("documentID"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// GrantHandler adds or replaces an ACL entry on a document.
// POST /v1/collections/:id/documents/:documentID/acl - Requires command capdocs/acl/write.
// Returns 204 No Content.
func (h *DocumentHandler) GrantHandler(c *gin.Context) {
	principal, collectionID, ok := h.requestScope(c)
	if !ok {
		return
	}

	var req dto.GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	entry := documentDomain.ACLEntry{
		Grantee: req.Grantee,
		Read:    req.Read,
		Write:   req.Write,
		Execute: req.Execute,
	}
	err := h.documentUseCase.Grant(c.Request.Context(), principal, collectionID, c.Param("documentID"), entry)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// RevokeHandler removes a grantee's ACL entry from a document.
// DELETE /v1/collections/:id/documents/:documentID/acl - Requires command capdocs/acl/write.
// Returns 204 No Content.
func (h *DocumentHandler) RevokeHandler(c *gin.Context) {
	principal, collectionID, ok := h.requestScope(c)
	if !ok {
		return
	}

	var req dto.RevokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	err := h.documentUseCase.Revoke(c.Request.Context(), principal, collectionID, c.Param("documentID"), req.Grantee)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// requestScope extracts the authenticated principal and the collection id URL
// parameter, writing the error response itself when either is missing.
func (h *DocumentHandler) requestScope(c *gin.Context) (principalDomain.Principal, uuid.UUID, bool) {
	principal, ok := capabilityHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return nil, uuid.Nil, false
	}

	collectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid collection ID format: must be a valid UUID"),
			h.logger)
		return nil, uuid.Nil, false
	}

	return principal, collectionID, true
}
