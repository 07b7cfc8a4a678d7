// Package http provides HTTP handlers for principal registration and lookup.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	capabilityHTTP "github.com/capdocs/capdocs/internal/capability/http"
	apperrors "github.com/capdocs/capdocs/internal/errors"
	"github.com/capdocs/capdocs/internal/httputil"
	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
	"github.com/capdocs/capdocs/internal/principal/http/dto"
	principalUseCase "github.com/capdocs/capdocs/internal/principal/usecase"
	customValidation "github.com/capdocs/capdocs/internal/validation"
)

// PrincipalHandler handles HTTP requests for principal registration.
type PrincipalHandler struct {
	principalUseCase principalUseCase.PrincipalUseCase
	logger           *slog.Logger
}

// NewPrincipalHandler creates a new principal handler with required dependencies.
func NewPrincipalHandler(
	principalUseCase principalUseCase.PrincipalUseCase,
	logger *slog.Logger,
) *PrincipalHandler {
	return &PrincipalHandler{
		principalUseCase: principalUseCase,
		logger:           logger,
	}
}

// CreateBuilderHandler registers a new builder principal.
// POST /v1/builders - Requires command capdocs/builders/write.
// Returns 201 Created with the builder record.
func (h *PrincipalHandler) CreateBuilderHandler(c *gin.Context) {
	var req dto.CreateBuilderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	builder, err := h.principalUseCase.CreateBuilder(c.Request.Context(), req.DID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapBuilderToResponse(builder)
	c.JSON(http.StatusCreated, response)
}

// CreateUserHandler registers a new user principal.
// POST /v1/users - Requires command capdocs/builders/write.
// Returns 201 Created with the user record.
func (h *PrincipalHandler) CreateUserHandler(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	user, err := h.principalUseCase.CreateUser(c.Request.Context(), req.DID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapUserToResponse(user)
	c.JSON(http.StatusCreated, response)
}

// GetSelfHandler returns the caller's own principal record. Builders see their
// ownership lists; users see their bounded event log.
// GET /v1/principals/me - Requires command capdocs/builders/read.
// Returns 200 OK with the record.
func (h *PrincipalHandler) GetSelfHandler(c *gin.Context) {
	principal, ok := capabilityHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	// Reload to pick up bookkeeping performed after authentication.
	fresh, err := h.principalUseCase.Load(c.Request.Context(), principal.PrincipalDID())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	switch p := fresh.(type) {
	case *principalDomain.Builder:
		c.JSON(http.StatusOK, dto.MapBuilderToResponse(p))
	case *principalDomain.User:
		c.JSON(http.StatusOK, dto.MapUserToResponse(p))
	default:
		httputil.HandleErrorGin(c, apperrors.New("unrecognized principal kind"), h.logger)
	}
}
