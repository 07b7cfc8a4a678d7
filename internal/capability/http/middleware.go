package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	capabilityDomain "github.com/capdocs/capdocs/internal/capability/domain"
	capabilityUseCase "github.com/capdocs/capdocs/internal/capability/usecase"
	apperrors "github.com/capdocs/capdocs/internal/errors"
	"github.com/capdocs/capdocs/internal/httputil"
)

// CapabilityMiddleware provides authentication via a capability chain in the
// Authorization header.
//
// The middleware:
// 1. Extracts the Bearer credential from the Authorization header (case-insensitive)
// 2. Decodes, verifies and revocation-checks the chain via authorizeUseCase.Authenticate()
// 3. Loads the principal named by the chain's subject
// 4. Stores the principal and the verified chain in the request context
// 5. Allows downstream handlers to access them via GetPrincipal() and GetChain()
//
// Authorization header format: "Bearer <link>,<link>,..." (case-insensitive "bearer")
//
// Error handling:
//   - Missing Authorization header → 401 Unauthorized
//   - Malformed Authorization header → 401 Unauthorized
//   - Invalid/expired/revoked chain → 401 Unauthorized (from AuthorizeUseCase.Authenticate)
//   - Unknown principal → 401 Unauthorized (from AuthorizeUseCase.Authenticate)
//
// All authentication failures share the same response body so callers cannot
// probe which stage rejected them.
func CapabilityMiddleware(
	authorizeUseCase capabilityUseCase.AuthorizeUseCase,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Extract Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		// Parse Bearer credential (case-insensitive)
		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		serialized := authHeader[len(bearerPrefix):]
		if serialized == "" {
			logger.Debug("authentication failed: empty bearer credential")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		// Decode, verify, check revocation and load the principal
		principal, chain, err := authorizeUseCase.Authenticate(c.Request.Context(), serialized)
		if err != nil {
			logger.Debug("authentication failed",
				slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		// Store authenticated principal and verified chain in context
		ctx := WithPrincipal(c.Request.Context(), principal)
		ctx = WithChain(ctx, chain)
		c.Request = c.Request.WithContext(ctx)

		logger.Debug("authentication successful",
			slog.String("principal_did", principal.PrincipalDID()),
			slog.String("principal_kind", string(principal.PrincipalKind())),
			slog.String("command", string(chain.Command())))

		// Continue to next handler
		c.Next()
	}
}

// RequireCommand provides command-namespace authorization for authenticated requests.
//
// This middleware MUST be used after CapabilityMiddleware, as it requires a verified
// chain to be present in the request context. It checks that the chain's presented
// command equals or attenuates the command required by the route.
//
// Attenuation semantics: "capdocs/documents/read" satisfies a route requiring
// "capdocs/documents" or "capdocs", but never a sibling such as "capdocs/queries".
//
// Error handling:
//   - No chain in context → 401 Unauthorized (CapabilityMiddleware not run)
//   - Presented command outside the required namespace → 403 Forbidden
func RequireCommand(
	required capabilityDomain.Command,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Retrieve verified chain from context
		chain, ok := GetChain(c.Request.Context())
		if !ok || chain == nil {
			logger.Debug("authorization failed: no verified chain in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		presented := chain.Command()
		if !presented.AttenuationOf(required) {
			logger.Debug("authorization failed: insufficient capability",
				slog.String("presented_command", string(presented)),
				slog.String("required_command", string(required)))
			httputil.HandleErrorGin(c,
				apperrors.Wrap(capabilityDomain.ErrInsufficientCapability, string(required)), logger)
			c.Abort()
			return
		}

		logger.Debug("authorization successful",
			slog.String("presented_command", string(presented)),
			slog.String("required_command", string(required)))

		// Continue to next handler
		c.Next()
	}
}
