package app

import (
	"fmt"

	capabilityService "github.com/capdocs/capdocs/internal/capability/service"
	capabilityUseCase "github.com/capdocs/capdocs/internal/capability/usecase"
	"github.com/capdocs/capdocs/internal/identity"
	principalRepository "github.com/capdocs/capdocs/internal/principal/repository"
	principalUseCase "github.com/capdocs/capdocs/internal/principal/usecase"
)

// PrincipalUseCase returns the principal use case instance.
func (c *Container) PrincipalUseCase() (principalUseCase.PrincipalUseCase, error) {
	var err error
	c.principalUseCaseInit.Do(func() {
		c.principalUseCase, err = c.initPrincipalUseCase()
		if err != nil {
			c.initErrors["principalUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["principalUseCase"]; exists {
		return nil, storedErr
	}
	return c.principalUseCase, nil
}

// AuthorizeUseCase returns the capability authorization use case instance.
func (c *Container) AuthorizeUseCase() (capabilityUseCase.AuthorizeUseCase, error) {
	var err error
	c.authorizeUseCaseInit.Do(func() {
		c.authorizeUseCase, err = c.initAuthorizeUseCase()
		if err != nil {
			c.initErrors["authorizeUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authorizeUseCase"]; exists {
		return nil, storedErr
	}
	return c.authorizeUseCase, nil
}

// initPrincipalUseCase creates the principal use case with its repository and cache.
func (c *Container) initPrincipalUseCase() (principalUseCase.PrincipalUseCase, error) {
	db, err := c.MongoDatabase()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for principal use case: %w", err)
	}

	repo := principalRepository.NewMongoDBPrincipalRepository(db)

	useCase, err := principalUseCase.NewPrincipalUseCase(
		repo,
		c.config.PrincipalCacheSize,
		c.config.PrincipalCacheTTL,
		c.config.UserEventLogCap,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create principal use case: %w", err)
	}

	return useCase, nil
}

// initAuthorizeUseCase creates the authorization pipeline: decoder, verifier,
// revocation checker and principal loader.
func (c *Container) initAuthorizeUseCase() (capabilityUseCase.AuthorizeUseCase, error) {
	if c.config.NodeDID == "" {
		return nil, fmt.Errorf("NODE_DID is required")
	}
	// The decoder normalizes every link identity, so the configured DIDs must
	// be normalized too or a legacy-form value would never match.
	nodeDID, err := identity.Normalize(c.config.NodeDID)
	if err != nil {
		return nil, fmt.Errorf("NODE_DID is invalid: %w", err)
	}

	rawIssuers := c.config.TrustedIssuerList()
	if len(rawIssuers) == 0 {
		return nil, fmt.Errorf("TRUSTED_ISSUERS is required")
	}
	trustedIssuers := make([]string, 0, len(rawIssuers))
	for _, raw := range rawIssuers {
		issuer, err := identity.Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_ISSUERS entry %q is invalid: %w", raw, err)
		}
		trustedIssuers = append(trustedIssuers, issuer)
	}

	if c.config.RevocationURL == "" {
		return nil, fmt.Errorf("REVOCATION_URL is required")
	}

	principals, err := c.PrincipalUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get principal use case for authorization: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for authorization: %w", err)
	}

	decoder := capabilityService.NewJWTChainDecoder()
	verifier := capabilityService.NewChainVerifier(nodeDID, trustedIssuers)
	revocations := capabilityUseCase.NewRevocationCheckerWithMetrics(
		capabilityService.NewHTTPRevocationChecker(
			c.config.RevocationURL,
			c.config.RevocationTimeout,
		),
		businessMetrics,
	)

	baseUseCase := capabilityUseCase.NewAuthorizeUseCase(
		decoder,
		verifier,
		revocations,
		principals,
		c.config.RevocationTimeout,
	)

	return capabilityUseCase.NewAuthorizeUseCaseWithMetrics(baseUseCase, businessMetrics), nil
}
