package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/uuid"

	"github.com/capdocs/capdocs/internal/identity"
	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
)

// principalUseCase implements PrincipalUseCase with a TTL cache in front of
// the repository.
//
// Only successful loads are cached: a stale cache may serve an existing
// principal faster, but an absent principal is never treated as present, and a
// negative result is never cached so registration takes effect immediately.
type principalUseCase struct {
	repo            PrincipalRepository
	cache           *ristretto.Cache[string, principalDomain.Principal]
	cacheTTL        time.Duration
	userEventLogCap int
}

// NewPrincipalUseCase creates a PrincipalUseCase.
func NewPrincipalUseCase(
	repo PrincipalRepository,
	cacheSize int64,
	cacheTTL time.Duration,
	userEventLogCap int,
) (PrincipalUseCase, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, principalDomain.Principal]{
		NumCounters: cacheSize * 10,
		MaxCost:     cacheSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create principal cache: %w", err)
	}

	return &principalUseCase{
		repo:            repo,
		cache:           cache,
		cacheTTL:        cacheTTL,
		userEventLogCap: userEventLogCap,
	}, nil
}

// Load resolves a principal by identifier, normalizing it first.
func (p *principalUseCase) Load(ctx context.Context, rawDID string) (principalDomain.Principal, error) {
	did, err := identity.Normalize(rawDID)
	if err != nil {
		return nil, err
	}

	if cached, ok := p.cache.Get(did); ok {
		return cached, nil
	}

	principal, err := p.repo.GetByDID(ctx, did)
	if err != nil {
		return nil, err
	}

	p.cache.SetWithTTL(did, principal, 1, p.cacheTTL)
	return principal, nil
}

// CreateBuilder registers a new builder principal.
func (p *principalUseCase) CreateBuilder(ctx context.Context, rawDID string) (*principalDomain.Builder, error) {
	did, err := identity.Normalize(rawDID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	builder := &principalDomain.Builder{
		DID:       did,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.repo.CreateBuilder(ctx, builder); err != nil {
		return nil, err
	}
	return builder, nil
}

// CreateUser registers a new user principal.
func (p *principalUseCase) CreateUser(ctx context.Context, rawDID string) (*principalDomain.User, error) {
	did, err := identity.Normalize(rawDID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &principalDomain.User{
		DID:       did,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// TrackBuilderCollection adds or removes collection ownership and drops the
// cached record so the next load observes the change.
func (p *principalUseCase) TrackBuilderCollection(
	ctx context.Context,
	did string,
	collectionID uuid.UUID,
	owned bool,
) error {
	var err error
	if owned {
		err = p.repo.AddBuilderCollection(ctx, did, collectionID)
	} else {
		err = p.repo.RemoveBuilderCollection(ctx, did, collectionID)
	}
	if err != nil {
		return err
	}
	p.cache.Del(did)
	return nil
}

// TrackBuilderQuery adds or removes query ownership.
func (p *principalUseCase) TrackBuilderQuery(ctx context.Context, did string, queryID uuid.UUID, owned bool) error {
	var err error
	if owned {
		err = p.repo.AddBuilderQuery(ctx, did, queryID)
	} else {
		err = p.repo.RemoveBuilderQuery(ctx, did, queryID)
	}
	if err != nil {
		return err
	}
	p.cache.Del(did)
	return nil
}

// RecordUserEvent appends to the user's bounded event log and keeps the
// owned-document set in sync for create/delete events.
func (p *principalUseCase) RecordUserEvent(
	ctx context.Context,
	principal principalDomain.Principal,
	event principalDomain.Event,
) error {
	switch principal.PrincipalKind() {
	case principalDomain.KindUser:
		// fall through to the append below
	case principalDomain.KindBuilder:
		return nil
	default:
		return fmt.Errorf("unknown principal kind %q", principal.PrincipalKind())
	}

	did := principal.PrincipalDID()
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	if err := p.repo.AppendUserEvent(ctx, did, event, p.userEventLogCap); err != nil {
		return err
	}

	ref := principalDomain.DocumentRef{Collection: event.Collection, Document: event.Document}
	switch event.Type {
	case principalDomain.EventCreate:
		if err := p.repo.AddUserDocument(ctx, did, ref); err != nil {
			return err
		}
	case principalDomain.EventDelete:
		if err := p.repo.RemoveUserDocument(ctx, did, ref); err != nil {
			return err
		}
	}

	p.cache.Del(did)
	return nil
}
