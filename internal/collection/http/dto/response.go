package dto

import (
	"time"

	collectionDomain "github.com/capdocs/capdocs/internal/collection/domain"
)

// CollectionResponse represents a collection in API responses.
type CollectionResponse struct {
	ID        string         `json:"id"`
	Builder   string         `json:"builder"`
	Name      string         `json:"name"`
	Kind      string         `json:"kind"`
	Schema    map[string]any `json:"schema,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// MapCollectionToResponse converts a domain collection to an API response.
func MapCollectionToResponse(collection *collectionDomain.Collection) CollectionResponse {
	return CollectionResponse{
		ID:        collection.ID.String(),
		Builder:   collection.Builder,
		Name:      collection.Name,
		Kind:      string(collection.Kind),
		Schema:    collection.Schema,
		CreatedAt: collection.CreatedAt,
		UpdatedAt: collection.UpdatedAt,
	}
}

// ListCollectionsResponse represents a paginated list of collections in API responses.
type ListCollectionsResponse struct {
	Data []CollectionResponse `json:"data"`
}

// MapCollectionsToListResponse converts a slice of domain collections to a list response.
func MapCollectionsToListResponse(collections []*collectionDomain.Collection) ListCollectionsResponse {
	data := make([]CollectionResponse, 0, len(collections))
	for _, collection := range collections {
		data = append(data, MapCollectionToResponse(collection))
	}

	return ListCollectionsResponse{
		Data: data,
	}
}
