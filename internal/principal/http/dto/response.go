package dto

import (
	"time"

	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
)

// BuilderResponse represents a builder principal in API responses.
type BuilderResponse struct {
	DID         string    `json:"did"`
	Collections []string  `json:"collections,omitempty"`
	Queries     []string  `json:"queries,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MapBuilderToResponse converts a domain builder to an API response.
func MapBuilderToResponse(builder *principalDomain.Builder) BuilderResponse {
	collections := make([]string, 0, len(builder.Collections))
	for _, id := range builder.Collections {
		collections = append(collections, id.String())
	}
	if len(collections) == 0 {
		collections = nil
	}

	queries := make([]string, 0, len(builder.Queries))
	for _, id := range builder.Queries {
		queries = append(queries, id.String())
	}
	if len(queries) == 0 {
		queries = nil
	}

	return BuilderResponse{
		DID:         builder.DID,
		Collections: collections,
		Queries:     queries,
		CreatedAt:   builder.CreatedAt,
		UpdatedAt:   builder.UpdatedAt,
	}
}

// EventResponse represents one data-lifecycle event in API responses.
type EventResponse struct {
	Type       string    `json:"type"`
	Collection string    `json:"collection"`
	Document   string    `json:"document"`
	At         time.Time `json:"at"`
}

// DocumentRefResponse identifies an owned document in API responses.
type DocumentRefResponse struct {
	Collection string `json:"collection"`
	Document   string `json:"document"`
}

// UserResponse represents a user principal in API responses, including the
// bounded data-lifecycle event log.
type UserResponse struct {
	DID       string                `json:"did"`
	Events    []EventResponse       `json:"events,omitempty"`
	Documents []DocumentRefResponse `json:"documents,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// MapUserToResponse converts a domain user to an API response.
func MapUserToResponse(user *principalDomain.User) UserResponse {
	events := make([]EventResponse, 0, len(user.Events))
	for _, event := range user.Events {
		events = append(events, EventResponse{
			Type:       string(event.Type),
			Collection: event.Collection.String(),
			Document:   event.Document,
			At:         event.At,
		})
	}
	if len(events) == 0 {
		events = nil
	}

	documents := make([]DocumentRefResponse, 0, len(user.Documents))
	for _, ref := range user.Documents {
		documents = append(documents, DocumentRefResponse{
			Collection: ref.Collection.String(),
			Document:   ref.Document,
		})
	}
	if len(documents) == 0 {
		documents = nil
	}

	return UserResponse{
		DID:       user.DID,
		Events:    events,
		Documents: documents,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
