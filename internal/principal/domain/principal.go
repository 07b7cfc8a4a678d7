// Package domain defines the principal models: Builders and Users.
//
// A principal is an authenticated actor resolved from the subject of a
// verified capability chain. Builders are tenants that own collections and
// queries; Users are data subjects that own individual documents in owned
// collections. The two kinds form a closed sum type: every consumer switches
// exhaustively on Kind rather than inspecting runtime types.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the principal sum type.
type Kind string

const (
	// KindBuilder marks a tenant that owns collections and queries.
	KindBuilder Kind = "builder"

	// KindUser marks a data subject that owns documents and carries a bounded
	// data-lifecycle event log.
	KindUser Kind = "user"
)

// Principal is an authenticated actor. Its identity is always a canonical
// did:key; lookups are performed after normalization, never on raw input.
type Principal interface {
	// PrincipalDID returns the canonical identity key.
	PrincipalDID() string
	// PrincipalKind returns the sum-type discriminator.
	PrincipalKind() Kind
}

// Builder is a tenant that owns collections and queries.
type Builder struct {
	DID         string
	Collections []uuid.UUID
	Queries     []uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PrincipalDID implements Principal.
func (b *Builder) PrincipalDID() string { return b.DID }

// PrincipalKind implements Principal.
func (b *Builder) PrincipalKind() Kind { return KindBuilder }

// EventType enumerates the data-lifecycle events recorded in a user's log.
type EventType string

const (
	EventCreate EventType = "create"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
	EventGrant  EventType = "grant"
	EventRevoke EventType = "revoke"
)

// Event is one entry in a user's bounded, append-only data-lifecycle log.
type Event struct {
	Type       EventType `bson:"type"`
	Collection uuid.UUID `bson:"collection"`
	Document   string    `bson:"document"`
	At         time.Time `bson:"at"`
}

// DocumentRef identifies a document a user owns.
type DocumentRef struct {
	Collection uuid.UUID `bson:"collection"`
	Document   string    `bson:"document"`
}

// User is a data subject. Its event log is capped: the repository drops the
// oldest entries past the configured bound on every append.
type User struct {
	DID       string
	Events    []Event
	Documents []DocumentRef
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PrincipalDID implements Principal.
func (u *User) PrincipalDID() string { return u.DID }

// PrincipalKind implements Principal.
func (u *User) PrincipalKind() Kind { return KindUser }
