// Package domain defines collection models and access-control rules.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kind determines how access to a collection's documents is controlled.
type Kind string

const (
	// KindStandard grants access exclusively to the owning builder.
	KindStandard Kind = "standard"

	// KindOwned gates each document behind per-document ACL entries.
	KindOwned Kind = "owned"
)

// Valid reports whether k is a known collection kind.
func (k Kind) Valid() bool {
	return k == KindStandard || k == KindOwned
}

// Permission is one of the three independent capabilities an ACL entry can
// grant on a document.
type Permission string

const (
	PermissionRead    Permission = "read"
	PermissionWrite   Permission = "write"
	PermissionExecute Permission = "execute"
)

// Valid reports whether p is a known permission.
func (p Permission) Valid() bool {
	return p == PermissionRead || p == PermissionWrite || p == PermissionExecute
}

// Collection is a named document store owned by exactly one builder.
//
// Kind is immutable after creation: flipping a collection between standard
// and owned would invalidate already-issued ACL grants.
type Collection struct {
	ID        uuid.UUID      `bson:"-" json:"id"`
	Builder   string         `bson:"builder" json:"builder"`
	Name      string         `bson:"name" json:"name"`
	Kind      Kind           `bson:"kind" json:"kind"`
	Schema    map[string]any `bson:"schema,omitempty" json:"schema,omitempty"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time      `bson:"updated_at" json:"updated_at"`
}

// DataCollectionName returns the name of the MongoDB collection holding this
// collection's documents. Each collection gets its own, so dropping one tenant
// collection never scans another's data.
func (c *Collection) DataCollectionName() string {
	return "docs_" + c.ID.String()
}
