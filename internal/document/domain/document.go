// Package domain defines document and ACL models.
package domain

import (
	"time"
)

// ACLEntry grants a specific identity a subset of capabilities on a single
// document in an owned collection.
//
// The document owner's implicit access is never represented as an explicit
// entry: it exists as long as the document does and cannot be revoked through
// the ACL-removal path.
type ACLEntry struct {
	Grantee string `bson:"grantee" json:"grantee"`
	Read    bool   `bson:"read" json:"read"`
	Write   bool   `bson:"write" json:"write"`
	Execute bool   `bson:"execute" json:"execute"`
}

// Valid reports whether the entry grants at least one capability.
func (e ACLEntry) Valid() bool {
	return e.Grantee != "" && (e.Read || e.Write || e.Execute)
}

// Document is a stored record in a collection. System fields carry an
// underscore prefix so they never clash with caller-supplied data fields.
type Document struct {
	ID        string         `json:"id"`
	Owner     string         `json:"owner"`
	Data      map[string]any `json:"data"`
	ACL       []ACLEntry     `json:"acl,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
