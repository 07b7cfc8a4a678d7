package dto

import (
	"time"

	documentDomain "github.com/capdocs/capdocs/internal/document/domain"
)

// ACLEntryResponse represents one ACL entry in API responses.
type ACLEntryResponse struct {
	Grantee string `json:"grantee"`
	Read    bool   `json:"read"`
	Write   bool   `json:"write"`
	Execute bool   `json:"execute"`
}

// DocumentResponse represents a document in API responses.
type DocumentResponse struct {
	ID        string             `json:"id"`
	Owner     string             `json:"owner"`
	Data      map[string]any     `json:"data"`
	ACL       []ACLEntryResponse `json:"acl,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// MapDocumentToResponse converts a domain document to an API response.
func MapDocumentToResponse(document *documentDomain.Document) DocumentResponse {
	acl := make([]ACLEntryResponse, 0, len(document.ACL))
	for _, entry := range document.ACL {
		acl = append(acl, ACLEntryResponse{
			Grantee: entry.Grantee,
			Read:    entry.Read,
			Write:   entry.Write,
			Execute: entry.Execute,
		})
	}
	if len(acl) == 0 {
		acl = nil
	}

	return DocumentResponse{
		ID:        document.ID,
		Owner:     document.Owner,
		Data:      document.Data,
		ACL:       acl,
		CreatedAt: document.CreatedAt,
		UpdatedAt: document.UpdatedAt,
	}
}

// ListDocumentsResponse represents a paginated list of documents in API responses.
type ListDocumentsResponse struct {
	Data []DocumentResponse `json:"data"`
}

// MapDocumentsToListResponse converts a slice of domain documents to a list response.
func MapDocumentsToListResponse(documents []*documentDomain.Document) ListDocumentsResponse {
	data := make([]DocumentResponse, 0, len(documents))
	for _, document := range documents {
		data = append(data, MapDocumentToResponse(document))
	}

	return ListDocumentsResponse{
		Data: data,
	}
}
