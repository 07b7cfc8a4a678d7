// Package repository implements MongoDB persistence for documents.
//
// Each collection's documents live in their own MongoDB collection named
// "docs_<collection id>". System fields (_owner, _acl, _created_at,
// _updated_at) are stored alongside the caller's data fields, which is why
// caller field names may not start with an underscore.
package repository

import (
	"context"
	"fmt"
	"maps"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	collectionDomain "github.com/capdocs/capdocs/internal/collection/domain"
	documentDomain "github.com/capdocs/capdocs/internal/document/domain"
	apperrors "github.com/capdocs/capdocs/internal/errors"
)

// System field names. "_acl" is shared with the access filter and is part of
// the stored-data compatibility surface.
const (
	fieldID        = "_id"
	fieldOwner     = "_owner"
	fieldACL       = "_acl"
	fieldCreatedAt = "_created_at"
	fieldUpdatedAt = "_updated_at"
)

// MongoDBDocumentRepository persists documents in per-collection data
// collections.
type MongoDBDocumentRepository struct {
	db *mongo.Database
}

// NewMongoDBDocumentRepository creates a document repository backed by the
// given database.
func NewMongoDBDocumentRepository(db *mongo.Database) *MongoDBDocumentRepository {
	return &MongoDBDocumentRepository{db: db}
}

// data returns the MongoDB collection holding a collection's documents.
func (r *MongoDBDocumentRepository) data(collection *collectionDomain.Collection) *mongo.Collection {
	return r.db.Collection(collection.DataCollectionName())
}

// Insert stores a new document.
func (r *MongoDBDocumentRepository) Insert(
	ctx context.Context,
	collection *collectionDomain.Collection,
	document *documentDomain.Document,
) error {
	record := bson.M{
		fieldID:        document.ID,
		fieldOwner:     document.Owner,
		fieldCreatedAt: document.CreatedAt,
		fieldUpdatedAt: document.UpdatedAt,
	}
	if len(document.ACL) > 0 {
		record[fieldACL] = document.ACL
	}
	maps.Copy(record, systemStripped(document.Data))

	if _, err := r.data(collection).InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "document already exists")
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// FindOne returns the single document matching the scoped filter.
func (r *MongoDBDocumentRepository) FindOne(
	ctx context.Context,
	collection *collectionDomain.Collection,
	filter bson.M,
) (*documentDomain.Document, error) {
	var record bson.M
	err := r.data(collection).FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if apperrors.Is(err, mongo.ErrNoDocuments) {
			return nil, documentDomain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return recordToDocument(record)
}

// Find returns a page of documents matching the scoped filter, ordered by
// creation time.
func (r *MongoDBDocumentRepository) Find(
	ctx context.Context,
	collection *collectionDomain.Collection,
	filter bson.M,
	offset, limit int,
) ([]*documentDomain.Document, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: fieldCreatedAt, Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.data(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}
	defer cursor.Close(ctx)

	var documents []*documentDomain.Document
	for cursor.Next(ctx) {
		var record bson.M
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		document, err := recordToDocument(record)
		if err != nil {
			return nil, err
		}
		documents = append(documents, document)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}
	return documents, nil
}

// Update replaces the data fields of the single document matching the scoped
// filter. System fields are untouched apart from the update timestamp.
func (r *MongoDBDocumentRepository) Update(
	ctx context.Context,
	collection *collectionDomain.Collection,
	filter bson.M,
	data map[string]any,
) error {
	set := bson.M{fieldUpdatedAt: time.Now().UTC()}
	maps.Copy(set, systemStripped(data))

	result, err := r.data(collection).UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if result.MatchedCount == 0 {
		return documentDomain.ErrDocumentNotFound
	}
	return nil
}

// Delete removes the single document matching the scoped filter.
func (r *MongoDBDocumentRepository) Delete(
	ctx context.Context,
	collection *collectionDomain.Collection,
	filter bson.M,
) error {
	result, err := r.data(collection).DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if result.DeletedCount == 0 {
		return documentDomain.ErrDocumentNotFound
	}
	return nil
}

// Grant adds or replaces an ACL entry on a document. Both paths are single
// conditional updates matched on owner and document id, so concurrent grants
// and revokes serialize on the database's per-document atomicity instead of
// application-level locking.
func (r *MongoDBDocumentRepository) Grant(
	ctx context.Context,
	collection *collectionDomain.Collection,
	documentID, ownerDID string,
	entry documentDomain.ACLEntry,
) error {
	data := r.data(collection)

	// Replace an existing entry for the grantee in place.
	replaceFilter := bson.M{
		fieldID:               documentID,
		fieldOwner:            ownerDID,
		fieldACL + ".grantee": entry.Grantee,
	}
	replaceUpdate := bson.M{
		"$set": bson.M{
			fieldACL + ".$": entry,
			fieldUpdatedAt:  time.Now().UTC(),
		},
	}
	result, err := data.UpdateOne(ctx, replaceFilter, replaceUpdate)
	if err != nil {
		return fmt.Errorf("grant acl entry: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	// No existing entry: append one, guarded against a concurrent insert of
	// the same grantee.
	appendFilter := bson.M{
		fieldID:    documentID,
		fieldOwner: ownerDID,
		fieldACL + ".grantee": bson.M{
			"$ne": entry.Grantee,
		},
	}
	appendUpdate := bson.M{
		"$push": bson.M{fieldACL: entry},
		"$set":  bson.M{fieldUpdatedAt: time.Now().UTC()},
	}
	result, err = data.UpdateOne(ctx, appendFilter, appendUpdate)
	if err != nil {
		return fmt.Errorf("grant acl entry: %w", err)
	}
	if result.MatchedCount == 0 {
		// Either the document/owner pair does not exist, or a concurrent
		// grant for the same grantee won; retry the in-place replacement to
		// distinguish the two.
		result, err = data.UpdateOne(ctx, replaceFilter, replaceUpdate)
		if err != nil {
			return fmt.Errorf("grant acl entry: %w", err)
		}
		if result.MatchedCount == 0 {
			return documentDomain.ErrDocumentNotFound
		}
	}
	return nil
}

// Revoke removes a grantee's ACL entry from a document. The update is matched
// on owner and document id; revoking an absent grantee is a no-op, not an
// error, so revocation is idempotent.
func (r *MongoDBDocumentRepository) Revoke(
	ctx context.Context,
	collection *collectionDomain.Collection,
	documentID, ownerDID, granteeDID string,
) error {
	filter := bson.M{
		fieldID:    documentID,
		fieldOwner: ownerDID,
	}
	update := bson.M{
		"$pull": bson.M{fieldACL: bson.M{"grantee": granteeDID}},
		"$set":  bson.M{fieldUpdatedAt: time.Now().UTC()},
	}
	result, err := r.data(collection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("revoke acl entry: %w", err)
	}
	if result.MatchedCount == 0 {
		return documentDomain.ErrDocumentNotFound
	}
	return nil
}

// Aggregate runs an aggregation pipeline against a collection's documents and
// returns up to resultCap result documents.
func (r *MongoDBDocumentRepository) Aggregate(
	ctx context.Context,
	collection *collectionDomain.Collection,
	pipeline []bson.M,
	resultCap int,
) ([]bson.M, error) {
	cursor, err := r.data(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate documents: %w", err)
	}
	defer cursor.Close(ctx)

	var results []bson.M
	for cursor.Next(ctx) {
		if len(results) >= resultCap {
			break
		}
		var record bson.M
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("decode aggregation result: %w", err)
		}
		results = append(results, record)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("aggregate documents: %w", err)
	}
	return results, nil
}

// DropData removes a collection's entire document store.
func (r *MongoDBDocumentRepository) DropData(ctx context.Context, collection *collectionDomain.Collection) error {
	if err := r.data(collection).Drop(ctx); err != nil {
		return fmt.Errorf("drop document data: %w", err)
	}
	return nil
}

// recordToDocument converts a stored record back to the domain model,
// separating system fields from data fields.
func recordToDocument(record bson.M) (*documentDomain.Document, error) {
	document := &documentDomain.Document{Data: map[string]any{}}

	for key, value := range record {
		switch key {
		case fieldID:
			id, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("document has non-string id %v", value)
			}
			document.ID = id
		case fieldOwner:
			owner, _ := value.(string)
			document.Owner = owner
		case fieldACL:
			entries, err := decodeACL(value)
			if err != nil {
				return nil, err
			}
			document.ACL = entries
		case fieldCreatedAt:
			document.CreatedAt = decodeTime(value)
		case fieldUpdatedAt:
			document.UpdatedAt = decodeTime(value)
		default:
			document.Data[key] = value
		}
	}

	if document.ID == "" {
		return nil, fmt.Errorf("document record has no id")
	}
	return document, nil
}

// decodeACL converts the stored ACL array back to domain entries.
func decodeACL(value any) ([]documentDomain.ACLEntry, error) {
	raw, err := bson.Marshal(bson.M{"acl": value})
	if err != nil {
		return nil, fmt.Errorf("decode acl: %w", err)
	}
	var wrapper struct {
		ACL []documentDomain.ACLEntry `bson:"acl"`
	}
	if err := bson.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("decode acl: %w", err)
	}
	return wrapper.ACL, nil
}

// decodeTime converts a stored timestamp to time.Time.
func decodeTime(value any) time.Time {
	switch t := value.(type) {
	case time.Time:
		return t
	case bson.DateTime:
		return t.Time()
	default:
		return time.Time{}
	}
}

// systemStripped copies data fields, dropping any caller-supplied key that
// collides with the system-field namespace.
func systemStripped(data map[string]any) map[string]any {
	clean := make(map[string]any, len(data))
	for key, value := range data {
		if len(key) > 0 && key[0] == '_' {
			continue
		}
		clean[key] = value
	}
	return clean
}
