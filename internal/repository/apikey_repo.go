package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNoKeyDocument is returned when the shared credential document is absent.
var ErrNoKeyDocument = errors.New("api key document not found")

// APIKeyRepository reads the single shared credential document. The engine
// never writes it.
type APIKeyRepository interface {
	FetchCurrent(ctx context.Context) (map[string]interface{}, error)
}

type apiKeyRepository struct {
	collection *mongo.Collection
}

func NewAPIKeyRepository(db *mongo.Database) APIKeyRepository {
	return &apiKeyRepository{
		collection: db.Collection("api_keys"),
	}
}

func (r *apiKeyRepository) FetchCurrent(ctx context.Context) (map[string]interface{}, error) {
	var doc bson.M
	err := r.collection.FindOne(ctx, bson.M{"_id": "current"}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoKeyDocument
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}
