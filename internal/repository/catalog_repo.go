package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stylequiz/internal/model"
)

// CatalogRepo stores versioned questionnaire catalogs
type CatalogRepo interface {
	Save(ctx context.Context, catalog *model.Catalog) error
	GetLatest(ctx context.Context) (*model.Catalog, error)
	GetByVersion(ctx context.Context, version string) (*model.Catalog, error)
}

type catalogRepo struct {
	collection *mongo.Collection
}

// NewCatalogRepo creates a new catalog repository
func NewCatalogRepo(db *mongo.Database) CatalogRepo {
	return &catalogRepo{
		collection: db.Collection("catalogs"),
	}
}

// Save upserts the catalog under its version
func (r *catalogRepo) Save(ctx context.Context, catalog *model.Catalog) error {
	catalog.UpdatedAt = time.Now()
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": catalog.Version}, catalog, opts)
	return err
}

// GetLatest returns the most recently saved catalog, or nil when none was seeded
func (r *catalogRepo) GetLatest(ctx context.Context) (*model.Catalog, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	return r.findOne(ctx, bson.M{}, opts)
}

func (r *catalogRepo) GetByVersion(ctx context.Context, version string) (*model.Catalog, error) {
	return r.findOne(ctx, bson.M{"_id": version})
}

func (r *catalogRepo) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*model.Catalog, error) {
	var catalog model.Catalog
	err := r.collection.FindOne(ctx, filter, opts...).Decode(&catalog)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &catalog, nil
}
