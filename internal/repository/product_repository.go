package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"storefront/internal/logger"
	"storefront/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
)

const productCollection = "products"

type MongoProductRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

var ProductRepositoryTracer = otel.Tracer("ProductRepository")

func NewMongoProductRepository(db *mongo.Database, timeout time.Duration) *MongoProductRepository {
	return &MongoProductRepository{
		collection: db.Collection(productCollection),
		timeout:    timeout,
	}
}

// EnsureIndexes creates the indexes backing the new-releases view and name lookups.
func (r *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "isNewRelease", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create product indexes: %w", err)
	}
	return nil
}

func (r *MongoProductRepository) Insert(ctx context.Context, product *model.Product) error {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.Insert")
	defer span.End()
	logger.Debug(ctx, "ProductRepository.Insert")

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	product.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *MongoProductRepository) FindAll(ctx context.Context) ([]model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.FindAll")
	defer span.End()
	logger.Debug(ctx, "ProductRepository.FindAll")

	return r.find(ctx, bson.M{})
}

func (r *MongoProductRepository) FindByName(ctx context.Context, term string) ([]model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.FindByName")
	defer span.End()
	logger.Debug(ctx, "ProductRepository.FindByName")

	return r.find(ctx, bson.M{
		"name": primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"},
	})
}

func (r *MongoProductRepository) FindNewReleases(ctx context.Context) ([]model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.FindNewReleases")
	defer span.End()
	logger.Debug(ctx, "ProductRepository.FindNewReleases")

	return r.find(ctx, bson.M{"isNewRelease": true})
}

func (r *MongoProductRepository) find(ctx context.Context, filter bson.M) ([]model.Product, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := make([]model.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()
	logger.Debug(ctx, "ProductRepository.FindByID")

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var product model.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product %s: %w", id.Hex(), err)
	}
	return &product, nil
}

func (r *MongoProductRepository) Update(ctx context.Context, id primitive.ObjectID, fields ProductUpdate) (*model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.Update")
	defer span.End()
	logger.Debug(ctx, "ProductRepository.Update")

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	set := bson.M{
		"name":        fields.Name,
		"description": fields.Description,
		"price":       fields.Price,
		"imageUrl":    fields.ImageURL,
	}
	if fields.IsNewRelease != nil {
		set["isNewRelease"] = *fields.IsNewRelease
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated model.Product
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", id.Hex(), err)
	}
	return &updated, nil
}

func (r *MongoProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.Delete")
	defer span.End()
	logger.Debug(ctx, "ProductRepository.Delete")

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
