package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"storefront/internal/logger"
	"storefront/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	carouselCollection = "carousel"
	maxWriteAttempts   = 5
)

type MongoCarouselRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

var CarouselRepositoryTracer = otel.Tracer("CarouselRepository")

func NewMongoCarouselRepository(db *mongo.Database, timeout time.Duration) *MongoCarouselRepository {
	return &MongoCarouselRepository{
		collection: db.Collection(carouselCollection),
		timeout:    timeout,
	}
}

func (r *MongoCarouselRepository) Get(ctx context.Context) (*model.Carousel, error) {
	ctx, span := CarouselRepositoryTracer.Start(ctx, "CarouselRepository.Get")
	defer span.End()
	logger.Debug(ctx, "CarouselRepository.Get")

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	return r.get(ctx)
}

func (r *MongoCarouselRepository) get(ctx context.Context) (*model.Carousel, error) {
	var doc model.Carousel
	err := r.collection.FindOne(ctx, bson.M{"_id": model.CarouselID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find carousel: %w", err)
	}
	return &doc, nil
}

// Append pushes reference in one conditional upsert. The filter only matches a document with fewer than
// capacity images; a full document makes the upsert collide on _id.
func (r *MongoCarouselRepository) Append(ctx context.Context, reference string, capacity int) (*model.Carousel, error) {
	ctx, span := CarouselRepositoryTracer.Start(ctx, "CarouselRepository.Append")
	defer span.End()
	logger.Debug(ctx, "CarouselRepository.Append")

	if capacity <= 0 {
		return nil, ErrCapacityExceeded
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{
		"_id": model.CarouselID,
		"images." + strconv.Itoa(capacity-1): bson.M{"$exists": false},
	}
	update := bson.M{
		"$push": bson.M{"images": reference},
		"$inc":  bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		var doc model.Carousel
		err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
		if err == nil {
			return &doc, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("append carousel image: %w", err)
		}

		// Two first-time upserts can race on _id as well; only a full document is a capacity failure.
		current, getErr := r.get(ctx)
		if getErr != nil && !errors.Is(getErr, ErrNotFound) {
			return nil, getErr
		}
		if current != nil && len(current.Images) >= capacity {
			span.SetAttributes(attribute.Bool("carousel.full", true))
			return nil, ErrCapacityExceeded
		}
	}
	return nil, ErrConflict
}

// Remove rewrites the image list guarded by the document version and retries when another writer won the race.
func (r *MongoCarouselRepository) Remove(ctx context.Context, reference string) (*model.Carousel, error) {
	ctx, span := CarouselRepositoryTracer.Start(ctx, "CarouselRepository.Remove")
	defer span.End()
	logger.Debug(ctx, "CarouselRepository.Remove")

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		doc, err := r.get(ctx)
		if err != nil {
			return nil, err
		}

		images, found := removeFirst(doc.Images, reference)
		if !found {
			return nil, ErrNotFound
		}

		res, err := r.collection.UpdateOne(ctx, versionFilter(doc.Version), bson.M{
			"$set": bson.M{"images": images},
			"$inc": bson.M{"version": 1},
		})
		if err != nil {
			return nil, fmt.Errorf("remove carousel image: %w", err)
		}
		if res.MatchedCount == 1 {
			doc.Images = images
			doc.Version++
			return doc, nil
		}
		span.SetAttributes(attribute.Int("carousel.remove_attempt", attempt))
	}
	return nil, ErrConflict
}

func (r *MongoCarouselRepository) Reset(ctx context.Context) error {
	ctx, span := CarouselRepositoryTracer.Start(ctx, "CarouselRepository.Reset")
	defer span.End()
	logger.Debug(ctx, "CarouselRepository.Reset")

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": model.CarouselID},
		bson.M{"$set": bson.M{"images": bson.A{}}, "$inc": bson.M{"version": 1}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("reset carousel: %w", err)
	}
	return nil
}

// AdoptLegacy moves a carousel stored under a generated ObjectId, as older deployments did, onto the
// singleton id, passing each entry through normalize. Entries normalize rejects are kept verbatim.
// It does nothing when the singleton already exists or no legacy document is found.
func (r *MongoCarouselRepository) AdoptLegacy(ctx context.Context, normalize func(string) (string, error)) (bool, error) {
	ctx, span := CarouselRepositoryTracer.Start(ctx, "CarouselRepository.AdoptLegacy")
	defer span.End()

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.get(ctx); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	var legacy struct {
		ID     any      `bson:"_id"`
		Images []string `bson:"images"`
	}
	err := r.collection.FindOne(ctx, bson.M{"_id": bson.M{"$ne": model.CarouselID}}).Decode(&legacy)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find legacy carousel: %w", err)
	}
	images := make([]string, 0, len(legacy.Images))
	for _, img := range legacy.Images {
		ref, err := normalize(img)
		if err != nil {
			logger.Warn(ctx, "Keeping unmapped legacy carousel entry", slog.String("reference", img))
			ref = img
		}
		images = append(images, ref)
	}

	_, err = r.collection.InsertOne(ctx, model.Carousel{ID: model.CarouselID, Images: images})
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("adopt legacy carousel: %w", err)
	}
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": legacy.ID}); err != nil {
		return false, fmt.Errorf("remove legacy carousel: %w", err)
	}

	logger.Info(ctx, "Adopted legacy carousel", slog.Int("images", len(images)))
	return true, nil
}

// versionFilter matches the singleton at version v. Documents written before versioning have no field at all.
func versionFilter(v int64) bson.M {
	if v == 0 {
		return bson.M{"_id": model.CarouselID, "version": bson.M{"$in": bson.A{0, nil}}}
	}
	return bson.M{"_id": model.CarouselID, "version": v}
}
