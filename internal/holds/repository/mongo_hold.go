package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	holdserrors "brokerage/internal/holds/errors"
	"brokerage/pkg/config"
	"brokerage/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	HoldsCollectionName      = "Property_holds"
	ConfigsCollectionName    = "System_configs"
	PropertiesCollectionName = "Properties"
)

type mongoHoldRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoHoldRepository(cfg *config.Config) HoldRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoHoldRepository{
		cfg:        cfg,
		collection: db.Collection(HoldsCollectionName),
	}
}

// withTimeout bounds ctx by timeout unless it already runs inside a session
// or carries a tighter deadline.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoHoldRepository) Insert(ctx context.Context, hold *model.PropertyHold) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, hold); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return holdserrors.ErrAlreadyHeld
		}
		return fmt.Errorf("failed to insert hold: %w", err)
	}
	return nil
}

func (r *mongoHoldRepository) FindByID(ctx context.Context, id string) (*model.PropertyHold, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", holdserrors.ErrInvalidID, id)
	}

	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoHoldRepository) FindActiveByProperty(ctx context.Context, propertyID string) (*model.PropertyHold, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{"property_id": propertyID, "status": model.HoldStatusActive})
}

func (r *mongoHoldRepository) findOne(ctx context.Context, filter bson.M) (*model.PropertyHold, error) {
	var hold model.PropertyHold
	if err := r.collection.FindOne(ctx, filter).Decode(&hold); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, holdserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find hold: %w", err)
	}
	return &hold, nil
}

func filterToBSON(f model.HoldFilter) bson.M {
	filter := bson.M{}
	if f.CtvID != "" {
		filter["ctv_id"] = f.CtvID
	}
	if f.PropertyID != "" {
		filter["property_id"] = f.PropertyID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}

func (r *mongoHoldRepository) Find(ctx context.Context, f model.HoldFilter, limit int, offset int64) ([]*model.PropertyHold, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	return r.findMany(ctx, filterToBSON(f), opts)
}

func (r *mongoHoldRepository) Count(ctx context.Context, f model.HoldFilter) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, filterToBSON(f))
	if err != nil {
		return 0, fmt.Errorf("failed to count holds: %w", err)
	}
	return n, nil
}

func (r *mongoHoldRepository) FindExpired(ctx context.Context, now time.Time, afterID string, limit int) ([]*model.PropertyHold, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":     model.HoldStatusActive,
		"hold_until": bson.M{"$lte": now},
		"_id":        bson.M{"$gt": afterID},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	return r.findMany(ctx, filter, opts)
}

func (r *mongoHoldRepository) findMany(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.PropertyHold, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find holds: %w", err)
	}
	defer cursor.Close(ctx)

	holds := make([]*model.PropertyHold, 0)
	if err := cursor.All(ctx, &holds); err != nil {
		return nil, fmt.Errorf("failed to decode holds: %w", err)
	}
	return holds, nil
}

func (r *mongoHoldRepository) Extend(ctx context.Context, id string, seenExtendCount int, holdUntil, now time.Time) (*model.PropertyHold, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"_id":          id,
		"status":       model.HoldStatusActive,
		"extend_count": seenExtendCount,
	}
	update := bson.M{
		"$set": bson.M{"hold_until": holdUntil, "updated_at": now},
		"$inc": bson.M{"extend_count": 1},
	}

	return r.guardedUpdate(ctx, id, filter, update)
}

func (r *mongoHoldRepository) Transition(ctx context.Context, id string, t Transition) (*model.PropertyHold, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "status": model.HoldStatusActive}
	if t.DueBy != nil {
		filter["hold_until"] = bson.M{"$lte": *t.DueBy}
	}

	set := bson.M{"status": t.To, "updated_at": t.At}
	if t.CancelledBy != nil {
		set["cancelled_by"] = *t.CancelledBy
	}
	if t.CancelledReason != nil {
		set["cancelled_reason"] = *t.CancelledReason
	}

	return r.guardedUpdate(ctx, id, filter, bson.M{"$set": set})
}

// guardedUpdate applies update only when filter still matches. A miss is
// ErrNotFound if the record is gone and ErrStorageConflict otherwise.
func (r *mongoHoldRepository) guardedUpdate(ctx context.Context, id string, filter, update bson.M) (*model.PropertyHold, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var hold model.PropertyHold
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&hold)
	if err == nil {
		return &hold, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update hold: %w", err)
	}

	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to check hold existence: %w", err)
	}
	if n == 0 {
		return nil, holdserrors.ErrNotFound
	}
	return nil, holdserrors.ErrStorageConflict
}

func (r *mongoHoldRepository) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()
	return r.collection.Database().Client().Ping(ctx, nil)
}
