package repository

import (
	"context"
	"fmt"
	"time"

	inventoryerrors "pgstay/internal/inventory/errors"
	"pgstay/pkg/config"
	mongodb "pgstay/pkg/db/mongo"
	"pgstay/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// BedRepository stores beds. Bed numbers are unique within a room.
type BedRepository interface {
	Create(ctx context.Context, bed *model.Bed) error
	FindByID(ctx context.Context, id string) (*model.Bed, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.Bed, error)
	Find(ctx context.Context, filter model.BedFilter, limit int, offset int64) ([]*model.Bed, error)
	Count(ctx context.Context, filter model.BedFilter) (int64, error)
	// UpdateStatus moves the bed from one status to another. It fails with
	// ErrStatusChanged when the bed is not in from any more.
	UpdateStatus(ctx context.Context, id string, from, to model.BedStatus) error
}

type mongoBedRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBedRepository(db *mongo.Database, cfg *config.Config) BedRepository {
	return &mongoBedRepository{
		cfg:        cfg,
		collection: db.Collection(BedsCollection),
	}
}

func (r *mongoBedRepository) Create(ctx context.Context, bed *model.Bed) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	bed.CreatedAt = now
	bed.UpdatedAt = now
	if _, err := r.collection.InsertOne(ctx, bed); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return inventoryerrors.ErrDuplicate
		}
		return fmt.Errorf("failed to create bed: %w", err)
	}
	return nil
}

func (r *mongoBedRepository) FindByID(ctx context.Context, id string) (*model.Bed, error) {
	if !mongodb.ValidID(id) {
		return nil, fmt.Errorf("%w: %s", inventoryerrors.ErrInvalidID, id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	bed, err := mongodb.FindOne[model.Bed](ctx, r.collection, bson.M{"_id": id})
	if err != nil {
		if mongodb.IsNotFound(err) {
			return nil, inventoryerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find bed: %w", err)
	}
	return bed, nil
}

func (r *mongoBedRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Bed, error) {
	for _, id := range ids {
		if !mongodb.ValidID(id) {
			return nil, fmt.Errorf("%w: %s", inventoryerrors.ErrInvalidID, id)
		}
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	beds, err := mongodb.FindMany[model.Bed](ctx, r.collection, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find beds: %w", err)
	}
	return orderByIDs(beds, ids), nil
}

// orderByIDs returns beds in the order of ids; $in does not preserve it.
func orderByIDs(beds []*model.Bed, ids []string) []*model.Bed {
	byID := make(map[string]*model.Bed, len(beds))
	for _, b := range beds {
		byID[b.ID] = b
	}
	ordered := make([]*model.Bed, 0, len(beds))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			ordered = append(ordered, b)
		}
	}
	return ordered
}

func bedFilter(filter model.BedFilter) bson.M {
	query := bson.M{}
	if filter.RoomID != "" {
		query["room_id"] = filter.RoomID
	}
	if filter.PropertyID != "" {
		query["property_id"] = filter.PropertyID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return query
}

func (r *mongoBedRepository) Find(ctx context.Context, filter model.BedFilter, limit int, offset int64) ([]*model.Bed, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	beds, err := mongodb.FindMany[model.Bed](ctx, r.collection, bedFilter(filter),
		mongodb.Page(bson.D{{Key: "room_id", Value: 1}, {Key: "bed_number", Value: 1}}, limit, offset))
	if err != nil {
		return nil, fmt.Errorf("failed to find beds: %w", err)
	}
	return beds, nil
}

func (r *mongoBedRepository) Count(ctx context.Context, filter model.BedFilter) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bedFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count beds: %w", err)
	}
	return count, nil
}

func (r *mongoBedRepository) UpdateStatus(ctx context.Context, id string, from, to model.BedStatus) error {
	if !mongodb.ValidID(id) {
		return fmt.Errorf("%w: %s", inventoryerrors.ErrInvalidID, id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{
			"status":     to,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update bed status: %w", err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return inventoryerrors.ErrStatusChanged
	}
	return nil
}
