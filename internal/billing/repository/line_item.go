package repository

import (
	"context"
	"fmt"
	"time"

	billingerrors "pgstay/internal/billing/errors"
	"pgstay/pkg/config"
	mongodb "pgstay/pkg/db/mongo"
	"pgstay/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type LineItemRepository interface {
	Create(ctx context.Context, item *model.BillLineItem) error
	FindByID(ctx context.Context, id string) (*model.BillLineItem, error)
	// FindByBill returns the items of a bill ordered by position.
	FindByBill(ctx context.Context, billID string) ([]model.BillLineItem, error)
	Delete(ctx context.Context, id string) error
}

type mongoLineItemRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoLineItemRepository(db *mongo.Database, cfg *config.Config) LineItemRepository {
	return &mongoLineItemRepository{
		cfg:        cfg,
		collection: db.Collection(LineItemsCollection),
	}
}

func (r *mongoLineItemRepository) Create(ctx context.Context, item *model.BillLineItem) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	item.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("failed to create line item: %w", err)
	}
	return nil
}

func (r *mongoLineItemRepository) FindByID(ctx context.Context, id string) (*model.BillLineItem, error) {
	if !mongodb.ValidID(id) {
		return nil, fmt.Errorf("%w: %s", billingerrors.ErrInvalidID, id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	item, err := mongodb.FindOne[model.BillLineItem](ctx, r.collection, bson.M{"_id": id})
	if err != nil {
		if mongodb.IsNotFound(err) {
			return nil, billingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find line item: %w", err)
	}
	return item, nil
}

func (r *mongoLineItemRepository) FindByBill(ctx context.Context, billID string) ([]model.BillLineItem, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	items, err := mongodb.FindMany[model.BillLineItem](ctx, r.collection, bson.M{"bill_id": billID},
		mongodb.Page(bson.D{{Key: "position", Value: 1}}, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to find line items: %w", err)
	}
	return values(items), nil
}

func (r *mongoLineItemRepository) Delete(ctx context.Context, id string) error {
	if !mongodb.ValidID(id) {
		return fmt.Errorf("%w: %s", billingerrors.ErrInvalidID, id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete line item: %w", err)
	}
	if result.DeletedCount == 0 {
		return billingerrors.ErrNotFound
	}
	return nil
}

func values[T any](ptrs []*T) []T {
	out := make([]T, 0, len(ptrs))
	for _, p := range ptrs {
		out = append(out, *p)
	}
	return out
}
