package repository

import (
	"context"
	"fmt"

	"pgstay/pkg/config"
	mongodb "pgstay/pkg/db/mongo"
	"pgstay/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ElectricityRepository keeps the meter readings behind ELECTRICITY line
// items for audit.
type ElectricityRepository interface {
	Create(ctx context.Context, reading *model.ElectricityReading) error
	FindByBill(ctx context.Context, billID string) ([]model.ElectricityReading, error)
}

type mongoElectricityRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoElectricityRepository(db *mongo.Database, cfg *config.Config) ElectricityRepository {
	return &mongoElectricityRepository{
		cfg:        cfg,
		collection: db.Collection(ElectricityReadingsCollection),
	}
}

func (r *mongoElectricityRepository) Create(ctx context.Context, reading *model.ElectricityReading) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, reading); err != nil {
		return fmt.Errorf("failed to create electricity reading: %w", err)
	}
	return nil
}

func (r *mongoElectricityRepository) FindByBill(ctx context.Context, billID string) ([]model.ElectricityReading, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	readings, err := mongodb.FindMany[model.ElectricityReading](ctx, r.collection, bson.M{"bill_id": billID},
		mongodb.Page(bson.D{{Key: "recorded_at", Value: 1}}, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to find electricity readings: %w", err)
	}
	return values(readings), nil
}
