package repository

import (
	"context"
	"fmt"
	"time"

	depositserrors "pgstay/internal/deposits/errors"
	"pgstay/pkg/config"
	mongodb "pgstay/pkg/db/mongo"
	"pgstay/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "Security_deposits"

type DepositRepository interface {
	Create(ctx context.Context, deposit *model.SecurityDeposit) error
	FindByID(ctx context.Context, id string) (*model.SecurityDeposit, error)
	FindByTenant(ctx context.Context, tenantID string) ([]*model.SecurityDeposit, error)
	// Update replaces the deposit when its stored UpdatedAt still equals
	// expected.
	Update(ctx context.Context, deposit *model.SecurityDeposit, expected time.Time) error
}

type mongoDepositRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoDepositRepository(db *mongo.Database, cfg *config.Config) DepositRepository {
	return &mongoDepositRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoDepositRepository) Create(ctx context.Context, deposit *model.SecurityDeposit) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	deposit.CreatedAt = now
	deposit.UpdatedAt = now
	if deposit.Deductions == nil {
		deposit.Deductions = []model.Deduction{}
	}
	if _, err := r.collection.InsertOne(ctx, deposit); err != nil {
		return fmt.Errorf("failed to create security deposit: %w", err)
	}
	return nil
}

func (r *mongoDepositRepository) FindByID(ctx context.Context, id string) (*model.SecurityDeposit, error) {
	if !mongodb.ValidID(id) {
		return nil, fmt.Errorf("%w: %s", depositserrors.ErrInvalidID, id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	deposit, err := mongodb.FindOne[model.SecurityDeposit](ctx, r.collection, bson.M{"_id": id})
	if err != nil {
		if mongodb.IsNotFound(err) {
			return nil, depositserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find security deposit: %w", err)
	}
	return deposit, nil
}

func (r *mongoDepositRepository) FindByTenant(ctx context.Context, tenantID string) ([]*model.SecurityDeposit, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	deposits, err := mongodb.FindMany[model.SecurityDeposit](ctx, r.collection, bson.M{"tenant_id": tenantID},
		mongodb.Page(bson.D{{Key: "paid_date", Value: 1}, {Key: "_id", Value: 1}}, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to find security deposits: %w", err)
	}
	return deposits, nil
}

func (r *mongoDepositRepository) Update(ctx context.Context, deposit *model.SecurityDeposit, expected time.Time) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	deposit.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if !deposit.UpdatedAt.After(expected) {
		deposit.UpdatedAt = expected.Add(time.Millisecond)
	}
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": deposit.ID, "updated_at": expected}, deposit)
	if err != nil {
		return fmt.Errorf("failed to update security deposit: %w", err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.FindByID(ctx, deposit.ID); err != nil {
			return err
		}
		return depositserrors.ErrChanged
	}
	return nil
}
