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

const (
	BillsCollection               = "Bills"
	LineItemsCollection           = "Bill_line_items"
	PaymentsCollection            = "Payments"
	ElectricityReadingsCollection = "Electricity_readings"
)

// BillRepository stores bills. (tenant_id, billing_month) is unique.
type BillRepository interface {
	Create(ctx context.Context, bill *model.Bill) error
	FindByID(ctx context.Context, id string) (*model.Bill, error)
	FindByTenantAndMonth(ctx context.Context, tenantID, month string) (*model.Bill, error)
	Find(ctx context.Context, filter model.BillFilter, limit int, offset int64) ([]*model.Bill, error)
	Count(ctx context.Context, filter model.BillFilter) (int64, error)
	// Update replaces the bill when its stored status is still expected.
	Update(ctx context.Context, bill *model.Bill, expected model.BillStatus) error
}

type mongoBillRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBillRepository(db *mongo.Database, cfg *config.Config) BillRepository {
	return &mongoBillRepository{
		cfg:        cfg,
		collection: db.Collection(BillsCollection),
	}
}

func (r *mongoBillRepository) Create(ctx context.Context, bill *model.Bill) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	bill.CreatedAt = now
	bill.UpdatedAt = now
	if _, err := r.collection.InsertOne(ctx, bill); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return billingerrors.ErrDuplicate
		}
		return fmt.Errorf("failed to create bill: %w", err)
	}
	return nil
}

func (r *mongoBillRepository) FindByID(ctx context.Context, id string) (*model.Bill, error) {
	if !mongodb.ValidID(id) {
		return nil, fmt.Errorf("%w: %s", billingerrors.ErrInvalidID, id)
	}
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoBillRepository) FindByTenantAndMonth(ctx context.Context, tenantID, month string) (*model.Bill, error) {
	return r.findOne(ctx, bson.M{"tenant_id": tenantID, "billing_month": month})
}

func (r *mongoBillRepository) findOne(ctx context.Context, filter bson.M) (*model.Bill, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	bill, err := mongodb.FindOne[model.Bill](ctx, r.collection, filter)
	if err != nil {
		if mongodb.IsNotFound(err) {
			return nil, billingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find bill: %w", err)
	}
	return bill, nil
}

func billFilter(filter model.BillFilter) bson.M {
	query := bson.M{}
	if filter.TenantID != "" {
		query["tenant_id"] = filter.TenantID
	}
	if filter.BillingMonth != "" {
		query["billing_month"] = filter.BillingMonth
	}
	switch {
	case filter.Status != "" && filter.ExcludeDrafts:
		query["status"] = bson.M{"$eq": filter.Status, "$ne": model.BillDraft}
	case filter.Status != "":
		query["status"] = filter.Status
	case filter.ExcludeDrafts:
		query["status"] = bson.M{"$ne": model.BillDraft}
	}
	return query
}

func (r *mongoBillRepository) Find(ctx context.Context, filter model.BillFilter, limit int, offset int64) ([]*model.Bill, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	bills, err := mongodb.FindMany[model.Bill](ctx, r.collection, billFilter(filter),
		mongodb.Page(bson.D{{Key: "billing_month", Value: -1}, {Key: "_id", Value: 1}}, limit, offset))
	if err != nil {
		return nil, fmt.Errorf("failed to find bills: %w", err)
	}
	return bills, nil
}

func (r *mongoBillRepository) Count(ctx context.Context, filter model.BillFilter) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, billFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count bills: %w", err)
	}
	return count, nil
}

func (r *mongoBillRepository) Update(ctx context.Context, bill *model.Bill, expected model.BillStatus) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	bill.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": bill.ID, "status": expected}, bill)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.FindByID(ctx, bill.ID); err != nil {
			return err
		}
		return billingerrors.ErrStatusChanged
	}
	return nil
}
