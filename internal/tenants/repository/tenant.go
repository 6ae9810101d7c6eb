package repository

import (
	"context"
	"fmt"
	"time"

	tenantserrors "pgstay/internal/tenants/errors"
	"pgstay/pkg/config"
	mongodb "pgstay/pkg/db/mongo"
	"pgstay/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "Tenants"

// TenantRepository stores tenant profiles. A user has at most one.
type TenantRepository interface {
	Create(ctx context.Context, tenant *model.Tenant) error
	FindByID(ctx context.Context, id string) (*model.Tenant, error)
	FindByUserID(ctx context.Context, userID string) (*model.Tenant, error)
	Find(ctx context.Context, filter model.TenantFilter, limit int, offset int64) ([]*model.Tenant, error)
	Count(ctx context.Context, filter model.TenantFilter) (int64, error)
	// Update replaces the tenant when its stored status is still expected.
	Update(ctx context.Context, tenant *model.Tenant, expected model.TenantStatus) error
	// ExistsResidentOnBed reports whether an ACTIVE or NOTICE_PERIOD tenant
	// holds bedID.
	ExistsResidentOnBed(ctx context.Context, bedID string) (bool, error)
}

type mongoTenantRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTenantRepository(db *mongo.Database, cfg *config.Config) TenantRepository {
	return &mongoTenantRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoTenantRepository) Create(ctx context.Context, tenant *model.Tenant) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	tenant.CreatedAt = now
	tenant.UpdatedAt = now
	if _, err := r.collection.InsertOne(ctx, tenant); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return tenantserrors.ErrDuplicate
		}
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

func (r *mongoTenantRepository) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	if !mongodb.ValidID(id) {
		return nil, fmt.Errorf("%w: %s", tenantserrors.ErrInvalidID, id)
	}
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoTenantRepository) FindByUserID(ctx context.Context, userID string) (*model.Tenant, error) {
	return r.findOne(ctx, bson.M{"user_id": userID})
}

func (r *mongoTenantRepository) findOne(ctx context.Context, filter bson.M) (*model.Tenant, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	tenant, err := mongodb.FindOne[model.Tenant](ctx, r.collection, filter)
	if err != nil {
		if mongodb.IsNotFound(err) {
			return nil, tenantserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find tenant: %w", err)
	}
	return tenant, nil
}

func tenantFilter(filter model.TenantFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.BedID != "" {
		query["$or"] = bson.A{bson.M{"bed_id": filter.BedID}, bson.M{"bed_ids": filter.BedID}}
	}
	return query
}

func (r *mongoTenantRepository) Find(ctx context.Context, filter model.TenantFilter, limit int, offset int64) ([]*model.Tenant, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	tenants, err := mongodb.FindMany[model.Tenant](ctx, r.collection, tenantFilter(filter),
		mongodb.Page(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}, limit, offset))
	if err != nil {
		return nil, fmt.Errorf("failed to find tenants: %w", err)
	}
	return tenants, nil
}

func (r *mongoTenantRepository) Count(ctx context.Context, filter model.TenantFilter) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, tenantFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count tenants: %w", err)
	}
	return count, nil
}

func (r *mongoTenantRepository) Update(ctx context.Context, tenant *model.Tenant, expected model.TenantStatus) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	tenant.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": tenant.ID, "status": expected}, tenant)
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.FindByID(ctx, tenant.ID); err != nil {
			return err
		}
		return tenantserrors.ErrStatusChanged
	}
	return nil
}

func (r *mongoTenantRepository) ExistsResidentOnBed(ctx context.Context, bedID string) (bool, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"$or":    bson.A{bson.M{"bed_id": bedID}, bson.M{"bed_ids": bedID}},
		"status": bson.M{"$in": []model.TenantStatus{model.TenantActive, model.TenantNoticePeriod}},
	})
	if err != nil {
		return false, fmt.Errorf("failed to count bed residents: %w", err)
	}
	return count > 0, nil
}
