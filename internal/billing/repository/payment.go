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

// PaymentRepository stores payments. Payments are never deleted; the only
// change after insert is confirming or rejecting a PENDING one.
type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByID(ctx context.Context, id string) (*model.Payment, error)
	// FindByBill returns the payments of a bill in recording order.
	FindByBill(ctx context.Context, billID string) ([]model.Payment, error)
	// CountByBill counts the payments of a bill that were not rejected.
	CountByBill(ctx context.Context, billID string) (int64, error)
	// Confirm marks a PENDING payment SUCCESS. It returns ErrStatusChanged
	// when the payment is not PENDING any more.
	Confirm(ctx context.Context, id, confirmedBy string, at time.Time) error
	// Reject marks a PENDING payment REJECTED, with the same ErrStatusChanged
	// contract as Confirm.
	Reject(ctx context.Context, id, rejectedBy string, at time.Time) error
}

type mongoPaymentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoPaymentRepository(db *mongo.Database, cfg *config.Config) PaymentRepository {
	return &mongoPaymentRepository{
		cfg:        cfg,
		collection: db.Collection(PaymentsCollection),
	}
}

func (r *mongoPaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	payment.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, payment); err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *mongoPaymentRepository) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	if !mongodb.ValidID(id) {
		return nil, fmt.Errorf("%w: %s", billingerrors.ErrInvalidID, id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	payment, err := mongodb.FindOne[model.Payment](ctx, r.collection, bson.M{"_id": id})
	if err != nil {
		if mongodb.IsNotFound(err) {
			return nil, billingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return payment, nil
}

func (r *mongoPaymentRepository) FindByBill(ctx context.Context, billID string) ([]model.Payment, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	payments, err := mongodb.FindMany[model.Payment](ctx, r.collection, bson.M{"bill_id": billID},
		mongodb.Page(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to find payments: %w", err)
	}
	return values(payments), nil
}

func (r *mongoPaymentRepository) CountByBill(ctx context.Context, billID string) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"bill_id": billID,
		"status":  bson.M{"$ne": model.PaymentRejected},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}
	return count, nil
}

func (r *mongoPaymentRepository) Confirm(ctx context.Context, id, confirmedBy string, at time.Time) error {
	return r.settlePending(ctx, id, bson.M{
		"status":       model.PaymentSuccess,
		"confirmed_by": confirmedBy,
		"confirmed_at": at,
	})
}

func (r *mongoPaymentRepository) Reject(ctx context.Context, id, rejectedBy string, at time.Time) error {
	return r.settlePending(ctx, id, bson.M{
		"status":      model.PaymentRejected,
		"rejected_by": rejectedBy,
		"rejected_at": at,
	})
}

// settlePending applies set to a payment that is still PENDING.
func (r *mongoPaymentRepository) settlePending(ctx context.Context, id string, set bson.M) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": model.PaymentPending},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to update payment %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return billingerrors.ErrStatusChanged
	}
	return nil
}
