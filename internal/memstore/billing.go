package memstore

import (
	"context"
	"fmt"
	"time"

	billingerrors "pgstay/internal/billing/errors"
	billingrepo "pgstay/internal/billing/repository"
	mongodb "pgstay/pkg/db/mongo"
	"pgstay/pkg/model"
)

func (s *Store) Bills() billingrepo.BillRepository { return billRepo{s} }
func (s *Store) LineItems() billingrepo.LineItemRepository { return lineItemRepo{s} }
func (s *Store) Payments() billingrepo.PaymentRepository { return paymentRepo{s} }
func (s *Store) Electricity() billingrepo.ElectricityRepository { return electricityRepo{s} }

type billRepo struct{ s *Store }

func (r billRepo) Create(ctx context.Context, bill *model.Bill) error {
	return r.s.do(ctx, func() error {
		duplicate := r.s.bills.exists(func(existing *model.Bill) bool {
			return existing.ID == bill.ID ||
				(existing.TenantID == bill.TenantID && existing.BillingMonth == bill.BillingMonth)
		})
		if duplicate {
			return billingerrors.ErrDuplicate
		}
		now := r.s.now()
		bill.CreatedAt = now
		bill.UpdatedAt = now
		r.s.bills.put(bill.ID, *bill)
		return nil
	})
}

func (r billRepo) FindByID(ctx context.Context, id string) (*model.Bill, error) {
	if !mongodb.ValidID(id) {
		return nil, fmt.Errorf("%w: %s", billingerrors.ErrInvalidID, id)
	}
	return r.findOne(ctx, func(b *model.Bill) bool { return b.ID == id })
}

func (r billRepo) FindByTenantAndMonth(ctx context.Context, tenantID, month string) (*model.Bill, error) {
	return r.findOne(ctx, func(b *model.Bill) bool {
		return b.TenantID == tenantID && b.BillingMonth == month
	})
}

func (r billRepo) findOne(ctx context.Context, match func(*model.Bill) bool) (*model.Bill, error) {
	var out *model.Bill
	err := r.s.do(ctx, func() error {
		rows := r.s.bills.selectRows(match, nil)
		if len(rows) == 0 {
			return billingerrors.ErrNotFound
		}
		out = rows[0]
		return nil
	})
	return out, err
}

func matchBill(filter model.BillFilter) func(*model.Bill) bool {
	return func(b *model.Bill) bool {
		return (filter.TenantID == "" || b.TenantID == filter.TenantID) &&
			(filter.BillingMonth == "" || b.BillingMonth == filter.BillingMonth) &&
			(filter.Status == "" || b.Status == filter.Status) &&
			(!filter.ExcludeDrafts || b.Status != model.BillDraft)
	}
}

func (r billRepo) Find(ctx context.Context, filter model.BillFilter, limit int, offset int64) ([]*model.Bill, error) {
	var out []*model.Bill
	err := r.s.do(ctx, func() error {
		out = page(r.s.bills.selectRows(matchBill(filter), func(a, b *model.Bill) bool {
			if a.BillingMonth != b.BillingMonth {
				return a.BillingMonth > b.BillingMonth
			}
			return a.ID < b.ID
		}), limit, offset)
		return nil
	})
	return out, err
}

func (r billRepo) Count(ctx context.Context, filter model.BillFilter) (int64, error) {
	var count int64
	err := r.s.do(ctx, func() error {
		count = int64(len(r.s.bills.selectRows(matchBill(filter), nil)))
		return nil
	})
	return count, err
}

func (r billRepo) Update(ctx context.Context, bill *model.Bill, expected model.BillStatus) error {
	return r.s.do(ctx, func() error {
		stored, ok := r.s.bills.get(bill.ID)
		if !ok {
			return billingerrors.ErrNotFound
		}
		if stored.Status != expected {
			return billingerrors.ErrStatusChanged
		}
		bill.UpdatedAt = r.s.now()
		r.s.bills.put(bill.ID, *bill)
		return nil
	})
}

type lineItemRepo struct{ s *Store }

func (r lineItemRepo) Create(ctx context.Context, item *model.BillLineItem) error {
	return r.s.do(ctx, func() error {
		item.CreatedAt = r.s.now()
		r.s.lineItems.put(item.ID, *item)
		return nil
	})
}

func (r lineItemRepo) FindByID(ctx context.Context, id string) (*model.BillLineItem, error) {
	if !mongodb.ValidID(id) {
		return nil, fmt.Errorf("%w: %s", billingerrors.ErrInvalidID, id)
	}
	var out *model.BillLineItem
	err := r.s.do(ctx, func() error {
		item, ok := r.s.lineItems.get(id)
		if !ok {
			return billingerrors.ErrNotFound
		}
		out = &item
		return nil
	})
	return out, err
}

func (r lineItemRepo) FindByBill(ctx context.Context, billID string) ([]model.BillLineItem, error) {
	var out []model.BillLineItem
	err := r.s.do(ctx, func() error {
		out = values(r.s.lineItems.selectRows(
			func(item *model.BillLineItem) bool { return item.BillID == billID },
			func(a, b *model.BillLineItem) bool { return a.Position < b.Position },
		))
		return nil
	})
	return out, err
}

func (r lineItemRepo) Delete(ctx context.Context, id string) error {
	if !mongodb.ValidID(id) {
		return fmt.Errorf("%w: %s", billingerrors.ErrInvalidID, id)
	}
	return r.s.do(ctx, func() error {
		if _, ok := r.s.lineItems.get(id); !ok {
			return billingerrors.ErrNotFound
		}
		r.s.lineItems.delete(id)
		return nil
	})
}

type paymentRepo struct{ s *Store }

func (r paymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	return r.s.do(ctx, func() error {
		payment.CreatedAt = r.s.now()
		r.s.payments.put(payment.ID, *payment)
		return nil
	})
}

func (r paymentRepo) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	if !mongodb.ValidID(id) {
		return nil, fmt.Errorf("%w: %s", billingerrors.ErrInvalidID, id)
	}
	var out *model.Payment
	err := r.s.do(ctx, func() error {
		payment, ok := r.s.payments.get(id)
		if !ok {
			return billingerrors.ErrNotFound
		}
		out = &payment
		return nil
	})
	return out, err
}

func (r paymentRepo) FindByBill(ctx context.Context, billID string) ([]model.Payment, error) {
	var out []model.Payment
	err := r.s.do(ctx, func() error {
		out = values(r.s.payments.selectRows(func(p *model.Payment) bool { return p.BillID == billID }, nil))
		return nil
	})
	return out, err
}

func (r paymentRepo) CountByBill(ctx context.Context, billID string) (int64, error) {
	var count int64
	err := r.s.do(ctx, func() error {
		count = int64(len(r.s.payments.selectRows(func(p *model.Payment) bool {
			return p.BillID == billID && p.Status != model.PaymentRejected
		}, nil)))
		return nil
	})
	return count, err
}

func (r paymentRepo) Confirm(ctx context.Context, id, confirmedBy string, at time.Time) error {
	return r.settlePending(ctx, id, func(payment *model.Payment) {
		payment.Status = model.PaymentSuccess
		payment.ConfirmedBy = confirmedBy
		payment.ConfirmedAt = &at
	})
}

func (r paymentRepo) Reject(ctx context.Context, id, rejectedBy string, at time.Time) error {
	return r.settlePending(ctx, id, func(payment *model.Payment) {
		payment.Status = model.PaymentRejected
		payment.RejectedBy = rejectedBy
		payment.RejectedAt = &at
	})
}

func (r paymentRepo) settlePending(ctx context.Context, id string, apply func(*model.Payment)) error {
	return r.s.do(ctx, func() error {
		payment, ok := r.s.payments.get(id)
		if !ok {
			return billingerrors.ErrNotFound
		}
		if payment.Status != model.PaymentPending {
			return billingerrors.ErrStatusChanged
		}
		apply(&payment)
		r.s.payments.put(id, payment)
		return nil
	})
}

type electricityRepo struct{ s *Store }

func (r electricityRepo) Create(ctx context.Context, reading *model.ElectricityReading) error {
	return r.s.do(ctx, func() error {
		r.s.readings.put(reading.ID, *reading)
		return nil
	})
}

func (r electricityRepo) FindByBill(ctx context.Context, billID string) ([]model.ElectricityReading, error) {
	var out []model.ElectricityReading
	err := r.s.do(ctx, func() error {
		out = values(r.s.readings.selectRows(
			func(e *model.ElectricityReading) bool { return e.BillID == billID },
			func(a, b *model.ElectricityReading) bool { return a.RecordedAt.Before(b.RecordedAt) },
		))
		return nil
	})
	return out, err
}
