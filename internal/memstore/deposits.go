package memstore

import (
	"context"
	"fmt"
	"slices"
	"time"

	depositserrors "pgstay/internal/deposits/errors"
	depositsrepo "pgstay/internal/deposits/repository"
	mongodb "pgstay/pkg/db/mongo"
	"pgstay/pkg/model"
)

func (s *Store) Deposits() depositsrepo.DepositRepository { return depositRepo{s} }

type depositRepo struct{ s *Store }

func cloneDeposit(d model.SecurityDeposit) model.SecurityDeposit {
	d.Deductions = slices.Clone(d.Deductions)
	if d.Deductions == nil {
		d.Deductions = []model.Deduction{}
	}
	return d
}

func (r depositRepo) Create(ctx context.Context, deposit *model.SecurityDeposit) error {
	return r.s.do(ctx, func() error {
		now := r.s.now()
		deposit.CreatedAt = now
		deposit.UpdatedAt = now
		if deposit.Deductions == nil {
			deposit.Deductions = []model.Deduction{}
		}
		r.s.deposits.put(deposit.ID, cloneDeposit(*deposit))
		return nil
	})
}

func (r depositRepo) FindByID(ctx context.Context, id string) (*model.SecurityDeposit, error) {
	if !mongodb.ValidID(id) {
		return nil, fmt.Errorf("%w: %s", depositserrors.ErrInvalidID, id)
	}
	var out *model.SecurityDeposit
	err := r.s.do(ctx, func() error {
		deposit, ok := r.s.deposits.get(id)
		if !ok {
			return depositserrors.ErrNotFound
		}
		deposit = cloneDeposit(deposit)
		out = &deposit
		return nil
	})
	return out, err
}

func (r depositRepo) FindByTenant(ctx context.Context, tenantID string) ([]*model.SecurityDeposit, error) {
	var out []*model.SecurityDeposit
	err := r.s.do(ctx, func() error {
		out = r.s.deposits.selectRows(
			func(d *model.SecurityDeposit) bool { return d.TenantID == tenantID },
			func(a, b *model.SecurityDeposit) bool { return a.PaidDate.Before(b.PaidDate) },
		)
		for i, d := range out {
			clone := cloneDeposit(*d)
			out[i] = &clone
		}
		return nil
	})
	return out, err
}

// Update bumps UpdatedAt strictly past expected so back-to-back refunds in
// the same millisecond still see a change.
func (r depositRepo) Update(ctx context.Context, deposit *model.SecurityDeposit, expected time.Time) error {
	return r.s.do(ctx, func() error {
		stored, ok := r.s.deposits.get(deposit.ID)
		if !ok {
			return depositserrors.ErrNotFound
		}
		if !stored.UpdatedAt.Equal(expected) {
			return depositserrors.ErrChanged
		}
		now := r.s.now()
		if !now.After(expected) {
			now = expected.Add(time.Millisecond)
		}
		deposit.UpdatedAt = now
		r.s.deposits.put(deposit.ID, cloneDeposit(*deposit))
		return nil
	})
}
