package memstore

import (
	"context"
	"fmt"
	"slices"

	bookingserrors "pgstay/internal/bookings/errors"
	bookingsrepo "pgstay/internal/bookings/repository"
	tenantserrors "pgstay/internal/tenants/errors"
	tenantsrepo "pgstay/internal/tenants/repository"
	userserrors "pgstay/internal/users/errors"
	usersrepo "pgstay/internal/users/repository"
	mongodb "pgstay/pkg/db/mongo"
	"pgstay/pkg/model"
)

func (s *Store) Users() usersrepo.UserRepository { return userRepo{s} }
func (s *Store) Bookings() bookingsrepo.BookingRepository { return bookingRepo{s} }
func (s *Store) Tenants() tenantsrepo.TenantRepository { return tenantRepo{s} }

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, user *model.User) error {
	return r.s.do(ctx, func() error {
		duplicate := r.s.users.exists(func(existing *model.User) bool {
			return existing.ID == user.ID || existing.Phone == user.Phone
		})
		if duplicate {
			return userserrors.ErrDuplicatePhone
		}
		user.CreatedAt = r.s.now()
		r.s.users.put(user.ID, *user)
		return nil
	})
}

func (r userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if !mongodb.ValidID(id) {
		return nil, fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}
	return r.findOne(ctx, func(u *model.User) bool { return u.ID == id })
}

func (r userRepo) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	return r.findOne(ctx, func(u *model.User) bool { return u.Phone == phone })
}

func (r userRepo) findOne(ctx context.Context, match func(*model.User) bool) (*model.User, error) {
	var out *model.User
	err := r.s.do(ctx, func() error {
		rows := r.s.users.selectRows(match, nil)
		if len(rows) == 0 {
			return userserrors.ErrNotFound
		}
		out = rows[0]
		return nil
	})
	return out, err
}

type bookingRepo struct{ s *Store }

func cloneBooking(b model.Booking) model.Booking {
	b.BedIDs = slices.Clone(b.BedIDs)
	return b
}

func (r bookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	return r.s.do(ctx, func() error {
		now := r.s.now()
		booking.CreatedAt = now
		booking.UpdatedAt = now
		r.s.bookings.put(booking.ID, cloneBooking(*booking))
		return nil
	})
}

func (r bookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if !mongodb.ValidID(id) {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	var out *model.Booking
	err := r.s.do(ctx, func() error {
		booking, ok := r.s.bookings.get(id)
		if !ok {
			return bookingserrors.ErrNotFound
		}
		booking = cloneBooking(booking)
		out = &booking
		return nil
	})
	return out, err
}

func matchBooking(filter model.BookingFilter) func(*model.Booking) bool {
	return func(b *model.Booking) bool {
		return filter.Status == "" || b.Status == filter.Status
	}
}

func (r bookingRepo) Find(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	var out []*model.Booking
	err := r.s.do(ctx, func() error {
		out = page(r.s.bookings.selectRows(matchBooking(filter), func(a, b *model.Booking) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID < b.ID
		}), limit, offset)
		for i, b := range out {
			clone := cloneBooking(*b)
			out[i] = &clone
		}
		return nil
	})
	return out, err
}

func (r bookingRepo) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	var count int64
	err := r.s.do(ctx, func() error {
		count = int64(len(r.s.bookings.selectRows(matchBooking(filter), nil)))
		return nil
	})
	return count, err
}

func (r bookingRepo) Update(ctx context.Context, booking *model.Booking, expected model.BookingStatus) error {
	return r.s.do(ctx, func() error {
		stored, ok := r.s.bookings.get(booking.ID)
		if !ok {
			return bookingserrors.ErrNotFound
		}
		if stored.Status != expected {
			return bookingserrors.ErrStatusChanged
		}
		booking.UpdatedAt = r.s.now()
		r.s.bookings.put(booking.ID, cloneBooking(*booking))
		return nil
	})
}

type tenantRepo struct{ s *Store }

func cloneTenant(t model.Tenant) model.Tenant {
	t.BedIDs = slices.Clone(t.BedIDs)
	return t
}

func cloneTenants(rows []*model.Tenant) []*model.Tenant {
	for i, t := range rows {
		clone := cloneTenant(*t)
		rows[i] = &clone
	}
	return rows
}

func (r tenantRepo) Create(ctx context.Context, tenant *model.Tenant) error {
	return r.s.do(ctx, func() error {
		duplicate := r.s.tenants.exists(func(existing *model.Tenant) bool {
			return existing.ID == tenant.ID || existing.UserID == tenant.UserID
		})
		if duplicate {
			return tenantserrors.ErrDuplicate
		}
		now := r.s.now()
		tenant.CreatedAt = now
		tenant.UpdatedAt = now
		r.s.tenants.put(tenant.ID, cloneTenant(*tenant))
		return nil
	})
}

func (r tenantRepo) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	if !mongodb.ValidID(id) {
		return nil, fmt.Errorf("%w: %s", tenantserrors.ErrInvalidID, id)
	}
	return r.findOne(ctx, func(t *model.Tenant) bool { return t.ID == id })
}

func (r tenantRepo) FindByUserID(ctx context.Context, userID string) (*model.Tenant, error) {
	return r.findOne(ctx, func(t *model.Tenant) bool { return t.UserID == userID })
}

func (r tenantRepo) findOne(ctx context.Context, match func(*model.Tenant) bool) (*model.Tenant, error) {
	var out *model.Tenant
	err := r.s.do(ctx, func() error {
		rows := r.s.tenants.selectRows(match, nil)
		if len(rows) == 0 {
			return tenantserrors.ErrNotFound
		}
		out = cloneTenants(rows[:1])[0]
		return nil
	})
	return out, err
}

func matchTenant(filter model.TenantFilter) func(*model.Tenant) bool {
	return func(t *model.Tenant) bool {
		return (filter.Status == "" || t.Status == filter.Status) &&
			(filter.BedID == "" || t.HoldsBed(filter.BedID))
	}
}

func (r tenantRepo) Find(ctx context.Context, filter model.TenantFilter, limit int, offset int64) ([]*model.Tenant, error) {
	var out []*model.Tenant
	err := r.s.do(ctx, func() error {
		out = cloneTenants(page(r.s.tenants.selectRows(matchTenant(filter), func(a, b *model.Tenant) bool {
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.ID < b.ID
		}), limit, offset))
		return nil
	})
	return out, err
}

func (r tenantRepo) Count(ctx context.Context, filter model.TenantFilter) (int64, error) {
	var count int64
	err := r.s.do(ctx, func() error {
		count = int64(len(r.s.tenants.selectRows(matchTenant(filter), nil)))
		return nil
	})
	return count, err
}

func (r tenantRepo) Update(ctx context.Context, tenant *model.Tenant, expected model.TenantStatus) error {
	return r.s.do(ctx, func() error {
		stored, ok := r.s.tenants.get(tenant.ID)
		if !ok {
			return tenantserrors.ErrNotFound
		}
		if stored.Status != expected {
			return tenantserrors.ErrStatusChanged
		}
		tenant.UpdatedAt = r.s.now()
		r.s.tenants.put(tenant.ID, cloneTenant(*tenant))
		return nil
	})
}

func (r tenantRepo) ExistsResidentOnBed(ctx context.Context, bedID string) (bool, error) {
	var exists bool
	err := r.s.do(ctx, func() error {
		exists = r.s.tenants.exists(func(t *model.Tenant) bool {
			return t.HoldsBed(bedID) && t.Resident()
		})
		return nil
	})
	return exists, err
}
