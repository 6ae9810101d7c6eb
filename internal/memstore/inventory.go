package memstore

import (
	"context"
	"fmt"

	inventoryerrors "pgstay/internal/inventory/errors"
	"pgstay/internal/inventory/repository"
	mongodb "pgstay/pkg/db/mongo"
	"pgstay/pkg/model"
)

func (s *Store) Properties() repository.PropertyRepository { return propertyRepo{s} }
func (s *Store) Rooms() repository.RoomRepository { return roomRepo{s} }
func (s *Store) Beds() repository.BedRepository { return bedRepo{s} }

type propertyRepo struct{ s *Store }

func (r propertyRepo) Create(ctx context.Context, property *model.Property) error {
	return r.s.do(ctx, func() error {
		if _, ok := r.s.properties.get(property.ID); ok {
			return inventoryerrors.ErrDuplicate
		}
		property.CreatedAt = r.s.now()
		r.s.properties.put(property.ID, *property)
		return nil
	})
}

func (r propertyRepo) FindByID(ctx context.Context, id string) (*model.Property, error) {
	if !mongodb.ValidID(id) {
		return nil, fmt.Errorf("%w: %s", inventoryerrors.ErrInvalidID, id)
	}
	var out *model.Property
	err := r.s.do(ctx, func() error {
		p, ok := r.s.properties.get(id)
		if !ok {
			return inventoryerrors.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r propertyRepo) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Property, error) {
	var out []*model.Property
	err := r.s.do(ctx, func() error {
		out = page(r.s.properties.selectRows(nil, func(a, b *model.Property) bool {
			return a.Name < b.Name
		}), limit, offset)
		return nil
	})
	return out, err
}

func (r propertyRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.s.do(ctx, func() error {
		count = int64(len(r.s.properties.rows))
		return nil
	})
	return count, err
}

type roomRepo struct{ s *Store }

func (r roomRepo) Create(ctx context.Context, room *model.Room) error {
	return r.s.do(ctx, func() error {
		duplicate := r.s.rooms.exists(func(existing *model.Room) bool {
			return existing.ID == room.ID ||
				(existing.PropertyID == room.PropertyID && existing.RoomNumber == room.RoomNumber)
		})
		if duplicate {
			return inventoryerrors.ErrDuplicate
		}
		room.CreatedAt = r.s.now()
		r.s.rooms.put(room.ID, *room)
		return nil
	})
}

func (r roomRepo) FindByID(ctx context.Context, id string) (*model.Room, error) {
	if !mongodb.ValidID(id) {
		return nil, fmt.Errorf("%w: %s", inventoryerrors.ErrInvalidID, id)
	}
	var out *model.Room
	err := r.s.do(ctx, func() error {
		room, ok := r.s.rooms.get(id)
		if !ok {
			return inventoryerrors.ErrNotFound
		}
		out = &room
		return nil
	})
	return out, err
}

func (r roomRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Room, error) {
	out := []*model.Room{}
	err := r.s.do(ctx, func() error {
		for _, id := range ids {
			if room, ok := r.s.rooms.get(id); ok {
				out = append(out, &room)
			}
		}
		return nil
	})
	return out, err
}

func (r roomRepo) FindByProperty(ctx context.Context, propertyID string) ([]*model.Room, error) {
	var out []*model.Room
	err := r.s.do(ctx, func() error {
		out = r.s.rooms.selectRows(
			func(room *model.Room) bool { return room.PropertyID == propertyID },
			func(a, b *model.Room) bool {
				if a.Floor != b.Floor {
					return a.Floor < b.Floor
				}
				return a.RoomNumber < b.RoomNumber
			},
		)
		return nil
	})
	return out, err
}

type bedRepo struct{ s *Store }

func (r bedRepo) Create(ctx context.Context, bed *model.Bed) error {
	return r.s.do(ctx, func() error {
		duplicate := r.s.beds.exists(func(existing *model.Bed) bool {
			return existing.ID == bed.ID ||
				(existing.RoomID == bed.RoomID && existing.BedNumber == bed.BedNumber)
		})
		if duplicate {
			return inventoryerrors.ErrDuplicate
		}
		now := r.s.now()
		bed.CreatedAt = now
		bed.UpdatedAt = now
		r.s.beds.put(bed.ID, *bed)
		return nil
	})
}

func (r bedRepo) FindByID(ctx context.Context, id string) (*model.Bed, error) {
	if !mongodb.ValidID(id) {
		return nil, fmt.Errorf("%w: %s", inventoryerrors.ErrInvalidID, id)
	}
	var out *model.Bed
	err := r.s.do(ctx, func() error {
		bed, ok := r.s.beds.get(id)
		if !ok {
			return inventoryerrors.ErrNotFound
		}
		out = &bed
		return nil
	})
	return out, err
}

func (r bedRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Bed, error) {
	for _, id := range ids {
		if !mongodb.ValidID(id) {
			return nil, fmt.Errorf("%w: %s", inventoryerrors.ErrInvalidID, id)
		}
	}
	out := []*model.Bed{}
	err := r.s.do(ctx, func() error {
		for _, id := range ids {
			if bed, ok := r.s.beds.get(id); ok {
				out = append(out, &bed)
			}
		}
		return nil
	})
	return out, err
}

func matchBed(filter model.BedFilter) func(*model.Bed) bool {
	return func(bed *model.Bed) bool {
		return (filter.RoomID == "" || bed.RoomID == filter.RoomID) &&
			(filter.PropertyID == "" || bed.PropertyID == filter.PropertyID) &&
			(filter.Status == "" || bed.Status == filter.Status)
	}
}

func (r bedRepo) Find(ctx context.Context, filter model.BedFilter, limit int, offset int64) ([]*model.Bed, error) {
	var out []*model.Bed
	err := r.s.do(ctx, func() error {
		out = page(r.s.beds.selectRows(matchBed(filter), func(a, b *model.Bed) bool {
			if a.RoomID != b.RoomID {
				return a.RoomID < b.RoomID
			}
			return a.BedNumber < b.BedNumber
		}), limit, offset)
		return nil
	})
	return out, err
}

func (r bedRepo) Count(ctx context.Context, filter model.BedFilter) (int64, error) {
	var count int64
	err := r.s.do(ctx, func() error {
		count = int64(len(r.s.beds.selectRows(matchBed(filter), nil)))
		return nil
	})
	return count, err
}

func (r bedRepo) UpdateStatus(ctx context.Context, id string, from, to model.BedStatus) error {
	if !mongodb.ValidID(id) {
		return fmt.Errorf("%w: %s", inventoryerrors.ErrInvalidID, id)
	}
	return r.s.do(ctx, func() error {
		bed, ok := r.s.beds.get(id)
		if !ok {
			return inventoryerrors.ErrNotFound
		}
		if bed.Status != from {
			return inventoryerrors.ErrStatusChanged
		}
		bed.Status = to
		bed.UpdatedAt = r.s.now()
		r.s.beds.put(id, bed)
		return nil
	})
}
