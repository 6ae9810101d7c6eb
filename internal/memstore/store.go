// Package memstore keeps every collection in process memory. It backs the
// memory storage backend and the service tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	mongotx "pgstay/pkg/db/mongo"
	"pgstay/pkg/model"
)

type txKey struct{}

// Store holds one table per collection. A transaction holds the store lock
// from start to commit, so transactions are serialized and a failed one is
// rolled back from a snapshot.
type Store struct {
	mu sync.Mutex

	properties table[model.Property]
	rooms      table[model.Room]
	beds       table[model.Bed]
	users      table[model.User]
	bookings   table[model.Booking]
	tenants    table[model.Tenant]
	bills      table[model.Bill]
	lineItems  table[model.BillLineItem]
	payments   table[model.Payment]
	readings   table[model.ElectricityReading]
	deposits   table[model.SecurityDeposit]

	now func() time.Time
}

func New() *Store {
	return &Store{
		properties: newTable[model.Property](),
		rooms:      newTable[model.Room](),
		beds:       newTable[model.Bed](),
		users:      newTable[model.User](),
		bookings:   newTable[model.Booking](),
		tenants:    newTable[model.Tenant](),
		bills:      newTable[model.Bill](),
		lineItems:  newTable[model.BillLineItem](),
		payments:   newTable[model.Payment](),
		readings:   newTable[model.ElectricityReading](),
		deposits:   newTable[model.SecurityDeposit](),
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// TransactionManager returns a transaction manager over the store.
func (s *Store) TransactionManager() mongotx.TransactionManager {
	return storeTx{store: s}
}

type storeTx struct {
	store *Store
}

func (t storeTx) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// do runs fn under the store lock unless ctx already holds it through a
// transaction.
func (s *Store) do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if inTx(ctx) {
		return fn()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

type snapshot struct {
	properties map[string]model.Property
	rooms      map[string]model.Room
	beds       map[string]model.Bed
	users      map[string]model.User
	bookings   map[string]model.Booking
	tenants    map[string]model.Tenant
	bills      map[string]model.Bill
	lineItems  map[string]model.BillLineItem
	payments   map[string]model.Payment
	readings   map[string]model.ElectricityReading
	deposits   map[string]model.SecurityDeposit
}

// Rows are stored as private copies and never mutated in place, so copying
// the maps is enough.
func (s *Store) snapshot() snapshot {
	return snapshot{
		properties: s.properties.copyRows(),
		rooms:      s.rooms.copyRows(),
		beds:       s.beds.copyRows(),
		users:      s.users.copyRows(),
		bookings:   s.bookings.copyRows(),
		tenants:    s.tenants.copyRows(),
		bills:      s.bills.copyRows(),
		lineItems:  s.lineItems.copyRows(),
		payments:   s.payments.copyRows(),
		readings:   s.readings.copyRows(),
		deposits:   s.deposits.copyRows(),
	}
}

func (s *Store) restore(snap snapshot) {
	s.properties.rows = snap.properties
	s.rooms.rows = snap.rooms
	s.beds.rows = snap.beds
	s.users.rows = snap.users
	s.bookings.rows = snap.bookings
	s.tenants.rows = snap.tenants
	s.bills.rows = snap.bills
	s.lineItems.rows = snap.lineItems
	s.payments.rows = snap.payments
	s.readings.rows = snap.readings
	s.deposits.rows = snap.deposits
}

// table keeps insertion order so rows that sort equal come back in the
// order they were written.
type table[T any] struct {
	rows map[string]T
	seq  map[string]int64
	next int64
}

func newTable[T any]() table[T] {
	return table[T]{rows: make(map[string]T), seq: make(map[string]int64)}
}

func (t *table[T]) copyRows() map[string]T {
	rows := make(map[string]T, len(t.rows))
	for k, v := range t.rows {
		rows[k] = v
	}
	return rows
}

func (t *table[T]) get(id string) (T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[T]) put(id string, v T) {
	if _, ok := t.seq[id]; !ok {
		t.next++
		t.seq[id] = t.next
	}
	t.rows[id] = v
}

func (t *table[T]) delete(id string) {
	delete(t.rows, id)
}

// selectRows returns copies of the rows matching keep, ordered by less.
func (t *table[T]) selectRows(keep func(*T) bool, less func(a, b *T) bool) []*T {
	ids := make([]string, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return t.seq[ids[i]] < t.seq[ids[j]] })

	out := []*T{}
	for _, id := range ids {
		row := t.rows[id]
		if keep == nil || keep(&row) {
			out = append(out, &row)
		}
	}
	if less != nil {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	return out
}

func (t *table[T]) exists(match func(*T) bool) bool {
	for _, v := range t.rows {
		row := v
		if match(&row) {
			return true
		}
	}
	return false
}

func page[T any](rows []*T, limit int, offset int64) []*T {
	if offset > 0 {
		if offset >= int64(len(rows)) {
			return []*T{}
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func values[T any](rows []*T) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	return out
}
