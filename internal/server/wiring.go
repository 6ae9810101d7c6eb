// Package server assembles repositories, services and handlers into the
// HTTP surface for either storage backend.
package server

import (
	"context"

	billinghandler "pgstay/internal/billing/handler"
	billingrepo "pgstay/internal/billing/repository"
	billingservice "pgstay/internal/billing/service"
	billingvalidator "pgstay/internal/billing/validator"
	bookinghandler "pgstay/internal/bookings/handler"
	bookingrepo "pgstay/internal/bookings/repository"
	bookingservice "pgstay/internal/bookings/service"
	bookingvalidator "pgstay/internal/bookings/validator"
	deposithandler "pgstay/internal/deposits/handler"
	depositrepo "pgstay/internal/deposits/repository"
	depositservice "pgstay/internal/deposits/service"
	depositvalidator "pgstay/internal/deposits/validator"
	inventoryhandler "pgstay/internal/inventory/handler"
	inventoryrepo "pgstay/internal/inventory/repository"
	inventoryservice "pgstay/internal/inventory/service"
	"pgstay/internal/memstore"
	tenanthandler "pgstay/internal/tenants/handler"
	tenantrepo "pgstay/internal/tenants/repository"
	tenantservice "pgstay/internal/tenants/service"
	userrepo "pgstay/internal/users/repository"
	userservice "pgstay/internal/users/service"
	"pgstay/pkg/config"
	"pgstay/pkg/contracts"
	mongodb "pgstay/pkg/db/mongo"
	"pgstay/pkg/events"
	"pgstay/pkg/validation"

	"go.mongodb.org/mongo-driver/mongo"
)

// Repositories is one storage backend.
type Repositories struct {
	Properties inventoryrepo.PropertyRepository
	Rooms      inventoryrepo.RoomRepository
	Beds       inventoryrepo.BedRepository
	Users      userrepo.UserRepository
	Bookings   bookingrepo.BookingRepository
	Tenants    tenantrepo.TenantRepository
	Bills      billingrepo.BillRepository
	LineItems  billingrepo.LineItemRepository
	Payments   billingrepo.PaymentRepository
	Readings   billingrepo.ElectricityRepository
	Deposits   depositrepo.DepositRepository

	TxManager mongodb.TransactionManager
	// DB is nil for the memory backend.
	DB Pinger
}

func MongoRepositories(client *mongo.Client, cfg *config.Config) Repositories {
	db := client.Database(cfg.MongoDatabaseName)
	return Repositories{
		Properties: inventoryrepo.NewMongoPropertyRepository(db, cfg),
		Rooms:      inventoryrepo.NewMongoRoomRepository(db, cfg),
		Beds:       inventoryrepo.NewMongoBedRepository(db, cfg),
		Users:      userrepo.NewMongoUserRepository(db, cfg),
		Bookings:   bookingrepo.NewMongoBookingRepository(db, cfg),
		Tenants:    tenantrepo.NewMongoTenantRepository(db, cfg),
		Bills:      billingrepo.NewMongoBillRepository(db, cfg),
		LineItems:  billingrepo.NewMongoLineItemRepository(db, cfg),
		Payments:   billingrepo.NewMongoPaymentRepository(db, cfg),
		Readings:   billingrepo.NewMongoElectricityRepository(db, cfg),
		Deposits:   depositrepo.NewMongoDepositRepository(db, cfg),
		TxManager:  mongodb.NewTransactionManager(client),
		DB:         mongoPinger{client: client},
	}
}

func MemoryRepositories(store *memstore.Store) Repositories {
	return Repositories{
		Properties: store.Properties(),
		Rooms:      store.Rooms(),
		Beds:       store.Beds(),
		Users:      store.Users(),
		Bookings:   store.Bookings(),
		Tenants:    store.Tenants(),
		Bills:      store.Bills(),
		LineItems:  store.LineItems(),
		Payments:   store.Payments(),
		Readings:   store.Electricity(),
		Deposits:   store.Deposits(),
		TxManager:  store.TransactionManager(),
	}
}

type mongoPinger struct {
	client *mongo.Client
}

func (p mongoPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx, nil)
}

type Services struct {
	Inventory inventoryservice.InventoryService
	Users     userservice.UserService
	Bookings  bookingservice.BookingService
	Tenants   tenantservice.TenantService
	Billing   billingservice.BillingService
	Deposits  depositservice.DepositService
}

func NewServices(cfg *config.Config, repos Repositories, publisher events.Publisher) Services {
	v := validation.New(cfg.Log)

	users := userservice.NewUserService(repos.Users, cfg)
	inventory := inventoryservice.NewInventoryService(
		repos.Properties,
		repos.Rooms,
		repos.Beds,
		repos.Tenants,
		repos.TxManager,
		v,
		publisher,
		cfg,
	)
	tenants := tenantservice.NewTenantService(
		repos.Tenants,
		users,
		repos.Beds,
		repos.TxManager,
		v,
		publisher,
		cfg,
	)
	bookings := bookingservice.NewBookingService(
		repos.Bookings,
		repos.Beds,
		users,
		tenants,
		repos.TxManager,
		bookingvalidator.NewBookingValidator(v),
		publisher,
		cfg,
	)
	billing := billingservice.NewBillingService(
		repos.Bills,
		repos.LineItems,
		repos.Payments,
		repos.Readings,
		tenants,
		inventory,
		repos.TxManager,
		billingvalidator.NewBillingValidator(v),
		publisher,
		cfg,
	)
	deposits := depositservice.NewDepositService(
		repos.Deposits,
		tenants,
		repos.TxManager,
		depositvalidator.NewDepositValidator(v),
		publisher,
		cfg,
	)

	cfg.Log.Info("Services initialized", "storage_backend", cfg.StorageBackend)
	return Services{
		Inventory: inventory,
		Users:     users,
		Bookings:  bookings,
		Tenants:   tenants,
		Billing:   billing,
		Deposits:  deposits,
	}
}

// Handlers returns every API handler. Health is mounted separately.
func (s Services) Handlers(cfg *config.Config) []contracts.Handler {
	return []contracts.Handler{
		inventoryhandler.NewInventoryHandler(s.Inventory, cfg.Log),
		bookinghandler.NewBookingHandler(s.Bookings, cfg.Log),
		tenanthandler.NewTenantHandler(s.Tenants, cfg.Log),
		billinghandler.NewBillingHandler(s.Billing, cfg.Log),
		deposithandler.NewDepositHandler(s.Deposits, cfg.Log),
	}
}
