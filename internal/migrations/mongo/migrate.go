package mongo

import (
	"context"
	"fmt"

	billingrepo "pgstay/internal/billing/repository"
	bookingsrepo "pgstay/internal/bookings/repository"
	depositsrepo "pgstay/internal/deposits/repository"
	inventoryrepo "pgstay/internal/inventory/repository"
	"pgstay/internal/migrations/mongo/validators"
	tenantsrepo "pgstay/internal/tenants/repository"
	usersrepo "pgstay/internal/users/repository"
	"pgstay/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	PropertiesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
	}

	RoomsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "property_id", Value: 1}, {Key: "room_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	BedsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "room_id", Value: 1}, {Key: "bed_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "room_id", Value: 1}}},
	}

	UsersIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "bed_ids", Value: 1}}},
	}

	TenantsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "bed_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "bed_ids", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "name", Value: 1}}},
	}

	BillsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "billing_month", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "billing_month", Value: -1}, {Key: "status", Value: 1}}},
	}

	LineItemsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "bill_id", Value: 1}, {Key: "position", Value: 1}}},
	}

	PaymentsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "bill_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
	}

	ElectricityReadingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "bill_id", Value: 1}, {Key: "recorded_at", Value: 1}}},
	}

	DepositsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "paid_date", Value: 1}}},
	}
)

type collection struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections maps every collection the service writes to its schema and
// indexes.
func Collections() map[string]collection {
	return map[string]collection{
		inventoryrepo.PropertiesCollection:        {PropertiesIndexes, validators.PropertyValidator},
		inventoryrepo.RoomsCollection:             {RoomsIndexes, validators.RoomValidator},
		inventoryrepo.BedsCollection:              {BedsIndexes, validators.BedValidator},
		usersrepo.CollectionName:                  {UsersIndexes, validators.UserValidator},
		bookingsrepo.CollectionName:               {BookingsIndexes, validators.BookingValidator},
		tenantsrepo.CollectionName:                {TenantsIndexes, validators.TenantValidator},
		billingrepo.BillsCollection:               {BillsIndexes, validators.BillValidator},
		billingrepo.LineItemsCollection:           {LineItemsIndexes, validators.LineItemValidator},
		billingrepo.PaymentsCollection:            {PaymentsIndexes, validators.PaymentValidator},
		billingrepo.ElectricityReadingsCollection: {ElectricityReadingsIndexes, validators.ElectricityReadingValidator},
		depositsrepo.CollectionName:               {DepositsIndexes, validators.DepositValidator},
	}
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for name, def := range Collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
		log.Info("Collection migrated", "collection", name, "indexes", len(def.Indexes))
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	if len(models) == 0 {
		return nil
	}
	_, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	return err
}
