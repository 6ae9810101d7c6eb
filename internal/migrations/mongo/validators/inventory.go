package validators

import (
	"pgstay/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

var PropertyValidator = schema(
	[]string{"_id", "name", "address", "city", "created_at"},
	bson.M{
		"_id":        uuidString,
		"name":       bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
		"address":    bson.M{"bsonType": "string", "maxLength": 200},
		"city":       bson.M{"bsonType": "string", "maxLength": 50},
		"created_at": date,
	},
)

var RoomValidator = schema(
	[]string{"_id", "property_id", "room_number", "monthly_rent", "created_at"},
	bson.M{
		"_id":          uuidString,
		"property_id":  uuidString,
		"room_number":  bson.M{"bsonType": "string", "minLength": 1, "maxLength": 20},
		"floor":        bson.M{"bsonType": "int"},
		"has_ac":       bson.M{"bsonType": "bool"},
		"monthly_rent": money,
		"created_at":   date,
	},
)

var BedValidator = schema(
	[]string{"_id", "room_id", "property_id", "bed_number", "status", "created_at"},
	bson.M{
		"_id":              uuidString,
		"room_id":          uuidString,
		"property_id":      uuidString,
		"bed_number":       bson.M{"bsonType": "string", "minLength": 1, "maxLength": 20},
		"monthly_rent":     money,
		"security_deposit": money,
		"status":           enum(model.BedAvailable, model.BedOccupied, model.BedMaintenance, model.BedReserved),
		"created_at":       date,
		"updated_at":       date,
	},
)
