package validators

import (
	"pgstay/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

var BookingValidator = schema(
	[]string{"_id", "applicant_name", "phone", "check_in_date", "status", "bed_ids", "room_id", "created_at"},
	bson.M{
		"_id":            uuidString,
		"applicant_name": bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
		"phone":          bson.M{"bsonType": "string", "pattern": `^\+[1-9][0-9]{6,14}$`},
		"check_in_date":  date,
		"duration_months": bson.M{
			"bsonType": "int",
			"minimum":  0,
		},
		"duration_days": bson.M{
			"bsonType": "int",
			"minimum":  0,
		},
		"advance_amount": money,
		"status": enum(
			model.BookingPending,
			model.BookingApproved,
			model.BookingRejected,
			model.BookingCancelled,
			model.BookingConverted,
		),
		"bed_ids": bson.M{
			"bsonType": "array",
			"minItems": 1,
			"maxItems": model.MaxBedsPerBooking,
			"items":    uuidString,
		},
		"room_id":    uuidString,
		"decided_at": optDate,
		"created_at": date,
		"updated_at": date,
	},
)
