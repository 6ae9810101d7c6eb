package validators

import (
	"pgstay/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

var TenantValidator = schema(
	[]string{"_id", "user_id", "name", "phone", "check_in_date", "status", "created_at"},
	bson.M{
		"_id":                uuidString,
		"user_id":            uuidString,
		"bed_id":             uuidString,
		"bed_ids":            bson.M{"bsonType": "array", "items": uuidString},
		"name":               bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
		"phone":              bson.M{"bsonType": "string"},
		"check_in_date":      date,
		"expected_checkout":  optDate,
		"actual_checkout":    optDate,
		"notice_given_date":  optDate,
		"notice_period_days": bson.M{"bsonType": "int", "minimum": 0},
		"status":             enum(model.TenantActive, model.TenantNoticePeriod, model.TenantCheckedOut),
		"meals":              bson.M{"bsonType": "object"},
		"created_at":         date,
		"updated_at":         date,
	},
)
