package validators

import (
	"pgstay/pkg/auth"

	"go.mongodb.org/mongo-driver/bson"
)

var UserValidator = schema(
	[]string{"_id", "name", "phone", "role", "password_hash", "created_at"},
	bson.M{
		"_id":                  uuidString,
		"name":                 bson.M{"bsonType": "string", "maxLength": 100},
		"phone":                bson.M{"bsonType": "string", "pattern": `^\+[1-9][0-9]{6,14}$`},
		"email":                bson.M{"bsonType": "string"},
		"role":                 enum(auth.RoleAdmin, auth.RoleTenant),
		"password_hash":        bson.M{"bsonType": "string", "minLength": 1},
		"must_change_password": bson.M{"bsonType": "bool"},
		"created_at":           date,
	},
)
