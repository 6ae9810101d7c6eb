package validators

import "go.mongodb.org/mongo-driver/bson"

// IDs are UUID strings.
var (
	uuidString = bson.M{"bsonType": "string", "minLength": 36, "maxLength": 36}
	money      = bson.M{"bsonType": "decimal"}
	date       = bson.M{"bsonType": "date"}
	optDate    = bson.M{"bsonType": []string{"date", "null"}}
)

func enum[T ~string](values ...T) bson.M {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return bson.M{"bsonType": "string", "enum": out}
}

func schema(required []string, properties bson.M) bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType":             "object",
			"required":             required,
			"additionalProperties": true,
			"properties":           properties,
		},
	}
}
