package validators

import (
	"pgstay/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

var DepositValidator = schema(
	[]string{"_id", "tenant_id", "amount_paid", "paid_date", "payment_method", "amount_refunded", "deductions", "status", "created_at"},
	bson.M{
		"_id":             uuidString,
		"tenant_id":       uuidString,
		"amount_paid":     money,
		"paid_date":       date,
		"payment_method":  paymentMethod,
		"amount_refunded": money,
		"refund_date":     optDate,
		"deductions": bson.M{
			"bsonType": "array",
			"items": bson.M{
				"bsonType": "object",
				"required": []string{"reason", "amount"},
				"properties": bson.M{
					"reason": bson.M{"bsonType": "string", "maxLength": 200},
					"amount": money,
				},
			},
		},
		"status":     enum(model.DepositHeld, model.DepositPartiallyRefunded, model.DepositRefunded),
		"created_at": date,
		"updated_at": date,
	},
)
