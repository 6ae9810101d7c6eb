package validators

import (
	"pgstay/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

var paymentMethod = enum(
	model.PaymentCash,
	model.PaymentUPI,
	model.PaymentBankTransfer,
	model.PaymentCard,
	model.PaymentCheque,
	model.PaymentOnline,
)

var BillValidator = schema(
	[]string{"_id", "tenant_id", "bed_id", "billing_month", "due_date", "total_amount", "paid_amount", "status", "created_at"},
	bson.M{
		"_id":              uuidString,
		"tenant_id":        uuidString,
		"bed_id":           uuidString,
		"billing_month":    bson.M{"bsonType": "string", "pattern": `^[0-9]{4}-(0[1-9]|1[0-2])$`},
		"due_date":         date,
		"total_amount":     money,
		"paid_amount":      money,
		"late_fee_applied": money,
		"status": enum(
			model.BillDraft,
			model.BillSent,
			model.BillPartial,
			model.BillPaid,
			model.BillOverdue,
			model.BillCancelled,
		),
		"sent_at":    optDate,
		"created_at": date,
		"updated_at": date,
	},
)

var LineItemValidator = schema(
	[]string{"_id", "bill_id", "type", "description", "quantity", "unit_price", "amount", "position"},
	bson.M{
		"_id":     uuidString,
		"bill_id": uuidString,
		"type": enum(
			model.LineItemRent,
			model.LineItemElectricity,
			model.LineItemMeals,
			model.LineItemMaintenance,
			model.LineItemLateFee,
			model.LineItemOther,
		),
		"description": bson.M{"bsonType": "string", "maxLength": 200},
		"quantity":    money,
		"unit_price":  money,
		"amount":      money,
		"position":    bson.M{"bsonType": "int", "minimum": 1},
	},
)

var PaymentValidator = schema(
	[]string{"_id", "bill_id", "tenant_id", "amount", "method", "status", "transaction_date", "recorded_by", "created_at"},
	bson.M{
		"_id":              uuidString,
		"bill_id":          uuidString,
		"tenant_id":        uuidString,
		"amount":           money,
		"method":           paymentMethod,
		"status":           enum(model.PaymentSuccess, model.PaymentPending, model.PaymentRejected),
		"transaction_date": date,
		"recorded_by":      bson.M{"bsonType": "string"},
		"confirmed_at":     optDate,
		"rejected_at":      optDate,
		"created_at":       date,
	},
)

var ElectricityReadingValidator = schema(
	[]string{"_id", "bill_id", "previous_reading", "current_reading", "units_consumed", "rate_per_unit", "amount", "recorded_at"},
	bson.M{
		"_id":              uuidString,
		"bill_id":          uuidString,
		"previous_reading": money,
		"current_reading":  money,
		"units_consumed":   money,
		"rate_per_unit":    money,
		"amount":           money,
		"recorded_at":      date,
	},
)
