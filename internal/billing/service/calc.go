package service

import (
	"pgstay/pkg/model"
	"pgstay/pkg/money"
	"pgstay/pkg/statemachine"

	"github.com/shopspring/decimal"
)

type BillAction string

const (
	BillSend        BillAction = "send"
	BillEdit        BillAction = "edit"
	BillPay         BillAction = "pay"
	BillMarkOverdue BillAction = "mark_overdue"
	BillCancel      BillAction = "cancel"
)

var openStatuses = []model.BillStatus{model.BillDraft, model.BillSent, model.BillPartial, model.BillOverdue}

// BillMachine guards bill status changes. PAID and CANCELLED accept nothing.
// Keep actions leave the status to DeriveStatus.
var BillMachine = statemachine.New[model.BillStatus, BillAction]("bill").
	Allow(BillSend, model.BillSent, model.BillDraft).
	Keep(BillEdit, openStatuses...).
	Keep(BillPay, openStatuses...).
	Allow(BillMarkOverdue, model.BillOverdue, model.BillSent, model.BillPartial).
	Allow(BillCancel, model.BillCancelled, openStatuses...).
	Reject(BillSend, "Only draft bills can be sent").
	Reject(BillEdit, "Paid or cancelled bills cannot be modified").
	Reject(BillPay, "Bill does not accept payments in its current status").
	Reject(BillMarkOverdue, "Only sent or partially paid bills can be marked overdue").
	Reject(BillCancel, "Paid or cancelled bills cannot be cancelled")

// RecalculateTotal is the bill total: the sum of the current line item
// amounts. It is recomputed from scratch after every line item change.
func RecalculateTotal(items []model.BillLineItem) decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, len(items))
	for _, item := range items {
		amounts = append(amounts, item.Amount)
	}
	return money.Sum(amounts...)
}

// DeriveStatus is PAID once paid covers total, PARTIAL while something but
// not everything is paid, and current otherwise. OVERDUE is admin-set and
// only gives way to PAID.
func DeriveStatus(current model.BillStatus, paid, total decimal.Decimal) model.BillStatus {
	if !money.IsPositive(paid) {
		return current
	}
	if paid.GreaterThanOrEqual(total) {
		return model.BillPaid
	}
	if current == model.BillOverdue {
		return current
	}
	return model.BillPartial
}

// LineItemAmount is quantity times unit price rounded to paise.
func LineItemAmount(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return money.Mul(quantity, unitPrice)
}

func nextPosition(items []model.BillLineItem) int {
	position := 0
	for _, item := range items {
		position = max(position, item.Position)
	}
	return position + 1
}
