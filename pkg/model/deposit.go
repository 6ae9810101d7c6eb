package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DepositStatus string

const (
	DepositHeld              DepositStatus = "held"
	DepositPartiallyRefunded DepositStatus = "partially_refunded"
	DepositRefunded          DepositStatus = "refunded"
)

type Deduction struct {
	Reason string          `json:"reason" bson:"reason" validate:"required,max=200"`
	Amount decimal.Decimal `json:"amount" bson:"amount" validate:"gt=0"`
}

type SecurityDeposit struct {
	ID             string          `json:"id" bson:"_id"`
	TenantID       string          `json:"tenant_id" bson:"tenant_id"`
	BedID          string          `json:"bed_id,omitempty" bson:"bed_id,omitempty"`
	AmountPaid     decimal.Decimal `json:"amount_paid" bson:"amount_paid"`
	PaidDate       time.Time       `json:"paid_date" bson:"paid_date"`
	PaymentMethod  PaymentMethod   `json:"payment_method" bson:"payment_method"`
	AmountRefunded decimal.Decimal `json:"amount_refunded" bson:"amount_refunded"`
	RefundDate     *time.Time      `json:"refund_date,omitempty" bson:"refund_date,omitempty"`
	RefundMethod   PaymentMethod   `json:"refund_method,omitempty" bson:"refund_method,omitempty"`
	Deductions     []Deduction     `json:"deductions" bson:"deductions"`
	Status         DepositStatus   `json:"status" bson:"status"`
	Notes          string          `json:"notes,omitempty" bson:"notes,omitempty"`
	RecordedBy     string          `json:"recorded_by" bson:"recorded_by"`
	CreatedAt      time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" bson:"updated_at"`
}

func (d *SecurityDeposit) TotalDeductions() decimal.Decimal {
	total := decimal.Zero
	for _, ded := range d.Deductions {
		total = total.Add(ded.Amount)
	}
	return total
}

// Balance is what is still held: paid minus refunds minus deductions.
func (d *SecurityDeposit) Balance() decimal.Decimal {
	return d.AmountPaid.Sub(d.AmountRefunded).Sub(d.TotalDeductions())
}

type DepositInput struct {
	TenantID string          `json:"tenant_id" validate:"required,uuid"`
	Amount   decimal.Decimal `json:"amount" validate:"gt=0"`
	PaidDate time.Time       `json:"paid_date" validate:"required"`
	Method   PaymentMethod   `json:"method" validate:"required,oneof=CASH UPI BANK_TRANSFER CARD CHEQUE ONLINE"`
	Notes    string          `json:"notes,omitempty" validate:"max=1000"`
}

type RefundInput struct {
	Amount     decimal.Decimal `json:"amount" validate:"gte=0"`
	RefundDate time.Time       `json:"refund_date" validate:"required"`
	Method     PaymentMethod   `json:"method" validate:"required,oneof=CASH UPI BANK_TRANSFER CARD CHEQUE ONLINE"`
	Deductions []Deduction     `json:"deductions,omitempty" validate:"omitempty,max=20,dive"`
	Notes      string          `json:"notes,omitempty" validate:"max=1000"`
}
