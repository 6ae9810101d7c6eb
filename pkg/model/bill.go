package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BillStatus string

const (
	BillDraft     BillStatus = "DRAFT"
	BillSent      BillStatus = "SENT"
	BillPartial   BillStatus = "PARTIAL"
	BillPaid      BillStatus = "PAID"
	BillOverdue   BillStatus = "OVERDUE"
	BillCancelled BillStatus = "CANCELLED"
)

type LineItemType string

const (
	LineItemRent        LineItemType = "RENT"
	LineItemElectricity LineItemType = "ELECTRICITY"
	LineItemMeals       LineItemType = "MEALS"
	LineItemMaintenance LineItemType = "MAINTENANCE"
	LineItemLateFee     LineItemType = "LATE_FEE"
	LineItemOther       LineItemType = "OTHER"
)

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentUPI          PaymentMethod = "UPI"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCard         PaymentMethod = "CARD"
	PaymentCheque       PaymentMethod = "CHEQUE"
	PaymentOnline       PaymentMethod = "ONLINE"
)

type PaymentStatus string

const (
	PaymentSuccess  PaymentStatus = "SUCCESS"
	PaymentPending  PaymentStatus = "PENDING"
	PaymentRejected PaymentStatus = "REJECTED"
)

// BillingMonthLayout is the time layout of Bill.BillingMonth.
const BillingMonthLayout = "2006-01"

type Bill struct {
	ID             string          `json:"id" bson:"_id"`
	TenantID       string          `json:"tenant_id" bson:"tenant_id"`
	BedID          string          `json:"bed_id" bson:"bed_id"`
	BillingMonth   string          `json:"billing_month" bson:"billing_month"`
	DueDate        time.Time       `json:"due_date" bson:"due_date"`
	TotalAmount    decimal.Decimal `json:"total_amount" bson:"total_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount" bson:"paid_amount"`
	LateFeeApplied decimal.Decimal `json:"late_fee_applied" bson:"late_fee_applied"`
	Status         BillStatus      `json:"status" bson:"status"`
	SentAt         *time.Time      `json:"sent_at,omitempty" bson:"sent_at,omitempty"`
	Notes          string          `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedBy      string          `json:"created_by" bson:"created_by"`
	CreatedAt      time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" bson:"updated_at"`
}

// Outstanding is the part of the total not yet covered by confirmed payments.
func (b *Bill) Outstanding() decimal.Decimal {
	if b.PaidAmount.GreaterThanOrEqual(b.TotalAmount) {
		return decimal.Zero
	}
	return b.TotalAmount.Sub(b.PaidAmount)
}

type BillLineItem struct {
	ID          string          `json:"id" bson:"_id"`
	BillID      string          `json:"bill_id" bson:"bill_id"`
	Type        LineItemType    `json:"type" bson:"type"`
	Description string          `json:"description" bson:"description"`
	Quantity    decimal.Decimal `json:"quantity" bson:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" bson:"unit_price"`
	Amount      decimal.Decimal `json:"amount" bson:"amount"`
	Position    int             `json:"position" bson:"position"`
	CreatedAt   time.Time       `json:"created_at" bson:"created_at"`
}

type Payment struct {
	ID              string          `json:"id" bson:"_id"`
	BillID          string          `json:"bill_id" bson:"bill_id"`
	TenantID        string          `json:"tenant_id" bson:"tenant_id"`
	Amount          decimal.Decimal `json:"amount" bson:"amount"`
	Method          PaymentMethod   `json:"method" bson:"method"`
	Status          PaymentStatus   `json:"status" bson:"status"`
	TransactionDate time.Time       `json:"transaction_date" bson:"transaction_date"`
	Reference       string          `json:"reference,omitempty" bson:"reference,omitempty"`
	Notes           string          `json:"notes,omitempty" bson:"notes,omitempty"`
	RecordedBy      string          `json:"recorded_by" bson:"recorded_by"`
	ConfirmedBy     string          `json:"confirmed_by,omitempty" bson:"confirmed_by,omitempty"`
	ConfirmedAt     *time.Time      `json:"confirmed_at,omitempty" bson:"confirmed_at,omitempty"`
	RejectedBy      string          `json:"rejected_by,omitempty" bson:"rejected_by,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty" bson:"rejected_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at" bson:"created_at"`
}

type ElectricityReading struct {
	ID              string          `json:"id" bson:"_id"`
	BillID          string          `json:"bill_id" bson:"bill_id"`
	BedID           string          `json:"bed_id" bson:"bed_id"`
	PreviousReading decimal.Decimal `json:"previous_reading" bson:"previous_reading"`
	CurrentReading  decimal.Decimal `json:"current_reading" bson:"current_reading"`
	UnitsConsumed   decimal.Decimal `json:"units_consumed" bson:"units_consumed"`
	RatePerUnit     decimal.Decimal `json:"rate_per_unit" bson:"rate_per_unit"`
	Amount          decimal.Decimal `json:"amount" bson:"amount"`
	RecordedAt      time.Time       `json:"recorded_at" bson:"recorded_at"`
}

// BillDetails is a bill with its line items in position order, its
// payments in recording order and the meter readings behind its electricity
// charges.
type BillDetails struct {
	*Bill
	LineItems           []BillLineItem       `json:"line_items"`
	Payments            []Payment            `json:"payments"`
	ElectricityReadings []ElectricityReading `json:"electricity_readings"`
}

type CreateBillInput struct {
	TenantID     string    `json:"tenant_id" validate:"required,uuid"`
	BillingMonth string    `json:"billing_month" validate:"required,billing_month"`
	DueDate      time.Time `json:"due_date" validate:"required"`
	Notes        string    `json:"notes,omitempty" validate:"max=1000"`
}

type LineItemInput struct {
	Type        LineItemType    `json:"type" validate:"required,oneof=RENT ELECTRICITY MEALS MAINTENANCE LATE_FEE OTHER"`
	Description string          `json:"description" validate:"required,max=200"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

type PaymentInput struct {
	Amount          decimal.Decimal `json:"amount" validate:"gt=0"`
	Method          PaymentMethod   `json:"method" validate:"required,oneof=CASH UPI BANK_TRANSFER CARD CHEQUE ONLINE"`
	TransactionDate time.Time       `json:"transaction_date" validate:"required"`
	Reference       string          `json:"reference,omitempty" validate:"max=100"`
	Notes           string          `json:"notes,omitempty" validate:"max=1000"`
}

type LateFeeInput struct {
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Description string          `json:"description,omitempty" validate:"max=200"`
}

// ElectricityInput.BedID defaults to the bill's bed.
type ElectricityInput struct {
	BedID           string          `json:"bed_id,omitempty" validate:"omitempty,uuid"`
	PreviousReading decimal.Decimal `json:"previous_reading" validate:"gte=0"`
	CurrentReading  decimal.Decimal `json:"current_reading" validate:"gte=0"`
	RatePerUnit     decimal.Decimal `json:"rate_per_unit" validate:"gt=0"`
}

type BillFilter struct {
	TenantID     string
	BillingMonth string
	Status       BillStatus

	// ExcludeDrafts hides DRAFT bills, which tenants do not see.
	ExcludeDrafts bool
}
