package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingApproved  BookingStatus = "approved"
	BookingRejected  BookingStatus = "rejected"
	BookingCancelled BookingStatus = "cancelled"
	BookingConverted BookingStatus = "converted"
)

const MaxBedsPerBooking = 10

type Meals struct {
	Breakfast bool `json:"breakfast" bson:"breakfast"`
	Lunch     bool `json:"lunch" bson:"lunch"`
	Dinner    bool `json:"dinner" bson:"dinner"`
}

// Merge ORs the subscriptions of both sides.
func (m Meals) Merge(other Meals) Meals {
	return Meals{
		Breakfast: m.Breakfast || other.Breakfast,
		Lunch:     m.Lunch || other.Lunch,
		Dinner:    m.Dinner || other.Dinner,
	}
}

type Booking struct {
	ID                string          `json:"id" bson:"_id"`
	ApplicantName     string          `json:"applicant_name" bson:"applicant_name"`
	Phone             string          `json:"phone" bson:"phone"`
	Email             string          `json:"email,omitempty" bson:"email,omitempty"`
	CheckInDate       time.Time       `json:"check_in_date" bson:"check_in_date"`
	DurationMonths    int             `json:"duration_months" bson:"duration_months"`
	DurationDays      int             `json:"duration_days" bson:"duration_days"`
	WantsAC           bool            `json:"wants_ac" bson:"wants_ac"`
	Meals             Meals           `json:"meals" bson:"meals"`
	AdvanceAmount     decimal.Decimal `json:"advance_amount" bson:"advance_amount"`
	Status            BookingStatus   `json:"status" bson:"status"`
	BedID             string          `json:"bed_id,omitempty" bson:"bed_id,omitempty"`
	BedIDs            []string        `json:"bed_ids" bson:"bed_ids"`
	RoomID            string          `json:"room_id" bson:"room_id"`
	UserID            string          `json:"user_id,omitempty" bson:"user_id,omitempty"`
	AdminNotes        string          `json:"admin_notes,omitempty" bson:"admin_notes,omitempty"`
	ConvertedTenantID string          `json:"converted_tenant_id,omitempty" bson:"converted_tenant_id,omitempty"`
	DecidedAt         *time.Time      `json:"decided_at,omitempty" bson:"decided_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" bson:"updated_at"`
}

// ReferencedBedIDs returns the beds of the booking in their listed order,
// falling back to the single legacy bed on documents without a bed list.
func (b *Booking) ReferencedBedIDs() []string {
	if len(b.BedIDs) > 0 {
		return b.BedIDs
	}
	if b.BedID != "" {
		return []string{b.BedID}
	}
	return nil
}

// StayEnd is the check-in date advanced by the requested duration.
func (b *Booking) StayEnd() time.Time {
	return b.CheckInDate.AddDate(0, b.DurationMonths, b.DurationDays)
}

type BookingInput struct {
	ApplicantName  string          `json:"applicant_name" validate:"required,min=2,max=100"`
	Phone          string          `json:"phone" validate:"required,e164"`
	Email          string          `json:"email,omitempty" validate:"omitempty,email,max=254"`
	CheckInDate    time.Time       `json:"check_in_date" validate:"required"`
	DurationMonths int             `json:"duration_months" validate:"gte=0,lte=60"`
	DurationDays   int             `json:"duration_days" validate:"gte=0,lte=365"`
	WantsAC        bool            `json:"wants_ac"`
	Meals          Meals           `json:"meals"`
	AdvanceAmount  decimal.Decimal `json:"advance_amount" validate:"gte=0"`
	BedIDs         []string        `json:"bed_ids" validate:"omitempty,max=10,unique,dive,uuid"`
	BedID          string          `json:"bed_id,omitempty" validate:"omitempty,uuid"`
}

// Beds returns the requested beds, accepting the legacy single bed field.
func (in *BookingInput) Beds() []string {
	if len(in.BedIDs) > 0 {
		return in.BedIDs
	}
	if in.BedID != "" {
		return []string{in.BedID}
	}
	return nil
}

type BookingDecision struct {
	Notes string `json:"notes,omitempty" validate:"max=1000"`
}

type BookingFilter struct {
	Status BookingStatus
}
