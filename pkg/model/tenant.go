package model

import "time"

type TenantStatus string

const (
	TenantActive       TenantStatus = "ACTIVE"
	TenantNoticePeriod TenantStatus = "NOTICE_PERIOD"
	TenantCheckedOut   TenantStatus = "CHECKED_OUT"
)

type EmergencyContact struct {
	Name     string `json:"name,omitempty" bson:"name,omitempty" validate:"omitempty,max=100"`
	Phone    string `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	Relation string `json:"relation,omitempty" bson:"relation,omitempty" validate:"omitempty,max=50"`
}

type Tenant struct {
	ID               string           `json:"id" bson:"_id"`
	UserID           string           `json:"user_id" bson:"user_id"`
	BedID            string           `json:"bed_id,omitempty" bson:"bed_id,omitempty"`
	// BedIDs lists every bed the tenant holds when it came from a multi-bed
	// booking. BedID is always its first entry.
	BedIDs           []string         `json:"bed_ids,omitempty" bson:"bed_ids,omitempty"`
	Name             string           `json:"name" bson:"name"`
	Phone            string           `json:"phone" bson:"phone"`
	Email            string           `json:"email,omitempty" bson:"email,omitempty"`
	EmergencyContact EmergencyContact `json:"emergency_contact" bson:"emergency_contact"`
	CheckInDate      time.Time        `json:"check_in_date" bson:"check_in_date"`
	ExpectedCheckout *time.Time       `json:"expected_checkout,omitempty" bson:"expected_checkout,omitempty"`
	ActualCheckout   *time.Time       `json:"actual_checkout,omitempty" bson:"actual_checkout,omitempty"`
	NoticeGivenDate  *time.Time       `json:"notice_given_date,omitempty" bson:"notice_given_date,omitempty"`
	NoticePeriodDays int              `json:"notice_period_days" bson:"notice_period_days"`
	Status           TenantStatus     `json:"status" bson:"status"`
	Meals            Meals            `json:"meals" bson:"meals"`
	CreatedAt        time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" bson:"updated_at"`
}

// Resident reports whether the tenant still holds its bed.
func (t *Tenant) Resident() bool {
	return t.Status == TenantActive || t.Status == TenantNoticePeriod
}

// HoldsBed reports whether bedID is the tenant's bed or one of the extra beds
// of its booking.
func (t *Tenant) HoldsBed(bedID string) bool {
	if t.BedID == bedID {
		return true
	}
	for _, id := range t.BedIDs {
		if id == bedID {
			return true
		}
	}
	return false
}

type TenantInput struct {
	Name             string           `json:"name" validate:"required,min=2,max=100"`
	Phone            string           `json:"phone" validate:"required,e164"`
	Email            string           `json:"email,omitempty" validate:"omitempty,email,max=254"`
	BedID            string           `json:"bed_id,omitempty" validate:"omitempty,uuid"`
	EmergencyContact EmergencyContact `json:"emergency_contact"`
	CheckInDate      time.Time        `json:"check_in_date" validate:"required"`
	ExpectedCheckout *time.Time       `json:"expected_checkout,omitempty" validate:"omitempty"`
	NoticePeriodDays *int             `json:"notice_period_days,omitempty" validate:"omitempty,gte=0,lte=180"`
	Meals            Meals            `json:"meals"`
}

type NoticeInput struct {
	Date *time.Time `json:"date,omitempty"`
}

type CheckoutInput struct {
	Date time.Time `json:"date" validate:"required"`
}

type TenantFilter struct {
	Status TenantStatus
	BedID  string
}
