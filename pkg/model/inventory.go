package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BedStatus string

const (
	BedAvailable   BedStatus = "AVAILABLE"
	BedOccupied    BedStatus = "OCCUPIED"
	BedMaintenance BedStatus = "MAINTENANCE"
	BedReserved    BedStatus = "RESERVED"
)

type Property struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Address   string    `json:"address" bson:"address"`
	City      string    `json:"city" bson:"city"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type PropertyInput struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Address string `json:"address" validate:"required,min=2,max=200"`
	City    string `json:"city" validate:"required,min=2,max=50"`
}

type Room struct {
	ID          string          `json:"id" bson:"_id"`
	PropertyID  string          `json:"property_id" bson:"property_id"`
	RoomNumber  string          `json:"room_number" bson:"room_number"`
	Floor       int             `json:"floor" bson:"floor"`
	HasAC       bool            `json:"has_ac" bson:"has_ac"`
	MonthlyRent decimal.Decimal `json:"monthly_rent" bson:"monthly_rent"`
	CreatedAt   time.Time       `json:"created_at" bson:"created_at"`
}

type RoomInput struct {
	RoomNumber  string          `json:"room_number" validate:"required,max=20"`
	Floor       int             `json:"floor" validate:"gte=-2,lte=200"`
	HasAC       bool            `json:"has_ac"`
	MonthlyRent decimal.Decimal `json:"monthly_rent" validate:"gt=0"`
}

type Bed struct {
	ID              string          `json:"id" bson:"_id"`
	RoomID          string          `json:"room_id" bson:"room_id"`
	PropertyID      string          `json:"property_id" bson:"property_id"`
	BedNumber       string          `json:"bed_number" bson:"bed_number"`
	MonthlyRent     decimal.Decimal `json:"monthly_rent" bson:"monthly_rent"`
	SecurityDeposit decimal.Decimal `json:"security_deposit" bson:"security_deposit"`
	Status          BedStatus       `json:"status" bson:"status"`
	CreatedAt       time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" bson:"updated_at"`
}

// BedInput.MonthlyRent may be zero, in which case the room rent applies.
type BedInput struct {
	BedNumber       string          `json:"bed_number" validate:"required,max=20"`
	MonthlyRent     decimal.Decimal `json:"monthly_rent" validate:"gte=0"`
	SecurityDeposit decimal.Decimal `json:"security_deposit" validate:"gte=0"`
}

type BedFilter struct {
	RoomID     string
	PropertyID string
	Status     BedStatus
}

// AvailableBed is the public listing row: a bed with the room facts an
// applicant picks by.
type AvailableBed struct {
	BedID       string          `json:"bed_id"`
	BedNumber   string          `json:"bed_number"`
	RoomID      string          `json:"room_id"`
	RoomNumber  string          `json:"room_number"`
	PropertyID  string          `json:"property_id"`
	HasAC       bool            `json:"has_ac"`
	MonthlyRent decimal.Decimal `json:"monthly_rent"`
	Deposit     decimal.Decimal `json:"security_deposit"`
}
