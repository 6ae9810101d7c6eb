package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBooking_ReferencedBedIDs(t *testing.T) {
	tests := []struct {
		name    string
		booking Booking
		want    []string
	}{
		{"bed list wins", Booking{BedID: "a", BedIDs: []string{"a", "b"}}, []string{"a", "b"}},
		{"legacy fallback", Booking{BedID: "a"}, []string{"a"}},
		{"none", Booking{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.booking.ReferencedBedIDs())
		})
	}
}

func TestBooking_StayEnd(t *testing.T) {
	checkIn := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	b := Booking{CheckInDate: checkIn, DurationMonths: 6}
	assert.Equal(t, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC), b.StayEnd())

	b = Booking{CheckInDate: checkIn, DurationDays: 10}
	assert.Equal(t, time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC), b.StayEnd())
}

func TestMeals_Merge(t *testing.T) {
	got := Meals{Breakfast: true}.Merge(Meals{Dinner: true})
	assert.Equal(t, Meals{Breakfast: true, Dinner: true}, got)
}

func TestSecurityDeposit_Balance(t *testing.T) {
	d := SecurityDeposit{
		AmountPaid:     decimal.NewFromInt(5000),
		AmountRefunded: decimal.NewFromInt(1000),
		Deductions: []Deduction{
			{Reason: "broken lock", Amount: decimal.NewFromInt(300)},
			{Reason: "cleaning", Amount: decimal.NewFromInt(200)},
		},
	}

	assert.True(t, d.TotalDeductions().Equal(decimal.NewFromInt(500)))
	assert.True(t, d.Balance().Equal(decimal.NewFromInt(3500)))
}

func TestBill_Outstanding(t *testing.T) {
	b := Bill{TotalAmount: decimal.NewFromInt(12800), PaidAmount: decimal.NewFromInt(800)}
	assert.True(t, b.Outstanding().Equal(decimal.NewFromInt(12000)))

	b.PaidAmount = decimal.NewFromInt(13000)
	assert.True(t, b.Outstanding().IsZero())
}
