package validator

import (
	"fmt"
	"time"

	"pgstay/pkg/model"
	"pgstay/pkg/validation"
)

type BookingValidator struct {
	validator *validation.Validator
	now       func() time.Time
}

func NewBookingValidator(v *validation.Validator) *BookingValidator {
	return &BookingValidator{
		validator: v,
		now:       time.Now,
	}
}

// Validate checks a public booking request. Field rules come from the struct
// tags; the rules below span fields.
func (v *BookingValidator) Validate(in *model.BookingInput) error {
	if err := v.validator.Struct(in); err != nil {
		return err
	}

	beds := in.Beds()
	if len(beds) == 0 || len(beds) > model.MaxBedsPerBooking {
		return validation.Field("bed_ids", fmt.Sprintf("bed_ids must list between 1 and %d beds", model.MaxBedsPerBooking))
	}

	if in.BedID != "" && len(in.BedIDs) > 0 && in.BedIDs[0] != in.BedID {
		return validation.Field("bed_id", "bed_id must be the first entry of bed_ids")
	}

	if in.DurationMonths == 0 && in.DurationDays == 0 {
		return validation.Field("duration_months", "duration_months or duration_days must be set")
	}

	today := v.now().UTC().Truncate(24 * time.Hour)
	if in.CheckInDate.UTC().Before(today) {
		return validation.Field("check_in_date", "check_in_date cannot be in the past")
	}

	return nil
}

// ValidateDecision checks the admin notes attached to approve, reject and
// cancel.
func (v *BookingValidator) ValidateDecision(in *model.BookingDecision) error {
	return v.validator.Struct(in)
}
