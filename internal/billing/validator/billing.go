package validator

import (
	"time"

	"pgstay/pkg/model"
	"pgstay/pkg/validation"
)

type BillingValidator struct {
	validator *validation.Validator
}

func NewBillingValidator(v *validation.Validator) *BillingValidator {
	return &BillingValidator{validator: v}
}

func (v *BillingValidator) ValidateCreate(in *model.CreateBillInput) error {
	if err := v.validator.Struct(in); err != nil {
		return err
	}

	month, _ := time.Parse(model.BillingMonthLayout, in.BillingMonth)
	if in.DueDate.UTC().Before(month) {
		return validation.Field("due_date", "due_date cannot be before the start of billing_month")
	}
	return nil
}

func (v *BillingValidator) ValidateLineItem(in *model.LineItemInput) error {
	return v.validator.Struct(in)
}

func (v *BillingValidator) ValidateLateFee(in *model.LateFeeInput) error {
	return v.validator.Struct(in)
}

func (v *BillingValidator) ValidatePayment(in *model.PaymentInput) error {
	return v.validator.Struct(in)
}

// ValidateElectricity rejects readings that run backwards; a meter reset is
// entered as previous_reading 0.
func (v *BillingValidator) ValidateElectricity(in *model.ElectricityInput) error {
	if err := v.validator.Struct(in); err != nil {
		return err
	}
	if in.CurrentReading.LessThan(in.PreviousReading) {
		return validation.Field("current_reading", "current_reading cannot be less than previous_reading")
	}
	return nil
}
