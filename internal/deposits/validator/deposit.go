package validator

import (
	"fmt"

	"pgstay/pkg/model"
	"pgstay/pkg/money"
	"pgstay/pkg/validation"

	"github.com/shopspring/decimal"
)

type DepositValidator struct {
	validator *validation.Validator
}

func NewDepositValidator(v *validation.Validator) *DepositValidator {
	return &DepositValidator{validator: v}
}

func (v *DepositValidator) ValidateDeposit(in *model.DepositInput) error {
	return v.validator.Struct(in)
}

// ValidateRefund checks the request shape and that the refund together with
// its deductions moves something.
func (v *DepositValidator) ValidateRefund(in *model.RefundInput) error {
	if err := v.validator.Struct(in); err != nil {
		return err
	}
	if !money.IsPositive(in.Amount) && len(in.Deductions) == 0 {
		return validation.Field("amount", "amount must be greater than 0 when no deductions are given")
	}
	return nil
}

// CheckRefundLimit enforces refunded + amount + all deductions <= paid.
func CheckRefundLimit(deposit *model.SecurityDeposit, amount decimal.Decimal, deductions []model.Deduction) error {
	maxRefund := MaxRefund(deposit, deductions)
	if amount.GreaterThan(maxRefund) {
		return validation.Field("amount", fmt.Sprintf("amount cannot exceed %s", maxRefund.StringFixed(money.Scale)))
	}
	return nil
}

// MaxRefund is the most that can still be refunded once deductions are
// taken out of the held balance.
func MaxRefund(deposit *model.SecurityDeposit, deductions []model.Deduction) decimal.Decimal {
	remaining := deposit.Balance()
	for _, d := range deductions {
		remaining = remaining.Sub(d.Amount)
	}
	return money.Round(remaining)
}
