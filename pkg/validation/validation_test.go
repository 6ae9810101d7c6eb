package validation

import (
	"testing"

	apperrors "pgstay/pkg/errors"
	"pgstay/pkg/logger"
	"pgstay/pkg/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Decimal(t *testing.T) {
	v := New(logger.Discard())

	tests := []struct {
		name    string
		input   model.LateFeeInput
		wantErr bool
	}{
		{"positive amount", model.LateFeeInput{Amount: decimal.NewFromInt(200)}, false},
		{"fractional amount", model.LateFeeInput{Amount: decimal.RequireFromString("0.50")}, false},
		{"zero amount", model.LateFeeInput{Amount: decimal.Zero}, true},
		{"negative amount", model.LateFeeInput{Amount: decimal.NewFromInt(-1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(&tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Struct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidator_BillingMonth(t *testing.T) {
	v := New(logger.Discard())

	for _, month := range []string{"2024-05", "2025-12"} {
		in := model.CreateBillInput{TenantID: "0b8f5e0c-8a53-4e3a-bb3e-7f7a4f3d0a11", BillingMonth: month}
		err := v.Struct(&in)
		require.Error(t, err) // due_date missing
		assert.NotContains(t, err.Error(), "billing_month")
	}

	in := model.CreateBillInput{BillingMonth: "May 2024"}
	err := v.Struct(&in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "billing_month must be formatted as YYYY-MM")
}

func TestIsBillingMonth(t *testing.T) {
	tests := map[string]bool{
		"2026-10": true,
		"2026-01": true,
		"2026-13": false,
		"2026-1":  false,
		"26-10":   false,
		"":        false,
	}
	for month, want := range tests {
		assert.Equal(t, want, IsBillingMonth(month), month)
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := New(logger.Discard())

	err := v.Struct(&model.PaymentInput{Amount: decimal.NewFromInt(10)})
	require.Error(t, err)

	errs, ok := err.(ValidationErrors)
	require.True(t, ok)
	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	assert.True(t, fields["method"])
	assert.True(t, fields["transaction_date"])
}

func TestToAppError(t *testing.T) {
	err := ToAppError(Field("bed_ids", "All beds must be in the same room"))

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Equal(t, "All beds must be in the same room", appErr.Message)

	assert.Nil(t, ToAppError(nil))

	other := apperrors.NotFound("Bed")
	assert.Equal(t, error(other), ToAppError(other))
}
