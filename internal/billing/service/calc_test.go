package service

import (
	"testing"

	"pgstay/pkg/model"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name    string
		current model.BillStatus
		paid    string
		total   string
		want    model.BillStatus
	}{
		{"nothing paid keeps draft", model.BillDraft, "0", "12000", model.BillDraft},
		{"nothing paid keeps overdue", model.BillOverdue, "0", "12000", model.BillOverdue},
		{"partial payment", model.BillSent, "5000", "12800", model.BillPartial},
		{"partial payment keeps overdue", model.BillOverdue, "1", "12800", model.BillOverdue},
		{"full payment clears overdue", model.BillOverdue, "12800", "12800", model.BillPaid},
		{"exact payment", model.BillPartial, "12800", "12800", model.BillPaid},
		{"total lowered below paid", model.BillPartial, "5000", "4000", model.BillPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(tt.current, d(tt.paid), d(tt.total)); got != tt.want {
				t.Errorf("DeriveStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRecalculateTotal(t *testing.T) {
	items := []model.BillLineItem{
		{Type: model.LineItemRent, Amount: d("12000")},
		{Type: model.LineItemElectricity, Amount: d("800.50")},
		{Type: model.LineItemLateFee, Amount: d("0.255")},
	}
	if got := RecalculateTotal(items); !got.Equal(d("12800.76")) {
		t.Errorf("RecalculateTotal() = %s, want 12800.76", got)
	}
	if got := RecalculateTotal(nil); !got.IsZero() {
		t.Errorf("RecalculateTotal(nil) = %s, want 0", got)
	}
}

func TestLineItemAmount(t *testing.T) {
	if got := LineItemAmount(d("3"), d("33.335")); !got.Equal(d("100.01")) {
		t.Errorf("LineItemAmount() = %s, want 100.01", got)
	}
}

func TestBillMachine(t *testing.T) {
	tests := []struct {
		from   model.BillStatus
		action BillAction
		want   model.BillStatus
		ok     bool
	}{
		{model.BillDraft, BillSend, model.BillSent, true},
		{model.BillSent, BillSend, model.BillSent, false},
		{model.BillSent, BillMarkOverdue, model.BillOverdue, true},
		{model.BillPartial, BillMarkOverdue, model.BillOverdue, true},
		{model.BillDraft, BillMarkOverdue, model.BillDraft, false},
		{model.BillOverdue, BillPay, model.BillOverdue, true},
		{model.BillPaid, BillPay, model.BillPaid, false},
		{model.BillPaid, BillEdit, model.BillPaid, false},
		{model.BillOverdue, BillCancel, model.BillCancelled, true},
		{model.BillCancelled, BillCancel, model.BillCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.action), func(t *testing.T) {
			got, err := BillMachine.Next(tt.from, tt.action)
			if (err == nil) != tt.ok {
				t.Fatalf("Next() error = %v, want ok %v", err, tt.ok)
			}
			if got != tt.want {
				t.Errorf("Next() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNextPosition(t *testing.T) {
	if got := nextPosition(nil); got != 1 {
		t.Errorf("nextPosition(nil) = %d, want 1", got)
	}
	items := []model.BillLineItem{{Position: 1}, {Position: 4}, {Position: 2}}
	if got := nextPosition(items); got != 5 {
		t.Errorf("nextPosition() = %d, want 5", got)
	}
}
