package service

import (
	"context"
	"fmt"

	"pgstay/pkg/auth"
	apperrors "pgstay/pkg/errors"
	"pgstay/pkg/events"
	"pgstay/pkg/model"
	"pgstay/pkg/money"
	"pgstay/pkg/sanitizer"
	"pgstay/pkg/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (s *billingService) AddLineItem(ctx context.Context, p auth.Principal, billID string, in *model.LineItemInput) (*model.BillDetails, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	in.Description = sanitizer.TrimAndNormalize(in.Description)
	if err := s.validator.ValidateLineItem(in); err != nil {
		return nil, validation.ToAppError(err)
	}

	var item model.BillLineItem
	details, err := s.mutate(ctx, billID, BillEdit, func(txCtx context.Context, bill *model.Bill) error {
		var err error
		item, err = s.appendItem(txCtx, bill, in.Type, in.Description, in.Quantity, in.UnitPrice)
		if err != nil {
			return err
		}
		if in.Type == model.LineItemLateFee {
			bill.LateFeeApplied = money.Sum(bill.LateFeeApplied, item.Amount)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Failed to add line item", "bill_id", billID, "error", err)
		return nil, err
	}

	s.cfg.Log.Ctx(ctx).Info("Line item added",
		"bill_id", billID,
		"item_id", item.ID,
		"type", item.Type,
		"amount", item.Amount.String(),
		"total", details.TotalAmount.String(),
	)
	s.notify(ctx, events.BillLineItemAdded, details.Bill, p, map[string]any{
		"item_id":      item.ID,
		"type":         item.Type,
		"amount":       item.Amount,
		"total_amount": details.TotalAmount,
	})
	return details, nil
}

// RemoveLineItem deletes an item and recomputes the total, so removing and
// re-adding the same item leaves the bill where it was.
func (s *billingService) RemoveLineItem(ctx context.Context, p auth.Principal, billID, itemID string) (*model.BillDetails, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	var removed *model.BillLineItem
	details, err := s.mutate(ctx, billID, BillEdit, func(txCtx context.Context, bill *model.Bill) error {
		var err error
		removed, err = s.items.FindByID(txCtx, itemID)
		if err != nil {
			return billError(err, "Line item", itemID)
		}
		if removed.BillID != bill.ID {
			return apperrors.NotFoundWithID("Line item", itemID)
		}
		if err := s.items.Delete(txCtx, itemID); err != nil {
			return billError(err, "Line item", itemID)
		}
		if removed.Type == model.LineItemLateFee {
			bill.LateFeeApplied = decimal.Max(decimal.Zero, money.Round(bill.LateFeeApplied.Sub(removed.Amount)))
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Failed to remove line item", "bill_id", billID, "item_id", itemID, "error", err)
		return nil, err
	}

	s.cfg.Log.Ctx(ctx).Info("Line item removed", "bill_id", billID, "item_id", itemID, "total", details.TotalAmount.String())
	s.notify(ctx, events.BillLineItemRemoved, details.Bill, p, map[string]any{
		"item_id":      itemID,
		"type":         removed.Type,
		"amount":       removed.Amount,
		"total_amount": details.TotalAmount,
	})
	return details, nil
}

func (s *billingService) ApplyLateFee(ctx context.Context, p auth.Principal, billID string, in *model.LateFeeInput) (*model.BillDetails, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	in.Description = sanitizer.TrimAndNormalize(in.Description)
	if err := s.validator.ValidateLateFee(in); err != nil {
		return nil, validation.ToAppError(err)
	}

	amount := money.Round(in.Amount)
	details, err := s.mutate(ctx, billID, BillEdit, func(txCtx context.Context, bill *model.Bill) error {
		description := in.Description
		if description == "" {
			description = fmt.Sprintf("Late fee for %s", bill.BillingMonth)
		}
		if _, err := s.appendItem(txCtx, bill, model.LineItemLateFee, description, decimal.NewFromInt(1), amount); err != nil {
			return err
		}
		bill.LateFeeApplied = money.Sum(bill.LateFeeApplied, amount)
		return nil
	})
	if err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Failed to apply late fee", "bill_id", billID, "error", err)
		return nil, err
	}

	s.cfg.Log.Ctx(ctx).Info("Late fee applied", "bill_id", billID, "amount", amount.String(), "late_fee_applied", details.LateFeeApplied.String())
	s.notify(ctx, events.BillLateFeeApplied, details.Bill, p, map[string]any{
		"amount":           amount,
		"late_fee_applied": details.LateFeeApplied,
		"total_amount":     details.TotalAmount,
	})
	return details, nil
}

// AddElectricityCharge stores a meter reading and bills the consumed units
// as an ELECTRICITY line item.
func (s *billingService) AddElectricityCharge(ctx context.Context, p auth.Principal, billID string, in *model.ElectricityInput) (*model.BillDetails, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	in.BedID = sanitizer.NormalizeID(in.BedID)
	if err := s.validator.ValidateElectricity(in); err != nil {
		return nil, validation.ToAppError(err)
	}

	units := in.CurrentReading.Sub(in.PreviousReading)
	var reading model.ElectricityReading
	details, err := s.mutate(ctx, billID, BillEdit, func(txCtx context.Context, bill *model.Bill) error {
		bedID := in.BedID
		if bedID == "" {
			bedID = bill.BedID
		}
		item, err := s.appendItem(txCtx, bill, model.LineItemElectricity,
			fmt.Sprintf("Electricity %s to %s units", in.PreviousReading.String(), in.CurrentReading.String()),
			units, in.RatePerUnit)
		if err != nil {
			return err
		}

		reading = model.ElectricityReading{
			ID:              uuid.NewString(),
			BillID:          bill.ID,
			BedID:           bedID,
			PreviousReading: in.PreviousReading,
			CurrentReading:  in.CurrentReading,
			UnitsConsumed:   units,
			RatePerUnit:     in.RatePerUnit,
			Amount:          item.Amount,
			RecordedAt:      s.now(),
		}
		if err := s.readings.Create(txCtx, &reading); err != nil {
			return apperrors.Internal("Failed to store electricity reading", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Failed to add electricity charge", "bill_id", billID, "error", err)
		return nil, err
	}

	s.cfg.Log.Ctx(ctx).Info("Electricity charge added",
		"bill_id", billID,
		"units", units.String(),
		"amount", reading.Amount.String(),
	)
	s.notify(ctx, events.BillElectricityAdded, details.Bill, p, map[string]any{
		"units_consumed": units,
		"amount":         reading.Amount,
		"total_amount":   details.TotalAmount,
	})
	return details, nil
}

func (s *billingService) appendItem(ctx context.Context, bill *model.Bill, itemType model.LineItemType, description string, quantity, unitPrice decimal.Decimal) (model.BillLineItem, error) {
	existing, err := s.items.FindByBill(ctx, bill.ID)
	if err != nil {
		return model.BillLineItem{}, apperrors.Internal("Failed to load line items", err)
	}

	item := model.BillLineItem{
		ID:          uuid.NewString(),
		BillID:      bill.ID,
		Type:        itemType,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Amount:      LineItemAmount(quantity, unitPrice),
		Position:    nextPosition(existing),
	}
	if err := s.items.Create(ctx, &item); err != nil {
		return model.BillLineItem{}, apperrors.Internal("Failed to create line item", err)
	}
	return item, nil
}
