package service

import (
	"context"
	"errors"
	"fmt"

	inventoryerrors "pgstay/internal/inventory/errors"
	"pgstay/internal/inventory/repository"
	apperrors "pgstay/pkg/errors"
	"pgstay/pkg/model"
	"pgstay/pkg/statemachine"

	"github.com/shopspring/decimal"
)

type BedAction string

const (
	BedReserve          BedAction = "reserve"
	BedOccupy           BedAction = "occupy"
	BedUnreserve        BedAction = "unreserve"
	BedAssign           BedAction = "assign"
	BedRelease          BedAction = "release"
	BedStartMaintenance BedAction = "start_maintenance"
	BedEndMaintenance   BedAction = "end_maintenance"
)

// BedMachine is the only place bed statuses change.
var BedMachine = statemachine.New[model.BedStatus, BedAction]("bed").
	Allow(BedReserve, model.BedReserved, model.BedAvailable).
	Allow(BedOccupy, model.BedOccupied, model.BedReserved).
	Allow(BedUnreserve, model.BedAvailable, model.BedReserved).
	Allow(BedAssign, model.BedOccupied, model.BedAvailable).
	Allow(BedRelease, model.BedAvailable, model.BedOccupied).
	Allow(BedStartMaintenance, model.BedMaintenance, model.BedAvailable).
	Allow(BedEndMaintenance, model.BedAvailable, model.BedMaintenance).
	Reject(BedReserve, "Bed is not available").
	Reject(BedAssign, "Bed is not available").
	Reject(BedOccupy, "Bed is not reserved").
	Reject(BedUnreserve, "Bed is not reserved").
	Reject(BedRelease, "Only occupied beds can be released").
	Reject(BedStartMaintenance, "Only available beds can be put under maintenance").
	Reject(BedEndMaintenance, "Bed is not under maintenance")

// MoveBed applies action to bed through BedMachine and persists the new
// status conditioned on the status bed was read with. A concurrent change
// surfaces as PRECONDITION_FAILED.
func MoveBed(ctx context.Context, beds repository.BedRepository, bed *model.Bed, action BedAction) error {
	next, err := BedMachine.Next(bed.Status, action)
	if err != nil {
		return err
	}
	if err := beds.UpdateStatus(ctx, bed.ID, bed.Status, next); err != nil {
		if errors.Is(err, inventoryerrors.ErrStatusChanged) {
			return apperrors.PreconditionFailed(fmt.Sprintf("Bed %s changed status concurrently", bed.BedNumber))
		}
		return BedError(err, bed.ID)
	}
	bed.Status = next
	return nil
}

// EffectiveRent is the bed's own rent when set, otherwise the room rent.
func EffectiveRent(bed *model.Bed, room *model.Room) decimal.Decimal {
	if bed.MonthlyRent.IsPositive() {
		return bed.MonthlyRent
	}
	if room == nil {
		return decimal.Zero
	}
	return room.MonthlyRent
}

// BedError translates repository errors about a bed into AppErrors.
func BedError(err error, id string) error {
	return repoError(err, "Bed", id)
}

func repoError(err error, resource, id string) error {
	switch {
	case err == nil:
		return nil
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, inventoryerrors.ErrNotFound):
		return apperrors.NotFoundWithID(resource, id)
	case errors.Is(err, inventoryerrors.ErrInvalidID):
		return apperrors.InvalidInput(fmt.Sprintf("Invalid %s ID format", resource))
	case errors.Is(err, inventoryerrors.ErrDuplicate):
		return apperrors.Conflict(fmt.Sprintf("%s already exists", resource))
	default:
		return apperrors.Internal(fmt.Sprintf("Failed to access %s", resource), err)
	}
}
