package models

import (
	"time"

	apperrors "trade-journal/internal/errors"
	"trade-journal/pkg/utils"
)

// ValidateTrade checks a trade coming from an entry surface such as the CLI.
// Stored trades are never rejected by the analytics; this only guards input.
func ValidateTrade(t Trade) error {
	if _, ok := ParseDay(t.Date, time.UTC); !ok {
		return apperrors.NewValidationError("date", t.Date, "must be YYYY-MM-DD")
	}
	if t.Time != "" {
		if _, _, ok := ParseClock(t.Time); !ok {
			return apperrors.NewValidationError("time", t.Time, "must be HH:MM")
		}
	}
	if t.Direction != DirectionLong && t.Direction != DirectionShort {
		return apperrors.NewValidationError("direction", t.Direction, "must be Long or Short")
	}
	if !positive(t.Quantity) {
		return apperrors.NewValidationError("quantity", t.Quantity, "must be a positive number")
	}
	if !utils.IsFinite(t.EntryPrice) {
		return apperrors.NewValidationError("entryPrice", t.EntryPrice, "must be a number")
	}
	if !utils.IsFinite(t.ExitPrice) {
		return apperrors.NewValidationError("exitPrice", t.ExitPrice, "must be a number")
	}
	if t.StopLoss != nil && !utils.IsFinite(*t.StopLoss) {
		return apperrors.NewValidationError("stopLoss", *t.StopLoss, "must be a number")
	}
	if t.Fees < 0 || !utils.IsFinite(t.Fees) {
		return apperrors.NewValidationError("fees", t.Fees, "must be zero or more")
	}
	if _, ok := ParseMentalState(string(t.MentalStateTag)); !ok {
		return apperrors.NewValidationError("mentalStateTag", t.MentalStateTag, "must be disciplined, random or emotional")
	}
	return nil
}

func positive(x float64) bool {
	return utils.IsFinite(x) && x > 0
}
