// Package ledger implements position accounting: applying executed trades to
// a user's per-symbol position, maintaining weighted-average cost basis and
// the realized/unrealized P&L split.
package ledger

import (
	"fmt"
	"time"

	"github.com/copydesk/copydesk/internal/domain"
)

// Apply folds one executed trade into pos and returns the updated position.
// It never mutates its input.
//
// Rules:
//   - buy: quantity adds; average price becomes the quantity-weighted mean of
//     the old basis and the new fill.
//   - sell: sold amount is clamped to the held quantity (overselling drops
//     the excess silently); realized P&L grows by sold*(price-avg); the
//     average price is unchanged.
//   - both: current price is marked to the fill price and unrealized P&L is
//     recomputed as (current-avg)*quantity.
//
// Quantity and price must be positive; anything else is a validation error.
func Apply(pos domain.Position, side domain.TradeSide, quantity, price float64) (domain.Position, error) {
	if err := validate(side, quantity, price); err != nil {
		return domain.Position{}, err
	}

	switch side {
	case domain.TradeSideBuy:
		newQuantity := pos.Quantity + quantity
		pos.AveragePrice = (pos.Quantity*pos.AveragePrice + quantity*price) / newQuantity
		pos.Quantity = newQuantity
	case domain.TradeSideSell:
		sold := quantity
		if sold > pos.Quantity {
			sold = pos.Quantity
		}
		pos.Quantity -= sold
		pos.RealizedPnL += sold * (price - pos.AveragePrice)
	}

	pos.CurrentPrice = price
	pos.UnrealizedPnL = (pos.CurrentPrice - pos.AveragePrice) * pos.Quantity
	return pos, nil
}

// Open creates the initial position for a first buy.
func Open(userID, symbol string, quantity, price float64, now time.Time) (domain.Position, error) {
	if err := validate(domain.TradeSideBuy, quantity, price); err != nil {
		return domain.Position{}, err
	}
	return domain.Position{
		UserID:        userID,
		Symbol:        symbol,
		Quantity:      quantity,
		AveragePrice:  price,
		CurrentPrice:  price,
		UnrealizedPnL: 0,
		RealizedPnL:   0,
		CreatedAt:     now,
		LastUpdated:   now,
	}, nil
}

// Mark updates the position's current price and recomputes unrealized P&L
// without changing quantity or cost basis.
func Mark(pos domain.Position, price float64) domain.Position {
	pos.CurrentPrice = price
	pos.UnrealizedPnL = (pos.CurrentPrice - pos.AveragePrice) * pos.Quantity
	return pos
}

func validate(side domain.TradeSide, quantity, price float64) error {
	if !side.Valid() {
		return fmt.Errorf("ledger: unknown side %q: %w", side, domain.ErrValidation)
	}
	if !(quantity > 0) {
		return fmt.Errorf("ledger: quantity must be positive, got %v: %w", quantity, domain.ErrValidation)
	}
	if !(price > 0) {
		return fmt.Errorf("ledger: price must be positive, got %v: %w", price, domain.ErrValidation)
	}
	return nil
}
