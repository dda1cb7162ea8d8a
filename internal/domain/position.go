package domain

import "time"

// Position is a user's net holding in one symbol with cost-basis and P&L
// tracking. There is exactly one position per (user, symbol) pair. A position
// is created by the first buy and never deleted; fully sold positions remain
// with Quantity == 0.
type Position struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	Symbol               string    `json:"symbol"`
	Quantity             float64   `json:"quantity"`
	AveragePrice         float64   `json:"average_price"`
	CurrentPrice         float64   `json:"current_price"`
	UnrealizedPnL        float64   `json:"unrealized_pnl"`
	RealizedPnL          float64   `json:"realized_pnl"`
	AllocationPercentage float64   `json:"allocation_percentage"`
	CreatedAt            time.Time `json:"created_at"`
	LastUpdated          time.Time `json:"last_updated"`
}

// Value is the mark-to-market value of the held quantity.
func (p Position) Value() float64 {
	return p.Quantity * p.CurrentPrice
}
