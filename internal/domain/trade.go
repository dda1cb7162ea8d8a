package domain

import "time"

// TradeSide is the direction of a trade.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// Valid reports whether the side is one of the two known values.
func (s TradeSide) Valid() bool {
	return s == TradeSideBuy || s == TradeSideSell
}

// TradeStatus tracks the lifecycle of a recorded trade.
type TradeStatus string

const (
	TradeStatusPending  TradeStatus = "pending"
	TradeStatusExecuted TradeStatus = "executed"
	TradeStatusFailed   TradeStatus = "failed"
)

// Trade is an immutable record of a single execution. Personal trades have a
// nil PoolID; pool trades carry the pool they were executed for.
//
// TotalValue is supplied by the caller at recording time and is intentionally
// not re-derived from Quantity*Price downstream.
type Trade struct {
	ID            string      `json:"id"`
	PoolID        *string     `json:"pool_id"`
	TraderID      string      `json:"trader_id"`
	Symbol        string      `json:"symbol"`
	Side          TradeSide   `json:"side"`
	Quantity      float64     `json:"quantity"`
	Price         float64     `json:"price"`
	TotalValue    float64     `json:"total_value"`
	Fee           float64     `json:"fee"`
	Status        TradeStatus `json:"status"`
	Network       string      `json:"network"`
	TxHash        string      `json:"tx_hash"`
	GasUsed       *float64    `json:"gas_used"`
	GasPrice      *float64    `json:"gas_price"`
	ExecutionTime *time.Time  `json:"execution_time"`
	CreatedAt     time.Time   `json:"created_at"`
}

// TradeFilter narrows trade list queries.
type TradeFilter struct {
	Network string
	Status  TradeStatus
	PoolID  string
}
