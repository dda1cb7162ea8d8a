package domain

import "time"

// Pool is a managed trading pool that other users can follow (copy-trade).
// Its aggregate performance fields (AUM, total return, Sharpe ratio, risk
// score) are maintained by the pool manager's trade flow and are read-only
// inputs to the analytics layer.
type Pool struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	ManagerID       string    `json:"manager_id"`
	Strategy        string    `json:"strategy"`
	AUM             float64   `json:"aum"`
	TotalReturn     float64   `json:"total_return"`
	SharpeRatio     float64   `json:"sharpe_ratio"`
	MaxDrawdown     float64   `json:"max_drawdown"`
	RiskScore       int       `json:"risk_score"`
	FollowersCount  int       `json:"followers_count"`
	PerformanceFee  float64   `json:"performance_fee"`
	ManagementFee   float64   `json:"management_fee"`
	MinInvestment   float64   `json:"min_investment"`
	MaxInvestment   *float64  `json:"max_investment"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// PoolFollower records one user's follow relationship with a pool, including
// the amount they committed and whether trades are auto-copied.
type PoolFollower struct {
	ID                   string    `json:"id"`
	PoolID               string    `json:"pool_id"`
	FollowerID           string    `json:"follower_id"`
	InvestmentAmount     float64   `json:"investment_amount"`
	AllocationPercentage float64   `json:"allocation_percentage"`
	AutoCopy             bool      `json:"auto_copy"`
	JoinedAt             time.Time `json:"joined_at"`
}

// PoolFilter narrows pool list queries.
type PoolFilter struct {
	Strategy string
	MinAUM   float64
	MaxRisk  int
}
