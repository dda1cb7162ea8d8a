package domain

import "time"

// WalletConnection records an external wallet a user has linked to their
// account. The balance is a cached snapshot from the last sync, not a live
// on-chain read.
type WalletConnection struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Address     string    `json:"address"`
	Network     string    `json:"network"`
	Balance     float64   `json:"balance"`
	IsConnected bool      `json:"is_connected"`
	ConnectedAt time.Time `json:"connected_at"`
}
