package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/copydesk/copydesk/internal/domain"
)

// WalletRequest carries the caller-supplied fields for linking a wallet.
type WalletRequest struct {
	Address string  `json:"address"`
	Network string  `json:"network"`
	Balance float64 `json:"balance"`
}

// WalletService manages users' linked external wallets.
type WalletService struct {
	wallets domain.WalletStore
	audit   domain.AuditStore
	logger  *slog.Logger
}

// NewWalletService creates a WalletService with all required dependencies.
func NewWalletService(wallets domain.WalletStore, audit domain.AuditStore, logger *slog.Logger) *WalletService {
	return &WalletService{wallets: wallets, audit: audit, logger: logger}
}

// Connect links a wallet address to the user. Addresses are checksummed to
// their canonical EIP-55 form before storage; re-connecting an existing
// address updates its balance snapshot.
func (s *WalletService) Connect(ctx context.Context, userID string, req WalletRequest) (domain.WalletConnection, error) {
	if userID == "" {
		return domain.WalletConnection{}, fmt.Errorf("wallet_service: user id required: %w", domain.ErrValidation)
	}
	if !common.IsHexAddress(req.Address) {
		return domain.WalletConnection{}, fmt.Errorf("wallet_service: address %q: %w", req.Address, domain.ErrInvalidAddress)
	}
	network := req.Network
	if network == "" {
		network = "ethereum"
	}

	wallet := domain.WalletConnection{
		ID:          uuid.New().String(),
		UserID:      userID,
		Address:     common.HexToAddress(req.Address).Hex(),
		Network:     network,
		Balance:     req.Balance,
		IsConnected: true,
		ConnectedAt: time.Now().UTC(),
	}

	if err := s.wallets.Upsert(ctx, wallet); err != nil {
		return domain.WalletConnection{}, fmt.Errorf("wallet_service: upsert wallet: %w", err)
	}

	if auditErr := s.audit.Log(ctx, "wallet_connected", map[string]any{
		"user_id": userID,
		"address": wallet.Address,
		"network": wallet.Network,
	}); auditErr != nil {
		s.logger.WarnContext(ctx, "wallet_service: audit log failed",
			slog.String("address", wallet.Address),
			slog.String("error", auditErr.Error()),
		)
	}

	s.logger.InfoContext(ctx, "wallet_service: wallet connected",
		slog.String("user_id", userID),
		slog.String("address", wallet.Address),
		slog.String("network", wallet.Network),
	)

	return wallet, nil
}

// List returns the user's linked wallets.
func (s *WalletService) List(ctx context.Context, userID string) ([]domain.WalletConnection, error) {
	wallets, err := s.wallets.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("wallet_service: list for %q: %w", userID, err)
	}
	return wallets, nil
}
