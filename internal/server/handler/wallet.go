package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/copydesk/copydesk/internal/domain"
	"github.com/copydesk/copydesk/internal/service"
)

// WalletConnector defines the methods the wallet handler requires from the
// service layer.
type WalletConnector interface {
	Connect(ctx context.Context, userID string, req service.WalletRequest) (domain.WalletConnection, error)
	List(ctx context.Context, userID string) ([]domain.WalletConnection, error)
}

// WalletHandler serves wallet-connection HTTP endpoints.
type WalletHandler struct {
	wallets WalletConnector
	logger  *slog.Logger
}

// NewWalletHandler creates a WalletHandler with the given service and logger.
func NewWalletHandler(wallets WalletConnector, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{
		wallets: wallets,
		logger:  logger,
	}
}

// listWalletsResponse wraps the list wallets response.
type listWalletsResponse struct {
	Wallets []domain.WalletConnection `json:"wallets"`
}

// ConnectWallet links an external wallet address to the caller's account.
// The address is checksummed before storage.
// POST /api/wallets
func (h *WalletHandler) ConnectWallet(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req service.WalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	conn, err := h.wallets.Connect(r.Context(), uid, req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to connect wallet")
		return
	}

	writeJSON(w, http.StatusCreated, conn)
}

// ListWallets returns the caller's connected wallets.
// GET /api/wallets
func (h *WalletHandler) ListWallets(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUserID(w, r)
	if !ok {
		return
	}

	wallets, err := h.wallets.List(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to list wallets")
		return
	}

	if wallets == nil {
		wallets = []domain.WalletConnection{}
	}

	writeJSON(w, http.StatusOK, listWalletsResponse{Wallets: wallets})
}
