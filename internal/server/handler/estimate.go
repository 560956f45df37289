package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"turbopricer/internal/domain"
)

// QuoteSource defines the trade and liquidity simulations the estimate
// handler exposes.
type QuoteSource interface {
	EstimateBuy(ctx context.Context, marketID string, outcome int, cashAmount string) (*domain.TradeEstimate, error)
	EstimateSell(ctx context.Context, marketID string, outcome int, shareAmount, shareBalance string) (*domain.TradeEstimate, error)
	EstimateAddLiquidity(ctx context.Context, marketID string, cashAmount string, initialPrices []string) (*domain.AddLiquidityBreakdown, error)
	EstimateRemoveLiquidity(ctx context.Context, marketID string, lpTokens string) (*domain.LiquidityBreakdown, error)
}

// EstimateHandler serves trade and liquidity estimate endpoints. Estimates
// are read-only simulations; nothing here signs or submits a transaction.
type EstimateHandler struct {
	quotes QuoteSource
	logger *slog.Logger
}

// NewEstimateHandler creates an EstimateHandler with the given source and
// logger.
func NewEstimateHandler(quotes QuoteSource, logger *slog.Logger) *EstimateHandler {
	return &EstimateHandler{
		quotes: quotes,
		logger: logger,
	}
}

type buyEstimateRequest struct {
	Outcome int    `json:"outcome"`
	Amount  string `json:"amount"`
}

// EstimateBuy simulates buying an outcome with collateral.
// POST /api/markets/{id}/estimate/buy
func (h *EstimateHandler) EstimateBuy(w http.ResponseWriter, r *http.Request) {
	marketID := pathParam(r, "id")

	var req buyEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	est, err := h.quotes.EstimateBuy(r.Context(), marketID, req.Outcome, req.Amount)
	if err != nil {
		h.logger.WarnContext(r.Context(), "handler: buy estimate failed",
			slog.String("market_id", marketID),
			slog.Int("outcome", req.Outcome),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

type sellEstimateRequest struct {
	Outcome int    `json:"outcome"`
	Amount  string `json:"amount"`
	Balance string `json:"balance,omitempty"`
}

// EstimateSell simulates selling outcome shares for collateral.
// POST /api/markets/{id}/estimate/sell
func (h *EstimateHandler) EstimateSell(w http.ResponseWriter, r *http.Request) {
	marketID := pathParam(r, "id")

	var req sellEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	est, err := h.quotes.EstimateSell(r.Context(), marketID, req.Outcome, req.Amount, req.Balance)
	if err != nil {
		h.logger.WarnContext(r.Context(), "handler: sell estimate failed",
			slog.String("market_id", marketID),
			slog.Int("outcome", req.Outcome),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

type addLiquidityRequest struct {
	Amount        string   `json:"amount"`
	InitialPrices []string `json:"initialPrices,omitempty"`
}

// EstimateAddLiquidity simulates a liquidity deposit.
// POST /api/markets/{id}/estimate/add-liquidity
func (h *EstimateHandler) EstimateAddLiquidity(w http.ResponseWriter, r *http.Request) {
	marketID := pathParam(r, "id")

	var req addLiquidityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	breakdown, err := h.quotes.EstimateAddLiquidity(r.Context(), marketID, req.Amount, req.InitialPrices)
	if err != nil {
		h.logger.WarnContext(r.Context(), "handler: add liquidity estimate failed",
			slog.String("market_id", marketID),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

type removeLiquidityRequest struct {
	LPTokens string `json:"lpTokens"`
}

// EstimateRemoveLiquidity simulates an LP withdrawal.
// POST /api/markets/{id}/estimate/remove-liquidity
func (h *EstimateHandler) EstimateRemoveLiquidity(w http.ResponseWriter, r *http.Request) {
	marketID := pathParam(r, "id")

	var req removeLiquidityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	breakdown, err := h.quotes.EstimateRemoveLiquidity(r.Context(), marketID, req.LPTokens)
	if err != nil {
		h.logger.WarnContext(r.Context(), "handler: remove liquidity estimate failed",
			slog.String("market_id", marketID),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}
