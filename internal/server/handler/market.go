package handler

import (
	"context"
	"log/slog"
	"net/http"

	"turbopricer/internal/domain"
	"turbopricer/internal/service"
)

// MarketSource defines what the market handler needs from the portfolio
// service: the markets in the current snapshot. It is declared locally so
// the handler package does not depend on the concrete service type.
type MarketSource interface {
	Markets() []domain.Market
}

// PriceSource answers pool price queries.
type PriceSource interface {
	Prices(ctx context.Context, marketID string) (*service.MarketPrices, error)
}

// MarketHandler serves market-related HTTP endpoints.
type MarketHandler struct {
	markets MarketSource
	quotes  PriceSource
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given sources and logger.
func NewMarketHandler(markets MarketSource, quotes PriceSource, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		markets: markets,
		quotes:  quotes,
		logger:  logger,
	}
}

// listMarketsResponse wraps the list endpoint output with metadata.
type listMarketsResponse struct {
	Markets []domain.Market `json:"markets"`
	Total   int             `json:"total"`
}

// ListMarkets returns every market in the current snapshot.
// GET /api/markets
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	markets := h.markets.Markets()
	if markets == nil {
		markets = []domain.Market{}
	}
	writeJSON(w, http.StatusOK, listMarketsResponse{
		Markets: markets,
		Total:   len(markets),
	})
}

// GetPrices returns the current outcome prices and total liquidity for one
// market's pool.
// GET /api/markets/{id}/prices
func (h *MarketHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	marketID := pathParam(r, "id")

	prices, err := h.quotes.Prices(r.Context(), marketID)
	if err != nil {
		h.logger.WarnContext(r.Context(), "handler: prices failed",
			slog.String("market_id", marketID),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prices)
}
