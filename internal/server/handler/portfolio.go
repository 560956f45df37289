package handler

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"

	"turbopricer/internal/domain"
)

// addressPattern matches a 0x-prefixed 20-byte hex address.
var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// PortfolioSource builds the full balance rollup for one account.
type PortfolioSource interface {
	Portfolio(ctx context.Context, account string) (*domain.UserBalances, error)
}

// PortfolioHandler serves the account portfolio endpoint.
type PortfolioHandler struct {
	portfolios PortfolioSource
	logger     *slog.Logger
}

// NewPortfolioHandler creates a PortfolioHandler with the given source and
// logger.
func NewPortfolioHandler(portfolios PortfolioSource, logger *slog.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		portfolios: portfolios,
		logger:     logger,
	}
}

// GetPortfolio returns the full balance rollup for one account: currencies,
// positions with cost basis, LP tokens, and claimable winnings.
// GET /api/portfolio/{account}
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	account := pathParam(r, "account")
	if !addressPattern.MatchString(account) {
		writeError(w, http.StatusBadRequest, "invalid account address")
		return
	}

	ub, err := h.portfolios.Portfolio(r.Context(), account)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: portfolio failed",
			slog.String("account", account),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ub)
}
