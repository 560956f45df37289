package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"turbopricer/internal/domain"
	"turbopricer/internal/portfolio"
)

func TestMarketListPinnedToSnapshot(t *testing.T) {
	snapA := &portfolio.Snapshot{Markets: map[string]domain.Market{
		"0xfac-1": {ID: "0xfac-1", Title: "first"},
	}}
	snapB := &portfolio.Snapshot{Markets: map[string]domain.Market{
		"0xfac-2": {ID: "0xfac-2", Title: "second"},
	}}

	s := &PortfolioService{snap: snapA}
	held := s.Snapshot()

	// A refresh swapping the snapshot mid-rollup must not change the market
	// list derived from the one already in hand; markets and pools always
	// come from the same cycle.
	s.mu.Lock()
	s.snap = snapB
	s.mu.Unlock()

	markets := marketList(held)
	require.Len(t, markets, 1)
	require.Equal(t, "0xfac-1", markets[0].ID)

	current := s.Markets()
	require.Len(t, current, 1)
	require.Equal(t, "0xfac-2", current[0].ID)
}
