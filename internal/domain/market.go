package domain

import (
	"fmt"
	"strings"
)

// MarketID builds the canonical market identifier from a factory address
// and market index.
func MarketID(factoryAddress string, index uint64) string {
	return fmt.Sprintf("%s-%d", strings.ToLower(factoryAddress), index)
}

// MarketStatus represents the resolution lifecycle state of a market.
type MarketStatus string

const (
	MarketStatusTrading   MarketStatus = "trading"
	MarketStatusReporting MarketStatus = "reporting"
	MarketStatusDisputing MarketStatus = "disputing"
	MarketStatusFinalized MarketStatus = "finalized"
	MarketStatusSettled   MarketStatus = "settled"
)

// Outcome is one possible resolution of a market. ShareToken is the ERC20
// that tracks ownership of this outcome inside the pool.
type Outcome struct {
	ID         int
	Name       string
	ShareToken string
	IsInvalid  bool
}

// Market is a single categorical event definition. The winner index is set
// exactly once, at finalization, and never mutated afterwards.
type Market struct {
	ID             string // "<factory address, lowercased>-<index>"
	FactoryAddress string
	Index          uint64
	Title          string
	Outcomes       []Outcome
	EndTimestamp   int64
	Status         MarketStatus
	Winner         *int // outcome index; nil until finalized
	NumTicks       int64
}

// HasWinner reports whether the market finalized with a determined winner.
func (m Market) HasWinner() bool {
	return m.Winner != nil
}

// WinningOutcome returns the winning outcome, if any.
func (m Market) WinningOutcome() (Outcome, bool) {
	if m.Winner == nil || *m.Winner < 0 || *m.Winner >= len(m.Outcomes) {
		return Outcome{}, false
	}
	return m.Outcomes[*m.Winner], true
}
